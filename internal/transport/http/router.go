// Package http wires the handler structs onto the echo router.
package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/funday-app/funday-server/internal/handlers"
	"github.com/funday-app/funday-server/internal/token"
)

// Deps carries everything the routes need. The caller owns construction and
// shutdown of each dependency.
type Deps struct {
	DB     *gorm.DB
	Tokens *token.Service

	Auth      *handlers.AuthHandler
	Users     *handlers.UserHandler
	Products  *handlers.ProductHandler
	Events    *handlers.EventHandler
	Orders    *handlers.OrderHandler
	Payments  *handlers.PaymentHandler
	Reviews   *handlers.ReviewHandler
	Coupons   *handlers.CouponHandler
	Magazines *handlers.MagazineHandler
}

func Register(e *echo.Echo, d Deps) {
	e.GET("/health/live", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})
	e.GET("/health/ready", func(c echo.Context) error {
		sqlDB, err := d.DB.DB()
		if err != nil || sqlDB.PingContext(c.Request().Context()) != nil {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "db unreachable"})
		}
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})

	api := e.Group("/api")

	auth := api.Group("/auth")
	auth.POST("/register", d.Auth.Register)
	auth.POST("/login", d.Auth.Login)
	auth.POST("/logout", d.Auth.Logout)
	auth.POST("/oauth/:provider", d.Auth.OAuthLogin)

	users := api.Group("/users", d.Tokens.RequireAuth)
	users.GET("/me", d.Users.Me)
	users.PATCH("/me", d.Users.PatchMe)
	users.GET("", d.Users.List)
	users.GET("/:id", d.Users.Get)
	users.PATCH("/:id", d.Users.Patch)
	users.DELETE("/:id", d.Users.Delete)

	products := api.Group("/products")
	products.GET("", d.Products.List)
	products.GET("/search", d.Products.Search)
	products.GET("/:id", d.Products.Get)
	products.POST("", d.Products.Create, d.Tokens.RequireAuth)
	products.PATCH("/:id", d.Products.Patch, d.Tokens.RequireAuth)
	products.DELETE("/:id", d.Products.Delete, d.Tokens.RequireAuth)
	products.POST("/:id/options", d.Products.AddOption, d.Tokens.RequireAuth)
	products.DELETE("/options/:optionId", d.Products.DeleteOption, d.Tokens.RequireAuth)

	events := api.Group("/events")
	events.GET("", d.Events.List)
	events.GET("/:id", d.Events.Get)
	events.POST("", d.Events.Create, d.Tokens.RequireAuth)
	events.PATCH("/:id", d.Events.Patch, d.Tokens.RequireAuth)
	events.DELETE("/:id", d.Events.Delete, d.Tokens.RequireAuth)

	orders := api.Group("/orders")
	orders.POST("/guest", d.Orders.CreateGuest)
	orders.POST("", d.Orders.Create, d.Tokens.RequireAuth)
	orders.GET("", d.Orders.List, d.Tokens.RequireAuth)
	orders.GET("/:id", d.Orders.Get, d.Tokens.RequireAuth)
	orders.PATCH("/:id/status", d.Orders.PatchStatus, d.Tokens.RequireAuth)
	orders.DELETE("/:id", d.Orders.Delete, d.Tokens.RequireAuth)

	payments := api.Group("/payments", d.Tokens.RequireAuth)
	payments.POST("", d.Payments.Create)
	payments.GET("/:id", d.Payments.Get)

	reviews := api.Group("/reviews")
	reviews.GET("", d.Reviews.ListByProduct)
	reviews.GET("/events", d.Reviews.ListByEvent)
	reviews.GET("/:id", d.Reviews.Get)
	reviews.POST("", d.Reviews.CreateForPayment, d.Tokens.RequireAuth)
	reviews.POST("/events", d.Reviews.CreateForEvent, d.Tokens.RequireAuth)
	reviews.POST("/:id/replies", d.Reviews.Reply, d.Tokens.RequireAuth)
	reviews.PATCH("/:id", d.Reviews.Patch, d.Tokens.RequireAuth)
	reviews.DELETE("/:id", d.Reviews.Delete, d.Tokens.RequireAuth)

	coupons := api.Group("/coupons", d.Tokens.RequireAuth)
	coupons.POST("", d.Coupons.Issue)
	coupons.GET("/active", d.Coupons.ListActive)
	coupons.GET("/used", d.Coupons.ListUsed)
	coupons.GET("/expired", d.Coupons.ListExpired)
	coupons.GET("/:id", d.Coupons.Get)
	coupons.PATCH("/:id", d.Coupons.Patch)
	coupons.DELETE("/:id", d.Coupons.Delete)

	magazines := api.Group("/magazines")
	magazines.GET("", d.Magazines.List)
	magazines.GET("/:id", d.Magazines.Get)
	magazines.POST("", d.Magazines.Create, d.Tokens.RequireAuth)
	magazines.PATCH("/:id", d.Magazines.Patch, d.Tokens.RequireAuth)
	magazines.DELETE("/:id", d.Magazines.Delete, d.Tokens.RequireAuth)
}
