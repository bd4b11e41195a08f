package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/funday-app/funday-server/internal/config"
	"github.com/funday-app/funday-server/internal/es"
	"github.com/funday-app/funday-server/internal/eventbus"
	"github.com/funday-app/funday-server/internal/guard"
	"github.com/funday-app/funday-server/internal/handlers"
	"github.com/funday-app/funday-server/internal/logging"
	"github.com/funday-app/funday-server/internal/mykafka"
	"github.com/funday-app/funday-server/internal/notify"
	"github.com/funday-app/funday-server/internal/oauth"
	"github.com/funday-app/funday-server/internal/service"
	"github.com/funday-app/funday-server/internal/token"
	transport "github.com/funday-app/funday-server/internal/transport/http"
	"github.com/funday-app/funday-server/internal/util"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("cannot load config: %v", err)
	}

	logger := logging.New(cfg.LOG_LEVEL)

	db, err := config.InitDB()
	if err != nil {
		logger.Error("cannot init database", "error", err)
		os.Exit(1)
	}

	slack := &notify.SlackNotifier{
		WebhookURL:    cfg.SLACK_WEBHOOK_URL,
		OpsWebhookURL: cfg.SLACK_OPS_WEBHOOK_URL,
	}
	alimtalk := notify.NewAlimtalkClient(cfg.ALIMTALK_URL, cfg.ALIMTALK_API_KEY, cfg.ALIMTALK_SENDER_KEY, cfg.ALIMTALK_SENDER)
	mailer := &notify.Mailer{
		Host:     cfg.SMTP_HOST,
		Port:     util.ParseIntDefault(cfg.SMTP_PORT, 587),
		Username: cfg.SMTP_USER,
		Password: cfg.SMTP_PASSWORD,
		From:     cfg.MAIL_FROM,
	}

	bus := eventbus.NewBus()
	notifier := &notify.Notifier{Slack: slack, Alimtalk: alimtalk, Mailer: mailer, Log: logger}
	notifier.Register(bus)

	var producer *mykafka.Producer
	if cfg.KAFKA_ADDRESS != "" {
		producer = mykafka.NewProducer([]string{cfg.KAFKA_ADDRESS})
		defer producer.Close()
		bus.SubscribeAll(producer.Forwarder("funday.events", logger))
	}

	tokens := &token.Service{
		DB:            db,
		JWTSecret:     []byte(cfg.JWT_SECRET),
		RefreshSecret: []byte(cfg.REFRESH_SECRET),
	}
	g := &guard.Guard{DB: db}

	users := &service.UserService{DB: db}
	productSvc := &service.ProductService{DB: db}
	events := &service.EventService{DB: db}
	orders := &service.OrderService{DB: db, Bus: bus}
	payments := &service.PaymentService{DB: db, Bus: bus}
	reviews := &service.ReviewService{DB: db, Bus: bus}
	coupons := &service.CouponService{DB: db}
	magazines := &service.MagazineService{DB: db}

	deps := transport.Deps{
		DB:     db,
		Tokens: tokens,
		Auth: &handlers.AuthHandler{
			DB:            db,
			JWTSecret:     []byte(cfg.JWT_SECRET),
			RefreshSecret: []byte(cfg.REFRESH_SECRET),
			OAuth:         oauth.NewClient(),
			Users:         users,
			Ops:           slack,
		},
		Users:     &handlers.UserHandler{Users: users, Guard: g, Ops: slack},
		Products:  &handlers.ProductHandler{Products: productSvc, Guard: g, ESIndex: "products", Ops: slack},
		Events:    &handlers.EventHandler{Events: events, Guard: g, Ops: slack},
		Orders:    &handlers.OrderHandler{Orders: orders, Guard: g, Ops: slack},
		Payments:  &handlers.PaymentHandler{Payments: payments, Guard: g, Ops: slack},
		Reviews:   &handlers.ReviewHandler{Reviews: reviews, Guard: g, Ops: slack},
		Coupons:   &handlers.CouponHandler{Coupons: coupons, Guard: g, Ops: slack},
		Magazines: &handlers.MagazineHandler{Magazines: magazines, Guard: g, Ops: slack},
	}

	if cfg.ES_URL != "" {
		client, err := es.NewClient(cfg)
		if err != nil {
			logger.Error("cannot init elasticsearch, search disabled", "error", err)
		} else {
			deps.Products.ES = client
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(logging.Middleware(logger))

	transport.Register(e, deps)

	go func() {
		if err := e.Start(":8080"); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Error("shutdown failed", "error", err)
	}
	logger.Info("server stopped")
}
