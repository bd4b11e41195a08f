package guard

import (
	"context"

	"gorm.io/gorm"

	"github.com/funday-app/funday-server/internal/authz"
	"github.com/funday-app/funday-server/internal/models"
)

// Guard re-fetches the caller and the target resource for every check and
// compares role or ownership. Every predicate returns a plain bool: any lookup
// failure (missing user, missing target, db error) is a deny, never an error.
type Guard struct {
	DB *gorm.DB
}

// currentUser re-loads the caller row. The role in the token is not trusted
// for guarded writes; a user demoted since login loses access immediately.
func (g *Guard) currentUser(ctx context.Context, ac authz.Context) (*models.User, bool) {
	if !ac.Authenticated {
		return nil, false
	}
	var user models.User
	if err := g.DB.WithContext(ctx).First(&user, ac.UserID).Error; err != nil {
		return nil, false
	}
	return &user, true
}

func (g *Guard) IsAdmin(ctx context.Context, ac authz.Context) bool {
	user, ok := g.currentUser(ctx, ac)
	return ok && user.Role == models.RoleAdmin
}

func (g *Guard) IsEditorOrAdmin(ctx context.Context, ac authz.Context) bool {
	user, ok := g.currentUser(ctx, ac)
	return ok && (user.Role == models.RoleAdmin || user.Role == models.RoleEditor)
}

// CanEditProduct allows the owning host, editors and admins.
func (g *Guard) CanEditProduct(ctx context.Context, ac authz.Context, productID uint) bool {
	user, ok := g.currentUser(ctx, ac)
	if !ok {
		return false
	}
	if user.Role == models.RoleAdmin || user.Role == models.RoleEditor {
		return true
	}
	var product models.Product
	if err := g.DB.WithContext(ctx).First(&product, productID).Error; err != nil {
		return false
	}
	return product.HostID == user.ID
}

// OwnsOrder allows the ordering user and admins. Non-member orders have no
// owner and are admin-only through this predicate.
func (g *Guard) OwnsOrder(ctx context.Context, ac authz.Context, orderID uint) bool {
	user, ok := g.currentUser(ctx, ac)
	if !ok {
		return false
	}
	if user.Role == models.RoleAdmin {
		return true
	}
	var order models.Order
	if err := g.DB.WithContext(ctx).First(&order, orderID).Error; err != nil {
		return false
	}
	return order.UserID != nil && *order.UserID == user.ID
}

// OwnsPayment resolves the payment's order and defers to OwnsOrder.
func (g *Guard) OwnsPayment(ctx context.Context, ac authz.Context, paymentID uint) bool {
	var payment models.Payment
	if err := g.DB.WithContext(ctx).First(&payment, paymentID).Error; err != nil {
		return false
	}
	return g.OwnsOrder(ctx, ac, payment.OrderID)
}

func (g *Guard) OwnsReview(ctx context.Context, ac authz.Context, reviewID uint) bool {
	user, ok := g.currentUser(ctx, ac)
	if !ok {
		return false
	}
	if user.Role == models.RoleAdmin {
		return true
	}
	var review models.Review
	if err := g.DB.WithContext(ctx).First(&review, reviewID).Error; err != nil {
		return false
	}
	return review.AuthorID == user.ID
}

// CanEditMagazine allows the author, editors and admins.
func (g *Guard) CanEditMagazine(ctx context.Context, ac authz.Context, magazineID uint) bool {
	user, ok := g.currentUser(ctx, ac)
	if !ok {
		return false
	}
	if user.Role == models.RoleAdmin || user.Role == models.RoleEditor {
		return true
	}
	var magazine models.Magazine
	if err := g.DB.WithContext(ctx).First(&magazine, magazineID).Error; err != nil {
		return false
	}
	return magazine.AuthorID == user.ID
}

// OwnsCoupon allows the holder and admins. Unassigned coupons are admin-only.
func (g *Guard) OwnsCoupon(ctx context.Context, ac authz.Context, couponID uint) bool {
	user, ok := g.currentUser(ctx, ac)
	if !ok {
		return false
	}
	if user.Role == models.RoleAdmin {
		return true
	}
	var coupon models.Coupon
	if err := g.DB.WithContext(ctx).First(&coupon, couponID).Error; err != nil {
		return false
	}
	return coupon.UserID != nil && *coupon.UserID == user.ID
}
