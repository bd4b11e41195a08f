package guard

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/funday-app/funday-server/internal/authz"
	"github.com/funday-app/funday-server/internal/models"
)

func initTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect to in-memory db: %v", err)
	}
	if err := db.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("failed to migrate tables: %v", err)
	}
	return db
}

func seedUser(t *testing.T, db *gorm.DB, email, role string) models.User {
	t.Helper()
	user := models.User{Name: email, Email: email, PasswordHash: "x", Role: role}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func asCaller(u models.User) authz.Context {
	return authz.Context{UserID: u.ID, Role: u.Role, Authenticated: true}
}

func TestGuardDeniesUnknownCaller(t *testing.T) {
	db := initTestDB(t)
	g := &Guard{DB: db}
	ctx := context.Background()

	// token claims a user that no longer exists
	ghost := authz.Context{UserID: 999, Role: models.RoleAdmin, Authenticated: true}
	require.False(t, g.IsAdmin(ctx, ghost))
	require.False(t, g.OwnsOrder(ctx, ghost, 1))
	require.False(t, g.CanEditProduct(ctx, ghost, 1))

	anonymous := authz.Context{}
	require.False(t, g.IsAdmin(ctx, anonymous))
	require.False(t, g.IsEditorOrAdmin(ctx, anonymous))
}

func TestGuardUsesStoredRoleNotToken(t *testing.T) {
	db := initTestDB(t)
	g := &Guard{DB: db}
	ctx := context.Background()

	user := seedUser(t, db, "demoted@example.com", models.RoleUser)

	// stale token still carries the admin role
	stale := authz.Context{UserID: user.ID, Role: models.RoleAdmin, Authenticated: true}
	require.False(t, g.IsAdmin(ctx, stale))
}

func TestOwnsOrder(t *testing.T) {
	db := initTestDB(t)
	g := &Guard{DB: db}
	ctx := context.Background()

	owner := seedUser(t, db, "owner@example.com", models.RoleUser)
	other := seedUser(t, db, "other@example.com", models.RoleUser)
	admin := seedUser(t, db, "admin@example.com", models.RoleAdmin)

	require.NoError(t, db.Create(&models.Order{UserID: &owner.ID, ProductID: 1, TotalPrice: 10}).Error)
	require.NoError(t, db.Create(&models.Order{OrdererName: "guest", OrdererPhone: "010", ProductID: 1, TotalPrice: 10}).Error)

	require.True(t, g.OwnsOrder(ctx, asCaller(owner), 1))
	require.False(t, g.OwnsOrder(ctx, asCaller(other), 1))
	require.True(t, g.OwnsOrder(ctx, asCaller(admin), 1))

	// guest order has no owner, only admins get through
	require.False(t, g.OwnsOrder(ctx, asCaller(owner), 2))
	require.True(t, g.OwnsOrder(ctx, asCaller(admin), 2))

	// missing order is a deny, not an error
	require.False(t, g.OwnsOrder(ctx, asCaller(owner), 404))
}

func TestCanEditProduct(t *testing.T) {
	db := initTestDB(t)
	g := &Guard{DB: db}
	ctx := context.Background()

	host := seedUser(t, db, "host@example.com", models.RoleUser)
	editor := seedUser(t, db, "editor@example.com", models.RoleEditor)
	stranger := seedUser(t, db, "stranger@example.com", models.RoleUser)

	require.NoError(t, db.Create(&models.Product{Title: "t", Description: "d", Price: 1, HostID: host.ID}).Error)

	require.True(t, g.CanEditProduct(ctx, asCaller(host), 1))
	require.True(t, g.CanEditProduct(ctx, asCaller(editor), 1))
	require.False(t, g.CanEditProduct(ctx, asCaller(stranger), 1))
	require.False(t, g.CanEditProduct(ctx, asCaller(host), 404))
}

func TestOwnsPaymentFollowsOrder(t *testing.T) {
	db := initTestDB(t)
	g := &Guard{DB: db}
	ctx := context.Background()

	owner := seedUser(t, db, "owner@example.com", models.RoleUser)
	other := seedUser(t, db, "other@example.com", models.RoleUser)

	require.NoError(t, db.Create(&models.Order{UserID: &owner.ID, ProductID: 1, TotalPrice: 10}).Error)
	require.NoError(t, db.Create(&models.Payment{OrderID: 1, Amount: 10, Method: "card", PaidAt: time.Now()}).Error)

	require.True(t, g.OwnsPayment(ctx, asCaller(owner), 1))
	require.False(t, g.OwnsPayment(ctx, asCaller(other), 1))
	require.False(t, g.OwnsPayment(ctx, asCaller(owner), 404))
}

func TestOwnsCoupon(t *testing.T) {
	db := initTestDB(t)
	g := &Guard{DB: db}
	ctx := context.Background()

	holder := seedUser(t, db, "holder@example.com", models.RoleUser)
	other := seedUser(t, db, "other@example.com", models.RoleUser)
	admin := seedUser(t, db, "admin@example.com", models.RoleAdmin)

	require.NoError(t, db.Create(&models.Coupon{Code: "c", Name: "n", Discount: 1, ExpiresAt: time.Now().Add(time.Hour), UserID: &holder.ID}).Error)
	require.NoError(t, db.Create(&models.Coupon{Code: "u", Name: "unassigned", Discount: 1, ExpiresAt: time.Now().Add(time.Hour)}).Error)

	require.True(t, g.OwnsCoupon(ctx, asCaller(holder), 1))
	require.False(t, g.OwnsCoupon(ctx, asCaller(other), 1))
	require.False(t, g.OwnsCoupon(ctx, asCaller(holder), 2))
	require.True(t, g.OwnsCoupon(ctx, asCaller(admin), 2))
}
