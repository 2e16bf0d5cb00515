// Package testutil builds the in-memory stores used by handler and service tests.
package testutil

import (
	"context"
	"testing"

	"nexar-backend/internal/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB opens a fresh in-memory SQLite database with every model migrated.
// The pool is pinned to one connection so all queries see the same memory database.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(domain.Models()...))
	return db
}

// NewRedis starts a miniredis server and returns it with a connected client.
func NewRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

// SeedAccount inserts a confirmed user with its profile. Mutate the returned profile and save it
// for admin or suspended fixtures.
func SeedAccount(t *testing.T, db *gorm.DB, name, email string) (*domain.User, *domain.Profile) {
	t.Helper()
	ctx := context.Background()
	u := &domain.User{Email: email, PasswordHash: "x"}
	require.NoError(t, db.WithContext(ctx).Create(u).Error)
	require.NoError(t, db.WithContext(ctx).Model(u).Update("email_confirmed_at", gorm.Expr("CURRENT_TIMESTAMP")).Error)
	p := &domain.Profile{UserID: u.ID, Name: name, Email: email, SellerType: "individual"}
	require.NoError(t, db.WithContext(ctx).Create(p).Error)
	return u, p
}

// SeedListing inserts an active listing owned by seller.
func SeedListing(t *testing.T, db *gorm.DB, seller *domain.Profile, title string, price float64) *domain.Listing {
	t.Helper()
	l := &domain.Listing{
		Title:       title,
		Description: "Descriere " + title,
		Price:       price,
		Year:        2018,
		Mileage:     120000,
		Category:    "autoturisme",
		Brand:       "Dacia",
		Model:       "Logan",
		Location:    "Cluj-Napoca",
		Condition:   "buna",
		Status:      "active",
		SellerID:    seller.ID,
	}
	require.NoError(t, db.Create(l).Error)
	return l
}

// SessionUser returns the Locals map a logged-in session carries for p.
func SessionUser(p *domain.Profile) map[string]interface{} {
	return map[string]interface{}{
		"user_id":     p.UserID.String(),
		"profile_id":  p.ID.String(),
		"name":        p.Name,
		"email":       p.Email,
		"seller_type": p.SellerType,
		"is_admin":    p.IsAdmin,
	}
}
