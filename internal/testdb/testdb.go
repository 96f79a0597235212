// Package testdb opens throwaway migrated databases for tests.
package testdb

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/suteetoe/shopstock/internal/model"
	"github.com/suteetoe/shopstock/pkg/config"
	"github.com/suteetoe/shopstock/pkg/database"
	"gorm.io/gorm"
)

// Open returns a migrated sqlite database in a temp dir, closed on cleanup.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	cfg := &config.DBConfig{
		Driver:          config.DriverSQLite,
		SQLitePath:      filepath.Join(t.TempDir(), "shopstock.db"),
		ConnMaxLifetime: time.Hour,
		LogLevel:        "silent",
	}
	db, err := database.Open(cfg)
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() {
		if err := database.Close(db); err != nil {
			t.Errorf("close database: %v", err)
		}
	})

	if err := database.MigrateModels(db, model.All()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// Account inserts an account, optionally assigned to shopID
func Account(t testing.TB, db *gorm.DB, username string, shopID *uint, staff bool) model.Account {
	t.Helper()

	acc := model.Account{
		Username: username,
		Email:    username + "@example.com",
		ShopID:   shopID,
		IsStaff:  staff,
		IsActive: true,
	}
	if err := db.Create(&acc).Error; err != nil {
		t.Fatalf("create account %s: %v", username, err)
	}
	return acc
}

// Shop inserts a shop owned by owner and assigns the owner to it
func Shop(t testing.TB, db *gorm.DB, name string, owner *model.Account) model.Shop {
	t.Helper()

	shop := model.Shop{Name: name, OwnerID: owner.ID}
	if err := db.Create(&shop).Error; err != nil {
		t.Fatalf("create shop %s: %v", name, err)
	}
	if err := db.Model(owner).Update("shop_id", shop.ID).Error; err != nil {
		t.Fatalf("assign owner: %v", err)
	}
	owner.ShopID = &shop.ID
	return shop
}
