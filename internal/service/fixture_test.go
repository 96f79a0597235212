package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/suteetoe/shopstock/internal/actor"
	"github.com/suteetoe/shopstock/internal/model"
	"github.com/suteetoe/shopstock/internal/testdb"
	"github.com/suteetoe/shopstock/pkg/apperror"
	"gorm.io/gorm"
)

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

// fixture holds two shops with their owners, a member of shop A, a staff
// account without a shop and an account without any shop.
type fixture struct {
	db        *gorm.DB
	inventory *Inventory
	orders    *Orders
	directory *Directory

	shopA, shopB   model.Shop
	ownerA, ownerB model.Account
	clerkA         model.Account
	staff          model.Account
	drifter        model.Account
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := testdb.Open(t)
	clock := WithClock(func() time.Time { return testNow })
	f := &fixture{
		db:        db,
		inventory: NewInventory(db, clock),
		orders:    NewOrders(db, clock),
		directory: NewDirectory(db, clock),
	}

	f.ownerA = testdb.Account(t, db, "alice", nil, false)
	f.shopA = testdb.Shop(t, db, "Alice Groceries", &f.ownerA)
	f.ownerB = testdb.Account(t, db, "bob", nil, false)
	f.shopB = testdb.Shop(t, db, "Bob Hardware", &f.ownerB)
	f.clerkA = testdb.Account(t, db, "carol", &f.shopA.ID, false)
	f.staff = testdb.Account(t, db, "root", nil, true)
	f.drifter = testdb.Account(t, db, "dave", nil, false)
	return f
}

func actorOf(acc model.Account) actor.Actor {
	return actor.Actor{AccountID: acc.ID, TenantID: acc.ShopID, IsStaff: acc.IsStaff}
}

func (f *fixture) product(t *testing.T, owner model.Account, name string, initial int) *model.Product {
	t.Helper()

	p, err := f.inventory.CreateProduct(context.Background(), actorOf(owner), ProductInput{
		Name:         name,
		Price:        decimal.RequireFromString("9.99"),
		TaxRate:      decimal.RequireFromString("7"),
		InitialStock: initial,
	})
	if err != nil {
		t.Fatalf("create product %s: %v", name, err)
	}
	return p
}

func (f *fixture) stockOf(t *testing.T, productID uint) int {
	t.Helper()

	var p model.Product
	if err := f.db.Unscoped().First(&p, productID).Error; err != nil {
		t.Fatalf("load product %d: %v", productID, err)
	}
	return p.StockQuantity
}

func (f *fixture) entriesOf(t *testing.T, productID uint) []model.InventoryEntry {
	t.Helper()

	var entries []model.InventoryEntry
	if err := f.db.Where("product_id = ?", productID).Order("id ASC").Find(&entries).Error; err != nil {
		t.Fatalf("load entries: %v", err)
	}
	return entries
}

// assertLedgerConsistent checks the stock counter equals the replayed ledger
func (f *fixture) assertLedgerConsistent(t *testing.T, productID uint) {
	t.Helper()

	replayed, err := model.ReplayStock(f.entriesOf(t, productID))
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if stock := f.stockOf(t, productID); stock != replayed {
		t.Fatalf("stock_quantity = %d, replayed ledger = %d", stock, replayed)
	}
}

func assertCode(t *testing.T, err error, want apperror.Code) *apperror.Error {
	t.Helper()

	if err == nil {
		t.Fatalf("err = nil, want %s", want)
	}
	var appErr *apperror.Error
	if !errors.As(err, &appErr) {
		t.Fatalf("err = %T %v, want *apperror.Error", err, err)
	}
	if appErr.Code != want {
		t.Fatalf("code = %s (%s), want %s", appErr.Code, appErr.Message, want)
	}
	return appErr
}

func assertField(t *testing.T, appErr *apperror.Error, field string) {
	t.Helper()

	if !appErr.Fields.Has(field) {
		t.Fatalf("fields = %v, want an error for %q", appErr.Fields, field)
	}
}
