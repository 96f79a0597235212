package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/suteetoe/shopstock/internal/model"
	"github.com/suteetoe/shopstock/pkg/apperror"
)

func TestRecordMovementScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	clerk := actorOf(f.clerkA)

	p := f.product(t, f.ownerA, "Rice", 100)

	if _, err := f.inventory.RecordMovement(ctx, clerk, MovementInput{
		ProductID: p.ID, MovementType: model.MovementRemoval, Quantity: 30,
	}); err != nil {
		t.Fatalf("removal: %v", err)
	}
	entry, err := f.inventory.RecordMovement(ctx, clerk, MovementInput{
		ProductID: p.ID, MovementType: model.MovementAddition, Quantity: 10, Notes: "  restock  ",
	})
	if err != nil {
		t.Fatalf("addition: %v", err)
	}

	if got := f.stockOf(t, p.ID); got != 80 {
		t.Fatalf("stock = %d, want 80", got)
	}
	entries := f.entriesOf(t, p.ID)
	if len(entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(entries))
	}
	if entries[0].MovementType != model.MovementInitialStock {
		t.Fatalf("first entry = %s, want initial_stock", entries[0].MovementType)
	}
	if entry.BalanceBefore != 70 || entry.BalanceAfter != 80 {
		t.Fatalf("balances = %d -> %d, want 70 -> 80", entry.BalanceBefore, entry.BalanceAfter)
	}
	if entry.ShopID != f.shopA.ID {
		t.Fatalf("entry shop = %d, want %d", entry.ShopID, f.shopA.ID)
	}
	if entry.ActorID == nil || *entry.ActorID != f.clerkA.ID {
		t.Fatalf("entry actor = %v, want %d", entry.ActorID, f.clerkA.ID)
	}
	if entry.Notes != "restock" {
		t.Fatalf("notes = %q, want trimmed", entry.Notes)
	}
	if !entry.CreatedAt.Equal(testNow) {
		t.Fatalf("created_at = %v, want %v", entry.CreatedAt, testNow)
	}
	f.assertLedgerConsistent(t, p.ID)
}

func TestRecordMovementRemovalBoundary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := actorOf(f.ownerA)

	p := f.product(t, f.ownerA, "Flour", 5)

	_, err := f.inventory.RecordMovement(ctx, owner, MovementInput{
		ProductID: p.ID, MovementType: model.MovementRemoval, Quantity: 6,
	})
	appErr := assertCode(t, err, apperror.CodeInsufficientStock)
	if appErr.Message != "Cannot remove 6 items. Only 5 available in stock." {
		t.Fatalf("message = %q", appErr.Message)
	}
	if got := f.stockOf(t, p.ID); got != 5 {
		t.Fatalf("stock after rejected removal = %d, want 5", got)
	}
	if got := len(f.entriesOf(t, p.ID)); got != 1 {
		t.Fatalf("entries after rejected removal = %d, want 1", got)
	}

	if _, err := f.inventory.RecordMovement(ctx, owner, MovementInput{
		ProductID: p.ID, MovementType: model.MovementRemoval, Quantity: 5,
	}); err != nil {
		t.Fatalf("removal of exact stock: %v", err)
	}
	if got := f.stockOf(t, p.ID); got != 0 {
		t.Fatalf("stock = %d, want 0", got)
	}

	_, err = f.inventory.RecordMovement(ctx, owner, MovementInput{
		ProductID: p.ID, MovementType: model.MovementTransfer, Quantity: 1,
	})
	assertCode(t, err, apperror.CodeInsufficientStock)
	f.assertLedgerConsistent(t, p.ID)
}

func TestRecordMovementAdjustmentIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := actorOf(f.ownerA)

	p := f.product(t, f.ownerA, "Sugar", 3)

	for i := 0; i < 2; i++ {
		entry, err := f.inventory.RecordMovement(ctx, owner, MovementInput{
			ProductID: p.ID, MovementType: model.MovementAdjustment, Quantity: 12,
		})
		if err != nil {
			t.Fatalf("adjustment %d: %v", i, err)
		}
		if entry.BalanceAfter != 12 {
			t.Fatalf("adjustment %d balance = %d, want 12", i, entry.BalanceAfter)
		}
		if got := f.stockOf(t, p.ID); got != 12 {
			t.Fatalf("stock after adjustment %d = %d, want 12", i, got)
		}
	}
	if got := len(f.entriesOf(t, p.ID)); got != 3 {
		t.Fatalf("entries = %d, want 3", got)
	}

	if _, err := f.inventory.RecordMovement(ctx, owner, MovementInput{
		ProductID: p.ID, MovementType: model.MovementAdjustment, Quantity: 0,
	}); err != nil {
		t.Fatalf("adjustment to zero: %v", err)
	}
	if got := f.stockOf(t, p.ID); got != 0 {
		t.Fatalf("stock = %d, want 0", got)
	}
	f.assertLedgerConsistent(t, p.ID)
}

func TestRecordMovementRejectsBadInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := actorOf(f.ownerA)
	p := f.product(t, f.ownerA, "Salt", 1)

	_, err := f.inventory.RecordMovement(ctx, owner, MovementInput{
		ProductID: p.ID, MovementType: "theft", Quantity: 1,
	})
	assertField(t, assertCode(t, err, apperror.CodeInvalidMovementType), "movement_type")

	_, err = f.inventory.RecordMovement(ctx, owner, MovementInput{
		ProductID: p.ID, Quantity: 1,
	})
	assertField(t, assertCode(t, err, apperror.CodeInvalidMovementType), "movement_type")

	_, err = f.inventory.RecordMovement(ctx, owner, MovementInput{
		ProductID: p.ID, MovementType: model.MovementAddition, Quantity: -1,
	})
	assertField(t, assertCode(t, err, apperror.CodeValidation), "quantity")

	_, err = f.inventory.RecordMovement(ctx, owner, MovementInput{
		ProductID: p.ID, MovementType: model.MovementAddition, Quantity: model.MaxStock,
	})
	assertField(t, assertCode(t, err, apperror.CodeValidation), "quantity")

	_, err = f.inventory.RecordMovement(ctx, owner, MovementInput{
		ProductID: 9999, MovementType: model.MovementAddition, Quantity: 1,
	})
	assertCode(t, err, apperror.CodeNotFound)

	_, err = f.inventory.RecordMovement(ctx, actorOf(f.drifter), MovementInput{
		ProductID: p.ID, MovementType: model.MovementAddition, Quantity: 1,
	})
	assertCode(t, err, apperror.CodeForbidden)

	if got := f.stockOf(t, p.ID); got != 1 {
		t.Fatalf("stock = %d, want 1", got)
	}
	f.assertLedgerConsistent(t, p.ID)
}

func TestRecordMovementCrossTenant(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p := f.product(t, f.ownerB, "Hammer", 4)

	_, err := f.inventory.RecordMovement(ctx, actorOf(f.clerkA), MovementInput{
		ProductID: p.ID, MovementType: model.MovementRemoval, Quantity: 1,
	})
	assertCode(t, err, apperror.CodeCrossTenantReference)
	if got := f.stockOf(t, p.ID); got != 4 {
		t.Fatalf("stock = %d, want 4", got)
	}
	if got := len(f.entriesOf(t, p.ID)); got != 1 {
		t.Fatalf("entries = %d, want 1", got)
	}

	entry, err := f.inventory.RecordMovement(ctx, actorOf(f.staff), MovementInput{
		ProductID: p.ID, MovementType: model.MovementRemoval, Quantity: 1,
	})
	if err != nil {
		t.Fatalf("staff removal: %v", err)
	}
	if entry.ShopID != f.shopB.ID {
		t.Fatalf("entry shop = %d, want product shop %d", entry.ShopID, f.shopB.ID)
	}
}

func TestRecordMovementConcurrentRemovals(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	clerk := actorOf(f.clerkA)

	const stock, workers = 10, 25
	p := f.product(t, f.ownerA, "Batteries", stock)

	var (
		wg                  sync.WaitGroup
		mu                  sync.Mutex
		succeeded, rejected int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				_, err := f.inventory.RecordMovement(ctx, clerk, MovementInput{
					ProductID: p.ID, MovementType: model.MovementRemoval, Quantity: 1,
				})
				if errors.Is(err, apperror.ErrTransactionConflict) {
					continue
				}
				mu.Lock()
				switch {
				case err == nil:
					succeeded++
				case errors.Is(err, apperror.ErrInsufficientStock):
					rejected++
				default:
					t.Errorf("unexpected error: %v", err)
				}
				mu.Unlock()
				return
			}
		}()
	}
	wg.Wait()

	if succeeded != stock || rejected != workers-stock {
		t.Fatalf("succeeded = %d, rejected = %d, want %d and %d", succeeded, rejected, stock, workers-stock)
	}
	if got := f.stockOf(t, p.ID); got != 0 {
		t.Fatalf("stock = %d, want 0", got)
	}
	f.assertLedgerConsistent(t, p.ID)
}

func TestListAndGetMovementsAreScoped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pa := f.product(t, f.ownerA, "Tea", 2)
	pb := f.product(t, f.ownerB, "Nails", 3)
	if _, err := f.inventory.RecordMovement(ctx, actorOf(f.ownerA), MovementInput{
		ProductID: pa.ID, MovementType: model.MovementReturn, Quantity: 1,
	}); err != nil {
		t.Fatalf("return: %v", err)
	}

	page, err := f.inventory.ListMovements(ctx, actorOf(f.clerkA), MovementFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Count != 2 {
		t.Fatalf("count = %d, want 2", page.Count)
	}
	for _, e := range page.Results {
		if e.ShopID != f.shopA.ID {
			t.Fatalf("leaked entry from shop %d", e.ShopID)
		}
	}

	page, err = f.inventory.ListMovements(ctx, actorOf(f.staff), MovementFilter{MovementType: model.MovementInitialStock})
	if err != nil {
		t.Fatalf("staff list: %v", err)
	}
	if page.Count != 2 {
		t.Fatalf("staff initial_stock count = %d, want 2", page.Count)
	}

	page, err = f.inventory.ListMovements(ctx, actorOf(f.drifter), MovementFilter{})
	if err != nil {
		t.Fatalf("drifter list: %v", err)
	}
	if page.Count != 0 || len(page.Results) != 0 {
		t.Fatalf("drifter sees %d entries, want none", page.Count)
	}

	_, err = f.inventory.ListMovements(ctx, actorOf(f.staff), MovementFilter{MovementType: "gift"})
	assertCode(t, err, apperror.CodeInvalidMovementType)

	entries := f.entriesOf(t, pb.ID)
	_, err = f.inventory.GetMovement(ctx, actorOf(f.clerkA), entries[0].ID)
	assertCode(t, err, apperror.CodeNotFound)
	if _, err := f.inventory.GetMovement(ctx, actorOf(f.ownerB), entries[0].ID); err != nil {
		t.Fatalf("get own entry: %v", err)
	}
}

func TestVerifyProductLedger(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := actorOf(f.ownerA)

	p := f.product(t, f.ownerA, "Oil", 20)
	if _, err := f.inventory.RecordMovement(ctx, owner, MovementInput{
		ProductID: p.ID, MovementType: model.MovementTransfer, Quantity: 5,
	}); err != nil {
		t.Fatalf("transfer: %v", err)
	}

	report, err := f.inventory.VerifyProductLedger(ctx, owner, p.ID)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !report.Consistent || report.StockQuantity != 15 || report.ReplayedQuantity != 15 || report.Entries != 2 {
		t.Fatalf("report = %+v", report)
	}

	// Simulate drift written around the ledger
	if err := f.db.Model(&model.Product{}).Where("id = ?", p.ID).Update("stock_quantity", 99).Error; err != nil {
		t.Fatalf("drift: %v", err)
	}
	report, err = f.inventory.VerifyProductLedger(ctx, owner, p.ID)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if report.Consistent {
		t.Fatalf("expected drift to be reported, got %+v", report)
	}

	_, err = f.inventory.VerifyProductLedger(ctx, actorOf(f.ownerB), p.ID)
	assertCode(t, err, apperror.CodeNotFound)
}

func TestLedgerEntriesAreAppendOnly(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, f.ownerA, "Vinegar", 2)
	entry := f.entriesOf(t, p.ID)[0]

	if err := f.db.Model(&entry).Update("quantity", 50).Error; !errors.Is(err, model.ErrLedgerImmutable) {
		t.Fatalf("update err = %v, want ErrLedgerImmutable", err)
	}
	if err := f.db.Delete(&entry).Error; !errors.Is(err, model.ErrLedgerImmutable) {
		t.Fatalf("delete err = %v, want ErrLedgerImmutable", err)
	}
	f.assertLedgerConsistent(t, p.ID)
}
