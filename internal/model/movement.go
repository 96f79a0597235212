package model

import (
	"errors"
	"math"
)

// MovementType is the kind of an inventory ledger entry
type MovementType string

const (
	MovementAddition     MovementType = "addition"
	MovementRemoval      MovementType = "removal"
	MovementAdjustment   MovementType = "adjustment"
	MovementReturn       MovementType = "return"
	MovementTransfer     MovementType = "transfer"
	MovementInitialStock MovementType = "initial_stock"
)

// MaxStock is the largest stock_quantity the storage column can hold.
const MaxStock = math.MaxInt32

var (
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrStockOverflow     = errors.New("stock overflow")
)

// MovementTypes lists every valid movement type
func MovementTypes() []MovementType {
	return []MovementType{
		MovementAddition,
		MovementRemoval,
		MovementAdjustment,
		MovementReturn,
		MovementTransfer,
		MovementInitialStock,
	}
}

// Valid reports whether m is a known movement type
func (m MovementType) Valid() bool {
	switch m {
	case MovementAddition, MovementRemoval, MovementAdjustment,
		MovementReturn, MovementTransfer, MovementInitialStock:
		return true
	}
	return false
}

// Apply returns the balance after applying a movement of qty to balance.
//
// addition, return and initial_stock add qty; removal and transfer subtract
// it and fail with ErrInsufficientStock rather than go below zero; adjustment
// sets the balance to exactly qty.
func (m MovementType) Apply(balance, qty int) (int, error) {
	if qty < 0 {
		return balance, errors.New("quantity must not be negative")
	}
	switch m {
	case MovementAddition, MovementReturn, MovementInitialStock:
		if qty > MaxStock-balance {
			return balance, ErrStockOverflow
		}
		return balance + qty, nil
	case MovementRemoval, MovementTransfer:
		if qty > balance {
			return balance, ErrInsufficientStock
		}
		return balance - qty, nil
	case MovementAdjustment:
		if qty > MaxStock {
			return balance, ErrStockOverflow
		}
		return qty, nil
	default:
		return balance, errors.New("unknown movement type")
	}
}

// ReplayStock folds entries from a zero balance in the given order. It stops
// at the first entry that cannot be applied.
func ReplayStock(entries []InventoryEntry) (int, error) {
	balance := 0
	for _, e := range entries {
		next, err := e.MovementType.Apply(balance, e.Quantity)
		if err != nil {
			return balance, err
		}
		balance = next
	}
	return balance, nil
}
