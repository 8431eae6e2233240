package inventory

import (
	"time"

	"github.com/google/uuid"
)

// Direction is whether a movement adds or removes stock
type Direction string

const (
	DirectionIn  Direction = "in"
	DirectionOut Direction = "out"
)

// IsValid returns true if the direction is known
func (d Direction) IsValid() bool {
	return d == DirectionIn || d == DirectionOut
}

// MovementReason records what caused a movement
type MovementReason string

const (
	ReasonManual     MovementReason = "manual"
	ReasonAdjustment MovementReason = "adjustment"
	ReasonInitial    MovementReason = "initial"
	ReasonSale       MovementReason = "sale"
	ReasonPurchase   MovementReason = "purchase"
	ReasonReturn     MovementReason = "return"
)

// Reference points from a movement to the document that caused it
type Reference struct {
	Type   string
	ID     uuid.UUID
	Number string
}

// StockMovement is an immutable record of one stock change. BalanceAfter is
// fixed at post time and never recomputed.
type StockMovement struct {
	ID           uuid.UUID
	ProductID    uuid.UUID
	Sequence     int64
	MovementDate time.Time
	Direction    Direction
	Reason       MovementReason
	Quantity     int64
	BalanceAfter int64
	Reference    Reference
	Notes        string
	CreatedAt    time.Time
}

// SignedQuantity returns the quantity with the sign of its direction
func (m StockMovement) SignedQuantity() int64 {
	if m.Direction == DirectionOut {
		return -m.Quantity
	}
	return m.Quantity
}
