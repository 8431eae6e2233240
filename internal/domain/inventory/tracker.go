package inventory

import (
	"context"
	"time"

	"github.com/dinarbooks/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// StockChange is one product quantity to move
type StockChange struct {
	ProductID uuid.UUID
	Quantity  int64
	Reason    MovementReason
	Reference Reference
	Date      time.Time
	Notes     string
}

// Requirement is a quantity that must be available for a product
type Requirement struct {
	ProductID uuid.UUID
	Quantity  int64
}

// StockLevelTracker maintains on-hand quantities. Every change goes through
// Product.Move and is saved with an optimistic version check, and the
// matching movement is appended in the same transaction.
type StockLevelTracker struct {
	products  ProductRepository
	movements StockMovementRepository
	now       func() time.Time
	events    []shared.DomainEvent
}

// NewStockLevelTracker creates a tracker over the given repositories
func NewStockLevelTracker(products ProductRepository, movements StockMovementRepository) *StockLevelTracker {
	return &StockLevelTracker{products: products, movements: movements, now: time.Now}
}

// WithClock replaces the clock used when a change has no date
func (t *StockLevelTracker) WithClock(now func() time.Time) *StockLevelTracker {
	t.now = now
	return t
}

// RecordMovement applies a manual in or out movement
func (t *StockLevelTracker) RecordMovement(ctx context.Context, productID uuid.UUID, dir Direction, quantity int64, notes string) (*StockMovement, error) {
	return t.move(ctx, dir, StockChange{ProductID: productID, Quantity: quantity, Reason: ReasonManual, Notes: notes})
}

// Increase adds stock for one product
func (t *StockLevelTracker) Increase(ctx context.Context, c StockChange) (*StockMovement, error) {
	return t.move(ctx, DirectionIn, c)
}

// Decrease removes stock for one product
func (t *StockLevelTracker) Decrease(ctx context.Context, c StockChange) (*StockMovement, error) {
	return t.move(ctx, DirectionOut, c)
}

// Adjust sets a product's stock to an absolute count by posting the
// difference as an adjustment movement. No movement is written when the
// count already matches.
func (t *StockLevelTracker) Adjust(ctx context.Context, productID uuid.UUID, target int64, notes string) (*StockMovement, error) {
	if target < 0 {
		return nil, shared.NewValidationError(shared.CodeInvalidQuantity,
			"stock cannot be adjusted below zero, got %d", target)
	}
	product, err := t.products.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	diff := target - product.CurrentStock
	if diff == 0 {
		return nil, nil
	}
	dir := DirectionIn
	if diff < 0 {
		dir, diff = DirectionOut, -diff
	}
	return t.apply(ctx, product, dir, StockChange{ProductID: productID, Quantity: diff, Reason: ReasonAdjustment, Notes: notes})
}

// CheckAvailability verifies every requirement before anything is moved.
// Quantities for the same product are summed. The first shortfall is
// returned with the full list of short products in its details.
func (t *StockLevelTracker) CheckAvailability(ctx context.Context, reqs []Requirement) error {
	totals, order := sumRequirements(reqs)
	if len(order) == 0 {
		return nil
	}
	products, err := t.products.FindByIDs(ctx, order)
	if err != nil {
		return err
	}
	byID := make(map[uuid.UUID]*Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	var (
		first  *shared.DomainError
		shorts []map[string]any
	)
	for _, id := range order {
		p, ok := byID[id]
		if !ok {
			return shared.NewNotFoundError("product", id)
		}
		want := totals[id]
		if want <= 0 {
			return shared.NewValidationError(shared.CodeInvalidQuantity,
				"quantity for product %s must be a positive integer, got %d", p.Name, want)
		}
		if p.CanFulfill(want) {
			continue
		}
		if first == nil {
			first = InsufficientStock(p, want)
		}
		shorts = append(shorts, map[string]any{
			"product_id": p.ID.String(),
			"sku":        p.SKU,
			"on_hand":    p.CurrentStock,
			"requested":  want,
		})
	}
	if first != nil {
		return first.WithDetail("shortages", shorts)
	}
	return nil
}

// DecreaseAll removes stock for several lines, checking all of them first so
// a shortfall on any line leaves every product untouched
func (t *StockLevelTracker) DecreaseAll(ctx context.Context, changes []StockChange) ([]StockMovement, error) {
	reqs := make([]Requirement, 0, len(changes))
	for _, c := range changes {
		reqs = append(reqs, Requirement{ProductID: c.ProductID, Quantity: c.Quantity})
	}
	if err := t.CheckAvailability(ctx, reqs); err != nil {
		return nil, err
	}
	return t.moveAll(ctx, DirectionOut, changes)
}

// IncreaseAll adds stock for several lines
func (t *StockLevelTracker) IncreaseAll(ctx context.Context, changes []StockChange) ([]StockMovement, error) {
	return t.moveAll(ctx, DirectionIn, changes)
}

// CurrentStock returns a product's on-hand quantity
func (t *StockLevelTracker) CurrentStock(ctx context.Context, productID uuid.UUID) (int64, error) {
	p, err := t.products.FindByID(ctx, productID)
	if err != nil {
		return 0, err
	}
	return p.CurrentStock, nil
}

func (t *StockLevelTracker) moveAll(ctx context.Context, dir Direction, changes []StockChange) ([]StockMovement, error) {
	out := make([]StockMovement, 0, len(changes))
	for _, c := range changes {
		m, err := t.move(ctx, dir, c)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, nil
}

func (t *StockLevelTracker) move(ctx context.Context, dir Direction, c StockChange) (*StockMovement, error) {
	product, err := t.products.FindByID(ctx, c.ProductID)
	if err != nil {
		return nil, err
	}
	return t.apply(ctx, product, dir, c)
}

func (t *StockLevelTracker) apply(ctx context.Context, product *Product, dir Direction, c StockChange) (*StockMovement, error) {
	date := c.Date
	if date.IsZero() {
		date = t.now()
	}
	reason := c.Reason
	if reason == "" {
		reason = ReasonManual
	}
	m, err := product.Move(dir, c.Quantity, reason, c.Reference, date, c.Notes)
	if err != nil {
		return nil, err
	}
	if err := t.products.SaveWithLock(ctx, product); err != nil {
		return nil, err
	}
	if err := t.movements.Append(ctx, m); err != nil {
		return nil, err
	}
	t.events = append(t.events, product.GetDomainEvents()...)
	product.ClearDomainEvents()
	return m, nil
}

// DrainEvents returns and clears the events raised by movements so far
func (t *StockLevelTracker) DrainEvents() []shared.DomainEvent {
	out := t.events
	t.events = nil
	return out
}

func sumRequirements(reqs []Requirement) (map[uuid.UUID]int64, []uuid.UUID) {
	totals := make(map[uuid.UUID]int64, len(reqs))
	order := make([]uuid.UUID, 0, len(reqs))
	for _, r := range reqs {
		if _, seen := totals[r.ProductID]; !seen {
			order = append(order, r.ProductID)
		}
		totals[r.ProductID] += r.Quantity
	}
	return totals, order
}
