package trade

import (
	"strings"
	"time"

	"github.com/dinarbooks/backend/internal/domain/shared"
	"github.com/dinarbooks/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// ReturnRequestItem is one product a caller asks to return
type ReturnRequestItem struct {
	ProductID uuid.UUID
	Quantity  int64
	Reason    string
}

// ReturnItem is a persisted returned product
type ReturnItem struct {
	ID        uuid.UUID
	ProductID uuid.UUID
	Quantity  int64
	Reason    string
	Reversal  valueobject.MoneyValue
}

// Return is a satellite record reversing part of a completed document
type Return struct {
	ID           uuid.UUID
	Number       string
	DocumentID   uuid.UUID
	DocumentKind DocumentKind
	PartyID      uuid.UUID
	Items        []ReturnItem
	Reversal     valueobject.MoneyValue
	Date         time.Time
	CreatedAt    time.Time
}

// Allocation is the part of a returned quantity taken from one document line
type Allocation struct {
	Index    int
	Position int
	Quantity int64
	Reversal valueobject.MoneyValue
}

// ReturnLine is the validated plan for one requested product
type ReturnLine struct {
	ProductID       uuid.UUID
	Quantity        int64
	Reason          string
	AlreadyReturned int64
	Original        int64
	Allocations     []Allocation
	Reversal        valueobject.MoneyValue
}

// ReturnPlan is a validated return, ready to apply
type ReturnPlan struct {
	Document *Document
	Lines    []ReturnLine
	Reversal valueobject.MoneyValue
}

// ReturnedQuantities sums returned quantities per product over returns
func ReturnedQuantities(returns []Return) map[uuid.UUID]int64 {
	out := make(map[uuid.UUID]int64)
	for _, r := range returns {
		for _, it := range r.Items {
			out[it.ProductID] += it.Quantity
		}
	}
	return out
}

// PlanReturn validates a return request against the document and its prior
// returns. Requested quantities are taken from the document lines in
// position order, after the units prior returns already took, and priced
// with the unit prices captured on those lines.
func PlanReturn(doc *Document, prior []Return, items []ReturnRequestItem) (*ReturnPlan, error) {
	if len(items) == 0 {
		return nil, shared.NewValidationError(shared.CodeEmptyReturn, "a return must contain at least one item")
	}
	if !doc.AcceptsReturns() {
		return nil, shared.NewStateError(shared.CodeInvalidState,
			"%s %s cannot be returned in %s status", doc.Kind, doc.Number, doc.Status).
			WithDetail("status", string(doc.Status))
	}

	requested := make(map[uuid.UUID]*ReturnLine, len(items))
	order := make([]uuid.UUID, 0, len(items))
	for _, it := range items {
		reason := strings.TrimSpace(it.Reason)
		if reason == "" {
			return nil, shared.NewValidationError(shared.CodeReasonRequired,
				"a reason is required for every returned item").
				WithDetail("product_id", it.ProductID.String())
		}
		if it.Quantity <= 0 {
			return nil, shared.NewValidationError(shared.CodeInvalidQuantity,
				"return quantity must be a positive integer, got %d", it.Quantity).
				WithDetail("product_id", it.ProductID.String())
		}
		line, ok := requested[it.ProductID]
		if !ok {
			line = &ReturnLine{ProductID: it.ProductID, Reason: reason}
			requested[it.ProductID] = line
			order = append(order, it.ProductID)
		} else if !strings.Contains(line.Reason, reason) {
			line.Reason += "; " + reason
		}
		line.Quantity += it.Quantity
	}

	already := ReturnedQuantities(prior)
	plan := &ReturnPlan{Document: doc, Reversal: valueobject.ZeroMoney()}
	for _, productID := range order {
		line := requested[productID]
		line.Original = doc.QuantityOf(productID)
		line.AlreadyReturned = already[productID]
		if line.Original == 0 {
			return nil, shared.NewValidationError(shared.CodeInvalidInput,
				"product %s is not on %s %s", productID, doc.Kind, doc.Number).
				WithDetail("product_id", productID.String())
		}
		if line.AlreadyReturned+line.Quantity > line.Original {
			return nil, shared.NewConflictError(shared.CodeOverReturn,
				"return quantity exceeds %s quantity for product %s: original %d, already returned %d, requested %d",
				soldOrPurchased(doc.Kind), productID, line.Original, line.AlreadyReturned, line.Quantity).
				WithDetail("product_id", productID.String()).
				WithDetail("original_quantity", line.Original).
				WithDetail("already_returned", line.AlreadyReturned).
				WithDetail("requested", line.Quantity)
		}
		line.Allocations, line.Reversal = allocate(doc, productID, line.AlreadyReturned, line.Quantity)
		plan.Reversal = plan.Reversal.Add(line.Reversal)
		plan.Lines = append(plan.Lines, *line)
	}
	return plan, nil
}

func soldOrPurchased(kind DocumentKind) string {
	if kind == KindPurchase {
		return "purchased"
	}
	return "sold"
}

// allocate walks the product's lines, skipping units already consumed by
// prior returns, and takes quantity units from what remains
func allocate(doc *Document, productID uuid.UUID, consumed, quantity int64) ([]Allocation, valueobject.MoneyValue) {
	var out []Allocation
	reversal := valueobject.ZeroMoney()
	for i, it := range doc.Items {
		if quantity == 0 {
			break
		}
		if it.ProductID != productID {
			continue
		}
		skip := min(consumed, it.Quantity)
		consumed -= skip
		free := it.Quantity - skip
		if free == 0 {
			continue
		}
		take := min(free, quantity)
		amount := partialLineTotal(it.UnitPrice, skip, skip+take)
		out = append(out, Allocation{Index: i, Position: it.Position, Quantity: take, Reversal: amount})
		reversal = reversal.Add(amount)
		quantity -= take
	}
	return out, reversal
}

// NewReturn builds the satellite record for an applied plan
func NewReturn(plan *ReturnPlan, number string, date time.Time) *Return {
	if date.IsZero() {
		date = time.Now()
	}
	r := &Return{
		ID:           uuid.New(),
		Number:       number,
		DocumentID:   plan.Document.ID,
		DocumentKind: plan.Document.Kind,
		PartyID:      plan.Document.PartyID,
		Reversal:     plan.Reversal,
		Date:         date.UTC(),
		CreatedAt:    time.Now(),
	}
	for _, line := range plan.Lines {
		r.Items = append(r.Items, ReturnItem{
			ID:        uuid.New(),
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			Reason:    line.Reason,
			Reversal:  line.Reversal,
		})
	}
	return r
}
