package trade

import (
	"context"
	"fmt"
	"time"

	"github.com/dinarbooks/backend/internal/domain/inventory"
	"github.com/dinarbooks/backend/internal/domain/partner"
)

// LedgerPoster is the part of the account ledger a return needs
type LedgerPoster interface {
	PostReturn(ctx context.Context, p partner.Posting) (*partner.LedgerEntry, error)
}

// StockMover is the part of the stock tracker a return needs
type StockMover interface {
	IncreaseAll(ctx context.Context, changes []inventory.StockChange) ([]inventory.StockMovement, error)
	DecreaseAll(ctx context.Context, changes []inventory.StockChange) ([]inventory.StockMovement, error)
}

// ReturnProcessor validates and applies returns against completed documents.
// ApplyReturn performs several writes and must run inside one transaction;
// any error leaves the caller to roll everything back.
type ReturnProcessor struct {
	documents DocumentRepository
	returns   ReturnRepository
	ledger    LedgerPoster
	stock     StockMover
	now       func() time.Time
}

// NewReturnProcessor creates a ReturnProcessor
func NewReturnProcessor(documents DocumentRepository, returns ReturnRepository, ledger LedgerPoster, stock StockMover) *ReturnProcessor {
	return &ReturnProcessor{documents: documents, returns: returns, ledger: ledger, stock: stock, now: time.Now}
}

// WithClock replaces the clock used to date returns
func (p *ReturnProcessor) WithClock(now func() time.Time) *ReturnProcessor {
	p.now = now
	return p
}

// ValidateReturn checks a request against the document and every prior
// return recorded for it
func (p *ReturnProcessor) ValidateReturn(ctx context.Context, doc *Document, items []ReturnRequestItem) (*ReturnPlan, error) {
	prior, err := p.returns.FindByDocument(ctx, doc.ID)
	if err != nil {
		return nil, fmt.Errorf("load returns of %s: %w", doc.Number, err)
	}
	return PlanReturn(doc, prior, items)
}

// ApplyReturn validates the request, records the return, moves stock back
// (into stock for sales, out of stock for purchases) and posts one ledger
// return for the summed reversal
func (p *ReturnProcessor) ApplyReturn(ctx context.Context, doc *Document, number string, items []ReturnRequestItem) (*Return, error) {
	plan, err := p.ValidateReturn(ctx, doc, items)
	if err != nil {
		return nil, err
	}

	if err := doc.ApplyReturn(plan); err != nil {
		return nil, err
	}
	if err := p.documents.SaveWithLock(ctx, doc); err != nil {
		return nil, err
	}

	ret := NewReturn(plan, number, p.now())
	if err := p.returns.Save(ctx, ret); err != nil {
		return nil, fmt.Errorf("save return %s: %w", number, err)
	}

	changes := make([]inventory.StockChange, 0, len(ret.Items))
	for _, it := range ret.Items {
		changes = append(changes, inventory.StockChange{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Reason:    inventory.ReasonReturn,
			Reference: inventory.Reference{Type: "return", ID: ret.ID, Number: ret.Number},
			Date:      ret.Date,
			Notes:     it.Reason,
		})
	}
	if doc.Kind == KindSale {
		_, err = p.stock.IncreaseAll(ctx, changes)
	} else {
		_, err = p.stock.DecreaseAll(ctx, changes)
	}
	if err != nil {
		return nil, err
	}

	_, err = p.ledger.PostReturn(ctx, partner.Posting{
		PartyID:     doc.PartyID,
		Amount:      ret.Reversal,
		Reference:   partner.Reference{Type: partner.ReferenceTypeReturn, ID: ret.ID, Number: ret.Number},
		Date:        ret.Date,
		Description: fmt.Sprintf("Return %s for %s %s", ret.Number, doc.Kind, doc.Number),
	})
	if err != nil {
		return nil, err
	}
	return ret, nil
}
