package trade

import (
	"strings"
	"time"

	"github.com/dinarbooks/backend/internal/domain/shared"
	"github.com/dinarbooks/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// DocumentKind distinguishes sale invoices from purchase invoices
type DocumentKind string

const (
	KindSale     DocumentKind = "sale"
	KindPurchase DocumentKind = "purchase"
)

// IsValid returns true if the kind is known
func (k DocumentKind) IsValid() bool {
	return k == KindSale || k == KindPurchase
}

// String returns the string representation of DocumentKind
func (k DocumentKind) String() string {
	return string(k)
}

// DocumentStatus represents the lifecycle state of a document
type DocumentStatus string

const (
	StatusPending   DocumentStatus = "pending"
	StatusCompleted DocumentStatus = "completed"
	StatusCancelled DocumentStatus = "cancelled"
	StatusReturned  DocumentStatus = "returned"
)

// IsValid returns true if the status is known
func (s DocumentStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusCancelled, StatusReturned:
		return true
	}
	return false
}

// String returns the string representation of DocumentStatus
func (s DocumentStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can move to target.
// completed → returned is reserved for the return path.
func (s DocumentStatus) CanTransitionTo(target DocumentStatus) bool {
	switch s {
	case StatusPending:
		return target == StatusCompleted || target == StatusCancelled
	case StatusCancelled:
		return target == StatusPending
	case StatusCompleted:
		return target == StatusReturned
	}
	return false
}

// DocumentItem is a persisted document line
type DocumentItem struct {
	ID       uuid.UUID
	Position int
	LineItem
	LineTotal        valueobject.MoneyValue
	ReturnedQuantity int64
}

// RemainingQuantity is how many units of the line can still be returned
func (i DocumentItem) RemainingQuantity() int64 {
	return i.Quantity - i.ReturnedQuantity
}

// FullyReturned reports whether every unit of the line has been returned
func (i DocumentItem) FullyReturned() bool {
	return i.ReturnedQuantity >= i.Quantity
}

// Document is a sale or purchase invoice. Total is always the exact sum of
// the rounded line totals. Stock and ledger effects fire only on Complete.
type Document struct {
	shared.BaseAggregateRoot
	Kind        DocumentKind
	Number      string
	PartyID     uuid.UUID
	Date        time.Time
	Items       []DocumentItem
	Status      DocumentStatus
	Total       valueobject.MoneyValue
	Notes       string
	CompletedAt *time.Time
	CancelledAt *time.Time
}

// NewDocument creates a pending document from its lines
func NewDocument(kind DocumentKind, number string, partyID uuid.UUID, date time.Time, items []LineItem, notes string) (*Document, error) {
	if !kind.IsValid() {
		return nil, shared.NewValidationError(shared.CodeInvalidInput, "unknown document kind %q", kind)
	}
	if strings.TrimSpace(number) == "" {
		return nil, shared.NewValidationError(shared.CodeMissingField, "document number is required")
	}
	if partyID == uuid.Nil {
		return nil, shared.NewValidationError(shared.CodeMissingField, "%s", partyFieldFor(kind)+" is required")
	}
	if date.IsZero() {
		date = time.Now()
	}

	d := &Document{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Kind:              kind,
		Number:            number,
		PartyID:           partyID,
		Date:              date.UTC(),
		Status:            StatusPending,
		Notes:             notes,
	}
	if err := d.setItems(items); err != nil {
		return nil, err
	}
	d.AddDomainEvent(NewDocumentCreatedEvent(d))
	return d, nil
}

func partyFieldFor(kind DocumentKind) string {
	if kind == KindPurchase {
		return "supplier_id"
	}
	return "customer_id"
}

func (d *Document) setItems(items []LineItem) error {
	lines, total, err := ComputeDocumentTotals(items)
	if err != nil {
		return err
	}
	out := make([]DocumentItem, len(items))
	for i, it := range items {
		out[i] = DocumentItem{
			ID:        uuid.New(),
			Position:  i + 1,
			LineItem:  it,
			LineTotal: lines[i],
		}
	}
	d.Items = out
	d.Total = total
	return nil
}

// Revise replaces the party, date, lines and notes of a pending document
func (d *Document) Revise(partyID uuid.UUID, date time.Time, items []LineItem, notes string) error {
	if !d.CanModify() {
		return shared.NewStateError(shared.CodeInvalidState,
			"%s %s cannot be edited in %s status", d.Kind, d.Number, d.Status)
	}
	if partyID == uuid.Nil {
		return shared.NewValidationError(shared.CodeMissingField, "%s", partyFieldFor(d.Kind)+" is required")
	}
	if err := d.setItems(items); err != nil {
		return err
	}
	d.PartyID = partyID
	if !date.IsZero() {
		d.Date = date.UTC()
	}
	d.Notes = notes
	d.Touch()
	d.IncrementVersion()
	return nil
}

func (d *Document) transition(target DocumentStatus, verb string) error {
	if !d.Status.CanTransitionTo(target) {
		return shared.NewStateError(shared.CodeInvalidState,
			"cannot %s %s %s in %s status", verb, d.Kind, d.Number, d.Status).
			WithDetail("status", string(d.Status))
	}
	d.Status = target
	d.Touch()
	d.IncrementVersion()
	return nil
}

// Complete moves a pending document to completed. The caller applies the
// stock and ledger effects in the same transaction.
func (d *Document) Complete() error {
	if err := d.transition(StatusCompleted, "complete"); err != nil {
		return err
	}
	now := time.Now()
	d.CompletedAt = &now
	d.AddDomainEvent(NewDocumentCompletedEvent(d))
	return nil
}

// Cancel moves a pending document to cancelled
func (d *Document) Cancel() error {
	if err := d.transition(StatusCancelled, "cancel"); err != nil {
		return err
	}
	now := time.Now()
	d.CancelledAt = &now
	return nil
}

// Reopen moves a cancelled document back to pending
func (d *Document) Reopen() error {
	if err := d.transition(StatusPending, "reopen"); err != nil {
		return err
	}
	d.CancelledAt = nil
	return nil
}

// ApplyReturn records the plan's per-line returned quantities. The document
// becomes returned once at least one line is returned in full.
func (d *Document) ApplyReturn(plan *ReturnPlan) error {
	if !d.AcceptsReturns() {
		return shared.NewStateError(shared.CodeInvalidState,
			"%s %s cannot be returned in %s status", d.Kind, d.Number, d.Status)
	}
	for _, line := range plan.Lines {
		for _, a := range line.Allocations {
			d.Items[a.Index].ReturnedQuantity += a.Quantity
		}
	}
	if d.Status == StatusCompleted && d.HasFullyReturnedLine() {
		d.Status = StatusReturned
	}
	d.Touch()
	d.IncrementVersion()
	return nil
}

// AcceptsReturns reports whether returns may be recorded against the document
func (d *Document) AcceptsReturns() bool {
	return d.Status == StatusCompleted || d.Status == StatusReturned
}

// HasFullyReturnedLine reports whether any line is returned in full
func (d *Document) HasFullyReturnedLine() bool {
	for _, it := range d.Items {
		if it.FullyReturned() {
			return true
		}
	}
	return false
}

// CanModify reports whether the lines may still be edited
func (d *Document) CanModify() bool {
	return d.Status == StatusPending
}

// CanDelete reports whether the document may be deleted
func (d *Document) CanDelete() bool {
	return d.Status == StatusPending || d.Status == StatusCancelled
}

// LineItems returns the document lines as calculator input
func (d *Document) LineItems() []LineItem {
	out := make([]LineItem, len(d.Items))
	for i, it := range d.Items {
		out[i] = it.LineItem
	}
	return out
}

// QuantityOf returns the total quantity of a product across lines
func (d *Document) QuantityOf(productID uuid.UUID) int64 {
	var q int64
	for _, it := range d.Items {
		if it.ProductID == productID {
			q += it.Quantity
		}
	}
	return q
}

// Reference returns how ledger entries and movements point at the document
func (d *Document) Reference() (refType string, id uuid.UUID, number string) {
	return string(d.Kind), d.ID, d.Number
}
