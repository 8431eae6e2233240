package telemetry

import (
	"context"

	"github.com/dinarbooks/backend/internal/domain/inventory"
	"github.com/dinarbooks/backend/internal/domain/partner"
	"github.com/dinarbooks/backend/internal/domain/shared"
	"github.com/dinarbooks/backend/internal/domain/trade"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MeterName is the instrumentation scope of the ledger instruments
const MeterName = "dinarbooks/ledger"

// LedgerMetrics turns domain events into counters. It is subscribed to the
// event dispatcher, so it only ever sees committed changes.
type LedgerMetrics struct {
	documentsCreated   *Counter
	documentsCompleted *Counter
	documentTotal      *Histogram
	ledgerEntries      *Counter
	payments           *Counter
	creditLimitHits    *Counter
	stockMovements     *Counter
	stockUnits         *Counter
}

// NewLedgerMetrics registers the ledger instruments on meter
func NewLedgerMetrics(meter metric.Meter) (*LedgerMetrics, error) {
	m := &LedgerMetrics{}
	var err error

	if m.documentsCreated, err = NewCounter(meter,
		"ledger_documents_created_total", "Invoices and returns created", "{document}"); err != nil {
		return nil, err
	}
	if m.documentsCompleted, err = NewCounter(meter,
		"ledger_documents_completed_total", "Documents moved to completed", "{document}"); err != nil {
		return nil, err
	}
	if m.documentTotal, err = NewHistogram(meter, HistogramOpts{
		Name:        "ledger_document_total_iqd",
		Description: "Completed document totals in dinar",
		Unit:        "IQD",
		Boundaries:  AmountBuckets,
	}); err != nil {
		return nil, err
	}
	if m.ledgerEntries, err = NewCounter(meter,
		"ledger_entries_posted_total", "Entries appended to party ledgers", "{entry}"); err != nil {
		return nil, err
	}
	if m.payments, err = NewCounter(meter,
		"ledger_payments_recorded_total", "Payments recorded", "{payment}"); err != nil {
		return nil, err
	}
	if m.creditLimitHits, err = NewCounter(meter,
		"ledger_credit_limit_exceeded_total", "Sales that pushed a customer past the credit limit", "{event}"); err != nil {
		return nil, err
	}
	if m.stockMovements, err = NewCounter(meter,
		"inventory_stock_movements_total", "Stock movements written", "{movement}"); err != nil {
		return nil, err
	}
	if m.stockUnits, err = NewCounter(meter,
		"inventory_stock_units_total", "Units moved in or out of stock", "{unit}"); err != nil {
		return nil, err
	}
	return m, nil
}

// Handle records one domain event. Unknown events are ignored.
func (m *LedgerMetrics) Handle(ctx context.Context, event shared.DomainEvent) {
	switch e := event.(type) {
	case *trade.DocumentCreatedEvent:
		m.documentsCreated.Inc(ctx, AttrDocumentKind.String(string(e.Kind)))
	case *trade.DocumentCompletedEvent:
		kind := AttrDocumentKind.String(string(e.Kind))
		m.documentsCompleted.Inc(ctx, kind)
		m.documentTotal.Record(ctx, e.TotalIQD.InexactFloat64(), kind)
	case *partner.LedgerEntryPostedEvent:
		m.ledgerEntries.Inc(ctx, AttrEntryType.String(string(e.Type)))
	case *partner.PaymentRecordedEvent:
		m.payments.Inc(ctx, AttrPaymentMethod.String(string(e.Method)))
	case *partner.CreditLimitExceededEvent:
		m.creditLimitHits.Inc(ctx)
	case *inventory.StockChangedEvent:
		attrs := []attribute.KeyValue{
			AttrDirection.String(string(e.Direction)),
			AttrReason.String(string(e.Reason)),
		}
		m.stockMovements.Inc(ctx, attrs...)
		m.stockUnits.Add(ctx, e.Quantity, attrs...)
	}
}
