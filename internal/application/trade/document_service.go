package trade

import (
	"context"
	"fmt"
	"time"

	"github.com/dinarbooks/backend/internal/application/event"
	"github.com/dinarbooks/backend/internal/application/txn"
	"github.com/dinarbooks/backend/internal/domain/inventory"
	"github.com/dinarbooks/backend/internal/domain/partner"
	"github.com/dinarbooks/backend/internal/domain/shared"
	"github.com/dinarbooks/backend/internal/domain/shared/valueobject"
	"github.com/dinarbooks/backend/internal/domain/trade"
	"github.com/dinarbooks/backend/internal/infrastructure/logger"
	"github.com/dinarbooks/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DocumentService handles sales and purchases. Every write runs in one
// transaction; completing a document moves stock and posts the ledger in
// the same transaction as the status change.
type DocumentService struct {
	documents trade.DocumentRepository
	returns   trade.ReturnRepository
	txScope   txn.TransactionScope
	events    *event.Dispatcher
	logger    *zap.Logger
	policy    partner.CreditLimitPolicy
	prefixes  map[trade.NumberSeries]string
	now       func() time.Time
}

// NewDocumentService creates a new DocumentService
func NewDocumentService(
	documents trade.DocumentRepository,
	returns trade.ReturnRepository,
	txScope txn.TransactionScope,
	events *event.Dispatcher,
	log *zap.Logger,
) *DocumentService {
	if log == nil {
		log = zap.NewNop()
	}
	return &DocumentService{
		documents: documents,
		returns:   returns,
		txScope:   txScope,
		events:    events,
		logger:    log,
		policy:    partner.CreditLimitWarn,
		now:       time.Now,
	}
}

// WithCreditLimitPolicy sets what happens when a sale exceeds a credit limit
func (s *DocumentService) WithCreditLimitPolicy(p partner.CreditLimitPolicy) *DocumentService {
	s.policy = p
	return s
}

// WithNumberPrefixes overrides invoice number prefixes per series
func (s *DocumentService) WithNumberPrefixes(prefixes map[trade.NumberSeries]string) *DocumentService {
	s.prefixes = prefixes
	return s
}

// WithClock replaces the clock used for numbers and dates
func (s *DocumentService) WithClock(now func() time.Time) *DocumentService {
	s.now = now
	return s
}

// partyKindFor maps a document kind to the party kind it is issued to
func partyKindFor(kind trade.DocumentKind) partner.PartyKind {
	if kind == trade.KindPurchase {
		return partner.PartyKindSupplier
	}
	return partner.PartyKindCustomer
}

func (s *DocumentService) numbers(repos txn.Repositories) *trade.InvoiceNumberGenerator {
	return trade.NewInvoiceNumberGenerator(repos.NumberSequence(), s.prefixes).WithClock(s.now)
}

// Create creates a document. Unless the request asks for pending, the
// document is completed straight away as the counter workflow expects.
func (s *DocumentService) Create(ctx context.Context, kind trade.DocumentKind, req CreateDocumentRequest) (*DocumentResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "document", "create")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrDocumentKind, string(kind),
		telemetry.SpanAttrPartyID, req.PartyID.String(),
		telemetry.SpanAttrLineCount, len(req.Items),
	)

	status := trade.DocumentStatus(req.Status)
	if status == "" {
		status = trade.StatusCompleted
	}
	if status != trade.StatusPending && status != trade.StatusCompleted {
		return nil, shared.NewValidationError(shared.CodeInvalidInput,
			"status must be pending or completed, got %q", req.Status)
	}
	date := s.now()
	if req.Date != nil {
		date = *req.Date
	}

	var (
		doc      *trade.Document
		warnings []partner.CreditWarning
		pending  []shared.DomainEvent
	)
	err := s.txScope.Execute(ctx, func(repos txn.Repositories) error {
		party, err := repos.Parties().FindByIDAndKind(ctx, req.PartyID, partyKindFor(kind))
		if err != nil {
			return err
		}
		items, err := resolveItems(ctx, repos.Products(), req.Items)
		if err != nil {
			return err
		}
		number, err := s.numbers(repos).Next(ctx, trade.SeriesFor(kind))
		if err != nil {
			return err
		}
		doc, err = trade.NewDocument(kind, number, party.ID, date, items, req.Notes)
		if err != nil {
			return err
		}
		if err := repos.Documents().Save(ctx, doc); err != nil {
			return err
		}
		pending = event.Collect(doc)

		if status == trade.StatusCompleted {
			w, evts, err := s.complete(ctx, repos, doc, party)
			if err != nil {
				return err
			}
			warnings = w
			pending = append(pending, evts...)
		}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	s.events.Dispatch(ctx, pending...)
	telemetry.SetAttributes(span,
		telemetry.SpanAttrDocumentID, doc.ID.String(),
		telemetry.SpanAttrDocumentNumber, doc.Number,
		telemetry.SpanAttrAmountIQD, doc.Total.IQD().String(),
	)

	logger.FromContextOr(ctx, s.logger).Info("document created",
		zap.String("document_id", doc.ID.String()),
		zap.String("kind", string(kind)),
		zap.String("number", doc.Number),
		zap.String("status", string(doc.Status)),
		zap.String("total_iqd", doc.Total.IQD().String()),
	)
	resp := ToDocumentResponse(doc)
	resp.Warnings = warnings
	return &resp, nil
}

// GetByID retrieves a document of a kind
func (s *DocumentService) GetByID(ctx context.Context, kind trade.DocumentKind, id uuid.UUID) (*DocumentResponse, error) {
	doc, err := s.documents.FindByID(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	resp := ToDocumentResponse(doc)
	return &resp, nil
}

// List retrieves a page of documents, newest first
func (s *DocumentService) List(ctx context.Context, kind trade.DocumentKind, filter DocumentListFilter) ([]DocumentResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  "document_date",
		OrderDir: "desc",
		Search:   filter.Search,
		Filters:  make(map[string]any),
	}
	if filter.PartyID != nil {
		domainFilter.Filters["party_id"] = *filter.PartyID
	}
	if filter.Status != "" {
		if !trade.DocumentStatus(filter.Status).IsValid() {
			return nil, 0, shared.NewValidationError(shared.CodeInvalidInput, "unknown status %q", filter.Status)
		}
		domainFilter.Filters["status"] = filter.Status
	}
	if filter.StartDate != nil {
		domainFilter.Filters["start_date"] = filter.StartDate.UTC()
	}
	if filter.EndDate != nil {
		domainFilter.Filters["end_date"] = filter.EndDate.UTC()
	}

	docs, total, err := s.documents.FindAll(ctx, kind, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	out := make([]DocumentResponse, len(docs))
	for i := range docs {
		out[i] = ToDocumentResponse(&docs[i])
	}
	return out, total, nil
}

// Update replaces the party, lines and notes of a pending document
func (s *DocumentService) Update(ctx context.Context, kind trade.DocumentKind, id uuid.UUID, req UpdateDocumentRequest) (*DocumentResponse, error) {
	var doc *trade.Document
	err := s.txScope.Execute(ctx, func(repos txn.Repositories) error {
		var err error
		doc, err = repos.Documents().FindByID(ctx, kind, id)
		if err != nil {
			return err
		}
		if !doc.CanModify() {
			return shared.NewStateError(shared.CodeInvalidState,
				"%s %s cannot be edited in %s status", kind, doc.Number, doc.Status).
				WithDetail("status", string(doc.Status))
		}
		if _, err := repos.Parties().FindByIDAndKind(ctx, req.PartyID, partyKindFor(kind)); err != nil {
			return err
		}
		items, err := resolveItems(ctx, repos.Products(), req.Items)
		if err != nil {
			return err
		}
		var date time.Time
		if req.Date != nil {
			date = *req.Date
		}
		if err := doc.Revise(req.PartyID, date, items, req.Notes); err != nil {
			return err
		}
		return repos.Documents().SaveWithLock(ctx, doc)
	})
	if err != nil {
		return nil, err
	}
	resp := ToDocumentResponse(doc)
	return &resp, nil
}

// Delete removes a pending or cancelled document
func (s *DocumentService) Delete(ctx context.Context, kind trade.DocumentKind, id uuid.UUID) error {
	return s.txScope.Execute(ctx, func(repos txn.Repositories) error {
		doc, err := repos.Documents().FindByID(ctx, kind, id)
		if err != nil {
			return err
		}
		if !doc.CanDelete() {
			return shared.NewStateError(shared.CodeInvalidState,
				"%s %s cannot be deleted in %s status", kind, doc.Number, doc.Status).
				WithDetail("status", string(doc.Status))
		}
		return repos.Documents().Delete(ctx, id)
	})
}

// Complete completes a pending document and applies its stock and ledger effects
func (s *DocumentService) Complete(ctx context.Context, kind trade.DocumentKind, id uuid.UUID) (*DocumentResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "document", "complete",
		telemetry.WithAttribute(telemetry.SpanAttrDocumentKind, string(kind)),
		telemetry.WithAttribute(telemetry.SpanAttrDocumentID, id.String()),
	)
	defer span.End()

	var (
		doc      *trade.Document
		warnings []partner.CreditWarning
		pending  []shared.DomainEvent
	)
	err := s.txScope.Execute(ctx, func(repos txn.Repositories) error {
		var err error
		doc, err = repos.Documents().FindByID(ctx, kind, id)
		if err != nil {
			return err
		}
		party, err := repos.Parties().FindByIDAndKind(ctx, doc.PartyID, partyKindFor(kind))
		if err != nil {
			return err
		}
		warnings, pending, err = s.complete(ctx, repos, doc, party)
		return err
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	s.events.Dispatch(ctx, pending...)

	resp := ToDocumentResponse(doc)
	resp.Warnings = warnings
	return &resp, nil
}

// complete applies the status change, the stock movements and the ledger
// posting. Under the block policy nothing is written when the sale would
// exceed the customer's credit limit.
func (s *DocumentService) complete(ctx context.Context, repos txn.Repositories, doc *trade.Document, party *partner.Party) ([]partner.CreditWarning, []shared.DomainEvent, error) {
	log := logger.FromContextOr(ctx, s.logger)

	var warnings []partner.CreditWarning
	if doc.Kind == trade.KindSale {
		w, err := s.policy.Check(party, doc.Total.IQD())
		if err != nil {
			return nil, nil, err
		}
		if w != nil {
			warnings = append(warnings, *w)
			log.Warn("credit limit exceeded",
				zap.String("party_id", party.ID.String()),
				zap.String("document", doc.Number),
				zap.String("credit_limit", w.CreditLimit.String()),
				zap.String("projected_balance", w.Projected.String()),
			)
		}
	}

	if err := doc.Complete(); err != nil {
		return nil, nil, err
	}
	if err := repos.Documents().SaveWithLock(ctx, doc); err != nil {
		return nil, nil, err
	}

	refType, refID, refNumber := doc.Reference()
	changes := make([]inventory.StockChange, 0, len(doc.Items))
	for _, it := range doc.Items {
		changes = append(changes, inventory.StockChange{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Reason:    movementReasonFor(doc.Kind),
			Reference: inventory.Reference{Type: refType, ID: refID, Number: refNumber},
			Date:      doc.Date,
		})
	}
	tracker := inventory.NewStockLevelTracker(repos.Products(), repos.StockMovements()).WithClock(s.now)
	var err error
	if doc.Kind == trade.KindSale {
		_, err = tracker.DecreaseAll(ctx, changes)
	} else {
		_, err = tracker.IncreaseAll(ctx, changes)
	}
	if err != nil {
		return nil, nil, err
	}

	ledger := partner.NewAccountLedger(repos.Parties(), repos.LedgerEntries()).WithClock(s.now)
	posting := partner.Posting{
		PartyID:     doc.PartyID,
		Amount:      doc.Total,
		Reference:   partner.Reference{Type: partner.ReferenceType(refType), ID: refID, Number: refNumber},
		Date:        doc.Date,
		Description: invoiceDescription(doc),
	}
	var entry *partner.LedgerEntry
	if doc.Kind == trade.KindSale {
		entry, err = ledger.PostSale(ctx, posting)
	} else {
		entry, err = ledger.PostPurchase(ctx, posting)
	}
	if err != nil {
		return nil, nil, err
	}

	log.Info("document completed",
		zap.String("document_id", doc.ID.String()),
		zap.String("number", doc.Number),
		zap.String("balance_after", entry.BalanceAfter.String()),
	)
	events := event.Collect(doc, party)
	events = append(events, tracker.DrainEvents()...)
	events = append(events, ledger.DrainEvents()...)
	return warnings, events, nil
}

// Cancel cancels a pending document
func (s *DocumentService) Cancel(ctx context.Context, kind trade.DocumentKind, id uuid.UUID) (*DocumentResponse, error) {
	return s.transition(ctx, kind, id, (*trade.Document).Cancel)
}

// Reopen moves a cancelled document back to pending
func (s *DocumentService) Reopen(ctx context.Context, kind trade.DocumentKind, id uuid.UUID) (*DocumentResponse, error) {
	return s.transition(ctx, kind, id, (*trade.Document).Reopen)
}

func (s *DocumentService) transition(ctx context.Context, kind trade.DocumentKind, id uuid.UUID, apply func(*trade.Document) error) (*DocumentResponse, error) {
	var doc *trade.Document
	err := s.txScope.Execute(ctx, func(repos txn.Repositories) error {
		var err error
		doc, err = repos.Documents().FindByID(ctx, kind, id)
		if err != nil {
			return err
		}
		if err := apply(doc); err != nil {
			return err
		}
		return repos.Documents().SaveWithLock(ctx, doc)
	})
	if err != nil {
		return nil, err
	}
	resp := ToDocumentResponse(doc)
	return &resp, nil
}

// Return records a return against a completed document, reversing stock
// and ledger for the returned lines only
func (s *DocumentService) Return(ctx context.Context, kind trade.DocumentKind, id uuid.UUID, req ReturnRequest) (*ReturnResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "document", "return",
		telemetry.WithAttribute(telemetry.SpanAttrDocumentKind, string(kind)),
		telemetry.WithAttribute(telemetry.SpanAttrDocumentID, id.String()),
		telemetry.WithAttribute(telemetry.SpanAttrLineCount, len(req.Items)),
	)
	defer span.End()

	items := make([]trade.ReturnRequestItem, len(req.Items))
	for i, it := range req.Items {
		items[i] = trade.ReturnRequestItem{ProductID: it.ProductID, Quantity: it.Quantity, Reason: it.Reason}
	}

	var (
		ret     *trade.Return
		doc     *trade.Document
		pending []shared.DomainEvent
	)
	err := s.txScope.Execute(ctx, func(repos txn.Repositories) error {
		var err error
		doc, err = repos.Documents().FindByID(ctx, kind, id)
		if err != nil {
			return err
		}
		number, err := s.numbers(repos).Next(ctx, trade.SeriesReturn)
		if err != nil {
			return err
		}
		ledger := partner.NewAccountLedger(repos.Parties(), repos.LedgerEntries()).WithClock(s.now)
		tracker := inventory.NewStockLevelTracker(repos.Products(), repos.StockMovements()).WithClock(s.now)
		processor := trade.NewReturnProcessor(repos.Documents(), repos.Returns(), ledger, tracker).WithClock(s.now)

		ret, err = processor.ApplyReturn(ctx, doc, number, items)
		if err != nil {
			return err
		}
		pending = append(event.Collect(doc), tracker.DrainEvents()...)
		pending = append(pending, ledger.DrainEvents()...)
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.AddEvent(span, "return_applied",
		telemetry.SpanAttrDocumentNumber, ret.Number,
		telemetry.SpanAttrAmountIQD, ret.Reversal.IQD().String(),
	)
	s.events.Dispatch(ctx, pending...)

	logger.FromContextOr(ctx, s.logger).Info("return applied",
		zap.String("return_id", ret.ID.String()),
		zap.String("number", ret.Number),
		zap.String("document", doc.Number),
		zap.String("reversal_iqd", ret.Reversal.IQD().String()),
		zap.String("document_status", string(doc.Status)),
	)
	resp := ToReturnResponse(ret)
	resp.DocumentStatus = string(doc.Status)
	return &resp, nil
}

// ListReturns lists the returns recorded against a document
func (s *DocumentService) ListReturns(ctx context.Context, kind trade.DocumentKind, id uuid.UUID) ([]ReturnResponse, error) {
	if _, err := s.documents.FindByID(ctx, kind, id); err != nil {
		return nil, err
	}
	returns, err := s.returns.FindByDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	out := make([]ReturnResponse, len(returns))
	for i := range returns {
		out[i] = ToReturnResponse(&returns[i])
	}
	return out, nil
}

// resolveItems captures product names and prices onto the requested lines
func resolveItems(ctx context.Context, products inventory.ProductRepository, inputs []LineItemInput) ([]trade.LineItem, error) {
	if len(inputs) == 0 {
		return nil, shared.NewValidationError(shared.CodeEmptyDocument, "a document needs at least one line item")
	}
	ids := make([]uuid.UUID, 0, len(inputs))
	for _, in := range inputs {
		ids = append(ids, in.ProductID)
	}
	found, err := products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*inventory.Product, len(found))
	for i := range found {
		byID[found[i].ID] = &found[i]
	}

	items := make([]trade.LineItem, len(inputs))
	for i, in := range inputs {
		p, ok := byID[in.ProductID]
		if !ok {
			return nil, shared.NewNotFoundError("product", in.ProductID)
		}
		iqd, usd := p.Price.IQD(), p.Price.USD()
		if in.PriceIQD != nil {
			iqd = *in.PriceIQD
		}
		if in.PriceUSD != nil {
			usd = *in.PriceUSD
		}
		items[i] = trade.LineItem{
			ProductID:   p.ID,
			ProductName: p.Name,
			Quantity:    in.Quantity,
			UnitPrice:   valueobject.NewMoneyValue(iqd, usd),
		}
	}
	return items, nil
}

func movementReasonFor(kind trade.DocumentKind) inventory.MovementReason {
	if kind == trade.KindPurchase {
		return inventory.ReasonPurchase
	}
	return inventory.ReasonSale
}

func invoiceDescription(doc *trade.Document) string {
	if doc.Kind == trade.KindPurchase {
		return fmt.Sprintf("Purchase Invoice %s", doc.Number)
	}
	return fmt.Sprintf("Sales Invoice %s", doc.Number)
}
