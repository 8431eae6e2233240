package partner

import (
	"context"
	"fmt"
	"time"

	"github.com/dinarbooks/backend/internal/application/event"
	"github.com/dinarbooks/backend/internal/application/txn"
	"github.com/dinarbooks/backend/internal/domain/partner"
	"github.com/dinarbooks/backend/internal/domain/shared"
	"github.com/dinarbooks/backend/internal/domain/shared/valueobject"
	"github.com/dinarbooks/backend/internal/infrastructure/logger"
	"github.com/dinarbooks/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PaymentService records payments received from customers and paid to
// suppliers. The ledger is append-only: changing or deleting a payment posts
// a correcting entry instead of rewriting the original one.
type PaymentService struct {
	payments partner.PaymentRepository
	txScope  txn.TransactionScope
	events   *event.Dispatcher
	logger   *zap.Logger
	now      func() time.Time
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(payments partner.PaymentRepository, txScope txn.TransactionScope, events *event.Dispatcher, log *zap.Logger) *PaymentService {
	if log == nil {
		log = zap.NewNop()
	}
	return &PaymentService{payments: payments, txScope: txScope, events: events, logger: log, now: time.Now}
}

// WithClock replaces the clock used for undated payments
func (s *PaymentService) WithClock(now func() time.Time) *PaymentService {
	s.now = now
	return s
}

// Create records a payment and posts it to the party's ledger
func (s *PaymentService) Create(ctx context.Context, kind partner.PartyKind, req CreatePaymentRequest) (*PaymentResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment", "create")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrPartyID, req.PartyID.String(),
		telemetry.SpanAttrPaymentMethod, req.Method,
		telemetry.SpanAttrAmountIQD, req.AmountIQD.String(),
	)

	method, err := partner.NewPaymentMethod(methodDetails(req.Method, req.BankName, req.ChequeNumber, req.ChequeDate))
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	date := s.now()
	if req.Date != nil {
		date = *req.Date
	}

	var (
		payment *partner.Payment
		entry   *partner.LedgerEntry
		pending []shared.DomainEvent
	)
	err = s.txScope.Execute(ctx, func(repos txn.Repositories) error {
		party, err := repos.Parties().FindByIDAndKind(ctx, req.PartyID, kind)
		if err != nil {
			return err
		}
		payment, err = partner.NewPayment(party, valueobject.NewMoneyValue(req.AmountIQD, req.AmountUSD), method, date, req.Notes)
		if err != nil {
			return err
		}
		if err := repos.Payments().Save(ctx, payment); err != nil {
			return err
		}

		ledger := partner.NewAccountLedger(repos.Parties(), repos.LedgerEntries()).WithClock(s.now)
		entry, err = ledger.PostPayment(ctx, partner.Posting{
			PartyID:     party.ID,
			Amount:      payment.Amount,
			Reference:   payment.ReferenceOf(),
			Date:        payment.Date,
			Description: paymentDescription(party),
		})
		if err != nil {
			return err
		}
		pending = append(event.Collect(payment), ledger.DrainEvents()...)
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrPaymentID, payment.ID.String())
	s.events.Dispatch(ctx, pending...)

	logger.FromContextOr(ctx, s.logger).Info("payment recorded",
		zap.String("payment_id", payment.ID.String()),
		zap.String("party_id", payment.PartyID.String()),
		zap.String("amount_iqd", payment.Amount.IQD().String()),
		zap.String("balance_after", entry.BalanceAfter.String()),
	)
	resp := ToPaymentResponse(payment)
	resp.Balance = &entry.BalanceAfter
	return &resp, nil
}

// GetByID retrieves a payment of a party kind
func (s *PaymentService) GetByID(ctx context.Context, kind partner.PartyKind, id uuid.UUID) (*PaymentResponse, error) {
	payment, err := findPayment(ctx, s.payments, kind, id)
	if err != nil {
		return nil, err
	}
	resp := ToPaymentResponse(payment)
	return &resp, nil
}

// List retrieves a page of payments, optionally for one party
func (s *PaymentService) List(ctx context.Context, kind partner.PartyKind, filter PaymentListFilter) ([]PaymentResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  "payment_date",
		OrderDir: "desc",
	}
	payments, total, err := s.payments.FindAll(ctx, kind, filter.PartyID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	out := make([]PaymentResponse, len(payments))
	for i := range payments {
		out[i] = ToPaymentResponse(&payments[i])
	}
	return out, total, nil
}

// Update changes a payment and posts the difference to the ledger
func (s *PaymentService) Update(ctx context.Context, kind partner.PartyKind, id uuid.UUID, req UpdatePaymentRequest) (*PaymentResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment", "update",
		telemetry.WithAttribute(telemetry.SpanAttrPaymentID, id.String()))
	defer span.End()

	method, err := partner.NewPaymentMethod(methodDetails(req.Method, req.BankName, req.ChequeNumber, req.ChequeDate))
	if err != nil {
		return nil, err
	}
	var date time.Time
	if req.Date != nil {
		date = *req.Date
	}

	var (
		payment *partner.Payment
		entry   *partner.LedgerEntry
		pending []shared.DomainEvent
	)
	err = s.txScope.Execute(ctx, func(repos txn.Repositories) error {
		var err error
		payment, err = findPayment(ctx, repos.Payments(), kind, id)
		if err != nil {
			return err
		}
		delta, err := payment.Update(valueobject.NewMoneyValue(req.AmountIQD, req.AmountUSD), method, date, req.Notes)
		if err != nil {
			return err
		}
		if err := repos.Payments().Save(ctx, payment); err != nil {
			return err
		}

		ledger := partner.NewAccountLedger(repos.Parties(), repos.LedgerEntries()).WithClock(s.now)
		entry, err = ledger.PostPaymentCorrection(ctx, partner.Posting{
			PartyID:     payment.PartyID,
			Amount:      delta,
			Reference:   payment.ReferenceOf(),
			Date:        s.now(),
			Description: "Payment correction",
		})
		if err != nil {
			return err
		}
		pending = ledger.DrainEvents()
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	s.events.Dispatch(ctx, pending...)

	resp := ToPaymentResponse(payment)
	if entry != nil {
		resp.Balance = &entry.BalanceAfter
	}
	return &resp, nil
}

// Delete removes a payment and posts its amount back to the ledger
func (s *PaymentService) Delete(ctx context.Context, kind partner.PartyKind, id uuid.UUID) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment", "delete",
		telemetry.WithAttribute(telemetry.SpanAttrPaymentID, id.String()))
	defer span.End()

	var pending []shared.DomainEvent
	err := s.txScope.Execute(ctx, func(repos txn.Repositories) error {
		payment, err := findPayment(ctx, repos.Payments(), kind, id)
		if err != nil {
			return err
		}
		if err := repos.Payments().Delete(ctx, id); err != nil {
			return err
		}
		ledger := partner.NewAccountLedger(repos.Parties(), repos.LedgerEntries()).WithClock(s.now)
		if _, err := ledger.PostPaymentCorrection(ctx, partner.Posting{
			PartyID:     payment.PartyID,
			Amount:      payment.Amount,
			Reference:   payment.ReferenceOf(),
			Date:        s.now(),
			Description: "Payment reversal",
		}); err != nil {
			return err
		}
		pending = ledger.DrainEvents()
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return err
	}
	s.events.Dispatch(ctx, pending...)

	logger.FromContextOr(ctx, s.logger).Info("payment deleted", zap.String("payment_id", id.String()))
	return nil
}

func findPayment(ctx context.Context, repo partner.PaymentRepository, kind partner.PartyKind, id uuid.UUID) (*partner.Payment, error) {
	payment, err := repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if payment.PartyKind != kind {
		return nil, shared.NewNotFoundError(kind.String()+" payment", id)
	}
	return payment, nil
}

func paymentDescription(p *partner.Party) string {
	if p.Kind == partner.PartyKindSupplier {
		return fmt.Sprintf("Payment to %s", p.Name)
	}
	return fmt.Sprintf("Payment received from %s", p.Name)
}
