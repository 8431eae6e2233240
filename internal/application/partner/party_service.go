package partner

import (
	"context"
	"strings"
	"time"

	"github.com/dinarbooks/backend/internal/application/event"
	"github.com/dinarbooks/backend/internal/application/txn"
	"github.com/dinarbooks/backend/internal/domain/partner"
	"github.com/dinarbooks/backend/internal/domain/shared"
	"github.com/dinarbooks/backend/internal/domain/trade"
	"github.com/dinarbooks/backend/internal/infrastructure/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PartyService handles customer and supplier operations. Every method takes
// the party kind so one service serves both routes.
type PartyService struct {
	parties   partner.PartyRepository
	entries   partner.LedgerEntryRepository
	documents trade.DocumentRepository
	txScope   txn.TransactionScope
	events    *event.Dispatcher
	logger    *zap.Logger
	batchSize int
}

// NewPartyService creates a new PartyService
func NewPartyService(
	parties partner.PartyRepository,
	entries partner.LedgerEntryRepository,
	documents trade.DocumentRepository,
	txScope txn.TransactionScope,
	events *event.Dispatcher,
	log *zap.Logger,
) *PartyService {
	if log == nil {
		log = zap.NewNop()
	}
	return &PartyService{
		parties:   parties,
		entries:   entries,
		documents: documents,
		txScope:   txScope,
		events:    events,
		logger:    log,
		batchSize: partner.DefaultHistoryBatchSize,
	}
}

// WithHistoryBatchSize sets how many ledger entries one history query reads
func (s *PartyService) WithHistoryBatchSize(n int) *PartyService {
	if n > 0 {
		s.batchSize = n
	}
	return s
}

// Create creates a new party of the given kind
func (s *PartyService) Create(ctx context.Context, kind partner.PartyKind, req CreatePartyRequest) (*PartyResponse, error) {
	limit := decimal.Zero
	if req.CreditLimit != nil {
		limit = *req.CreditLimit
	}
	party, err := partner.NewParty(kind, req.Name, limit)
	if err != nil {
		return nil, err
	}
	party.Contact = partner.ContactInfo{
		Phone:   strings.TrimSpace(req.Phone),
		Email:   strings.TrimSpace(req.Email),
		Address: strings.TrimSpace(req.Address),
	}
	party.Notes = req.Notes

	if err := s.parties.Save(ctx, party); err != nil {
		return nil, err
	}
	s.events.Dispatch(ctx, event.Collect(party)...)

	logger.FromContextOr(ctx, s.logger).Info("party created",
		zap.String("party_id", party.ID.String()),
		zap.String("kind", string(kind)),
	)
	resp := ToPartyResponse(party)
	return &resp, nil
}

// GetByID retrieves a party by ID
func (s *PartyService) GetByID(ctx context.Context, kind partner.PartyKind, id uuid.UUID) (*PartyResponse, error) {
	party, err := s.parties.FindByIDAndKind(ctx, id, kind)
	if err != nil {
		return nil, err
	}
	resp := ToPartyResponse(party)
	return &resp, nil
}

// List retrieves a page of parties
func (s *PartyService) List(ctx context.Context, kind partner.PartyKind, filter PartyListFilter) ([]PartyResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if filter.OrderBy == "" {
		filter.OrderBy = "name"
	}
	if filter.OrderDir == "" {
		filter.OrderDir = "asc"
	}

	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Search:   filter.Search,
		Filters:  make(map[string]any),
	}
	if filter.Status != "" {
		domainFilter.Filters["status"] = filter.Status
	}

	parties, total, err := s.parties.FindAll(ctx, kind, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	return ToPartyResponses(parties), total, nil
}

// Update changes a party's contact details, credit limit or status. The
// balance is never written here.
func (s *PartyService) Update(ctx context.Context, kind partner.PartyKind, id uuid.UUID, req UpdatePartyRequest) (*PartyResponse, error) {
	var updated *partner.Party
	err := s.txScope.Execute(ctx, func(repos txn.Repositories) error {
		party, err := repos.Parties().FindByIDAndKind(ctx, id, kind)
		if err != nil {
			return err
		}
		version := party.Version

		name, contact, notes := party.Name, party.Contact, party.Notes
		if req.Name != nil {
			name = *req.Name
		}
		if req.Phone != nil {
			contact.Phone = *req.Phone
		}
		if req.Email != nil {
			contact.Email = *req.Email
		}
		if req.Address != nil {
			contact.Address = *req.Address
		}
		if req.Notes != nil {
			notes = *req.Notes
		}
		if err := party.Update(name, contact, notes); err != nil {
			return err
		}
		if req.CreditLimit != nil {
			if err := party.SetCreditLimit(*req.CreditLimit); err != nil {
				return err
			}
		}
		if req.Status != nil {
			if err := party.SetStatus(partner.PartyStatus(*req.Status)); err != nil {
				return err
			}
		}
		// one write, one version step
		party.Version = version + 1

		if err := repos.Parties().SaveWithLock(ctx, party); err != nil {
			return err
		}
		updated = party
		return nil
	})
	if err != nil {
		return nil, err
	}
	resp := ToPartyResponse(updated)
	return &resp, nil
}

// Delete removes a party with its ledger and payments. Parties referenced
// by documents cannot be deleted.
func (s *PartyService) Delete(ctx context.Context, kind partner.PartyKind, id uuid.UUID) error {
	err := s.txScope.Execute(ctx, func(repos txn.Repositories) error {
		party, err := repos.Parties().FindByIDAndKind(ctx, id, kind)
		if err != nil {
			return err
		}
		count, err := repos.Documents().CountByParty(ctx, id)
		if err != nil {
			return err
		}
		if count > 0 {
			return shared.NewStateError(shared.CodePartyInUse,
				"%s %s has %d documents and cannot be deleted", kind, party.Name, count).
				WithDetail("party_id", id.String()).
				WithDetail("document_count", count)
		}
		return repos.Parties().Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	logger.FromContextOr(ctx, s.logger).Info("party deleted",
		zap.String("party_id", id.String()),
		zap.String("kind", string(kind)),
	)
	return nil
}

// Transactions returns the party's ledger ascending by date then sequence
func (s *PartyService) Transactions(ctx context.Context, kind partner.PartyKind, id uuid.UUID, q TransactionQuery) ([]LedgerEntryResponse, error) {
	if _, err := s.parties.FindByIDAndKind(ctx, id, kind); err != nil {
		return nil, err
	}

	query := partner.HistoryQuery{Search: q.Search, Limit: q.Limit}
	if q.StartDate != nil {
		query.Range.From = q.StartDate.UTC()
	}
	if q.EndDate != nil {
		query.Range.To = endOfDay(q.EndDate.UTC())
	}
	if !query.Range.From.IsZero() && !query.Range.To.IsZero() && query.Range.To.Before(query.Range.From) {
		return nil, shared.NewValidationError(shared.CodeInvalidInput, "end_date must not be before start_date")
	}

	ledger := partner.NewAccountLedger(s.parties, s.entries).WithBatchSize(s.batchSize)
	entries, err := partner.CollectHistory(ledger.History(ctx, id, query))
	if err != nil {
		return nil, err
	}
	out := make([]LedgerEntryResponse, len(entries))
	for i, e := range entries {
		out[i] = ToLedgerEntryResponse(e)
	}
	return out, nil
}

// Statistics summarizes a party's documents and balance
func (s *PartyService) Statistics(ctx context.Context, kind partner.PartyKind, id uuid.UUID) (*PartyStatisticsResponse, error) {
	party, err := s.parties.FindByIDAndKind(ctx, id, kind)
	if err != nil {
		return nil, err
	}
	summary, err := s.documents.SummarizeByParty(ctx, id)
	if err != nil {
		return nil, err
	}
	ledger := partner.NewAccountLedger(s.parties, s.entries)
	balance, err := ledger.CurrentBalance(ctx, id)
	if err != nil {
		return nil, err
	}
	return &PartyStatisticsResponse{
		PartyID:        party.ID,
		DocumentCount:  summary.DocumentCount,
		Total:          summary.Total,
		LastDocumentAt: summary.LastDocumentAt,
		Balance:        balance,
		Interpretation: partner.InterpretBalance(kind, balance),
		CreditLimit:    party.CreditLimit,
	}, nil
}

// endOfDay widens a date-only bound to cover the whole day
func endOfDay(t time.Time) time.Time {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Add(24*time.Hour - time.Nanosecond)
	}
	return t
}
