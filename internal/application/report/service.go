package report

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/dinarbooks/backend/internal/domain/currency"
	"github.com/dinarbooks/backend/internal/domain/inventory"
	"github.com/dinarbooks/backend/internal/domain/report"
	"github.com/dinarbooks/backend/internal/domain/shared"
	"github.com/dinarbooks/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultPeriod is the dashboard window when no dates are given
	DefaultPeriod = 30 * 24 * time.Hour
	// DefaultTopN is the size of ranking lists
	DefaultTopN = 5
)

// PeriodFilter is the optional date window of a report request
type PeriodFilter struct {
	StartDate *time.Time
	EndDate   *time.Time
	TopN      int
}

// RateSnapshot is the rate shown on the dashboard
type RateSnapshot struct {
	UsdToIqdRate  decimal.Decimal `json:"usd_to_iqd_rate"`
	EffectiveDate time.Time       `json:"effective_date"`
}

// DashboardResponse gathers the headline figures
type DashboardResponse struct {
	PeriodStart   time.Time               `json:"period_start"`
	PeriodEnd     time.Time               `json:"period_end"`
	Sales         *report.DocumentSummary `json:"sales"`
	Purchases     *report.DocumentSummary `json:"purchases"`
	Receivables   decimal.Decimal         `json:"receivables"`
	Payables      decimal.Decimal         `json:"payables"`
	LowStockCount int64                   `json:"low_stock_count"`
	CurrentRate   *RateSnapshot           `json:"current_rate"`
	SalesTrend    []report.DailyTrend     `json:"sales_trend"`
	TopProducts   []report.ProductRanking `json:"top_products"`
}

// Service answers the dashboard and report queries. It only reads.
type Service struct {
	reports   report.Repository
	rates     currency.ExchangeRateRepository
	logger    *zap.Logger
	threshold int64
	now       func() time.Time
}

// NewService creates a new report Service
func NewService(reports report.Repository, rates currency.ExchangeRateRepository, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{reports: reports, rates: rates, logger: log, threshold: 10, now: time.Now}
}

// WithLowStockThreshold sets the threshold used for stock buckets
func (s *Service) WithLowStockThreshold(n int64) *Service {
	if n >= 0 {
		s.threshold = n
	}
	return s
}

// WithClock replaces the clock used for default periods
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) filter(kind report.DocumentKind, p PeriodFilter) (report.Filter, error) {
	end := s.now().UTC()
	if p.EndDate != nil {
		end = p.EndDate.UTC()
		if end.Hour() == 0 && end.Minute() == 0 && end.Second() == 0 && end.Nanosecond() == 0 {
			end = end.Add(24*time.Hour - time.Nanosecond)
		}
	}
	start := end.Add(-DefaultPeriod)
	if p.StartDate != nil {
		start = p.StartDate.UTC()
	}
	if end.Before(start) {
		return report.Filter{}, shared.NewValidationError(shared.CodeInvalidInput, "end_date must not be before start_date")
	}
	topN := p.TopN
	if topN <= 0 {
		topN = DefaultTopN
	}
	return report.Filter{Kind: kind, StartDate: start, EndDate: end, TopN: topN}, nil
}

// Dashboard gathers the dashboard figures concurrently
func (s *Service) Dashboard(ctx context.Context, p PeriodFilter) (*DashboardResponse, error) {
	sales, err := s.filter(report.KindSale, p)
	if err != nil {
		return nil, err
	}
	purchases := sales
	purchases.Kind = report.KindPurchase

	resp := &DashboardResponse{PeriodStart: sales.StartDate, PeriodEnd: sales.EndDate}
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		summary, err := s.reports.Summarize(ctx, sales)
		if err != nil {
			return err
		}
		resp.Sales = summary
		return nil
	})

	g.Go(func() error {
		summary, err := s.reports.Summarize(ctx, purchases)
		if err != nil {
			return err
		}
		resp.Purchases = summary
		return nil
	})

	g.Go(func() error {
		totals, err := s.reports.Balances(ctx)
		if err != nil {
			return err
		}
		resp.Receivables = totals.Receivables
		resp.Payables = totals.Payables
		return nil
	})

	g.Go(func() error {
		levels, err := s.reports.StockLevels(ctx)
		if err != nil {
			return err
		}
		for _, l := range levels {
			if l.CurrentStock <= s.threshold {
				resp.LowStockCount++
			}
		}
		return nil
	})

	g.Go(func() error {
		rate, err := s.rates.FindEffectiveAt(ctx, s.now().UTC())
		if errors.Is(err, shared.ErrNoRateAvailable) {
			return nil
		}
		if err != nil {
			return err
		}
		resp.CurrentRate = &RateSnapshot{UsdToIqdRate: rate.UsdToIqdRate, EffectiveDate: rate.EffectiveAt}
		return nil
	})

	g.Go(func() error {
		trend, err := s.reports.DailyTrend(ctx, sales)
		if err != nil {
			return err
		}
		resp.SalesTrend = trend
		return nil
	})

	g.Go(func() error {
		top, err := s.reports.TopProducts(ctx, sales)
		if err != nil {
			return err
		}
		resp.TopProducts = top
		return nil
	})

	if err := g.Wait(); err != nil {
		s.logger.Error("dashboard query failed", zap.Error(err))
		return nil, err
	}
	return resp, nil
}

// SalesSummary totals sales in the period
func (s *Service) SalesSummary(ctx context.Context, p PeriodFilter) (*report.DocumentSummary, error) {
	f, err := s.filter(report.KindSale, p)
	if err != nil {
		return nil, err
	}
	return s.reports.Summarize(ctx, f)
}

// PurchasesSummary totals purchases in the period
func (s *Service) PurchasesSummary(ctx context.Context, p PeriodFilter) (*report.DocumentSummary, error) {
	f, err := s.filter(report.KindPurchase, p)
	if err != nil {
		return nil, err
	}
	return s.reports.Summarize(ctx, f)
}

// InventoryStatus buckets every product by stock level; a negative threshold uses the default
func (s *Service) InventoryStatus(ctx context.Context, threshold int64) (*report.InventoryStatus, error) {
	if threshold < 0 {
		threshold = s.threshold
	}
	levels, err := s.reports.StockLevels(ctx)
	if err != nil {
		return nil, err
	}
	status := &report.InventoryStatus{Threshold: threshold}
	for _, l := range levels {
		status.Add(l)
	}
	return status, nil
}

// BestSelling ranks products by quantity sold
func (s *Service) BestSelling(ctx context.Context, p PeriodFilter) ([]report.ProductRanking, error) {
	f, err := s.filter(report.KindSale, p)
	if err != nil {
		return nil, err
	}
	return s.reports.TopProducts(ctx, f)
}

// CustomerAnalysis ranks customers by sales
func (s *Service) CustomerAnalysis(ctx context.Context, p PeriodFilter) ([]report.PartyRanking, error) {
	f, err := s.filter(report.KindSale, p)
	if err != nil {
		return nil, err
	}
	return s.reports.PartyAnalysis(ctx, f)
}

// SupplierAnalysis ranks suppliers by purchases
func (s *Service) SupplierAnalysis(ctx context.Context, p PeriodFilter) ([]report.PartyRanking, error) {
	f, err := s.filter(report.KindPurchase, p)
	if err != nil {
		return nil, err
	}
	return s.reports.PartyAnalysis(ctx, f)
}

// MovementQuery filters the cross-product movement log
type MovementQuery struct {
	PeriodFilter
	ProductID *uuid.UUID
	Type      string
	Reason    string
	Limit     int
}

// InventoryMovements lists stock movements of every product in the period
func (s *Service) InventoryMovements(ctx context.Context, q MovementQuery) ([]report.MovementLogEntry, error) {
	f, err := s.filter(report.KindSale, q.PeriodFilter)
	if err != nil {
		return nil, err
	}
	if q.Type != "" && !inventory.Direction(q.Type).IsValid() {
		return nil, shared.NewValidationError(shared.CodeInvalidInput, "movement type must be in or out, got %q", q.Type)
	}
	return s.reports.MovementLog(ctx, report.MovementFilter{
		StartDate: f.StartDate,
		EndDate:   f.EndDate,
		ProductID: q.ProductID,
		Direction: q.Type,
		Reason:    q.Reason,
		Limit:     q.Limit,
	})
}

// ProfitLoss nets sales and purchases of the period against their returns
func (s *Service) ProfitLoss(ctx context.Context, p PeriodFilter) (*report.ProfitLoss, error) {
	sales, err := s.filter(report.KindSale, p)
	if err != nil {
		return nil, err
	}
	purchases := sales
	purchases.Kind = report.KindPurchase

	var (
		salesTotal, purchaseTotal     *report.DocumentSummary
		salesReturns, purchaseReturns valueobject.MoneyValue
	)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		salesTotal, err = s.reports.Summarize(ctx, sales)
		return err
	})
	g.Go(func() error {
		var err error
		purchaseTotal, err = s.reports.Summarize(ctx, purchases)
		return err
	})
	g.Go(func() error {
		var err error
		salesReturns, err = s.reports.ReturnTotals(ctx, sales)
		return err
	})
	g.Go(func() error {
		var err error
		purchaseReturns, err = s.reports.ReturnTotals(ctx, purchases)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("profit and loss query failed", zap.Error(err))
		return nil, err
	}
	return report.NewProfitLoss(sales.StartDate, sales.EndDate,
		salesTotal.Total, salesReturns, purchaseTotal.Total, purchaseReturns), nil
}

// Inventory analysis types
const (
	AnalysisValue    = "value"
	AnalysisTurnover = "turnover"
)

// DefaultTurnoverWindow is the trailing window of the turnover analysis
const DefaultTurnoverWindow = 90 * 24 * time.Hour

// InventoryAnalysisResponse carries the analysis that was asked for
type InventoryAnalysisResponse struct {
	AnalysisType string                     `json:"analysis_type"`
	StockValue   *report.InventoryValuation `json:"stock_value,omitempty"`
	Turnover     *report.InventoryTurnover  `json:"turnover,omitempty"`
}

// InventoryAnalysis values the stock or measures its turnover over the trailing
// days; days <= 0 uses DefaultTurnoverWindow
func (s *Service) InventoryAnalysis(ctx context.Context, analysisType string, days int) (*InventoryAnalysisResponse, error) {
	switch analysisType {
	case AnalysisValue:
		products, err := s.reports.Valuations(ctx)
		if err != nil {
			return nil, err
		}
		return &InventoryAnalysisResponse{AnalysisType: analysisType, StockValue: report.NewInventoryValuation(products)}, nil

	case AnalysisTurnover:
		window := DefaultTurnoverWindow
		if days > 0 {
			window = time.Duration(days) * 24 * time.Hour
		}
		end := s.now().UTC()
		start := end.Add(-window)
		activity, err := s.reports.Activity(ctx, start)
		if err != nil {
			return nil, err
		}
		turnover := &report.InventoryTurnover{PeriodStart: start, PeriodEnd: end, Products: make([]report.ProductTurnover, len(activity))}
		for i, a := range activity {
			turnover.Products[i] = report.TurnoverFor(a)
		}
		sort.SliceStable(turnover.Products, func(i, j int) bool {
			return turnover.Products[i].TurnoverRate.GreaterThan(turnover.Products[j].TurnoverRate)
		})
		return &InventoryAnalysisResponse{AnalysisType: analysisType, Turnover: turnover}, nil

	default:
		return nil, shared.NewValidationError(shared.CodeInvalidInput,
			"analysis_type must be %q or %q, got %q", AnalysisValue, AnalysisTurnover, analysisType).
			WithDetail("field", "analysis_type")
	}
}
