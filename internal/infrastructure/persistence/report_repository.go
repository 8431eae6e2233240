package persistence

import (
	"context"
	"sort"
	"time"

	"github.com/dinarbooks/backend/internal/domain/partner"
	"github.com/dinarbooks/backend/internal/domain/report"
	"github.com/dinarbooks/backend/internal/domain/shared/valueobject"
	"github.com/dinarbooks/backend/internal/domain/trade"
	"github.com/dinarbooks/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// settledStatuses are the document states that count as trade in reports
var settledStatuses = []trade.DocumentStatus{trade.StatusCompleted, trade.StatusReturned}

// GormReportRepository implements report.Repository using GORM. Every
// method only reads.
type GormReportRepository struct {
	db *gorm.DB
}

// NewGormReportRepository creates a new GormReportRepository
func NewGormReportRepository(db *gorm.DB) *GormReportRepository {
	return &GormReportRepository{db: db}
}

func (r *GormReportRepository) documents(ctx context.Context, f report.Filter) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&models.DocumentModel{}).
		Where("kind = ?", f.Kind).
		Where("status IN ?", settledStatuses).
		Where("document_date >= ? AND document_date <= ?", f.StartDate.UTC(), f.EndDate.UTC())
}

// Summarize totals completed and returned documents of a kind in the period
func (r *GormReportRepository) Summarize(ctx context.Context, f report.Filter) (*report.DocumentSummary, error) {
	var row struct {
		Count    int64
		TotalIQD decimal.Decimal
		TotalUSD decimal.Decimal
	}
	if err := r.documents(ctx, f).
		Select("COUNT(*) AS count, COALESCE(SUM(total_iqd), 0) AS total_iqd, COALESCE(SUM(total_usd), 0) AS total_usd").
		Scan(&row).Error; err != nil {
		return nil, err
	}

	total := valueobject.NewMoneyValue(row.TotalIQD, row.TotalUSD)
	average := valueobject.ZeroMoney()
	if row.Count > 0 {
		n := decimal.NewFromInt(row.Count)
		average = valueobject.NewMoneyValue(total.IQD().Div(n), total.USD().Div(n)).Round()
	}
	return &report.DocumentSummary{
		PeriodStart: f.StartDate,
		PeriodEnd:   f.EndDate,
		Count:       row.Count,
		Total:       total,
		Average:     average,
	}, nil
}

type periodDocument struct {
	ID           uuid.UUID
	PartyID      uuid.UUID
	DocumentDate time.Time
	TotalIQD     decimal.Decimal
	TotalUSD     decimal.Decimal
}

func (r *GormReportRepository) periodDocuments(ctx context.Context, f report.Filter) ([]periodDocument, error) {
	var rows []models.DocumentModel
	if err := r.documents(ctx, f).
		Select("id", "party_id", "document_date", "total_iqd", "total_usd").
		Order("document_date ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]periodDocument, len(rows))
	for i, m := range rows {
		out[i] = periodDocument{
			ID:           m.ID,
			PartyID:      m.PartyID,
			DocumentDate: m.DocumentDate.UTC(),
			TotalIQD:     m.TotalIQD,
			TotalUSD:     m.TotalUSD,
		}
	}
	return out, nil
}

// DailyTrend returns per-day totals, oldest day first. Days are UTC.
func (r *GormReportRepository) DailyTrend(ctx context.Context, f report.Filter) ([]report.DailyTrend, error) {
	docs, err := r.periodDocuments(ctx, f)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return []report.DailyTrend{}, nil
	}

	ids := make([]uuid.UUID, len(docs))
	for i, d := range docs {
		ids[i] = d.ID
	}
	var quantities []struct {
		DocumentID uuid.UUID
		Quantity   int64
	}
	if err := r.db.WithContext(ctx).
		Model(&models.DocumentItemModel{}).
		Select("document_id, SUM(quantity) AS quantity").
		Where("document_id IN ?", ids).
		Group("document_id").
		Scan(&quantities).Error; err != nil {
		return nil, err
	}
	itemsByDoc := make(map[uuid.UUID]int64, len(quantities))
	for _, q := range quantities {
		itemsByDoc[q.DocumentID] = q.Quantity
	}

	trend := make([]report.DailyTrend, 0)
	for _, d := range docs {
		day := time.Date(d.DocumentDate.Year(), d.DocumentDate.Month(), d.DocumentDate.Day(), 0, 0, 0, 0, time.UTC)
		if n := len(trend); n == 0 || !trend[n-1].Date.Equal(day) {
			trend = append(trend, report.DailyTrend{Date: day, Total: valueobject.ZeroMoney()})
		}
		last := &trend[len(trend)-1]
		last.Count++
		last.Total = last.Total.Add(valueobject.NewMoneyValue(d.TotalIQD, d.TotalUSD))
		last.ItemsSold += itemsByDoc[d.ID]
	}
	return trend, nil
}

// TopProducts ranks products by quantity net of returns on documents of a kind
func (r *GormReportRepository) TopProducts(ctx context.Context, f report.Filter) ([]report.ProductRanking, error) {
	var rows []struct {
		ProductID     uuid.UUID
		ProductName   string
		ProductSKU    string
		TotalQuantity int64
		TotalIQD      decimal.Decimal
		TotalUSD      decimal.Decimal
		DocumentCount int64
	}
	query := r.db.WithContext(ctx).
		Table("document_items AS di").
		Select(`di.product_id AS product_id,
			MAX(di.product_name) AS product_name,
			COALESCE(MAX(p.sku), '') AS product_sku,
			SUM(di.quantity - di.returned_quantity) AS total_quantity,
			COALESCE(SUM(di.line_total_iqd), 0) AS total_iqd,
			COALESCE(SUM(di.line_total_usd), 0) AS total_usd,
			COUNT(DISTINCT di.document_id) AS document_count`).
		Joins("JOIN documents AS d ON d.id = di.document_id").
		Joins("LEFT JOIN products AS p ON p.id = di.product_id").
		Where("d.kind = ?", f.Kind).
		Where("d.status IN ?", settledStatuses).
		Where("d.document_date >= ? AND d.document_date <= ?", f.StartDate.UTC(), f.EndDate.UTC()).
		Group("di.product_id").
		Order("total_quantity DESC").
		Order("product_name ASC")
	if f.TopN > 0 {
		query = query.Limit(f.TopN)
	}
	if err := query.Scan(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]report.ProductRanking, len(rows))
	for i, row := range rows {
		out[i] = report.ProductRanking{
			Rank:          i + 1,
			ProductID:     row.ProductID,
			ProductSKU:    row.ProductSKU,
			ProductName:   row.ProductName,
			TotalQuantity: row.TotalQuantity,
			Total:         valueobject.NewMoneyValue(row.TotalIQD, row.TotalUSD),
			DocumentCount: row.DocumentCount,
		}
	}
	return out, nil
}

// PartyAnalysis ranks the parties of a kind's documents by IQD total
func (r *GormReportRepository) PartyAnalysis(ctx context.Context, f report.Filter) ([]report.PartyRanking, error) {
	docs, err := r.periodDocuments(ctx, f)
	if err != nil {
		return nil, err
	}

	byParty := make(map[uuid.UUID]*report.PartyRanking)
	order := make([]uuid.UUID, 0)
	for _, d := range docs {
		pr, ok := byParty[d.PartyID]
		if !ok {
			pr = &report.PartyRanking{PartyID: d.PartyID, Total: valueobject.ZeroMoney()}
			byParty[d.PartyID] = pr
			order = append(order, d.PartyID)
		}
		pr.DocumentCount++
		pr.Total = pr.Total.Add(valueobject.NewMoneyValue(d.TotalIQD, d.TotalUSD))
		at := d.DocumentDate
		pr.LastDocumentAt = &at
	}
	if len(order) == 0 {
		return []report.PartyRanking{}, nil
	}

	var parties []models.PartyModel
	if err := r.db.WithContext(ctx).
		Select("id", "name", "balance").
		Where("id IN ?", order).
		Find(&parties).Error; err != nil {
		return nil, err
	}
	for _, p := range parties {
		if pr, ok := byParty[p.ID]; ok {
			pr.PartyName = p.Name
			pr.Balance = p.Balance
		}
	}

	out := make([]report.PartyRanking, 0, len(order))
	for _, id := range order {
		out = append(out, *byParty[id])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Total.IQD().GreaterThan(out[j].Total.IQD())
	})
	if f.TopN > 0 && len(out) > f.TopN {
		out = out[:f.TopN]
	}
	for i := range out {
		out[i].Rank = i + 1
	}
	return out, nil
}

// StockLevels lists every product's current stock, lowest first
func (r *GormReportRepository) StockLevels(ctx context.Context) ([]report.StockLevel, error) {
	var rows []models.ProductModel
	if err := r.db.WithContext(ctx).
		Select("id", "sku", "name", "current_stock").
		Order("current_stock ASC").
		Order("name ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]report.StockLevel, len(rows))
	for i, m := range rows {
		out[i] = report.StockLevel{
			ProductID:    m.ID,
			SKU:          m.SKU,
			Name:         m.Name,
			CurrentStock: m.CurrentStock,
		}
	}
	return out, nil
}

// Balances sums what customers owe the business and what it owes suppliers
func (r *GormReportRepository) Balances(ctx context.Context) (*report.BalanceTotals, error) {
	var receivables, payables struct {
		Total decimal.Decimal
	}
	if err := r.db.WithContext(ctx).
		Model(&models.PartyModel{}).
		Select("COALESCE(SUM(balance), 0) AS total").
		Where("kind = ? AND balance > 0", partner.PartyKindCustomer).
		Scan(&receivables).Error; err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).
		Model(&models.PartyModel{}).
		Select("COALESCE(SUM(balance), 0) AS total").
		Where("kind = ?", partner.PartyKindSupplier).
		Scan(&payables).Error; err != nil {
		return nil, err
	}
	return &report.BalanceTotals{Receivables: receivables.Total, Payables: payables.Total}, nil
}

// ReturnTotals sums the reversals of returns against a kind's documents, by return date
func (r *GormReportRepository) ReturnTotals(ctx context.Context, f report.Filter) (valueobject.MoneyValue, error) {
	var row struct {
		TotalIQD decimal.Decimal
		TotalUSD decimal.Decimal
	}
	if err := r.db.WithContext(ctx).
		Model(&models.ReturnModel{}).
		Select("COALESCE(SUM(reversal_iqd), 0) AS total_iqd, COALESCE(SUM(reversal_usd), 0) AS total_usd").
		Where("document_kind = ?", f.Kind).
		Where("return_date >= ? AND return_date <= ?", f.StartDate.UTC(), f.EndDate.UTC()).
		Scan(&row).Error; err != nil {
		return valueobject.MoneyValue{}, err
	}
	return valueobject.NewMoneyValue(row.TotalIQD, row.TotalUSD), nil
}

// defaultMovementLogLimit caps the movement log when the filter sets no limit
const defaultMovementLogLimit = 1000

// MovementLog lists movements of every product in the period, oldest first
func (r *GormReportRepository) MovementLog(ctx context.Context, f report.MovementFilter) ([]report.MovementLogEntry, error) {
	var rows []struct {
		models.StockMovementModel
		ProductSKU  string
		ProductName string
	}
	query := r.db.WithContext(ctx).
		Table("stock_movements AS m").
		Select("m.*, COALESCE(p.sku, '') AS product_sku, COALESCE(p.name, '') AS product_name").
		Joins("LEFT JOIN products AS p ON p.id = m.product_id").
		Where("m.movement_date >= ? AND m.movement_date <= ?", f.StartDate.UTC(), f.EndDate.UTC())
	if f.ProductID != nil {
		query = query.Where("m.product_id = ?", *f.ProductID)
	}
	if f.Direction != "" {
		query = query.Where("m.direction = ?", f.Direction)
	}
	if f.Reason != "" {
		query = query.Where("m.reason = ?", f.Reason)
	}
	limit := f.Limit
	if limit <= 0 {
		limit = defaultMovementLogLimit
	}
	if err := query.
		Order("m.movement_date ASC").
		Order("m.product_id ASC").
		Order("m.seq ASC").
		Limit(limit).
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]report.MovementLogEntry, len(rows))
	for i, row := range rows {
		m := row.StockMovementModel
		out[i] = report.MovementLogEntry{
			ID:              m.ID,
			ProductID:       m.ProductID,
			ProductSKU:      row.ProductSKU,
			ProductName:     row.ProductName,
			Sequence:        m.Seq,
			MovementDate:    m.MovementDate.UTC(),
			Type:            string(m.Direction),
			Reason:          string(m.Reason),
			Quantity:        m.Quantity,
			BalanceAfter:    m.BalanceAfter,
			ReferenceType:   m.ReferenceType,
			ReferenceID:     m.ReferenceID,
			ReferenceNumber: m.ReferenceNumber,
			Notes:           m.Notes,
		}
	}
	return out, nil
}

// Valuations lists every product with its stock and list price
func (r *GormReportRepository) Valuations(ctx context.Context) ([]report.ProductValuation, error) {
	var rows []models.ProductModel
	if err := r.db.WithContext(ctx).
		Select("id", "sku", "name", "current_stock", "price_iqd", "price_usd").
		Order("name ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]report.ProductValuation, len(rows))
	for i, m := range rows {
		out[i] = report.ProductValuation{
			ProductID:    m.ID,
			SKU:          m.SKU,
			Name:         m.Name,
			CurrentStock: m.CurrentStock,
			UnitPrice:    valueobject.NewMoneyValue(m.PriceIQD, m.PriceUSD),
		}
	}
	return out, nil
}

// Activity returns each product's net units sold on settled sales dated
// since the instant, and the units its movements moved in and out since then
func (r *GormReportRepository) Activity(ctx context.Context, since time.Time) ([]report.ProductActivity, error) {
	since = since.UTC()
	var products []models.ProductModel
	if err := r.db.WithContext(ctx).
		Select("id", "sku", "name", "current_stock").
		Order("name ASC").
		Find(&products).Error; err != nil {
		return nil, err
	}

	var sold []struct {
		ProductID uuid.UUID
		Units     int64
	}
	if err := r.db.WithContext(ctx).
		Table("document_items AS di").
		Select("di.product_id AS product_id, COALESCE(SUM(di.quantity - di.returned_quantity), 0) AS units").
		Joins("JOIN documents AS d ON d.id = di.document_id").
		Where("d.kind = ?", trade.KindSale).
		Where("d.status IN ?", settledStatuses).
		Where("d.document_date >= ?", since).
		Group("di.product_id").
		Scan(&sold).Error; err != nil {
		return nil, err
	}

	var flows []struct {
		ProductID uuid.UUID
		UnitsIn   int64
		UnitsOut  int64
	}
	if err := r.db.WithContext(ctx).
		Model(&models.StockMovementModel{}).
		Select(`product_id,
			COALESCE(SUM(CASE WHEN direction = 'in' THEN quantity ELSE 0 END), 0) AS units_in,
			COALESCE(SUM(CASE WHEN direction = 'out' THEN quantity ELSE 0 END), 0) AS units_out`).
		Where("movement_date >= ?", since).
		Group("product_id").
		Scan(&flows).Error; err != nil {
		return nil, err
	}

	soldBy := make(map[uuid.UUID]int64, len(sold))
	for _, s := range sold {
		soldBy[s.ProductID] = s.Units
	}
	type flow struct{ in, out int64 }
	flowBy := make(map[uuid.UUID]flow, len(flows))
	for _, f := range flows {
		flowBy[f.ProductID] = flow{in: f.UnitsIn, out: f.UnitsOut}
	}

	out := make([]report.ProductActivity, len(products))
	for i, p := range products {
		out[i] = report.ProductActivity{
			ProductID:    p.ID,
			SKU:          p.SKU,
			Name:         p.Name,
			CurrentStock: p.CurrentStock,
			UnitsSold:    soldBy[p.ID],
			UnitsIn:      flowBy[p.ID].in,
			UnitsOut:     flowBy[p.ID].out,
		}
	}
	return out, nil
}

var _ report.Repository = (*GormReportRepository)(nil)
