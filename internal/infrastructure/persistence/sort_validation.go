package persistence

import (
	"strings"

	"github.com/dinarbooks/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// maxPageSize caps list queries regardless of what the caller asks for
const maxPageSize = 500

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	normalized := strings.ToUpper(strings.TrimSpace(orderDir))
	if normalized == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" {
		return defaultField
	}
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// paginate applies a whitelisted ORDER BY, then OFFSET and LIMIT from the filter.
// A blank direction falls back to defaultDir. The id column is always the
// final tie-breaker so pages are stable.
func paginate(query *gorm.DB, filter shared.Filter, allowed map[string]bool, defaultField, defaultDir string) *gorm.DB {
	field := ValidateSortField(filter.OrderBy, allowed, defaultField)
	dir := defaultDir
	if strings.TrimSpace(filter.OrderDir) != "" {
		dir = ValidateSortOrder(filter.OrderDir)
	}
	if field != "" {
		query = query.Order(field + " " + dir)
	}
	if field != "id" {
		query = query.Order("id ASC")
	}

	size := filter.PageSize
	if size <= 0 {
		return query
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return query.Offset(filter.Offset()).Limit(size)
}

// PartySortFields contains allowed sort fields for customers and suppliers
var PartySortFields = map[string]bool{
	"id":           true,
	"created_at":   true,
	"updated_at":   true,
	"name":         true,
	"status":       true,
	"balance":      true,
	"credit_limit": true,
}

// ProductSortFields contains allowed sort fields for products
var ProductSortFields = map[string]bool{
	"id":            true,
	"created_at":    true,
	"updated_at":    true,
	"sku":           true,
	"name":          true,
	"price_iqd":     true,
	"price_usd":     true,
	"current_stock": true,
}

// DocumentSortFields contains allowed sort fields for sales and purchases
var DocumentSortFields = map[string]bool{
	"id":            true,
	"created_at":    true,
	"updated_at":    true,
	"number":        true,
	"document_date": true,
	"status":        true,
	"total_iqd":     true,
	"total_usd":     true,
}

// PaymentSortFields contains allowed sort fields for payments
var PaymentSortFields = map[string]bool{
	"id":           true,
	"created_at":   true,
	"updated_at":   true,
	"payment_date": true,
	"amount_iqd":   true,
	"amount_usd":   true,
	"method":       true,
}

// ExchangeRateSortFields contains allowed sort fields for the rate table
var ExchangeRateSortFields = map[string]bool{
	"id":              true,
	"effective_at":    true,
	"recorded_at":     true,
	"usd_to_iqd_rate": true,
}
