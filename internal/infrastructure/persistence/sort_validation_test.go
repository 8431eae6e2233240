package persistence

import (
	"testing"

	"github.com/dinarbooks/backend/internal/domain/shared"
	"github.com/dinarbooks/backend/internal/infrastructure/persistence/models"
	"github.com/dinarbooks/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestValidateSortOrder(t *testing.T) {
	for input, want := range map[string]string{
		"":                   "DESC",
		"asc":                "ASC",
		"  ASC ":             "ASC",
		"desc":               "DESC",
		"ascending":          "DESC",
		"ASC; DELETE FROM x": "DESC",
	} {
		assert.Equal(t, want, ValidateSortOrder(input), "input %q", input)
	}
}

func TestValidateSortField(t *testing.T) {
	tests := []struct {
		name  string
		input string
		def   string
		want  string
	}{
		{"blank uses default", "", "name", "name"},
		{"whitelisted", "balance", "name", "balance"},
		{"trimmed", " credit_limit ", "name", "credit_limit"},
		{"case sensitive", "BALANCE", "name", "name"},
		{"unknown column", "password", "name", "name"},
		{"expression", "balance DESC, (SELECT 1)", "name", "name"},
		{"quoted", "name'--", "name", "name"},
		{"no default", "unknown", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateSortField(tt.input, PartySortFields, tt.def))
		})
	}
}

func TestSortFieldWhitelists(t *testing.T) {
	assert.True(t, PartySortFields["balance"])
	assert.True(t, ProductSortFields["current_stock"])
	assert.True(t, DocumentSortFields["document_date"])
	assert.True(t, PaymentSortFields["payment_date"])
	assert.True(t, ExchangeRateSortFields["effective_at"])
	assert.False(t, ExchangeRateSortFields["updated_at"])

	for name, whitelist := range map[string]map[string]bool{
		"party": PartySortFields, "product": ProductSortFields,
		"document": DocumentSortFields, "payment": PaymentSortFields,
	} {
		assert.True(t, whitelist["id"], "%s sorts by id", name)
		assert.True(t, whitelist["created_at"], "%s sorts by created_at", name)
	}
}

func TestPaginate(t *testing.T) {
	db := testutil.NewSQLiteDB(t).Session(&gorm.Session{DryRun: true})

	render := func(filter shared.Filter) string {
		var rows []models.PartyModel
		stmt := paginate(db.Model(&models.PartyModel{}), filter, PartySortFields, "name", "ASC").Find(&rows).Statement
		return stmt.SQL.String()
	}

	t.Run("default order with id tie-breaker", func(t *testing.T) {
		sql := render(shared.Filter{Page: 3, PageSize: 20})
		assert.Contains(t, sql, "ORDER BY name ASC,id ASC")
		assert.Contains(t, sql, "LIMIT 20 OFFSET 40")
	})

	t.Run("requested order", func(t *testing.T) {
		sql := render(shared.Filter{OrderBy: "balance", OrderDir: "desc", PageSize: 10})
		assert.Contains(t, sql, "ORDER BY balance DESC,id ASC")
	})

	t.Run("rejected column falls back", func(t *testing.T) {
		sql := render(shared.Filter{OrderBy: "name; DROP TABLE parties", PageSize: 10})
		assert.Contains(t, sql, "ORDER BY name ASC,id ASC")
		assert.NotContains(t, sql, "DROP")
	})

	t.Run("page size is capped", func(t *testing.T) {
		assert.Contains(t, render(shared.Filter{PageSize: 10000}), "LIMIT 500")
	})

	t.Run("no page size means no limit", func(t *testing.T) {
		assert.NotContains(t, render(shared.Filter{}), "LIMIT")
	})
}
