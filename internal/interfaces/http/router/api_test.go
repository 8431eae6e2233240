package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	currencyapp "github.com/dinarbooks/backend/internal/application/currency"
	"github.com/dinarbooks/backend/internal/application/event"
	inventoryapp "github.com/dinarbooks/backend/internal/application/inventory"
	partnerapp "github.com/dinarbooks/backend/internal/application/partner"
	backupapp "github.com/dinarbooks/backend/internal/application/backup"
	reportapp "github.com/dinarbooks/backend/internal/application/report"
	tradeapp "github.com/dinarbooks/backend/internal/application/trade"
	"github.com/dinarbooks/backend/internal/infrastructure/persistence"
	"github.com/dinarbooks/backend/internal/infrastructure/storage"
	"github.com/dinarbooks/backend/internal/interfaces/http/handler"
	"github.com/dinarbooks/backend/internal/interfaces/http/middleware"
	"github.com/dinarbooks/backend/internal/testutil"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code      string         `json:"code"`
		Message   string         `json:"message"`
		RequestID string         `json:"request_id"`
		Retryable bool           `json:"retryable"`
		Details   map[string]any `json:"details"`
		Fields    []struct {
			Field   string `json:"field"`
			Message string `json:"message"`
		} `json:"fields"`
	} `json:"error"`
	Meta *struct {
		Total      int64 `json:"total"`
		TotalPages int   `json:"total_pages"`
	} `json:"meta"`
}

type api struct {
	t      *testing.T
	engine *gin.Engine
}

func newAPI(t *testing.T) *api {
	t.Helper()
	middleware.SetupValidator()

	db := testutil.NewSQLiteDB(t)
	repos := persistence.NewRepositories(db)
	scope := persistence.NewGormTransactionScope(db)
	events := event.NewDispatcher(nil)
	rateRepo := persistence.NewGormExchangeRateRepository(db)

	rates := currencyapp.NewService(rateRepo, nil)
	products := inventoryapp.NewProductService(repos.Products(), repos.StockMovements(), scope, events, nil)
	parties := partnerapp.NewPartyService(repos.Parties(), repos.LedgerEntries(), repos.Documents(), scope, events, nil)
	payments := partnerapp.NewPaymentService(repos.Payments(), scope, events, nil)
	documents := tradeapp.NewDocumentService(repos.Documents(), repos.Returns(), scope, events, nil)
	reports := reportapp.NewService(persistence.NewGormReportRepository(db), rateRepo, nil)
	archives, err := storage.NewFileStore(afero.NewMemMapFs(), "/backups")
	require.NoError(t, err)
	backups := backupapp.NewService(persistence.NewGormSnapshotter(db), archives, "dinarbooks", nil)

	engine := gin.New()
	engine.Use(middleware.RequestID())
	r := NewRouter(engine)
	RegisterAPI(r, Handlers{
		ExchangeRates:    handler.NewExchangeRateHandler(rates),
		Customers:        handler.NewCustomerHandler(parties, documents),
		Suppliers:        handler.NewSupplierHandler(parties, documents),
		Products:         handler.NewProductHandler(products),
		Sales:            handler.NewSalesHandler(documents),
		Purchases:        handler.NewPurchasesHandler(documents),
		CustomerPayments: handler.NewCustomerPaymentHandler(payments),
		SupplierPayments: handler.NewSupplierPaymentHandler(payments),
		Reports:          handler.NewReportHandler(reports),
		Backups:          handler.NewBackupHandler(backups),
	})
	r.Setup()
	return &api{t: t, engine: engine}
}

func (a *api) do(method, path string, body any) (int, envelope) {
	a.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", "req-test")
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w.Code, env
}

func (a *api) create(path string, body any) map[string]any {
	a.t.Helper()
	code, env := a.do(http.MethodPost, path, body)
	require.Equal(a.t, http.StatusCreated, code, "POST %s: %+v", path, env.Error)
	return decode(a.t, env)
}

func decode(t *testing.T, env envelope) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

func dec(t *testing.T, v any) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(v.(string))
	require.NoError(t, err)
	return d
}

func TestAPI_SaleToPaymentFlow(t *testing.T) {
	a := newAPI(t)

	rate := a.create("/api/exchange-rates", map[string]any{"usd_to_iqd_rate": "1310", "effective_date": "2024-01-01"})
	assert.True(t, dec(t, rate["usd_to_iqd_rate"]).Equal(decimal.NewFromInt(1310)))

	customer := a.create("/api/customers", map[string]any{"name": "Karrada Market", "phone": "+964 770 000 0000"})
	product := a.create("/api/products", map[string]any{
		"sku": "TEA-500", "name": "Tea 500g", "price_iqd": "6500", "price_usd": "5", "initial_stock": 50,
	})
	assert.EqualValues(t, 50, product["current_stock"])

	sale := a.create("/api/sales", map[string]any{
		"customer_id": customer["id"],
		"items":       []map[string]any{{"product_id": product["id"], "quantity": 10}},
	})
	assert.Equal(t, "completed", sale["status"])
	total := sale["total"].(map[string]any)
	assert.True(t, dec(t, total["iqd"]).Equal(decimal.NewFromInt(65000)))
	assert.True(t, dec(t, total["usd"]).Equal(decimal.NewFromInt(50)))

	code, env := a.do(http.MethodGet, "/api/products/"+product["id"].(string), nil)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 40, decode(t, env)["current_stock"])

	ret := a.create("/api/sales/"+sale["id"].(string)+"/return", map[string]any{
		"items": []map[string]any{{"product_id": product["id"], "quantity": 2, "reason": "damaged"}},
	})
	assert.True(t, dec(t, ret["reversal"].(map[string]any)["iqd"]).Equal(decimal.NewFromInt(13000)))

	payment := a.create("/api/payments/customers", map[string]any{
		"customer_id": customer["id"], "amount_iqd": "15000", "amount_usd": "0", "payment_method": "cash",
	})
	assert.Equal(t, "cash", payment["payment_method"])

	code, env = a.do(http.MethodGet, "/api/customers/"+customer["id"].(string), nil)
	require.Equal(t, http.StatusOK, code)
	assert.True(t, dec(t, decode(t, env)["balance"]).Equal(decimal.NewFromInt(37000)))

	code, env = a.do(http.MethodGet, "/api/customers/"+customer["id"].(string)+"/transactions", nil)
	require.Equal(t, http.StatusOK, code)
	var entries []map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &entries))
	require.Len(t, entries, 3)
	assert.Equal(t, []any{"sale", "return", "payment"}, []any{entries[0]["type"], entries[1]["type"], entries[2]["type"]})

	code, env = a.do(http.MethodGet, "/api/customers/"+customer["id"].(string)+"/sales", nil)
	require.Equal(t, http.StatusOK, code)
	require.NotNil(t, env.Meta)
	assert.EqualValues(t, 1, env.Meta.Total)

	code, env = a.do(http.MethodGet, "/api/sales/"+sale["id"].(string)+"/returns", nil)
	require.Equal(t, http.StatusOK, code)
	var returns []map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &returns))
	assert.Len(t, returns, 1)

	code, env = a.do(http.MethodGet, "/api/dashboard", nil)
	require.Equal(t, http.StatusOK, code)
	dash := decode(t, env)
	assert.True(t, dec(t, dash["receivables"]).Equal(decimal.NewFromInt(37000)))
	assert.NotNil(t, dash["current_rate"])

	code, env = a.do(http.MethodGet, "/api/exchange-rates/convert?amount=10&from=USD", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, decode(t, env)["estimate"])
}

func TestAPI_PendingDocumentLifecycle(t *testing.T) {
	a := newAPI(t)
	supplier := a.create("/api/suppliers", map[string]any{"name": "Basra Wholesale"})
	product := a.create("/api/products", map[string]any{"sku": "RICE-5", "name": "Rice 5kg", "price_iqd": "9000", "price_usd": "7"})

	purchase := a.create("/api/purchases", map[string]any{
		"supplier_id": supplier["id"],
		"status":      "pending",
		"items":       []map[string]any{{"product_id": product["id"], "quantity": 20, "price_iqd": "8000", "price_usd": "6"}},
	})
	id := purchase["id"].(string)
	assert.Equal(t, "pending", purchase["status"])

	code, _ := a.do(http.MethodPost, "/api/purchases/"+id+"/cancel", nil)
	require.Equal(t, http.StatusOK, code)
	code, _ = a.do(http.MethodPost, "/api/purchases/"+id+"/reopen", nil)
	require.Equal(t, http.StatusOK, code)
	code, env := a.do(http.MethodPost, "/api/purchases/"+id+"/complete", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "completed", decode(t, env)["status"])

	code, env = a.do(http.MethodGet, "/api/products/"+product["id"].(string), nil)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 20, decode(t, env)["current_stock"])

	code, env = a.do(http.MethodPost, "/api/purchases/"+id+"/cancel", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, "ERR_INVALID_STATE", env.Error.Code)

	code, env = a.do(http.MethodGet, "/api/purchases?supplier_id="+supplier["id"].(string)+"&status=completed", nil)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 1, env.Meta.Total)
}

func TestAPI_ErrorEnvelopes(t *testing.T) {
	a := newAPI(t)
	customer := a.create("/api/customers", map[string]any{"name": "Erbil Traders"})
	product := a.create("/api/products", map[string]any{"sku": "OIL-1", "name": "Oil 1L", "price_iqd": "3000", "price_usd": "2.25", "initial_stock": 5})
	sale := a.create("/api/sales", map[string]any{
		"customer_id": customer["id"],
		"items":       []map[string]any{{"product_id": product["id"], "quantity": 3}},
	})

	t.Run("400 lists invalid fields", func(t *testing.T) {
		code, env := a.do(http.MethodPost, "/api/customers", map[string]any{"email": "not-an-email"})
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, "ERR_VALIDATION", env.Error.Code)
		assert.Equal(t, "req-test", env.Error.RequestID)
		fields := map[string]bool{}
		for _, f := range env.Error.Fields {
			fields[f.Field] = true
		}
		assert.True(t, fields["name"])
		assert.True(t, fields["email"])
	})

	t.Run("400 missing party", func(t *testing.T) {
		code, env := a.do(http.MethodPost, "/api/sales", map[string]any{
			"items": []map[string]any{{"product_id": product["id"], "quantity": 1}},
		})
		assert.Equal(t, http.StatusBadRequest, code)
		require.Len(t, env.Error.Fields, 1)
		assert.Equal(t, "customer_id", env.Error.Fields[0].Field)
	})

	t.Run("400 malformed id", func(t *testing.T) {
		code, env := a.do(http.MethodGet, "/api/customers/not-a-uuid", nil)
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, "ERR_INVALID_INPUT", env.Error.Code)
	})

	t.Run("400 domain validation", func(t *testing.T) {
		code, env := a.do(http.MethodPost, "/api/exchange-rates", map[string]any{"usd_to_iqd_rate": "0", "effective_date": "2024-01-01"})
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, "ERR_INVALID_RATE", env.Error.Code)
	})

	t.Run("400 sub-dinar line price", func(t *testing.T) {
		code, env := a.do(http.MethodPost, "/api/sales", map[string]any{
			"customer_id": customer["id"],
			"items":       []map[string]any{{"product_id": product["id"], "quantity": 2, "price_iqd": "0.5", "price_usd": "0.01"}},
		})
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, "ERR_INVALID_PRICE", env.Error.Code)
	})

	t.Run("400 payment dated before the last ledger entry", func(t *testing.T) {
		code, env := a.do(http.MethodPost, "/api/payments/customers", map[string]any{
			"customer_id": customer["id"], "amount_iqd": "1000", "amount_usd": "0", "payment_method": "cash", "date": "2024-01-05",
		})
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, "ERR_BACKDATED_ENTRY", env.Error.Code)
		assert.NotEmpty(t, env.Error.Details["last_entry_date"])
	})

	t.Run("404 unknown product", func(t *testing.T) {
		code, env := a.do(http.MethodGet, "/api/products/"+uuid.NewString(), nil)
		assert.Equal(t, http.StatusNotFound, code)
		assert.Equal(t, "ERR_NOT_FOUND", env.Error.Code)
	})

	t.Run("404 customer id on the supplier route", func(t *testing.T) {
		code, _ := a.do(http.MethodGet, "/api/suppliers/"+customer["id"].(string), nil)
		assert.Equal(t, http.StatusNotFound, code)
	})

	t.Run("409 duplicate sku", func(t *testing.T) {
		code, env := a.do(http.MethodPost, "/api/products", map[string]any{"sku": "OIL-1", "name": "Oil again", "price_iqd": "1", "price_usd": "1"})
		assert.Equal(t, http.StatusConflict, code)
		assert.Equal(t, "ERR_SKU_EXISTS", env.Error.Code)
	})

	t.Run("409 insufficient stock", func(t *testing.T) {
		code, env := a.do(http.MethodPost, "/api/sales", map[string]any{
			"customer_id": customer["id"],
			"items":       []map[string]any{{"product_id": product["id"], "quantity": 50}},
		})
		assert.Equal(t, http.StatusConflict, code)
		assert.Equal(t, "ERR_INSUFFICIENT_STOCK", env.Error.Code)
		assert.False(t, env.Error.Retryable)
	})

	t.Run("409 over return", func(t *testing.T) {
		code, env := a.do(http.MethodPost, "/api/sales/"+sale["id"].(string)+"/return", map[string]any{
			"items": []map[string]any{{"product_id": product["id"], "quantity": 4, "reason": "wrong item"}},
		})
		assert.Equal(t, http.StatusConflict, code)
		assert.Equal(t, "ERR_OVER_RETURN", env.Error.Code)
	})

	t.Run("409 no rate yet", func(t *testing.T) {
		code, env := a.do(http.MethodGet, "/api/exchange-rates/current", nil)
		assert.Equal(t, http.StatusConflict, code)
		assert.Equal(t, "ERR_NO_RATE_AVAILABLE", env.Error.Code)
	})

	t.Run("422 party with documents", func(t *testing.T) {
		code, env := a.do(http.MethodDelete, "/api/customers/"+customer["id"].(string), nil)
		assert.Equal(t, http.StatusUnprocessableEntity, code)
		assert.Equal(t, "ERR_PARTY_IN_USE", env.Error.Code)
	})

	t.Run("422 product in use", func(t *testing.T) {
		code, env := a.do(http.MethodDelete, "/api/products/"+product["id"].(string), nil)
		assert.Equal(t, http.StatusUnprocessableEntity, code)
		assert.Equal(t, "ERR_PRODUCT_IN_USE", env.Error.Code)
	})

	t.Run("nothing was written by rejected requests", func(t *testing.T) {
		code, env := a.do(http.MethodGet, "/api/products/"+product["id"].(string), nil)
		require.Equal(t, http.StatusOK, code)
		assert.EqualValues(t, 2, decode(t, env)["current_stock"])
	})
}

func TestAPI_ProductMovements(t *testing.T) {
	a := newAPI(t)
	product := a.create("/api/products", map[string]any{"sku": "SUGAR", "name": "Sugar", "price_iqd": "1500", "price_usd": "1", "initial_stock": 50})
	id := product["id"].(string)

	a.create("/api/products/"+id+"/movements", map[string]any{"type": "out", "quantity": 10, "notes": "shop use"})
	a.create("/api/products/"+id+"/movements", map[string]any{"type": "in", "quantity": 3})

	code, env := a.do(http.MethodPost, "/api/products/"+id+"/movements", map[string]any{"type": "out", "quantity": 50})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "ERR_INSUFFICIENT_STOCK", env.Error.Code)

	adjusted := a.create("/api/products/"+id+"/adjust", map[string]any{"quantity": 8, "notes": "stock count"})
	assert.Equal(t, "out", adjusted["type"])
	assert.EqualValues(t, 35, adjusted["quantity"])

	code, env = a.do(http.MethodGet, "/api/products/"+id+"/movements", nil)
	require.Equal(t, http.StatusOK, code)
	var movements []map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &movements))
	require.Len(t, movements, 4)
	balances := make([]any, len(movements))
	for i, m := range movements {
		balances[i] = m["balance_after"]
	}
	assert.Equal(t, []any{float64(50), float64(40), float64(43), float64(8)}, balances)

	code, env = a.do(http.MethodGet, "/api/products/low-stock", nil)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 1, env.Meta.Total)
}

func TestAPI_ProfitLossAndInventoryAnalysis(t *testing.T) {
	a := newAPI(t)
	customer := a.create("/api/customers", map[string]any{"name": "Adhamiya Bakery"})
	product := a.create("/api/products", map[string]any{"sku": "FLOUR", "name": "Flour 50kg", "price_iqd": "30000", "price_usd": "23", "initial_stock": 50})
	sale := a.create("/api/sales", map[string]any{
		"customer_id": customer["id"],
		"items":       []map[string]any{{"product_id": product["id"], "quantity": 10}},
	})
	a.create("/api/sales/"+sale["id"].(string)+"/return", map[string]any{
		"items": []map[string]any{{"product_id": product["id"], "quantity": 2}},
	})

	t.Run("profit and loss nets returns", func(t *testing.T) {
		code, env := a.do(http.MethodGet, "/api/reports/profit-loss", nil)
		require.Equal(t, http.StatusOK, code)
		pl := decode(t, env)
		assert.True(t, dec(t, pl["gross_sales"].(map[string]any)["iqd"]).Equal(decimal.NewFromInt(300000)))
		assert.True(t, dec(t, pl["sales_returns"].(map[string]any)["iqd"]).Equal(decimal.NewFromInt(60000)))
		assert.True(t, dec(t, pl["net_profit"].(map[string]any)["iqd"]).Equal(decimal.NewFromInt(240000)))
		assert.True(t, dec(t, pl["net_profit"].(map[string]any)["usd"]).Equal(decimal.NewFromInt(184)))
	})

	t.Run("movement log across products", func(t *testing.T) {
		code, env := a.do(http.MethodGet, "/api/reports/inventory/movements", nil)
		require.Equal(t, http.StatusOK, code)
		var log []map[string]any
		require.NoError(t, json.Unmarshal(env.Data, &log))
		require.Len(t, log, 3)
		for _, m := range log {
			assert.Equal(t, "FLOUR", m["product_sku"])
		}

		code, env = a.do(http.MethodGet, "/api/reports/inventory/movements?movement_type=out", nil)
		require.Equal(t, http.StatusOK, code)
		require.NoError(t, json.Unmarshal(env.Data, &log))
		require.Len(t, log, 1)
		assert.EqualValues(t, 10, log[0]["quantity"])

		code, env = a.do(http.MethodGet, "/api/reports/inventory/movements?movement_type=sideways", nil)
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, "ERR_VALIDATION", env.Error.Code)
	})

	t.Run("stock value", func(t *testing.T) {
		code, env := a.do(http.MethodGet, "/api/inventory-analysis?analysis_type=value", nil)
		require.Equal(t, http.StatusOK, code)
		out := decode(t, env)
		assert.Equal(t, "value", out["analysis_type"])
		value := out["stock_value"].(map[string]any)
		assert.EqualValues(t, 42, value["total_units"])
		assert.True(t, dec(t, value["total_value"].(map[string]any)["iqd"]).Equal(decimal.NewFromInt(1260000)))
		assert.Nil(t, out["turnover"])
	})

	t.Run("turnover", func(t *testing.T) {
		code, env := a.do(http.MethodGet, "/api/inventory-analysis?analysis_type=turnover&days=30", nil)
		require.Equal(t, http.StatusOK, code)
		turnover := decode(t, env)["turnover"].(map[string]any)
		products := turnover["products"].([]any)
		require.Len(t, products, 1)
		row := products[0].(map[string]any)
		assert.EqualValues(t, 8, row["units_sold"])
		assert.EqualValues(t, 0, row["opening_stock"])
		assert.EqualValues(t, 42, row["closing_stock"])
	})

	t.Run("analysis type is required", func(t *testing.T) {
		code, env := a.do(http.MethodGet, "/api/inventory-analysis?analysis_type=category", nil)
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, "ERR_VALIDATION", env.Error.Code)
	})
}

func TestAPI_Backups(t *testing.T) {
	a := newAPI(t)
	a.create("/api/products", map[string]any{"sku": "TEA", "name": "Tea 500g", "price_iqd": "4000", "price_usd": "3", "initial_stock": 20})

	created := a.create("/api/backups", map[string]any{"name": "before_stocktake"})
	assert.Equal(t, "before_stocktake", created["name"])
	assert.Equal(t, "dinarbooks", created["database"])
	assert.EqualValues(t, 1, created["tables"].(map[string]any)["products"])

	auto := a.create("/api/backups", nil)
	assert.Regexp(t, `^backup_\d{8}_\d{6}$`, auto["name"])

	code, env := a.do(http.MethodPost, "/api/backups", map[string]any{"name": "before_stocktake"})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "ERR_ALREADY_EXISTS", env.Error.Code)

	code, env = a.do(http.MethodGet, "/api/backups", nil)
	require.Equal(t, http.StatusOK, code)
	var listed []map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &listed))
	assert.Len(t, listed, 2)

	a.create("/api/products", map[string]any{"sku": "RICE", "name": "Rice 10kg", "price_iqd": "18000", "price_usd": "14"})
	code, env = a.do(http.MethodGet, "/api/products", nil)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 2, env.Meta.Total)

	t.Run("restore reverts later changes", func(t *testing.T) {
		code, env := a.do(http.MethodPost, "/api/backups/before_stocktake/restore", nil)
		require.Equal(t, http.StatusOK, code, "%+v", env.Error)
		assert.Equal(t, "before_stocktake", decode(t, env)["name"])

		code, env = a.do(http.MethodGet, "/api/products", nil)
		require.Equal(t, http.StatusOK, code)
		assert.EqualValues(t, 1, env.Meta.Total)
	})

	t.Run("download streams the archive", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/backups/before_stocktake", nil)
		w := httptest.NewRecorder()
		a.engine.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/zip", w.Header().Get("Content-Type"))
		assert.Contains(t, w.Header().Get("Content-Disposition"), `filename="before_stocktake.zip"`)
		assert.Equal(t, "PK", w.Body.String()[:2])
	})

	t.Run("delete and missing archives", func(t *testing.T) {
		code, _ := a.do(http.MethodDelete, "/api/backups/before_stocktake", nil)
		assert.Equal(t, http.StatusNoContent, code)

		code, env := a.do(http.MethodPost, "/api/backups/before_stocktake/restore", nil)
		assert.Equal(t, http.StatusNotFound, code)
		assert.Equal(t, "ERR_NOT_FOUND", env.Error.Code)

		code, env = a.do(http.MethodDelete, "/api/backups/has.dots", nil)
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, "ERR_INVALID_INPUT", env.Error.Code)
	})
}
