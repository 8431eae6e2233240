package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dinarbooks/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rateBody struct {
	Rate          decimal.Decimal  `json:"usd_to_iqd_rate" binding:"decimal_gt0"`
	Fee           *decimal.Decimal `json:"fee" binding:"omitempty,decimal_gte0"`
	EffectiveDate string           `json:"effective_date" binding:"required,iso_date"`
	Lines         []lineBody       `json:"lines" binding:"omitempty,dive"`
}

type lineBody struct {
	Quantity int64 `json:"quantity" binding:"gt=0"`
}

func TestSetupValidator(t *testing.T) {
	SetupValidator()
	SetupValidator()

	v, ok := binding.Validator.Engine().(*validator.Validate)
	assert.True(t, ok)
	assert.NotNil(t, v)
}

func TestCustomValidations(t *testing.T) {
	v := validator.New()
	v.SetTagName("binding")
	RegisterValidations(v)

	fee := decimal.NewFromInt(-1)
	zero := decimal.Zero

	tests := []struct {
		name  string
		body  rateBody
		field string
	}{
		{"valid date", rateBody{Rate: decimal.NewFromInt(1310), EffectiveDate: "2024-01-01"}, ""},
		{"valid timestamp", rateBody{Rate: decimal.NewFromInt(1310), EffectiveDate: "2024-01-01T08:00:00+03:00"}, ""},
		{"zero fee allowed", rateBody{Rate: decimal.NewFromInt(1310), Fee: &zero, EffectiveDate: "2024-01-01"}, ""},
		{"zero rate", rateBody{Rate: decimal.Zero, EffectiveDate: "2024-01-01"}, "usd_to_iqd_rate"},
		{"negative rate", rateBody{Rate: decimal.NewFromInt(-5), EffectiveDate: "2024-01-01"}, "usd_to_iqd_rate"},
		{"negative fee", rateBody{Rate: decimal.NewFromInt(1310), Fee: &fee, EffectiveDate: "2024-01-01"}, "fee"},
		{"bad date", rateBody{Rate: decimal.NewFromInt(1310), EffectiveDate: "01/02/2024"}, "effective_date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(tt.body)
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			errs := err.(validator.ValidationErrors)
			require.Len(t, errs, 1)
			assert.Equal(t, tt.field, errs[0].Field())
		})
	}
}

func TestHandleValidationError(t *testing.T) {
	SetupValidator()

	router := gin.New()
	router.Use(RequestID())
	router.POST("/test", func(c *gin.Context) {
		var req rateBody
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.NewSuccessResponse(req.Rate))
	})

	send := func(body string) (*httptest.ResponseRecorder, dto.Response) {
		req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Request-ID", "req-v")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		return w, resp
	}

	t.Run("lists every rejected field", func(t *testing.T) {
		w, resp := send(`{"usd_to_iqd_rate": "0", "effective_date": "soon", "lines": [{"quantity": 0}]}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		require.NotNil(t, resp.Error)
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
		assert.Equal(t, "req-v", resp.Error.RequestID)

		fields := map[string]string{}
		for _, f := range resp.Error.Fields {
			fields[f.Field] = f.Message
		}
		assert.Contains(t, fields, "usd_to_iqd_rate")
		assert.Contains(t, fields, "effective_date")
		assert.Contains(t, fields, "lines[0].quantity")
	})

	t.Run("malformed json", func(t *testing.T) {
		w, resp := send(`{"usd_to_iqd_rate": "abc"`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		require.NotNil(t, resp.Error)
		assert.Equal(t, dto.ErrCodeInvalidJSON, resp.Error.Code)
	})

	t.Run("accepts numeric and string decimals", func(t *testing.T) {
		w, _ := send(`{"usd_to_iqd_rate": 1310.5, "effective_date": "2024-02-01"}`)
		assert.Equal(t, http.StatusOK, w.Code)

		w, _ = send(`{"usd_to_iqd_rate": "1480", "effective_date": "2024-12-01"}`)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestGetValidationMessage(t *testing.T) {
	type sample struct {
		Required string `validate:"required"`
		Min      string `validate:"min=5"`
		UUID     string `validate:"uuid"`
		OneOf    string `validate:"oneof=in out"`
	}

	v := validator.New()
	err := v.Struct(sample{Min: "ab", UUID: "nope", OneOf: "sideways"})
	require.Error(t, err)

	messages := map[string]string{}
	for _, e := range err.(validator.ValidationErrors) {
		messages[e.Field()] = getValidationMessage(e)
	}

	assert.Equal(t, "This field is required", messages["Required"])
	assert.Equal(t, "Must be at least 5 characters", messages["Min"])
	assert.Equal(t, "Invalid UUID format", messages["UUID"])
	assert.Equal(t, "Must be one of: in out", messages["OneOf"])
}
