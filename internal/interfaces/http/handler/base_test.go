package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dinarbooks/backend/internal/domain/shared"
	"github.com/dinarbooks/backend/internal/interfaces/http/dto"
	"github.com/dinarbooks/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newContext(t *testing.T, target string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, target, nil)
	c.Set(middleware.RequestIDKey, "req-1")
	return c, w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestHandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		retryable  bool
	}{
		{"validation", shared.NewValidationError(shared.CodeInvalidQuantity, "quantity must be positive"), http.StatusBadRequest, "ERR_INVALID_QUANTITY", false},
		{"conflict", shared.ErrOverReturn, http.StatusConflict, "ERR_OVER_RETURN", false},
		{"concurrency", shared.NewConcurrencyError("party", uuid.Nil), http.StatusConflict, "ERR_CONCURRENCY_CONFLICT", true},
		{"not found", shared.NewNotFoundError("product", "p-1"), http.StatusNotFound, "ERR_NOT_FOUND", false},
		{"state", shared.NewStateError(shared.CodeInvalidState, "cannot cancel"), http.StatusUnprocessableEntity, "ERR_INVALID_STATE", false},
		{"wrapped", fmt.Errorf("complete sale: %w", shared.ErrInsufficientStock), http.StatusConflict, "ERR_INSUFFICIENT_STOCK", false},
		{"plain error hides its text", errors.New("pq: connection refused"), http.StatusInternalServerError, "ERR_INTERNAL", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := newContext(t, "/")
			h := &BaseHandler{}
			h.HandleError(c, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			resp := decodeResponse(t, w)
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			assert.Equal(t, "req-1", resp.Error.RequestID)
			assert.Equal(t, tt.retryable, resp.Error.Retryable)
			assert.NotContains(t, resp.Error.Message, "pq:")
		})
	}
}

func TestHandleError_NilWritesNothing(t *testing.T) {
	c, w := newContext(t, "/")
	(&BaseHandler{}).HandleError(c, nil)
	assert.False(t, c.Writer.Written())
	assert.Equal(t, 0, w.Body.Len())
}

func TestParseID(t *testing.T) {
	h := &BaseHandler{}
	id := uuid.New()

	c, _ := newContext(t, "/")
	c.Params = gin.Params{{Key: "id", Value: id.String()}}
	got, ok := h.parseID(c, "id")
	assert.True(t, ok)
	assert.Equal(t, id, got)

	c, w := newContext(t, "/")
	c.Params = gin.Params{{Key: "id", Value: "42"}}
	_, ok = h.parseID(c, "id")
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeInvalidInput, decodeResponse(t, w).Error.Code)
}

func TestParsePeriod(t *testing.T) {
	h := &BaseHandler{}

	c, _ := newContext(t, "/")
	start, end, ok := h.parsePeriod(c, dto.PeriodQuery{StartDate: "2024-01-01", EndDate: "2024-01-31"})
	require.True(t, ok)
	assert.Equal(t, "2024-01-01T00:00:00Z", start.Format("2006-01-02T15:04:05Z07:00"))
	assert.Equal(t, 23, end.Hour())

	c, _ = newContext(t, "/")
	start, end, ok = h.parsePeriod(c, dto.PeriodQuery{})
	require.True(t, ok)
	assert.Nil(t, start)
	assert.Nil(t, end)

	c, w := newContext(t, "/")
	_, _, ok = h.parsePeriod(c, dto.PeriodQuery{EndDate: "31/01/2024"})
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestQueryInt(t *testing.T) {
	h := &BaseHandler{}

	c, _ := newContext(t, "/?threshold=4")
	n, ok := h.queryInt(c, "threshold", 10)
	assert.True(t, ok)
	assert.EqualValues(t, 4, n)

	c, _ = newContext(t, "/")
	n, ok = h.queryInt(c, "threshold", 10)
	assert.True(t, ok)
	assert.EqualValues(t, 10, n)

	c, w := newContext(t, "/?threshold=ten")
	_, ok = h.queryInt(c, "threshold", 10)
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

type stubPinger struct{ err error }

func (p stubPinger) Ping() error { return p.err }

func TestSystemHandler_Health(t *testing.T) {
	c, w := newContext(t, "/health")
	NewSystemHandler("dinarbooks", "test", stubPinger{}).Health(c)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"healthy"`)

	c, w = newContext(t, "/health")
	NewSystemHandler("dinarbooks", "test", stubPinger{err: errors.New("dial tcp: refused")}).Health(c)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	resp := decodeResponse(t, w)
	assert.Equal(t, dto.ErrCodeUnavailable, resp.Error.Code)
}
