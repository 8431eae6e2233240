package trade

import (
	"testing"
	"time"

	"github.com/dinarbooks/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDocument(t *testing.T, kind DocumentKind, items ...LineItem) *Document {
	t.Helper()
	doc, err := NewDocument(kind, "SAL-20240101-120000-0001", uuid.New(), time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC), items, "")
	require.NoError(t, err)
	return doc
}

func TestDocumentStatus_CanTransitionTo(t *testing.T) {
	allowed := map[DocumentStatus][]DocumentStatus{
		StatusPending:   {StatusCompleted, StatusCancelled},
		StatusCancelled: {StatusPending},
		StatusCompleted: {StatusReturned},
		StatusReturned:  {},
	}
	all := []DocumentStatus{StatusPending, StatusCompleted, StatusCancelled, StatusReturned}
	for from, targets := range allowed {
		for _, to := range all {
			want := false
			for _, s := range targets {
				if s == to {
					want = true
				}
			}
			assert.Equal(t, want, from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
}

func TestDocument_Lifecycle(t *testing.T) {
	doc := newTestDocument(t, KindSale, LineItem{ProductID: uuid.New(), Quantity: 2, UnitPrice: money("50000", "38.46")})
	assert.Equal(t, StatusPending, doc.Status)
	assert.Equal(t, "100000", doc.Total.IQD().String())
	assert.True(t, doc.CanModify())
	assert.True(t, doc.CanDelete())

	require.NoError(t, doc.Cancel())
	assert.NotNil(t, doc.CancelledAt)
	assert.ErrorIs(t, doc.Complete(), shared.ErrInvalidState)

	require.NoError(t, doc.Reopen())
	assert.Nil(t, doc.CancelledAt)

	require.NoError(t, doc.Complete())
	assert.Equal(t, StatusCompleted, doc.Status)
	assert.False(t, doc.CanDelete())
	assert.False(t, doc.CanModify())
	assert.True(t, doc.AcceptsReturns())

	err := doc.Cancel()
	require.Error(t, err)
	de, ok := err.(*shared.DomainError)
	require.True(t, ok)
	assert.Equal(t, shared.KindState, de.Kind)

	err = doc.Revise(doc.PartyID, time.Time{}, doc.LineItems(), "late edit")
	assert.ErrorIs(t, err, shared.ErrInvalidState)
}

func TestDocument_Revise(t *testing.T) {
	doc := newTestDocument(t, KindPurchase, LineItem{ProductID: uuid.New(), Quantity: 1, UnitPrice: money("1300", "1")})
	version := doc.Version

	err := doc.Revise(uuid.Nil, time.Time{}, doc.LineItems(), "")
	assert.ErrorIs(t, err, &shared.DomainError{Code: shared.CodeMissingField})

	err = doc.Revise(doc.PartyID, time.Time{}, nil, "")
	assert.ErrorIs(t, err, &shared.DomainError{Code: shared.CodeEmptyDocument})
	assert.Len(t, doc.Items, 1)

	supplier := uuid.New()
	err = doc.Revise(supplier, time.Time{}, []LineItem{
		{ProductID: uuid.New(), Quantity: 4, UnitPrice: money("1300", "1")},
		{ProductID: uuid.New(), Quantity: 1, UnitPrice: money("2600", "2")},
	}, "revised")
	require.NoError(t, err)
	assert.Equal(t, supplier, doc.PartyID)
	assert.Equal(t, "7800", doc.Total.IQD().String())
	assert.Equal(t, 2, doc.Items[1].Position)
	assert.Equal(t, version+1, doc.Version)
}

func TestNewDocument_Validation(t *testing.T) {
	items := []LineItem{{ProductID: uuid.New(), Quantity: 1, UnitPrice: money("1", "1")}}

	_, err := NewDocument("quote", "N", uuid.New(), time.Now(), items, "")
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	_, err = NewDocument(KindSale, "N", uuid.Nil, time.Now(), items, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "customer_id")

	_, err = NewDocument(KindSale, "N", uuid.New(), time.Now(), nil, "")
	assert.ErrorIs(t, err, &shared.DomainError{Code: shared.CodeEmptyDocument})
}
