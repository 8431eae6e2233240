package trade

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedSequence struct {
	next   int64
	err    error
	prefix string
}

func (s *fixedSequence) NextSequence(_ context.Context, _ NumberSeries, prefix string) (int64, error) {
	s.prefix = prefix
	return s.next, s.err
}

func TestInvoiceNumberGenerator_Next(t *testing.T) {
	at := time.Date(2024, 7, 3, 9, 5, 7, 0, time.UTC)
	seq := &fixedSequence{next: 12}

	gen := NewInvoiceNumberGenerator(seq, map[NumberSeries]string{SeriesReturn: "RTN"}).
		WithClock(func() time.Time { return at })

	n, err := gen.Next(context.Background(), SeriesSale)
	require.NoError(t, err)
	assert.Equal(t, "SAL-20240703-090507-0012", n)
	assert.Equal(t, "SAL-20240703-", seq.prefix)

	n, err = gen.Next(context.Background(), SeriesFor(KindPurchase))
	require.NoError(t, err)
	assert.Equal(t, "PUR-20240703-090507-0012", n)

	n, err = gen.Next(context.Background(), SeriesReturn)
	require.NoError(t, err)
	assert.Equal(t, "RTN-20240703-090507-0012", n)

	seq.err = errors.New("db down")
	_, err = gen.Next(context.Background(), SeriesSale)
	assert.ErrorContains(t, err, "db down")
}
