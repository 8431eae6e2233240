package trade

import (
	"context"
	"fmt"
	"time"
)

// NumberSeries is a family of invoice numbers
type NumberSeries string

const (
	SeriesSale     NumberSeries = "sale"
	SeriesPurchase NumberSeries = "purchase"
	SeriesReturn   NumberSeries = "return"
)

// SeriesFor returns the number series of a document kind
func SeriesFor(kind DocumentKind) NumberSeries {
	if kind == KindPurchase {
		return SeriesPurchase
	}
	return SeriesSale
}

// DefaultPrefixes are the number prefixes per series
var DefaultPrefixes = map[NumberSeries]string{
	SeriesSale:     "SAL",
	SeriesPurchase: "PUR",
	SeriesReturn:   "RET",
}

// InvoiceNumberGenerator formats numbers as PREFIX-YYYYMMDD-HHMMSS-NNNN,
// where NNNN runs per series and day
type InvoiceNumberGenerator struct {
	prefixes map[NumberSeries]string
	seq      NumberSequence
	now      func() time.Time
}

// NewInvoiceNumberGenerator creates a generator. Missing prefixes fall back
// to DefaultPrefixes.
func NewInvoiceNumberGenerator(seq NumberSequence, prefixes map[NumberSeries]string) *InvoiceNumberGenerator {
	merged := make(map[NumberSeries]string, len(DefaultPrefixes))
	for k, v := range DefaultPrefixes {
		merged[k] = v
	}
	for k, v := range prefixes {
		if v != "" {
			merged[k] = v
		}
	}
	return &InvoiceNumberGenerator{prefixes: merged, seq: seq, now: time.Now}
}

// WithClock replaces the generator clock
func (g *InvoiceNumberGenerator) WithClock(now func() time.Time) *InvoiceNumberGenerator {
	g.now = now
	return g
}

// Next returns the next number in a series
func (g *InvoiceNumberGenerator) Next(ctx context.Context, series NumberSeries) (string, error) {
	at := g.now().UTC()
	dayPrefix := fmt.Sprintf("%s-%s-", g.prefixes[series], at.Format("20060102"))
	n, err := g.seq.NextSequence(ctx, series, dayPrefix)
	if err != nil {
		return "", fmt.Errorf("next %s number: %w", series, err)
	}
	return fmt.Sprintf("%s%s-%04d", dayPrefix, at.Format("150405"), n), nil
}
