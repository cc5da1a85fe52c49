package collector

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"AwesomeSentinel/internal/calculator"
	"AwesomeSentinel/internal/model"
	"AwesomeSentinel/internal/strategy"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Price float64
	Weeks int
	Bars  []model.Bar
	Err   error
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchWeeklyBars(_ context.Context, _ string) ([]model.Bar, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Bars != nil {
		if len(m.Bars) == 0 {
			return nil, fmt.Errorf("mock: %w", ErrEmptySeries)
		}
		return m.Bars, nil
	}
	weeks := m.Weeks
	if weeks == 0 {
		weeks = 260
	}
	return GenerateMockBars(m.Price, weeks, time.Now().UTC()), nil
}

// GenerateMockBars builds count weekly bars ending at end, oscillating
// around basePrice so both oscillators swing through zero.
func GenerateMockBars(basePrice float64, count int, end time.Time) []model.Bar {
	if basePrice <= 0 {
		basePrice = 100
	}
	end = time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	bars := make([]model.Bar, count)
	for i := 0; i < count; i++ {
		x := float64(i)
		p := basePrice * (1 + 0.15*math.Sin(x/9) + 0.0005*x)
		bars[i] = model.Bar{
			Date:   end.AddDate(0, 0, -7*(count-1-i)),
			Open:   p * 0.99,
			High:   p * 1.02,
			Low:    p * 0.98,
			Close:  p,
			Volume: 1000000 + 5000*x,
		}
	}
	return bars
}

// Collector orchestrates data fetching and indicator computation.
type Collector struct {
	Fetcher Fetcher
	Now     func() time.Time
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher) *Collector {
	return &Collector{Fetcher: fetcher, Now: time.Now}
}

// NormalizeSymbol trims and upper-cases a ticker.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// Collect fetches weekly bars for symbol and assembles a complete analysis record.
// Any provider failure fails the whole operation.
func (c *Collector) Collect(ctx context.Context, symbol string) (*model.AnalysisRecord, error) {
	symbol = NormalizeSymbol(symbol)
	if symbol == "" {
		return nil, fmt.Errorf("blank symbol: %w", ErrInvalidSymbol)
	}

	bars, err := c.Fetcher.FetchWeeklyBars(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("fetch weekly bars for %s: %w", symbol, err)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("fetch weekly bars for %s: %w", symbol, ErrEmptySeries)
	}

	rec := Build(symbol, bars, c.Now())
	rec.ID = uuid.NewString()
	rec.Source = c.Fetcher.Name()
	return rec, nil
}

// Build runs the indicator pipeline over bars. It is a pure function of its
// inputs; ID and Source are left for the caller.
func Build(symbol string, bars []model.Bar, now time.Time) *model.AnalysisRecord {
	median := calculator.MedianPriceOf(bars)
	ao := calculator.AwesomeOscillator(median)
	ac := calculator.AcceleratorOscillator(ao)

	aoVals, acVals := ao.Floats(), ac.Floats()
	indicators := make([]model.IndicatorPoint, len(bars))
	for i, b := range bars {
		indicators[i] = model.IndicatorPoint{Date: b.Date, AO: aoVals[i], AC: acVals[i]}
	}

	return &model.AnalysisRecord{
		Symbol:      symbol,
		LastUpdated: now,
		Bars:        bars,
		Indicators:  indicators,
		Signal:      strategy.Classify(ao, ac),
	}
}
