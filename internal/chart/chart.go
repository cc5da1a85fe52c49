// Package chart turns an analysis record into the per-bar series the
// dashboard draws: price, oscillators, the normalized AO+AC line and
// entry/exit markers, restricted to a display window.
package chart

import (
	"sync"
	"time"

	"AwesomeSentinel/internal/metrics"
	"AwesomeSentinel/internal/model"
	"AwesomeSentinel/internal/strategy"
)

type memoKey struct {
	record string
	window model.Window
	cutoff string // calendar day of the cutoff
}

// Builder derives chart series and memoizes them per record, window and day.
type Builder struct {
	metrics *metrics.Metrics

	mu     sync.Mutex
	record string
	memo   map[memoKey][]model.ChartPoint
}

// NewBuilder creates a Builder. m may be nil.
func NewBuilder(m *metrics.Metrics) *Builder {
	return &Builder{metrics: m, memo: make(map[memoKey][]model.ChartPoint)}
}

// Build returns the visible chart points of rec for window as of now.
// The returned slice is shared between callers and must not be modified.
func (b *Builder) Build(rec *model.AnalysisRecord, window model.Window, now time.Time) []model.ChartPoint {
	if rec == nil {
		return nil
	}
	cutoff := window.Cutoff(now)
	key := memoKey{record: recordKey(rec), window: window, cutoff: cutoff.Format("2006-01-02")}

	b.mu.Lock()
	defer b.mu.Unlock()

	if pts, ok := b.memo[key]; ok {
		b.observe("hit")
		return pts
	}
	b.observe("miss")

	// Only the current record is worth remembering.
	if key.record != b.record {
		b.memo = make(map[memoKey][]model.ChartPoint)
		b.record = key.record
	}
	pts := Series(rec, cutoff)
	b.memo[key] = pts
	return pts
}

func (b *Builder) observe(outcome string) {
	if b.metrics != nil {
		b.metrics.ChartBuilds.WithLabelValues(outcome).Inc()
	}
}

func recordKey(rec *model.AnalysisRecord) string {
	if rec.ID != "" {
		return rec.ID
	}
	return rec.Symbol + "@" + rec.LastUpdated.Format(time.RFC3339Nano)
}

// Series computes chart points for the whole record and keeps those dated
// on or after cutoff. Normalization and marker detection always run over
// the full history so the visible window does not change the scale.
func Series(rec *model.AnalysisRecord, cutoff time.Time) []model.ChartPoint {
	n := len(rec.Bars)
	sums := make([]float64, n)
	for i := 0; i < n; i++ {
		var ao, ac float64
		if i < len(rec.Indicators) {
			ao, ac = rec.Indicators[i].AO, rec.Indicators[i].AC
		}
		sums[i] = ao + ac
	}
	norm := strategy.Normalize(sums)
	markers := strategy.DetectMarkers(norm)

	var pts []model.ChartPoint
	for i, bar := range rec.Bars {
		if bar.Date.Before(cutoff) {
			continue
		}
		p := model.ChartPoint{
			Date:          bar.Date,
			Close:         bar.Close,
			Volume:        bar.Volume,
			Sum:           sums[i],
			NormalizedSum: norm[i],
			Marker:        strategy.FirstMarkerAt(markers, i),
			Markers:       strategy.MarkersAt(markers, i),
		}
		if i < len(rec.Indicators) {
			p.AO, p.AC = rec.Indicators[i].AO, rec.Indicators[i].AC
		}
		pts = append(pts, p)
	}
	return pts
}
