package model

import "time"

// IndicatorPoint holds the stored oscillator values for one bar.
// Warm-up positions are stored as 0.
type IndicatorPoint struct {
	Date time.Time `json:"date"`
	AO   float64   `json:"ao"`
	AC   float64   `json:"ac"`
}

// AnalysisRecord is the complete result of one pipeline run for a symbol.
// It is replaced wholesale, never mutated.
type AnalysisRecord struct {
	ID          string           `json:"id"`
	Symbol      string           `json:"symbol"`
	Source      string           `json:"source"`
	LastUpdated time.Time        `json:"last_updated"`
	Bars        []Bar            `json:"bars"`
	Indicators  []IndicatorPoint `json:"indicators"`
	Signal      Signal           `json:"signal"`
}

// Latest returns the most recent bar and indicator point.
// ok is false for an empty record.
func (r *AnalysisRecord) Latest() (bar Bar, ind IndicatorPoint, ok bool) {
	if r == nil || len(r.Bars) == 0 || len(r.Indicators) != len(r.Bars) {
		return Bar{}, IndicatorPoint{}, false
	}
	n := len(r.Bars) - 1
	return r.Bars[n], r.Indicators[n], true
}
