package recorder

import (
	"time"

	"AwesomeSentinel/internal/model"
)

// AnalysisEvent summarizes one completed pipeline run.
type AnalysisEvent struct {
	RunID      string       `json:"run_id"`
	Symbol     string       `json:"symbol"`
	Source     string       `json:"source"`
	At         time.Time    `json:"at"`
	Bars       int          `json:"bars"`
	LastDate   time.Time    `json:"last_date"`
	LastClose  float64      `json:"last_close"`
	LastAO     float64      `json:"last_ao"`
	LastAC     float64      `json:"last_ac"`
	Signal     model.Signal `json:"signal"`
	PrevSignal model.Signal `json:"prev_signal"` // empty when no earlier record existed for the symbol
	Trigger    string       `json:"trigger"`     // "MANUAL", "SCHEDULED", "TELEGRAM", "STARTUP"
}

// Changed reports whether the signal differs from the previous record's.
func (e *AnalysisEvent) Changed() bool {
	return e.PrevSignal != "" && e.PrevSignal != e.Signal
}

// NewAnalysisEvent derives an event from a record.
func NewAnalysisEvent(rec *model.AnalysisRecord, prev model.Signal, trigger string) *AnalysisEvent {
	evt := &AnalysisEvent{
		RunID:      rec.ID,
		Symbol:     rec.Symbol,
		Source:     rec.Source,
		At:         rec.LastUpdated,
		Bars:       len(rec.Bars),
		Signal:     rec.Signal,
		PrevSignal: prev,
		Trigger:    trigger,
	}
	if bar, ind, ok := rec.Latest(); ok {
		evt.LastDate = bar.Date
		evt.LastClose = bar.Close
		evt.LastAO = ind.AO
		evt.LastAC = ind.AC
	}
	return evt
}

// FailureEvent records a run that did not produce a record.
type FailureEvent struct {
	Symbol  string `json:"symbol"`
	Kind    string `json:"kind"` // "invalid_symbol", "rate_limited", "empty_series", "malformed", "other"
	Message string `json:"message"`
	Trigger string `json:"trigger"`
}

// Recorder keeps an append-only journal of analysis runs. The journal is
// never read back into the live analysis state.
type Recorder interface {
	RecordAnalysis(evt *AnalysisEvent) error
	RecordFailure(evt *FailureEvent) error
	Close() error
}
