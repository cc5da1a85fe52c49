package analysis

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"AwesomeSentinel/internal/collector"
	"AwesomeSentinel/internal/metrics"
	"AwesomeSentinel/internal/model"
	"AwesomeSentinel/internal/recorder"
)

// Trigger names what started an analysis run.
type Trigger string

const (
	TriggerManual    Trigger = "MANUAL"
	TriggerScheduled Trigger = "SCHEDULED"
	TriggerTelegram  Trigger = "TELEGRAM"
	TriggerStartup   Trigger = "STARTUP"
)

// ErrNothingLoaded is returned by Refresh before any symbol has been analyzed.
var ErrNothingLoaded = errors.New("no symbol loaded")

// Collector assembles a record for a symbol.
type Collector interface {
	Collect(ctx context.Context, symbol string) (*model.AnalysisRecord, error)
}

// Service runs the analysis pipeline and publishes completed records to the store.
// Concurrent runs are not fenced: the last one to complete wins.
type Service struct {
	Collector Collector
	Store     *Store
	Recorder  recorder.Recorder
	Metrics   *metrics.Metrics
	Log       logrus.FieldLogger
}

// NewService creates a Service.
func NewService(col Collector, store *Store, rec recorder.Recorder, m *metrics.Metrics, log logrus.FieldLogger) *Service {
	return &Service{Collector: col, Store: store, Recorder: rec, Metrics: m, Log: log}
}

// Analyze fetches and analyzes symbol, replacing the current record on success.
// On failure the current record is left untouched.
func (s *Service) Analyze(ctx context.Context, symbol string, trigger Trigger) (*model.AnalysisRecord, error) {
	start := time.Now()
	log := s.Log.WithFields(logrus.Fields{"symbol": symbol, "trigger": trigger})

	rec, err := s.Collector.Collect(ctx, symbol)
	if err != nil {
		kind := collector.ErrorKind(err)
		s.Metrics.ObserveFailure(kind, time.Since(start))
		log.WithError(err).WithField("kind", kind).Warn("analysis failed")
		if jerr := s.Recorder.RecordFailure(&recorder.FailureEvent{
			Symbol:  collector.NormalizeSymbol(symbol),
			Kind:    kind,
			Message: err.Error(),
			Trigger: string(trigger),
		}); jerr != nil {
			log.WithError(jerr).Error("journal failure")
		}
		return nil, err
	}

	var prevSignal model.Signal
	if prev := s.Store.Replace(rec); prev != nil && prev.Symbol == rec.Symbol {
		prevSignal = prev.Signal
	}
	s.Metrics.ObserveSuccess(rec, time.Since(start))

	evt := recorder.NewAnalysisEvent(rec, prevSignal, string(trigger))
	log.WithFields(logrus.Fields{
		"signal": rec.Signal,
		"bars":   len(rec.Bars),
		"source": rec.Source,
	}).Info("analysis updated")
	if evt.Changed() {
		log.WithFields(logrus.Fields{"from": prevSignal, "to": rec.Signal}).Info("signal changed")
	}
	if err := s.Recorder.RecordAnalysis(evt); err != nil {
		log.WithError(err).Error("journal analysis")
	}
	return rec, nil
}

// Refresh re-runs the pipeline for the currently loaded symbol only.
// Bars are always fetched from the provider, never from the cache.
func (s *Service) Refresh(ctx context.Context, trigger Trigger) (*model.AnalysisRecord, error) {
	cur := s.Store.Current()
	if cur == nil {
		return nil, ErrNothingLoaded
	}
	return s.Analyze(collector.WithFreshData(ctx), cur.Symbol, trigger)
}
