package scheduler

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"AwesomeSentinel/internal/analysis"
	"AwesomeSentinel/internal/collector"
	"AwesomeSentinel/internal/metrics"
	"AwesomeSentinel/internal/model"
	"AwesomeSentinel/internal/notifier"
	"AwesomeSentinel/internal/recorder"
	"AwesomeSentinel/internal/screener"
)

type chanSender struct {
	msgs chan string
}

func (c *chanSender) SendWithRetry(_ context.Context, text string, _ int) error {
	c.msgs <- text
	return nil
}

var end = time.Date(2024, 6, 7, 0, 0, 0, 0, time.UTC)

func newTestScheduler(t *testing.T, f collector.Fetcher) (*Scheduler, *chanSender) {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)
	svc := analysis.NewService(collector.NewCollector(f), analysis.NewStore(), recorder.NewNoopRecorder(),
		metrics.NewMetrics(prometheus.NewRegistry()), log)
	sender := &chanSender{msgs: make(chan string, 16)}
	s := NewScheduler(context.Background(), svc, screener.Default(), sender, time.UTC, log)
	return s, sender
}

func TestRegister(t *testing.T) {
	s, _ := newTestScheduler(t, &collector.MockFetcher{})
	if err := s.Register("0 30 17 * * 5"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s.Cron.Entries()) != 1 {
		t.Errorf("expected 1 cron entry, got %d", len(s.Cron.Entries()))
	}
	if err := s.Register("not a cron"); err == nil {
		t.Error("expected error for bad cron expression")
	}
}

func TestHandleCommand(t *testing.T) {
	f := &collector.MockFetcher{Bars: collector.GenerateMockBars(150, 120, end)}
	s, _ := newTestScheduler(t, f)
	ctx := context.Background()

	if got := s.HandleCommand(ctx, "/signal"); !strings.Contains(got, "No analysis loaded") {
		t.Errorf("expected empty-state reply, got %q", got)
	}
	if got := s.HandleCommand(ctx, "/refresh"); !strings.Contains(got, "No analysis loaded") {
		t.Errorf("expected empty-state reply, got %q", got)
	}
	if got := s.HandleCommand(ctx, "/analyze"); !strings.Contains(got, "Usage") {
		t.Errorf("expected usage reply, got %q", got)
	}

	got := s.HandleCommand(ctx, "/analyze@SentinelBot aapl")
	if !strings.Contains(got, "AAPL") || !strings.Contains(got, "Apple Inc.") {
		t.Errorf("expected AAPL report, got %q", got)
	}
	if cur := s.Service.Store.Current(); cur == nil || cur.Symbol != "AAPL" {
		t.Fatalf("expected AAPL in store, got %+v", cur)
	}
	if got := s.HandleCommand(ctx, "/signal"); !strings.Contains(got, "AAPL") {
		t.Errorf("expected AAPL signal, got %q", got)
	}
	if got := s.HandleCommand(ctx, "/refresh"); !strings.Contains(got, "AAPL") {
		t.Errorf("expected refreshed AAPL report, got %q", got)
	}
	if got := s.HandleCommand(ctx, "hello"); got != notifier.HelpText {
		t.Errorf("expected help text, got %q", got)
	}
}

func TestHandleCommand_Sectors(t *testing.T) {
	s, _ := newTestScheduler(t, &collector.MockFetcher{})
	ctx := context.Background()

	list := s.HandleCommand(ctx, "/sectors")
	for _, name := range s.Screener.SectorNames() {
		if !strings.Contains(list, name) {
			t.Errorf("sector list missing %q", name)
		}
	}

	tech := s.HandleCommand(ctx, "/sectors technology")
	if !strings.Contains(tech, "<b>Technology</b>") || !strings.Contains(tech, "AAPL") {
		t.Errorf("expected Technology listing, got %q", tech)
	}

	multi := s.HandleCommand(ctx, "/sectors consumer cyclical")
	if !strings.Contains(multi, "<b>Consumer Cyclical</b>") {
		t.Errorf("expected multi-word sector match, got %q", multi)
	}

	if got := s.HandleCommand(ctx, "/sectors Nowhere"); !strings.HasPrefix(got, "Unknown sector.") {
		t.Errorf("expected unknown sector reply, got %q", got)
	}
}

func TestHandleCommand_ProviderError(t *testing.T) {
	s, _ := newTestScheduler(t, &collector.MockFetcher{Err: collector.ErrInvalidSymbol})
	got := s.HandleCommand(context.Background(), "/analyze zzzz")
	if !strings.Contains(got, "ZZZZ") || !strings.Contains(got, "Invalid stock symbol") {
		t.Errorf("expected invalid symbol reply, got %q", got)
	}
}

func TestRefreshTask_NotifiesOnFailure(t *testing.T) {
	f := &collector.MockFetcher{Bars: collector.GenerateMockBars(150, 120, end)}
	s, sender := newTestScheduler(t, f)

	// Nothing loaded: no message.
	s.RunRefreshNow()
	if len(sender.msgs) != 0 {
		t.Fatalf("expected no message, got %d", len(sender.msgs))
	}

	if _, err := s.Service.Analyze(context.Background(), "MSFT", analysis.TriggerManual); err != nil {
		t.Fatalf("analyze: %v", err)
	}
	f.Err = collector.ErrRateLimited
	s.RunRefreshNow()
	select {
	case msg := <-sender.msgs:
		if !strings.Contains(msg, "MSFT") || !strings.Contains(msg, "frequency limit") {
			t.Errorf("unexpected failure message %q", msg)
		}
	default:
		t.Fatal("expected a failure notification")
	}
}

func TestSignalAlert(t *testing.T) {
	table := screener.Default()
	buy := &model.AnalysisRecord{Symbol: "AAPL", Signal: model.SignalBuy}
	sell := &model.AnalysisRecord{Symbol: "AAPL", Signal: model.SignalSell}
	other := &model.AnalysisRecord{Symbol: "MSFT", Signal: model.SignalSell}

	if _, ok := signalAlert(nil, buy, table); ok {
		t.Error("first record should not alert")
	}
	if _, ok := signalAlert(buy, buy, table); ok {
		t.Error("unchanged signal should not alert")
	}
	if _, ok := signalAlert(buy, other, table); ok {
		t.Error("symbol switch should not alert")
	}
	if msg, ok := signalAlert(buy, sell, table); !ok || !strings.Contains(msg, "Signal change") {
		t.Errorf("expected alert, got %q %v", msg, ok)
	}
}

func TestWatchSignals(t *testing.T) {
	s, sender := newTestScheduler(t, &collector.MockFetcher{})
	store := s.Service.Store
	store.Replace(&model.AnalysisRecord{Symbol: "AAPL", Signal: model.SignalBuy})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.WatchSignals(ctx)

	signals := []model.Signal{model.SignalSell, model.SignalBuy}
	deadline := time.After(2 * time.Second)
	for i := 0; ; i++ {
		store.Replace(&model.AnalysisRecord{Symbol: "AAPL", Signal: signals[i%2]})
		select {
		case msg := <-sender.msgs:
			if !strings.Contains(msg, "Signal change: AAPL") {
				t.Errorf("unexpected alert %q", msg)
			}
			return
		case <-deadline:
			t.Fatal("no signal change alert")
		case <-time.After(10 * time.Millisecond):
		}
	}
}
