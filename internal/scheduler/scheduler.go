package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"AwesomeSentinel/internal/analysis"
	"AwesomeSentinel/internal/collector"
	"AwesomeSentinel/internal/model"
	"AwesomeSentinel/internal/notifier"
	"AwesomeSentinel/internal/screener"
)

// Sender delivers chat messages. *notifier.TelegramNotifier satisfies it.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Scheduler runs the weekly refresh and answers chat commands.
type Scheduler struct {
	Cron     *cron.Cron
	Service  *analysis.Service
	Screener *screener.Table
	Notifier Sender // nil disables outgoing messages
	Log      logrus.FieldLogger
	Ctx      context.Context
}

// NewScheduler creates a new Scheduler. Cron specs are evaluated in loc.
func NewScheduler(ctx context.Context, svc *analysis.Service, table *screener.Table, sender Sender, loc *time.Location, log logrus.FieldLogger) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds(), cron.WithLocation(loc)),
		Service:  svc,
		Screener: table,
		Notifier: sender,
		Log:      log.WithField("component", "scheduler"),
		Ctx:      ctx,
	}
}

// Register adds the weekly refresh job.
func (s *Scheduler) Register(weeklyCron string) error {
	if _, err := s.Cron.AddFunc(weeklyCron, s.refreshTask); err != nil {
		return fmt.Errorf("register weekly task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.Log.Info("scheduler started")
}

// Stop stops the cron scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.Log.Info("scheduler stopped")
}

// RunRefreshNow executes the weekly refresh immediately.
func (s *Scheduler) RunRefreshNow() {
	s.refreshTask()
}

func (s *Scheduler) refreshTask() {
	s.Log.Info("running weekly refresh")
	rec, err := s.Service.Refresh(s.Ctx, analysis.TriggerScheduled)
	if errors.Is(err, analysis.ErrNothingLoaded) {
		s.Log.Info("weekly refresh skipped: no symbol loaded")
		return
	}
	if err != nil {
		s.Log.WithError(err).Error("weekly refresh failed")
		s.trySend(notifier.FormatError(s.currentSymbol(), err))
		return
	}
	s.Log.WithFields(logrus.Fields{"symbol": rec.Symbol, "signal": rec.Signal}).Info("weekly refresh done")
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return notifier.HelpText
	}
	// Group chats append the bot name: /analyze@SentinelBot
	name, _, _ := strings.Cut(strings.ToLower(fields[0]), "@")

	switch name {
	case "/analyze":
		if len(fields) < 2 {
			return "Usage: /analyze SYMBOL"
		}
		rec, err := s.Service.Analyze(ctx, fields[1], analysis.TriggerTelegram)
		if err != nil {
			return notifier.FormatError(collector.NormalizeSymbol(fields[1]), err)
		}
		return notifier.FormatAnalysisReport(rec, s.Screener.CompanyName(rec.Symbol))
	case "/refresh":
		rec, err := s.Service.Refresh(ctx, analysis.TriggerTelegram)
		if errors.Is(err, analysis.ErrNothingLoaded) {
			return "No analysis loaded yet. Use /analyze SYMBOL."
		}
		if err != nil {
			return notifier.FormatError(s.currentSymbol(), err)
		}
		return notifier.FormatAnalysisReport(rec, s.Screener.CompanyName(rec.Symbol))
	case "/signal":
		rec := s.Service.Store.Current()
		if rec == nil {
			return "No analysis loaded yet. Use /analyze SYMBOL."
		}
		return notifier.FormatAnalysisReport(rec, s.Screener.CompanyName(rec.Symbol))
	case "/sectors":
		return s.sectorsReply(strings.Join(fields[1:], " "))
	default:
		return notifier.HelpText
	}
}

// sectorsReply lists all sectors, or the stocks of the named one.
// Sector names match case-insensitively.
func (s *Scheduler) sectorsReply(query string) string {
	names := s.Screener.SectorNames()
	if query == "" {
		return notifier.FormatSectorList(names)
	}
	for _, name := range names {
		if strings.EqualFold(name, query) {
			return notifier.FormatSector(name, s.Screener.Industries(name), s.Screener.Screen(name, ""))
		}
	}
	return "Unknown sector. " + notifier.FormatSectorList(names)
}

// WatchSignals sends an alert whenever a published record changes the signal
// of the symbol already on display. Blocks until ctx is cancelled.
func (s *Scheduler) WatchSignals(ctx context.Context) {
	updates, cancel := s.Service.Store.Subscribe()
	defer cancel()

	last := s.Service.Store.Current()
	for {
		select {
		case <-ctx.Done():
			return
		case rec, ok := <-updates:
			if !ok {
				return
			}
			if msg, changed := signalAlert(last, rec, s.Screener); changed {
				s.trySend(msg)
			}
			last = rec
		}
	}
}

func signalAlert(prev, cur *model.AnalysisRecord, table *screener.Table) (string, bool) {
	if prev == nil || cur == nil || prev.Symbol != cur.Symbol || prev.Signal == cur.Signal {
		return "", false
	}
	return notifier.FormatSignalChange(cur, prev.Signal, table.CompanyName(cur.Symbol)), true
}

func (s *Scheduler) currentSymbol() string {
	if rec := s.Service.Store.Current(); rec != nil {
		return rec.Symbol
	}
	return ""
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		s.Log.WithError(err).Error("send notification")
	}
}
