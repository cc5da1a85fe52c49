package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"AwesomeSentinel/internal/analysis"
	"AwesomeSentinel/internal/api"
	"AwesomeSentinel/internal/chart"
	"AwesomeSentinel/internal/collector"
	"AwesomeSentinel/internal/config"
	"AwesomeSentinel/internal/metrics"
	"AwesomeSentinel/internal/notifier"
	"AwesomeSentinel/internal/recorder"
	"AwesomeSentinel/internal/scheduler"
	"AwesomeSentinel/internal/screener"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := logrus.New()

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("config validation: %v", err)
	}
	setupLogger(logger, cfg)
	logger.Info("AwesomeSentinel starting...")

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewMetrics(reg)

	// Data source: provider, then rate guard, then cache
	fetcher := newFetcher(cfg)
	fetcher = collector.NewRateGuard(fetcher, cfg.DataSource.RequestsPerMinute)
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.WithError(err).Warn("redis unavailable, bar cache disabled")
		} else {
			fetcher = collector.NewCachedFetcher(fetcher, rdb, cfg.CacheTTL(), logger)
			logger.WithField("ttl", cfg.CacheTTL()).Info("bar cache enabled")
		}
	}
	logger.WithField("source", fetcher.Name()).Info("data source ready")

	// Signal journal
	var rec recorder.Recorder = recorder.NewNoopRecorder()
	var history api.HistoryReader
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, logger)
		if err != nil {
			logger.WithError(err).Warn("init sqlite recorder failed, using noop")
		} else {
			rec = sr
			history = sr
		}
	}
	defer rec.Close()

	store := analysis.NewStore()
	svc := analysis.NewService(collector.NewCollector(fetcher), store, rec, m, logger)
	table := screener.Default()

	// Telegram notifier is optional.
	var sender scheduler.Sender
	var tn *notifier.TelegramNotifier
	if cfg.TelegramEnabled() {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy, logger)
		sender = tn
	}

	loc, _ := time.LoadLocation(cfg.Schedule.Timezone) // checked by Validate
	sched := scheduler.NewScheduler(ctx, svc, table, sender, loc, logger)
	if err := sched.Register(cfg.Schedule.WeeklyCron); err != nil {
		logger.Fatalf("register cron tasks: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		go sched.WatchSignals(ctx)
		logger.Info("Telegram polling started")
	}

	server := api.NewServer(api.Deps{
		Service:  svc,
		Charts:   chart.NewBuilder(m),
		Screener: table,
		History:  history,
		Metrics:  m,
		Log:      logger,
	})
	go server.RunHub(ctx)

	httpServer := server.HTTPServer(cfg.HTTP.Addr)
	go func() {
		logger.Infof("HTTP server listening on %s", cfg.HTTP.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("http server error: %v", err)
		}
	}()

	// Optional: load a symbol immediately on start
	if cfg.DataSource.Symbol != "" {
		go func() {
			if _, err := svc.Analyze(ctx, cfg.DataSource.Symbol, analysis.TriggerStartup); err != nil {
				logger.WithError(err).WithField("symbol", cfg.DataSource.Symbol).Warn("initial analysis failed")
			}
		}()
	}

	logger.Info("AwesomeSentinel is running. Press Ctrl+C to stop.")
	<-ctx.Done()

	logger.Info("shutdown signal received, stopping...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("server shutdown error: %v", err)
	}
	logger.Info("AwesomeSentinel stopped")
}

func setupLogger(logger *logrus.Logger, cfg *config.Config) {
	if cfg.Log.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	level, _ := logrus.ParseLevel(cfg.Log.Level) // checked by Validate
	logger.SetLevel(level)
}

func newFetcher(cfg *config.Config) collector.Fetcher {
	switch cfg.DataSource.Provider {
	case config.ProviderYahoo:
		f := collector.NewYahooFetcher(cfg.Proxy, cfg.FetchTimeout())
		if cfg.DataSource.BaseURL != "" {
			f.BaseURL = cfg.DataSource.BaseURL
		}
		return f
	case config.ProviderMock:
		return &collector.MockFetcher{Price: 150}
	default:
		return collector.NewAlphaVantageFetcher(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy, cfg.FetchTimeout())
	}
}
