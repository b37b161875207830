package cmd

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jmoiron/sqlx"

	"github.com/salewatch/salewatch/internal/config"
	"github.com/salewatch/salewatch/internal/crawl"
	"github.com/salewatch/salewatch/internal/database"
	"github.com/salewatch/salewatch/internal/fetcher"
	"github.com/salewatch/salewatch/internal/logger"
	"github.com/salewatch/salewatch/internal/metrics"
	"github.com/salewatch/salewatch/internal/notify"
	"github.com/salewatch/salewatch/internal/reconcile"
)

// commandDeps holds common dependencies shared by the subcommands.
type commandDeps struct {
	Config *config.Config
	Logger logger.Interface
}

// newCommandDeps loads configuration and creates the logger.
func newCommandDeps() (*commandDeps, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	level := cfg.Logging.Level
	if debug || cfg.App.Debug {
		level = "debug"
	}

	log, err := logger.New(logger.Config{
		Level:       level,
		Encoding:    cfg.Logging.Encoding,
		Development: cfg.App.Environment == "development",
	})
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	return &commandDeps{Config: cfg, Logger: log}, nil
}

// openDatabase connects to Postgres and ensures the schema exists.
func openDatabase(ctx context.Context, cfg *config.Config) (*sqlx.DB, error) {
	db, err := database.NewPostgresConnection(database.Config{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		DBName:   cfg.Database.DBName,
		SSLMode:  cfg.Database.SSLMode,
	})
	if err != nil {
		return nil, err
	}

	if schemaErr := database.EnsureSchema(ctx, db); schemaErr != nil {
		db.Close()
		return nil, schemaErr
	}

	return db, nil
}

// buildSink selects the notification sink: Telegram when a token is
// configured, otherwise log-only delivery.
func buildSink(cfg *config.Config, log logger.Interface) (notify.Sink, error) {
	if cfg.Telegram.Token == "" {
		log.Warn("no telegram token configured, notifications will be logged only")
		return notify.NewLogSink(log), nil
	}

	sink, err := notify.NewTelegramSink(cfg.Telegram.Token, cfg.Telegram.ChatID)
	if err != nil {
		return nil, fmt.Errorf("build sink: %w", err)
	}

	return sink, nil
}

// buildOrchestrator wires the full crawl pipeline for one cycle. The
// notifier gate is cycle-scoped, so callers build a fresh orchestrator
// per cycle.
func buildOrchestrator(
	deps *commandDeps,
	db *sqlx.DB,
	sink notify.Sink,
	m *metrics.Metrics,
) *crawl.Orchestrator {
	cfg := deps.Config

	repo := database.NewProductRepository(db)
	engine := reconcile.NewEngine(repo)
	gate := notify.NewGate(sink, cfg.Telegram.ProductBaseURL, deps.Logger, m)

	client := fetcher.NewClient(
		&http.Client{Timeout: cfg.Crawler.RequestTimeout},
		fetcher.Config{
			BaseURL:           cfg.Crawler.BaseURL,
			UserAgent:         cfg.Crawler.UserAgent,
			Cookie:            cfg.Crawler.Cookie,
			RequestsPerSecond: cfg.Crawler.RequestsPerSecond,
		},
		deps.Logger,
	)

	return crawl.NewOrchestrator(crawl.Params{
		Feeds:       cfg.Feeds(),
		Fetcher:     client,
		Reconciler:  engine,
		Notifier:    gate,
		Pruner:      repo,
		Logger:      deps.Logger,
		Metrics:     m,
		Concurrency: cfg.Crawler.Concurrency,
	})
}
