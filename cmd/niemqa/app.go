package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/cdmgtri/niem-model-qa-sub000/config"
	"github.com/cdmgtri/niem-model-qa-sub000/model"
	"github.com/cdmgtri/niem-model-qa-sub000/results"
	"github.com/cdmgtri/niem-model-qa-sub000/rules"
	"github.com/cdmgtri/niem-model-qa-sub000/spell"
	"github.com/cdmgtri/niem-model-qa-sub000/storage"
)

// App wires the model store, rule catalog, spell checker and runner for one
// check session. Load may be called again to pick up changed inputs.
type App struct {
	cfg    *config.Config
	logger *slog.Logger

	// NATS, when a server URL is configured
	natsConn *nats.Conn
	js       jetstream.JetStream
	kv       *storage.KVStore

	metricsRegistry *prometheus.Registry
	metrics         *rules.Metrics

	store   model.Store
	catalog *results.Catalog
	checker *spell.Checker
	runner  *rules.Runner
}

// NewApp creates a new application instance.
func NewApp(cfg *config.Config, logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.Default()
	}
	reg := prometheus.NewRegistry()
	return &App{
		cfg:             cfg,
		logger:          logger,
		metricsRegistry: reg,
		metrics:         rules.NewMetrics(reg),
	}
}

// Start connects to NATS when configured and loads every input.
func (a *App) Start(ctx context.Context) error {
	if a.cfg.NATS.URL != "" {
		if err := a.startNATS(ctx); err != nil {
			return fmt.Errorf("start NATS: %w", err)
		}
	}
	return a.Load(ctx)
}

func (a *App) startNATS(ctx context.Context) error {
	a.logger.Info("Connecting to NATS", "url", a.cfg.NATS.URL)
	conn, err := nats.Connect(a.cfg.NATS.URL,
		nats.Name(appName),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
	)
	if err != nil {
		return wrapNATSError(err, a.cfg.NATS.URL)
	}
	a.natsConn = conn

	js, err := jetstream.New(conn)
	if err != nil {
		return fmt.Errorf("create JetStream context: %w", err)
	}
	a.js = js

	kv, err := storage.NewKVStore(ctx, js, a.cfg.NATS.Bucket)
	if err != nil {
		return err
	}
	a.kv = kv
	a.logger.Info("Connected to NATS", "url", a.cfg.NATS.URL, "bucket", a.cfg.NATS.Bucket)
	return nil
}

// wrapNATSError provides helpful guidance when NATS connection fails.
func wrapNATSError(err error, url string) error {
	errStr := err.Error()
	if strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no servers available") ||
		strings.Contains(errStr, "timeout") {
		return fmt.Errorf(`NATS connection failed: %w

NATS is not running at %s.

Start a JetStream-enabled server or unset nats.url to check the model in memory.`, err, url)
	}
	return fmt.Errorf("NATS connection failed: %w", err)
}

// Load reads the model, rule catalog and dictionary, and builds a new runner.
func (a *App) Load(ctx context.Context) error {
	if err := a.loadModel(ctx); err != nil {
		return err
	}
	if err := a.loadCatalog(); err != nil {
		return err
	}
	if err := a.loadChecker(ctx); err != nil {
		return err
	}

	runner, err := rules.NewRunner(rules.Config{
		Catalog:            a.catalog,
		Store:              a.store,
		Checker:            a.checker,
		SuppressExceptions: a.cfg.Rules.Suppress(),
		Concurrency:        a.cfg.Rules.Concurrency,
		Metrics:            a.metrics,
		Logger:             a.logger,
	})
	if err != nil {
		return fmt.Errorf("create runner: %w", err)
	}
	a.runner = runner
	return nil
}

func (a *App) loadModel(ctx context.Context) error {
	components, err := model.ReadFile(a.cfg.Model.Path)
	if err != nil {
		return err
	}

	if a.kv == nil {
		a.store = model.NewMemoryStore(components...)
		a.logger.Info("Loaded model", "path", a.cfg.Model.Path, "components", len(components))
		return nil
	}

	if err := a.kv.Clear(ctx); err != nil {
		return fmt.Errorf("clear model bucket: %w", err)
	}
	n, err := a.kv.Import(ctx, components)
	if err != nil {
		return fmt.Errorf("import model: %w", err)
	}
	a.store = a.kv
	a.logger.Info("Imported model into NATS KV", "path", a.cfg.Model.Path, "components", n)
	return nil
}

func (a *App) loadCatalog() error {
	var (
		catalog *results.Catalog
		err     error
	)
	if a.cfg.Rules.Catalog == "" {
		catalog, err = rules.DefaultCatalog()
	} else {
		catalog, err = results.LoadCatalog(a.cfg.Rules.Catalog)
	}
	if err != nil {
		return err
	}

	a.catalog = catalog
	a.logger.Debug("Loaded rule catalog", "tests", a.catalog.Len())
	return nil
}

func (a *App) loadChecker(ctx context.Context) error {
	dict := spell.NewDictionary()
	if path := a.cfg.Dictionary.Path; path != "" {
		loaded, err := spell.LoadDictionary(path)
		if err != nil {
			return err
		}
		dict = loaded
		a.logger.Debug("Loaded dictionary", "path", path, "words", dict.Len())
	} else {
		a.logger.Warn("No dictionary configured; every term not in the model is reported as unknown")
	}

	checker := spell.NewChecker(dict, a.store, a.logger)
	if err := checker.SetSpecialTerms(a.cfg.Dictionary.SpecialTerms...); err != nil {
		return err
	}
	if path := a.cfg.Dictionary.CustomWords; path != "" {
		cw, err := spell.LoadCustomWords(path)
		if err != nil {
			return err
		}
		if err := checker.ApplyCustomWords(cw); err != nil {
			return err
		}
	}
	if err := checker.AddModelWords(ctx, a.store); err != nil {
		return err
	}
	checker.Seal()
	a.checker = checker
	return nil
}

// Check runs the configured rules from a clean slate and saves the results.
func (a *App) Check(ctx context.Context) (*rules.Summary, error) {
	a.catalog.ResetRuns()
	summary, err := a.runner.Run(ctx, a.cfg.Rules.Include...)
	if err != nil {
		return nil, err
	}
	if err := a.catalog.Save(a.cfg.Results.Output); err != nil {
		return nil, err
	}
	a.logger.Info("Saved results", "path", a.cfg.Results.Output)
	return summary, nil
}

// Inputs returns the files a check depends on.
func (a *App) Inputs() []string {
	return []string{
		a.cfg.Model.Path,
		a.cfg.Dictionary.Path,
		a.cfg.Dictionary.CustomWords,
		a.cfg.Rules.Catalog,
	}
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() {
	if a.natsConn != nil {
		if err := a.natsConn.Drain(); err != nil {
			a.logger.Warn("Failed to drain NATS connection", "error", err)
		}
		a.natsConn.Close()
	}
}
