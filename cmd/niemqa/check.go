package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/cdmgtri/niem-model-qa-sub000/config"
	"github.com/cdmgtri/niem-model-qa-sub000/results"
	"github.com/cdmgtri/niem-model-qa-sub000/rules"
	"github.com/cdmgtri/niem-model-qa-sub000/watch"
)

// checkFlags are command-line overrides of the loaded configuration.
type checkFlags struct {
	model        string
	dictionary   string
	customWords  string
	specialTerms []string
	catalog      string
	output       string
	rules        []string
	natsURL      string
	concurrency  int
	noSuppress   bool

	watch       bool
	metricsAddr string
}

func checkCmd(opts *globalOptions) *cobra.Command {
	flags := &checkFlags{}

	cmd := &cobra.Command{
		Use:   "check [model.json]",
		Short: "Run the QA rules against a model",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				flags.model = args[0]
			}
			cfg, err := config.NewLoader(opts.logger).Load(opts.configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := flags.apply(cmd, cfg); err != nil {
				return err
			}
			return runCheck(cmd.Context(), cmd.OutOrStdout(), opts, cfg, flags)
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.model, "model", "", "Model file (JSON)")
	f.StringVar(&flags.dictionary, "dictionary", "", "Dictionary file (hunspell .dic or one word per line)")
	f.StringVar(&flags.customWords, "custom-words", "", "Custom word list (YAML)")
	f.StringSliceVar(&flags.specialTerms, "special-term", nil, "Acronym never split in names (repeatable)")
	f.StringVar(&flags.catalog, "catalog", "", "Rule catalog (YAML, default: built-in)")
	f.StringVarP(&flags.output, "output", "o", "", "Results file (JSON)")
	f.StringSliceVarP(&flags.rules, "rule", "r", nil, "Rule id glob to run (repeatable, default: all)")
	f.StringVar(&flags.natsURL, "nats-url", "", "Load the model into NATS KV at this URL")
	f.IntVar(&flags.concurrency, "concurrency", 0, "Rules run at once")
	f.BoolVar(&flags.noSuppress, "no-suppress", false, "Report objects listed as test exceptions")
	f.BoolVarP(&flags.watch, "watch", "w", false, "Re-run when an input file changes")
	f.StringVar(&flags.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics at this address (e.g. :9090)")

	return cmd
}

// apply overrides cfg with the flags set on the command line.
func (f *checkFlags) apply(cmd *cobra.Command, cfg *config.Config) error {
	override := &config.Config{
		Model:      config.ModelConfig{Path: f.model},
		Dictionary: config.DictionaryConfig{Path: f.dictionary, CustomWords: f.customWords, SpecialTerms: f.specialTerms},
		Rules:      config.RulesConfig{Catalog: f.catalog, Include: f.rules, Concurrency: f.concurrency},
		Results:    config.ResultsConfig{Output: f.output},
		NATS:       config.NATSConfig{URL: f.natsURL},
	}
	if cmd.Flags().Changed("no-suppress") {
		suppress := !f.noSuppress
		override.Rules.SuppressExceptions = &suppress
	}
	cfg.Merge(override)

	if cfg.Model.Path == "" {
		return errors.New("no model file: pass one as an argument or set model.path")
	}
	return cfg.Validate()
}

func runCheck(ctx context.Context, out io.Writer, opts *globalOptions, cfg *config.Config, flags *checkFlags) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	app := NewApp(cfg, opts.logger)
	defer app.Shutdown()
	if err := app.Start(ctx); err != nil {
		return err
	}

	if flags.metricsAddr != "" {
		srv := serveMetrics(app, flags.metricsAddr)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	summary, err := app.Check(ctx)
	if err != nil {
		return err
	}
	printSummary(out, summary, app.catalog)

	if !flags.watch {
		if summary.Counts.Issues[results.SeverityError] > 0 {
			return errIssuesFound
		}
		return nil
	}
	return watchInputs(ctx, out, app)
}

// errIssuesFound makes the process exit non-zero when error-severity rules fail.
var errIssuesFound = errors.New("error-severity issues found")

func serveMetrics(app *App, addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(app.metricsRegistry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.logger.Error("Metrics server failed", "addr", addr, "error", err)
		}
	}()
	app.logger.Info("Serving metrics", "addr", addr)
	return srv
}

// watchInputs re-loads and re-checks whenever an input file changes, until
// ctx is cancelled.
func watchInputs(ctx context.Context, out io.Writer, app *App) error {
	w, err := watch.New(app.Inputs(), watch.DefaultDebounce, app.logger)
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Stop()
	if err := w.Start(ctx); err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			app.logger.Info("Watch stopped")
			return nil
		case changed, ok := <-w.Changes():
			if !ok {
				return nil
			}
			app.logger.Info("Inputs changed, re-running checks", "files", changed)
			if err := app.Load(ctx); err != nil {
				app.logger.Error("Failed to reload inputs", "error", err)
				continue
			}
			summary, err := app.Check(ctx)
			if err != nil {
				app.logger.Error("Check failed", "error", err)
				continue
			}
			printSummary(out, summary, app.catalog)
		}
	}
}

// printSummary writes the run totals and the failed tests.
func printSummary(out io.Writer, summary *rules.Summary, catalog *results.Catalog) {
	c := summary.Counts
	fmt.Fprintf(out, "Run %s: %d rules in %s\n", summary.RunID, summary.Rules, summary.Wall.Round(time.Millisecond))
	fmt.Fprintf(out, "  pass %d  fail %d  not run %d\n", c.Pass, c.Fail, c.NotRan)
	fmt.Fprintf(out, "  issues: %d error, %d warning, %d info\n",
		c.Issues[results.SeverityError], c.Issues[results.SeverityWarning], c.Issues[results.SeverityInfo])
	for _, t := range catalog.Failed(results.Filter{}) {
		fmt.Fprintf(out, "  FAIL %-32s %-7s %d\n", t.ID, t.Severity, len(t.Issues))
	}
}
