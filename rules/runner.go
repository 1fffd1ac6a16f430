// Package rules holds the built-in QA rules for each component kind and the
// runner that executes them against a model store.
package rules

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/cdmgtri/niem-model-qa-sub000/model"
	"github.com/cdmgtri/niem-model-qa-sub000/results"
	"github.com/cdmgtri/niem-model-qa-sub000/spell"
)

// Config configures a Runner.
type Config struct {
	Catalog  *results.Catalog
	Registry *Registry
	Store    model.Store
	Checker  *spell.Checker

	// SuppressExceptions drops objects listed in a test's exception labels.
	SuppressExceptions bool

	// Concurrency is the number of rules run at once (default: 1).
	Concurrency int

	Metrics *Metrics
	Logger  *slog.Logger
}

// Runner executes rules. Rules use it to look up, start and complete their
// tests, to resolve qualified names and to spell check.
type Runner struct {
	catalog     *results.Catalog
	registry    *Registry
	store       model.Store
	checker     *spell.Checker
	poster      *results.Poster
	resolver    *Resolver
	concurrency int
	metrics     *Metrics
	logger      *slog.Logger
}

// Summary describes one run over the catalog.
type Summary struct {
	RunID   string         `json:"runId"`
	Started time.Time      `json:"started"`
	Wall    time.Duration  `json:"wall"`
	RunTime time.Duration  `json:"runTime"`
	Rules   int            `json:"rules"`
	Counts  results.Counts `json:"counts"`
}

// NewRunner creates a Runner. The spell checker must be sealed.
func NewRunner(cfg Config) (*Runner, error) {
	if cfg.Catalog == nil || cfg.Store == nil || cfg.Checker == nil {
		return nil, errors.New("catalog, store and spell checker are required")
	}
	if !cfg.Checker.Sealed() {
		return nil, errors.New("spell checker must be sealed before rules run")
	}
	if cfg.Registry == nil {
		cfg.Registry = DefaultRegistry()
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Runner{
		catalog:     cfg.Catalog,
		registry:    cfg.Registry,
		store:       cfg.Store,
		checker:     cfg.Checker,
		poster:      results.NewPoster(cfg.SuppressExceptions, logger),
		resolver:    NewResolver(cfg.Store, cfg.Metrics),
		concurrency: cfg.Concurrency,
		metrics:     cfg.Metrics,
		logger:      logger,
	}, nil
}

// Store returns the model store.
func (r *Runner) Store() model.Store { return r.store }

// Checker returns the spell checker.
func (r *Runner) Checker() *spell.Checker { return r.checker }

// Resolver returns the qname resolver shared by the rules of this runner.
func (r *Runner) Resolver() *Resolver { return r.resolver }

// Start looks up the test with the given id and starts its timer.
func (r *Runner) Start(id string) (*results.Test, error) {
	test, err := r.catalog.Get(id)
	if err != nil {
		return nil, err
	}
	test.Start()
	return test, nil
}

// Post replaces the issues of test with the flagged components.
func (r *Runner) Post(test *results.Test, flagged []*model.Component, field string, comment results.CommentFunc) *results.Test {
	return r.poster.Post(test, objects(flagged), field, comment)
}

// Append adds the flagged components to the issues of test.
func (r *Runner) Append(test *results.Test, flagged []*model.Component, field string, comment results.CommentFunc) *results.Test {
	return r.poster.Append(test, objects(flagged), field, comment)
}

// Log completes test with issues built by the rule itself.
func (r *Runner) Log(test *results.Test, issues []*results.Issue) *results.Test {
	test.Log(issues, true)
	return test
}

// Suppressed reports whether label is an exception of test for this run.
func (r *Runner) Suppressed(test *results.Test, label string) bool {
	return r.poster.SuppressExceptions && test.IsException(label)
}

func objects(components []*model.Component) []results.Object {
	out := make([]results.Object, len(components))
	for i, c := range components {
		out[i] = c
	}
	return out
}

// RunRule runs the rule registered for kind and id over objects.
func (r *Runner) RunRule(ctx context.Context, kind model.Kind, id string, objects []*model.Component) (*results.Test, error) {
	rule, ok := r.registry.Get(kind, id)
	if !ok {
		return nil, fmt.Errorf("no rule %s for %s", id, kind)
	}
	return r.runRule(ctx, rule, objects)
}

func (r *Runner) runRule(ctx context.Context, rule Rule, objects []*model.Component) (*results.Test, error) {
	start := time.Now()
	test, err := rule.Run(ctx, r, objects)
	r.metrics.ObserveRule(rule.ID, time.Since(start))
	if err != nil {
		r.metrics.IncrementOutcome("error")
		return nil, fmt.Errorf("rule %s: %w", rule.ID, err)
	}

	r.metrics.IncrementOutcome(string(test.Status()))
	r.metrics.AddIssues(rule.ID, string(test.Severity), len(test.Issues))
	r.logger.Debug("Rule completed",
		"rule", rule.ID,
		"objects", len(objects),
		"issues", len(test.Issues),
		"elapsed", test.Elapsed)
	return test, nil
}

// Run executes the rules matching patterns (all rules when none are given)
// against every component in the store, skipping components of namespaces
// that do not require conformance. An undeclared test id aborts the run.
func (r *Runner) Run(ctx context.Context, patterns ...string) (*Summary, error) {
	summary := &Summary{RunID: uuid.New().String(), Started: time.Now()}

	selected, err := r.registry.Select(patterns)
	if err != nil {
		return nil, err
	}

	byKind, err := r.loadObjects(ctx, selected)
	if err != nil {
		return nil, err
	}

	r.logger.Info("Starting rule run",
		"run_id", summary.RunID,
		"rules", len(selected))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for _, rule := range selected {
		objs := byKind[rule.Kind]
		g.Go(func() error {
			_, err := r.runRule(gctx, rule, objs)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	summary.Wall = time.Since(summary.Started)
	summary.RunTime = r.catalog.RunTime()
	summary.Rules = len(selected)
	summary.Counts = r.catalog.Count(results.Filter{})

	r.logger.Info("Rule run complete",
		"run_id", summary.RunID,
		"pass", summary.Counts.Pass,
		"fail", summary.Counts.Fail,
		"not_ran", summary.Counts.NotRan,
		"issues", summary.Counts.Total(),
		"wall", summary.Wall)
	return summary, nil
}

// loadObjects fetches the components of each kind the rules need, dropping
// those in exempt namespaces.
func (r *Runner) loadObjects(ctx context.Context, selected []Rule) (map[model.Kind][]*model.Component, error) {
	namespaces, err := r.store.Find(ctx, model.Criteria{Kind: model.KindNamespace})
	if err != nil {
		return nil, fmt.Errorf("find namespaces: %w", err)
	}
	exempt := make(map[string]bool)
	for _, ns := range namespaces {
		if !ns.RequiresConformance() {
			exempt[ns.Prefix()] = true
		}
	}

	byKind := make(map[model.Kind][]*model.Component)
	for _, rule := range selected {
		if _, ok := byKind[rule.Kind]; ok {
			continue
		}
		found, err := r.store.Find(ctx, model.Criteria{Kind: rule.Kind})
		if err != nil {
			return nil, fmt.Errorf("find %s components: %w", rule.Kind, err)
		}
		kept := make([]*model.Component, 0, len(found))
		for _, c := range found {
			if !exempt[c.Prefix()] {
				kept = append(kept, c)
			}
		}
		byKind[rule.Kind] = kept
	}
	return byKind, nil
}
