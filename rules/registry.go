package rules

import (
	"context"
	"fmt"
	"slices"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/cdmgtri/niem-model-qa-sub000/model"
	"github.com/cdmgtri/niem-model-qa-sub000/results"
)

// RuleFunc checks objects of one kind and returns the test it ran.
type RuleFunc func(ctx context.Context, r *Runner, objects []*model.Component) (*results.Test, error)

// Rule binds a declared test id to the function that runs it.
type Rule struct {
	Kind model.Kind
	// ID is also the id of the test the rule posts to.
	ID string
	// Fields are the component fields the rule checks.
	Fields []string
	Run    RuleFunc
}

type ruleKey struct {
	kind model.Kind
	id   string
}

// Registry is the static table of rules, keyed by component kind and rule id.
type Registry struct {
	rules []Rule
	index map[ruleKey]int
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{index: make(map[ruleKey]int)}
}

// Register adds rules. Ids must be unique within a kind.
func (g *Registry) Register(rules ...Rule) error {
	for _, rule := range rules {
		if !rule.Kind.IsValid() {
			return fmt.Errorf("rule %s: unknown component kind %q", rule.ID, rule.Kind)
		}
		if rule.ID == "" || rule.Run == nil {
			return fmt.Errorf("rule %q for %s: id and function are required", rule.ID, rule.Kind)
		}
		key := ruleKey{rule.Kind, rule.ID}
		if _, ok := g.index[key]; ok {
			return fmt.Errorf("rule %s for %s already registered", rule.ID, rule.Kind)
		}
		g.index[key] = len(g.rules)
		g.rules = append(g.rules, rule)
	}
	return nil
}

// Get returns the rule for kind and id.
func (g *Registry) Get(kind model.Kind, id string) (Rule, bool) {
	i, ok := g.index[ruleKey{kind, id}]
	if !ok {
		return Rule{}, false
	}
	return g.rules[i], true
}

// Rules returns every rule in registration order.
func (g *Registry) Rules() []Rule {
	return slices.Clone(g.rules)
}

// ForKind returns the rules checking kind.
func (g *Registry) ForKind(kind model.Kind) []Rule {
	var out []Rule
	for _, rule := range g.rules {
		if rule.Kind == kind {
			out = append(out, rule)
		}
	}
	return out
}

// ForField returns the rules of kind that check field.
func (g *Registry) ForField(kind model.Kind, field string) []Rule {
	var out []Rule
	for _, rule := range g.rules {
		if rule.Kind == kind && slices.Contains(rule.Fields, field) {
			out = append(out, rule)
		}
	}
	return out
}

// Select returns the rules whose id matches any of the glob patterns, such as
// "property_*". No patterns selects every rule.
func (g *Registry) Select(patterns []string) ([]Rule, error) {
	if len(patterns) == 0 {
		return g.Rules(), nil
	}
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid rule pattern %q", p)
		}
	}

	var out []Rule
	for _, rule := range g.rules {
		for _, p := range patterns {
			if ok, _ := doublestar.Match(p, rule.ID); ok {
				out = append(out, rule)
				break
			}
		}
	}
	return out, nil
}

// DefaultRegistry returns the built-in rule tables for every component kind.
func DefaultRegistry() *Registry {
	g := NewRegistry()
	tables := [][]Rule{
		namespaceRules(),
		propertyRules(),
		typeRules(),
		facetRules(),
		localTermRules(),
	}
	for _, table := range tables {
		if err := g.Register(table...); err != nil {
			panic(err)
		}
	}
	return g
}
