package rules

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cdmgtri/niem-model-qa-sub000/model"
	"github.com/cdmgtri/niem-model-qa-sub000/results"
	"github.com/cdmgtri/niem-model-qa-sub000/spell"
)

// countingStore records the point lookups made through Get.
type countingStore struct {
	*model.MemoryStore

	mu   sync.Mutex
	gets map[string]int
}

func newCountingStore(components ...*model.Component) *countingStore {
	return &countingStore{MemoryStore: model.NewMemoryStore(components...), gets: make(map[string]int)}
}

func (s *countingStore) Get(ctx context.Context, kind model.Kind, label string) (*model.Component, error) {
	s.mu.Lock()
	s.gets[label]++
	s.mu.Unlock()
	return s.MemoryStore.Get(ctx, kind, label)
}

func (s *countingStore) count(label string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gets[label]
}

func property(prefix, name, typeQName, definition string) *model.Component {
	return model.MustComponent(model.KindProperty, map[string]any{
		"prefix":     prefix,
		"name":       name,
		"typeQName":  typeQName,
		"definition": definition,
	})
}

func fixture() []*model.Component {
	return []*model.Component{
		model.MustComponent(model.KindNamespace, map[string]any{"prefix": "nc", "style": "core", "definition": "Core person data."}),
		model.MustComponent(model.KindNamespace, map[string]any{"prefix": "ext", "style": "extension", "definition": ""}),
		model.MustComponent(model.KindNamespace, map[string]any{"prefix": "xs", "style": "external"}),
		model.MustComponent(model.KindType, map[string]any{"prefix": "nc", "name": "PersonType", "style": "object", "definition": "A data type for a person."}),
		model.MustComponent(model.KindType, map[string]any{"prefix": "nc", "name": "Person", "style": "object", "definition": "A person."}),
		model.MustComponent(model.KindType, map[string]any{"prefix": "xs", "name": "strin"}),
		property("nc", "PersonName", "nc:PersonType", "A name of a person."),
		property("nc", "PersonNCICNumber", "xs:string", "A NCIC number of a person."),
		property("ext", "PersonNCICNumber", "ext:MissingType", "A persn number."),
		property("ext", "Person Name", "ext:MissingType", ""),
		model.MustComponent(model.KindFacet, map[string]any{"prefix": "nc", "typeQName": "nc:CodeType", "value": "A", "category": "enumeration", "definition": "Alpha"}),
		model.MustComponent(model.KindFacet, map[string]any{"prefix": "nc", "typeQName": "nc:CodeType", "value": "A", "category": "enumeration", "definition": "Again"}),
		model.MustComponent(model.KindFacet, map[string]any{"prefix": "nc", "typeQName": "nc:CodeType", "value": "B", "category": "enumeration"}),
		model.MustComponent(model.KindFacet, map[string]any{"prefix": "nc", "typeQName": "nc:OtherType", "value": "A", "category": "pattern"}),
		model.MustComponent(model.KindLocalTerm, map[string]any{"prefix": "nc", "term": "NCIC", "literal": "National Crime Information Center"}),
		model.MustComponent(model.KindLocalTerm, map[string]any{"prefix": "nc", "term": "DOB"}),
	}
}

func newChecker(t *testing.T, store model.Store) *spell.Checker {
	t.Helper()
	dict := spell.NewDictionary("a", "an", "data", "type", "for", "of", "person", "name", "number", "core", "alpha", "again")
	c := spell.NewChecker(dict, store, nil)
	require.NoError(t, c.AddModelWords(context.Background(), store))
	c.Seal()
	return c
}

func newRunner(t *testing.T, store model.Store, cfg Config) (*Runner, *results.Catalog) {
	t.Helper()
	catalog, err := DefaultCatalog()
	require.NoError(t, err)

	cfg.Catalog = catalog
	cfg.Store = store
	cfg.Checker = newChecker(t, store)
	r, err := NewRunner(cfg)
	require.NoError(t, err)
	return r, catalog
}

func labels(test *results.Test) []string {
	out := make([]string, len(test.Issues))
	for i, issue := range test.Issues {
		out[i] = issue.Label
	}
	return out
}

func TestDefaultCatalogCoversRules(t *testing.T) {
	catalog, err := DefaultCatalog()
	require.NoError(t, err)

	for _, rule := range DefaultRegistry().Rules() {
		test, err := catalog.Get(rule.ID)
		require.NoError(t, err, "rule %s has no catalog entry", rule.ID)
		assert.Equal(t, string(rule.Kind), test.Component, rule.ID)
	}
}

func TestRegistry(t *testing.T) {
	g := DefaultRegistry()

	t.Run("duplicate", func(t *testing.T) {
		rule, ok := g.Get(model.KindProperty, "property_name_spelling")
		require.True(t, ok)
		assert.Error(t, g.Register(rule))
	})

	t.Run("invalid kind", func(t *testing.T) {
		rule := Rule{Kind: "widget", ID: "x", Run: duplicateFacets}
		assert.Error(t, NewRegistry().Register(rule))
	})

	t.Run("for field", func(t *testing.T) {
		var ids []string
		for _, rule := range g.ForField(model.KindProperty, model.FieldDefinition) {
			ids = append(ids, rule.ID)
		}
		assert.Equal(t, []string{"property_definition_missing", "property_definition_spelling"}, ids)
	})

	t.Run("for kind", func(t *testing.T) {
		assert.Len(t, g.ForKind(model.KindNamespace), 2)
	})

	tests := []struct {
		name     string
		patterns []string
		want     int
	}{
		{"all", nil, len(g.Rules())},
		{"prefix glob", []string{"type_*"}, 5},
		{"several", []string{"facet_*", "localterm_meaning_missing"}, 3},
		{"none", []string{"nothing_*"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := g.Select(tt.patterns)
			require.NoError(t, err)
			assert.Len(t, got, tt.want)
		})
	}

	_, err := g.Select([]string{"type_["})
	assert.Error(t, err)
}

func TestNewRunnerRequiresSealedChecker(t *testing.T) {
	store := model.NewMemoryStore()
	catalog, err := DefaultCatalog()
	require.NoError(t, err)

	_, err = NewRunner(Config{Catalog: catalog, Store: store, Checker: spell.NewChecker(nil, store, nil)})
	assert.Error(t, err)

	_, err = NewRunner(Config{Store: store})
	assert.Error(t, err)
}

func TestUnresolvedLooksUpOncePerQName(t *testing.T) {
	const n = 25
	components := []*model.Component{
		model.MustComponent(model.KindType, map[string]any{"prefix": "nc", "name": "PersonType", "style": "object"}),
	}
	for range n {
		components = append(components, property("ext", "Thing", "ext:MissingType", ""))
	}
	for range n {
		components = append(components, property("nc", "Person", "nc:PersonType", ""))
	}
	store := newCountingStore(components...)
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	r, _ := newRunner(t, store, Config{Metrics: metrics})

	props, err := store.Find(context.Background(), model.Criteria{Kind: model.KindProperty})
	require.NoError(t, err)

	test, err := r.RunRule(context.Background(), model.KindProperty, "property_type_unresolved", props)
	require.NoError(t, err)

	assert.Len(t, test.Issues, n)
	for _, issue := range test.Issues {
		assert.Equal(t, "ext:MissingType", issue.ProblemValue)
		assert.Equal(t, "type ext:MissingType not found", issue.Comments)
	}
	assert.Equal(t, 1, store.count("ext:MissingType"))
	assert.Equal(t, 1, store.count("nc:PersonType"))
	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.StoreLookups))

	// A second rule sharing the runner reuses the resolved names.
	_, err = r.RunRule(context.Background(), model.KindProperty, "property_type_unresolved", props)
	require.NoError(t, err)
	assert.Equal(t, 1, store.count("ext:MissingType"))
}

// ctxStore fails lookups made with a cancelled context.
type ctxStore struct {
	*model.MemoryStore
}

func (s ctxStore) Get(ctx context.Context, kind model.Kind, label string) (*model.Component, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.MemoryStore.Get(ctx, kind, label)
}

func TestResolverLookupIgnoresCallerCancellation(t *testing.T) {
	store := ctxStore{model.NewMemoryStore(
		model.MustComponent(model.KindType, map[string]any{"prefix": "nc", "name": "PersonType"}),
	)}
	r := NewResolver(store, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	found, err := r.Exists(ctx, model.KindType, "nc:PersonType")
	require.NoError(t, err)
	assert.True(t, found)

	found, err = r.Exists(context.Background(), model.KindType, "nc:Missing")
	require.NoError(t, err)
	assert.False(t, found)

	found, err = r.Exists(ctx, model.KindType, "xs:string")
	require.NoError(t, err)
	assert.True(t, found)
}

func TestSummaryJSONKeys(t *testing.T) {
	data, err := json.Marshal(Summary{RunID: "r1", RunTime: time.Second, Counts: results.Counts{NotRan: 1}})
	require.NoError(t, err)

	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &doc))
	for _, key := range []string{"runId", "started", "wall", "runTime", "rules", "counts"} {
		assert.Contains(t, doc, key)
	}
	assert.Contains(t, string(doc["counts"]), `"notRan":1`)
}

func TestRunRuleUnknown(t *testing.T) {
	r, _ := newRunner(t, model.NewMemoryStore(), Config{})
	_, err := r.RunRule(context.Background(), model.KindProperty, "nothing", nil)
	assert.Error(t, err)
}

func TestRunnerRun(t *testing.T) {
	store := model.NewMemoryStore(fixture()...)
	reg := prometheus.NewRegistry()
	r, catalog := newRunner(t, store, Config{Concurrency: 4, Metrics: NewMetrics(reg)})

	summary, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, summary.RunID)
	assert.Equal(t, len(DefaultRegistry().Rules()), summary.Rules)
	assert.Equal(t, 0, summary.Counts.NotRan)
	assert.Equal(t, catalog.Len(), summary.Counts.Pass+summary.Counts.Fail)

	tests := []struct {
		id   string
		want []string
	}{
		{"namespace_definition_missing", []string{"ext"}},
		{"property_name_spelling", []string{"ext:PersonNCICNumber"}},
		{"property_name_invalid_char", []string{"ext:Person Name"}},
		{"property_definition_missing", []string{"ext:Person Name"}},
		{"property_definition_spelling", []string{"ext:PersonNCICNumber"}},
		{"property_type_unresolved", []string{"ext:PersonNCICNumber", "ext:Person Name"}},
		{"type_name_suffix", []string{"nc:Person"}},
		{"type_base_unresolved", []string{}},
		{"facet_value_duplicate", []string{"nc:CodeType - A"}},
		{"facet_definition_missing", []string{"nc:CodeType - B"}},
		{"localterm_meaning_missing", []string{"nc - DOB"}},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			test := catalog.MustGet(tt.id)
			assert.True(t, test.Ran)
			assert.Equal(t, tt.want, labels(test))
		})
	}

	t.Run("exempt namespaces are skipped", func(t *testing.T) {
		for _, issue := range catalog.Issues(results.Filter{}) {
			assert.NotEqual(t, "xs", issue.Prefix)
		}
	})

	t.Run("definition spelling ranges", func(t *testing.T) {
		issues := catalog.MustGet("property_definition_spelling").Issues
		require.Len(t, issues, 1)
		assert.Equal(t, "persn", issues[0].ProblemValue)
		assert.Equal(t, `Unknown word "persn" at 2-7`, issues[0].Comments)
	})

	t.Run("name spelling comment", func(t *testing.T) {
		issue := catalog.MustGet("property_name_spelling").Issues[0]
		assert.Equal(t, "Unknown words: NCIC", issue.Comments)
	})

	t.Run("outcome metrics", func(t *testing.T) {
		families, err := reg.Gather()
		require.NoError(t, err)
		assert.NotEmpty(t, families)
	})
}

func TestRunnerRunSelectedWithExceptions(t *testing.T) {
	store := model.NewMemoryStore(fixture()...)
	r, catalog := newRunner(t, store, Config{SuppressExceptions: true})

	test := catalog.MustGet("property_type_unresolved")
	test.ExceptionLabels = []string{"ext:Person Name"}

	summary, err := r.Run(context.Background(), "property_*")
	require.NoError(t, err)

	assert.Equal(t, 5, summary.Rules)
	assert.Equal(t, []string{"ext:PersonNCICNumber"}, labels(test))
	assert.False(t, catalog.MustGet("type_name_suffix").Ran)
}

func TestRunnerMissingTestIsFatal(t *testing.T) {
	store := model.NewMemoryStore(fixture()...)
	catalog, err := results.NewCatalog(&results.Test{ID: "type_name_suffix", Severity: results.SeverityError})
	require.NoError(t, err)

	r, err := NewRunner(Config{Catalog: catalog, Store: store, Checker: newChecker(t, store)})
	require.NoError(t, err)

	_, err = r.Run(context.Background(), "type_*")
	assert.ErrorIs(t, err, results.ErrTestNotFound)
}
