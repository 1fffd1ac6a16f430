package rules

import (
	"context"
	"fmt"
	"strings"

	"github.com/cdmgtri/niem-model-qa-sub000/model"
	"github.com/cdmgtri/niem-model-qa-sub000/results"
	"github.com/cdmgtri/niem-model-qa-sub000/spell"
)

// filterRule builds a rule that flags the objects matching pred and reports
// field as the problem value.
func filterRule(kind model.Kind, id, field string, pred func(*model.Component) bool, comment results.CommentFunc) Rule {
	return Rule{
		Kind:   kind,
		ID:     id,
		Fields: []string{field},
		Run: func(_ context.Context, r *Runner, objects []*model.Component) (*results.Test, error) {
			test, err := r.Start(id)
			if err != nil {
				return nil, err
			}
			var flagged []*model.Component
			for _, obj := range objects {
				if pred(obj) {
					flagged = append(flagged, obj)
				}
			}
			return r.Post(test, flagged, field, comment), nil
		},
	}
}

// nameSpellingRule flags objects whose name contains terms that are neither
// dictionary words nor local terms of the object's namespace.
func nameSpellingRule(kind model.Kind, id string) Rule {
	return Rule{
		Kind:   kind,
		ID:     id,
		Fields: []string{model.FieldName},
		Run: func(ctx context.Context, r *Runner, objects []*model.Component) (*results.Test, error) {
			test, err := r.Start(id)
			if err != nil {
				return nil, err
			}

			unknown := make(map[*model.Component][]string)
			var flagged []*model.Component
			for _, obj := range objects {
				terms, err := r.Checker().UnknownTerms(ctx, obj.Prefix(), obj.Name())
				if err != nil {
					return nil, err
				}
				if len(terms) > 0 {
					unknown[obj] = terms
					flagged = append(flagged, obj)
				}
			}

			return r.Post(test, flagged, model.FieldName, func(obj results.Object, _ string) string {
				return "Unknown words: " + strings.Join(unknown[obj.(*model.Component)], ", ")
			}), nil
		},
	}
}

// definitionSpellingRule reports one issue per unknown word of a definition
// (or other long text field), with the spans where the word occurs.
func definitionSpellingRule(kind model.Kind, id, field string) Rule {
	return Rule{
		Kind:   kind,
		ID:     id,
		Fields: []string{field},
		Run: func(ctx context.Context, r *Runner, objects []*model.Component) (*results.Test, error) {
			test, err := r.Start(id)
			if err != nil {
				return nil, err
			}

			var issues []*results.Issue
			for _, obj := range objects {
				text := obj.Field(field)
				if text == "" || r.Suppressed(test, obj.Label()) {
					continue
				}
				misspelled, err := r.Checker().CheckDefinition(ctx, obj.Prefix(), text)
				if err != nil {
					return nil, err
				}
				for _, m := range misspelled {
					issues = append(issues, results.NewIssue(obj, m.Word, rangeComment(m)))
				}
			}
			return r.Log(test, issues), nil
		},
	}
}

func rangeComment(m spell.Misspelling) string {
	spans := make([]string, len(m.Ranges))
	for i, rg := range m.Ranges {
		spans[i] = fmt.Sprintf("%d-%d", rg.Start, rg.End)
	}
	return fmt.Sprintf("Unknown word %q at %s", m.Word, strings.Join(spans, ", "))
}

// unresolvedRule flags objects whose qname reference in field does not
// resolve to a component of target kind. Each distinct qname is looked up
// once no matter how many objects use it.
func unresolvedRule(kind model.Kind, id, field string, target model.Kind) Rule {
	return Rule{
		Kind:   kind,
		ID:     id,
		Fields: []string{field},
		Run: func(ctx context.Context, r *Runner, objects []*model.Component) (*results.Test, error) {
			test, err := r.Start(id)
			if err != nil {
				return nil, err
			}

			missing := make(map[string]bool)
			var flagged []*model.Component
			for _, obj := range objects {
				qname := obj.Field(field)
				if qname == "" {
					continue
				}
				absent, ok := missing[qname]
				if !ok {
					found, err := r.Resolver().Exists(ctx, target, qname)
					if err != nil {
						return nil, fmt.Errorf("resolve %s %s: %w", target, qname, err)
					}
					absent = !found
					missing[qname] = absent
				}
				if absent {
					flagged = append(flagged, obj)
				}
			}

			return r.Post(test, flagged, field, func(_ results.Object, value string) string {
				return fmt.Sprintf("%s %s not found", target, value)
			}), nil
		},
	}
}

func isBlank(field string) func(*model.Component) bool {
	return func(c *model.Component) bool {
		return strings.TrimSpace(c.Field(field)) == ""
	}
}
