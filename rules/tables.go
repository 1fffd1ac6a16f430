package rules

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/cdmgtri/niem-model-qa-sub000/model"
	"github.com/cdmgtri/niem-model-qa-sub000/results"
)

// Component names may use letters, digits, hyphens, underscores and periods.
var validNameRe = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9._-]*$`)

func propertyRules() []Rule {
	return []Rule{
		nameSpellingRule(model.KindProperty, "property_name_spelling"),
		filterRule(model.KindProperty, "property_name_invalid_char", model.FieldName,
			func(c *model.Component) bool { return !validNameRe.MatchString(c.Name()) },
			nil),
		filterRule(model.KindProperty, "property_definition_missing", model.FieldDefinition,
			isBlank(model.FieldDefinition), nil),
		definitionSpellingRule(model.KindProperty, "property_definition_spelling", model.FieldDefinition),
		unresolvedRule(model.KindProperty, "property_type_unresolved", model.FieldTypeQName, model.KindType),
	}
}

func typeRules() []Rule {
	return []Rule{
		filterRule(model.KindType, "type_name_suffix", model.FieldName,
			func(c *model.Component) bool { return !strings.HasSuffix(c.Name(), "Type") },
			func(_ results.Object, _ string) string {
				return `Type names must end with "Type"`
			}),
		nameSpellingRule(model.KindType, "type_name_spelling"),
		filterRule(model.KindType, "type_definition_missing", model.FieldDefinition,
			isBlank(model.FieldDefinition), nil),
		definitionSpellingRule(model.KindType, "type_definition_spelling", model.FieldDefinition),
		unresolvedRule(model.KindType, "type_base_unresolved", model.FieldBaseQName, model.KindType),
	}
}

func facetRules() []Rule {
	return []Rule{
		filterRule(model.KindFacet, "facet_definition_missing", model.FieldDefinition,
			func(c *model.Component) bool {
				category := c.Field("category")
				return (category == "" || category == "enumeration") && isBlank(model.FieldDefinition)(c)
			},
			nil),
		{
			Kind:   model.KindFacet,
			ID:     "facet_value_duplicate",
			Fields: []string{model.FieldValue},
			Run:    duplicateFacets,
		},
	}
}

func namespaceRules() []Rule {
	return []Rule{
		filterRule(model.KindNamespace, "namespace_definition_missing", model.FieldDefinition,
			isBlank(model.FieldDefinition), nil),
		definitionSpellingRule(model.KindNamespace, "namespace_definition_spelling", model.FieldDefinition),
	}
}

func localTermRules() []Rule {
	return []Rule{
		filterRule(model.KindLocalTerm, "localterm_meaning_missing", model.FieldTerm,
			func(c *model.Component) bool {
				return isBlank(model.FieldDefinition)(c) &&
					isBlank(model.FieldLiteral)(c) &&
					!hasSourceURIs(c)
			},
			func(_ results.Object, _ string) string {
				return "Local term needs a definition, a literal or source URIs"
			}),
	}
}

func hasSourceURIs(c *model.Component) bool {
	v := strings.TrimSpace(c.Field(model.FieldSourceURIs))
	return v != "" && v != "[]"
}

// duplicateFacets flags every facet after the first with the same value on
// the same type.
func duplicateFacets(_ context.Context, r *Runner, objects []*model.Component) (*results.Test, error) {
	test, err := r.Start("facet_value_duplicate")
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var flagged []*model.Component
	for _, c := range objects {
		key := c.Field(model.FieldTypeQName) + "\x00" + c.Field(model.FieldValue)
		if seen[key] {
			flagged = append(flagged, c)
			continue
		}
		seen[key] = true
	}

	return r.Post(test, flagged, model.FieldValue, func(obj results.Object, value string) string {
		return fmt.Sprintf("Value %q is repeated on %s", value, obj.Field(model.FieldTypeQName))
	}), nil
}
