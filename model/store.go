package model

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a component lookup has no match.
var ErrNotFound = errors.New("component not found")

// Criteria filters a Find scan. Zero fields match everything.
type Criteria struct {
	Kind   Kind
	Prefix string
}

// Matches reports whether c satisfies the criteria.
func (cr Criteria) Matches(c *Component) bool {
	if cr.Kind != "" && c.Kind != cr.Kind {
		return false
	}
	if cr.Prefix != "" && c.Prefix() != cr.Prefix {
		return false
	}
	return true
}

// Store is the read-only view of a loaded model used by the rules.
// Point lookups are keyed by component label (qname for properties and types).
type Store interface {
	Get(ctx context.Context, kind Kind, label string) (*Component, error)
	Find(ctx context.Context, criteria Criteria) ([]*Component, error)
	LocalTerm(ctx context.Context, prefix, term string) (*Component, error)
	LocalTerms(ctx context.Context, prefix string) ([]*Component, error)
	Namespace(ctx context.Context, prefix string) (*Component, error)
}

// LocalTermLabel is the label of the local term entry for term in prefix.
func LocalTermLabel(prefix, term string) string {
	return prefix + " - " + term
}
