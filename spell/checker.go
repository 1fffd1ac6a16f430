// Package spell checks component names and definitions against a dictionary,
// with per-namespace local terminology overrides.
//
// A Checker has a one-time initialization phase: load the dictionary, apply
// custom words and model-derived words, set special terms, then Seal. After
// Seal the checker is read-only and safe for concurrent use.
package spell

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/cdmgtri/niem-model-qa-sub000/model"
)

// ErrSealed is returned when a sealed checker is modified.
var ErrSealed = errors.New("spell checker is sealed")

// TermLookup resolves local terminology entries for a namespace.
type TermLookup interface {
	LocalTerm(ctx context.Context, prefix, term string) (*model.Component, error)
}

// Checker validates words against a dictionary and local terminology.
type Checker struct {
	dict         *Dictionary
	specialTerms []string
	terms        TermLookup
	sealed       atomic.Bool
	logger       *slog.Logger
}

// NewChecker creates a checker over dict. terms may be nil, in which case no
// local terminology is consulted.
func NewChecker(dict *Dictionary, terms TermLookup, logger *slog.Logger) *Checker {
	if dict == nil {
		dict = NewDictionary()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Checker{dict: dict, terms: terms, logger: logger}
}

// AddWords adds valid words.
func (c *Checker) AddWords(words ...string) error {
	if c.sealed.Load() {
		return ErrSealed
	}
	c.dict.Add(words...)
	return nil
}

// RemoveWords removes words so that they are reported as unknown.
func (c *Checker) RemoveWords(words ...string) error {
	if c.sealed.Load() {
		return ErrSealed
	}
	c.dict.Remove(words...)
	return nil
}

// SetSpecialTerms sets the ordered terms protected from segmentation. Special
// terms are also valid words.
func (c *Checker) SetSpecialTerms(terms ...string) error {
	if c.sealed.Load() {
		return ErrSealed
	}
	c.specialTerms = append([]string(nil), terms...)
	c.dict.Add(terms...)
	return nil
}

// SpecialTerms returns the protected terms.
func (c *Checker) SpecialTerms() []string {
	return append([]string(nil), c.specialTerms...)
}

// ApplyCustomWords applies a custom allow/exclude list.
func (c *Checker) ApplyCustomWords(cw *CustomWords) error {
	if cw == nil {
		return nil
	}
	if err := c.AddWords(cw.Add...); err != nil {
		return err
	}
	if err := c.RemoveWords(cw.Remove...); err != nil {
		return err
	}
	if len(cw.SpecialTerms) > 0 {
		return c.SetSpecialTerms(append(c.specialTerms, cw.SpecialTerms...)...)
	}
	return nil
}

// AddModelWords adds the names of complex-content types and the prefixes of
// namespaces that require conformance, which are proper nouns of the model.
func (c *Checker) AddModelWords(ctx context.Context, store model.Store) error {
	if c.sealed.Load() {
		return ErrSealed
	}

	types, err := store.Find(ctx, model.Criteria{Kind: model.KindType})
	if err != nil {
		return fmt.Errorf("find types: %w", err)
	}
	var words []string
	for _, t := range types {
		if t.IsComplexContent() {
			words = append(words, t.Name())
		}
	}

	namespaces, err := store.Find(ctx, model.Criteria{Kind: model.KindNamespace})
	if err != nil {
		return fmt.Errorf("find namespaces: %w", err)
	}
	for _, ns := range namespaces {
		if ns.RequiresConformance() {
			words = append(words, ns.Prefix())
		}
	}

	c.dict.Add(words...)
	c.logger.Debug("Added model words to dictionary", "count", len(words))
	return nil
}

// Seal ends the initialization phase.
func (c *Checker) Seal() {
	c.sealed.Store(true)
}

// Sealed reports whether the checker has been sealed.
func (c *Checker) Sealed() bool {
	return c.sealed.Load()
}

// Segment splits a name using the checker's special terms.
func (c *Checker) Segment(name string) []string {
	return Segment(name, c.specialTerms)
}

// CheckWord reports whether word is in the dictionary. Numbers, single
// characters and leading or trailing digits are ignored; a hyphenated word is
// valid when each of its parts is.
func (c *Checker) CheckWord(word string) bool {
	word = strings.TrimSuffix(strings.TrimSuffix(word, "'s"), "'")
	word = strings.Trim(word, "0123456789")
	if len([]rune(word)) <= 1 {
		return true
	}
	if c.dict.Contains(word) {
		return true
	}
	if strings.Contains(word, "-") {
		for _, part := range strings.Split(word, "-") {
			if part != "" && !c.CheckWord(part) {
				return false
			}
		}
		return true
	}
	return false
}

// CheckTerm reports whether term is a dictionary word or a local term of the
// namespace prefix. Local terminology never crosses namespaces.
func (c *Checker) CheckTerm(ctx context.Context, prefix, term string) (bool, error) {
	if c.CheckWord(term) {
		return true, nil
	}
	return c.isLocalTerm(ctx, prefix, term)
}

func (c *Checker) isLocalTerm(ctx context.Context, prefix, term string) (bool, error) {
	if c.terms == nil || prefix == "" {
		return false, nil
	}
	_, err := c.terms.LocalTerm(ctx, prefix, term)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, model.ErrNotFound) {
		return false, nil
	}
	return false, fmt.Errorf("look up local term %s %q: %w", prefix, term, err)
}

// UnknownTerms segments name and returns the distinct terms that are neither
// dictionary words nor local terms of prefix, in order of appearance.
func (c *Checker) UnknownTerms(ctx context.Context, prefix, name string) ([]string, error) {
	var unknown []string
	seen := make(map[string]bool)
	for _, term := range c.Segment(name) {
		if seen[term] {
			continue
		}
		seen[term] = true
		ok, err := c.CheckTerm(ctx, prefix, term)
		if err != nil {
			return nil, err
		}
		if !ok {
			unknown = append(unknown, term)
		}
	}
	return unknown, nil
}
