package model

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// sections maps the top-level keys of a model file to component kinds.
var sections = map[string]Kind{
	"namespaces": KindNamespace,
	"properties": KindProperty,
	"types":      KindType,
	"facets":     KindFacet,
	"localTerms": KindLocalTerm,
}

// Decode reads a model document of the form
//
//	{"namespaces": [...], "properties": [...], "types": [...], "facets": [...], "localTerms": [...]}
//
// and returns its components in kind order. Unknown sections are ignored.
func Decode(r io.Reader) ([]*Component, error) {
	var doc map[string]json.RawMessage
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}

	byKind := make(map[Kind][]json.RawMessage, len(sections))
	for key, section := range doc {
		kind, ok := sections[key]
		if !ok {
			continue
		}
		var records []json.RawMessage
		if err := json.Unmarshal(section, &records); err != nil {
			return nil, fmt.Errorf("decode model section %s: %w", key, err)
		}
		byKind[kind] = records
	}

	var out []*Component
	for _, kind := range Kinds {
		for i, raw := range byKind[kind] {
			c, err := NewComponent(kind, raw)
			if err != nil {
				return nil, fmt.Errorf("%s record %d: %w", kind, i, err)
			}
			out = append(out, c)
		}
	}
	return out, nil
}

// LoadFile reads a model file into a new MemoryStore.
func LoadFile(path string) (*MemoryStore, error) {
	components, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	return NewMemoryStore(components...), nil
}

// ReadFile decodes the components of a model file.
func ReadFile(path string) ([]*Component, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open model file: %w", err)
	}
	defer f.Close()
	return Decode(f)
}
