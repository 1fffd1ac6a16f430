// Package model defines the domain components checked by the QA rules and the
// store contract used to look them up.
//
// Components are kept as their raw JSON records so that rules can read any
// field by path without the model package knowing every attribute in advance.
package model

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// Kind identifies the kind of a domain component.
type Kind string

const (
	KindNamespace Kind = "namespace"
	KindProperty  Kind = "property"
	KindType      Kind = "type"
	KindFacet     Kind = "facet"
	KindLocalTerm Kind = "localTerm"
)

// Kinds lists every component kind in checking order.
var Kinds = []Kind{KindNamespace, KindProperty, KindType, KindFacet, KindLocalTerm}

// IsValid reports whether k is a known component kind.
func (k Kind) IsValid() bool {
	switch k {
	case KindNamespace, KindProperty, KindType, KindFacet, KindLocalTerm:
		return true
	}
	return false
}

// Field paths shared by the component records.
const (
	FieldPrefix     = "prefix"
	FieldName       = "name"
	FieldDefinition = "definition"
	FieldTypeQName  = "typeQName"
	FieldBaseQName  = "baseQName"
	FieldStyle      = "style"
	FieldValue      = "value"
	FieldTerm       = "term"
	FieldLiteral    = "literal"
	FieldSourceURIs = "sourceURIs"
	FieldURI        = "uri"
)

// Source records where a component was read from.
type Source struct {
	Location string `json:"location,omitempty"` // file or workbook tab
	Line     string `json:"line,omitempty"`
	Position string `json:"position,omitempty"`
}

// Component is a single domain-model object backed by its JSON record.
type Component struct {
	Kind Kind
	raw  []byte
}

// NewComponent wraps a raw JSON record. The record must be a JSON object.
func NewComponent(kind Kind, raw []byte) (*Component, error) {
	if !kind.IsValid() {
		return nil, fmt.Errorf("unknown component kind: %s", kind)
	}
	if !gjson.ValidBytes(raw) || !gjson.ParseBytes(raw).IsObject() {
		return nil, fmt.Errorf("invalid %s record: not a JSON object", kind)
	}
	buf := make([]byte, len(raw))
	copy(buf, raw)
	return &Component{Kind: kind, raw: buf}, nil
}

// MustComponent builds a component from a Go value and panics on failure.
// Intended for fixtures and tests.
func MustComponent(kind Kind, v any) *Component {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	c, err := NewComponent(kind, data)
	if err != nil {
		panic(err)
	}
	return c
}

// Raw returns the JSON record.
func (c *Component) Raw() []byte {
	return c.raw
}

// Field returns the string form of the value at the given gjson path.
// Absent fields yield the empty string.
func (c *Component) Field(path string) string {
	if c == nil || path == "" {
		return ""
	}
	r := gjson.GetBytes(c.raw, path)
	if !r.Exists() || r.Type == gjson.Null {
		return ""
	}
	return r.String()
}

// Has reports whether the record has a non-null value at path.
func (c *Component) Has(path string) bool {
	if c == nil {
		return false
	}
	r := gjson.GetBytes(c.raw, path)
	return r.Exists() && r.Type != gjson.Null
}

// Prefix returns the namespace prefix of the component.
func (c *Component) Prefix() string {
	return c.Field(FieldPrefix)
}

// Name returns the local name of the component.
func (c *Component) Name() string {
	return c.Field(FieldName)
}

// Definition returns the component definition.
func (c *Component) Definition() string {
	return c.Field(FieldDefinition)
}

// QName returns prefix:name for properties and types.
func (c *Component) QName() string {
	return QName(c.Prefix(), c.Name())
}

// Label returns the human-readable identifier used in issues and exception lists.
func (c *Component) Label() string {
	if c == nil {
		return ""
	}
	switch c.Kind {
	case KindNamespace:
		return c.Prefix()
	case KindFacet:
		return c.Field(FieldTypeQName) + " - " + c.Field(FieldValue)
	case KindLocalTerm:
		return c.Prefix() + " - " + c.Field(FieldTerm)
	default:
		return c.QName()
	}
}

// Location returns the source provenance, empty when the record has none.
func (c *Component) Location() (location, line, position string) {
	return c.Field("source.location"), c.Field("source.line"), c.Field("source.position")
}

// IsComplexContent reports whether a type carries complex content.
func (c *Component) IsComplexContent() bool {
	if c.Kind != KindType {
		return false
	}
	switch c.Field(FieldStyle) {
	case "object", "adapter", "association", "augmentation", "metadata", "CSC":
		return true
	}
	return false
}

// RequiresConformance reports whether a namespace must conform to the rules.
// External and utility namespaces are exempt.
func (c *Component) RequiresConformance() bool {
	if c.Kind != KindNamespace {
		return false
	}
	switch c.Field(FieldStyle) {
	case "external", "utility", "built-in":
		return false
	}
	return true
}

// MarshalJSON returns the raw record.
func (c *Component) MarshalJSON() ([]byte, error) {
	return c.raw, nil
}

// QName joins a prefix and a local name.
func QName(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + ":" + name
}

// SplitQName splits prefix:name. A qname without a colon has an empty prefix.
func SplitQName(qname string) (prefix, name string) {
	if i := strings.IndexByte(qname, ':'); i >= 0 {
		return qname[:i], qname[i+1:]
	}
	return "", qname
}
