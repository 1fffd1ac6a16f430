package results

import (
	"errors"
	"fmt"
	"strings"
)

// Severity classifies the impact of a failed test.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Severities lists the supported severities from most to least severe.
var Severities = []Severity{SeverityError, SeverityWarning, SeverityInfo}

// ErrInvalidSeverity is returned for a severity outside error, warning and info.
var ErrInvalidSeverity = errors.New("invalid severity")

// IsValid reports whether s is a supported severity.
func (s Severity) IsValid() bool {
	switch s {
	case SeverityError, SeverityWarning, SeverityInfo:
		return true
	}
	return false
}

// ParseSeverity parses a severity name, ignoring case and surrounding space.
func ParseSeverity(s string) (Severity, error) {
	sev := Severity(strings.ToLower(strings.TrimSpace(s)))
	if !sev.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidSeverity, s)
	}
	return sev, nil
}

// Status is the outcome of a test, optionally restricted to a set of namespaces.
type Status string

const (
	StatusPass   Status = "pass"
	StatusFail   Status = "fail"
	StatusNotRan Status = "not-ran"
)
