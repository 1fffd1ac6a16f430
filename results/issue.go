package results

import "strings"

// Issue is a single rule violation. It is owned by exactly one Test.
type Issue struct {
	// TestID is the id of the owning test. The live owner is reachable
	// through Test(); only the id is persisted.
	TestID string `json:"testId"`

	Prefix       string `json:"prefix"`
	Label        string `json:"label"`
	Location     string `json:"location"`
	Line         string `json:"line"`
	Position     string `json:"position"`
	ProblemValue string `json:"problemValue"`
	Comments     string `json:"comments"`

	test *Test
}

// Test returns the owning test, or nil for an issue that has not been logged.
func (i *Issue) Test() *Test {
	return i.test
}

// NewIssue builds an issue for obj. Missing provenance yields empty fields.
func NewIssue(obj Object, problemValue, comments string) *Issue {
	issue := &Issue{ProblemValue: problemValue, Comments: comments}
	if obj == nil {
		return issue
	}
	issue.Prefix = safeString(obj.Prefix)
	issue.Label = safeString(obj.Label)
	issue.Location, issue.Line, issue.Position = safeLocation(obj)
	return issue
}

// ParseExceptionLabels splits a free-text exception list into labels.
// Entries are separated by commas or newlines; whitespace is trimmed and
// empty entries, such as those left by a trailing comma, are dropped.
func ParseExceptionLabels(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || r == '\n' || r == '\r'
	})
	var labels []string
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		label := strings.TrimSpace(f)
		if label == "" || seen[label] {
			continue
		}
		seen[label] = true
		labels = append(labels, label)
	}
	return labels
}
