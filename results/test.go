// Package results holds the test and issue records produced by rule runs,
// the catalog of declared tests, aggregation queries over it, and its JSON
// persistence.
package results

import (
	"slices"
	"time"
)

// now is the clock used by the test timer.
var now = time.Now

// Test is a declared rule together with the state of its latest execution.
type Test struct {
	ID             string   `json:"id" yaml:"id"`
	Description    string   `json:"description,omitempty" yaml:"description"`
	Category       string   `json:"category,omitempty" yaml:"category"`
	Component      string   `json:"component,omitempty" yaml:"component"`
	Field          string   `json:"field,omitempty" yaml:"field"`
	Scope          string   `json:"scope,omitempty" yaml:"scope"`
	Source         string   `json:"source,omitempty" yaml:"source"`
	Severity       Severity `json:"severity" yaml:"severity"`
	SpecLabel      string   `json:"specLabel,omitempty" yaml:"specLabel"`
	Rule           string   `json:"rule,omitempty" yaml:"rule"`
	ValidExample   string   `json:"validExample,omitempty" yaml:"validExample"`
	InvalidExample string   `json:"invalidExample,omitempty" yaml:"invalidExample"`
	Exceptions     string   `json:"exceptions,omitempty" yaml:"exceptions"`

	// ExceptionLabels are object labels never reported by this test.
	ExceptionLabels []string `json:"exceptionLabels,omitempty" yaml:"exceptionLabels"`

	Ran       bool          `json:"ran" yaml:"-"`
	TimeStart time.Time     `json:"timeStart,omitzero" yaml:"-"`
	Elapsed   time.Duration `json:"timeElapsed" yaml:"-"`
	Issues    []*Issue      `json:"issues" yaml:"-"`

	running bool
}

// Start starts the test timer. Starting a running test restarts its timer.
func (t *Test) Start() {
	t.TimeStart = now()
	t.running = true
}

// Running reports whether the timer has been started and not yet logged.
func (t *Test) Running() bool {
	return t.running
}

// Log completes a run. With reset the issues replace any previous ones and the
// elapsed time is measured from the last Start; otherwise the issues and the
// elapsed time are added to what an earlier run of the same test recorded.
func (t *Test) Log(issues []*Issue, reset bool) {
	var elapsed time.Duration
	if !t.TimeStart.IsZero() {
		elapsed = now().Sub(t.TimeStart)
	}

	for _, issue := range issues {
		issue.TestID = t.ID
		issue.test = t
	}

	if reset || !t.Ran {
		t.Issues = append([]*Issue(nil), issues...)
		t.Elapsed = elapsed
	} else {
		t.Issues = append(t.Issues, issues...)
		t.Elapsed += elapsed
	}
	if t.Issues == nil {
		t.Issues = []*Issue{}
	}

	t.Ran = true
	t.running = false
}

// Reset returns the test to its declared, not-ran state.
func (t *Test) Reset() {
	t.Ran = false
	t.running = false
	t.TimeStart = time.Time{}
	t.Elapsed = 0
	t.Issues = nil
}

// IsException reports whether label is exempt from this test.
func (t *Test) IsException(label string) bool {
	return slices.Contains(t.ExceptionLabels, label)
}

// IssuesFor returns the issues whose prefix is in prefixes, or every issue when
// prefixes is empty.
func (t *Test) IssuesFor(prefixes ...string) []*Issue {
	if len(prefixes) == 0 {
		return slices.Clone(t.Issues)
	}
	var out []*Issue
	for _, issue := range t.Issues {
		if slices.Contains(prefixes, issue.Prefix) {
			out = append(out, issue)
		}
	}
	return out
}

// Status returns pass, fail or not-ran for the issues in prefixes.
// A test that never ran is not-ran even when it holds no matching issues.
func (t *Test) Status(prefixes ...string) Status {
	if !t.Ran {
		return StatusNotRan
	}
	if len(t.IssuesFor(prefixes...)) == 0 {
		return StatusPass
	}
	return StatusFail
}

// Passed reports whether the test ran without issues in prefixes.
func (t *Test) Passed(prefixes ...string) bool {
	return t.Status(prefixes...) == StatusPass
}

// Failed reports whether the test ran with issues in prefixes.
func (t *Test) Failed(prefixes ...string) bool {
	return t.Status(prefixes...) == StatusFail
}
