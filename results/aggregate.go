package results

import (
	"slices"
	"sort"
	"time"
)

// Filter restricts aggregation to namespace prefixes and severities.
// Empty fields do not filter.
type Filter struct {
	Prefixes   []string
	Severities []Severity
}

func (f Filter) matchesSeverity(t *Test) bool {
	return len(f.Severities) == 0 || slices.Contains(f.Severities, t.Severity)
}

// Ran returns the tests that have run.
func (c *Catalog) Ran() []*Test {
	return c.selectTests(func(t *Test) bool { return t.Ran })
}

// NotRan returns the tests that have not run.
func (c *Catalog) NotRan() []*Test {
	return c.selectTests(func(t *Test) bool { return !t.Ran })
}

// Passed returns the tests in the filtered severities that ran with no issues
// in the filtered prefixes.
func (c *Catalog) Passed(f Filter) []*Test {
	return c.selectTests(func(t *Test) bool {
		return f.matchesSeverity(t) && t.Status(f.Prefixes...) == StatusPass
	})
}

// Failed returns the tests in the filtered severities that ran with at least
// one issue in the filtered prefixes.
func (c *Catalog) Failed(f Filter) []*Test {
	return c.selectTests(func(t *Test) bool {
		return f.matchesSeverity(t) && t.Status(f.Prefixes...) == StatusFail
	})
}

// Issues returns the filtered issues of the failed tests, ordered by test and
// then by issue.
func (c *Catalog) Issues(f Filter) []*Issue {
	var out []*Issue
	for _, t := range c.Failed(f) {
		out = append(out, t.IssuesFor(f.Prefixes...)...)
	}
	return out
}

// IssuePrefixes returns the distinct prefixes of every issue in the catalog,
// sorted.
func (c *Catalog) IssuePrefixes() []string {
	seen := make(map[string]bool)
	var out []string
	for _, t := range c.Tests() {
		for _, issue := range t.Issues {
			if !seen[issue.Prefix] {
				seen[issue.Prefix] = true
				out = append(out, issue.Prefix)
			}
		}
	}
	sort.Strings(out)
	return out
}

// RunTime returns the summed elapsed time of the tests that ran.
func (c *Catalog) RunTime() time.Duration {
	var total time.Duration
	for _, t := range c.Ran() {
		total += t.Elapsed
	}
	return total
}

// Counts tallies test outcomes and issues.
type Counts struct {
	Pass   int              `json:"pass"`
	Fail   int              `json:"fail"`
	NotRan int              `json:"notRan"`
	Issues map[Severity]int `json:"issues"`
}

// Total returns the number of issues across severities.
func (c Counts) Total() int {
	n := 0
	for _, v := range c.Issues {
		n += v
	}
	return n
}

// Count tallies the status of every test in the filtered severities, and the
// filtered issues of each failed test by severity.
func (c *Catalog) Count(f Filter) Counts {
	counts := Counts{Issues: make(map[Severity]int)}
	for _, t := range c.Tests() {
		if !f.matchesSeverity(t) {
			continue
		}
		switch t.Status(f.Prefixes...) {
		case StatusPass:
			counts.Pass++
		case StatusFail:
			counts.Fail++
			counts.Issues[t.Severity] += len(t.IssuesFor(f.Prefixes...))
		default:
			counts.NotRan++
		}
	}
	return counts
}

func (c *Catalog) selectTests(keep func(*Test) bool) []*Test {
	var out []*Test
	for _, t := range c.Tests() {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}
