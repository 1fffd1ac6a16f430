package results

import (
	"fmt"
	"log/slog"
)

// Object is a flagged domain object handed to Post.
type Object interface {
	Label() string
	Prefix() string
	Field(path string) string
	Location() (location, line, position string)
}

// CommentFunc produces the comment for a flagged object and its problem value.
type CommentFunc func(obj Object, problemValue string) string

// Poster turns flagged objects into issues on a test.
type Poster struct {
	// SuppressExceptions drops objects whose label is one of the test's
	// exception labels.
	SuppressExceptions bool

	logger *slog.Logger
}

// NewPoster creates a Poster.
func NewPoster(suppressExceptions bool, logger *slog.Logger) *Poster {
	if logger == nil {
		logger = slog.Default()
	}
	return &Poster{SuppressExceptions: suppressExceptions, logger: logger}
}

// Post replaces the issues of test with one issue per object in objects.
// The problem value is read from field when it is set, and comment, when
// given, explains each object. Post never fails on an individual object.
func (p *Poster) Post(test *Test, objects []Object, field string, comment CommentFunc) *Test {
	return p.post(test, objects, field, comment, true)
}

// Append is Post without discarding the issues the test already holds. It is
// used when one test covers several sub-checks over different object sets.
func (p *Poster) Append(test *Test, objects []Object, field string, comment CommentFunc) *Test {
	return p.post(test, objects, field, comment, false)
}

func (p *Poster) post(test *Test, objects []Object, field string, comment CommentFunc, reset bool) *Test {
	if !test.Running() {
		test.Start()
	}

	issues := make([]*Issue, 0, len(objects))
	suppressed := 0
	for i, obj := range objects {
		if obj == nil {
			p.logger.Warn("Skipping nil object", "test", test.ID, "index", i)
			continue
		}

		label := safeString(obj.Label)
		if p.SuppressExceptions && test.IsException(label) {
			suppressed++
			continue
		}

		var value string
		if field != "" {
			value = safeString(func() string { return obj.Field(field) })
		}

		var text string
		if comment != nil {
			text = safeString(func() string { return comment(obj, value) })
		}

		issues = append(issues, NewIssue(obj, value, text))
	}

	test.Log(issues, reset)

	p.logger.Debug("Posted test results",
		"test", test.ID,
		"issues", len(issues),
		"suppressed", suppressed,
		"elapsed", test.Elapsed)
	return test
}

// safeString calls fn and returns "" if it panics.
func safeString(fn func() string) (s string) {
	defer func() {
		if r := recover(); r != nil {
			slog.Default().Warn("Recovered while reading object", "panic", fmt.Sprint(r))
			s = ""
		}
	}()
	return fn()
}

func safeLocation(obj Object) (location, line, position string) {
	defer func() {
		if r := recover(); r != nil {
			location, line, position = "", "", ""
		}
	}()
	return obj.Location()
}
