package results

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTestLifecycle(t *testing.T) {
	fixedClock(t, time.Second)
	test := &Test{ID: "type_name_suffix", Severity: SeverityError}

	assert.False(t, test.Ran)
	assert.False(t, test.Running())
	assert.Equal(t, StatusNotRan, test.Status())

	test.Start()
	assert.True(t, test.Running())
	assert.False(t, test.Ran)

	test.Log([]*Issue{{Prefix: "nc", Label: "nc:Person"}}, true)
	assert.True(t, test.Ran)
	assert.False(t, test.Running())
	assert.Equal(t, time.Second, test.Elapsed)
	require.Len(t, test.Issues, 1)
	assert.Same(t, test, test.Issues[0].Test())
	assert.Equal(t, "type_name_suffix", test.Issues[0].TestID)
	assert.Equal(t, StatusFail, test.Status())

	test.Reset()
	assert.False(t, test.Ran)
	assert.Empty(t, test.Issues)
	assert.True(t, test.TimeStart.IsZero())
	assert.Zero(t, test.Elapsed)
	assert.Equal(t, StatusNotRan, test.Status())
}

func TestTestLogAppend(t *testing.T) {
	fixedClock(t, time.Second)
	test := &Test{ID: "property_definition_spelling", Severity: SeverityWarning}

	test.Start()
	test.Log([]*Issue{{Label: "nc:A"}}, true)
	test.Start()
	test.Log([]*Issue{{Label: "nc:B"}, {Label: "nc:C"}}, false)

	assert.Len(t, test.Issues, 3)
	assert.Equal(t, 2*time.Second, test.Elapsed)

	test.Start()
	test.Log([]*Issue{{Label: "nc:D"}}, true)
	assert.Len(t, test.Issues, 1)
	assert.Equal(t, time.Second, test.Elapsed)
}

func TestTestRestartOverwritesTimeStart(t *testing.T) {
	fixedClock(t, time.Second)
	test := &Test{ID: "a", Severity: SeverityInfo}

	test.Start()
	first := test.TimeStart
	test.Start()
	assert.True(t, test.TimeStart.After(first))
}

func TestTestStatus(t *testing.T) {
	tests := []struct {
		name     string
		ran      bool
		issues   []*Issue
		prefixes []string
		want     Status
	}{
		{name: "never ran", want: StatusNotRan},
		{name: "never ran with stale issues", issues: []*Issue{{Prefix: "nc"}}, want: StatusNotRan},
		{name: "ran clean", ran: true, want: StatusPass},
		{name: "ran with issues", ran: true, issues: []*Issue{{Prefix: "nc"}}, want: StatusFail},
		{name: "issues outside prefix", ran: true, issues: []*Issue{{Prefix: "nc"}}, prefixes: []string{"ext"}, want: StatusPass},
		{name: "issues inside prefix", ran: true, issues: []*Issue{{Prefix: "nc"}, {Prefix: "ext"}}, prefixes: []string{"ext"}, want: StatusFail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			test := &Test{ID: "x", Severity: SeverityError, Ran: tt.ran, Issues: tt.issues}
			got := test.Status(tt.prefixes...)
			assert.Equal(t, tt.want, got)

			switch got {
			case StatusPass:
				assert.True(t, test.Ran)
				assert.Empty(t, test.IssuesFor(tt.prefixes...))
				assert.True(t, test.Passed(tt.prefixes...))
				assert.False(t, test.Failed(tt.prefixes...))
			case StatusFail:
				assert.True(t, test.Ran)
				assert.NotEmpty(t, test.IssuesFor(tt.prefixes...))
				assert.True(t, test.Failed(tt.prefixes...))
				assert.False(t, test.Passed(tt.prefixes...))
			default:
				assert.False(t, test.Ran)
				assert.False(t, test.Passed(tt.prefixes...))
				assert.False(t, test.Failed(tt.prefixes...))
			}
		})
	}
}

func TestParseExceptionLabels(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"", nil},
		{"ext:Foo", []string{"ext:Foo"}},
		{"ext:Foo, ext:Bar,", []string{"ext:Foo", "ext:Bar"}},
		{" ext:Foo ,\n ext:Bar \r\n", []string{"ext:Foo", "ext:Bar"}},
		{"ext:Foo,ext:Foo", []string{"ext:Foo"}},
		{",,", nil},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseExceptionLabels(tt.input))
		})
	}
}

func TestParseSeverity(t *testing.T) {
	for _, s := range []string{"error", "Warning", " info "} {
		_, err := ParseSeverity(s)
		assert.NoError(t, err, s)
	}
	_, err := ParseSeverity("fatal")
	assert.ErrorIs(t, err, ErrInvalidSeverity)
}
