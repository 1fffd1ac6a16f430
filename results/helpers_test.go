package results

import (
	"testing"
	"time"
)

type fakeObject struct {
	label    string
	prefix   string
	fields   map[string]string
	location [3]string
}

func (o *fakeObject) Label() string  { return o.label }
func (o *fakeObject) Prefix() string { return o.prefix }
func (o *fakeObject) Field(path string) string {
	return o.fields[path]
}
func (o *fakeObject) Location() (string, string, string) {
	return o.location[0], o.location[1], o.location[2]
}

func objects(labels ...string) []Object {
	out := make([]Object, len(labels))
	for i, l := range labels {
		prefix, _, _ := cut(l)
		out[i] = &fakeObject{label: l, prefix: prefix, fields: map[string]string{"name": l}}
	}
	return out
}

func cut(label string) (string, string, bool) {
	for i := 0; i < len(label); i++ {
		if label[i] == ':' {
			return label[:i], label[i+1:], true
		}
	}
	return "", label, false
}

// fixedClock makes the timer advance by step on every reading.
func fixedClock(t *testing.T, step time.Duration) {
	t.Helper()
	current := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	prev := now
	now = func() time.Time {
		current = current.Add(step)
		return current
	}
	t.Cleanup(func() { now = prev })
}
