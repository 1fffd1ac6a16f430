package results

import (
	"errors"
	"fmt"
	"sync"
)

// ErrTestNotFound is returned when a test id is not declared in the catalog.
var ErrTestNotFound = errors.New("test not found")

// Catalog holds the declared tests indexed by id, listed in insertion order.
type Catalog struct {
	mu    sync.RWMutex
	tests []*Test
	index map[string]*Test
}

// NewCatalog creates a catalog holding tests. It fails on an invalid test.
func NewCatalog(tests ...*Test) (*Catalog, error) {
	c := &Catalog{index: make(map[string]*Test)}
	if err := c.Add(tests...); err != nil {
		return nil, err
	}
	return c, nil
}

// Add validates and adds tests. A test whose id is already declared replaces
// the existing one at its original position. Nothing is added when any test is
// invalid.
func (c *Catalog) Add(tests ...*Test) error {
	for _, t := range tests {
		if err := validate(t); err != nil {
			return err
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.index == nil {
		c.index = make(map[string]*Test)
	}
	for _, t := range tests {
		if len(t.ExceptionLabels) == 0 && t.Exceptions != "" {
			t.ExceptionLabels = ParseExceptionLabels(t.Exceptions)
		}
		if _, ok := c.index[t.ID]; ok {
			for i, existing := range c.tests {
				if existing.ID == t.ID {
					c.tests[i] = t
					break
				}
			}
		} else {
			c.tests = append(c.tests, t)
		}
		c.index[t.ID] = t
	}
	return nil
}

func validate(t *Test) error {
	if t == nil {
		return errors.New("nil test")
	}
	if t.ID == "" {
		return errors.New("test without id")
	}
	if !t.Severity.IsValid() {
		return fmt.Errorf("test %s: %w: %q", t.ID, ErrInvalidSeverity, t.Severity)
	}
	return nil
}

// Get returns the test with the given id.
func (c *Catalog) Get(id string) (*Test, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if t, ok := c.index[id]; ok {
		return t, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrTestNotFound, id)
}

// MustGet returns the test with the given id and panics when it is not
// declared. Referencing an undeclared test is a programming error.
func (c *Catalog) MustGet(id string) *Test {
	t, err := c.Get(id)
	if err != nil {
		panic(err)
	}
	return t
}

// Tests returns the declared tests in insertion order.
func (c *Catalog) Tests() []*Test {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*Test, len(c.tests))
	copy(out, c.tests)
	return out
}

// Len returns the number of declared tests.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.tests)
}

// Clear removes every test.
func (c *Catalog) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tests = nil
	c.index = make(map[string]*Test)
}

// ResetRuns returns every test to its not-ran state.
func (c *Catalog) ResetRuns() {
	for _, t := range c.Tests() {
		t.Reset()
	}
}
