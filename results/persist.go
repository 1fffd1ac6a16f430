package results

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cyberphone/json-canonicalization/go/src/webpki.org/jsoncanonicalizer"
)

// Marshal encodes the tests and their issues as a JSON array. Keys are in
// canonical (RFC 8785) order so that equal catalogs produce equal bytes.
func (c *Catalog) Marshal() ([]byte, error) {
	tests := c.Tests()
	records := make([]Test, len(tests))
	for i, t := range tests {
		records[i] = *t
		if records[i].Issues == nil {
			records[i].Issues = []*Issue{}
		}
	}

	data, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("marshal tests: %w", err)
	}
	canonical, err := jsoncanonicalizer.Transform(data)
	if err != nil {
		return nil, fmt.Errorf("canonicalize tests: %w", err)
	}

	var out bytes.Buffer
	if err := json.Indent(&out, canonical, "", "  "); err != nil {
		return nil, fmt.Errorf("indent tests: %w", err)
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}

// Save writes the catalog to path, creating parent directories as needed.
func (c *Catalog) Save(path string) error {
	data, err := c.Marshal()
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create results directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write results file: %w", err)
	}
	return nil
}

// Unmarshal decodes tests saved by Marshal into the catalog. With overwrite the
// catalog is cleared first; otherwise decoded tests replace tests with the same
// id and the rest are kept. Each issue is re-attached to the test it is nested
// in.
func (c *Catalog) Unmarshal(data []byte, overwrite bool) error {
	var tests []*Test
	if err := json.Unmarshal(data, &tests); err != nil {
		return fmt.Errorf("decode tests: %w", err)
	}

	for _, t := range tests {
		if t == nil {
			continue
		}
		kept := t.Issues[:0]
		for _, issue := range t.Issues {
			if issue == nil {
				continue
			}
			issue.TestID = t.ID
			issue.test = t
			kept = append(kept, issue)
		}
		t.Issues = kept
	}
	tests = compact(tests)

	if err := validateAll(tests); err != nil {
		return err
	}
	if overwrite {
		c.Clear()
	}
	return c.Add(tests...)
}

// Reload reads a file written by Save into the catalog.
func (c *Catalog) Reload(path string, overwrite bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read results file: %w", err)
	}
	return c.Unmarshal(data, overwrite)
}

func compact(tests []*Test) []*Test {
	out := tests[:0]
	for _, t := range tests {
		if t != nil {
			out = append(out, t)
		}
	}
	return out
}

func validateAll(tests []*Test) error {
	for _, t := range tests {
		if err := validate(t); err != nil {
			return err
		}
	}
	return nil
}
