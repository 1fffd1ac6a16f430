package results

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// catalogFile is the YAML layout of a rule catalog.
type catalogFile struct {
	Tests []*Test `yaml:"tests"`
}

// DecodeCatalog reads test declarations from YAML. Unsupported severities are
// rejected.
func DecodeCatalog(r io.Reader) ([]*Test, error) {
	var doc catalogFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if err := validateAll(compact(doc.Tests)); err != nil {
		return nil, err
	}
	return compact(doc.Tests), nil
}

// LoadCatalog reads a YAML rule catalog file into a new Catalog.
func LoadCatalog(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()

	tests, err := DecodeCatalog(f)
	if err != nil {
		return nil, fmt.Errorf("load catalog %s: %w", path, err)
	}
	return NewCatalog(tests...)
}
