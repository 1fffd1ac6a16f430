package rules

import (
	"bytes"
	_ "embed"
	"fmt"

	"github.com/cdmgtri/niem-model-qa-sub000/results"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// DefaultCatalog returns a new catalog of the tests run by the built-in rules.
func DefaultCatalog() (*results.Catalog, error) {
	tests, err := results.DecodeCatalog(bytes.NewReader(defaultCatalog))
	if err != nil {
		return nil, fmt.Errorf("built-in catalog: %w", err)
	}
	return results.NewCatalog(tests...)
}
