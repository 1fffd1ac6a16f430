package spell

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// CustomWords is the global allow/exclude list applied on top of the dictionary.
type CustomWords struct {
	Add          []string `yaml:"add"`
	Remove       []string `yaml:"remove"`
	SpecialTerms []string `yaml:"specialTerms"`
}

// LoadCustomWords reads a YAML custom word file.
func LoadCustomWords(path string) (*CustomWords, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read custom words: %w", err)
	}
	var cw CustomWords
	if err := yaml.Unmarshal(data, &cw); err != nil {
		return nil, fmt.Errorf("parse custom words: %w", err)
	}
	return &cw, nil
}
