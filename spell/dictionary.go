package spell

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
)

// Dictionary is a case-insensitive word set.
type Dictionary struct {
	words map[string]struct{}
}

// NewDictionary creates a dictionary holding words.
func NewDictionary(words ...string) *Dictionary {
	d := &Dictionary{words: make(map[string]struct{}, len(words))}
	d.Add(words...)
	return d
}

// fold returns the case-folded key for w. A Caser is stateful, so a fresh one
// is used per call.
func fold(w string) string {
	return cases.Fold().String(strings.TrimSpace(w))
}

// Add adds words.
func (d *Dictionary) Add(words ...string) {
	for _, w := range words {
		if k := fold(w); k != "" {
			d.words[k] = struct{}{}
		}
	}
}

// Remove removes words.
func (d *Dictionary) Remove(words ...string) {
	for _, w := range words {
		delete(d.words, fold(w))
	}
}

// Contains reports whether w is in the dictionary.
func (d *Dictionary) Contains(w string) bool {
	_, ok := d.words[fold(w)]
	return ok
}

// Len returns the number of distinct words.
func (d *Dictionary) Len() int {
	return len(d.words)
}

// ReadFrom reads a word list, one word per line. Hunspell .dic files are
// accepted: a leading word-count line is skipped and "/FLAGS" suffixes are
// dropped. Affix rules are not expanded. Blank lines and lines starting with
// "#" are ignored.
func (d *Dictionary) ReadFrom(r io.Reader) (int64, error) {
	scanner := bufio.NewScanner(r)
	var n int64
	first := true
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		n += int64(len(scanner.Bytes())) + 1
		if first {
			first = false
			if _, err := strconv.Atoi(line); err == nil {
				continue
			}
		}
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if i := strings.IndexByte(line, '/'); i >= 0 {
			line = line[:i]
		}
		d.Add(line)
	}
	if err := scanner.Err(); err != nil {
		return n, fmt.Errorf("read dictionary: %w", err)
	}
	return n, nil
}

// LoadDictionary reads a word list file.
func LoadDictionary(path string) (*Dictionary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dictionary: %w", err)
	}
	defer f.Close()

	d := NewDictionary()
	if _, err := d.ReadFrom(f); err != nil {
		return nil, err
	}
	return d, nil
}
