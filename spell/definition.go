package spell

import (
	"context"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	parenCodeRe = regexp.MustCompile(`\([^()\s]+\)`)
	urlRe       = regexp.MustCompile(`(?i)\b(?:https?|ftp)://\S+|\bwww\.\S+`)
)

// Range is a character (rune) span [Start, End) of a word in the checked text.
type Range struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Misspelling is an unknown word of a definition and every place it occurs.
type Misspelling struct {
	Word   string  `json:"word"`
	Ranges []Range `json:"ranges"`
}

type word struct {
	text string
	span Range
}

// blank replaces a match with as many spaces as it has runes, keeping the
// rune offsets of the rest of the text.
func blank(m string) string {
	return strings.Repeat(" ", utf8.RuneCountInString(m))
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

// words splits text into its checkable words with their rune spans.
// Parenthetical codes such as "(FIPS)" and URLs are skipped.
func words(text string) []word {
	text = parenCodeRe.ReplaceAllStringFunc(text, blank)
	text = urlRe.ReplaceAllStringFunc(text, blank)

	var (
		out   []word
		buf   strings.Builder
		start int
		pos   int
	)
	flush := func() {
		if buf.Len() > 0 {
			out = append(out, word{text: buf.String(), span: Range{Start: start, End: pos}})
			buf.Reset()
		}
	}
	for _, r := range text {
		if isWordRune(r) {
			if buf.Len() == 0 {
				start = pos
			}
			buf.WriteRune(r)
		} else {
			flush()
		}
		pos++
	}
	flush()
	return out
}

// Tokens returns the distinct checkable words of free text, in order of first
// appearance. Parenthetical codes such as "(FIPS)", URLs and punctuation are
// dropped, as are plain numbers.
func Tokens(text string) []string {
	var tokens []string
	seen := make(map[string]bool)
	for _, w := range words(text) {
		if seen[w.text] || isNumber(w.text) {
			continue
		}
		seen[w.text] = true
		tokens = append(tokens, w.text)
	}
	return tokens
}

func isNumber(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// Occurrences returns every whole-word rune span of w in text.
func Occurrences(text, w string) []Range {
	var ranges []Range
	for _, found := range words(text) {
		if found.text == w {
			ranges = append(ranges, found.span)
		}
	}
	return ranges
}

// CheckDefinition returns the words of text that are neither dictionary words
// nor local terms of prefix, each with the spans where it occurs in text.
func (c *Checker) CheckDefinition(ctx context.Context, prefix, text string) ([]Misspelling, error) {
	var out []Misspelling
	for _, token := range Tokens(text) {
		if c.CheckWord(token) {
			continue
		}
		local, err := c.isLocalTerm(ctx, prefix, token)
		if err != nil {
			return nil, err
		}
		if local {
			continue
		}
		out = append(out, Misspelling{Word: token, Ranges: Occurrences(text, token)})
	}
	return out, nil
}
