package spell

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	lowerUpperRe  = regexp.MustCompile(`([a-z0-9])([A-Z])`)
	acronymRe     = regexp.MustCompile(`([A-Z0-9]+)([A-Z][a-z])`)
	idSuffixRe    = regexp.MustCompile(`([A-Z])(ID)(\s|$)`)
	dashRe        = regexp.MustCompile(`(^|\s)-+|-+(\s|$)`)
	rangeRe       = regexp.MustCompile(`\d*To\d+|\d+To\d*`)
	numericTypeRe = regexp.MustCompile(`(Integer|Decimal)\d+`)
)

// markerBase is the first private-use rune standing in for a special term
// while the rest of the name is split.
const markerBase = 0xE000

// Segment splits an identifier into the words to check. Special terms are
// kept whole, in place, and are never split by the camel-case rules.
//
//	Segment("StateFIPSCode", []string{"FIPS"}) // ["State" "FIPS" "Code"]
//	Segment("BiometricID", nil)                // ["Biometric" "ID"]
func Segment(name string, specialTerms []string) []string {
	var protected []string
	for _, term := range specialTerms {
		if term == "" || !strings.Contains(name, term) {
			continue
		}
		marker := string(rune(markerBase + len(protected)))
		protected = append(protected, term)
		name = strings.ReplaceAll(name, term, " "+marker+" ")
	}

	name = lowerUpperRe.ReplaceAllString(name, "$1 $2")
	name = acronymRe.ReplaceAllString(name, "$1 $2")
	name = idSuffixRe.ReplaceAllString(name, "$1 $2$3")
	name = strings.ReplaceAll(name, "_", " ")
	name = dashRe.ReplaceAllString(name, " ")
	name = rangeRe.ReplaceAllString(name, " ")
	name = numericTypeRe.ReplaceAllString(name, " ")

	terms := strings.Fields(name)
	for i, term := range terms {
		if idx, ok := markerIndex(term); ok && idx < len(protected) {
			terms[i] = protected[idx]
		}
	}
	return terms
}

func markerIndex(s string) (int, bool) {
	r, size := utf8.DecodeRuneInString(s)
	if size != len(s) || r < markerBase || r > 0xF8FF {
		return 0, false
	}
	return int(r - markerBase), true
}
