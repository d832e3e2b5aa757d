// Package classifier relates an article title to its full text through an
// ordered set of heuristics.
package classifier

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/impresso/impresso-linguistic-processing/internal/domain"
)

const (
	// ellipsisMarker is the three-character suffix OCR layout keeps when a
	// headline is cut off before the body repeats it in full.
	ellipsisMarker = "..."
	// minInfixTitleLength guards the infix check: only titles long enough
	// to be unlikely accidental substrings qualify.
	minInfixTitleLength = 20
)

// placeholderTitles are upstream sentinels for articles without a real
// extracted title. Compared against the trimmed, uppercased title.
var placeholderTitles = map[string]bool{
	"UNKNOWN":          true,
	"UNTITLED":         true,
	"UNTITLED ARTICLE": true,
	"UNTITLED AD":      true,
}

// advertisementPattern matches the recurring advertisement boilerplate
// headlines ("adv. 3 page 2", "annonce 3 page 2", "anzeige 3 seite 2"),
// case-insensitively and tolerant of OCR whitespace.
var advertisementPattern = regexp.MustCompile(
	`(?i)^\s*(?:adv(?:ertisement)?s?\.?|annonces?|anzeigen?)\s*\d+\s*(?:page|seite)\s*\d+\s*$`,
)

// Classify relates title to fullText. It is a pure function: identical
// inputs always yield the identical relation. Callers invoke it only for
// records with a non-empty title.
//
// The heuristics run in a fixed order and short-circuit on the first match:
// placeholder, advertisement boilerplate, verbatim prefix, ellipsis-stripped
// prefix, title longer than text, alphanumeric prefix, alphanumeric infix.
// Reaching the end without a match is a legitimate unclassified outcome.
func Classify(title, fullText string) domain.TitleRelation {
	rel := domain.TitleRelation{}

	normalized := strings.ToUpper(strings.TrimSpace(title))
	if placeholderTitles[normalized] {
		rel.Unknown = flag()
		return rel
	}

	if advertisementPattern.MatchString(title) {
		rel.Advertisement = flag()
		return rel
	}

	if strings.HasPrefix(fullText, title) {
		rel.ExactPrefix = true
		return rel
	}

	// A cut-off headline may still open the body verbatim once the marker
	// is stripped. The ellipsis flag survives whichever check fires later.
	effective := title
	if strings.HasSuffix(title, ellipsisMarker) {
		effective = strings.TrimSuffix(title, ellipsisMarker)
		rel.Ellipsis = flag()
		if strings.HasPrefix(fullText, effective) {
			rel.ExactPrefix = true
			return rel
		}
	}

	// Lengths are characters, not bytes; accented corpora would otherwise
	// shift the comparison.
	if utf8.RuneCountInString(effective) > utf8.RuneCountInString(fullText) {
		rel.TitleLonger = flag()
		return rel
	}

	alnumTitle := stripNonAlnum(effective)
	alnumText := stripNonAlnum(fullText)
	if strings.HasPrefix(alnumText, alnumTitle) {
		rel.AlnumPrefix = flag()
		return rel
	}

	// The infix check is deliberately restrictive: short or single-word
	// titles occur mid-text too often to be meaningful.
	if hasInteriorSpace(title) && utf8.RuneCountInString(title) >= minInfixTitleLength {
		if strings.Contains(alnumText, alnumTitle) {
			rel.AlnumInfix = flag()
			return rel
		}
	}

	return rel
}

// stripNonAlnum removes every rune that is not a Unicode letter or digit.
// Case is preserved.
func stripNonAlnum(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// hasInteriorSpace reports whether s contains whitespace somewhere other
// than its edges.
func hasInteriorSpace(s string) bool {
	return strings.ContainsFunc(strings.TrimSpace(s), unicode.IsSpace)
}

func flag() *bool {
	t := true
	return &t
}
