// Package normalize cleans raw OCR text before pattern matching.
//
// Normalization is deterministic, idempotent, and never fails: garbage in
// yields a cleaned (possibly empty) string, so downstream extraction can
// still report every field as missing instead of aborting a batch.
package normalize

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

var (
	reCRLF       = regexp.MustCompile(`\r\n?`)
	reTabs       = regexp.MustCompile(`\t+`)
	reMultiSpace = regexp.MustCompile(` {2,}`)
	reMultiBlank = regexp.MustCompile(`\n{3,}`)

	// OCR digit confusions, applied only between digits so word-context
	// text (names, addresses) is left untouched.
	reOBetweenDigits = regexp.MustCompile(`(\d)[Oo](\d)`)
	reLBetweenDigits = regexp.MustCompile(`(\d)[lI](\d)`)

	reBoxNoise = regexp.MustCompile(`(?m)^\s*[_\-=]{3,}\s*$`)
)

// thaiDigits maps Thai numerals to their ASCII equivalents.
var thaiDigits = strings.NewReplacer(
	"๐", "0", "๑", "1", "๒", "2", "๓", "3", "๔", "4",
	"๕", "5", "๖", "6", "๗", "7", "๘", "8", "๙", "9",
)

// Normalize cleans raw OCR text: Unicode canonicalization, full-width and
// Thai digit folding, whitespace collapsing, and conservative fixes for
// digit-context OCR confusions. Line breaks are preserved because several
// extraction rules are positional.
func Normalize(s string) string {
	if s == "" {
		return s
	}

	s = norm.NFC.String(s)
	s = width.Narrow.String(s) // full-width digits and punctuation -> ASCII
	s = thaiDigits.Replace(s)
	s = stripControl(s)

	s = reCRLF.ReplaceAllString(s, "\n")
	s = reTabs.ReplaceAllString(s, " ")
	s = reMultiSpace.ReplaceAllString(s, " ")
	s = reBoxNoise.ReplaceAllString(s, "")
	s = reMultiBlank.ReplaceAllString(s, "\n\n")

	// trim trailing spaces on lines
	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}
	s = strings.Join(lines, "\n")
	s = reMultiBlank.ReplaceAllString(s, "\n\n")

	// Overlapping runs like "1O2O3" need repeated passes to reach a fixed
	// point, which keeps Normalize idempotent.
	for {
		t := reOBetweenDigits.ReplaceAllString(s, "${1}0${2}")
		t = reLBetweenDigits.ReplaceAllString(t, "${1}1${2}")
		if t == s {
			break
		}
		s = t
	}

	return strings.TrimSpace(s)
}

func stripControl(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\r' || r == '\t':
			return r
		case r < 0x20 || r == 0x7f:
			return -1
		case r == '\u200b' || r == '\ufeff': // zero-width noise from some engines
			return -1
		}
		return r
	}, s)
}
