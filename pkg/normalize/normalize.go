// Package normalize cleans extracted page text of scanning and OCR
// artifacts. Clean is pure and idempotent: cleaning already-clean text
// is a no-op.
package normalize

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	pipeRunRe       = regexp.MustCompile(`\|{2,}`)
	underscoreRunRe = regexp.MustCompile(`_{3,}`)
	hyphenRunRe     = regexp.MustCompile(`-{3,}`)
	pageLabelRe     = regexp.MustCompile(`(?i)\bpage\s+\d+\b`)
)

// Options controls the optional, lossy OCR character substitutions.
// SubstituteOCRChars rewrites every literal pipe to "I" and every "0"
// to "O". That heuristic repairs common Tesseract confusions on prose
// but corrupts legitimate numeric content ("2024" becomes "2O24"), so
// it is off by default.
type Options struct {
	SubstituteOCRChars bool
}

// Clean normalizes text with the default options.
func Clean(text string) string {
	return CleanWithOptions(text, Options{})
}

// CleanWithOptions normalizes extracted text: strips runs of scan-noise
// characters (pipes, underscores, hyphens), removes standalone
// "Page N" labels, drops isolated tokens with no letters or digits,
// and collapses all whitespace to single spaces.
func CleanWithOptions(text string, opts Options) string {
	if text == "" {
		return ""
	}

	text = pipeRunRe.ReplaceAllString(text, "")
	text = underscoreRunRe.ReplaceAllString(text, "")
	text = hyphenRunRe.ReplaceAllString(text, "")

	// Deleting one "Page N" label can butt another together out of the
	// surrounding words, so strip to a fixed point.
	for {
		next := pageLabelRe.ReplaceAllString(text, " ")
		if next == text {
			break
		}
		text = next
	}

	// Field-splitting both collapses whitespace and exposes isolated
	// punctuation tokens left behind by scan noise.
	fields := strings.Fields(text)
	kept := fields[:0]
	for _, f := range fields {
		if hasAlphanumeric(f) {
			kept = append(kept, f)
		}
	}
	out := strings.Join(kept, " ")

	if opts.SubstituteOCRChars {
		out = strings.ReplaceAll(out, "|", "I")
		out = strings.ReplaceAll(out, "0", "O")
	}

	return out
}

func hasAlphanumeric(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
