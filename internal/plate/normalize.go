package plate

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type Variant string

const (
	VariantWithSpaces    Variant = "with_spaces"
	VariantWithoutSpaces Variant = "without_spaces"
)

type TextVariant struct {
	Variant Variant
	Text    string
}

// Normalize uppercases raw OCR text, drops everything except A-Z, 0-9, '-'
// and whitespace, and collapses whitespace runs into single spaces. It returns
// the cleaned text and a copy with all spaces removed, in that order. Nil is
// returned when nothing searchable is left.
//
// Uppercasing uses full case mapping, so letters such as 'ß' or 'ﬀ' expand
// to their ASCII forms before filtering.
func Normalize(raw string) []TextVariant {
	if raw == "" {
		return nil
	}

	// Casers keep state and must not be shared between goroutines.
	upper := cases.Upper(language.Und).String(raw)

	var b strings.Builder
	b.Grow(len(upper))
	for _, r := range upper {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		case isSpace(r):
			b.WriteByte(' ')
		}
	}

	cleaned := strings.Join(strings.Fields(b.String()), " ")
	if cleaned == "" {
		return nil
	}

	return []TextVariant{
		{Variant: VariantWithSpaces, Text: cleaned},
		{Variant: VariantWithoutSpaces, Text: strings.ReplaceAll(cleaned, " ", "")},
	}
}

// isSpace reports the usual OCR whitespace set: Unicode spaces plus the byte
// order mark, without NEL (U+0085).
func isSpace(r rune) bool {
	switch r {
	case '\uFEFF':
		return true
	case '\u0085':
		return false
	}
	return unicode.IsSpace(r)
}
