package plate

import "regexp"

// PatternRule describes one plate shape and the prior confidence of a match.
type PatternRule struct {
	Pattern    *regexp.Regexp
	Label      string
	Confidence int
}

const (
	LabelModern       = "peru-modern"
	LabelClassic      = "peru-classic"
	LabelNoHyphen     = "peru-no-hyphen"
	LabelGeneric      = "peru-generic"
	LabelAlphanumeric = "alphanumeric"
)

// rules are ordered from the most to the least specific shape. Every rule is
// applied to every variant; the order only decides which match is seen first.
var rules = []PatternRule{
	// X7I-962, ABC-123
	{Pattern: regexp.MustCompile(`[A-Z0-9]{3}-\d{3}`), Label: LabelModern, Confidence: 98},
	// A1A-123
	{Pattern: regexp.MustCompile(`[A-Z]\d[A-Z]-\d{3}`), Label: LabelClassic, Confidence: 97},
	// X7I962, separator lost by OCR
	{Pattern: regexp.MustCompile(`[A-Z0-9]{3}\d{3}`), Label: LabelNoHyphen, Confidence: 92},
	// AB-1234, ABC-123
	{Pattern: regexp.MustCompile(`[A-Z]{2,3}-\d{3,4}`), Label: LabelGeneric, Confidence: 85},
	{Pattern: regexp.MustCompile(`[A-Z0-9]{6,8}`), Label: LabelAlphanumeric, Confidence: 65},
}

// Rules returns a copy of the rule table in priority order.
func Rules() []PatternRule {
	out := make([]PatternRule, len(rules))
	copy(out, rules)
	return out
}
