// Package plate extracts vehicle license-plate candidates from OCR text and
// ranks them by pattern specificity and source confidence.
//
// The extractor holds no mutable state. A single *Extractor may be shared by
// any number of goroutines.
package plate

import (
	"errors"
	"fmt"
	"sort"
	"unicode/utf8"

	"github.com/rs/zerolog"
)

const (
	DefaultMaxInputLength   = 10000
	DefaultSourceConfidence = 100.0
	TopCandidates           = 5

	minPlateLength   = 5
	patternWeight    = 0.7
	sourceConfWeight = 0.3
)

var ErrInputTooLong = errors.New("plate: input text too long")

// DedupPolicy decides which match survives when several matches share a text.
type DedupPolicy string

const (
	// DedupFirstMatch keeps the first match in variant-then-rule order.
	DedupFirstMatch DedupPolicy = "first_match"
	// DedupMaxConfidence keeps the match with the highest rule confidence.
	DedupMaxConfidence DedupPolicy = "max_confidence"
)

func ParseDedupPolicy(raw string) (DedupPolicy, error) {
	switch DedupPolicy(raw) {
	case "", DedupFirstMatch:
		return DedupFirstMatch, nil
	case DedupMaxConfidence:
		return DedupMaxConfidence, nil
	}
	return "", fmt.Errorf("unknown dedup policy %q", raw)
}

type Candidate struct {
	Text       string  `json:"text"`
	Pattern    string  `json:"pattern"`
	Confidence int     `json:"confidence"`
	Position   int     `json:"position"`
	Variant    Variant `json:"variant"`
}

type ScoredCandidate struct {
	Candidate
	SourceLabel      string  `json:"source_label"`
	SourceConfidence float64 `json:"source_confidence"`
	FinalScore       float64 `json:"final_score"`
}

// TextSource is one OCR output fed to ExtractBest. A nil Confidence means
// DefaultSourceConfidence.
type TextSource struct {
	Text       string
	Label      string
	Confidence *float64
}

// Result holds the best candidate, the first TopCandidates entries of the
// ranking, and the size of the whole ranking.
type Result struct {
	Best  ScoredCandidate   `json:"best_candidate"`
	Top   []ScoredCandidate `json:"top_candidates"`
	Total int               `json:"total_candidates"`
}

type Extractor struct {
	maxInputLength int
	dedup          DedupPolicy
	log            zerolog.Logger
}

type Option func(*Extractor)

// WithMaxInputLength bounds the number of runes accepted per text. Values
// below one leave the default in place.
func WithMaxInputLength(n int) Option {
	return func(e *Extractor) {
		if n > 0 {
			e.maxInputLength = n
		}
	}
}

func WithDedupPolicy(p DedupPolicy) Option {
	return func(e *Extractor) {
		if p != "" {
			e.dedup = p
		}
	}
}

func WithLogger(log zerolog.Logger) Option {
	return func(e *Extractor) {
		e.log = log
	}
}

func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{
		maxInputLength: DefaultMaxInputLength,
		dedup:          DedupFirstMatch,
		log:            zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var defaultExtractor = NewExtractor()

// ExtractFromText runs the default extractor over a single text.
func ExtractFromText(raw string) ([]Candidate, error) {
	return defaultExtractor.ExtractFromText(raw)
}

// ExtractBest runs the default extractor over several sources.
func ExtractBest(sources []TextSource) (*Result, error) {
	return defaultExtractor.ExtractBest(sources)
}

// ExtractFromText returns the distinct plate candidates found in raw, sorted
// by descending confidence. Candidates with equal confidence keep the order
// in which they were found.
func (e *Extractor) ExtractFromText(raw string) ([]Candidate, error) {
	if n := utf8.RuneCountInString(raw); n > e.maxInputLength {
		return nil, fmt.Errorf("%w: %d runes, limit %d", ErrInputTooLong, n, e.maxInputLength)
	}

	variants := Normalize(raw)
	if len(variants) == 0 {
		return []Candidate{}, nil
	}

	var found []Candidate
	for _, v := range variants {
		found = append(found, e.match(v)...)
	}

	unique := e.dedupe(found)
	sort.SliceStable(unique, func(i, j int) bool {
		return unique[i].Confidence > unique[j].Confidence
	})

	return unique, nil
}

func (e *Extractor) match(v TextVariant) []Candidate {
	var out []Candidate
	for _, rule := range rules {
		for _, loc := range rule.Pattern.FindAllStringIndex(v.Text, -1) {
			text := v.Text[loc[0]:loc[1]]
			if !isPlausible(text) {
				continue
			}
			out = append(out, Candidate{
				Text:       text,
				Pattern:    rule.Label,
				Confidence: rule.Confidence,
				Position:   loc[0],
				Variant:    v.Variant,
			})
			e.log.Debug().
				Str("text", text).
				Str("pattern", rule.Label).
				Str("variant", string(v.Variant)).
				Int("confidence", rule.Confidence).
				Msg("plate candidate")
		}
	}
	return out
}

// isPlausible rejects matches without both a letter and a digit, and matches
// shorter than minPlateLength.
func isPlausible(text string) bool {
	if len(text) < minPlateLength {
		return false
	}
	var hasLetter, hasDigit bool
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case c >= 'A' && c <= 'Z':
			hasLetter = true
		case c >= '0' && c <= '9':
			hasDigit = true
		}
	}
	return hasLetter && hasDigit
}

func (e *Extractor) dedupe(found []Candidate) []Candidate {
	index := make(map[string]int, len(found))
	unique := make([]Candidate, 0, len(found))
	for _, c := range found {
		i, seen := index[c.Text]
		if !seen {
			index[c.Text] = len(unique)
			unique = append(unique, c)
			continue
		}
		if e.dedup == DedupMaxConfidence && c.Confidence > unique[i].Confidence {
			unique[i] = c
		}
	}
	return unique
}

// ExtractBest extracts candidates from every source and ranks them together
// by FinalScore. The same text seen in two sources yields two entries. A nil
// Result and nil error mean that no source produced a candidate.
func (e *Extractor) ExtractBest(sources []TextSource) (*Result, error) {
	var all []ScoredCandidate
	for _, src := range sources {
		candidates, err := e.ExtractFromText(src.Text)
		if err != nil {
			return nil, fmt.Errorf("source %q: %w", src.Label, err)
		}

		sourceConf := DefaultSourceConfidence
		if src.Confidence != nil {
			sourceConf = *src.Confidence
		}

		for _, c := range candidates {
			all = append(all, ScoredCandidate{
				Candidate:        c,
				SourceLabel:      src.Label,
				SourceConfidence: sourceConf,
				FinalScore:       FinalScore(c.Confidence, sourceConf),
			})
		}
	}

	if len(all) == 0 {
		return nil, nil
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].FinalScore > all[j].FinalScore
	})

	top := all
	if len(top) > TopCandidates {
		top = top[:TopCandidates]
	}

	return &Result{
		Best:  all[0],
		Top:   top,
		Total: len(all),
	}, nil
}

// FinalScore blends pattern confidence (70%) with source confidence (30%).
func FinalScore(patternConfidence int, sourceConfidence float64) float64 {
	return float64(patternConfidence)*patternWeight + sourceConfidence*sourceConfWeight
}
