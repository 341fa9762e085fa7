package plate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatPtr(v float64) *float64 { return &v }

func texts(candidates []Candidate) []string {
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, c.Text)
	}
	return out
}

func TestExtractFromText_EmptyInput(t *testing.T) {
	for _, raw := range []string{"", "   ", "\n\r\t ", "!!! ???"} {
		got, err := ExtractFromText(raw)
		require.NoError(t, err)
		assert.NotNil(t, got, "input %q", raw)
		assert.Empty(t, got, "input %q", raw)
	}
}

func TestExtractFromText_ModernFormat(t *testing.T) {
	got, err := ExtractFromText("X7I-962")
	require.NoError(t, err)
	require.Len(t, got, 1)

	assert.Equal(t, "X7I-962", got[0].Text)
	assert.Equal(t, LabelModern, got[0].Pattern)
	assert.Equal(t, 98, got[0].Confidence)
	assert.Equal(t, 0, got[0].Position)
	assert.Equal(t, VariantWithSpaces, got[0].Variant)
}

func TestExtractFromText_ClassicFormatKeepsFirstRule(t *testing.T) {
	assert.True(t, rules[0].Pattern.MatchString("A1A-123"))
	assert.True(t, rules[1].Pattern.MatchString("A1A-123"))

	got, err := ExtractFromText("A1A-123")
	require.NoError(t, err)
	require.Len(t, got, 1)

	// the modern rule is tried first and wins the tie on text
	assert.Equal(t, "A1A-123", got[0].Text)
	assert.Equal(t, LabelModern, got[0].Pattern)
	assert.Equal(t, 98, got[0].Confidence)
}

func TestExtractFromText_NoisyInputSplitBySpace(t *testing.T) {
	got, err := ExtractFromText("   plate: x7i 962 !! ")
	require.NoError(t, err)
	require.NotEmpty(t, got)

	assert.Equal(t, "X7I962", got[0].Text)
	assert.Equal(t, LabelNoHyphen, got[0].Pattern)
	assert.Equal(t, 92, got[0].Confidence)
	assert.Equal(t, VariantWithoutSpaces, got[0].Variant)
	assert.Equal(t, 5, got[0].Position)

	assert.Contains(t, texts(got), "PLATEX7I")
}

func TestExtractFromText_TwoPlates(t *testing.T) {
	got, err := ExtractFromText("ABC-123 XYZ-789")
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(got), 2)

	assert.ElementsMatch(t, []string{"ABC-123", "XYZ-789"}, texts(got[:2]))
	assert.Equal(t, 98, got[0].Confidence)
	assert.Equal(t, 98, got[1].Confidence)

	counts := map[string]int{}
	for _, c := range got {
		counts[c.Text]++
	}
	assert.Equal(t, 1, counts["ABC-123"])
	assert.Equal(t, 1, counts["XYZ-789"])
}

func TestExtractFromText_RejectsSingleClassStrings(t *testing.T) {
	for _, raw := range []string{"ABCDEF", "123456", "ABCDEFGH", "12345678", "ABCDEF\nGHIJKL"} {
		got, err := ExtractFromText(raw)
		require.NoError(t, err)
		assert.Empty(t, got, "input %q", raw)
	}
}

func TestExtractFromText_UnicodeInput(t *testing.T) {
	got, err := ExtractFromText("ﬀ1-234 ǆ12-345")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "FF1-234", got[0].Text)
	assert.Equal(t, 98, got[0].Confidence)

	got, err = ExtractFromText("straße 12ab-345")
	require.NoError(t, err)
	require.NotEmpty(t, got)
	assert.Equal(t, "2AB-345", got[0].Text)
	assert.Contains(t, texts(got), "STRASSE1")
	assert.NotContains(t, texts(got), "STRAE12A")

	got, err = ExtractFromText("ABC\uFEFF-123 x")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "ABC-123", got[0].Text)
	assert.Equal(t, VariantWithoutSpaces, got[0].Variant)
	assert.Equal(t, 0, got[0].Position)
}

func TestExtractFromText_InputTooLong(t *testing.T) {
	_, err := ExtractFromText(strings.Repeat("A", DefaultMaxInputLength+1))
	assert.ErrorIs(t, err, ErrInputTooLong)

	e := NewExtractor(WithMaxInputLength(10))
	_, err = e.ExtractFromText("ABC-123 XYZ-789")
	assert.ErrorIs(t, err, ErrInputTooLong)

	got, err := e.ExtractFromText("ABC-123")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestExtractFromText_Invariants(t *testing.T) {
	inputs := []string{
		"X7I-962",
		"ABC-123 XYZ-789",
		"placa\nB7K 44-1\r\nAB-1234 foo",
		"   plate: x7i 962 !! ",
		"ZZ9-1234 QWE123 A1B2C3D4E5 L0L-000",
		"ñandú ABC·123 déjà-vu 9X9-999",
	}

	for _, raw := range inputs {
		got, err := ExtractFromText(raw)
		require.NoError(t, err)

		seen := map[string]bool{}
		for i, c := range got {
			assert.GreaterOrEqual(t, c.Confidence, 1, raw)
			assert.LessOrEqual(t, c.Confidence, 98, raw)
			assert.GreaterOrEqual(t, len(c.Text), 5, raw)
			assert.True(t, strings.ContainsAny(c.Text, "ABCDEFGHIJKLMNOPQRSTUVWXYZ"), c.Text)
			assert.True(t, strings.ContainsAny(c.Text, "0123456789"), c.Text)
			assert.False(t, seen[c.Text], "duplicate %q", c.Text)
			seen[c.Text] = true
			if i > 0 {
				assert.GreaterOrEqual(t, got[i-1].Confidence, c.Confidence, raw)
			}
		}

		again, err := ExtractFromText(raw)
		require.NoError(t, err)
		assert.Equal(t, got, again)
	}
}

func TestDedupe_Policies(t *testing.T) {
	found := []Candidate{
		{Text: "X7I962", Pattern: LabelAlphanumeric, Confidence: 65, Position: 0, Variant: VariantWithSpaces},
		{Text: "AB-123", Pattern: LabelGeneric, Confidence: 85, Position: 7, Variant: VariantWithSpaces},
		{Text: "X7I962", Pattern: LabelNoHyphen, Confidence: 92, Position: 3, Variant: VariantWithoutSpaces},
	}

	first := NewExtractor().dedupe(found)
	require.Len(t, first, 2)
	assert.Equal(t, 65, first[0].Confidence)
	assert.Equal(t, LabelAlphanumeric, first[0].Pattern)

	best := NewExtractor(WithDedupPolicy(DedupMaxConfidence)).dedupe(found)
	require.Len(t, best, 2)
	assert.Equal(t, "X7I962", best[0].Text)
	assert.Equal(t, 92, best[0].Confidence)
	assert.Equal(t, VariantWithoutSpaces, best[0].Variant)
	assert.Equal(t, "AB-123", best[1].Text)
}

func TestExtractBest_ScoresAndRanks(t *testing.T) {
	got, err := ExtractBest([]TextSource{
		{Text: "ABC-123", Label: "cam1", Confidence: floatPtr(80)},
		{Text: "no plate here", Label: "cam2", Confidence: floatPtr(100)},
	})
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, "ABC-123", got.Best.Text)
	assert.Equal(t, "cam1", got.Best.SourceLabel)
	assert.Equal(t, 80.0, got.Best.SourceConfidence)
	assert.InDelta(t, 92.6, got.Best.FinalScore, 1e-9)
	require.Len(t, got.Top, 1)
	assert.Equal(t, 1, got.Total)
	assert.Equal(t, got.Best, got.Top[0])
}

func TestExtractBest_NoResult(t *testing.T) {
	got, err := ExtractBest(nil)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = ExtractBest([]TextSource{
		{Text: "", Label: "a"},
		{Text: "   ", Label: "b"},
		{Text: "nothing to see", Label: "c"},
	})
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestExtractBest_KeepsProvenanceAcrossSources(t *testing.T) {
	got, err := ExtractBest([]TextSource{
		{Text: "X7I-962", Label: "frame-1", Confidence: floatPtr(60)},
		{Text: "X7I-962", Label: "frame-2"},
	})
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Len(t, got.Top, 2)

	assert.Equal(t, "frame-2", got.Top[0].SourceLabel)
	assert.Equal(t, DefaultSourceConfidence, got.Top[0].SourceConfidence)
	assert.InDelta(t, 98.6, got.Top[0].FinalScore, 1e-9)
	assert.Equal(t, "frame-1", got.Top[1].SourceLabel)
	assert.InDelta(t, 86.6, got.Top[1].FinalScore, 1e-9)
}

func TestExtractBest_TopIsBoundedAndSorted(t *testing.T) {
	got, err := ExtractBest([]TextSource{
		{Text: "AAA-111 BBB-222 CCC-333", Label: "a", Confidence: floatPtr(50)},
		{Text: "DDD-444 EEE-555 FFF-666", Label: "b", Confidence: floatPtr(90)},
	})
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Len(t, got.Top, TopCandidates)
	assert.Equal(t, 10, got.Total)

	for i, c := range got.Top {
		assert.InDelta(t, FinalScore(c.Confidence, c.SourceConfidence), c.FinalScore, 1e-9)
		if i > 0 {
			assert.GreaterOrEqual(t, got.Top[i-1].FinalScore, c.FinalScore)
		}
	}
	assert.Equal(t, "b", got.Best.SourceLabel)
	assert.Equal(t, "DDD-444", got.Best.Text)
}

func TestExtractBest_PropagatesInputTooLong(t *testing.T) {
	e := NewExtractor(WithMaxInputLength(8))
	_, err := e.ExtractBest([]TextSource{
		{Text: "ABC-123", Label: "ok"},
		{Text: "ABC-123 XYZ-789", Label: "big"},
	})
	assert.ErrorIs(t, err, ErrInputTooLong)
	assert.Contains(t, err.Error(), `"big"`)
}

func TestParseDedupPolicy(t *testing.T) {
	tests := []struct {
		raw     string
		want    DedupPolicy
		wantErr bool
	}{
		{raw: "", want: DedupFirstMatch},
		{raw: "first_match", want: DedupFirstMatch},
		{raw: "max_confidence", want: DedupMaxConfidence},
		{raw: "best", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseDedupPolicy(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRules_OrderAndCopy(t *testing.T) {
	got := Rules()
	require.Len(t, got, 5)
	for i := 1; i < len(got); i++ {
		assert.Greater(t, got[i-1].Confidence, got[i].Confidence)
	}

	got[0].Confidence = 1
	assert.Equal(t, 98, rules[0].Confidence)
}
