package plate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []TextVariant
	}{
		{name: "empty", raw: "", want: nil},
		{name: "only whitespace", raw: " \n\r\t ", want: nil},
		{name: "only punctuation", raw: "!!: ?", want: nil},
		{
			name: "noise around split plate",
			raw:  "   plate: x7i 962 !! ",
			want: []TextVariant{
				{Variant: VariantWithSpaces, Text: "PLATE X7I 962"},
				{Variant: VariantWithoutSpaces, Text: "PLATEX7I962"},
			},
		},
		{
			name: "line breaks collapse to one space",
			raw:  "abc-\r\n\r\n123\nxyz",
			want: []TextVariant{
				{Variant: VariantWithSpaces, Text: "ABC- 123 XYZ"},
				{Variant: VariantWithoutSpaces, Text: "ABC-123XYZ"},
			},
		},
		{
			name: "non ascii letters dropped",
			raw:  "Ñu·A1A-123",
			want: []TextVariant{
				{Variant: VariantWithSpaces, Text: "UA1A-123"},
				{Variant: VariantWithoutSpaces, Text: "UA1A-123"},
			},
		},
		{
			name: "full case mapping expands ligatures and sharp s",
			raw:  "ﬀ1-234 straße",
			want: []TextVariant{
				{Variant: VariantWithSpaces, Text: "FF1-234 STRASSE"},
				{Variant: VariantWithoutSpaces, Text: "FF1-234STRASSE"},
			},
		},
		{
			name: "titlecase digraph has no ascii form",
			raw:  "ǆ12-345",
			want: []TextVariant{
				{Variant: VariantWithSpaces, Text: "12-345"},
				{Variant: VariantWithoutSpaces, Text: "12-345"},
			},
		},
		{
			name: "byte order mark is whitespace",
			raw:  "abc\uFEFF-123",
			want: []TextVariant{
				{Variant: VariantWithSpaces, Text: "ABC -123"},
				{Variant: VariantWithoutSpaces, Text: "ABC-123"},
			},
		},
		{
			name: "next line is dropped",
			raw:  "abc\u0085123",
			want: []TextVariant{
				{Variant: VariantWithSpaces, Text: "ABC123"},
				{Variant: VariantWithoutSpaces, Text: "ABC123"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.raw))
		})
	}
}
