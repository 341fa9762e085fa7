package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePlate(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{raw: "", want: ""},
		{raw: "  ", want: ""},
		{raw: "X7I-962", want: "X7I962"},
		{raw: "x7i 962", want: "X7I962"},
		{raw: " ab-12\t34 ", want: "AB1234"},
		{raw: "X7I962", want: "X7I962"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizePlate(tt.raw))
		})
	}
}
