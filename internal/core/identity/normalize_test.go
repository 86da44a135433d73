package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Alice", "alice"},
		{"  Alice  ", "alice"},
		{"José", "jose"},
		{"Müller", "muller"},
		{"Two   Words", "two words"},
		{"0xABCdef", "0xabcdef"},
		{"", ""},
		{"   ", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Normalize(tc.in), "input %q", tc.in)
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	for _, s := range []string{"José García", "  MIXED  case ", "plain"} {
		once := Normalize(s)
		assert.Equal(t, once, Normalize(once))
	}
}
