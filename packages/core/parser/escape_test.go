package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnescape(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "plain", input: "application/json", expected: "application/json"},
		{name: "escaped json", input: `{\"k\":\"v\"}`, expected: `{"k":"v"}`},
		{name: "escaped backslash", input: `a\\b`, expected: `a\b`},
		{name: "escaped slash", input: `a\/b`, expected: `a/b`},
		{name: "control characters", input: `a\nb\tc\rd`, expected: "a\nb\tc\rd"},
		{name: "unknown sequence kept", input: `a\qb`, expected: `a\qb`},
		{name: "single quote", input: `it\'s`, expected: `it's`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Unescape(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestUnescape_TrailingBackslash(t *testing.T) {
	_, err := Unescape(`abc\`)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrGrammar)
}

func TestUnescapeIsLeftInverseOfEscape(t *testing.T) {
	inputs := []string{
		``,
		`plain`,
		`"quoted"`,
		`back\slash`,
		`\\`,
		`\"`,
		`{"version":"1.0.0","client":"go"}`,
		"multi\nline\twith\rcontrols",
		`mixed 'single' and "double" \ quotes`,
		`trailing\`,
		`\n literal backslash-n`,
	}

	for _, s := range inputs {
		got, err := Unescape(Escape(s))
		require.NoError(t, err, "input %q", s)
		assert.Equal(t, s, got)
	}
}
