package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kinds(tokens []Token) []TokenKind {
	out := make([]TokenKind, len(tokens))
	for i, t := range tokens {
		out[i] = t.Kind
	}
	return out
}

func TestTokenize_Simple(t *testing.T) {
	tokens, err := Tokenize(`curl -X POST https://api.example.com/users`)
	require.NoError(t, err)
	require.Len(t, tokens, 2)

	assert.Equal(t, TokenFlag, tokens[0].Kind)
	assert.Equal(t, "-X", tokens[0].Name)
	assert.Equal(t, "POST", tokens[0].Value)
	assert.True(t, tokens[0].HasValue)
	assert.True(t, tokens[0].Supported())

	assert.Equal(t, TokenPositional, tokens[1].Kind)
	assert.Equal(t, "https://api.example.com/users", tokens[1].Value)
}

func TestTokenize_FlagValueForms(t *testing.T) {
	tests := []struct {
		name  string
		input string
		flag  string
		value string
	}{
		{name: "attached short", input: `curl -HAccept:x u`, flag: "-H", value: "Accept:x"},
		{name: "separate short", input: `curl -H 'Accept: x' u`, flag: "-H", value: "Accept: x"},
		{name: "long with equals", input: `curl --header=Accept:x u`, flag: "--header", value: "Accept:x"},
		{name: "long separate", input: `curl --header "Accept: x" u`, flag: "--header", value: "Accept: x"},
		{name: "value starting with dash", input: `curl -d '-name' u`, flag: "-d", value: "-name"},
		{name: "bundled booleans then value", input: `curl -sLXPUT u`, flag: "-X", value: "PUT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := Tokenize(tt.input)
			require.NoError(t, err)

			var found *Token
			for i := range tokens {
				if tokens[i].Name == tt.flag {
					found = &tokens[i]
				}
			}
			require.NotNil(t, found, "flag %s not found in %+v", tt.flag, tokens)
			assert.Equal(t, tt.value, found.Value)

			last := tokens[len(tokens)-1]
			assert.Equal(t, TokenPositional, last.Kind)
			assert.Equal(t, "u", last.Value)
		})
	}
}

func TestTokenize_BooleanFlagsDoNotSwallowURL(t *testing.T) {
	tokens, err := Tokenize(`curl -L -k https://api.example.com/v1/user-profile`)
	require.NoError(t, err)
	assert.Equal(t, []TokenKind{TokenFlag, TokenFlag, TokenPositional}, kinds(tokens))
	assert.Equal(t, "https://api.example.com/v1/user-profile", tokens[2].Value)
}

func TestTokenize_QuotedFlags(t *testing.T) {
	tests := []struct {
		name  string
		input string
		flag  string
		value string
	}{
		{name: "double quoted short", input: `curl "-X" POST https://x.example.com`, flag: "-X", value: "POST"},
		{name: "single quoted long with equals", input: `curl https://x.example.com '--data={"a":1}'`, flag: "--data", value: `{"a":1}`},
		{name: "quote starts mid flag", input: `curl -'H' 'A: b' https://x.example.com`, flag: "-H", value: "A: b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := Tokenize(tt.input)
			require.NoError(t, err)
			require.Len(t, tokens, 2)

			var flag Token
			for _, tok := range tokens {
				if tok.Kind == TokenFlag {
					flag = tok
				} else {
					assert.Equal(t, "https://x.example.com", tok.Value)
				}
			}
			assert.Equal(t, tt.flag, flag.Name)
			assert.Equal(t, tt.value, flag.Value)
		})
	}
}

func TestTokenize_DashValueIsNotAFlag(t *testing.T) {
	tokens, err := Tokenize(`curl -C - -d '-1' https://x.example.com`)
	require.NoError(t, err)
	assert.Equal(t, []TokenKind{TokenFlag, TokenFlag, TokenPositional}, kinds(tokens))
	assert.Equal(t, "-", tokens[0].Value)
	assert.Equal(t, "-1", tokens[1].Value)
	assert.Equal(t, "https://x.example.com", tokens[2].Value)
}

func TestTokenize_Quoting(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "double inside single", input: `curl -d '{"a":"b"}' u`, expected: `{"a":"b"}`},
		{name: "single inside double", input: `curl -d "it's" u`, expected: `it's`},
		{name: "escaped double inside double", input: `curl -d "{\"k\":\"v\"}" u`, expected: `{"k":"v"}`},
		{name: "backslash kept in single", input: `curl -d '{\"k\"}' u`, expected: `{\"k\"}`},
		{name: "unknown escape kept in double", input: `curl -d "a\nb" u`, expected: `a\nb`},
		{name: "adjacent quoted parts join", input: `curl -d 'a'"b"c u`, expected: `abc`},
		{name: "bare escape", input: `curl -d a\ b u`, expected: `a b`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := Tokenize(tt.input)
			require.NoError(t, err)
			require.Len(t, tokens, 2)
			assert.Equal(t, tt.expected, tokens[0].Value)
		})
	}
}

func TestTokenize_LineContinuations(t *testing.T) {
	input := "curl \\\n  -X PATCH \\\r\n  -H \"Accept: application/json\"\\\n  https://example.com"
	tokens, err := Tokenize(input)
	require.NoError(t, err)
	require.Len(t, tokens, 3)
	assert.Equal(t, "PATCH", tokens[0].Value)
	assert.Equal(t, "Accept: application/json", tokens[1].Value)
	assert.Equal(t, "https://example.com", tokens[2].Value)
}

func TestTokenize_Comments(t *testing.T) {
	input := "# fetch the user\n\n  # second line\ncurl https://example.com # trailing\n"
	tokens, err := Tokenize(input)
	require.NoError(t, err)
	assert.Equal(t, []TokenKind{TokenComment, TokenComment, TokenPositional, TokenComment}, kinds(tokens))
	assert.Equal(t, " fetch the user", tokens[0].Value)
	assert.Equal(t, " trailing", tokens[3].Value)
}

func TestTokenize_HashInsideWordIsLiteral(t *testing.T) {
	tokens, err := Tokenize(`curl https://example.com/page#section`)
	require.NoError(t, err)
	require.Len(t, tokens, 1)
	assert.Equal(t, "https://example.com/page#section", tokens[0].Value)
}

func TestTokenize_EndOfOptions(t *testing.T) {
	tokens, err := Tokenize(`curl -- -weird-host`)
	require.NoError(t, err)
	require.Len(t, tokens, 1)
	assert.Equal(t, TokenPositional, tokens[0].Kind)
	assert.Equal(t, "-weird-host", tokens[0].Value)
}

func TestTokenize_IgnoredFlags(t *testing.T) {
	tokens, err := Tokenize(`curl -s -o out.json --compressed --max-time 5 https://example.com`)
	require.NoError(t, err)
	assert.Equal(t, []TokenKind{TokenFlag, TokenFlag, TokenFlag, TokenFlag, TokenPositional}, kinds(tokens))
	assert.False(t, tokens[0].Supported())
	assert.Equal(t, "out.json", tokens[1].Value)
	assert.Equal(t, "5", tokens[3].Value)
	assert.Equal(t, "https://example.com", tokens[4].Value)
}

func TestTokenize_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "missing curl", input: `wget https://example.com`},
		{name: "empty input", input: ``},
		{name: "only comments", input: "# nothing here\n"},
		{name: "word before curl", input: `sudo curl https://example.com`},
		{name: "unterminated single", input: `curl -d 'abc https://example.com`},
		{name: "unterminated double", input: `curl -H "Accept: x https://example.com`},
		{name: "trailing escape", input: `curl https://example.com \`},
		{name: "flag without value", input: `curl https://example.com -H`},
		{name: "long flag without value", input: `curl https://example.com --data`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := Tokenize(tt.input)
			require.Error(t, err)
			assert.Nil(t, tokens)
			assert.ErrorIs(t, err, ErrGrammar)
		})
	}
}

func TestTokenize_ErrorPosition(t *testing.T) {
	_, err := Tokenize(`curl -d 'abc`)
	var perr *Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 8, perr.Pos)
}
