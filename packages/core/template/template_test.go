package template

import (
	"sync"
	"testing"

	"github.com/abdul-hamid-achik/curlspec/packages/builtin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		vars     map[string]any
		expected string
	}{
		{
			name:     "no placeholders",
			input:    "curl https://example.com",
			vars:     map[string]any{},
			expected: "curl https://example.com",
		},
		{
			name:     "simple variable with spaces",
			input:    "Bearer {{ token }}",
			vars:     map[string]any{"token": "abcd1234"},
			expected: "Bearer abcd1234",
		},
		{
			name:     "simple variable without spaces",
			input:    "Bearer {{token}}",
			vars:     map[string]any{"token": "abcd1234"},
			expected: "Bearer abcd1234",
		},
		{
			name:     "number",
			input:    `{"user_id": {{ user_id }}}`,
			vars:     map[string]any{"user_id": 42},
			expected: `{"user_id": 42}`,
		},
		{
			name:     "boolean",
			input:    "active={{ active }}",
			vars:     map[string]any{"active": true},
			expected: "active=true",
		},
		{
			name:     "nil renders empty",
			input:    "x={{ missing_value }}",
			vars:     map[string]any{"missing_value": nil},
			expected: "x=",
		},
		{
			name:     "nested path",
			input:    "{{ user.name }}",
			vars:     map[string]any{"user": map[string]any{"name": "John"}},
			expected: "John",
		},
		{
			name:     "array index",
			input:    "{{ ids.1 }}",
			vars:     map[string]any{"ids": []int{7, 8, 9}},
			expected: "8",
		},
		{
			name:     "object stringified as json",
			input:    "-d '{{ payload }}'",
			vars:     map[string]any{"payload": map[string]any{"a": 1}},
			expected: `-d '{"a":1}'`,
		},
		{
			name:     "closing braces outside placeholders are literal",
			input:    `-d '{"a":{"b":{{ v }}}}'`,
			vars:     map[string]any{"v": 1},
			expected: `-d '{"a":{"b":1}}'`,
		},
		{
			name:     "function call",
			input:    `{{ base64("user:pass") }}`,
			vars:     map[string]any{},
			expected: "dXNlcjpwYXNz",
		},
		{
			name:     "function call with variable argument",
			input:    `{{ base64(creds) }}`,
			vars:     map[string]any{"creds": "user:pass"},
			expected: "dXNlcjpwYXNz",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Render(tt.input, tt.vars)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestRender_NilContextPassesThrough(t *testing.T) {
	input := "curl {{ not rendered"
	got, err := Render(input, nil)
	require.NoError(t, err)
	assert.Equal(t, input, got)
}

func TestRender_Errors(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		vars   map[string]any
		reason string
	}{
		{name: "missing variable", input: "{{ token }}", vars: map[string]any{}, reason: "undefined variable"},
		{name: "missing nested variable", input: "{{ user.id }}", vars: map[string]any{"user": map[string]any{}}, reason: "undefined variable"},
		{name: "unclosed", input: "Bearer {{ token", vars: map[string]any{"token": "x"}, reason: "unclosed placeholder"},
		{name: "nested open", input: "{{ a {{ b }}", vars: map[string]any{}, reason: "unbalanced placeholder delimiters"},
		{name: "empty", input: "{{   }}", vars: map[string]any{}, reason: "empty placeholder"},
		{name: "unknown function", input: "{{ nope() }}", vars: map[string]any{}, reason: "unknown function"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Render(tt.input, tt.vars)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrTemplate)

			var terr *Error
			require.ErrorAs(t, err, &terr)
			assert.Contains(t, terr.Reason, tt.reason)
		})
	}
}

func TestRender_Idempotent(t *testing.T) {
	input := `curl -H "Authorization: Bearer {{ token }}" https://api.example.com/{{ id }}`
	once, err := Render(input, map[string]any{"token": "abc", "id": 7})
	require.NoError(t, err)

	twice, err := Render(once, map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, once, twice)
}

func TestCompile_ErrorPosition(t *testing.T) {
	_, err := Compile("abc {{ x")
	var terr *Error
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, 4, terr.Pos)
}

func TestRenderer_CachesTemplates(t *testing.T) {
	r := NewRenderer()
	input := "Bearer {{ token }}"

	for _, token := range []string{"a", "b", "c"} {
		got, err := r.Render(input, map[string]any{"token": token})
		require.NoError(t, err)
		assert.Equal(t, "Bearer "+token, got)
	}
	assert.Equal(t, 1, r.Len())

	_, err := r.Render("other {{ token }}", map[string]any{"token": "x"})
	require.NoError(t, err)
	assert.Equal(t, 2, r.Len())
}

func TestRenderer_NilContextSkipsCompile(t *testing.T) {
	r := NewRenderer()
	got, err := r.Render("{{ broken", nil)
	require.NoError(t, err)
	assert.Equal(t, "{{ broken", got)
	assert.Equal(t, 0, r.Len())
}

func TestRenderer_CacheSize(t *testing.T) {
	r := NewRenderer(WithCacheSize(2))
	vars := map[string]any{"v": 1}
	for _, src := range []string{"a{{v}}", "b{{v}}", "c{{v}}"} {
		_, err := r.Render(src, vars)
		require.NoError(t, err)
	}
	assert.LessOrEqual(t, r.Len(), 2)

	uncached := NewRenderer(WithCacheSize(0))
	_, err := uncached.Render("a{{v}}", vars)
	require.NoError(t, err)
	assert.Equal(t, 0, uncached.Len())
}

func TestRenderer_CustomFunctions(t *testing.T) {
	reg := builtin.NewRegistry()
	reg.Register("env", func(args []string) (string, error) {
		return "staging", nil
	})
	r := NewRenderer(WithFunctions(reg))

	got, err := r.Render("https://{{ env() }}.example.com", map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, "https://staging.example.com", got)
}

func TestRenderer_Concurrent(t *testing.T) {
	r := NewRenderer()
	input := "id={{ id }}"

	var wg sync.WaitGroup
	errs := make(chan error, 32)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got, err := r.Render(input, map[string]any{"id": i})
			if err != nil {
				errs <- err
				return
			}
			if got == "" {
				errs <- assert.AnError
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent render: %v", err)
	}
	assert.Equal(t, 1, r.Len())
}
