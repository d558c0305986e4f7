package args

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		positional []string
		keyword    map[string]string
	}{
		{
			name:    "empty",
			input:   "",
			keyword: map[string]string{},
		},
		{
			name:       "bare words",
			input:      "a b c",
			positional: []string{"a", "b", "c"},
			keyword:    map[string]string{},
		},
		{
			name:       "mixed",
			input:      `a b c d=e f="g h" i='j k'`,
			positional: []string{"a", "b", "c"},
			keyword:    map[string]string{"d": "e", "f": "g h", "i": "j k"},
		},
		{
			name:       "escaped quotes",
			input:      `l="\"m\" n" o='\'p\' q'`,
			positional: nil,
			keyword:    map[string]string{"l": `"m" n`, "o": "'p' q"},
		},
		{
			name:       "escaped backslash",
			input:      `"a\\b"`,
			positional: []string{`a\b`},
			keyword:    map[string]string{},
		},
		{
			name:       "unicode escape",
			input:      `"café"`,
			positional: []string{"café"},
			keyword:    map[string]string{},
		},
		{
			name:       "unicode bare word",
			input:      "größe=groß",
			positional: nil,
			keyword:    map[string]string{"größe": "groß"},
		},
		{
			name:       "garbage skipped",
			input:      "a, b; c",
			positional: []string{"a", "b", "c"},
			keyword:    map[string]string{},
		},
		{
			name:       "quoted positional",
			input:      `"hello world"`,
			positional: []string{"hello world"},
			keyword:    map[string]string{},
		},
		{
			name:       "invalid escape kept",
			input:      `"a\qb"`,
			positional: []string{`a\qb`},
			keyword:    map[string]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.input)
			assert.Equal(t, tt.positional, got.Positional)
			assert.Equal(t, tt.keyword, got.Keyword)
		})
	}
}

func TestParseObject(t *testing.T) {
	got := ParseObject("width=50% height=10, &h=10")
	assert.Equal(t, "50%", got.Keyword["width"])
	assert.Equal(t, "10", got.Keyword["height"])
	assert.Equal(t, "10", got.Keyword["&h"])

	plain := Parse("width=50%")
	assert.Equal(t, "50", plain.Keyword["width"])
}

func TestParseInclude(t *testing.T) {
	got := ParseInclude("^Foo/Bar.Baz, heading=Title")
	require.Len(t, got.Positional, 1)
	assert.Equal(t, "^Foo/Bar.Baz", got.Positional[0])
	assert.Equal(t, "Title", got.Keyword["heading"])

	spaced := ParseInclude("/sub/my page")
	assert.Equal(t, []string{"/sub/my page"}, spaced.Positional)
}

func TestUnparse(t *testing.T) {
	tests := []struct {
		name     string
		args     Arguments
		expected string
	}{
		{
			name:     "bare values",
			args:     Arguments{Positional: []string{"a", "b-c"}, Keyword: map[string]string{}},
			expected: "a b-c",
		},
		{
			name:     "quoted values and sorted keys",
			args:     Arguments{Positional: []string{"a b"}, Keyword: map[string]string{"z": "1", "a": "x y"}},
			expected: `"a b" a="x y" z=1`,
		},
		{
			name:     "quote inside value",
			args:     Arguments{Keyword: map[string]string{"k": `say "hi"`}},
			expected: `k="say \"hi\""`,
		},
		{
			name:     "empty value is quoted",
			args:     Arguments{Positional: []string{""}},
			expected: `""`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Unparse(tt.args)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestParse_ByteEscapes(t *testing.T) {
	got := Parse(`k="\xff" o="\101" u="\u00ff"`)
	assert.Equal(t, "\xff", got.Keyword["k"])
	assert.Equal(t, "A", got.Keyword["o"])
	assert.Equal(t, "ÿ", got.Keyword["u"])
}

func TestUnparse_AmpersandKey(t *testing.T) {
	got, err := Unparse(Parse("a&b=1"))
	require.NoError(t, err)
	assert.Equal(t, "a&b=1", got)
}

func TestUnparse_InvalidKey(t *testing.T) {
	_, err := Unparse(Arguments{Keyword: map[string]string{"a b": "c"}})
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestParseUnparseIdempotent(t *testing.T) {
	inputs := []string{
		"a b c",
		`a b c d=e f="g h" i='j k'`,
		`l="\"m\" n" o='\'p\' q'`,
		`"a\\b" "tab\there"`,
		`msg="line1\nline2"`,
		"größe=groß",
		"a&b=1",
		`k="\xff"`,
		`k="\101\x41"`,
		`x='it''s'`,
		"",
	}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			first := Parse(input)
			text, err := Unparse(first)
			require.NoError(t, err)
			second := Parse(text)
			assert.True(t, first.Equal(second), "%q -> %q", input, text)
		})
	}
}

func TestArguments_Empty(t *testing.T) {
	assert.True(t, New().Empty())
	assert.False(t, Parse("a").Empty())
}
