package mime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Type
	}{
		{
			name:     "major and minor",
			input:    "text/plain",
			expected: Type{Type: "text", Subtype: "plain"},
		},
		{
			name:     "major only",
			input:    "text",
			expected: Type{Type: "text"},
		},
		{
			name:     "lowercased",
			input:    "Text/X.Moin.Wiki;Charset=utf-8",
			expected: Type{Type: "text", Subtype: "x.moin.wiki", Params: []Param{{Key: "charset", Value: "utf-8"}}},
		},
		{
			name:     "wildcards",
			input:    "*/*",
			expected: Type{},
		},
		{
			name:     "quoted parameter",
			input:    `x-moin/format;name="my format"`,
			expected: Type{Type: "x-moin", Subtype: "format", Params: []Param{{Key: "name", Value: "my format"}}},
		},
		{
			name:     "spaces around separators",
			input:    "text/csv; delimiter=\";\" ",
			expected: Type{Type: "text", Subtype: "csv", Params: []Param{{Key: "delimiter", Value: ";"}}},
		},
		{
			name:     "empty",
			input:    "",
			expected: Type{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			require.NoError(t, err)
			assert.True(t, tt.expected.Equal(got), "got %s", got)
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse("text/plain;=value")
	assert.Error(t, err)
}

func TestType_String(t *testing.T) {
	assert.Equal(t, "text/plain", PlainText.String())
	assert.Equal(t, "*/*", Any.String())
	assert.Equal(t, "text/*", Text.String())
	assert.Equal(t, "x-moin/macro;name=Include", MacroType("Include").String())
	assert.Equal(t, `x-moin/format;name="a b"`, FormatType("a b").String())
	assert.Equal(t, "text/csv;a=1;b=2", CSV.WithParam("b", "2").WithParam("a", "1").String())
}

func TestType_StringParseRoundtrip(t *testing.T) {
	types := []Type{
		MoinWiki,
		MoinWiki.WithParam("charset", "utf-8"),
		FormatType("highlight python"),
		DocBook,
		Any,
	}
	for _, typ := range types {
		t.Run(typ.String(), func(t *testing.T) {
			back, err := Parse(typ.String())
			require.NoError(t, err)
			assert.True(t, typ.Equal(back))
		})
	}
}

func TestType_IsSupertype(t *testing.T) {
	tests := []struct {
		name     string
		super    Type
		sub      Type
		expected bool
	}{
		{"any covers everything", Any, MoinWiki, true},
		{"major covers minor", Text, MoinWiki, true},
		{"equal types", MoinWiki, MoinWiki, true},
		{"different minor", PlainText, MoinWiki, false},
		{"params must be present", MoinWiki.WithParam("charset", "utf-8"), MoinWiki, false},
		{"extra params on sub", MoinWiki, MoinWiki.WithParam("charset", "utf-8"), true},
		{"param value mismatch", MacroType("A"), MacroType("B"), false},
		{"macro family", Macro, MacroType("Include"), true},
		{"specific is not super of general", MoinWiki, Text, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.super.IsSupertype(tt.sub))
		})
	}
}

func TestType_IsSupertypePartialOrder(t *testing.T) {
	types := []Type{Any, Text, PlainText, MoinWiki, MoinWiki.WithParam("charset", "utf-8"), Macro, MacroType("A")}

	for _, a := range types {
		assert.True(t, a.IsSupertype(a), "reflexive: %s", a)
		for _, b := range types {
			if a.IsSupertype(b) && b.IsSupertype(a) {
				assert.True(t, a.Equal(b), "antisymmetric: %s %s", a, b)
			}
			for _, c := range types {
				if a.IsSupertype(b) && b.IsSupertype(c) {
					assert.True(t, a.IsSupertype(c), "transitive: %s %s %s", a, b, c)
				}
			}
		}
	}
}

func TestType_Specificity(t *testing.T) {
	assert.Equal(t, 0, Any.Specificity())
	assert.Equal(t, 1, Text.Specificity())
	assert.Equal(t, 2, MoinWiki.Specificity())
	assert.Equal(t, 3, MacroType("X").Specificity())
}

func TestType_WithParamReplaces(t *testing.T) {
	typ := MacroType("A").WithParam("NAME", "B")
	v, ok := typ.Param("name")
	require.True(t, ok)
	assert.Equal(t, "B", v)
	assert.Len(t, typ.Params, 1)
}
