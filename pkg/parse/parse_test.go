package parse

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-cli-collective/wikiconv/pkg/dom"
)

// ==================== Lines ====================

func TestLines_PushBack(t *testing.T) {
	l := NewLines(SplitLines("a\r\nb\nc"))

	first, ok := l.Next()
	require.True(t, ok)
	second, _ := l.Next()
	assert.Equal(t, "a", first)
	assert.Equal(t, "b", second)
	assert.Equal(t, 2, l.LineNo())

	l.Push(first)
	l.Push(second)
	assert.Equal(t, 0, l.LineNo())

	var rest []string
	for {
		line, ok := l.Next()
		if !ok {
			break
		}
		rest = append(rest, line)
	}
	assert.Equal(t, []string{"a", "b", "c"}, rest)
	assert.True(t, l.Done())
}

// ==================== Stack ====================

func TestStack_PushPopClear(t *testing.T) {
	body := dom.Elem("body")
	s := NewStack(body)

	list := dom.Elem("list")
	s.Push(list)
	item := dom.Elem("list-item")
	s.Push(item)
	assert.Equal(t, 3, s.Len())
	assert.True(t, s.TopCheck("list-item"))

	s.PopName("list")
	assert.Same(t, body, s.Top())

	s.Push(dom.Elem("p"))
	s.Clear()
	assert.Equal(t, 1, s.Len())
	s.Pop()
	assert.Equal(t, 1, s.Len(), "bottom is never popped")

	assert.Equal(t, "<body><list><list-item /></list><p /></body>", dom.Serialize(body))
}

func TestStack_TopCheckAttrs(t *testing.T) {
	s := NewStack(dom.Elem("body"))
	list := dom.Elem("list")
	list.SetAttr(dom.AttrItemLabelGenerate, "ordered")
	s.Push(list)

	assert.True(t, s.TopCheckAttrs(map[dom.QName]string{dom.AttrItemLabelGenerate: "ordered"}, "list"))
	assert.False(t, s.TopCheckAttrs(map[dom.QName]string{dom.AttrItemLabelGenerate: "unordered"}, "list"))
	assert.False(t, s.TopCheckAttrs(nil, "table"))
}

func TestStack_TrackLines(t *testing.T) {
	lines := NewLines([]string{"a", "b"})
	s := NewStack(dom.Elem("body"))
	s.TrackLines(lines)

	lines.Next()
	p1 := dom.Elem("p")
	s.TopAppend(p1)
	lines.Next()
	p2 := dom.Elem("p")
	s.TopAppend(p2)

	assert.Equal(t, "1", p1.Attr(DataLineNo))
	assert.Equal(t, "2", p2.Attr(DataLineNo))
}

// ==================== Rules ====================

func TestDispatch_FirstMatchWins(t *testing.T) {
	var hit string
	rules := []BlockRule{
		{Name: "head", Re: regexp.MustCompile(`^(?P<marker>=+)\s`), Handle: func(m Match) { hit = "head:" + m.Group("marker") }},
		{Name: "any", Re: regexp.MustCompile(`^.*`), Handle: func(Match) { hit = "any" }},
	}

	require.True(t, Dispatch("== x", rules))
	assert.Equal(t, "head:==", hit)

	require.True(t, Dispatch("text", rules))
	assert.Equal(t, "any", hit)
}

func TestDispatch_AcceptVeto(t *testing.T) {
	var hit string
	rules := []BlockRule{
		{
			Name:   "even",
			Re:     regexp.MustCompile(`^(?P<n>=+)`),
			Accept: func(m Match) bool { return len(m.Group("n"))%2 == 0 },
			Handle: func(Match) { hit = "even" },
		},
		{Name: "fallback", Re: regexp.MustCompile(`^`), Handle: func(Match) { hit = "fallback" }},
	}

	Dispatch("===", rules)
	assert.Equal(t, "fallback", hit)
	Dispatch("==", rules)
	assert.Equal(t, "even", hit)
}

func TestScan_LeftmostThenRuleOrder(t *testing.T) {
	var out []string
	rules := []InlineRule{
		{Name: "strong", Re: regexp.MustCompile(`'''`), Handle: func(Match) { out = append(out, "S") }},
		{Name: "emph", Re: regexp.MustCompile(`''`), Handle: func(Match) { out = append(out, "E") }},
		{Name: "link", Re: regexp.MustCompile(`\[\[(?P<t>[^\]]*)\]\]`), Handle: func(m Match) { out = append(out, "L("+m.Group("t")+")") }},
	}

	Scan("a'''b''c[[x]]d", rules, func(s string) { out = append(out, s) })
	assert.Equal(t, []string{"a", "S", "b", "E", "c", "L(x)", "d"}, out)
}

func TestScan_AcceptEmulatesLookbehind(t *testing.T) {
	var out []string
	rules := []InlineRule{
		{
			Name: "smiley",
			Re:   regexp.MustCompile(`:\)`),
			Accept: func(m Match) bool {
				before := m.Before()
				return before == "" || strings.HasSuffix(before, " ")
			},
			Handle: func(Match) { out = append(out, "SMILE") },
		},
	}

	Scan("a:) b :)", rules, func(s string) { out = append(out, s) })
	assert.Equal(t, []string{"a:) b ", "SMILE"}, out)
}

func TestScan_NoMatch(t *testing.T) {
	var out []string
	Scan("plain", []InlineRule{{Name: "x", Re: regexp.MustCompile(`xyz`), Handle: func(Match) {}}},
		func(s string) { out = append(out, s) })
	assert.Equal(t, []string{"plain"}, out)
}

// ==================== Tables ====================

func TestBuildTable(t *testing.T) {
	table := BuildTable([][]string{{"x", "1"}}, []string{"name", "count"}, "moin-csv-table")
	assert.Equal(t,
		`<table class="moin-csv-table"><table-header><table-row><table-cell>name</table-cell><table-cell class="moin-integer">count</table-cell></table-row></table-header>`+
			`<table-body><table-row><table-cell>x</table-cell><table-cell class="moin-integer">1</table-cell></table-row></table-body></table>`,
		dom.Serialize(table))
}

func TestBuildTable_NoHead(t *testing.T) {
	long := strings.Repeat("a", 31)
	table := BuildTable([][]string{{long}}, nil, "")
	assert.Equal(t,
		`<table><table-body><table-row><table-cell class="moin-wordbreak">`+long+`</table-cell></table-row></table-body></table>`,
		dom.Serialize(table))
}

// ==================== Schemes ====================

func TestScheme(t *testing.T) {
	assert.Equal(t, "http", Scheme("HTTP://moinmo.in"))
	assert.Equal(t, "", Scheme("Page/Sub"))
	assert.True(t, AllowedScheme("mailto:root"))
	assert.True(t, AllowedScheme("Page"))
	assert.False(t, AllowedScheme(`javascript:alert("xss")`))
}
