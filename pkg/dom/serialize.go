// serialize.go renders a tree as compact, deterministic XML for debugging
// and tests.
package dom

import (
	"sort"
	"strings"
)

// Prefixes maps namespaces to the prefixes Serialize writes. The empty
// prefix marks the default namespace.
var Prefixes = map[Namespace]string{
	Moin:      "",
	XHTML:     "xhtml",
	XLink:     "xlink",
	XInclude:  "xinclude",
	DocBookNS: "db",
	XMLNS:     "xml",
	Meta:      "meta",
}

// Serialize renders e without namespace declarations; attributes are sorted
// by their rendered name.
func Serialize(e *Element) string {
	var sb strings.Builder
	serialize(&sb, e)
	return sb.String()
}

// SerializeBody renders only the children of the page body.
func SerializeBody(page *Element) string {
	body := Body(page)
	if body == nil {
		return ""
	}
	var sb strings.Builder
	for _, c := range body.Children {
		serializeNode(&sb, c)
	}
	return sb.String()
}

func serializeNode(sb *strings.Builder, n Node) {
	switch v := n.(type) {
	case Text:
		sb.WriteString(escapeText(string(v)))
	case *Element:
		serialize(sb, v)
	}
}

func serialize(sb *strings.Builder, e *Element) {
	name := qualified(e.Name)
	sb.WriteByte('<')
	sb.WriteString(name)

	attrs := make([][2]string, 0, len(e.Attrs))
	for k, v := range e.Attrs {
		attrs = append(attrs, [2]string{qualified(k), v})
	}
	sort.Slice(attrs, func(i, j int) bool { return attrs[i][0] < attrs[j][0] })
	for _, a := range attrs {
		sb.WriteByte(' ')
		sb.WriteString(a[0])
		sb.WriteString(`="`)
		sb.WriteString(escapeAttr(a[1]))
		sb.WriteByte('"')
	}

	if len(e.Children) == 0 {
		sb.WriteString(" />")
		return
	}
	sb.WriteByte('>')
	for _, c := range e.Children {
		serializeNode(sb, c)
	}
	sb.WriteString("</")
	sb.WriteString(name)
	sb.WriteByte('>')
}

func qualified(q QName) string {
	if q.Space == "" {
		return q.Local
	}
	prefix, ok := Prefixes[q.Space]
	if !ok {
		return "{" + string(q.Space) + "}" + q.Local
	}
	if prefix == "" {
		return q.Local
	}
	return prefix + ":" + q.Local
}

var (
	textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	attrEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;", "\n", "&#10;")
)

func escapeText(s string) string { return textEscaper.Replace(s) }

func escapeAttr(s string) string { return attrEscaper.Replace(s) }
