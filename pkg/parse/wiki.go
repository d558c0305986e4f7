package parse

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/open-cli-collective/wikiconv/pkg/args"
	"github.com/open-cli-collective/wikiconv/pkg/dom"
	"github.com/open-cli-collective/wikiconv/pkg/format"
	"github.com/open-cli-collective/wikiconv/pkg/mime"
)

// EscapePath percent-encodes a page path for use in a wiki.local or wiki
// reference.
func EscapePath(p string) string {
	return (&url.URL{Path: p}).EscapedPath()
}

// Macros builds the nodes for <<Name(args)>> calls shared by the wiki
// dialects. BR, FootNote, Include and TableOfContents are resolved at parse
// time; any other name becomes a placeholder for the macro pass.
type Macros struct {
	Report *Report
	// Inline parses footnote text into parent using the dialect's inline
	// grammar. When nil the text is kept verbatim.
	Inline func(text string, parent *dom.Element)
}

// Node returns the node for a call whose source text is alt. block is set
// when the call stands alone on its line. A nil result emits nothing.
func (m Macros) Node(name, rawArgs, alt string, block bool) dom.Node {
	switch name {
	case "BR":
		if block {
			return nil
		}
		return dom.Elem("line-break")
	case "FootNote":
		return m.footNote(rawArgs, block)
	case "Include":
		return m.include(rawArgs, alt, block)
	case "TableOfContents":
		return tableOfContents(rawArgs, alt, block)
	}
	return MacroPlaceholder(name, rawArgs, alt, block)
}

// MacroPlaceholder returns the part (block) or inline-part element the macro
// pass expands.
func MacroPlaceholder(name, rawArgs, alt string, block bool) *dom.Element {
	local := "inline-part"
	if block {
		local = "part"
	}
	el := dom.Elem(local)
	el.SetAttr(dom.AttrAlt, alt)
	el.SetAttr(dom.AttrContentType, mime.MacroType(name).String())
	if rawArgs != "" {
		el.Append(dom.Elem("arguments", dom.Text(rawArgs)))
	}
	return el
}

func (m Macros) footNote(rawArgs string, block bool) dom.Node {
	if rawArgs == "" {
		return dom.Elem("note")
	}
	noteBody := dom.Elem("note-body")
	if m.Inline != nil {
		m.Inline(rawArgs, noteBody)
	} else {
		noteBody.AppendText(rawArgs)
	}
	note := dom.Elem("note", noteBody)
	note.SetAttr(dom.AttrNoteClass, "footnote")
	if block {
		return dom.Elem("p", note)
	}
	return note
}

// IncludeXPointerNS is the xmlns() scheme prefix of include pointers.
const IncludeXPointerNS = "xmlns(page=" + string(dom.Moin) + ") "

func (m Macros) include(rawArgs, alt string, block bool) dom.Node {
	fail := func(msg string) dom.Node {
		if m.Report != nil {
			m.Report.AddWarning("%s: %s", alt, msg)
		}
		e := dom.Elem("p", dom.Text(msg))
		e.SetAttr(dom.AttrClass, dom.ErrorClass)
		return dom.Elem("div", dom.Elem("p", dom.Text(alt)), e)
	}
	a := args.ParseInclude(rawArgs)
	if len(a.Positional) == 0 {
		return fail("Include Macro above has invalid format, missing item name")
	}
	pagename := a.Positional[0]

	sortOrder, _ := a.Get("sort")
	if sortOrder != "" && sortOrder != "ascending" && sortOrder != "descending" {
		return fail("Include Macro above has invalid format, expected sort=ascending or descending")
	}

	var funcs []string
	add := func(name, value string) {
		value = strings.NewReplacer("^", "^^", "(", "^(", ")", "^)").Replace(value)
		funcs = append(funcs, name+"("+value+")")
	}

	inc := dom.New(dom.XIncludeElement, nil)
	if strings.HasPrefix(pagename, "^") {
		add("pages", pagename)
		if sortOrder != "" {
			add("sort", sortOrder)
		}
		for _, key := range []string{"items", "skipitems"} {
			if v, ok := a.Get(key); ok {
				if n, err := strconv.Atoi(v); err == nil && n > 0 {
					add(key, strconv.Itoa(n))
				}
			}
		}
	} else {
		inc.SetAttr(dom.XIncludeHref, "wiki.local:"+EscapePath(pagename))
	}
	if len(a.Positional) > 1 {
		add("heading", a.Positional[1])
		if len(a.Positional) > 2 {
			if level, err := strconv.Atoi(a.Positional[2]); err == nil && level > 0 {
				add("level", strconv.Itoa(level))
			}
		}
	}
	if len(funcs) > 0 {
		inc.SetAttr(dom.XIncludeXPointer, IncludeXPointerNS+"page:include("+strings.Join(funcs, " ")+")")
	}

	if !block {
		return inc
	}
	div := dom.Elem("div", inc)
	div.SetAttr(dom.AttrClass, "moin-p")
	return div
}

func tableOfContents(rawArgs, alt string, block bool) dom.Node {
	if !block {
		return dom.Text(alt)
	}
	toc := dom.Elem("table-of-content")
	if level, err := strconv.Atoi(strings.TrimSpace(rawArgs)); err == nil && level > 0 && level < 7 {
		toc.SetAttr(dom.AttrOutlineLevel, strconv.Itoa(level))
	}
	return toc
}

// Embedder resolves {{{#!name args}}} blocks into part elements holding the
// parsed content.
type Embedder struct {
	Formats format.Lookup
	Report  *Report
	// NativeNames select Native, the host dialect's own block parser,
	// which returns a body element.
	NativeNames []string
	Native      func(content, interpret, rawArgs string) *dom.Element
}

// Embed returns part(content-type, alt=source)/body holding the parsed
// content. interpret is the #! line; an unresolvable name degrades to an
// error message and a plain code block.
func (e Embedder) Embed(name, rawArgs, interpret, content, source string) *dom.Element {
	contentType := mime.FormatType(name).String()
	if strings.Contains(name, "/") {
		contentType = name
	}
	part := dom.Elem("part")
	part.SetAttr(dom.AttrContentType, contentType)
	part.SetAttr(dom.AttrAlt, source)
	partBody := dom.Elem("body")
	part.Append(partBody)

	if e.Native != nil {
		for _, n := range e.NativeNames {
			if strings.EqualFold(n, name) {
				partBody.Append(dom.Elem("page", e.Native(content, interpret, rawArgs)))
				return part
			}
		}
	}

	var parser format.Parser
	ok := false
	if e.Formats != nil {
		parser, ok = e.Formats.Lookup(name)
	}
	if ok {
		a := format.ParseArgs(rawArgs)
		page, err := parser.Parse(content, &a)
		if err == nil && page != nil {
			partBody.Append(page)
			return part
		}
		if err != nil {
			e.warn("embedded %s block failed: %v", name, err)
		}
	} else {
		e.warn("unknown embedded format %q", name)
	}
	partBody.Append(
		dom.ErrorDiv(`Defaulting to plain text due to invalid arguments: "`+interpret+`"`),
		dom.Elem("blockcode", dom.Text(content)),
	)
	return part
}

func (e Embedder) warn(format string, v ...any) {
	if e.Report != nil {
		e.Report.AddWarning(format, v...)
	}
}
