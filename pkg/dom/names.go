package dom

// Attribute names in the Moin namespace.
var (
	AttrClass             = Moin.Name("class")
	AttrStyle             = Moin.Name("style")
	AttrID                = Moin.Name("id")
	AttrTitle             = Moin.Name("title")
	AttrAlt               = Moin.Name("alt")
	AttrType              = Moin.Name("type")
	AttrContentType       = Moin.Name("content-type")
	AttrOutlineLevel      = Moin.Name("outline-level")
	AttrItemLabelGenerate = Moin.Name("item-label-generate")
	AttrListStyleType     = Moin.Name("list-style-type")
	AttrListStart         = Moin.Name("list-start")
	AttrColSpan           = Moin.Name("number-columns-spanned")
	AttrRowSpan           = Moin.Name("number-rows-spanned")
	AttrFontSize          = Moin.Name("font-size")
	AttrBaselineShift     = Moin.Name("baseline-shift")
	AttrNoteClass         = Moin.Name("note-class")
	AttrPageHref          = Moin.Name("page-href")
	AttrLanguage          = Moin.Name("language")
	AttrHref              = Moin.Name("href")
)

// Attribute names in foreign namespaces.
var (
	XLinkHref        = XLink.Name("href")
	XIncludeHref     = XInclude.Name("href")
	XIncludeXPointer = XInclude.Name("xpointer")
	HTMLAlt          = XHTML.Name("alt")
	HTMLWidth        = XHTML.Name("width")
	HTMLHeight       = XHTML.Name("height")
	HTMLClass        = XHTML.Name("class")
	HTMLTitle        = XHTML.Name("title")
	HTMLDataHref     = XHTML.Name("data-href")
)

// XIncludeElement is the name of transclusion elements.
var XIncludeElement = XInclude.Name("include")

// ErrorClass marks error nodes produced for malformed or unresolved content.
const ErrorClass = "moin-error"

// ErrorSpan returns an inline error node carrying msg.
func ErrorSpan(msg string) *Element {
	e := Elem("span", Text(msg))
	e.SetAttr(AttrClass, ErrorClass)
	return e
}

// ErrorDiv returns a block error node carrying msg.
func ErrorDiv(msg string) *Element {
	e := Elem("div", Elem("p", Text(msg)))
	e.SetAttr(AttrClass, ErrorClass)
	return e
}
