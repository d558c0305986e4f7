package macro

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/open-cli-collective/wikiconv/pkg/args"
	"github.com/open-cli-collective/wikiconv/pkg/dom"
)

// itemList lists the pages below an item:
//
//	<<ItemList(item="Foo/Bar", ordered="True", display="UnCameled")>>
func itemList(c Context, a args.Arguments) ([]dom.Node, error) {
	fail := func(format string, v ...any) ([]dom.Node, error) {
		return []dom.Node{FailMessage(fmt.Sprintf(format, v...), c.Alt)}, nil
	}

	item := c.Page
	var startswith, display = "", "FullPath"
	var re *regexp.Regexp
	ordered := false

	if len(a.Positional) > 0 {
		return fail(`ItemList macro: Argument "%s" does not follow <key>=<val> format (arguments, if more than one, must be comma-separated).`, a.Positional[0])
	}
	for key, val := range a.Keyword {
		switch key {
		case "item":
			item = val
		case "startswith":
			startswith = val
		case "regex":
			var err error
			if re, err = regexp.Compile("(?i)" + val); err != nil {
				return fail("Error in regex %q: %v", val, err)
			}
		case "ordered":
			switch val {
			case "True":
				ordered = true
			case "False":
				ordered = false
			default:
				return fail(`The value for "%s" must be "True" or "False", got "%s".`, key, val)
			}
		case "display":
			display = val
		default:
			return fail(`Unrecognized key "%s".`, key)
		}
	}
	if item == "/" {
		item = ""
	}
	item = strings.Trim(item, "/")

	if c.Pages == nil {
		return fail("No matching items were found")
	}
	prefix := ""
	if item != "" {
		prefix = item + "/"
	}
	names, err := c.Pages.List(c.ctx(), prefix)
	if err != nil {
		return nil, err
	}

	var children []string
	for _, name := range names {
		rel := strings.TrimPrefix(name, prefix)
		if rel == "" || !strings.HasPrefix(rel, startswith) {
			continue
		}
		if re != nil && !re.MatchString(name) {
			continue
		}
		children = append(children, name)
	}
	if len(children) == 0 {
		return fail("No matching items were found")
	}
	sort.Strings(children)

	list, err := PageLinkList(children, ordered, display)
	if err != nil {
		return fail("%s", err.Error())
	}
	return []dom.Node{list}, nil
}

var (
	unCamelCase  = regexp.MustCompile(`([a-z0-9])([A-Z])`)
	unCamelDigit = regexp.MustCompile(`([a-zA-Z])([0-9])`)
)

// PageLinkList builds a list of links to names. display is one of FullPath,
// ChildPath, ChildName or UnCameled.
func PageLinkList(names []string, ordered bool, display string) (*dom.Element, error) {
	list := dom.Elem("list")
	if ordered {
		list.SetAttr(dom.AttrItemLabelGenerate, "ordered")
	} else {
		list.SetAttr(dom.AttrItemLabelGenerate, "unordered")
	}
	for _, name := range names {
		var label string
		switch display {
		case "FullPath":
			label = name
		case "ChildPath":
			if i := strings.LastIndex(name, "/"); i >= 0 {
				label = name[i:]
			} else {
				label = name
			}
		case "ChildName":
			label = name[strings.LastIndex(name, "/")+1:]
		case "UnCameled":
			label = name[strings.LastIndex(name, "/")+1:]
			label = unCamelCase.ReplaceAllString(label, "$1 $2")
			label = unCamelDigit.ReplaceAllString(label, "$1 $2")
		default:
			return nil, fmt.Errorf(`Unrecognized display value "%s".`, display)
		}
		link := dom.Elem("a", dom.Text(label))
		link.SetAttr(dom.XLinkHref, "wiki:///"+name)
		list.Append(dom.Elem("list-item", dom.Elem("list-item-body", link)))
	}
	return list, nil
}
