package dom

// WalkFunc is called for each node below the walk root. path holds the
// ancestors of n, outermost first. Returning false skips n's children.
type WalkFunc func(path []*Element, n Node) bool

// Walk visits the descendants of root in document order.
func Walk(root *Element, fn WalkFunc) {
	walk([]*Element{root}, root, fn)
}

func walk(path []*Element, e *Element, fn WalkFunc) {
	for _, c := range e.Children {
		if !fn(path, c) {
			continue
		}
		if el, ok := c.(*Element); ok {
			walk(append(path[:len(path):len(path)], el), el, fn)
		}
	}
}

// RewriteFunc decides the fate of one child. Returning replaced=false keeps
// n and descends into it; otherwise nodes take its place and are not revisited.
type RewriteFunc func(path []*Element, n Node) (nodes []Node, replaced bool)

// Rewrite rebuilds the child lists of root depth first. Each list is built
// into a new slice and swapped in once complete.
func Rewrite(root *Element, fn RewriteFunc) {
	rewrite([]*Element{root}, root, fn)
}

func rewrite(path []*Element, e *Element, fn RewriteFunc) {
	children := make([]Node, 0, len(e.Children))
	for _, c := range e.Children {
		nodes, replaced := fn(path, c)
		if !replaced {
			if el, ok := c.(*Element); ok {
				rewrite(append(path[:len(path):len(path)], el), el, fn)
			}
			children = append(children, c)
			continue
		}
		children = append(children, nodes...)
	}

	e.Children = children[:0:0]
	e.Append(children...)
}

// Find returns every descendant of root matching pred, in document order.
func Find(root *Element, pred func(*Element) bool) []*Element {
	var out []*Element
	Walk(root, func(_ []*Element, n Node) bool {
		if el, ok := n.(*Element); ok && pred(el) {
			out = append(out, el)
		}
		return true
	})
	return out
}

// Named matches Moin elements called local.
func Named(local string) func(*Element) bool {
	return func(e *Element) bool { return e.Is(local) }
}
