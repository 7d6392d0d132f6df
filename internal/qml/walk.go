package qml

// Visitor is called for each node of a tree by Walk. When Enter returns
// false the node's children are skipped; Exit is still called.
type Visitor interface {
	Enter(n Node) bool
	Exit(n Node)
	// RecursionDepthExceeded is called once when the tree is nested deeper
	// than the walk allows. The walk stops afterwards.
	RecursionDepthExceeded()
}

// Walk traverses the tree rooted at n in depth-first order. A maxDepth of
// zero or less means no limit. It reports whether the walk completed.
func Walk(v Visitor, n Node, maxDepth int) bool {
	w := walker{v: v, max: maxDepth}
	return w.walk(n, 0)
}

type walker struct {
	v   Visitor
	max int
}

func (w *walker) walk(n Node, depth int) bool {
	if n == nil {
		return true
	}
	if w.max > 0 && depth >= w.max {
		w.v.RecursionDepthExceeded()
		return false
	}
	if w.v.Enter(n) {
		for _, c := range children(n) {
			if !w.walk(c, depth+1) {
				return false
			}
		}
	}
	w.v.Exit(n)
	return true
}

func children(n Node) []Node {
	switch n := n.(type) {
	case *Program:
		out := append([]Node(nil), n.Headers...)
		if n.Root != nil {
			out = append(out, n.Root)
		}
		return out
	case *ObjectDefinition:
		return n.Members
	case *ObjectBinding:
		return n.Members
	case *ArrayBinding:
		out := make([]Node, 0, len(n.Elements))
		for _, e := range n.Elements {
			out = append(out, e)
		}
		return out
	case *PublicMember:
		if n.Binding != nil {
			return []Node{n.Binding}
		}
	case *InlineComponent:
		if n.Definition != nil {
			return []Node{n.Definition}
		}
	}
	return nil
}
