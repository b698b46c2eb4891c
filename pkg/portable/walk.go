package portable

// WalkFunc is called for every node in depth-first pre-order. parent is nil
// for roots. Returning an error stops the walk.
type WalkFunc func(n, parent *Node, depth int) error

// Walk visits nodes and all their descendants in order.
func Walk(nodes []*Node, fn WalkFunc) error {
	return walk(nodes, nil, 0, fn)
}

func walk(nodes []*Node, parent *Node, depth int, fn WalkFunc) error {
	for _, n := range nodes {
		if n == nil {
			continue
		}
		if err := fn(n, parent, depth); err != nil {
			return err
		}
		if err := walk(n.Children, n, depth+1, fn); err != nil {
			return err
		}
	}
	return nil
}

// Count returns the number of nodes in the forest.
func Count(nodes []*Node) int {
	n := 0
	_ = Walk(nodes, func(*Node, *Node, int) error {
		n++
		return nil
	})
	return n
}

// Find returns the first node with the given id, or nil.
func Find(nodes []*Node, id string) *Node {
	for _, n := range nodes {
		if n == nil {
			continue
		}
		if n.ID == id {
			return n
		}
		if found := Find(n.Children, id); found != nil {
			return found
		}
	}
	return nil
}

// Depth returns the length of the longest root-to-leaf path.
func Depth(nodes []*Node) int {
	deepest := 0
	_ = Walk(nodes, func(_ *Node, _ *Node, d int) error {
		if d+1 > deepest {
			deepest = d + 1
		}
		return nil
	})
	return deepest
}
