package tree

// Resolve walks p from root and returns the addressed value.
// It reports false when any step of the walk is absent: a nil node, a missing
// field, a key with no matching element, or a scalar with segments left over.
//
// A record field that exists with a nil value resolves to (nil, true).
func Resolve(root any, p Path) (any, bool) {
	node := root
	for _, seg := range p {
		next, ok := Child(node, seg)
		if !ok {
			return nil, false
		}
		node = next
	}
	return node, true
}

// ResolveParent returns the container that holds the last segment of p.
// The root path has no parent and reports false.
func ResolveParent(root any, p Path) (any, bool) {
	if len(p) == 0 {
		return nil, false
	}
	parent, ok := Resolve(root, p[:len(p)-1])
	if !ok || parent == nil {
		return nil, false
	}
	switch parent.(type) {
	case map[string]any, []any:
		return parent, true
	default:
		return nil, false
	}
}

// Child applies one segment to node.
func Child(node any, seg string) (any, bool) {
	switch n := node.(type) {
	case map[string]any:
		v, ok := n[seg]
		return v, ok
	case []any:
		idx := IndexOf(n, seg)
		if idx < 0 {
			return nil, false
		}
		return n[idx], true
	default:
		return nil, false
	}
}

// Exists reports whether p resolves in root.
func Exists(root any, p Path) bool {
	_, ok := Resolve(root, p)
	return ok
}
