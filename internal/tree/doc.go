// Package tree provides addressing into scriptree document values.
//
// A document is an untyped tree built from three shapes:
//
//   - records: map[string]any
//   - arrays:  []any, usually "keyed arrays" whose elements are records
//     carrying a unique string "key" field
//   - scalars: everything else (strings, numbers, booleans, nil)
//
// A Path is a sequence of segments. How a segment is interpreted depends on
// the node it is applied to: against a record it names a field, against an
// array it names the element whose key equals the segment. There is no index
// addressing; identity in an array comes from the key, never the position.
//
// Resolution never fails. A path that walks off the tree resolves to
// "absent", which callers treat as a normal outcome:
//
//	v, ok := tree.Resolve(doc, tree.P("procs", "k3f1", "name"))
//	if !ok {
//	    // element k3f1 was removed, or never existed
//	}
//
// Resolution is recomputed on every call. Documents are editor-sized, so the
// linear key scan is cheaper than keeping an index in sync.
package tree
