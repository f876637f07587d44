// Package store implements the reactive document store.
//
// A Store owns one document tree (see package tree for its shape and
// addressing) and a registry of path-scoped observers (see package
// tree/notify). Editor fragments never hold pieces of the document; they
// hold Views, which are (store, path) pairs, and re-read through them when
// notified.
//
// # Reading and writing
//
//	s := store.New(doc)
//	title := store.Derive(s, "procs", procKey, "name")
//
//	name := title.Value()
//	if err := title.SetValue("greeting"); err != nil {
//	    // only keyed-array invariant violations fail
//	}
//
// Writing through a path whose parent has gone away (for example an element
// removed by another fragment) is dropped silently.
//
// # Subscribing
//
//	sub := title.On(func(c notify.Change) {
//	    rerender(title.Value())
//	})
//	defer sub.Unsubscribe()
//
// An observer hears about writes at its path, above it, and below it.
// Structural array edits are exact writes and are not delivered to
// observers under the untouched siblings.
//
// # Keyed arrays
//
//	body := store.ArrayOf(s, "procs", procKey, "body")
//	key, err := body.Insert(map[string]any{"type": "text"}, store.After(prev))
//	body.Remove(key)
//	body.Reorder([]string{"b", "a"}) // drops every key not listed
//
// # Delivery
//
// Everything is synchronous. Observers run before the write returns and may
// write to the store themselves; with WithCoalescing, writes made from inside
// an observer are delivered after the current dispatch instead of nested in it.
package store
