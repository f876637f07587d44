package store

import (
	"fmt"

	"github.com/dshills/scriptree/internal/tree"
)

// Array updates the keyed array at a view.
//
// Every operation rebuilds the array in a single pass into a new slice and
// writes it back at the array's own path with Exact, so observers on the
// array and its ancestors hear about the change while observers registered
// under untouched siblings do not. Keys of untouched elements are never
// changed, which keeps views and subscriptions below those elements valid
// across inserts, removals and reorders.
type Array struct {
	view View
}

// ArrayOf returns the updater for the keyed array at segments below t.
func ArrayOf(t Tree, segments ...string) Array {
	return Array{view: Derive(t, segments...)}
}

// View returns the view of the array itself.
func (a Array) View() View {
	return a.view
}

// Keys returns the element keys in order.
func (a Array) Keys() []string {
	return a.view.Keys()
}

// Len returns the number of elements.
func (a Array) Len() int {
	arr, _ := a.view.Value().([]any)
	return len(arr)
}

// Item returns the view of the element keyed id.
func (a Array) Item(id string) View {
	return a.view.At(id)
}

// items reads the array. A missing path reports ok == false. A field that
// exists but holds nil reads as an empty array, so the first Insert creates it.
func (a Array) items() (arr []any, ok bool, err error) {
	val, ok := a.view.Lookup()
	if !ok {
		return nil, false, nil
	}
	if val == nil {
		return nil, true, nil
	}
	arr, isArr := val.([]any)
	if !isArr {
		return nil, true, ErrNotArray
	}
	return arr, true, nil
}

// Insert adds record to the array and returns its key.
//
// A record without a key is given a fresh one from the store's key
// generator that no sibling uses. A record that already carries a key keeps
// it if no sibling has it. The record map itself is not modified.
//
// If the array path is absent the insert is dropped and Insert returns
// ("", nil). An invalid placement fails before anything is read.
func (a Array) Insert(record map[string]any, at Placement) (string, error) {
	if err := at.validate(); err != nil {
		return "", err
	}

	s := a.view.store
	arr, ok, err := a.items()
	if err != nil {
		return "", &WriteError{Path: a.view.Path(), Err: err}
	}
	if !ok {
		s.drop(a.view.path)
		return "", nil
	}

	taken := make(map[string]struct{}, len(arr))
	for _, k := range tree.Keys(arr) {
		taken[k] = struct{}{}
	}

	elem := tree.ShallowRecord(record)
	key, err := assignKey(elem, taken, s.opts.keys)
	if err != nil {
		return "", &WriteError{Path: a.view.Path(), Err: err}
	}

	out, found := place(arr, elem, at, func(id string) int { return tree.IndexOf(arr, id) })
	if !found && s.opts.strictPlacement {
		return "", &PlacementError{Input: at.String(), Err: ErrAnchorNotFound}
	}

	if err := a.view.SetValue(out, Exact()); err != nil {
		return "", err
	}
	return key, nil
}

func assignKey(elem map[string]any, taken map[string]struct{}, gen KeyGenerator) (string, error) {
	if raw, has := elem[tree.KeyField]; has {
		key, ok := raw.(string)
		if !ok || key == "" {
			return "", ErrInvalidKey
		}
		if _, dup := taken[key]; dup {
			return "", ErrDuplicateKey
		}
		return key, nil
	}

	key, ok := freshKey(gen, taken)
	if !ok {
		return "", fmt.Errorf("%w: no free key after %d attempts", ErrDuplicateKey, maxKeyAttempts)
	}
	elem[tree.KeyField] = key
	return key, nil
}

// Remove deletes the element keyed id and returns it.
// Removing a key that is not present is a no-op that reports false.
func (a Array) Remove(id string) (map[string]any, bool) {
	arr, ok, err := a.items()
	if !ok || err != nil {
		return nil, false
	}
	idx := tree.IndexOf(arr, id)
	if idx < 0 {
		return nil, false
	}

	out := make([]any, 0, len(arr)-1)
	out = append(out, arr[:idx]...)
	out = append(out, arr[idx+1:]...)

	if err := a.view.SetValue(out, Exact()); err != nil {
		return nil, false
	}
	removed, _ := arr[idx].(map[string]any)
	return removed, true
}

// Reorder rebuilds the array in the order given by keys.
//
// Elements whose key is not listed are dropped: Reorder sets both order and
// membership. Keys in order that match no element, and repeats of a key
// already placed, are ignored. Use Move to relocate one element without
// touching the others.
func (a Array) Reorder(order []string) error {
	return a.ReorderFunc(func([]any) ([]string, bool) {
		return order, true
	})
}

// ReorderFunc computes the new order from the current elements.
// fn gets a copy of the array and may sort it. Returning false aborts
// without writing.
func (a Array) ReorderFunc(fn func(items []any) ([]string, bool)) error {
	if fn == nil {
		return nil
	}
	arr, ok, err := a.items()
	if !ok || err != nil {
		return nil
	}

	order, proceed := fn(append([]any(nil), arr...))
	if !proceed {
		return nil
	}

	byKey := make(map[string]any, len(arr))
	for _, elem := range arr {
		if k, ok := tree.KeyOf(elem); ok {
			byKey[k] = elem
		}
	}

	out := make([]any, 0, len(order))
	for _, k := range order {
		elem, ok := byKey[k]
		if !ok {
			continue
		}
		out = append(out, elem)
		delete(byKey, k)
	}

	return a.view.SetValue(out, Exact())
}

// Move relocates the element keyed id to the given placement, keeping every
// other element. Anchors follow Insert's rules, including strict mode.
// Moving a missing key is a no-op.
func (a Array) Move(id string, at Placement) error {
	if err := at.validate(); err != nil {
		return err
	}
	arr, ok, err := a.items()
	if !ok || err != nil {
		return nil
	}
	idx := tree.IndexOf(arr, id)
	if idx < 0 {
		return nil
	}

	rest := make([]any, 0, len(arr)-1)
	rest = append(rest, arr[:idx]...)
	rest = append(rest, arr[idx+1:]...)

	out, found := place(rest, arr[idx], at, func(k string) int { return tree.IndexOf(rest, k) })
	if !found && a.view.store.opts.strictPlacement {
		return &PlacementError{Input: at.String(), Err: ErrAnchorNotFound}
	}
	return a.view.SetValue(out, Exact())
}
