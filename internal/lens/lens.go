// Package lens provides composable structural accessors over document trees.
//
// A Lens focuses on one part of a value: Get reads it, Set and Over return a
// new whole with that part replaced, copying only the records and arrays on
// the way down and sharing every untouched sibling with the input.
//
// Lenses and the Context in this package are an alternative to the
// path-and-registry model of package store. A Context notifies every watcher
// on every change and each watcher re-reads and compares its projection, so
// change detection costs O(projection size) per watcher per mutation
// anywhere in the tree. Package store dispatches only to observers on the
// written path. The lens model is simpler to reason about (values are never
// mutated in place) and is useful for derived projections and tests.
package lens

import (
	"errors"
	"fmt"

	"github.com/dshills/scriptree/internal/tree"
)

// ErrBadSelector is returned by Of for a selector it cannot convert.
var ErrBadSelector = errors.New("lens: selector must be a string, tree.Path or Lens")

// Lens is a get/set/transform triple over a whole value.
type Lens interface {
	// Get returns the focused part of whole, or nil if it does not exist.
	Get(whole any) any

	// Set returns a copy of whole with the focused part replaced by part.
	Set(whole, part any) any

	// Over returns a copy of whole with the focused part replaced by fn of it.
	Over(whole any, fn func(part any) any) any
}

// Identity focuses on the whole value.
func Identity() Lens {
	return identity{}
}

type identity struct{}

func (identity) Get(whole any) any                    { return whole }
func (identity) Set(_, part any) any                  { return part }
func (identity) Over(whole any, fn func(any) any) any { return fn(whole) }

// Segment focuses on one path segment. Like tree.Child, the segment names a
// field when applied to a record and a key when applied to an array.
//
// Setting a field on a nil whole creates a record. Setting an element that
// does not exist leaves the array unchanged.
func Segment(seg string) Lens {
	return segment(seg)
}

type segment string

func (s segment) Get(whole any) any {
	v, _ := tree.Child(whole, string(s))
	return v
}

func (s segment) Set(whole, part any) any {
	return s.Over(whole, func(any) any { return part })
}

func (s segment) Over(whole any, fn func(any) any) any {
	seg := string(s)
	switch w := whole.(type) {
	case []any:
		idx := tree.IndexOf(w, seg)
		if idx < 0 {
			return w
		}
		out := make([]any, len(w))
		copy(out, w)
		out[idx] = fn(w[idx])
		return out
	case map[string]any:
		out := tree.ShallowRecord(w)
		out[seg] = fn(w[seg])
		return out
	case nil:
		return map[string]any{seg: fn(nil)}
	default:
		return whole
	}
}

// Field focuses on a record field. Applied to anything but a record or nil
// it reads nil and writes nothing.
func Field(name string) Lens {
	return field(name)
}

type field string

func (f field) Get(whole any) any {
	rec, _ := whole.(map[string]any)
	return rec[string(f)]
}

func (f field) Set(whole, part any) any {
	return f.Over(whole, func(any) any { return part })
}

func (f field) Over(whole any, fn func(any) any) any {
	switch w := whole.(type) {
	case map[string]any:
		out := tree.ShallowRecord(w)
		out[string(f)] = fn(w[string(f)])
		return out
	case nil:
		return map[string]any{string(f): fn(nil)}
	default:
		return whole
	}
}

// Elem focuses on the keyed-array element with the given key.
func Elem(key string) Lens {
	return elem(key)
}

type elem string

func (e elem) Get(whole any) any {
	arr, _ := whole.([]any)
	if idx := tree.IndexOf(arr, string(e)); idx >= 0 {
		return arr[idx]
	}
	return nil
}

func (e elem) Set(whole, part any) any {
	return e.Over(whole, func(any) any { return part })
}

func (e elem) Over(whole any, fn func(any) any) any {
	if _, ok := whole.([]any); !ok {
		return whole
	}
	return segment(e).Over(whole, fn)
}

// Func builds a lens from a getter and a setter.
func Func(get func(whole any) any, set func(whole, part any) any) Lens {
	return funcLens{get: get, set: set}
}

type funcLens struct {
	get func(any) any
	set func(any, any) any
}

func (f funcLens) Get(whole any) any       { return f.get(whole) }
func (f funcLens) Set(whole, part any) any { return f.set(whole, part) }
func (f funcLens) Over(whole any, fn func(any) any) any {
	return f.set(whole, fn(f.get(whole)))
}

// Compose chains lenses from the outside in.
func Compose(lenses ...Lens) Lens {
	switch len(lenses) {
	case 0:
		return Identity()
	case 1:
		return lenses[0]
	}
	return composed(append([]Lens(nil), lenses...))
}

type composed []Lens

func (c composed) Get(whole any) any {
	v := whole
	for _, l := range c {
		v = l.Get(v)
	}
	return v
}

func (c composed) Set(whole, part any) any {
	return c.Over(whole, func(any) any { return part })
}

func (c composed) Over(whole any, fn func(any) any) any {
	return c.over(0, whole, fn)
}

func (c composed) over(i int, whole any, fn func(any) any) any {
	if i == len(c)-1 {
		return c[i].Over(whole, fn)
	}
	return c[i].Over(whole, func(inner any) any {
		return c.over(i+1, inner, fn)
	})
}

// At composes one Segment lens per segment.
func At(segments ...string) Lens {
	lenses := make([]Lens, len(segments))
	for i, seg := range segments {
		lenses[i] = Segment(seg)
	}
	return Compose(lenses...)
}

// Path is At for a tree.Path.
func Path(p tree.Path) Lens {
	return At(p...)
}

// Of composes selectors: a string becomes a Segment, a tree.Path becomes
// one Segment per segment, and a Lens is used as is.
func Of(selectors ...any) (Lens, error) {
	lenses := make([]Lens, 0, len(selectors))
	for i, sel := range selectors {
		switch v := sel.(type) {
		case string:
			lenses = append(lenses, Segment(v))
		case tree.Path:
			lenses = append(lenses, Path(v))
		case Lens:
			lenses = append(lenses, v)
		default:
			return nil, fmt.Errorf("%w: argument %d is %T", ErrBadSelector, i, sel)
		}
	}
	return Compose(lenses...), nil
}
