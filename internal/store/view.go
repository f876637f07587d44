package store

import (
	"github.com/dshills/scriptree/internal/tree"
	"github.com/dshills/scriptree/internal/tree/notify"
)

// Tree is the read/write/subscribe contract shared by a Store and its Views.
// Paths passed to a View's methods are relative to the view.
type Tree interface {
	Get(p tree.Path) (any, bool)
	Set(p tree.Path, v any, opts ...WriteOption) error
	Update(p tree.Path, fn func(old any) any, opts ...WriteOption) error
	Subscribe(p tree.Path, fn notify.Observer) *notify.Subscription
	Notify(p tree.Path, exact bool)

	locate() (*Store, tree.Path)
}

var (
	_ Tree = (*Store)(nil)
	_ Tree = View{}
)

// View is a handle on the subtree at a path of a Store.
//
// A View holds no value and touches no registry when created; every read
// resolves the path again. Deriving a view of a view concatenates the paths,
// so Derive(Derive(s, "a"), "b") behaves exactly like Derive(s, "a", "b").
//
// Views are cheap values. Two views on the same path are interchangeable,
// but a View is not a stable identity and must not be used as a cache key.
type View struct {
	store *Store
	path  tree.Path
}

// Derive returns the view at segments below t.
func Derive(t Tree, segments ...string) View {
	s, base := t.locate()
	return View{store: s, path: base.Join(segments...)}
}

// DerivePath is Derive with a Path.
func DerivePath(t Tree, p tree.Path) View {
	return Derive(t, p...)
}

// At returns the view at segments below v.
func (v View) At(segments ...string) View {
	return View{store: v.store, path: v.path.Join(segments...)}
}

// Path returns the absolute path of the view.
func (v View) Path() tree.Path {
	return v.path.Clone()
}

// Store returns the store behind the view.
func (v View) Store() *Store {
	return v.store
}

// String returns the dotted path of the view.
func (v View) String() string {
	if v.path.IsRoot() {
		return "<root>"
	}
	return v.path.String()
}

// Value resolves the view. Absent values read as nil.
func (v View) Value() any {
	val, _ := v.store.Get(v.path)
	return val
}

// Lookup resolves the view and reports whether it exists.
func (v View) Lookup() (any, bool) {
	return v.store.Get(v.path)
}

// Exists reports whether the view currently resolves.
func (v View) Exists() bool {
	_, ok := v.store.Get(v.path)
	return ok
}

// Kind returns the shape of the current value.
func (v View) Kind() tree.Kind {
	val, ok := v.store.Get(v.path)
	if !ok {
		return tree.KindAbsent
	}
	if val == nil {
		return tree.KindScalar
	}
	return tree.KindOf(val)
}

// Snapshot returns a deep copy of the current value.
func (v View) Snapshot() (any, bool) {
	return v.store.Snapshot(v.path)
}

// SetValue replaces the value at the view.
func (v View) SetValue(val any, opts ...WriteOption) error {
	return v.store.Set(v.path, val, opts...)
}

// UpdateValue replaces the value at the view with fn applied to it.
func (v View) UpdateValue(fn func(old any) any, opts ...WriteOption) error {
	return v.store.Update(v.path, fn, opts...)
}

// On subscribes fn to changes affecting the view.
func (v View) On(fn notify.Observer) *notify.Subscription {
	return v.store.Subscribe(v.path, fn)
}

// Keys returns the keys of the keyed array at the view.
func (v View) Keys() []string {
	return keysOf(v.Value())
}

// Array returns the keyed-array updater for the view.
func (v View) Array() Array {
	return Array{view: v}
}

// Get resolves p relative to the view.
func (v View) Get(p tree.Path) (any, bool) {
	return v.store.Get(v.path.Concat(p))
}

// Set writes v at p relative to the view.
func (v View) Set(p tree.Path, val any, opts ...WriteOption) error {
	return v.store.Set(v.path.Concat(p), val, opts...)
}

// Update transforms the value at p relative to the view.
func (v View) Update(p tree.Path, fn func(old any) any, opts ...WriteOption) error {
	return v.store.Update(v.path.Concat(p), fn, opts...)
}

// Subscribe registers fn at p relative to the view.
func (v View) Subscribe(p tree.Path, fn notify.Observer) *notify.Subscription {
	return v.store.Subscribe(v.path.Concat(p), fn)
}

// Notify announces a change at p relative to the view.
func (v View) Notify(p tree.Path, exact bool) {
	v.store.Notify(v.path.Concat(p), exact)
}

func (v View) locate() (*Store, tree.Path) {
	return v.store, v.path
}

// Keys returns the keys of the keyed array at segments below t, in order.
// A path that is absent or not an array yields an empty list.
func Keys(t Tree, segments ...string) []string {
	return Derive(t, segments...).Keys()
}

func keysOf(val any) []string {
	arr, ok := val.([]any)
	if !ok {
		return []string{}
	}
	return tree.Keys(arr)
}
