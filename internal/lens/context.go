package lens

import (
	"reflect"
	"sync"
)

// Context holds a root value and the watchers interested in it.
// Every change notifies every watcher.
type Context struct {
	mu       sync.Mutex
	value    any
	watchers []*watcher
}

type watcher struct {
	fn     func()
	active bool
}

// NewContext creates a context holding initial.
func NewContext(initial any) *Context {
	return &Context{value: initial}
}

// Value returns the root value.
func (c *Context) Value() any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

// Focus returns a handle on the part of the root selected by lenses.
func (c *Context) Focus(lenses ...Lens) Focus {
	return Focus{ctx: c, lens: Compose(lenses...)}
}

// Len returns the number of active watchers.
func (c *Context) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.watchers)
}

// apply runs fn without holding the lock so transforms may read the
// context. Concurrent applies are last-writer-wins.
func (c *Context) apply(fn func(any) any) {
	next := fn(c.Value())

	c.mu.Lock()
	c.value = next
	snapshot := append([]*watcher(nil), c.watchers...)
	c.mu.Unlock()

	for _, w := range snapshot {
		c.mu.Lock()
		active := w.active
		c.mu.Unlock()
		if active {
			w.fn()
		}
	}
}

func (c *Context) subscribe(fn func()) func() {
	w := &watcher{fn: fn, active: true}

	c.mu.Lock()
	c.watchers = append(c.watchers, w)
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if !w.active {
			return
		}
		w.active = false
		for i, x := range c.watchers {
			if x == w {
				c.watchers = append(c.watchers[:i:i], c.watchers[i+1:]...)
				break
			}
		}
	}
}

// Focus is a lens applied to a Context.
type Focus struct {
	ctx  *Context
	lens Lens
}

// Focus narrows f further.
func (f Focus) Focus(lenses ...Lens) Focus {
	all := append([]Lens{f.lens}, lenses...)
	return Focus{ctx: f.ctx, lens: Compose(all...)}
}

// Value reads the focused part.
func (f Focus) Value() any {
	return f.lens.Get(f.ctx.Value())
}

// Set replaces the focused part and notifies every watcher of the context.
func (f Focus) Set(v any) {
	f.ctx.apply(func(whole any) any {
		return f.lens.Set(whole, v)
	})
}

// Update transforms the focused part and notifies every watcher.
func (f Focus) Update(fn func(any) any) {
	f.ctx.apply(func(whole any) any {
		return f.lens.Over(whole, fn)
	})
}

// Equal is the default comparison for Watch.
func Equal(a, b any) bool {
	return reflect.DeepEqual(a, b)
}

// Watch calls fn with the projection of f whenever it changes.
//
// After every change to the context, pick is applied to the focused value
// and the result compared with the previous projection using eq. fn runs
// only when they differ. A nil pick selects the focused value itself; a nil
// eq selects Equal. A pick that panics keeps the previous projection.
//
// The returned function cancels the watch and may be called more than once.
func Watch(f Focus, pick func(any) any, eq func(a, b any) bool, fn func(v any)) func() {
	if pick == nil {
		pick = func(v any) any { return v }
	}
	if eq == nil {
		eq = Equal
	}

	var mu sync.Mutex
	last, _ := safePick(pick, f.Value())

	return f.ctx.subscribe(func() {
		latest, ok := safePick(pick, f.Value())
		if !ok {
			return
		}
		mu.Lock()
		changed := !eq(last, latest)
		if changed {
			last = latest
		}
		mu.Unlock()
		if changed {
			fn(latest)
		}
	})
}

func safePick(pick func(any) any, v any) (out any, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			out, ok = nil, false
		}
	}()
	return pick(v), true
}
