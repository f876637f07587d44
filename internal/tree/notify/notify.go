// Package notify provides path-scoped change notification for document trees.
//
// Observers register at a tree.Path. When a change at some path is
// announced, an observer is selected by comparing whole segments:
//
//   - observers at the root path always match
//   - observers at the changed path and at any ancestor of it match
//   - observers below the changed path match unless the change is exact
//
// "items" is an ancestor of "items.k1.name" but has nothing to do with
// "items2": matching never looks at raw string prefixes.
//
// Observers are held in a trie keyed by segment, so selecting observers for
// a change touches only the buckets on the changed path plus, for non-exact
// changes, the subtree beneath it.
package notify

import (
	"sync"
	"sync/atomic"

	"github.com/dshills/scriptree/internal/tree"
)

// Change describes a mutation being announced.
type Change struct {
	// Path is the path that was written.
	Path tree.Path

	// Exact is true when observers below Path were not notified.
	Exact bool
}

// Observer is called when a matching change is announced.
type Observer func(change Change)

// Subscription is the handle for one registered observer.
type Subscription struct {
	id       uint64
	path     tree.Path
	observer Observer
	registry *Registry
	active   atomic.Bool
}

// Path returns the path the subscription was registered at.
func (s *Subscription) Path() tree.Path {
	return s.path
}

// Active reports whether the subscription is still registered.
func (s *Subscription) Active() bool {
	return s != nil && s.active.Load()
}

// Unsubscribe removes the subscription. It is safe to call more than once,
// on a nil subscription, and from inside an observer.
func (s *Subscription) Unsubscribe() {
	if s == nil || s.registry == nil {
		return
	}
	s.registry.remove(s)
}

// Registry holds observers keyed by path.
type Registry struct {
	mu     sync.Mutex
	root   *node
	nextID uint64
	count  int
}

// node is one trie level. subs keeps registration order.
type node struct {
	children map[string]*node
	order    []string
	subs     []*Subscription
}

func newNode() *node {
	return &node{children: make(map[string]*node)}
}

func (n *node) isEmpty() bool {
	return len(n.children) == 0 && len(n.subs) == 0
}

func (n *node) child(seg string, create bool) *node {
	c := n.children[seg]
	if c == nil && create {
		c = newNode()
		n.children[seg] = c
		n.order = append(n.order, seg)
	}
	return c
}

func (n *node) dropChild(seg string) {
	delete(n.children, seg)
	for i, s := range n.order {
		if s == seg {
			n.order = append(n.order[:i], n.order[i+1:]...)
			break
		}
	}
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{root: newNode()}
}

// Subscribe registers observer at path p.
func (r *Registry) Subscribe(p tree.Path, observer Observer) *Subscription {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.root == nil {
		r.root = newNode()
	}

	r.nextID++
	sub := &Subscription{
		id:       r.nextID,
		path:     p.Clone(),
		observer: observer,
		registry: r,
	}
	sub.active.Store(true)

	n := r.root
	for _, seg := range p {
		n = n.child(seg, true)
	}
	n.subs = append(n.subs, sub)
	r.count++

	return sub
}

// Unsubscribe removes sub. It reports whether sub was still registered.
func (r *Registry) Unsubscribe(sub *Subscription) bool {
	if sub == nil || sub.registry != r {
		return false
	}
	return r.remove(sub)
}

// remove detaches sub from its bucket and prunes empty nodes.
func (r *Registry) remove(sub *Subscription) bool {
	if !sub.active.CompareAndSwap(true, false) {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	type step struct {
		n   *node
		seg string
	}
	trail := make([]step, 0, len(sub.path)+1)
	trail = append(trail, step{n: r.root})

	n := r.root
	for _, seg := range sub.path {
		n = n.child(seg, false)
		if n == nil {
			return false
		}
		trail = append(trail, step{n: n, seg: seg})
	}

	for i, s := range n.subs {
		if s == sub {
			n.subs = append(n.subs[:i:i], n.subs[i+1:]...)
			break
		}
	}
	r.count--

	for i := len(trail) - 1; i > 0; i-- {
		if !trail[i].n.isEmpty() {
			break
		}
		trail[i-1].n.dropChild(trail[i].seg)
	}
	return true
}

// Match returns the subscriptions selected by a change at p, in dispatch
// order: root first, then each ancestor from the top down, then p itself,
// then (unless exact) the subtree below p depth first. Within a bucket
// subscriptions keep registration order.
//
// The returned slice is a snapshot owned by the caller.
func (r *Registry) Match(p tree.Path, exact bool) []*Subscription {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.root == nil {
		return nil
	}

	var out []*Subscription
	n := r.root
	out = append(out, n.subs...)
	for _, seg := range p {
		n = n.child(seg, false)
		if n == nil {
			return out
		}
		out = append(out, n.subs...)
	}

	if !exact {
		out = collectBelow(n, out)
	}
	return out
}

func collectBelow(n *node, out []*Subscription) []*Subscription {
	for _, seg := range n.order {
		c := n.children[seg]
		out = append(out, c.subs...)
		out = collectBelow(c, out)
	}
	return out
}

// Dispatch invokes each subscription in subs with change.
// Subscriptions removed after the snapshot was taken are skipped.
// It returns the number of observers invoked.
func Dispatch(subs []*Subscription, change Change) int {
	delivered := 0
	for _, sub := range subs {
		if !sub.active.Load() || sub.observer == nil {
			continue
		}
		sub.observer(change)
		delivered++
	}
	return delivered
}

// Notify matches and dispatches a change in one step.
func (r *Registry) Notify(p tree.Path, exact bool) int {
	subs := r.Match(p, exact)
	return Dispatch(subs, Change{Path: p, Exact: exact})
}

// Len returns the number of registered subscriptions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

// Paths returns the distinct paths that currently have observers.
func (r *Registry) Paths() []tree.Path {
	r.mu.Lock()
	defer r.mu.Unlock()

	var paths []tree.Path
	var walk func(n *node, at tree.Path)
	walk = func(n *node, at tree.Path) {
		if len(n.subs) > 0 {
			paths = append(paths, at.Clone())
		}
		for _, seg := range n.order {
			walk(n.children[seg], at.Join(seg))
		}
	}
	if r.root != nil {
		walk(r.root, nil)
	}
	return paths
}
