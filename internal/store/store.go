package store

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/dshills/scriptree/internal/tree"
	"github.com/dshills/scriptree/internal/tree/notify"
)

// Store owns one document tree and the observers registered against it.
// It is the only place the tree is mutated.
//
// All writes are synchronous: the mutation is applied and every matching
// observer has returned before Set, Update or an Array operation returns.
// Observers may write back into the store. Mutual writes between observers
// recurse without bound unless WithCoalescing is enabled; detecting such
// cycles is the caller's job.
//
// Values returned by Get are the live nodes of the tree. Read once per
// notification and treat the result as read-only; use Snapshot for a copy
// that later writes will not touch.
type Store struct {
	mu       sync.Mutex
	root     any
	registry *notify.Registry
	opts     options
	logger   *slog.Logger
	stats    counters

	// Coalescing state, guarded by mu.
	dispatching bool
	pending     []notify.Change
}

// New creates a store holding initial.
func New(initial any, opts ...Option) *Store {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	logger := o.logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Store{
		root:     initial,
		registry: notify.NewRegistry(),
		opts:     o,
		logger:   logger,
	}
}

// Value returns the whole document.
func (s *Store) Value() any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.root
}

// Get resolves p against the document.
func (s *Store) Get(p tree.Path) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return tree.Resolve(s.root, p)
}

// Snapshot resolves p and returns a deep copy of the value.
func (s *Store) Snapshot(p tree.Path) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := tree.Resolve(s.root, p)
	if !ok {
		return nil, false
	}
	return tree.Clone(v), true
}

// Set replaces the value at p.
//
// The empty path replaces the whole document. Otherwise the parent of the
// last segment must resolve; if it does not, the write is dropped silently.
// Under a keyed array the last segment must be the key of an existing
// element, which is replaced by v. The element keeps its key unless v sets
// one explicitly.
//
// Only writes that would break the keyed-array invariant fail: replacing an
// element with a non-record (ErrNotRecord), giving it an invalid key
// (ErrInvalidKey) or a key already used by a sibling (ErrDuplicateKey).
// A record or array value is also checked as a whole, so a subtree whose
// arrays repeat or omit keys is rejected the same way.
func (s *Store) Set(p tree.Path, v any, opts ...WriteOption) error {
	return s.write(p, func(any) any { return v }, opts)
}

// Update replaces the value at p with fn applied to the current value.
// fn receives nil for a record field that does not exist yet.
// Placement and failure rules are those of Set. fn is not called when the
// write would be dropped.
func (s *Store) Update(p tree.Path, fn func(old any) any, opts ...WriteOption) error {
	if fn == nil {
		return nil
	}
	return s.write(p, fn, opts)
}

func (s *Store) write(p tree.Path, fn func(any) any, opts []WriteOption) error {
	wo := applyWriteOptions(opts)
	p = p.Clone()

	if p.IsRoot() {
		next := fn(s.Value())
		if err := tree.Validate(next); err != nil {
			return s.reject(p, err)
		}
		s.mu.Lock()
		s.root = next
		s.mu.Unlock()

		s.stats.writes.Add(1)
		s.Notify(p, wo.exact)
		return nil
	}

	old, ok := s.current(p)
	if !ok {
		s.drop(p)
		return nil
	}

	next := fn(old)
	if err := tree.Validate(next); err != nil {
		return s.reject(p, err)
	}

	s.mu.Lock()
	applied, err := s.assign(p, next)
	s.mu.Unlock()

	if err != nil {
		return s.reject(p, err)
	}
	if !applied {
		s.drop(p)
		return nil
	}

	s.stats.writes.Add(1)
	s.Notify(p, wo.exact)
	return nil
}

// current returns the value a write at p would replace, and whether the
// write target exists at all.
func (s *Store) current(p tree.Path) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	parent, ok := tree.ResolveParent(s.root, p)
	if !ok {
		return nil, false
	}
	last := p.Base()

	switch c := parent.(type) {
	case map[string]any:
		return c[last], true
	case []any:
		idx := tree.IndexOf(c, last)
		if idx < 0 {
			return nil, false
		}
		return c[idx], true
	}
	return nil, false
}

// assign stores next at p. The parent is resolved again because fn may have
// restructured the tree. Callers hold s.mu.
func (s *Store) assign(p tree.Path, next any) (bool, error) {
	parent, ok := tree.ResolveParent(s.root, p)
	if !ok {
		return false, nil
	}
	last := p.Base()

	switch c := parent.(type) {
	case map[string]any:
		if last == tree.KeyField {
			if err := s.checkKeyField(p, next); err != nil {
				return false, err
			}
		}
		c[last] = next
		return true, nil

	case []any:
		idx := tree.IndexOf(c, last)
		if idx < 0 {
			return false, nil
		}
		rec, err := keyedElement(c, last, next)
		if err != nil {
			return false, err
		}
		c[idx] = rec
		return true, nil
	}
	return false, nil
}

// checkKeyField guards a direct write to the key field of a keyed-array
// element. Callers hold s.mu.
func (s *Store) checkKeyField(p tree.Path, next any) error {
	elemPath := p.Parent()
	if elemPath.IsRoot() {
		return nil
	}
	container, ok := tree.Resolve(s.root, elemPath.Parent())
	if !ok {
		return nil
	}
	arr, ok := container.([]any)
	if !ok {
		return nil
	}

	key, ok := next.(string)
	if !ok || key == "" {
		return ErrInvalidKey
	}
	if key != elemPath.Base() && tree.IndexOf(arr, key) >= 0 {
		return ErrDuplicateKey
	}
	return nil
}

// keyedElement checks that next may replace the element keyed current in arr
// and returns it with its key filled in.
func keyedElement(arr []any, current string, next any) (map[string]any, error) {
	rec, ok := next.(map[string]any)
	if !ok || rec == nil {
		return nil, ErrNotRecord
	}

	raw, has := rec[tree.KeyField]
	if !has {
		rec = tree.ShallowRecord(rec)
		rec[tree.KeyField] = current
		return rec, nil
	}

	key, ok := raw.(string)
	if !ok || key == "" {
		return nil, ErrInvalidKey
	}
	if key != current && tree.IndexOf(arr, key) >= 0 {
		return nil, ErrDuplicateKey
	}
	return rec, nil
}

func (s *Store) reject(p tree.Path, err error) error {
	s.stats.rejectedWrites.Add(1)
	s.logger.Debug("write rejected", "path", p.String(), "error", err)
	return &WriteError{Path: p, Err: err}
}

func (s *Store) drop(p tree.Path) {
	s.stats.droppedWrites.Add(1)
	s.logger.Debug("write dropped", "path", p.String(), "reason", "target absent")
}

// Subscribe registers fn for changes at p, at its ancestors' writes, and at
// writes below it. See package notify for the matching rules.
func (s *Store) Subscribe(p tree.Path, fn notify.Observer) *notify.Subscription {
	return s.registry.Subscribe(p, fn)
}

// Unsubscribe removes sub. Removing an already removed subscription is a no-op.
func (s *Store) Unsubscribe(sub *notify.Subscription) {
	s.registry.Unsubscribe(sub)
}

// Notify announces a change at p to matching observers.
// Writes call it automatically; it is exported for hosts that mutate a
// node obtained from Get in place.
func (s *Store) Notify(p tree.Path, exact bool) {
	if !s.opts.coalesce {
		s.dispatch(p, exact)
		return
	}

	s.mu.Lock()
	if s.dispatching {
		for _, c := range s.pending {
			if c.Exact == exact && c.Path.Equal(p) {
				s.mu.Unlock()
				s.stats.coalesced.Add(1)
				return
			}
		}
		s.pending = append(s.pending, notify.Change{Path: p.Clone(), Exact: exact})
		s.mu.Unlock()
		return
	}
	s.dispatching = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.dispatching = false
		s.pending = nil
		s.mu.Unlock()
	}()

	s.dispatch(p, exact)

	for passes := 0; ; passes++ {
		s.mu.Lock()
		if len(s.pending) == 0 {
			s.mu.Unlock()
			return
		}
		if passes >= s.opts.maxPasses {
			dropped := len(s.pending)
			s.pending = nil
			s.mu.Unlock()

			s.stats.droppedDispatches.Add(uint64(dropped))
			s.logger.Warn("notification cycle cut",
				"path", p.String(),
				"passes", passes,
				"dropped", dropped,
				"error", ErrDispatchLimit)
			return
		}
		next := s.pending[0]
		s.pending = s.pending[1:]
		s.mu.Unlock()

		s.dispatch(next.Path, next.Exact)
	}
}

func (s *Store) dispatch(p tree.Path, exact bool) {
	subs := s.registry.Match(p, exact)
	n := notify.Dispatch(subs, notify.Change{Path: p, Exact: exact})

	s.stats.dispatches.Add(1)
	s.stats.delivered.Add(uint64(n))
}

// Stats returns activity counters.
func (s *Store) Stats() Stats {
	return Stats{
		Writes:            s.stats.writes.Load(),
		DroppedWrites:     s.stats.droppedWrites.Load(),
		RejectedWrites:    s.stats.rejectedWrites.Load(),
		Dispatches:        s.stats.dispatches.Load(),
		Delivered:         s.stats.delivered.Load(),
		Coalesced:         s.stats.coalesced.Load(),
		DroppedDispatches: s.stats.droppedDispatches.Load(),
		Subscriptions:     s.registry.Len(),
	}
}

// StrictPlacement reports whether Insert rejects missing anchors.
func (s *Store) StrictPlacement() bool {
	return s.opts.strictPlacement
}

// Logger returns the store's logger.
func (s *Store) Logger() *slog.Logger {
	return s.logger
}

func (s *Store) locate() (*Store, tree.Path) {
	return s, nil
}

// IsRejected reports whether err is one of the write errors returned by Set
// and Update, as opposed to a placement error from Insert.
func IsRejected(err error) bool {
	return errors.Is(err, ErrNotRecord) ||
		errors.Is(err, ErrInvalidKey) ||
		errors.Is(err, ErrMissingKey) ||
		errors.Is(err, ErrDuplicateKey)
}
