package store

import "log/slog"

// DefaultMaxPasses bounds coalesced dispatch when no limit is configured.
const DefaultMaxPasses = 1000

type options struct {
	logger          *slog.Logger
	keys            KeyGenerator
	strictPlacement bool
	coalesce        bool
	maxPasses       int
}

func defaultOptions() options {
	return options{
		keys:      UUIDKeys(),
		maxPasses: DefaultMaxPasses,
	}
}

// Option configures a Store.
type Option func(*options)

// WithLogger sets the logger used for debug traces of dropped and rejected
// writes. A nil logger selects slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithKeyGenerator sets the generator for keys of inserted elements.
func WithKeyGenerator(gen KeyGenerator) Option {
	return func(o *options) {
		if gen != nil {
			o.keys = gen
		}
	}
}

// WithStrictPlacement makes Insert fail with ErrAnchorNotFound instead of
// falling back to append (Before) or prepend (After) when the anchor key is
// not in the array.
func WithStrictPlacement(strict bool) Option {
	return func(o *options) {
		o.strictPlacement = strict
	}
}

// WithCoalescing defers notifications raised while a dispatch is already
// running. They are queued, identical pending notifications are merged, and
// the queue is drained after the running dispatch returns.
//
// Writes still apply immediately; only observer delivery is deferred. This
// trades the nested synchronous delivery order for protection against
// unbounded recursion when observers write to each other's paths.
func WithCoalescing(enabled bool) Option {
	return func(o *options) {
		o.coalesce = enabled
	}
}

// WithMaxPasses bounds the number of queued dispatches drained by one
// top-level notification in coalescing mode. Values <= 0 select
// DefaultMaxPasses.
func WithMaxPasses(n int) Option {
	return func(o *options) {
		if n <= 0 {
			n = DefaultMaxPasses
		}
		o.maxPasses = n
	}
}

// WriteOption configures a single write.
type WriteOption func(*writeOptions)

type writeOptions struct {
	exact bool
}

// Exact limits notification to observers at the written path and its
// ancestors. Observers below the written path are not notified.
func Exact() WriteOption {
	return func(o *writeOptions) {
		o.exact = true
	}
}

func applyWriteOptions(opts []WriteOption) writeOptions {
	var wo writeOptions
	for _, opt := range opts {
		opt(&wo)
	}
	return wo
}
