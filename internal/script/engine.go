package script

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/scriptree/internal/store"
	"github.com/dshills/scriptree/internal/tree/notify"
)

// Default limits for script execution.
const (
	DefaultTimeout   = 5 * time.Second
	DefaultCallLimit = 100_000
)

// Option configures an Engine.
type Option func(*Engine)

// WithTimeout bounds the wall-clock time of each run. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.timeout = d
	}
}

// WithCallLimit bounds the number of doc calls per run. Zero disables it.
func WithCallLimit(n int) Option {
	return func(e *Engine) {
		e.callLimit = int64(n)
	}
}

// WithLogger sets the logger for script output and observer failures.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithOutput sets where print writes. The default discards output.
func WithOutput(w io.Writer) Option {
	return func(e *Engine) {
		if w != nil {
			e.out = w
		}
	}
}

// Engine binds a sandboxed Lua state to a document tree.
type Engine struct {
	L    *lua.LState
	tree store.Tree

	mu     sync.Mutex
	closed atomic.Bool

	timeout   time.Duration
	callLimit int64
	calls     atomic.Int64
	logger    *slog.Logger
	out       io.Writer

	subsMu sync.Mutex
	subs   map[int]*notify.Subscription
	nextID int
}

// New creates an engine operating on t.
func New(t store.Tree, opts ...Option) *Engine {
	e := &Engine{
		tree:      t,
		timeout:   DefaultTimeout,
		callLimit: DefaultCallLimit,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		out:       io.Discard,
		subs:      make(map[int]*notify.Subscription),
	}
	for _, opt := range opts {
		opt(e)
	}

	e.L = lua.NewState(lua.Options{SkipOpenLibs: true})
	openSafeLibraries(e.L)
	e.installSandbox()
	e.installModule()

	return e
}

// openSafeLibraries opens only libraries without host access.
func openSafeLibraries(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
}

// installSandbox removes loaders and replaces print and require.
func (e *Engine) installSandbox() {
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring"} {
		e.L.SetGlobal(name, lua.LNil)
	}

	e.L.SetGlobal("print", e.L.NewFunction(func(L *lua.LState) int {
		n := L.GetTop()
		parts := make([]string, n)
		for i := 1; i <= n; i++ {
			parts[i-1] = L.ToStringMeta(L.Get(i)).String()
		}
		line := strings.Join(parts, "\t")
		fmt.Fprintln(e.out, line)
		e.logger.Debug("script print", "text", line)
		return 0
	}))

	e.L.SetGlobal("require", e.L.NewFunction(func(L *lua.LState) int {
		name := L.CheckString(1)
		switch name {
		case "doc", "string", "table", "math":
			L.Push(L.GetGlobal(name))
			return 1
		}
		L.RaiseError("module %q is not available", name)
		return 0
	}))
}

// Run executes code. name identifies the script in errors.
func (e *Engine) Run(ctx context.Context, name, code string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed.Load() {
		return ErrEngineClosed
	}

	fn, err := e.L.LoadString(code)
	if err != nil {
		return &Error{Name: name, Err: err}
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}
	e.L.SetContext(ctx)
	defer e.L.RemoveContext()

	e.calls.Store(0)
	start := time.Now()

	err = e.call(fn)
	switch {
	case err == nil:
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		err = fmt.Errorf("%w: %v", ErrTimeout, err)
	case e.callLimit > 0 && e.calls.Load() > e.callLimit:
		err = fmt.Errorf("%w: %v", ErrCallLimit, err)
	}

	e.logger.Debug("script finished",
		"script", name,
		"calls", e.calls.Load(),
		"elapsed", time.Since(start),
		"error", err)

	if err != nil {
		return &Error{Name: name, Err: err}
	}
	return nil
}

// RunFile reads and executes the script at path.
func (e *Engine) RunFile(ctx context.Context, path string) error {
	code, err := os.ReadFile(path)
	if err != nil {
		return &Error{Name: path, Err: err}
	}
	return e.Run(ctx, path, string(code))
}

// call runs fn with panic recovery.
func (e *Engine) call(fn *lua.LFunction, args ...lua.LValue) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()

	e.L.Push(fn)
	for _, arg := range args {
		e.L.Push(arg)
	}
	return e.L.PCall(len(args), 0, nil)
}

// countCall charges one doc call against the run's budget.
func (e *Engine) countCall(L *lua.LState) {
	n := e.calls.Add(1)
	if e.callLimit > 0 && n > e.callLimit {
		L.RaiseError("%s (%d)", ErrCallLimit.Error(), e.callLimit)
	}
}

// Subscriptions returns the number of live doc.on registrations.
func (e *Engine) Subscriptions() int {
	e.subsMu.Lock()
	defer e.subsMu.Unlock()
	return len(e.subs)
}

// Close unsubscribes every observer the scripts registered and releases
// the Lua state. Close is idempotent.
func (e *Engine) Close() error {
	if e.closed.Swap(true) {
		return nil
	}

	e.subsMu.Lock()
	for id, sub := range e.subs {
		sub.Unsubscribe()
		delete(e.subs, id)
	}
	e.subsMu.Unlock()

	e.mu.Lock()
	defer e.mu.Unlock()
	e.L.Close()
	return nil
}
