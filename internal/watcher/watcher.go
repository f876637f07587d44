// Package watcher reports changes to individual files.
//
// Files are watched through their parent directory so that editors which
// save by writing a temporary file and renaming it over the original are
// still seen. Bursts of events for a file are debounced into one Event
// carrying the union of the operations observed.
package watcher

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Common errors returned by watcher operations.
var (
	ErrWatcherClosed   = errors.New("watcher is closed")
	ErrAlreadyWatching = errors.New("file is already being watched")
	ErrNotWatching     = errors.New("file is not being watched")
	ErrPathNotExist    = errors.New("path does not exist")
)

// Op is a set of file system operations.
type Op uint32

const (
	OpCreate Op = 1 << iota
	OpWrite
	OpRemove
	OpRename
	OpChmod
)

var opNames = []struct {
	op   Op
	name string
}{
	{OpCreate, "CREATE"},
	{OpWrite, "WRITE"},
	{OpRemove, "REMOVE"},
	{OpRename, "RENAME"},
	{OpChmod, "CHMOD"},
}

// String returns the operations joined by "|".
func (op Op) String() string {
	var parts []string
	for _, n := range opNames {
		if op.Has(n.op) {
			parts = append(parts, n.name)
		}
	}
	if len(parts) == 0 {
		return "NONE"
	}
	return strings.Join(parts, "|")
}

// Has returns true if the operation includes o.
func (op Op) Has(o Op) bool {
	return op&o == o
}

// Event reports changes to one watched file.
type Event struct {
	// Path is the absolute path of the file.
	Path string
	// Op is every operation seen during the debounce window.
	Op Op
	// Time is when the last of those operations was seen.
	Time time.Time
}

// DefaultDebounce is the quiet period used when none is configured.
const DefaultDebounce = 100 * time.Millisecond

type config struct {
	debounce   time.Duration
	bufferSize int
	logger     *slog.Logger
}

// Option configures a Watcher.
type Option func(*config)

// WithDebounce sets the quiet period after the last event before pending
// events are delivered. Zero delivers every event immediately.
func WithDebounce(d time.Duration) Option {
	return func(c *config) {
		if d >= 0 {
			c.debounce = d
		}
	}
}

// WithBufferSize sets the capacity of the event channel.
func WithBufferSize(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.bufferSize = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Watcher watches a set of files.
type Watcher struct {
	fsw    *fsnotify.Watcher
	cfg    config
	logger *slog.Logger

	mu     sync.Mutex
	files  map[string]bool
	dirs   map[string]int // watched directory -> number of files in it
	closed bool

	events  chan Event
	errors  chan error
	closeCh chan struct{}
	wg      sync.WaitGroup
}

// New creates a watcher with no files.
func New(opts ...Option) (*Watcher, error) {
	cfg := config{
		debounce:   DefaultDebounce,
		bufferSize: 16,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fsw:     fsw,
		cfg:     cfg,
		logger:  cfg.logger.With("component", "watcher"),
		files:   make(map[string]bool),
		dirs:    make(map[string]int),
		events:  make(chan Event, cfg.bufferSize),
		errors:  make(chan error, cfg.bufferSize),
		closeCh: make(chan struct{}),
	}

	w.wg.Add(1)
	go w.processLoop()

	return w, nil
}

// Add starts watching the file at path.
func (w *Watcher) Add(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrPathNotExist
		}
		return err
	}
	if info.IsDir() {
		return errors.New("watcher: " + abs + " is a directory")
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrWatcherClosed
	}
	if w.files[abs] {
		return ErrAlreadyWatching
	}

	dir := filepath.Dir(abs)
	if w.dirs[dir] == 0 {
		if err := w.fsw.Add(dir); err != nil {
			return err
		}
	}
	w.dirs[dir]++
	w.files[abs] = true

	w.logger.Debug("watching file", "path", abs)
	return nil
}

// Remove stops watching the file at path. The parent directory is released
// once no watched file remains in it.
func (w *Watcher) Remove(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrWatcherClosed
	}
	if !w.files[abs] {
		return ErrNotWatching
	}

	delete(w.files, abs)
	dir := filepath.Dir(abs)
	w.dirs[dir]--
	if w.dirs[dir] > 0 {
		return nil
	}
	delete(w.dirs, dir)
	if err := w.fsw.Remove(dir); err != nil {
		return err
	}

	w.logger.Debug("stopped watching file", "path", abs)
	return nil
}

// Files returns the watched files in sorted order.
func (w *Watcher) Files() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make([]string, 0, len(w.files))
	for f := range w.files {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// Events returns the channel of debounced events. It is closed by Close.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Errors returns the channel of watch errors. It is closed by Close.
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

// Close stops the watcher. Pending events are discarded.
// Close is idempotent.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.closeCh)
	w.mu.Unlock()

	w.wg.Wait()

	close(w.events)
	close(w.errors)

	return w.fsw.Close()
}

func (w *Watcher) tracked(name string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.files[filepath.Clean(name)]
}

// processLoop collects fsnotify events and delivers them once the
// debounce window has been quiet.
func (w *Watcher) processLoop() {
	defer w.wg.Done()

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	pending := make(map[string]Event)

	for {
		select {
		case <-w.closeCh:
			return

		case fsEvent, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			op := convertOp(fsEvent.Op)
			if op == 0 || !w.tracked(fsEvent.Name) {
				continue
			}

			path := filepath.Clean(fsEvent.Name)
			ev := pending[path]
			ev.Path = path
			ev.Op |= op
			ev.Time = time.Now()

			if w.cfg.debounce <= 0 {
				w.send(ev)
				continue
			}
			pending[path] = ev
			timer.Reset(w.cfg.debounce)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", "error", err)
			select {
			case w.errors <- err:
			default:
				// Channel full, drop error
			}

		case <-timer.C:
			paths := make([]string, 0, len(pending))
			for p := range pending {
				paths = append(paths, p)
			}
			sort.Strings(paths)
			for _, p := range paths {
				w.send(pending[p])
				delete(pending, p)
			}
		}
	}
}

// send delivers ev, blocking until it is received or the watcher closes.
func (w *Watcher) send(ev Event) {
	w.logger.Debug("file changed", "path", ev.Path, "op", ev.Op.String())
	select {
	case w.events <- ev:
	case <-w.closeCh:
	}
}

// convertOp converts fsnotify.Op to Op.
func convertOp(fsOp fsnotify.Op) Op {
	var op Op
	if fsOp.Has(fsnotify.Create) {
		op |= OpCreate
	}
	if fsOp.Has(fsnotify.Write) {
		op |= OpWrite
	}
	if fsOp.Has(fsnotify.Remove) {
		op |= OpRemove
	}
	if fsOp.Has(fsnotify.Rename) {
		op |= OpRename
	}
	if fsOp.Has(fsnotify.Chmod) {
		op |= OpChmod
	}
	return op
}
