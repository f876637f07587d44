package script

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/dshills/scriptree/internal/store"
	"github.com/dshills/scriptree/internal/tree"
	"github.com/dshills/scriptree/internal/tree/notify"
)

func seqKeys() store.KeyGenerator {
	n := 0
	return func() string {
		n++
		return "k" + string(rune('0'+n))
	}
}

func newTestEngine(t *testing.T, doc any, opts ...Option) (*Engine, *store.Store, *bytes.Buffer) {
	t.Helper()
	s := store.New(doc, store.WithKeyGenerator(seqKeys()))
	var out bytes.Buffer
	e := New(s, append([]Option{WithOutput(&out)}, opts...)...)
	t.Cleanup(func() { e.Close() })
	return e, s, &out
}

func sampleDoc() map[string]any {
	return map[string]any{
		"title": "intro",
		"procs": []any{
			map[string]any{"key": "a", "name": "main"},
			map[string]any{"key": "b", "name": "bye"},
		},
	}
}

func run(t *testing.T, e *Engine, code string) {
	t.Helper()
	if err := e.Run(context.Background(), "test", code); err != nil {
		t.Fatalf("Run error: %v", err)
	}
}

func TestEngine_GetSet(t *testing.T) {
	e, s, out := newTestEngine(t, sampleDoc())

	run(t, e, `
		print(doc.get("title"))
		print(doc.get("procs.b.name"))
		print(doc.get("procs.z"))
		doc.set("procs.a.name", "entry")
		doc.set("count", 3)
	`)

	if got := out.String(); got != "intro\nbye\nnil\n" {
		t.Errorf("output = %q", got)
	}
	if v, _ := s.Get(tree.MustParsePath("procs.a.name")); v != "entry" {
		t.Errorf("procs.a.name = %v, want entry", v)
	}
	if v, _ := s.Get(tree.P("count")); v != float64(3) {
		t.Errorf("count = %#v, want float64(3)", v)
	}
}

func TestEngine_Tables(t *testing.T) {
	e, s, _ := newTestEngine(t, map[string]any{})

	run(t, e, `
		doc.set("meta", { draft = true, tags = { "x", "y" } })
		doc.set("empty", {})
		doc.set("list", doc.array())
		local p = doc.get("meta")
		assert(p.draft == true)
		assert(#p.tags == 2)
	`)

	want := map[string]any{
		"meta":  map[string]any{"draft": true, "tags": []any{"x", "y"}},
		"empty": map[string]any{},
		"list":  []any{},
	}
	if !reflect.DeepEqual(s.Value(), want) {
		t.Errorf("doc = %#v, want %#v", s.Value(), want)
	}
}

func TestEngine_ArrayOps(t *testing.T) {
	e, s, out := newTestEngine(t, sampleDoc())

	run(t, e, `
		local id = doc.insert("procs", { name = "new" }, "before:b")
		print(id)
		doc.insert("procs", { key = "own", name = "mine" }, "head")
		print(table.concat(doc.keys("procs"), ","))
		local r = doc.remove("procs", "a")
		print(r.name)
		print(doc.remove("procs", "missing"))
		doc.move("procs", "b", "head")
		print(table.concat(doc.keys("procs"), ","))
		doc.reorder("procs", { "k1", "own" })
		print(table.concat(doc.keys("procs"), ","))
		print(doc.insert("nowhere", { name = "x" }))
	`)

	want := "k1\nown,a,k1,b\nmain\nnil\nb,own,k1\nk1,own\nnil\n"
	if got := out.String(); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
	if got := store.Keys(s, "procs"); !reflect.DeepEqual(got, []string{"k1", "own"}) {
		t.Errorf("keys = %v", got)
	}
}

func TestEngine_Errors(t *testing.T) {
	tests := []struct {
		name string
		code string
		want string
	}{
		{"syntax", `doc.get(`, ""},
		{"bad placement", `doc.insert("procs", {}, "sideways")`, "invalid placement"},
		{"duplicate key", `doc.set("procs.a.key", "b")`, "duplicate key"},
		{"bad path", `doc.get("a..b")`, "invalid path"},
		{"insert into scalar", `doc.insert("title", {})`, "not an array"},
		{"runtime", `error("boom")`, "boom"},
		{"no io", `io.open("x")`, ""},
		{"no dofile", `dofile("x")`, ""},
		{"require", `require("os")`, "not available"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _, _ := newTestEngine(t, sampleDoc())
			err := e.Run(context.Background(), "bad.lua", tt.code)

			var serr *Error
			if !errors.As(err, &serr) {
				t.Fatalf("Run error = %v, want *Error", err)
			}
			if serr.Name != "bad.lua" {
				t.Errorf("Name = %q, want bad.lua", serr.Name)
			}
			if tt.want != "" && !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestEngine_RequireDoc(t *testing.T) {
	e, _, out := newTestEngine(t, sampleDoc())
	run(t, e, `
		local d = require("doc")
		print(d.kind("procs"), d.kind("title"), d.kind("procs.a"), d.kind("nope"))
		print(d.exists("procs.a"), d.exists("procs.z"))
	`)
	if got := out.String(); got != "array\tscalar\trecord\tabsent\ntrue\tfalse\n" {
		t.Errorf("output = %q", got)
	}
}

func TestEngine_OnOff(t *testing.T) {
	e, s, out := newTestEngine(t, sampleDoc())

	run(t, e, `
		sub = doc.on("procs.a", function(path, exact)
			print("changed", path, exact)
		end)
		doc.set("procs.a.name", "x")
		doc.set("title", "y")
	`)
	if e.Subscriptions() != 1 {
		t.Fatalf("Subscriptions = %d, want 1", e.Subscriptions())
	}

	// Observers also fire for writes made from Go.
	if err := s.Set(tree.MustParsePath("procs.a"), map[string]any{"key": "a"}); err != nil {
		t.Fatal(err)
	}

	run(t, e, `print(doc.off(sub)) print(doc.off(sub))`)
	if err := s.Set(tree.MustParsePath("procs.a.name"), "z"); err != nil {
		t.Fatal(err)
	}

	want := "changed\tprocs.a.name\tfalse\nchanged\tprocs.a\tfalse\ntrue\nfalse\n"
	if got := out.String(); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
	if e.Subscriptions() != 0 {
		t.Errorf("Subscriptions = %d, want 0", e.Subscriptions())
	}
}

func TestEngine_ObserverErrorIsContained(t *testing.T) {
	e, s, _ := newTestEngine(t, sampleDoc())

	run(t, e, `doc.on("title", function() error("observer broke") end)`)

	if err := s.Set(tree.P("title"), "x"); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	if v, _ := s.Get(tree.P("title")); v != "x" {
		t.Errorf("title = %v, want x", v)
	}
}

func TestEngine_Update(t *testing.T) {
	e, s, _ := newTestEngine(t, map[string]any{"n": float64(1)})
	run(t, e, `doc.update("n", function(old) return old + 41 end)`)
	if v, _ := s.Get(tree.P("n")); v != float64(42) {
		t.Errorf("n = %v, want 42", v)
	}
}

func TestEngine_Notify(t *testing.T) {
	e, s, _ := newTestEngine(t, sampleDoc())

	calls := 0
	s.Subscribe(tree.P("procs"), func(notify.Change) { calls++ })

	run(t, e, `doc.notify("procs.a") doc.notify("procs", true)`)
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestEngine_Timeout(t *testing.T) {
	e, _, _ := newTestEngine(t, sampleDoc(), WithTimeout(50*time.Millisecond))

	err := e.Run(context.Background(), "loop", `while true do end`)
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("Run error = %v, want ErrTimeout", err)
	}

	// The engine stays usable after a timeout.
	run(t, e, `doc.set("title", "after")`)
}

func TestEngine_CallLimit(t *testing.T) {
	e, _, _ := newTestEngine(t, sampleDoc(), WithCallLimit(10))

	err := e.Run(context.Background(), "busy", `for i = 1, 100 do doc.get("title") end`)
	if !errors.Is(err, ErrCallLimit) {
		t.Errorf("Run error = %v, want ErrCallLimit", err)
	}

	// The budget resets per run.
	run(t, e, `for i = 1, 10 do doc.get("title") end`)
}

func TestEngine_Close(t *testing.T) {
	e, s, _ := newTestEngine(t, sampleDoc())

	run(t, e, `doc.on("title", function() end) doc.on("procs", function() end)`)
	if n := s.Stats().Subscriptions; n != 2 {
		t.Fatalf("store subscriptions = %d, want 2", n)
	}

	if err := e.Close(); err != nil {
		t.Fatal(err)
	}
	if err := e.Close(); err != nil {
		t.Fatal(err)
	}
	if n := s.Stats().Subscriptions; n != 0 {
		t.Errorf("store subscriptions after Close = %d, want 0", n)
	}
	if err := e.Run(context.Background(), "late", ``); !errors.Is(err, ErrEngineClosed) {
		t.Errorf("Run after Close = %v, want ErrEngineClosed", err)
	}
}

func TestEngine_RunFile(t *testing.T) {
	e, s, _ := newTestEngine(t, sampleDoc())

	path := filepath.Join(t.TempDir(), "rename.lua")
	if err := os.WriteFile(path, []byte(`doc.set("title", "from file")`), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := e.RunFile(context.Background(), path); err != nil {
		t.Fatalf("RunFile error: %v", err)
	}
	if v, _ := s.Get(tree.P("title")); v != "from file" {
		t.Errorf("title = %v", v)
	}

	if err := e.RunFile(context.Background(), filepath.Join(t.TempDir(), "nope.lua")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("RunFile missing = %v, want ErrNotExist", err)
	}
}

func TestEngine_View(t *testing.T) {
	s := store.New(sampleDoc())
	e := New(store.Derive(s, "procs", "a"))
	defer e.Close()

	if err := e.Run(context.Background(), "view", `doc.set("name", "scoped")`); err != nil {
		t.Fatal(err)
	}
	if v, _ := s.Get(tree.MustParsePath("procs.a.name")); v != "scoped" {
		t.Errorf("procs.a.name = %v, want scoped", v)
	}
}
