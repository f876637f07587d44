package lens

import (
	"errors"
	"reflect"
	"testing"

	"github.com/dshills/scriptree/internal/tree"
)

func sampleDoc() map[string]any {
	return map[string]any{
		"title": "doc",
		"procs": []any{
			map[string]any{"key": "p1", "name": "main", "body": []any{}},
			map[string]any{"key": "p2", "name": "helper"},
		},
		"meta": map[string]any{"draft": true},
	}
}

func TestLens_Get(t *testing.T) {
	doc := sampleDoc()

	tests := []struct {
		name string
		lens Lens
		want any
	}{
		{"identity", Identity(), doc},
		{"field", At("title"), "doc"},
		{"nested field", At("meta", "draft"), true},
		{"array element", At("procs", "p2", "name"), "helper"},
		{"missing field", At("nope"), nil},
		{"missing key", At("procs", "p9", "name"), nil},
		{"through scalar", At("title", "x"), nil},
		{"path", Path(tree.P("procs", "p1", "name")), "main"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.lens.Get(doc); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Get = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLens_SetCopiesOnWrite(t *testing.T) {
	doc := sampleDoc()
	before := tree.Clone(doc)

	out := At("procs", "p1", "name").Set(doc, "renamed").(map[string]any)

	if !reflect.DeepEqual(doc, before) {
		t.Fatal("input was mutated")
	}
	if got := At("procs", "p1", "name").Get(out); got != "renamed" {
		t.Errorf("name = %v, want renamed", got)
	}

	// Untouched siblings are shared, not copied.
	if reflect.ValueOf(out["meta"]).Pointer() != reflect.ValueOf(doc["meta"]).Pointer() {
		t.Error("meta record was copied")
	}
	p2Out := out["procs"].([]any)[1]
	p2In := doc["procs"].([]any)[1]
	if reflect.ValueOf(p2Out).Pointer() != reflect.ValueOf(p2In).Pointer() {
		t.Error("sibling element was copied")
	}
}

func TestLens_SetMissing(t *testing.T) {
	doc := sampleDoc()

	out := At("procs", "p9", "name").Set(doc, "x")
	if got := keysAt(out, "procs"); !reflect.DeepEqual(got, []string{"p1", "p2"}) {
		t.Errorf("keys = %v, want [p1 p2]", got)
	}

	created := At("a", "b").Set(nil, 1)
	want := map[string]any{"a": map[string]any{"b": 1}}
	if !reflect.DeepEqual(created, want) {
		t.Errorf("Set on nil = %v, want %v", created, want)
	}

	if got := At("x").Set("scalar", 1); got != "scalar" {
		t.Errorf("Set through scalar = %v, want scalar", got)
	}
}

func TestLens_Over(t *testing.T) {
	doc := map[string]any{"n": 1}
	out := At("n").Over(doc, func(v any) any { return v.(int) + 1 })
	if got := At("n").Get(out); got != 2 {
		t.Errorf("n = %v, want 2", got)
	}
	if doc["n"] != 1 {
		t.Error("input was mutated")
	}
}

func TestLens_ComposeFunc(t *testing.T) {
	// A lens over the first element of a plain array.
	first := Func(
		func(whole any) any {
			arr, _ := whole.([]any)
			if len(arr) == 0 {
				return nil
			}
			return arr[0]
		},
		func(whole, part any) any {
			arr, _ := whole.([]any)
			out := append([]any{part}, arr[min(1, len(arr)):]...)
			return out
		},
	)

	doc := map[string]any{"xs": []any{1, 2, 3}}
	l := Compose(At("xs"), first)

	if got := l.Get(doc); got != 1 {
		t.Errorf("Get = %v, want 1", got)
	}
	out := l.Over(doc, func(v any) any { return v.(int) * 10 })
	if got := At("xs").Get(out); !reflect.DeepEqual(got, []any{10, 2, 3}) {
		t.Errorf("xs = %v, want [10 2 3]", got)
	}
	if got := Compose().Get(doc); !reflect.DeepEqual(got, doc) {
		t.Error("empty Compose is not identity")
	}
}

func keysAt(v any, segs ...string) []string {
	arr, _ := At(segs...).Get(v).([]any)
	return tree.Keys(arr)
}

func TestLens_FieldElem(t *testing.T) {
	doc := sampleDoc()

	if got := Compose(Field("procs"), Elem("p2"), Field("name")).Get(doc); got != "helper" {
		t.Errorf("Get = %v, want helper", got)
	}
	// Field does not index arrays, Elem does not index records.
	if got := Field("p1").Get(doc["procs"]); got != nil {
		t.Errorf("Field on array = %v, want nil", got)
	}
	if got := Elem("title").Get(doc); got != nil {
		t.Errorf("Elem on record = %v, want nil", got)
	}
	if got := Elem("x").Set(doc, 1); !reflect.DeepEqual(got, doc) {
		t.Error("Elem.Set on record changed it")
	}
	if got := Field("x").Set(nil, 1); !reflect.DeepEqual(got, map[string]any{"x": 1}) {
		t.Errorf("Field.Set on nil = %v", got)
	}
}

func TestOf(t *testing.T) {
	doc := sampleDoc()

	l, err := Of("procs", Elem("p1"), tree.P("name"))
	if err != nil {
		t.Fatalf("Of error: %v", err)
	}
	if got := l.Get(doc); got != "main" {
		t.Errorf("Get = %v, want main", got)
	}

	if _, err := Of("procs", 3); !errors.Is(err, ErrBadSelector) {
		t.Errorf("Of(3) error = %v, want ErrBadSelector", err)
	}
}
