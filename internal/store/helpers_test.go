package store

import (
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"testing"

	"github.com/dshills/scriptree/internal/tree"
)

func seqKeys(prefix string) KeyGenerator {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s%d", prefix, n)
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStore(doc any, opts ...Option) *Store {
	opts = append([]Option{WithLogger(quietLogger()), WithKeyGenerator(seqKeys("new"))}, opts...)
	return New(doc, opts...)
}

func keyedDoc(keys ...string) map[string]any {
	items := make([]any, 0, len(keys))
	for _, k := range keys {
		items = append(items, map[string]any{"key": k, "name": "item " + k})
	}
	return map[string]any{"items": items, "items2": []any{}}
}

func assertKeys(t *testing.T, got []string, want ...string) {
	t.Helper()
	if len(want) == 0 {
		want = []string{}
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("keys = %v, want %v", got, want)
	}
}

func mustGet(t *testing.T, s *Store, p string) any {
	t.Helper()
	v, ok := s.Get(tree.MustParsePath(p))
	if !ok {
		t.Fatalf("Get(%q) is absent", p)
	}
	return v
}
