package script

import (
	"fmt"
	"sort"

	lua "github.com/yuin/gopher-lua"
)

// arrayMarker tags tables created by doc.array so that an empty one
// converts to an empty array rather than an empty record.
const arrayMarker = "__scriptree_array"

// toGo converts a Lua value to a tree value.
//
// Numbers become float64, matching decoded JSON. A table with keys 1..n
// becomes an array; any other table becomes a record with string keys.
// Functions, userdata and cyclic references convert to nil.
func toGo(lv lua.LValue) any {
	return toGoVisited(lv, make(map[*lua.LTable]bool))
}

func toGoVisited(lv lua.LValue, visited map[*lua.LTable]bool) any {
	switch v := lv.(type) {
	case lua.LBool:
		return bool(v)
	case lua.LNumber:
		return float64(v)
	case lua.LString:
		return string(v)
	case *lua.LTable:
		if visited[v] {
			return nil
		}
		visited[v] = true
		defer delete(visited, v)
		return tableToGo(v, visited)
	default:
		return nil
	}
}

func tableToGo(t *lua.LTable, visited map[*lua.LTable]bool) any {
	n := t.Len()
	count := 0
	t.ForEach(func(_, _ lua.LValue) { count++ })

	if count == 0 {
		if isArrayTable(t) {
			return []any{}
		}
		return map[string]any{}
	}

	if n > 0 && count == n {
		arr := make([]any, n)
		for i := 1; i <= n; i++ {
			arr[i-1] = toGoVisited(t.RawGetInt(i), visited)
		}
		return arr
	}

	m := make(map[string]any, count)
	t.ForEach(func(k, v lua.LValue) {
		var key string
		switch kv := k.(type) {
		case lua.LString:
			key = string(kv)
		case lua.LNumber:
			key = fmt.Sprintf("%v", float64(kv))
		default:
			key = k.String()
		}
		m[key] = toGoVisited(v, visited)
	})
	return m
}

func isArrayTable(t *lua.LTable) bool {
	mt, ok := t.Metatable.(*lua.LTable)
	if !ok {
		return false
	}
	return mt.RawGetString(arrayMarker) == lua.LTrue
}

// toLua converts a tree value to a Lua value.
// Record fields are set in sorted order so iteration is reproducible
// across runs of the same script.
func toLua(L *lua.LState, v any) lua.LValue {
	switch val := v.(type) {
	case nil:
		return lua.LNil
	case bool:
		return lua.LBool(val)
	case float64:
		return lua.LNumber(val)
	case int:
		return lua.LNumber(val)
	case int64:
		return lua.LNumber(val)
	case string:
		return lua.LString(val)
	case []string:
		t := L.CreateTable(len(val), 0)
		for i, s := range val {
			t.RawSetInt(i+1, lua.LString(s))
		}
		return t
	case []any:
		t := newArrayTable(L, len(val))
		for i, elem := range val {
			t.RawSetInt(i+1, toLua(L, elem))
		}
		return t
	case map[string]any:
		t := L.CreateTable(0, len(val))
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			t.RawSetString(k, toLua(L, val[k]))
		}
		return t
	default:
		return lua.LString(fmt.Sprint(val))
	}
}

func newArrayTable(L *lua.LState, n int) *lua.LTable {
	t := L.CreateTable(n, 0)
	mt := L.NewTable()
	mt.RawSetString(arrayMarker, lua.LTrue)
	L.SetMetatable(t, mt)
	return t
}

// stringList converts a Lua sequence of strings. Non-string entries
// are skipped.
func stringList(t *lua.LTable) []string {
	n := t.Len()
	out := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		if s, ok := t.RawGetInt(i).(lua.LString); ok {
			out = append(out, string(s))
		}
	}
	return out
}
