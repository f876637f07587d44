package script

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/scriptree/internal/store"
	"github.com/dshills/scriptree/internal/tree"
	"github.com/dshills/scriptree/internal/tree/notify"
)

// installModule registers the doc module as a global.
func (e *Engine) installModule() {
	funcs := map[string]lua.LGFunction{
		"get":     e.luaGet,
		"exists":  e.luaExists,
		"kind":    e.luaKind,
		"keys":    e.luaKeys,
		"set":     e.luaSet,
		"update":  e.luaUpdate,
		"insert":  e.luaInsert,
		"remove":  e.luaRemove,
		"reorder": e.luaReorder,
		"move":    e.luaMove,
		"on":      e.luaOn,
		"off":     e.luaOff,
		"notify":  e.luaNotify,
		"array":   e.luaArray,
	}
	mod := e.L.SetFuncs(e.L.NewTable(), funcs)
	e.L.SetGlobal("doc", mod)
}

// checkPath reads a dotted path argument.
func checkPath(L *lua.LState, n int) tree.Path {
	p, err := tree.ParsePath(L.CheckString(n))
	if err != nil {
		L.ArgError(n, err.Error())
	}
	return p
}

// checkPlacement reads an optional placement argument.
func checkPlacement(L *lua.LState, n int) store.Placement {
	at, err := store.ParsePlacement(L.OptString(n, ""))
	if err != nil {
		L.ArgError(n, err.Error())
	}
	return at
}

func writeOptions(L *lua.LState, n int) []store.WriteOption {
	if L.OptBool(n, false) {
		return []store.WriteOption{store.Exact()}
	}
	return nil
}

func (e *Engine) view(L *lua.LState, n int) store.View {
	return store.DerivePath(e.tree, checkPath(L, n))
}

// doc.get(path) -> value | nil
func (e *Engine) luaGet(L *lua.LState) int {
	e.countCall(L)
	v, ok := e.view(L, 1).Lookup()
	if !ok {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(toLua(L, v))
	return 1
}

// doc.exists(path) -> bool
func (e *Engine) luaExists(L *lua.LState) int {
	e.countCall(L)
	L.Push(lua.LBool(e.view(L, 1).Exists()))
	return 1
}

// doc.kind(path) -> "absent" | "scalar" | "record" | "array"
func (e *Engine) luaKind(L *lua.LState) int {
	e.countCall(L)
	L.Push(lua.LString(e.view(L, 1).Kind().String()))
	return 1
}

// doc.keys(path) -> {key...}
func (e *Engine) luaKeys(L *lua.LState) int {
	e.countCall(L)
	L.Push(toLua(L, e.view(L, 1).Keys()))
	return 1
}

// doc.set(path, value [, exact])
func (e *Engine) luaSet(L *lua.LState) int {
	e.countCall(L)
	v := e.view(L, 1)
	if err := v.SetValue(toGo(L.CheckAny(2)), writeOptions(L, 3)...); err != nil {
		L.RaiseError("doc.set %s: %s", v, err.Error())
	}
	return 0
}

// doc.update(path, fn [, exact]) where fn(old) returns the new value.
func (e *Engine) luaUpdate(L *lua.LState) int {
	e.countCall(L)
	v := e.view(L, 1)
	fn := L.CheckFunction(2)
	opts := writeOptions(L, 3)

	err := v.UpdateValue(func(old any) any {
		L.Push(fn)
		L.Push(toLua(L, old))
		L.Call(1, 1)
		ret := L.Get(-1)
		L.Pop(1)
		return toGo(ret)
	}, opts...)
	if err != nil {
		L.RaiseError("doc.update %s: %s", v, err.Error())
	}
	return 0
}

// doc.insert(path, record [, placement]) -> key | nil
func (e *Engine) luaInsert(L *lua.LState) int {
	e.countCall(L)
	v := e.view(L, 1)
	rec, ok := toGo(L.CheckTable(2)).(map[string]any)
	if !ok {
		L.ArgError(2, "record expected")
	}
	at := checkPlacement(L, 3)

	key, err := v.Array().Insert(rec, at)
	if err != nil {
		L.RaiseError("doc.insert %s: %s", v, err.Error())
	}
	if key == "" {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(lua.LString(key))
	return 1
}

// doc.remove(path, id) -> record | nil
func (e *Engine) luaRemove(L *lua.LState) int {
	e.countCall(L)
	v := e.view(L, 1)
	removed, ok := v.Array().Remove(L.CheckString(2))
	if !ok {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(toLua(L, removed))
	return 1
}

// doc.reorder(path, {key...})
func (e *Engine) luaReorder(L *lua.LState) int {
	e.countCall(L)
	v := e.view(L, 1)
	if err := v.Array().Reorder(stringList(L.CheckTable(2))); err != nil {
		L.RaiseError("doc.reorder %s: %s", v, err.Error())
	}
	return 0
}

// doc.move(path, id, placement)
func (e *Engine) luaMove(L *lua.LState) int {
	e.countCall(L)
	v := e.view(L, 1)
	id := L.CheckString(2)
	if err := v.Array().Move(id, checkPlacement(L, 3)); err != nil {
		L.RaiseError("doc.move %s: %s", v, err.Error())
	}
	return 0
}

// doc.on(path, fn) -> id, where fn(path, exact) runs on every matching change.
func (e *Engine) luaOn(L *lua.LState) int {
	e.countCall(L)
	p := checkPath(L, 1)
	fn := L.CheckFunction(2)

	sub := e.tree.Subscribe(p, e.observer(fn))

	e.subsMu.Lock()
	e.nextID++
	id := e.nextID
	e.subs[id] = sub
	e.subsMu.Unlock()

	L.Push(lua.LNumber(id))
	return 1
}

// doc.off(id) -> bool
func (e *Engine) luaOff(L *lua.LState) int {
	e.countCall(L)
	id := L.CheckInt(1)

	e.subsMu.Lock()
	sub, ok := e.subs[id]
	delete(e.subs, id)
	e.subsMu.Unlock()

	if ok {
		sub.Unsubscribe()
	}
	L.Push(lua.LBool(ok))
	return 1
}

// doc.notify(path [, exact])
func (e *Engine) luaNotify(L *lua.LState) int {
	e.countCall(L)
	e.tree.Notify(checkPath(L, 1), L.OptBool(2, false))
	return 0
}

// doc.array() -> empty table that converts to an array.
func (e *Engine) luaArray(L *lua.LState) int {
	L.Push(newArrayTable(L, 0))
	return 1
}

// observer adapts a Lua function to a store observer. Failures are logged
// because dispatch has no caller to return them to.
func (e *Engine) observer(fn *lua.LFunction) notify.Observer {
	return func(c notify.Change) {
		if e.closed.Load() {
			return
		}
		path := c.Path.String()
		if err := e.call(fn, lua.LString(path), lua.LBool(c.Exact)); err != nil {
			e.logger.Warn("script observer failed", "path", path, "error", err)
		}
	}
}
