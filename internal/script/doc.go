// Package script runs Lua scripts against a document store.
//
// Scripts see the tree through a "doc" module, available as a global and
// through require("doc"):
//
//	local id = doc.insert("procs", { name = "main", body = doc.array() }, "head")
//	doc.set("procs." .. id .. ".name", "entry")
//	for _, k in ipairs(doc.keys("procs")) do print(k) end
//
//	local sub = doc.on("procs", function(path, exact)
//	    print("changed", path, exact)
//	end)
//	doc.off(sub)
//
// Paths are dotted strings; "" is the root. Placements are "", "tail",
// "head", "before:<id>" and "after:<id>".
//
// # Sandbox
//
// Only the base, table, string and math libraries are opened; dofile,
// loadfile, load and loadstring are removed. Each run is bounded by a
// wall-clock timeout and by a limit on doc calls.
//
// # Threading
//
// A Lua state is not goroutine-safe. Observers registered with doc.on run in
// whichever goroutine writes to the store, so the store an Engine is bound
// to must be written from the goroutine that runs scripts.
package script
