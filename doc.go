// Copyright 2026 Wolf McNally
// SPDX-License-Identifier: MIT

/*
Package wolflua is a safety bridge over an embedded Lua virtual machine.

The VM signals errors by unwinding its own call stack past arbitrary
frames, so no entry point that can run user code (metamethods, coercions,
loaded chunks) is ever invoked directly. Every such operation is packaged
as a trampoline and run through the VM's one protected entry point, which
converts the unwind into an ordinary error return. Operations that cannot
run user code (stack shuffling, type queries, raw table access) have no
error path at all.

# Relationship to the C API

The methods on [State] mirror the primitive functions of the [Lua C API]:
the same stack protocol, the same index conventions (1-based absolute,
negative relative, pseudo-indices), and the same documented stack-depth
delta per operation. Methods that receive a stack index outside the
acceptable range panic, as the C API leaves such usage undefined.

# Contexts and ownership

A [State] created by [New] owns its VM instance; closing it releases the
VM. States returned by [State.NewThread] and [State.ToThread] are views:
they share the owner's global environment, carry an independent value
stack, and their Close is a no-op. A VM instance and all of its views
must be confined to one goroutine at a time.

[Lua C API]: https://www.lua.org/manual/5.1/manual.html#3
*/
package wolflua
