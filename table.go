// Copyright 2026 Wolf McNally
// SPDX-License-Identifier: MIT

package wolflua

import (
	"fmt"
	"math"

	lua "github.com/yuin/gopher-lua"
)

// tableAt returns the table at the given index,
// panicking if the value is not a table.
// Raw access on a non-table is undefined at the VM level,
// so the caller contract requires a table.
func (l *State) tableAt(idx int) *lua.LTable {
	t, ok := l.valueAt(idx).(*lua.LTable)
	if !ok {
		panic(fmt.Sprintf("index %d: table expected", idx))
	}
	return t
}

// CreateTable creates a new empty table and pushes it onto the stack.
// nArr is a hint for how many elements the table will have as a sequence;
// nRec is a hint for how many other elements the table will have.
// The VM may use these hints to preallocate memory for the new table.
func (l *State) CreateTable(nArr, nRec int) {
	l.push(l.vm.CreateTable(nArr, nRec))
}

// NewTable creates a new empty table and pushes it onto the stack.
// It is equivalent to CreateTable(0, 0).
func (l *State) NewTable() {
	l.CreateTable(0, 0)
}

// Table pushes onto the stack the value t[k],
// where t is the value at the given index
// and k is the value on the top of the stack.
// Returns the type of the pushed value.
//
// This function pops the key from the stack,
// pushing the resulting value in its place.
//
// As in the VM, this function may trigger a metamethod for the "index" event,
// so the target need not be a table
// if its metatable supplies __index.
// If there is any error, Table catches it,
// pushes a single value on the stack (the error message),
// and returns the error with [TypeNil].
// Table always removes the key from the stack.
//
// msgHandler follows the convention of [State.Call].
func (l *State) Table(idx, msgHandler int) (Type, error) {
	t := l.valueAt(idx)
	err := l.protect(1, 1, msgHandler, func(vm *lua.LState) int {
		vm.Push(vm.GetTable(t, vm.Get(1)))
		return 1
	})
	if err != nil {
		return TypeNil, err
	}
	return l.Type(-1), nil
}

// Field pushes onto the stack the value t[k],
// where t is the value at the given index.
// See [State.Table] for further information.
func (l *State) Field(idx int, k string, msgHandler int) (Type, error) {
	t := l.valueAt(idx)
	err := l.protect(0, 1, msgHandler, func(vm *lua.LState) int {
		vm.Push(vm.GetTable(t, lua.LString(k)))
		return 1
	})
	if err != nil {
		return TypeNil, err
	}
	return l.Type(-1), nil
}

// Index pushes onto the stack the value t[n],
// where t is the value at the given index.
// See [State.Table] for further information.
func (l *State) Index(idx int, n int64, msgHandler int) (Type, error) {
	t := l.valueAt(idx)
	err := l.protect(0, 1, msgHandler, func(vm *lua.LState) int {
		vm.Push(vm.GetTable(t, lua.LNumber(n)))
		return 1
	})
	if err != nil {
		return TypeNil, err
	}
	return l.Type(-1), nil
}

// SetTable does the equivalent to t[k] = v,
// where t is the value at the given index,
// v is the value on the top of the stack,
// and k is the value just below the top.
// This function pops both the key and the value from the stack.
//
// As in the VM, this function may trigger a metamethod for the "newindex" event.
// If there is any error, SetTable catches it,
// pushes a single value on the stack (the error message),
// and returns the error.
// SetTable always removes the key and value from the stack.
//
// msgHandler follows the convention of [State.Call].
func (l *State) SetTable(idx, msgHandler int) error {
	t := l.valueAt(idx)
	return l.protect(2, 0, msgHandler, func(vm *lua.LState) int {
		vm.SetTable(t, vm.Get(1), vm.Get(2))
		return 0
	})
}

// SetField does the equivalent to t[k] = v,
// where t is the value at the given index,
// v is the value on the top of the stack,
// and k is the given string.
// This function pops the value from the stack.
// See [State.SetTable] for more information.
func (l *State) SetField(idx int, k string, msgHandler int) error {
	t := l.valueAt(idx)
	return l.protect(1, 0, msgHandler, func(vm *lua.LState) int {
		vm.SetTable(t, lua.LString(k), vm.Get(1))
		return 0
	})
}

// SetIndex does the equivalent of t[n] = v,
// where t is the value at the given index
// and v is the value on the top of the stack.
// This function pops the value from the stack.
// See [State.SetTable] for more information.
func (l *State) SetIndex(idx int, n int64, msgHandler int) error {
	t := l.valueAt(idx)
	return l.protect(1, 0, msgHandler, func(vm *lua.LState) int {
		vm.SetTable(t, lua.LNumber(n), vm.Get(1))
		return 0
	})
}

// RawGet pushes onto the stack t[k],
// where t is the table at the given index
// and k is the value on the top of the stack.
// This function pops the key from the stack,
// pushing the resulting value in its place.
// Returns the type of the pushed value.
//
// RawGet does a raw access (i.e. without metamethods);
// it cannot fail and never runs user code.
func (l *State) RawGet(idx int) Type {
	t := l.tableAt(idx)
	l.checkElems(1)
	k := l.stack[len(l.stack)-1]
	v := l.vm.RawGet(t, k)
	l.stack[len(l.stack)-1] = v
	return valueType(v)
}

// RawField pushes onto the stack t[k],
// where t is the table at the given index.
// Returns the type of the pushed value.
//
// RawField does a raw access (i.e. without metamethods).
func (l *State) RawField(idx int, k string) Type {
	t := l.tableAt(idx)
	v := t.RawGetString(k)
	l.push(v)
	return valueType(v)
}

// RawIndex pushes onto the stack the value t[n],
// where t is the table at the given index.
// The access is raw, that is, it does not use the __index metavalue.
// Returns the type of the pushed value.
func (l *State) RawIndex(idx int, n int64) Type {
	t := l.tableAt(idx)
	var v lua.LValue
	if n >= math.MinInt && n <= math.MaxInt {
		v = t.RawGetInt(int(n))
	} else {
		v = l.vm.RawGet(t, lua.LNumber(n))
	}
	l.push(v)
	return valueType(v)
}

// RawSet does the equivalent to t[k] = v,
// where t is the table at the given index,
// v is the value on the top of the stack,
// and k is the value just below the top.
// This function pops both the key and the value from the stack.
//
// The assignment is raw, that is, it does not use the __newindex metavalue.
func (l *State) RawSet(idx int) {
	t := l.tableAt(idx)
	l.checkElems(2)
	v := l.stack[len(l.stack)-1]
	k := l.stack[len(l.stack)-2]
	l.setTop(len(l.stack) - 2)
	t.RawSet(k, v)
}

// RawSetField does the equivalent to t[k] = v,
// where t is the table at the given index
// and v is the value on the top of the stack.
// This function pops the value from the stack.
func (l *State) RawSetField(idx int, k string) {
	t := l.tableAt(idx)
	l.checkElems(1)
	v := l.stack[len(l.stack)-1]
	l.setTop(len(l.stack) - 1)
	t.RawSetString(k, v)
}

// RawSetIndex does the equivalent of t[n] = v,
// where t is the table at the given index
// and v is the value on the top of the stack.
// This function pops the value from the stack.
// The assignment is raw, that is, it does not use the __newindex metavalue.
func (l *State) RawSetIndex(idx int, n int64) {
	t := l.tableAt(idx)
	l.checkElems(1)
	v := l.stack[len(l.stack)-1]
	l.setTop(len(l.stack) - 1)
	if n >= math.MinInt && n <= math.MaxInt {
		t.RawSetInt(int(n), v)
	} else {
		t.RawSet(lua.LNumber(n), v)
	}
}

// Next pops a key from the stack,
// and pushes a key-value pair from the table at the given index,
// the "next" pair after the given key.
// If there are no more elements in the table,
// then Next returns false and pushes nothing.
// Start a traversal by pushing nil as the first key.
func (l *State) Next(idx int) bool {
	t := l.tableAt(idx)
	l.checkElems(1)
	key := l.stack[len(l.stack)-1]
	l.setTop(len(l.stack) - 1)
	k, v := t.Next(key)
	if k == lua.LNil {
		return false
	}
	l.push(k)
	l.push(v)
	return true
}

// Metatable reports whether the value at the given index has a metatable
// and if so, pushes that metatable onto the stack.
func (l *State) Metatable(idx int) bool {
	mt := l.vm.GetMetatable(l.valueAt(idx))
	if mt == lua.LNil {
		return false
	}
	l.push(mt)
	return true
}

// SetMetatable pops a table or nil from the stack
// and sets that value as the new metatable for the value at the given index.
// (nil means no metatable.)
func (l *State) SetMetatable(objIndex int) {
	l.checkElems(1)
	mt := l.stack[len(l.stack)-1]
	if _, ok := mt.(*lua.LTable); !ok && mt != lua.LNil {
		panic("metatable must be a table or nil")
	}
	v := l.valueAt(objIndex)
	l.setTop(len(l.stack) - 1)
	l.vm.SetMetatable(v, mt)
}
