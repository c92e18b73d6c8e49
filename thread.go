// Copyright 2026 Wolf McNally
// SPDX-License-Identifier: MIT

package wolflua

import (
	"errors"
	"slices"

	lua "github.com/yuin/gopher-lua"
)

// NewThread creates a new execution thread
// sharing the current context's global environment,
// pushes a reference to it onto the current stack
// (keeping it reachable by the VM's collector),
// and returns a non-owning view wrapping the new thread.
//
// Thread creation runs as a trampoline under protection,
// since it is a VM allocation.
func (l *State) NewThread() (*State, error) {
	results, err := l.callProtected(l.vm.NewFunction(func(vm *lua.LState) int {
		th, _ := vm.NewThread()
		vm.Push(th)
		return 1
	}), 1, nil)
	if err != nil {
		l.push(lua.LString(err.msg))
		return nil, err
	}
	th := results[0].(*lua.LState)
	l.push(th)
	return l.newView(th), nil
}

// ToThread converts the thread reference at the given index
// into a non-owning view, without affecting ownership
// or the stack.
// ok is false if the value is not a thread.
func (l *State) ToThread(idx int) (view *State, ok bool) {
	th, ok := l.valueAt(idx).(*lua.LState)
	if !ok {
		return nil, false
	}
	return l.newView(th), true
}

// PushThread pushes the thread backing l onto its own stack
// and reports whether that thread is the owning context's main thread.
func (l *State) PushThread() bool {
	l.push(l.vm)
	return l.vm == l.env.root
}

// Resume starts or continues the coroutine running on the view co.
// The callable and its arguments follow the stack protocol of [State.Call]
// on co's stack: co consumes them,
// and the values passed to the next yield (or returned at completion)
// are pushed onto co's stack.
//
// A yield is reported as (true, nil): suspended execution, not failure.
// On failure co's stack is truncated to the callable's slot
// and a single error value is pushed, as with any protected call.
// Resumption ordering and re-entry state are entirely the VM's;
// this is a pass-through.
func (l *State) Resume(co *State, nArgs int) (yielded bool, err error) {
	if nArgs < 0 {
		panic("negative argument count")
	}
	if co.Top() < nArgs+1 {
		return false, errors.New("not enough elements in the stack")
	}
	base := len(co.stack) - nArgs - 1
	fn, ok := co.stack[base].(*lua.LFunction)
	args := slices.Clone(co.stack[base+1:])
	co.setTop(base)
	if !ok {
		resErr := &Error{status: StatusRuntimeError, msg: "cannot resume a non-function value"}
		co.push(lua.LString(resErr.msg))
		return false, resErr
	}
	state, resumeErr, values := l.vm.Resume(co.vm, fn, args...)
	switch state {
	case lua.ResumeOK, lua.ResumeYield:
		co.grow(len(co.stack) + len(values))
		for _, v := range values {
			co.push(v)
		}
		return state == lua.ResumeYield, nil
	default:
		resErr := asStatusError(resumeErr)
		co.push(lua.LString(resErr.msg))
		return false, resErr
	}
}
