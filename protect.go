// Copyright 2026 Wolf McNally
// SPDX-License-Identifier: MIT

package wolflua

import (
	"slices"
	"strings"

	lua "github.com/yuin/gopher-lua"
)

// callProtected invokes fn through the VM's protected entry point,
// passing args on the VM's own stack and collecting up to nResults results.
// The bridge stack is not touched.
// Any failure inside fn (a raised error, a failed coercion, a panicking
// Go callback) is absorbed by the entry point and returned as a [*Error].
func (l *State) callProtected(fn lua.LValue, nResults int, handler *lua.LFunction, args ...lua.LValue) ([]lua.LValue, *Error) {
	vm := l.vm
	base := vm.GetTop()
	err := vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    nResults,
		Protect: true,
		Handler: handler,
	}, args...)
	if err != nil {
		vm.SetTop(base)
		return nil, asStatusError(err)
	}
	n := vm.GetTop() - base
	results := make([]lua.LValue, 0, n)
	for i := 1; i <= n; i++ {
		results = append(results, vm.Get(base+i))
	}
	vm.SetTop(base)
	return results, nil
}

// protect runs op as a trampoline under the protected entry point.
// The top nOperands values of the bridge stack are the trampoline's
// arguments and are always consumed.
// On success the trampoline's results (adjusted to nResults) are pushed;
// on failure a single error value takes their place
// and the failure is returned as a [*Error].
func (l *State) protect(nOperands, nResults, msgHandler int, op lua.LGFunction) error {
	if l.Top() < nOperands {
		panic("not enough elements in the stack")
	}
	handler := l.messageHandler(msgHandler)
	base := len(l.stack) - nOperands
	args := slices.Clone(l.stack[base:])
	l.setTop(base)
	results, err := l.callProtected(l.vm.NewFunction(op), nResults, handler, args...)
	if err != nil {
		l.push(lua.LString(err.msg))
		return err
	}
	l.grow(len(l.stack) + len(results))
	for _, v := range results {
		l.push(v)
	}
	return nil
}

// messageHandler resolves a message handler stack index.
// 0 means no handler.
// The index must refer to a function and cannot be a pseudo-index.
func (l *State) messageHandler(msgHandler int) *lua.LFunction {
	if msgHandler == 0 {
		return nil
	}
	if isPseudo(msgHandler) {
		panic("message handler cannot be a pseudo-index")
	}
	fn, ok := l.valueAt(msgHandler).(*lua.LFunction)
	if !ok {
		panic("message handler must be a function")
	}
	return fn
}

// wrapFunction adapts a [Function] into a VM-callable closure.
// The callee runs against a fresh view of the current execution thread
// whose stack holds exactly the call arguments,
// with upvalues addressable through [UpvalueIndex].
// A Go error return is re-raised inside the VM
// so that it propagates as an ordinary VM error
// (and is caught by whatever protected call is on the way).
func (l *State) wrapFunction(f Function, upvalues []lua.LValue) *lua.LFunction {
	env := l.env
	return l.vm.NewFunction(func(vm *lua.LState) int {
		nArgs := vm.GetTop()
		callee := &State{
			vm:       vm,
			env:      env,
			stack:    make([]lua.LValue, 0, nArgs+minStack),
			upvalues: upvalues,
		}
		for i := 1; i <= nArgs; i++ {
			callee.stack = append(callee.stack, vm.Get(i))
		}
		nResults, err := f(callee)
		if err != nil {
			vm.RaiseError("%s", err.Error())
		}
		if nResults < 0 || nResults > callee.Top() {
			vm.RaiseError("function returned invalid result count %d", nResults)
		}
		for _, v := range callee.stack[len(callee.stack)-nResults:] {
			vm.Push(v)
		}
		return nResults
	})
}

// trampoline returns the compiled single-expression chunk for source,
// compiling and caching it on first use.
// The sources are fixed strings, so compilation cannot fail.
func (l *State) trampoline(source string) *lua.LFunction {
	if fn := l.env.trampolines[source]; fn != nil {
		return fn
	}
	fn, err := l.env.root.Load(strings.NewReader(source), "=(operator)")
	if err != nil {
		panic(err)
	}
	l.env.trampolines[source] = fn
	return fn
}
