// Copyright 2026 Wolf McNally
// SPDX-License-Identifier: MIT

package wolflua

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	lua "github.com/yuin/gopher-lua"
)

const (
	// minStack is the minimum number of elements a Go function can push onto the stack.
	minStack = 20

	maxStack = 1_000_000
)

const maxUpvalues = 255

// MultipleReturns is the sentinel
// that indicates that an arbitrary number of result values are accepted.
const MultipleReturns = lua.MultRet

// GlobalsIndex is a pseudo-index to the global environment table.
// It can be used anywhere a value index is accepted,
// so the table access protocol applies to globals as to any other table.
const GlobalsIndex int = -maxStack - 1000

// UpvalueIndex returns the pseudo-index that represents the i-th upvalue
// of the running function.
// If i is outside the range [1, 255], UpvalueIndex panics.
func UpvalueIndex(i int) int {
	if i < 1 || i > maxUpvalues {
		panic("UpvalueIndex out of range")
	}
	return GlobalsIndex - i
}

func isUpvalueIndex(idx int) bool {
	_, ok := upvalueFromIndex(idx)
	return ok
}

func upvalueFromIndex(idx int) (upvalue int, ok bool) {
	if idx >= GlobalsIndex || idx < GlobalsIndex-maxUpvalues {
		return 0, false
	}
	return GlobalsIndex - idx, true
}

func isPseudo(i int) bool {
	return i <= GlobalsIndex
}

var errStackOverflow = errors.New("stack overflow")

// environment is the per-VM state shared by an owner and all of its views.
type environment struct {
	root *lua.LState

	// trampolines caches compiled single-expression chunks by source text.
	trampolines map[string]*lua.LFunction
}

// State is an execution context: a handle on one VM execution thread
// plus an independent value stack.
// Create the owning State with [New]
// and views with [State.NewThread] or [State.ToThread];
// the zero value is not usable.
type State struct {
	vm  *lua.LState
	env *environment

	stack []lua.LValue

	// upvalues is populated for the callee State of a Go function call.
	upvalues []lua.LValue

	isRoot bool
	closed bool
}

// New creates the owning execution context for a fresh VM instance
// and loads the VM's standard library.
func New() *State {
	vm := lua.NewState()
	return &State{
		vm:     vm,
		env:    &environment{root: vm, trampolines: make(map[string]*lua.LFunction)},
		stack:  make([]lua.LValue, 0, minStack*2),
		isRoot: true,
	}
}

// newView wraps an already-live VM thread in a non-owning State.
func (l *State) newView(vm *lua.LState) *State {
	return &State{
		vm:    vm,
		env:   l.env,
		stack: make([]lua.LValue, 0, minStack*2),
	}
}

// Close releases the VM instance if l is the owning context
// and is a no-op otherwise.
// Views never trigger VM teardown;
// their underlying thread is reclaimed by the VM's collector
// once unreachable.
func (l *State) Close() error {
	if !l.isRoot || l.closed {
		return nil
	}
	l.setTop(0)
	l.vm.Close()
	l.closed = true
	return nil
}

// SetContext attaches ctx to the underlying VM instance.
// A cancellation aborts the chunk in progress,
// surfacing as a [StatusGenericError] outcome from the protected call.
// The library performs no cancellation of its own.
func (l *State) SetContext(ctx context.Context) {
	l.vm.SetContext(ctx)
}

func (l *State) stackIndex(idx int) (int, error) {
	if isPseudo(idx) {
		return -1, errors.New("pseudo-index not allowed")
	}
	if idx == 0 {
		return -1, errors.New("invalid index 0")
	}
	if idx < 0 {
		if idx < -len(l.stack) {
			return -1, fmt.Errorf("invalid index %d (top = %d)", idx, len(l.stack))
		}
		return len(l.stack) + idx, nil
	}
	i := idx - 1
	if i >= cap(l.stack) {
		return i, fmt.Errorf("unacceptable index %d (capacity = %d)", idx, cap(l.stack))
	}
	return i, nil
}

func (l *State) valueByIndex(idx int) (v lua.LValue, valid bool, err error) {
	switch {
	case idx == GlobalsIndex:
		return l.vm.Env, true, nil
	case isUpvalueIndex(idx):
		i, _ := upvalueFromIndex(idx)
		if i > len(l.upvalues) {
			return nil, false, nil
		}
		return l.upvalues[i-1], true, nil
	case isPseudo(idx):
		return nil, false, fmt.Errorf("invalid pseudo-index (%d)", idx)
	default:
		i, err := l.stackIndex(idx)
		if err != nil {
			return nil, false, err
		}
		if i >= len(l.stack) {
			return nil, false, nil
		}
		return l.stack[i], true, nil
	}
}

// valueAt returns the value at the given acceptable index,
// treating a valid-but-empty slot as nil.
// valueAt panics if idx is not acceptable.
func (l *State) valueAt(idx int) lua.LValue {
	v, valid, err := l.valueByIndex(idx)
	if err != nil {
		panic(err)
	}
	if !valid {
		return lua.LNil
	}
	return v
}

// AbsIndex converts the acceptable index idx
// into an equivalent absolute index
// (that is, one that does not depend on the stack size).
// AbsIndex panics if idx is not an acceptable index.
func (l *State) AbsIndex(idx int) int {
	if isPseudo(idx) {
		return idx
	}
	i, err := l.stackIndex(idx)
	if err != nil {
		panic(err)
	}
	return i + 1
}

// Top returns the index of the top element in the stack.
// Because indices start at 1,
// this result is equal to the number of elements in the stack;
// in particular, 0 means an empty stack.
func (l *State) Top() int {
	return len(l.stack)
}

// SetTop accepts any index, or 0, and sets the stack top to this index.
// If the new top is greater than the old one,
// then the new elements are filled with nil.
// If idx is 0, then all stack elements are removed.
func (l *State) SetTop(idx int) {
	if idx == 0 {
		l.setTop(0)
		return
	}
	i, err := l.stackIndex(idx)
	if err != nil {
		panic(err)
	}
	l.setTop(i + 1)
}

func (l *State) setTop(n int) {
	if n < len(l.stack) {
		clear(l.stack[n:])
		l.stack = l.stack[:n]
		return
	}
	for len(l.stack) < n {
		l.stack = append(l.stack, lua.LNil)
	}
}

// Pop pops n elements from the stack.
func (l *State) Pop(n int) {
	l.SetTop(-n - 1)
}

// Rotate rotates the stack elements
// between the valid index idx and the top of the stack.
// The elements are rotated n positions in the direction of the top, for a positive n,
// or -n positions in the direction of the bottom, for a negative n.
// If the absolute value of n is greater than the size of the slice being rotated,
// or if idx is a pseudo-index,
// Rotate panics.
func (l *State) Rotate(idx, n int) {
	i, err := l.stackIndex(idx)
	if err != nil {
		panic(err)
	}
	absN := n
	if n < 0 {
		absN = -n
	}
	if absN > len(l.stack)-i {
		panic("invalid rotation")
	}
	rotate(l.stack[i:], n)
}

// rotate rotates the elements of a slice
// n positions toward the end of the slice.
// n may be negative.
// If the absolute value of n is greater than len(s),
// then rotate panics.
func rotate[S ~[]E, E any](s S, n int) {
	var m int
	if n >= 0 {
		m = len(s) - n
	} else {
		m = -n
	}
	slices.Reverse(s[:m])
	slices.Reverse(s[m:])
	slices.Reverse(s)
}

// Insert moves the top element into the given valid index,
// shifting up the elements above this index to open space.
// If idx is a pseudo-index, Insert panics.
func (l *State) Insert(idx int) {
	l.Rotate(idx, 1)
}

// Remove removes the element at the given valid index,
// shifting down the elements above this index to fill the gap.
// This function cannot be called with a pseudo-index,
// because a pseudo-index is not an actual stack position.
func (l *State) Remove(idx int) {
	l.Rotate(idx, -1)
	l.Pop(1)
}

// Copy copies the element at index fromIdx into the valid index toIdx,
// replacing the value at that position.
// Values at other positions are not affected.
func (l *State) Copy(fromIdx, toIdx int) {
	v := l.valueAt(fromIdx)
	i, err := l.stackIndex(toIdx)
	if err != nil {
		panic(err)
	}
	if i >= len(l.stack) {
		panic(fmt.Errorf("invalid index %d (top = %d)", toIdx, len(l.stack)))
	}
	l.stack[i] = v
}

// Replace moves the top element into the given valid index without shifting any element
// (therefore replacing the value at that given index),
// and then pops the top element.
func (l *State) Replace(idx int) {
	l.Copy(-1, idx)
	l.Pop(1)
}

// CheckStack ensures that the stack has space for at least n extra elements,
// that is, that you can safely push up to n values into it.
// It returns false if it cannot fulfill the request,
// either because it would cause the stack to be greater than a fixed maximum size
// or because it cannot allocate memory for the extra space.
// This function never shrinks the stack;
// if the stack already has space for the extra elements, it is left unchanged.
func (l *State) CheckStack(n int) bool {
	return l.grow(len(l.stack) + n)
}

// grow ensures that the capacity of the stack is at least the given value,
// or returns false if it could not be fulfilled.
func (l *State) grow(wantTop int) bool {
	if wantTop <= cap(l.stack) {
		return true
	}
	if wantTop > maxStack {
		return false
	}
	l.stack = slices.Grow(l.stack, wantTop-len(l.stack))
	if cap(l.stack) > maxStack {
		l.stack = l.stack[:len(l.stack):maxStack]
	}
	return true
}

// IsNumber reports if the value at the given index is a number
// or a string convertible to a number.
func (l *State) IsNumber(idx int) bool {
	_, ok := l.ToNumber(idx)
	return ok
}

// IsString reports if the value at the given index is a string
// or a number (which is always convertible to a string).
func (l *State) IsString(idx int) bool {
	v, _, err := l.valueByIndex(idx)
	if err != nil {
		return false
	}
	t := valueType(v)
	return t == TypeString || t == TypeNumber
}

// IsNativeFunction reports if the value at the given index is a Go function.
func (l *State) IsNativeFunction(idx int) bool {
	v, _, err := l.valueByIndex(idx)
	if err != nil {
		return false
	}
	fn, ok := v.(*lua.LFunction)
	return ok && fn.IsG
}

// IsInteger reports if the value at the given index is a number
// with an integral value.
func (l *State) IsInteger(idx int) bool {
	v, _, err := l.valueByIndex(idx)
	if err != nil {
		return false
	}
	n, ok := v.(lua.LNumber)
	if !ok {
		return false
	}
	_, ok = floatToInteger(float64(n))
	return ok
}

// IsUserdata reports if the value at the given index is a userdata (either full or light).
func (l *State) IsUserdata(idx int) bool {
	v, _, err := l.valueByIndex(idx)
	if err != nil {
		return false
	}
	_, ok := v.(*lua.LUserData)
	return ok
}

// Type returns the type of the value in the given valid index,
// or [TypeNone] for a non-valid but acceptable index.
func (l *State) Type(idx int) Type {
	v, valid, err := l.valueByIndex(idx)
	if err != nil {
		panic(err)
	}
	if !valid {
		return TypeNone
	}
	return valueType(v)
}

// IsFunction reports if the value at the given index is a function (either Go or Lua).
func (l *State) IsFunction(idx int) bool {
	v, _, err := l.valueByIndex(idx)
	return err == nil && valueType(v) == TypeFunction
}

// IsTable reports if the value at the given index is a table.
func (l *State) IsTable(idx int) bool {
	v, _, err := l.valueByIndex(idx)
	return err == nil && valueType(v) == TypeTable
}

// IsNil reports if the value at the given index is nil.
func (l *State) IsNil(idx int) bool {
	v, valid, err := l.valueByIndex(idx)
	return err == nil && valid && v == lua.LNil
}

// IsBoolean reports if the value at the given index is a boolean.
func (l *State) IsBoolean(idx int) bool {
	v, _, err := l.valueByIndex(idx)
	return err == nil && valueType(v) == TypeBoolean
}

// IsThread reports if the value at the given index is a thread.
func (l *State) IsThread(idx int) bool {
	v, _, err := l.valueByIndex(idx)
	return err == nil && valueType(v) == TypeThread
}

// IsNone reports if the index is not valid.
func (l *State) IsNone(idx int) bool {
	_, valid, err := l.valueByIndex(idx)
	return err == nil && !valid
}

// IsNoneOrNil reports if the index is not valid or the value at this index is nil.
func (l *State) IsNoneOrNil(idx int) bool {
	v, valid, err := l.valueByIndex(idx)
	return err == nil && (!valid || v == lua.LNil)
}

// ToNumber converts the value at the given index to a floating point number.
// The value must be a number or a string convertible to a number;
// otherwise, ToNumber returns (0, false).
func (l *State) ToNumber(idx int) (n float64, ok bool) {
	v, _, err := l.valueByIndex(idx)
	if err != nil {
		return 0, false
	}
	switch v := v.(type) {
	case lua.LNumber:
		return float64(v), true
	case lua.LString:
		return parseNumber(string(v))
	default:
		return 0, false
	}
}

// ToInteger converts the value at the given index to a signed 64-bit integer.
// The value must be a number with an integral value
// or a string convertible to such a number;
// otherwise, ToInteger returns (0, false).
func (l *State) ToInteger(idx int) (n int64, ok bool) {
	f, ok := l.ToNumber(idx)
	if !ok {
		return 0, false
	}
	return floatToInteger(f)
}

// ToBoolean converts the value at the given index to a boolean value.
// Like all tests in the VM,
// ToBoolean returns true for any value different from false and nil;
// otherwise it returns false.
func (l *State) ToBoolean(idx int) bool {
	v, _, err := l.valueByIndex(idx)
	if err != nil {
		return false
	}
	return toBoolean(v)
}

// ToString converts the value at the given index to a Go string.
// The value must be a string or a number
// (rendered in its decimal form);
// otherwise, the function returns ("", false).
func (l *State) ToString(idx int) (s string, ok bool) {
	v, _, err := l.valueByIndex(idx)
	if err != nil {
		return "", false
	}
	switch v := v.(type) {
	case lua.LString:
		return string(v), true
	case lua.LNumber:
		return numberToString(float64(v)), true
	default:
		return "", false
	}
}

// ToUserdata returns the Go value boxed in the userdata at the given index.
// ok is false if the value is not a userdata.
func (l *State) ToUserdata(idx int) (x any, ok bool) {
	v, _, err := l.valueByIndex(idx)
	if err != nil {
		return nil, false
	}
	ud, ok := v.(*lua.LUserData)
	if !ok {
		return nil, false
	}
	return ud.Value, true
}

// RawLen returns the raw "length" of the value at the given index:
// for strings, this is the string length;
// for tables, this is the result of the length operator ('#') with no metamethods.
// For other values, RawLen returns 0.
func (l *State) RawLen(idx int) uint64 {
	v, _, err := l.valueByIndex(idx)
	if err != nil {
		return 0
	}
	switch v := v.(type) {
	case lua.LString:
		return uint64(len(v))
	case *lua.LTable:
		return uint64(v.Len())
	default:
		return 0
	}
}

// RawEqual reports whether the two values in the given indices
// are primitively equal (that is, equal without calling the __eq metamethod).
// Values of different types are never primitively equal;
// tables, functions, userdata, and threads compare by identity.
func (l *State) RawEqual(idx1, idx2 int) bool {
	v1, valid1, err1 := l.valueByIndex(idx1)
	v2, valid2, err2 := l.valueByIndex(idx2)
	if err1 != nil || err2 != nil || !valid1 || !valid2 {
		return false
	}
	return v1 == v2
}

// checkElems panics unless the stack holds at least n elements.
func (l *State) checkElems(n int) {
	if len(l.stack) < n {
		panic("not enough elements in the stack")
	}
}

func (l *State) push(v lua.LValue) {
	if len(l.stack) == cap(l.stack) {
		panic(errStackOverflow)
	}
	l.stack = append(l.stack, v)
}

// PushValue pushes a copy of the element at the given index onto the stack.
func (l *State) PushValue(idx int) {
	l.push(l.valueAt(idx))
}

// PushNil pushes a nil value onto the stack.
func (l *State) PushNil() {
	l.push(lua.LNil)
}

// PushNumber pushes a floating point number onto the stack.
func (l *State) PushNumber(n float64) {
	l.push(lua.LNumber(n))
}

// PushInteger pushes an integer onto the stack.
func (l *State) PushInteger(i int64) {
	l.push(lua.LNumber(i))
}

// PushString pushes a string onto the stack.
func (l *State) PushString(s string) {
	l.push(lua.LString(s))
}

// PushBoolean pushes a boolean onto the stack.
func (l *State) PushBoolean(b bool) {
	l.push(lua.LBool(b))
}

// PushLightUserdata pushes a light userdata onto the stack.
// A light userdata represents a bare pointer-sized value:
// it has no individual metatable and no Go payload beyond the address.
func (l *State) PushLightUserdata(p uintptr) {
	ud := l.vm.NewUserData()
	ud.Value = p
	l.push(ud)
}

// PushUserdata pushes a full userdata boxing the given Go value onto the stack.
func (l *State) PushUserdata(x any) {
	ud := l.vm.NewUserData()
	ud.Value = x
	l.push(ud)
}

// A Function is a callback for a VM function implemented in Go.
// A Go function receives its arguments from the VM on its stack in direct order
// (the first argument is pushed first).
// So, when the function starts,
// [State.Top] returns the number of arguments received by the function.
// The first argument (if any) is at index 1 and its last argument is at index [State.Top].
// To return values, a Go function pushes them onto the stack in direct order
// and returns the number of results.
// Any other value in the stack below the results is discarded.
// To raise an error, return a Go error
// and the string result of its Error() method will be used as the error object.
type Function func(l *State) (int, error)

// PushFunction pushes a Go function with no upvalues onto the stack.
func (l *State) PushFunction(f Function) {
	l.PushClosure(0, f)
}

// PushClosure pushes a Go closure onto the stack.
// n is how many upvalues this function will have,
// popped off the top of the stack.
// (When there are multiple upvalues, the first value is pushed first.)
// During the call the upvalues are addressed with [UpvalueIndex].
// If n is negative or greater than 255, then PushClosure panics.
func (l *State) PushClosure(n int, f Function) {
	if n < 0 || n > maxUpvalues {
		panic("invalid upvalue count")
	}
	if n > len(l.stack) {
		panic("not enough elements in the stack")
	}
	upvalues := slices.Clone(l.stack[len(l.stack)-n:])
	l.setTop(len(l.stack) - n)
	l.push(l.wrapFunction(f, upvalues))
}

// Call calls a function (or callable object) in protected mode.
//
// To do a call you must use the following protocol:
// first, the function to be called is pushed onto the stack;
// then, the arguments to the call are pushed in direct order;
// that is, the first argument is pushed first.
// Finally you call Call;
// nArgs is the number of arguments that you pushed onto the stack.
// When the function returns,
// all arguments and the function value are popped
// and the call results are pushed onto the stack.
// The number of results is adjusted to nResults,
// unless nResults is [MultipleReturns],
// in which case all results from the function are pushed.
// The function results are pushed onto the stack in direct order
// (the first result is pushed first),
// so that after the call the last result is on the top of the stack.
//
// If there is any error, Call catches it,
// pushes a single value on the stack (the error message),
// and returns a [*Error] carrying the status kind.
// Call always removes the function and its arguments from the stack.
//
// If msgHandler is 0, the error value pushed is the original error object.
// Otherwise, msgHandler is the stack index of a message handler
// (this index cannot be a pseudo-index),
// which is called with the error object
// and whose return value becomes the error value.
func (l *State) Call(nArgs, nResults, msgHandler int) error {
	if nArgs < 0 {
		panic("negative argument count")
	}
	if l.Top() < nArgs+1 {
		return errors.New("not enough elements in the stack")
	}
	if nResults != MultipleReturns && cap(l.stack)-len(l.stack) < nResults-nArgs {
		return errors.New("results from function overflow current stack size")
	}
	handler := l.messageHandler(msgHandler)
	base := len(l.stack) - nArgs - 1
	fn := l.stack[base]
	args := slices.Clone(l.stack[base+1:])
	l.setTop(base)
	results, callErr := l.callProtected(fn, nResults, handler, args...)
	if callErr != nil {
		l.push(lua.LString(callErr.msg))
		return callErr
	}
	l.grow(len(l.stack) + len(results))
	for _, v := range results {
		l.push(v)
	}
	return nil
}

// Load loads a chunk without running it.
// If there are no errors,
// Load pushes the compiled chunk as a function on top of the stack.
// Otherwise, it pushes an error message
// and returns a [*Error] with [StatusSyntaxError].
//
// The chunkName argument gives a name to the chunk,
// which is used for error messages and in debug information.
//
// Binary precompiled chunks are handed to the VM loader unchanged;
// this VM rejects them, which surfaces as the syntax-error outcome.
func (l *State) Load(r io.Reader, chunkName string) error {
	fn, err := l.vm.Load(r, chunkName)
	if err != nil {
		loadErr := asStatusError(err)
		l.push(lua.LString(loadErr.msg))
		return loadErr
	}
	l.push(fn)
	return nil
}

// LoadString loads a chunk from a string without running it.
// It behaves the same as [State.Load],
// but takes in a string instead of an [io.Reader].
func (l *State) LoadString(s string, chunkName string) error {
	return l.Load(strings.NewReader(s), chunkName)
}

// DoString loads and runs the given source text,
// discarding any results.
// The chunk is named by its own source text, as the C auxiliary library does.
// On failure DoString pops the error value,
// so the stack is left as DoString found it
// and the context remains usable.
func (l *State) DoString(source string) error {
	if err := l.LoadString(source, source); err != nil {
		l.Pop(1)
		return err
	}
	if err := l.Call(0, 0, 0); err != nil {
		l.Pop(1)
		return err
	}
	return nil
}

// Global pushes onto the stack the value of the global with the given name,
// returning the type of that value.
//
// As in the VM, this function may trigger a metamethod on the globals table
// for the "index" event.
// If there is any error, Global catches it,
// pushes a single value on the stack (the error message),
// and returns the error with [TypeNil].
//
// msgHandler follows the convention of [State.Call].
func (l *State) Global(name string, msgHandler int) (Type, error) {
	handler := l.messageHandler(msgHandler)
	env := l.vm.Env
	results, err := l.callProtected(l.vm.NewFunction(func(co *lua.LState) int {
		co.Push(co.GetTable(env, lua.LString(name)))
		return 1
	}), 1, handler)
	if err != nil {
		l.push(lua.LString(err.msg))
		return TypeNil, err
	}
	l.push(results[0])
	return valueType(results[0]), nil
}

// SetGlobal pops a value from the stack
// and sets it as the new value of the global with the given name.
//
// As in the VM, this function may trigger a metamethod on the globals table
// for the "newindex" event.
// If there is any error, SetGlobal catches it,
// pushes a single value on the stack (the error message),
// and returns the error.
// SetGlobal always removes the value from the stack.
//
// msgHandler follows the convention of [State.Call].
func (l *State) SetGlobal(name string, msgHandler int) error {
	env := l.vm.Env
	return l.protect(1, 0, msgHandler, func(co *lua.LState) int {
		co.SetTable(env, lua.LString(name), co.Get(1))
		return 0
	})
}
