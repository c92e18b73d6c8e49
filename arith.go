// Copyright 2026 Wolf McNally
// SPDX-License-Identifier: MIT

package wolflua

import (
	"slices"

	lua "github.com/yuin/gopher-lua"
)

// ArithmeticOperator identifies one of the VM's arithmetic operators.
type ArithmeticOperator int

// Arithmetic operators.
const (
	Add ArithmeticOperator = 1 + iota
	Subtract
	Multiply
	Divide
	Modulo
	Power
	UnaryMinus
)

// IsUnary reports whether the operator consumes a single operand.
func (op ArithmeticOperator) IsUnary() bool {
	return op == UnaryMinus
}

// String returns the operator's source-level symbol.
func (op ArithmeticOperator) String() string {
	switch op {
	case Add:
		return "+"
	case Subtract, UnaryMinus:
		return "-"
	case Multiply:
		return "*"
	case Divide:
		return "/"
	case Modulo:
		return "%"
	case Power:
		return "^"
	default:
		return "<invalid arithmetic operator>"
	}
}

// source returns the trampoline chunk evaluating the operator.
func (op ArithmeticOperator) source() string {
	if op.IsUnary() {
		return "local a = ...\nreturn " + op.String() + "a\n"
	}
	return "local a, b = ...\nreturn a " + op.String() + " b\n"
}

// ComparisonOperator identifies one of the VM's ordering predicates.
type ComparisonOperator int

// Comparison operators.
const (
	Equal ComparisonOperator = 1 + iota
	Less
	LessOrEqual
)

// String returns the operator's source-level symbol.
func (op ComparisonOperator) String() string {
	switch op {
	case Equal:
		return "=="
	case Less:
		return "<"
	case LessOrEqual:
		return "<="
	default:
		return "<invalid comparison operator>"
	}
}

func (op ComparisonOperator) source() string {
	return "local a, b = ...\nreturn a " + op.String() + " b\n"
}

const (
	concatSource = "local a, b = ...\nreturn a .. b\n"
	lengthSource = "local a = ...\nreturn #a\n"
)

// Arith performs the arithmetic operation op
// over the operand on the top of the stack
// (the two topmost operands for binary operators,
// with the second operand on top),
// pops them, and pushes the single result.
//
// The operation follows the VM's own coercion and metamethod-resolution
// rules, which may run arbitrary code,
// so it is evaluated by a compiled operator trampoline under protection.
// If there is any error, Arith catches it,
// pushes a single value on the stack (the error message)
// in place of the result,
// and returns the error.
func (l *State) Arith(op ArithmeticOperator) error {
	nOperands := 2
	if op.IsUnary() {
		nOperands = 1
	}
	l.checkElems(nOperands)
	fn := l.trampoline(op.source())
	base := len(l.stack) - nOperands
	args := slices.Clone(l.stack[base:])
	l.setTop(base)
	results, err := l.callProtected(fn, 1, nil, args...)
	if err != nil {
		l.push(lua.LString(err.msg))
		return err
	}
	l.push(results[0])
	return nil
}

// Compare evaluates the comparison op
// between the values at idx1 and idx2
// (idx1 is the left operand).
// The operands are addressed by index and never consumed,
// so the stack is left exactly as found, even on failure.
//
// The comparison may trigger the corresponding metamethod,
// so it is evaluated by a compiled operator trampoline under protection.
func (l *State) Compare(idx1, idx2 int, op ComparisonOperator) (bool, error) {
	a := l.valueAt(idx1)
	b := l.valueAt(idx2)
	fn := l.trampoline(op.source())
	results, err := l.callProtected(fn, 1, nil, a, b)
	if err != nil {
		return false, err
	}
	return toBoolean(results[0]), nil
}

// Concat concatenates the n values at the top of the stack, pops them,
// and leaves the result on the top.
// If n is 1, the result is the single value on the stack;
// if n is 0, the result is the empty string.
// Concatenation follows the usual semantics of the VM,
// folding pairwise from the right,
// and may trigger the __concat metamethod.
//
// On failure all n operands are consumed
// and a single error value takes their place.
// msgHandler follows the convention of [State.Call].
func (l *State) Concat(n, msgHandler int) error {
	if n < 0 {
		panic("negative operand count")
	}
	l.checkElems(n)
	handler := l.messageHandler(msgHandler)
	switch n {
	case 0:
		l.push(lua.LString(""))
		return nil
	case 1:
		return nil
	}
	fn := l.trampoline(concatSource)
	base := len(l.stack) - n
	acc := l.stack[len(l.stack)-1]
	for i := len(l.stack) - 2; i >= base; i-- {
		results, err := l.callProtected(fn, 1, handler, l.stack[i], acc)
		if err != nil {
			l.setTop(base)
			l.push(lua.LString(err.msg))
			return err
		}
		acc = results[0]
	}
	l.setTop(base)
	l.push(acc)
	return nil
}

// Len pushes the length of the value at the given index to the stack.
// It is equivalent to the VM's '#' operator
// and may trigger a metamethod for the "length" event.
//
// If there is any error, Len catches it,
// pushes a single value on the stack (the error message),
// and returns the error.
// msgHandler follows the convention of [State.Call].
func (l *State) Len(idx, msgHandler int) error {
	v := l.valueAt(idx)
	handler := l.messageHandler(msgHandler)
	results, err := l.callProtected(l.trampoline(lengthSource), 1, handler, v)
	if err != nil {
		l.push(lua.LString(err.msg))
		return err
	}
	l.push(results[0])
	return nil
}
