// Copyright 2026 Wolf McNally
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"fmt"

	wolflua "github.com/wolfmcnally/WolfLua"
)

// newState creates an interpreter bound to ctx
// with the configured globals installed.
// The caller owns the returned state and must close it.
func newState(ctx context.Context, g *globalConfig) (*wolflua.State, error) {
	state := wolflua.New()
	state.SetContext(ctx)
	for _, name := range g.Globals.sortedNames() {
		state.PushString(g.Globals[name])
		if err := state.SetGlobal(name, 0); err != nil {
			state.Close()
			return nil, fmt.Errorf("set global %s: %w", name, err)
		}
	}
	return state, nil
}

// scriptContext applies the configured per-chunk timeout to ctx.
func scriptContext(ctx context.Context, g *globalConfig) (context.Context, context.CancelFunc, error) {
	timeout, err := g.timeout()
	if err != nil {
		return nil, nil, err
	}
	if timeout <= 0 {
		return ctx, func() {}, nil
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	return ctx, cancel, nil
}

// goValue converts the value at the given index into a plain Go value
// suitable for JSON output.
// Tables that form a sequence become slices;
// other tables become maps keyed by the string form of their keys.
// Reference values with no data representation
// (functions, userdata, threads) reduce to their type name.
func goValue(l *wolflua.State, idx int) any {
	switch l.Type(idx) {
	case wolflua.TypeNone, wolflua.TypeNil:
		return nil
	case wolflua.TypeBoolean:
		return l.ToBoolean(idx)
	case wolflua.TypeNumber:
		if n, ok := l.ToInteger(idx); ok {
			return n
		}
		n, _ := l.ToNumber(idx)
		return n
	case wolflua.TypeString:
		s, _ := l.ToString(idx)
		return s
	case wolflua.TypeTable:
		return tableValue(l, idx)
	default:
		return l.Type(idx).String()
	}
}

func tableValue(l *wolflua.State, idx int) any {
	idx = l.AbsIndex(idx)

	n := int(l.RawLen(idx))
	arr := make([]any, 0, n)
	for i := 1; i <= n; i++ {
		l.RawIndex(idx, int64(i))
		arr = append(arr, goValue(l, -1))
		l.Pop(1)
	}

	obj := make(map[string]any)
	l.PushNil()
	for l.Next(idx) {
		if k, ok := l.ToString(-2); ok {
			obj[k] = goValue(l, -1)
		}
		l.Pop(1)
	}
	if len(obj) == n {
		return arr
	}
	return obj
}
