// Copyright 2026 Wolf McNally
// SPDX-License-Identifier: MIT

package wolflua

import (
	"strconv"
	"strings"

	lua "github.com/yuin/gopher-lua"
)

// DumpStack returns a human-readable rendering of the live stack:
// one bracketed literal per slot, bottom to top, space-separated,
// or "empty" when the stack has zero depth.
// Strings render single-quoted, numbers in their decimal form,
// and reference values by their tag name.
func (l *State) DumpStack() string {
	if len(l.stack) == 0 {
		return "empty"
	}
	sb := new(strings.Builder)
	for i, v := range l.stack {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteByte('[')
		sb.WriteString(stackLiteral(v))
		sb.WriteByte(']')
	}
	return sb.String()
}

func stackLiteral(v lua.LValue) string {
	switch v := v.(type) {
	case nil, *lua.LNilType:
		return "nil"
	case lua.LBool:
		return strconv.FormatBool(bool(v))
	case lua.LNumber:
		return numberToString(float64(v))
	case lua.LString:
		return "'" + string(v) + "'"
	case *lua.LTable:
		return "Table"
	case *lua.LFunction:
		return "Function"
	case *lua.LUserData:
		if _, ok := v.Value.(uintptr); ok {
			return "Pointer"
		}
		return "Userdata"
	case *lua.LState:
		return "Thread"
	default:
		return v.Type().String()
	}
}
