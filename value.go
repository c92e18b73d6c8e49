// Copyright 2026 Wolf McNally
// SPDX-License-Identifier: MIT

package wolflua

import (
	"math"
	"strconv"
	"strings"

	lua "github.com/yuin/gopher-lua"
)

// Type is an enumeration of VM dynamic value tags.
type Type int

// TypeNone is the value returned from [State.Type]
// for a non-valid but acceptable index.
const TypeNone Type = -1

// Value types.
const (
	TypeNil           Type = 0
	TypeBoolean       Type = 1
	TypeLightUserdata Type = 2
	TypeNumber        Type = 3
	TypeString        Type = 4
	TypeTable         Type = 5
	TypeFunction      Type = 6
	TypeUserdata      Type = 7
	TypeThread        Type = 8
)

// String returns the name of the type encoded by the value tp.
func (tp Type) String() string {
	switch tp {
	case TypeNone:
		return "no value"
	case TypeNil:
		return "nil"
	case TypeBoolean:
		return "boolean"
	case TypeLightUserdata, TypeUserdata:
		return "userdata"
	case TypeNumber:
		return "number"
	case TypeString:
		return "string"
	case TypeTable:
		return "table"
	case TypeFunction:
		return "function"
	case TypeThread:
		return "thread"
	default:
		return "<" + strconv.Itoa(int(tp)) + ">"
	}
}

func valueType(v lua.LValue) Type {
	switch v := v.(type) {
	case nil, *lua.LNilType:
		return TypeNil
	case lua.LBool:
		return TypeBoolean
	case lua.LNumber:
		return TypeNumber
	case lua.LString:
		return TypeString
	case *lua.LTable:
		return TypeTable
	case *lua.LFunction:
		return TypeFunction
	case *lua.LUserData:
		if _, ok := v.Value.(uintptr); ok {
			return TypeLightUserdata
		}
		return TypeUserdata
	case *lua.LState:
		return TypeThread
	default:
		return TypeUserdata
	}
}

func toBoolean(v lua.LValue) bool {
	return v != lua.LNil && v != lua.LFalse
}

// floatToInteger converts f to an integer
// if and only if f has an exact integral value in the int64 range.
func floatToInteger(f float64) (int64, bool) {
	if f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}

// parseNumber converts a string to a number
// following the VM's numeral conventions:
// optional surrounding space, decimal floats,
// and hexadecimal integers with an 0x prefix.
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	body, neg := s, false
	switch s[0] {
	case '-':
		body, neg = s[1:], true
	case '+':
		body = s[1:]
	}
	if len(body) > 2 && (body[:2] == "0x" || body[:2] == "0X") {
		u, err := strconv.ParseUint(body[2:], 16, 64)
		if err != nil {
			return 0, false
		}
		f := float64(u)
		if neg {
			f = -f
		}
		return f, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// numberToString renders a number the way the VM's tostring does:
// %.14g, so integral values print without a decimal point.
func numberToString(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "nan"
	}
	return strconv.FormatFloat(f, 'g', 14, 64)
}
