// Copyright 2026 Wolf McNally
// SPDX-License-Identifier: MIT

package wolflua

import (
	"math"
	"testing"
)

func TestTypeString(t *testing.T) {
	tests := []struct {
		tp   Type
		want string
	}{
		{TypeNone, "no value"},
		{TypeNil, "nil"},
		{TypeBoolean, "boolean"},
		{TypeLightUserdata, "userdata"},
		{TypeNumber, "number"},
		{TypeString, "string"},
		{TypeTable, "table"},
		{TypeFunction, "function"},
		{TypeUserdata, "userdata"},
		{TypeThread, "thread"},
	}
	for _, test := range tests {
		if got := test.tp.String(); got != test.want {
			t.Errorf("Type(%d).String() = %q; want %q", int(test.tp), got, test.want)
		}
	}
}

func TestNumberToString(t *testing.T) {
	tests := []struct {
		f    float64
		want string
	}{
		{0, "0"},
		{12, "12"},
		{5.5, "5.5"},
		{-8.5, "-8.5"},
		{0.5, "0.5"},
		{1e20, "1e+20"},
		{math.Inf(1), "inf"},
		{math.Inf(-1), "-inf"},
	}
	for _, test := range tests {
		if got := numberToString(test.f); got != test.want {
			t.Errorf("numberToString(%g) = %q; want %q", test.f, got, test.want)
		}
	}
	if got := numberToString(math.NaN()); got != "nan" {
		t.Errorf("numberToString(NaN) = %q; want %q", got, "nan")
	}
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		s      string
		want   float64
		wantOK bool
	}{
		{"42", 42, true},
		{"5.5", 5.5, true},
		{"-3", -3, true},
		{"+7", 7, true},
		{"  10  ", 10, true},
		{"0x10", 16, true},
		{"0XfF", 255, true},
		{"-0x10", -16, true},
		{"1e3", 1000, true},
		{"", 0, false},
		{"   ", 0, false},
		{"giraffe", 0, false},
		{"0xzz", 0, false},
	}
	for _, test := range tests {
		got, ok := parseNumber(test.s)
		if got != test.want || ok != test.wantOK {
			t.Errorf("parseNumber(%q) = %g, %t; want %g, %t",
				test.s, got, ok, test.want, test.wantOK)
		}
	}
}

func TestFloatToInteger(t *testing.T) {
	tests := []struct {
		f      float64
		want   int64
		wantOK bool
	}{
		{0, 0, true},
		{12, 12, true},
		{-12, -12, true},
		{12.5, 0, false},
		{math.Inf(1), 0, false},
		{1e300, 0, false},
	}
	for _, test := range tests {
		got, ok := floatToInteger(test.f)
		if got != test.want || ok != test.wantOK {
			t.Errorf("floatToInteger(%g) = %d, %t; want %d, %t",
				test.f, got, ok, test.want, test.wantOK)
		}
	}
	if _, ok := floatToInteger(math.NaN()); ok {
		t.Error("floatToInteger(NaN) ok; want not ok")
	}
}
