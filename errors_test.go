// Copyright 2026 Wolf McNally
// SPDX-License-Identifier: MIT

package wolflua

import (
	"errors"
	"fmt"
	"testing"
)

func TestAsError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus Status
		wantOK     bool
	}{
		{
			name:       "Nil",
			err:        nil,
			wantStatus: StatusOK,
			wantOK:     true,
		},
		{
			name:       "Runtime",
			err:        &Error{status: StatusRuntimeError, msg: "boom"},
			wantStatus: StatusRuntimeError,
			wantOK:     true,
		},
		{
			name:       "Wrapped",
			err:        fmt.Errorf("running chunk: %w", &Error{status: StatusSyntaxError, msg: "unexpected symbol"}),
			wantStatus: StatusSyntaxError,
			wantOK:     true,
		},
		{
			name:   "Foreign",
			err:    errors.New("not ours"),
			wantOK: false,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			status, ok := AsError(test.err)
			if ok != test.wantOK {
				t.Fatalf("AsError(%v) ok = %t; want %t", test.err, ok, test.wantOK)
			}
			if ok && status != test.wantStatus {
				t.Errorf("AsError(%v) = %v; want %v", test.err, status, test.wantStatus)
			}
		})
	}
}

func TestStatusPredicates(t *testing.T) {
	runtimeErr := &Error{status: StatusRuntimeError, msg: "boom"}
	syntaxErr := &Error{status: StatusSyntaxError, msg: "unexpected symbol"}

	if !IsRuntime(runtimeErr) {
		t.Error("IsRuntime(runtime error) = false; want true")
	}
	if IsRuntime(syntaxErr) {
		t.Error("IsRuntime(syntax error) = true; want false")
	}
	if !IsSyntax(syntaxErr) {
		t.Error("IsSyntax(syntax error) = false; want true")
	}
	if IsSyntax(nil) {
		t.Error("IsSyntax(nil) = true; want false")
	}
	if IsYield(runtimeErr) {
		t.Error("IsYield(runtime error) = true; want false")
	}
	if IsOutOfMemory(runtimeErr) {
		t.Error("IsOutOfMemory(runtime error) = true; want false")
	}
}

func TestErrorMessage(t *testing.T) {
	withMsg := &Error{status: StatusRuntimeError, msg: "boom"}
	if got, want := withMsg.Error(), "boom"; got != want {
		t.Errorf("Error() = %q; want %q", got, want)
	}
	bare := &Error{status: StatusSyntaxError}
	if got, want := bare.Error(), "syntax error"; got != want {
		t.Errorf("Error() = %q; want %q", got, want)
	}
	if got, want := withMsg.Status(), StatusRuntimeError; got != want {
		t.Errorf("Status() = %v; want %v", got, want)
	}
}
