// Copyright 2026 Wolf McNally
// SPDX-License-Identifier: MIT

package wolflua

import (
	"errors"

	lua "github.com/yuin/gopher-lua"
)

// Status is the outcome kind of a VM operation,
// mirroring the VM's own status codes.
type Status int

const (
	// StatusOK indicates success. It never appears in a returned error.
	StatusOK Status = iota
	// StatusYield indicates a suspended coroutine, not itself a failure.
	StatusYield
	// StatusRuntimeError indicates an error raised while running a chunk
	// or a metamethod.
	StatusRuntimeError
	// StatusSyntaxError indicates a compile-time error.
	StatusSyntaxError
	// StatusMemoryError indicates a memory allocation failure.
	// This VM aborts the process on allocation failure,
	// so the kind exists for taxonomy completeness only.
	StatusMemoryError
	// StatusGCMetamethodError indicates a failure inside a finalizer.
	// This VM routes finalizer errors through the runtime path,
	// so the kind exists for taxonomy completeness only.
	StatusGCMetamethodError
	// StatusGenericError covers failures with no more specific kind,
	// including panics escaping Go callbacks.
	StatusGenericError
)

// String returns a short description of the status.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusYield:
		return "coroutine yield"
	case StatusRuntimeError:
		return "runtime error"
	case StatusSyntaxError:
		return "syntax error"
	case StatusMemoryError:
		return "memory allocation error"
	case StatusGCMetamethodError:
		return "error in finalizer"
	default:
		return "unknown error"
	}
}

// Error is a failed call outcome:
// a status kind plus the message extracted from the error value.
type Error struct {
	status Status
	msg    string
}

// Status returns the status kind of the failure.
func (e *Error) Status() Status {
	return e.status
}

func (e *Error) Error() string {
	if e.msg != "" {
		return e.msg
	}
	return e.status.String()
}

// AsError returns the status carried by the error.
// AsError(nil) reports [StatusOK].
// ok is false if the error did not originate from this package.
func AsError(err error) (status Status, ok bool) {
	if err == nil {
		return StatusOK, true
	}
	var e *Error
	if !errors.As(err, &e) {
		return 0, false
	}
	return e.status, true
}

// IsRuntime reports whether the error indicates a VM runtime error.
func IsRuntime(err error) bool {
	status, ok := AsError(err)
	return ok && status == StatusRuntimeError
}

// IsSyntax reports whether the error indicates a syntax error.
func IsSyntax(err error) bool {
	status, ok := AsError(err)
	return ok && status == StatusSyntaxError
}

// IsYield reports whether the error indicates a coroutine yield.
func IsYield(err error) bool {
	status, ok := AsError(err)
	return ok && status == StatusYield
}

// IsOutOfMemory reports whether the error indicates a memory allocation error.
func IsOutOfMemory(err error) bool {
	status, ok := AsError(err)
	return ok && status == StatusMemoryError
}

// asStatusError converts an error surfaced by the VM's protected entry point
// into a [*Error] with the corresponding status kind.
func asStatusError(err error) *Error {
	var apiErr *lua.ApiError
	if errors.As(err, &apiErr) {
		msg := lua.LVAsString(apiErr.Object)
		if msg == "" && apiErr.Object != lua.LNil {
			msg = apiErr.Object.String()
		}
		switch apiErr.Type {
		case lua.ApiErrorSyntax:
			return &Error{status: StatusSyntaxError, msg: msg}
		case lua.ApiErrorRun:
			return &Error{status: StatusRuntimeError, msg: msg}
		default:
			return &Error{status: StatusGenericError, msg: msg}
		}
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{status: StatusGenericError, msg: err.Error()}
}
