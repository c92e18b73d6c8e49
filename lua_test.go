// Copyright 2026 Wolf McNally
// SPDX-License-Identifier: MIT

package wolflua

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestClose(t *testing.T) {
	state := New()
	defer func() {
		if err := state.Close(); err != nil {
			t.Error("Close:", err)
		}
	}()

	state.PushBoolean(true)
	state.PushInteger(42)
	state.PushString("hello")
	state.PushValue(-1)
	if err := state.SetGlobal("x", 0); err != nil {
		t.Error(err)
	}
	if tp, err := state.Global("x", 0); err != nil {
		t.Error(err)
	} else if tp != TypeString {
		t.Errorf("type(_G.x) = %v; want %v", tp, TypeString)
	} else if got, _ := state.ToString(-1); got != "hello" {
		t.Errorf("_G.x = %q; want %q", got, "hello")
	}
	state.Pop(1)
	if got, want := state.Top(), 3; got != want {
		t.Errorf("before close, state.Top() = %d; want %d", got, want)
	}

	if err := state.Close(); err != nil {
		t.Error("Close:", err)
	}
	if got, want := state.Top(), 0; got != want {
		t.Errorf("after close, state.Top() = %d; want %d", got, want)
	}
}

func TestLoad(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		state := New()
		defer func() {
			if err := state.Close(); err != nil {
				t.Error("Close:", err)
			}
		}()

		const source = "return 2 + 2"
		if err := state.Load(strings.NewReader(source), source); err != nil {
			t.Fatal(err)
		}
		if err := state.Call(0, 1, 0); err != nil {
			t.Fatal(err)
		}
		if !state.IsNumber(-1) {
			t.Fatalf("top of stack is %v; want number", state.Type(-1))
		}
		const want = int64(4)
		if got, ok := state.ToInteger(-1); got != want || !ok {
			t.Errorf("state.ToInteger(-1) = %d, %t; want %d, true", got, ok, want)
		}
	})

	t.Run("SyntaxError", func(t *testing.T) {
		state := New()
		defer func() {
			if err := state.Close(); err != nil {
				t.Error("Close:", err)
			}
		}()

		err := state.LoadString("return (", "=(load)")
		if err == nil {
			t.Fatal("state.LoadString(...) = <nil>; want error")
		}
		if !IsSyntax(err) {
			t.Errorf("IsSyntax(%v) = false; want true", err)
		}
		if got, want := state.Top(), 1; got != want {
			t.Errorf("state.Top() = %d; want %d", got, want)
		}
		if got := state.Type(-1); got != TypeString {
			t.Errorf("type of error value = %v; want %v", got, TypeString)
		}
	})
}

func TestDoString(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		state := New()
		defer func() {
			if err := state.Close(); err != nil {
				t.Error("Close:", err)
			}
		}()

		if err := state.DoString("answer = 6 * 7"); err != nil {
			t.Fatal(err)
		}
		if got, want := state.Top(), 0; got != want {
			t.Errorf("state.Top() = %d; want %d", got, want)
		}
		if _, err := state.Global("answer", 0); err != nil {
			t.Fatal(err)
		}
		if got, ok := state.ToInteger(-1); got != 42 || !ok {
			t.Errorf("answer = %d, %t; want 42, true", got, ok)
		}
	})

	// A failed chunk must not poison the context:
	// the next chunk runs as if nothing happened.
	t.Run("UsableAfterFailure", func(t *testing.T) {
		state := New()
		defer func() {
			if err := state.Close(); err != nil {
				t.Error("Close:", err)
			}
		}()

		err := state.DoString("this is not lua")
		if err == nil {
			t.Fatal("state.DoString(...) = <nil>; want error")
		}
		if !IsSyntax(err) {
			t.Errorf("IsSyntax(%v) = false; want true", err)
		}
		if got, want := state.Top(), 0; got != want {
			t.Errorf("state.Top() = %d; want %d", got, want)
		}

		if err := state.DoString("recovered = true"); err != nil {
			t.Fatal(err)
		}
		if _, err := state.Global("recovered", 0); err != nil {
			t.Fatal(err)
		}
		if !state.ToBoolean(-1) {
			t.Error("recovered = false; want true")
		}
	})

	t.Run("RuntimeError", func(t *testing.T) {
		state := New()
		defer func() {
			if err := state.Close(); err != nil {
				t.Error("Close:", err)
			}
		}()

		err := state.DoString("error('boom')")
		if err == nil {
			t.Fatal("state.DoString(...) = <nil>; want error")
		}
		if !IsRuntime(err) {
			t.Errorf("IsRuntime(%v) = false; want true", err)
		}
		if !strings.Contains(err.Error(), "boom") {
			t.Errorf("error = %v; want to contain %q", err, "boom")
		}
		if got, want := state.Top(), 0; got != want {
			t.Errorf("state.Top() = %d; want %d", got, want)
		}
	})
}

func TestCall(t *testing.T) {
	t.Run("AdjustResults", func(t *testing.T) {
		state := New()
		defer func() {
			if err := state.Close(); err != nil {
				t.Error("Close:", err)
			}
		}()

		if err := state.LoadString("return 1, 2, 3", "=(chunk)"); err != nil {
			t.Fatal(err)
		}
		if err := state.Call(0, 2, 0); err != nil {
			t.Fatal(err)
		}
		if got, want := state.Top(), 2; got != want {
			t.Fatalf("state.Top() = %d; want %d", got, want)
		}
		if got, _ := state.ToInteger(-1); got != 2 {
			t.Errorf("top of stack = %d; want 2", got)
		}
	})

	t.Run("MultipleReturns", func(t *testing.T) {
		state := New()
		defer func() {
			if err := state.Close(); err != nil {
				t.Error("Close:", err)
			}
		}()

		if err := state.LoadString("return ...", "=(chunk)"); err != nil {
			t.Fatal(err)
		}
		state.PushInteger(7)
		state.PushString("hi")
		if err := state.Call(2, MultipleReturns, 0); err != nil {
			t.Fatal(err)
		}
		if got, want := state.Top(), 2; got != want {
			t.Fatalf("state.Top() = %d; want %d", got, want)
		}
		if got, _ := state.ToString(-1); got != "hi" {
			t.Errorf("top of stack = %q; want %q", got, "hi")
		}
	})

	// On failure the callable and its arguments are consumed
	// and exactly one error value takes their place.
	t.Run("ErrorValue", func(t *testing.T) {
		state := New()
		defer func() {
			if err := state.Close(); err != nil {
				t.Error("Close:", err)
			}
		}()

		state.PushString("sentinel")
		if err := state.LoadString("error('kaboom')", "=(chunk)"); err != nil {
			t.Fatal(err)
		}
		state.PushInteger(1)
		state.PushInteger(2)

		err := state.Call(2, 0, 0)
		if err == nil {
			t.Fatal("state.Call(...) = <nil>; want error")
		}
		if !IsRuntime(err) {
			t.Errorf("IsRuntime(%v) = false; want true", err)
		}
		if got, want := state.Top(), 2; got != want {
			t.Fatalf("state.Top() = %d; want %d", got, want)
		}
		if got, _ := state.ToString(-1); !strings.Contains(got, "kaboom") {
			t.Errorf("error value = %q; want to contain %q", got, "kaboom")
		}
		if got, _ := state.ToString(-2); got != "sentinel" {
			t.Errorf("value below error = %q; want %q", got, "sentinel")
		}
	})

	t.Run("MessageHandler", func(t *testing.T) {
		state := New()
		defer func() {
			if err := state.Close(); err != nil {
				t.Error("Close:", err)
			}
		}()

		state.PushFunction(func(l *State) (int, error) {
			msg, _ := l.ToString(1)
			l.PushString("handled: " + msg)
			return 1, nil
		})
		handlerIndex := state.AbsIndex(-1)

		if err := state.LoadString("error('oops')", "=(chunk)"); err != nil {
			t.Fatal(err)
		}
		err := state.Call(0, 0, handlerIndex)
		if err == nil {
			t.Fatal("state.Call(...) = <nil>; want error")
		}
		if got, _ := state.ToString(-1); !strings.HasPrefix(got, "handled: ") {
			t.Errorf("error value = %q; want %q prefix", got, "handled: ")
		}
	})
}

func TestPushClosure(t *testing.T) {
	state := New()
	defer func() {
		if err := state.Close(); err != nil {
			t.Error("Close:", err)
		}
	}()

	state.PushInteger(40)
	state.PushInteger(2)
	state.PushClosure(2, func(l *State) (int, error) {
		a, ok := l.ToInteger(UpvalueIndex(1))
		if !ok {
			return 0, errors.New("upvalue 1 is not an integer")
		}
		b, ok := l.ToInteger(UpvalueIndex(2))
		if !ok {
			return 0, errors.New("upvalue 2 is not an integer")
		}
		arg, _ := l.ToInteger(1)
		l.PushInteger(a + b + arg)
		return 1, nil
	})
	if got, want := state.Top(), 1; got != want {
		t.Fatalf("after PushClosure, state.Top() = %d; want %d", got, want)
	}

	state.PushInteger(100)
	if err := state.Call(1, 1, 0); err != nil {
		t.Fatal(err)
	}
	const want = int64(142)
	if got, ok := state.ToInteger(-1); got != want || !ok {
		t.Errorf("closure result = %d, %t; want %d, true", got, ok, want)
	}
}

func TestNativeFunctionError(t *testing.T) {
	state := New()
	defer func() {
		if err := state.Close(); err != nil {
			t.Error("Close:", err)
		}
	}()

	state.PushFunction(func(l *State) (int, error) {
		return 0, errors.New("refused")
	})
	if !state.IsNativeFunction(-1) {
		t.Error("IsNativeFunction(-1) = false; want true")
	}
	err := state.Call(0, 0, 0)
	if err == nil {
		t.Fatal("state.Call(...) = <nil>; want error")
	}
	if !IsRuntime(err) {
		t.Errorf("IsRuntime(%v) = false; want true", err)
	}
	if got, want := state.Top(), 1; got != want {
		t.Fatalf("state.Top() = %d; want %d", got, want)
	}
	if got, _ := state.ToString(-1); !strings.Contains(got, "refused") {
		t.Errorf("error value = %q; want to contain %q", got, "refused")
	}
}

func TestRotate(t *testing.T) {
	tests := []struct {
		s    []int
		n    int
		want []int
	}{
		{[]int{1, 2, 3}, 0, []int{1, 2, 3}},
		{[]int{1, 2, 3}, 1, []int{3, 1, 2}},
		{[]int{1, 2, 3}, 2, []int{2, 3, 1}},
		{[]int{1, 2, 3}, 3, []int{1, 2, 3}},
		{[]int{1, 2, 3}, -1, []int{2, 3, 1}},
		{[]int{1, 2, 3}, -2, []int{3, 1, 2}},
		{[]int{1, 2, 3, 4, 5}, 2, []int{4, 5, 1, 2, 3}},
	}
	for _, test := range tests {
		state := New()
		for _, x := range test.s {
			state.PushInteger(int64(x))
		}
		state.Rotate(1, test.n)
		got := make([]int, state.Top())
		for i := range got {
			n, _ := state.ToInteger(i + 1)
			got[i] = int(n)
		}
		if diff := cmp.Diff(test.want, got); diff != "" {
			t.Errorf("Rotate(1, %d) of %v (-want +got):\n%s", test.n, test.s, diff)
		}
		if err := state.Close(); err != nil {
			t.Error("Close:", err)
		}
	}
}

func TestInsertRemoveReplace(t *testing.T) {
	t.Run("Insert", func(t *testing.T) {
		state := New()
		defer state.Close()
		state.PushInteger(1)
		state.PushInteger(2)
		state.PushInteger(3)
		state.Insert(1)
		want := []int64{3, 1, 2}
		for i, w := range want {
			if got, _ := state.ToInteger(i + 1); got != w {
				t.Errorf("stack[%d] = %d; want %d", i+1, got, w)
			}
		}
	})

	t.Run("Remove", func(t *testing.T) {
		state := New()
		defer state.Close()
		state.PushInteger(1)
		state.PushInteger(2)
		state.PushInteger(3)
		state.Remove(2)
		if got, want := state.Top(), 2; got != want {
			t.Fatalf("state.Top() = %d; want %d", got, want)
		}
		want := []int64{1, 3}
		for i, w := range want {
			if got, _ := state.ToInteger(i + 1); got != w {
				t.Errorf("stack[%d] = %d; want %d", i+1, got, w)
			}
		}
	})

	t.Run("Replace", func(t *testing.T) {
		state := New()
		defer state.Close()
		state.PushInteger(1)
		state.PushInteger(2)
		state.PushInteger(3)
		state.Replace(1)
		if got, want := state.Top(), 2; got != want {
			t.Fatalf("state.Top() = %d; want %d", got, want)
		}
		want := []int64{3, 2}
		for i, w := range want {
			if got, _ := state.ToInteger(i + 1); got != w {
				t.Errorf("stack[%d] = %d; want %d", i+1, got, w)
			}
		}
	})
}

func TestSetTop(t *testing.T) {
	state := New()
	defer state.Close()

	state.PushInteger(1)
	state.SetTop(3)
	if got, want := state.Top(), 3; got != want {
		t.Fatalf("state.Top() = %d; want %d", got, want)
	}
	if !state.IsNil(2) || !state.IsNil(3) {
		t.Error("extended slots are not nil")
	}
	state.SetTop(0)
	if got, want := state.Top(), 0; got != want {
		t.Errorf("state.Top() = %d; want %d", got, want)
	}
	if got, want := state.Type(1), TypeNone; got != want {
		t.Errorf("state.Type(1) = %v; want %v", got, want)
	}
}

func TestAbsIndex(t *testing.T) {
	state := New()
	defer state.Close()

	state.PushInteger(1)
	state.PushInteger(2)
	state.PushInteger(3)
	tests := []struct {
		idx  int
		want int
	}{
		{-1, 3},
		{-3, 1},
		{2, 2},
		{GlobalsIndex, GlobalsIndex},
	}
	for _, test := range tests {
		if got := state.AbsIndex(test.idx); got != test.want {
			t.Errorf("state.AbsIndex(%d) = %d; want %d", test.idx, got, test.want)
		}
	}
}

func TestCheckStack(t *testing.T) {
	state := New()
	defer state.Close()

	if !state.CheckStack(100) {
		t.Error("state.CheckStack(100) = false; want true")
	}
	for i := 0; i < 100; i++ {
		state.PushInteger(int64(i))
	}
	if got, want := state.Top(), 100; got != want {
		t.Errorf("state.Top() = %d; want %d", got, want)
	}
	if state.CheckStack(maxStack) {
		t.Error("state.CheckStack(maxStack) = true; want false")
	}
}

func TestGlobalsIndexRoundTrip(t *testing.T) {
	state := New()
	defer state.Close()

	// The globals table answers to the same protocol as any other table.
	state.PushString("animal")
	state.PushString("giraffe")
	state.RawSet(GlobalsIndex)
	if got, want := state.Top(), 0; got != want {
		t.Fatalf("state.Top() = %d; want %d", got, want)
	}

	if tp, err := state.Global("animal", 0); err != nil {
		t.Fatal(err)
	} else if tp != TypeString {
		t.Errorf("type(_G.animal) = %v; want %v", tp, TypeString)
	}
	if got, _ := state.ToString(-1); got != "giraffe" {
		t.Errorf("_G.animal = %q; want %q", got, "giraffe")
	}

	if got := state.RawField(GlobalsIndex, "animal"); got != TypeString {
		t.Errorf("raw type(_G.animal) = %v; want %v", got, TypeString)
	}
}

func TestToNumber(t *testing.T) {
	state := New()
	defer state.Close()

	state.PushNumber(5.5)
	state.PushString("42")
	state.PushString("0x10")
	state.PushString("  3.25  ")
	state.PushString("nope")
	state.PushBoolean(true)

	tests := []struct {
		idx    int
		want   float64
		wantOK bool
	}{
		{1, 5.5, true},
		{2, 42, true},
		{3, 16, true},
		{4, 3.25, true},
		{5, 0, false},
		{6, 0, false},
	}
	for _, test := range tests {
		got, ok := state.ToNumber(test.idx)
		if got != test.want || ok != test.wantOK {
			t.Errorf("state.ToNumber(%d) = %g, %t; want %g, %t",
				test.idx, got, ok, test.want, test.wantOK)
		}
	}
}

func TestIsInteger(t *testing.T) {
	state := New()
	defer state.Close()

	state.PushInteger(12)
	state.PushNumber(12.5)
	state.PushString("12")

	if !state.IsInteger(1) {
		t.Error("state.IsInteger(1) = false; want true")
	}
	if state.IsInteger(2) {
		t.Error("state.IsInteger(2) = true; want false")
	}
	// Strings never count as integers, even when convertible.
	if state.IsInteger(3) {
		t.Error("state.IsInteger(3) = true; want false")
	}
}

func TestUserdata(t *testing.T) {
	state := New()
	defer state.Close()

	type payload struct{ n int }
	state.PushUserdata(&payload{n: 7})
	state.PushLightUserdata(0xdeadbeef)

	if got, want := state.Type(1), TypeUserdata; got != want {
		t.Errorf("state.Type(1) = %v; want %v", got, want)
	}
	if got, want := state.Type(2), TypeLightUserdata; got != want {
		t.Errorf("state.Type(2) = %v; want %v", got, want)
	}
	if !state.IsUserdata(1) || !state.IsUserdata(2) {
		t.Error("IsUserdata should report true for both full and light userdata")
	}
	x, ok := state.ToUserdata(1)
	if !ok {
		t.Fatal("state.ToUserdata(1) not ok")
	}
	if p, ok := x.(*payload); !ok || p.n != 7 {
		t.Errorf("boxed value = %#v; want &payload{n: 7}", x)
	}
}

func TestRawEqual(t *testing.T) {
	state := New()
	defer state.Close()

	state.PushInteger(42)
	state.PushInteger(42)
	state.PushString("42")
	state.NewTable()
	state.PushValue(-1)
	state.NewTable()

	tests := []struct {
		idx1, idx2 int
		want       bool
	}{
		{1, 2, true},
		{1, 3, false},
		{4, 5, true},
		{4, 6, false},
	}
	for _, test := range tests {
		if got := state.RawEqual(test.idx1, test.idx2); got != test.want {
			t.Errorf("state.RawEqual(%d, %d) = %t; want %t",
				test.idx1, test.idx2, got, test.want)
		}
	}
}
