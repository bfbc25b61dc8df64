package errors

import (
	stderrors "errors"
	"strings"
	"testing"
)

func TestNewFormatsMessage(t *testing.T) {
	err := New(KindUndefined, "undefined member %q", "foo")
	if err.Kind != KindUndefined {
		t.Errorf("expected kind %v, got %v", KindUndefined, err.Kind)
	}
	if err.Message != `undefined member "foo"` {
		t.Errorf("unexpected message: %q", err.Message)
	}
}

func TestErrorStringIncludesLocationAndExtras(t *testing.T) {
	err := New(KindTypeCast, "cannot cast").WithLocation("main.vela", 10, 4)
	err.Extra = "expected int"
	err.Correction = "wrap with int(...)"
	err.StackTrace = []Frame{
		{Filename: "main.vela", Line: 10, Column: 4, Function: "main"},
	}

	got := err.Error()
	for _, want := range []string{
		"main.vela:10:4:", "typeCast", "cannot cast",
		"(expected int)", "-- wrap with int(...)",
		"at (main.vela:10:4) in main",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("expected error string to contain %q, got %q", want, got)
		}
	}
}

func TestErrorStringWithoutLocationOmitsPrefix(t *testing.T) {
	err := New(KindExtern, "boom")
	got := err.Error()
	if strings.Contains(got, ":0:0:") {
		t.Errorf("expected no location prefix for an unlocated error, got %q", got)
	}
}

func TestIsMatchesByKindOnly(t *testing.T) {
	a := New(KindUndefined, "first message")
	b := New(KindUndefined, "a completely different message")
	c := New(KindDefined, "first message")

	if !stderrors.Is(a, b) {
		t.Errorf("expected errors with the same kind to match via errors.Is")
	}
	if stderrors.Is(a, c) {
		t.Errorf("expected errors with different kinds not to match")
	}
	if stderrors.Is(a, stderrors.New("plain error")) {
		t.Errorf("expected a plain error never to match")
	}
}

func TestWithLocationAndTraceChain(t *testing.T) {
	trace := []Frame{{Filename: "a.vela", Line: 1, Column: 1, Function: "f"}}
	err := New(KindBytecode, "bad opcode").WithLocation("a.vela", 1, 1).WithTrace(trace)
	if err.Filename != "a.vela" || err.Line != 1 || err.Column != 1 {
		t.Errorf("expected location to be set, got %+v", err)
	}
	if len(err.StackTrace) != 1 {
		t.Errorf("expected a one-frame trace, got %d", len(err.StackTrace))
	}
}
