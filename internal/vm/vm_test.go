package vm

import (
	"testing"

	"github.com/velalang/vela/internal/bytecode"
	"github.com/velalang/vela/internal/config"
	"github.com/velalang/vela/internal/frame"
	"github.com/velalang/vela/internal/value"
)

func newTestVM() *VM {
	return New(config.Default())
}

// emitConstInt emits a `local` opcode decoding a constInt literal at idx.
func emitConstInt(c *bytecode.Chunk, idx uint16) {
	c.WriteOp(bytecode.OpLocal, 1)
	c.WriteU8(byte(bytecode.LiteralConstInt), 1)
	c.WriteU16(idx, 1)
}

func emitRegister(c *bytecode.Chunk, r frame.Register) {
	c.WriteOp(bytecode.OpRegister, 1)
	c.WriteU8(byte(r), 1)
}

func emitPush(c *bytecode.Chunk) {
	c.WriteOp(bytecode.OpPushOperand, 1)
}

func TestNewVM(t *testing.T) {
	vm := newTestVM()
	if vm.StackDepth() != 0 {
		t.Fatalf("expected empty stack, got depth %d", vm.StackDepth())
	}
	if vm.CallDepth() != 0 {
		t.Fatalf("expected empty call stack, got depth %d", vm.CallDepth())
	}
}

func TestIntegerArithmetic(t *testing.T) {
	tests := []struct {
		name   string
		a, b   int64
		op     bytecode.OpCode
		leftOp frame.Register
		want   int64
	}{
		{"add", 10, 20, bytecode.OpAdd, frame.RegAdditiveLeft, 30},
		{"subtract", 50, 20, bytecode.OpSubtract, frame.RegAdditiveLeft, 30},
		{"multiply", 6, 7, bytecode.OpMultiply, frame.RegMultiplicativeLeft, 42},
		{"modulo", 17, 5, bytecode.OpModulo, frame.RegMultiplicativeLeft, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vm := newTestVM()
			c := bytecode.NewChunk()
			c.ConstInts = []int64{tt.a, tt.b}

			emitConstInt(c, 0)
			emitRegister(c, tt.leftOp)
			emitConstInt(c, 1)
			c.WriteOp(tt.op, 1)
			c.WriteOp(bytecode.OpEndOfCode, 1)

			f := frame.New(vm.GlobalNamespace())
			result, susp, err := vm.run(c, f)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if susp != nil {
				t.Fatalf("unexpected suspension")
			}
			i, ok := result.(*value.Int)
			if !ok {
				t.Fatalf("expected *value.Int, got %T", result)
			}
			if i.V != tt.want {
				t.Errorf("expected %d, got %d", tt.want, i.V)
			}
		})
	}
}

func TestFloatPromotion(t *testing.T) {
	vm := newTestVM()
	c := bytecode.NewChunk()
	c.ConstInts = []int64{10}
	c.ConstFloats = []float64{2.5}

	emitConstInt(c, 0)
	emitRegister(c, frame.RegAdditiveLeft)
	c.WriteOp(bytecode.OpLocal, 1)
	c.WriteU8(byte(bytecode.LiteralConstFloat), 1)
	c.WriteU16(0, 1)
	c.WriteOp(bytecode.OpAdd, 1)
	c.WriteOp(bytecode.OpEndOfCode, 1)

	f := frame.New(vm.GlobalNamespace())
	result, _, err := vm.run(c, f)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	fl, ok := result.(*value.Float)
	if !ok {
		t.Fatalf("expected *value.Float, got %T", result)
	}
	if diff := fl.V - 12.5; diff < -0.0001 || diff > 0.0001 {
		t.Errorf("expected ~12.5, got %f", fl.V)
	}
}

func TestComparison(t *testing.T) {
	tests := []struct {
		name string
		a, b int64
		op   bytecode.OpCode
		want bool
	}{
		{"equal_true", 10, 10, bytecode.OpEqual, true},
		{"equal_false", 10, 20, bytecode.OpEqual, false},
		{"notEqual_true", 10, 20, bytecode.OpNotEqual, true},
		{"lesser_true", 10, 20, bytecode.OpLesser, true},
		{"greaterOrEqual_true", 10, 10, bytecode.OpGreaterOrEqual, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vm := newTestVM()
			c := bytecode.NewChunk()
			c.ConstInts = []int64{tt.a, tt.b}

			leftReg := frame.RegRelationLeft
			if tt.op == bytecode.OpEqual || tt.op == bytecode.OpNotEqual {
				leftReg = frame.RegEqualLeft
			}

			emitConstInt(c, 0)
			emitRegister(c, leftReg)
			emitConstInt(c, 1)
			c.WriteOp(tt.op, 1)
			c.WriteOp(bytecode.OpEndOfCode, 1)

			f := frame.New(vm.GlobalNamespace())
			result, _, err := vm.run(c, f)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			b, ok := result.(*value.Bool)
			if !ok {
				t.Fatalf("expected *value.Bool, got %T", result)
			}
			if b.V != tt.want {
				t.Errorf("expected %v, got %v", tt.want, b.V)
			}
		})
	}
}

func TestBitwiseOps(t *testing.T) {
	tests := []struct {
		name   string
		a, b   int64
		op     bytecode.OpCode
		leftOp frame.Register
		want   int64
	}{
		{"and", 0b1100, 0b1010, bytecode.OpBitwiseAnd, frame.RegBitwiseAndLeft, 0b1000},
		{"or", 0b1100, 0b1010, bytecode.OpBitwiseOr, frame.RegBitwiseOrLeft, 0b1110},
		{"xor", 0b1100, 0b1010, bytecode.OpBitwiseXor, frame.RegBitwiseXorLeft, 0b0110},
		{"leftShift", 1, 4, bytecode.OpLeftShift, frame.RegBitwiseShiftLeft, 16},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vm := newTestVM()
			c := bytecode.NewChunk()
			c.ConstInts = []int64{tt.a, tt.b}

			emitConstInt(c, 0)
			emitRegister(c, tt.leftOp)
			emitConstInt(c, 1)
			c.WriteOp(tt.op, 1)
			c.WriteOp(bytecode.OpEndOfCode, 1)

			f := frame.New(vm.GlobalNamespace())
			result, _, err := vm.run(c, f)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			i, ok := result.(*value.Int)
			if !ok {
				t.Fatalf("expected *value.Int, got %T", result)
			}
			if i.V != tt.want {
				t.Errorf("expected %d, got %d", tt.want, i.V)
			}
		})
	}
}

func TestLogicalShortCircuitOr(t *testing.T) {
	vm := newTestVM()
	c := bytecode.NewChunk()
	c.ConstInts = []int64{1, 99}

	emitConstInt(c, 0)
	emitRegister(c, frame.RegOrLeft)
	c.WriteOp(bytecode.OpLogicalOr, 1)
	skipPos := c.WriteU16(0, 1)
	emitConstInt(c, 1)
	c.PatchJump(skipPos)
	c.WriteOp(bytecode.OpEndOfCode, 1)

	f := frame.New(vm.GlobalNamespace())
	result, _, err := vm.run(c, f)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	i, ok := result.(*value.Int)
	if !ok || i.V != 1 {
		t.Fatalf("expected the short-circuited left operand 1, got %v", result)
	}
}

func TestStringConcatViaAdd(t *testing.T) {
	vm := newTestVM()
	c := bytecode.NewChunk()
	c.ConstStrings = []string{"Hello, ", "World!"}

	c.WriteOp(bytecode.OpLocal, 1)
	c.WriteU8(byte(bytecode.LiteralConstString), 1)
	c.WriteU16(0, 1)
	emitRegister(c, frame.RegAdditiveLeft)
	c.WriteOp(bytecode.OpLocal, 1)
	c.WriteU8(byte(bytecode.LiteralConstString), 1)
	c.WriteU16(1, 1)
	c.WriteOp(bytecode.OpAdd, 1)
	c.WriteOp(bytecode.OpEndOfCode, 1)

	f := frame.New(vm.GlobalNamespace())
	result, _, err := vm.run(c, f)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s, ok := result.(*value.String)
	if !ok {
		t.Fatalf("expected *value.String, got %T", result)
	}
	if s.V != "Hello, World!" {
		t.Errorf("expected %q, got %q", "Hello, World!", s.V)
	}
}

func TestVarDeclAndAssign(t *testing.T) {
	vm := newTestVM()
	c := bytecode.NewChunk()
	c.ConstInts = []int64{7, 9}
	c.ConstStrings = []string{"x"}

	emitConstInt(c, 0)
	c.WriteOp(bytecode.OpVarDecl, 1)
	c.WriteU16(0, 1)

	emitConstInt(c, 1)
	emitRegister(c, frame.RegAssignRight)
	c.WriteOp(bytecode.OpAssign, 1)
	c.WriteU16(0, 1)
	c.WriteOp(bytecode.OpEndOfCode, 1)

	f := frame.New(vm.GlobalNamespace())
	result, _, err := vm.run(c, f)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	i, ok := result.(*value.Int)
	if !ok || i.V != 9 {
		t.Fatalf("expected reassigned value 9, got %v", result)
	}

	decl, err := vm.GlobalNamespace().MemberGet("x", "", false)
	if err != nil {
		t.Fatalf("expected x to be defined: %v", err)
	}
	if iv, ok := decl.Value.(*value.Int); !ok || iv.V != 9 {
		t.Errorf("expected namespace to hold 9, got %v", decl.Value)
	}
}

func TestAwaitResumesWithResolvedValue(t *testing.T) {
	vm := newTestVM()
	c := bytecode.NewChunk()
	c.ConstInts = []int64{42}

	emitConstInt(c, 0)
	c.WriteOp(bytecode.OpAwaitedValue, 1)
	c.WriteOp(bytecode.OpEndOfCode, 1)

	f := frame.New(vm.GlobalNamespace())
	f.Set(frame.RegLocalValue, futureValue{f: &pendingFuture{}})

	result, susp, err := vm.run(c, f)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if susp == nil {
		t.Fatalf("expected a suspension for an unresolved future")
	}

	resumed, nextSusp, err := vm.Resume(susp, value.NewInt(99))
	if err != nil {
		t.Fatalf("unexpected resume error: %v", err)
	}
	if nextSusp != nil {
		t.Fatalf("unexpected second suspension")
	}
	_ = result
	i, ok := resumed.(*value.Int)
	if !ok || i.V != 99 {
		t.Fatalf("expected resumed value 99, got %v", resumed)
	}
}

// TestListLiteralPreservesOrder exercises pushOperand feeding the list
// aggregator: list decode pops argc-1..0, so elements must be pushed left
// to right to come back out in source order.
func TestListLiteralPreservesOrder(t *testing.T) {
	vm := newTestVM()
	c := bytecode.NewChunk()
	c.ConstInts = []int64{10, 20, 30}

	for i := range c.ConstInts {
		emitConstInt(c, uint16(i))
		emitPush(c)
	}
	c.WriteOp(bytecode.OpLocal, 1)
	c.WriteU8(byte(bytecode.LiteralList), 1)
	c.WriteU16(uint16(len(c.ConstInts)), 1)
	c.WriteOp(bytecode.OpEndOfCode, 1)

	f := frame.New(vm.GlobalNamespace())
	result, _, err := vm.run(c, f)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	list, ok := result.(*value.List)
	if !ok {
		t.Fatalf("expected *value.List, got %T", result)
	}
	want := []int64{10, 20, 30}
	for i, w := range want {
		got, err := list.SubGet(value.NewInt(int64(i)))
		if err != nil {
			t.Fatalf("SubGet(%d): %v", i, err)
		}
		if iv, ok := got.(*value.Int); !ok || iv.V != w {
			t.Errorf("index %d: expected %d, got %v", i, w, got)
		}
	}
	if vm.StackDepth() != 0 {
		t.Errorf("expected operand stack drained, got depth %d", vm.StackDepth())
	}
}

// TestInterpolatedStringOrdering covers the `local`/interpolatedString
// decode's forward pop order: interpString must push its non-literal parts
// back to front so multiple interpolated expressions don't come out
// swapped, and literal parts must carry their own inline bytes.
func TestInterpolatedStringOrdering(t *testing.T) {
	vm := newTestVM()
	c := bytecode.NewChunk()
	c.ConstInts = []int64{1, 2}

	// parts: "x=", {1}, " y=", {2} -- push the non-literal parts back to
	// front (2 then 1) so popping forward during decode yields 1 then 2.
	emitConstInt(c, 1)
	emitPush(c)
	emitConstInt(c, 0)
	emitPush(c)

	c.WriteOp(bytecode.OpLocal, 1)
	c.WriteU8(byte(bytecode.LiteralInterpolatedString), 1)
	c.WriteU8(4, 1)

	writeInlinePart := func(s string) {
		c.WriteU8(0, 1)
		c.WriteU16(uint16(len(s)), 1)
		for _, b := range []byte(s) {
			c.WriteU8(b, 1)
		}
	}
	writeInlinePart("x=")
	c.WriteU8(1, 1)
	writeInlinePart(" y=")
	c.WriteU8(1, 1)
	c.WriteOp(bytecode.OpEndOfCode, 1)

	f := frame.New(vm.GlobalNamespace())
	result, _, err := vm.run(c, f)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s, ok := result.(*value.String)
	if !ok {
		t.Fatalf("expected *value.String, got %T", result)
	}
	if s.V != "x=1 y=2" {
		t.Errorf("expected %q, got %q", "x=1 y=2", s.V)
	}
}

// pendingFuture never resolves on its own; Resume drives it explicitly in
// TestAwaitResumesWithResolvedValue by re-entering past the awaitedValue
// opcode with the resolved value pre-loaded.
type pendingFuture struct{}

func (*pendingFuture) Poll() (value.Value, error, bool) { return nil, nil, false }
