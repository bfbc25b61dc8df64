package vm

import (
	"math"

	"github.com/velalang/vela/internal/bytecode"
	velaerrors "github.com/velalang/vela/internal/errors"
	"github.com/velalang/vela/internal/frame"
	"github.com/velalang/vela/internal/value"
)

func toFloat(v value.Value) (float64, bool) {
	switch t := v.(type) {
	case *value.Int:
		return float64(t.V), true
	case *value.Float:
		return t.V, true
	default:
		return 0, false
	}
}

func valuesEqual(a, b value.Value) bool {
	if a == nil {
		a = value.Null
	}
	if b == nil {
		b = value.Null
	}
	switch av := a.(type) {
	case *value.Int:
		if bv, ok := b.(*value.Int); ok {
			return av.V == bv.V
		}
		if bf, ok := toFloat(b); ok {
			return float64(av.V) == bf
		}
		return false
	case *value.Float:
		bf, ok := toFloat(b)
		return ok && av.V == bf
	case *value.String:
		bv, ok := b.(*value.String)
		return ok && av.V == bv.V
	case *value.Bool:
		bv, ok := b.(*value.Bool)
		return ok && av.V == bv.V
	default:
		return a == b
	}
}

// compare implements equal/notEqual/lesser/greater/lesserOrEqual/
// greaterOrEqual, reading their left operand out of the register the
// compiler stashed it in before emitting the comparison opcode (§3).
func (v *VM) compare(op bytecode.OpCode, f *frame.Frame) (value.Value, error) {
	var left value.Value
	if op == bytecode.OpEqual || op == bytecode.OpNotEqual {
		left, _ = f.Get(frame.RegEqualLeft).(value.Value)
	} else {
		left, _ = f.Get(frame.RegRelationLeft).(value.Value)
	}
	right, _ := f.Get(frame.RegLocalValue).(value.Value)

	switch op {
	case bytecode.OpEqual:
		return value.NewBool(valuesEqual(left, right)), nil
	case bytecode.OpNotEqual:
		return value.NewBool(!valuesEqual(left, right)), nil
	}

	lf, lok := toFloat(left)
	rf, rok := toFloat(right)
	if !lok || !rok {
		return nil, velaerrors.New(velaerrors.KindTypeCast, "comparison requires numeric operands")
	}
	switch op {
	case bytecode.OpLesser:
		return value.NewBool(lf < rf), nil
	case bytecode.OpGreater:
		return value.NewBool(lf > rf), nil
	case bytecode.OpLesserOrEqual:
		return value.NewBool(lf <= rf), nil
	case bytecode.OpGreaterOrEqual:
		return value.NewBool(lf >= rf), nil
	default:
		return nil, velaerrors.New(velaerrors.KindUnknownOpCode, "unreachable comparison op %s", op)
	}
}

// arith implements add/subtract/multiply/devide/truncatingDevide/modulo.
// Add also covers string concatenation when either operand is a string,
// per the language's implicit-toString-on-add convention.
func (v *VM) arith(op bytecode.OpCode, f *frame.Frame) (value.Value, error) {
	leftReg := frame.RegMultiplicativeLeft
	if op == bytecode.OpAdd || op == bytecode.OpSubtract {
		leftReg = frame.RegAdditiveLeft
	}
	left, _ := f.Get(leftReg).(value.Value)
	right, _ := f.Get(frame.RegLocalValue).(value.Value)

	if op == bytecode.OpAdd {
		if ls, ok := left.(*value.String); ok {
			return value.NewString(ls.V + stringify(right)), nil
		}
		if rs, ok := right.(*value.String); ok {
			return value.NewString(stringify(left) + rs.V), nil
		}
	}

	lf, lok := toFloat(left)
	rf, rok := toFloat(right)
	if !lok || !rok {
		return nil, velaerrors.New(velaerrors.KindTypeCast, "arithmetic requires numeric operands")
	}
	li, liok := left.(*value.Int)
	ri, riok := right.(*value.Int)
	bothInt := liok && riok

	switch op {
	case bytecode.OpAdd:
		if bothInt {
			return value.NewInt(li.V + ri.V), nil
		}
		return value.NewFloat(lf + rf), nil
	case bytecode.OpSubtract:
		if bothInt {
			return value.NewInt(li.V - ri.V), nil
		}
		return value.NewFloat(lf - rf), nil
	case bytecode.OpMultiply:
		if bothInt {
			return value.NewInt(li.V * ri.V), nil
		}
		return value.NewFloat(lf * rf), nil
	case bytecode.OpDevide:
		if rf == 0 {
			return nil, velaerrors.New(velaerrors.KindTypeCast, "division by zero")
		}
		return value.NewFloat(lf / rf), nil
	case bytecode.OpTruncatingDevide:
		if rf == 0 {
			return nil, velaerrors.New(velaerrors.KindTypeCast, "division by zero")
		}
		return value.NewInt(int64(lf / rf)), nil
	case bytecode.OpModulo:
		if bothInt {
			if ri.V == 0 {
				return nil, velaerrors.New(velaerrors.KindTypeCast, "division by zero")
			}
			return value.NewInt(li.V % ri.V), nil
		}
		return value.NewFloat(math.Mod(lf, rf)), nil
	default:
		return nil, velaerrors.New(velaerrors.KindUnknownOpCode, "unreachable arithmetic op %s", op)
	}
}

func negate(v value.Value) (value.Value, error) {
	switch t := v.(type) {
	case *value.Int:
		return value.NewInt(-t.V), nil
	case *value.Float:
		return value.NewFloat(-t.V), nil
	default:
		return nil, velaerrors.New(velaerrors.KindTypeCast, "cannot negate a non-numeric value")
	}
}

// bitwise implements bitwiseOr/Xor/And/leftShift/rightShift/
// unsignedRightShift, all requiring Int operands.
func (v *VM) bitwise(op bytecode.OpCode, f *frame.Frame) (value.Value, error) {
	var leftReg frame.Register
	switch op {
	case bytecode.OpBitwiseOr:
		leftReg = frame.RegBitwiseOrLeft
	case bytecode.OpBitwiseXor:
		leftReg = frame.RegBitwiseXorLeft
	case bytecode.OpBitwiseAnd:
		leftReg = frame.RegBitwiseAndLeft
	default:
		leftReg = frame.RegBitwiseShiftLeft
	}
	left, _ := f.Get(leftReg).(value.Value)
	right, _ := f.Get(frame.RegLocalValue).(value.Value)

	li, ok1 := left.(*value.Int)
	ri, ok2 := right.(*value.Int)
	if !ok1 || !ok2 {
		return nil, velaerrors.New(velaerrors.KindTypeCast, "bitwise operators require int operands")
	}

	switch op {
	case bytecode.OpBitwiseOr:
		return value.NewInt(li.V | ri.V), nil
	case bytecode.OpBitwiseXor:
		return value.NewInt(li.V ^ ri.V), nil
	case bytecode.OpBitwiseAnd:
		return value.NewInt(li.V & ri.V), nil
	case bytecode.OpLeftShift:
		return value.NewInt(li.V << uint64(ri.V)), nil
	case bytecode.OpRightShift:
		return value.NewInt(li.V >> uint64(ri.V)), nil
	case bytecode.OpUnsignedRightShift:
		return value.NewInt(int64(uint64(li.V) >> uint64(ri.V))), nil
	default:
		return nil, velaerrors.New(velaerrors.KindUnknownOpCode, "unreachable bitwise op %s", op)
	}
}
