package vm

import (
	"strings"

	"github.com/velalang/vela/internal/bytecode"
	velaerrors "github.com/velalang/vela/internal/errors"
	"github.com/velalang/vela/internal/frame"
	"github.com/velalang/vela/internal/function"
	"github.com/velalang/vela/internal/object"
	"github.com/velalang/vela/internal/value"
)

// decodeLocal implements the `local` opcode's literal-kind switch of §4.I:
// the byte right after the opcode selects one of the shapes below, and the
// result is what `local` loads into localValue.
func (v *VM) decodeLocal(c *bytecode.Chunk, f *frame.Frame) (value.Value, error) {
	kind := bytecode.LiteralKind(readU8(c, f))

	switch kind {
	case bytecode.LiteralNull:
		return value.Null, nil

	case bytecode.LiteralBool:
		return value.NewBool(readU8(c, f) != 0), nil

	case bytecode.LiteralConstInt:
		idx := readU16(c, f)
		if int(idx) >= len(c.ConstInts) {
			return nil, velaerrors.New(velaerrors.KindBytecode, "int constant index %d out of range", idx)
		}
		return value.NewInt(c.ConstInts[idx]), nil

	case bytecode.LiteralConstFloat:
		idx := readU16(c, f)
		if int(idx) >= len(c.ConstFloats) {
			return nil, velaerrors.New(velaerrors.KindBytecode, "float constant index %d out of range", idx)
		}
		return value.NewFloat(c.ConstFloats[idx]), nil

	case bytecode.LiteralConstString:
		idx := readU16(c, f)
		if int(idx) >= len(c.ConstStrings) {
			return nil, velaerrors.New(velaerrors.KindBytecode, "string constant index %d out of range", idx)
		}
		return value.NewString(c.ConstStrings[idx]), nil

	case bytecode.LiteralInlineString:
		n := readU16(c, f)
		s := string(c.Code[f.Ip : f.Ip+int(n)])
		f.Ip += int(n)
		return value.NewString(s), nil

	case bytecode.LiteralInterpolatedString:
		partCount := readU8(c, f)
		var sb strings.Builder
		for i := 0; i < int(partCount); i++ {
			if readU8(c, f) != 0 {
				sb.WriteString(stringify(v.pop()))
				continue
			}
			n := readU16(c, f)
			sb.WriteString(string(c.Code[f.Ip : f.Ip+int(n)]))
			f.Ip += int(n)
		}
		return value.NewString(sb.String()), nil

	case bytecode.LiteralIdentifier:
		idx := readU16(c, f)
		if int(idx) >= len(c.ConstStrings) {
			return nil, velaerrors.New(velaerrors.KindBytecode, "identifier constant index %d out of range", idx)
		}
		name := c.ConstStrings[idx]
		f.Set(frame.RegLocalSymbol, name)
		decl, err := f.Namespace.MemberGet(name, f.Namespace.FullName(), true)
		if err != nil {
			return nil, err
		}
		return decl.Value, nil

	case bytecode.LiteralGroup:
		lv, _ := f.Get(frame.RegLocalValue).(value.Value)
		if lv == nil {
			lv = value.Null
		}
		return lv, nil

	case bytecode.LiteralList:
		n := readU16(c, f)
		items := make([]value.Value, n)
		for i := int(n) - 1; i >= 0; i-- {
			items[i] = v.pop()
		}
		return value.NewList(items), nil

	case bytecode.LiteralStruct:
		n := readU16(c, f)
		s := object.NewStruct(v.Config.PrivatePrefix)
		for i := 0; i < int(n); i++ {
			if readU8(c, f) != 0 {
				// spread entry (`...expr`): merge another struct's fields in,
				// keeping whatever this literal already defined (§4.I,
				// scenario S6).
				other, ok := v.pop().(*object.Struct)
				if !ok {
					return nil, velaerrors.New(velaerrors.KindNotSpreadableObj, "struct literal spread target is not a struct")
				}
				s.Merge(other)
				continue
			}
			val := v.pop()
			key := v.pop()
			ks, ok := key.(*value.String)
			if !ok {
				return nil, velaerrors.New(velaerrors.KindTypeCast, "struct literal key must be a string")
			}
			if err := s.MemberSet(ks.V, val, true, true); err != nil {
				return nil, err
			}
		}
		return s, nil

	case bytecode.LiteralFunction:
		ip := readU16(c, f)
		flags := readU8(c, f)
		params, err := readParamList(c, f)
		if err != nil {
			return nil, err
		}
		return &function.Function{
			Closure: f.Namespace,
			Chunk:   c,
			Body:    &function.Body{Ip: int(ip)},
			IsAsync: flags&0x01 != 0,
			Params:  params,
		}, nil

	case bytecode.LiteralType:
		// type-literal encoding is resolved by the compiler's own type
		// table, which isn't modeled at the bytecode level; typeValueOf
		// callers fall back to runtime reflection over the operand instead.
		return value.Null, nil

	default:
		return nil, velaerrors.New(velaerrors.KindUnknownValueType, "unknown literal kind %d", kind)
	}
}

// readParamList decodes a function literal's declared parameter list: a
// count byte, then per parameter a name-constant index, a flags byte
// (optional/variadic/named/hasDefault), and a default-expression ip when
// hasDefault is set.
func readParamList(c *bytecode.Chunk, f *frame.Frame) ([]function.Param, error) {
	n := readU8(c, f)
	params := make([]function.Param, n)
	for i := range params {
		idx := readU16(c, f)
		if int(idx) >= len(c.ConstStrings) {
			return nil, velaerrors.New(velaerrors.KindBytecode, "parameter name constant index %d out of range", idx)
		}
		pflags := readU8(c, f)
		p := function.Param{
			Name:     c.ConstStrings[idx],
			Optional: pflags&0x01 != 0,
			Variadic: pflags&0x02 != 0,
			Named:    pflags&0x04 != 0,
		}
		if pflags&0x08 != 0 {
			p.HasDefault = true
			p.DefaultIp = int(readU16(c, f))
		}
		params[i] = p
	}
	return params, nil
}
