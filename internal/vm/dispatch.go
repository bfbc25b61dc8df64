package vm

import (
	"fmt"
	"strconv"

	"github.com/velalang/vela/internal/bytecode"
	velaerrors "github.com/velalang/vela/internal/errors"
	"github.com/velalang/vela/internal/frame"
	"github.com/velalang/vela/internal/function"
	"github.com/velalang/vela/internal/namespace"
	"github.com/velalang/vela/internal/object"
	"github.com/velalang/vela/internal/types"
	"github.com/velalang/vela/internal/value"
)

// regValue reads a register as a Value, defaulting an empty slot to Null
// rather than panicking on the untyped-nil the zero-valued register holds.
func regValue(f *frame.Frame, r frame.Register) value.Value {
	val, _ := f.Get(r).(value.Value)
	if val == nil {
		return value.Null
	}
	return val
}

func readU8(c *bytecode.Chunk, f *frame.Frame) byte {
	b := c.Code[f.Ip]
	f.Ip++
	return b
}

func readU16(c *bytecode.Chunk, f *frame.Frame) uint16 {
	v := c.ReadU16(f.Ip)
	f.Ip += 2
	return v
}

func readI16(c *bytecode.Chunk, f *frame.Frame) int16 {
	v := c.ReadI16(f.Ip)
	f.Ip += 2
	return v
}

// run is the single large decoder keyed on the next byte, per §4.H. It
// returns either a final value (top-level endOfCode/endOfFunc), a
// Suspension (an awaitedValue opcode observed an unresolved Future), or an
// error.
func (v *VM) run(c *bytecode.Chunk, f *frame.Frame) (value.Value, *Suspension, error) {
	for {
		if f.Ip >= len(c.Code) {
			return regValue(f, frame.RegLocalValue), nil, nil
		}
		op := bytecode.OpCode(readU8(c, f))

		switch op {

		// ---- Meta ----
		case bytecode.OpLineInfo:
			v.line = int(readU16(c, f))
			v.column = int(readU16(c, f))
		case bytecode.OpFile:
			sourceType := bytecode.SourceType(readU8(c, f))
			name, err := v.readConstStringOperand(c, f)
			if err != nil {
				return nil, nil, err
			}
			v.filename = name
			v.sourceType = sourceType
			fileNs := namespace.New(name, f.Namespace, v.Config.PrivatePrefix)
			f.Namespace = fileNs
			if v.currentModule != nil {
				v.currentModule.Namespaces[name] = fileNs
			}
		case bytecode.OpEndOfFile, bytecode.OpEndOfCodeBlock, bytecode.OpEndOfStmt, bytecode.OpEndOfExec:
			// no-op boundaries; the compiler emits them for debug/analysis
			// symmetry, the loop just keeps going.
		case bytecode.OpEndOfFunc, bytecode.OpEndOfModule, bytecode.OpEndOfCode:
			lv, _ := f.Get(frame.RegLocalValue).(value.Value)
			if lv == nil {
				lv = value.Null
			}
			return lv, nil, nil

		// ---- Register traffic ----
		case bytecode.OpLocal:
			val, err := v.decodeLocal(c, f)
			if err != nil {
				return nil, nil, err
			}
			f.Set(frame.RegLocalValue, val)
		case bytecode.OpRegister:
			idx := frame.Register(readU8(c, f))
			f.Set(idx, f.Get(frame.RegLocalValue))
		case bytecode.OpPushOperand:
			v.push(regValue(f, frame.RegLocalValue))
		case bytecode.OpCreateStackFrame:
			v.pushFrame(f.Namespace)
		case bytecode.OpRetractStackFrame:
			v.popFrame()

		// ---- Control flow ----
		case bytecode.OpSkip:
			f.Ip += int(readI16(c, f))
		case bytecode.OpGoto:
			f.Ip = int(readU16(c, f))
		case bytecode.OpAnchor:
			f.PushAnchor(f.Ip)
		case bytecode.OpClearAnchor:
			f.PopAnchor()
		case bytecode.OpLoopPoint:
			continueLen := readU16(c, f)
			breakLen := readU16(c, f)
			f.PushLoop(frame.LoopPoint{
				StartIp:    f.Ip,
				ContinueIp: f.Ip + int(continueLen),
				BreakIp:    f.Ip + int(continueLen) + int(breakLen),
				Namespace:  f.Namespace,
			})
		case bytecode.OpBreakLoop:
			lp, ok := f.PopLoop()
			if !ok {
				return nil, nil, velaerrors.New(velaerrors.KindUnknownOpCode, "break outside of loop")
			}
			f.Namespace = lp.Namespace
			f.Ip = lp.BreakIp
		case bytecode.OpContinueLoop:
			lp, ok := f.CurrentLoop()
			if !ok {
				return nil, nil, velaerrors.New(velaerrors.KindUnknownOpCode, "continue outside of loop")
			}
			f.Ip = lp.ContinueIp
		case bytecode.OpIfStmt:
			thenLen := readU16(c, f)
			cond := value.Truthy(regValue(f, frame.RegLocalValue), v.Config.Truthy)
			if !cond {
				f.Ip += int(thenLen)
			}
		case bytecode.OpWhileStmt, bytecode.OpDoStmt, bytecode.OpSwitchStmt:
			// compiler-emitted structural markers; the surrounding
			// skip/loopPoint/goto opcodes carry the actual control flow.

		// ---- Logic / arithmetic ----
		case bytecode.OpEqual, bytecode.OpNotEqual, bytecode.OpLesser, bytecode.OpGreater,
			bytecode.OpLesserOrEqual, bytecode.OpGreaterOrEqual:
			result, err := v.compare(op, f)
			if err != nil {
				return nil, nil, err
			}
			f.Set(frame.RegLocalValue, result)
		case bytecode.OpAdd, bytecode.OpSubtract, bytecode.OpMultiply, bytecode.OpDevide,
			bytecode.OpTruncatingDevide, bytecode.OpModulo:
			result, err := v.arith(op, f)
			if err != nil {
				return nil, nil, err
			}
			f.Set(frame.RegLocalValue, result)
		case bytecode.OpNegative:
			result, err := negate(regValue(f, frame.RegLocalValue))
			if err != nil {
				return nil, nil, err
			}
			f.Set(frame.RegLocalValue, result)
		case bytecode.OpLogicalNot:
			t := value.Truthy(regValue(f, frame.RegLocalValue), v.Config.Truthy)
			f.Set(frame.RegLocalValue, value.NewBool(!t))
		case bytecode.OpLogicalOr:
			skipLen := readU16(c, f)
			left := regValue(f, frame.RegOrLeft)
			if value.Truthy(left, v.Config.Truthy) {
				f.Ip += int(skipLen)
				f.Set(frame.RegLocalValue, left)
			}
		case bytecode.OpLogicalAnd:
			skipLen := readU16(c, f)
			left := regValue(f, frame.RegAndLeft)
			if !value.Truthy(left, v.Config.Truthy) {
				f.Ip += int(skipLen)
				f.Set(frame.RegLocalValue, left)
			}
		case bytecode.OpIfNull:
			skipLen := readU16(c, f)
			left := regValue(f, frame.RegIfNullLeft)
			if left != value.Null {
				f.Ip += int(skipLen)
				f.Set(frame.RegLocalValue, left)
			}

		// ---- Bitwise ----
		case bytecode.OpBitwiseNot:
			i, ok := regValue(f, frame.RegLocalValue).(*value.Int)
			if !ok {
				return nil, nil, velaerrors.New(velaerrors.KindTypeCast, "bitwise not requires an int")
			}
			f.Set(frame.RegLocalValue, value.NewInt(^i.V))
		case bytecode.OpBitwiseOr, bytecode.OpBitwiseXor, bytecode.OpBitwiseAnd,
			bytecode.OpLeftShift, bytecode.OpRightShift, bytecode.OpUnsignedRightShift:
			result, err := v.bitwise(op, f)
			if err != nil {
				return nil, nil, err
			}
			f.Set(frame.RegLocalValue, result)

		// ---- Type ops ----
		case bytecode.OpTypeAs:
			name, err := v.readConstStringOperand(c, f)
			if err != nil {
				return nil, nil, err
			}
			class, err := v.resolveClass(f, name)
			if err != nil {
				return nil, nil, err
			}
			cast, err := object.NewCast(regValue(f, frame.RegLocalValue), class)
			if err != nil {
				return nil, nil, err
			}
			f.Set(frame.RegLocalValue, cast)
		case bytecode.OpTypeIs, bytecode.OpTypeIsNot:
			name, err := v.readConstStringOperand(c, f)
			if err != nil {
				return nil, nil, err
			}
			target, err := v.resolveNamedType(f, name)
			if err != nil {
				return nil, nil, err
			}
			result := types.IsA(v.runtimeType(regValue(f, frame.RegLocalValue)), target)
			if op == bytecode.OpTypeIsNot {
				result = !result
			}
			f.Set(frame.RegLocalValue, value.NewBool(result))
		case bytecode.OpTypeValueOf:
			f.Set(frame.RegLocalValue, typeValue{t: v.runtimeType(regValue(f, frame.RegLocalValue))})
		case bytecode.OpDecltypeOf:
			name, _ := f.Get(frame.RegLocalSymbol).(string)
			var t types.Type
			if name != "" {
				if decl, err := f.Namespace.MemberGet(name, f.Namespace.FullName(), true); err == nil && decl.DeclaredType != nil {
					t = decl.DeclaredType
				}
			}
			if t == nil {
				t = v.runtimeType(regValue(f, frame.RegLocalValue))
			}
			f.Set(frame.RegLocalValue, typeValue{t: t})

		// ---- Member access ----
		case bytecode.OpMemberGet:
			isNullable, err := boolFlag(c, f)
			if err != nil {
				return nil, nil, err
			}
			key, err := v.readConstStringOperand(c, f)
			if err != nil {
				return nil, nil, err
			}
			obj := regValue(f, frame.RegPostfixObject)
			if obj == value.Null {
				if isNullable {
					f.Set(frame.RegLocalValue, value.Null)
					break
				}
				return nil, nil, velaerrors.New(velaerrors.KindVisitMemberOfNullObject, "cannot read %q of null", key)
			}
			result, err := obj.MemberGet(key, f.Namespace.FullName(), true)
			if err != nil {
				return nil, nil, err
			}
			f.Set(frame.RegLocalValue, result)
		case bytecode.OpMemberSet:
			key, err := v.readConstStringOperand(c, f)
			if err != nil {
				return nil, nil, err
			}
			obj := regValue(f, frame.RegPostfixObject)
			rhs := regValue(f, frame.RegAssignRight)
			if obj == value.Null {
				return nil, nil, velaerrors.New(velaerrors.KindVisitMemberOfNullObject, "cannot set %q of null", key)
			}
			if err := obj.MemberSet(key, rhs, true, true); err != nil {
				return nil, nil, err
			}
			f.Set(frame.RegLocalValue, rhs)
		case bytecode.OpSubGet:
			obj := regValue(f, frame.RegPostfixObject)
			key := regValue(f, frame.RegLocalValue)
			if obj == value.Null {
				return nil, nil, velaerrors.New(velaerrors.KindVisitMemberOfNullObject, "cannot index null")
			}
			result, err := obj.SubGet(key)
			if err != nil {
				return nil, nil, err
			}
			f.Set(frame.RegLocalValue, result)
		case bytecode.OpSubSet:
			obj := regValue(f, frame.RegPostfixObject)
			key := regValue(f, frame.RegPostfixKey)
			rhs := regValue(f, frame.RegAssignRight)
			if obj == value.Null {
				return nil, nil, velaerrors.New(velaerrors.KindNullSubSetKey, "cannot index-assign null")
			}
			if err := obj.SubSet(key, rhs); err != nil {
				return nil, nil, err
			}
			f.Set(frame.RegLocalValue, rhs)

		// ---- Declarations ----
		case bytecode.OpVarDecl, bytecode.OpConstDecl:
			name, err := v.readConstStringOperand(c, f)
			if err != nil {
				return nil, nil, err
			}
			val := regValue(f, frame.RegLocalValue)
			if len(v.classStack) > 0 {
				cls := v.classStack[len(v.classStack)-1]
				cls.FieldDefs = append(cls.FieldDefs, object.FieldDef{
					Name:      name,
					IsPrivate: f.Namespace.IsPrivateID(name),
					Default:   val,
				})
				break
			}
			decl := &namespace.Declaration{ID: name, Kind: namespace.DeclVariable, Mutable: op == bytecode.OpVarDecl, Value: val}
			if err := f.Namespace.Define(name, decl, false); err != nil {
				return nil, nil, err
			}

		case bytecode.OpFuncDecl:
			name, err := v.readConstStringOperand(c, f)
			if err != nil {
				return nil, nil, err
			}
			flags := readU8(c, f)
			isStatic := flags&0x01 != 0
			isCtor := flags&0x02 != 0
			isAbstract := flags&0x04 != 0
			fn, ok := regValue(f, frame.RegLocalValue).(*function.Function)
			if !ok {
				return nil, nil, velaerrors.New(velaerrors.KindUnknownValueType, "funcDecl without a function value")
			}
			fn.Name = name
			fn.IsStatic = isStatic
			fn.IsAbstract = isAbstract
			if len(v.classStack) > 0 {
				cls := v.classStack[len(v.classStack)-1]
				fn.ClassID = cls.ID
				if isCtor {
					cls.Constructors[name] = fn
					cls.HasUserConstructor = true
				} else {
					cls.Methods[name] = fn
				}
				break
			}
			decl := &namespace.Declaration{ID: name, Kind: namespace.DeclFunction, Value: fn}
			if err := f.Namespace.Define(name, decl, false); err != nil {
				return nil, nil, err
			}
			v.RegisterFunction(fn)

		case bytecode.OpClassDecl:
			name, err := v.readConstStringOperand(c, f)
			if err != nil {
				return nil, nil, err
			}
			flags := readU8(c, f)
			isAbstract := flags&0x01 != 0
			isExternal := flags&0x02 != 0
			var super *object.Class
			if readU8(c, f) != 0 {
				superName, err := v.readConstStringOperand(c, f)
				if err != nil {
					return nil, nil, err
				}
				super, err = v.resolveClass(f, superName)
				if err != nil {
					return nil, nil, err
				}
			}
			implCount := readU8(c, f)
			implements := make([]string, implCount)
			for i := range implements {
				implements[i], err = v.readConstStringOperand(c, f)
				if err != nil {
					return nil, nil, err
				}
			}
			cls := object.NewClass(name, super, v.Config.PrivatePrefix)
			cls.IsAbstract = isAbstract
			cls.IsExternal = isExternal
			cls.Implements_ = implements
			v.classStack = append(v.classStack, cls)

		case bytecode.OpClassDeclEnd:
			if len(v.classStack) == 0 {
				return nil, nil, velaerrors.New(velaerrors.KindUnknownOpCode, "classDeclEnd without matching classDecl")
			}
			cls := v.classStack[len(v.classStack)-1]
			v.classStack = v.classStack[:len(v.classStack)-1]
			cls.EnsureDefaultConstructor()
			decl := &namespace.Declaration{ID: cls.ID, Kind: namespace.DeclClass, Value: cls}
			if err := f.Namespace.Define(cls.ID, decl, false); err != nil {
				return nil, nil, err
			}
			v.RegisterClass(cls)
			f.Set(frame.RegLocalValue, cls)

		case bytecode.OpStructDecl:
			name, err := v.readConstStringOperand(c, f)
			if err != nil {
				return nil, nil, err
			}
			val := regValue(f, frame.RegLocalValue)
			decl := &namespace.Declaration{ID: name, Kind: namespace.DeclStruct, Value: val}
			if err := f.Namespace.Define(name, decl, false); err != nil {
				return nil, nil, err
			}

		case bytecode.OpNamespaceDecl:
			name, err := v.readConstStringOperand(c, f)
			if err != nil {
				return nil, nil, err
			}
			child := namespace.New(name, f.Namespace, v.Config.PrivatePrefix)
			v.namespaceStack = append(v.namespaceStack, f.Namespace)
			f.Namespace = child

		case bytecode.OpNamespaceDeclEnd:
			if len(v.namespaceStack) == 0 {
				return nil, nil, velaerrors.New(velaerrors.KindUnknownOpCode, "namespaceDeclEnd without matching namespaceDecl")
			}
			child := f.Namespace
			parent := v.namespaceStack[len(v.namespaceStack)-1]
			v.namespaceStack = v.namespaceStack[:len(v.namespaceStack)-1]
			parent.Import(child, child.WillExportAll(), nil)
			f.Namespace = parent

		case bytecode.OpImportExportDecl:
			kind := readU8(c, f)
			switch kind {
			case 0: // import
				fromPath, err := v.readConstStringOperand(c, f)
				if err != nil {
					return nil, nil, err
				}
				alias, _, err := v.readOptionalConstString(c, f)
				if err != nil {
					return nil, nil, err
				}
				isExported, err := boolFlag(c, f)
				if err != nil {
					return nil, nil, err
				}
				isPreloaded, err := boolFlag(c, f)
				if err != nil {
					return nil, nil, err
				}
				showCount := readU8(c, f)
				show := make([]string, showCount)
				for i := range show {
					show[i], err = v.readConstStringOperand(c, f)
					if err != nil {
						return nil, nil, err
					}
				}
				f.Namespace.DeclareImport(&namespace.UnresolvedImport{
					FromPath:    fromPath,
					Alias:       alias,
					ShowList:    show,
					IsExported:  isExported,
					IsPreloaded: isPreloaded,
				})
			case 1: // export
				name, err := v.readConstStringOperand(c, f)
				if err != nil {
					return nil, nil, err
				}
				f.Namespace.DeclareExport(name)
			case 2: // export *
				f.Namespace.SetWillExportAll(true)
			default:
				return nil, nil, velaerrors.New(velaerrors.KindBytecode, "unknown importExportDecl kind %d", kind)
			}

		case bytecode.OpTypeAliasDecl:
			name, err := v.readConstStringOperand(c, f)
			if err != nil {
				return nil, nil, err
			}
			targetName, err := v.readConstStringOperand(c, f)
			if err != nil {
				return nil, nil, err
			}
			target, err := v.resolveNamedType(f, targetName)
			if err != nil {
				return nil, nil, err
			}
			decl := &namespace.Declaration{ID: name, Kind: namespace.DeclTypeAlias, DeclaredType: target, Value: value.Null}
			if err := f.Namespace.Define(name, decl, false); err != nil {
				return nil, nil, err
			}

		case bytecode.OpExternalEnumDecl:
			name, err := v.readConstStringOperand(c, f)
			if err != nil {
				return nil, nil, err
			}
			n := readU16(c, f)
			memberNames := make([]string, n)
			for i := range memberNames {
				memberNames[i], err = v.readConstStringOperand(c, f)
				if err != nil {
					return nil, nil, err
				}
			}
			members := make([]value.Value, n)
			for i := int(n) - 1; i >= 0; i-- {
				members[i] = v.pop()
			}
			cls := object.NewClass(name, nil, v.Config.PrivatePrefix)
			cls.IsExternal = true
			cls.IsEnum = true
			for i, mn := range memberNames {
				cls.StaticVars[mn] = members[i]
			}
			decl := &namespace.Declaration{ID: name, Kind: namespace.DeclExternalClass, Value: cls}
			if err := f.Namespace.Define(name, decl, false); err != nil {
				return nil, nil, err
			}
			v.RegisterClass(cls)

		case bytecode.OpDestructuringDecl:
			kind := readU8(c, f)
			n := readU16(c, f)
			names := make([]string, n)
			for i := range names {
				name, err := v.readConstStringOperand(c, f)
				if err != nil {
					return nil, nil, err
				}
				names[i] = name
			}
			src := regValue(f, frame.RegLocalValue)
			for i, name := range names {
				var item value.Value
				var ierr error
				if kind == 0 {
					item, ierr = src.SubGet(value.NewInt(int64(i)))
				} else {
					item, ierr = src.MemberGet(name, f.Namespace.FullName(), true)
				}
				if ierr != nil {
					return nil, nil, ierr
				}
				decl := &namespace.Declaration{ID: name, Kind: namespace.DeclVariable, Mutable: true, Value: item}
				if err := f.Namespace.Define(name, decl, false); err != nil {
					return nil, nil, err
				}
			}

		// ---- Assertions & errors ----
		case bytecode.OpAssertion:
			ok := value.Truthy(regValue(f, frame.RegLocalValue), v.Config.Truthy)
			if !ok {
				return nil, nil, velaerrors.New(velaerrors.KindAssertionFailed, "assertion failed").WithLocation(v.filename, v.line, v.column)
			}
		case bytecode.OpThrows:
			operand := regValue(f, frame.RegLocalValue)
			return nil, nil, velaerrors.New(velaerrors.KindScriptThrows, "%s", stringify(operand)).WithLocation(v.filename, v.line, v.column)
		case bytecode.OpDelete:
			name, err := v.readConstStringOperand(c, f)
			if err != nil {
				return nil, nil, err
			}
			if err := f.Namespace.Delete(name); err != nil {
				return nil, nil, err
			}

		// ---- Assignment ----
		case bytecode.OpAssign:
			name, err := v.readConstStringOperand(c, f)
			if err != nil {
				return nil, nil, err
			}
			rhs := regValue(f, frame.RegAssignRight)
			if err := f.Namespace.MemberSet(name, rhs, v.Config.Implicit.AllowImplicitDeclaration, true); err != nil {
				return nil, nil, err
			}
			f.Set(frame.RegLocalValue, rhs)

		// ---- Call ----
		case bytecode.OpCall:
			result, susp, err := v.dispatchCall(c, f)
			if err != nil {
				return nil, nil, err
			}
			if susp != nil {
				return nil, susp, nil
			}
			f.Set(frame.RegLocalValue, result)

		// ---- Async bridge ----
		case bytecode.OpAwaitedValue:
			candidate := regValue(f, frame.RegLocalValue)
			if fut, ok := candidate.(futureValue); ok {
				result, ferr, ready := fut.f.Poll()
				if ready {
					if ferr != nil {
						return nil, nil, velaerrors.New(velaerrors.KindExtern, "%v", ferr)
					}
					f.Set(frame.RegLocalValue, result)
					continue
				}
				return nil, &Suspension{
					Future: fut.f,
					Ctx:    &suspendContext{chunk: c, filename: v.filename, line: v.line, column: v.column, ns: f.Namespace},
					Frame:  f,
				}, nil
			}
			// not a future: awaiting a plain value yields it unchanged.

		default:
			return nil, nil, velaerrors.New(velaerrors.KindUnknownOpCode, "unknown opcode %s", op)
		}
	}
}

func boolFlag(c *bytecode.Chunk, f *frame.Frame) (bool, error) {
	return readU8(c, f) != 0, nil
}

// readConstStringOperand reads the u16 string-constant index member/assign/
// declaration opcodes carry their target name as, per §4.H. A sentinel of
// 0xFFFF instead reads the name out of localSymbol, the path a computed
// member access (`obj[expr]`-style dynamic member names) leaves it in.
func (v *VM) readConstStringOperand(c *bytecode.Chunk, f *frame.Frame) (string, error) {
	idx := readU16(c, f)
	if idx == 0xFFFF {
		sym, _ := f.Get(frame.RegLocalSymbol).(string)
		return sym, nil
	}
	if int(idx) >= len(c.ConstStrings) {
		return "", velaerrors.New(velaerrors.KindBytecode, "string constant index %d out of range", idx)
	}
	return c.ConstStrings[idx], nil
}

// readOptionalConstString reads a u16 string-constant index where 0xFFFF
// means the operand is genuinely absent (e.g. importDecl's optional
// alias) -- unlike readConstStringOperand's
// sentinel, which falls back to localSymbol for computed member names.
func (v *VM) readOptionalConstString(c *bytecode.Chunk, f *frame.Frame) (string, bool, error) {
	idx := readU16(c, f)
	if idx == 0xFFFF {
		return "", false, nil
	}
	if int(idx) >= len(c.ConstStrings) {
		return "", false, velaerrors.New(velaerrors.KindBytecode, "string constant index %d out of range", idx)
	}
	return c.ConstStrings[idx], true, nil
}

// resolveClass looks up name in f.Namespace and requires it to name a
// declared class, what `as`, `is`, classDecl's superclass, and typeAliasDecl
// all need.
func (v *VM) resolveClass(f *frame.Frame, name string) (*object.Class, error) {
	decl, err := f.Namespace.MemberGet(name, f.Namespace.FullName(), true)
	if err != nil {
		return nil, err
	}
	class, ok := decl.Value.(*object.Class)
	if !ok {
		return nil, velaerrors.New(velaerrors.KindTypeCast, "%q does not name a class", name)
	}
	return class, nil
}

// resolveNamedType maps a type op's operand name to the Type it names:
// one of the primitive intrinsics, or a nominal type resolved against a
// declared class.
func (v *VM) resolveNamedType(f *frame.Frame, name string) (types.Type, error) {
	switch types.Intrinsic(name) {
	case types.Any, types.Unknown, types.Void, types.Never, types.TypeType,
		types.Function, types.Namespace, types.NullType,
		types.IntT, types.FloatT, types.StringT, types.BoolT:
		return types.IntrinsicType{Name: types.Intrinsic(name)}, nil
	}
	class, err := v.resolveClass(f, name)
	if err != nil {
		return nil, err
	}
	return types.NominalType{ID: class.ID, Resolved: class}, nil
}

// runtimeType classifies a runtime value for `is`/`valueOf`/`decltypeOf`
// when no declared type is on file: instances get their class's nominal
// type, everything else gets the matching primitive intrinsic.
func (v *VM) runtimeType(val value.Value) types.Type {
	switch t := val.(type) {
	case *object.Instance:
		return types.NominalType{ID: t.Class.ID, Resolved: t.Class}
	case *object.Cast:
		return types.NominalType{ID: t.At.ID, Resolved: t.At}
	case *value.Int:
		return types.IntrinsicType{Name: types.IntT}
	case *value.Float:
		return types.IntrinsicType{Name: types.FloatT}
	case *value.String:
		return types.IntrinsicType{Name: types.StringT}
	case *value.Bool:
		return types.IntrinsicType{Name: types.BoolT}
	case *function.Function:
		return types.IntrinsicType{Name: types.Function}
	}
	if val == value.Null {
		return types.IntrinsicType{Name: types.NullType}
	}
	return types.IntrinsicType{Name: types.Unknown}
}

// typeValue wraps a resolved types.Type so it can travel through the
// register bank like any other value -- what typeOf/decltypeOf produce,
// and the receiver a `.isA(other)` call checks against.
type typeValue struct{ t types.Type }

func (typeValue) ValueKind() value.Kind { return value.KindType }

func (tv typeValue) MemberGet(id, from string, rec bool) (value.Value, error) {
	if id != "isA" {
		return nil, velaerrors.New(velaerrors.KindUndefined, "undefined member %q on type", id)
	}
	return &function.Function{
		Name:       "isA",
		IsExternal: true,
		Host: func(positional []value.Value, named map[string]value.Value) (value.Value, error) {
			if len(positional) != 1 {
				return nil, velaerrors.New(velaerrors.KindExtraPositionalArg, "isA expects exactly one argument")
			}
			other, ok := positional[0].(typeValue)
			if !ok {
				return nil, velaerrors.New(velaerrors.KindTypeCast, "isA argument must be a type")
			}
			return value.NewBool(types.IsA(tv.t, other.t)), nil
		},
	}, nil
}
func (typeValue) MemberSet(id string, v value.Value, defineIfAbsent, rec bool) error {
	return velaerrors.New(velaerrors.KindUndefined, "undefined member %q on type", id)
}
func (typeValue) SubGet(key value.Value) (value.Value, error) {
	return nil, velaerrors.New(velaerrors.KindSubGetKey, "type is not subscriptable")
}
func (typeValue) SubSet(key, v value.Value) error {
	return velaerrors.New(velaerrors.KindSubGetKey, "type is not subscriptable")
}

// dispatchCall implements the callable-kind dispatch of §4.H's Call group:
// the flags byte selects `new` vs plain call, a nullable-receiver guard, a
// callee resolved by name instead of localValue, named arguments, and a
// single trailing spread argument.
func (v *VM) dispatchCall(c *bytecode.Chunk, f *frame.Frame) (value.Value, *Suspension, error) {
	flags := readU8(c, f)
	hasNew := flags&0x01 != 0
	nullable := flags&0x02 != 0
	hasNamed := flags&0x04 != 0
	hasSpread := flags&0x08 != 0
	hasCalleeId := flags&0x10 != 0

	var callee value.Value
	if hasCalleeId {
		name, err := v.readConstStringOperand(c, f)
		if err != nil {
			return nil, nil, err
		}
		decl, err := f.Namespace.MemberGet(name, f.Namespace.FullName(), true)
		if err != nil {
			return nil, nil, err
		}
		callee = decl.Value
	} else {
		callee = regValue(f, frame.RegLocalValue)
	}

	positionalCount := int(readU8(c, f))
	var names []string
	namedCount := 0
	if hasNamed {
		namedCount = int(readU8(c, f))
		names = make([]string, namedCount)
		for i := range names {
			n, err := v.readConstStringOperand(c, f)
			if err != nil {
				return nil, nil, err
			}
			names[i] = n
		}
	}

	buf := make([]value.Value, positionalCount+namedCount)
	for i := len(buf) - 1; i >= 0; i-- {
		buf[i] = v.pop()
	}
	args := buf[:positionalCount]
	var named map[string]value.Value
	if namedCount > 0 {
		named = make(map[string]value.Value, namedCount)
		for i, n := range names {
			named[n] = buf[positionalCount+i]
		}
	}

	if hasSpread {
		if len(args) == 0 {
			return nil, nil, velaerrors.New(velaerrors.KindNotSpreadableObj, "spread call has no trailing argument")
		}
		spreadable, ok := args[len(args)-1].(*value.List)
		if !ok {
			return nil, nil, velaerrors.New(velaerrors.KindNotSpreadableObj, "spread argument is not a list")
		}
		flattened := append([]value.Value{}, args[:len(args)-1]...)
		args = append(flattened, spreadable.Items...)
	}

	if callee == value.Null {
		if nullable {
			return value.Null, nil, nil
		}
		return nil, nil, velaerrors.New(velaerrors.KindCallNullObject, "cannot call null")
	}

	if hasNew {
		switch t := callee.(type) {
		case *object.Class:
			inst, err := object.New(t, "", args, named, v)
			return inst, nil, err
		case *object.Struct:
			clone := t.Clone(true)
			if ctorVal, err := clone.MemberGet(object.InternalPrefix+"ctor", "", true); err == nil {
				if ctorFn, ok := ctorVal.(*function.Function); ok {
					if _, err := ctorFn.Bind(clone).Call(args, named, v); err != nil {
						return nil, nil, err
					}
				}
			}
			return clone, nil, nil
		default:
			return nil, nil, velaerrors.New(velaerrors.KindNotNewable, "value is not newable")
		}
	}

	fn, ok := callee.(*function.Function)
	if !ok {
		return nil, nil, velaerrors.New(velaerrors.KindNotCallable, "value is not callable")
	}
	if fn.IsAsync {
		return WrapFuture(v.spawnAsyncCall(fn, args, named)), nil, nil
	}
	result, err := fn.Call(args, named, v)
	return result, nil, err
}

// futureValue wraps a host Future so it can travel through the register
// bank like any other value; stdlib bindings that return an async result
// produce one of these instead of a bare value.Value.
type futureValue struct{ f Future }

func (futureValue) ValueKind() value.Kind { return value.KindExternalInstance }
func (futureValue) MemberGet(id, from string, rec bool) (value.Value, error) {
	return nil, velaerrors.New(velaerrors.KindUndefined, "undefined member %q on future", id)
}
func (futureValue) MemberSet(id string, v value.Value, defineIfAbsent, rec bool) error {
	return velaerrors.New(velaerrors.KindUndefined, "undefined member %q on future", id)
}
func (futureValue) SubGet(key value.Value) (value.Value, error) {
	return nil, velaerrors.New(velaerrors.KindSubGetKey, "future is not subscriptable")
}
func (futureValue) SubSet(key, v value.Value) error {
	return velaerrors.New(velaerrors.KindSubGetKey, "future is not subscriptable")
}

func stringify(v value.Value) string {
	if v == value.Null {
		return "null"
	}
	switch t := v.(type) {
	case *value.String:
		return t.V
	case *value.Int:
		return strconv.FormatInt(t.V, 10)
	case *value.Float:
		return strconv.FormatFloat(t.V, 'g', -1, 64)
	case *value.Bool:
		return strconv.FormatBool(t.V)
	case nil:
		return "null"
	default:
		_ = t
		return fmt.Sprintf("%v", v)
	}
}
