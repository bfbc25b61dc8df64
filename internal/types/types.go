// Package types implements the four Type variants of §3 (intrinsic,
// nominal, function, structural) and the IsA subtype relation.
package types

// Intrinsic names the built-in, non-nominal type constants.
type Intrinsic string

const (
	Any       Intrinsic = "any"
	Unknown   Intrinsic = "unknown"
	Void      Intrinsic = "void"
	Never     Intrinsic = "never"
	TypeType  Intrinsic = "type"
	Function  Intrinsic = "function"
	Namespace Intrinsic = "namespace"
	NullType  Intrinsic = "null"

	// IntT/FloatT/StringT/BoolT name the primitive runtime kinds so `is`/
	// `valueOf` can classify a bare int/float/string/bool the same way
	// nominal types classify instances -- the reference value.Kind enum
	// has no Type counterpart otherwise.
	IntT    Intrinsic = "int"
	FloatT  Intrinsic = "float"
	StringT Intrinsic = "string"
	BoolT   Intrinsic = "bool"
)

// ClassLike is the minimal surface IsA needs from a nominal class's
// resolved ancestry, satisfied by *object.Class without this package
// importing that one (avoids an import cycle: object depends on types).
type ClassLike interface {
	ClassID() string
	SuperClass() ClassLike
	Implements() []string
}

// Type is one of Intrinsic / Nominal / FunctionType / Structural.
type Type interface {
	isType()
	String() string
}

type IntrinsicType struct{ Name Intrinsic }

func (IntrinsicType) isType()          {}
func (t IntrinsicType) String() string { return string(t.Name) }

// NominalType names a declared class, optionally generic and/or nullable.
type NominalType struct {
	ID         string
	TypeArgs   []Type
	IsNullable bool
	Resolved   ClassLike
}

func (NominalType) isType() {}
func (t NominalType) String() string {
	s := t.ID
	if t.IsNullable {
		s += "?"
	}
	return s
}

// FunctionType models a callable's parameter/return shape.
type FunctionType struct {
	ParameterTypes []Type
	ReturnType     Type
}

func (FunctionType) isType()     {}
func (FunctionType) String() string { return "function" }

// StructuralType is an ordered set of required field types, matched
// structurally rather than by class identity.
type StructuralType struct {
	FieldTypes map[string]Type
	Order      []string
}

func (StructuralType) isType()     {}
func (StructuralType) String() string { return "struct" }

// IsA implements the subtyping rules of §3: any is top; never is bottom;
// nominal uses the class chain; function is contravariant on parameters
// and covariant on return; structural holds iff every required field on
// the right is satisfied by a matching field on the left.
func IsA(left, right Type) bool {
	if ri, ok := right.(IntrinsicType); ok && ri.Name == Any {
		return true
	}
	if li, ok := left.(IntrinsicType); ok && li.Name == Never {
		return true
	}
	switch r := right.(type) {
	case IntrinsicType:
		if l, ok := left.(IntrinsicType); ok {
			return l.Name == r.Name
		}
		return false
	case NominalType:
		l, ok := left.(NominalType)
		if !ok || l.Resolved == nil || r.Resolved == nil {
			return false
		}
		return classIsA(l.Resolved, r.ID) || implementsInterface(l.Resolved, r.ID)
	case FunctionType:
		l, ok := left.(FunctionType)
		if !ok || len(l.ParameterTypes) != len(r.ParameterTypes) {
			return false
		}
		for i := range l.ParameterTypes {
			// contravariant: right's param must be assignable to left's
			if !IsA(r.ParameterTypes[i], l.ParameterTypes[i]) {
				return false
			}
		}
		return IsA(l.ReturnType, r.ReturnType)
	case StructuralType:
		l, ok := left.(StructuralType)
		if !ok {
			return false
		}
		for id, rt := range r.FieldTypes {
			lt, present := l.FieldTypes[id]
			if !present || !IsA(lt, rt) {
				return false
			}
		}
		return true
	}
	return false
}

func classIsA(c ClassLike, targetID string) bool {
	for cur := c; cur != nil; cur = cur.SuperClass() {
		if cur.ClassID() == targetID {
			return true
		}
	}
	return false
}

func implementsInterface(c ClassLike, targetID string) bool {
	for cur := c; cur != nil; cur = cur.SuperClass() {
		for _, name := range cur.Implements() {
			if name == targetID {
				return true
			}
		}
	}
	return false
}
