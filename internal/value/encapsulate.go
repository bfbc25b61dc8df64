package value

import "github.com/velalang/vela/internal/config"

// Reflector converts an arbitrary host value into a Value when no built-in
// mapping applies, in registration order, per §4.B ("registered external
// type reflectors").
type Reflector func(x any) (Value, bool)

// Encapsulate implements §4.B's encapsulate(x): nil maps to Null; a value
// already satisfying the contract passes through unchanged; known host
// primitives/collections map to their wrapper kinds; otherwise registered
// reflectors are tried in order.
func Encapsulate(x any, reflectors []Reflector) Value {
	if x == nil {
		return Null
	}
	if v, ok := x.(Value); ok {
		return v
	}
	switch t := x.(type) {
	case bool:
		return NewBool(t)
	case int:
		return NewInt(int64(t))
	case int64:
		return NewInt(t)
	case float64:
		return NewFloat(t)
	case string:
		return NewString(t)
	case []Value:
		return NewList(t)
	}
	for _, r := range reflectors {
		if v, ok := r(x); ok {
			return v
		}
	}
	return Null
}

// Truthy implements the configurable coercion policy of §4.B.
func Truthy(v Value, policy config.TruthyPolicy) bool {
	b, isBool := v.(*Bool)
	if policy == config.TruthyStrict {
		return isBool && b.V
	}
	// Lenient: 0, "", empty list/map, the literal 'false', and null are
	// all falsy in addition to boolean false.
	switch t := v.(type) {
	case nil:
		return false
	case *Bool:
		return t.V
	case *Int:
		return t.V != 0
	case *Float:
		return t.V != 0
	case *String:
		return t.V != "" && t.V != "false"
	case *List:
		return len(t.Items) != 0
	case *Map:
		return t.Len() != 0
	}
	if v == Null {
		return false
	}
	return true
}
