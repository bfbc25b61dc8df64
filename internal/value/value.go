// Package value implements the uniform value-encapsulation contract of
// §3/§4.B: every runtime value, host or script, can be viewed as an
// object supporting member/subscript access and a type tag.
package value

import (
	"math/big"

	velaerrors "github.com/velalang/vela/internal/errors"
)

// Kind tags the closed set of value categories named in §3.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindBigInt
	KindList
	KindMap
	KindSet
	KindIterator
	KindStruct
	KindInstance
	KindCast
	KindFunction
	KindType
	KindNamespace
	KindExternalClass
	KindExternalInstance
	KindExternalEnum
)

// Value is the encapsulation contract every value kind satisfies.
type Value interface {
	ValueKind() Kind
	MemberGet(id string, from string, isRecursive bool) (Value, error)
	MemberSet(id string, v Value, defineIfAbsent bool, isRecursive bool) error
	SubGet(key Value) (Value, error)
	SubSet(key Value, v Value) error
}

// Null is the singleton null value.
var Null Value = nullValue{}

type nullValue struct{}

func (nullValue) ValueKind() Kind { return KindNull }
func (nullValue) MemberGet(id, from string, rec bool) (Value, error) {
	return nil, velaerrors.New(velaerrors.KindVisitMemberOfNullObject, "cannot read %q of null", id)
}
func (nullValue) MemberSet(id string, v Value, defineIfAbsent, rec bool) error {
	return velaerrors.New(velaerrors.KindVisitMemberOfNullObject, "cannot set %q of null", id)
}
func (nullValue) SubGet(key Value) (Value, error) {
	return nil, velaerrors.New(velaerrors.KindSubGetKey, "cannot index null")
}
func (nullValue) SubSet(key, v Value) error {
	return velaerrors.New(velaerrors.KindNullSubSetKey, "cannot index-assign null")
}

// primitive is the base embedded in every host-primitive wrapper; member
// access on primitives always fails, subscript access is kind-specific.
type primitive struct{ kind Kind }

func (p primitive) ValueKind() Kind { return p.kind }
func (primitive) MemberGet(id, from string, rec bool) (Value, error) {
	return nil, velaerrors.New(velaerrors.KindUndefined, "undefined member %q", id)
}
func (primitive) MemberSet(id string, v Value, defineIfAbsent, rec bool) error {
	return velaerrors.New(velaerrors.KindUndefined, "undefined member %q", id)
}
func (primitive) SubGet(key Value) (Value, error) {
	return nil, velaerrors.New(velaerrors.KindSubGetKey, "value is not subscriptable")
}
func (primitive) SubSet(key, v Value) error {
	return velaerrors.New(velaerrors.KindSubGetKey, "value is not subscriptable")
}

type Bool struct {
	primitive
	V bool
}

func NewBool(v bool) *Bool { return &Bool{primitive{KindBool}, v} }

type Int struct {
	primitive
	V int64
}

func NewInt(v int64) *Int { return &Int{primitive{KindInt}, v} }

type Float struct {
	primitive
	V float64
}

func NewFloat(v float64) *Float { return &Float{primitive{KindFloat}, v} }

type BigInt struct {
	primitive
	V *big.Int
}

func NewBigInt(v *big.Int) *BigInt { return &BigInt{primitive{KindBigInt}, v} }

// String supports subscript access (integer index -> single-character
// String) per §4.H's "host list/map/string subscripts" note.
type String struct {
	primitive
	V string
}

func NewString(v string) *String { return &String{primitive{KindString}, v} }

func (s *String) SubGet(key Value) (Value, error) {
	i, ok := key.(*Int)
	if !ok {
		return nil, velaerrors.New(velaerrors.KindSubGetKey, "string index must be an integer")
	}
	runes := []rune(s.V)
	if i.V < 0 || i.V >= int64(len(runes)) {
		return nil, velaerrors.New(velaerrors.KindSubGetKey, "string index %d out of range", i.V)
	}
	return NewString(string(runes[i.V])), nil
}

// List is an ordered host sequence.
type List struct {
	primitive
	Items []Value
}

func NewList(items []Value) *List { return &List{primitive{KindList}, items} }

func (l *List) SubGet(key Value) (Value, error) {
	i, ok := key.(*Int)
	if !ok {
		return nil, velaerrors.New(velaerrors.KindSubGetKey, "list key must be an integer-valued number")
	}
	if i.V < 0 || i.V >= int64(len(l.Items)) {
		return nil, velaerrors.New(velaerrors.KindSubGetKey, "list index %d out of range", i.V)
	}
	return l.Items[i.V], nil
}

func (l *List) SubSet(key, v Value) error {
	i, ok := key.(*Int)
	if !ok {
		return velaerrors.New(velaerrors.KindSubGetKey, "list key must be an integer-valued number")
	}
	if i.V < 0 || i.V >= int64(len(l.Items)) {
		return velaerrors.New(velaerrors.KindSubGetKey, "list index %d out of range", i.V)
	}
	l.Items[i.V] = v
	return nil
}

func (l *List) MemberGet(id, from string, rec bool) (Value, error) {
	if id == "length" {
		return NewInt(int64(len(l.Items))), nil
	}
	return nil, velaerrors.New(velaerrors.KindUndefined, "undefined member %q", id)
}

// Map is a host key/value collection keyed by an arbitrary Value whose
// underlying Go value is comparable (bool/int/float/string).
type Map struct {
	primitive
	entries map[any]Value
	keys    map[any]Value
}

func NewMap() *Map {
	return &Map{primitive{KindMap}, make(map[any]Value), make(map[any]Value)}
}

func hashKey(v Value) (any, error) {
	switch k := v.(type) {
	case *Bool:
		return k.V, nil
	case *Int:
		return k.V, nil
	case *Float:
		return k.V, nil
	case *String:
		return k.V, nil
	default:
		return nil, velaerrors.New(velaerrors.KindSubGetKey, "unhashable map key")
	}
}

func (m *Map) SubGet(key Value) (Value, error) {
	hk, err := hashKey(key)
	if err != nil {
		return nil, err
	}
	v, ok := m.entries[hk]
	if !ok {
		return Null, nil
	}
	return v, nil
}

func (m *Map) SubSet(key, v Value) error {
	hk, err := hashKey(key)
	if err != nil {
		return err
	}
	m.entries[hk] = v
	m.keys[hk] = key
	return nil
}

func (m *Map) Len() int { return len(m.entries) }

// Each calls fn for every entry in insertion-unordered iteration (Go map
// order), used by stdlib iteration helpers.
func (m *Map) Each(fn func(k, v Value)) {
	for hk, v := range m.entries {
		fn(m.keys[hk], v)
	}
}

func (m *Map) MemberGet(id, from string, rec bool) (Value, error) {
	if id == "length" {
		return NewInt(int64(len(m.entries))), nil
	}
	return nil, velaerrors.New(velaerrors.KindUndefined, "undefined member %q", id)
}
