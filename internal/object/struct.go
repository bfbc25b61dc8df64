// Package object implements the prototype-based Struct and the nominal
// Class/Instance/Cast triad of §3/§4.D/§4.E.
package object

import (
	"github.com/google/uuid"

	velaerrors "github.com/velalang/vela/internal/errors"
	"github.com/velalang/vela/internal/function"
	"github.com/velalang/vela/internal/namespace"
	"github.com/velalang/vela/internal/value"
)

// nextID assigns every struct (including anonymous struct literals) a
// process-wide-unique identity, the same way a freshly inserted record
// gets a synthesized key in a keyed store.
func nextID() string {
	return uuid.NewString()
}

// InternalPrefix marks a field id as internal to the struct's own
// bookkeeping; clone/assign/merge/keys/values/length/isEmpty all skip ids
// with this prefix per §4.D.
const InternalPrefix = "$"

// PrototypeSentinel is the synthetic key memberGet/memberSet special-case
// to read or replace a struct's prototype link.
const PrototypeSentinel = "prototype"

// Struct is the dynamic prototype object of §3/§4.D.
type Struct struct {
	ID        string
	Prototype *Struct
	Fields    *orderedFields
	Namespace *namespace.Namespace
}

func NewStruct(privatePrefix string) *Struct {
	s := &Struct{ID: nextID(), Fields: newOrderedFields()}
	s.Namespace = namespace.New("struct", nil, privatePrefix)
	s.Namespace.Define("this", &namespace.Declaration{ID: "this", Value: s}, true)
	return s
}

func (s *Struct) ValueKind() value.Kind { return value.KindStruct }

// MemberGet implements the lookup order of §4.D: own field, own getter
// (get$id), own constructor ($ctor$id or default), then prototype
// delegation with caller threaded through so bound methods keep `this`
// pointed at the original receiver.
func (s *Struct) MemberGet(id, from string, isRecursive bool) (value.Value, error) {
	return s.memberGetWithCaller(id, from, s)
}

func (s *Struct) memberGetWithCaller(id, from string, caller value.Value) (value.Value, error) {
	if id == PrototypeSentinel {
		if s.Prototype == nil {
			return value.Null, nil
		}
		return s.Prototype, nil
	}
	if v, ok := s.Fields.get(id); ok {
		if fn, ok := v.(*function.Function); ok {
			return fn.Bind(caller), nil
		}
		return v, nil
	}
	if getter, ok := s.Fields.get("get$" + id); ok {
		if fn, ok := getter.(*function.Function); ok {
			return fn.Bind(caller).Call(nil, nil, nil)
		}
	}
	if ctor, ok := s.Fields.get("$ctor$" + id); ok {
		return ctor, nil
	}
	if s.Prototype != nil {
		return s.Prototype.memberGetWithCaller(id, from, caller)
	}
	return nil, velaerrors.New(velaerrors.KindUndefined, "undefined: %q", id)
}

// MemberSet mirrors MemberGet: own field, else a setter invocation, else
// define-if-absent on this struct. Writing the prototype sentinel replaces
// the delegation chain.
func (s *Struct) MemberSet(id string, v value.Value, defineIfAbsent, isRecursive bool) error {
	if id == PrototypeSentinel {
		proto, ok := v.(*Struct)
		if !ok && v != value.Null {
			return velaerrors.New(velaerrors.KindTypeCast, "prototype must be a struct")
		}
		s.Prototype = proto
		return nil
	}
	if s.Fields.has(id) {
		s.Fields.set(id, v)
		return nil
	}
	if setter, ok := s.Fields.get("set$" + id); ok {
		if fn, ok := setter.(*function.Function); ok {
			_, err := fn.Bind(s).Call([]value.Value{v}, nil, nil)
			return err
		}
	}
	s.Fields.set(id, v)
	return nil
}

func (s *Struct) SubGet(key value.Value) (value.Value, error) {
	if k, ok := key.(*value.String); ok {
		return s.MemberGet(k.V, "", true)
	}
	return nil, velaerrors.New(velaerrors.KindSubGetKey, "struct key must be a string")
}

func (s *Struct) SubSet(key, v value.Value) error {
	k, ok := key.(*value.String)
	if !ok {
		return velaerrors.New(velaerrors.KindSubGetKey, "struct key must be a string")
	}
	return s.MemberSet(k.V, v, true, true)
}

// Clone copies the field table into a new struct with a fresh id, skipping
// internal-prefixed ids unless withInternals is true. The copy is shallow:
// field values (nested structs, lists, maps) are shared with s, and so are
// its prototype and namespace.
func (s *Struct) Clone(withInternals bool) *Struct {
	out := &Struct{ID: nextID(), Prototype: s.Prototype, Fields: newOrderedFields(), Namespace: s.Namespace}
	s.Fields.each(func(k string, v value.Value) {
		if !withInternals && isInternal(k) {
			return
		}
		out.Fields.set(k, v)
	})
	return out
}

// Assign overwrites matching non-internal keys from other onto s.
func (s *Struct) Assign(other *Struct) {
	other.Fields.each(func(k string, v value.Value) {
		if isInternal(k) {
			return
		}
		s.Fields.set(k, v)
	})
}

// Merge writes only keys absent from s, used by struct-literal spread
// (§4.I, scenario S6).
func (s *Struct) Merge(other *Struct) {
	other.Fields.each(func(k string, v value.Value) {
		if isInternal(k) || s.Fields.has(k) {
			return
		}
		s.Fields.set(k, v)
	})
}

func (s *Struct) Keys() []string {
	var keys []string
	s.Fields.each(func(k string, _ value.Value) {
		if !isInternal(k) {
			keys = append(keys, k)
		}
	})
	return keys
}

func (s *Struct) Values() []value.Value {
	var vals []value.Value
	s.Fields.each(func(k string, v value.Value) {
		if !isInternal(k) {
			vals = append(vals, v)
		}
	})
	return vals
}

func (s *Struct) Length() int { return len(s.Keys()) }
func (s *Struct) IsEmpty() bool { return s.Length() == 0 }

func isInternal(id string) bool {
	return len(id) > 0 && id[0] == InternalPrefix[0]
}

// orderedFields is an insertion-ordered string->Value map.
type orderedFields struct {
	order []string
	m     map[string]value.Value
}

func newOrderedFields() *orderedFields {
	return &orderedFields{m: make(map[string]value.Value)}
}

func (f *orderedFields) get(k string) (value.Value, bool) {
	v, ok := f.m[k]
	return v, ok
}

func (f *orderedFields) has(k string) bool {
	_, ok := f.m[k]
	return ok
}

func (f *orderedFields) set(k string, v value.Value) {
	if _, exists := f.m[k]; !exists {
		f.order = append(f.order, k)
	}
	f.m[k] = v
}

func (f *orderedFields) each(fn func(k string, v value.Value)) {
	for _, k := range f.order {
		fn(k, f.m[k])
	}
}
