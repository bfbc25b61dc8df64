package object

import (
	"testing"

	"github.com/velalang/vela/internal/function"
	"github.com/velalang/vela/internal/value"
)

func TestNewClassHasEmptyTables(t *testing.T) {
	c := NewClass("Animal", nil, "_")
	if c.ClassID() != "Animal" {
		t.Errorf("expected ClassID Animal, got %q", c.ClassID())
	}
	if c.SuperClass() != nil {
		t.Errorf("expected a root class to have no super")
	}
}

func TestClassSuperClassSatisfiesClassLike(t *testing.T) {
	base := NewClass("Animal", nil, "_")
	derived := NewClass("Dog", base, "_")
	if derived.SuperClass().ClassID() != "Animal" {
		t.Errorf("expected Dog's super to be Animal")
	}
}

func TestClassStaticMemberGetSetAndUndefined(t *testing.T) {
	c := NewClass("Counter", nil, "_")
	if err := c.MemberSet("count", value.NewInt(0), true, false); err != nil {
		t.Fatalf("MemberSet: %v", err)
	}
	got, err := c.MemberGet("count", "", false)
	if err != nil || got.(*value.Int).V != 0 {
		t.Fatalf("expected static member count 0, got %v, err %v", got, err)
	}
	if _, err := c.MemberGet("missing", "", false); err == nil {
		t.Errorf("expected an undefined static member to error")
	}
}

func TestClassGetMethodWalksSuperChain(t *testing.T) {
	base := NewClass("Animal", nil, "_")
	speak := &function.Function{Name: "speak"}
	base.Methods["speak"] = speak
	derived := NewClass("Dog", base, "_")

	if derived.GetMethod("speak") != speak {
		t.Errorf("expected Dog to inherit speak from Animal")
	}
	if derived.GetMethod("bark") != nil {
		t.Errorf("expected an undeclared method to be nil")
	}
}

func TestEnsureDefaultConstructorSynthesizesWhenAbsent(t *testing.T) {
	c := NewClass("Point", nil, "_")
	c.EnsureDefaultConstructor()
	if _, ok := c.Constructors[""]; !ok {
		t.Fatalf("expected a synthesized default constructor")
	}
}

func TestEnsureDefaultConstructorSkipsAbstractClasses(t *testing.T) {
	c := NewClass("Shape", nil, "_")
	c.IsAbstract = true
	c.EnsureDefaultConstructor()
	if _, ok := c.Constructors[""]; ok {
		t.Fatalf("expected no synthesized constructor for an abstract class")
	}
}

func TestEnsureDefaultConstructorSkipsWhenUserDeclared(t *testing.T) {
	c := NewClass("Point", nil, "_")
	c.HasUserConstructor = true
	c.EnsureDefaultConstructor()
	if _, ok := c.Constructors[""]; ok {
		t.Fatalf("expected no synthesized constructor when the user declared one")
	}
}

func TestClassIsNotSubscriptable(t *testing.T) {
	c := NewClass("Point", nil, "_")
	if _, err := c.SubGet(value.NewInt(0)); err == nil {
		t.Errorf("expected a class to reject subscript access")
	}
}

func TestNewInstanceInitializesFieldsFromEveryAncestorFrame(t *testing.T) {
	base := NewClass("Animal", nil, "_")
	base.FieldDefs = []FieldDef{{Name: "legs", Default: value.NewInt(4)}}
	derived := NewClass("Dog", base, "_")
	derived.FieldDefs = []FieldDef{{Name: "name", Default: value.NewString("")}}

	inst := NewInstance(derived)
	legs, err := inst.MemberGet("legs", "", false)
	if err != nil || legs.(*value.Int).V != 4 {
		t.Fatalf("expected inherited field 'legs' to default to 4, got %v, err %v", legs, err)
	}
	name, err := inst.MemberGet("name", "", false)
	if err != nil || name.(*value.String).V != "" {
		t.Fatalf("expected own field 'name' to default to empty string, got %v, err %v", name, err)
	}
}

func TestInstanceMemberSetUpdatesExistingFieldFrame(t *testing.T) {
	c := NewClass("Point", nil, "_")
	c.FieldDefs = []FieldDef{{Name: "x", Default: value.NewInt(0)}}
	inst := NewInstance(c)

	if err := inst.MemberSet("x", value.NewInt(5), false, false); err != nil {
		t.Fatalf("MemberSet: %v", err)
	}
	got, _ := inst.MemberGet("x", "", false)
	if got.(*value.Int).V != 5 {
		t.Errorf("expected x updated to 5, got %v", got)
	}
}

func TestInstanceMemberGetReturnsBoundMethod(t *testing.T) {
	c := NewClass("Greeter", nil, "_")
	c.Methods["greet"] = &function.Function{
		Name:       "greet",
		IsExternal: true,
		Host: func(p []value.Value, n map[string]value.Value) (value.Value, error) {
			return value.NewString("hi"), nil
		},
	}
	inst := NewInstance(c)
	got, err := inst.MemberGet("greet", "", false)
	if err != nil {
		t.Fatalf("MemberGet: %v", err)
	}
	fn, ok := got.(*function.Function)
	if !ok || fn.Receiver != inst {
		t.Fatalf("expected a bound method with the instance as receiver")
	}
}

func TestInstanceMemberGetUndefinedErrors(t *testing.T) {
	c := NewClass("Empty", nil, "_")
	inst := NewInstance(c)
	if _, err := inst.MemberGet("nothing", "", false); err == nil {
		t.Errorf("expected undefined member access to error")
	}
}

func TestNewConstructsInstanceAndRunsConstructor(t *testing.T) {
	c := NewClass("Box", nil, "_")
	c.FieldDefs = []FieldDef{{Name: "value", Default: value.Null}}
	c.Constructors[""] = &function.Function{
		Name:       "Box",
		IsExternal: true,
		Params:     []function.Param{{Name: "v"}},
		Host: func(p []value.Value, n map[string]value.Value) (value.Value, error) {
			return value.Null, nil
		},
	}

	inst, err := New(c, "", []value.Value{value.NewInt(1)}, nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if inst.Class != c {
		t.Errorf("expected the instance's class to be Box")
	}
}

func TestNewRejectsAbstractClass(t *testing.T) {
	c := NewClass("Shape", nil, "_")
	c.IsAbstract = true
	if _, err := New(c, "", nil, nil, nil); err == nil {
		t.Errorf("expected instantiating an abstract class to error")
	}
}

func TestNewRejectsMissingConstructor(t *testing.T) {
	c := NewClass("NoCtor", nil, "_")
	if _, err := New(c, "named", nil, nil, nil); err == nil {
		t.Errorf("expected a missing-named-constructor lookup to error")
	}
}

func TestNewCastAcceptsAncestorAndRejectsUnrelated(t *testing.T) {
	base := NewClass("Animal", nil, "_")
	derived := NewClass("Dog", base, "_")
	unrelated := NewClass("Rock", nil, "_")

	inst := NewInstance(derived)
	if _, err := NewCast(inst, base); err != nil {
		t.Fatalf("expected a cast to an ancestor to succeed: %v", err)
	}
	if _, err := NewCast(inst, unrelated); err == nil {
		t.Errorf("expected a cast to an unrelated class to fail")
	}
	if _, err := NewCast(value.NewInt(1), base); err == nil {
		t.Errorf("expected casting a non-instance value to fail")
	}
}

func TestCastMemberGetFallsBackToClassMethod(t *testing.T) {
	base := NewClass("Animal", nil, "_")
	base.Methods["speak"] = &function.Function{
		Name:       "speak",
		IsExternal: true,
		Host: func(p []value.Value, n map[string]value.Value) (value.Value, error) {
			return value.NewString("..."), nil
		},
	}
	derived := NewClass("Dog", base, "_")
	inst := NewInstance(derived)

	cast, err := NewCast(inst, base)
	if err != nil {
		t.Fatalf("NewCast: %v", err)
	}
	got, err := cast.MemberGet("speak", "", false)
	if err != nil {
		t.Fatalf("MemberGet: %v", err)
	}
	if _, ok := got.(*function.Function); !ok {
		t.Errorf("expected a bound method value, got %v", got)
	}
}

func TestCastMemberSetDelegatesToUnderlyingInstance(t *testing.T) {
	base := NewClass("Animal", nil, "_")
	base.FieldDefs = []FieldDef{{Name: "legs", Default: value.NewInt(4)}}
	inst := NewInstance(base)
	cast, err := NewCast(inst, base)
	if err != nil {
		t.Fatalf("NewCast: %v", err)
	}
	if err := cast.MemberSet("legs", value.NewInt(2), false, false); err != nil {
		t.Fatalf("MemberSet: %v", err)
	}
	got, _ := inst.MemberGet("legs", "", false)
	if got.(*value.Int).V != 2 {
		t.Errorf("expected the underlying instance to reflect the cast write, got %v", got)
	}
}

func TestNewStructDefinesThisInOwnNamespace(t *testing.T) {
	s := NewStruct("_")
	decl, err := s.Namespace.MemberGet("this", "", false)
	if err != nil {
		t.Fatalf("expected 'this' to be defined: %v", err)
	}
	if decl.Value != s {
		t.Errorf("expected 'this' to refer back to the struct itself")
	}
}

func TestStructMemberSetAndGetOwnField(t *testing.T) {
	s := NewStruct("_")
	if err := s.MemberSet("name", value.NewString("vela"), true, false); err != nil {
		t.Fatalf("MemberSet: %v", err)
	}
	got, err := s.MemberGet("name", "", false)
	if err != nil || got.(*value.String).V != "vela" {
		t.Fatalf("expected 'vela', got %v, err %v", got, err)
	}
}

func TestStructPrototypeDelegation(t *testing.T) {
	proto := NewStruct("_")
	proto.MemberSet("greeting", value.NewString("hi"), true, false)

	s := NewStruct("_")
	if err := s.MemberSet("prototype", proto, false, false); err != nil {
		t.Fatalf("setting prototype: %v", err)
	}

	got, err := s.MemberGet("greeting", "", false)
	if err != nil || got.(*value.String).V != "hi" {
		t.Fatalf("expected delegation to the prototype, got %v, err %v", got, err)
	}

	protoGot, err := s.MemberGet("prototype", "", false)
	if err != nil || protoGot != proto {
		t.Fatalf("expected reading 'prototype' back to return the prototype struct")
	}
}

func TestStructPrototypeRejectsNonStructValue(t *testing.T) {
	s := NewStruct("_")
	if err := s.MemberSet("prototype", value.NewInt(1), false, false); err == nil {
		t.Errorf("expected setting a non-struct, non-null prototype to error")
	}
}

func TestStructGetterAndSetterIndirection(t *testing.T) {
	s := NewStruct("_")
	s.Fields.set("$area", value.NewInt(0))
	s.Fields.set("get$area", &function.Function{
		Name:       "get$area",
		IsExternal: true,
		Host: func(p []value.Value, n map[string]value.Value) (value.Value, error) {
			return value.NewInt(99), nil
		},
	})
	got, err := s.MemberGet("area", "", false)
	if err != nil || got.(*value.Int).V != 99 {
		t.Fatalf("expected the getter's return value, got %v, err %v", got, err)
	}

	var setVal value.Value
	s.Fields.set("set$area", &function.Function{
		Name:       "set$area",
		IsExternal: true,
		Params:     []function.Param{{Name: "v"}},
		Host: func(p []value.Value, n map[string]value.Value) (value.Value, error) {
			setVal = p[0]
			return value.Null, nil
		},
	})
	if err := s.MemberSet("area", value.NewInt(7), false, false); err != nil {
		t.Fatalf("MemberSet via setter: %v", err)
	}
	if setVal == nil || setVal.(*value.Int).V != 7 {
		t.Errorf("expected the setter to be invoked with 7, got %v", setVal)
	}
}

func TestStructSubGetSubSetRequireStringKeys(t *testing.T) {
	s := NewStruct("_")
	if err := s.SubSet(value.NewInt(1), value.NewInt(1)); err == nil {
		t.Errorf("expected a non-string subscript key to error")
	}
	if err := s.SubSet(value.NewString("x"), value.NewInt(1)); err != nil {
		t.Fatalf("SubSet: %v", err)
	}
	got, err := s.SubGet(value.NewString("x"))
	if err != nil || got.(*value.Int).V != 1 {
		t.Fatalf("expected SubGet to proxy to MemberGet, got %v, err %v", got, err)
	}
}

func TestStructCloneSkipsInternalsByDefault(t *testing.T) {
	s := NewStruct("_")
	s.MemberSet("visible", value.NewInt(1), true, false)
	s.Fields.set(InternalPrefix+"hidden", value.NewInt(2))

	clone := s.Clone(false)
	if clone.ID == s.ID {
		t.Errorf("expected a clone to get a fresh identity")
	}
	if clone.Fields.has(InternalPrefix + "hidden") {
		t.Errorf("expected internal fields to be skipped by default")
	}
	if !clone.Fields.has("visible") {
		t.Errorf("expected visible fields to be copied")
	}

	withInternals := s.Clone(true)
	if !withInternals.Fields.has(InternalPrefix + "hidden") {
		t.Errorf("expected internal fields to be included when requested")
	}
}

func TestStructAssignOverwritesAndMergeOnlyFillsGaps(t *testing.T) {
	dst := NewStruct("_")
	dst.MemberSet("a", value.NewInt(1), true, false)

	src := NewStruct("_")
	src.MemberSet("a", value.NewInt(99), true, false)
	src.MemberSet("b", value.NewInt(2), true, false)

	dst.Assign(src)
	a, _ := dst.MemberGet("a", "", false)
	b, _ := dst.MemberGet("b", "", false)
	if a.(*value.Int).V != 99 || b.(*value.Int).V != 2 {
		t.Fatalf("expected Assign to overwrite and add fields, got a=%v b=%v", a, b)
	}

	dst2 := NewStruct("_")
	dst2.MemberSet("a", value.NewInt(1), true, false)
	dst2.Merge(src)
	a2, _ := dst2.MemberGet("a", "", false)
	b2, _ := dst2.MemberGet("b", "", false)
	if a2.(*value.Int).V != 1 {
		t.Errorf("expected Merge to leave an existing key untouched, got %v", a2)
	}
	if b2.(*value.Int).V != 2 {
		t.Errorf("expected Merge to fill in the missing key, got %v", b2)
	}
}

func TestStructKeysValuesLengthIsEmpty(t *testing.T) {
	s := NewStruct("_")
	if !s.IsEmpty() || s.Length() != 0 {
		t.Fatalf("expected a fresh struct to be empty")
	}
	s.MemberSet("a", value.NewInt(1), true, false)
	s.MemberSet("b", value.NewInt(2), true, false)

	if s.Length() != 2 || s.IsEmpty() {
		t.Fatalf("expected length 2, got %d", s.Length())
	}
	keys := s.Keys()
	if len(keys) != 2 || keys[0] != "a" || keys[1] != "b" {
		t.Errorf("expected insertion-ordered keys [a b], got %v", keys)
	}
	vals := s.Values()
	if len(vals) != 2 || vals[0].(*value.Int).V != 1 || vals[1].(*value.Int).V != 2 {
		t.Errorf("expected insertion-ordered values [1 2], got %v", vals)
	}
}
