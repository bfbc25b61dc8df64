package object

import (
	velaerrors "github.com/velalang/vela/internal/errors"
	"github.com/velalang/vela/internal/function"
	"github.com/velalang/vela/internal/namespace"
	"github.com/velalang/vela/internal/types"
	"github.com/velalang/vela/internal/value"
)

// Class is the nominal-OO declaration of §3/§4.E: fields, methods, statics,
// inheritance, implicit default-constructor synthesis.
type Class struct {
	ID          string
	Super       *Class
	Implements_ []string
	IsAbstract  bool
	IsExternal  bool
	IsEnum      bool

	HasUserConstructor bool
	Namespace          *namespace.Namespace

	Methods      map[string]*function.Function
	Constructors map[string]*function.Function
	StaticVars   map[string]value.Value
	FieldDefs    []FieldDef
}

// FieldDef is one declared instance field (visibility/default live here;
// actual storage lives per-Instance in a field frame).
type FieldDef struct {
	Name      string
	Declared  types.Type
	IsPrivate bool
	Default   value.Value
}

func NewClass(id string, super *Class, privatePrefix string) *Class {
	return &Class{
		ID:           id,
		Super:        super,
		Namespace:    namespace.New(id, nil, privatePrefix),
		Methods:      make(map[string]*function.Function),
		Constructors: make(map[string]*function.Function),
		StaticVars:   make(map[string]value.Value),
	}
}

// ClassID / SuperClass / Implements satisfy types.ClassLike.
func (c *Class) ClassID() string { return c.ID }
func (c *Class) SuperClass() types.ClassLike {
	if c.Super == nil {
		return nil
	}
	return c.Super
}
func (c *Class) Implements() []string { return c.Implements_ }

// FullName returns the class id; the super chain is not included.
func (c *Class) FullName() string { return c.ID }

// Class itself satisfies value.Value so a class declaration can be carried
// through the register bank and appear on the right of `new`.
func (c *Class) ValueKind() value.Kind { return value.KindType }

func (c *Class) MemberGet(id, from string, isRecursive bool) (value.Value, error) {
	if v, ok := c.StaticVars[id]; ok {
		return v, nil
	}
	if m := c.GetMethod(id); m != nil && m.IsStatic {
		return m, nil
	}
	return nil, velaerrors.New(velaerrors.KindUndefined, "undefined static member %q on %s", id, c.ID)
}

func (c *Class) MemberSet(id string, v value.Value, defineIfAbsent, isRecursive bool) error {
	if _, ok := c.StaticVars[id]; ok || defineIfAbsent {
		c.StaticVars[id] = v
		return nil
	}
	return velaerrors.New(velaerrors.KindUndefined, "undefined static member %q on %s", id, c.ID)
}

func (c *Class) SubGet(key value.Value) (value.Value, error) {
	return nil, velaerrors.New(velaerrors.KindSubGetKey, "class is not subscriptable")
}
func (c *Class) SubSet(key, v value.Value) error {
	return velaerrors.New(velaerrors.KindSubGetKey, "class is not subscriptable")
}

func (c *Class) GetMethod(name string) *function.Function {
	if m, ok := c.Methods[name]; ok {
		return m
	}
	if c.Super != nil {
		return c.Super.GetMethod(name)
	}
	return nil
}

// EnsureDefaultConstructor synthesizes a zero-argument constructor at
// classDeclEnd if none was user-declared and the class is not abstract.
func (c *Class) EnsureDefaultConstructor() {
	if c.HasUserConstructor || c.IsAbstract {
		return
	}
	c.Constructors[""] = &function.Function{
		Name:    c.ID,
		ClassID: c.ID,
		Closure: c.Namespace,
	}
}

// Instance carries a chain of per-class field frames, most-derived first,
// plus the class it was built from.
type Instance struct {
	Class  *Class
	Frames []*instanceFrame
}

type instanceFrame struct {
	class  *Class
	fields map[string]value.Value
}

func NewInstance(class *Class) *Instance {
	inst := &Instance{Class: class}
	for cur := class; cur != nil; cur = cur.Super {
		frame := &instanceFrame{class: cur, fields: make(map[string]value.Value)}
		for _, fd := range cur.FieldDefs {
			frame.fields[fd.Name] = fd.Default
		}
		inst.Frames = append(inst.Frames, frame)
	}
	return inst
}

func (i *Instance) ValueKind() value.Kind { return value.KindInstance }

// findField walks most-derived frame upward, per §3's Instance note.
func (i *Instance) findField(id string) (*instanceFrame, bool) {
	for _, f := range i.Frames {
		if _, ok := f.fields[id]; ok {
			return f, true
		}
	}
	return nil, false
}

func (i *Instance) MemberGet(id, from string, isRecursive bool) (value.Value, error) {
	if frame, ok := i.findField(id); ok {
		return frame.fields[id], nil
	}
	if m := i.Class.GetMethod(id); m != nil {
		return m.Bind(i), nil
	}
	if sv, ok := i.Class.StaticVars[id]; ok {
		return sv, nil
	}
	return nil, velaerrors.New(velaerrors.KindUndefined, "undefined member %q on %s", id, i.Class.ID)
}

func (i *Instance) MemberSet(id string, v value.Value, defineIfAbsent, isRecursive bool) error {
	if frame, ok := i.findField(id); ok {
		frame.fields[id] = v
		return nil
	}
	if defineIfAbsent {
		i.Frames[0].fields[id] = v
		return nil
	}
	return velaerrors.New(velaerrors.KindUndefined, "undefined member %q on %s", id, i.Class.ID)
}

func (i *Instance) SubGet(key value.Value) (value.Value, error) {
	return nil, velaerrors.New(velaerrors.KindSubGetKey, "instance is not subscriptable")
}
func (i *Instance) SubSet(key, v value.Value) error {
	return velaerrors.New(velaerrors.KindSubGetKey, "instance is not subscriptable")
}

// New constructs a new instance of c, calling its constructor (named, or
// the default if name is empty) with the given arguments.
func New(c *Class, ctorName string, positional []value.Value, named map[string]value.Value, invoker function.Invoker) (*Instance, error) {
	if c.IsAbstract {
		return nil, velaerrors.New(velaerrors.KindAbstracted, "cannot instantiate abstract class %q", c.ID)
	}
	inst := NewInstance(c)
	ctor, ok := c.Constructors[ctorName]
	if !ok {
		return nil, velaerrors.New(velaerrors.KindNotCallable, "no constructor %q on %s", ctorName, c.ID)
	}
	bound := ctor.Bind(inst)
	if _, err := bound.Call(positional, named, invoker); err != nil {
		return nil, err
	}
	return inst, nil
}

// Cast wraps an instance with a view bound to a specific ancestor class,
// restricting MemberGet to members visible at that level (§4.E).
type Cast struct {
	Underlying *Instance
	At         *Class
}

// NewCast constructs a Cast only if castee's runtime class is at or below
// target in the super chain; otherwise it fails with KindCastee.
func NewCast(castee value.Value, target *Class) (*Cast, error) {
	inst, ok := castee.(*Instance)
	if !ok {
		return nil, velaerrors.New(velaerrors.KindCastee, "cast target is not an instance")
	}
	for cur := inst.Class; cur != nil; cur = cur.Super {
		if cur == target {
			return &Cast{Underlying: inst, At: target}, nil
		}
	}
	return nil, velaerrors.New(velaerrors.KindCastee, "%s is not a supertype of %s", target.ID, inst.Class.ID)
}

func (c *Cast) ValueKind() value.Kind { return value.KindCast }

// MemberGet restricts lookup to the field frame at or above c.At, matching
// what the declared class level could see.
func (c *Cast) MemberGet(id, from string, isRecursive bool) (value.Value, error) {
	for _, frame := range c.Underlying.Frames {
		if _, ok := frame.fields[id]; ok {
			if !isAtOrAbove(c.Underlying.Class, frame.class, c.At) {
				continue
			}
			return frame.fields[id], nil
		}
	}
	if m := c.At.GetMethod(id); m != nil {
		return m.Bind(c.Underlying), nil
	}
	return nil, velaerrors.New(velaerrors.KindUndefined, "undefined member %q at cast level %s", id, c.At.ID)
}

func (c *Cast) MemberSet(id string, v value.Value, defineIfAbsent, isRecursive bool) error {
	return c.Underlying.MemberSet(id, v, defineIfAbsent, isRecursive)
}
func (c *Cast) SubGet(key value.Value) (value.Value, error) {
	return nil, velaerrors.New(velaerrors.KindSubGetKey, "cast is not subscriptable")
}
func (c *Cast) SubSet(key, v value.Value) error {
	return velaerrors.New(velaerrors.KindSubGetKey, "cast is not subscriptable")
}

func isAtOrAbove(from *Class, frameClass *Class, at *Class) bool {
	for cur := at; cur != nil; cur = cur.Super {
		if cur == frameClass {
			return true
		}
	}
	return false
}
