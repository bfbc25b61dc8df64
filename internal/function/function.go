// Package function implements the callable value of §3/§4.F: script and
// host functions, parameter binding, closures, and the async wrapper.
package function

import (
	"github.com/velalang/vela/internal/bytecode"
	velaerrors "github.com/velalang/vela/internal/errors"
	"github.com/velalang/vela/internal/namespace"
	"github.com/velalang/vela/internal/types"
	"github.com/velalang/vela/internal/value"
)

// Param is one declared parameter.
type Param struct {
	Name        string
	Declared    types.Type
	DefaultIp   int
	HasDefault  bool
	Optional    bool
	Variadic    bool
	Named       bool
}

// Body is where to resume execution for a script function: entry ip, and
// the chunk it belongs to (opaque to this package; the VM owns the type).
type Body struct {
	Ip     int
	Line   int
	Column int
}

// HostFunc is the signature a bound external function implements.
type HostFunc func(positional []value.Value, named map[string]value.Value) (value.Value, error)

// RedirectingConstructor records a `this(...)`/`super(...)` delegation:
// the target constructor name plus the positional/named initializer ips
// evaluated before the delegate call and before the body runs.
type RedirectingConstructor struct {
	Target          string
	PositionalInits []int
	NamedInits      map[string]int
}

// Function is the value kind callable via Call.
type Function struct {
	Name           string
	PublicID       string
	ClassID        string
	Closure        *namespace.Namespace
	Params         []Param
	ReturnType     types.Type
	Body           *Body
	Chunk          *bytecode.Chunk
	IsAsync        bool
	IsExternal     bool
	IsStatic       bool
	IsConst        bool
	IsField        bool
	IsAbstract     bool
	Redirecting    *RedirectingConstructor
	ExternalTypeID string

	Host HostFunc

	// Receiver is the bound `this` for a method value retrieved off a
	// struct/instance (§4.D: "bound to the receiver, not the prototype").
	Receiver value.Value
}

func (f *Function) ValueKind() value.Kind { return value.KindFunction }

func (f *Function) MemberGet(id, from string, rec bool) (value.Value, error) {
	return nil, velaerrors.New(velaerrors.KindUndefined, "undefined member %q on function", id)
}
func (f *Function) MemberSet(id string, v value.Value, defineIfAbsent, rec bool) error {
	return velaerrors.New(velaerrors.KindUndefined, "undefined member %q on function", id)
}
func (f *Function) SubGet(key value.Value) (value.Value, error) {
	return nil, velaerrors.New(velaerrors.KindSubGetKey, "function is not subscriptable")
}
func (f *Function) SubSet(key, v value.Value) error {
	return velaerrors.New(velaerrors.KindSubGetKey, "function is not subscriptable")
}

// Bind returns a copy of f with Receiver set, used when a method is
// retrieved off a struct/instance so later calls see the right `this`.
func (f *Function) Bind(receiver value.Value) *Function {
	bound := *f
	bound.Receiver = receiver
	return &bound
}

// Invoker is implemented by the VM: it knows how to run a script function
// body starting at a Body record inside a fresh namespace/frame.
type Invoker interface {
	InvokeBody(fn *Function, ns *namespace.Namespace) (value.Value, error)
}

// Call implements the binding protocol of §4.F steps 1-6. Step 7 (async
// wrapping) is the caller's responsibility: a caller that sees IsAsync
// true is expected to hand the resulting suspension to the VM's async
// bridge instead of awaiting inline.
func (f *Function) Call(positional []value.Value, named map[string]value.Value, invoker Invoker) (value.Value, error) {
	ns := namespace.New(f.Name, f.Closure, "_")

	if f.Receiver != nil {
		ns.Define("this", &namespace.Declaration{ID: "this", Kind: namespace.DeclVariable, Value: f.Receiver}, true)
	}

	if err := bindParams(f, ns, positional, named); err != nil {
		return nil, err
	}

	if f.IsExternal {
		if f.Host == nil {
			return nil, velaerrors.New(velaerrors.KindUndefinedExternal, "external function %q has no binding", f.Name)
		}
		return f.Host(positional, named)
	}

	if f.Body == nil {
		return value.Null, nil
	}
	if invoker == nil {
		return nil, velaerrors.New(velaerrors.KindUndefinedExternal, "no VM bound to invoke script function %q", f.Name)
	}
	return invoker.InvokeBody(f, ns)
}

func bindParams(f *Function, ns *namespace.Namespace, positional []value.Value, named map[string]value.Value) error {
	posIdx := 0
	for _, p := range f.Params {
		if p.Variadic {
			rest := append([]value.Value(nil), positional[posIdx:]...)
			ns.Define(p.Name, &namespace.Declaration{ID: p.Name, Kind: namespace.DeclParameter, Value: value.NewList(rest)}, true)
			posIdx = len(positional)
			continue
		}
		if p.Named {
			v, ok := named[p.Name]
			if !ok {
				if p.HasDefault {
					v = value.Null // the default expression at DefaultIp is not evaluated
				} else if p.Optional {
					v = value.Null
				} else {
					return velaerrors.New(velaerrors.KindExtraNamedArg, "missing named argument %q", p.Name)
				}
			}
			ns.Define(p.Name, &namespace.Declaration{ID: p.Name, Kind: namespace.DeclParameter, Value: v}, true)
			continue
		}
		var v value.Value
		if posIdx < len(positional) {
			v = positional[posIdx]
			posIdx++
		} else if p.HasDefault || p.Optional {
			v = value.Null
		} else {
			return velaerrors.New(velaerrors.KindExtraPositionalArg, "missing positional argument %q", p.Name)
		}
		ns.Define(p.Name, &namespace.Declaration{ID: p.Name, Kind: namespace.DeclParameter, Value: v}, true)
	}
	if posIdx < len(positional) {
		return velaerrors.New(velaerrors.KindExtraPositionalArg, "too many positional arguments to %q", f.Name)
	}
	for name := range named {
		found := false
		for _, p := range f.Params {
			if p.Name == name && p.Named {
				found = true
				break
			}
		}
		if !found {
			return velaerrors.New(velaerrors.KindExtraNamedArg, "unknown named argument %q", name)
		}
	}
	return nil
}
