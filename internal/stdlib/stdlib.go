// Package stdlib implements the preincluded host bindings: cryptographic
// hashing, uuid generation, a DynamoDB-backed external class, JSON
// conversion, randomness, console diagnostics, and concrete Future
// implementations for the async bridge.
package stdlib

import (
	"github.com/velalang/vela/internal/function"
	"github.com/velalang/vela/internal/namespace"
	"github.com/velalang/vela/internal/object"
	"github.com/velalang/vela/internal/vm"
)

// variadicParams lets a Go-native host function accept whatever arity its
// caller passes, since arity checking for these belongs to the Go
// implementation (argString and friends), not to the namespace binder.
var variadicParams = []function.Param{{Name: "args", Variadic: true}}

// Install registers every binding in this package against v. Called once
// from the host embedding the VM, after vm.New and before the first Eval.
func Install(v *vm.VM) error {
	bindCrypto(v)
	bindUUID(v)
	bindJSON(v)
	bindRandom(v)
	bindConsole(v)
	return bindDynamo(v)
}

// bindExternalClass builds a Class carrying only static, external (host-
// backed) methods -- the shape every binding in this package needs -- and
// registers it both in the VM's class table and as a global identifier so
// script code can reach it by name, e.g. `Crypto->sha256(...)`.
func bindExternalClass(v *vm.VM, id string, statics map[string]function.HostFunc) *object.Class {
	c := object.NewClass(id, nil, v.Config.PrivatePrefix)
	c.IsExternal = true
	for name, host := range statics {
		c.Methods[name] = &function.Function{
			Name:       name,
			ClassID:    id,
			IsStatic:   true,
			IsExternal: true,
			Host:       host,
			Params:     variadicParams,
		}
	}
	v.RegisterClass(c)
	v.GlobalNamespace().Define(id, &namespace.Declaration{
		ID:    id,
		Kind:  namespace.DeclClass,
		Value: c,
	}, true)
	return c
}
