package vm

import (
	"github.com/velalang/vela/internal/frame"
	"github.com/velalang/vela/internal/function"
	"github.com/velalang/vela/internal/namespace"
	"github.com/velalang/vela/internal/value"
)

// goFuture bridges an async script call to the host Future contract of
// §4.K: Call runs on its own goroutine, and Poll reports completion
// without blocking. It mirrors the goroutine-plus-channel shape stdlib
// bindings use for their own host-async calls, duplicated here rather
// than shared because internal/stdlib imports this package, not the
// other way around.
type goFuture struct {
	done   chan struct{}
	result value.Value
	err    error
}

func (g *goFuture) Poll() (value.Value, error, bool) {
	select {
	case <-g.done:
		return g.result, g.err, true
	default:
		return nil, nil, false
	}
}

// childVM clones the state an async call body needs to read (classes,
// functions, modules, the global namespace, reflectors, config) without
// sharing the stack/frame bank the spawning goroutine is still stepping
// through.
func (v *VM) childVM() *VM {
	return &VM{
		Config:     v.Config,
		stack:      make([]value.Value, len(v.stack)),
		frames:     make([]*frame.Frame, 0, cap(v.frames)),
		globals:    v.globals,
		Classes:    v.Classes,
		Functions:  v.Functions,
		Modules:    v.Modules,
		global:     v.global,
		reflectors: v.reflectors,
		filename:   v.filename,
	}
}

// asyncInvoker routes a script function's body through InvokeBodyAsync
// instead of InvokeBody, since a suspension hit inside an async body is
// expected, not an error, once it's already running on its own goroutine.
type asyncInvoker struct{ *VM }

func (a asyncInvoker) InvokeBody(fn *function.Function, ns *namespace.Namespace) (value.Value, error) {
	return a.VM.InvokeBodyAsync(fn, ns)
}

// spawnAsyncCall implements the async-function call model of §4.K: fn
// runs to completion on its own goroutine against a private child VM, and
// the caller gets back a Future it can poll or suspend on immediately,
// never blocking on the call itself.
func (v *VM) spawnAsyncCall(fn *function.Function, positional []value.Value, named map[string]value.Value) Future {
	gf := &goFuture{done: make(chan struct{})}
	child := v.childVM()
	go func() {
		result, err := fn.Call(positional, named, asyncInvoker{child})
		gf.result, gf.err = result, err
		close(gf.done)
	}()
	return gf
}
