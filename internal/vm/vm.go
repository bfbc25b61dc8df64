// Package vm implements the opcode dispatch loop (§4.H) and the async
// bridge (§4.K): decode, execute, branch, call, return, suspend/resume.
package vm

import (
	"github.com/velalang/vela/internal/bytecode"
	"github.com/velalang/vela/internal/config"
	velaerrors "github.com/velalang/vela/internal/errors"
	"github.com/velalang/vela/internal/frame"
	"github.com/velalang/vela/internal/function"
	"github.com/velalang/vela/internal/module"
	"github.com/velalang/vela/internal/namespace"
	"github.com/velalang/vela/internal/object"
	"github.com/velalang/vela/internal/value"
)

// Future is the host-future contract the async bridge suspends on (§4.K).
// A host implementation resolves it off the VM's own goroutine and calls
// Resume with the result.
type Future interface {
	// Poll returns (result, err, true) once resolved, or (nil, nil, false)
	// while still pending. The VM never blocks on a Future itself.
	Poll() (value.Value, error, bool)
}

// Suspension is returned out of the loop when an awaitedValue opcode
// observes an unresolved Future; it carries enough context to resume.
type Suspension struct {
	Future Future
	Ctx    *suspendContext
	Frame  *frame.Frame
}

type suspendContext struct {
	chunk          *bytecode.Chunk
	filename       string
	line, column   int
	ns             *namespace.Namespace
	scriptMode     bool
	globallyImport bool
	trace          []velaerrors.Frame
}

// VM is the register-stack-frame virtual machine of §3.
type VM struct {
	Config config.VMConfig

	stack []value.Value
	sp    int

	frames []*frame.Frame
	fp     int

	globals []value.Value

	Classes   map[string]*object.Class
	Functions map[string]*function.Function

	Modules *module.Cache

	global *namespace.Namespace

	reflectors []value.Reflector

	line, column int
	filename     string
	sourceType   bytecode.SourceType

	// classStack/namespaceStack track the declaration currently being
	// built while the loop steps through a classDecl/namespaceDecl ...
	// classDeclEnd/namespaceDeclEnd bracket; varDecl/constDecl consult
	// the top of classStack to tell a field from a plain variable.
	classStack     []*object.Class
	namespaceStack []*namespace.Namespace

	// currentModule is set while EvalModule is driving a loaded module's
	// code, so an OpFile opcode has somewhere to register the namespace
	// it installs.
	currentModule *module.Loaded

	hasError bool
	lastErr  error
}

func New(cfg config.VMConfig) *VM {
	v := &VM{
		Config:    cfg,
		stack:     make([]value.Value, cfg.StackSize),
		frames:    make([]*frame.Frame, 0, cfg.CallStack),
		globals:   make([]value.Value, cfg.GlobalsSize),
		Classes:   make(map[string]*object.Class),
		Functions: make(map[string]*function.Function),
		Modules:   module.NewCache(bytecode.CurrentVersion),
	}
	v.global = namespace.New("global", nil, cfg.PrivatePrefix)
	return v
}

// WrapFuture lifts a host Future into a value.Value that travels through
// the register bank, for stdlib bindings whose calls return an async
// result instead of resolving synchronously.
func WrapFuture(f Future) value.Value { return futureValue{f: f} }

func (v *VM) push(val value.Value)          { v.stack[v.sp] = val; v.sp++ }
func (v *VM) pop() value.Value              { v.sp--; return v.stack[v.sp] }
func (v *VM) peek(distance int) value.Value { return v.stack[v.sp-1-distance] }

func (v *VM) currentFrame() *frame.Frame { return v.frames[v.fp-1] }

func (v *VM) pushFrame(ns *namespace.Namespace) *frame.Frame {
	f := frame.New(ns)
	if v.fp < len(v.frames) {
		v.frames[v.fp] = f
	} else {
		v.frames = append(v.frames, f)
	}
	v.fp++
	return f
}

func (v *VM) popFrame() *frame.Frame {
	v.fp--
	f := v.frames[v.fp]
	f.Clear()
	return f
}

// GlobalNamespace exposes the VM's top-level namespace to the host/stdlib.
func (v *VM) GlobalNamespace() *namespace.Namespace { return v.global }

// RegisterReflector adds an external-type reflector consulted by Encapsulate.
func (v *VM) RegisterReflector(r value.Reflector) { v.reflectors = append(v.reflectors, r) }

func (v *VM) RegisterClass(c *object.Class)         { v.Classes[c.ID] = c }
func (v *VM) RegisterFunction(f *function.Function) { v.Functions[f.Name] = f }

// StackDepth / CallDepth are debug accessors over the operand stack pointer
// and the number of live frames. Eval, EvalModule and InvokeBody pop the
// frame they push, so no base frame stays on the call stack once they return.
func (v *VM) StackDepth() int { return v.sp }
func (v *VM) CallDepth() int  { return v.fp }

func (v *VM) HasError() bool   { return v.hasError }
func (v *VM) LastError() error { return v.lastErr }

// InvokeBody implements function.Invoker: it runs a script function body
// by entering the dispatch loop at the function's chunk/ip inside ns.
func (v *VM) InvokeBody(fn *function.Function, ns *namespace.Namespace) (value.Value, error) {
	if fn.Chunk == nil || fn.Body == nil {
		return value.Null, nil
	}
	f := v.pushFrame(ns)
	f.Ip = fn.Body.Ip
	defer v.popFrame()

	result, susp, err := v.run(fn.Chunk, f)
	if err != nil {
		return nil, err
	}
	if susp != nil {
		return nil, velaerrors.New(velaerrors.KindExtern, "await outside of an async-aware call path")
	}
	return result, nil
}

// Eval installs chunk as the top-level program and runs it in the global
// namespace, matching script-mode top-level execution (§4.G).
func (v *VM) Eval(chunk *bytecode.Chunk) (value.Value, error) {
	f := v.pushFrame(v.global)
	defer v.popFrame()
	result, susp, err := v.run(chunk, f)
	if err != nil {
		v.hasError = true
		v.lastErr = err
		return nil, err
	}
	if susp != nil {
		return v.awaitInline(susp)
	}
	return result, nil
}

// EvalModule installs loaded as the module currently executing, runs its
// code in the global namespace (so OpFile can attach the namespaces it
// creates to loaded.Namespaces), and then runs §4.G's endOfModule import
// resolution pass before returning.
func (v *VM) EvalModule(loaded *module.Loaded, reader module.ResourceReader, globallyImport bool) (value.Value, error) {
	prev := v.currentModule
	v.currentModule = loaded
	defer func() { v.currentModule = prev }()

	f := v.pushFrame(v.global)
	defer v.popFrame()

	result, susp, err := v.run(loaded.Code, f)
	if err != nil {
		v.hasError = true
		v.lastErr = err
		return nil, err
	}
	if susp != nil {
		if result, err = v.awaitInline(susp); err != nil {
			return nil, err
		}
	}
	if err := v.Modules.ResolveImports(loaded, reader, globallyImport, v.global); err != nil {
		return nil, err
	}
	return result, nil
}

// InvokeBodyAsync runs fn's body to completion, resolving any suspension
// inline via awaitInline rather than rejecting it like InvokeBody does.
// It exists for the async call path (§4.K): by the time this runs, fn is
// already isolated onto its own goroutine via a child VM, so blocking
// that goroutine to poll a pending future doesn't stall the caller.
func (v *VM) InvokeBodyAsync(fn *function.Function, ns *namespace.Namespace) (value.Value, error) {
	if fn.Chunk == nil || fn.Body == nil {
		return value.Null, nil
	}
	f := v.pushFrame(ns)
	f.Ip = fn.Body.Ip
	defer v.popFrame()

	result, susp, err := v.run(fn.Chunk, f)
	if err != nil {
		return nil, err
	}
	if susp != nil {
		return v.awaitInline(susp)
	}
	return result, nil
}

// awaitInline polls a suspension to completion without yielding to a host
// event loop, used by synchronous callers (tests, the CLI's `run`). A host
// embedder integrating with its own event loop should poll susp.Future and
// call Resume itself instead of using this helper.
func (v *VM) awaitInline(susp *Suspension) (value.Value, error) {
	for {
		result, err, ready := susp.Future.Poll()
		if !ready {
			continue
		}
		if err != nil {
			return nil, velaerrors.New(velaerrors.KindExtern, "%v", err)
		}
		next, nextSusp, rerr := v.Resume(susp, result)
		if rerr != nil {
			return nil, rerr
		}
		if nextSusp == nil {
			return next, nil
		}
		susp = nextSusp
	}
}

// Resume re-enters the loop at a suspension's saved context with the
// resolved value pre-loaded into localValue, per §4.K.
func (v *VM) Resume(susp *Suspension, resolved value.Value) (value.Value, *Suspension, error) {
	f := susp.Frame
	f.Set(frame.RegLocalValue, resolved)
	return v.run(susp.Ctx.chunk, f)
}
