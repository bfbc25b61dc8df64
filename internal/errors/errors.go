// Package errors implements the runtime error taxonomy of the VM core.
package errors

import (
	"fmt"
	"strings"
)

// Kind identifies one of the runtime error kinds a script or the loader can
// raise. Static (parser/analyzer) errors are out of core scope.
type Kind string

const (
	KindUndefined                Kind = "undefined"
	KindDefined                  Kind = "defined"
	KindPrivateMember            Kind = "privateMember"
	KindNotCallable              Kind = "notCallable"
	KindNotNewable               Kind = "notNewable"
	KindCallNullObject           Kind = "callNullObject"
	KindVisitMemberOfNullObject  Kind = "visitMemberOfNullObject"
	KindSubGetKey                Kind = "subGetKey"
	KindDelete                   Kind = "delete"
	KindNullSubSetKey            Kind = "nullSubSetKey"
	KindCastee                   Kind = "castee"
	KindTypeCast                 Kind = "typeCast"
	KindAbstracted               Kind = "abstracted"
	KindNotSpreadableObj         Kind = "notSpreadableObj"
	KindExtraPositionalArg       Kind = "extraPositionalArg"
	KindExtraNamedArg            Kind = "extraNamedArg"
	KindUnknownOpCode            Kind = "unknownOpCode"
	KindUnknownValueType         Kind = "unkownValueType"
	KindBytecode                 Kind = "bytecode"
	KindVersion                  Kind = "version"
	KindExtern                   Kind = "extern"
	KindScriptThrows             Kind = "scriptThrows"
	KindAssertionFailed          Kind = "assertionFailed"
	KindUndefinedExternal        Kind = "undefinedExternal"
)

// Frame is one entry of a script-level stack trace: "(file:line:column) in name".
type Frame struct {
	Filename string
	Line     int
	Column   int
	Function string
}

func (f Frame) String() string {
	return fmt.Sprintf("(%s:%d:%d) in %s", f.Filename, f.Line, f.Column, f.Function)
}

// VelaError is the structured runtime error type returned by every VM
// operation that can fail. It implements the standard error interface so
// callers can use errors.As/errors.Is against it.
type VelaError struct {
	Kind       Kind
	Message    string
	Extra      string
	Correction string
	Filename   string
	Line       int
	Column     int
	StackTrace []Frame
}

func New(kind Kind, format string, args ...any) *VelaError {
	return &VelaError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func (e *VelaError) Error() string {
	var b strings.Builder
	if e.Filename != "" {
		fmt.Fprintf(&b, "%s:%d:%d: ", e.Filename, e.Line, e.Column)
	}
	fmt.Fprintf(&b, "%s: %s", e.Kind, e.Message)
	if e.Extra != "" {
		fmt.Fprintf(&b, " (%s)", e.Extra)
	}
	if e.Correction != "" {
		fmt.Fprintf(&b, " -- %s", e.Correction)
	}
	for _, f := range e.StackTrace {
		fmt.Fprintf(&b, "\n  at %s", f)
	}
	return b.String()
}

// WithLocation attaches source position information and returns the
// receiver, so callers can chain it onto New at the raise site.
func (e *VelaError) WithLocation(filename string, line, column int) *VelaError {
	e.Filename = filename
	e.Line = line
	e.Column = column
	return e
}

// WithTrace appends the current call stack to the error, most recent frame
// last, matching the order the VM unwinds in.
func (e *VelaError) WithTrace(trace []Frame) *VelaError {
	e.StackTrace = trace
	return e
}

// Is reports whether target is a *VelaError with the same Kind, so callers
// can write errors.Is(err, errors.New(errors.KindUndefined, "")).
func (e *VelaError) Is(target error) bool {
	other, ok := target.(*VelaError)
	if !ok {
		return false
	}
	return other.Kind == e.Kind
}
