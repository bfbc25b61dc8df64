package stdlib

import (
	"fmt"
	"os"
	"strings"

	"github.com/velalang/vela/internal/function"
	"github.com/velalang/vela/internal/value"
	"github.com/velalang/vela/internal/vm"
)

// bindConsole installs the Console external class. It writes with plain
// fmt, the same way the VM itself surfaces diagnostics -- no logging
// library sits between script code and the terminal.
func bindConsole(v *vm.VM) {
	bindExternalClass(v, "Console", map[string]function.HostFunc{
		"log":   consoleLog,
		"warn":  consoleWarn,
		"error": consoleError,
	})
}

func consoleLog(pos []value.Value, _ map[string]value.Value) (value.Value, error) {
	fmt.Fprintln(os.Stdout, renderArgs(pos))
	return value.Null, nil
}

func consoleWarn(pos []value.Value, _ map[string]value.Value) (value.Value, error) {
	fmt.Fprintln(os.Stderr, "warn: "+renderArgs(pos))
	return value.Null, nil
}

func consoleError(pos []value.Value, _ map[string]value.Value) (value.Value, error) {
	fmt.Fprintln(os.Stderr, "error: "+renderArgs(pos))
	return value.Null, nil
}

func renderArgs(pos []value.Value) string {
	parts := make([]string, len(pos))
	for i, v := range pos {
		parts[i] = renderValue(v)
	}
	return strings.Join(parts, " ")
}

func renderValue(v value.Value) string {
	switch t := v.(type) {
	case *value.String:
		return t.V
	case *value.Int:
		return fmt.Sprintf("%d", t.V)
	case *value.Float:
		return fmt.Sprintf("%g", t.V)
	case *value.Bool:
		return fmt.Sprintf("%t", t.V)
	case *value.List:
		parts := make([]string, len(t.Items))
		for i, e := range t.Items {
			parts[i] = renderValue(e)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		if v == value.Null {
			return "null"
		}
		return fmt.Sprintf("%v", v)
	}
}
