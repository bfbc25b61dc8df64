package function

import (
	"testing"

	"github.com/velalang/vela/internal/value"
)

func TestCallHostFunctionReceivesPositionalArgs(t *testing.T) {
	f := &Function{
		Name:       "double",
		IsExternal: true,
		Params:     []Param{{Name: "args", Variadic: true}},
		Host: func(positional []value.Value, named map[string]value.Value) (value.Value, error) {
			return value.NewInt(positional[0].(*value.Int).V * 2), nil
		},
	}
	got, err := f.Call([]value.Value{value.NewInt(21)}, nil, nil)
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if got.(*value.Int).V != 42 {
		t.Errorf("expected 42, got %v", got)
	}
}

func TestCallExternalWithoutHostErrors(t *testing.T) {
	f := &Function{Name: "missing", IsExternal: true}
	if _, err := f.Call(nil, nil, nil); err == nil {
		t.Fatalf("expected an error for an external function with no host binding")
	}
}

func TestCallScriptFunctionWithoutBodyReturnsNull(t *testing.T) {
	f := &Function{Name: "noop"}
	got, err := f.Call(nil, nil, nil)
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if got != value.Null {
		t.Errorf("expected Null for a bodyless script function, got %v", got)
	}
}

func TestCallScriptFunctionWithBodyRequiresInvoker(t *testing.T) {
	f := &Function{Name: "needsBody", Body: &Body{Ip: 0}}
	if _, err := f.Call(nil, nil, nil); err == nil {
		t.Fatalf("expected an error when no invoker is bound")
	}
}

func TestBindSetsReceiverWithoutMutatingOriginal(t *testing.T) {
	f := &Function{Name: "method"}
	recv := value.NewInt(1)
	bound := f.Bind(recv)

	if f.Receiver != nil {
		t.Errorf("expected the original function to be left untouched")
	}
	if bound.Receiver != recv {
		t.Errorf("expected the bound copy to carry the receiver")
	}
}

func TestBindParamsMissingRequiredPositionalErrors(t *testing.T) {
	f := &Function{
		Name:   "needsArg",
		Params: []Param{{Name: "x"}},
		Host:   func(p []value.Value, n map[string]value.Value) (value.Value, error) { return value.Null, nil },
		IsExternal: true,
	}
	if _, err := f.Call(nil, nil, nil); err == nil {
		t.Fatalf("expected a missing-positional-argument error")
	}
}

func TestBindParamsTooManyPositionalErrors(t *testing.T) {
	f := &Function{
		Name:       "noArgs",
		IsExternal: true,
		Host:       func(p []value.Value, n map[string]value.Value) (value.Value, error) { return value.Null, nil },
	}
	if _, err := f.Call([]value.Value{value.NewInt(1)}, nil, nil); err == nil {
		t.Fatalf("expected a too-many-positional-arguments error")
	}
}

func TestBindParamsNamedArguments(t *testing.T) {
	f := &Function{
		Name:       "greet",
		IsExternal: true,
		Params:     []Param{{Name: "name", Named: true}},
		Host: func(p []value.Value, n map[string]value.Value) (value.Value, error) {
			return n["name"], nil
		},
	}
	got, err := f.Call(nil, map[string]value.Value{"name": value.NewString("vela")}, nil)
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if got.(*value.String).V != "vela" {
		t.Errorf("expected 'vela', got %v", got)
	}
}

func TestBindParamsUnknownNamedArgumentErrors(t *testing.T) {
	f := &Function{
		Name:       "noNamed",
		IsExternal: true,
		Host:       func(p []value.Value, n map[string]value.Value) (value.Value, error) { return value.Null, nil },
	}
	if _, err := f.Call(nil, map[string]value.Value{"unexpected": value.NewInt(1)}, nil); err == nil {
		t.Fatalf("expected an unknown-named-argument error")
	}
}

func TestBindParamsMissingRequiredNamedErrors(t *testing.T) {
	f := &Function{
		Name:       "needsNamed",
		IsExternal: true,
		Params:     []Param{{Name: "name", Named: true}},
		Host:       func(p []value.Value, n map[string]value.Value) (value.Value, error) { return value.Null, nil },
	}
	if _, err := f.Call(nil, nil, nil); err == nil {
		t.Fatalf("expected a missing-named-argument error")
	}
}

func TestBindParamsVariadicCollectsRemainder(t *testing.T) {
	var captured []value.Value
	f := &Function{
		Name:       "variadic",
		IsExternal: true,
		Params:     []Param{{Name: "first"}, {Name: "rest", Variadic: true}},
		Host: func(p []value.Value, n map[string]value.Value) (value.Value, error) {
			captured = p
			return value.Null, nil
		},
	}
	if _, err := f.Call([]value.Value{value.NewInt(1), value.NewInt(2), value.NewInt(3)}, nil, nil); err != nil {
		t.Fatalf("Call: %v", err)
	}
	if len(captured) != 3 {
		t.Fatalf("expected the host to still see all positional args, got %v", captured)
	}
}
