package stdlib

import (
	"encoding/json"

	velaerrors "github.com/velalang/vela/internal/errors"
	"github.com/velalang/vela/internal/function"
	"github.com/velalang/vela/internal/value"
	"github.com/velalang/vela/internal/vm"
)

// bindJSON installs the Json external class mirroring encoding/json's
// Marshal/Unmarshal pair, converting through the same decoded-any shape
// internal/module uses to resolve an imported JSON resource.
func bindJSON(v *vm.VM) {
	bindExternalClass(v, "Json", map[string]function.HostFunc{
		"stringify": jsonStringify,
		"parse":     jsonParse,
	})
}

func jsonStringify(pos []value.Value, _ map[string]value.Value) (value.Value, error) {
	if len(pos) < 1 {
		return nil, velaerrors.New(velaerrors.KindExtraPositionalArg, "Json.stringify: missing argument 0")
	}
	raw, err := valueToJSON(pos[0])
	if err != nil {
		return nil, velaerrors.New(velaerrors.KindExtern, "Json.stringify: %v", err)
	}
	out, err := json.Marshal(raw)
	if err != nil {
		return nil, velaerrors.New(velaerrors.KindExtern, "Json.stringify: %v", err)
	}
	return value.NewString(string(out)), nil
}

func jsonParse(pos []value.Value, _ map[string]value.Value) (value.Value, error) {
	s, err := argString(pos, 0, "Json.parse")
	if err != nil {
		return nil, err
	}
	var decoded any
	if err := json.Unmarshal([]byte(s), &decoded); err != nil {
		return nil, velaerrors.New(velaerrors.KindExtern, "Json.parse: %v", err)
	}
	return decodedToValue(decoded), nil
}

// decodedToValue converts a decoded encoding/json value (float64/string/
// bool/nil/[]any/map[string]any) into this module's value.Value
// encapsulation, the same shape internal/module's import resolver builds.
func decodedToValue(v any) value.Value {
	switch t := v.(type) {
	case nil:
		return value.Null
	case bool:
		return value.NewBool(t)
	case float64:
		return value.NewFloat(t)
	case string:
		return value.NewString(t)
	case []any:
		items := make([]value.Value, len(t))
		for i, e := range t {
			items[i] = decodedToValue(e)
		}
		return value.NewList(items)
	case map[string]any:
		m := value.NewMap()
		for k, e := range t {
			m.SubSet(value.NewString(k), decodedToValue(e))
		}
		return m
	default:
		return value.Null
	}
}

// valueToJSON converts a script value back into a json.Marshal-able Go
// value, the inverse of decodedToValue.
func valueToJSON(v value.Value) (any, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case *value.Bool:
		return t.V, nil
	case *value.Int:
		return t.V, nil
	case *value.Float:
		return t.V, nil
	case *value.String:
		return t.V, nil
	case *value.List:
		out := make([]any, len(t.Items))
		for i, e := range t.Items {
			conv, err := valueToJSON(e)
			if err != nil {
				return nil, err
			}
			out[i] = conv
		}
		return out, nil
	case *value.Map:
		out := make(map[string]any)
		var convErr error
		t.Each(func(k, val value.Value) {
			ks, ok := k.(*value.String)
			if !ok {
				return
			}
			conv, err := valueToJSON(val)
			if err != nil {
				convErr = err
				return
			}
			out[ks.V] = conv
		})
		if convErr != nil {
			return nil, convErr
		}
		return out, nil
	default:
		if v == value.Null {
			return nil, nil
		}
		return nil, velaerrors.New(velaerrors.KindTypeCast, "value is not JSON-representable")
	}
}
