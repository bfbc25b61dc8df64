package stdlib

import (
	"math/rand/v2"

	velaerrors "github.com/velalang/vela/internal/errors"
	"github.com/velalang/vela/internal/function"
	"github.com/velalang/vela/internal/value"
	"github.com/velalang/vela/internal/vm"
)

// bindRandom installs the Random external class over math/rand/v2's
// package-level generator.
func bindRandom(v *vm.VM) {
	bindExternalClass(v, "Random", map[string]function.HostFunc{
		"int":    randomInt,
		"float":  randomFloat,
		"bool":   randomBool,
		"choice": randomChoice,
	})
}

func randomInt(pos []value.Value, _ map[string]value.Value) (value.Value, error) {
	if len(pos) == 0 {
		return value.NewInt(rand.Int64()), nil
	}
	lo, ok := pos[0].(*value.Int)
	if !ok {
		return nil, velaerrors.New(velaerrors.KindTypeCast, "Random.int: argument 0 must be an int")
	}
	if len(pos) == 1 {
		return value.NewInt(rand.Int64N(lo.V)), nil
	}
	hi, ok := pos[1].(*value.Int)
	if !ok {
		return nil, velaerrors.New(velaerrors.KindTypeCast, "Random.int: argument 1 must be an int")
	}
	if hi.V <= lo.V {
		return nil, velaerrors.New(velaerrors.KindExtern, "Random.int: upper bound must exceed lower bound")
	}
	return value.NewInt(lo.V + rand.Int64N(hi.V-lo.V)), nil
}

func randomFloat(_ []value.Value, _ map[string]value.Value) (value.Value, error) {
	return value.NewFloat(rand.Float64()), nil
}

func randomBool(_ []value.Value, _ map[string]value.Value) (value.Value, error) {
	return value.NewBool(rand.IntN(2) == 1), nil
}

func randomChoice(pos []value.Value, _ map[string]value.Value) (value.Value, error) {
	if len(pos) < 1 {
		return nil, velaerrors.New(velaerrors.KindExtraPositionalArg, "Random.choice: missing argument 0")
	}
	list, ok := pos[0].(*value.List)
	if !ok {
		return nil, velaerrors.New(velaerrors.KindTypeCast, "Random.choice: argument 0 must be a list")
	}
	if len(list.Items) == 0 {
		return value.Null, nil
	}
	return list.Items[rand.IntN(len(list.Items))], nil
}
