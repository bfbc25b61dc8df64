package stdlib

import (
	"github.com/google/uuid"

	"github.com/velalang/vela/internal/function"
	"github.com/velalang/vela/internal/value"
	"github.com/velalang/vela/internal/vm"
)

// bindUUID installs the Uuid external class, the same generator
// internal/object uses for anonymous struct identity, exposed so script
// code can mint its own ids for records it hands to DynamoTable.
func bindUUID(v *vm.VM) {
	bindExternalClass(v, "Uuid", map[string]function.HostFunc{
		"v4":      uuidV4,
		"isValid": uuidIsValid,
	})
}

func uuidV4(_ []value.Value, _ map[string]value.Value) (value.Value, error) {
	return value.NewString(uuid.NewString()), nil
}

func uuidIsValid(pos []value.Value, _ map[string]value.Value) (value.Value, error) {
	s, err := argString(pos, 0, "Uuid.isValid")
	if err != nil {
		return nil, err
	}
	_, parseErr := uuid.Parse(s)
	return value.NewBool(parseErr == nil), nil
}
