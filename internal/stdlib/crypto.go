package stdlib

import (
	"crypto/sha256"
	"encoding/hex"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/sha3"

	velaerrors "github.com/velalang/vela/internal/errors"
	"github.com/velalang/vela/internal/function"
	"github.com/velalang/vela/internal/value"
	"github.com/velalang/vela/internal/vm"
)

// bindCrypto installs the Crypto external class: password hashing via
// bcrypt and the fixed-output digests scripts reach for when bcrypt's
// cost factor is unwanted (checksums, cache keys, content addressing).
func bindCrypto(v *vm.VM) {
	bindExternalClass(v, "Crypto", map[string]function.HostFunc{
		"hashPassword":   cryptoHashPassword,
		"verifyPassword": cryptoVerifyPassword,
		"sha256":         cryptoSHA256,
		"sha3":           cryptoSHA3,
	})
}

func cryptoHashPassword(pos []value.Value, _ map[string]value.Value) (value.Value, error) {
	s, err := argString(pos, 0, "Crypto.hashPassword")
	if err != nil {
		return nil, err
	}
	cost := bcrypt.DefaultCost
	if len(pos) > 1 {
		if n, ok := pos[1].(*value.Int); ok {
			cost = int(n.V)
		}
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(s), cost)
	if err != nil {
		return nil, velaerrors.New(velaerrors.KindExtern, "Crypto.hashPassword: %v", err)
	}
	return value.NewString(string(hashed)), nil
}

func cryptoVerifyPassword(pos []value.Value, _ map[string]value.Value) (value.Value, error) {
	hashed, err := argString(pos, 0, "Crypto.verifyPassword")
	if err != nil {
		return nil, err
	}
	plain, err := argString(pos, 1, "Crypto.verifyPassword")
	if err != nil {
		return nil, err
	}
	err = bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain))
	return value.NewBool(err == nil), nil
}

func cryptoSHA256(pos []value.Value, _ map[string]value.Value) (value.Value, error) {
	s, err := argString(pos, 0, "Crypto.sha256")
	if err != nil {
		return nil, err
	}
	sum := sha256.Sum256([]byte(s))
	return value.NewString(hex.EncodeToString(sum[:])), nil
}

func cryptoSHA3(pos []value.Value, _ map[string]value.Value) (value.Value, error) {
	s, err := argString(pos, 0, "Crypto.sha3")
	if err != nil {
		return nil, err
	}
	sum := sha3.Sum256([]byte(s))
	return value.NewString(hex.EncodeToString(sum[:])), nil
}

// argString fetches positional argument i as a *value.String, reporting
// which external call failed when it isn't one.
func argString(pos []value.Value, i int, who string) (string, error) {
	if i >= len(pos) {
		return "", velaerrors.New(velaerrors.KindExtraPositionalArg, "%s: missing argument %d", who, i)
	}
	s, ok := pos[i].(*value.String)
	if !ok {
		return "", velaerrors.New(velaerrors.KindTypeCast, "%s: argument %d must be a string", who, i)
	}
	return s.V, nil
}
