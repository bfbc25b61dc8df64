// Package config loads VM construction options from TOML files, the way
// project manifests are loaded elsewhere in this ecosystem.
package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// TruthyPolicy selects how Truthy(x) treats non-boolean values.
type TruthyPolicy string

const (
	// TruthyStrict: only the boolean true is truthy.
	TruthyStrict TruthyPolicy = "strict"
	// TruthyLenient: 0, "", empty list/map, "false", and null are
	// all falsy in addition to the boolean false; structs are truthy.
	TruthyLenient TruthyPolicy = "lenient"
)

// ImplicitPolicies bundles the single-flag behaviors named in the core
// spec's design notes (§9). Each is enforced at every opcode the core spec
// lists for it, never inferred elsewhere.
type ImplicitPolicies struct {
	// AllowImplicitDeclaration lets `assign` to an undeclared identifier
	// silently declare it instead of raising undefined.
	AllowImplicitDeclaration bool `toml:"allow_implicit_declaration"`
	// NullToZero names the null-to-0 coercion for arithmetic and
	// comparison. No opcode reads it: a null operand to an arithmetic or
	// ordering opcode raises a type-cast error whatever its value.
	NullToZero bool `toml:"null_to_zero"`
	// EmptyToFalse names the empty-value-to-false coercion in boolean
	// tests. No opcode reads it: boolean tests follow the Truthy policy
	// alone.
	EmptyToFalse bool `toml:"empty_to_false"`
	// InitializerIsStatementValue names whether a var/const initializer
	// also becomes the enclosing statement's value. The VM does not read
	// it: varDecl/constDecl always leave the initializer in localValue.
	InitializerIsStatementValue bool `toml:"initializer_is_statement_value"`
}

// VMConfig is the full set of options a VM is constructed with.
type VMConfig struct {
	Implicit ImplicitPolicies `toml:"implicit"`
	Truthy   TruthyPolicy     `toml:"truthy"`

	// PrivatePrefix marks an identifier private per spec §3/§4.C/§4.D. The
	// reference default in comparable embeddable-language runtimes is "_".
	PrivatePrefix string `toml:"private_prefix"`

	StackSize   int `toml:"stack_size"`
	CallStack   int `toml:"call_stack_size"`
	GlobalsSize int `toml:"globals_size"`
}

// Default returns the configuration new VMs use when none is supplied.
func Default() VMConfig {
	return VMConfig{
		Implicit: ImplicitPolicies{
			AllowImplicitDeclaration:    false,
			NullToZero:                  false,
			EmptyToFalse:                false,
			InitializerIsStatementValue: true,
		},
		Truthy:        TruthyStrict,
		PrivatePrefix: "_",
		StackSize:     1024,
		CallStack:     256,
		GlobalsSize:   1024,
	}
}

// LoadFile reads a VMConfig from a TOML file, filling any field the file
// omits from Default().
func LoadFile(path string) (VMConfig, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// SaveFile writes cfg to path as TOML.
func SaveFile(path string, cfg VMConfig) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
