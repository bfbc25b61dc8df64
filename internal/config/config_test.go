package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultValues(t *testing.T) {
	cfg := Default()
	if cfg.Truthy != TruthyStrict {
		t.Errorf("expected strict truthy policy by default, got %v", cfg.Truthy)
	}
	if cfg.PrivatePrefix != "_" {
		t.Errorf("expected private prefix '_', got %q", cfg.PrivatePrefix)
	}
	if cfg.StackSize <= 0 || cfg.CallStack <= 0 || cfg.GlobalsSize <= 0 {
		t.Errorf("expected positive capacity defaults, got %+v", cfg)
	}
	if !cfg.Implicit.InitializerIsStatementValue {
		t.Errorf("expected InitializerIsStatementValue true by default")
	}
}

func TestSaveAndLoadFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vela.toml")

	want := Default()
	want.Truthy = TruthyLenient
	want.Implicit.AllowImplicitDeclaration = true
	want.StackSize = 2048

	if err := SaveFile(path, want); err != nil {
		t.Fatalf("SaveFile: %v", err)
	}

	got, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if got.Truthy != want.Truthy {
		t.Errorf("Truthy: expected %v, got %v", want.Truthy, got.Truthy)
	}
	if got.Implicit.AllowImplicitDeclaration != want.Implicit.AllowImplicitDeclaration {
		t.Errorf("AllowImplicitDeclaration: expected %v, got %v", want.Implicit.AllowImplicitDeclaration, got.Implicit.AllowImplicitDeclaration)
	}
	if got.StackSize != want.StackSize {
		t.Errorf("StackSize: expected %d, got %d", want.StackSize, got.StackSize)
	}
}

func TestLoadFilePartialOverridesKeepDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "partial.toml")
	if err := os.WriteFile(path, []byte("truthy = \"lenient\"\n"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	got, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if got.Truthy != TruthyLenient {
		t.Errorf("expected overridden truthy policy, got %v", got.Truthy)
	}
	if got.PrivatePrefix != Default().PrivatePrefix {
		t.Errorf("expected untouched field to keep its default, got %q", got.PrivatePrefix)
	}
}

func TestLoadFileMissingPathErrors(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatalf("expected an error for a missing config file")
	}
}

