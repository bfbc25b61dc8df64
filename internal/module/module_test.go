package module

import (
	"testing"

	"github.com/velalang/vela/internal/bytecode"
	"github.com/velalang/vela/internal/namespace"
	"github.com/velalang/vela/internal/value"
)

func buildModuleBytes() []byte {
	chunk := bytecode.NewChunk()
	chunk.WriteOp(bytecode.OpEndOfStmt, 1)
	w := bytecode.NewWriter()
	return w.Write("2026-01-01T00:00:00Z", "mod.vela", bytecode.SourceTypeModule, chunk)
}

func TestLoadBytecodeParsesHeader(t *testing.T) {
	cache := NewCache(bytecode.CurrentVersion)
	loaded, err := cache.LoadBytecode("mod", buildModuleBytes())
	if err != nil {
		t.Fatalf("LoadBytecode: %v", err)
	}
	if loaded.Filename != "mod.vela" {
		t.Errorf("expected filename mod.vela, got %q", loaded.Filename)
	}
	if loaded.SourceType != bytecode.SourceTypeModule {
		t.Errorf("expected SourceTypeModule, got %v", loaded.SourceType)
	}
}

func TestLoadBytecodeReturnsCachedRecordOnSecondCall(t *testing.T) {
	cache := NewCache(bytecode.CurrentVersion)
	raw := buildModuleBytes()
	first, err := cache.LoadBytecode("mod", raw)
	if err != nil {
		t.Fatalf("LoadBytecode: %v", err)
	}
	second, err := cache.LoadBytecode("mod", raw)
	if err != nil {
		t.Fatalf("LoadBytecode (second): %v", err)
	}
	if first != second {
		t.Errorf("expected the second load to return the identical cached record")
	}
}

func TestLoadBytecodeRejectsIncompatibleVersion(t *testing.T) {
	cache := NewCache(bytecode.Version{Major: 2, Minor: 0, Patch: 0})
	if _, err := cache.LoadBytecode("mod", buildModuleBytes()); err == nil {
		t.Errorf("expected an incompatible compiler version to error")
	}
}

func TestLoadBytecodeRejectsMalformedBytes(t *testing.T) {
	cache := NewCache(bytecode.CurrentVersion)
	if _, err := cache.LoadBytecode("mod", []byte{0, 1, 2, 3}); err == nil {
		t.Errorf("expected malformed bytes to fail the header check")
	}
}

func TestGetSetRoundTrip(t *testing.T) {
	cache := NewCache(bytecode.CurrentVersion)
	loaded := &Loaded{ID: "mod"}
	cache.Set("mod", loaded)
	got, ok := cache.Get("mod")
	if !ok || got != loaded {
		t.Fatalf("expected Get to return the Set record")
	}
	if _, ok := cache.Get("missing"); ok {
		t.Errorf("expected Get on an unset id to report not-ok")
	}
}

func TestResolveImportsPreloadedModule(t *testing.T) {
	cache := NewCache(bytecode.CurrentVersion)

	target := &Loaded{ID: "lib", Namespaces: map[string]*namespace.Namespace{}}
	libNs := namespace.New("lib", nil, "_")
	libNs.Define("Greet", &namespace.Declaration{ID: "Greet", Value: value.NewString("hi")}, false)
	target.Namespaces["lib"] = libNs
	cache.Set("lib", target)

	callerNs := namespace.New("main", nil, "_")
	callerNs.DeclareImport(&namespace.UnresolvedImport{FromPath: "module:lib"})

	loaded := &Loaded{ID: "main", Namespaces: map[string]*namespace.Namespace{"main": callerNs}, JSONSources: map[string]any{}}
	if err := cache.ResolveImports(loaded, nil, false, nil); err != nil {
		t.Fatalf("ResolveImports: %v", err)
	}

	decl, err := callerNs.MemberGet("Greet", "", false)
	if err != nil || decl.Value.(*value.String).V != "hi" {
		t.Fatalf("expected Greet to be resolved from the preloaded module, got %v, err %v", decl, err)
	}
}

func TestResolveImportsMissingModuleErrors(t *testing.T) {
	cache := NewCache(bytecode.CurrentVersion)
	callerNs := namespace.New("main", nil, "_")
	callerNs.DeclareImport(&namespace.UnresolvedImport{FromPath: "module:missing"})
	loaded := &Loaded{ID: "main", Namespaces: map[string]*namespace.Namespace{"main": callerNs}, JSONSources: map[string]any{}}

	if err := cache.ResolveImports(loaded, nil, false, nil); err == nil {
		t.Errorf("expected resolving an unloaded preloaded module to error")
	}
}

type fakeReader struct{ data map[string][]byte }

func (r fakeReader) ReadResource(path string) ([]byte, error) {
	if b, ok := r.data[path]; ok {
		return b, nil
	}
	return nil, errNotFound
}

var errNotFound = errNotFoundType{}

type errNotFoundType struct{}

func (errNotFoundType) Error() string { return "not found" }

func TestResolveImportsJSONResource(t *testing.T) {
	cache := NewCache(bytecode.CurrentVersion)
	reader := fakeReader{data: map[string][]byte{
		"data.json": []byte(`{"name": "vela", "count": 3, "tags": ["a", "b"]}`),
	}}

	callerNs := namespace.New("main", nil, "_")
	callerNs.DeclareImport(&namespace.UnresolvedImport{FromPath: "data.json", Alias: "data"})

	loaded := &Loaded{ID: "main", Namespaces: map[string]*namespace.Namespace{"main": callerNs}, JSONSources: map[string]any{}}
	if err := cache.ResolveImports(loaded, reader, false, nil); err != nil {
		t.Fatalf("ResolveImports: %v", err)
	}

	decl, err := callerNs.MemberGet("data", "", false)
	if err != nil {
		t.Fatalf("MemberGet: %v", err)
	}
	name, err := decl.Value.MemberGet("name", "", false)
	if err != nil || name.(*value.String).V != "vela" {
		t.Fatalf("expected decoded JSON field 'name' = 'vela', got %v, err %v", name, err)
	}
}

func TestResolveImportsGloballyImportsIntoGlobalNamespace(t *testing.T) {
	cache := NewCache(bytecode.CurrentVersion)
	modNs := namespace.New("mod", nil, "_")
	modNs.Define("Exported", &namespace.Declaration{ID: "Exported", Value: value.NewInt(1)}, false)

	loaded := &Loaded{ID: "mod", Namespaces: map[string]*namespace.Namespace{"mod": modNs}, JSONSources: map[string]any{}}
	global := namespace.New("global", nil, "_")

	if err := cache.ResolveImports(loaded, nil, true, global); err != nil {
		t.Fatalf("ResolveImports: %v", err)
	}
	if _, err := global.MemberGet("Exported", "", false); err != nil {
		t.Fatalf("expected the module's symbols to be imported into the global namespace: %v", err)
	}
}
