// Package module implements the module cache of §3/§4.G: module id to
// loaded bytecode, its namespaces, JSON resources, and import resolution
// at endOfModule.
package module

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/velalang/vela/internal/bytecode"
	velaerrors "github.com/velalang/vela/internal/errors"
	"github.com/velalang/vela/internal/namespace"
	"github.com/velalang/vela/internal/value"
)

// Loaded is one cached module record.
type Loaded struct {
	ID          string
	Raw         []byte
	Ip          int
	Version     bytecode.Version
	CompiledAt  string
	Filename    string
	SourceType  bytecode.SourceType
	Namespaces  map[string]*namespace.Namespace
	JSONSources map[string]any
	Code        *bytecode.Chunk
}

// ResourceReader fetches source/bytecode/JSON text for a module path; the
// resource/source loader is an external collaborator (§1) -- the cache
// only depends on this narrow contract.
type ResourceReader interface {
	ReadResource(path string) ([]byte, error)
}

// Cache is the VM-owned map of module id -> loaded record.
type Cache struct {
	modules       map[string]*Loaded
	magic         uint32
	engineVersion bytecode.Version
}

func NewCache(engineVersion bytecode.Version) *Cache {
	return &Cache{modules: make(map[string]*Loaded), magic: bytecode.MagicNumber, engineVersion: engineVersion}
}

func (c *Cache) Get(id string) (*Loaded, bool) {
	l, ok := c.modules[id]
	return l, ok
}

func (c *Cache) Set(id string, l *Loaded) { c.modules[id] = l }

// LoadBytecode implements §4.G: if cached, rebind; else parse the header
// (signature, compiler version compatibility, compiledAt, filename,
// source kind) and install a new module record.
func (c *Cache) LoadBytecode(id string, raw []byte) (*Loaded, error) {
	if existing, ok := c.modules[id]; ok {
		return existing, nil
	}
	mod, err := bytecode.ReadModule(raw)
	if err != nil {
		return nil, err
	}
	if !c.engineVersion.Compatible(mod.Version) {
		return nil, velaerrors.New(velaerrors.KindVersion, "incompatible compiler version %s (engine is %s)", mod.Version, c.engineVersion)
	}
	loaded := &Loaded{
		ID:          id,
		Raw:         raw,
		Version:     mod.Version,
		CompiledAt:  mod.CompiledAt,
		Filename:    mod.Filename,
		SourceType:  mod.SourceType,
		Namespaces:  make(map[string]*namespace.Namespace),
		JSONSources: make(map[string]any),
		Code:        mod.Code,
	}
	c.modules[id] = loaded
	return loaded, nil
}

// ResolveImports implements §4.J's endOfModule pass: for every namespace of
// the module and every recorded import, resolve against preloaded modules,
// already-loaded module namespaces, or JSON resources.
func (c *Cache) ResolveImports(l *Loaded, reader ResourceReader, globallyImport bool, global *namespace.Namespace) error {
	for _, ns := range l.Namespaces {
		for key, imp := range ns.Imports() {
			if err := c.resolveOne(l, ns, key, imp, reader); err != nil {
				return err
			}
		}
		if globallyImport && global != nil {
			global.Import(ns, false, nil)
		}
	}
	return nil
}

const preloadedPrefix = "module:"

func (c *Cache) resolveOne(l *Loaded, ns *namespace.Namespace, key string, imp *namespace.UnresolvedImport, reader ResourceReader) error {
	switch {
	case len(imp.FromPath) > len(preloadedPrefix) && imp.FromPath[:len(preloadedPrefix)] == preloadedPrefix:
		targetID := imp.FromPath[len(preloadedPrefix):]
		target, ok := c.modules[targetID]
		if !ok {
			return velaerrors.New(velaerrors.KindUndefined, "preloaded module %q not found", targetID)
		}
		return copyModuleNamespace(ns, target, imp)
	case isModulePath(imp.FromPath):
		target, ok := c.modules[imp.FromPath]
		if !ok {
			return velaerrors.New(velaerrors.KindUndefined, "module %q not loaded", imp.FromPath)
		}
		return copyModuleNamespace(ns, target, imp)
	default:
		if reader == nil {
			return velaerrors.New(velaerrors.KindExtern, "no resource reader configured for %q", imp.FromPath)
		}
		raw, err := reader.ReadResource(imp.FromPath)
		if err != nil {
			return velaerrors.New(velaerrors.KindExtern, "reading %q: %v", imp.FromPath, err)
		}
		var decoded any
		if err := json.Unmarshal(raw, &decoded); err != nil {
			return velaerrors.New(velaerrors.KindExtern, "decoding json %q: %v", imp.FromPath, err)
		}
		l.JSONSources[imp.FromPath] = decoded
		alias := imp.Alias
		if alias == "" {
			alias = fmt.Sprintf("json_%d", len(l.JSONSources))
		}
		ns.DefineImport(alias, jsonToValue(decoded), imp.FromPath)
		return nil
	}
}

func isModulePath(path string) bool {
	return strings.HasSuffix(path, ".vela") || strings.HasSuffix(path, bytecode.FileExtension)
}

func copyModuleNamespace(into *namespace.Namespace, target *Loaded, imp *namespace.UnresolvedImport) error {
	for _, targetNs := range target.Namespaces {
		into.Import(targetNs, imp.IsExported, imp.ShowList)
	}
	return nil
}

// jsonToValue converts a decoded encoding/json value (float64/string/bool/
// nil/[]any/map[string]any) into this module's value.Value encapsulation.
func jsonToValue(v any) value.Value {
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
			items[i] = jsonToValue(e)
		}
		return value.NewList(items)
	case map[string]any:
		m := value.NewMap()
		for k, e := range t {
			m.SubSet(value.NewString(k), jsonToValue(e))
		}
		return m
	default:
		return value.Null
	}
}
