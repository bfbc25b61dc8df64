// Package namespace implements the named-scope component of §3/§4.C:
// symbols, imports, exports, private visibility, and recursive lookup.
package namespace

import (
	"strings"

	velaerrors "github.com/velalang/vela/internal/errors"
	"github.com/velalang/vela/internal/types"
	"github.com/velalang/vela/internal/value"
)

// DeclKind distinguishes the named-entry kinds §3 lists under Declaration.
type DeclKind uint8

const (
	DeclVariable DeclKind = iota
	DeclConstant
	DeclFunction
	DeclClass
	DeclStruct
	DeclTypeAlias
	DeclParameter
	DeclExternalClass
)

// LateInit is the deferred-evaluation record a variable may carry so its
// first read triggers bytecode execution at (Ip, Line, Column).
type LateInit struct {
	Ip     int
	Line   int
	Column int
}

// Declaration is a namespace entry: a variable, constant, function, class,
// struct-definition, type-alias, parameter, or external-class.
type Declaration struct {
	ID          string
	Kind        DeclKind
	Doc         string
	DeclaredType types.Type
	Mutable     bool
	IsExternal  bool
	IsStatic    bool
	// IsPrivate is a cache of the prefix check performed at Define time;
	// per the spec's Open Question resolution, the prefix check on ID
	// remains ground truth and this flag is never consulted independently.
	IsPrivate bool
	Late      *LateInit
	Value     value.Value
}

// UnresolvedImport is a recorded but not-yet-resolved import statement.
type UnresolvedImport struct {
	FromPath   string
	Alias      string
	ShowList   []string
	IsExported bool
	IsPreloaded bool
}

// Namespace is a named scope with a closure chain to its enclosing scope.
type Namespace struct {
	ID      string
	ClassID string
	Closure *Namespace

	PrivatePrefix string

	symbols         map[string]*Declaration
	imports         map[string]*UnresolvedImport
	exports         map[string]bool
	willExportAll   bool
	importedSymbols map[string]*Declaration
}

func New(id string, closure *Namespace, privatePrefix string) *Namespace {
	return &Namespace{
		ID:              id,
		Closure:         closure,
		PrivatePrefix:   privatePrefix,
		symbols:         make(map[string]*Declaration),
		imports:         make(map[string]*UnresolvedImport),
		exports:         make(map[string]bool),
		importedSymbols: make(map[string]*Declaration),
	}
}

// FullName is the dot-joined path from the outermost enclosing namespace to
// this one, used by the private-visibility check.
func (n *Namespace) FullName() string {
	if n.Closure == nil || n.Closure.ID == "" {
		return n.ID
	}
	return n.Closure.FullName() + "." + n.ID
}

// IsPrivateID reports whether id follows this namespace's private-prefix
// convention -- the ground truth of the private/visibility rule (§9 open
// question resolution).
func (n *Namespace) IsPrivateID(id string) bool {
	return n.PrivatePrefix != "" && strings.HasPrefix(id, n.PrivatePrefix)
}

// Define adds or replaces a symbol. If override is false and id is already
// declared, it raises KindDefined.
func (n *Namespace) Define(id string, decl *Declaration, override bool) error {
	if _, exists := n.symbols[id]; exists && !override {
		return velaerrors.New(velaerrors.KindDefined, "%q is already defined", id)
	}
	decl.IsPrivate = n.IsPrivateID(id)
	n.symbols[id] = decl
	return nil
}

func (n *Namespace) Delete(id string) error {
	if _, exists := n.symbols[id]; !exists {
		return velaerrors.New(velaerrors.KindDelete, "%q is not defined", id)
	}
	delete(n.symbols, id)
	return nil
}

func (n *Namespace) visibleTo(from string) bool {
	if from == "" {
		return true
	}
	return strings.HasPrefix(from, n.FullName())
}

// MemberGet resolves id, walking enclosing closures when isRecursive is
// true. from is the caller's fullName, used for the private check.
func (n *Namespace) MemberGet(id, from string, isRecursive bool) (*Declaration, error) {
	if decl, ok := n.symbols[id]; ok {
		if n.IsPrivateID(id) && !n.visibleTo(from) {
			return nil, velaerrors.New(velaerrors.KindPrivateMember, "%q is private to %s", id, n.FullName())
		}
		return decl, nil
	}
	if decl, ok := n.importedSymbols[id]; ok {
		return decl, nil
	}
	if isRecursive && n.Closure != nil {
		return n.Closure.MemberGet(id, from, isRecursive)
	}
	return nil, velaerrors.New(velaerrors.KindUndefined, "undefined: %q", id)
}

// MemberSet writes to an existing declaration, walking closures when
// isRecursive is true; if absent and defineIfAbsent is true, it declares a
// new mutable variable in this namespace instead of raising KindUndefined.
func (n *Namespace) MemberSet(id string, v value.Value, defineIfAbsent, isRecursive bool) error {
	if decl, ok := n.symbols[id]; ok {
		if !decl.Mutable && decl.Value != nil {
			return velaerrors.New(velaerrors.KindDefined, "%q is not mutable", id)
		}
		decl.Value = v
		return nil
	}
	if isRecursive && n.Closure != nil {
		if err := n.Closure.MemberSet(id, v, false, isRecursive); err == nil {
			return nil
		}
	}
	if defineIfAbsent {
		return n.Define(id, &Declaration{ID: id, Kind: DeclVariable, Mutable: true, Value: v}, false)
	}
	return velaerrors.New(velaerrors.KindUndefined, "undefined: %q", id)
}

func (n *Namespace) DeclareImport(imp *UnresolvedImport) {
	key := imp.FromPath
	if imp.Alias != "" {
		key = imp.FromPath + "#" + imp.Alias
	}
	n.imports[key] = imp
}

func (n *Namespace) Imports() map[string]*UnresolvedImport { return n.imports }

// DefineImport installs a resolved import's value under alias in
// importedSymbols; fromPath is not recorded.
func (n *Namespace) DefineImport(alias string, v value.Value, fromPath string) {
	id := alias
	decl := &Declaration{ID: id, Kind: DeclVariable, Value: v}
	n.importedSymbols[id] = decl
}

func (n *Namespace) DeclareExport(id string) {
	n.exports[id] = true
}

func (n *Namespace) SetWillExportAll(v bool) { n.willExportAll = v }
func (n *Namespace) WillExportAll() bool     { return n.willExportAll }

// Import copies symbols from other into n, honoring an optional show-list
// filter (idOnly) and whether imported names are re-exported.
func (n *Namespace) Import(other *Namespace, export bool, idOnly []string) {
	allowed := func(id string) bool {
		if len(idOnly) == 0 {
			return true
		}
		for _, a := range idOnly {
			if a == id {
				return true
			}
		}
		return false
	}
	for id, decl := range other.symbols {
		if other.IsPrivateID(id) || !allowed(id) {
			continue
		}
		n.importedSymbols[id] = decl
		if export {
			n.exports[id] = true
		}
	}
}

// Symbols exposes the declared (non-imported) symbol table for iteration.
func (n *Namespace) Symbols() map[string]*Declaration { return n.symbols }
