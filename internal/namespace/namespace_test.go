package namespace

import (
	"testing"

	"github.com/velalang/vela/internal/value"
)

func TestDefineAndMemberGet(t *testing.T) {
	n := New("global", nil, "_")
	if err := n.Define("x", &Declaration{ID: "x", Kind: DeclVariable, Mutable: true, Value: value.NewInt(1)}, false); err != nil {
		t.Fatalf("Define: %v", err)
	}

	decl, err := n.MemberGet("x", "", false)
	if err != nil {
		t.Fatalf("MemberGet: %v", err)
	}
	if iv, ok := decl.Value.(*value.Int); !ok || iv.V != 1 {
		t.Errorf("expected value 1, got %v", decl.Value)
	}
}

func TestDefineRejectsRedeclarationWithoutOverride(t *testing.T) {
	n := New("global", nil, "_")
	n.Define("x", &Declaration{ID: "x", Kind: DeclVariable, Value: value.NewInt(1)}, false)
	if err := n.Define("x", &Declaration{ID: "x", Kind: DeclVariable, Value: value.NewInt(2)}, false); err == nil {
		t.Fatalf("expected a redeclaration error")
	}
	if err := n.Define("x", &Declaration{ID: "x", Kind: DeclVariable, Value: value.NewInt(2)}, true); err != nil {
		t.Fatalf("expected override to succeed, got %v", err)
	}
}

func TestMemberGetUndefinedErrors(t *testing.T) {
	n := New("global", nil, "_")
	if _, err := n.MemberGet("missing", "", false); err == nil {
		t.Fatalf("expected an undefined-symbol error")
	}
}

func TestMemberGetWalksClosureWhenRecursive(t *testing.T) {
	outer := New("outer", nil, "_")
	outer.Define("shared", &Declaration{ID: "shared", Kind: DeclVariable, Value: value.NewInt(42)}, false)
	inner := New("inner", outer, "_")

	if _, err := inner.MemberGet("shared", "", false); err == nil {
		t.Fatalf("expected non-recursive lookup to miss the enclosing scope")
	}
	decl, err := inner.MemberGet("shared", "", true)
	if err != nil {
		t.Fatalf("expected recursive lookup to find the enclosing symbol: %v", err)
	}
	if decl.Value.(*value.Int).V != 42 {
		t.Errorf("expected 42, got %v", decl.Value)
	}
}

func TestPrivateMemberVisibility(t *testing.T) {
	n := New("mypkg", nil, "_")
	n.Define("_secret", &Declaration{ID: "_secret", Kind: DeclVariable, Value: value.NewInt(1)}, false)

	if _, err := n.MemberGet("_secret", "otherpkg", false); err == nil {
		t.Fatalf("expected a caller outside the namespace to be denied")
	}
	if _, err := n.MemberGet("_secret", "mypkg", false); err != nil {
		t.Fatalf("expected a caller inside the namespace to succeed: %v", err)
	}
	if _, err := n.MemberGet("_secret", "mypkg.sub", false); err != nil {
		t.Fatalf("expected a caller in a nested scope to succeed: %v", err)
	}
}

func TestMemberSetMutatesExistingSymbol(t *testing.T) {
	n := New("global", nil, "_")
	n.Define("x", &Declaration{ID: "x", Kind: DeclVariable, Mutable: true, Value: value.NewInt(1)}, false)

	if err := n.MemberSet("x", value.NewInt(2), false, false); err != nil {
		t.Fatalf("MemberSet: %v", err)
	}
	decl, _ := n.MemberGet("x", "", false)
	if decl.Value.(*value.Int).V != 2 {
		t.Errorf("expected 2, got %v", decl.Value)
	}
}

func TestMemberSetRejectsImmutableReassignment(t *testing.T) {
	n := New("global", nil, "_")
	n.Define("pi", &Declaration{ID: "pi", Kind: DeclConstant, Mutable: false, Value: value.NewFloat(3.14)}, false)

	if err := n.MemberSet("pi", value.NewFloat(1), false, false); err == nil {
		t.Fatalf("expected reassigning an immutable, already-valued symbol to fail")
	}
}

func TestMemberSetDefinesWhenAbsentAndAllowed(t *testing.T) {
	n := New("global", nil, "_")
	if err := n.MemberSet("y", value.NewInt(9), true, false); err != nil {
		t.Fatalf("MemberSet with defineIfAbsent: %v", err)
	}
	decl, err := n.MemberGet("y", "", false)
	if err != nil || decl.Value.(*value.Int).V != 9 {
		t.Fatalf("expected y to be implicitly declared with value 9, got %v, err %v", decl, err)
	}
}

func TestMemberSetWithoutDefineIfAbsentErrors(t *testing.T) {
	n := New("global", nil, "_")
	if err := n.MemberSet("z", value.NewInt(1), false, false); err == nil {
		t.Fatalf("expected an undefined-assignment error")
	}
}

func TestDeleteRemovesSymbol(t *testing.T) {
	n := New("global", nil, "_")
	n.Define("x", &Declaration{ID: "x", Kind: DeclVariable, Value: value.NewInt(1)}, false)
	if err := n.Delete("x"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := n.MemberGet("x", "", false); err == nil {
		t.Fatalf("expected x to be gone after Delete")
	}
	if err := n.Delete("x"); err == nil {
		t.Fatalf("expected deleting an already-deleted symbol to error")
	}
}

func TestFullNameJoinsClosureChain(t *testing.T) {
	root := New("", nil, "_")
	pkg := New("pkg", root, "_")
	sub := New("sub", pkg, "_")

	if got := sub.FullName(); got != "pkg.sub" {
		t.Errorf("expected 'pkg.sub', got %q", got)
	}
}

func TestImportCopiesPublicSymbolsOnly(t *testing.T) {
	source := New("lib", nil, "_")
	source.Define("Public", &Declaration{ID: "Public", Kind: DeclVariable, Value: value.NewInt(1)}, false)
	source.Define("_private", &Declaration{ID: "_private", Kind: DeclVariable, Value: value.NewInt(2)}, false)

	dest := New("main", nil, "_")
	dest.Import(source, false, nil)

	if _, err := dest.MemberGet("Public", "", false); err != nil {
		t.Fatalf("expected Public to be imported: %v", err)
	}
	if _, err := dest.MemberGet("_private", "", false); err == nil {
		t.Fatalf("expected _private to be excluded from the import")
	}
}

func TestImportRespectsShowList(t *testing.T) {
	source := New("lib", nil, "_")
	source.Define("A", &Declaration{ID: "A", Kind: DeclVariable, Value: value.NewInt(1)}, false)
	source.Define("B", &Declaration{ID: "B", Kind: DeclVariable, Value: value.NewInt(2)}, false)

	dest := New("main", nil, "_")
	dest.Import(source, false, []string{"A"})

	if _, err := dest.MemberGet("A", "", false); err != nil {
		t.Fatalf("expected A to be imported: %v", err)
	}
	if _, err := dest.MemberGet("B", "", false); err == nil {
		t.Fatalf("expected B to be excluded by the show-list")
	}
}
