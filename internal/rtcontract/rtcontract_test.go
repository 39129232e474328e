package rtcontract

import (
	"testing"

	"tinygo.org/x/go-llvm"
)

func TestDeclareIsMemoized(t *testing.T) {
	ctx := llvm.NewContext()
	defer ctx.Dispose()
	mod := ctx.NewModule("test")
	defer mod.Dispose()

	reg := NewRegistry(mod)

	first, err := reg.Declare("blood_perform")
	if err != nil {
		t.Fatalf("Declare: %v", err)
	}
	second, err := reg.Declare("blood_perform")
	if err != nil {
		t.Fatalf("Declare (again): %v", err)
	}
	if first != second {
		t.Error("expected the second Declare call to return the memoized value")
	}
}

func TestDeclareUnknownSymbolErrors(t *testing.T) {
	ctx := llvm.NewContext()
	defer ctx.Dispose()
	mod := ctx.NewModule("test")
	defer mod.Dispose()

	reg := NewRegistry(mod)
	if _, err := reg.Declare("not_a_runtime_function"); err == nil {
		t.Error("expected an error for an unknown contract symbol")
	}
}

func TestAllContractsHaveUniqueNames(t *testing.T) {
	seen := make(map[string]bool, len(Contracts))
	for _, c := range Contracts {
		if seen[c.Name] {
			t.Errorf("duplicate contract name %q", c.Name)
		}
		seen[c.Name] = true
	}
}

func TestLookupKnownSymbol(t *testing.T) {
	sig, ok := Lookup("blood_alloc_or_abort")
	if !ok {
		t.Fatal("expected blood_alloc_or_abort to be a known contract")
	}
	if len(sig.Params) != 3 {
		t.Errorf("expected 3 params, got %d", len(sig.Params))
	}
}
