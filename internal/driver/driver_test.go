package driver

import (
	"testing"

	"github.com/latticec/zkmid/internal/fixtures"
	"github.com/latticec/zkmid/internal/types"
)

func TestRunIdentityProducesThreeSpecializations(t *testing.T) {
	prog := fixtures.Identity()

	result, err := Run(prog.Interner, prog.Main, nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if got := len(result.Program.Functions); got != 3 {
		t.Fatalf("got %d functions, want 3 (main, id<u32>, id<bool>): %+v", got, result.Program.Functions)
	}
	if result.Stats.FunctionsMonomorphized != 3 {
		t.Errorf("Stats.FunctionsMonomorphized = %d, want 3", result.Stats.FunctionsMonomorphized)
	}
	if result.Program.CompilationUnitID == "" {
		t.Errorf("Program.CompilationUnitID is empty, want a generated uuid")
	}
	for _, fn := range result.Program.Functions {
		if _, ok := result.Bytecode[fn.Name]; !ok {
			t.Errorf("no bytecode chunk generated for function %q", fn.Name)
		}
	}
}

func TestRunDefaultsConfigWhenNil(t *testing.T) {
	prog := fixtures.CheckedAdd()

	result, err := Run(prog.Interner, prog.Main, nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(result.Program.Functions) != 1 {
		t.Fatalf("got %d functions, want 1", len(result.Program.Functions))
	}
	chunk, ok := result.Bytecode["checked_add"]
	if !ok {
		t.Fatalf("no bytecode chunk for checked_add")
	}
	if chunk.Len() == 0 {
		t.Errorf("checked_add chunk has zero bytes")
	}
}

func TestRunRespectsImplSearchBudgetFromConfig(t *testing.T) {
	prog := fixtures.CheckedAdd()
	cfg := DefaultConfig()
	cfg.ImplSearchBudget = 3

	if _, err := Run(prog.Interner, prog.Main, cfg); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if types.MaxImplSearchDepth != 3 {
		t.Errorf("types.MaxImplSearchDepth = %d, want 3 from cfg.ImplSearchBudget", types.MaxImplSearchDepth)
	}
}

func TestRunUnknownMainReturnsError(t *testing.T) {
	prog := fixtures.Identity()
	if _, err := Run(prog.Interner, prog.Main+1000, nil); err == nil {
		t.Errorf("Run with unknown main id = nil error, want error")
	}
}
