package mono

import (
	"testing"

	"github.com/latticec/zkmid/internal/fixtures"
	"github.com/latticec/zkmid/internal/monoast"
)

func TestIdentitySpecializesOncePerTypeArgument(t *testing.T) {
	prog := fixtures.Identity()

	s := New(prog.Interner)
	if _, err := s.Specialize(prog.Main, nil); err != nil {
		t.Fatalf("Specialize(main) failed: %v", err)
	}
	funcs, err := s.Run()
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}

	names := make(map[string]bool)
	for _, f := range funcs {
		names[f.Name] = true
	}

	if !names["main"] {
		t.Errorf("expected a specialization named %q, got %v", "main", names)
	}
	if !names["id<u32>"] {
		t.Errorf("expected a specialization named %q, got %v", "id<u32>", names)
	}
	if !names["id<bool>"] {
		t.Errorf("expected a specialization named %q, got %v", "id<bool>", names)
	}
	if len(names) != 3 {
		t.Errorf("got %d distinct specializations, want exactly 3 (main, id<u32>, id<bool>): %v", len(names), names)
	}
}

// TestClosureCaptureLiftsToHoistedFunctionWithEnvTuple checks spec.md
// §4.3's closure lifting end to end: a capturing closure bound by a direct
// let hoists to its own *monoast.Func (env tuple prepended as parameter 0)
// and the let's value becomes a (env, FuncRef) tuple.
func TestClosureCaptureLiftsToHoistedFunctionWithEnvTuple(t *testing.T) {
	prog := fixtures.ClosureCapture()

	s := New(prog.Interner)
	if _, err := s.Specialize(prog.Main, nil); err != nil {
		t.Fatalf("Specialize(main) failed: %v", err)
	}
	funcs, err := s.Run()
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}

	var main, hoisted *monoast.Func
	for _, f := range funcs {
		switch f.Name {
		case "main":
			main = f
		default:
			hoisted = f
		}
	}
	if main == nil {
		t.Fatalf("expected a %q specialization, got %d funcs", "main", len(funcs))
	}
	if hoisted == nil {
		t.Fatalf("expected a hoisted closure function alongside main, got %d funcs", len(funcs))
	}
	if len(hoisted.Params) != 2 {
		t.Errorf("hoisted closure params = %d, want 2 (env, y)", len(hoisted.Params))
	}

	block, ok := main.Body.Kind.(monoast.Block)
	if !ok {
		t.Fatalf("main body is %T, want monoast.Block", main.Body.Kind)
	}
	var closureLet *monoast.Let
	for _, stmt := range block.Statements {
		if stmt.IsLet {
			if _, isTuple := stmt.Let.Value.Kind.(monoast.Tuple); isTuple {
				closureLet = stmt.Let
			}
		}
	}
	if closureLet == nil {
		t.Fatalf("expected a let binding whose value is a (env, FuncRef) tuple in: %+v", block.Statements)
	}
	tuple := closureLet.Value.Kind.(monoast.Tuple)
	if len(tuple.Elements) != 2 {
		t.Fatalf("closure binding tuple has %d elements, want 2 (env, FuncRef)", len(tuple.Elements))
	}
	if _, ok := tuple.Elements[0].Kind.(monoast.Tuple); !ok {
		t.Errorf("closure binding's first element is %T, want the env Tuple", tuple.Elements[0].Kind)
	}
	ref, ok := tuple.Elements[1].Kind.(monoast.FuncRef)
	if !ok {
		t.Fatalf("closure binding's second element is %T, want monoast.FuncRef", tuple.Elements[1].Kind)
	}
	if ref.Name != hoisted.Name {
		t.Errorf("FuncRef names %q, want the hoisted function's own name %q", ref.Name, hoisted.Name)
	}
}

func TestMangleNameOmitsBracketsForNonGenericFunctions(t *testing.T) {
	if got := MangleName("main", nil); got != "main" {
		t.Errorf("MangleName(main, nil) = %q, want %q", got, "main")
	}
}

// TestSlicePushBackLowersToTaggedIntrinsicCall checks spec.md §8 scenario 6
// end to end: `s.push_back(x)` (a Resolved-nil MethodCall, since push_back
// is never a user-defined trait method) must lower to the tagged call name
// internal/ssa's builder recognizes as a slice length-bookkeeping intrinsic.
func TestSlicePushBackLowersToTaggedIntrinsicCall(t *testing.T) {
	prog := fixtures.SlicePushBack()

	s := New(prog.Interner)
	if _, err := s.Specialize(prog.Main, nil); err != nil {
		t.Fatalf("Specialize(main) failed: %v", err)
	}
	funcs, err := s.Run()
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}

	var grow *monoast.Func
	for _, f := range funcs {
		if f.Name == "grow" {
			grow = f
		}
	}
	if grow == nil {
		t.Fatalf("expected a specialization named %q, got %d funcs", "grow", len(funcs))
	}

	call, ok := grow.Body.Kind.(monoast.Call)
	if !ok {
		t.Fatalf("grow body = %T, want monoast.Call", grow.Body.Kind)
	}
	if call.Func != "__slice_push_back" {
		t.Errorf("call.Func = %q, want %q", call.Func, "__slice_push_back")
	}
	if len(call.Args) != 2 {
		t.Fatalf("got %d args, want 2 (slice receiver, pushed value)", len(call.Args))
	}
}
