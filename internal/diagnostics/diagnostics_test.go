package diagnostics

import (
	"bytes"
	"strings"
	"testing"

	"github.com/latticec/zkmid/internal/hir"
)

func TestErrorFormatsKindLocationAndMessage(t *testing.T) {
	loc := hir.Location{File: "foo.nr", Line: 3, Col: 5}
	e := New(TypeCheck, loc, "expected %s, found %s", "u32", "bool")

	got := e.Error()
	want := "foo.nr:3:5: type error: expected u32, found bool"
	if got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestWithSecondaryIsChainableAndAccumulates(t *testing.T) {
	loc := hir.Location{File: "a.nr", Line: 1, Col: 1}
	other := hir.Location{File: "a.nr", Line: 2, Col: 1}

	e := New(Resolver, loc, "overlapping impl").
		WithSecondary(other, "first impl defined here")

	if len(e.Secondary) != 1 {
		t.Fatalf("got %d secondary labels, want 1", len(e.Secondary))
	}
	if e.Secondary[0].Location != other {
		t.Errorf("secondary location = %v, want %v", e.Secondary[0].Location, other)
	}
}

func TestHasHardErrorsIgnoresIndicatorOnly(t *testing.T) {
	indicatorOnly := []*CompilationError{
		{Kind: TypeCheck, Indicator: true, Message: "type annotations needed"},
	}
	if HasHardErrors(indicatorOnly) {
		t.Errorf("HasHardErrors = true for indicator-only errors, want false")
	}

	mixed := append(indicatorOnly, &CompilationError{Kind: Resolver, Message: "undefined variable"})
	if !HasHardErrors(mixed) {
		t.Errorf("HasHardErrors = false with a non-indicator error present, want true")
	}
}

func TestRenderWritesOneParagraphPerErrorWithoutColorOnNonTerminal(t *testing.T) {
	var buf bytes.Buffer
	errs := []*CompilationError{
		New(Monomorphization, hir.Location{File: "b.nr", Line: 7, Col: 2}, "no matching specialization"),
	}
	Render(&buf, errs)

	out := buf.String()
	if strings.Contains(out, "\x1b[") {
		t.Errorf("Render emitted ANSI escapes to a non-*os.File writer: %q", out)
	}
	if !strings.Contains(out, "monomorphization error") || !strings.Contains(out, "b.nr:7:2") {
		t.Errorf("Render output missing kind or location: %q", out)
	}
}

func TestRenderIncludesSecondaryNotes(t *testing.T) {
	var buf bytes.Buffer
	e := New(Resolver, hir.Location{File: "c.nr", Line: 1, Col: 1}, "overlapping impl").
		WithSecondary(hir.Location{File: "c.nr", Line: 9, Col: 1}, "first impl defined here")
	Render(&buf, []*CompilationError{e})

	out := buf.String()
	if !strings.Contains(out, "first impl defined here") || !strings.Contains(out, "c.nr:9:1") {
		t.Errorf("Render output missing secondary note: %q", out)
	}
}
