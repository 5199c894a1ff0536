// Package diagnostics implements spec.md §6/§7's CompilationError union and
// its terminal rendering. Grounded on typesystem/error.go's sentinel
// error-struct-per-kind pattern (generalized from one concrete type per
// error into a single tagged Kind field, since spec.md §6 specifies the
// union's variants as a closed set rather than leaving room for ad hoc
// error types per call site) and on evaluator/builtins_term.go's
// isatty-gated color decision for rendering.
package diagnostics

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/latticec/zkmid/internal/hir"
)

// Kind tags which of spec.md §6's four CompilationError variants an error
// carries: resolver error, type-check error, monomorphization error, or
// comptime-interpreter error.
type Kind int

const (
	Resolver Kind = iota
	TypeCheck
	Monomorphization
	Interpreter
)

func (k Kind) String() string {
	switch k {
	case Resolver:
		return "resolver error"
	case TypeCheck:
		return "type error"
	case Monomorphization:
		return "monomorphization error"
	case Interpreter:
		return "comptime error"
	default:
		return "error"
	}
}

// SecondaryLabel attaches an additional location to a CompilationError, e.g.
// the first overlapping impl's definition site for an overlap error
// (spec.md §4.1's add_trait_implementation contract: "Returns the location
// of the first overlapping impl on conflict").
type SecondaryLabel struct {
	Location hir.Location
	Message  string
}

// CompilationError is the tagged union spec.md §6 names. It always carries
// a primary source location; TypeAnnotationsNeeded-style "indicator" errors
// (spec.md §7) use the same shape with Indicator set so callers can decide
// whether to upgrade them to a hard error after a defaulting pass.
type CompilationError struct {
	Kind      Kind
	Message   string
	Primary   hir.Location
	Secondary []SecondaryLabel
	Indicator bool
}

func New(kind Kind, loc hir.Location, format string, args ...any) *CompilationError {
	return &CompilationError{Kind: kind, Primary: loc, Message: fmt.Sprintf(format, args...)}
}

// WithSecondary returns e with an additional secondary label attached,
// chainable at the call site that raises the error.
func (e *CompilationError) WithSecondary(loc hir.Location, format string, args ...any) *CompilationError {
	e.Secondary = append(e.Secondary, SecondaryLabel{Location: loc, Message: fmt.Sprintf(format, args...)})
	return e
}

func (e *CompilationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Primary, e.Kind, e.Message)
}

// useColor mirrors builtins_term.go's isTTY check: ANSI color is only ever
// emitted when w is a real terminal (including Windows' Cygwin-style
// terminals), never when piped to a file or another process.
func useColor(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

const (
	colorRed    = "\x1b[31;1m"
	colorYellow = "\x1b[33;1m"
	colorDim    = "\x1b[2m"
	colorReset  = "\x1b[0m"
)

// Render writes every error in errs to w, one per paragraph, color-coded by
// severity when w is a terminal.
func Render(w io.Writer, errs []*CompilationError) {
	color := useColor(w)
	for _, e := range errs {
		sev, reset := "", ""
		if color {
			if e.Indicator {
				sev, reset = colorYellow, colorReset
			} else {
				sev, reset = colorRed, colorReset
			}
		}
		fmt.Fprintf(w, "%s%s%s: %s\n  --> %s\n", sev, e.Kind, reset, e.Message, e.Primary)
		for _, s := range e.Secondary {
			dim, dimReset := "", ""
			if color {
				dim, dimReset = colorDim, colorReset
			}
			fmt.Fprintf(w, "  %snote: %s\n  --> %s%s\n", dim, s.Message, s.Location, dimReset)
		}
	}
}

// HasHardErrors reports whether errs contains any non-Indicator error —
// cmd/zkmidc renders the errors and exits with status 1 instead of printing
// the run's results when this is true (spec.md §7: "A
// failing compile prints all accumulated type errors").
func HasHardErrors(errs []*CompilationError) bool {
	for _, e := range errs {
		if !e.Indicator {
			return true
		}
	}
	return false
}
