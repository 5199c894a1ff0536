package driver

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// Stats is the compile-run summary SPEC_FULL.md §4's "Supplemented Features"
// names: the original compiler exposes this kind of observability via
// --show-bytecode/timing flags, and it is harmless under spec.md's
// Non-goals (it is a run summary, not "human-readable source-to-source
// output").
type Stats struct {
	FunctionsMonomorphized int
	SpecializationsCreated int
	BytecodeBytes          int
	GlobalsHoisted         int
}

// String renders a one-line human-readable summary, following the
// teacher's general affinity for go-humanize wherever a byte/item count is
// surfaced to an operator.
func (s Stats) String() string {
	return fmt.Sprintf(
		"%s functions monomorphized, %s specializations, %s of bytecode, %s globals hoisted",
		humanize.Comma(int64(s.FunctionsMonomorphized)),
		humanize.Comma(int64(s.SpecializationsCreated)),
		humanize.Bytes(uint64(s.BytecodeBytes)),
		humanize.Comma(int64(s.GlobalsHoisted)),
	)
}
