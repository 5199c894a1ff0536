package types

import (
	"fmt"

	"github.com/latticec/zkmid/internal/hir"
)

// KindMismatchError mirrors typesystem/kind_checker.go's unifyKinds failure
// mode, generalized from KVar/KArrow unification (funxy's kind system has
// no numeric-generic kinds) to this module's compatibility-based Kind
// interface (hir.Kind.Unifies), since spec.md §3's kinds don't form an
// arrow-kinded lattice — Any/Normal/Integer/IntegerOrField/Numeric(T) are
// checked by direct compatibility rather than substitution-based unification.
type KindMismatchError struct {
	Expected, Actual hir.Kind
}

func (e *KindMismatchError) Error() string {
	return fmt.Sprintf("kind mismatch: expected %s, got %s", e.Expected, e.Actual)
}

// CheckKind verifies that a value of kind actual may be used where expected
// is required.
func CheckKind(expected, actual hir.Kind) error {
	if !expected.Unifies(actual) {
		return &KindMismatchError{Expected: expected, Actual: actual}
	}
	return nil
}
