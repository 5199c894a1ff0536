package hir

import "fmt"

// Kind is "the type of a type": it distinguishes ordinary types from the
// numeric const-generics used in array lengths and other value-level
// generics. Grounded on internal/typesystem/kinds.go's Kind interface,
// extended with the Numeric(inner) variant spec.md §3 requires.
type Kind interface {
	String() string
	// Unifies reports whether this kind is compatible with other, without
	// mutating either side (kinds carry no variables in this lattice).
	Unifies(other Kind) bool
	// DefaultType returns the type an unbound variable of this kind
	// defaults to when no other constraint picks a concrete type.
	DefaultType() Type
}

type KindAny struct{}
type KindNormal struct{}
type KindInteger struct{}
type KindIntegerOrField struct{}
type KindNumeric struct{ Inner Type }

func (KindAny) String() string            { return "Any" }
func (KindNormal) String() string         { return "Normal" }
func (KindInteger) String() string        { return "Integer" }
func (KindIntegerOrField) String() string { return "IntegerOrField" }
func (k KindNumeric) String() string      { return fmt.Sprintf("Numeric(%s)", k.Inner) }

func (KindAny) Unifies(other Kind) bool { return true }
func (KindNormal) Unifies(other Kind) bool {
	if _, ok := other.(KindAny); ok {
		return true
	}
	_, ok := other.(KindNormal)
	return ok
}
func (KindInteger) Unifies(other Kind) bool {
	switch other.(type) {
	case KindAny, KindInteger, KindIntegerOrField:
		return true
	default:
		return false
	}
}
func (KindIntegerOrField) Unifies(other Kind) bool {
	switch other.(type) {
	case KindAny, KindInteger, KindIntegerOrField:
		return true
	default:
		return false
	}
}
func (k KindNumeric) Unifies(other Kind) bool {
	if _, ok := other.(KindAny); ok {
		return true
	}
	o, ok := other.(KindNumeric)
	if !ok {
		return false
	}
	return TypesEqual(k.Inner, o.Inner)
}

func (KindAny) DefaultType() Type            { return nil }
func (KindNormal) DefaultType() Type         { return nil }
func (KindInteger) DefaultType() Type        { return Integer{Signedness: Signed, Bits: 32} }
func (KindIntegerOrField) DefaultType() Type { return FieldElement{} }
func (k KindNumeric) DefaultType() Type      { return k.Inner }
