package hir

// WhereClauseItem is one `T: Trait<Args>` bound.
type WhereClauseItem struct {
	ObjectType   Type
	TraitId      TraitId
	TraitName    string
	TraitGenerics []Type
}

// AssociatedType is a named type member a trait declares and each impl
// fixes (spec.md §3's "Associated type").
type AssociatedType struct {
	Name string
	K    Kind
}

type Trait struct {
	Id              TraitId
	Name            string
	Location        Location
	Generics        []GenericParam
	SelfTypeVar     *Cell
	Methods         []FuncId // method signatures, in declaration order
	MethodNames     []string
	AssociatedTypes []AssociatedType
	AssocTypeBounds map[string][]WhereClauseItem
	TraitBounds     []WhereClauseItem // super-traits
	WhereClause     []WhereClauseItem
}

func (t *Trait) MethodName(id FuncId) (string, bool) {
	for i, m := range t.Methods {
		if m == id {
			return t.MethodNames[i], true
		}
	}
	return "", false
}

// TraitImpl is a concrete `impl Trait<TraitGenerics> for ObjectType` block.
type TraitImpl struct {
	Id                TraitImplId
	ObjectType        Type
	TraitId           TraitId
	Generics          []GenericParam // impl's own generic parameters
	OrderedTraitGenerics []Type
	NamedAssociated   map[string]Type
	WhereClause       []WhereClauseItem
	Methods           []FuncId
	MethodNames       map[string]FuncId
	CrateId           int
	Location          Location
}

// TraitImplKind distinguishes a concrete impl from one merely assumed to
// exist because it appears in a where-clause (spec.md §3/§4.1). Assumed
// impls carry no method bodies and must be re-resolved to a concrete impl
// once the caller's types are known (the monomorphizer's job, spec.md §4.3).
type TraitImplKind struct {
	Concrete *TraitImplId // nil if Assumed
	Assumed  *AssumedImpl // nil if Concrete
}

// AssumedImpl records enough of the where-clause bound to re-run impl
// search later: which trait, and the object/trait generics as they stood
// at resolution time (still possibly unbound type variables). TraitId is
// what actually lets the monomorphizer call back into
// types.LookupTraitImplementation once the caller's generics are concrete.
type AssumedImpl struct {
	ObjectType    Type
	TraitId       TraitId
	TraitGenerics []Type
}

func ConcreteImplKind(id TraitImplId) TraitImplKind { return TraitImplKind{Concrete: &id} }
func AssumedImplKind(objectType Type, traitId TraitId, generics []Type) TraitImplKind {
	return TraitImplKind{Assumed: &AssumedImpl{ObjectType: objectType, TraitId: traitId, TraitGenerics: generics}}
}

func (k TraitImplKind) IsAssumed() bool { return k.Assumed != nil }
