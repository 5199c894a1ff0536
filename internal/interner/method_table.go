package interner

import "github.com/latticec/zkmid/internal/hir"

// TypeMethodKey identifies the "outer shape" of a type for the purposes of
// inherent/trait method lookup: its constructor tag plus, for DataTypeRef,
// the concrete TypeId. Two types with the same key are candidates for the
// same method set; generics and cell bindings are ignored at this level,
// matching spec.md §4.2's "lookup by type shape, then filter by unifying
// the receiver" method resolution algorithm.
type TypeMethodKey struct {
	Tag    string
	TypeId hir.TypeId // only meaningful when Tag == "DataTypeRef"
}

func KeyOf(t hir.Type) TypeMethodKey {
	switch t := t.(type) {
	case hir.DataTypeRef:
		return TypeMethodKey{Tag: "DataTypeRef", TypeId: t.Id}
	case hir.FieldElement:
		return TypeMethodKey{Tag: "Field"}
	case hir.Integer:
		return TypeMethodKey{Tag: "Integer"}
	case hir.Bool:
		return TypeMethodKey{Tag: "Bool"}
	case hir.String:
		return TypeMethodKey{Tag: "String"}
	case hir.Array:
		return TypeMethodKey{Tag: "Array"}
	case hir.Slice:
		return TypeMethodKey{Tag: "Slice"}
	case hir.Tuple:
		return TypeMethodKey{Tag: "Tuple"}
	default:
		return TypeMethodKey{Tag: "Other"}
	}
}

// directMethod is an inherent `impl Type { fn ... }` method.
type directMethod struct {
	Name string
	Func hir.FuncId
}

type traitMethod struct {
	TraitId hir.TraitId
	ImplId  hir.TraitImplId
	Name    string
	Func    hir.FuncId
}

type assumedImpl struct {
	ObjectType hir.Type
	TraitId    hir.TraitId
	Generics   []hir.Type
}

// MethodTable is the interner's method-resolution index, grounded on
// symbol_table_traits.go/symbol_table_implementations.go's trait-method and
// instance registries, reshaped from name-keyed scope maps into
// TypeMethodKey-keyed slices since HIR method calls carry a resolved
// receiver type rather than a bare identifier.
type MethodTable struct {
	direct  map[TypeMethodKey][]directMethod
	trait   map[TypeMethodKey][]traitMethod
	assumed map[TypeMethodKey][]assumedImpl
}

func NewMethodTable() *MethodTable {
	return &MethodTable{
		direct:  make(map[TypeMethodKey][]directMethod),
		trait:   make(map[TypeMethodKey][]traitMethod),
		assumed: make(map[TypeMethodKey][]assumedImpl),
	}
}

func (m *MethodTable) AddMethod(receiver hir.Type, name string, fn hir.FuncId) {
	k := KeyOf(receiver)
	m.direct[k] = append(m.direct[k], directMethod{Name: name, Func: fn})
}

func (m *MethodTable) AddTraitMethods(impl *hir.TraitImpl) {
	k := KeyOf(impl.ObjectType)
	for name, fn := range impl.MethodNames {
		m.trait[k] = append(m.trait[k], traitMethod{TraitId: impl.TraitId, ImplId: impl.Id, Name: name, Func: fn})
	}
}

func (m *MethodTable) AddAssumedImpl(objectType hir.Type, traitId hir.TraitId, generics []hir.Type) {
	k := KeyOf(objectType)
	m.assumed[k] = append(m.assumed[k], assumedImpl{ObjectType: objectType, TraitId: traitId, Generics: generics})
}

// AssumedImpls returns the object types every already-registered assumed
// impl of traitId covers, across every receiver shape — used by
// AddAssumedTraitImplementation's overlap check, which must consider
// assumptions regardless of which shape bucket they landed in.
func (m *MethodTable) AssumedImpls(traitId hir.TraitId) []hir.Type {
	var out []hir.Type
	for _, bucket := range m.assumed {
		for _, a := range bucket {
			if a.TraitId == traitId {
				out = append(out, a.ObjectType)
			}
		}
	}
	return out
}

// LookupDirectMethod finds an inherent method by exact name on the given
// receiver shape. This is step 1 of spec.md §4.2's resolution order:
// inherent methods take priority over trait methods.
func (m *MethodTable) LookupDirectMethod(receiver hir.Type, name string) (hir.FuncId, bool) {
	for _, dm := range m.direct[KeyOf(receiver)] {
		if dm.Name == name {
			return dm.Func, true
		}
	}
	return 0, false
}

// LookupTraitMethods returns every concrete trait impl providing a method of
// this name on this receiver shape; the caller (types.LookupMethod) takes a
// single candidate as is and, if more than one is returned, disambiguates by
// trait-bound context only. ObjectType is not unified against the receiver.
func (m *MethodTable) LookupTraitMethods(receiver hir.Type, name string) []hir.FuncId {
	var out []hir.FuncId
	for _, tm := range m.trait[KeyOf(receiver)] {
		if tm.Name == name {
			out = append(out, tm.Func)
		}
	}
	return out
}

// LookupGenericMethods returns the assumed (where-clause-derived) impls
// available for a generic receiver, without a concrete method body — the
// monomorphizer resolves these once call-site types are known.
func (m *MethodTable) LookupGenericMethods(receiver hir.Type) []hir.TraitId {
	var out []hir.TraitId
	for _, a := range m.assumed[KeyOf(receiver)] {
		out = append(out, a.TraitId)
	}
	return out
}
