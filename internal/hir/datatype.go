package hir

// Visibility controls field/item exposure across crate boundaries.
type Visibility int

const (
	Private Visibility = iota
	PublicCrate
	Public
)

// GenericParam is an ordered, kinded generic parameter on a DataType,
// Trait, or TraitImpl.
type GenericParam struct {
	Var  *Cell
	Name string
	K    Kind
}

// Field is a named, typed, visibility-tagged struct field.
type Field struct {
	Name       string
	Type       Type
	Visibility Visibility
}

// Variant is a named enum variant with positional payload types.
type Variant struct {
	Name  string
	Types []Type
}

// DataTypeBody distinguishes the struct/enum/unresolved variant shapes of
// spec.md §3: "structs and enums share [DataTypeRef]; distinguished by
// which of get_fields/get_variants succeeds".
type DataTypeBody struct {
	Fields   []Field   // non-nil for structs
	Variants []Variant // non-nil for enums
}

func (b DataTypeBody) IsStruct() bool     { return b.Fields != nil }
func (b DataTypeBody) IsEnum() bool       { return b.Variants != nil }
func (b DataTypeBody) IsUnresolved() bool { return b.Fields == nil && b.Variants == nil }

type DataType struct {
	Id         TypeId
	Name       string
	Location   Location
	Generics   []GenericParam
	Visibility Visibility
	Body       DataTypeBody
}

// GetFields returns (fields, true) iff this DataType is a struct.
func (d *DataType) GetFields(generics []Type) ([]Field, bool) {
	if !d.Body.IsStruct() {
		return nil, false
	}
	if len(generics) == 0 {
		return d.Body.Fields, true
	}
	subst := d.instantiationBindings(generics)
	out := make([]Field, len(d.Body.Fields))
	for i, f := range d.Body.Fields {
		out[i] = Field{Name: f.Name, Type: Substitute(f.Type, subst), Visibility: f.Visibility}
	}
	return out, true
}

// GetVariants returns (variants, true) iff this DataType is an enum.
func (d *DataType) GetVariants(generics []Type) ([]Variant, bool) {
	if !d.Body.IsEnum() {
		return nil, false
	}
	if len(generics) == 0 {
		return d.Body.Variants, true
	}
	subst := d.instantiationBindings(generics)
	out := make([]Variant, len(d.Body.Variants))
	for i, v := range d.Body.Variants {
		types := make([]Type, len(v.Types))
		for j, t := range v.Types {
			types[j] = Substitute(t, subst)
		}
		out[i] = Variant{Name: v.Name, Types: types}
	}
	return out, true
}

func (d *DataType) instantiationBindings(generics []Type) TypeBindings {
	b := NewTypeBindings()
	for i, g := range d.Generics {
		if i >= len(generics) {
			break
		}
		b[g.Var.Id] = Binding{Cell: g.Var, Kind: g.K, Type: generics[i]}
	}
	return b
}
