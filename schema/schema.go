package schema

import (
	"fmt"
	"strings"
)

// TypeKind is the kind of an EDM type
type TypeKind int

const (
	// TypeKindNone is an unknown or not yet established kind
	TypeKindNone TypeKind = iota
	TypeKindPrimitive
	TypeKindComplex
	TypeKindEntity
	TypeKindCollection
)

func (k TypeKind) String() string {
	switch k {
	case TypeKindNone:
		return "None"
	case TypeKindPrimitive:
		return "Primitive"
	case TypeKindComplex:
		return "Complex"
	case TypeKindEntity:
		return "Entity"
	case TypeKindCollection:
		return "Collection"
	default:
		return fmt.Sprintf("TypeKind(%d)", int(k))
	}
}

// Model is the read-only EDM capability used by payload readers.
type Model interface {
	// ResolveType returns the type named name, if it exists.
	ResolveType(name string) (*Type, bool)
	// PropertyOf returns the structural or navigation property name
	// declared by t or one of its base types.
	PropertyOf(t *Type, name string) (*Property, bool)
	// IsOpen returns true if t (or a base type) is an open type.
	IsOpen(t *Type) bool
}

// Type is an EDM type descriptor
type Type struct {
	Name      string
	Kind      TypeKind
	BaseType  string
	Abstract  bool
	Open      bool
	HasStream bool
	// ItemType is the item type of a collection type
	ItemType *Type

	properties []*Property
}

// Properties returns the properties declared by t itself.
func (t *Type) Properties() []*Property { return t.properties }

// AddProperty declares a structural property on t and returns t.
func (t *Type) AddProperty(name, typeName string) *Type {
	t.properties = append(t.properties, &Property{Name: name, TypeName: typeName, Nullable: true, DeclaringType: t.Name})
	return t
}

// AddNavigationProperty declares a navigation property on t and
// returns t. typeName is an entity type name, or a collection of one.
func (t *Type) AddNavigationProperty(name, typeName string) *Type {
	t.properties = append(t.properties, &Property{Name: name, TypeName: typeName, Navigation: true, DeclaringType: t.Name})
	return t
}

func (t *Type) String() string { return t.Name }

// Property is an EDM property descriptor
type Property struct {
	Name          string
	TypeName      string
	Nullable      bool
	Navigation    bool
	DeclaringType string
}

// IsCollection returns true if the property's type is a collection
func (p *Property) IsCollection() bool {
	_, ok := ItemTypeName(p.TypeName)
	return ok
}

// CollectionTypeName returns the name of the collection of itemTypeName
func CollectionTypeName(itemTypeName string) string { return "Collection(" + itemTypeName + ")" }

// ItemTypeName returns the item type name of a collection type name
func ItemTypeName(name string) (string, bool) {
	if strings.HasPrefix(name, "Collection(") && strings.HasSuffix(name, ")") {
		return name[len("Collection(") : len(name)-1], true
	}
	return "", false
}

var primitiveTypeNames = map[string]bool{
	"Edm.Binary":         true,
	"Edm.Boolean":        true,
	"Edm.Byte":           true,
	"Edm.DateTime":       true,
	"Edm.DateTimeOffset": true,
	"Edm.Decimal":        true,
	"Edm.Double":         true,
	"Edm.Guid":           true,
	"Edm.Int16":          true,
	"Edm.Int32":          true,
	"Edm.Int64":          true,
	"Edm.SByte":          true,
	"Edm.Single":         true,
	"Edm.String":         true,
	"Edm.Time":           true,
	"Edm.Stream":         true,
	"Edm.Geography":      true,
	"Edm.Geometry":       true,
}

// IsPrimitiveTypeName returns true if name is a built-in primitive type
func IsPrimitiveTypeName(name string) bool { return primitiveTypeNames[name] }

// KindOfName returns the kind a type name denotes without consulting a
// model: collections and Edm primitives are recognized by name, any
// other name is assumed complex.
func KindOfName(name string) TypeKind {
	switch {
	case name == "":
		return TypeKindNone
	case strings.HasPrefix(name, "Collection("):
		return TypeKindCollection
	case strings.HasPrefix(name, "Edm."):
		return TypeKindPrimitive
	}
	return TypeKindComplex
}

// Schema is an in-memory Model.
type Schema struct {
	types map[string]*Type
	order []*Type
}

// TypeOption is a Type constructor option function.
type TypeOption func(*Type)

func WithBaseType(name string) TypeOption { return func(t *Type) { t.BaseType = name } }
func WithOpen() TypeOption                { return func(t *Type) { t.Open = true } }
func WithHasStream() TypeOption           { return func(t *Type) { t.HasStream = true } }
func WithAbstract() TypeOption            { return func(t *Type) { t.Abstract = true } }

// New returns an empty Schema
func New() *Schema { return &Schema{types: map[string]*Type{}} }

// AddEntityType declares an entity type and returns it
func (s *Schema) AddEntityType(name string, opts ...TypeOption) *Type {
	return s.add(&Type{Name: name, Kind: TypeKindEntity}, opts)
}

// AddComplexType declares a complex type and returns it
func (s *Schema) AddComplexType(name string, opts ...TypeOption) *Type {
	return s.add(&Type{Name: name, Kind: TypeKindComplex}, opts)
}

func (s *Schema) add(t *Type, opts []TypeOption) *Type {
	for _, opt := range opts {
		opt(t)
	}
	if _, ok := s.types[t.Name]; !ok {
		s.order = append(s.order, t)
	}
	s.types[t.Name] = t
	return t
}

// Types returns the declared entity and complex types in declaration order
func (s *Schema) Types() []*Type { return s.order }

// ResolveType implements Model
func (s *Schema) ResolveType(name string) (*Type, bool) {
	if t, ok := s.types[name]; ok {
		return t, true
	}
	if IsPrimitiveTypeName(name) {
		return &Type{Name: name, Kind: TypeKindPrimitive}, true
	}
	if itemName, ok := ItemTypeName(name); ok {
		item, ok := s.ResolveType(itemName)
		if !ok || item.Kind == TypeKindCollection {
			return nil, false
		}
		return &Type{Name: name, Kind: TypeKindCollection, ItemType: item}, true
	}
	return nil, false
}

// PropertyOf implements Model
func (s *Schema) PropertyOf(t *Type, name string) (*Property, bool) {
	for _, it := range s.lineage(t) {
		for _, p := range it.properties {
			if p.Name == name {
				return p, true
			}
		}
	}
	return nil, false
}

// IsOpen implements Model
func (s *Schema) IsOpen(t *Type) bool {
	for _, it := range s.lineage(t) {
		if it.Open {
			return true
		}
	}
	return false
}

// lineage returns t followed by its base types, stopping at a cycle.
func (s *Schema) lineage(t *Type) []*Type {
	var types []*Type
	seen := map[string]bool{}
	for it := t; it != nil && !seen[it.Name]; it = s.base(it) {
		seen[it.Name] = true
		types = append(types, it)
	}
	return types
}

func (s *Schema) base(t *Type) *Type {
	if t.BaseType == "" || t.BaseType == t.Name {
		return nil
	}
	return s.types[t.BaseType]
}

// IsAssignable returns true if a value of type derived may be used where
// type base is expected: derived is base or inherits from it. Model
// implementations other than *Schema compare by name only.
func IsAssignable(m Model, base, derived *Type) bool {
	if base == nil || derived == nil {
		return true
	}
	if base.Name == derived.Name {
		return true
	}
	s, ok := m.(*Schema)
	if !ok {
		return false
	}
	for _, it := range s.lineage(derived) {
		if it.Name == base.Name {
			return true
		}
	}
	return false
}
