package atom

import (
	"strings"

	"github.com/andaru/atompub/oderr"
	"github.com/andaru/atompub/schema"
	"github.com/andaru/atompub/xmlutil"
	"github.com/pkg/errors"
)

const edmString = "Edm.String"

// ReadProperty reads a top-level property document: a single element in
// the data namespace. expectedTypeName, if not empty, is the model type
// of the property value.
func (r *Reader) ReadProperty(expectedTypeName string) (*Property, error) {
	expected, err := r.expectedType(expectedTypeName)
	if err != nil {
		return nil, err
	}
	if err := r.dataRoot(); err != nil {
		return nil, err
	}
	return r.readProperty(expected, 1)
}

// ReadCollection reads a top-level collection document: an element in
// the data namespace holding d:element items. expectedItemTypeName, if
// not empty, is the model type of the items.
func (r *Reader) ReadCollection(expectedItemTypeName string) (*Property, error) {
	var expected *schema.Type
	if expectedItemTypeName != "" {
		var err error
		if expected, err = r.expectedType(schema.CollectionTypeName(expectedItemTypeName)); err != nil {
			return nil, err
		}
	}
	if err := r.dataRoot(); err != nil {
		return nil, err
	}
	name := r.c.LocalName()
	null, err := r.nullAttr()
	if err != nil {
		return nil, err
	}
	typ := expected
	if payloadType := r.typeAttr(); payloadType != "" {
		t, err := r.resolveType(payloadType)
		if err != nil {
			return nil, err
		}
		if t.Kind != schema.TypeKindCollection {
			return nil, errors.WithStack(oderr.TypeKindMismatch(oderr.CodeIncorrectTypeKind,
				t.Kind.String(), schema.TypeKindCollection.String(), oderr.WithProperty(name)))
		}
		if expected != nil && t.Name != expected.Name {
			return nil, errors.WithStack(oderr.TypeNameMismatch(oderr.CodeIncompatibleTypeName,
				t.Name, expected.Name, oderr.WithProperty(name)))
		}
		typ = t
	}
	p := &Property{Name: name, TypeName: typeName(typ)}
	if null {
		return p, r.c.RequireEmpty(errors.WithStack(oderr.ContentShape(oderr.CodeNullValueWithContent, name)))
	}
	cv, err := r.readCollection(typ, 1)
	if err != nil {
		return nil, err
	}
	p.Value = cv
	return p, nil
}

// dataRoot moves to the document element, which must be in the data
// namespace.
func (r *Reader) dataRoot() error {
	if err := r.c.MoveToContent(); err != nil {
		return err
	}
	if r.c.Type() != xmlutil.NodeElement || r.c.NamespaceURI() != NamespaceData {
		return errors.WithStack(oderr.StructuralMismatch(oderr.CodeRootElementWrongNamespace, r.c.LocalName(), r.c.NamespaceURI()))
	}
	return nil
}

func typeName(t *schema.Type) string {
	if t == nil {
		return ""
	}
	return t.Name
}

// typeAttr returns the current element's m:type attribute
func (r *Reader) typeAttr() string {
	v, _ := r.c.Attr("type", NamespaceMetadata)
	return strings.TrimSpace(v)
}

// propertySet accumulates the properties of one entry or complex value
type propertySet struct {
	props []*Property
	names map[string]bool
}

func (ps *propertySet) has(name string) bool { return ps.names[name] }

func (ps *propertySet) add(p *Property) {
	if ps.names == nil {
		ps.names = map[string]bool{}
	}
	ps.names[p.Name] = true
	ps.props = append(ps.props, p)
}

// readProperties reads the data namespace children of the current
// element (m:properties or a complex value) into ps. owner is the model
// type declaring the properties, if known.
func (r *Reader) readProperties(owner *schema.Type, ps *propertySet, depth int) error {
	return r.children(func() error {
		switch r.c.NamespaceURI() {
		case NamespaceData:
		case NamespaceMetadata:
			if r.c.LocalName() == "error" {
				return r.inStreamError()
			}
			return nil
		default:
			return nil
		}
		name := r.c.LocalName()
		if ps.has(name) {
			if r.s.Profile.keepsFirst() {
				return nil
			}
			return errors.WithStack(oderr.DuplicateElement(oderr.CodeDuplicatePropertyName, name, NamespaceData, oderr.WithProperty(name)))
		}
		expected, skip, err := r.declaredProperty(owner, name)
		if err != nil || skip {
			return err
		}
		p, err := r.readProperty(expected, depth)
		if err != nil {
			return err
		}
		ps.add(p)
		return nil
	})
}

// declaredProperty returns the model type of owner's structural property
// name. skip is true if the undeclared property's value is to be dropped.
func (r *Reader) declaredProperty(owner *schema.Type, name string) (expected *schema.Type, skip bool, err error) {
	m := r.s.Model
	if owner == nil || m == nil {
		return nil, false, nil
	}
	p, ok := m.PropertyOf(owner, name)
	switch {
	case ok && p.Navigation:
		return nil, false, errors.WithStack(oderr.SchemaConflict(oderr.CodeStructuralPropertyExpected, owner.Name, oderr.WithProperty(name)))
	case ok:
		expected, err = r.resolveType(p.TypeName)
		return expected, false, err
	case m.IsOpen(owner):
		return nil, false, nil
	case r.s.UndeclaredPropertyBehavior.Has(IgnoreUndeclaredValue):
		return nil, true, nil
	}
	return nil, false, errors.WithStack(oderr.SchemaConflict(oderr.CodePropertyDoesNotExist, owner.Name, oderr.WithProperty(name)))
}

// readProperty reads the property element the cursor is on
func (r *Reader) readProperty(expected *schema.Type, depth int) (*Property, error) {
	name := r.c.LocalName()
	v, typ, err := r.readValue(expected, depth)
	if err != nil {
		return nil, err
	}
	return &Property{Name: name, TypeName: typ, Value: v}, nil
}

// readValue reads the value of the current property element and returns
// it with the payload or model type name.
func (r *Reader) readValue(expected *schema.Type, depth int) (Value, string, error) {
	if err := r.depthCheck(depth); err != nil {
		return nil, "", err
	}
	local := r.c.LocalName()
	null, err := r.nullAttr()
	if err != nil {
		return nil, "", err
	}
	typ, err := r.valueType(r.typeAttr(), expected)
	if err != nil {
		return nil, "", errors.Wrapf(err, "property %s", local)
	}
	name := typeName(typ)
	if null {
		return nil, name, r.c.RequireEmpty(errors.WithStack(oderr.ContentShape(oderr.CodeNullValueWithContent, local)))
	}
	if typ == nil {
		if typ, err = r.inferType(); err != nil {
			return nil, "", err
		}
	}
	if typ.Kind == schema.TypeKindCollection {
		v, err := r.readCollection(typ, depth)
		return v, name, err
	}
	v, err := r.readTypedValue(typ, depth)
	return v, name, err
}

// valueType returns the type of a value given its m:type attribute and
// the type expected by the model.
func (r *Reader) valueType(payloadType string, expected *schema.Type) (*schema.Type, error) {
	if payloadType == "" {
		return expected, nil
	}
	t, err := r.resolveType(payloadType)
	if err != nil || expected == nil {
		return t, err
	}
	if t.Kind != expected.Kind {
		return nil, errors.WithStack(oderr.TypeKindMismatch(oderr.CodeIncorrectTypeKind, t.Kind.String(), expected.Kind.String()))
	}
	if t.Kind == schema.TypeKindComplex && schema.IsAssignable(r.s.Model, expected, t) || t.Name == expected.Name {
		return t, nil
	}
	return nil, errors.WithStack(oderr.TypeNameMismatch(oderr.CodeIncompatibleTypeName, t.Name, expected.Name))
}

// inferType returns the type of an untyped value: complex if it has
// element children, otherwise a string.
func (r *Reader) inferType() (*schema.Type, error) {
	hasElements, err := r.c.HasElementChild()
	if err != nil {
		return nil, err
	}
	if hasElements {
		return &schema.Type{Kind: schema.TypeKindComplex}, nil
	}
	return &schema.Type{Name: edmString, Kind: schema.TypeKindPrimitive}, nil
}

// readTypedValue reads a primitive or complex value of type t
func (r *Reader) readTypedValue(t *schema.Type, depth int) (Value, error) {
	switch t.Kind {
	case schema.TypeKindPrimitive:
		text, err := r.primitiveText()
		if err != nil {
			return nil, err
		}
		v, err := convertPrimitive(t.Name, text)
		if err != nil {
			return nil, err
		}
		return &PrimitiveValue{TypeName: t.Name, Text: text, Value: v}, nil
	case schema.TypeKindComplex:
		var owner *schema.Type
		if t.Name != "" {
			owner = t
		}
		ps := &propertySet{}
		if err := r.readProperties(owner, ps, depth+1); err != nil {
			return nil, err
		}
		return &ComplexValue{TypeName: t.Name, Properties: ps.props}, nil
	}
	return nil, errors.WithStack(oderr.TypeKindMismatch(oderr.CodeIncorrectTypeKind, t.Kind.String(), valueKind(t.Kind),
		oderr.WithTypeName(t.Name), oderr.WithMessage("expected a primitive, complex or collection type")))
}

// valueKind returns the value kind nearest to k: entities are structured
// like complex values, anything else is expected to be primitive.
func valueKind(k schema.TypeKind) string {
	if k == schema.TypeKindEntity {
		return schema.TypeKindComplex.String()
	}
	return schema.TypeKindPrimitive.String()
}

// primitiveText reads the text of a primitive value. A value whose first
// element child is m:error was aborted by the producer and yields an
// in-stream error.
func (r *Reader) primitiveText() (string, error) {
	var aborted bool
	depth := r.c.Depth()
	err := r.c.LookAhead(func() error {
		for {
			more, err := r.c.NextChild(depth)
			if err != nil || !more {
				return err
			}
			if r.c.Type() == xmlutil.NodeElement {
				aborted = r.c.Is("error", NamespaceMetadata)
				return nil
			}
		}
	})
	if err != nil {
		return "", err
	}
	if !aborted {
		return r.text()
	}
	err = r.children(func() error {
		if r.c.Is("error", NamespaceMetadata) {
			return r.inStreamError()
		}
		return nil
	})
	if err == nil {
		err = errors.WithStack(oderr.ContentShape(oderr.CodeInvalidNodeInStringValue, r.c.LocalName()))
	}
	return "", err
}

// collectionState is the item type established while reading a
// collection.
type collectionState struct {
	declared *schema.Type
	name     string
	kind     schema.TypeKind
}

// readCollection reads the d:element items of the current element. typ
// is the collection type, if known.
func (r *Reader) readCollection(typ *schema.Type, depth int) (*CollectionValue, error) {
	cv := &CollectionValue{TypeName: typeName(typ), Items: []Value{}}
	st := &collectionState{}
	if typ != nil {
		st.declared = typ.ItemType
		if itemName, ok := schema.ItemTypeName(typ.Name); ok && st.declared == nil {
			t, err := r.resolveType(itemName)
			if err != nil {
				return nil, err
			}
			st.declared = t
		}
	}
	if d := st.declared; d != nil {
		if d.Kind != schema.TypeKindPrimitive && d.Kind != schema.TypeKindComplex {
			return nil, errors.WithStack(oderr.TypeKindMismatch(oderr.CodeInvalidItemTypeKind, d.Kind.String(), valueKind(d.Kind)))
		}
		st.name, st.kind = d.Name, d.Kind
	}

	err := r.children(func() error {
		switch {
		case r.c.Is("error", NamespaceMetadata):
			return r.inStreamError()
		case r.c.NamespaceURI() != NamespaceData:
			return nil
		case r.c.LocalName() != "element":
			return errors.WithStack(oderr.StructuralMismatch(oderr.CodeInvalidCollectionElement, r.c.LocalName(), NamespaceData))
		}
		v, err := r.readItem(st, depth)
		if err != nil {
			return err
		}
		cv.Items = append(cv.Items, v)
		return nil
	})
	if err != nil {
		return nil, err
	}
	cv.ItemTypeName, cv.ItemKind = st.name, st.kind
	return cv, nil
}

// readItem reads one d:element collection item. The first item with an
// explicit type name establishes the item type name, the first non-null
// item establishes the item kind.
func (r *Reader) readItem(st *collectionState, depth int) (Value, error) {
	null, err := r.nullAttr()
	if err != nil {
		return nil, err
	}
	if null {
		return nil, r.c.RequireEmpty(errors.WithStack(oderr.ContentShape(oderr.CodeNullValueWithContent, "element")))
	}
	if nested, err := r.hasNestedItem(); err != nil || nested {
		if err == nil {
			err = errors.WithStack(oderr.TypeKindMismatch(oderr.CodeInvalidItemTypeKind, schema.TypeKindCollection.String(), st.kind.String()))
		}
		return nil, err
	}

	itemType := r.typeAttr()
	var t *schema.Type
	switch {
	case schema.KindOfName(itemType) == schema.TypeKindCollection:
		return nil, errors.WithStack(oderr.TypeKindMismatch(oderr.CodeInvalidItemTypeKind, schema.TypeKindCollection.String(), st.kind.String()))
	case itemType != "":
		if t, err = r.resolveType(itemType); err != nil {
			return nil, err
		}
	case st.declared != nil:
		t = st.declared
	default:
		if t, err = r.inferType(); err != nil {
			return nil, err
		}
	}
	if t.Kind != schema.TypeKindPrimitive && t.Kind != schema.TypeKindComplex {
		return nil, errors.WithStack(oderr.TypeKindMismatch(oderr.CodeInvalidItemTypeKind, t.Kind.String(), st.kind.String()))
	}

	if itemType != "" && st.name != "" && itemType != st.name {
		return nil, errors.WithStack(oderr.TypeNameMismatch(oderr.CodeIncompatibleItemTypeName, itemType, st.name))
	}
	if st.kind != schema.TypeKindNone && t.Kind != st.kind {
		return nil, errors.WithStack(oderr.TypeKindMismatch(oderr.CodeIncompatibleItemTypeKind, t.Kind.String(), st.kind.String()))
	}
	if st.kind == schema.TypeKindNone {
		st.kind = t.Kind
	}
	if st.name == "" && itemType != "" {
		st.name = itemType
	}
	return r.readTypedValue(t, depth+1)
}

// hasNestedItem reports whether the current collection item contains a
// d:element child, without moving the cursor.
func (r *Reader) hasNestedItem() (found bool, err error) {
	depth := r.c.Depth()
	err = r.c.LookAhead(func() error {
		for {
			more, err := r.c.NextChild(depth)
			if err != nil || !more {
				return err
			}
			if r.c.Is("element", NamespaceData) {
				found = true
				return nil
			}
		}
	})
	return found, err
}
