package schema

import (
	"io"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
	"github.com/golang/glog"
	"github.com/pkg/errors"
)

// ParseCSDL reads a CSDL metadata document (an edmx:Edmx document, as
// served at $metadata) from r and returns a Schema holding its entity
// and complex types.
//
// Both CSDL dialects are understood. Navigation properties declaring a
// Type attribute take it as is; those declaring a Relationship and
// ToRole are resolved through the named Association, where an end
// multiplicity of "*" yields a collection of the end's type.
func ParseCSDL(r io.Reader) (*Schema, error) {
	doc, err := xmlquery.Parse(r)
	if err != nil {
		return nil, errors.Wrap(err, "parsing metadata document")
	}
	if xmlquery.QuerySelector(doc, xpEdmx) == nil {
		return nil, errors.New("missing <Edmx> element")
	}

	schemas := xmlquery.QuerySelectorAll(doc, xpSchema)
	if len(schemas) == 0 {
		return nil, errors.New("missing <Schema> element(s)")
	}
	p := &csdlParser{s: New(), aliases: map[string]string{}, ends: map[string]associationEnd{}}
	for _, n := range schemas {
		if alias := attr(n, "Alias"); alias != "" {
			p.aliases[alias] = attr(n, "Namespace")
		}
	}
	for _, n := range schemas {
		p.associations(n)
	}
	for _, n := range schemas {
		if err := p.types(n); err != nil {
			return nil, err
		}
	}
	glog.V(1).Infof("CSDL: loaded %d types from %d schema(s)", len(p.s.order), len(schemas))
	return p.s, nil
}

type associationEnd struct {
	typeName     string
	multiplicity string
}

type csdlParser struct {
	s       *Schema
	aliases map[string]string
	// ends maps "<qualified association name>/<role>" to the end
	ends map[string]associationEnd
}

// qualify replaces a schema alias prefix in name with its namespace
func (p *csdlParser) qualify(name string) string {
	if item, ok := ItemTypeName(name); ok {
		return CollectionTypeName(p.qualify(item))
	}
	if i := strings.LastIndex(name, "."); i > 0 {
		if ns, ok := p.aliases[name[:i]]; ok {
			return ns + name[i:]
		}
	}
	return name
}

func (p *csdlParser) associations(schemaNode *xmlquery.Node) {
	ns := attr(schemaNode, "Namespace")
	for _, assoc := range xmlquery.QuerySelectorAll(schemaNode, xpAssociation) {
		name := ns + "." + attr(assoc, "Name")
		for _, end := range xmlquery.QuerySelectorAll(assoc, xpEnd) {
			p.ends[name+"/"+attr(end, "Role")] = associationEnd{
				typeName:     p.qualify(attr(end, "Type")),
				multiplicity: attr(end, "Multiplicity"),
			}
		}
	}
}

func (p *csdlParser) types(schemaNode *xmlquery.Node) error {
	ns := attr(schemaNode, "Namespace")
	if ns == "" {
		return errors.New("<Schema> element missing Namespace attribute")
	}
	for _, n := range xmlquery.QuerySelectorAll(schemaNode, xpEntityType) {
		t, err := p.declare(ns, n, TypeKindEntity)
		if err != nil {
			return err
		}
		t.HasStream = attr(n, "HasStream") == "true"
		for _, np := range xmlquery.QuerySelectorAll(n, xpNavigationProperty) {
			typeName, err := p.navigationType(np)
			if err != nil {
				return errors.Wrapf(err, "type %s", t.Name)
			}
			t.AddNavigationProperty(attr(np, "Name"), typeName)
		}
	}
	for _, n := range xmlquery.QuerySelectorAll(schemaNode, xpComplexType) {
		if _, err := p.declare(ns, n, TypeKindComplex); err != nil {
			return err
		}
	}
	return nil
}

// declare adds the entity or complex type described by n, along with its
// structural properties.
func (p *csdlParser) declare(ns string, n *xmlquery.Node, kind TypeKind) (*Type, error) {
	name := attr(n, "Name")
	if name == "" {
		return nil, errors.Errorf("<%s> element missing Name attribute", n.Data)
	}
	t := p.s.add(&Type{
		Name:     ns + "." + name,
		Kind:     kind,
		BaseType: p.qualify(attr(n, "BaseType")),
		Abstract: attr(n, "Abstract") == "true",
		Open:     attr(n, "OpenType") == "true",
	}, nil)
	for _, prop := range xmlquery.QuerySelectorAll(n, xpProperty) {
		pname, ptype := attr(prop, "Name"), attr(prop, "Type")
		if pname == "" || ptype == "" {
			return nil, errors.Errorf("type %s: <Property> element missing Name or Type attribute", t.Name)
		}
		t.properties = append(t.properties, &Property{
			Name:          pname,
			TypeName:      p.qualify(ptype),
			Nullable:      attr(prop, "Nullable") != "false",
			DeclaringType: t.Name,
		})
	}
	return t, nil
}

func (p *csdlParser) navigationType(np *xmlquery.Node) (string, error) {
	if typeName := attr(np, "Type"); typeName != "" {
		return p.qualify(typeName), nil
	}
	rel, role := p.qualify(attr(np, "Relationship")), attr(np, "ToRole")
	end, ok := p.ends[rel+"/"+role]
	if !ok {
		return "", errors.Errorf("navigation property %s: no association end %s/%s", attr(np, "Name"), rel, role)
	}
	if end.multiplicity == "*" {
		return CollectionTypeName(end.typeName), nil
	}
	return end.typeName, nil
}

// attr returns the value of n's attribute with the given local name,
// whatever its prefix.
func attr(n *xmlquery.Node, local string) string {
	for _, a := range n.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

var (
	xpEdmx               = xpath.MustCompile(`/*[local-name()='Edmx']`)
	xpSchema             = xpath.MustCompile(`//*[local-name()='Schema']`)
	xpEntityType         = xpath.MustCompile(`*[local-name()='EntityType']`)
	xpComplexType        = xpath.MustCompile(`*[local-name()='ComplexType']`)
	xpAssociation        = xpath.MustCompile(`*[local-name()='Association']`)
	xpEnd                = xpath.MustCompile(`*[local-name()='End']`)
	xpProperty           = xpath.MustCompile(`*[local-name()='Property']`)
	xpNavigationProperty = xpath.MustCompile(`*[local-name()='NavigationProperty']`)
)
