package atom

import (
	"io"
	"net/url"
	"strings"

	"github.com/andaru/atompub/oderr"
	"github.com/andaru/atompub/schema"
	"github.com/andaru/atompub/xmlutil"
	"github.com/pkg/errors"
)

// Reader reads one OData ATOM payload from an XML stream.
//
// A Reader is configured once at construction and reads a single
// top-level payload; calling more than one Read method on the same
// Reader is undefined. Errors are *oderr.Error values (see oderr.AsError)
// or *InStreamError, wrapped with a stack trace.
type Reader struct {
	c *xmlutil.Cursor
	s Settings
}

// NewReader returns a new Reader reading the payload in r
func NewReader(r io.Reader, opts ...Option) *Reader {
	return &Reader{c: xmlutil.NewCursor(r), s: NewSettings(opts...)}
}

// Settings returns the Reader's settings
func (r *Reader) Settings() Settings { return r.s }

// root moves to the document element and checks its name and namespace.
func (r *Reader) root(local, namespace string, nameCode, namespaceCode oderr.Code) error {
	if err := r.c.MoveToContent(); err != nil {
		if err == io.EOF {
			err = errors.WithStack(oderr.MalformedXML(io.ErrUnexpectedEOF))
		}
		return err
	}
	switch {
	case r.c.Type() != xmlutil.NodeElement:
		return errors.WithStack(oderr.StructuralMismatch(nameCode, "", "",
			oderr.WithMessage("expected "+xmlutil.ElementString(xmlutil.XMLName(local, namespace)))))
	case r.c.LocalName() != local:
		return errors.WithStack(oderr.StructuralMismatch(nameCode, r.c.LocalName(), r.c.NamespaceURI()))
	case r.c.NamespaceURI() != namespace:
		return errors.WithStack(oderr.StructuralMismatch(namespaceCode, r.c.LocalName(), r.c.NamespaceURI()))
	}
	return nil
}

// expectedType resolves a caller supplied expected type name
func (r *Reader) expectedType(name string) (*schema.Type, error) {
	if name == "" {
		return nil, nil
	}
	if r.s.Model == nil {
		return nil, errors.WithStack(oderr.SchemaConflict(oderr.CodeExpectedTypeWithoutMetadata, name))
	}
	t, ok := r.s.Model.ResolveType(name)
	if !ok {
		return nil, errors.WithStack(oderr.SchemaConflict(oderr.CodeUnrecognizedTypeName, name))
	}
	return t, nil
}

// resolveType resolves a type name found in the payload. Without a model
// the type is described by its name alone.
func (r *Reader) resolveType(name string) (*schema.Type, error) {
	if r.s.Model == nil {
		return &schema.Type{Name: name, Kind: schema.KindOfName(name)}, nil
	}
	t, ok := r.s.Model.ResolveType(name)
	if !ok {
		return nil, errors.WithStack(oderr.SchemaConflict(oderr.CodeUnrecognizedTypeName, name))
	}
	return t, nil
}

// xmlBase returns base updated by the current element's xml:base
func (r *Reader) xmlBase(base *url.URL) (*url.URL, error) {
	v, ok := r.c.Attr("base", xmlutil.NamespaceXML)
	if !ok {
		return base, nil
	}
	return resolveURI(base, v, "xml:base")
}

// href returns the current element's resolved href attribute, or nil if
// it has none.
func (r *Reader) href(base *url.URL) (*url.URL, error) {
	v, ok := r.c.Attr("href", "")
	if !ok {
		return nil, nil
	}
	return resolveURI(base, v, "href")
}

func resolveURI(base *url.URL, ref, attribute string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return nil, errors.WithStack(oderr.InvalidValue(oderr.CodeInvalidURI, ref,
			oderr.WithAttribute(attribute), oderr.WithMessage(err.Error())))
	}
	if base != nil {
		u = base.ResolveReference(u)
	}
	return u, nil
}

// text reads the current text-only element
func (r *Reader) text() (string, error) { return r.c.ReadText() }

// duplicate returns the error for a second occurrence of the current
// element.
func (r *Reader) duplicate(code oderr.Code) error {
	return errors.WithStack(oderr.DuplicateElement(code, r.c.LocalName(), r.c.NamespaceURI()))
}

// children calls fn on each child element of the current element. Text
// and elements fn leaves unconsumed are skipped.
func (r *Reader) children(fn func() error) error {
	depth := r.c.Depth()
	for {
		more, err := r.c.NextChild(depth)
		if err != nil || !more {
			return err
		}
		if r.c.Type() != xmlutil.NodeElement {
			continue
		}
		if err := fn(); err != nil {
			return err
		}
	}
}

// nullAttr returns true if the current element carries a true m:null
// attribute.
func (r *Reader) nullAttr() (bool, error) {
	v, ok := r.c.Attr("null", NamespaceMetadata)
	if !ok {
		return false, nil
	}
	switch strings.TrimSpace(v) {
	case "true", "1":
		return true, nil
	case "false", "0":
		return false, nil
	}
	return false, errors.WithStack(oderr.InvalidValue(oderr.CodeInvalidNullAttribute, v, oderr.WithAttribute("m:null")))
}

// depthCheck fails with a fatal error once depth exceeds the configured
// maximum.
func (r *Reader) depthCheck(depth int) error {
	if depth > r.s.MaxNestingDepth {
		return errors.WithStack(oderr.NestingLimitExceeded(r.s.MaxNestingDepth))
	}
	return nil
}
