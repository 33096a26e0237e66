package atom

import (
	"net/url"
	"strings"

	"github.com/andaru/atompub/oderr"
	"github.com/golang/glog"
	"github.com/pkg/errors"
)

// ServiceDocument is an AtomPub service document
type ServiceDocument struct {
	Workspace *Workspace `json:"workspace" yaml:"workspace"`
}

// Workspace is the single workspace of a service document
type Workspace struct {
	Title       string                `json:"title,omitempty" yaml:"title,omitempty"`
	Collections []*ResourceCollection `json:"collections" yaml:"collections"`
}

// ResourceCollection is an app:collection of a workspace
type ResourceCollection struct {
	URL        *url.URL    `json:"url" yaml:"url"`
	Title      string      `json:"title,omitempty" yaml:"title,omitempty"`
	Accept     string      `json:"accept,omitempty" yaml:"accept,omitempty"`
	Categories *Categories `json:"categories,omitempty" yaml:"categories,omitempty"`
}

// Categories is an app:categories element. Href is set for out-of-line
// categories.
type Categories struct {
	Href       *url.URL    `json:"href,omitempty" yaml:"href,omitempty"`
	Fixed      *bool       `json:"fixed,omitempty" yaml:"fixed,omitempty"`
	Scheme     string      `json:"scheme,omitempty" yaml:"scheme,omitempty"`
	Categories []*Category `json:"categories,omitempty" yaml:"categories,omitempty"`
}

// ReadServiceDocument reads an AtomPub service document
func (r *Reader) ReadServiceDocument() (*ServiceDocument, error) {
	if err := r.root("service", NamespaceApp, oderr.CodeRootElementWrongName, oderr.CodeRootElementWrongNamespace); err != nil {
		return nil, err
	}
	base, err := r.xmlBase(r.s.BaseURI)
	if err != nil {
		return nil, err
	}
	doc := &ServiceDocument{}
	err = r.children(func() error {
		switch {
		case r.c.Is("error", NamespaceMetadata):
			return r.inStreamError()
		case r.c.NamespaceURI() != NamespaceApp:
			return nil
		case r.c.LocalName() != "workspace":
			return r.unexpected()
		case doc.Workspace != nil:
			return r.duplicate(oderr.CodeMultipleWorkspaces)
		}
		var err error
		doc.Workspace, err = r.readWorkspace(base)
		return err
	})
	if err != nil {
		return nil, err
	}
	if doc.Workspace == nil {
		return nil, errors.WithStack(oderr.StructuralMismatch(oderr.CodeMissingWorkspace, "service", NamespaceApp,
			oderr.WithMessage("service document has no workspace")))
	}
	glog.V(2).Infof("SERVICE: collections=%d", len(doc.Workspace.Collections))
	return doc, nil
}

// unexpected returns the error for an unrecognised element in the
// AtomPub namespace.
func (r *Reader) unexpected() error {
	return errors.WithStack(oderr.StructuralMismatch(oderr.CodeUnexpectedElementInNamespace,
		r.c.LocalName(), r.c.NamespaceURI()))
}

func (r *Reader) readWorkspace(base *url.URL) (*Workspace, error) {
	base, err := r.xmlBase(base)
	if err != nil {
		return nil, err
	}
	ws := &Workspace{Collections: []*ResourceCollection{}}
	titled := false
	err = r.children(func() error {
		switch r.c.NamespaceURI() {
		case NamespaceMetadata:
			if r.c.LocalName() == "error" {
				return r.inStreamError()
			}
		case NamespaceAtom:
			if !r.s.EnableAtomMetadataReading || r.c.LocalName() != "title" {
				return nil
			}
			if titled {
				return r.duplicate(oderr.CodeDuplicateElements)
			}
			titled = true
			var err error
			ws.Title, err = r.c.InnerText()
			return err
		case NamespaceApp:
			if r.c.LocalName() != "collection" {
				return r.unexpected()
			}
			rc, err := r.readCollectionElement(base)
			if err == nil {
				ws.Collections = append(ws.Collections, rc)
			}
			return err
		}
		return nil
	})
	return ws, err
}

// readCollectionElement reads an app:collection element
func (r *Reader) readCollectionElement(base *url.URL) (*ResourceCollection, error) {
	href, ok := r.c.Attr("href", "")
	if !ok {
		return nil, errors.WithStack(oderr.StructuralMismatch(oderr.CodeMissingCollectionHref, "collection", NamespaceApp,
			oderr.WithAttribute("href")))
	}
	base, err := r.xmlBase(base)
	if err != nil {
		return nil, err
	}
	rc := &ResourceCollection{}
	if rc.URL, err = resolveURI(base, href, "href"); err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	err = r.children(func() error {
		ns, local := r.c.NamespaceURI(), r.c.LocalName()
		switch {
		case ns == NamespaceMetadata && local == "error":
			return r.inStreamError()
		case ns == NamespaceApp && local != "accept" && local != "categories":
			return r.unexpected()
		case ns != NamespaceApp && (ns != NamespaceAtom || local != "title"):
			return nil
		case !r.s.EnableAtomMetadataReading:
			return nil
		case seen[local]:
			return r.duplicate(oderr.CodeDuplicateElements)
		}
		seen[local] = true
		var err error
		switch local {
		case "title":
			rc.Title, err = r.c.InnerText()
		case "accept":
			rc.Accept, err = r.text()
		case "categories":
			rc.Categories, err = r.readCategories(base)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return rc, nil
}

func (r *Reader) readCategories(base *url.URL) (*Categories, error) {
	cats := &Categories{}
	if v, ok := r.c.Attr("fixed", ""); ok {
		var fixed bool
		switch strings.TrimSpace(v) {
		case "yes":
			fixed = true
		case "no":
		default:
			return nil, errors.WithStack(oderr.InvalidValue(oderr.CodeInvalidFixedAttribute, v,
				oderr.WithElement("categories", NamespaceApp), oderr.WithAttribute("fixed")))
		}
		cats.Fixed = &fixed
	}
	var err error
	if cats.Href, err = r.href(base); err != nil {
		return nil, err
	}
	cats.Scheme, _ = r.c.Attr("scheme", "")
	err = r.children(func() error {
		if r.c.Is("category", NamespaceAtom) {
			cats.Categories = append(cats.Categories, r.category())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cats, nil
}
