package atom

import (
	"net/url"

	"github.com/andaru/atompub/oderr"
	"github.com/golang/glog"
)

// EntityReferenceLinks is the d:links collection of entity reference
// links.
type EntityReferenceLinks struct {
	Count        *int64     `json:"count,omitempty" yaml:"count,omitempty"`
	Links        []*url.URL `json:"links" yaml:"links"`
	NextPageLink *url.URL   `json:"next,omitempty" yaml:"next,omitempty"`
}

// ReadEntityReferenceLink reads a single d:uri entity reference link
func (r *Reader) ReadEntityReferenceLink() (*url.URL, error) {
	if err := r.root("uri", NamespaceData, oderr.CodeRootElementWrongName, oderr.CodeRootElementWrongNamespace); err != nil {
		return nil, err
	}
	return r.uri(r.s.BaseURI)
}

// ReadEntityReferenceLinks reads a d:links collection
func (r *Reader) ReadEntityReferenceLinks() (*EntityReferenceLinks, error) {
	if err := r.root("links", NamespaceData, oderr.CodeRootElementWrongName, oderr.CodeRootElementWrongNamespace); err != nil {
		return nil, err
	}
	base, err := r.xmlBase(r.s.BaseURI)
	if err != nil {
		return nil, err
	}
	links := &EntityReferenceLinks{Links: []*url.URL{}}
	err = r.children(func() error {
		switch {
		case r.c.Is("error", NamespaceMetadata):
			return r.inStreamError()
		case r.c.Is("uri", NamespaceData):
			u, err := r.uri(base)
			if err == nil {
				links.Links = append(links.Links, u)
			}
			return err
		case r.c.Is("next", NamespaceData):
			if links.NextPageLink != nil {
				return r.duplicate(oderr.CodeDuplicateElements)
			}
			var err error
			links.NextPageLink, err = r.uri(base)
			return err
		case r.c.Is("count", NamespaceMetadata):
			if links.Count != nil {
				return r.duplicate(oderr.CodeDuplicateElements)
			}
			var err error
			links.Count, err = r.count()
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	glog.V(2).Infof("LINKS: count=%d", len(links.Links))
	return links, nil
}

// uri reads the URI text of the current element
func (r *Reader) uri(base *url.URL) (*url.URL, error) {
	base, err := r.xmlBase(base)
	if err != nil {
		return nil, err
	}
	v, err := r.primitiveText()
	if err != nil {
		return nil, err
	}
	return resolveURI(base, v, "")
}
