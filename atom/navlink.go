package atom

import (
	"fmt"
	"net/url"

	"github.com/andaru/atompub/mediatype"
	"github.com/andaru/atompub/oderr"
	"github.com/andaru/atompub/schema"
	"github.com/golang/glog"
	"github.com/pkg/errors"
)

// readNavigationLink reads the navigation link for property name the
// cursor is on, along with any m:inline expansion.
func (r *Reader) readNavigationLink(st *entryState, name string) error {
	link := &NavigationLink{Name: name}
	var err error
	if link.URL, err = r.href(st.base); err != nil {
		return err
	}
	if v, ok := r.c.Attr("type", ""); ok && v != "" {
		mt, err := mediatype.Parse(v)
		if err != nil {
			return errors.WithStack(oderr.MediaTypeParse(v,
				oderr.WithElement("link", NamespaceAtom), oderr.WithProperty(name), oderr.WithMessage(err.Error())))
		}
		if mt.Is(mediatype.ApplicationAtomXML) {
			switch t, _ := mt.Param("type"); t {
			case nameEntry:
				link.Cardinality = CardinalitySingleton
			case nameFeed:
				link.Cardinality = CardinalityCollection
			}
		}
	}

	target, declared, err := r.navigationProperty(st.typ, link)
	if err != nil {
		return err
	}
	inline := false
	err = r.children(func() error {
		if r.c.Is("error", NamespaceMetadata) {
			return r.inStreamError()
		}
		if !r.c.Is("inline", NamespaceMetadata) {
			return nil
		}
		if inline {
			return r.duplicate(oderr.CodeDuplicateElements)
		}
		inline = true
		if !declared {
			return r.undeclaredInline(st.typ, name)
		}
		return r.readInline(link, target, st.base, st.depth)
	})
	if err != nil {
		return err
	}
	glog.V(2).Infof("NAVIGATION-LINK: %s cardinality=%s expanded=%v", name, link.Cardinality, link.IsExpanded())
	st.entry.NavigationLinks = append(st.entry.NavigationLinks, link)
	return nil
}

// navigationProperty validates link against the navigation property of
// owner it names and returns the property's target entity type. declared
// is false for a reported undeclared link.
func (r *Reader) navigationProperty(owner *schema.Type, link *NavigationLink) (target *schema.Type, declared bool, err error) {
	m := r.s.Model
	if owner == nil || m == nil {
		return nil, true, nil
	}
	p, ok := m.PropertyOf(owner, link.Name)
	switch {
	case !ok && r.s.UndeclaredPropertyBehavior.Has(ReportUndeclaredLink):
		return nil, false, nil
	case !ok:
		return nil, false, errors.WithStack(oderr.SchemaConflict(oderr.CodePropertyDoesNotExist, owner.Name, oderr.WithProperty(link.Name)))
	case !p.Navigation:
		return nil, false, errors.WithStack(oderr.SchemaConflict(oderr.CodeNavigationPropertyExpected, owner.Name, oderr.WithProperty(link.Name)))
	}

	cardinality, targetName := CardinalitySingleton, p.TypeName
	if item, ok := schema.ItemTypeName(p.TypeName); ok {
		cardinality, targetName = CardinalityCollection, item
	}
	if link.Cardinality != CardinalityUnknown && link.Cardinality != cardinality {
		return nil, false, errors.WithStack(oderr.SchemaConflict(oderr.CodeNavigationCardinalityMismatch, p.DeclaringType,
			oderr.WithProperty(link.Name), oderr.WithMessage(fmt.Sprintf("link is %s, property is %s", link.Cardinality, cardinality))))
	}
	link.Cardinality = cardinality
	if target, ok = m.ResolveType(targetName); !ok {
		return nil, false, errors.WithStack(oderr.SchemaConflict(oderr.CodeUnrecognizedTypeName, targetName, oderr.WithProperty(link.Name)))
	}
	return target, true, nil
}

// undeclaredInline handles the m:inline element of an undeclared link:
// expanded content is dropped or rejected, the link stays deferred.
func (r *Reader) undeclaredInline(owner *schema.Type, name string) error {
	hasContent, err := r.c.HasElementChild()
	if err != nil || !hasContent || r.s.UndeclaredPropertyBehavior.Has(IgnoreUndeclaredValue) {
		return err
	}
	return errors.WithStack(oderr.SchemaConflict(oderr.CodeUndeclaredLinkValue, owner.Name, oderr.WithProperty(name)))
}

// readInline reads the m:inline element the cursor is on into link's
// expansion. depth is the expansion depth of the entry holding link.
func (r *Reader) readInline(link *NavigationLink, target *schema.Type, base *url.URL, depth int) error {
	err := r.children(func() error {
		switch {
		case r.c.Is("error", NamespaceMetadata):
			return r.inStreamError()
		case r.c.NamespaceURI() != NamespaceAtom:
			return nil
		}
		local := r.c.LocalName()
		if local != nameEntry && local != nameFeed {
			return nil
		}
		if link.Expansion != nil {
			return errors.WithStack(oderr.DuplicateElement(oderr.CodeMultipleExpansionsInInline, local, NamespaceAtom,
				oderr.WithProperty(link.Name)))
		}
		if local == nameEntry {
			if link.Cardinality == CardinalityCollection {
				return errors.WithStack(oderr.TypeKindMismatch(oderr.CodeExpandedEntryInFeedLink, "Entry", "Feed",
					oderr.WithProperty(link.Name)))
			}
			e, err := r.readEntry(target, base, depth+1)
			if err != nil {
				return err
			}
			link.Cardinality, link.Expansion = CardinalitySingleton, &ExpandedEntry{Entry: e}
			return nil
		}
		if link.Cardinality == CardinalitySingleton {
			return errors.WithStack(oderr.TypeKindMismatch(oderr.CodeExpandedFeedInEntryLink, "Feed", "Entry",
				oderr.WithProperty(link.Name)))
		}
		fr, err := r.newFeedReader(target, base, depth+1)
		if err != nil {
			return err
		}
		f, err := fr.readAll()
		if err != nil {
			return err
		}
		link.Cardinality, link.Expansion = CardinalityCollection, &ExpandedFeed{Feed: f}
		return nil
	})
	if err != nil {
		return err
	}
	if link.Expansion == nil {
		if link.Cardinality == CardinalityCollection {
			return errors.WithStack(oderr.TypeKindMismatch(oderr.CodeExpandedEntryInFeedLink, "Null", "Feed",
				oderr.WithProperty(link.Name)))
		}
		link.Cardinality, link.Expansion = CardinalitySingleton, &ExpandedNull{}
	}
	return nil
}
