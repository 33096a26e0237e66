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

// mleStatus is the media link entry recognition state of an entry
type mleStatus int

const (
	mleUndetermined mleStatus = iota
	mleConfirmed
	nonMLEConfirmed
)

func (s mleStatus) String() string {
	switch s {
	case mleConfirmed:
		return "mle"
	case nonMLEConfirmed:
		return "non-mle"
	}
	return "undetermined"
}

// entryState is the state of one entry element being read
type entryState struct {
	entry *Entry
	// typ is the model type of the entry, if a model is configured
	typ   *schema.Type
	base  *url.URL
	depth int

	mle      mleStatus
	mediaSrc bool
	media    MediaResource
	props    propertySet
	seen     map[string]bool
}

// setMLE records an observed media link entry signal
func (st *entryState) setMLE(isMLE bool) error {
	want := nonMLEConfirmed
	if isMLE {
		want = mleConfirmed
	}
	if st.mle != mleUndetermined && st.mle != want {
		return errors.WithStack(oderr.ContentShape(oderr.CodeMediaLinkEntryMismatch, nameEntry,
			oderr.WithMessage(fmt.Sprintf("entry is %s, found %s signal", st.mle, want))))
	}
	st.mle = want
	return nil
}

// once marks key seen and returns true the first time it is called
func (st *entryState) once(key string) bool {
	if st.seen[key] {
		return false
	}
	st.seen[key] = true
	return true
}

// ReadEntry reads a top-level entry document. expectedTypeName, if not
// empty, is the model entity type the entry must be assignable to.
func (r *Reader) ReadEntry(expectedTypeName string) (*Entry, error) {
	expected, err := r.expectedEntityType(expectedTypeName)
	if err != nil {
		return nil, err
	}
	if err := r.root(nameEntry, NamespaceAtom, oderr.CodeEntryRootElementWrongName, oderr.CodeEntryRootElementWrongNamespace); err != nil {
		return nil, err
	}
	return r.readEntry(expected, r.s.BaseURI, 1)
}

func (r *Reader) expectedEntityType(name string) (*schema.Type, error) {
	t, err := r.expectedType(name)
	if err == nil && t != nil && t.Kind != schema.TypeKindEntity {
		err = errors.WithStack(oderr.TypeKindMismatch(oderr.CodeIncorrectTypeKind,
			t.Kind.String(), schema.TypeKindEntity.String(), oderr.WithTypeName(name)))
	}
	return t, err
}

// readEntry reads the entry element the cursor is on. depth is the
// expansion depth: 1 for a top-level entry or the entries of a top-level
// feed.
func (r *Reader) readEntry(expected *schema.Type, base *url.URL, depth int) (*Entry, error) {
	if err := r.depthCheck(depth); err != nil {
		return nil, err
	}
	st := &entryState{entry: &Entry{}, depth: depth, seen: map[string]bool{}}
	var err error
	if st.base, err = r.xmlBase(base); err != nil {
		return nil, err
	}
	st.entry.ETag, _ = r.c.Attr("etag", NamespaceMetadata)
	if err := r.scanTypeCategory(st.entry); err != nil {
		return nil, err
	}
	if st.typ, err = r.entryType(st.entry.TypeName, expected); err != nil {
		return nil, err
	}
	if err := r.children(func() error { return r.readEntryChild(st) }); err != nil {
		return nil, err
	}
	if err := r.closeEntry(st); err != nil {
		return nil, err
	}
	glog.V(2).Infof("ENTRY: type=%q id=%q %s properties=%d links=%d depth=%d",
		st.entry.TypeName, st.entry.ID, st.mle, len(st.entry.Properties), len(st.entry.NavigationLinks), depth)
	return st.entry, nil
}

// scanTypeCategory looks ahead over the entry's children for the first
// category in the type scheme and records its term as e's type name.
// The cursor does not move.
func (r *Reader) scanTypeCategory(e *Entry) error {
	depth := r.c.Depth()
	return r.c.LookAhead(func() error {
		for {
			more, err := r.c.NextChild(depth)
			if err != nil || !more {
				return err
			}
			if !r.c.Is("category", NamespaceAtom) {
				continue
			}
			if scheme, _ := r.c.Attr("scheme", ""); scheme != SchemeType {
				continue
			}
			if e.HasTypeName {
				if r.s.Profile.lenient() {
					return nil
				}
				return r.duplicate(oderr.CodeMultipleTypeCategories)
			}
			e.TypeName, _ = r.c.Attr("term", "")
			e.HasTypeName = true
		}
	})
}

// entryType returns the model type of an entry from its type name and the
// expected type. Without a model there is no type.
func (r *Reader) entryType(name string, expected *schema.Type) (*schema.Type, error) {
	m := r.s.Model
	switch {
	case m == nil:
		return nil, nil
	case name == "":
		return expected, nil
	}
	t, ok := m.ResolveType(name)
	switch {
	case !ok:
		return nil, errors.WithStack(oderr.SchemaConflict(oderr.CodeUnrecognizedTypeName, name))
	case t.Kind != schema.TypeKindEntity:
		return nil, errors.WithStack(oderr.TypeKindMismatch(oderr.CodeIncorrectTypeKind,
			t.Kind.String(), schema.TypeKindEntity.String(), oderr.WithTypeName(name)))
	case !schema.IsAssignable(m, expected, t):
		return nil, errors.WithStack(oderr.TypeNameMismatch(oderr.CodeIncompatibleTypeName, name, expected.Name))
	}
	return t, nil
}

func (r *Reader) readEntryChild(st *entryState) error {
	switch r.c.NamespaceURI() {
	case NamespaceAtom:
		switch r.c.LocalName() {
		case "id":
			return r.readEntryID(st)
		case "link":
			return r.readEntryLink(st)
		case "content":
			return r.readContent(st)
		case "category":
			if scheme, _ := r.c.Attr("scheme", ""); scheme == SchemeType {
				return nil
			}
		}
		return r.readAtomMetadata(&st.entry.Atom, st.base)
	case NamespaceMetadata:
		switch r.c.LocalName() {
		case "properties":
			return r.readOutOfBandProperties(st)
		case "action":
			op, err := r.readOperation(st.base)
			if err == nil {
				st.entry.Actions = append(st.entry.Actions, op)
			}
			return err
		case "function":
			op, err := r.readOperation(st.base)
			if err == nil {
				st.entry.Functions = append(st.entry.Functions, op)
			}
			return err
		case "error":
			return r.inStreamError()
		}
	}
	return nil
}

func (r *Reader) readEntryID(st *entryState) error {
	if !st.once("id") {
		if r.s.Profile.lenient() {
			return nil
		}
		return r.duplicate(oderr.CodeDuplicateElements)
	}
	id, err := r.text()
	st.entry.ID = id
	return err
}

func (r *Reader) readEntryLink(st *entryState) error {
	rawRel, _ := r.c.Attr("rel", "")
	rel := relation(rawRel)
	switch rel {
	case relSelf, relEdit, relEditMedia:
		if !st.once("link:" + rel) {
			if r.s.Profile.keepsFirst() {
				return nil
			}
			return errors.WithStack(oderr.DuplicateElement(oderr.CodeMultipleLinksWithSameRelation, "link", NamespaceAtom,
				oderr.WithAttribute("rel"), oderr.WithMessage("rel="+rel)))
		}
		u, err := r.href(st.base)
		if err != nil {
			return err
		}
		switch rel {
		case relSelf:
			st.entry.ReadLink = u
		case relEdit:
			st.entry.EditLink = u
		case relEditMedia:
			if err := st.setMLE(true); err != nil {
				return err
			}
			st.media.EditLink = u
			st.media.ETag, _ = r.c.Attr("etag", NamespaceMetadata)
		}
		return nil
	}

	if name, ok := relationName(rel, RelNavigationPrefix); ok {
		return r.readNavigationLink(st, name)
	}
	if name, ok := relationName(rel, RelAssociationPrefix); ok {
		u, err := r.href(st.base)
		if err == nil {
			st.entry.AssociationLinks = append(st.entry.AssociationLinks, &AssociationLink{Name: name, URL: u})
		}
		return err
	}
	if name, ok := relationName(rel, RelStreamEditPrefix); ok {
		return r.readStreamLink(st, name, true)
	}
	if name, ok := relationName(rel, RelStreamReadPrefix); ok {
		return r.readStreamLink(st, name, false)
	}
	return r.readAtomMetadata(&st.entry.Atom, st.base)
}

// readStreamLink records the edit or read link of the stream property
// name.
func (r *Reader) readStreamLink(st *entryState, name string, edit bool) error {
	u, err := r.href(st.base)
	if err != nil {
		return err
	}
	var sp *StreamProperty
	for _, it := range st.entry.StreamProperties {
		if it.Name == name {
			sp = it
		}
	}
	if sp == nil {
		sp = &StreamProperty{Name: name}
		st.entry.StreamProperties = append(st.entry.StreamProperties, sp)
	}
	if contentType, ok := r.c.Attr("type", ""); ok {
		sp.ContentType = contentType
	}
	if edit {
		sp.EditLink = u
		sp.ETag, _ = r.c.Attr("etag", NamespaceMetadata)
	} else {
		sp.ReadLink = u
	}
	return nil
}

// readContent reads the atom:content element. With a src attribute the
// entry is a media link entry and the element must be empty; otherwise it
// holds the entry's m:properties.
func (r *Reader) readContent(st *entryState) error {
	if !st.once("content") {
		if r.s.Profile.lenient() {
			return nil
		}
		return r.duplicate(oderr.CodeDuplicateElements)
	}
	contentType, _ := r.c.Attr("type", "")
	var mt mediatype.MediaType
	if contentType != "" {
		var err error
		if mt, err = mediatype.Parse(contentType); err != nil {
			return errors.WithStack(oderr.MediaTypeParse(contentType,
				oderr.WithElement("content", NamespaceAtom), oderr.WithMessage(err.Error())))
		}
	}

	if src, ok := r.c.Attr("src", ""); ok {
		u, err := resolveURI(st.base, src, "src")
		if err != nil {
			return err
		}
		if err := st.setMLE(true); err != nil {
			return err
		}
		st.mediaSrc = true
		st.media.ReadLink, st.media.ContentType = u, contentType
		return r.c.RequireEmpty(errors.WithStack(oderr.ContentShape(oderr.CodeContentWithSourceLinkIsNotEmpty, "content")))
	}

	if contentType != "" && !isEntryContentType(mt) {
		return errors.WithStack(oderr.ContentShape(oderr.CodeContentWithWrongType, "content",
			oderr.WithMessage(fmt.Sprintf("content type %q", contentType))))
	}
	if err := st.setMLE(false); err != nil {
		return err
	}
	return r.children(func() error {
		switch {
		case r.c.Is("properties", NamespaceMetadata):
			return r.readEntryProperties(st)
		case r.c.Is("error", NamespaceMetadata):
			return r.inStreamError()
		}
		return nil
	})
}

// isEntryContentType returns true for the content types of an entry's
// inline properties.
func isEntryContentType(mt mediatype.MediaType) bool {
	switch {
	case mt.Is(mediatype.ApplicationXML):
		return true
	case mt.Is(mediatype.ApplicationAtomXML):
		t, ok := mt.Param("type")
		return !ok || t == nameEntry
	}
	return false
}

// readOutOfBandProperties reads an m:properties element found directly
// under entry, marking the entry as a media link entry.
func (r *Reader) readOutOfBandProperties(st *entryState) error {
	if !r.s.Profile.keepsFirst() {
		if err := st.setMLE(true); err != nil {
			return err
		}
	}
	return r.readEntryProperties(st)
}

func (r *Reader) readEntryProperties(st *entryState) error {
	if !st.once("properties") && !r.s.Profile.keepsFirst() {
		return r.duplicate(oderr.CodeDuplicateElements)
	}
	if err := r.readProperties(st.typ, &st.props, 1); err != nil {
		return err
	}
	st.entry.Properties = st.props.props
	return nil
}

// readOperation reads an m:action or m:function element
func (r *Reader) readOperation(base *url.URL) (*Operation, error) {
	missing := func(attribute string) error {
		return errors.WithStack(oderr.StructuralMismatch(oderr.CodeMissingOperationAttribute,
			r.c.LocalName(), NamespaceMetadata, oderr.WithAttribute(attribute)))
	}
	op := &Operation{}
	var ok bool
	if op.Metadata, ok = r.c.Attr("metadata", ""); !ok {
		return nil, missing("metadata")
	}
	target, ok := r.c.Attr("target", "")
	if !ok {
		return nil, missing("target")
	}
	var err error
	if op.Target, err = resolveURI(base, target, "target"); err != nil {
		return nil, err
	}
	op.Title, _ = r.c.Attr("title", "")
	return op, nil
}

// closeEntry checks the entry's media link entry status once all of its
// children have been read.
func (r *Reader) closeEntry(st *entryState) error {
	if st.mle == mleConfirmed && !st.mediaSrc {
		return errors.WithStack(oderr.ContentShape(oderr.CodeMediaLinkEntryMismatch, nameEntry,
			oderr.WithMessage("media link entry without a content src")))
	}
	if t := st.typ; t != nil {
		switch {
		case st.mle == mleUndetermined:
			if t.HasStream {
				st.mle = mleConfirmed
			}
		case (st.mle == mleConfirmed) != t.HasStream:
			return errors.WithStack(oderr.SchemaConflict(oderr.CodeEntryTypeMediaLinkMismatch, t.Name,
				oderr.WithMessage(fmt.Sprintf("entry is %s, type has stream %v", st.mle, t.HasStream))))
		}
	}
	if st.mle == mleConfirmed {
		media := st.media
		st.entry.MediaResource = &media
	}
	return nil
}
