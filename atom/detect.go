package atom

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/andaru/atompub/mediatype"
	"github.com/andaru/atompub/oderr"
	"github.com/andaru/atompub/schema"
	"github.com/andaru/atompub/xmlutil"
	"github.com/golang/glog"
	"github.com/pkg/errors"
)

// PayloadKind identifies the top-level kind of a payload
type PayloadKind int

const (
	PayloadKindUnknown PayloadKind = iota
	PayloadKindFeed
	PayloadKindEntry
	PayloadKindProperty
	PayloadKindCollection
	PayloadKindEntityReferenceLink
	PayloadKindEntityReferenceLinks
	PayloadKindServiceDocument
	PayloadKindMetadataDocument
	PayloadKindError
)

var payloadKindNames = [...]string{
	PayloadKindUnknown:              "unknown",
	PayloadKindFeed:                 "feed",
	PayloadKindEntry:                "entry",
	PayloadKindProperty:             "property",
	PayloadKindCollection:           "collection",
	PayloadKindEntityReferenceLink:  "entity-reference-link",
	PayloadKindEntityReferenceLinks: "entity-reference-links",
	PayloadKindServiceDocument:      "service-document",
	PayloadKindMetadataDocument:     "metadata-document",
	PayloadKindError:                "error",
}

func (k PayloadKind) String() string {
	if k >= 0 && int(k) < len(payloadKindNames) {
		return payloadKindNames[k]
	}
	return fmt.Sprintf("PayloadKind(%d)", int(k))
}

func (k PayloadKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *PayloadKind) UnmarshalText(b []byte) error {
	s := strings.TrimSpace(string(b))
	for i, name := range payloadKindNames {
		if name == s {
			*k = PayloadKind(i)
			return nil
		}
	}
	return errors.Errorf("unknown payload kind %q", s)
}

// Detection is a candidate payload kind. TypeName is the payload's
// declared type, if any. Err, when set, is the error reading the payload
// as Kind would fail with.
type Detection struct {
	Kind     PayloadKind
	TypeName string
	Err      error
}

// DetectPayloadKind returns the candidate kinds of a payload from its
// content type and a prefix of its body, most likely first. The result
// is empty for unsupported content types and for a prefix that does not
// start with a well-formed root element.
func DetectPayloadKind(contentType string, prefix []byte, opts ...Option) []Detection {
	s := NewSettings(opts...)
	mt, err := mediatype.Parse(contentType)
	if err != nil {
		glog.V(1).Infof("DETECT: content type %q: %v", contentType, err)
		return nil
	}

	var found []Detection
	switch {
	case mt.Is(mediatype.ApplicationAtomXML) && s.Request:
		// the content type alone decides, feeds are not request payloads
		if t, _ := mt.Param("type"); t != nameFeed {
			found = []Detection{{Kind: PayloadKindEntry}}
		}
	case mt.Is(mediatype.ApplicationAtomXML):
		if c, ok := sniff(prefix); ok {
			found = detectAtom(mt, c)
		}
	case mt.Is(mediatype.ApplicationXML), mt.Is(mediatype.TextXML):
		if c, ok := sniff(prefix); ok {
			found = detectXML(c)
		}
	case mt.Is(mediatype.ApplicationAtomSvc):
		if c, ok := sniff(prefix); ok && c.Is("service", NamespaceApp) {
			found = []Detection{{Kind: PayloadKindServiceDocument}}
		}
	}
	glog.V(1).Infof("DETECT: content type %q request=%v: %v", mt.FullType(), s.Request, kinds(found))
	return found
}

// sniff returns a cursor on the root element of prefix
func sniff(prefix []byte) (*xmlutil.Cursor, bool) {
	c := xmlutil.NewCursor(bytes.NewReader(prefix))
	if err := c.MoveToContent(); err != nil || c.Type() != xmlutil.NodeElement {
		return nil, false
	}
	return c, true
}

func detectAtom(mt mediatype.MediaType, c *xmlutil.Cursor) []Detection {
	t, ok := mt.Param("type")
	if !ok {
		switch {
		case c.Is(nameEntry, NamespaceAtom):
			return []Detection{{Kind: PayloadKindEntry}}
		case c.Is(nameFeed, NamespaceAtom):
			return []Detection{{Kind: PayloadKindFeed}}
		}
		return nil
	}
	switch t {
	case nameEntry:
		return []Detection{{Kind: PayloadKindEntry,
			Err: rootError(c, nameEntry, oderr.CodeEntryRootElementWrongName, oderr.CodeEntryRootElementWrongNamespace)}}
	case nameFeed:
		return []Detection{{Kind: PayloadKindFeed,
			Err: rootError(c, nameFeed, oderr.CodeFeedRootElementWrongName, oderr.CodeFeedRootElementWrongNamespace)}}
	}
	return nil
}

// rootError returns the error reading an ATOM root element named local
// fails with, or nil.
func rootError(c *xmlutil.Cursor, local string, nameCode, namespaceCode oderr.Code) error {
	switch {
	case c.LocalName() != local:
		return errors.WithStack(oderr.StructuralMismatch(nameCode, c.LocalName(), c.NamespaceURI()))
	case c.NamespaceURI() != NamespaceAtom:
		return errors.WithStack(oderr.StructuralMismatch(namespaceCode, c.LocalName(), c.NamespaceURI()))
	}
	return nil
}

func detectXML(c *xmlutil.Cursor) []Detection {
	switch {
	case c.Is("error", NamespaceMetadata):
		return []Detection{{Kind: PayloadKindError}}
	case c.Is("service", NamespaceApp):
		return []Detection{{Kind: PayloadKindServiceDocument}}
	case c.Is("Edmx", NamespaceEdmx), c.Is("Edmx", NamespaceEdmxV4):
		return []Detection{{Kind: PayloadKindMetadataDocument}}
	case c.Is("uri", NamespaceData):
		return []Detection{{Kind: PayloadKindEntityReferenceLink}}
	case c.Is("links", NamespaceData):
		return []Detection{{Kind: PayloadKindEntityReferenceLinks}}
	case c.NamespaceURI() != NamespaceData:
		return nil
	}
	typeName, _ := c.Attr("type", NamespaceMetadata)
	typeName = strings.TrimSpace(typeName)
	property := Detection{Kind: PayloadKindProperty, TypeName: typeName}
	collection := Detection{Kind: PayloadKindCollection, TypeName: typeName}
	if _, ok := schema.ItemTypeName(typeName); ok || typeName == "" && itemsAhead(c) {
		return []Detection{collection, property}
	}
	return []Detection{property, collection}
}

// itemsAhead reports whether the first data namespace child of the
// current element is a d:element item. A prefix ending before that
// child reports false.
func itemsAhead(c *xmlutil.Cursor) (items bool) {
	depth := c.Depth()
	_ = c.LookAhead(func() error {
		for {
			more, err := c.NextChild(depth)
			if err != nil || !more {
				return err
			}
			if c.Type() == xmlutil.NodeElement && c.NamespaceURI() == NamespaceData {
				items = c.LocalName() == "element"
				return nil
			}
		}
	})
	return items
}

func kinds(ds []Detection) []string {
	names := make([]string, 0, len(ds))
	for _, d := range ds {
		names = append(names, d.Kind.String())
	}
	return names
}
