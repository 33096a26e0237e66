package atom

import (
	"fmt"
	"net/url"

	"github.com/andaru/atompub/schema"
)

// Entry is an OData entity read from an ATOM entry element
type Entry struct {
	// TypeName is the term of the entry's type category. HasTypeName
	// distinguishes an empty term from an absent category.
	TypeName    string `json:"type-name,omitempty" yaml:"type-name,omitempty"`
	HasTypeName bool   `json:"-" yaml:"-"`

	ID       string   `json:"id,omitempty" yaml:"id,omitempty"`
	ETag     string   `json:"etag,omitempty" yaml:"etag,omitempty"`
	ReadLink *url.URL `json:"read-link,omitempty" yaml:"read-link,omitempty"`
	EditLink *url.URL `json:"edit-link,omitempty" yaml:"edit-link,omitempty"`
	// MediaResource is non-nil if and only if the entry is a media link
	// entry.
	MediaResource *MediaResource `json:"media-resource,omitempty" yaml:"media-resource,omitempty"`

	Properties       []*Property        `json:"properties,omitempty" yaml:"properties,omitempty"`
	NavigationLinks  []*NavigationLink  `json:"navigation-links,omitempty" yaml:"navigation-links,omitempty"`
	AssociationLinks []*AssociationLink `json:"association-links,omitempty" yaml:"association-links,omitempty"`
	StreamProperties []*StreamProperty  `json:"stream-properties,omitempty" yaml:"stream-properties,omitempty"`
	Actions          []*Operation       `json:"actions,omitempty" yaml:"actions,omitempty"`
	Functions        []*Operation       `json:"functions,omitempty" yaml:"functions,omitempty"`

	// Atom holds ATOM metadata when metadata reading is enabled
	Atom *Metadata `json:"atom,omitempty" yaml:"atom,omitempty"`
}

// IsMediaLinkEntry returns true if e is a media link entry
func (e *Entry) IsMediaLinkEntry() bool { return e.MediaResource != nil }

// Property returns the property named name
func (e *Entry) Property(name string) (*Property, bool) { return findProperty(e.Properties, name) }

// NavigationLink returns the navigation link named name
func (e *Entry) NavigationLink(name string) (*NavigationLink, bool) {
	for _, l := range e.NavigationLinks {
		if l.Name == name {
			return l, true
		}
	}
	return nil, false
}

func findProperty(props []*Property, name string) (*Property, bool) {
	for _, p := range props {
		if p.Name == name {
			return p, true
		}
	}
	return nil, false
}

// MediaResource describes the media resource of a media link entry
type MediaResource struct {
	ReadLink    *url.URL `json:"read-link,omitempty" yaml:"read-link,omitempty"`
	EditLink    *url.URL `json:"edit-link,omitempty" yaml:"edit-link,omitempty"`
	ContentType string   `json:"content-type,omitempty" yaml:"content-type,omitempty"`
	ETag        string   `json:"etag,omitempty" yaml:"etag,omitempty"`
}

// StreamProperty is a named stream of an entry
type StreamProperty struct {
	Name string `json:"name" yaml:"name"`
	MediaResource
}

// AssociationLink is the URL of the links between an entry and the
// targets of one of its navigation properties.
type AssociationLink struct {
	Name string   `json:"name" yaml:"name"`
	URL  *url.URL `json:"url,omitempty" yaml:"url,omitempty"`
}

// Operation describes an action or function bound to an entry
type Operation struct {
	Metadata string   `json:"metadata" yaml:"metadata"`
	Target   *url.URL `json:"target" yaml:"target"`
	Title    string   `json:"title,omitempty" yaml:"title,omitempty"`
}

// Feed is an OData entity set read from an ATOM feed element
type Feed struct {
	ID           string   `json:"id,omitempty" yaml:"id,omitempty"`
	Count        *int64   `json:"count,omitempty" yaml:"count,omitempty"`
	ReadLink     *url.URL `json:"read-link,omitempty" yaml:"read-link,omitempty"`
	NextPageLink *url.URL `json:"next-page-link,omitempty" yaml:"next-page-link,omitempty"`
	// Entries holds the entries of an eagerly read feed
	Entries []*Entry  `json:"entries,omitempty" yaml:"entries,omitempty"`
	Atom    *Metadata `json:"atom,omitempty" yaml:"atom,omitempty"`
}

// Cardinality is the target multiplicity of a navigation link
type Cardinality int

const (
	CardinalityUnknown Cardinality = iota
	CardinalitySingleton
	CardinalityCollection
)

func (c Cardinality) String() string {
	switch c {
	case CardinalityUnknown:
		return "unknown"
	case CardinalitySingleton:
		return "singleton"
	case CardinalityCollection:
		return "collection"
	default:
		return fmt.Sprintf("Cardinality(%d)", int(c))
	}
}

func (c Cardinality) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

// NavigationLink is a navigation property link of an entry. A nil
// Expansion is a deferred link.
type NavigationLink struct {
	Name        string      `json:"name" yaml:"name"`
	Cardinality Cardinality `json:"cardinality" yaml:"cardinality"`
	URL         *url.URL    `json:"url,omitempty" yaml:"url,omitempty"`
	Expansion   Expansion   `json:"expansion,omitempty" yaml:"expansion,omitempty"`
}

// IsExpanded returns true if the link carries inline content
func (l *NavigationLink) IsExpanded() bool { return l.Expansion != nil }

// Expansion is the inline content of an expanded navigation link: one of
// *ExpandedEntry, *ExpandedFeed or *ExpandedNull.
type Expansion interface{ isExpansion() }

type ExpandedEntry struct {
	Entry *Entry `json:"entry" yaml:"entry"`
}

type ExpandedFeed struct {
	Feed *Feed `json:"feed" yaml:"feed"`
}

// ExpandedNull is an empty inline element: the link has no target
type ExpandedNull struct{}

func (*ExpandedEntry) isExpansion() {}
func (*ExpandedFeed) isExpansion()  {}
func (*ExpandedNull) isExpansion()  {}

// Property is a named property value. A nil Value is null.
type Property struct {
	Name string `json:"name" yaml:"name"`
	// TypeName is the type name given by the payload or the model
	TypeName string `json:"type-name,omitempty" yaml:"type-name,omitempty"`
	Value    Value  `json:"value" yaml:"value"`
}

// Value is a property or collection item value: one of
// *PrimitiveValue, *ComplexValue or *CollectionValue.
type Value interface {
	// Kind returns the value's type kind
	Kind() schema.TypeKind
}

// PrimitiveValue is a primitive value. Value holds the text converted
// according to TypeName: string, bool, uint8, int8, int16, int32,
// int64, float32, float64, time.Time, time.Duration, uuid.UUID or
// []byte. Decimals and types without a conversion keep their text.
type PrimitiveValue struct {
	TypeName string      `json:"type-name" yaml:"type-name"`
	Text     string      `json:"text" yaml:"text"`
	Value    interface{} `json:"-" yaml:"-"`
}

// ComplexValue is a bag of named property values
type ComplexValue struct {
	TypeName   string      `json:"type-name,omitempty" yaml:"type-name,omitempty"`
	Properties []*Property `json:"properties" yaml:"properties"`
}

// Property returns the property named name
func (v *ComplexValue) Property(name string) (*Property, bool) {
	return findProperty(v.Properties, name)
}

// CollectionValue is a collection of primitive or complex items. A nil
// item is null.
type CollectionValue struct {
	TypeName     string          `json:"type-name,omitempty" yaml:"type-name,omitempty"`
	ItemTypeName string          `json:"item-type-name,omitempty" yaml:"item-type-name,omitempty"`
	ItemKind     schema.TypeKind `json:"-" yaml:"-"`
	Items        []Value         `json:"items" yaml:"items"`
}

func (*PrimitiveValue) Kind() schema.TypeKind  { return schema.TypeKindPrimitive }
func (*ComplexValue) Kind() schema.TypeKind    { return schema.TypeKindComplex }
func (*CollectionValue) Kind() schema.TypeKind { return schema.TypeKindCollection }

// Metadata is the ATOM metadata of an entry or feed
type Metadata struct {
	Title      string      `json:"title,omitempty" yaml:"title,omitempty"`
	Summary    string      `json:"summary,omitempty" yaml:"summary,omitempty"`
	Rights     string      `json:"rights,omitempty" yaml:"rights,omitempty"`
	Updated    string      `json:"updated,omitempty" yaml:"updated,omitempty"`
	Published  string      `json:"published,omitempty" yaml:"published,omitempty"`
	Authors    []string    `json:"authors,omitempty" yaml:"authors,omitempty"`
	Categories []*Category `json:"categories,omitempty" yaml:"categories,omitempty"`
	Links      []*Link     `json:"links,omitempty" yaml:"links,omitempty"`
}

// Link is an ATOM link not interpreted by the reader
type Link struct {
	Rel   string   `json:"rel,omitempty" yaml:"rel,omitempty"`
	Href  *url.URL `json:"href,omitempty" yaml:"href,omitempty"`
	Type  string   `json:"type,omitempty" yaml:"type,omitempty"`
	Title string   `json:"title,omitempty" yaml:"title,omitempty"`
}

// Category is an ATOM category
type Category struct {
	Term   string `json:"term" yaml:"term"`
	Scheme string `json:"scheme,omitempty" yaml:"scheme,omitempty"`
	Label  string `json:"label,omitempty" yaml:"label,omitempty"`
}
