package atom

import (
	"bytes"
	"fmt"
	"net/url"

	"github.com/andaru/atompub/schema"
	"github.com/pkg/errors"
)

// Profile selects the strictness of a Reader towards duplicated
// single-occurrence elements.
type Profile int

const (
	// ProfileDefault rejects every duplicate
	ProfileDefault Profile = iota
	// ProfileLenientClient is ProfileLenientServer, and also keeps the
	// first occurrence of duplicated links, properties and feed metadata.
	// Multiple out-of-band properties elements are merged.
	ProfileLenientClient
	// ProfileLenientServer ignores duplicate type categories, ids and
	// content elements.
	ProfileLenientServer
)

var profileNames = [...]string{
	ProfileDefault:       "default",
	ProfileLenientClient: "lenient-client",
	ProfileLenientServer: "lenient-server",
}

func (p Profile) String() string {
	if p >= 0 && int(p) < len(profileNames) {
		return profileNames[p]
	}
	return fmt.Sprintf("Profile(%d)", int(p))
}

func (p Profile) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

func (p *Profile) UnmarshalText(b []byte) error {
	b = bytes.TrimSpace(b)
	for i, name := range profileNames {
		if name == string(b) {
			*p = Profile(i)
			return nil
		}
	}
	return errors.Errorf("unknown profile %q", b)
}

// lenient reports whether a duplicate type category, id or content
// element is skipped rather than rejected.
func (p Profile) lenient() bool { return p != ProfileDefault }

// keepsFirst reports whether a duplicate link, property or feed
// metadata element is dropped in favour of the first occurrence.
func (p Profile) keepsFirst() bool { return p == ProfileLenientClient }

// UndeclaredPropertyBehavior is a set of flags governing properties and
// navigation links not declared by the model.
type UndeclaredPropertyBehavior uint8

const (
	// ReportUndeclaredLink reports undeclared navigation links as
	// deferred links instead of failing.
	ReportUndeclaredLink UndeclaredPropertyBehavior = 1 << iota
	// IgnoreUndeclaredValue drops the values of undeclared properties and
	// the expanded content of undeclared links instead of failing.
	IgnoreUndeclaredValue
)

// Has returns true if all flags in f are set in b
func (b UndeclaredPropertyBehavior) Has(f UndeclaredPropertyBehavior) bool { return b&f == f }

// DefaultMaxNestingDepth bounds expansion and inner error nesting
const DefaultMaxNestingDepth = 100

// Settings is the read-only configuration of a Reader
type Settings struct {
	Profile Profile
	// Model, when set, validates payloads against an EDM model
	Model schema.Model
	// MaxNestingDepth bounds entry expansion and inner error nesting.
	MaxNestingDepth int
	// EnableAtomMetadataReading captures ATOM metadata (titles,
	// categories, accept ranges, authors and generic links). When
	// false such elements are skipped without validation.
	EnableAtomMetadataReading  bool
	UndeclaredPropertyBehavior UndeclaredPropertyBehavior
	// BaseURI resolves relative URIs not covered by an xml:base
	BaseURI *url.URL
	// Request is true when reading a request rather than a response
	// payload.
	Request bool
}

// Option is a Settings option function
type Option func(*Settings)

func WithProfile(p Profile) Option     { return func(s *Settings) { s.Profile = p } }
func WithModel(m schema.Model) Option  { return func(s *Settings) { s.Model = m } }
func WithMaxNestingDepth(n int) Option { return func(s *Settings) { s.MaxNestingDepth = n } }
func WithAtomMetadata(enable bool) Option {
	return func(s *Settings) { s.EnableAtomMetadataReading = enable }
}
func WithBaseURI(u *url.URL) Option   { return func(s *Settings) { s.BaseURI = u } }
func WithRequest(request bool) Option { return func(s *Settings) { s.Request = request } }

func WithUndeclaredPropertyBehavior(b UndeclaredPropertyBehavior) Option {
	return func(s *Settings) { s.UndeclaredPropertyBehavior = b }
}

// NewSettings returns the default Settings modified by opts
func NewSettings(opts ...Option) Settings {
	s := Settings{MaxNestingDepth: DefaultMaxNestingDepth}
	for _, opt := range opts {
		opt(&s)
	}
	if s.MaxNestingDepth <= 0 {
		s.MaxNestingDepth = DefaultMaxNestingDepth
	}
	return s
}
