// Package mediatype parses media type strings as found in HTTP
// Content-Type headers and ATOM type attributes.
package mediatype

import (
	"mime"
	"strings"

	"github.com/pkg/errors"
)

// Well-known media types read by the ATOM payload reader.
const (
	ApplicationXML     = "application/xml"
	TextXML            = "text/xml"
	ApplicationAtomXML = "application/atom+xml"
	ApplicationAtomSvc = "application/atomsvc+xml"
)

// MediaType is a parsed media type: type, subtype and parameters.
// Type, Subtype and parameter names are lower case.
type MediaType struct {
	Type    string
	Subtype string
	Params  map[string]string
}

// Parse parses a media type string such as
// "application/atom+xml;type=entry".
func Parse(s string) (MediaType, error) {
	full, params, err := mime.ParseMediaType(s)
	if err != nil {
		return MediaType{}, errors.Wrapf(err, "invalid media type %q", s)
	}
	typ, sub, ok := strings.Cut(full, "/")
	if !ok || typ == "" || sub == "" || typ == "*" && sub != "*" {
		return MediaType{}, errors.Errorf("invalid media type %q", s)
	}
	return MediaType{Type: typ, Subtype: sub, Params: params}, nil
}

// FullType returns type/subtype.
func (m MediaType) FullType() string { return m.Type + "/" + m.Subtype }

// Is returns true if m is fullType (case-insensitively), ignoring parameters.
func (m MediaType) Is(fullType string) bool { return strings.EqualFold(m.FullType(), fullType) }

// Param returns the named parameter value, and whether it was present.
func (m MediaType) Param(name string) (string, bool) {
	v, ok := m.Params[strings.ToLower(name)]
	return v, ok
}

func (m MediaType) String() string { return mime.FormatMediaType(m.FullType(), m.Params) }
