package oderr

import (
	"bytes"
	"errors"
	"fmt"

	pkgerrors "github.com/pkg/errors"
)

// Kind represents the class of a payload reading error
type Kind int

const (
	// KindStructuralMismatch is a wrong element name or namespace at a fixed position
	KindStructuralMismatch Kind = iota
	// KindDuplicateElement is a violated single-occurrence constraint
	KindDuplicateElement
	// KindTypeKindMismatch is a primitive, complex or collection kind disagreement
	KindTypeKindMismatch
	// KindTypeNameMismatch is a declared versus observed type name disagreement
	KindTypeNameMismatch
	// KindContentShape is a src/content inconsistency or invalid node content
	KindContentShape
	// KindMediaTypeParse is a malformed content type string
	KindMediaTypeParse
	// KindSchemaConflict is a disagreement between the payload and the EDM model
	KindSchemaConflict
	// KindNestingLimitExceeded is fatal; the reader gave up descending
	KindNestingLimitExceeded
	// KindMalformedXML is fatal; the XML token source failed
	KindMalformedXML
	// KindInvalidValue is a lexically invalid attribute, text or URI value
	KindInvalidValue
)

var kindNames = [...]string{
	KindStructuralMismatch:   "structural-mismatch",
	KindDuplicateElement:     "duplicate-element",
	KindTypeKindMismatch:     "type-kind-mismatch",
	KindTypeNameMismatch:     "type-name-mismatch",
	KindContentShape:         "content-shape",
	KindMediaTypeParse:       "media-type-parse",
	KindSchemaConflict:       "schema-conflict",
	KindNestingLimitExceeded: "nesting-limit-exceeded",
	KindMalformedXML:         "malformed-xml",
	KindInvalidValue:         "invalid-value",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *Kind) UnmarshalText(b []byte) error {
	b = bytes.TrimSpace(b)
	for i, name := range kindNames {
		if name == string(b) {
			*k = Kind(i)
			return nil
		}
	}
	return errors.New("unknown value")
}

// Fatal returns true for kinds after which the input stream cannot be
// read any further.
func (k Kind) Fatal() bool { return k == KindNestingLimitExceeded || k == KindMalformedXML }

// Error represents a payload reading error.
type Error struct {
	Kind    Kind   `json:"kind"`
	Code    Code   `json:"code"`
	Message string `json:"message,omitempty"`
	Info    *Info  `json:"info,omitempty"`
}

// Info carries the offending names and values of an Error
type Info struct {
	Element   string `json:"element,omitempty"`
	Namespace string `json:"namespace,omitempty"`
	Attribute string `json:"attribute,omitempty"`
	Property  string `json:"property,omitempty"`
	TypeName  string `json:"type-name,omitempty"`
	Actual    string `json:"actual,omitempty"`
	Expected  string `json:"expected,omitempty"`
}

func (e Error) Error() string {
	s := fmt.Sprintf("%s error code:%s", e.Kind, e.Code)
	if info := e.Info; info != nil {
		if info.Element != "" {
			s += " element:" + info.Element
		}
		if info.Namespace != "" {
			s += " namespace:" + info.Namespace
		}
		if info.Attribute != "" {
			s += " attribute:" + info.Attribute
		}
		if info.Property != "" {
			s += " property:" + info.Property
		}
		if info.TypeName != "" {
			s += " type-name:" + info.TypeName
		}
		if info.Actual != "" || info.Expected != "" {
			s += fmt.Sprintf(" actual:%q expected:%q", info.Actual, info.Expected)
		}
	}
	if e.Message != "" {
		s += " " + e.Message
	}
	return s
}

// Fatal returns true if the error aborts the read of the whole stream
func (e *Error) Fatal() bool { return e.Kind.Fatal() }

func (e *Error) info() *Info {
	if e.Info == nil {
		e.Info = &Info{}
	}
	return e.Info
}

func newError(kind Kind, code Code, info *Info, opts []Option) *Error {
	e := &Error{Kind: kind, Code: code, Info: info}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// AsError returns the *Error at the root of err's cause chain
func AsError(err error) (*Error, bool) {
	if err == nil {
		return nil, false
	}
	var e *Error
	if errors.As(pkgerrors.Cause(err), &e) {
		return e, true
	}
	return nil, false
}

// Is returns true if err is an *Error with the given code
func Is(err error, code Code) bool {
	e, ok := AsError(err)
	return ok && e.Code == code
}

// IsFatal returns true if err is a fatal *Error
func IsFatal(err error) bool {
	e, ok := AsError(err)
	return ok && e.Fatal()
}

func StructuralMismatch(code Code, elementName, namespace string, opts ...Option) *Error {
	return newError(KindStructuralMismatch, code, &Info{Element: elementName, Namespace: namespace}, opts)
}

func DuplicateElement(code Code, elementName, namespace string, opts ...Option) *Error {
	return newError(KindDuplicateElement, code, &Info{Element: elementName, Namespace: namespace}, opts)
}

// TypeKindMismatch reports the actual kind found and the kind expected, in that order.
func TypeKindMismatch(code Code, actual, expected string, opts ...Option) *Error {
	return newError(KindTypeKindMismatch, code, &Info{Actual: actual, Expected: expected}, opts)
}

// TypeNameMismatch reports the actual type name found and the type name expected, in that order.
func TypeNameMismatch(code Code, actual, expected string, opts ...Option) *Error {
	return newError(KindTypeNameMismatch, code, &Info{Actual: actual, Expected: expected}, opts)
}

func ContentShape(code Code, elementName string, opts ...Option) *Error {
	return newError(KindContentShape, code, &Info{Element: elementName}, opts)
}

// MediaTypeParse reports the unparsable media type string as the actual value.
func MediaTypeParse(value string, opts ...Option) *Error {
	return newError(KindMediaTypeParse, CodeMediaTypeInvalid, &Info{Actual: value}, opts)
}

func SchemaConflict(code Code, typeName string, opts ...Option) *Error {
	return newError(KindSchemaConflict, code, &Info{TypeName: typeName}, opts)
}

func NestingLimitExceeded(maxDepth int, opts ...Option) *Error {
	return newError(KindNestingLimitExceeded, CodeMaxNestingDepthExceeded, &Info{Expected: fmt.Sprint(maxDepth)}, opts)
}

func MalformedXML(cause error, opts ...Option) *Error {
	e := newError(KindMalformedXML, CodeMalformedXML, nil, opts)
	if e.Message == "" && cause != nil {
		e.Message = cause.Error()
	}
	return e
}

func InvalidValue(code Code, value string, opts ...Option) *Error {
	return newError(KindInvalidValue, code, &Info{Actual: value}, opts)
}
