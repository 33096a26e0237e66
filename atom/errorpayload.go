package atom

import (
	"fmt"

	"github.com/andaru/atompub/oderr"
	"github.com/andaru/atompub/xmlutil"
	"github.com/golang/glog"
	"github.com/pkg/errors"
)

// ErrorPayload is an OData error, read from a top-level m:error
// document or from an m:error element found in place of content.
type ErrorPayload struct {
	Code            string      `json:"code,omitempty" yaml:"code,omitempty"`
	Message         string      `json:"message,omitempty" yaml:"message,omitempty"`
	MessageLanguage string      `json:"message-language,omitempty" yaml:"message-language,omitempty"`
	InnerError      *InnerError `json:"inner-error,omitempty" yaml:"inner-error,omitempty"`
}

// InnerError is the debugging detail of an error. InternalException
// chains to the cause.
type InnerError struct {
	Message           string      `json:"message,omitempty" yaml:"message,omitempty"`
	TypeName          string      `json:"type,omitempty" yaml:"type,omitempty"`
	StackTrace        string      `json:"stacktrace,omitempty" yaml:"stacktrace,omitempty"`
	InternalException *InnerError `json:"internal-exception,omitempty" yaml:"internal-exception,omitempty"`
}

// InStreamError is returned when an m:error element replaces the content
// of the payload being read.
type InStreamError struct {
	Payload *ErrorPayload
}

func (e *InStreamError) Error() string {
	return fmt.Sprintf("in-stream error code:%q message:%q", e.Payload.Code, e.Payload.Message)
}

// AsInStreamError returns the *InStreamError at the root of err's cause
// chain.
func AsInStreamError(err error) (*InStreamError, bool) {
	e, ok := errors.Cause(err).(*InStreamError)
	return e, ok
}

// ReadError reads a top-level m:error document
func (r *Reader) ReadError() (*ErrorPayload, error) {
	if err := r.root("error", NamespaceMetadata, oderr.CodeRootElementWrongName, oderr.CodeRootElementWrongNamespace); err != nil {
		return nil, err
	}
	return r.readErrorPayload()
}

// inStreamError reads the m:error element the cursor is on and returns
// it as an error.
func (r *Reader) inStreamError() error {
	p, err := r.readErrorPayload()
	if err != nil {
		return err
	}
	glog.V(2).Infof("IN-STREAM-ERROR: code=%q message=%q", p.Code, p.Message)
	return errors.WithStack(&InStreamError{Payload: p})
}

func (r *Reader) readErrorPayload() (*ErrorPayload, error) {
	p := &ErrorPayload{}
	seen := map[string]bool{}
	err := r.children(func() error {
		if r.c.NamespaceURI() != NamespaceMetadata {
			return nil
		}
		name := r.c.LocalName()
		switch name {
		case "code", "message", "innererror":
		default:
			return nil
		}
		if seen[name] {
			return r.duplicate(oderr.CodeMultipleErrorElementsWithSameName)
		}
		seen[name] = true

		var err error
		switch name {
		case "code":
			p.Code, err = r.text()
		case "message":
			p.MessageLanguage, _ = r.c.Attr("lang", xmlutil.NamespaceXML)
			p.Message, err = r.text()
		case "innererror":
			p.InnerError, err = r.readInnerError(1)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// readInnerError reads an innererror or internalexception element at
// nesting depth depth.
func (r *Reader) readInnerError(depth int) (*InnerError, error) {
	if err := r.depthCheck(depth); err != nil {
		return nil, err
	}
	ie := &InnerError{}
	seen := map[string]bool{}
	err := r.children(func() error {
		if r.c.NamespaceURI() != NamespaceMetadata {
			return nil
		}
		name := r.c.LocalName()
		switch name {
		case "message", "type", "stacktrace", "internalexception":
		default:
			return nil
		}
		if seen[name] {
			return r.duplicate(oderr.CodeMultipleInnerErrorElementsWithSameName)
		}
		seen[name] = true

		var err error
		switch name {
		case "message":
			ie.Message, err = r.text()
		case "type":
			ie.TypeName, err = r.text()
		case "stacktrace":
			ie.StackTrace, err = r.text()
		case "internalexception":
			ie.InternalException, err = r.readInnerError(depth + 1)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return ie, nil
}
