package session

import (
	"net/url"

	"github.com/andaru/atompub/atom"
	"github.com/andaru/atompub/message"
	"github.com/andaru/atompub/schema"
	"github.com/golang/glog"
	"github.com/pkg/errors"
)

// New returns a new Session reading the message msg
func New(msg *message.Message, config Config) *Session {
	if msg.Request {
		config.Request = true
	}
	return &Session{
		Config:  &config,
		State:   &State{},
		Message: msg,
	}
}

// Run executes the Session s, using Handler h. The payload is read as
// s.Config.Kind, or as the detected kind when that is unset.
func Run(s *Session, h Handler) {
	if p, err := s.Read(s.Config.Kind); err == nil {
		h.OnPayload(s, p)
	} else {
		h.OnError(s)
	}
	s.Close()
}

// Session reads a single OData message
type Session struct {
	Config  *Config
	State   *State
	Message *message.Message
}

// Handler is the Session handler interface. See Run() for usage.
type Handler interface {
	// OnPayload is called once the message payload has been read
	OnPayload(*Session, *Payload)
	// OnError is called instead of OnPayload when detection or reading
	// fails. The session's Errors describe the failure.
	OnError(*Session)
}

// Handlers adapts a pair of functions to the Handler interface. Nil
// functions are not called.
type Handlers struct {
	Payload func(*Session, *Payload)
	Error   func(*Session)
}

func (h Handlers) OnPayload(s *Session, p *Payload) {
	if h.Payload != nil {
		h.Payload(s, p)
	}
}

func (h Handlers) OnError(s *Session) {
	if h.Error != nil {
		h.Error(s)
	}
}

// Payload is a read message payload. Kind names the populated field;
// Property holds both Property and Collection payloads.
type Payload struct {
	Kind                 atom.PayloadKind           `yaml:"kind"`
	Entry                *atom.Entry                `yaml:"entry,omitempty"`
	Feed                 *atom.Feed                 `yaml:"feed,omitempty"`
	Property             *atom.Property             `yaml:"property,omitempty"`
	EntityReferenceLink  *url.URL                   `yaml:"entity-reference-link,omitempty"`
	EntityReferenceLinks *atom.EntityReferenceLinks `yaml:"entity-reference-links,omitempty"`
	ServiceDocument      *atom.ServiceDocument      `yaml:"service-document,omitempty"`
	Metadata             *schema.Schema             `yaml:"-"`
	Error                *atom.ErrorPayload         `yaml:"error,omitempty"`
}

// State contains runtime Session state
type State struct {
	// Status is the session status
	Status Status
	// Candidates are the payload kinds detected for the message, most
	// likely first
	Candidates []atom.Detection
	// Kind is the payload kind read, or about to be read
	Kind atom.PayloadKind
	// Counters contains session counters
	Counters struct {
		// Entries is the number of entries read, including expanded ones
		Entries int
	}

	// Opaque is user private data and is not used by the atompub libraries.
	Opaque interface{}

	errs []error
}

// Status is a Session's (present) state.
type Status int

const (
	// StatusInactive is the initial session state, indicating that
	// the message has not been looked at.
	StatusInactive Status = iota
	// StatusDetected is set once payload kind detection has run and
	// found at least one candidate kind.
	StatusDetected
	// StatusRead is set after the payload was read successfully
	StatusRead

	// StatusError indicates the session has encountered an error.
	StatusError
	// StatusClosed indicates the session closed normally.
	StatusClosed
)

var statusNames = [...]string{
	StatusInactive: "inactive",
	StatusDetected: "detected",
	StatusRead:     "read",
	StatusError:    "error",
	StatusClosed:   "closed",
}

func (s Status) String() string {
	if s >= 0 && int(s) < len(statusNames) {
		return statusNames[s]
	}
	return "unknown"
}

// Detect runs payload kind detection over the message prefix, recording
// the candidates in the session state. It returns the first candidate
// kind whose root element matched.
func (s *Session) Detect() (atom.PayloadKind, error) {
	prefix, err := s.Message.Prefix(message.DefaultPrefixSize)
	if err != nil {
		return s.fail(err)
	}
	s.State.Candidates = atom.DetectPayloadKind(s.Message.ContentType, prefix, atom.WithRequest(s.Config.Request))
	for _, d := range s.State.Candidates {
		if d.Err == nil {
			s.State.Kind = d.Kind
			s.State.Status = StatusDetected
			glog.V(1).Infof("SESSION: detected %s of %d candidate(s)", d.Kind, len(s.State.Candidates))
			return d.Kind, nil
		}
	}
	if len(s.State.Candidates) > 0 {
		return s.fail(s.State.Candidates[0].Err)
	}
	return s.fail(errors.Errorf("no payload kind detected for content type %q", s.Message.ContentType))
}

// Read reads the message payload as kind, detecting the kind first when
// kind is atom.PayloadKindUnknown. A payload may only be read once.
func (s *Session) Read(kind atom.PayloadKind) (*Payload, error) {
	switch s.State.Status {
	case StatusRead, StatusClosed:
		return nil, errors.Errorf("session %s", s.State.Status)
	case StatusError:
		return nil, s.Errors()[0]
	}
	if kind == atom.PayloadKindUnknown {
		var err error
		if kind, err = s.Detect(); err != nil {
			return nil, err
		}
	}
	s.State.Kind = kind

	opts, err := s.Config.Options()
	if err != nil {
		_, err = s.fail(err)
		return nil, err
	}
	p := &Payload{Kind: kind}
	r := atom.NewReader(s.Message, opts...)
	expected := s.Config.ExpectedType
	switch kind {
	case atom.PayloadKindEntry:
		p.Entry, err = r.ReadEntry(expected)
	case atom.PayloadKindFeed:
		p.Feed, err = r.ReadFeed(expected)
	case atom.PayloadKindProperty:
		p.Property, err = r.ReadProperty(expected)
	case atom.PayloadKindCollection:
		p.Property, err = r.ReadCollection(expected)
	case atom.PayloadKindEntityReferenceLink:
		p.EntityReferenceLink, err = r.ReadEntityReferenceLink()
	case atom.PayloadKindEntityReferenceLinks:
		p.EntityReferenceLinks, err = r.ReadEntityReferenceLinks()
	case atom.PayloadKindServiceDocument:
		p.ServiceDocument, err = r.ReadServiceDocument()
	case atom.PayloadKindMetadataDocument:
		p.Metadata, err = schema.ParseCSDL(s.Message)
	case atom.PayloadKindError:
		p.Error, err = r.ReadError()
	default:
		err = errors.Errorf("cannot read payload kind %s", kind)
	}
	if err != nil {
		_, err = s.fail(err)
		return nil, err
	}
	s.count(p)
	s.State.Status = StatusRead
	glog.V(1).Infof("SESSION: read %s (%d bytes, %d entries)", kind, s.Message.BytesRead(), s.State.Counters.Entries)
	return p, nil
}

// Close closes the Session
func (s *Session) Close() error {
	if s.State.Status != StatusError {
		s.State.Status = StatusClosed
	}
	return s.Message.Close()
}

// AddError adds an error to the session state
func (s *Session) AddError(errs ...error) (added int) {
	for _, err := range errs {
		if err != nil {
			s.State.errs = append(s.State.errs, err)
			added++
		}
	}
	return added
}

// Errors returns all session errors
func (s *Session) Errors() []error { return s.State.errs }

// Run executes the session using Handler h
func (s *Session) Run(h Handler) { Run(s, h) }

func (s *Session) fail(err error) (atom.PayloadKind, error) {
	s.AddError(err)
	s.State.Status = StatusError
	glog.V(1).Infof("SESSION: %v", err)
	return atom.PayloadKindUnknown, err
}

func (s *Session) count(p *Payload) {
	switch {
	case p.Entry != nil:
		s.State.Counters.Entries += countEntry(p.Entry)
	case p.Feed != nil:
		s.State.Counters.Entries += countFeed(p.Feed)
	}
}

func countFeed(f *atom.Feed) (n int) {
	for _, e := range f.Entries {
		n += countEntry(e)
	}
	return n
}

func countEntry(e *atom.Entry) int {
	n := 1
	for _, l := range e.NavigationLinks {
		switch x := l.Expansion.(type) {
		case *atom.ExpandedEntry:
			n += countEntry(x.Entry)
		case *atom.ExpandedFeed:
			n += countFeed(x.Feed)
		}
	}
	return n
}
