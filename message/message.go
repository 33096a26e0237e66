package message

import (
	"bufio"
	"io"

	"github.com/golang/glog"
	"github.com/pkg/errors"
)

// DefaultPrefixSize is the number of body bytes Prefix makes available
// for payload kind detection when no size option is given.
const DefaultPrefixSize = 4096

// Message is a single OData message, implementing io.ReadCloser.
//
// The body may be peeked at with Prefix any number of times before
// and while it is read; peeking never consumes body bytes.
type Message struct {
	// ContentType is the value of the message Content-Type header
	ContentType string
	// Request is true for request messages, false for responses
	Request bool

	r      *bufio.Reader
	body   io.Reader
	closed bool
	rx     int64
}

// Option is a Message option function
type Option func(*Message)

// WithRequest marks the message as a request message
func WithRequest(request bool) Option { return func(m *Message) { m.Request = request } }

// WithPrefixSize sets the largest prefix which may be peeked at
func WithPrefixSize(n int) Option {
	return func(m *Message) { m.r = bufio.NewReaderSize(m.body, n) }
}

// New returns a new Message reading body, with the given content type.
func New(contentType string, body io.Reader, opts ...Option) *Message {
	m := &Message{ContentType: contentType, body: body}
	m.r = bufio.NewReaderSize(body, DefaultPrefixSize)
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Prefix returns up to n of the next unread body bytes without consuming
// them. A body shorter than n yields a shorter prefix and no error; a
// prefix is bounded by the message buffer size.
func (m *Message) Prefix(n int) ([]byte, error) {
	if m.closed {
		return nil, io.ErrClosedPipe
	}
	if n > m.r.Size() {
		n = m.r.Size()
	}
	b, err := m.r.Peek(n)
	if err == io.EOF || err == bufio.ErrBufferFull {
		err = nil
	}
	if err != nil {
		return b, errors.WithStack(err)
	}
	glog.V(2).Infof("MESSAGE: prefix %d/%d bytes", len(b), n)
	return b, nil
}

// Read reads message body data into p, implementing io.Reader.
func (m *Message) Read(p []byte) (n int, err error) {
	if m.closed {
		return 0, io.EOF
	}
	n, err = m.r.Read(p)
	m.rx += int64(n)
	return
}

// BytesRead returns the number of body bytes consumed by Read
func (m *Message) BytesRead() int64 { return m.rx }

// Close closes the message. Further reads return EOF. The underlying body
// is closed when it implements io.Closer.
func (m *Message) Close() error {
	if m.closed {
		return nil
	}
	m.closed = true
	if c, ok := m.body.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
