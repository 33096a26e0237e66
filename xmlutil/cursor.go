package xmlutil

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"

	"github.com/andaru/atompub/oderr"
	"github.com/pkg/errors"
	"golang.org/x/net/html/charset"
)

// NamespaceXML is the namespace bound to the reserved "xml" prefix
const NamespaceXML = "http://www.w3.org/XML/1998/namespace"

// NodeType is the type of the node a Cursor is positioned on
type NodeType int

const (
	// NodeNone is the position before the first Read
	NodeNone NodeType = iota
	NodeElement
	NodeEndElement
	NodeText
	NodeComment
	NodeProcInst
	NodeDirective
)

func (t NodeType) String() string {
	switch t {
	case NodeNone:
		return "none"
	case NodeElement:
		return "element"
	case NodeEndElement:
		return "end-element"
	case NodeText:
		return "text"
	case NodeComment:
		return "comment"
	case NodeProcInst:
		return "processing-instruction"
	case NodeDirective:
		return "directive"
	default:
		return fmt.Sprintf("NodeType(%d)", int(t))
	}
}

type node struct {
	typ   NodeType
	name  xml.Name
	attr  []xml.Attr
	text  []byte
	depth int
}

// Cursor is a pull-based, namespace resolving XML node reader with
// look-ahead.
//
// Nodes decoded from the input are held in a buffer. Mark records the
// current position in the buffer and Rewind returns to it, so callers
// may scan forward (e.g. over sibling elements) and then resume reading
// from the marked node. Buffered nodes are released once no mark is
// outstanding.
//
// Depth counts element nesting: the document element has depth 0, and
// its end element, text and children-start elements have depth 0, 0 and
// 1 respectively.
//
// Cursor is not safe for concurrent use.
type Cursor struct {
	dec   *xml.Decoder
	nodes []node
	pos   int
	marks int
	depth int
	err   error
}

// NewCursor returns a new Cursor reading XML from r. Documents
// declaring a non UTF-8 encoding are transcoded.
func NewCursor(r io.Reader) *Cursor {
	d := xml.NewDecoder(r)
	d.CharsetReader = charset.NewReaderLabel
	return &Cursor{dec: d, pos: -1}
}

// Mark is a checkpoint in the Cursor's node buffer
type Mark struct{ pos int }

// Mark returns a checkpoint at the current node. Each Mark must be
// followed by exactly one call to Rewind or Release.
func (c *Cursor) Mark() Mark {
	c.marks++
	return Mark{pos: c.pos}
}

// Rewind repositions the cursor on the node current when m was taken.
func (c *Cursor) Rewind(m Mark) {
	c.pos = m.pos
	c.release()
}

// Release drops the checkpoint m without moving the cursor.
func (c *Cursor) Release(m Mark) { c.release() }

func (c *Cursor) release() {
	if c.marks == 0 {
		panic("xmlutil: Cursor mark released twice")
	}
	c.marks--
}

// LookAhead runs fn and then rewinds the cursor to the node current
// before fn ran.
func (c *Cursor) LookAhead(fn func() error) error {
	m := c.Mark()
	defer c.Rewind(m)
	return fn()
}

// Read advances the cursor to the next node. It returns io.EOF at the
// end of the document, and a fatal malformed XML error if the input is
// not well-formed.
func (c *Cursor) Read() error {
	if c.pos+1 < len(c.nodes) {
		c.pos++
		return nil
	}
	if c.err != nil {
		return c.err
	}
	if c.marks == 0 && len(c.nodes) > 0 {
		// nothing can rewind into the buffer; reuse it
		c.nodes = c.nodes[:0]
		c.pos = -1
	}

	token, err := c.dec.Token()
	if err != nil {
		if err == io.EOF {
			c.err = io.EOF
		} else {
			c.err = errors.WithStack(oderr.MalformedXML(err))
		}
		return c.err
	}

	n := node{depth: c.depth}
	switch token := token.(type) {
	case xml.StartElement:
		n.typ = NodeElement
		n.name = token.Name
		if len(token.Attr) > 0 {
			n.attr = make([]xml.Attr, len(token.Attr))
			copy(n.attr, token.Attr)
		}
		c.depth++
	case xml.EndElement:
		c.depth--
		n.depth = c.depth
		n.typ = NodeEndElement
		n.name = token.Name
	case xml.CharData:
		n.typ = NodeText
		n.text = token.Copy()
	case xml.Comment:
		n.typ = NodeComment
		n.text = token.Copy()
	case xml.ProcInst:
		n.typ = NodeProcInst
		n.name = xml.Name{Local: token.Target}
		n.text = append([]byte(nil), token.Inst...)
	case xml.Directive:
		n.typ = NodeDirective
		n.text = token.Copy()
	}
	c.nodes = append(c.nodes, n)
	c.pos = len(c.nodes) - 1
	return nil
}

func (c *Cursor) cur() *node {
	if c.pos < 0 || c.pos >= len(c.nodes) {
		return &node{}
	}
	return &c.nodes[c.pos]
}

// Type returns the current node type
func (c *Cursor) Type() NodeType { return c.cur().typ }

// Name returns the resolved name of the current element or end element
func (c *Cursor) Name() xml.Name { return c.cur().name }

// LocalName returns the local name of the current element or end element
func (c *Cursor) LocalName() string { return c.cur().name.Local }

// NamespaceURI returns the namespace URI of the current element or end element
func (c *Cursor) NamespaceURI() string { return c.cur().name.Space }

// Depth returns the element depth of the current node
func (c *Cursor) Depth() int { return c.cur().depth }

// Text returns the content of the current text, comment, processing
// instruction or directive node.
func (c *Cursor) Text() string { return string(c.cur().text) }

// Attrs returns the attributes of the current element. Attribute names
// carry resolved namespace URIs.
func (c *Cursor) Attrs() []xml.Attr { return c.cur().attr }

// Attr returns the value of the attribute local in namespace space on
// the current element.
func (c *Cursor) Attr(local, space string) (string, bool) {
	for _, a := range c.cur().attr {
		if a.Name.Local == local && a.Name.Space == space {
			return a.Value, true
		}
	}
	return "", false
}

// Is returns true if the cursor is on the start of element local in
// namespace space.
func (c *Cursor) Is(local, space string) bool {
	n := c.cur()
	return n.typ == NodeElement && n.name.Local == local && n.name.Space == space
}

// significant returns true for elements, end elements and
// non-whitespace text.
func (n *node) significant() bool {
	switch n.typ {
	case NodeElement, NodeEndElement:
		return true
	case NodeText:
		return len(bytes.TrimSpace(n.text)) > 0
	}
	return false
}

// MoveToContent advances the cursor, if necessary, until it is on an
// element, end element or non-whitespace text node. Comments,
// processing instructions, directives and whitespace are skipped.
func (c *Cursor) MoveToContent() error {
	if c.pos < 0 {
		if err := c.Read(); err != nil {
			return err
		}
	}
	for !c.cur().significant() {
		if err := c.Read(); err != nil {
			return err
		}
	}
	return nil
}

// Skip moves the cursor from an element's start to its end element. It
// does nothing if the cursor is not on an element start.
func (c *Cursor) Skip() error {
	n := c.cur()
	if n.typ != NodeElement {
		return nil
	}
	depth := n.depth
	for {
		if err := c.read(); err != nil {
			return err
		}
		if n := c.cur(); n.typ == NodeEndElement && n.depth == depth {
			return nil
		}
	}
}

// NextChild positions the cursor on the next significant child node
// (an element or non-whitespace text) of the element at parentDepth and
// returns true, or on that element's end element and returns false.
//
// A child element left unconsumed by the caller (the cursor remains on
// its start) is skipped.
func (c *Cursor) NextChild(parentDepth int) (bool, error) {
	if n := c.cur(); n.typ == NodeElement && n.depth == parentDepth+1 {
		if err := c.Skip(); err != nil {
			return false, err
		}
	}
	for {
		if err := c.read(); err != nil {
			return false, err
		}
		n := c.cur()
		switch {
		case n.typ == NodeEndElement && n.depth == parentDepth:
			return false, nil
		case n.depth == parentDepth+1 && n.typ != NodeEndElement && n.significant():
			return true, nil
		}
	}
}

// read is Read inside an element, where the end of input is an error.
func (c *Cursor) read() error {
	err := c.Read()
	if err == io.EOF {
		return errors.WithStack(oderr.MalformedXML(io.ErrUnexpectedEOF))
	}
	return err
}

// HasElementChild reports whether the current element has an element
// child, without moving the cursor.
func (c *Cursor) HasElementChild() (found bool, err error) {
	if c.Type() != NodeElement {
		return false, nil
	}
	depth := c.Depth()
	err = c.LookAhead(func() error {
		for {
			more, err := c.NextChild(depth)
			if err != nil || !more {
				return err
			}
			if c.Type() == NodeElement {
				found = true
				return nil
			}
		}
	})
	return found, err
}

// ReadText reads the character data of the current element, which must
// not contain child elements. Comments and processing instructions are
// ignored. The cursor is left on the element's end element.
func (c *Cursor) ReadText() (string, error) {
	n := c.cur()
	if n.typ != NodeElement {
		return "", errors.Errorf("ReadText: cursor on %s, want element", n.typ)
	}
	name, depth := n.name, n.depth
	var buf []byte
	for {
		if err := c.read(); err != nil {
			return "", err
		}
		n := c.cur()
		switch n.typ {
		case NodeText:
			buf = append(buf, n.text...)
		case NodeElement:
			return "", errors.WithStack(oderr.ContentShape(oderr.CodeInvalidNodeInStringValue, name.Local,
				oderr.WithMessage(fmt.Sprintf("unexpected element <%s> in the value of element <%s>", n.name.Local, name.Local))))
		case NodeEndElement:
			if n.depth == depth {
				return string(buf), nil
			}
		}
	}
}

// RequireEmpty consumes the current element and returns err if the
// element contains any element or non-whitespace text.
func (c *Cursor) RequireEmpty(err error) error {
	if c.Type() != NodeElement {
		return nil
	}
	depth := c.Depth()
	more, rerr := c.NextChild(depth)
	if rerr != nil {
		return rerr
	}
	if more {
		return err
	}
	return nil
}

// InnerText reads the concatenated character data of the current
// element and all of its descendants. The cursor is left on the
// element's end element.
func (c *Cursor) InnerText() (string, error) {
	n := c.cur()
	if n.typ != NodeElement {
		return "", errors.Errorf("InnerText: cursor on %s, want element", n.typ)
	}
	depth := n.depth
	var buf []byte
	for {
		if err := c.read(); err != nil {
			return "", err
		}
		n := c.cur()
		switch {
		case n.typ == NodeText:
			buf = append(buf, n.text...)
		case n.typ == NodeEndElement && n.depth == depth:
			return string(buf), nil
		}
	}
}
