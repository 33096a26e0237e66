package xmlutil

import "encoding/xml"

// XMLName is a shortcut for creating xml.Name, where typically you want at least
// a local name, and perhaps a namespace value as well.
func XMLName(local string, spaces ...string) xml.Name {
	n := xml.Name{Local: local}
	if len(spaces) > 0 {
		n.Space = spaces[0]
	}
	return n
}

// ElementString pretty prints the start tag of an element named n, for
// use in error messages, e.g. <entry xmlns="http://www.w3.org/2005/Atom">
func ElementString(n xml.Name) string {
	local := n.Local
	if local == "" {
		return ""
	}
	if ns := n.Space; ns != "" {
		return "<" + local + ` xmlns="` + ns + `">`
	}
	return "<" + local + ">"
}

// ElementString returns the current node's name as an ElementString.
func (c *Cursor) ElementString() string { return ElementString(c.Name()) }
