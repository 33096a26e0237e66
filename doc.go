/*
Package atompub is a set of OData ATOM and AtomPub payload reading
libraries.

Doing the heavy lifting of namespace aware XML cursoring, payload kind
detection and EDM model validation, these libraries turn OData ATOM
payloads (entries, feeds, properties, collections, entity reference
links, service documents and error payloads) into Go values.

Readers consume a standard io.Reader, so any message body (an HTTP
response, a file, a test fixture) may be read. Payloads declaring a
non-UTF-8 encoding are decoded transparently.

See the atom sub-directory for the Reader, the session sub-directory for
single message read sessions with payload kind detection, and
cmd/atomread for a command line payload reader.
*/
package atompub
