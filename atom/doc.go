/*
Package atom reads OData payloads in the ATOM and AtomPub XML formats.

A Reader reads one top-level payload from an XML stream:

	r := atom.NewReader(body, atom.WithModel(model))
	entry, err := r.ReadEntry("NS.Customer")

Feeds may be streamed with a FeedReader, whose Next method returns io.EOF
after the last entry. Expanded feeds found inside an entry's navigation
links are read eagerly.

The Reader is a single pass, pull based reader. It looks ahead only where
an element's meaning depends on a later sibling (the entry's type
category, untyped property values), using the mark and rewind support of
xmlutil.Cursor.

# Profiles

Profile selects how duplicated single-occurrence elements are treated.
ProfileDefault rejects them. ProfileLenientServer skips duplicate type
categories, ids and content elements. ProfileLenientClient additionally
keeps the first occurrence of duplicated self, edit and edit-media links,
properties and feed level elements; the errors a dropped occurrence would
have raised, such as an invalid href, are never surfaced.

# Errors

Errors are *oderr.Error values wrapped with a stack trace, recovered with
oderr.AsError. An m:error element found in place of content is returned
as an *InStreamError. NestingLimitExceeded and MalformedXML errors are
fatal: the underlying stream is no longer usable.

# Detection

DetectPayloadKind reports the candidate kinds of a payload from its
content type and a prefix of its body, without consuming the body.
*/
package atom
