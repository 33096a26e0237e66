package atom

import (
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/andaru/atompub/oderr"
	"github.com/andaru/atompub/schema"
	"github.com/andaru/atompub/xmlutil"
	"github.com/golang/glog"
	"github.com/pkg/errors"
)

// FeedReader streams the entries of a feed. Feed level elements found
// before an entry are read before that entry is returned; the feed
// returned by Feed is complete once Next has returned io.EOF.
type FeedReader struct {
	r     *Reader
	feed  *Feed
	typ   *schema.Type
	base  *url.URL
	depth int
	// elDepth is the cursor depth of the feed element
	elDepth int
	seen    map[string]bool
	entries int
	err     error
}

// NewFeedReader returns a FeedReader for a top-level feed document.
// expectedTypeName, if not empty, is the model entity type every entry
// must be assignable to.
func (r *Reader) NewFeedReader(expectedTypeName string) (*FeedReader, error) {
	expected, err := r.expectedEntityType(expectedTypeName)
	if err != nil {
		return nil, err
	}
	if err := r.root(nameFeed, NamespaceAtom, oderr.CodeFeedRootElementWrongName, oderr.CodeFeedRootElementWrongNamespace); err != nil {
		return nil, err
	}
	return r.newFeedReader(expected, r.s.BaseURI, 1)
}

// ReadFeed reads a top-level feed document and all of its entries.
func (r *Reader) ReadFeed(expectedTypeName string) (*Feed, error) {
	fr, err := r.NewFeedReader(expectedTypeName)
	if err != nil {
		return nil, err
	}
	return fr.readAll()
}

// newFeedReader returns a FeedReader for the feed element the cursor is
// on. depth is the expansion depth of the feed's entries.
func (r *Reader) newFeedReader(expected *schema.Type, base *url.URL, depth int) (*FeedReader, error) {
	if err := r.depthCheck(depth); err != nil {
		return nil, err
	}
	base, err := r.xmlBase(base)
	if err != nil {
		return nil, err
	}
	return &FeedReader{
		r:       r,
		feed:    &Feed{},
		typ:     expected,
		base:    base,
		depth:   depth,
		elDepth: r.c.Depth(),
		seen:    map[string]bool{},
	}, nil
}

// Next returns the feed's next entry, or io.EOF once the end of the
// feed has been read. Any other error is permanent.
func (fr *FeedReader) Next() (*Entry, error) {
	if fr.err != nil {
		return nil, fr.err
	}
	c := fr.r.c
	for {
		more, err := c.NextChild(fr.elDepth)
		if err != nil {
			fr.err = err
			return nil, err
		}
		if !more {
			glog.V(2).Infof("FEED: id=%q entries=%d depth=%d", fr.feed.ID, fr.entries, fr.depth)
			fr.err = io.EOF
			return nil, io.EOF
		}
		if c.Type() != xmlutil.NodeElement {
			continue
		}
		if c.Is(nameEntry, NamespaceAtom) {
			e, err := fr.r.readEntry(fr.typ, fr.base, fr.depth)
			if err != nil {
				fr.err = err
				return nil, err
			}
			fr.entries++
			return e, nil
		}
		if err := fr.readChild(); err != nil {
			fr.err = err
			return nil, err
		}
	}
}

// Feed returns the feed level data read so far. Entries returned by Next
// are not retained.
func (fr *FeedReader) Feed() *Feed { return fr.feed }

// readAll reads the remaining entries into the feed
func (fr *FeedReader) readAll() (*Feed, error) {
	for {
		e, err := fr.Next()
		if err == io.EOF {
			return fr.feed, nil
		}
		if err != nil {
			return nil, err
		}
		fr.feed.Entries = append(fr.feed.Entries, e)
	}
}

// once marks key seen. A later occurrence is dropped (skip is true) or
// rejected depending on the profile.
func (fr *FeedReader) once(key string, dup error) (skip bool, err error) {
	if !fr.seen[key] {
		fr.seen[key] = true
		return false, nil
	}
	if fr.r.s.Profile.keepsFirst() {
		return true, nil
	}
	return true, dup
}

func (fr *FeedReader) readChild() error {
	r, c := fr.r, fr.r.c
	switch {
	case c.Is("id", NamespaceAtom):
		if skip, err := fr.once("id", r.duplicate(oderr.CodeDuplicateElements)); skip {
			return err
		}
		id, err := r.text()
		fr.feed.ID = id
		return err
	case c.Is("link", NamespaceAtom):
		rawRel, _ := c.Attr("rel", "")
		rel := relation(rawRel)
		if rel != relSelf && rel != relNext {
			return r.readAtomMetadata(&fr.feed.Atom, fr.base)
		}
		dup := errors.WithStack(oderr.DuplicateElement(oderr.CodeMultipleLinksWithSameRelation, "link", NamespaceAtom,
			oderr.WithAttribute("rel"), oderr.WithMessage("rel="+rel)))
		if skip, err := fr.once("link:"+rel, dup); skip {
			return err
		}
		u, err := r.href(fr.base)
		if rel == relSelf {
			fr.feed.ReadLink = u
		} else {
			fr.feed.NextPageLink = u
		}
		return err
	case c.Is("count", NamespaceMetadata):
		if fr.feed.Count != nil {
			return r.duplicate(oderr.CodeDuplicateElements)
		}
		n, err := r.count()
		fr.feed.Count = n
		return err
	case c.Is("error", NamespaceMetadata):
		return r.inStreamError()
	}
	return r.readAtomMetadata(&fr.feed.Atom, fr.base)
}

// count reads the current m:count element
func (r *Reader) count() (*int64, error) {
	v, err := r.text()
	if err != nil {
		return nil, err
	}
	n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil || n < 0 {
		return nil, errors.WithStack(oderr.InvalidValue(oderr.CodeInvalidCount, v, oderr.WithElement("count", NamespaceMetadata)))
	}
	return &n, nil
}
