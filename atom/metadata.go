package atom

import "net/url"

// readAtomMetadata captures the ATOM metadata element the cursor is on
// into *md when metadata reading is enabled. Other elements are left
// unconsumed.
func (r *Reader) readAtomMetadata(md **Metadata, base *url.URL) error {
	if !r.s.EnableAtomMetadataReading || r.c.NamespaceURI() != NamespaceAtom {
		return nil
	}
	m := *md
	if m == nil {
		m = &Metadata{}
	}
	var err error
	switch r.c.LocalName() {
	case "title":
		m.Title, err = r.c.InnerText()
	case "summary":
		m.Summary, err = r.c.InnerText()
	case "rights":
		m.Rights, err = r.c.InnerText()
	case "updated":
		m.Updated, err = r.text()
	case "published":
		m.Published, err = r.text()
	case "author", "contributor":
		err = r.children(func() error {
			if !r.c.Is("name", NamespaceAtom) {
				return nil
			}
			name, err := r.text()
			m.Authors = append(m.Authors, name)
			return err
		})
	case "category":
		m.Categories = append(m.Categories, r.category())
	case "link":
		l := &Link{}
		l.Rel, _ = r.c.Attr("rel", "")
		l.Type, _ = r.c.Attr("type", "")
		l.Title, _ = r.c.Attr("title", "")
		if l.Href, err = r.href(base); err == nil {
			m.Links = append(m.Links, l)
		}
	default:
		return nil
	}
	*md = m
	return err
}

// category returns the current atom:category element's attributes
func (r *Reader) category() *Category {
	c := &Category{}
	c.Term, _ = r.c.Attr("term", "")
	c.Scheme, _ = r.c.Attr("scheme", "")
	c.Label, _ = r.c.Attr("label", "")
	return c
}
