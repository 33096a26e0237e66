package atom

import (
	"testing"

	"github.com/andaru/atompub/oderr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serviceDoc(body string) string {
	return `<service xml:base="http://h/svc/" xmlns="` + NamespaceApp + `" xmlns:atom="` + NamespaceAtom + `">` + body + `</service>`
}

const testWorkspace = `<workspace>
  <atom:title>Default</atom:title>
  <collection href="Customers">
    <atom:title type="text">Customers</atom:title>
    <accept>application/atom+xml;type=entry</accept>
    <categories fixed="yes" scheme="urn:s">
      <atom:category term="a" label="A"/>
      <atom:category term="b" scheme="urn:t"/>
    </categories>
  </collection>
  <collection href="http://other/Orders">
    <categories href="cats"/>
  </collection>
  <extension xmlns="urn:x"/>
</workspace>`

func TestReadServiceDocument(t *testing.T) {
	check := assert.New(t)
	doc, err := newTestReader(serviceDoc(testWorkspace), WithAtomMetadata(true)).ReadServiceDocument()
	require.NoError(t, err)
	ws := doc.Workspace
	check.Equal("Default", ws.Title)
	require.Len(t, ws.Collections, 2)

	c := ws.Collections[0]
	check.Equal("http://h/svc/Customers", c.URL.String())
	check.Equal("Customers", c.Title)
	check.Equal("application/atom+xml;type=entry", c.Accept)
	require.NotNil(t, c.Categories)
	require.NotNil(t, c.Categories.Fixed)
	check.True(*c.Categories.Fixed)
	check.Equal("urn:s", c.Categories.Scheme)
	check.Nil(c.Categories.Href)
	check.Equal([]*Category{{Term: "a", Label: "A"}, {Term: "b", Scheme: "urn:t"}}, c.Categories.Categories)

	c = ws.Collections[1]
	check.Equal("http://other/Orders", c.URL.String())
	check.Equal("http://h/svc/cats", c.Categories.Href.String())
	check.Nil(c.Categories.Fixed)
}

func TestReadServiceDocumentWithoutMetadata(t *testing.T) {
	check := assert.New(t)
	// duplicated and invalid metadata is not looked at
	ws := `<workspace><atom:title>A</atom:title><atom:title>B</atom:title>
<collection href="C"><accept>x</accept><accept>y</accept><categories fixed="maybe"/></collection></workspace>`
	doc, err := newTestReader(serviceDoc(ws)).ReadServiceDocument()
	require.NoError(t, err)
	check.Equal("", doc.Workspace.Title)
	require.Len(t, doc.Workspace.Collections, 1)
	c := doc.Workspace.Collections[0]
	check.Equal("http://h/svc/C", c.URL.String())
	check.Equal("", c.Accept)
	check.Nil(c.Categories)
}

func TestReadServiceDocumentErrors(t *testing.T) {
	for _, tc := range []struct {
		name     string
		doc      string
		metadata bool
		want     oderr.Code
	}{
		{name: "wrong root", doc: `<feed xmlns="` + NamespaceApp + `"/>`, want: oderr.CodeRootElementWrongName},
		{name: "wrong root namespace", doc: `<service xmlns="` + NamespaceAtom + `"/>`, want: oderr.CodeRootElementWrongNamespace},
		{name: "no workspace", doc: serviceDoc(`<atom:title>x</atom:title>`), want: oderr.CodeMissingWorkspace},
		{name: "two workspaces", doc: serviceDoc(`<workspace/><workspace/>`), want: oderr.CodeMultipleWorkspaces},
		{name: "unexpected service child", doc: serviceDoc(`<collection href="x"/><workspace/>`), want: oderr.CodeUnexpectedElementInNamespace},
		{name: "unexpected workspace child", doc: serviceDoc(`<workspace><accept/></workspace>`), want: oderr.CodeUnexpectedElementInNamespace},
		{name: "unexpected collection child", doc: serviceDoc(`<workspace><collection href="x"><workspace/></collection></workspace>`), want: oderr.CodeUnexpectedElementInNamespace},
		{name: "missing href", doc: serviceDoc(`<workspace><collection/></workspace>`), want: oderr.CodeMissingCollectionHref},
		{name: "invalid href", doc: serviceDoc(`<workspace><collection href="%zz"/></workspace>`), want: oderr.CodeInvalidURI},
		{
			name:     "duplicate workspace title",
			doc:      serviceDoc(`<workspace><atom:title>A</atom:title><atom:title>B</atom:title></workspace>`),
			metadata: true,
			want:     oderr.CodeDuplicateElements,
		},
		{
			name:     "duplicate accept",
			doc:      serviceDoc(`<workspace><collection href="x"><accept>a</accept><accept>b</accept></collection></workspace>`),
			metadata: true,
			want:     oderr.CodeDuplicateElements,
		},
		{
			name:     "duplicate categories",
			doc:      serviceDoc(`<workspace><collection href="x"><categories/><categories/></collection></workspace>`),
			metadata: true,
			want:     oderr.CodeDuplicateElements,
		},
		{
			name:     "duplicate collection title",
			doc:      serviceDoc(`<workspace><collection href="x"><atom:title/><atom:title/></collection></workspace>`),
			metadata: true,
			want:     oderr.CodeDuplicateElements,
		},
		{
			name:     "invalid fixed",
			doc:      serviceDoc(`<workspace><collection href="x"><categories fixed="maybe"/></collection></workspace>`),
			metadata: true,
			want:     oderr.CodeInvalidFixedAttribute,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := newTestReader(tc.doc, WithAtomMetadata(tc.metadata)).ReadServiceDocument()
			assert.Equal(t, tc.want, errCode(err), "%v", err)
		})
	}
}

func TestReadServiceDocumentInStreamError(t *testing.T) {
	aborted := `<m:error xmlns:m="` + NamespaceMetadata + `"><m:code>503</m:code></m:error>`
	for _, tc := range []struct {
		name     string
		body     string
		metadata bool
	}{
		{name: "service", body: aborted},
		{name: "after workspace", body: `<workspace/>` + aborted},
		{name: "workspace", body: `<workspace><collection href="A"/>` + aborted + `</workspace>`},
		{name: "collection", body: `<workspace><collection href="A">` + aborted + `</collection></workspace>`},
		{name: "collection with metadata", body: `<workspace><collection href="A"><accept>x</accept>` + aborted + `</collection></workspace>`, metadata: true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := newTestReader(serviceDoc(tc.body), WithAtomMetadata(tc.metadata)).ReadServiceDocument()
			e, ok := AsInStreamError(err)
			require.True(t, ok, "%v", err)
			assert.Equal(t, "503", e.Payload.Code)
		})
	}
}
