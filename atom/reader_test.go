package atom

import (
	"net/url"
	"strings"
	"testing"

	"github.com/andaru/atompub/oderr"
	"github.com/andaru/atompub/schema"
	"github.com/stretchr/testify/assert"
)

const xmlnsOData = ` xmlns:m="` + NamespaceMetadata + `" xmlns:d="` + NamespaceData + `"`

func entryDoc(body string) string {
	return `<entry xmlns="` + NamespaceAtom + `"` + xmlnsOData + `>` + body + `</entry>`
}

func feedDoc(body string) string {
	return `<feed xmlns="` + NamespaceAtom + `"` + xmlnsOData + `>` + body + `</feed>`
}

func typeCategory(name string) string {
	return `<category term="` + name + `" scheme="` + SchemeType + `"/>`
}

func newTestReader(doc string, opts ...Option) *Reader {
	return NewReader(strings.NewReader(doc), opts...)
}

// errCode returns the oderr code of err, or "" if err is not an
// *oderr.Error.
func errCode(err error) oderr.Code {
	if e, ok := oderr.AsError(err); ok {
		return e.Code
	}
	return ""
}

func mustURL(s string) *url.URL {
	u, err := url.Parse(s)
	if err != nil {
		panic(err)
	}
	return u
}

func testModel() *schema.Schema {
	s := schema.New()
	s.AddEntityType("TestModel.Customer").
		AddProperty("ID", "Edm.Int32").
		AddProperty("Name", "Edm.String").
		AddProperty("Address", "TestModel.Address").
		AddProperty("Emails", "Collection(Edm.String)").
		AddNavigationProperty("Orders", "Collection(TestModel.Order)").
		AddNavigationProperty("BestFriend", "TestModel.Customer")
	s.AddEntityType("TestModel.VIP", schema.WithBaseType("TestModel.Customer")).
		AddProperty("Level", "Edm.Int32")
	s.AddEntityType("TestModel.Order").
		AddProperty("ID", "Edm.Int32").
		AddNavigationProperty("Customer", "TestModel.Customer")
	s.AddEntityType("TestModel.Photo", schema.WithHasStream()).
		AddProperty("ID", "Edm.Int32")
	s.AddEntityType("TestModel.Bag", schema.WithOpen())
	s.AddComplexType("TestModel.Address").
		AddProperty("Street", "Edm.String").
		AddProperty("City", "Edm.String")
	s.AddComplexType("TestModel.Foo").
		AddProperty("X", "Edm.Int32")
	return s
}

func TestSettings(t *testing.T) {
	check := assert.New(t)
	s := NewSettings()
	check.Equal(ProfileDefault, s.Profile)
	check.Equal(DefaultMaxNestingDepth, s.MaxNestingDepth)
	check.False(s.EnableAtomMetadataReading)
	check.False(s.Request)

	s = NewSettings(WithMaxNestingDepth(-1), WithProfile(ProfileLenientClient),
		WithUndeclaredPropertyBehavior(ReportUndeclaredLink|IgnoreUndeclaredValue))
	check.Equal(DefaultMaxNestingDepth, s.MaxNestingDepth)
	check.True(s.UndeclaredPropertyBehavior.Has(ReportUndeclaredLink))
	check.True(s.UndeclaredPropertyBehavior.Has(IgnoreUndeclaredValue))
	check.False(UndeclaredPropertyBehavior(0).Has(ReportUndeclaredLink))
}

func TestProfileText(t *testing.T) {
	for _, tc := range []struct {
		text    string
		want    Profile
		wantErr bool
	}{
		{text: "default", want: ProfileDefault},
		{text: "lenient-client", want: ProfileLenientClient},
		{text: " lenient-server\n", want: ProfileLenientServer},
		{text: "strict", wantErr: true},
	} {
		t.Run(tc.text, func(t *testing.T) {
			check := assert.New(t)
			var p Profile
			err := p.UnmarshalText([]byte(tc.text))
			if tc.wantErr {
				check.Error(err)
				return
			}
			check.NoError(err)
			check.Equal(tc.want, p)
			b, err := p.MarshalText()
			check.NoError(err)
			check.Equal(strings.TrimSpace(tc.text), string(b))
		})
	}
	assert.Equal(t, "Profile(9)", Profile(9).String())
}

func TestRelationName(t *testing.T) {
	check := assert.New(t)
	check.Equal("edit", relation("http://www.iana.org/assignments/relation/edit"))
	check.Equal("edit", relation("edit"))

	name, ok := relationName(RelNavigationPrefix+"Orders", RelNavigationPrefix)
	check.True(ok)
	check.Equal("Orders", name)
	_, ok = relationName(RelNavigationPrefix, RelNavigationPrefix)
	check.False(ok)
	_, ok = relationName("self", RelNavigationPrefix)
	check.False(ok)
}

func TestRootErrors(t *testing.T) {
	for _, tc := range []struct {
		name string
		doc  string
		read func(r *Reader) error
		want oderr.Code
	}{
		{
			name: "entry wrong name",
			doc:  `<feed xmlns="` + NamespaceAtom + `"/>`,
			read: func(r *Reader) error { _, err := r.ReadEntry(""); return err },
			want: oderr.CodeEntryRootElementWrongName,
		},
		{
			name: "entry wrong namespace",
			doc:  `<entry xmlns="urn:other"/>`,
			read: func(r *Reader) error { _, err := r.ReadEntry(""); return err },
			want: oderr.CodeEntryRootElementWrongNamespace,
		},
		{
			name: "feed wrong name",
			doc:  `<entry xmlns="` + NamespaceAtom + `"/>`,
			read: func(r *Reader) error { _, err := r.ReadFeed(""); return err },
			want: oderr.CodeFeedRootElementWrongName,
		},
		{
			name: "feed wrong namespace",
			doc:  `<feed/>`,
			read: func(r *Reader) error { _, err := r.ReadFeed(""); return err },
			want: oderr.CodeFeedRootElementWrongNamespace,
		},
		{
			name: "empty document",
			doc:  ``,
			read: func(r *Reader) error { _, err := r.ReadEntry(""); return err },
			want: oderr.CodeMalformedXML,
		},
		{
			name: "malformed",
			doc:  `<entry xmlns="` + NamespaceAtom + `"><id>x</entry>`,
			read: func(r *Reader) error { _, err := r.ReadEntry(""); return err },
			want: oderr.CodeMalformedXML,
		},
		{
			name: "expected type without model",
			doc:  entryDoc(``),
			read: func(r *Reader) error { _, err := r.ReadEntry("TestModel.Customer"); return err },
			want: oderr.CodeExpectedTypeWithoutMetadata,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			check := assert.New(t)
			err := tc.read(newTestReader(tc.doc))
			check.Error(err)
			check.Equal(tc.want, errCode(err), "%v", err)
		})
	}
}

func TestMalformedXMLIsFatal(t *testing.T) {
	_, err := newTestReader(entryDoc(`<id>x</i>`)).ReadEntry("")
	assert.True(t, oderr.IsFatal(err), "%v", err)
}
