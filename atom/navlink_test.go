package atom

import (
	"testing"

	"github.com/andaru/atompub/oderr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func navLink(name, typ, inline string) string {
	s := `<link rel="` + RelNavigationPrefix + name + `" href="http://h/` + name + `"`
	if typ != "" {
		s += ` type="` + typ + `"`
	}
	if inline == "" {
		return s + `/>`
	}
	return s + `>` + inline + `</link>`
}

const (
	atomEntryType = "application/atom+xml;type=entry"
	atomFeedType  = "application/atom+xml;type=feed"
)

func TestReadNavigationLinks(t *testing.T) {
	check := assert.New(t)
	body := typeCategory("TestModel.Customer") +
		navLink("Orders", atomFeedType, `<m:inline><feed><m:count>2</m:count>`+
			`<entry>`+typeCategory("TestModel.Order")+`<id>o1</id></entry>`+
			`<entry><id>o2</id></entry></feed></m:inline>`) +
		navLink("BestFriend", atomEntryType, `<m:inline><entry><id>c2</id>`+
			navLink("BestFriend", "", `<m:inline/>`)+`</entry></m:inline>`)
	e, err := newTestReader(entryDoc(body), WithModel(testModel())).ReadEntry("")
	require.NoError(t, err)
	require.Len(t, e.NavigationLinks, 2)

	orders, ok := e.NavigationLink("Orders")
	require.True(t, ok)
	check.Equal(CardinalityCollection, orders.Cardinality)
	check.Equal("http://h/Orders", orders.URL.String())
	feed, ok := orders.Expansion.(*ExpandedFeed)
	require.True(t, ok)
	check.Equal(int64(2), *feed.Feed.Count)
	require.Len(t, feed.Feed.Entries, 2)
	check.Equal("o1", feed.Feed.Entries[0].ID)
	check.Equal("o2", feed.Feed.Entries[1].ID)

	friend, _ := e.NavigationLink("BestFriend")
	check.Equal(CardinalitySingleton, friend.Cardinality)
	expanded, ok := friend.Expansion.(*ExpandedEntry)
	require.True(t, ok)
	check.Equal("c2", expanded.Entry.ID)
	nested, ok := expanded.Entry.NavigationLink("BestFriend")
	require.True(t, ok)
	check.IsType(&ExpandedNull{}, nested.Expansion)
}

func TestReadNavigationLinkWithoutModel(t *testing.T) {
	check := assert.New(t)
	body := navLink("Deferred", "", "") +
		navLink("Typed", atomFeedType, "") +
		navLink("One", "", `<m:inline><entry><id>x</id></entry></m:inline>`) +
		navLink("Many", "", `<m:inline><feed/></m:inline>`) +
		navLink("Nothing", "", `<m:inline/>`)
	e, err := newTestReader(entryDoc(body)).ReadEntry("")
	require.NoError(t, err)
	require.Len(t, e.NavigationLinks, 5)

	for _, tc := range []struct {
		name        string
		cardinality Cardinality
		expansion   Expansion
	}{
		{name: "Deferred", cardinality: CardinalityUnknown},
		{name: "Typed", cardinality: CardinalityCollection},
		{name: "One", cardinality: CardinalitySingleton, expansion: &ExpandedEntry{}},
		{name: "Many", cardinality: CardinalityCollection, expansion: &ExpandedFeed{}},
		{name: "Nothing", cardinality: CardinalitySingleton, expansion: &ExpandedNull{}},
	} {
		l, ok := e.NavigationLink(tc.name)
		if !check.True(ok, tc.name) {
			continue
		}
		check.Equal(tc.cardinality, l.Cardinality, tc.name)
		if tc.expansion == nil {
			check.False(l.IsExpanded(), tc.name)
			continue
		}
		check.IsType(tc.expansion, l.Expansion, tc.name)
	}
}

func TestReadNavigationLinkErrors(t *testing.T) {
	customer := typeCategory("TestModel.Customer")
	for _, tc := range []struct {
		name     string
		body     string
		model    bool
		behavior UndeclaredPropertyBehavior
		want     oderr.Code
	}{
		{
			name: "entry in feed link",
			body: navLink("L", atomFeedType, `<m:inline><entry/></m:inline>`),
			want: oderr.CodeExpandedEntryInFeedLink,
		},
		{
			name: "feed in entry link",
			body: navLink("L", atomEntryType, `<m:inline><feed/></m:inline>`),
			want: oderr.CodeExpandedFeedInEntryLink,
		},
		{
			name: "empty inline in feed link",
			body: navLink("L", atomFeedType, `<m:inline/>`),
			want: oderr.CodeExpandedEntryInFeedLink,
		},
		{
			name: "two expansions",
			body: navLink("L", "", `<m:inline><entry/><entry/></m:inline>`),
			want: oderr.CodeMultipleExpansionsInInline,
		},
		{
			name: "two inline elements",
			body: navLink("L", "", `<m:inline/><m:inline/>`),
			want: oderr.CodeDuplicateElements,
		},
		{
			name: "invalid link type",
			body: navLink("L", "application/", ""),
			want: oderr.CodeMediaTypeInvalid,
		},
		{
			name: "in-stream error",
			body: navLink("L", "", `<m:inline><m:error><m:code>1</m:code></m:error></m:inline>`),
			want: "",
		},
		{
			name:  "structural property",
			body:  customer + navLink("Name", "", ""),
			model: true,
			want:  oderr.CodeNavigationPropertyExpected,
		},
		{
			name:  "cardinality mismatch",
			body:  customer + navLink("Orders", atomEntryType, ""),
			model: true,
			want:  oderr.CodeNavigationCardinalityMismatch,
		},
		{
			name:  "undeclared",
			body:  customer + navLink("Nope", "", ""),
			model: true,
			want:  oderr.CodePropertyDoesNotExist,
		},
		{
			name:     "undeclared expanded",
			body:     customer + navLink("Nope", "", `<m:inline><entry/></m:inline>`),
			model:    true,
			behavior: ReportUndeclaredLink,
			want:     oderr.CodeUndeclaredLinkValue,
		},
		{
			name:  "expanded entry type checked against target",
			body:  customer + navLink("BestFriend", "", `<m:inline><entry>`+typeCategory("TestModel.Order")+`</entry></m:inline>`),
			model: true,
			want:  oderr.CodeIncompatibleTypeName,
		},
		{
			name:  "expanded feed entry type checked against target",
			body:  customer + navLink("Orders", "", `<m:inline><feed><entry>`+customer+`</entry></feed></m:inline>`),
			model: true,
			want:  oderr.CodeIncompatibleTypeName,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			check := assert.New(t)
			opts := []Option{WithUndeclaredPropertyBehavior(tc.behavior)}
			if tc.model {
				opts = append(opts, WithModel(testModel()))
			}
			_, err := newTestReader(entryDoc(tc.body), opts...).ReadEntry("")
			if tc.want == "" {
				_, ok := AsInStreamError(err)
				check.True(ok, "%v", err)
				return
			}
			check.Equal(tc.want, errCode(err), "%v", err)
		})
	}
}

func TestReadNavigationLinkUndeclared(t *testing.T) {
	for _, tc := range []struct {
		name     string
		link     string
		behavior UndeclaredPropertyBehavior
	}{
		{name: "deferred", link: navLink("Nope", "", ""), behavior: ReportUndeclaredLink},
		{name: "empty inline", link: navLink("Nope", "", `<m:inline/>`), behavior: ReportUndeclaredLink},
		{
			name:     "expanded ignored",
			link:     navLink("Nope", "", `<m:inline><entry><bad/></entry></m:inline>`),
			behavior: ReportUndeclaredLink | IgnoreUndeclaredValue,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			check := assert.New(t)
			e, err := newTestReader(entryDoc(typeCategory("TestModel.Customer")+tc.link),
				WithModel(testModel()), WithUndeclaredPropertyBehavior(tc.behavior)).ReadEntry("")
			require.NoError(t, err)
			l, ok := e.NavigationLink("Nope")
			require.True(t, ok)
			check.False(l.IsExpanded())
			check.Equal("http://h/Nope", l.URL.String())
		})
	}
}

// nestedEntries returns an entry document nesting levels entries through
// expanded navigation links.
func nestedEntries(levels int) string {
	inner := ``
	for i := 1; i < levels; i++ {
		inner = `<entry>` + navLink("Next", "", `<m:inline>`+inner+`</m:inline>`) + `</entry>`
	}
	return entryDoc(navLink("Next", "", `<m:inline>`+inner+`</m:inline>`))
}

func TestExpansionNestingLimit(t *testing.T) {
	for _, tc := range []struct {
		name    string
		levels  int
		wantErr bool
	}{
		{name: "at limit", levels: 4},
		{name: "over limit", levels: 5, wantErr: true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			check := assert.New(t)
			_, err := newTestReader(nestedEntries(tc.levels), WithMaxNestingDepth(4)).ReadEntry("")
			if !tc.wantErr {
				check.NoError(err)
				return
			}
			check.Equal(oderr.CodeMaxNestingDepthExceeded, errCode(err), "%v", err)
			check.True(oderr.IsFatal(err))
		})
	}
}

func TestReadNavigationLinkInStreamError(t *testing.T) {
	aborted := `<m:error><m:code>500</m:code></m:error>`
	for _, tc := range []struct {
		name string
		link string
	}{
		{name: "deferred", link: navLink("Orders", atomFeedType, aborted)},
		{name: "after inline", link: navLink("BestFriend", "", `<m:inline/>`+aborted)},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := newTestReader(entryDoc(tc.link)).ReadEntry("")
			e, ok := AsInStreamError(err)
			require.True(t, ok, "%v", err)
			assert.Equal(t, "500", e.Payload.Code)
		})
	}
}
