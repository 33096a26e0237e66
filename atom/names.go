package atom

import "strings"

// Reserved namespaces
const (
	NamespaceAtom     = "http://www.w3.org/2005/Atom"
	NamespaceApp      = "http://www.w3.org/2007/app"
	NamespaceData     = "http://schemas.microsoft.com/ado/2007/08/dataservices"
	NamespaceMetadata = "http://schemas.microsoft.com/ado/2007/08/dataservices/metadata"

	// NamespaceEdmx and NamespaceEdmxV4 are the metadata document
	// envelope namespaces.
	NamespaceEdmx   = "http://schemas.microsoft.com/ado/2007/06/edmx"
	NamespaceEdmxV4 = "http://docs.oasis-open.org/odata/ns/edmx"
)

// SchemeType is the category scheme whose term names an entry's type
const SchemeType = NamespaceData + "/scheme"

// Link relation prefixes. The suffix is a property name.
const (
	RelNavigationPrefix  = NamespaceData + "/related/"
	RelAssociationPrefix = NamespaceData + "/relatedlinks/"
	RelStreamEditPrefix  = NamespaceData + "/edit-media/"
	RelStreamReadPrefix  = NamespaceData + "/mediaresource/"
	relIANAPrefix        = "http://www.iana.org/assignments/relation/"
	relSelf              = "self"
	relEdit              = "edit"
	relEditMedia         = "edit-media"
	relNext              = "next"
)

// element local names and atom+xml type parameter values
const (
	nameEntry = "entry"
	nameFeed  = "feed"
)

// relation strips the IANA registry prefix from a link relation
func relation(rel string) string { return strings.TrimPrefix(rel, relIANAPrefix) }

// relationName returns the property name of a relation having prefix
func relationName(rel, prefix string) (string, bool) {
	if !strings.HasPrefix(rel, prefix) || len(rel) == len(prefix) {
		return "", false
	}
	return rel[len(prefix):], true
}
