package oderr

// Code identifies the specific condition behind an Error.
type Code string

const (
	// CodeMalformedXML indicates the XML token source failed.
	CodeMalformedXML Code = "MalformedXml"
	// CodeMaxNestingDepthExceeded indicates the configured nesting depth was exceeded.
	CodeMaxNestingDepthExceeded Code = "MaxNestingDepthExceeded"
	// CodeMediaTypeInvalid indicates a media type string could not be parsed.
	CodeMediaTypeInvalid Code = "MediaTypeInvalid"

	CodeEntryRootElementWrongName      Code = "EntryRootElementWrongName"
	CodeEntryRootElementWrongNamespace Code = "EntryRootElementWrongNamespace"
	CodeFeedRootElementWrongName       Code = "FeedRootElementWrongName"
	CodeFeedRootElementWrongNamespace  Code = "FeedRootElementWrongNamespace"
	CodeRootElementWrongName           Code = "RootElementWrongName"
	CodeRootElementWrongNamespace      Code = "RootElementWrongNamespace"
	CodeUnexpectedElementInNamespace   Code = "UnexpectedElementInNamespace"
	CodeInvalidCollectionElement       Code = "InvalidCollectionElement"
	CodeMissingWorkspace               Code = "MissingWorkspace"
	CodeMissingCollectionHref          Code = "MissingCollectionHref"
	CodeMissingOperationAttribute      Code = "MissingOperationAttribute"

	// CodeDuplicateElements indicates a single-occurrence child appeared twice.
	CodeDuplicateElements                      Code = "DuplicateElements"
	CodeMultipleTypeCategories                 Code = "MultipleTypeCategories"
	CodeMultipleLinksWithSameRelation          Code = "MultipleLinksWithSameRelation"
	CodeMultipleErrorElementsWithSameName      Code = "MultipleErrorElementsWithSameName"
	CodeMultipleInnerErrorElementsWithSameName Code = "MultipleInnerErrorElementsWithSameName"
	CodeMultipleWorkspaces                     Code = "MultipleWorkspaces"
	CodeMultipleExpansionsInInline             Code = "MultipleExpansionsInInline"
	CodeDuplicatePropertyName                  Code = "DuplicatePropertyName"

	CodeIncompatibleItemTypeKind Code = "IncompatibleItemTypeKind"
	CodeInvalidItemTypeKind      Code = "InvalidItemTypeKind"
	CodeIncorrectTypeKind        Code = "IncorrectTypeKind"
	CodeExpandedEntryInFeedLink  Code = "ExpandedEntryInFeedNavigationLink"
	CodeExpandedFeedInEntryLink  Code = "ExpandedFeedInEntryNavigationLink"

	CodeIncompatibleItemTypeName Code = "IncompatibleItemTypeName"
	CodeIncompatibleTypeName     Code = "IncompatibleTypeName"

	CodeMediaLinkEntryMismatch          Code = "MediaLinkEntryMismatch"
	CodeContentWithWrongType            Code = "ContentWithWrongType"
	CodeContentWithSourceLinkIsNotEmpty Code = "ContentWithSourceLinkIsNotEmpty"
	CodeInvalidNodeInStringValue        Code = "InvalidNodeInStringValue"
	CodeNullValueWithContent            Code = "NullValueWithContent"

	CodeExpectedTypeWithoutMetadata   Code = "ExpectedTypeSpecifiedWithoutMetadata"
	CodeEntryTypeMediaLinkMismatch    Code = "EntryTypeMediaLinkEntryMismatch"
	CodeUnrecognizedTypeName          Code = "UnrecognizedTypeName"
	CodePropertyDoesNotExist          Code = "PropertyDoesNotExistOnType"
	CodeNavigationPropertyExpected    Code = "NavigationPropertyExpected"
	CodeStructuralPropertyExpected    Code = "StructuralPropertyExpected"
	CodeNavigationCardinalityMismatch Code = "NavigationCardinalityMismatch"
	CodeUndeclaredLinkValue           Code = "UndeclaredNavigationLinkValue"

	CodeInvalidURI            Code = "InvalidUri"
	CodeInvalidPrimitiveValue Code = "InvalidPrimitiveValue"
	CodeInvalidNullAttribute  Code = "InvalidNullAttribute"
	CodeInvalidCount          Code = "InvalidCount"
	CodeInvalidFixedAttribute Code = "InvalidFixedAttribute"
)
