// Package schema provides the entity data model (EDM) objects consulted
// by the ATOM payload reader, and a parser building them from CSDL
// metadata documents.
//
// The reader only needs three capabilities of a model, expressed by the
// Model interface: resolving a type name to a type descriptor, finding a
// (structural or navigation) property of a type by name, and asking
// whether a type is open. Schema is the in-memory Model implementation;
// it is built either programmatically (AddEntityType, AddComplexType)
// or from a $metadata document with ParseCSDL.
//
// # Type names
//
// Types are named by their namespace qualified name, e.g.
// "TestModel.Customer". Primitive types use the reserved "Edm"
// namespace (e.g. "Edm.Int32") and are always resolvable. Collection
// types are named "Collection(<item type name>)" and resolve when their
// item type does.
package schema
