// Package schema is the entity mapping metadata consumed by path
// resolution and SQL conversion.
//
// Mappings are usually written in CUE and loaded with LoadDir; tests build
// them directly from the struct types. Attribute kinds form a closed set
// (see Attribute) so that column resolution can switch over them
// exhaustively.
//
// Embeddables nest one level only: an embeddable component is always a
// basic typed value.
package schema
