// Package sqlast is the physical side of a query: table groups binding
// entities to aliased tables, and the SQL AST the walker renders.
//
// TABLE GROUPS:
//
// Every from-element maps to one TableGroup. The group's root binding is
// the entity's root table; secondary tables are TableJoins inside the
// group. Attributes resolve to ColumnBindings by locating the table that
// owns each column:
//
//	group.ResolveBindings(attr)   // []ColumnBinding, root first then joins
//	group.Resolve(attr)           // *AttributeReference
//	group.ResolveEntityReference() // identifier columns on the root
//
// A column whose table is neither the root nor a joined table is an
// internal-consistency error (qerr.IsInternal); valid input never
// produces one.
//
// TABLE SPACES:
//
// A TableSpace is the SQL form of one from-clause space. The root group
// renders first, then each TableGroupJoin in emission order. Joins may
// only reference aliases that were rendered before them.
//
// SEALED INTERFACES:
//
// Expression and Predicate use the marker method pattern so the walker can
// switch over them exhaustively:
//
//	switch e := expr.(type) {
//	case *ColumnReference:
//	case *AttributeReference:
//	case *EntityReference:
//	case *Parameter:
//	case *Literal:
//	}
package sqlast
