package schema

import (
	"github.com/roach88/hqlcore/internal/sqltypes"
)

// Table is a physical table, or a derived table when Derived is set.
//
// Tables are compared by identity: two *Table values naming the same
// relation are different tables. Metadata hands out one pointer per name.
type Table struct {
	Name string

	// Derived holds a subselect rendered in place of the table name.
	Derived string

	columns []*Column
}

// NewTable creates a physical table.
func NewTable(name string) *Table {
	return &Table{Name: name}
}

// Column returns the named column of t, creating it on first use.
func (t *Table) Column(name string, code sqltypes.Code) *Column {
	for _, c := range t.columns {
		if c.Name == name && c.Formula == "" {
			return c
		}
	}
	c := &Column{Name: name, Table: t, Type: code}
	t.columns = append(t.columns, c)
	return c
}

// Formula creates a derived value owned by t. The expression may reference
// the owning table's alias through the {alias} placeholder.
func (t *Table) Formula(expression string, code sqltypes.Code) *Column {
	c := &Column{Table: t, Type: code, Formula: expression}
	t.columns = append(t.columns, c)
	return c
}

// Columns returns the columns and formulas declared so far.
func (t *Table) Columns() []*Column {
	return t.columns
}

func (t *Table) String() string {
	if t.Derived != "" {
		return "(" + t.Derived + ")"
	}
	return t.Name
}

// Column is a physical column or a formula, always owned by exactly one
// table.
type Column struct {
	Name    string
	Table   *Table
	Type    sqltypes.Code
	Formula string
}

// IsFormula reports whether c is a derived expression rather than a column.
func (c *Column) IsFormula() bool {
	return c.Formula != ""
}

func (c *Column) String() string {
	if c.IsFormula() {
		return c.Table.String() + ".{" + c.Formula + "}"
	}
	return c.Table.String() + "." + c.Name
}

// Attribute is a closed set of attribute kinds. Consumers switch over the
// concrete types exhaustively:
//
//	switch a := attr.(type) {
//	case *BasicAttribute:
//	case *ToOneAttribute:
//	case *EmbeddedAttribute:
//	case *IdentifierAttribute:
//	}
type Attribute interface {
	AttributeName() string
	attributeNode()
}

// BasicAttribute maps to a single column or formula.
type BasicAttribute struct {
	Name   string
	Column *Column
}

func (a *BasicAttribute) AttributeName() string { return a.Name }
func (*BasicAttribute) attributeNode()          {}

// ToOneAttribute is a single-valued association. Columns are the foreign
// key columns in the owning entity's tables, matched positionally against
// the target's identifier columns.
type ToOneAttribute struct {
	Name    string
	Target  string
	Columns []*Column
}

func (a *ToOneAttribute) AttributeName() string { return a.Name }
func (*ToOneAttribute) attributeNode()          {}

// EmbeddedAttribute is a one-level composite value stored in the owning
// entity's tables.
type EmbeddedAttribute struct {
	Name       string
	Embeddable *EmbeddableType
	Columns    []*Column // one per component, in component order
}

func (a *EmbeddedAttribute) AttributeName() string { return a.Name }
func (*EmbeddedAttribute) attributeNode()          {}

// IdentifierAttribute is the entity identifier.
type IdentifierAttribute struct {
	Name    string
	Columns []*Column
}

func (a *IdentifierAttribute) AttributeName() string { return a.Name }
func (*IdentifierAttribute) attributeNode()          {}

// EmbeddableType describes the components of a composite value.
type EmbeddableType struct {
	Name       string
	Components []Component
}

// Component is one named, typed part of an embeddable.
type Component struct {
	Name string
	Type sqltypes.Code
}

// SecondaryTable is an additional table holding part of an entity's state,
// joined to the root table on the identifier.
type SecondaryTable struct {
	Table *Table

	// KeyColumns reference the root table's identifier columns positionally.
	KeyColumns []*Column

	// Optional secondary rows are outer joined.
	Optional bool
}

// EntityType is the mapping of one entity.
type EntityType struct {
	Name string

	// QualifiedName is an optional dotted name also accepted as an entity
	// reference (e.g. "com.acme.Person").
	QualifiedName string

	RootTable       *Table
	SecondaryTables []SecondaryTable
	Identifier      *IdentifierAttribute
	Attributes      []Attribute
}

// Attribute returns the named attribute, including the identifier.
func (e *EntityType) Attribute(name string) (Attribute, bool) {
	if e.Identifier != nil && e.Identifier.Name == name {
		return e.Identifier, true
	}
	for _, a := range e.Attributes {
		if a.AttributeName() == name {
			return a, true
		}
	}
	return nil, false
}

// HasAttribute reports whether the entity declares the named attribute.
func (e *EntityType) HasAttribute(name string) bool {
	_, ok := e.Attribute(name)
	return ok
}

// Tables returns the root table followed by the secondary tables.
func (e *EntityType) Tables() []*Table {
	tables := []*Table{e.RootTable}
	for _, st := range e.SecondaryTables {
		tables = append(tables, st.Table)
	}
	return tables
}

// Constant is a named static value (enum member, static field).
type Constant struct {
	Name  string
	Value any
	Type  sqltypes.Code
}
