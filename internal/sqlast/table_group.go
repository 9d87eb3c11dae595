package sqlast

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/hqlcore/internal/qerr"
	"github.com/roach88/hqlcore/internal/schema"
)

// JoinType is the kind of a SQL join.
type JoinType int

const (
	JoinInner JoinType = iota
	JoinLeft
	JoinCross
)

func (t JoinType) String() string {
	switch t {
	case JoinInner:
		return "inner"
	case JoinLeft:
		return "left"
	case JoinCross:
		return "cross"
	default:
		return fmt.Sprintf("JoinType(%d)", int(t))
	}
}

// SQL returns the join keyword sequence.
func (t JoinType) SQL() string {
	switch t {
	case JoinLeft:
		return "left outer join"
	case JoinCross:
		return "cross join"
	default:
		return "inner join"
	}
}

// ParseJoinType maps "inner", "left" and "cross" to a JoinType.
func ParseJoinType(s string) (JoinType, error) {
	switch strings.ToLower(s) {
	case "inner", "":
		return JoinInner, nil
	case "left":
		return JoinLeft, nil
	case "cross":
		return JoinCross, nil
	default:
		return 0, fmt.Errorf("unknown join type %q", s)
	}
}

// TableBinding pairs a table with the alias it is rendered under.
// Immutable once created.
type TableBinding struct {
	table *schema.Table
	alias string
}

// NewTableBinding binds table to alias.
func NewTableBinding(table *schema.Table, alias string) *TableBinding {
	return &TableBinding{table: table, alias: alias}
}

// Table returns the bound table.
func (b *TableBinding) Table() *schema.Table { return b.table }

// Alias returns the SQL alias.
func (b *TableBinding) Alias() string { return b.alias }

func (b *TableBinding) String() string {
	return b.table.String() + " " + b.alias
}

// ColumnBinding pairs a column (or formula) with the binding of the table
// that owns it.
type ColumnBinding struct {
	Column *schema.Column
	Table  *TableBinding
}

// Expression renders the column reference, e.g. "t0.name", or a formula
// in parentheses with its table alias substituted.
func (c ColumnBinding) Expression() string {
	if c.Column.IsFormula() {
		return "(" + strings.ReplaceAll(c.Column.Formula, "{alias}", c.Table.Alias()) + ")"
	}
	return c.Table.Alias() + "." + c.Column.Name
}

// TableJoin joins one more table into a group.
type TableJoin struct {
	Type    JoinType
	Binding *TableBinding

	// Predicate is the join condition; nil for cross joins.
	Predicate Predicate
}

// TableGroup is the set of tables one from-element maps to: a root table
// binding plus ordered joins (secondary tables, derived tables). The root
// is fixed at construction, so it always precedes every join.
type TableGroup struct {
	entity *schema.EntityType
	root   *TableBinding
	joins  []TableJoin
}

// NewTableGroup creates a group rooted at root.
func NewTableGroup(entity *schema.EntityType, root *TableBinding) *TableGroup {
	return &TableGroup{entity: entity, root: root, joins: []TableJoin{}}
}

// Entity returns the entity type the group maps.
func (g *TableGroup) Entity() *schema.EntityType { return g.entity }

// Root returns the root table binding.
func (g *TableGroup) Root() *TableBinding { return g.root }

// Joins returns the joins in emission order. Never nil.
func (g *TableGroup) Joins() []TableJoin { return g.joins }

// AddJoin appends a join. Joins render in the order they were added, so a
// join may only reference aliases already in the group.
func (g *TableGroup) AddJoin(j TableJoin) {
	g.joins = append(g.joins, j)
}

// Bindings returns the root binding followed by each joined binding.
func (g *TableGroup) Bindings() []*TableBinding {
	out := make([]*TableBinding, 0, len(g.joins)+1)
	out = append(out, g.root)
	for _, j := range g.joins {
		out = append(out, j.Binding)
	}
	return out
}

// LocateTableBinding finds the binding of table within the group: the root
// first, then joins in emission order. A miss means the semantic tree
// references a table that was never joined into its own group.
func (g *TableGroup) LocateTableBinding(table *schema.Table) (*TableBinding, error) {
	if g.root.table == table {
		return g.root, nil
	}
	for _, j := range g.joins {
		if j.Binding.table == table {
			return j.Binding, nil
		}
	}
	return nil, qerr.Internal("table %s is not bound in the table group rooted at %s", table, g.root)
}

// ResolveBindings returns one binding per physical column of attr, in
// mapping order.
func (g *TableGroup) ResolveBindings(attr schema.Attribute) ([]ColumnBinding, error) {
	var columns []*schema.Column
	switch a := attr.(type) {
	case *schema.BasicAttribute:
		columns = []*schema.Column{a.Column}
	case *schema.ToOneAttribute:
		columns = a.Columns
	case *schema.EmbeddedAttribute:
		columns = a.Columns
	case *schema.IdentifierAttribute:
		columns = a.Columns
	default:
		return nil, qerr.Internal("unknown attribute kind %T", attr)
	}
	return g.bindColumns(columns)
}

func (g *TableGroup) bindColumns(columns []*schema.Column) ([]ColumnBinding, error) {
	bindings := make([]ColumnBinding, 0, len(columns))
	for _, col := range columns {
		tb, err := g.LocateTableBinding(col.Table)
		if err != nil {
			return nil, err
		}
		bindings = append(bindings, ColumnBinding{Column: col, Table: tb})
	}
	return bindings, nil
}

// Resolve binds attr and wraps it as an attribute reference.
func (g *TableGroup) Resolve(attr schema.Attribute) (*AttributeReference, error) {
	bindings, err := g.ResolveBindings(attr)
	if err != nil {
		return nil, err
	}
	return &AttributeReference{Attribute: attr, Bindings: bindings}, nil
}

// ResolveEntityReference binds the entity identifier against the root.
func (g *TableGroup) ResolveEntityReference() (*EntityReference, error) {
	if g.entity == nil || g.entity.Identifier == nil {
		return nil, qerr.Internal("table group rooted at %s has no entity identifier", g.root)
	}
	bindings, err := g.bindColumns(g.entity.Identifier.Columns)
	if err != nil {
		return nil, err
	}
	return &EntityReference{Entity: g.entity, Bindings: bindings}, nil
}

// TableGroupJoin joins another from-element's group into a table space.
type TableGroupJoin struct {
	Type  JoinType
	Group *TableGroup

	// Predicate is nil for cross joins.
	Predicate Predicate
}

// TableSpace is the SQL form of one from-element space: a root group plus
// the groups joined to it, in emission order.
type TableSpace struct {
	Root  *TableGroup
	Joins []TableGroupJoin
}

// NewTableSpace creates a space rooted at root.
func NewTableSpace(root *TableGroup) *TableSpace {
	return &TableSpace{Root: root, Joins: []TableGroupJoin{}}
}

// AddJoin appends a group join.
func (s *TableSpace) AddJoin(j TableGroupJoin) {
	s.Joins = append(s.Joins, j)
}

// OrderJoins returns joins reordered so that each join's predicate only
// references the root group, its own group or groups joined before it.
// Joins keep their relative order unless a predicate forces a later
// group ahead. Tables outside the space do not constrain the order.
func OrderJoins(root *TableGroup, joins []TableGroupJoin) ([]TableGroupJoin, error) {
	owner := make(map[*TableBinding]*TableGroup)
	for _, g := range append([]*TableGroup{root}, groupsOf(joins)...) {
		for _, b := range g.Bindings() {
			owner[b] = g
		}
	}

	emitted := map[*TableGroup]bool{root: true}
	ready := func(j TableGroupJoin) bool {
		for _, t := range PredicateTables(j.Predicate) {
			g, inSpace := owner[t]
			if inSpace && g != j.Group && !emitted[g] {
				return false
			}
		}
		return true
	}

	pending := slices.Clone(joins)
	ordered := make([]TableGroupJoin, 0, len(joins))
	for len(pending) > 0 {
		i := slices.IndexFunc(pending, ready)
		if i < 0 {
			return nil, qerr.Internal("join predicates of %s reference each other", pending[0].Group.Root())
		}
		ordered = append(ordered, pending[i])
		emitted[pending[i].Group] = true
		pending = slices.Delete(pending, i, i+1)
	}
	return ordered, nil
}

func groupsOf(joins []TableGroupJoin) []*TableGroup {
	groups := make([]*TableGroup, len(joins))
	for i, j := range joins {
		groups[i] = j.Group
	}
	return groups
}
