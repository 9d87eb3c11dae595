// Package convert lowers a semantic statement to the SQL AST. Each
// from-element gets a table group, each space a table space, and every
// semantic expression becomes column bindings against those groups.
package convert

import (
	"fmt"

	"github.com/roach88/hqlcore/internal/from"
	"github.com/roach88/hqlcore/internal/qerr"
	"github.com/roach88/hqlcore/internal/schema"
	"github.com/roach88/hqlcore/internal/semantic"
	"github.com/roach88/hqlcore/internal/sqlast"
	"github.com/roach88/hqlcore/internal/sqltypes"
)

// Convert builds the SQL AST for stmt. Table aliases are assigned in
// from-clause order: the n-th element's root table is "t<n>" and its
// secondary tables are "t<n>_1", "t<n>_2", ...
func Convert(stmt *semantic.Statement) (*sqlast.SelectQuery, error) {
	c := &converter{}
	elements := stmt.FromClause.Elements()
	for _, e := range elements {
		c.bindTableGroup(e)
	}

	q := &sqlast.SelectQuery{}
	for _, space := range stmt.FromClause.Spaces() {
		ts, err := c.tableSpace(space, stmt.JoinConditions)
		if err != nil {
			return nil, err
		}
		q.Spaces = append(q.Spaces, ts)
	}

	for _, sel := range stmt.Selections {
		s, err := c.selection(sel)
		if err != nil {
			return nil, fmt.Errorf("convert selection %s: %w", sel.Alias, err)
		}
		q.Selections = append(q.Selections, s)
	}

	where, err := c.predicates(stmt.Where)
	if err != nil {
		return nil, fmt.Errorf("convert where clause: %w", err)
	}
	q.Where = where
	return q, nil
}

type converter struct {
	next int
}

func (c *converter) bindTableGroup(e *from.FromElement) {
	alias := fmt.Sprintf("t%d", c.next)
	c.next++

	entity := e.EntityType()
	root := sqlast.NewTableBinding(entity.RootTable, alias)
	group := sqlast.NewTableGroup(entity, root)
	for i, st := range entity.SecondaryTables {
		binding := sqlast.NewTableBinding(st.Table, fmt.Sprintf("%s_%d", alias, i+1))
		joinType := sqlast.JoinInner
		if st.Optional {
			joinType = sqlast.JoinLeft
		}
		group.AddJoin(sqlast.TableJoin{
			Type:      joinType,
			Binding:   binding,
			Predicate: sqlast.ColumnEquality(bind(entity.Identifier.Columns, root), bind(st.KeyColumns, binding)),
		})
	}
	e.SetTableGroup(group)
}

func bind(columns []*schema.Column, table *sqlast.TableBinding) []sqlast.ColumnBinding {
	out := make([]sqlast.ColumnBinding, len(columns))
	for i, col := range columns {
		out[i] = sqlast.ColumnBinding{Column: col, Table: table}
	}
	return out
}

func (c *converter) tableSpace(space *from.FromElementSpace, conditions map[*from.FromElement][]semantic.Predicate) (*sqlast.TableSpace, error) {
	ts := sqlast.NewTableSpace(space.Root().TableGroup())
	var joins []sqlast.TableGroupJoin
	for _, e := range space.Joins() {
		var preds []sqlast.Predicate
		if e.Lhs() != nil {
			p, err := associationPredicate(e)
			if err != nil {
				return nil, fmt.Errorf("join %s: %w", e, err)
			}
			preds = append(preds, p)
		}
		on, err := c.predicates(conditions[e])
		if err != nil {
			return nil, fmt.Errorf("join condition of %s: %w", e, err)
		}
		preds = append(preds, on)

		joins = append(joins, sqlast.TableGroupJoin{
			Type:      e.JoinType(),
			Group:     e.TableGroup(),
			Predicate: sqlast.And(preds...),
		})
	}
	// implicit joins made while resolving an on condition follow the
	// join that uses them in the from clause
	ordered, err := sqlast.OrderJoins(ts.Root, joins)
	if err != nil {
		return nil, err
	}
	for _, j := range ordered {
		ts.AddJoin(j)
	}
	return ts, nil
}

// associationPredicate equates the foreign key columns of the association
// on the lhs with the identifier columns of the joined entity.
func associationPredicate(e *from.FromElement) (sqlast.Predicate, error) {
	lhs := e.Lhs()
	attr, ok := lhs.EntityType().Attribute(e.JoinAttribute())
	if !ok {
		return nil, qerr.Internal("%s has no attribute %s", lhs.EntityType().Name, e.JoinAttribute())
	}
	fk, err := lhs.TableGroup().ResolveBindings(attr)
	if err != nil {
		return nil, err
	}
	id, err := e.TableGroup().ResolveEntityReference()
	if err != nil {
		return nil, err
	}
	if len(fk) != len(id.Bindings) {
		return nil, qerr.Internal("%d foreign key columns for %d identifier columns", len(fk), len(id.Bindings))
	}
	return sqlast.ColumnEquality(fk, id.Bindings), nil
}

func (c *converter) selection(sel semantic.Selection) (sqlast.Selection, error) {
	expr, err := c.expression(sel.Expression)
	if err != nil {
		return sqlast.Selection{}, err
	}
	out := sqlast.Selection{Expression: expr, Alias: sel.Alias, Types: typesOf(expr)}

	switch e := expr.(type) {
	case *sqlast.Parameter:
		return sqlast.Selection{}, qerr.Unsupported("parameter :%s cannot be selected", e.Name)
	case *sqlast.AttributeReference:
		if emb, ok := e.Attribute.(*schema.EmbeddedAttribute); ok {
			props := make([]string, len(emb.Embeddable.Components))
			for i, comp := range emb.Embeddable.Components {
				props[i] = comp.Name
			}
			out.Composite = &sqlast.Composite{Name: emb.Embeddable.Name, Properties: props}
		} else if len(e.Bindings) > 1 {
			out.Composite = columnComposite(e.Attribute.AttributeName(), e.Bindings)
		}
	case *sqlast.EntityReference:
		if len(e.Bindings) > 1 {
			out.Composite = columnComposite(e.Entity.Name, e.Bindings)
		}
	}
	return out, nil
}

func columnComposite(name string, bindings []sqlast.ColumnBinding) *sqlast.Composite {
	props := make([]string, len(bindings))
	for i, b := range bindings {
		props[i] = b.Column.Name
	}
	return &sqlast.Composite{Name: name, Properties: props}
}

func (c *converter) expression(expr semantic.Expression) (sqlast.Expression, error) {
	switch e := expr.(type) {
	case *semantic.AttributeReference:
		group := e.Element.TableGroup()
		if group == nil {
			return nil, qerr.Internal("from-element %s has no table group", e.Element)
		}
		return group.Resolve(e.Attribute)
	case *semantic.FromElementReference:
		group := e.Element.TableGroup()
		if group == nil {
			return nil, qerr.Internal("from-element %s has no table group", e.Element)
		}
		return group.ResolveEntityReference()
	case *semantic.EntityTypeExpression:
		return nil, qerr.Unsupported("entity type %s cannot be used as a value", e.Entity.Name)
	case *semantic.ConstantExpression:
		return &sqlast.Literal{Value: e.Constant.Value, Type: e.Constant.Type}, nil
	case *semantic.LiteralExpression:
		return &sqlast.Literal{Value: e.Value, Type: e.Type}, nil
	case *semantic.ParameterExpression:
		return &sqlast.Parameter{Name: e.Name}, nil
	default:
		return nil, qerr.Internal("unknown expression %T", expr)
	}
}

func (c *converter) predicates(preds []semantic.Predicate) (sqlast.Predicate, error) {
	var out []sqlast.Predicate
	for _, p := range preds {
		converted, err := c.predicate(p)
		if err != nil {
			return nil, err
		}
		out = append(out, converted)
	}
	return sqlast.And(out...), nil
}

func (c *converter) predicate(p semantic.Predicate) (sqlast.Predicate, error) {
	left, err := c.expression(p.Left)
	if err != nil {
		return nil, err
	}
	switch p.Operator {
	case "is null":
		return &sqlast.NullCheck{Operand: left}, nil
	case "is not null":
		return &sqlast.NullCheck{Operand: left, Negated: true}, nil
	}

	right, err := c.expression(p.Right)
	if err != nil {
		return nil, err
	}
	// parameters take the shape of what they are compared with
	if param, ok := right.(*sqlast.Parameter); ok {
		param.Types = typesOf(left)
	}
	if param, ok := left.(*sqlast.Parameter); ok {
		param.Types = typesOf(right)
	}
	if left.ColumnSpan() != right.ColumnSpan() {
		return nil, qerr.Unsupported("cannot compare %d columns with %d columns", left.ColumnSpan(), right.ColumnSpan())
	}
	if left.ColumnSpan() > 1 && p.Operator != "=" && p.Operator != "<>" {
		return nil, qerr.Unsupported("operator %s on a multi-column value", p.Operator)
	}
	return &sqlast.Relational{Left: left, Operator: p.Operator, Right: right}, nil
}

// typesOf returns one type code per column the expression spans. A
// parameter whose shape is not yet known has no types.
func typesOf(expr sqlast.Expression) []sqltypes.Code {
	switch e := expr.(type) {
	case *sqlast.ColumnReference:
		return []sqltypes.Code{e.Binding.Column.Type}
	case *sqlast.AttributeReference:
		return bindingTypes(e.Bindings)
	case *sqlast.EntityReference:
		return bindingTypes(e.Bindings)
	case *sqlast.Literal:
		return []sqltypes.Code{e.Type}
	case *sqlast.Parameter:
		return e.Types
	default:
		return nil
	}
}

func bindingTypes(bindings []sqlast.ColumnBinding) []sqltypes.Code {
	out := make([]sqltypes.Code, len(bindings))
	for i, b := range bindings {
		out[i] = b.Column.Type
	}
	return out
}
