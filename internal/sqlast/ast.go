package sqlast

import (
	"github.com/roach88/hqlcore/internal/schema"
	"github.com/roach88/hqlcore/internal/sqltypes"
)

// Expression is a SQL value expression.
//
// This is a sealed interface: only types in this package implement it, so
// the walker can switch over it exhaustively.
type Expression interface {
	// ColumnSpan is the number of physical values the expression renders.
	ColumnSpan() int
	expressionNode()
}

// Predicate is a boolean SQL condition. Sealed like Expression.
type Predicate interface {
	predicateNode()
}

// ColumnReference renders a single bound column.
type ColumnReference struct {
	Binding ColumnBinding
}

func (*ColumnReference) ColumnSpan() int { return 1 }
func (*ColumnReference) expressionNode() {}

// AttributeReference renders every column an attribute maps to.
type AttributeReference struct {
	Attribute schema.Attribute
	Bindings  []ColumnBinding
}

func (r *AttributeReference) ColumnSpan() int { return len(r.Bindings) }
func (*AttributeReference) expressionNode()   {}

// EntityReference renders an entity through its identifier columns.
type EntityReference struct {
	Entity   *schema.EntityType
	Bindings []ColumnBinding
}

func (r *EntityReference) ColumnSpan() int { return len(r.Bindings) }
func (*EntityReference) expressionNode()   {}

// Parameter is a named query parameter. Types holds one code per
// positional slot; a parameter compared against an embedded attribute
// spans several slots.
type Parameter struct {
	Name  string
	Types []sqltypes.Code
}

func (p *Parameter) ColumnSpan() int {
	if len(p.Types) == 0 {
		return 1
	}
	return len(p.Types)
}
func (*Parameter) expressionNode() {}

// Literal is a constant value. Literals are bound, never inlined.
type Literal struct {
	Value any
	Type  sqltypes.Code
}

func (*Literal) ColumnSpan() int { return 1 }
func (*Literal) expressionNode() {}

// Relational compares two expressions of equal span. Spans above one
// render as row values: (a, b) = (?, ?).
type Relational struct {
	Left     Expression
	Operator string
	Right    Expression
}

func (*Relational) predicateNode() {}

// NullCheck is "is null" or "is not null". A multi-column operand tests
// every column.
type NullCheck struct {
	Operand Expression
	Negated bool
}

func (*NullCheck) predicateNode() {}

// Junction combines predicates with AND (Conjunctive) or OR.
type Junction struct {
	Conjunctive bool
	Predicates  []Predicate
}

func (*Junction) predicateNode() {}

// And builds a conjunction, collapsing nil and single-element inputs.
func And(predicates ...Predicate) Predicate {
	var kept []Predicate
	for _, p := range predicates {
		if p != nil {
			kept = append(kept, p)
		}
	}
	switch len(kept) {
	case 0:
		return nil
	case 1:
		return kept[0]
	default:
		return &Junction{Conjunctive: true, Predicates: kept}
	}
}

// ColumnEquality is the join predicate lhs[i] = rhs[i] for every i.
func ColumnEquality(lhs, rhs []ColumnBinding) Predicate {
	preds := make([]Predicate, 0, len(lhs))
	for i := range lhs {
		preds = append(preds, &Relational{
			Left:     &ColumnReference{Binding: lhs[i]},
			Operator: "=",
			Right:    &ColumnReference{Binding: rhs[i]},
		})
	}
	return And(preds...)
}

// Selection is one item of the select list.
type Selection struct {
	Expression Expression

	// Alias is the result alias exposed to tuple transformers.
	Alias string

	// Types has one code per column the expression spans.
	Types []sqltypes.Code

	// Composite names the components of a multi-column selection, in
	// column order. Nil for single-column selections.
	Composite *Composite
}

// Composite describes the properties of a multi-column selection.
type Composite struct {
	Name       string
	Properties []string
}

// Limit restricts the rows returned. Nil fields are unset.
type Limit struct {
	FirstRow *int
	MaxRows  *int
}

// SelectQuery is the root of the SQL AST.
type SelectQuery struct {
	// Comment renders as a leading /* comment */ when set.
	Comment string

	Selections []Selection
	Spaces     []*TableSpace
	Where      Predicate
	Limit      *Limit
}

// MutationKind identifies a DML statement.
type MutationKind int

const (
	Insert MutationKind = iota
	Update
	Delete
)

func (k MutationKind) String() string {
	switch k {
	case Insert:
		return "insert"
	case Update:
		return "update"
	case Delete:
		return "delete"
	default:
		return "mutation"
	}
}

// MutationQuery is a DML statement against one table. Translation and
// execution of mutations are not implemented; the type exists so the
// executor entry points have a stable shape.
type MutationQuery struct {
	Kind   MutationKind
	Target *TableBinding
	Where  Predicate
}

// CallQuery invokes a stored procedure or function.
type CallQuery struct {
	Procedure string
	Arguments []Expression
}

// PredicateTables returns the tables p references, in order of first
// appearance.
func PredicateTables(p Predicate) []*TableBinding {
	var tables []*TableBinding
	seen := make(map[*TableBinding]bool)
	add := func(bindings ...ColumnBinding) {
		for _, b := range bindings {
			if b.Table != nil && !seen[b.Table] {
				seen[b.Table] = true
				tables = append(tables, b.Table)
			}
		}
	}
	var expr func(Expression)
	expr = func(e Expression) {
		switch e := e.(type) {
		case *ColumnReference:
			add(e.Binding)
		case *AttributeReference:
			add(e.Bindings...)
		case *EntityReference:
			add(e.Bindings...)
		}
	}
	var walk func(Predicate)
	walk = func(p Predicate) {
		switch p := p.(type) {
		case *Relational:
			expr(p.Left)
			expr(p.Right)
		case *NullCheck:
			expr(p.Operand)
		case *Junction:
			for _, sub := range p.Predicates {
				walk(sub)
			}
		}
	}
	walk(p)
	return tables
}
