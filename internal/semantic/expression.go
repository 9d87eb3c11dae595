package semantic

import (
	"github.com/roach88/hqlcore/internal/from"
	"github.com/roach88/hqlcore/internal/schema"
	"github.com/roach88/hqlcore/internal/sqltypes"
)

// Expression is a resolved query expression.
//
// This is a sealed interface - only types in this package implement it.
// Conversion switches over the concrete types exhaustively.
type Expression interface {
	expressionNode()
}

// AttributeReference is an attribute of a from-element, e.g. "p.name".
type AttributeReference struct {
	Element   *from.FromElement
	Attribute schema.Attribute

	// Path is the source text the reference was resolved from.
	Path string
}

// AttributeName returns the name of the referenced attribute.
func (r *AttributeReference) AttributeName() string { return r.Attribute.AttributeName() }

func (*AttributeReference) expressionNode() {}

// FromElementReference is a bare alias, selecting the element itself.
type FromElementReference struct {
	Element *from.FromElement
}

func (*FromElementReference) expressionNode() {}

// EntityTypeExpression names an entity type. It has no table binding.
type EntityTypeExpression struct {
	Entity *schema.EntityType
}

func (*EntityTypeExpression) expressionNode() {}

// ConstantExpression is a static value from the schema, e.g. Status.ACTIVE.
type ConstantExpression struct {
	Constant schema.Constant
}

func (*ConstantExpression) expressionNode() {}

// ParameterExpression is a named parameter, ":name".
type ParameterExpression struct {
	Name string
}

func (*ParameterExpression) expressionNode() {}

// LiteralExpression is a literal number or string.
type LiteralExpression struct {
	Value any
	Type  sqltypes.Code
}

func (*LiteralExpression) expressionNode() {}
