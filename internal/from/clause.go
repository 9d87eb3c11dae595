// Package from models the from clause of a query: aliased from-elements
// grouped into spaces, with alias and attribute lookup over nested scopes.
package from

import (
	"fmt"
	"strings"

	"github.com/roach88/hqlcore/internal/hql"
	"github.com/roach88/hqlcore/internal/qerr"
	"github.com/roach88/hqlcore/internal/schema"
	"github.com/roach88/hqlcore/internal/sqlast"
)

const (
	implicitAliasPrefix = "<gen:"
	implicitAliasSuffix = ">"
)

// AliasGenerator hands out implicit aliases "<gen:0>", "<gen:1>", ...
// One generator is shared by a clause and all its children so generated
// aliases never collide across scopes.
type AliasGenerator struct {
	next int
}

// NewAliasGenerator creates a generator starting at <gen:0>.
func NewAliasGenerator() *AliasGenerator {
	return &AliasGenerator{}
}

// Next returns a fresh implicit alias.
func (g *AliasGenerator) Next() string {
	alias := fmt.Sprintf("%s%d%s", implicitAliasPrefix, g.next, implicitAliasSuffix)
	g.next++
	return alias
}

// IsImplicitAlias reports whether alias was produced by an AliasGenerator.
func IsImplicitAlias(alias string) bool {
	return strings.HasPrefix(alias, implicitAliasPrefix) && strings.HasSuffix(alias, implicitAliasSuffix)
}

// FromClause is an ordered list of spaces plus the alias namespace they
// share. Clauses nest for subqueries: a child sees its ancestors' aliases.
type FromClause struct {
	parent   *FromClause
	children []*FromClause
	spaces   []*FromElementSpace
	aliases  map[string]*FromElement
	gen      *AliasGenerator
}

// NewFromClause creates a root clause. A nil gen gets a fresh generator.
func NewFromClause(gen *AliasGenerator) *FromClause {
	if gen == nil {
		gen = NewAliasGenerator()
	}
	return &FromClause{aliases: make(map[string]*FromElement), gen: gen}
}

// NewChild creates a nested clause whose alias scope includes c's.
func (c *FromClause) NewChild() *FromClause {
	child := &FromClause{parent: c, aliases: make(map[string]*FromElement), gen: c.gen}
	c.children = append(c.children, child)
	return child
}

// Parent returns the enclosing clause, or nil for a root clause.
func (c *FromClause) Parent() *FromClause { return c.parent }

// Children returns nested clauses in creation order.
func (c *FromClause) Children() []*FromClause { return c.children }

// Spaces returns the spaces in declaration order.
func (c *FromClause) Spaces() []*FromElementSpace { return c.spaces }

// Elements returns every element of every space: each root followed by its
// joins.
func (c *FromClause) Elements() []*FromElement {
	var out []*FromElement
	for _, s := range c.spaces {
		out = append(out, s.root)
		out = append(out, s.joins...)
	}
	return out
}

// AddSpace adds a space rooted at entity. An empty alias is replaced by an
// implicit one.
func (c *FromClause) AddSpace(entity *schema.EntityType, alias string) (*FromElementSpace, error) {
	space := &FromElementSpace{clause: c}
	root, err := c.newElement(space, entity, alias)
	if err != nil {
		return nil, err
	}
	space.root = root
	c.spaces = append(c.spaces, space)
	return space, nil
}

// FindFromElementByAlias looks up alias in this clause, then in each
// ancestor. Returns nil when no element carries the alias.
func (c *FromClause) FindFromElementByAlias(alias string) *FromElement {
	for cur := c; cur != nil; cur = cur.parent {
		if e, ok := cur.aliases[alias]; ok {
			return e
		}
	}
	return nil
}

// FindFromElementWithAttribute returns the element whose entity declares
// the named attribute. Only elements written by the query author are
// candidates; implicit joins are not. The innermost clause with a match
// wins. More than one match in that clause is an AMBIGUOUS_REFERENCE
// error; no match anywhere returns nil, nil.
func (c *FromClause) FindFromElementWithAttribute(name string) (*FromElement, error) {
	for cur := c; cur != nil; cur = cur.parent {
		var matches []*FromElement
		for _, e := range cur.Elements() {
			if !e.synthesized && e.entity.HasAttribute(name) {
				matches = append(matches, e)
			}
		}
		switch len(matches) {
		case 0:
			continue
		case 1:
			return matches[0], nil
		default:
			aliases := make([]string, len(matches))
			for i, m := range matches {
				aliases[i] = m.alias
			}
			return nil, qerr.Ambiguous(name, aliases)
		}
	}
	return nil, nil
}

// MakeAttributeJoin joins the association attribute of lhs into lhs's
// space. The new alias belongs to the clause that owns that space, which
// is an ancestor of c when lhs is an outer element. Synthesized joins (implicit joins for intermediate path
// segments) are reused: joining the same attribute of the same element
// again returns the existing element.
func (c *FromClause) MakeAttributeJoin(lhs *FromElement, attribute string, target *schema.EntityType, joinType sqlast.JoinType, fetch, synthesized bool, alias string) (*FromElement, error) {
	if synthesized {
		for _, e := range lhs.space.joins {
			if e.synthesized && e.lhs == lhs && e.attribute == attribute {
				return e, nil
			}
		}
	}
	e, err := lhs.space.clause.newElement(lhs.space, target, alias)
	if err != nil {
		return nil, err
	}
	e.joinType = joinType
	e.fetch = fetch
	e.lhs = lhs
	e.attribute = attribute
	e.synthesized = synthesized
	lhs.space.joins = append(lhs.space.joins, e)
	return e, nil
}

func (c *FromClause) newElement(space *FromElementSpace, entity *schema.EntityType, alias string) (*FromElement, error) {
	implicit := alias == ""
	if implicit {
		alias = c.gen.Next()
	} else if c.FindFromElementByAlias(alias) != nil || c.aliasInChildren(alias) {
		return nil, qerr.DuplicateAlias(alias)
	}
	e := &FromElement{alias: alias, implicit: implicit, space: space, entity: entity}
	c.aliases[alias] = e
	return e, nil
}

func (c *FromClause) aliasInChildren(alias string) bool {
	for _, child := range c.children {
		if _, ok := child.aliases[alias]; ok || child.aliasInChildren(alias) {
			return true
		}
	}
	return false
}

// FromElementSpace is one root element plus the elements joined to it.
type FromElementSpace struct {
	clause *FromClause
	root   *FromElement
	joins  []*FromElement
}

// Clause returns the owning clause.
func (s *FromElementSpace) Clause() *FromClause { return s.clause }

// Root returns the root element.
func (s *FromElementSpace) Root() *FromElement { return s.root }

// Joins returns joined elements in join order.
func (s *FromElementSpace) Joins() []*FromElement { return s.joins }

// AddEntityJoin joins another entity into the space. Entity joins have no
// mapping-implied condition: cross joins take none, inner and left joins
// take their condition from the query.
func (s *FromElementSpace) AddEntityJoin(entity *schema.EntityType, alias string, joinType sqlast.JoinType, fetch bool) (*FromElement, error) {
	e, err := s.clause.newElement(s, entity, alias)
	if err != nil {
		return nil, err
	}
	e.joinType = joinType
	e.fetch = fetch
	s.joins = append(s.joins, e)
	return e, nil
}

// FromElement is one aliased source: an entity root, an entity join, or
// an association join.
type FromElement struct {
	alias    string
	implicit bool
	space    *FromElementSpace
	entity   *schema.EntityType

	// join metadata; zero for roots
	joinType    sqlast.JoinType
	fetch       bool
	lhs         *FromElement
	attribute   string
	synthesized bool

	declaration *hql.Join
	group       *sqlast.TableGroup
}

// Alias returns the explicit or generated alias.
func (e *FromElement) Alias() string { return e.alias }

// HasImplicitAlias reports whether the alias was generated.
func (e *FromElement) HasImplicitAlias() bool { return e.implicit }

// Space returns the owning space.
func (e *FromElement) Space() *FromElementSpace { return e.space }

// EntityType returns the entity the element ranges over.
func (e *FromElement) EntityType() *schema.EntityType { return e.entity }

// IsRoot reports whether e is its space's root.
func (e *FromElement) IsRoot() bool { return e.space.root == e }

// JoinType returns how e is joined into its space. Meaningless for roots.
func (e *FromElement) JoinType() sqlast.JoinType { return e.joinType }

// Fetch reports whether the join was declared "join fetch".
func (e *FromElement) Fetch() bool { return e.fetch }

// Lhs returns the element whose association produced e, or nil for roots
// and entity joins.
func (e *FromElement) Lhs() *FromElement { return e.lhs }

// JoinAttribute returns the association attribute name for attribute joins.
func (e *FromElement) JoinAttribute() string { return e.attribute }

// Synthesized reports whether e is an implicit join created while
// resolving a path.
func (e *FromElement) Synthesized() bool { return e.synthesized }

// Declaration returns the parse node of an explicit join, or nil for roots
// and implicit joins.
func (e *FromElement) Declaration() *hql.Join { return e.declaration }

// TableGroup returns the group bound during conversion, or nil before.
func (e *FromElement) TableGroup() *sqlast.TableGroup { return e.group }

// SetTableGroup binds the element's table group. Called once, during
// conversion.
func (e *FromElement) SetTableGroup(g *sqlast.TableGroup) { e.group = g }

func (e *FromElement) String() string {
	return e.entity.Name + " " + e.alias
}
