package from

import (
	"fmt"
	"strings"

	"github.com/roach88/hqlcore/internal/hql"
	"github.com/roach88/hqlcore/internal/qerr"
	"github.com/roach88/hqlcore/internal/schema"
	"github.com/roach88/hqlcore/internal/sqlast"
)

// Index builds the root from clause of a parsed statement: one space per
// comma-separated from item, a root element per entity, and one element
// per join. Association joins ("join p.employer e") synthesize left joins
// for any intermediate segments, the same way path resolution does.
//
// Join conditions are not interpreted here; Declaration() links each
// joined element back to its parse node.
func Index(stmt *hql.Statement, md *schema.Metadata, gen *AliasGenerator) (*FromClause, error) {
	clause := NewFromClause(gen)
	for _, item := range stmt.From {
		entity := md.ResolveEntityReference(item.EntityName())
		if entity == nil {
			return nil, qerr.Unresolved(item.EntityName())
		}
		space, err := clause.AddSpace(entity, item.AliasName())
		if err != nil {
			return nil, err
		}
		for _, j := range item.Joins {
			e, err := indexJoin(clause, space, md, j)
			if err != nil {
				return nil, err
			}
			e.declaration = j
		}
	}
	return clause, nil
}

func indexJoin(clause *FromClause, space *FromElementSpace, md *schema.Metadata, j *hql.Join) (*FromElement, error) {
	target := j.Target
	if target.IsIndexed() || target.IsTreated() {
		return nil, qerr.Unsupported("join target %s: indexed and treated joins are not supported", target.Text())
	}
	joinType, err := sqlast.ParseJoinType(j.JoinKind())
	if err != nil {
		return nil, qerr.Unsupported("%v", err)
	}

	parts := target.Parts()
	if len(parts) > 1 {
		if lhs := clause.FindFromElementByAlias(parts[0]); lhs != nil {
			if joinType == sqlast.JoinCross {
				return nil, qerr.Unsupported("cross join on association path %s", target.Text())
			}
			return joinPath(clause, md, lhs, parts[1:], target.Text(), joinType, j.Fetch, j.AliasName())
		}
	}

	entity := md.ResolveEntityReference(strings.Join(parts, "."))
	if entity == nil {
		return nil, qerr.Unresolved(target.Text())
	}
	if joinType != sqlast.JoinCross && len(j.On) == 0 {
		return nil, qerr.InvalidPath(target.Text(), fmt.Sprintf("%s join to entity %s requires an on condition", joinType, entity.Name))
	}
	return space.AddEntityJoin(entity, j.AliasName(), joinType, j.Fetch)
}

// joinPath walks association segments from lhs. Every segment but the last
// becomes a reused implicit join; the last becomes the declared join.
func joinPath(clause *FromClause, md *schema.Metadata, lhs *FromElement, segments []string, text string, joinType sqlast.JoinType, fetch bool, alias string) (*FromElement, error) {
	current := lhs
	for _, name := range segments[:len(segments)-1] {
		var err error
		if current, err = clause.ImplicitJoin(md, current, name, text); err != nil {
			return nil, err
		}
	}
	name := segments[len(segments)-1]
	target, err := AssociationTarget(md, current, name, text)
	if err != nil {
		return nil, err
	}
	return clause.MakeAttributeJoin(current, name, target, joinType, fetch, false, alias)
}

// ImplicitJoin joins the association name of lhs as a left, non-fetching
// join with a generated alias, reusing an earlier implicit join of the
// same association. path is reported in errors.
func (c *FromClause) ImplicitJoin(md *schema.Metadata, lhs *FromElement, name, path string) (*FromElement, error) {
	target, err := AssociationTarget(md, lhs, name, path)
	if err != nil {
		return nil, err
	}
	return c.MakeAttributeJoin(lhs, name, target, sqlast.JoinLeft, false, true, "")
}

// AssociationTarget returns the entity reached through the association
// attribute name of e. An unknown attribute is UNRESOLVED_IDENTIFIER; a
// basic or embedded attribute is INVALID_PATH.
func AssociationTarget(md *schema.Metadata, e *FromElement, name, path string) (*schema.EntityType, error) {
	attr, ok := e.entity.Attribute(name)
	if !ok {
		return nil, qerr.Unresolved(path)
	}
	assoc, ok := attr.(*schema.ToOneAttribute)
	if !ok {
		return nil, qerr.InvalidPath(path, fmt.Sprintf("%s.%s is not an association", e.entity.Name, name))
	}
	target := md.ResolveEntityReference(assoc.Target)
	if target == nil {
		return nil, qerr.Internal("association %s.%s targets unknown entity %s", e.entity.Name, name, assoc.Target)
	}
	return target, nil
}
