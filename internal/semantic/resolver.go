package semantic

import (
	"io"
	"log/slog"
	"strings"

	"github.com/roach88/hqlcore/internal/from"
	"github.com/roach88/hqlcore/internal/hql"
	"github.com/roach88/hqlcore/internal/qerr"
	"github.com/roach88/hqlcore/internal/schema"
)

// Path is the parse-tree view of a dotted identifier sequence.
// *hql.Path implements it.
type Path interface {
	Text() string

	// Parts returns the segments of a plain path, nil for indexed and
	// treated paths.
	Parts() []string

	IsIndexed() bool
	IsTreated() bool
}

// DottedPath is a plain path given as text, e.g. "p.address.city".
type DottedPath string

func (p DottedPath) Text() string { return string(p) }

func (p DottedPath) Parts() []string {
	parts := strings.Split(string(p), ".")
	for i, part := range parts {
		parts[i] = hql.Normalize(part)
	}
	return parts
}

func (DottedPath) IsIndexed() bool { return false }
func (DottedPath) IsTreated() bool { return false }

var _ Path = (*hql.Path)(nil)

// Scope is what a path resolves against.
type Scope struct {
	Clause   *from.FromClause
	Metadata *schema.Metadata
	Logger   *slog.Logger
}

// Strategy is one resolution rule. It returns (nil, nil) when the rule does
// not apply, so the next rule is tried. A non-nil error aborts resolution.
type Strategy func(scope *Scope, path Path) (Expression, error)

// DefaultStrategies returns the resolution rules in precedence order:
// qualified attribute path, bare alias, unqualified attribute path, entity
// type, constant.
func DefaultStrategies() []Strategy {
	return []Strategy{
		QualifiedAttributePath,
		AliasReference,
		UnqualifiedAttributePath,
		EntityTypeReference,
		ConstantReference,
	}
}

// Resolver turns a path into exactly one expression by trying its
// strategies in order.
type Resolver struct {
	strategies []Strategy
	logger     *slog.Logger
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithLogger sets the logger used for resolution diagnostics.
func WithLogger(logger *slog.Logger) ResolverOption {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// WithStrategies replaces the resolution rules.
func WithStrategies(strategies ...Strategy) ResolverOption {
	return func(r *Resolver) {
		r.strategies = strategies
	}
}

// NewResolver creates a resolver with DefaultStrategies and a discard
// logger unless overridden.
func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{
		strategies: DefaultStrategies(),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve interprets path against clause. It fails with
// UNRESOLVED_IDENTIFIER, carrying the path text, when no strategy applies.
func (r *Resolver) Resolve(clause *from.FromClause, md *schema.Metadata, path Path) (Expression, error) {
	scope := &Scope{Clause: clause, Metadata: md, Logger: r.logger}

	if path.IsIndexed() {
		expr, err := r.ResolveIndexed(scope, path)
		if err != nil || expr != nil {
			return expr, err
		}
		return nil, qerr.Unresolved(path.Text())
	}
	if path.IsTreated() {
		expr, err := r.ResolveTreated(scope, path)
		if err != nil || expr != nil {
			return expr, err
		}
		return nil, qerr.Unresolved(path.Text())
	}

	for _, strategy := range r.strategies {
		expr, err := strategy(scope, path)
		if err != nil {
			return nil, err
		}
		if expr != nil {
			return expr, nil
		}
	}
	return nil, qerr.Unresolved(path.Text())
}

// ResolveIndexed handles "a.items[0]" forms. The basic resolver does not
// support them and reports "not applicable".
func (r *Resolver) ResolveIndexed(*Scope, Path) (Expression, error) {
	return nil, nil
}

// ResolveTreated handles "treat(a as Sub)" forms. The basic resolver does
// not support them and reports "not applicable".
func (r *Resolver) ResolveTreated(*Scope, Path) (Expression, error) {
	return nil, nil
}

// QualifiedAttributePath resolves "alias.x.y.z" when the first segment is
// a known alias. Intermediate segments become implicit left joins.
func QualifiedAttributePath(scope *Scope, path Path) (Expression, error) {
	parts := path.Parts()
	if len(parts) < 2 {
		return nil, nil
	}
	element := scope.Clause.FindFromElementByAlias(parts[0])
	if element == nil {
		return nil, nil
	}
	return resolveAttributePath(scope, element, parts, 1, path.Text())
}

// AliasReference resolves a single segment naming a known alias to the
// element itself.
func AliasReference(scope *Scope, path Path) (Expression, error) {
	parts := path.Parts()
	if len(parts) != 1 {
		return nil, nil
	}
	element := scope.Clause.FindFromElementByAlias(parts[0])
	if element == nil {
		return nil, nil
	}
	return &FromElementReference{Element: element}, nil
}

// UnqualifiedAttributePath resolves "x.y.z" against the one from-element
// declaring attribute x.
func UnqualifiedAttributePath(scope *Scope, path Path) (Expression, error) {
	parts := path.Parts()
	element, err := scope.Clause.FindFromElementWithAttribute(parts[0])
	if err != nil {
		return nil, err
	}
	if element == nil {
		return nil, nil
	}
	return resolveAttributePath(scope, element, parts, 0, path.Text())
}

// EntityTypeReference resolves the full path text as an entity name.
func EntityTypeReference(scope *Scope, path Path) (Expression, error) {
	entity := scope.Metadata.ResolveEntityReference(strings.Join(path.Parts(), "."))
	if entity == nil {
		return nil, nil
	}
	return &EntityTypeExpression{Entity: entity}, nil
}

// ConstantReference resolves the full path text as a schema constant.
// A miss is logged and falls through.
func ConstantReference(scope *Scope, path Path) (Expression, error) {
	name := strings.Join(path.Parts(), ".")
	c, err := scope.Metadata.ResolveConstant(name)
	if err != nil {
		if scope.Logger != nil {
			scope.Logger.Debug("path is not a constant", "path", name, "error", err)
		}
		return nil, nil
	}
	return &ConstantExpression{Constant: c}, nil
}

// resolveAttributePath joins parts[offset:len-1] from element and resolves
// the last segment on the final element.
func resolveAttributePath(scope *Scope, element *from.FromElement, parts []string, offset int, text string) (Expression, error) {
	current := element
	for _, segment := range parts[offset : len(parts)-1] {
		next, err := scope.Clause.ImplicitJoin(scope.Metadata, current, segment, text)
		if err != nil {
			return nil, err
		}
		current = next
	}

	name := parts[len(parts)-1]
	attr, ok := current.EntityType().Attribute(name)
	if !ok {
		return nil, qerr.Unresolved(text)
	}
	return &AttributeReference{Element: current, Attribute: attr, Path: text}, nil
}
