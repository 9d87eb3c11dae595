package semantic

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/roach88/hqlcore/internal/from"
	"github.com/roach88/hqlcore/internal/hql"
	"github.com/roach88/hqlcore/internal/qerr"
	"github.com/roach88/hqlcore/internal/schema"
	"github.com/roach88/hqlcore/internal/sqltypes"
)

// Options configures Analyze. Zero values select defaults.
type Options struct {
	Resolver       *Resolver
	AliasGenerator *from.AliasGenerator
	Logger         *slog.Logger
}

// Selection is one resolved select item.
type Selection struct {
	Expression Expression

	// Alias is the explicit "as" alias, or the source path text.
	Alias string
}

// Predicate is a resolved comparison. Right is nil for null tests, whose
// Operator is "is null" or "is not null".
type Predicate struct {
	Left     Expression
	Operator string
	Right    Expression
}

// Statement is the semantic form of a query.
type Statement struct {
	FromClause *from.FromClause
	Selections []Selection
	Where      []Predicate

	// JoinConditions holds the "on" predicates of explicit joins.
	JoinConditions map[*from.FromElement][]Predicate

	// Parameters lists named parameters in order of first appearance.
	Parameters []string
}

// Analyze interprets a parsed statement against md: it indexes the from
// clause, then resolves join conditions, select items and where
// predicates, in that order. A query without a select list selects the
// root element of every space.
func Analyze(stmt *hql.Statement, md *schema.Metadata, opts Options) (*Statement, error) {
	resolver := opts.Resolver
	if resolver == nil {
		var ropts []ResolverOption
		if opts.Logger != nil {
			ropts = append(ropts, WithLogger(opts.Logger))
		}
		resolver = NewResolver(ropts...)
	}

	clause, err := from.Index(stmt, md, opts.AliasGenerator)
	if err != nil {
		return nil, fmt.Errorf("index from clause: %w", err)
	}

	a := &analyzer{
		resolver: resolver,
		md:       md,
		clause:   clause,
		seen:     make(map[string]bool),
	}
	out := &Statement{FromClause: clause, JoinConditions: make(map[*from.FromElement][]Predicate)}

	for _, e := range clause.Elements() {
		decl := e.Declaration()
		if decl == nil || len(decl.On) == 0 {
			continue
		}
		preds, err := a.predicates(decl.On)
		if err != nil {
			return nil, fmt.Errorf("resolve join condition of %s: %w", e.Alias(), err)
		}
		out.JoinConditions[e] = preds
	}

	if len(stmt.Select) == 0 {
		for _, space := range clause.Spaces() {
			out.Selections = append(out.Selections, Selection{
				Expression: &FromElementReference{Element: space.Root()},
				Alias:      space.Root().Alias(),
			})
		}
	}
	for _, item := range stmt.Select {
		expr, err := resolver.Resolve(clause, md, item.Path)
		if err != nil {
			return nil, fmt.Errorf("resolve select item: %w", err)
		}
		alias := hql.Normalize(item.Alias)
		if alias == "" {
			alias = item.Path.Text()
		}
		out.Selections = append(out.Selections, Selection{Expression: expr, Alias: alias})
	}

	out.Where, err = a.predicates(stmt.Where)
	if err != nil {
		return nil, fmt.Errorf("resolve where clause: %w", err)
	}
	out.Parameters = a.params
	return out, nil
}

type analyzer struct {
	resolver *Resolver
	md       *schema.Metadata
	clause   *from.FromClause
	params   []string
	seen     map[string]bool
}

func (a *analyzer) predicates(nodes []*hql.Predicate) ([]Predicate, error) {
	var out []Predicate
	for _, n := range nodes {
		left, err := a.operand(n.Left)
		if err != nil {
			return nil, err
		}
		if n.Null != nil {
			op := "is null"
			if n.Null.Not {
				op = "is not null"
			}
			out = append(out, Predicate{Left: left, Operator: op})
			continue
		}
		right, err := a.operand(n.Right)
		if err != nil {
			return nil, err
		}
		op := n.Operator
		if op == "!=" {
			op = "<>"
		}
		out = append(out, Predicate{Left: left, Operator: op, Right: right})
	}
	return out, nil
}

func (a *analyzer) operand(o *hql.Operand) (Expression, error) {
	switch {
	case o.Param != nil:
		name := o.ParamName()
		if !a.seen[name] {
			a.seen[name] = true
			a.params = append(a.params, name)
		}
		return &ParameterExpression{Name: name}, nil
	case o.Number != nil:
		return numberLiteral(*o.Number)
	case o.String != nil:
		return &LiteralExpression{Value: o.StringValue(), Type: sqltypes.VarChar}, nil
	case o.Path != nil:
		return a.resolver.Resolve(a.clause, a.md, o.Path)
	default:
		return nil, qerr.Internal("empty operand at %s", o.Pos)
	}
}

// numberLiteral types integral literals as BIGINT and the rest as DECIMAL.
func numberLiteral(text string) (Expression, error) {
	if !strings.Contains(text, ".") {
		n, err := strconv.ParseInt(text, 10, 64)
		if err == nil {
			return &LiteralExpression{Value: n, Type: sqltypes.BigInt}, nil
		}
	}
	d, err := decimal.NewFromString(text)
	if err != nil {
		return nil, qerr.Unsupported("numeric literal %s: %v", text, err)
	}
	return &LiteralExpression{Value: d, Type: sqltypes.Decimal}, nil
}
