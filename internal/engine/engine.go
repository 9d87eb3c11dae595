package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/roach88/hqlcore/internal/convert"
	"github.com/roach88/hqlcore/internal/exec"
	"github.com/roach88/hqlcore/internal/hql"
	"github.com/roach88/hqlcore/internal/qerr"
	"github.com/roach88/hqlcore/internal/query"
	"github.com/roach88/hqlcore/internal/results"
	"github.com/roach88/hqlcore/internal/schema"
	"github.com/roach88/hqlcore/internal/semantic"
	"github.com/roach88/hqlcore/internal/sqlast"
	"github.com/roach88/hqlcore/internal/sqlwalk"
	"github.com/roach88/hqlcore/internal/store"
)

// Engine runs object queries against a mapped database.
type Engine struct {
	md       *schema.Metadata
	store    *store.Store
	logger   *slog.Logger
	style    sqlwalk.PlaceholderStyle
	ids      IDGenerator
	resolver *semantic.Resolver
	seq      atomic.Int64
}

// EngineOption allows configuration of engine parameters.
type EngineOption func(*Engine)

// WithLogger sets the logger used by the resolver and the statement log.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithPlaceholderStyle overrides the placeholder style implied by the
// store's driver.
func WithPlaceholderStyle(style sqlwalk.PlaceholderStyle) EngineOption {
	return func(e *Engine) {
		e.style = style
	}
}

// WithIDGenerator sets the execution ID source. Default: UUIDv7Generator.
func WithIDGenerator(ids IDGenerator) EngineOption {
	return func(e *Engine) {
		e.ids = ids
	}
}

// New creates an Engine over md. s may be nil for an engine that only
// explains queries.
func New(md *schema.Metadata, s *store.Store, opts ...EngineOption) *Engine {
	e := &Engine{
		md:     md,
		store:  s,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		ids:    UUIDv7Generator{},
	}
	if s != nil {
		e.style = s.Config().PlaceholderStyle()
	}

	for _, opt := range opts {
		opt(e)
	}

	e.resolver = semantic.NewResolver(semantic.WithLogger(e.logger))
	return e
}

// Prepared is a query resolved and converted, ready to walk.
type Prepared struct {
	Statement *semantic.Statement
	Query     *sqlast.SelectQuery
}

// Prepare parses and resolves text and converts it to a SQL tree with the
// options' comment and limit applied.
func (e *Engine) Prepare(text string, opts *query.Options) (*Prepared, error) {
	if opts != nil {
		if err := opts.Validate(); err != nil {
			return nil, err
		}
	}
	parsed, err := hql.Parse(text)
	if err != nil {
		return nil, err
	}
	stmt, err := semantic.Analyze(parsed, e.md, semantic.Options{Resolver: e.resolver, Logger: e.logger})
	if err != nil {
		return nil, fmt.Errorf("analyze query: %w", err)
	}
	q, err := convert.Convert(stmt)
	if err != nil {
		return nil, err
	}
	if opts != nil {
		q.Comment = opts.Comment
		q.Limit = opts.Limit.SQL()
	}
	return &Prepared{Statement: stmt, Query: q}, nil
}

// Column describes one selection of an explained query.
type Column struct {
	Alias string
	Type  string
	Span  int
}

// Explanation is the rendered form of a query.
type Explanation struct {
	SQL        string
	Parameters []string
	Columns    []Column
}

// Explain renders text without executing it.
func (e *Engine) Explain(text string, opts *query.Options) (*Explanation, error) {
	p, err := e.Prepare(text, opts)
	if err != nil {
		return nil, err
	}
	walked, err := sqlwalk.Walk(p.Query, e.style)
	if err != nil {
		return nil, err
	}
	out := &Explanation{SQL: walked.SQL}
	for _, b := range walked.Binders {
		out.Parameters = append(out.Parameters, fmt.Sprint(b))
	}
	for i, r := range walked.Readers {
		typ, err := r.ReturnedType()
		if err != nil {
			return nil, fmt.Errorf("explain selection %s: %w", walked.Aliases[i], err)
		}
		out.Columns = append(out.Columns, Column{
			Alias: walked.Aliases[i],
			Type:  typ.String(),
			Span:  r.ColumnSpan(),
		})
	}
	return out, nil
}

// List executes text and returns one element per row. A row with a single
// selection is returned as its value, otherwise as a []any, unless the
// options carry a tuple transformer. The options' result list
// transformer, if any, is applied last.
func (e *Engine) List(ctx context.Context, text string, bindings query.ParameterBindings, opts *query.Options) ([]any, error) {
	p, err := e.Prepare(text, opts)
	if err != nil {
		return nil, err
	}

	var tupleTransformer query.TupleTransformer
	if opts != nil {
		tupleTransformer = opts.TupleTransformer
	}
	single := len(p.Query.Selections) == 1
	factory := func(aliases []string) results.RowTransformer[any] {
		return results.RowTransformerFunc[any](func(row []any) (any, error) {
			switch {
			case tupleTransformer != nil:
				return tupleTransformer(row, aliases)
			case single:
				return row[0], nil
			default:
				return row, nil
			}
		})
	}

	list, err := run(ctx, e, p.Query, bindings, opts, factory)
	if err != nil {
		return nil, err
	}
	if opts != nil && opts.ResultListTransformer != nil {
		return opts.ResultListTransformer(list)
	}
	return list, nil
}

// Tuples executes text and returns every row as its value slice.
func (e *Engine) Tuples(ctx context.Context, text string, bindings query.ParameterBindings, opts *query.Options) ([][]any, error) {
	p, err := e.Prepare(text, opts)
	if err != nil {
		return nil, err
	}
	return run(ctx, e, p.Query, bindings, opts, exec.Transform(results.TupleRows()))
}

// Maps executes text and returns every row keyed by selection alias.
func (e *Engine) Maps(ctx context.Context, text string, bindings query.ParameterBindings, opts *query.Options) ([]map[string]any, error) {
	p, err := e.Prepare(text, opts)
	if err != nil {
		return nil, err
	}
	return run[map[string]any](ctx, e, p.Query, bindings, opts, results.MapRows)
}

// ExecuteUpdate accepts insert, update and delete statements. Mutations
// are not implemented; every call fails with a not-yet-implemented error.
func (e *Engine) ExecuteUpdate(ctx context.Context, text string, bindings query.ParameterBindings) (int64, error) {
	ec := &exec.ExecutionContext{Bindings: bindings, Style: e.style, Logger: e.logger}
	fields := strings.Fields(strings.ToLower(text))
	if len(fields) == 0 {
		return 0, qerr.Unsupported("empty statement")
	}
	switch fields[0] {
	case "insert":
		return exec.ExecuteInsert(ctx, ec, &sqlast.MutationQuery{Kind: sqlast.Insert})
	case "update":
		return exec.ExecuteUpdate(ctx, ec, &sqlast.MutationQuery{Kind: sqlast.Update})
	case "delete":
		return exec.ExecuteDelete(ctx, ec, &sqlast.MutationQuery{Kind: sqlast.Delete})
	default:
		return 0, qerr.Unsupported("%q is not a mutation statement", fields[0])
	}
}

// Call invokes a stored procedure. Not implemented.
func (e *Engine) Call(ctx context.Context, procedure string, args ...any) ([]any, error) {
	return exec.ExecuteCall(ctx, &exec.ExecutionContext{Logger: e.logger}, &sqlast.CallQuery{Procedure: procedure})
}

// run executes q on a new session. Go methods cannot take type
// parameters, so this is a function over the engine.
func run[T any](
	ctx context.Context,
	e *Engine,
	q *sqlast.SelectQuery,
	bindings query.ParameterBindings,
	opts *query.Options,
	transformer exec.TransformerFactory[T],
) ([]T, error) {
	if e.store == nil {
		return nil, fmt.Errorf("engine has no store")
	}
	sess := e.store.Session()
	defer sess.Close()

	id := e.ids.Generate()
	seq := e.seq.Add(1)
	ec := &exec.ExecutionContext{
		Connection:  sess,
		Options:     opts,
		Bindings:    bindings,
		Style:       e.style,
		Logger:      e.logger.With("seq", seq),
		ExecutionID: id,
	}
	rows, err := exec.ExecuteSelect(ctx, ec, q, exec.ListExecutor[T]{}, transformer)
	if err != nil {
		return nil, fmt.Errorf("execution %s: %w", id, err)
	}
	return rows, nil
}
