package exec

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/hqlcore/internal/ir"
	"github.com/roach88/hqlcore/internal/qerr"
	"github.com/roach88/hqlcore/internal/query"
	"github.com/roach88/hqlcore/internal/results"
	"github.com/roach88/hqlcore/internal/sqlast"
	"github.com/roach88/hqlcore/internal/sqlwalk"
)

// PreparedStatementExecutor executes a bound statement and reads every
// row through reader.
type PreparedStatementExecutor[T any] interface {
	Execute(ctx context.Context, stmt Statement, reader *results.RowReader[T]) ([]T, error)
}

// ListExecutor materializes all rows into a slice. The statement's fetch
// size is used as the initial capacity.
type ListExecutor[T any] struct{}

// Execute implements PreparedStatementExecutor.
func (ListExecutor[T]) Execute(ctx context.Context, stmt Statement, reader *results.RowReader[T]) ([]T, error) {
	rs, err := stmt.Query(ctx)
	if err != nil {
		return nil, err
	}
	defer rs.Close()

	out := make([]T, 0, max(stmt.FetchSize(), 0))
	for rs.Next() {
		row, err := reader.ReadRow(rs)
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(out)+1, err)
		}
		out = append(out, row)
	}
	if err := rs.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}

// TransformerFactory builds the row transformer once the selection
// aliases are known.
type TransformerFactory[T any] func(aliases []string) results.RowTransformer[T]

// Transform returns a factory that ignores aliases.
func Transform[T any](t results.RowTransformer[T]) TransformerFactory[T] {
	return func([]string) results.RowTransformer[T] { return t }
}

// ExecutionContext carries everything one execution needs besides the
// query itself.
type ExecutionContext struct {
	Connection LogicalConnection

	// Creator defaults to PreparedStatementCreator.
	Creator StatementCreator

	// Options may be nil.
	Options  *query.Options
	Bindings query.ParameterBindings
	Style    sqlwalk.PlaceholderStyle

	// Logger defaults to a discard logger.
	Logger      *slog.Logger
	ExecutionID string
}

func (ec *ExecutionContext) logger() *slog.Logger {
	if ec.Logger != nil {
		return ec.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (ec *ExecutionContext) creator() StatementCreator {
	if ec.Creator != nil {
		return ec.Creator
	}
	return PreparedStatementCreator{}
}

// ExecuteSelect renders q, executes it on the context's connection and
// returns one element per row.
//
// The connection's AfterStatement runs exactly once on every path past
// argument validation. Failures that are not already categorized are
// reported as execution failures carrying the SQL text. Nothing is
// retried.
func ExecuteSelect[T any](
	ctx context.Context,
	ec *ExecutionContext,
	q *sqlast.SelectQuery,
	executor PreparedStatementExecutor[T],
	transformer TransformerFactory[T],
) (rows []T, err error) {
	if ec == nil || ec.Connection == nil {
		return nil, qerr.Internal("execute select without a connection")
	}
	defer func() {
		if aerr := ec.Connection.AfterStatement(); aerr != nil && err == nil {
			err = fmt.Errorf("after statement: %w", aerr)
		}
	}()

	walked, err := sqlwalk.Walk(q, ec.Style)
	if err != nil {
		return nil, fmt.Errorf("render select: %w", err)
	}
	sqlText := walked.SQL

	conn, err := ec.Connection.PhysicalConnection(ctx)
	if err != nil {
		return nil, qerr.ExecutionFailed(sqlText, fmt.Errorf("acquire connection: %w", err))
	}
	stmt, err := ec.creator().Create(ctx, conn, sqlText)
	if err != nil {
		return nil, failed(sqlText, err)
	}
	registry := ec.Connection.ResourceRegistry()
	registry.Register(stmt)
	defer func() {
		if rerr := registry.Release(stmt); rerr != nil && err == nil {
			err = qerr.ExecutionFailed(sqlText, rerr)
		}
	}()

	if opts := ec.Options; opts != nil {
		if opts.FetchSize != nil {
			stmt.SetFetchSize(*opts.FetchSize)
		}
		if d := opts.StatementTimeout(); d > 0 {
			stmt.SetQueryTimeout(d)
		}
	}

	rec := &recordingSetter{target: stmt}
	if _, err := sqlwalk.BindAll(rec, walked.Binders, ec.Bindings); err != nil {
		return nil, failed(sqlText, err)
	}
	logStatement(ctx, ec, sqlText, rec.values.Values())

	reader := results.NewRowReader(walked.Readers, transformer(walked.Aliases))
	rows, err = executor.Execute(ctx, stmt, reader)
	if err != nil {
		return nil, failed(sqlText, err)
	}
	return rows, nil
}

// failed keeps categorized errors and wraps the rest.
func failed(sqlText string, err error) error {
	if qerr.CodeOf(err) != "" {
		return err
	}
	return qerr.ExecutionFailed(sqlText, err)
}

func logStatement(ctx context.Context, ec *ExecutionContext, sqlText string, params []any) {
	log := ec.logger()
	if !log.Enabled(ctx, slog.LevelDebug) {
		return
	}
	attrs := []any{
		"execution_id", ec.ExecutionID,
		"sql", sqlText,
		"params", len(params),
	}
	if fp, err := ir.StatementFingerprint(sqlText, params); err == nil {
		attrs = append(attrs, "fingerprint", fp)
	}
	log.DebugContext(ctx, "executing statement", attrs...)
}

// recordingSetter forwards to the statement and keeps a copy of the bound
// values for the statement log.
type recordingSetter struct {
	target sqlwalk.ParameterSetter
	values sqlwalk.Positional
}

func (r *recordingSetter) SetParameter(position int, value any) error {
	if err := r.target.SetParameter(position, value); err != nil {
		return err
	}
	return r.values.SetParameter(position, value)
}

// ExecuteInsert is not implemented.
func ExecuteInsert(ctx context.Context, ec *ExecutionContext, q *sqlast.MutationQuery) (int64, error) {
	return 0, qerr.NotYetImplemented("insert execution")
}

// ExecuteUpdate is not implemented.
func ExecuteUpdate(ctx context.Context, ec *ExecutionContext, q *sqlast.MutationQuery) (int64, error) {
	return 0, qerr.NotYetImplemented("update execution")
}

// ExecuteDelete is not implemented.
func ExecuteDelete(ctx context.Context, ec *ExecutionContext, q *sqlast.MutationQuery) (int64, error) {
	return 0, qerr.NotYetImplemented("delete execution")
}

// ExecuteCall is not implemented.
func ExecuteCall(ctx context.Context, ec *ExecutionContext, q *sqlast.CallQuery) ([]any, error) {
	return nil, qerr.NotYetImplemented("procedure call execution")
}
