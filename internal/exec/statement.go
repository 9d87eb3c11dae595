package exec

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"time"

	"github.com/roach88/hqlcore/internal/results"
	"github.com/roach88/hqlcore/internal/sqlwalk"
)

// Statement is a prepared statement with positional parameters.
type Statement interface {
	sqlwalk.ParameterSetter
	io.Closer

	// SQL returns the statement text.
	SQL() string

	SetFetchSize(n int)
	FetchSize() int

	// SetQueryTimeout bounds the query. Zero means no bound.
	SetQueryTimeout(d time.Duration)
	QueryTimeout() time.Duration

	// Query executes the statement with the bound parameters.
	Query(ctx context.Context) (results.ResultSet, error)
}

// StatementCreator prepares statements.
type StatementCreator interface {
	Create(ctx context.Context, conn PhysicalConnection, sql string) (Statement, error)
}

// PreparedStatementCreator prepares statements through database/sql.
type PreparedStatementCreator struct{}

// Create prepares sqlText on conn.
func (PreparedStatementCreator) Create(ctx context.Context, conn PhysicalConnection, sqlText string) (Statement, error) {
	stmt, err := conn.PrepareContext(ctx, sqlText)
	if err != nil {
		return nil, fmt.Errorf("prepare statement: %w", err)
	}
	return &preparedStatement{sql: sqlText, stmt: stmt}, nil
}

// preparedStatement wraps *sql.Stmt. database/sql has no fetch size; the
// value is only recorded. The timeout becomes a context deadline that
// lives until the statement is closed, so rows stay readable.
type preparedStatement struct {
	sql       string
	stmt      *sql.Stmt
	params    sqlwalk.Positional
	fetchSize int
	timeout   time.Duration
	cancel    context.CancelFunc
}

func (s *preparedStatement) SQL() string { return s.sql }

func (s *preparedStatement) SetParameter(position int, value any) error {
	return s.params.SetParameter(position, value)
}

func (s *preparedStatement) SetFetchSize(n int) { s.fetchSize = n }

func (s *preparedStatement) FetchSize() int { return s.fetchSize }

func (s *preparedStatement) SetQueryTimeout(d time.Duration) { s.timeout = d }

func (s *preparedStatement) QueryTimeout() time.Duration { return s.timeout }

func (s *preparedStatement) Query(ctx context.Context) (results.ResultSet, error) {
	if s.timeout > 0 {
		ctx, s.cancel = context.WithTimeout(ctx, s.timeout)
	}
	rows, err := s.stmt.QueryContext(ctx, s.params.Values()...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	rs, err := results.FromRows(rows)
	if err != nil {
		rows.Close()
		return nil, err
	}
	return rs, nil
}

func (s *preparedStatement) Close() error {
	if s.cancel != nil {
		s.cancel()
	}
	return s.stmt.Close()
}
