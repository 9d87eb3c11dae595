package harness

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/hqlcore/internal/engine"
	"github.com/roach88/hqlcore/internal/ir"
	"github.com/roach88/hqlcore/internal/qerr"
	"github.com/roach88/hqlcore/internal/query"
	"github.com/roach88/hqlcore/internal/schema"
	"github.com/roach88/hqlcore/internal/store"
	"github.com/roach88/hqlcore/internal/testutil"
)

// Option configures a scenario run.
type Option func(*runConfig)

type runConfig struct {
	logger *slog.Logger
}

// WithLogger routes the engine's logs, including the statement log, to
// logger. Default: discarded.
func WithLogger(logger *slog.Logger) Option {
	return func(c *runConfig) {
		c.logger = logger
	}
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation, with a
// fixed execution ID so logs are reproducible.
//
// Execution flow:
// 1. Compile the mapping
// 2. Create a fresh in-memory database and run the setup scripts
// 3. Execute each query, recording SQL, rows or the error code
// 4. Check each query's expectations
//
// The returned error reports setup failures. Query failures are part of
// the result.
func Run(ctx context.Context, scenario *Scenario, opts ...Option) (*Result, error) {
	cfg := &runConfig{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(cfg)
	}

	md, err := schema.Load(scenario.Mapping)
	if err != nil {
		return nil, fmt.Errorf("failed to load mapping: %w", err)
	}

	st, err := store.OpenSQLite(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	for _, script := range scenario.Setup {
		if err := st.LoadScript(ctx, script); err != nil {
			return nil, fmt.Errorf("setup: %w", err)
		}
	}

	eng := engine.New(md, st,
		engine.WithLogger(cfg.logger),
		engine.WithIDGenerator(testutil.NewFixedIDGenerator(scenario.ExecutionID)),
	)

	result := NewResult()
	for _, step := range scenario.Queries {
		qr := runQuery(ctx, eng, step)
		result.Queries = append(result.Queries, qr)
		for _, problem := range check(step, qr) {
			result.AddError(fmt.Sprintf("%s: %s", step.Name, problem))
		}
	}
	return result, nil
}

func runQuery(ctx context.Context, eng *engine.Engine, step QueryStep) QueryResult {
	qr := QueryResult{Name: step.Name}
	fail := func(err error) QueryResult {
		qr.Error = qerr.CodeOf(err)
		if qr.Error == "" {
			qr.Error = "ERROR"
		}
		qr.Message = err.Error()
		return qr
	}

	explained, err := eng.Explain(step.Query, step.Options)
	if err != nil {
		return fail(err)
	}
	qr.SQL = explained.SQL

	rows, err := eng.Tuples(ctx, step.Query, query.ParameterBindings(step.Params), step.Options)
	if err != nil {
		return fail(err)
	}
	qr.Rows = rows
	return qr
}

// check returns the expectations of step that qr violates.
func check(step QueryStep, qr QueryResult) []string {
	e := step.Expect
	if e == nil {
		if qr.Error != "" {
			return []string{fmt.Sprintf("unexpected error: %s", qr.Message)}
		}
		return nil
	}

	if e.Error != "" {
		if qr.Error != e.Error {
			return []string{fmt.Sprintf("expected error %s, got %q", e.Error, qr.Error)}
		}
		return nil
	}
	if qr.Error != "" {
		return []string{fmt.Sprintf("unexpected error: %s", qr.Message)}
	}

	var problems []string
	if e.SQL != "" && e.SQL != qr.SQL {
		problems = append(problems, fmt.Sprintf("sql mismatch:\n  expected: %s\n  actual:   %s", e.SQL, qr.SQL))
	}
	if e.Count != nil && *e.Count != len(qr.Rows) {
		problems = append(problems, fmt.Sprintf("expected %d rows, got %d", *e.Count, len(qr.Rows)))
	}
	if e.Rows != nil {
		if err := compareRows(e.Rows, qr.Rows); err != nil {
			problems = append(problems, err.Error())
		}
	}
	return problems
}

// compareRows compares rows in canonical form.
func compareRows(expected, actual [][]any) error {
	want, err := ir.MarshalCanonical(toAny(expected))
	if err != nil {
		return fmt.Errorf("expected rows: %w", err)
	}
	got, err := ir.MarshalCanonical(toAny(actual))
	if err != nil {
		return fmt.Errorf("actual rows: %w", err)
	}
	if !bytes.Equal(want, got) {
		return fmt.Errorf("rows mismatch:\n  expected: %s\n  actual:   %s", want, got)
	}
	return nil
}

func toAny(rows [][]any) []any {
	out := make([]any, len(rows))
	for i, row := range rows {
		out[i] = row
	}
	return out
}
