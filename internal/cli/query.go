package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/hqlcore/internal/engine"
	"github.com/roach88/hqlcore/internal/ir"
	"github.com/roach88/hqlcore/internal/schema"
	"github.com/roach88/hqlcore/internal/store"
)

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	*RootOptions
	Params      []string // name=value bindings
	OptionsFile string   // YAML query options
}

// QueryOutput is the JSON payload of a query. Each row is canonical JSON.
type QueryOutput struct {
	SQL     string            `json:"sql"`
	Columns []string          `json:"columns"`
	Rows    []json.RawMessage `json:"rows"`
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query <mapping> <query>",
		Short: "Run a query against the database",
		Long: `Resolve a query against the mapping, render it and run it.

The database comes from --driver/--dsn or HQLC_DRIVER/HQLC_DSN.

Examples:
  hqlc query ./mapping "select p.name from Person p" --dsn app.db
  hqlc query ./mapping "select p from Person p where p.name = :name" -p name=Ada
  hqlc query ./mapping "select c.name from Company c" --options page.yaml --format json`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd.Context(), opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringArrayVarP(&opts.Params, "param", "p", nil, "parameter binding name=value (repeatable)")
	cmd.Flags().StringVar(&opts.OptionsFile, "options", "", "query options YAML file")

	return cmd
}

func runQuery(ctx context.Context, opts *QueryOptions, mappingPath, text string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	md, err := loadMappingOrFail(formatter, mappingPath)
	if err != nil {
		return err
	}
	bindings, err := ParseParams(opts.Params)
	if err != nil {
		_ = formatter.Error(ErrCodeInvalidParam, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid parameters", err)
	}
	qopts, err := loadOptions(opts.OptionsFile)
	if err != nil {
		_ = formatter.Error(ErrCodeInvalidParam, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid options", err)
	}

	cfg := opts.storeConfig()
	if cfg.DSN == "" {
		_ = formatter.Error(ErrCodeStore, "no database: set --dsn or HQLC_DSN", nil)
		return NewExitError(ExitCommandError, "no database configured")
	}
	st, err := store.Open(ctx, cfg)
	if err != nil {
		_ = formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	eng := engine.New(md, st, engine.WithLogger(formatter.Logger()))

	explained, err := eng.Explain(text, qopts)
	if err != nil {
		return queryFailed(formatter, err)
	}
	formatter.VerboseLog("SQL: %s", explained.SQL)

	rows, err := eng.Tuples(ctx, text, bindings, qopts)
	if err != nil {
		return queryFailed(formatter, err)
	}

	columns := make([]string, len(explained.Columns))
	for i, c := range explained.Columns {
		columns[i] = c.Alias
	}

	if formatter.Format == "json" {
		out := QueryOutput{SQL: explained.SQL, Columns: columns, Rows: make([]json.RawMessage, len(rows))}
		for i, row := range rows {
			data, err := ir.MarshalCanonical(row)
			if err != nil {
				return queryFailed(formatter, fmt.Errorf("encode row %d: %w", i, err))
			}
			out.Rows[i] = data
		}
		return formatter.Success(out)
	}

	cells := make([][]string, len(rows))
	for i, row := range rows {
		cells[i] = make([]string, len(row))
		for j, v := range row {
			cells[i][j] = formatValue(v)
		}
	}
	if err := formatter.Table(columns, cells); err != nil {
		return err
	}
	fmt.Fprintf(formatter.Writer, "(%d rows)\n", len(rows))
	return nil
}

func formatValue(v any) string {
	if v == nil {
		return "NULL"
	}
	return fmt.Sprint(v)
}

// queryFailed reports a failed query with its error code. Query failures
// exit with ExitFailure.
func queryFailed(formatter *OutputFormatter, err error) error {
	code := queryErrorCode(err)
	_ = formatter.Error(code, err.Error(), nil)
	return WrapExitError(ExitFailure, code, err)
}

// loadMappingOrFail loads the mapping and reports any failure.
func loadMappingOrFail(formatter *OutputFormatter, path string) (*schema.Metadata, error) {
	md, problems, err := LoadMapping(path)
	if err != nil {
		var loadErr *LoadError
		if errors.As(err, &loadErr) {
			_ = formatter.Error(loadErr.Code, loadErr.Message, nil)
			return nil, NewExitError(ExitCommandError, loadErr.Error())
		}
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return nil, WrapExitError(ExitCommandError, "failed to load mapping", err)
	}
	if len(problems) > 0 {
		_ = formatter.Error(problems[0].Code, problems[0].Message, problems)
		return nil, NewExitError(ExitCommandError, fmt.Sprintf("mapping has %d problem(s)", len(problems)))
	}
	formatter.VerboseLog("Loaded %d entities from %s", len(md.Entities()), path)
	return md, nil
}
