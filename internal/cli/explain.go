package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/hqlcore/internal/engine"
)

// ExplainOptions holds flags for the explain command.
type ExplainOptions struct {
	*RootOptions
	OptionsFile string
}

// NewExplainCommand creates the explain command.
func NewExplainCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExplainOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "explain <mapping> <query>",
		Short: "Show the SQL a query renders to",
		Long: `Resolve a query against the mapping and print the rendered SQL, the
parameter order and the result columns. No database is needed; --driver
selects the placeholder style.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExplain(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.OptionsFile, "options", "", "query options YAML file")

	return cmd
}

func runExplain(opts *ExplainOptions, mappingPath, text string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	md, err := loadMappingOrFail(formatter, mappingPath)
	if err != nil {
		return err
	}
	qopts, err := loadOptions(opts.OptionsFile)
	if err != nil {
		_ = formatter.Error(ErrCodeInvalidParam, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid options", err)
	}

	eng := engine.New(md, nil,
		engine.WithLogger(formatter.Logger()),
		engine.WithPlaceholderStyle(opts.storeConfig().PlaceholderStyle()),
	)
	explained, err := eng.Explain(text, qopts)
	if err != nil {
		return queryFailed(formatter, err)
	}

	if formatter.Format == "json" {
		return formatter.Success(explained)
	}

	w := formatter.Writer
	fmt.Fprintln(w, explained.SQL)
	if len(explained.Parameters) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, formatter.paint(headerColor, "Parameters:"))
		for i, p := range explained.Parameters {
			fmt.Fprintf(w, "  %d. %s\n", i+1, p)
		}
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, formatter.paint(headerColor, "Columns:"))
	for _, c := range explained.Columns {
		fmt.Fprintf(w, "  %s %s (%d)\n", c.Alias, c.Type, c.Span)
	}
	return nil
}
