package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/hqlcore/internal/store"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool      `json:"valid"`
	Entities int       `json:"entities"`
	Errors   []Problem `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <mapping>",
		Short: "Validate a mapping, and its tables when a database is given",
		Long: `Compile and validate a CUE mapping file or directory.

When a database is configured (--dsn or HQLC_DSN), every mapped table and
column is also checked against it.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd.Context(), rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(ctx context.Context, opts *RootOptions, mappingPath string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	md, problems, err := LoadMapping(mappingPath)
	if err != nil {
		code := ErrCodeGeneric
		var loadErr *LoadError
		if errors.As(err, &loadErr) {
			code = loadErr.Code
		}
		_ = formatter.Error(code, err.Error(), nil)
		// Load errors are command-level errors (exit code 2)
		return NewExitError(ExitCommandError, err.Error())
	}
	if len(problems) > 0 {
		return outputValidationErrors(formatter, problems)
	}
	formatter.VerboseLog("Compiled %d entities from %s", len(md.Entities()), mappingPath)

	if cfg := opts.storeConfig(); cfg.DSN != "" {
		st, err := store.Open(ctx, cfg)
		if err != nil {
			_ = formatter.Error(ErrCodeStore, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer st.Close()

		formatter.VerboseLog("Checking tables against %s database", st.Config().Driver)
		missing, err := st.VerifyMapping(ctx, md)
		if err != nil {
			_ = formatter.Error(ErrCodeStore, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to inspect database", err)
		}
		for _, m := range missing {
			problems = append(problems, Problem{Code: ErrCodeColumn, Field: m.Table, Message: m.String()})
		}
		if len(problems) > 0 {
			return outputValidationErrors(formatter, problems)
		}
	}

	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true, Entities: len(md.Entities())})
	}
	formatter.Passed("Mapping valid (%d entities)", len(md.Entities()))
	return nil
}

// outputValidationErrors outputs multiple validation errors.
func outputValidationErrors(formatter *OutputFormatter, errs []Problem) error {
	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data:   ValidationResult{Valid: false, Errors: errs},
			Error: &CLIError{
				Code:    errs[0].Code,
				Message: errs[0].Message,
			},
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}

		// Validation failures = exit code 1
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	// Text format
	formatter.Failed("Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range errs {
		if err.Line > 0 {
			fmt.Fprintf(formatter.Writer, "line %d\n", err.Line)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", err.Code, err.Message)
	}

	// Validation failures = exit code 1
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}
