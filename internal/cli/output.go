package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/fatih/color"
	"github.com/pterm/pterm"
)

// Process exit codes.
const (
	ExitSuccess      = 0
	ExitFailure      = 1 // a query, mapping or scenario failed
	ExitCommandError = 2 // bad arguments, unreadable files, unreachable database
)

// ExitError carries the exit code a command should end the process with.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error { return e.Err }

// NewExitError creates an ExitError with no cause.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError attaches an exit code to err.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode returns the code of the first ExitError in err's chain, or
// ExitFailure.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

var (
	errorColor   = color.New(color.FgRed, color.Bold)
	successColor = color.New(color.FgGreen)
	headerColor  = color.New(color.Bold)
)

// OutputFormatter writes command results as JSON envelopes or as text.
// Diagnostics (verbose lines, engine logs) go to ErrWriter so that JSON on
// Writer stays parseable.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer
	Verbose   bool
	Color     bool
}

func newFormatter(opts *RootOptions, out, errOut io.Writer) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    out,
		ErrWriter: errOut,
		Verbose:   opts.Verbose,
		Color:     opts.Color && !color.NoColor,
	}
}

// CLIResponse is the JSON envelope of every command.
type CLIResponse struct {
	Status string    `json:"status"` // "ok" or "error"
	Data   any       `json:"data,omitempty"`
	Error  *CLIError `json:"error,omitempty"`
}

// CLIError is a failure in a CLIResponse. Code is a query error code such
// as UNRESOLVED_IDENTIFIER, a mapping code (E2xx) or a CLI code.
type CLIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Success writes data as an "ok" envelope, or prints it in text mode.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{Status: "ok", Data: data})
	}
	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error writes an "error" envelope. Text mode prints details only when
// verbose.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error:  &CLIError{Code: code, Message: message, Details: details},
		})
	}

	fmt.Fprintf(f.Writer, "%s [%s]: %s\n", f.paint(errorColor, "Error"), code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// Passed prints a check-marked line.
func (f *OutputFormatter) Passed(format string, args ...any) {
	fmt.Fprintf(f.Writer, "%s %s\n", f.paint(successColor, "✓"), fmt.Sprintf(format, args...))
}

// Failed prints a cross-marked line.
func (f *OutputFormatter) Failed(format string, args ...any) {
	fmt.Fprintf(f.Writer, "%s %s\n", f.paint(errorColor, "✗"), fmt.Sprintf(format, args...))
}

// Table prints rows under a header line. Only the header is colored; the
// table itself carries no styling of its own.
func (f *OutputFormatter) Table(header []string, rows [][]string) error {
	painted := make([]string, len(header))
	for i, h := range header {
		painted[i] = f.paint(headerColor, h)
	}
	data := append(pterm.TableData{painted}, rows...)

	plain := pterm.NewStyle()
	return pterm.DefaultTable.
		WithHasHeader().
		WithStyle(plain).
		WithHeaderStyle(plain).
		WithSeparatorStyle(plain).
		WithWriter(f.Writer).
		WithData(data).
		Render()
}

func (f *OutputFormatter) paint(c *color.Color, s string) string {
	if !f.Color {
		return s
	}
	return c.Sprint(s)
}

// VerboseLog prints a diagnostic line when verbose.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// GetErrWriter returns ErrWriter, or Writer when no diagnostic writer is
// set.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}

// Logger returns the structured logger handed to the engine: debug level
// on the diagnostic writer when verbose, discarded otherwise.
func (f *OutputFormatter) Logger() *slog.Logger {
	if !f.Verbose {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return slog.New(slog.NewTextHandler(f.GetErrWriter(), &slog.HandlerOptions{Level: slog.LevelDebug}))
}
