package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/hqlcore/internal/schema"
)

func TestOutputFormatter_JSONErrorCarriesProblems(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	problems := schema.ValidationErrors{
		{Code: schema.ErrUnreadableType, Field: "Person.notes", Message: "column person.notes has type clob, which cannot be read"},
	}
	require.NoError(t, formatter.Error(problems[0].Code, problems[0].Message, problems))

	var resp struct {
		Status string `json:"status"`
		Error  struct {
			Code    string                    `json:"code"`
			Details []schema.ValidationError `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "E211", resp.Error.Code)
	require.Len(t, resp.Error.Details, 1)
	assert.Equal(t, "Person.notes", resp.Error.Details[0].Field)
}

func TestOutputFormatter_TextErrorDetailsOnlyWhenVerbose(t *testing.T) {
	for _, verbose := range []bool{false, true} {
		buf := &bytes.Buffer{}
		formatter := &OutputFormatter{Format: "text", Writer: buf, Verbose: verbose}

		require.NoError(t, formatter.Error("UNRESOLVED_IDENTIFIER", "x.name", []string{"alias x"}))
		assert.Contains(t, buf.String(), "Error [UNRESOLVED_IDENTIFIER]: x.name")
		assert.Equal(t, verbose, strings.Contains(buf.String(), "Details: [alias x]"))
	}
}

func TestOutputFormatter_VerboseLogUsesDiagnosticWriter(t *testing.T) {
	out, diag := &bytes.Buffer{}, &bytes.Buffer{}

	(&OutputFormatter{Writer: out, ErrWriter: diag}).VerboseLog("SQL: %s", "select 1")
	assert.Empty(t, diag.String())

	(&OutputFormatter{Writer: out, ErrWriter: diag, Verbose: true}).VerboseLog("SQL: %s", "select 1")
	assert.Equal(t, "SQL: select 1\n", diag.String())
	assert.Empty(t, out.String())

	// without a diagnostic writer lines fall back to the main one
	(&OutputFormatter{Writer: out, Verbose: true}).VerboseLog("loaded %d entities", 4)
	assert.Equal(t, "loaded 4 entities\n", out.String())
}

func TestOutputFormatter_PassedFailed(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	formatter.Passed("%s", "people")
	formatter.Failed("%s", "orders")
	assert.Equal(t, "✓ people\n✗ orders\n", buf.String())
}

func TestOutputFormatter_Table(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	require.NoError(t, formatter.Table(
		[]string{"c.name", "c.rating"},
		[][]string{{"Acme", "4.5"}, {"Globex", "3.25"}},
	))

	out := buf.String()
	assert.NotContains(t, out, "\x1b[")
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "c.name")
	assert.Contains(t, lines[0], "c.rating")
	assert.Contains(t, lines[1], "Acme")
	assert.Contains(t, lines[1], "4.5")
	assert.Contains(t, lines[2], "Globex")

	// the second column starts at the same offset on every line
	at := strings.Index(lines[0], "c.rating")
	assert.Equal(t, at, strings.Index(lines[1], "4.5"))
	assert.Equal(t, at, strings.Index(lines[2], "3.25"))
}

func TestOutputFormatter_Logger(t *testing.T) {
	out, diag := &bytes.Buffer{}, &bytes.Buffer{}

	quiet := &OutputFormatter{Format: "json", Writer: out, ErrWriter: diag}
	quiet.Logger().Debug("hidden")
	assert.Empty(t, diag.String())

	verbose := &OutputFormatter{Format: "json", Writer: out, ErrWriter: diag, Verbose: true}
	verbose.Logger().Debug("executing statement", "sql", "select 1")
	assert.Contains(t, diag.String(), "executing statement")
	assert.Contains(t, diag.String(), "level=DEBUG")
	assert.Empty(t, out.String())
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "bad path")))
	assert.Equal(t, ExitFailure, GetExitCode(assert.AnError))

	wrapped := WrapExitError(ExitFailure, "query failed", assert.AnError)
	assert.ErrorIs(t, wrapped, assert.AnError)
	assert.Equal(t, "query failed: "+assert.AnError.Error(), wrapped.Error())
}
