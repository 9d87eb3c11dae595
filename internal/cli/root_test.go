package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/hqlcore/internal/store"
)

// mappingPath is the mapping shared with the harness scenarios.
var mappingPath = filepath.Join("..", "harness", "testdata", "mapping.cue")

// fixtureDB creates a sqlite database holding the harness fixture.
func fixtureDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixture.db")
	st, err := store.OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, st.LoadScript(t.Context(), filepath.Join("..", "harness", "testdata", "fixture.sql")))
	require.NoError(t, st.Close())
	return path
}

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(append([]string{"--env-file", "", "--color=false"}, args...))
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "hqlc", cmd.Use)
	assert.Contains(t, cmd.Long, "CUE mapping")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"query", "explain", "validate", "test"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	envFlag := cmd.PersistentFlags().Lookup("env-file")
	require.NotNil(t, envFlag)
	assert.Equal(t, ".env", envFlag.DefValue)

	for _, name := range []string{"driver", "dsn", "color"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), name)
	}
}

func TestQueryCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	queryCmd, _, err := cmd.Find([]string{"query"})
	require.NoError(t, err)

	paramFlag := queryCmd.Flags().Lookup("param")
	require.NotNil(t, paramFlag)
	assert.Equal(t, "p", paramFlag.Shorthand)
	assert.NotNil(t, queryCmd.Flags().Lookup("options"))
}

func TestInvalidFormat(t *testing.T) {
	_, _, err := execute(t, "--format", "xml", "explain", mappingPath, "select c from Company c")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid format "xml"`)
}

func TestEnvFile(t *testing.T) {
	db := fixtureDB(t)
	envFile := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte("HQLC_DRIVER=sqlite3\nHQLC_DSN="+db+"\n"), 0o644))
	t.Cleanup(func() {
		os.Unsetenv("HQLC_DRIVER")
		os.Unsetenv("HQLC_DSN")
	})

	out := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetArgs([]string{"--env-file", envFile, "--color=false", "query", mappingPath, "select c.name from Company c"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "Globex")
}

func TestStoreConfig_FlagsOverrideEnvironment(t *testing.T) {
	t.Setenv("HQLC_DRIVER", "postgres")
	t.Setenv("HQLC_DSN", "postgres://env")

	opts := &RootOptions{}
	assert.Equal(t, store.Config{Driver: "postgres", DSN: "postgres://env"}, opts.storeConfig())

	opts = &RootOptions{Driver: "sqlite3", DSN: "app.db"}
	assert.Equal(t, store.Config{Driver: "sqlite3", DSN: "app.db"}, opts.storeConfig())
}
