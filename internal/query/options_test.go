package query

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOptions(t *testing.T) {
	opts, err := ParseOptions([]byte(`
timeout: 5
fetch_size: 50
flush_mode: commit
cache_mode: ignore
result_caching: true
result_cache_region: people
read_only: true
comment: list people
hints: [INDEX(person_name_idx)]
limit:
  first_row: 10
  max_rows: 20
lock:
  mode: read
  timeout: 250
  aliases:
    p: upgrade_nowait
`))
	require.NoError(t, err)

	require.NotNil(t, opts.Timeout)
	assert.Equal(t, 5*time.Second, opts.StatementTimeout())
	assert.Equal(t, 50, *opts.FetchSize)
	assert.Equal(t, FlushCommit, opts.FlushMode)
	assert.Equal(t, CacheIgnore, opts.CacheMode)
	assert.True(t, *opts.ResultCaching)
	assert.Equal(t, "people", opts.ResultCacheRegion)
	assert.True(t, *opts.ReadOnly)
	assert.Equal(t, "list people", opts.Comment)
	assert.Equal(t, []string{"INDEX(person_name_idx)"}, opts.Hints)
	assert.Equal(t, 10, *opts.Limit.FirstRow)
	assert.Equal(t, 20, *opts.Limit.MaxRows)
	assert.Equal(t, LockUpgradeNoWait, opts.Lock.ModeFor("p"))
	assert.Equal(t, LockRead, opts.Lock.ModeFor("q"))
	assert.Equal(t, 250, *opts.Lock.Timeout)
}

func TestParseOptions_EmptyMeansDefaults(t *testing.T) {
	opts, err := ParseOptions([]byte("{}"))
	require.NoError(t, err)

	assert.Nil(t, opts.Timeout)
	assert.Nil(t, opts.FetchSize)
	assert.Zero(t, opts.StatementTimeout())
	assert.False(t, opts.Limit.IsSet())
	assert.Nil(t, opts.Limit.SQL())
	assert.Equal(t, LockNone, opts.Lock.ModeFor("p"))
}

func TestParseOptions_Errors(t *testing.T) {
	testCases := []struct {
		name string
		yaml string
		want string
	}{
		{"unknown field", "timout: 5", "field timout not found"},
		{"negative timeout", "timeout: -1", "timeout must not be negative"},
		{"negative fetch size", "fetch_size: -1", "fetch size must not be negative"},
		{"negative first row", "limit: {first_row: -1}", "first row must not be negative"},
		{"negative max rows", "limit: {max_rows: -2}", "max rows must not be negative"},
		{"flush mode", "flush_mode: sometimes", `unknown flush mode "sometimes"`},
		{"cache mode", "cache_mode: maybe", `unknown cache mode "maybe"`},
		{"region without caching", "result_cache_region: r", "without result caching"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseOptions([]byte(tc.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestLoadOptions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "options.yaml")
	require.NoError(t, os.WriteFile(path, []byte("comment: from file\n"), 0o644))

	opts, err := LoadOptions(path)
	require.NoError(t, err)
	assert.Equal(t, "from file", opts.Comment)

	_, err = LoadOptions(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read query options")
}

func TestAddDatabaseHintAppends(t *testing.T) {
	var opts Options
	opts.AddDatabaseHint("a").AddDatabaseHint("b").AddDatabaseHint("a")
	assert.Equal(t, []string{"a", "b", "a"}, opts.Hints)
}

func TestLimitSQL(t *testing.T) {
	maxRows := 5
	l := Limit{MaxRows: &maxRows}
	require.True(t, l.IsSet())
	sql := l.SQL()
	require.NotNil(t, sql)
	assert.Nil(t, sql.FirstRow)
	assert.Equal(t, 5, *sql.MaxRows)
}

type pair [2]any

func (p pair) Values() []any { return p[:] }

func TestParameterBindings(t *testing.T) {
	b := ParameterBindings{"name": "Ada", "ids": []any{1, 2}, "addr": pair{"Main St", "Springfield"}}

	v, ok := b.Lookup("name")
	assert.True(t, ok)
	assert.Equal(t, "Ada", v)
	_, ok = b.Lookup("missing")
	assert.False(t, ok)

	assert.Equal(t, []string{"addr", "ids", "name"}, b.Names())

	assert.Equal(t, []any{"Ada"}, Expand(b["name"]))
	assert.Equal(t, []any{1, 2}, Expand(b["ids"]))
	assert.Equal(t, []any{"Main St", "Springfield"}, Expand(b["addr"]))
	assert.Equal(t, []any{nil}, Expand(nil))
}
