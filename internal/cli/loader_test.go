package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/hqlcore/internal/qerr"
	"github.com/roach88/hqlcore/internal/query"
)

func TestParseParams(t *testing.T) {
	bindings, err := ParseParams([]string{
		"name=Ada",
		":id=3",
		"addr=[Main St, Springfield]",
		"empty=",
		"expr=a=b",
	})
	require.NoError(t, err)
	assert.Equal(t, query.ParameterBindings{
		"name":  "Ada",
		"id":    3,
		"addr":  []any{"Main St", "Springfield"},
		"empty": "",
		"expr":  "a=b",
	}, bindings)
}

func TestParseParams_Errors(t *testing.T) {
	for _, p := range []string{"noequals", "=1", "m={a: 1}", "bad=[unclosed"} {
		t.Run(p, func(t *testing.T) {
			_, err := ParseParams([]string{p})
			require.Error(t, err)
		})
	}
}

func TestLoadMapping(t *testing.T) {
	md, problems, err := LoadMapping(mappingPath)
	require.NoError(t, err)
	assert.Empty(t, problems)
	_, err = md.Entity("Person")
	assert.NoError(t, err)
}

func TestLoadMapping_Directory(t *testing.T) {
	dir := t.TempDir()
	data, err := os.ReadFile(mappingPath)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "mapping.cue"), data, 0o644))

	files, err := FindCUEFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"mapping.cue"}, files)

	md, problems, err := LoadMapping(dir)
	require.NoError(t, err)
	assert.Empty(t, problems)
	assert.NotEmpty(t, md.Entities())
}

func TestLoadMapping_Errors(t *testing.T) {
	_, _, err := LoadMapping(filepath.Join(t.TempDir(), "absent.cue"))
	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, ErrCodeNotFound, loadErr.Code)

	_, _, err = LoadMapping(t.TempDir())
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, ErrCodeNoFiles, loadErr.Code)

	broken := filepath.Join(t.TempDir(), "broken.cue")
	require.NoError(t, os.WriteFile(broken, []byte("entity: {\n"), 0o644))
	md, problems, err := LoadMapping(broken)
	require.NoError(t, err)
	assert.Nil(t, md)
	require.Len(t, problems, 1)
	assert.Equal(t, ErrCodeCompile, problems[0].Code)
}

func TestQueryErrorCode(t *testing.T) {
	assert.Equal(t, "UNRESOLVED_IDENTIFIER", queryErrorCode(qerr.Unresolved("p.nmae")))
	assert.Equal(t, ErrCodeGeneric, queryErrorCode(assert.AnError))
}
