package ir

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatementFingerprintDeterminism(t *testing.T) {
	sql := "select t0.name from person t0 where t0.name = ?"

	fp1, err := StatementFingerprint(sql, []any{"Ada"})
	require.NoError(t, err)
	fp2, err := StatementFingerprint(sql, []any{"Ada"})
	require.NoError(t, err)

	assert.Equal(t, fp1, fp2)
	assert.Len(t, fp1, 64, "SHA-256 hex is 64 characters")
}

func TestStatementFingerprintChangesWithInput(t *testing.T) {
	base := MustStatementFingerprint("select 1", []any{int64(1)})

	assert.NotEqual(t, base, MustStatementFingerprint("select 2", []any{int64(1)}))
	assert.NotEqual(t, base, MustStatementFingerprint("select 1", []any{int64(2)}))
	assert.NotEqual(t, base, MustStatementFingerprint("select 1", []any{"1"}))
	assert.NotEqual(t, base, MustStatementFingerprint("select 1", nil))
}

func TestStatementFingerprintUnsupportedParameter(t *testing.T) {
	_, err := StatementFingerprint("select 1", []any{struct{}{}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fingerprint parameters")

	assert.Panics(t, func() { MustStatementFingerprint("select 1", []any{struct{}{}}) })
}

func TestRowsDigest(t *testing.T) {
	rows := [][]any{
		{"Ada", decimal.RequireFromString("10.50")},
		{"Grace", nil},
	}

	d1, err := RowsDigest(rows)
	require.NoError(t, err)
	d2, err := RowsDigest([][]any{
		{"Ada", decimal.RequireFromString("10.5")},
		{"Grace", nil},
	})
	require.NoError(t, err)
	assert.Equal(t, d1, d2, "equal decimals digest equally")

	reordered, err := RowsDigest([][]any{rows[1], rows[0]})
	require.NoError(t, err)
	assert.NotEqual(t, d1, reordered, "row order is significant")
}

func TestDomainSeparation(t *testing.T) {
	data := []byte(`["x"]`)
	assert.NotEqual(t, hashWithDomain(DomainStatement, data), hashWithDomain(DomainRows, data))
}
