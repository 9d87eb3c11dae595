package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes keep fingerprints of different kinds from colliding.
const (
	DomainStatement = "hqlcore/statement/v1"
	DomainRows      = "hqlcore/rows/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// StatementFingerprint identifies an executed statement by its SQL text
// and bound values. The same statement bound to the same values always
// has the same fingerprint.
func StatementFingerprint(sql string, params []any) (string, error) {
	values, err := FromGo(append([]any{}, params...))
	if err != nil {
		return "", fmt.Errorf("fingerprint parameters: %w", err)
	}
	buf, err := MarshalCanonical(Object{
		"sql":    String(sql),
		"params": values,
	})
	if err != nil {
		return "", fmt.Errorf("fingerprint statement: %w", err)
	}
	return hashWithDomain(DomainStatement, buf), nil
}

// RowsDigest hashes a materialized result in row order.
func RowsDigest[T any](rows []T) (string, error) {
	arr := make(Array, len(rows))
	for i, row := range rows {
		v, err := FromGo(any(row))
		if err != nil {
			return "", fmt.Errorf("digest row %d: %w", i, err)
		}
		arr[i] = v
	}
	buf, err := MarshalCanonical(arr)
	if err != nil {
		return "", fmt.Errorf("digest rows: %w", err)
	}
	return hashWithDomain(DomainRows, buf), nil
}

// MustStatementFingerprint is like StatementFingerprint but panics on error.
func MustStatementFingerprint(sql string, params []any) string {
	fp, err := StatementFingerprint(sql, params)
	if err != nil {
		panic(err)
	}
	return fp
}
