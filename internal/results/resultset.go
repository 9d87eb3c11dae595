// Package results materializes typed values from result-set rows.
//
// A ReturnReader reads one logical value per selection, consuming as many
// physical columns as its type spans. Single columns go through a
// conversion table keyed by type code; multi-column values are assembled
// by a CompositeBuilder. A RowReader chains the readers of a row and hands
// the values to a RowTransformer.
package results

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

// ResultSet is the cursor capability readers consume. Column positions
// are 1-based. Each getter reports ok=false for SQL NULL.
type ResultSet interface {
	Next() bool
	Err() error
	Close() error

	Int64(col int) (int64, bool, error)
	Int32(col int) (int32, bool, error)
	Bool(col int) (bool, bool, error)
	Text(col int) (string, bool, error)
	Time(col int) (time.Time, bool, error)
	Decimal(col int) (decimal.Decimal, bool, error)
	Float32(col int) (float32, bool, error)
	Float64(col int) (float64, bool, error)
	Bytes(col int) ([]byte, bool, error)
}

// rowsResultSet adapts *sql.Rows. Each row is scanned once into driver
// values; the getters convert from those.
type rowsResultSet struct {
	rows   *sql.Rows
	values []any
	ptrs   []any
	err    error
}

// FromRows wraps rows as a ResultSet. The caller keeps ownership of rows
// and closes it through the returned ResultSet.
func FromRows(rows *sql.Rows) (ResultSet, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read result columns: %w", err)
	}
	rs := &rowsResultSet{
		rows:   rows,
		values: make([]any, len(cols)),
		ptrs:   make([]any, len(cols)),
	}
	for i := range rs.values {
		rs.ptrs[i] = &rs.values[i]
	}
	return rs, nil
}

func (r *rowsResultSet) Next() bool {
	if r.err != nil || !r.rows.Next() {
		return false
	}
	if err := r.rows.Scan(r.ptrs...); err != nil {
		r.err = fmt.Errorf("scan row: %w", err)
		return false
	}
	return true
}

func (r *rowsResultSet) Err() error {
	if r.err != nil {
		return r.err
	}
	return r.rows.Err()
}

func (r *rowsResultSet) Close() error {
	return r.rows.Close()
}

func (r *rowsResultSet) raw(col int) (any, error) {
	if col < 1 || col > len(r.values) {
		return nil, fmt.Errorf("column %d out of range (%d columns)", col, len(r.values))
	}
	return r.values[col-1], nil
}

// scalar returns the driver value with byte slices read as text.
func (r *rowsResultSet) scalar(col int) (any, error) {
	v, err := r.raw(col)
	if b, ok := v.([]byte); ok {
		return string(b), err
	}
	return v, err
}

func (r *rowsResultSet) Int64(col int) (int64, bool, error) {
	v, err := r.scalar(col)
	if err != nil || v == nil {
		return 0, false, err
	}
	n, err := cast.ToInt64E(v)
	if err != nil {
		return 0, false, fmt.Errorf("read column %d as int64: %w", col, err)
	}
	return n, true, nil
}

func (r *rowsResultSet) Int32(col int) (int32, bool, error) {
	v, err := r.scalar(col)
	if err != nil || v == nil {
		return 0, false, err
	}
	n, err := cast.ToInt32E(v)
	if err != nil {
		return 0, false, fmt.Errorf("read column %d as int32: %w", col, err)
	}
	return n, true, nil
}

func (r *rowsResultSet) Bool(col int) (bool, bool, error) {
	v, err := r.scalar(col)
	if err != nil || v == nil {
		return false, false, err
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		return false, false, fmt.Errorf("read column %d as bool: %w", col, err)
	}
	return b, true, nil
}

func (r *rowsResultSet) Text(col int) (string, bool, error) {
	v, err := r.scalar(col)
	if err != nil || v == nil {
		return "", false, err
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return "", false, fmt.Errorf("read column %d as string: %w", col, err)
	}
	return s, true, nil
}

func (r *rowsResultSet) Time(col int) (time.Time, bool, error) {
	v, err := r.scalar(col)
	if err != nil || v == nil {
		return time.Time{}, false, err
	}
	t, err := cast.ToTimeE(v)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("read column %d as time: %w", col, err)
	}
	return t, true, nil
}

func (r *rowsResultSet) Decimal(col int) (decimal.Decimal, bool, error) {
	v, err := r.scalar(col)
	if err != nil || v == nil {
		return decimal.Decimal{}, false, err
	}
	var d decimal.Decimal
	switch n := v.(type) {
	case int64:
		d = decimal.NewFromInt(n)
	case float64:
		d = decimal.NewFromFloat(n)
	default:
		s, serr := cast.ToStringE(v)
		if serr != nil {
			return decimal.Decimal{}, false, fmt.Errorf("read column %d as decimal: %w", col, serr)
		}
		d, err = decimal.NewFromString(s)
	}
	if err != nil {
		return decimal.Decimal{}, false, fmt.Errorf("read column %d as decimal: %w", col, err)
	}
	return d, true, nil
}

func (r *rowsResultSet) Float32(col int) (float32, bool, error) {
	v, err := r.scalar(col)
	if err != nil || v == nil {
		return 0, false, err
	}
	f, err := cast.ToFloat32E(v)
	if err != nil {
		return 0, false, fmt.Errorf("read column %d as float32: %w", col, err)
	}
	return f, true, nil
}

func (r *rowsResultSet) Float64(col int) (float64, bool, error) {
	v, err := r.scalar(col)
	if err != nil || v == nil {
		return 0, false, err
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return 0, false, fmt.Errorf("read column %d as float64: %w", col, err)
	}
	return f, true, nil
}

func (r *rowsResultSet) Bytes(col int) ([]byte, bool, error) {
	v, err := r.raw(col)
	if err != nil || v == nil {
		return nil, false, err
	}
	switch b := v.(type) {
	case []byte:
		out := make([]byte, len(b))
		copy(out, b)
		return out, true, nil
	case string:
		return []byte(b), true, nil
	default:
		return nil, false, fmt.Errorf("read column %d as bytes: unexpected %T", col, v)
	}
}
