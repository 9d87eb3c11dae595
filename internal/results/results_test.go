package results

import (
	"database/sql"
	"reflect"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/hqlcore/internal/qerr"
	"github.com/roach88/hqlcore/internal/sqltypes"
)

func openDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

// firstRow runs query and positions the result set on its first row.
func firstRow(t *testing.T, db *sql.DB, query string) ResultSet {
	t.Helper()
	rows, err := db.Query(query)
	require.NoError(t, err)
	rs, err := FromRows(rows)
	require.NoError(t, err)
	t.Cleanup(func() { rs.Close() })
	require.True(t, rs.Next(), "no rows: %v", rs.Err())
	return rs
}

func TestReadColumn_ConversionTable(t *testing.T) {
	db := openDB(t)
	rs := firstRow(t, db, `SELECT 42, 7, 'abc', 1.5, 2.25, '1234.50', '2001-02-03 04:05:06', x'0102', NULL, 'N'`)

	testCases := []struct {
		name string
		col  int
		code sqltypes.Code
		want any
	}{
		{"bigint", 1, sqltypes.BigInt, int64(42)},
		{"integer", 2, sqltypes.Integer, int32(7)},
		{"smallint", 2, sqltypes.SmallInt, int32(7)},
		{"varchar", 3, sqltypes.VarChar, "abc"},
		{"char", 10, sqltypes.Char, "N"},
		{"longnvarchar", 3, sqltypes.LongNVarChar, "abc"},
		{"float", 4, sqltypes.Float, float32(1.5)},
		{"double", 5, sqltypes.Double, 2.25},
		{"decimal", 6, sqltypes.Decimal, decimal.RequireFromString("1234.50")},
		{"numeric from float", 5, sqltypes.Numeric, decimal.NewFromFloat(2.25)},
		{"timestamp", 7, sqltypes.Timestamp, time.Date(2001, 2, 3, 4, 5, 6, 0, time.UTC)},
		{"varbinary", 8, sqltypes.VarBinary, []byte{1, 2}},
		{"bigint as text", 1, sqltypes.VarChar, "42"},
		{"null", 9, sqltypes.VarChar, nil},
		{"null integer", 9, sqltypes.BigInt, nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ReadColumn(rs, tc.col, tc.code)
			require.NoError(t, err)
			switch want := tc.want.(type) {
			case decimal.Decimal:
				assert.True(t, want.Equal(got.(decimal.Decimal)), "got %v", got)
			case time.Time:
				assert.True(t, want.Equal(got.(time.Time)), "got %v", got)
			default:
				assert.Equal(t, tc.want, got)
			}
		})
	}
}

func TestReadColumn_Booleans(t *testing.T) {
	db := openDB(t)
	_, err := db.Exec(`CREATE TABLE flags (a BOOLEAN, b BOOLEAN)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO flags VALUES (1, 0)`)
	require.NoError(t, err)

	rs := firstRow(t, db, `SELECT a, b FROM flags`)
	a, err := ReadColumn(rs, 1, sqltypes.Boolean)
	require.NoError(t, err)
	assert.Equal(t, true, a)
	b, err := ReadColumn(rs, 2, sqltypes.Bit)
	require.NoError(t, err)
	assert.Equal(t, false, b)
}

func TestReadColumn_UnsupportedCode(t *testing.T) {
	db := openDB(t)
	rs := firstRow(t, db, `SELECT 'x'`)

	for _, code := range []sqltypes.Code{sqltypes.Clob, sqltypes.Array, sqltypes.Other, sqltypes.Code(9999)} {
		t.Run(code.String(), func(t *testing.T) {
			got, err := ReadColumn(rs, 1, code)
			require.Error(t, err)
			assert.Nil(t, got)
			assert.True(t, qerr.IsUnsupported(err))
			assert.Contains(t, err.Error(), code.String())
		})
	}
}

func TestReadColumn_OutOfRange(t *testing.T) {
	db := openDB(t)
	rs := firstRow(t, db, `SELECT 1`)

	_, err := ReadColumn(rs, 2, sqltypes.BigInt)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")
}

func TestReadColumn_ConversionFailure(t *testing.T) {
	db := openDB(t)
	rs := firstRow(t, db, `SELECT 'not a number'`)

	_, err := ReadColumn(rs, 1, sqltypes.Decimal)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read column 1 as decimal")
}

func TestReturnReader_RequiresTypeMetadata(t *testing.T) {
	r := NewReturnReader()
	assert.False(t, r.HasTypeMetadata())
	assert.Panics(t, func() { r.ColumnSpan() })
	assert.Panics(t, func() { _, _ = r.ReturnedType() })

	r.SetTypeMetadata(Type{Codes: []sqltypes.Code{sqltypes.BigInt}})
	assert.True(t, r.HasTypeMetadata())
	assert.Equal(t, 1, r.ColumnSpan())
	typ, err := r.ReturnedType()
	require.NoError(t, err)
	assert.Equal(t, reflect.TypeFor[int64](), typ)
}

func TestReturnReader_UnreadableType(t *testing.T) {
	r := NewReturnReader()
	r.SetTypeMetadata(Type{Codes: []sqltypes.Code{sqltypes.Clob}})

	typ, err := r.ReturnedType()
	assert.Nil(t, typ)
	assert.True(t, qerr.IsUnsupported(err), "error: %v", err)
	assert.Contains(t, err.Error(), "clob")
}

func TestReturnReader_NoColumnTypes(t *testing.T) {
	db := openDB(t)
	rs := firstRow(t, db, `SELECT 1`)

	r := NewReturnReader()
	r.SetTypeMetadata(Type{})
	assert.Equal(t, 0, r.ColumnSpan())

	v, err := r.ReadResult(rs, 1)
	assert.Nil(t, v)
	assert.True(t, qerr.IsInternal(err), "error: %v", err)

	_, err = r.ReturnedType()
	assert.True(t, qerr.IsInternal(err), "error: %v", err)
}

func addressBuilder() CompositeBuilder {
	return NewRecordBuilder("Address",
		Property{Name: "street", Type: sqltypes.VarChar},
		Property{Name: "city", Type: sqltypes.VarChar},
	)
}

func TestReturnReader_Composite(t *testing.T) {
	db := openDB(t)
	rs := firstRow(t, db, `SELECT 1, 'Main St', 'Springfield'`)

	r := NewReturnReader()
	r.SetTypeMetadata(Type{
		Codes:     []sqltypes.Code{sqltypes.VarChar, sqltypes.VarChar},
		Composite: addressBuilder(),
	})
	assert.Equal(t, 2, r.ColumnSpan())
	typ, err := r.ReturnedType()
	require.NoError(t, err)
	assert.Equal(t, reflect.TypeFor[*Record](), typ)

	v, err := r.ReadResult(rs, 2)
	require.NoError(t, err)
	rec := v.(*Record)
	assert.Equal(t, "Address", rec.Type)
	assert.Equal(t, []Field{{"street", "Main St"}, {"city", "Springfield"}}, rec.Fields)
	assert.Equal(t, "Address{street=Main St, city=Springfield}", rec.String())

	city, ok := rec.Get("city")
	assert.True(t, ok)
	assert.Equal(t, "Springfield", city)
	assert.Equal(t, map[string]any{"street": "Main St", "city": "Springfield"}, rec.Map())
}

func TestReturnReader_CompositeAllNullIsNil(t *testing.T) {
	db := openDB(t)
	rs := firstRow(t, db, `SELECT NULL, NULL`)

	r := NewReturnReader()
	r.SetTypeMetadata(Type{Codes: []sqltypes.Code{sqltypes.VarChar, sqltypes.VarChar}, Composite: addressBuilder()})
	v, err := r.ReadResult(rs, 1)
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestReturnReader_CompositeWithoutBuilder(t *testing.T) {
	db := openDB(t)
	rs := firstRow(t, db, `SELECT 'a', 'b'`)

	r := NewReturnReader()
	r.SetTypeMetadata(Type{Codes: []sqltypes.Code{sqltypes.VarChar, sqltypes.VarChar}})
	_, err := r.ReadResult(rs, 1)
	require.Error(t, err)
	assert.True(t, qerr.IsInternal(err))

	_, err = r.ReturnedType()
	assert.True(t, qerr.IsInternal(err))
}

func TestRecord_SetUnknownProperty(t *testing.T) {
	rec := addressBuilder().New()
	err := rec.Set("zip", "12345")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"zip"`)
}

func TestRowReader_AdvancesBySpan(t *testing.T) {
	db := openDB(t)
	_, err := db.Exec(`CREATE TABLE t (id INTEGER, street TEXT, city TEXT, n INTEGER)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO t VALUES (1, 'Main St', 'Springfield', 10), (2, NULL, NULL, 20)`)
	require.NoError(t, err)

	rows, err := db.Query(`SELECT id, street, city, n FROM t ORDER BY id`)
	require.NoError(t, err)
	rs, err := FromRows(rows)
	require.NoError(t, err)
	defer rs.Close()

	id, addr, n := NewReturnReader(), NewReturnReader(), NewReturnReader()
	id.SetTypeMetadata(Type{Codes: []sqltypes.Code{sqltypes.BigInt}})
	addr.SetTypeMetadata(Type{Codes: []sqltypes.Code{sqltypes.VarChar, sqltypes.VarChar}, Composite: addressBuilder()})
	n.SetTypeMetadata(Type{Codes: []sqltypes.Code{sqltypes.Integer}})

	reader := NewRowReader([]*ReturnReader{id, addr, n}, TupleRows())

	var got [][]any
	for rs.Next() {
		row, err := reader.ReadRow(rs)
		require.NoError(t, err)
		got = append(got, row)
	}
	require.NoError(t, rs.Err())
	require.Len(t, got, 2)

	assert.Equal(t, int64(1), got[0][0])
	assert.Equal(t, "Springfield", got[0][1].(*Record).Fields[1].Value)
	assert.Equal(t, int32(10), got[0][2])
	assert.Nil(t, got[1][1])
	assert.Equal(t, int32(20), got[1][2])
}

func TestTransformers(t *testing.T) {
	row := []any{int64(1), "a"}

	tuple, err := TupleRows().TransformRow(row)
	require.NoError(t, err)
	assert.Equal(t, row, tuple)

	_, err = SingleValueRows().TransformRow(row)
	require.Error(t, err)
	single, err := SingleValueRows().TransformRow([]any{"only"})
	require.NoError(t, err)
	assert.Equal(t, "only", single)

	m, err := MapRows([]string{"id", "name"}).TransformRow(row)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"id": int64(1), "name": "a"}, m)
	_, err = MapRows([]string{"id"}).TransformRow(row)
	require.Error(t, err)
}
