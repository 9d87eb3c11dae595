package results

import (
	"reflect"
	"time"

	"github.com/shopspring/decimal"

	"github.com/roach88/hqlcore/internal/qerr"
	"github.com/roach88/hqlcore/internal/sqltypes"
)

// ColumnReader reads one physical column. SQL NULL reads as nil.
type ColumnReader func(rs ResultSet, col int) (any, error)

type column struct {
	read   ColumnReader
	goType reflect.Type
}

var columns = map[sqltypes.Code]column{
	sqltypes.BigInt:   {readInt64, reflect.TypeFor[int64]()},
	sqltypes.Integer:  {readInt32, reflect.TypeFor[int32]()},
	sqltypes.SmallInt: {readInt32, reflect.TypeFor[int32]()},
	sqltypes.TinyInt:  {readInt32, reflect.TypeFor[int32]()},

	sqltypes.Bit:     {readBool, reflect.TypeFor[bool]()},
	sqltypes.Boolean: {readBool, reflect.TypeFor[bool]()},

	sqltypes.Char:         {readText, reflect.TypeFor[string]()},
	sqltypes.VarChar:      {readText, reflect.TypeFor[string]()},
	sqltypes.LongVarChar:  {readText, reflect.TypeFor[string]()},
	sqltypes.NChar:        {readText, reflect.TypeFor[string]()},
	sqltypes.NVarChar:     {readText, reflect.TypeFor[string]()},
	sqltypes.LongNVarChar: {readText, reflect.TypeFor[string]()},

	sqltypes.Date:      {readTime, reflect.TypeFor[time.Time]()},
	sqltypes.Time:      {readTime, reflect.TypeFor[time.Time]()},
	sqltypes.Timestamp: {readTime, reflect.TypeFor[time.Time]()},

	sqltypes.Decimal: {readDecimal, reflect.TypeFor[decimal.Decimal]()},
	sqltypes.Numeric: {readDecimal, reflect.TypeFor[decimal.Decimal]()},

	sqltypes.Float:  {readFloat32, reflect.TypeFor[float32]()},
	sqltypes.Real:   {readFloat32, reflect.TypeFor[float32]()},
	sqltypes.Double: {readFloat64, reflect.TypeFor[float64]()},

	sqltypes.Binary:        {readBytes, reflect.TypeFor[[]byte]()},
	sqltypes.VarBinary:     {readBytes, reflect.TypeFor[[]byte]()},
	sqltypes.LongVarBinary: {readBytes, reflect.TypeFor[[]byte]()},
}

func lookup(code sqltypes.Code) (column, error) {
	c, ok := columns[code]
	if !ok {
		return column{}, qerr.Unsupported("column type code %d (%s) is not supported", int(code), code)
	}
	return c, nil
}

// ReadColumn reads column col as code. An unmapped code fails with
// UNSUPPORTED_OPERATION naming the code.
func ReadColumn(rs ResultSet, col int, code sqltypes.Code) (any, error) {
	c, err := lookup(code)
	if err != nil {
		return nil, err
	}
	return c.read(rs, col)
}

// GoType returns the Go type a column of code reads as.
func GoType(code sqltypes.Code) (reflect.Type, error) {
	c, err := lookup(code)
	if err != nil {
		return nil, err
	}
	return c.goType, nil
}

func nullable[T any](v T, ok bool, err error) (any, error) {
	if err != nil || !ok {
		return nil, err
	}
	return v, nil
}

func readInt64(rs ResultSet, col int) (any, error) {
	v, ok, err := rs.Int64(col)
	return nullable(v, ok, err)
}

func readInt32(rs ResultSet, col int) (any, error) {
	v, ok, err := rs.Int32(col)
	return nullable(v, ok, err)
}

func readBool(rs ResultSet, col int) (any, error) {
	v, ok, err := rs.Bool(col)
	return nullable(v, ok, err)
}

func readText(rs ResultSet, col int) (any, error) {
	v, ok, err := rs.Text(col)
	return nullable(v, ok, err)
}

func readTime(rs ResultSet, col int) (any, error) {
	v, ok, err := rs.Time(col)
	return nullable(v, ok, err)
}

func readDecimal(rs ResultSet, col int) (any, error) {
	v, ok, err := rs.Decimal(col)
	return nullable(v, ok, err)
}

func readFloat32(rs ResultSet, col int) (any, error) {
	v, ok, err := rs.Float32(col)
	return nullable(v, ok, err)
}

func readFloat64(rs ResultSet, col int) (any, error) {
	v, ok, err := rs.Float64(col)
	return nullable(v, ok, err)
}

func readBytes(rs ResultSet, col int) (any, error) {
	v, ok, err := rs.Bytes(col)
	return nullable(v, ok, err)
}
