// Package sqltypes defines the physical column type codes understood by the
// row readers. Codes use the JDBC numbering so that mappings exported from
// other tooling keep their meaning.
package sqltypes

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Code is a physical column type code.
type Code int

const (
	Bit           Code = -7
	TinyInt       Code = -6
	SmallInt      Code = 5
	Integer       Code = 4
	BigInt        Code = -5
	Float         Code = 6
	Real          Code = 7
	Double        Code = 8
	Numeric       Code = 2
	Decimal       Code = 3
	Char          Code = 1
	VarChar       Code = 12
	LongVarChar   Code = -1
	NChar         Code = -15
	NVarChar      Code = -9
	LongNVarChar  Code = -16
	Date          Code = 91
	Time          Code = 92
	Timestamp     Code = 93
	Binary        Code = -2
	VarBinary     Code = -3
	LongVarBinary Code = -4
	Boolean       Code = 16
	Blob          Code = 2004
	Clob          Code = 2005
	Array         Code = 2003
	Other         Code = 1111
)

var names = map[Code]string{
	Bit:           "bit",
	TinyInt:       "tinyint",
	SmallInt:      "smallint",
	Integer:       "integer",
	BigInt:        "bigint",
	Float:         "float",
	Real:          "real",
	Double:        "double",
	Numeric:       "numeric",
	Decimal:       "decimal",
	Char:          "char",
	VarChar:       "varchar",
	LongVarChar:   "longvarchar",
	NChar:         "nchar",
	NVarChar:      "nvarchar",
	LongNVarChar:  "longnvarchar",
	Date:          "date",
	Time:          "time",
	Timestamp:     "timestamp",
	Binary:        "binary",
	VarBinary:     "varbinary",
	LongVarBinary: "longvarbinary",
	Boolean:       "boolean",
	Blob:          "blob",
	Clob:          "clob",
	Array:         "array",
	Other:         "other",
}

var byName = func() map[string]Code {
	m := make(map[string]Code, len(names)+4)
	for code, name := range names {
		m[name] = code
	}
	// common aliases
	m["int"] = Integer
	m["bool"] = Boolean
	m["text"] = LongVarChar
	m["string"] = VarChar
	return m
}()

// String returns the lower-case type name, or the numeric code for
// unknown codes.
func (c Code) String() string {
	if name, ok := names[c]; ok {
		return name
	}
	return fmt.Sprintf("code(%d)", int(c))
}

// Parse looks up a code by (case-insensitive) type name.
func Parse(name string) (Code, error) {
	code, ok := byName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, fmt.Errorf("unknown column type %q", name)
	}
	return code, nil
}

// Readable reports whether values of c can be read into a Go value. Large
// objects, arrays and vendor types have no conversion.
func (c Code) Readable() bool {
	switch c {
	case Blob, Clob, Array, Other:
		return false
	}
	_, known := names[c]
	return known
}

// Codes returns every known code in ascending order.
func Codes() []Code {
	return slices.Sorted(maps.Keys(names))
}
