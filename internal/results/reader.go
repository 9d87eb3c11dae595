package results

import (
	"fmt"
	"reflect"

	"github.com/roach88/hqlcore/internal/qerr"
	"github.com/roach88/hqlcore/internal/sqltypes"
)

// Type is the metadata a ReturnReader needs: one code per physical column
// and, for multi-column values, the builder that assembles them.
type Type struct {
	Codes     []sqltypes.Code
	Composite CompositeBuilder
}

// ReturnReader reads one logical value of a row.
//
// ColumnSpan and ReturnedType derive from the attached type metadata.
// Calling either before SetTypeMetadata is a programming error and panics.
type ReturnReader struct {
	typ *Type
}

// NewReturnReader creates a reader with no metadata attached.
func NewReturnReader() *ReturnReader {
	return &ReturnReader{}
}

// SetTypeMetadata attaches t.
func (r *ReturnReader) SetTypeMetadata(t Type) {
	r.typ = &t
}

// HasTypeMetadata reports whether SetTypeMetadata was called.
func (r *ReturnReader) HasTypeMetadata() bool {
	return r.typ != nil
}

func (r *ReturnReader) mustType() *Type {
	if r.typ == nil {
		panic("results: return reader used before type metadata was set")
	}
	return r.typ
}

// ColumnSpan is the number of physical columns the reader consumes.
func (r *ReturnReader) ColumnSpan() int {
	return len(r.mustType().Codes)
}

// ReturnedType is the Go type of the values the reader produces. A code
// with no Go conversion fails with UNSUPPORTED_OPERATION.
func (r *ReturnReader) ReturnedType() (reflect.Type, error) {
	t := r.mustType()
	switch {
	case len(t.Codes) == 0:
		return nil, qerr.Internal("return reader has no column types")
	case len(t.Codes) > 1:
		if t.Composite == nil {
			return nil, qerr.Internal("%d-column value has no composite builder", len(t.Codes))
		}
		return reflect.TypeOf(t.Composite.New()), nil
	}
	return GoType(t.Codes[0])
}

// ReadResult reads the value starting at column start. A multi-column
// value is read column by column and then assembled by the composite
// builder in property order; when every column is NULL the value is nil.
func (r *ReturnReader) ReadResult(rs ResultSet, start int) (any, error) {
	t := r.mustType()
	switch len(t.Codes) {
	case 0:
		return nil, qerr.Internal("return reader has no column types")
	case 1:
		return ReadColumn(rs, start, t.Codes[0])
	}

	values := make([]any, len(t.Codes))
	allNull := true
	for i, code := range t.Codes {
		v, err := ReadColumn(rs, start+i, code)
		if err != nil {
			return nil, err
		}
		values[i] = v
		if v != nil {
			allNull = false
		}
	}
	if allNull {
		return nil, nil
	}

	builder := t.Composite
	if builder == nil {
		return nil, qerr.Internal("%d-column value has no composite builder", len(t.Codes))
	}
	props := builder.Properties()
	if len(props) != len(values) {
		return nil, qerr.Internal("composite has %d properties for %d columns", len(props), len(values))
	}
	c := builder.New()
	for i, p := range props {
		if err := c.Set(p.Name, values[i]); err != nil {
			return nil, fmt.Errorf("set composite property %s: %w", p.Name, err)
		}
	}
	return c, nil
}

// RowReader reads one row through its return readers in order.
type RowReader[T any] struct {
	readers     []*ReturnReader
	transformer RowTransformer[T]
}

// NewRowReader creates a row reader.
func NewRowReader[T any](readers []*ReturnReader, transformer RowTransformer[T]) *RowReader[T] {
	return &RowReader[T]{readers: readers, transformer: transformer}
}

// ReadRow reads the current row of rs.
func (r *RowReader[T]) ReadRow(rs ResultSet) (T, error) {
	var zero T
	row := make([]any, len(r.readers))
	pos := 1
	for i, reader := range r.readers {
		v, err := reader.ReadResult(rs, pos)
		if err != nil {
			return zero, fmt.Errorf("read value %d: %w", i+1, err)
		}
		row[i] = v
		pos += reader.ColumnSpan()
	}
	return r.transformer.TransformRow(row)
}

// RowTransformer turns the logical values of a row into a result element.
type RowTransformer[T any] interface {
	TransformRow(row []any) (T, error)
}

// RowTransformerFunc adapts a function to RowTransformer.
type RowTransformerFunc[T any] func(row []any) (T, error)

func (f RowTransformerFunc[T]) TransformRow(row []any) (T, error) {
	return f(row)
}

// TupleRows returns every row as its value slice.
func TupleRows() RowTransformer[[]any] {
	return RowTransformerFunc[[]any](func(row []any) ([]any, error) {
		return row, nil
	})
}

// SingleValueRows returns the only value of each row.
func SingleValueRows() RowTransformer[any] {
	return RowTransformerFunc[any](func(row []any) (any, error) {
		if len(row) != 1 {
			return nil, fmt.Errorf("expected a single value per row, got %d", len(row))
		}
		return row[0], nil
	})
}

// MapRows keys each row by the selection aliases.
func MapRows(aliases []string) RowTransformer[map[string]any] {
	return RowTransformerFunc[map[string]any](func(row []any) (map[string]any, error) {
		if len(row) != len(aliases) {
			return nil, fmt.Errorf("%d values for %d aliases", len(row), len(aliases))
		}
		out := make(map[string]any, len(row))
		for i, alias := range aliases {
			out[alias] = row[i]
		}
		return out, nil
	})
}
