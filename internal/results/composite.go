package results

import (
	"fmt"
	"strings"

	"github.com/roach88/hqlcore/internal/sqltypes"
)

// Property is one named, typed part of a composite value.
type Property struct {
	Name string
	Type sqltypes.Code
}

// Composite is a value under construction.
type Composite interface {
	Set(name string, value any) error
}

// CompositeBuilder declares the ordered properties of a composite type and
// creates empty instances of it.
type CompositeBuilder interface {
	Properties() []Property
	New() Composite
}

// Field is one property of a Record.
type Field struct {
	Name  string
	Value any
}

// Record is the default composite: ordered name/value pairs.
type Record struct {
	Type   string
	Fields []Field
}

// Set assigns the named property. Only declared properties may be set.
func (r *Record) Set(name string, value any) error {
	for i, f := range r.Fields {
		if f.Name == name {
			r.Fields[i].Value = value
			return nil
		}
	}
	return fmt.Errorf("%s has no property %q", r.Type, name)
}

// Get returns the value of the named property.
func (r *Record) Get(name string) (any, bool) {
	for _, f := range r.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// Map returns the fields keyed by name.
func (r *Record) Map() map[string]any {
	out := make(map[string]any, len(r.Fields))
	for _, f := range r.Fields {
		out[f.Name] = f.Value
	}
	return out
}

func (r *Record) String() string {
	parts := make([]string, len(r.Fields))
	for i, f := range r.Fields {
		parts[i] = fmt.Sprintf("%s=%v", f.Name, f.Value)
	}
	return r.Type + "{" + strings.Join(parts, ", ") + "}"
}

// RecordBuilder builds Records with a fixed property list.
type RecordBuilder struct {
	name  string
	props []Property
}

// NewRecordBuilder creates a builder for composite type name.
func NewRecordBuilder(name string, props ...Property) *RecordBuilder {
	return &RecordBuilder{name: name, props: props}
}

func (b *RecordBuilder) Properties() []Property {
	return b.props
}

func (b *RecordBuilder) New() Composite {
	fields := make([]Field, len(b.props))
	for i, p := range b.props {
		fields[i] = Field{Name: p.Name}
	}
	return &Record{Type: b.name, Fields: fields}
}
