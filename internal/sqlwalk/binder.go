package sqlwalk

import (
	"fmt"

	"github.com/roach88/hqlcore/internal/qerr"
	"github.com/roach88/hqlcore/internal/query"
)

// ParameterSetter assigns a value to a 1-based statement position.
type ParameterSetter interface {
	SetParameter(position int, value any) error
}

// ParameterBinder binds one placeholder group.
type ParameterBinder interface {
	// BindValues binds starting at position and returns the number of
	// positions consumed.
	BindValues(setter ParameterSetter, position int, bindings query.ParameterBindings) (int, error)

	// Span is the number of positions the binder consumes.
	Span() int
}

// namedBinder binds a named query parameter.
type namedBinder struct {
	name string
	span int
}

func (b *namedBinder) Span() int { return b.span }

func (b *namedBinder) String() string { return ":" + b.name }

func (b *namedBinder) BindValues(setter ParameterSetter, position int, bindings query.ParameterBindings) (int, error) {
	v, ok := bindings.Lookup(b.name)
	if !ok {
		return 0, qerr.UnboundParameter(b.name)
	}
	values := query.Expand(v)
	if b.span == 1 && len(values) != 1 {
		// a single slot takes the value as is
		values = []any{v}
	}
	if len(values) != b.span {
		return 0, qerr.Unsupported("parameter :%s has %d values for %d positions", b.name, len(values), b.span)
	}
	for i, value := range values {
		if err := setter.SetParameter(position+i, value); err != nil {
			return 0, fmt.Errorf("bind :%s at position %d: %w", b.name, position+i, err)
		}
	}
	return b.span, nil
}

// literalBinder binds a constant from the query text.
type literalBinder struct {
	value any
}

func (b *literalBinder) Span() int { return 1 }

func (b *literalBinder) String() string { return fmt.Sprintf("%v", b.value) }

func (b *literalBinder) BindValues(setter ParameterSetter, position int, _ query.ParameterBindings) (int, error) {
	if err := setter.SetParameter(position, b.value); err != nil {
		return 0, fmt.Errorf("bind literal at position %d: %w", position, err)
	}
	return 1, nil
}

// BindAll binds every binder in order starting at position 1 and returns
// the number of positions bound.
func BindAll(setter ParameterSetter, binders []ParameterBinder, bindings query.ParameterBindings) (int, error) {
	position := 1
	for _, b := range binders {
		n, err := b.BindValues(setter, position, bindings)
		if err != nil {
			return position - 1, err
		}
		position += n
	}
	return position - 1, nil
}

// Positional collects bound values into a slice, for drivers that take
// arguments rather than per-position setters.
type Positional struct {
	values []any
}

// SetParameter implements ParameterSetter.
func (p *Positional) SetParameter(position int, value any) error {
	if position < 1 {
		return fmt.Errorf("invalid parameter position %d", position)
	}
	for len(p.values) < position {
		p.values = append(p.values, nil)
	}
	p.values[position-1] = value
	return nil
}

// Values returns the bound values in position order.
func (p *Positional) Values() []any {
	return p.values
}
