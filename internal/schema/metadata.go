package schema

import (
	"fmt"
	"sort"
)

// Metadata is the read-only lookup service over entity mappings.
//
// Metadata is safe for concurrent reads once constructed.
type Metadata struct {
	entities  map[string]*EntityType
	qualified map[string]*EntityType
	order     []string
	constants map[string]Constant
}

// New builds Metadata from entity mappings and constants, running
// validation. All validation errors are returned together.
func New(entities []*EntityType, constants []Constant) (*Metadata, error) {
	md := &Metadata{
		entities:  make(map[string]*EntityType, len(entities)),
		qualified: make(map[string]*EntityType),
		constants: make(map[string]Constant, len(constants)),
	}
	for _, e := range entities {
		if _, dup := md.entities[e.Name]; dup {
			return nil, &ValidationError{Code: ErrDuplicateEntity, Field: e.Name, Message: "entity declared twice"}
		}
		md.entities[e.Name] = e
		md.order = append(md.order, e.Name)
		if e.QualifiedName != "" {
			md.qualified[e.QualifiedName] = e
		}
	}
	for _, c := range constants {
		md.constants[c.Name] = c
	}

	if errs := Validate(md); len(errs) > 0 {
		return nil, errs
	}
	return md, nil
}

// ResolveEntityReference returns the entity named by name (short or
// qualified), or nil.
func (m *Metadata) ResolveEntityReference(name string) *EntityType {
	if e, ok := m.entities[name]; ok {
		return e
	}
	return m.qualified[name]
}

// Entity is ResolveEntityReference with an error for unknown names.
func (m *Metadata) Entity(name string) (*EntityType, error) {
	e := m.ResolveEntityReference(name)
	if e == nil {
		return nil, fmt.Errorf("unknown entity %q", name)
	}
	return e, nil
}

// ResolveConstant returns the constant named by a dotted path.
func (m *Metadata) ResolveConstant(path string) (Constant, error) {
	c, ok := m.constants[path]
	if !ok {
		return Constant{}, fmt.Errorf("%q does not name a known constant", path)
	}
	return c, nil
}

// Entities returns all entities in declaration order.
func (m *Metadata) Entities() []*EntityType {
	out := make([]*EntityType, 0, len(m.order))
	for _, name := range m.order {
		out = append(out, m.entities[name])
	}
	return out
}

// Constants returns all constants sorted by name.
func (m *Metadata) Constants() []Constant {
	out := make([]Constant, 0, len(m.constants))
	for _, c := range m.constants {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
