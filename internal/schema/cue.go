package schema

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/roach88/hqlcore/internal/sqltypes"
)

// CompileError is a mapping problem with its CUE source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// LoadDir loads every CUE file in dir as one instance and compiles it.
//
// The expected layout is:
//
//	embeddable: Address: {street: "varchar", city: "varchar"}
//
//	entity: Person: {
//		table: "person"
//		id: {name: "id", column: "id", type: "bigint"}
//		secondary: [{table: "person_detail", key: ["person_id"], optional: true}]
//		attributes: {
//			name:     {column: "name", type: "varchar"}
//			bio:      {column: "bio", type: "text", table: "person_detail"}
//			address:  {embedded: "Address"}
//			employer: {target: "Company", columns: ["employer_id"]}
//			initials: {formula: "substr({alias}.name, 1, 1)", type: "char"}
//		}
//	}
//
//	constant: Status: {ACTIVE: "A", RETIRED: "R"}
func LoadDir(dir string) (*Metadata, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("schema directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", dir)
	}
	files, err := filepath.Glob(filepath.Join(dir, "*.cue"))
	if err != nil {
		return nil, fmt.Errorf("scan schema directory: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no CUE files found in %s", dir)
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, fmt.Errorf("no CUE instances loaded from %s", dir)
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, formatCUEError(inst.Err)
	}
	return Compile(ctx.BuildInstance(inst))
}

// Load compiles the mapping at path, which is either a directory of CUE
// files (see LoadDir) or a single CUE file.
func Load(path string) (*Metadata, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("load mapping: %w", err)
	}
	if info.IsDir() {
		return LoadDir(path)
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load mapping: %w", err)
	}
	return CompileString(string(src))
}

// CompileString compiles mappings from CUE source text.
func CompileString(src string) (*Metadata, error) {
	return Compile(cuecontext.New().CompileString(src))
}

// Compile converts a CUE value into validated Metadata.
func Compile(v cue.Value) (*Metadata, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	c := &cueCompiler{
		tables:      make(map[string]*Table),
		embeddables: make(map[string]*EmbeddableType),
		entities:    make(map[string]*EntityType),
	}
	if err := c.compileEmbeddables(v.LookupPath(cue.ParsePath("embeddable"))); err != nil {
		return nil, err
	}

	entitiesVal := v.LookupPath(cue.ParsePath("entity"))
	var ordered []*EntityType
	var bodies []cue.Value
	if entitiesVal.Exists() {
		iter, err := entitiesVal.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		// first pass: tables and identifiers, so associations can type their
		// foreign keys regardless of declaration order
		for iter.Next() {
			e, err := c.compileEntityHead(iter.Label(), iter.Value())
			if err != nil {
				return nil, err
			}
			ordered = append(ordered, e)
			bodies = append(bodies, iter.Value())
		}
	}
	for i, e := range ordered {
		if err := c.compileAttributes(e, bodies[i]); err != nil {
			return nil, err
		}
	}

	constants, err := compileConstants(v.LookupPath(cue.ParsePath("constant")))
	if err != nil {
		return nil, err
	}
	return New(ordered, constants)
}

type cueCompiler struct {
	tables      map[string]*Table
	embeddables map[string]*EmbeddableType
	entities    map[string]*EntityType
}

func (c *cueCompiler) table(name string) *Table {
	t, ok := c.tables[name]
	if !ok {
		t = NewTable(name)
		c.tables[name] = t
	}
	return t
}

func (c *cueCompiler) compileEmbeddables(v cue.Value) error {
	if !v.Exists() {
		return nil
	}
	iter, err := v.Fields()
	if err != nil {
		return formatCUEError(err)
	}
	for iter.Next() {
		emb := &EmbeddableType{Name: iter.Label()}
		compIter, err := iter.Value().Fields()
		if err != nil {
			return formatCUEError(err)
		}
		for compIter.Next() {
			typeName, err := compIter.Value().String()
			if err != nil {
				return &CompileError{
					Field:   "embeddable." + emb.Name + "." + compIter.Label(),
					Message: "component type must be a type name; embeddables cannot nest",
					Pos:     compIter.Value().Pos(),
				}
			}
			code, err := sqltypes.Parse(typeName)
			if err != nil {
				return &CompileError{Field: "embeddable." + emb.Name, Message: err.Error(), Pos: compIter.Value().Pos()}
			}
			emb.Components = append(emb.Components, Component{Name: compIter.Label(), Type: code})
		}
		c.embeddables[emb.Name] = emb
	}
	return nil
}

type idSpec struct {
	Name    string   `json:"name"`
	Column  string   `json:"column"`
	Columns []string `json:"columns"`
	Type    string   `json:"type"`
}

type secondarySpec struct {
	Table    string   `json:"table"`
	Key      []string `json:"key"`
	Optional bool     `json:"optional"`
}

type attrSpec struct {
	Column   string   `json:"column"`
	Columns  []string `json:"columns"`
	Type     string   `json:"type"`
	Table    string   `json:"table"`
	Formula  string   `json:"formula"`
	Embedded string   `json:"embedded"`
	Target   string   `json:"target"`
}

func (c *cueCompiler) compileEntityHead(name string, v cue.Value) (*EntityType, error) {
	field := "entity." + name
	tableName, err := lookupString(v, "table")
	if err != nil {
		return nil, err
	}
	if tableName == "" {
		return nil, &CompileError{Field: field, Message: "table is required", Pos: v.Pos()}
	}
	qualified, err := lookupString(v, "qualified")
	if err != nil {
		return nil, err
	}

	e := &EntityType{Name: name, QualifiedName: qualified, RootTable: c.table(tableName)}

	idVal := v.LookupPath(cue.ParsePath("id"))
	if !idVal.Exists() {
		return nil, &CompileError{Field: field, Message: "id is required", Pos: v.Pos()}
	}
	var id idSpec
	if err := idVal.Decode(&id); err != nil {
		return nil, formatCUEError(err)
	}
	code := sqltypes.BigInt
	if id.Type != "" {
		if code, err = sqltypes.Parse(id.Type); err != nil {
			return nil, &CompileError{Field: field + ".id", Message: err.Error(), Pos: idVal.Pos()}
		}
	}
	if id.Name == "" {
		id.Name = "id"
	}
	cols := id.Columns
	if len(cols) == 0 {
		cols = []string{firstNonEmpty(id.Column, id.Name)}
	}
	e.Identifier = &IdentifierAttribute{Name: id.Name}
	for _, col := range cols {
		e.Identifier.Columns = append(e.Identifier.Columns, e.RootTable.Column(col, code))
	}

	secVal := v.LookupPath(cue.ParsePath("secondary"))
	if secVal.Exists() {
		var secs []secondarySpec
		if err := secVal.Decode(&secs); err != nil {
			return nil, formatCUEError(err)
		}
		for _, s := range secs {
			st := SecondaryTable{Table: c.table(s.Table), Optional: s.Optional}
			for i, k := range s.Key {
				keyType := code
				if i < len(e.Identifier.Columns) {
					keyType = e.Identifier.Columns[i].Type
				}
				st.KeyColumns = append(st.KeyColumns, st.Table.Column(k, keyType))
			}
			e.SecondaryTables = append(e.SecondaryTables, st)
		}
	}

	c.entities[name] = e
	return e, nil
}

func (c *cueCompiler) compileAttributes(e *EntityType, v cue.Value) error {
	attrsVal := v.LookupPath(cue.ParsePath("attributes"))
	if !attrsVal.Exists() {
		return nil
	}
	iter, err := attrsVal.Fields()
	if err != nil {
		return formatCUEError(err)
	}
	for iter.Next() {
		name := iter.Label()
		field := "entity." + e.Name + ".attributes." + name
		var spec attrSpec
		if err := iter.Value().Decode(&spec); err != nil {
			return formatCUEError(err)
		}
		attr, err := c.compileAttribute(e, name, spec)
		if err != nil {
			return &CompileError{Field: field, Message: err.Error(), Pos: iter.Value().Pos()}
		}
		e.Attributes = append(e.Attributes, attr)
	}
	return nil
}

func (c *cueCompiler) compileAttribute(e *EntityType, name string, spec attrSpec) (Attribute, error) {
	owner := e.RootTable
	if spec.Table != "" {
		owner = c.table(spec.Table)
	}

	switch {
	case spec.Target != "":
		target, ok := c.entities[spec.Target]
		if !ok {
			return nil, fmt.Errorf("unknown target entity %q", spec.Target)
		}
		cols := spec.Columns
		if len(cols) == 0 {
			cols = []string{firstNonEmpty(spec.Column, name+"_id")}
		}
		attr := &ToOneAttribute{Name: name, Target: spec.Target}
		for i, col := range cols {
			code := sqltypes.BigInt
			if i < len(target.Identifier.Columns) {
				code = target.Identifier.Columns[i].Type
			}
			attr.Columns = append(attr.Columns, owner.Column(col, code))
		}
		return attr, nil

	case spec.Embedded != "":
		emb, ok := c.embeddables[spec.Embedded]
		if !ok {
			return nil, fmt.Errorf("unknown embeddable %q", spec.Embedded)
		}
		cols := spec.Columns
		if len(cols) == 0 {
			for _, comp := range emb.Components {
				cols = append(cols, comp.Name)
			}
		}
		if len(cols) != len(emb.Components) {
			return nil, fmt.Errorf("%d columns for %d components of %s", len(cols), len(emb.Components), emb.Name)
		}
		attr := &EmbeddedAttribute{Name: name, Embeddable: emb}
		for i, col := range cols {
			attr.Columns = append(attr.Columns, owner.Column(col, emb.Components[i].Type))
		}
		return attr, nil

	default:
		code, err := sqltypes.Parse(firstNonEmpty(spec.Type, "varchar"))
		if err != nil {
			return nil, err
		}
		if spec.Formula != "" {
			return &BasicAttribute{Name: name, Column: owner.Formula(spec.Formula, code)}, nil
		}
		return &BasicAttribute{Name: name, Column: owner.Column(firstNonEmpty(spec.Column, name), code)}, nil
	}
}

func compileConstants(v cue.Value) ([]Constant, error) {
	if !v.Exists() {
		return nil, nil
	}
	var constants []Constant
	groups, err := v.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for groups.Next() {
		members, err := groups.Value().Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for members.Next() {
			name := groups.Label() + "." + members.Label()
			c := Constant{Name: name}
			mv := members.Value()
			switch mv.Kind() {
			case cue.StringKind:
				s, _ := mv.String()
				c.Value, c.Type = s, sqltypes.VarChar
			case cue.IntKind:
				n, err := mv.Int64()
				if err != nil {
					return nil, formatCUEError(err)
				}
				c.Value, c.Type = n, sqltypes.BigInt
			case cue.BoolKind:
				b, _ := mv.Bool()
				c.Value, c.Type = b, sqltypes.Boolean
			default:
				return nil, &CompileError{
					Field:   "constant." + name,
					Message: fmt.Sprintf("unsupported constant kind %s", mv.Kind()),
					Pos:     mv.Pos(),
				}
			}
			constants = append(constants, c)
		}
	}
	return constants, nil
}

func lookupString(v cue.Value, path string) (string, error) {
	f := v.LookupPath(cue.ParsePath(path))
	if !f.Exists() {
		return "", nil
	}
	s, err := f.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return strings.TrimSpace(s), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &CompileError{Field: "cue", Message: first.Error(), Pos: positions[0]}
	}
	return err
}
