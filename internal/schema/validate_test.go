package schema

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/hqlcore/internal/sqltypes"
)

func entity(name string) *EntityType {
	t := NewTable(name)
	return &EntityType{
		Name:       name,
		RootTable:  t,
		Identifier: &IdentifierAttribute{Name: "id", Columns: []*Column{t.Column("id", sqltypes.BigInt)}},
	}
}

func validationCodes(t *testing.T, err error) []string {
	t.Helper()
	var verrs ValidationErrors
	require.True(t, errors.As(err, &verrs), "expected ValidationErrors, got %T", err)
	codes := make([]string, len(verrs))
	for i, v := range verrs {
		codes[i] = v.Code
	}
	return codes
}

func TestNewValid(t *testing.T) {
	a := entity("A")
	b := entity("B")
	a.Attributes = []Attribute{
		&BasicAttribute{Name: "name", Column: a.RootTable.Column("name", sqltypes.VarChar)},
		&ToOneAttribute{Name: "b", Target: "B", Columns: []*Column{a.RootTable.Column("b_id", sqltypes.BigInt)}},
	}

	md, err := New([]*EntityType{a, b}, nil)
	require.NoError(t, err)
	assert.Equal(t, []*EntityType{a, b}, md.Entities())
	assert.Nil(t, md.ResolveEntityReference("C"))

	_, err = md.Entity("C")
	assert.Error(t, err)
}

func TestValidateCollectsAllErrors(t *testing.T) {
	a := entity("A")
	foreign := NewTable("elsewhere")
	a.Attributes = []Attribute{
		&BasicAttribute{Name: "x", Column: a.RootTable.Column("x", sqltypes.VarChar)},
		&BasicAttribute{Name: "x", Column: a.RootTable.Column("x2", sqltypes.VarChar)},
		&BasicAttribute{Name: "y", Column: foreign.Column("y", sqltypes.VarChar)},
		&ToOneAttribute{Name: "z", Target: "Nope", Columns: []*Column{a.RootTable.Column("z_id", sqltypes.BigInt)}},
		&EmbeddedAttribute{Name: "e", Embeddable: &EmbeddableType{Name: "E", Components: []Component{{Name: "p", Type: sqltypes.VarChar}}}},
		&IdentifierAttribute{Name: "other"},
	}

	_, err := New([]*EntityType{a}, nil)
	require.Error(t, err)
	assert.Equal(t,
		[]string{ErrDuplicateAttribute, ErrForeignTable, ErrUnknownTarget, ErrEmbeddableShape, ErrMisplacedID},
		validationCodes(t, err))
}

func TestValidateKeyMismatch(t *testing.T) {
	a := entity("A")
	b := entity("B")
	a.Attributes = []Attribute{
		&ToOneAttribute{Name: "b", Target: "B", Columns: []*Column{
			a.RootTable.Column("b_id1", sqltypes.BigInt),
			a.RootTable.Column("b_id2", sqltypes.BigInt),
		}},
	}
	_, err := New([]*EntityType{a, b}, nil)
	assert.Equal(t, []string{ErrKeyMismatch}, validationCodes(t, err))
}

func TestValidateUnreadableColumnType(t *testing.T) {
	a := entity("A")
	a.Attributes = []Attribute{
		&BasicAttribute{Name: "notes", Column: a.RootTable.Column("notes", sqltypes.Clob)},
		&BasicAttribute{Name: "photo", Column: a.RootTable.Column("photo", sqltypes.Blob)},
		&BasicAttribute{Name: "text", Column: a.RootTable.Column("text", sqltypes.LongVarChar)},
	}
	_, err := New([]*EntityType{a}, nil)
	assert.Equal(t, []string{ErrUnreadableType, ErrUnreadableType}, validationCodes(t, err))

	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "A.notes", verrs[0].Field)
	assert.Contains(t, verrs[0].Message, "clob")
}

func TestDuplicateEntity(t *testing.T) {
	_, err := New([]*EntityType{entity("A"), entity("A")}, nil)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, ErrDuplicateEntity, verr.Code)
}

func TestMissingIdentifier(t *testing.T) {
	a := &EntityType{Name: "A", RootTable: NewTable("a")}
	_, err := New([]*EntityType{a}, nil)
	assert.Equal(t, []string{ErrMissingIdentifier}, validationCodes(t, err))
}

func TestTableColumnIsInterned(t *testing.T) {
	tbl := NewTable("t")
	c1 := tbl.Column("c", sqltypes.VarChar)
	c2 := tbl.Column("c", sqltypes.VarChar)
	f := tbl.Formula("upper({alias}.c)", sqltypes.VarChar)

	assert.Same(t, c1, c2)
	assert.NotSame(t, c1, f)
	assert.Len(t, tbl.Columns(), 2)
	assert.Equal(t, "t.c", c1.String())
}
