package schema

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/hqlcore/internal/sqltypes"
)

const sampleMapping = `
embeddable: Address: {
	street: "varchar"
	city:   "varchar"
}

entity: Person: {
	table:     "person"
	qualified: "com.acme.Person"
	id: {name: "id", column: "id", type: "bigint"}
	secondary: [{table: "person_detail", key: ["person_id"], optional: true}]
	attributes: {
		name:     {column: "name", type: "varchar"}
		salary:   {column: "salary", type: "decimal"}
		bio:      {column: "bio", type: "text", table: "person_detail"}
		address:  {embedded: "Address", columns: ["home_street", "home_city"]}
		employer: {target: "Company", columns: ["employer_id"]}
		initials: {formula: "substr({alias}.name, 1, 1)", type: "char"}
	}
}

entity: Company: {
	table: "company"
	id: {name: "id", type: "integer"}
	attributes: {
		name: {type: "varchar"}
	}
}

constant: Status: {
	ACTIVE:  "A"
	RETIRED: "R"
}
constant: Limits: {
	MAX: 10
}
`

func TestCompileString(t *testing.T) {
	md, err := CompileString(sampleMapping)
	require.NoError(t, err)

	person := md.ResolveEntityReference("Person")
	require.NotNil(t, person)
	assert.Same(t, person, md.ResolveEntityReference("com.acme.Person"))
	assert.Equal(t, "person", person.RootTable.Name)
	require.Len(t, person.SecondaryTables, 1)
	assert.True(t, person.SecondaryTables[0].Optional)

	names := make([]string, 0, len(person.Attributes))
	for _, a := range person.Attributes {
		names = append(names, a.AttributeName())
	}
	assert.Equal(t, []string{"name", "salary", "bio", "address", "employer", "initials"}, names)

	t.Run("basic in secondary table", func(t *testing.T) {
		attr, ok := person.Attribute("bio")
		require.True(t, ok)
		basic := attr.(*BasicAttribute)
		assert.Equal(t, "person_detail", basic.Column.Table.Name)
		assert.Same(t, person.SecondaryTables[0].Table, basic.Column.Table)
		assert.Equal(t, sqltypes.LongVarChar, basic.Column.Type)
	})

	t.Run("embedded", func(t *testing.T) {
		attr, _ := person.Attribute("address")
		emb := attr.(*EmbeddedAttribute)
		require.Len(t, emb.Columns, 2)
		assert.Equal(t, "home_street", emb.Columns[0].Name)
		assert.Equal(t, "home_city", emb.Columns[1].Name)
		assert.Equal(t, "Address", emb.Embeddable.Name)
	})

	t.Run("association takes target id type", func(t *testing.T) {
		attr, _ := person.Attribute("employer")
		to := attr.(*ToOneAttribute)
		assert.Equal(t, "Company", to.Target)
		assert.Equal(t, sqltypes.Integer, to.Columns[0].Type)
	})

	t.Run("formula", func(t *testing.T) {
		attr, _ := person.Attribute("initials")
		col := attr.(*BasicAttribute).Column
		assert.True(t, col.IsFormula())
		assert.Equal(t, sqltypes.Char, col.Type)
	})

	t.Run("identifier", func(t *testing.T) {
		attr, ok := person.Attribute("id")
		require.True(t, ok)
		assert.IsType(t, &IdentifierAttribute{}, attr)
	})

	t.Run("constants", func(t *testing.T) {
		c, err := md.ResolveConstant("Status.ACTIVE")
		require.NoError(t, err)
		assert.Equal(t, "A", c.Value)
		assert.Equal(t, sqltypes.VarChar, c.Type)

		c, err = md.ResolveConstant("Limits.MAX")
		require.NoError(t, err)
		assert.Equal(t, int64(10), c.Value)

		_, err = md.ResolveConstant("Status.UNKNOWN")
		assert.Error(t, err)
	})
}

func TestCompileStringErrors(t *testing.T) {
	testCases := []struct {
		name string
		src  string
	}{
		{"missing table", `entity: X: {id: {name: "id"}}`},
		{"missing id", `entity: X: {table: "x"}`},
		{"unknown target", `entity: X: {table: "x", id: {name: "id"}, attributes: {y: {target: "Y"}}}`},
		{"unknown embeddable", `entity: X: {table: "x", id: {name: "id"}, attributes: {y: {embedded: "Y"}}}`},
		{"unknown type", `entity: X: {table: "x", id: {name: "id"}, attributes: {y: {type: "geometry"}}}`},
		{"nested embeddable", `embeddable: A: {b: {c: "varchar"}}`},
		{"syntax", `entity: {`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := CompileString(tc.src)
			assert.Error(t, err)
		})
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "mapping.cue"), []byte("package mapping\n"+sampleMapping), 0o644))

	md, err := LoadDir(dir)
	require.NoError(t, err)
	assert.Len(t, md.Entities(), 2)
	assert.Len(t, md.Constants(), 3)
}

func TestLoadDirErrors(t *testing.T) {
	_, err := LoadDir(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)

	_, err = LoadDir(t.TempDir())
	assert.ErrorContains(t, err, "no CUE files")
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "mapping.cue")
	require.NoError(t, os.WriteFile(file, []byte("package mapping\n"+sampleMapping), 0o644))

	fromFile, err := Load(file)
	require.NoError(t, err)
	assert.Len(t, fromFile.Entities(), 2)

	fromDir, err := Load(dir)
	require.NoError(t, err)
	assert.Len(t, fromDir.Entities(), 2)

	_, err = Load(filepath.Join(dir, "missing.cue"))
	assert.ErrorContains(t, err, "load mapping")
}
