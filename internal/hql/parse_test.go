package hql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_CrossJoin(t *testing.T) {
	stmt, err := Parse("select a.b from Something a cross join SomethingElse b")
	require.NoError(t, err)

	require.Len(t, stmt.Select, 1)
	assert.Equal(t, []string{"a", "b"}, stmt.Select[0].Path.Parts())
	assert.Equal(t, "a.b", stmt.Select[0].Path.Text())

	require.Len(t, stmt.From, 1)
	space := stmt.From[0]
	assert.Equal(t, "Something", space.EntityName())
	assert.Equal(t, "a", space.AliasName())
	require.Len(t, space.Joins, 1)
	assert.Equal(t, "cross", space.Joins[0].JoinKind())
	assert.Equal(t, "SomethingElse", space.Joins[0].Target.Text())
	assert.Equal(t, "b", space.Joins[0].AliasName())
}

func TestParse_ImplicitAlias(t *testing.T) {
	stmt, err := Parse("select b from Something")
	require.NoError(t, err)
	require.Len(t, stmt.From, 1)
	assert.Equal(t, "", stmt.From[0].AliasName())
	assert.Empty(t, stmt.From[0].Joins)
}

func TestParse_MultipleSpacesWithoutSelect(t *testing.T) {
	stmt, err := Parse("from Something a, SomethingElse as b")
	require.NoError(t, err)
	assert.Empty(t, stmt.Select)
	require.Len(t, stmt.From, 2)
	assert.Equal(t, "a", stmt.From[0].AliasName())
	assert.Equal(t, "b", stmt.From[1].AliasName())
}

func TestParse_QualifiedEntityName(t *testing.T) {
	stmt, err := Parse("from org.example.SomethingElse s")
	require.NoError(t, err)
	assert.Equal(t, "org.example.SomethingElse", stmt.From[0].EntityName())
	assert.Equal(t, "s", stmt.From[0].AliasName())
}

func TestParse_JoinsAndPredicates(t *testing.T) {
	stmt, err := Parse(`SELECT p.name, e.name AS company
		FROM Person AS p
			LEFT OUTER JOIN p.employer e
			JOIN FETCH p.other o ON o.name = 'x'
		WHERE p.name = :name AND e.rating >= 3.5 AND p.bio IS NOT NULL AND p.born is null`)
	require.NoError(t, err)

	require.Len(t, stmt.Select, 2)
	assert.Equal(t, "company", stmt.Select[1].Alias)

	joins := stmt.From[0].Joins
	require.Len(t, joins, 2)
	assert.Equal(t, "left", joins[0].JoinKind())
	assert.False(t, joins[0].Fetch)
	assert.Equal(t, []string{"p", "employer"}, joins[0].Target.Parts())
	assert.Equal(t, "inner", joins[1].JoinKind())
	assert.True(t, joins[1].Fetch)
	require.Len(t, joins[1].On, 1)
	assert.Equal(t, "x", joins[1].On[0].Right.StringValue())

	require.Len(t, stmt.Where, 4)
	assert.Equal(t, "=", stmt.Where[0].Operator)
	assert.Equal(t, "name", stmt.Where[0].Right.ParamName())
	assert.Equal(t, ">=", stmt.Where[1].Operator)
	assert.Equal(t, "3.5", *stmt.Where[1].Right.Number)
	require.NotNil(t, stmt.Where[2].Null)
	assert.True(t, stmt.Where[2].Null.Not)
	require.NotNil(t, stmt.Where[3].Null)
	assert.False(t, stmt.Where[3].Null.Not)
}

func TestParse_OuterJoinIsLeft(t *testing.T) {
	stmt, err := Parse("from Person p outer join p.employer e")
	require.NoError(t, err)
	assert.Equal(t, "left", stmt.From[0].Joins[0].JoinKind())
}

func TestParse_StringLiteralEscapes(t *testing.T) {
	stmt, err := Parse("from Person p where p.name = 'O''Brien'")
	require.NoError(t, err)
	assert.Equal(t, "O'Brien", stmt.Where[0].Right.StringValue())
}

func TestParse_IndexedAndTreatedPaths(t *testing.T) {
	stmt, err := Parse("select o.items[0].sku, treat(p as Employee).badge from Person p")
	require.NoError(t, err)

	indexed := stmt.Select[0].Path
	assert.True(t, indexed.IsIndexed())
	assert.Nil(t, indexed.Parts())
	assert.Equal(t, "o.items[0].sku", indexed.Text())
	require.NotNil(t, indexed.Indexed())
	assert.Equal(t, []string{"o", "items"}, indexed.Indexed().Base)
	assert.Equal(t, "0", indexed.Indexed().Index)
	assert.Equal(t, []string{"sku"}, indexed.Indexed().Tail)
	assert.Nil(t, indexed.Treated())

	treated := stmt.Select[1].Path
	assert.True(t, treated.IsTreated())
	assert.Equal(t, "treat(p as Employee).badge", treated.Text())
	require.NotNil(t, treated.Treated())
	assert.Equal(t, "Employee", treated.Treated().Subtype)
	assert.Equal(t, []string{"p"}, treated.Treated().Path.Parts())
	assert.Nil(t, treated.Indexed())
}

func TestParse_NormalizesIdentifiers(t *testing.T) {
	decomposed := "cafe\u0301"
	stmt, err := Parse("select p." + decomposed + " from Person p")
	require.NoError(t, err)
	assert.Equal(t, []string{"p", "caf\u00e9"}, stmt.Select[0].Path.Parts())
}

func TestParse_Errors(t *testing.T) {
	testCases := []struct {
		name string
		text string
	}{
		{"empty", ""},
		{"missing from", "select a"},
		{"select without items", "select from Person"},
		{"unaliased select junk", "select a b c from Person"},
		{"dangling join", "from Person p join"},
		{"dangling where", "from Person p where"},
		{"bad operator", "from Person p where p.name ~ 'x'"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.text)
			assert.ErrorContains(t, err, "parse query")
		})
	}
}

func TestMustParsePanics(t *testing.T) {
	assert.Panics(t, func() { MustParse("select") })
}
