// Package hql parses object queries into a parse tree.
//
// The tree is deliberately thin: it records the source structure of a
// query (select items, from-clause spaces and joins, where predicates) and
// exposes dotted paths through accessors. All interpretation happens in
// the semantic package.
package hql

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// hqlLexer defines the token types of the query language.
var hqlLexer = lexer.MustSimple([]lexer.SimpleRule{
	// Keywords must come before identifiers.
	{Name: "Keyword", Pattern: `(?i)\b(select|from|as|cross|inner|left|outer|join|fetch|on|where|and|is|not|null|treat)\b`},

	{Name: "Ident", Pattern: `[\p{L}_$][\p{L}\p{M}\p{N}_$]*`},
	{Name: "Number", Pattern: `-?\d+(?:\.\d+)?`},
	{Name: "String", Pattern: `'(?:''|[^'])*'`},
	{Name: "Operator", Pattern: `<>|!=|<=|>=|=|<|>`},
	{Name: "Punct", Pattern: `[.,:\[\]()]`},

	{Name: "Whitespace", Pattern: `[ \t\r\n]+`},
})

// Statement is the root of a parsed query.
type Statement struct {
	Pos    lexer.Position
	Select []*SelectItem `( "select" @@ ( "," @@ )* )?`
	From   []*Space      `"from" @@ ( "," @@ )*`
	Where  []*Predicate  `( "where" @@ ( "and" @@ )* )?`
}

// SelectItem is one projection.
type SelectItem struct {
	Pos   lexer.Position
	Path  *Path  `@@`
	Alias string `( "as" @Ident )?`
}

// Space is one comma-separated item of the from clause: a root entity
// plus its joins.
type Space struct {
	Pos    lexer.Position
	Entity string  `@Ident ( @"." @Ident )*`
	Alias  string  `( "as"? @Ident )?`
	Joins  []*Join `@@*`
}

// Join is an explicit join, either to another entity or along an
// association path.
type Join struct {
	Pos    lexer.Position
	Kind   string       `@( "cross" | "inner" | "left" )?`
	Outer  bool         `@"outer"?`
	Fetch  bool         `"join" @"fetch"?`
	Target *Path        `@@`
	Alias  string       `( "as"? @Ident )?`
	On     []*Predicate `( "on" @@ ( "and" @@ )* )?`
}

// Predicate is a comparison or a null test. Predicates are conjunctive.
type Predicate struct {
	Pos      lexer.Position
	Left     *Operand  `@@`
	Null     *NullTest `( @@`
	Operator string    `| @Operator`
	Right    *Operand  `  @@ )`
}

// NullTest is "is null" or "is not null".
type NullTest struct {
	Not bool `"is" @"not"? "null"`
}

// Operand is one side of a comparison.
type Operand struct {
	Pos    lexer.Position
	Param  *string `  ":" @Ident`
	Number *string `| @Number`
	String *string `| @String`
	Path   *Path   `| @@`
}

// Path is a dotted identifier sequence, optionally narrowed with treat()
// or indexed with [n], e.g. "p.address.city", "treat(p as Employee).badge",
// "o.items[0].sku".
type Path struct {
	Pos   lexer.Position
	Treat *treatNode `( @@`
	Head  []string   `| @Ident ( "." @Ident )* )`
	Index *string    `( "[" @( Number | Ident ) "]" )?`
	Tail  []string   `( "." @Ident )*`
}

type treatNode struct {
	Path    *Path  `"treat" "(" @@`
	Subtype string `"as" @Ident ")"`
}
