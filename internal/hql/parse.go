package hql

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"golang.org/x/text/unicode/norm"
)

var parser = participle.MustBuild[Statement](
	participle.Lexer(hqlLexer),
	participle.Elide("Whitespace"),
	participle.CaseInsensitive("Keyword"),
	participle.UseLookahead(4),
)

// Parse parses a query.
func Parse(text string) (*Statement, error) {
	stmt, err := parser.ParseString("", text)
	if err != nil {
		return nil, fmt.Errorf("parse query: %w", err)
	}
	return stmt, nil
}

// MustParse is Parse for tests and static queries. Panics on error.
func MustParse(text string) *Statement {
	stmt, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return stmt
}

// Normalize returns the NFC form of an identifier. Identifiers are compared
// in this form so that composed and decomposed spellings match.
func Normalize(ident string) string {
	return norm.NFC.String(ident)
}

// EntityName returns the normalized entity name of the space.
func (s *Space) EntityName() string {
	return Normalize(s.Entity)
}

// AliasName returns the normalized explicit alias, or "".
func (s *Space) AliasName() string {
	return Normalize(s.Alias)
}

// JoinKind returns "cross", "inner" or "left". A bare "join" is inner and a
// bare "outer join" is left.
func (j *Join) JoinKind() string {
	switch kind := strings.ToLower(j.Kind); {
	case kind != "":
		return kind
	case j.Outer:
		return "left"
	default:
		return "inner"
	}
}

// AliasName returns the normalized explicit alias, or "".
func (j *Join) AliasName() string {
	return Normalize(j.Alias)
}

// Text returns the canonical source text of the path.
func (p *Path) Text() string {
	var b strings.Builder
	if p.Treat != nil {
		fmt.Fprintf(&b, "treat(%s as %s)", p.Treat.Path.Text(), Normalize(p.Treat.Subtype))
	} else {
		b.WriteString(joinNormalized(p.Head))
	}
	if p.Index != nil {
		fmt.Fprintf(&b, "[%s]", *p.Index)
	}
	if len(p.Tail) > 0 {
		b.WriteString(".")
		b.WriteString(joinNormalized(p.Tail))
	}
	return b.String()
}

// Parts returns the normalized identifier segments of a plain dotted path.
// For indexed and treated paths it returns nil; use Indexed and Treated.
func (p *Path) Parts() []string {
	if p.IsIndexed() || p.IsTreated() {
		return nil
	}
	parts := make([]string, len(p.Head))
	for i, ident := range p.Head {
		parts[i] = Normalize(ident)
	}
	return parts
}

// IsIndexed reports whether the path contains an index operator.
func (p *Path) IsIndexed() bool {
	return p.Index != nil
}

// IsTreated reports whether the path is narrowed with treat().
func (p *Path) IsTreated() bool {
	return p.Treat != nil
}

// IndexedPath is the typed view of "base[index].tail".
type IndexedPath struct {
	Base  []string
	Index string
	Tail  []string
}

// Indexed returns the indexed form of the path, or nil.
func (p *Path) Indexed() *IndexedPath {
	if p.Index == nil || p.Treat != nil {
		return nil
	}
	return &IndexedPath{Base: normalizeAll(p.Head), Index: *p.Index, Tail: normalizeAll(p.Tail)}
}

// TreatedPath is the typed view of "treat(path as Subtype).tail".
type TreatedPath struct {
	Path    *Path
	Subtype string
	Tail    []string
}

// Treated returns the treated form of the path, or nil.
func (p *Path) Treated() *TreatedPath {
	if p.Treat == nil {
		return nil
	}
	return &TreatedPath{Path: p.Treat.Path, Subtype: Normalize(p.Treat.Subtype), Tail: normalizeAll(p.Tail)}
}

// StringValue returns the unquoted string literal.
func (o *Operand) StringValue() string {
	s := *o.String
	return strings.ReplaceAll(s[1:len(s)-1], "''", "'")
}

// ParamName returns the normalized parameter name.
func (o *Operand) ParamName() string {
	return Normalize(*o.Param)
}

func normalizeAll(idents []string) []string {
	if len(idents) == 0 {
		return nil
	}
	out := make([]string, len(idents))
	for i, ident := range idents {
		out[i] = Normalize(ident)
	}
	return out
}

func joinNormalized(idents []string) string {
	return strings.Join(normalizeAll(idents), ".")
}
