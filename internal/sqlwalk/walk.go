// Package sqlwalk renders a SQL AST to parameterized SQL text.
//
// A walk produces three ordered artifacts: the SQL text, one parameter
// binder per placeholder group (in placeholder order) and one return reader
// per selection. Values are never interpolated into the text; parameters
// and literals alike become placeholders. Walking the same tree twice
// yields identical text.
package sqlwalk

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/roach88/hqlcore/internal/qerr"
	"github.com/roach88/hqlcore/internal/results"
	"github.com/roach88/hqlcore/internal/sqlast"
)

// PlaceholderStyle selects the positional placeholder syntax.
type PlaceholderStyle int

const (
	// Question renders "?" (sqlite, mysql).
	Question PlaceholderStyle = iota
	// Dollar renders "$1", "$2", ... (postgres).
	Dollar
)

func (s PlaceholderStyle) String() string {
	switch s {
	case Question:
		return "question"
	case Dollar:
		return "dollar"
	default:
		return fmt.Sprintf("PlaceholderStyle(%d)", int(s))
	}
}

// ParsePlaceholderStyle maps "question" / "?" and "dollar" / "$" to a style.
func ParsePlaceholderStyle(s string) (PlaceholderStyle, error) {
	switch strings.ToLower(s) {
	case "question", "?", "":
		return Question, nil
	case "dollar", "$":
		return Dollar, nil
	default:
		return 0, fmt.Errorf("unknown placeholder style %q", s)
	}
}

// Result is the outcome of a walk.
type Result struct {
	SQL     string
	Binders []ParameterBinder
	Readers []*results.ReturnReader

	// Aliases holds the selection aliases, parallel to Readers.
	Aliases []string
}

// ParameterCount is the number of positions the binders consume.
func (r *Result) ParameterCount() int {
	n := 0
	for _, b := range r.Binders {
		n += b.Span()
	}
	return n
}

// Walk renders q.
func Walk(q *sqlast.SelectQuery, style PlaceholderStyle) (*Result, error) {
	if q == nil {
		return nil, fmt.Errorf("cannot walk nil query")
	}
	w := &walker{style: style}

	if q.Comment != "" {
		w.sb.WriteString("/* ")
		w.sb.WriteString(strings.ReplaceAll(q.Comment, "*/", "* /"))
		w.sb.WriteString(" */ ")
	}

	w.sb.WriteString("select ")
	readers, aliases, err := w.selections(q.Selections)
	if err != nil {
		return nil, fmt.Errorf("render select clause: %w", err)
	}

	w.sb.WriteString(" from ")
	for i, space := range q.Spaces {
		if i > 0 {
			w.sb.WriteString(", ")
		}
		if err := w.tableSpace(space); err != nil {
			return nil, fmt.Errorf("render from clause: %w", err)
		}
	}

	if q.Where != nil {
		w.sb.WriteString(" where ")
		if err := w.predicate(q.Where, false); err != nil {
			return nil, fmt.Errorf("render where clause: %w", err)
		}
	}

	w.limit(q.Limit)

	return &Result{
		SQL:     w.sb.String(),
		Binders: w.binders,
		Readers: readers,
		Aliases: aliases,
	}, nil
}

type walker struct {
	style     PlaceholderStyle
	sb        strings.Builder
	binders   []ParameterBinder
	positions int
}

func (w *walker) placeholder() {
	w.positions++
	if w.style == Dollar {
		w.sb.WriteString("$")
		w.sb.WriteString(strconv.Itoa(w.positions))
		return
	}
	w.sb.WriteString("?")
}

func (w *walker) selections(sels []sqlast.Selection) ([]*results.ReturnReader, []string, error) {
	if len(sels) == 0 {
		return nil, nil, qerr.Internal("query has no selections")
	}
	readers := make([]*results.ReturnReader, 0, len(sels))
	aliases := make([]string, 0, len(sels))
	for i, sel := range sels {
		if i > 0 {
			w.sb.WriteString(", ")
		}
		if err := w.expressionList(sel.Expression); err != nil {
			return nil, nil, err
		}
		reader, err := returnReader(sel)
		if err != nil {
			return nil, nil, err
		}
		readers = append(readers, reader)
		aliases = append(aliases, sel.Alias)
	}
	return readers, aliases, nil
}

func returnReader(sel sqlast.Selection) (*results.ReturnReader, error) {
	if len(sel.Types) != sel.Expression.ColumnSpan() {
		return nil, qerr.Internal("selection %s spans %d columns but has %d types", sel.Alias, sel.Expression.ColumnSpan(), len(sel.Types))
	}
	for _, code := range sel.Types {
		if !code.Readable() {
			return nil, qerr.Unsupported("selection %s has column type %s, which cannot be read", sel.Alias, code)
		}
	}
	typ := results.Type{Codes: sel.Types}
	if sel.Composite != nil {
		if len(sel.Composite.Properties) != len(sel.Types) {
			return nil, qerr.Internal("composite %s has %d properties for %d columns", sel.Composite.Name, len(sel.Composite.Properties), len(sel.Types))
		}
		props := make([]results.Property, len(sel.Types))
		for i, name := range sel.Composite.Properties {
			props[i] = results.Property{Name: name, Type: sel.Types[i]}
		}
		typ.Composite = results.NewRecordBuilder(sel.Composite.Name, props...)
	}
	reader := results.NewReturnReader()
	reader.SetTypeMetadata(typ)
	return reader, nil
}

// expressionList renders every column of expr separated by commas.
func (w *walker) expressionList(expr sqlast.Expression) error {
	switch e := expr.(type) {
	case *sqlast.ColumnReference:
		w.sb.WriteString(e.Binding.Expression())
	case *sqlast.AttributeReference:
		w.bindings(e.Bindings)
	case *sqlast.EntityReference:
		w.bindings(e.Bindings)
	case *sqlast.Parameter:
		span := e.ColumnSpan()
		for i := 0; i < span; i++ {
			if i > 0 {
				w.sb.WriteString(", ")
			}
			w.placeholder()
		}
		w.binders = append(w.binders, &namedBinder{name: e.Name, span: span})
	case *sqlast.Literal:
		w.placeholder()
		w.binders = append(w.binders, &literalBinder{value: e.Value})
	default:
		return qerr.Internal("unknown expression %T", expr)
	}
	return nil
}

func (w *walker) bindings(bindings []sqlast.ColumnBinding) {
	for i, b := range bindings {
		if i > 0 {
			w.sb.WriteString(", ")
		}
		w.sb.WriteString(b.Expression())
	}
}

// operand renders expr as a comparison operand; multi-column values
// become row values.
func (w *walker) operand(expr sqlast.Expression) error {
	if expr.ColumnSpan() == 1 {
		return w.expressionList(expr)
	}
	w.sb.WriteString("(")
	if err := w.expressionList(expr); err != nil {
		return err
	}
	w.sb.WriteString(")")
	return nil
}

func (w *walker) columns(expr sqlast.Expression) ([]sqlast.ColumnBinding, bool) {
	switch e := expr.(type) {
	case *sqlast.ColumnReference:
		return []sqlast.ColumnBinding{e.Binding}, true
	case *sqlast.AttributeReference:
		return e.Bindings, true
	case *sqlast.EntityReference:
		return e.Bindings, true
	default:
		return nil, false
	}
}

// predicate renders p. nested wraps junctions in parentheses.
func (w *walker) predicate(p sqlast.Predicate, nested bool) error {
	switch p := p.(type) {
	case *sqlast.Relational:
		if err := w.operand(p.Left); err != nil {
			return err
		}
		w.sb.WriteString(" " + p.Operator + " ")
		return w.operand(p.Right)

	case *sqlast.NullCheck:
		return w.nullCheck(p)

	case *sqlast.Junction:
		if len(p.Predicates) == 0 {
			w.sb.WriteString("1 = 1")
			return nil
		}
		sep := " or "
		if p.Conjunctive {
			sep = " and "
		}
		if nested {
			w.sb.WriteString("(")
		}
		for i, sub := range p.Predicates {
			if i > 0 {
				w.sb.WriteString(sep)
			}
			if err := w.predicate(sub, true); err != nil {
				return err
			}
		}
		if nested {
			w.sb.WriteString(")")
		}
		return nil

	default:
		return qerr.Internal("unknown predicate %T", p)
	}
}

// nullCheck tests every column: a multi-column value is null when all of
// its columns are null.
func (w *walker) nullCheck(p *sqlast.NullCheck) error {
	test, join := " is null", " and "
	if p.Negated {
		test, join = " is not null", " or "
	}
	if p.Operand.ColumnSpan() == 1 {
		if err := w.expressionList(p.Operand); err != nil {
			return err
		}
		w.sb.WriteString(test)
		return nil
	}
	cols, ok := w.columns(p.Operand)
	if !ok {
		return qerr.Unsupported("null test on a multi-valued %T", p.Operand)
	}
	w.sb.WriteString("(")
	for i, c := range cols {
		if i > 0 {
			w.sb.WriteString(join)
		}
		w.sb.WriteString(c.Expression())
		w.sb.WriteString(test)
	}
	w.sb.WriteString(")")
	return nil
}

func (w *walker) tableSpace(space *sqlast.TableSpace) error {
	if err := w.tableGroup(space.Root, nil); err != nil {
		return err
	}
	for _, j := range space.Joins {
		if err := w.tableGroup(j.Group, &j); err != nil {
			return err
		}
	}
	return nil
}

// tableGroup renders a group's root table, then its own table joins. A
// group reached through a left join outer-joins its tables too, so the
// group join keeps its cardinality.
func (w *walker) tableGroup(g *sqlast.TableGroup, via *sqlast.TableGroupJoin) error {
	if via == nil {
		w.sb.WriteString(g.Root().String())
	} else {
		w.sb.WriteString(" " + via.Type.SQL() + " " + g.Root().String())
		if via.Type != sqlast.JoinCross {
			if via.Predicate == nil {
				return qerr.Internal("%s of %s has no predicate", via.Type.SQL(), g.Root())
			}
			w.sb.WriteString(" on ")
			if err := w.predicate(via.Predicate, false); err != nil {
				return err
			}
		}
	}

	for _, tj := range g.Joins() {
		joinType := tj.Type
		if via != nil && via.Type == sqlast.JoinLeft {
			joinType = sqlast.JoinLeft
		}
		w.sb.WriteString(" " + joinType.SQL() + " " + tj.Binding.String())
		if joinType == sqlast.JoinCross {
			continue
		}
		if tj.Predicate == nil {
			return qerr.Internal("%s of %s has no predicate", joinType.SQL(), tj.Binding)
		}
		w.sb.WriteString(" on ")
		if err := w.predicate(tj.Predicate, false); err != nil {
			return err
		}
	}
	return nil
}

// limit renders "limit n [offset m]". An offset without a row bound uses
// the largest portable bound.
func (w *walker) limit(l *sqlast.Limit) {
	if l == nil || (l.FirstRow == nil && l.MaxRows == nil) {
		return
	}
	w.sb.WriteString(" limit ")
	if l.MaxRows != nil {
		w.sb.WriteString(strconv.Itoa(*l.MaxRows))
	} else {
		w.sb.WriteString(strconv.FormatInt(math.MaxInt64, 10))
	}
	if l.FirstRow != nil {
		w.sb.WriteString(" offset ")
		w.sb.WriteString(strconv.Itoa(*l.FirstRow))
	}
}
