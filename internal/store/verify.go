package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/hqlcore/internal/schema"
)

// MappingProblem describes a mapped table or column missing from the
// database.
type MappingProblem struct {
	Table  string
	Column string
	Err    error
}

func (p MappingProblem) String() string {
	if p.Column != "" {
		return fmt.Sprintf("%s.%s: column not found", p.Table, p.Column)
	}
	return fmt.Sprintf("%s: %v", p.Table, p.Err)
}

// VerifyMapping checks that every table and physical column of md exists.
// It probes each table with a query returning no rows, so it works the
// same on every driver.
func (s *Store) VerifyMapping(ctx context.Context, md *schema.Metadata) ([]MappingProblem, error) {
	var problems []MappingProblem
	seen := make(map[string]bool)

	for _, entity := range md.Entities() {
		for _, table := range entity.Tables() {
			if table.Derived != "" || seen[table.Name] {
				continue
			}
			seen[table.Name] = true

			columns, err := s.tableColumns(ctx, table.Name)
			if err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				problems = append(problems, MappingProblem{Table: table.Name, Err: err})
				continue
			}
			for _, col := range table.Columns() {
				if col.IsFormula() {
					continue
				}
				if !columns[strings.ToLower(col.Name)] {
					problems = append(problems, MappingProblem{Table: table.Name, Column: col.Name})
				}
			}
		}
	}
	return problems, nil
}

func (s *Store) tableColumns(ctx context.Context, table string) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, "select * from "+table+" where 1 = 0")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	names, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns of %s: %w", table, err)
	}
	columns := make(map[string]bool, len(names))
	for _, n := range names {
		columns[strings.ToLower(n)] = true
	}
	return columns, nil
}
