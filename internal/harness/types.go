package harness

import (
	"github.com/roach88/hqlcore/internal/qerr"
)

// QueryResult is the outcome of one query step.
type QueryResult struct {
	Name string `json:"name"`

	// SQL is the rendered statement, empty when rendering failed.
	SQL string `json:"sql,omitempty"`

	// Rows holds the rows read, in order.
	Rows [][]any `json:"rows,omitempty"`

	// Error is the code of the failure, if the query failed.
	Error qerr.Code `json:"error,omitempty"`

	// Message is the full error text.
	Message string `json:"message,omitempty"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if every expectation holds.
	Pass bool `json:"pass"`

	Queries []QueryResult `json:"queries"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:    true,
		Queries: []QueryResult{},
		Errors:  []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
