// Package exec runs rendered SQL against a connection and materializes
// the rows.
//
// The package owns the connectivity boundary: a LogicalConnection hands
// out a physical connection and a ResourceRegistry, a StatementCreator
// prepares statements on it, and a PreparedStatementExecutor turns an
// executed statement into result elements. ExecuteSelect ties them
// together for one select query.
package exec

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"slices"
)

// PhysicalConnection prepares statements. *sql.DB, *sql.Conn and *sql.Tx
// all satisfy it.
type PhysicalConnection interface {
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

// LogicalConnection is the session-level view of a connection.
type LogicalConnection interface {
	// PhysicalConnection returns the connection to prepare statements on.
	PhysicalConnection(ctx context.Context) (PhysicalConnection, error)

	// ResourceRegistry tracks the statements opened for an execution.
	ResourceRegistry() ResourceRegistry

	// AfterStatement is called exactly once when an execution finishes,
	// whether it succeeded or not.
	AfterStatement() error
}

// ResourceRegistry tracks closeable resources so they can be released
// together.
type ResourceRegistry interface {
	Register(c io.Closer)
	Release(c io.Closer) error
	ReleaseAll() error
}

// Registry is the default ResourceRegistry. It is not safe for concurrent
// use; an execution runs on one goroutine.
type Registry struct {
	resources []io.Closer
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register tracks c.
func (r *Registry) Register(c io.Closer) {
	r.resources = append(r.resources, c)
}

// Release closes c and stops tracking it. Releasing an untracked resource
// is a no-op.
func (r *Registry) Release(c io.Closer) error {
	i := slices.Index(r.resources, c)
	if i < 0 {
		return nil
	}
	r.resources = slices.Delete(r.resources, i, i+1)
	if err := c.Close(); err != nil {
		return fmt.Errorf("release resource: %w", err)
	}
	return nil
}

// ReleaseAll closes every tracked resource, most recent first.
func (r *Registry) ReleaseAll() error {
	var errs []error
	for i := len(r.resources) - 1; i >= 0; i-- {
		if err := r.resources[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	r.resources = nil
	return errors.Join(errs...)
}

// Len returns the number of tracked resources.
func (r *Registry) Len() int {
	return len(r.resources)
}
