package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/hqlcore/internal/exec"
)

// Session is a logical connection over the store's pool. The physical
// connection is acquired on first use and released after every
// statement.
type Session struct {
	db       *sql.DB
	conn     *sql.Conn
	registry *exec.Registry

	statements int
}

// Session starts a new logical connection.
func (s *Store) Session() *Session {
	return &Session{db: s.db, registry: exec.NewRegistry()}
}

// PhysicalConnection pins a pooled connection until AfterStatement.
func (s *Session) PhysicalConnection(ctx context.Context) (exec.PhysicalConnection, error) {
	if s.conn != nil {
		return s.conn, nil
	}
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	s.conn = conn
	return conn, nil
}

// ResourceRegistry returns the session's statement registry.
func (s *Session) ResourceRegistry() exec.ResourceRegistry {
	return s.registry
}

// AfterStatement releases the statement resources and returns the
// physical connection to the pool.
func (s *Session) AfterStatement() error {
	s.statements++
	err := s.registry.ReleaseAll()
	if s.conn != nil {
		err = errors.Join(err, s.conn.Close())
		s.conn = nil
	}
	return err
}

// Statements returns the number of statements completed on the session.
func (s *Session) Statements() int {
	return s.statements
}

// Close releases anything still held by the session.
func (s *Session) Close() error {
	err := s.registry.ReleaseAll()
	if s.conn != nil {
		err = errors.Join(err, s.conn.Close())
		s.conn = nil
	}
	return err
}
