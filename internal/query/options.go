// Package query holds the per-execution configuration of a query: options,
// limits, lock options and parameter bindings.
//
// Every option is optional. A nil pointer or zero value means "use the
// execution context default", never a forced value.
package query

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/hqlcore/internal/sqlast"
)

// FlushMode controls when pending changes are flushed before a query.
type FlushMode string

const (
	FlushAuto   FlushMode = "auto"
	FlushCommit FlushMode = "commit"
	FlushAlways FlushMode = "always"
	FlushManual FlushMode = "manual"
)

// CacheMode controls how a query interacts with the second-level cache.
type CacheMode string

const (
	CacheNormal  CacheMode = "normal"
	CacheIgnore  CacheMode = "ignore"
	CacheGet     CacheMode = "get"
	CachePut     CacheMode = "put"
	CacheRefresh CacheMode = "refresh"
)

// LockMode is a pessimistic lock level.
type LockMode string

const (
	LockNone            LockMode = "none"
	LockRead            LockMode = "read"
	LockWrite           LockMode = "write"
	LockUpgrade         LockMode = "upgrade"
	LockUpgradeNoWait   LockMode = "upgrade_nowait"
	LockUpgradeSkipLock LockMode = "upgrade_skiplocked"
)

// LockOptions are recorded for the connectivity layer. The generic SQL
// producer does not render lock clauses.
type LockOptions struct {
	Mode LockMode `yaml:"mode,omitempty"`

	// Timeout in milliseconds; nil uses the database default.
	Timeout *int `yaml:"timeout,omitempty"`

	// AliasModes overrides Mode per from-element alias.
	AliasModes map[string]LockMode `yaml:"aliases,omitempty"`
}

// ModeFor returns the lock mode for alias.
func (l LockOptions) ModeFor(alias string) LockMode {
	if m, ok := l.AliasModes[alias]; ok {
		return m
	}
	if l.Mode == "" {
		return LockNone
	}
	return l.Mode
}

// Limit restricts the rows returned.
type Limit struct {
	FirstRow *int `yaml:"first_row,omitempty"`
	MaxRows  *int `yaml:"max_rows,omitempty"`
}

// IsSet reports whether either bound is present.
func (l Limit) IsSet() bool {
	return l.FirstRow != nil || l.MaxRows != nil
}

// SQL returns the limit as a SQL AST node, nil when unset.
func (l Limit) SQL() *sqlast.Limit {
	if !l.IsSet() {
		return nil
	}
	return &sqlast.Limit{FirstRow: l.FirstRow, MaxRows: l.MaxRows}
}

// TupleTransformer turns the values of a row into a result element.
type TupleTransformer func(tuple []any, aliases []string) (any, error)

// ResultListTransformer post-processes the full result list.
type ResultListTransformer func(list []any) ([]any, error)

// Options configures one query execution.
type Options struct {
	// Timeout in seconds.
	Timeout   *int `yaml:"timeout,omitempty"`
	FetchSize *int `yaml:"fetch_size,omitempty"`

	FlushMode FlushMode `yaml:"flush_mode,omitempty"`
	CacheMode CacheMode `yaml:"cache_mode,omitempty"`

	ResultCaching     *bool  `yaml:"result_caching,omitempty"`
	ResultCacheRegion string `yaml:"result_cache_region,omitempty"`
	ReadOnly          *bool  `yaml:"read_only,omitempty"`

	// Comment is rendered as a leading SQL comment.
	Comment string `yaml:"comment,omitempty"`

	// Hints are database hints in the order they were added.
	Hints []string `yaml:"hints,omitempty"`

	Limit Limit       `yaml:"limit,omitempty"`
	Lock  LockOptions `yaml:"lock,omitempty"`

	TupleTransformer      TupleTransformer      `yaml:"-"`
	ResultListTransformer ResultListTransformer `yaml:"-"`
}

// AddDatabaseHint appends hint. Hints are never replaced or reordered.
func (o *Options) AddDatabaseHint(hint string) *Options {
	o.Hints = append(o.Hints, hint)
	return o
}

// StatementTimeout returns the timeout as a duration, zero when unset.
func (o *Options) StatementTimeout() time.Duration {
	if o == nil || o.Timeout == nil {
		return 0
	}
	return time.Duration(*o.Timeout) * time.Second
}

// Validate rejects values no execution context can honor.
func (o *Options) Validate() error {
	if o.Timeout != nil && *o.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %d", *o.Timeout)
	}
	if o.FetchSize != nil && *o.FetchSize < 0 {
		return fmt.Errorf("fetch size must not be negative, got %d", *o.FetchSize)
	}
	if o.Limit.FirstRow != nil && *o.Limit.FirstRow < 0 {
		return fmt.Errorf("first row must not be negative, got %d", *o.Limit.FirstRow)
	}
	if o.Limit.MaxRows != nil && *o.Limit.MaxRows < 0 {
		return fmt.Errorf("max rows must not be negative, got %d", *o.Limit.MaxRows)
	}
	switch o.FlushMode {
	case "", FlushAuto, FlushCommit, FlushAlways, FlushManual:
	default:
		return fmt.Errorf("unknown flush mode %q", o.FlushMode)
	}
	switch o.CacheMode {
	case "", CacheNormal, CacheIgnore, CacheGet, CachePut, CacheRefresh:
	default:
		return fmt.Errorf("unknown cache mode %q", o.CacheMode)
	}
	if o.ResultCacheRegion != "" && (o.ResultCaching == nil || !*o.ResultCaching) {
		return fmt.Errorf("result cache region %q set without result caching", o.ResultCacheRegion)
	}
	return nil
}

// ParseOptions decodes options from YAML, rejecting unknown fields.
func ParseOptions(data []byte) (*Options, error) {
	var opts Options
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&opts); err != nil {
		return nil, fmt.Errorf("parse query options: %w", err)
	}
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid query options: %w", err)
	}
	return &opts, nil
}

// LoadOptions reads options from a YAML file.
func LoadOptions(path string) (*Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read query options: %w", err)
	}
	return ParseOptions(data)
}
