package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/hqlcore/internal/qerr"
	"github.com/roach88/hqlcore/internal/query"
)

// Scenario is a set of queries run against one mapping and fixture.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Mapping is the CUE mapping file or directory.
	// Relative paths are resolved against the scenario file.
	Mapping string `yaml:"mapping"`

	// Setup lists SQL scripts run in order before the queries.
	Setup []string `yaml:"setup,omitempty"`

	// ExecutionID is the fixed execution ID; defaults to
	// "test-exec-default".
	ExecutionID string `yaml:"execution_id,omitempty"`

	Queries []QueryStep `yaml:"queries"`
}

// QueryStep is one query and its expectations.
type QueryStep struct {
	Name    string         `yaml:"name"`
	Query   string         `yaml:"query"`
	Params  map[string]any `yaml:"params,omitempty"`
	Options *query.Options `yaml:"options,omitempty"`

	// Expect is optional; a step without it only contributes to the
	// golden snapshot.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect states what a query must produce. Unset fields are not checked.
type Expect struct {
	// SQL is the exact rendered statement.
	SQL string `yaml:"sql,omitempty"`

	// Rows are the expected rows in order, each a list of values.
	Rows [][]any `yaml:"rows,omitempty"`

	// Count is the expected number of rows.
	Count *int `yaml:"count,omitempty"`

	// Error is the expected error code. The query must fail with it.
	Error qerr.Code `yaml:"error,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file. Mapping and setup
// paths are resolved against the file's directory.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	base := filepath.Dir(path)
	scenario.Mapping = resolve(base, scenario.Mapping)
	for i, script := range scenario.Setup {
		scenario.Setup[i] = resolve(base, script)
	}

	if err := validatePaths(scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return scenario, nil
}

// ParseScenario parses scenario YAML without touching the filesystem.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func resolve(base, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Mapping == "" {
		return fmt.Errorf("mapping is required")
	}
	if len(s.Queries) == 0 {
		return fmt.Errorf("queries list is required and must be non-empty")
	}

	names := make(map[string]bool, len(s.Queries))
	for i, q := range s.Queries {
		if q.Name == "" {
			return fmt.Errorf("queries[%d]: name is required", i)
		}
		if names[q.Name] {
			return fmt.Errorf("queries[%d]: duplicate name %q", i, q.Name)
		}
		names[q.Name] = true
		if q.Query == "" {
			return fmt.Errorf("queries[%d]: query is required", i)
		}
		if q.Options != nil {
			if err := q.Options.Validate(); err != nil {
				return fmt.Errorf("queries[%d]: %w", i, err)
			}
		}
		if e := q.Expect; e != nil {
			if e.Error != "" && (e.SQL != "" || e.Rows != nil || e.Count != nil) {
				return fmt.Errorf("queries[%d].expect: error cannot be combined with sql, rows or count", i)
			}
			if e.Count != nil && *e.Count < 0 {
				return fmt.Errorf("queries[%d].expect: count must be non-negative", i)
			}
		}
	}
	return nil
}

func validatePaths(s *Scenario) error {
	if _, err := os.Stat(s.Mapping); err != nil {
		return fmt.Errorf("mapping not found: %s", s.Mapping)
	}
	for _, script := range s.Setup {
		if _, err := os.Stat(script); err != nil {
			return fmt.Errorf("setup script not found: %s", script)
		}
	}
	return nil
}
