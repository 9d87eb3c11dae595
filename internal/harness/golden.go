package harness

import (
	"context"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/hqlcore/internal/ir"
)

// Snapshot captures what a scenario produced, in canonical JSON.
type Snapshot struct {
	ScenarioName string
	Queries      []QueryResult
}

// toCanonicalMap converts a Snapshot to a map for canonical JSON
// serialization. Error messages are left out; codes are stable, message
// text is not.
func (s *Snapshot) toCanonicalMap() map[string]any {
	queries := make([]any, len(s.Queries))
	for i, q := range s.Queries {
		m := map[string]any{"name": q.Name}
		if q.SQL != "" {
			m["sql"] = q.SQL
		}
		if q.Error != "" {
			m["error"] = string(q.Error)
		} else {
			m["rows"] = toAny(q.Rows)
		}
		queries[i] = m
	}
	return map[string]any{
		"scenario_name": s.ScenarioName,
		"queries":       queries,
	}
}

// MarshalSnapshot returns the canonical JSON of result for scenarioName.
func MarshalSnapshot(scenarioName string, result *Result) ([]byte, error) {
	snapshot := Snapshot{ScenarioName: scenarioName, Queries: result.Queries}
	return ir.MarshalCanonical(snapshot.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the snapshot doesn't match.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(context.Background(), scenario)
	if err != nil {
		return nil, err
	}
	return result, AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an existing result against its golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := MarshalSnapshot(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, append(data, '\n'))

	return nil
}
