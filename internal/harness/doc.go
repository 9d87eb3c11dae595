// Package harness runs query scenarios against a scratch database.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: people_by_name
//	description: "What this scenario validates"
//	mapping: mapping.cue        # CUE file or directory, relative to the scenario
//	setup:
//	  - fixture.sql             # SQL scripts run before the queries
//	execution_id: exec-1        # optional, fixed for reproducible logs
//	queries:
//	  - name: ada
//	    query: "select p.name from Person p where p.name = :name"
//	    params: {name: Ada}
//	    options: {comment: "by name"}
//	    expect:
//	      sql: "/* by name */ select t0.name from person t0 ..."
//	      rows: [[Ada]]
//	      count: 1
//	  - name: typo
//	    query: "select p.nmae from Person p"
//	    expect:
//	      error: UNRESOLVED_IDENTIFIER
//
// Each scenario runs in a fresh in-memory SQLite database. Rows are
// compared in canonical form (see package ir): decimals, floats and times
// compare as their string forms, embedded values as objects.
//
// # Golden Files
//
// RunWithGolden snapshots the rendered SQL and rows of every query into
// testdata/golden/<name>.golden. Regenerate with:
//
//	go test ./internal/harness -update
package harness
