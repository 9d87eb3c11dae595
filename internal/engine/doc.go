// Package engine wires the query pipeline together.
//
// An Engine holds a mapping and a store. Each call parses the query text,
// resolves it against the mapping, converts it to a SQL tree, applies the
// query options and executes it on a fresh store session:
//
//	parse -> analyze -> convert -> walk -> bind -> execute -> read rows
//
// Every execution gets an execution ID from the engine's IDGenerator and a
// sequence number, both attached to the statement log. Engines are safe
// for concurrent use; each execution runs on its own session.
package engine
