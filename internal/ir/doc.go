// Package ir holds the canonical value model used to fingerprint executed
// statements and digest result rows.
//
// Values are a closed set (Null, String, Int, Bool, Array, Object). Driver
// values outside that set are folded in by FromGo: decimals, floats and
// times become strings, so two runs that read the same data always produce
// the same bytes. ir imports nothing internal.
package ir
