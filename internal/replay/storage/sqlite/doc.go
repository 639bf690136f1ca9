// Package sqlite persists replay runs, per-entry collection sizes and
// integrated clusters.
//
// The schema is owned by the embedded migrations and applied on Open, so a
// fresh file is usable immediately.
package sqlite
