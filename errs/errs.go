// Package errs defines the sentinel error kinds shared across the
// storage engine: missing keys, malformed on-disk index files, keys
// the index format can't represent, and levels with too few tables to
// compact. I/O and integer-parse failures have no sentinel here; they
// surface as the underlying error, wrapped.
package errs

import "errors"

var (
	// ErrNotFound is returned when a key is definitively absent from
	// the memtable and every on-disk level.
	ErrNotFound = errors.New("slothdb: key not found")

	// ErrBadFile is returned when on-disk bytes violate the index
	// format: a missing ':', a missing ',', a mis-shaped generation
	// name, or similar.
	ErrBadFile = errors.New("slothdb: malformed index file")

	// ErrInvalidRecord is returned when a record's key contains a byte
	// the index format can't represent (':' or '\n'). Values are not
	// checked.
	ErrInvalidRecord = errors.New("slothdb: key contains a reserved byte")

	// ErrTooSmall is returned by Level.OldestPair when the level has
	// fewer than two tables to compact.
	ErrTooSmall = errors.New("slothdb: level has too few tables to compact")
)
