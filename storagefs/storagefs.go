// Package storagefs is the small filesystem abstraction the storage
// engine core depends on (spec §6). The core never touches the os
// package directly; it calls through this interface, so tests can
// swap in an in-memory filesystem and a future embedder can swap in
// anything else (a virtual FS, an object store, ...).
package storagefs

// LineReader yields the lines of a text file one at a time, in order,
// without loading the whole file into memory up front.
type LineReader interface {
	// ReadLine returns the next line (without its trailing newline)
	// and true, or "" and false once the file is exhausted. err is
	// non-nil only on a genuine read failure, not on EOF.
	ReadLine() (line string, ok bool, err error)
	Close() error
}

// FileSystem is the only external contract the storage engine core
// depends on: whole-file writes and reads, line-oriented reads,
// removal, and directory listing.
type FileSystem interface {
	// WriteFile replaces path's contents entirely with data.
	WriteFile(path string, data []byte) error

	// ReadFile reads a path's entire contents.
	ReadFile(path string) ([]byte, error)

	// ReadRange reads length bytes starting at offset from path,
	// without reading the whole file into memory.
	ReadRange(path string, offset, length int64) ([]byte, error)

	// OpenForLines opens path for sequential line-by-line reading.
	OpenForLines(path string) (LineReader, error)

	// Remove deletes path. It is not an error if path does not exist.
	Remove(path string) error

	// ListDir returns the path of every entry directly inside dir (not
	// recursive), joined with dir the way filepath.Join would. Memory,
	// which has no real directories, instead returns every stored path
	// that contains dir as a substring. Recovery (tree.Load) keeps only
	// the entries whose base name starts with the tree's name plus '-'.
	ListDir(dir string) ([]string, error)
}
