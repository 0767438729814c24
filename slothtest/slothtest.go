// Package slothtest holds small test helpers shared across this
// repo's package tests, grounded on the teacher's
// common/testutil.TempDir.
package slothtest

import (
	"os"
	"path/filepath"
	"testing"
)

// TempDir creates a temporary directory for the duration of t and
// removes it on cleanup.
func TempDir(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "slothdb-test-*")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		os.RemoveAll(dir)
	})
	return dir
}

// TreeName returns a tree name rooted in dir, the way recovery tests
// need (a name containing a '/' so Tree.Load exercises the directory-
// splitting path, not just the "." fallback).
func TreeName(dir, name string) string {
	return filepath.Join(dir, name)
}
