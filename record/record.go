// Package record defines the unit of storage for the LSM tree: a
// string-keyed, string-valued pair, ordered lexicographically by key.
package record

import "strings"

// Record is a single key-value pair. Keys and values are UTF-8 text;
// keys must not contain ':' since the on-disk index format uses it as
// the key/position delimiter (see package sstable).
type Record struct {
	Key   string
	Value string
}

// KeyValid reports whether the key is safe to encode in an index line.
func (r Record) KeyValid() bool {
	return !strings.ContainsAny(r.Key, ":\n")
}

// Decision is the outcome of comparing the heads of two merged
// streams. Compare's separate dropOther result indicates that the
// other stream's head should be discarded rather than re-examined on
// the next step — used to
// implement latest-writer-wins when two streams carry the same key.
type Decision int

const (
	TakeLeft Decision = iota
	TakeRight
)

// Compare implements latest-writer-wins merge semantics: the record
// with the smaller key goes first; on a tie the left record (assumed
// to be the newer of the two, by caller convention) is kept and the
// right one is dropped.
func Compare(left, right Record) (decision Decision, dropOther bool) {
	switch {
	case left.Key < right.Key:
		return TakeLeft, false
	case left.Key > right.Key:
		return TakeRight, false
	default:
		return TakeLeft, true
	}
}
