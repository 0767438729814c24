// Package bloomcache is a read-path accelerator for Level.Read: one
// bloom.BloomFilter per live SSTable, built by scanning that table's
// index once and kept only in memory. It never touches disk and never
// changes the on-disk index/data format (spec §6) — a Level with no
// cache entry for a table behaves exactly as if bloomcache didn't
// exist. Grounded on the teacher's hand-rolled lsm.BloomFilter
// (lsm/bloom.go), replacing its FNV double-hashing scheme with
// bits-and-blooms/bloom/v3.
package bloomcache

import (
	"sync"

	"github.com/bits-and-blooms/bloom/v3"

	"github.com/intellect4all/slothdb/sstable"
	"github.com/intellect4all/slothdb/storagefs"
)

// falsePositiveRate is the target false-positive rate for every filter
// this package builds; bloom/v3 sizes the bit array and hash count
// from it and the observed key count.
const falsePositiveRate = 0.01

// Index holds one bloom filter per SSTable base name, keyed by the
// base name a Level would pass to sstable.FileContains.
type Index struct {
	mu      sync.RWMutex
	filters map[string]*bloom.BloomFilter
}

// NewIndex returns an empty cache.
func NewIndex() *Index {
	return &Index{filters: make(map[string]*bloom.BloomFilter)}
}

// Build scans base's index file once and returns a cache holding just
// that table's filter.
func Build(fs storagefs.FileSystem, base string) (*Index, error) {
	idx := NewIndex()
	if err := idx.Refresh(fs, base); err != nil {
		return nil, err
	}
	return idx, nil
}

// Refresh rebuilds (or builds for the first time) the filter for base.
// Errors opening the table propagate; an unreadable line inside the
// table does not fail the build but leaves base with no cached filter,
// so MayContain answers "maybe" and the caller falls through to the
// real file_contains check — the cache never misses a key.
func (idx *Index) Refresh(fs storagefs.FileSystem, base string) error {
	stream, err := sstable.Iterate(fs, base)
	if err != nil {
		return err
	}

	keys := make([]string, 0, 64)
	for {
		res, ok := stream.Next()
		if !ok {
			break
		}
		if res.IsErr() {
			idx.Forget(base)
			return nil
		}
		keys = append(keys, res.Rec.Key)
	}

	n := uint(len(keys))
	if n == 0 {
		n = 1
	}
	filter := bloom.NewWithEstimates(n, falsePositiveRate)
	for _, k := range keys {
		filter.AddString(k)
	}

	idx.mu.Lock()
	idx.filters[base] = filter
	idx.mu.Unlock()
	return nil
}

// Forget drops base's filter, e.g. once its table has been deleted by
// compaction.
func (idx *Index) Forget(base string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	delete(idx.filters, base)
}

// MayContain reports whether key might be present in base's table. A
// false return is definitive: the caller can skip the table entirely.
// A true return (including "no filter cached for this table") means
// the caller must fall through to the real on-disk check.
func (idx *Index) MayContain(base, key string) bool {
	idx.mu.RLock()
	filter, ok := idx.filters[base]
	idx.mu.RUnlock()
	if !ok {
		return true
	}
	return filter.TestString(key)
}
