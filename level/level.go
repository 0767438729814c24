// Package level implements a single LSM level: a FIFO queue of
// SSTable generation numbers sharing one name prefix, a capacity, and
// the point-lookup path over the tables it currently owns.
package level

import (
	"fmt"

	"github.com/intellect4all/slothdb/bloomcache"
	"github.com/intellect4all/slothdb/errs"
	"github.com/intellect4all/slothdb/sstable"
	"github.com/intellect4all/slothdb/storagefs"
)

// Level owns only identifiers — generation numbers and the name
// prefix they're minted under. The actual SSTable bytes live on disk
// and are reached through the sstable package by base name.
type Level struct {
	id         string
	generation uint64
	queue      []uint64 // FIFO; queue[0] is the oldest live generation.
	capacity   int
	bloom      *bloomcache.Index
}

// New returns an empty level named id (conventionally "{tree}-{index}")
// with the given capacity.
func New(id string, capacity int) *Level {
	return &Level{id: id, capacity: capacity}
}

// NewFromRange reconstructs a level whose live generations are the
// contiguous run [minGen, maxGen], as produced by recovery (spec
// §4.5 step 5): compaction always drains the queue's head, so within
// a level the surviving generations never have gaps.
func NewFromRange(id string, capacity int, minGen, maxGen uint64) *Level {
	queue := make([]uint64, 0, maxGen-minGen+1)
	for g := minGen; g <= maxGen; g++ {
		queue = append(queue, g)
	}
	return &Level{id: id, generation: maxGen, queue: queue, capacity: capacity}
}

// ID is this level's name prefix.
func (l *Level) ID() string { return l.id }

// Capacity is the maximum number of live tables before IsFull reports
// true.
func (l *Level) Capacity() int { return l.capacity }

func (l *Level) tableName(gen uint64) string {
	return fmt.Sprintf("%s-%d", l.id, gen)
}

// NewTable mints the next table name for this level: increments the
// generation counter, appends it to the queue's tail, and returns the
// full base name.
func (l *Level) NewTable() string {
	l.generation++
	l.queue = append(l.queue, l.generation)
	return l.tableName(l.generation)
}

// IsFull reports whether the level holds at least `capacity` tables.
func (l *Level) IsFull() bool {
	return len(l.queue) >= l.capacity
}

// TableNames returns every live table's base name, oldest first —
// the order they were inserted in, matching the queue itself.
func (l *Level) TableNames() []string {
	names := make([]string, len(l.queue))
	for i, gen := range l.queue {
		names[i] = l.tableName(gen)
	}
	return names
}

// OldestPair pops the two oldest generations from the queue's head
// and returns their base names as (older, newer). It errors with
// errs.ErrTooSmall if fewer than two tables are live. The caller must
// pass newer as the merge's left input so collisions resolve in favor
// of the later write (spec §4.2/§4.5) — note this is the opposite
// order from the source's literal queue-pop order, which passes the
// older table as left; see DESIGN.md.
func (l *Level) OldestPair() (older, newer string, err error) {
	if len(l.queue) < 2 {
		return "", "", errs.ErrTooSmall
	}
	g1, g2 := l.queue[0], l.queue[1]
	l.queue = l.queue[2:]
	return l.tableName(g1), l.tableName(g2), nil
}

// EnableBloom attaches an in-memory bloom filter cache to this level
// if it doesn't already have one. The cache is an optional read-path
// accelerator (spec §4.7 enrichment); a level with none behaves
// exactly as the unenriched spec describes.
func (l *Level) EnableBloom() {
	if l.bloom == nil {
		l.bloom = bloomcache.NewIndex()
	}
}

// RefreshBloomFilter rebuilds the cached filter for base, if bloom
// caching is enabled on this level. A no-op otherwise.
func (l *Level) RefreshBloomFilter(fs storagefs.FileSystem, base string) error {
	if l.bloom == nil {
		return nil
	}
	return l.bloom.Refresh(fs, base)
}

// ForgetBloomFilter drops base's cached filter, if any, e.g. after
// compaction removes base from disk.
func (l *Level) ForgetBloomFilter(base string) {
	if l.bloom != nil {
		l.bloom.Forget(base)
	}
}

// Read checks this level's tables for key, newest first (spec §9,
// open question 2), consulting the bloom cache (if enabled) before
// each file_contains scan.
func (l *Level) Read(fs storagefs.FileSystem, key string) (value string, found bool, err error) {
	names := l.TableNames()
	for i := len(names) - 1; i >= 0; i-- {
		base := names[i]

		if l.bloom != nil && !l.bloom.MayContain(base, key) {
			continue
		}

		ok, err := sstable.FileContains(fs, base, key)
		if err != nil {
			return "", false, err
		}
		if !ok {
			continue
		}

		value, _, err := sstable.Read(fs, base, key)
		if err != nil {
			return "", false, err
		}
		return value, true, nil
	}
	return "", false, nil
}
