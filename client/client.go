// Package client is the storage engine's front door: it owns an
// in-memory memtable and a tree.Tree, routing writes through the
// memtable and flushing to the tree once it's full (spec §4.1, §4.6).
package client

import (
	"fmt"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/intellect4all/slothdb/errs"
	"github.com/intellect4all/slothdb/record"
	"github.com/intellect4all/slothdb/slothlog"
	"github.com/intellect4all/slothdb/storagefs"
	"github.com/intellect4all/slothdb/tree"
)

// Config holds the two tunables spec.md §6 names: the memtable flush
// threshold M and the level-scaling factor S. Mirrors the teacher's
// lsm.Config / lsm.DefaultConfig(dataDir) shape.
type Config struct {
	MemtableThreshold  int
	LevelScalingFactor int
}

// DefaultConfig returns the defaults spec.md §6 specifies: M=10, S=1.
func DefaultConfig() Config {
	return Config{MemtableThreshold: 10, LevelScalingFactor: 1}
}

// noopLocker is the default sync.Locker: a no-op, for embedders who
// don't need cross-goroutine mutual exclusion (spec §5 — the core is
// single-threaded and synchronous by design).
type noopLocker struct{}

func (noopLocker) Lock()   {}
func (noopLocker) Unlock() {}

// Client is a blocking, single-threaded façade over a memtable and a
// Tree. Put fails only on a key with a reserved byte or an io error
// during flush and compaction; Get fails on io errors and reports a
// missing key as errs.ErrNotFound.
type Client struct {
	config   Config
	memtable []record.Record
	tree     *tree.Tree
	lock     sync.Locker
	log      *logrus.Logger
}

// New constructs a Client named name over fs, with config's
// thresholds, starting from an empty memtable and an empty Tree.
func New(fs storagefs.FileSystem, name string, config Config) *Client {
	if config.MemtableThreshold <= 0 {
		config.MemtableThreshold = DefaultConfig().MemtableThreshold
	}
	if config.LevelScalingFactor <= 0 {
		config.LevelScalingFactor = DefaultConfig().LevelScalingFactor
	}
	return &Client{
		config: config,
		tree:   tree.New(fs, name, config.LevelScalingFactor),
		lock:   noopLocker{},
		log:    slothlog.Default(),
	}
}

// Load reconstructs a Client from whatever a prior instance already
// wrote to disk under name (spec §4.5 recovery). The memtable itself
// is never persisted (spec §9, open question 6: no write-ahead log),
// so it always starts empty after a load.
func Load(fs storagefs.FileSystem, name string, config Config) (*Client, error) {
	if config.MemtableThreshold <= 0 {
		config.MemtableThreshold = DefaultConfig().MemtableThreshold
	}
	if config.LevelScalingFactor <= 0 {
		config.LevelScalingFactor = DefaultConfig().LevelScalingFactor
	}
	t, err := tree.Load(fs, name, config.LevelScalingFactor)
	if err != nil {
		return nil, fmt.Errorf("client: load %s: %w", name, err)
	}
	return &Client{
		config: config,
		tree:   t,
		lock:   noopLocker{},
		log:    slothlog.Default(),
	}, nil
}

// SetLocker installs a sync.Locker that Put and Get acquire and
// release around their critical section, for embedders coordinating
// access across goroutines (spec §5: an outer concurrency envelope is
// permitted; the core itself remains sequential). A nil locker is
// ignored.
func (c *Client) SetLocker(lock sync.Locker) {
	if lock != nil {
		c.lock = lock
	}
}

// SetLogger overrides the client's and its tree's logger.
func (c *Client) SetLogger(log *logrus.Logger) {
	if log == nil {
		return
	}
	c.log = log
	c.tree.SetLogger(log)
}

// EnableBloomCache turns on the bloom filter read-path accelerator
// (spec §4.7) for the underlying tree.
func (c *Client) EnableBloomCache() {
	c.tree.EnableBloomCache()
}

// TreeLevels reports how many levels the underlying tree currently
// has allocated, for introspection (e.g. a CLI "stats" command).
func (c *Client) TreeLevels() int {
	return c.tree.Levels()
}

// Compact forces a compaction pass over the underlying tree, as if a
// memtable flush had just happened. Put already calls this after
// every flush (spec §9, open question 5's chosen policy); this is
// exposed separately for callers that want to force the bounded-growth
// pass without writing first.
func (c *Client) Compact() error {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.tree.Compact()
}

// Flush forces any buffered memtable records to the tree and compacts,
// regardless of whether MemtableThreshold has been reached. Put alone
// only flushes once the memtable fills up within a single process, so
// a one-shot caller (e.g. the CLI, one process per invocation) must
// call Flush before exiting or a record can sit in memory forever and
// never reach disk.
func (c *Client) Flush() error {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.flushLocked()
}

// flushLocked moves the buffered memtable to the tree and compacts. It
// is a no-op if the memtable is empty. Callers must hold c.lock.
func (c *Client) flushLocked() error {
	if len(c.memtable) == 0 {
		return nil
	}

	batch := c.memtable
	c.memtable = nil

	if err := c.tree.Add(batch); err != nil {
		return fmt.Errorf("client: flush memtable: %w", err)
	}
	slothlog.WithTree(c.log, c.tree.Name()).WithFields(logrus.Fields{"records": len(batch)}).
		Debug("flushed memtable to tree")

	// Tree.Add does not itself trigger compaction (spec §9, open
	// question 5); this Client's chosen policy is to always compact
	// right after a flush, bounding on-disk growth without requiring
	// direct tree.Tree embedders to remember to do so themselves.
	if err := c.tree.Compact(); err != nil {
		return fmt.Errorf("client: compact after flush: %w", err)
	}
	return nil
}

// memtableInsertPosition returns the index at which key belongs in
// the sorted memtable, and whether it already exists there.
func (c *Client) memtableInsertPosition(key string) (pos int, exists bool) {
	pos = sort.Search(len(c.memtable), func(i int) bool {
		return c.memtable[i].Key >= key
	})
	exists = pos < len(c.memtable) && c.memtable[pos].Key == key
	return pos, exists
}

// Put inserts or replaces key's value in the memtable by binary
// search (spec §4.1's four cases: exact match, prepend, append,
// insert-between), then flushes to the tree (and compacts) if the
// memtable has reached its threshold.
func (c *Client) Put(key, value string) error {
	c.lock.Lock()
	defer c.lock.Unlock()

	rec := record.Record{Key: key, Value: value}
	if !rec.KeyValid() {
		return fmt.Errorf("client: put %q: %w", key, errs.ErrInvalidRecord)
	}

	pos, exists := c.memtableInsertPosition(key)
	if exists {
		c.memtable[pos].Value = value
	} else {
		c.memtable = append(c.memtable, record.Record{})
		copy(c.memtable[pos+1:], c.memtable[pos:])
		c.memtable[pos] = rec
	}

	if len(c.memtable) < c.config.MemtableThreshold {
		return nil
	}
	return c.flushLocked()
}

// Get returns key's value, checking the memtable first and falling
// back to the tree on a miss. A key absent from both is reported as
// errs.ErrNotFound (spec §7's not_found kind), not a bare false.
func (c *Client) Get(key string) (string, error) {
	c.lock.Lock()
	defer c.lock.Unlock()

	pos, exists := c.memtableInsertPosition(key)
	if exists {
		return c.memtable[pos].Value, nil
	}

	value, found, err := c.tree.Read(key)
	if err != nil {
		return "", fmt.Errorf("client: get %q: %w", key, err)
	}
	if !found {
		return "", fmt.Errorf("client: get %q: %w", key, errs.ErrNotFound)
	}
	return value, nil
}
