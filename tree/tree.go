// Package tree implements the LSM tree proper: an ordered sequence of
// levels, ingestion at level 0, cascading compaction, layered point
// lookup, and recovery from on-disk file names.
package tree

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/intellect4all/slothdb/errs"
	"github.com/intellect4all/slothdb/level"
	"github.com/intellect4all/slothdb/mergeiter"
	"github.com/intellect4all/slothdb/record"
	"github.com/intellect4all/slothdb/slothlog"
	"github.com/intellect4all/slothdb/sstable"
	"github.com/intellect4all/slothdb/storagefs"
)

// Tree owns an ordered sequence of Levels, indexed from 0 (newest,
// smallest) outward. It is the unit of recovery: its on-disk
// footprint is every file whose name is prefixed by its name.
type Tree struct {
	name          string
	scalingFactor int
	levels        []*level.Level
	fs            storagefs.FileSystem
	log           *logrus.Logger
	enableBloom   bool
}

// New returns an empty tree named name, backed by fs, with the given
// level-scaling factor S (level L's capacity is (L+1)*S). A
// non-positive scalingFactor falls back to the default of 1.
func New(fs storagefs.FileSystem, name string, scalingFactor int) *Tree {
	if scalingFactor <= 0 {
		scalingFactor = 1
	}
	return &Tree{
		name:          name,
		scalingFactor: scalingFactor,
		fs:            fs,
		log:           slothlog.Default(),
	}
}

// SetLogger overrides the tree's logger. A nil logger is ignored.
func (t *Tree) SetLogger(log *logrus.Logger) {
	if log != nil {
		t.log = log
	}
}

// Name is this tree's name, the prefix every one of its tables carries.
func (t *Tree) Name() string { return t.name }

// Levels returns the number of levels currently allocated.
func (t *Tree) Levels() int { return len(t.levels) }

// EnableBloomCache turns on the in-memory bloom filter accelerator
// (spec §4.7) for every level this tree currently owns, and for every
// level it allocates from this point on.
func (t *Tree) EnableBloomCache() {
	t.enableBloom = true
	for _, lvl := range t.levels {
		lvl.EnableBloom()
	}
}

func (t *Tree) addLevel() *level.Level {
	idx := len(t.levels)
	id := fmt.Sprintf("%s-%d", t.name, idx)
	capacity := (idx + 1) * t.scalingFactor
	lvl := level.New(id, capacity)
	if t.enableBloom {
		lvl.EnableBloom()
	}
	t.levels = append(t.levels, lvl)
	return lvl
}

// Add ensures at least one level exists, mints a new table at level
// 0, and flushes batch (assumed already sorted by key with unique
// keys) to it. It does not itself trigger compaction (spec §9, open
// question 5) — see client.Client for the policy that calls Compact
// after every Add.
func (t *Tree) Add(batch []record.Record) error {
	if len(t.levels) == 0 {
		t.addLevel()
	}
	lvl := t.levels[0]
	base := lvl.NewTable()

	if err := sstable.Flush(t.fs, base, mergeiter.NewSliceStream(batch)); err != nil {
		return fmt.Errorf("tree: add to %s: %w", t.name, err)
	}
	if err := lvl.RefreshBloomFilter(t.fs, base); err != nil {
		return fmt.Errorf("tree: add to %s: refresh bloom filter for %s: %w", t.name, base, err)
	}

	slothlog.WithTree(t.log, t.name).WithFields(logrus.Fields{"table": base, "records": len(batch)}).
		Debug("flushed batch to level 0")
	return nil
}

// Compact walks the levels in ascending order. For each level L, it
// stops as soon as level L is not full (checking the current level,
// not level 0 — spec §9, open question 1: this is the corrected
// behavior, not the source's literal check). Otherwise it merges the
// level's two oldest tables into a new table one level down, deleting
// the inputs, allocating the next level first if needed.
func (t *Tree) Compact() error {
	for levelIdx := 0; levelIdx < len(t.levels); levelIdx++ {
		if !t.levels[levelIdx].IsFull() {
			break
		}

		if levelIdx+1 >= len(t.levels) {
			t.addLevel()
		}

		older, newer, err := t.levels[levelIdx].OldestPair()
		if errors.Is(err, errs.ErrTooSmall) {
			// A level with capacity 1 (the default, level 0) reports
			// itself full as soon as it holds a single table, but a
			// merge needs two. Nothing to do yet; the next flush will
			// give this level a second table to pair with.
			break
		}
		if err != nil {
			return fmt.Errorf("tree: compact %s level %d: %w", t.name, levelIdx, err)
		}

		dest := t.levels[levelIdx+1].NewTable()

		// newer must be the merge's left input so a key collision
		// resolves in favor of the later write (spec §4.2/§4.5).
		if err := sstable.MergeAndFlush(t.fs, newer, older, dest); err != nil {
			return fmt.Errorf("tree: compact %s level %d: %w", t.name, levelIdx, err)
		}

		if err := sstable.Delete(t.fs, newer); err != nil {
			return fmt.Errorf("tree: compact %s level %d: delete %s: %w", t.name, levelIdx, newer, err)
		}
		if err := sstable.Delete(t.fs, older); err != nil {
			return fmt.Errorf("tree: compact %s level %d: delete %s: %w", t.name, levelIdx, older, err)
		}

		t.levels[levelIdx].ForgetBloomFilter(newer)
		t.levels[levelIdx].ForgetBloomFilter(older)
		if err := t.levels[levelIdx+1].RefreshBloomFilter(t.fs, dest); err != nil {
			return fmt.Errorf("tree: compact %s level %d: refresh bloom filter for %s: %w", t.name, levelIdx, dest, err)
		}

		slothlog.WithTree(t.log, t.name).WithFields(logrus.Fields{"level": levelIdx, "newer": newer, "older": older, "dest": dest}).
			Info("compacted level")
	}
	return nil
}

// Read answers a point lookup by scanning levels in index order (0,
// 1, 2, ...), returning the first hit.
func (t *Tree) Read(key string) (value string, found bool, err error) {
	for _, lvl := range t.levels {
		value, found, err := lvl.Read(t.fs, key)
		if err != nil {
			return "", false, fmt.Errorf("tree: read %s from %s: %w", key, t.name, err)
		}
		if found {
			return value, true, nil
		}
	}
	return "", false, nil
}

type generationSpan struct{ min, max uint64 }

// parseIndexBaseName splits a "{prefix}-{L}-{G}" base name (with the
// prefix and suffix already stripped) into its level and generation.
// ok is false if baseName doesn't belong to this tree at all.
func parseIndexBaseName(prefix, baseName string) (levelIdx int, gen uint64, ok bool, err error) {
	want := prefix + "-"
	if !strings.HasPrefix(baseName, want) {
		return 0, 0, false, nil
	}
	rest := baseName[len(want):]

	parts := strings.Split(rest, "-")
	if len(parts) != 2 {
		return 0, 0, false, fmt.Errorf("tree: %s: %w", baseName, errs.ErrBadFile)
	}

	levelIdx, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, false, fmt.Errorf("tree: %s: bad level %q: %w", baseName, parts[0], err)
	}
	gen, err = strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		return 0, 0, false, fmt.Errorf("tree: %s: bad generation %q: %w", baseName, parts[1], err)
	}
	return levelIdx, gen, true, nil
}

// splitNameForListing splits a tree name into the directory to list
// and the prefix to filter by, the way the source does: everything
// after the last '/' is the prefix, everything before it is the
// directory (or "." if there is no '/').
func splitNameForListing(name string) (dir, prefix string) {
	if idx := strings.LastIndex(name, "/"); idx >= 0 {
		return name[:idx], name[idx+1:]
	}
	return ".", name
}

// Load reconstructs a tree named name by listing name's directory,
// keeping only ".index" files whose base name matches this tree's
// naming convention, and rebuilding each level's queue as the
// contiguous generation range observed for it (spec §4.5). A
// directory with no matching files yields an empty (zero-level) tree,
// not an error. Unlike the source, a gap between populated level
// indices is filled with an empty level rather than left to panic —
// see DESIGN.md.
func Load(fs storagefs.FileSystem, name string, scalingFactor int) (*Tree, error) {
	if scalingFactor <= 0 {
		scalingFactor = 1
	}

	dir, prefix := splitNameForListing(name)
	entries, err := fs.ListDir(dir)
	if err != nil {
		return nil, fmt.Errorf("tree: load %s: list %s: %w", name, dir, err)
	}

	spans := make(map[int]*generationSpan)
	maxLevel := -1
	for _, entry := range entries {
		base := filepath.Base(entry)
		if !strings.HasSuffix(base, ".index") {
			continue
		}
		baseName := strings.TrimSuffix(base, ".index")

		levelIdx, gen, ok, err := parseIndexBaseName(prefix, baseName)
		if err != nil {
			return nil, fmt.Errorf("tree: load %s: %w", name, err)
		}
		if !ok {
			continue
		}

		if sp, exists := spans[levelIdx]; exists {
			if gen < sp.min {
				sp.min = gen
			}
			if gen > sp.max {
				sp.max = gen
			}
		} else {
			spans[levelIdx] = &generationSpan{min: gen, max: gen}
		}
		if levelIdx > maxLevel {
			maxLevel = levelIdx
		}
	}

	t := New(fs, name, scalingFactor)
	for idx := 0; idx <= maxLevel; idx++ {
		id := fmt.Sprintf("%s-%d", name, idx)
		capacity := (idx + 1) * scalingFactor
		if sp, ok := spans[idx]; ok {
			t.levels = append(t.levels, level.NewFromRange(id, capacity, sp.min, sp.max))
		} else {
			t.levels = append(t.levels, level.New(id, capacity))
		}
	}

	slothlog.WithTree(t.log, name).WithFields(logrus.Fields{"levels": len(t.levels)}).Info("loaded tree from disk")
	return t, nil
}
