package level_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intellect4all/slothdb/level"
	"github.com/intellect4all/slothdb/mergeiter"
	"github.com/intellect4all/slothdb/record"
	"github.com/intellect4all/slothdb/sstable"
	"github.com/intellect4all/slothdb/storagefs"
)

func TestNewTableMintsContiguousGenerations(t *testing.T) {
	lvl := level.New("T-0", 3)
	assert.Equal(t, "T-0-1", lvl.NewTable())
	assert.Equal(t, "T-0-2", lvl.NewTable())
	assert.Equal(t, []string{"T-0-1", "T-0-2"}, lvl.TableNames())
}

func TestIsFullAtCapacity(t *testing.T) {
	lvl := level.New("T-0", 2)
	assert.False(t, lvl.IsFull())
	lvl.NewTable()
	assert.False(t, lvl.IsFull())
	lvl.NewTable()
	assert.True(t, lvl.IsFull())
}

func TestOldestPairTooSmall(t *testing.T) {
	lvl := level.New("T-0", 2)
	lvl.NewTable()
	_, _, err := lvl.OldestPair()
	assert.Error(t, err)
}

// Invariant 8: monotone, contiguous generations survive a pop.
func TestOldestPairPopsHeadAndLeavesContiguousQueue(t *testing.T) {
	lvl := level.New("T-0", 10)
	lvl.NewTable() // gen 1
	lvl.NewTable() // gen 2
	lvl.NewTable() // gen 3

	older, newer, err := lvl.OldestPair()
	require.NoError(t, err)
	assert.Equal(t, "T-0-1", older)
	assert.Equal(t, "T-0-2", newer)
	assert.Equal(t, []string{"T-0-3"}, lvl.TableNames())
}

func TestReadChecksTablesNewestFirst(t *testing.T) {
	fs := storagefs.NewMemory()
	lvl := level.New("T-0", 10)

	base1 := lvl.NewTable()
	require.NoError(t, sstable.Flush(fs, base1, mergeiter.NewSliceStream([]record.Record{{Key: "k", Value: "old"}})))

	base2 := lvl.NewTable()
	require.NoError(t, sstable.Flush(fs, base2, mergeiter.NewSliceStream([]record.Record{{Key: "k", Value: "new"}})))

	value, found, err := lvl.Read(fs, "k")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "new", value, "newest table (inserted last) must be checked first")
}

func TestReadMissReturnsNotFound(t *testing.T) {
	fs := storagefs.NewMemory()
	lvl := level.New("T-0", 10)
	base := lvl.NewTable()
	require.NoError(t, sstable.Flush(fs, base, mergeiter.NewSliceStream([]record.Record{{Key: "a", Value: "1"}})))

	_, found, err := lvl.Read(fs, "missing")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestNewFromRangeReconstructsQueue(t *testing.T) {
	lvl := level.NewFromRange("T-1", 5, 3, 6)
	assert.Equal(t, []string{"T-1-3", "T-1-4", "T-1-5", "T-1-6"}, lvl.TableNames())

	// The next minted generation continues from the recovered max.
	assert.Equal(t, "T-1-7", lvl.NewTable())
}

func TestBloomCacheSkipsTableDefinitivelyAbsent(t *testing.T) {
	fs := storagefs.NewMemory()
	lvl := level.New("T-0", 10)
	lvl.EnableBloom()

	base := lvl.NewTable()
	require.NoError(t, sstable.Flush(fs, base, mergeiter.NewSliceStream([]record.Record{{Key: "present", Value: "v"}})))
	require.NoError(t, lvl.RefreshBloomFilter(fs, base))

	value, found, err := lvl.Read(fs, "present")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "v", value)

	_, found, err = lvl.Read(fs, "absent")
	require.NoError(t, err)
	assert.False(t, found)
}
