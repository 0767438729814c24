package sstable_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intellect4all/slothdb/mergeiter"
	"github.com/intellect4all/slothdb/record"
	"github.com/intellect4all/slothdb/sstable"
	"github.com/intellect4all/slothdb/storagefs"
)

func flushAll(t *testing.T, fs storagefs.FileSystem, base string, recs []record.Record) {
	t.Helper()
	require.NoError(t, sstable.Flush(fs, base, mergeiter.NewSliceStream(recs)))
}

// S2: index binary positions.
func TestFlushWritesExpectedDataAndIndex(t *testing.T) {
	fs := storagefs.NewMemory()
	recs := []record.Record{
		{Key: "bar", Value: "barble"},
		{Key: "baz", Value: "bazzle"},
		{Key: "daz", Value: "dazzle"},
		{Key: "foo", Value: "fooble"},
		{Key: "raz", Value: "razzle"},
	}
	flushAll(t, fs, "T", recs)

	data, err := fs.ReadFile(sstable.DataPath("T"))
	require.NoError(t, err)
	assert.Equal(t, "barblebazzledazzlefooblerazzle", string(data))

	index, err := fs.ReadFile(sstable.IndexPath("T"))
	require.NoError(t, err)
	assert.Equal(t, "bar:0,6\nbaz:6,6\ndaz:12,6\nfoo:18,6\nraz:24,6", string(index))
}

// S3: prefix trap — file_contains must not false-positive on a key
// that is a prefix of another live key.
func TestFileContainsEnforcesColonBoundary(t *testing.T) {
	fs := storagefs.NewMemory()
	flushAll(t, fs, "T", []record.Record{
		{Key: "and", Value: "A"},
		{Key: "the", Value: "B"},
		{Key: "mome", Value: "C"},
		{Key: "raths", Value: "D"},
		{Key: "outgrabe", Value: "E"},
	})

	cases := map[string]bool{
		"and":   true,
		"raths": true,
		"foo":   false,
		"ra":    false,
	}
	for key, want := range cases {
		got, err := sstable.FileContains(fs, "T", key)
		require.NoError(t, err)
		assert.Equalf(t, want, got, "file_contains(%q)", key)
	}
}

func TestReadReturnsStoredValue(t *testing.T) {
	fs := storagefs.NewMemory()
	flushAll(t, fs, "T", []record.Record{
		{Key: "a", Value: "50"},
		{Key: "c", Value: "10512"},
	})

	value, found, err := sstable.Read(fs, "T", "c")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "10512", value)

	_, found, err = sstable.Read(fs, "T", "missing")
	require.NoError(t, err)
	assert.False(t, found)
}

// Invariant 5: flush(B, X); iterate(B) == X.
func TestFlushThenIterateIsIdempotent(t *testing.T) {
	fs := storagefs.NewMemory()
	recs := []record.Record{
		{Key: "a", Value: "1"},
		{Key: "b", Value: "2"},
		{Key: "c", Value: "3"},
	}
	flushAll(t, fs, "T", recs)

	stream, err := sstable.Iterate(fs, "T")
	require.NoError(t, err)

	var got []record.Record
	for {
		res, ok := stream.Next()
		if !ok {
			break
		}
		require.NoError(t, res.Err)
		got = append(got, res.Rec)
	}
	assert.Equal(t, recs, got)
}

func TestDeleteRemovesBothFiles(t *testing.T) {
	fs := storagefs.NewMemory()
	flushAll(t, fs, "T", []record.Record{{Key: "a", Value: "1"}})

	require.NoError(t, sstable.Delete(fs, "T"))

	_, found, err := sstable.Read(fs, "T", "a")
	assert.Error(t, err)
	assert.False(t, found)
}

// S4: merge with disjoint keys.
func TestMergeAndFlushDisjointKeys(t *testing.T) {
	fs := storagefs.NewMemory()
	flushAll(t, fs, "L", []record.Record{
		{Key: "a", Value: "50"},
		{Key: "c", Value: "10512"},
	})
	flushAll(t, fs, "R", []record.Record{
		{Key: "b", Value: "12"},
		{Key: "e", Value: "125"},
	})

	require.NoError(t, sstable.MergeAndFlush(fs, "L", "R", "out"))

	data, err := fs.ReadFile(sstable.DataPath("out"))
	require.NoError(t, err)
	assert.Equal(t, "501210512125", string(data))

	index, err := fs.ReadFile(sstable.IndexPath("out"))
	require.NoError(t, err)
	assert.Equal(t, "a:0,2\nb:2,2\nc:4,5\ne:9,3", string(index))
}

// Invariant 4: latest-writer-wins — the newer (left) table's value
// survives a key collision during merge.
func TestMergeAndFlushNewerWinsOnCollision(t *testing.T) {
	fs := storagefs.NewMemory()
	flushAll(t, fs, "newer", []record.Record{{Key: "k", Value: "new-value"}})
	flushAll(t, fs, "older", []record.Record{{Key: "k", Value: "old-value"}})

	require.NoError(t, sstable.MergeAndFlush(fs, "newer", "older", "out"))

	value, found, err := sstable.Read(fs, "out", "k")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "new-value", value)
}

func TestFlushRejectsReservedByteInKey(t *testing.T) {
	fs := storagefs.NewMemory()
	err := sstable.Flush(fs, "T", mergeiter.NewSliceStream([]record.Record{{Key: "bad:key", Value: "v"}}))
	assert.Error(t, err)
}
