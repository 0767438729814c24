// Package sstable implements the on-disk SSTable codec: an immutable
// pair of index/data files per spec §6, written once by Flush and
// read by FileContains, Read, and Iterate. Compaction is implemented
// as MergeAndFlush: a k-way (here two-way) sorted merge of two
// existing tables into a freshly flushed one.
package sstable

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/intellect4all/slothdb/errs"
	"github.com/intellect4all/slothdb/mergeiter"
	"github.com/intellect4all/slothdb/record"
	"github.com/intellect4all/slothdb/storagefs"
)

const (
	indexSuffix = ".index"
	dataSuffix  = ".data"
)

// IndexPath returns the index file path for the table named base.
func IndexPath(base string) string { return base + indexSuffix }

// DataPath returns the data file path for the table named base.
func DataPath(base string) string { return base + dataSuffix }

// position locates a value within a table's data file.
type position struct {
	offset uint32
	length uint32
}

// Flush writes a sorted, unique-key stream of records to base's index
// and data files, replacing whatever was there. The data file is the
// concatenation of every value in order; the index file is one
// "key:offset,length" line per record, newline-separated, with no
// trailing newline.
func Flush(fs storagefs.FileSystem, base string, records mergeiter.Stream[record.Record]) error {
	var data strings.Builder
	var indexLines []string

	var offset uint32
	for {
		rec, ok := records.Next()
		if !ok {
			break
		}
		if !rec.KeyValid() {
			return fmt.Errorf("sstable: flush %s: key %q: %w", base, rec.Key, errs.ErrInvalidRecord)
		}

		length := uint32(len(rec.Value))
		indexLines = append(indexLines, fmt.Sprintf("%s:%d,%d", rec.Key, offset, length))
		data.WriteString(rec.Value)
		offset += length
	}

	if err := fs.WriteFile(DataPath(base), []byte(data.String())); err != nil {
		return fmt.Errorf("sstable: write data file %s: %w", DataPath(base), err)
	}
	if err := fs.WriteFile(IndexPath(base), []byte(strings.Join(indexLines, "\n"))); err != nil {
		return fmt.Errorf("sstable: write index file %s: %w", IndexPath(base), err)
	}
	return nil
}

// parseIndexLine decodes a "key:offset,length" line. The ':' boundary
// is mandatory: a bare prefix match on the key alone would false
// positive for keys that are prefixes of other keys (spec §9, open
// question 3).
func parseIndexLine(base, line string) (key string, pos position, err error) {
	colon := strings.IndexByte(line, ':')
	if colon < 0 {
		return "", position{}, fmt.Errorf("sstable: %s: line %q has no key boundary: %w", base, line, errs.ErrBadFile)
	}
	key = line[:colon]
	rest := line[colon+1:]

	comma := strings.IndexByte(rest, ',')
	if comma < 0 {
		return "", position{}, fmt.Errorf("sstable: %s: line %q has no offset/length boundary: %w", base, line, errs.ErrBadFile)
	}

	offset, err := strconv.ParseUint(rest[:comma], 10, 32)
	if err != nil {
		return "", position{}, fmt.Errorf("sstable: %s: bad offset %q: %w", base, rest[:comma], err)
	}
	length, err := strconv.ParseUint(rest[comma+1:], 10, 32)
	if err != nil {
		return "", position{}, fmt.Errorf("sstable: %s: bad length %q: %w", base, rest[comma+1:], err)
	}

	return key, position{offset: uint32(offset), length: uint32(length)}, nil
}

// findPosition scans base's index file line by line for key, enforcing
// the ':' boundary so "ra" never matches a line starting with "raths:".
func findPosition(fs storagefs.FileSystem, base, key string) (position, bool, error) {
	reader, err := fs.OpenForLines(IndexPath(base))
	if err != nil {
		return position{}, false, fmt.Errorf("sstable: open index %s: %w", IndexPath(base), err)
	}
	defer reader.Close()

	prefix := key + ":"
	for {
		line, ok, err := reader.ReadLine()
		if err != nil {
			return position{}, false, fmt.Errorf("sstable: read index %s: %w", IndexPath(base), err)
		}
		if !ok {
			return position{}, false, nil
		}
		if strings.HasPrefix(line, prefix) {
			_, pos, err := parseIndexLine(base, line)
			if err != nil {
				return position{}, false, err
			}
			return pos, true, nil
		}
	}
}

// FileContains reports whether base's index contains key, without
// reading the data file.
func FileContains(fs storagefs.FileSystem, base, key string) (bool, error) {
	_, found, err := findPosition(fs, base, key)
	if err != nil {
		return false, err
	}
	return found, nil
}

// Read returns key's value from base, or found=false if it's absent.
func Read(fs storagefs.FileSystem, base, key string) (value string, found bool, err error) {
	pos, found, err := findPosition(fs, base, key)
	if err != nil || !found {
		return "", found, err
	}
	data, err := fs.ReadRange(DataPath(base), int64(pos.offset), int64(pos.length))
	if err != nil {
		return "", false, fmt.Errorf("sstable: read data %s: %w", DataPath(base), err)
	}
	return string(data), true, nil
}

// Iterate lazily yields base's records in index order. A malformed
// line surfaces as an Err entry in the stream without aborting the
// rest of the scan (spec §4.3).
func Iterate(fs storagefs.FileSystem, base string) (mergeiter.Stream[record.Result], error) {
	reader, err := fs.OpenForLines(IndexPath(base))
	if err != nil {
		return nil, fmt.Errorf("sstable: open index %s: %w", IndexPath(base), err)
	}

	return mergeiter.FuncStream[record.Result]{Pull: func() (record.Result, bool) {
		line, ok, err := reader.ReadLine()
		if err != nil {
			return record.Errf(fmt.Errorf("sstable: read index %s: %w", IndexPath(base), err)), true
		}
		if !ok {
			reader.Close()
			return record.Result{}, false
		}

		key, pos, err := parseIndexLine(base, line)
		if err != nil {
			return record.Errf(err), true
		}

		data, err := fs.ReadRange(DataPath(base), int64(pos.offset), int64(pos.length))
		if err != nil {
			return record.Errf(fmt.Errorf("sstable: read data %s: %w", DataPath(base), err)), true
		}

		return record.Ok(record.Record{Key: key, Value: string(data)}), true
	}}, nil
}

// Delete removes both of base's files.
func Delete(fs storagefs.FileSystem, base string) error {
	if err := fs.Remove(IndexPath(base)); err != nil {
		return fmt.Errorf("sstable: remove %s: %w", IndexPath(base), err)
	}
	if err := fs.Remove(DataPath(base)); err != nil {
		return fmt.Errorf("sstable: remove %s: %w", DataPath(base), err)
	}
	return nil
}

// MergeAndFlush merges newerBase and olderBase into a freshly flushed
// table at destBase. newerBase must be the more recently written of
// the two: on a key collision, the newer value wins and the older one
// is dropped (latest-writer-wins, spec §4.2/§4.3). A malformed line on
// either side aborts the merge with that error, rather than being
// silently skipped or panicking (spec §7: "errors are returned, not
// thrown" — a stricter policy than the original source's behavior of
// unwrapping and panicking on a per-record error mid-merge).
func MergeAndFlush(fs storagefs.FileSystem, newerBase, olderBase, destBase string) error {
	newer, err := Iterate(fs, newerBase)
	if err != nil {
		return err
	}
	older, err := Iterate(fs, olderBase)
	if err != nil {
		return err
	}

	merged := mergeiter.New[record.Result](newer, older, record.CompareResults)

	var records []record.Record
	for {
		res, ok := merged.Next()
		if !ok {
			break
		}
		if res.IsErr() {
			return fmt.Errorf("sstable: merge %s + %s: %w", newerBase, olderBase, res.Err)
		}
		records = append(records, res.Rec)
	}

	return Flush(fs, destBase, mergeiter.NewSliceStream(records))
}
