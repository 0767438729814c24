package record

import "github.com/intellect4all/slothdb/mergeiter"

// Result carries either a successfully decoded Record or the error
// encountered while decoding one line of an index file. SSTable
// iteration yields a stream of Results rather than aborting on the
// first malformed line (spec: "the stream yields Err for malformed
// lines without aborting the rest").
type Result struct {
	Rec Record
	Err error
}

func Ok(r Record) Result       { return Result{Rec: r} }
func Errf(err error) Result    { return Result{Err: err} }
func (r Result) IsErr() bool   { return r.Err != nil }

// CompareResults is the MergeIterator decision function used when
// merging two SSTables. An error on either side is propagated
// immediately (emitted, not both sides dropped) rather than compared;
// two successful records fall back to Compare's latest-writer-wins
// semantics. The caller must pass the newer table's stream as left.
func CompareResults(left, right Result) mergeiter.Decision {
	switch {
	case left.IsErr():
		return mergeiter.Decision{Left: true}
	case right.IsErr():
		return mergeiter.Decision{Left: false}
	default:
		decision, drop := Compare(left.Rec, right.Rec)
		return mergeiter.Decision{Left: decision == TakeLeft, DropOther: drop}
	}
}
