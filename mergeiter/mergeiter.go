// Package mergeiter implements a generic, lazy two-way merge over
// sorted streams: it peeks the head of each side, asks a decision
// function which one to emit, and optionally advances the other side
// too (the mechanism used by the LSM tree to drop a shadowed key
// during compaction).
package mergeiter

// Stream is a pull-based, lazily-evaluated sequence of T. Next
// returns the next item and true, or the zero value and false once
// the stream is exhausted. Implementations in this package are used
// both for plain in-memory slices (tests, the Client's sorted batch)
// and for SSTable index scans, which read one line at a time.
type Stream[T any] interface {
	Next() (T, bool)
}

// SliceStream adapts a pre-sorted slice into a Stream.
type SliceStream[T any] struct {
	items []T
	pos   int
}

func NewSliceStream[T any](items []T) *SliceStream[T] {
	return &SliceStream[T]{items: items}
}

func (s *SliceStream[T]) Next() (T, bool) {
	if s.pos >= len(s.items) {
		var zero T
		return zero, false
	}
	v := s.items[s.pos]
	s.pos++
	return v, true
}

// FuncStream adapts a pull function into a Stream, for sources (like
// an open index file) that produce items one at a time.
type FuncStream[T any] struct {
	Pull func() (T, bool)
}

func (s FuncStream[T]) Next() (T, bool) {
	return s.Pull()
}

// Decision is the result of comparing the peeked heads of two
// streams: which one to emit next, and whether the other stream's
// head should be silently discarded rather than examined again.
type Decision struct {
	Left      bool
	DropOther bool
}

// CompareFunc decides, given the current heads of both streams, which
// one the merge should emit.
type CompareFunc[T any] func(left, right T) Decision

// peekable buffers at most one pulled item so peek() can be called
// repeatedly without consuming the stream.
type peekable[T any] struct {
	src     Stream[T]
	buf     T
	buffered bool
	done    bool
}

func newPeekable[T any](src Stream[T]) *peekable[T] {
	return &peekable[T]{src: src}
}

func (p *peekable[T]) peek() (T, bool) {
	if p.done {
		var zero T
		return zero, false
	}
	if !p.buffered {
		v, ok := p.src.Next()
		if !ok {
			p.done = true
			var zero T
			return zero, false
		}
		p.buf = v
		p.buffered = true
	}
	return p.buf, true
}

func (p *peekable[T]) advance() {
	p.buffered = false
}

// MergeIterator lazily interleaves two sorted streams of the same
// element type under a pluggable decision function.
type MergeIterator[T any] struct {
	left, right *peekable[T]
	cmp         CompareFunc[T]
}

// New builds a MergeIterator over left and right, using cmp to decide
// which head to emit at each step. The caller is responsible for
// passing the streams in whatever order their decision function
// expects (e.g. newer-first, for latest-writer-wins compaction).
func New[T any](left, right Stream[T], cmp CompareFunc[T]) *MergeIterator[T] {
	return &MergeIterator[T]{
		left:  newPeekable(left),
		right: newPeekable(right),
		cmp:   cmp,
	}
}

// Next returns the merged stream's next item, or false once both
// inputs are exhausted.
func (m *MergeIterator[T]) Next() (T, bool) {
	lv, lok := m.left.peek()
	rv, rok := m.right.peek()

	switch {
	case lok && rok:
		d := m.cmp(lv, rv)
		if d.Left {
			if d.DropOther {
				m.right.advance()
			}
			m.left.advance()
			return lv, true
		}
		if d.DropOther {
			m.left.advance()
		}
		m.right.advance()
		return rv, true
	case lok:
		m.left.advance()
		return lv, true
	case rok:
		m.right.advance()
		return rv, true
	default:
		var zero T
		return zero, false
	}
}

// Ordered is the subset of comparable scalar types the stdlib cmp
// package recognizes as naturally ordered.
type Ordered interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr |
		~float32 | ~float64 | ~string
}

// CompareOrdered is the default decision function for plain ordered
// types: the smaller head wins, no deduplication. This is the
// specialization spec.md §9 calls out for "T: Ord" uses (tests and
// any future caller that just wants a sorted union of two streams).
func CompareOrdered[T Ordered](left, right T) Decision {
	return Decision{Left: left <= right}
}
