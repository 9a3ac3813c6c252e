package provenance

import "fmt"

// BoundsError describes a position outside the bounds an index was carved
// within. It is delivered by panic at the violation point: exceeding an
// index's bounds is a usage error by the harness consumer, never recovered
// internally.
type BoundsError struct {
	Op       string // the operation that tripped the check
	Position int
	Start    int
	End      int
}

func (e *BoundsError) Error() string {
	return fmt.Sprintf("provenance: %s: position %d outside bounds [%d, %d]", e.Op, e.Position, e.Start, e.End)
}

// Index is the shared shape of all three traversal tiers: an absolute
// position into the current underlying storage, the bounds the index was
// carved within, and a non-owning reference to the collection state live when
// the index was issued. The state may be nil for sentinel indices not tied to
// a tracked collection.
type Index struct {
	position int
	start    int
	end      int
	state    *State
}

// NewIndex constructs the shared index shape, enforcing
// start <= position <= end.
func NewIndex(position, start, end int, state *State) Index {
	if position < start || position > end {
		panic(&BoundsError{Op: "index", Position: position, Start: start, End: end})
	}
	return Index{position: position, start: start, end: end, state: state}
}

// Position returns the absolute position into the underlying storage.
func (ix Index) Position() int { return ix.position }

// Start returns the lower bound the index was carved within.
func (ix Index) Start() int { return ix.start }

// End returns the upper bound (one past the last valid element position).
func (ix Index) End() int { return ix.end }

// Offset returns the position relative to the carve's start.
func (ix Index) Offset() int { return ix.position - ix.start }

// State returns the collection state the index was issued under, or nil for
// an untracked sentinel.
func (ix Index) State() *State { return ix.state }

// shifted returns the index displaced by, verifying the result stays within
// [start, end]. op labels the traversal for diagnostics.
func (ix Index) shifted(by int, op string) Index {
	p := ix.position + by
	if p < ix.start || p > ix.end {
		panic(&BoundsError{Op: op, Position: p, Start: ix.start, End: ix.end})
	}
	out := ix
	out.position = p
	return out
}

// ForwardIndex supports forward traversal only.
type ForwardIndex struct {
	Index
}

// NewForwardIndex constructs a forward index.
func NewForwardIndex(position, start, end int, state *State) ForwardIndex {
	return ForwardIndex{Index: NewIndex(position, start, end, state)}
}

// Successor returns the index one position forward.
func (ix ForwardIndex) Successor() ForwardIndex {
	return ForwardIndex{Index: ix.shifted(1, "successor")}
}

// BidirectionalIndex supports traversal in both directions.
type BidirectionalIndex struct {
	Index
}

// NewBidirectionalIndex constructs a bidirectional index.
func NewBidirectionalIndex(position, start, end int, state *State) BidirectionalIndex {
	return BidirectionalIndex{Index: NewIndex(position, start, end, state)}
}

// Successor returns the index one position forward.
func (ix BidirectionalIndex) Successor() BidirectionalIndex {
	return BidirectionalIndex{Index: ix.shifted(1, "successor")}
}

// Predecessor returns the index one position back.
func (ix BidirectionalIndex) Predecessor() BidirectionalIndex {
	return BidirectionalIndex{Index: ix.shifted(-1, "predecessor")}
}

// RandomAccessIndex adds constant-time displacement and distance.
type RandomAccessIndex struct {
	Index
}

// NewRandomAccessIndex constructs a random-access index.
func NewRandomAccessIndex(position, start, end int, state *State) RandomAccessIndex {
	return RandomAccessIndex{Index: NewIndex(position, start, end, state)}
}

// Successor returns the index one position forward.
func (ix RandomAccessIndex) Successor() RandomAccessIndex {
	return ix.Advance(1)
}

// Predecessor returns the index one position back.
func (ix RandomAccessIndex) Predecessor() RandomAccessIndex {
	return ix.Advance(-1)
}

// Advance returns the index displaced by n positions, in O(1).
func (ix RandomAccessIndex) Advance(n int) RandomAccessIndex {
	return RandomAccessIndex{Index: ix.shifted(n, "advance")}
}

// Distance returns the signed number of positions from ix to other, in O(1).
func (ix RandomAccessIndex) Distance(other RandomAccessIndex) int {
	return other.position - ix.position
}
