package fixture

import "seqprov/pkg/provenance"

// BidirectionalCollection hands out indices that traverse in both directions.
type BidirectionalCollection[T any] struct {
	collection[T]
}

// NewBidirectionalCollection constructs a bidirectional collection rooted at
// a fresh state. Nil registry or oracle select the package defaults.
func NewBidirectionalCollection[T any](reg Registry, chk Oracle, elems ...T) *BidirectionalCollection[T] {
	return &BidirectionalCollection[T]{collection: newCollection(reg, chk, elems)}
}

// NewBidirectionalCollectionNamed roots the collection at the interned state
// for name. Every construction under one name must use the same initial
// element count.
func NewBidirectionalCollectionNamed[T any](reg Registry, chk Oracle, name string, elems ...T) *BidirectionalCollection[T] {
	return &BidirectionalCollection[T]{collection: newNamedCollection(reg, chk, name, elems)}
}

// StartIndex returns the index of the first element under the current state.
func (b *BidirectionalCollection[T]) StartIndex() provenance.BidirectionalIndex {
	return provenance.NewBidirectionalIndex(0, 0, b.Len(), b.state)
}

// EndIndex returns the one-past-last index under the current state.
func (b *BidirectionalCollection[T]) EndIndex() provenance.BidirectionalIndex {
	return provenance.NewBidirectionalIndex(b.Len(), 0, b.Len(), b.state)
}

// IndexAt issues an index for the given position under the current state.
func (b *BidirectionalCollection[T]) IndexAt(position int) provenance.BidirectionalIndex {
	return provenance.NewBidirectionalIndex(position, 0, b.Len(), b.state)
}

// At returns the element ix addresses, after proving ix still describes it.
func (b *BidirectionalCollection[T]) At(ix provenance.BidirectionalIndex) (T, error) {
	return b.at(ix.Index)
}

// Set overwrites the element ix addresses.
func (b *BidirectionalCollection[T]) Set(ix provenance.BidirectionalIndex, v T) error {
	return b.set(ix.Index, v)
}

// Slice issues the index pair carving the read-only view [i, j) under the
// current state.
func (b *BidirectionalCollection[T]) Slice(i, j int) (start, end provenance.BidirectionalIndex, err error) {
	if err := b.carve(i, j); err != nil {
		return start, end, err
	}
	return provenance.NewBidirectionalIndex(i, i, j, b.state), provenance.NewBidirectionalIndex(j, i, j, b.state), nil
}
