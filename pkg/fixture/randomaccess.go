package fixture

import "seqprov/pkg/provenance"

// RandomAccessCollection hands out indices supporting constant-time
// displacement and distance.
type RandomAccessCollection[T any] struct {
	collection[T]
}

// NewRandomAccessCollection constructs a random-access collection rooted at a
// fresh state. Nil registry or oracle select the package defaults.
func NewRandomAccessCollection[T any](reg Registry, chk Oracle, elems ...T) *RandomAccessCollection[T] {
	return &RandomAccessCollection[T]{collection: newCollection(reg, chk, elems)}
}

// NewRandomAccessCollectionNamed roots the collection at the interned state
// for name. Every construction under one name must use the same initial
// element count.
func NewRandomAccessCollectionNamed[T any](reg Registry, chk Oracle, name string, elems ...T) *RandomAccessCollection[T] {
	return &RandomAccessCollection[T]{collection: newNamedCollection(reg, chk, name, elems)}
}

// StartIndex returns the index of the first element under the current state.
func (r *RandomAccessCollection[T]) StartIndex() provenance.RandomAccessIndex {
	return provenance.NewRandomAccessIndex(0, 0, r.Len(), r.state)
}

// EndIndex returns the one-past-last index under the current state.
func (r *RandomAccessCollection[T]) EndIndex() provenance.RandomAccessIndex {
	return provenance.NewRandomAccessIndex(r.Len(), 0, r.Len(), r.state)
}

// IndexAt issues an index for the given position under the current state.
func (r *RandomAccessCollection[T]) IndexAt(position int) provenance.RandomAccessIndex {
	return provenance.NewRandomAccessIndex(position, 0, r.Len(), r.state)
}

// At returns the element ix addresses, after proving ix still describes it.
func (r *RandomAccessCollection[T]) At(ix provenance.RandomAccessIndex) (T, error) {
	return r.at(ix.Index)
}

// Set overwrites the element ix addresses.
func (r *RandomAccessCollection[T]) Set(ix provenance.RandomAccessIndex, v T) error {
	return r.set(ix.Index, v)
}

// Slice issues the index pair carving the read-only view [i, j) under the
// current state.
func (r *RandomAccessCollection[T]) Slice(i, j int) (start, end provenance.RandomAccessIndex, err error) {
	if err := r.carve(i, j); err != nil {
		return start, end, err
	}
	return provenance.NewRandomAccessIndex(i, i, j, r.state), provenance.NewRandomAccessIndex(j, i, j, r.state), nil
}
