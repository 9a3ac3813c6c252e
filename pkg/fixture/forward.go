package fixture

import "seqprov/pkg/provenance"

// ForwardCollection hands out forward-only indices: the weakest traversal
// contract a generic algorithm may rely on.
type ForwardCollection[T any] struct {
	collection[T]
}

// NewForwardCollection constructs a forward collection from initial elements,
// rooted at a fresh state. Nil registry or oracle select the package
// defaults.
func NewForwardCollection[T any](reg Registry, chk Oracle, elems ...T) *ForwardCollection[T] {
	return &ForwardCollection[T]{collection: newCollection(reg, chk, elems)}
}

// NewForwardCollectionNamed roots the collection at the interned state for
// name, so independently constructed instances of one fixture kind compare as
// index-compatible. Every construction under one name must use the same
// initial element count.
func NewForwardCollectionNamed[T any](reg Registry, chk Oracle, name string, elems ...T) *ForwardCollection[T] {
	return &ForwardCollection[T]{collection: newNamedCollection(reg, chk, name, elems)}
}

// StartIndex returns the index of the first element under the current state.
func (f *ForwardCollection[T]) StartIndex() provenance.ForwardIndex {
	return provenance.NewForwardIndex(0, 0, f.Len(), f.state)
}

// EndIndex returns the one-past-last index under the current state.
func (f *ForwardCollection[T]) EndIndex() provenance.ForwardIndex {
	return provenance.NewForwardIndex(f.Len(), 0, f.Len(), f.state)
}

// IndexAt issues an index for the given position under the current state.
func (f *ForwardCollection[T]) IndexAt(position int) provenance.ForwardIndex {
	return provenance.NewForwardIndex(position, 0, f.Len(), f.state)
}

// At returns the element ix addresses, after proving ix still describes it.
func (f *ForwardCollection[T]) At(ix provenance.ForwardIndex) (T, error) {
	return f.at(ix.Index)
}

// Set overwrites the element ix addresses. No state transition: positions are
// unchanged.
func (f *ForwardCollection[T]) Set(ix provenance.ForwardIndex, v T) error {
	return f.set(ix.Index, v)
}

// Slice issues the index pair carving the read-only view [i, j) under the
// current state.
func (f *ForwardCollection[T]) Slice(i, j int) (start, end provenance.ForwardIndex, err error) {
	if err := f.carve(i, j); err != nil {
		return start, end, err
	}
	return provenance.NewForwardIndex(i, i, j, f.state), provenance.NewForwardIndex(j, i, j, f.state), nil
}
