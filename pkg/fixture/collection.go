// Package fixture provides instrumented collection types for exercising
// generic position-based algorithms against a worst-case-compliant container.
// Every mutator first computes the successor provenance state for the exact
// operation it performs, then mutates storage, then adopts the new state;
// every element access proves the supplied index compatible with the current
// state before touching storage.
package fixture

import (
	"fmt"
	"slices"

	"seqprov/pkg/provenance"
)

// Registry is the slice of the provenance registry the collections consume.
// *provenance.Registry satisfies it; an instrumented session may stand in.
type Registry interface {
	FreshRoot(elementCount int) *provenance.State
	NamedRoot(name string, elementCount int) *provenance.State
	Transition(prev *provenance.State, op provenance.Operation) *provenance.State
}

// Oracle is the compatibility surface the collections route index use
// through. *provenance.Checker satisfies it.
type Oracle interface {
	CheckCompatible(a, b provenance.Index) error
	CheckRange(ix provenance.Index, bounds provenance.Range) error
}

// collection is the storage core shared by the three traversal tiers.
type collection[T any] struct {
	reg   Registry
	chk   Oracle
	state *provenance.State
	elems []T
}

func newCollection[T any](reg Registry, chk Oracle, elems []T) collection[T] {
	if reg == nil {
		reg = provenance.Default()
	}
	if chk == nil {
		chk = provenance.DefaultChecker()
	}
	owned := append([]T(nil), elems...)
	return collection[T]{reg: reg, chk: chk, state: reg.FreshRoot(len(owned)), elems: owned}
}

func newNamedCollection[T any](reg Registry, chk Oracle, name string, elems []T) collection[T] {
	if reg == nil {
		reg = provenance.Default()
	}
	if chk == nil {
		chk = provenance.DefaultChecker()
	}
	owned := append([]T(nil), elems...)
	return collection[T]{reg: reg, chk: chk, state: reg.NamedRoot(name, len(owned)), elems: owned}
}

// Len returns the current element count.
func (c *collection[T]) Len() int { return len(c.elems) }

// State returns the provenance state currently adopted by the collection.
func (c *collection[T]) State() *provenance.State { return c.state }

// mutate runs one catalogued mutation: successor state first, storage second,
// adoption last. op must describe exactly the storage edit performed.
func (c *collection[T]) mutate(op provenance.Operation, edit func()) {
	next := c.reg.Transition(c.state, op)
	edit()
	c.state = next
}

// Append appends one element. Existing indices stay valid.
func (c *collection[T]) Append(v T) {
	c.mutate(provenance.Append(), func() { c.elems = append(c.elems, v) })
}

// AppendMany appends the given elements. Existing indices stay valid.
func (c *collection[T]) AppendMany(vs ...T) {
	c.mutate(provenance.AppendMany(len(vs)), func() { c.elems = append(c.elems, vs...) })
}

// Reserve grows capacity to at least capacity elements. Values and length are
// unchanged, but every previously issued index is invalidated: the backing
// storage may have relocated.
func (c *collection[T]) Reserve(capacity int) {
	c.mutate(provenance.Reserve(capacity), func() {
		if capacity > cap(c.elems) {
			grown := make([]T, len(c.elems), capacity)
			copy(grown, c.elems)
			c.elems = grown
		}
	})
}

// Clear removes every element.
func (c *collection[T]) Clear(keepCapacity bool) {
	c.mutate(provenance.Clear(keepCapacity), func() {
		if keepCapacity {
			c.elems = c.elems[:0]
		} else {
			c.elems = nil
		}
	})
}

// InsertOne inserts v at position at, invalidating indices at or past it.
func (c *collection[T]) InsertOne(at int, v T) error {
	if at < 0 || at > len(c.elems) {
		return fmt.Errorf("insert position %d outside [0, %d]", at, len(c.elems))
	}
	c.mutate(provenance.InsertOne(at), func() { c.elems = slices.Insert(c.elems, at, v) })
	return nil
}

// InsertMany inserts the given elements at position at.
func (c *collection[T]) InsertMany(at int, vs ...T) error {
	if at < 0 || at > len(c.elems) {
		return fmt.Errorf("insert position %d outside [0, %d]", at, len(c.elems))
	}
	c.mutate(provenance.InsertMany(at, len(vs)), func() { c.elems = slices.Insert(c.elems, at, vs...) })
	return nil
}

// RemoveOne removes and returns the element at position at.
func (c *collection[T]) RemoveOne(at int) (T, error) {
	var zero T
	if at < 0 || at >= len(c.elems) {
		return zero, fmt.Errorf("remove position %d outside [0, %d)", at, len(c.elems))
	}
	removed := c.elems[at]
	c.mutate(provenance.RemoveOne(at), func() { c.elems = slices.Delete(c.elems, at, at+1) })
	return removed, nil
}

// RemoveLast removes and returns the final element. Indices to the remaining
// elements stay valid.
func (c *collection[T]) RemoveLast() (T, error) {
	var zero T
	if len(c.elems) == 0 {
		return zero, fmt.Errorf("remove last on empty collection")
	}
	removed := c.elems[len(c.elems)-1]
	c.mutate(provenance.RemoveLast(), func() { c.elems = c.elems[:len(c.elems)-1] })
	return removed, nil
}

// RemoveRange removes the elements in span.
func (c *collection[T]) RemoveRange(span provenance.Range) error {
	if err := c.validSpan(span); err != nil {
		return err
	}
	c.mutate(provenance.RemoveRange(span), func() { c.elems = slices.Delete(c.elems, span.Start, span.End) })
	return nil
}

// ReplaceRange replaces the elements in span with vs.
func (c *collection[T]) ReplaceRange(span provenance.Range, vs ...T) error {
	if err := c.validSpan(span); err != nil {
		return err
	}
	c.mutate(provenance.ReplaceRange(span, len(vs)), func() {
		c.elems = slices.Concat(c.elems[:span.Start], vs, c.elems[span.End:])
	})
	return nil
}

func (c *collection[T]) validSpan(span provenance.Range) error {
	if span.Start < 0 || span.End < span.Start || span.End > len(c.elems) {
		return fmt.Errorf("span [%d, %d) outside [0, %d)", span.Start, span.End, len(c.elems))
	}
	return nil
}

// verify proves ix usable against the current state: provenance first, then
// the fail-early range guard.
func (c *collection[T]) verify(ix provenance.Index) error {
	if p := ix.Position(); p >= 0 && p <= len(c.elems) {
		current := provenance.NewIndex(p, 0, len(c.elems), c.state)
		if err := c.chk.CheckCompatible(ix, current); err != nil {
			return err
		}
	}
	return c.chk.CheckRange(ix, provenance.Range{Start: 0, End: len(c.elems)})
}

// at returns the element ix addresses.
func (c *collection[T]) at(ix provenance.Index) (T, error) {
	if err := c.verify(ix); err != nil {
		var zero T
		return zero, err
	}
	return c.elems[ix.Position()], nil
}

// set overwrites the element ix addresses. Writing a value does not change
// any position, so no state transition occurs: the model tracks positions,
// not values.
func (c *collection[T]) set(ix provenance.Index, v T) error {
	if err := c.verify(ix); err != nil {
		return err
	}
	c.elems[ix.Position()] = v
	return nil
}

// carve validates a sub-range for slicing.
func (c *collection[T]) carve(i, j int) error {
	if i < 0 || j < i || j > len(c.elems) {
		return fmt.Errorf("slice bounds [%d, %d] outside [0, %d]", i, j, len(c.elems))
	}
	return nil
}
