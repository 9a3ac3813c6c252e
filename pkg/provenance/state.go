// Package provenance implements the mutation-history tracking engine used by
// the fixture collections: interned collection states, the catalogue of
// position-affecting operations, bound-checked index shapes, and the
// compatibility oracle that flags reuse of an index after a mutation changed
// the meaning of its position.
package provenance

// StateID uniquely identifies a collection state within one registry.
// IDs are assigned monotonically and never reused.
type StateID uint64

// State is an immutable snapshot of a collection's mutation history. It
// carries one provenance id per currently-live element slot, naming the state
// that most recently wrote that slot. States are created exclusively by a
// Registry and compared by pointer: the registry interns them, so pointer
// equality is identity equality.
type State struct {
	id    StateID
	slots []StateID
}

// ID returns the state's unique identity.
func (s *State) ID() StateID { return s.id }

// Len returns the number of live element slots tracked by the state.
func (s *State) Len() int { return len(s.slots) }

// Slot returns the provenance id recorded for slot i.
func (s *State) Slot(i int) StateID { return s.slots[i] }
