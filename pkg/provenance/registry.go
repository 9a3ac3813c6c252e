package provenance

import "sync"

// transitionKey interns one (previous state, operation) edge. Operation is
// comparable with normalized unused fields, so structural equality of the key
// is semantic equality of the edge.
type transitionKey struct {
	prev StateID
	op   Operation
}

// Registry allocates state identities and interns state transitions. Applying
// the same operation to the same state always yields the identical *State,
// across unrelated fixtures sharing the registry; that is what lets two
// independently mutated fixtures with equal edit histories be recognized as
// index-compatible.
//
// A registry is scoped to whatever lifetime its caller chooses, typically one
// test run. It retains every state it ever creates, so states outlive all
// indices derived from them. Methods are safe for concurrent use; the lock
// serializes table access so the memo stays globally consistent.
type Registry struct {
	mu     sync.Mutex
	nextID StateID
	memo   map[transitionKey]*State
	roots  map[string]*State

	statesCreated uint64
	memoHits      uint64
}

// RegistryStats reports cumulative registry activity.
type RegistryStats struct {
	States     uint64 `json:"states"`
	MemoHits   uint64 `json:"memo_hits"`
	NamedRoots int    `json:"named_roots"`
}

// NewRegistry returns an empty registry with its own identity space.
func NewRegistry() *Registry {
	return &Registry{
		memo:  make(map[transitionKey]*State),
		roots: make(map[string]*State),
	}
}

var defaultRegistry = NewRegistry()

// Default returns the shared process-wide registry used when callers do not
// scope one explicitly.
func Default() *Registry { return defaultRegistry }

// FreshRoot allocates a root state for a collection constructed with
// elementCount initial elements. Every slot is attributed to the new state.
func (r *Registry) FreshRoot(elementCount int) *State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.newState(elementCount)
}

// NamedRoot returns the interned root state for name, creating it on first
// use. All default-constructed fixtures of one kind share a single root
// identity and therefore compare as index-compatible.
func (r *Registry) NamedRoot(name string, elementCount int) *State {
	r.mu.Lock()
	defer r.mu.Unlock()
	if st, ok := r.roots[name]; ok {
		return st
	}
	st := r.newState(elementCount)
	r.roots[name] = st
	return st
}

// Transition returns the successor of prev under op. Memoized: for a fixed
// (prev, op) pair the identical *State is returned on every call.
func (r *Registry) Transition(prev *State, op Operation) *State {
	next, _ := r.TransitionInfo(prev, op)
	return next
}

// TransitionInfo is Transition plus whether the edge was served from the memo
// table rather than freshly computed.
func (r *Registry) TransitionInfo(prev *State, op Operation) (*State, bool) {
	if prev == nil {
		panic("provenance: Transition on nil state")
	}
	key := transitionKey{prev: prev.id, op: op}
	r.mu.Lock()
	defer r.mu.Unlock()
	if next, ok := r.memo[key]; ok {
		r.memoHits++
		return next, true
	}
	next := r.allocState()
	next.slots = apply(prev.slots, op, next.id)
	r.memo[key] = next
	return next, false
}

// Stats returns a snapshot of cumulative registry counters.
func (r *Registry) Stats() RegistryStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return RegistryStats{States: r.statesCreated, MemoHits: r.memoHits, NamedRoots: len(r.roots)}
}

// newState allocates a state whose slots are all attributed to itself.
// Callers must hold r.mu.
func (r *Registry) newState(elementCount int) *State {
	st := r.allocState()
	st.slots = filled(elementCount, st.id)
	return st
}

// allocState mints a state with the next identity and no slots yet. Callers
// must hold r.mu.
func (r *Registry) allocState() *State {
	r.nextID++
	r.statesCreated++
	return &State{id: r.nextID}
}
