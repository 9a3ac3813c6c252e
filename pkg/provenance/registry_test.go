package provenance

import "testing"

func TestTransitionMemoization(t *testing.T) {
	reg := NewRegistry()
	root := reg.FreshRoot(3)

	s1 := reg.Transition(root, RemoveOne(0))
	s2 := reg.Transition(root, RemoveOne(0))
	if s1 != s2 {
		t.Fatalf("repeated transition returned distinct states: %p vs %p", s1, s2)
	}
	if s1.Len() != 2 {
		t.Fatalf("removeOne on 3 slots: len = %d, want 2", s1.Len())
	}

	// Unrelated edges do not disturb the memo.
	other := reg.FreshRoot(5)
	reg.Transition(other, Append())
	if got := reg.Transition(root, RemoveOne(0)); got != s1 {
		t.Fatalf("memoized edge changed after unrelated transitions")
	}

	st := reg.Stats()
	if st.MemoHits != 2 {
		t.Fatalf("memo hits = %d, want 2", st.MemoHits)
	}
}

func TestTransitionInfoReportsMemoHit(t *testing.T) {
	reg := NewRegistry()
	root := reg.FreshRoot(1)
	if _, hit := reg.TransitionInfo(root, Append()); hit {
		t.Fatalf("first transition reported a memo hit")
	}
	if _, hit := reg.TransitionInfo(root, Append()); !hit {
		t.Fatalf("second identical transition missed the memo")
	}
}

func TestTransitionDistinguishesOperationParameters(t *testing.T) {
	reg := NewRegistry()
	root := reg.FreshRoot(4)
	if reg.Transition(root, RemoveOne(0)) == reg.Transition(root, RemoveOne(1)) {
		t.Fatalf("removeOne(0) and removeOne(1) interned to the same state")
	}
	if reg.Transition(root, Clear(true)) == reg.Transition(root, Clear(false)) {
		t.Fatalf("clear keepCapacity variants interned to the same state")
	}
}

func TestFreshRootAttributesEverySlot(t *testing.T) {
	reg := NewRegistry()
	root := reg.FreshRoot(3)
	for i := 0; i < root.Len(); i++ {
		if root.Slot(i) != root.ID() {
			t.Fatalf("slot %d provenance = %d, want root id %d", i, root.Slot(i), root.ID())
		}
	}
	if next := reg.FreshRoot(0); next.ID() == root.ID() {
		t.Fatalf("fresh roots share an identity")
	}
}

func TestNamedRootInterning(t *testing.T) {
	reg := NewRegistry()
	a := reg.NamedRoot("MinimalFixture", 0)
	b := reg.NamedRoot("MinimalFixture", 0)
	if a != b {
		t.Fatalf("named root minted twice for one name")
	}
	if c := reg.NamedRoot("OtherFixture", 0); c == a {
		t.Fatalf("distinct names share a root state")
	}
	if st := reg.Stats(); st.NamedRoots != 2 {
		t.Fatalf("named roots = %d, want 2", st.NamedRoots)
	}
}

// Two fixtures applying the identical ordered edit sequence must observe
// identity-equal states at every step.
func TestReplayDeterminism(t *testing.T) {
	reg := NewRegistry()
	ops := []Operation{
		Append(),
		InsertMany(1, 2),
		Reserve(32),
		ReplaceRange(Range{Start: 0, End: 2}, 1),
		RemoveLast(),
		Clear(false),
		AppendMany(3),
	}

	root := reg.NamedRoot("ReplayFixture", 0)
	a, b := root, root
	for i, op := range ops {
		a = reg.Transition(a, op)
		b = reg.Transition(b, op)
		if a != b {
			t.Fatalf("step %d (%s): divergent states %d vs %d", i, op.Kind, a.ID(), b.ID())
		}
	}
}

func TestTransitionNilStatePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on nil previous state")
		}
	}()
	NewRegistry().Transition(nil, Append())
}

func TestDefaultRegistryIsStable(t *testing.T) {
	if Default() != Default() {
		t.Fatalf("Default returned distinct registries")
	}
}
