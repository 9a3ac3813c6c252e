package replay

import (
	"fmt"

	"seqprov/internal/session"
	"seqprov/pkg/fixture"
	"seqprov/pkg/provenance"
)

// Tier selects which index tier the trace is replayed against. The mutation
// semantics are identical across tiers; replaying under a weaker tier checks
// that a trace does not depend on random-access capabilities.
type Tier string

const (
	TierForward       Tier = "forward"
	TierBidirectional Tier = "bidirectional"
	TierRandomAccess  Tier = "random-access"
)

// ParseTier validates a tier name from the command line.
func ParseTier(s string) (Tier, error) {
	switch Tier(s) {
	case TierForward, TierBidirectional, TierRandomAccess:
		return Tier(s), nil
	}
	return "", fmt.Errorf("unknown collection tier %q (want forward, bidirectional or random-access)", s)
}

// mutator is the tier-independent mutation surface shared by all collections.
type mutator interface {
	Append(int)
	AppendMany(...int)
	Reserve(int)
	Clear(bool)
	InsertOne(int, int) error
	InsertMany(int, ...int) error
	RemoveOne(int) (int, error)
	RemoveLast() (int, error)
	RemoveRange(provenance.Range) error
	ReplaceRange(provenance.Range, ...int) error
	Len() int
	State() *provenance.State
}

// Result captures the outcome of one replay pass.
type Result struct {
	Final    *provenance.State
	Elements []int
	Applied  int
}

// Replay runs the trace against a freshly built collection of the given tier.
// The collection is interned under the trace name, so replaying the same
// trace against the same session reuses the memoized state chain.
func Replay(sess *session.Session, trace Trace, tier Tier) (Result, error) {
	elems := make([]int, trace.Elements)
	for i := range elems {
		elems[i] = i
	}
	var col mutator
	switch tier {
	case TierForward:
		col = fixture.NewForwardCollectionNamed[int](sess, sess, trace.Name, elems...)
	case TierBidirectional:
		col = fixture.NewBidirectionalCollectionNamed[int](sess, sess, trace.Name, elems...)
	case TierRandomAccess:
		col = fixture.NewRandomAccessCollectionNamed[int](sess, sess, trace.Name, elems...)
	default:
		return Result{}, fmt.Errorf("unknown collection tier %q", tier)
	}

	nextValue := trace.Elements
	fresh := func(n int) []int {
		vs := make([]int, n)
		for i := range vs {
			vs[i] = nextValue
			nextValue++
		}
		return vs
	}

	for i, op := range trace.Ops {
		if err := applyOp(col, op, fresh); err != nil {
			return Result{}, fmt.Errorf("trace op %d (%s): %w", i, op.Op, err)
		}
	}

	final := col.State()
	out := make([]int, col.Len())
	for i := range out {
		v, err := elementAt(col, i)
		if err != nil {
			return Result{}, err
		}
		out[i] = v
	}
	return Result{Final: final, Elements: out, Applied: len(trace.Ops)}, nil
}

func applyOp(col mutator, op TraceOp, fresh func(int) []int) error {
	switch provenance.OpKind(op.Op) {
	case provenance.OpReserve:
		col.Reserve(op.Count)
	case provenance.OpAppend:
		col.Append(fresh(1)[0])
	case provenance.OpAppendMany:
		col.AppendMany(fresh(op.Count)...)
	case provenance.OpInsertOne:
		return col.InsertOne(op.At, fresh(1)[0])
	case provenance.OpInsertMany:
		return col.InsertMany(op.At, fresh(op.Count)...)
	case provenance.OpRemoveOne:
		_, err := col.RemoveOne(op.At)
		return err
	case provenance.OpRemoveLast:
		_, err := col.RemoveLast()
		return err
	case provenance.OpRemoveRange:
		return col.RemoveRange(provenance.Range{Start: op.Span.Start, End: op.Span.End})
	case provenance.OpReplaceRange:
		return col.ReplaceRange(provenance.Range{Start: op.Span.Start, End: op.Span.End}, fresh(op.Count)...)
	case provenance.OpClear:
		col.Clear(op.KeepCapacity)
	default:
		return fmt.Errorf("unknown operation %q", op.Op)
	}
	return nil
}

// elementAt reads one element through the tier's verified accessor.
func elementAt(col mutator, position int) (int, error) {
	switch c := col.(type) {
	case *fixture.ForwardCollection[int]:
		return c.At(c.IndexAt(position))
	case *fixture.BidirectionalCollection[int]:
		return c.At(c.IndexAt(position))
	case *fixture.RandomAccessCollection[int]:
		return c.At(c.IndexAt(position))
	}
	return 0, fmt.Errorf("unknown collection type %T", col)
}

// VerifyDeterminism replays the trace the requested number of times against
// one session and checks that every pass converges on the identical interned
// state. A divergence means the transform or the memo registry is unstable.
func VerifyDeterminism(sess *session.Session, trace Trace, tier Tier, runs int) (Result, error) {
	if runs < 1 {
		runs = 1
	}
	first, err := Replay(sess, trace, tier)
	if err != nil {
		return Result{}, err
	}
	for i := 1; i < runs; i++ {
		again, err := Replay(sess, trace, tier)
		if err != nil {
			return Result{}, fmt.Errorf("pass %d: %w", i+1, err)
		}
		if again.Final != first.Final {
			return Result{}, fmt.Errorf("pass %d diverged: state s%d, first pass s%d", i+1, again.Final.ID(), first.Final.ID())
		}
		if len(again.Elements) != len(first.Elements) {
			return Result{}, fmt.Errorf("pass %d diverged: %d elements, first pass %d", i+1, len(again.Elements), len(first.Elements))
		}
	}
	return first, nil
}
