package provenance

import "fmt"

// apply computes the slot provenance of the state produced by op, where next
// is the identity being assigned to that state. Pure: the input slice is
// never mutated and the result never aliases it.
//
// The invalidation boundary: any operation that can shift the position of a
// surviving element overwrites that element's provenance with next, because a
// position recorded before the shift now addresses a different logical
// element. Operations that only touch the tail (append, appendMany,
// removeLast) leave prior slots untouched. reserve keeps every position but
// may relocate storage, so it conservatively overwrites every slot. The
// asymmetry with append, which may also reallocate on growth, is deliberate:
// the fixtures guarantee index stability across amortized append.
//
// The switch is exhaustive over OpKind with no default clause; every new kind
// must state its invalidation rule here (enforced by internal/validation).
func apply(slots []StateID, op Operation, next StateID) []StateID {
	switch op.Kind {
	case OpReserve:
		return filled(len(slots), next)
	case OpAppend:
		out := make([]StateID, len(slots)+1)
		copy(out, slots)
		out[len(slots)] = next
		return out
	case OpAppendMany:
		out := make([]StateID, len(slots)+op.Count)
		copy(out, slots)
		fillFrom(out, len(slots), next)
		return out
	case OpReplaceRange:
		return keepPrefix(slots, op.Span.Start, len(slots)-op.Span.Len()+op.Count, next)
	case OpInsertOne:
		return keepPrefix(slots, op.At, len(slots)+1, next)
	case OpInsertMany:
		return keepPrefix(slots, op.At, len(slots)+op.Count, next)
	case OpRemoveOne:
		return keepPrefix(slots, op.At, len(slots)-1, next)
	case OpRemoveLast:
		if len(slots) == 0 {
			panic("provenance: removeLast transform on an empty slot table")
		}
		out := make([]StateID, len(slots)-1)
		copy(out, slots[:len(slots)-1])
		return out
	case OpRemoveRange:
		return keepPrefix(slots, op.Span.Start, len(slots)-op.Span.Len(), next)
	case OpClear:
		return []StateID{}
	}
	panic(fmt.Sprintf("provenance: no transform rule for operation kind %q", op.Kind))
}

// keepPrefix builds a slot slice of length n that preserves slots[:pivot] and
// overwrites every slot from pivot onward with next. Operation parameters
// outside the slot table mean the caller transitioned on a position the
// collection never validated.
func keepPrefix(slots []StateID, pivot, n int, next StateID) []StateID {
	if pivot < 0 || pivot > len(slots) || n < 0 {
		panic(fmt.Sprintf("provenance: transform pivot %d, result length %d outside slot table of %d", pivot, n, len(slots)))
	}
	out := make([]StateID, n)
	copy(out, slots[:pivot])
	fillFrom(out, pivot, next)
	return out
}

func filled(n int, id StateID) []StateID {
	out := make([]StateID, n)
	fillFrom(out, 0, id)
	return out
}

func fillFrom(out []StateID, from int, id StateID) {
	for i := from; i < len(out); i++ {
		out[i] = id
	}
}
