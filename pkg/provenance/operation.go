package provenance

// OpKind identifies one of the closed set of position-affecting mutations.
type OpKind string

const (
	// OpReserve models a capacity change; values keep their positions but the
	// backing storage may relocate.
	OpReserve OpKind = "reserve"
	// OpAppend appends a single element at the end.
	OpAppend OpKind = "append"
	// OpAppendMany appends Count elements at the end.
	OpAppendMany OpKind = "append_many"
	// OpReplaceRange replaces the elements in Span with Count new elements.
	OpReplaceRange OpKind = "replace_range"
	// OpInsertOne inserts a single element at position At.
	OpInsertOne OpKind = "insert_one"
	// OpInsertMany inserts Count elements at position At.
	OpInsertMany OpKind = "insert_many"
	// OpRemoveOne removes the element at position At.
	OpRemoveOne OpKind = "remove_one"
	// OpRemoveLast removes the final element.
	OpRemoveLast OpKind = "remove_last"
	// OpRemoveRange removes the elements in Span.
	OpRemoveRange OpKind = "remove_range"
	// OpClear removes every element.
	OpClear OpKind = "clear"
)

// Range is a half-open position interval [Start, End).
type Range struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the number of positions covered by the range.
func (r Range) Len() int { return r.End - r.Start }

// Operation describes a single mutation of a position-indexed collection,
// carrying only the parameters that affect element positions. Unused fields
// are zero, so structural equality of two Operation values is exactly
// semantic equality; Operation is comparable and usable as a map-key
// component, which the transition memo relies on. Construct values through
// the Reserve/Append/... constructors rather than struct literals.
type Operation struct {
	Kind         OpKind `json:"kind"`
	At           int    `json:"at,omitempty"`
	Count        int    `json:"count,omitempty"`
	Span         Range  `json:"span,omitzero"`
	KeepCapacity bool   `json:"keep_capacity,omitempty"`
}

// Reserve describes a capacity reservation for at least capacity elements.
func Reserve(capacity int) Operation {
	return Operation{Kind: OpReserve, Count: capacity}
}

// Append describes appending one element.
func Append() Operation {
	return Operation{Kind: OpAppend}
}

// AppendMany describes appending count elements.
func AppendMany(count int) Operation {
	return Operation{Kind: OpAppendMany, Count: count}
}

// ReplaceRange describes replacing the elements in span with replacementCount
// new elements.
func ReplaceRange(span Range, replacementCount int) Operation {
	return Operation{Kind: OpReplaceRange, Span: span, Count: replacementCount}
}

// InsertOne describes inserting one element at position at.
func InsertOne(at int) Operation {
	return Operation{Kind: OpInsertOne, At: at}
}

// InsertMany describes inserting count elements at position at.
func InsertMany(at, count int) Operation {
	return Operation{Kind: OpInsertMany, At: at, Count: count}
}

// RemoveOne describes removing the element at position at.
func RemoveOne(at int) Operation {
	return Operation{Kind: OpRemoveOne, At: at}
}

// RemoveLast describes removing the final element.
func RemoveLast() Operation {
	return Operation{Kind: OpRemoveLast}
}

// RemoveRange describes removing the elements in span.
func RemoveRange(span Range) Operation {
	return Operation{Kind: OpRemoveRange, Span: span}
}

// Clear describes removing every element. keepCapacity records whether the
// collection retains its storage; it does not affect position tracking.
func Clear(keepCapacity bool) Operation {
	return Operation{Kind: OpClear, KeepCapacity: keepCapacity}
}
