// Package replay executes recorded operation traces against the verified
// fixture collections, so a failure seen in one test run can be reproduced
// and inspected offline.
package replay

import (
	"encoding/json"
	"fmt"
	"os"

	"seqprov/pkg/provenance"
)

// Trace is a recorded mutation sequence over one collection.
type Trace struct {
	Name     string    `json:"name"`
	Elements int       `json:"elements"`
	Ops      []TraceOp `json:"ops"`
}

// TraceOp is one recorded mutation. Fields beyond Op are read per kind, the
// same way the operation catalogue does.
type TraceOp struct {
	Op           string    `json:"op"`
	At           int       `json:"at,omitempty"`
	Count        int       `json:"count,omitempty"`
	Span         *SpanSpec `json:"span,omitempty"`
	KeepCapacity bool      `json:"keep_capacity,omitempty"`
}

// SpanSpec is a half-open position range in trace form.
type SpanSpec struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// LoadTrace reads and validates a trace file.
func LoadTrace(path string) (Trace, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path given on the command line
	if err != nil {
		return Trace{}, fmt.Errorf("read trace: %w", err)
	}
	return ParseTrace(data)
}

// ParseTrace decodes and validates trace JSON.
func ParseTrace(data []byte) (Trace, error) {
	var trace Trace
	if err := json.Unmarshal(data, &trace); err != nil {
		return Trace{}, fmt.Errorf("parse trace: %w", err)
	}
	if trace.Name == "" {
		trace.Name = "trace"
	}
	if trace.Elements < 0 {
		return Trace{}, fmt.Errorf("trace: negative element count %d", trace.Elements)
	}
	for i, op := range trace.Ops {
		if err := validateOp(op); err != nil {
			return Trace{}, fmt.Errorf("trace op %d: %w", i, err)
		}
	}
	return trace, nil
}

func validateOp(op TraceOp) error {
	switch provenance.OpKind(op.Op) {
	case provenance.OpReserve:
		if op.Count < 0 {
			return fmt.Errorf("reserve: negative capacity %d", op.Count)
		}
	case provenance.OpAppend, provenance.OpRemoveLast:
	case provenance.OpAppendMany:
		if op.Count < 0 {
			return fmt.Errorf("%s: negative count %d", op.Op, op.Count)
		}
	case provenance.OpInsertOne, provenance.OpRemoveOne:
		if op.At < 0 {
			return fmt.Errorf("%s: negative position %d", op.Op, op.At)
		}
	case provenance.OpInsertMany:
		if op.At < 0 || op.Count < 0 {
			return fmt.Errorf("insert_many: negative position or count")
		}
	case provenance.OpRemoveRange, provenance.OpReplaceRange:
		if op.Span == nil {
			return fmt.Errorf("%s: span required", op.Op)
		}
		if op.Span.Start < 0 || op.Span.End < op.Span.Start {
			return fmt.Errorf("%s: malformed span [%d,%d)", op.Op, op.Span.Start, op.Span.End)
		}
		if provenance.OpKind(op.Op) == provenance.OpReplaceRange && op.Count < 0 {
			return fmt.Errorf("replace_range: negative count %d", op.Count)
		}
	case provenance.OpClear:
	default:
		return fmt.Errorf("unknown operation %q", op.Op)
	}
	return nil
}
