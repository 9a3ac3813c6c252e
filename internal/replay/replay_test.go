package replay

import (
	"strings"
	"testing"

	"seqprov/internal/session"
)

const sampleTrace = `{
	"name": "orders",
	"elements": 3,
	"ops": [
		{"op": "append"},
		{"op": "insert_many", "at": 1, "count": 2},
		{"op": "remove_one", "at": 0},
		{"op": "replace_range", "span": {"start": 1, "end": 3}, "count": 1},
		{"op": "remove_last"}
	]
}`

func TestParseTrace(t *testing.T) {
	trace, err := ParseTrace([]byte(sampleTrace))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if trace.Name != "orders" || trace.Elements != 3 || len(trace.Ops) != 5 {
		t.Fatalf("trace = %+v", trace)
	}
	if trace.Ops[3].Span == nil || trace.Ops[3].Span.End != 3 {
		t.Fatalf("span = %+v", trace.Ops[3].Span)
	}
}

func TestParseTraceDefaultsName(t *testing.T) {
	trace, err := ParseTrace([]byte(`{"elements": 1}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if trace.Name != "trace" {
		t.Fatalf("name = %q", trace.Name)
	}
}

func TestParseTraceRejectsMalformed(t *testing.T) {
	cases := []struct {
		name string
		data string
		want string
	}{
		{"bad json", `{`, "parse trace"},
		{"negative elements", `{"elements": -1}`, "negative element count"},
		{"unknown op", `{"ops": [{"op": "shuffle"}]}`, `unknown operation "shuffle"`},
		{"missing span", `{"ops": [{"op": "remove_range"}]}`, "span required"},
		{"inverted span", `{"ops": [{"op": "remove_range", "span": {"start": 3, "end": 1}}]}`, "malformed span"},
		{"negative insert", `{"ops": [{"op": "insert_one", "at": -2}]}`, "negative position"},
		{"negative replace count", `{"ops": [{"op": "replace_range", "span": {"start": 0, "end": 0}, "count": -1}]}`, "negative count"},
	}
	for _, tc := range cases {
		if _, err := ParseTrace([]byte(tc.data)); err == nil || !strings.Contains(err.Error(), tc.want) {
			t.Fatalf("%s: err = %v, want %q", tc.name, err, tc.want)
		}
	}
}

func TestParseTier(t *testing.T) {
	for _, name := range []string{"forward", "bidirectional", "random-access"} {
		if _, err := ParseTier(name); err != nil {
			t.Fatalf("tier %s rejected: %v", name, err)
		}
	}
	if _, err := ParseTier("contiguous"); err == nil {
		t.Fatalf("unknown tier accepted")
	}
}

func TestReplayAppliesTrace(t *testing.T) {
	trace, err := ParseTrace([]byte(sampleTrace))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	sess := session.New()
	result, err := Replay(sess, trace, TierRandomAccess)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if result.Applied != 5 {
		t.Fatalf("applied = %d", result.Applied)
	}
	// 3 initial, +1 append, +2 insert, -1 remove, -1 replace (2 out 1 in), -1 removeLast.
	if len(result.Elements) != 3 {
		t.Fatalf("final length = %d (%v)", len(result.Elements), result.Elements)
	}
	snapshot := sess.Snapshot()
	if snapshot.Counters.Transitions != 5 {
		t.Fatalf("journaled transitions = %d", snapshot.Counters.Transitions)
	}
}

func TestReplayTiersAgree(t *testing.T) {
	trace, err := ParseTrace([]byte(sampleTrace))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	var lengths []int
	for _, tier := range []Tier{TierForward, TierBidirectional, TierRandomAccess} {
		result, err := Replay(session.New(), trace, tier)
		if err != nil {
			t.Fatalf("replay %s: %v", tier, err)
		}
		lengths = append(lengths, len(result.Elements))
	}
	if lengths[0] != lengths[1] || lengths[1] != lengths[2] {
		t.Fatalf("tiers diverged: %v", lengths)
	}
}

func TestReplayRejectsOutOfRangeOps(t *testing.T) {
	trace, err := ParseTrace([]byte(`{"elements": 1, "ops": [{"op": "remove_one", "at": 5}]}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, err := Replay(session.New(), trace, TierForward); err == nil {
		t.Fatalf("out of range op accepted")
	}
}

func TestVerifyDeterminism(t *testing.T) {
	trace, err := ParseTrace([]byte(sampleTrace))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	sess := session.New()
	result, err := VerifyDeterminism(sess, trace, TierForward, 3)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if result.Final == nil {
		t.Fatalf("no final state")
	}

	// Later passes must ride the memo table instead of minting new states.
	stats := sess.Registry().Stats()
	if stats.MemoHits < 10 {
		t.Fatalf("memo hits = %d, want replayed transitions memoized", stats.MemoHits)
	}
}

func TestReplayMemoizesAcrossPasses(t *testing.T) {
	trace, err := ParseTrace([]byte(sampleTrace))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	sess := session.New()
	first, err := Replay(sess, trace, TierBidirectional)
	if err != nil {
		t.Fatalf("first pass: %v", err)
	}
	second, err := Replay(sess, trace, TierBidirectional)
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}
	if first.Final != second.Final {
		t.Fatalf("replay did not converge on the interned state chain")
	}
	if first.Final.ID() != second.Final.ID() {
		t.Fatalf("state ids diverged")
	}
}

func TestReplayClearAndReserve(t *testing.T) {
	trace, err := ParseTrace([]byte(`{
		"elements": 2,
		"ops": [
			{"op": "reserve", "count": 16},
			{"op": "clear", "keep_capacity": true},
			{"op": "append_many", "count": 3}
		]
	}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	result, err := Replay(session.New(), trace, TierRandomAccess)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if len(result.Elements) != 3 {
		t.Fatalf("final elements = %v", result.Elements)
	}
}

func TestLoadTraceMissingFile(t *testing.T) {
	if _, err := LoadTrace("does/not/exist.json"); err == nil {
		t.Fatalf("missing file accepted")
	}
}
