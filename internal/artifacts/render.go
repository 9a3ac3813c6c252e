// Package artifacts renders archived run records into reviewable documents
// and exports them asynchronously to blob storage.
package artifacts

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"seqprov/internal/journal"
	"seqprov/pkg/provenance"
)

// Format identifies a rendering of a run record.
type Format string

const (
	// FormatJSON is the full record encoded as indented JSON.
	FormatJSON Format = "json"
	// FormatDOT is a Graphviz digraph of the state transitions.
	FormatDOT Format = "dot"
	// FormatSummary is a short plain-text digest.
	FormatSummary Format = "summary"
)

// Formats lists every supported rendering.
func Formats() []Format { return []Format{FormatJSON, FormatDOT, FormatSummary} }

// ContentType returns the MIME type of a format's payload.
func (f Format) ContentType() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatDOT:
		return "text/vnd.graphviz"
	case FormatSummary:
		return "text/plain; charset=utf-8"
	}
	return "application/octet-stream"
}

// Extension returns the file extension used for stored artifacts.
func (f Format) Extension() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatDOT:
		return "dot"
	case FormatSummary:
		return "txt"
	}
	return "bin"
}

// Render produces the requested document for a run record. Output is
// deterministic for a given record so renders can be diffed across runs.
func Render(rec journal.RunRecord, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		payload, err := json.MarshalIndent(rec, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode run %s: %w", rec.ID, err)
		}
		return payload, nil
	case FormatDOT:
		return renderDOT(rec), nil
	case FormatSummary:
		return renderSummary(rec), nil
	default:
		return nil, fmt.Errorf("unsupported artifact format %s", format)
	}
}

// renderDOT draws the transition graph: one node per state, one edge per
// transition labeled with the operation, and incident states filled red.
func renderDOT(rec journal.RunRecord) []byte {
	states := map[provenance.StateID]struct{}{}
	for _, tr := range rec.Transitions {
		states[tr.Prev] = struct{}{}
		states[tr.Next] = struct{}{}
	}
	for _, id := range rec.NamedRoots {
		states[id] = struct{}{}
	}
	flagged := map[provenance.StateID]struct{}{}
	for _, inc := range rec.Incidents {
		for _, id := range []provenance.StateID{inc.Incident.LeftDerived, inc.Incident.RightDerived, inc.Incident.Left.StateID, inc.Incident.Right.StateID} {
			if id != 0 {
				flagged[id] = struct{}{}
			}
		}
	}
	rootNames := map[provenance.StateID][]string{}
	for name, id := range rec.NamedRoots {
		rootNames[id] = append(rootNames[id], name)
	}
	for _, names := range rootNames {
		sort.Strings(names)
	}

	ordered := make([]provenance.StateID, 0, len(states))
	for id := range states {
		ordered = append(ordered, id)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i] < ordered[j] })

	var b strings.Builder
	fmt.Fprintf(&b, "digraph run_%s {\n", dotID(rec.ID))
	b.WriteString("  rankdir=LR;\n")
	b.WriteString("  node [shape=circle];\n")
	for _, id := range ordered {
		label := fmt.Sprintf("s%d", id)
		if names, ok := rootNames[id]; ok {
			label += `\n` + strings.Join(names, ",")
		}
		attrs := "label=" + dotString(label)
		if _, ok := flagged[id]; ok {
			attrs += ", style=filled, fillcolor=salmon"
		}
		fmt.Fprintf(&b, "  s%d [%s];\n", id, attrs)
	}
	for _, tr := range rec.Transitions {
		label := opLabel(tr.Op)
		if tr.MemoHit {
			label += " (memo)"
		}
		fmt.Fprintf(&b, "  s%d -> s%d [label=%s];\n", tr.Prev, tr.Next, dotString(label))
	}
	b.WriteString("}\n")
	return []byte(b.String())
}

func renderSummary(rec journal.RunRecord) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "run %s\n", rec.ID)
	fmt.Fprintf(&b, "started  %s\n", rec.StartedAt.UTC().Format("2006-01-02 15:04:05.000"))
	fmt.Fprintf(&b, "finished %s\n", rec.FinishedAt.UTC().Format("2006-01-02 15:04:05.000"))
	fmt.Fprintf(&b, "transitions %d (memo hits %d)\n", rec.Counters.Transitions, rec.Counters.MemoHits)
	fmt.Fprintf(&b, "incidents   %d\n", rec.Counters.Incidents)
	if len(rec.NamedRoots) > 0 {
		names := make([]string, 0, len(rec.NamedRoots))
		for name := range rec.NamedRoots {
			names = append(names, name)
		}
		sort.Strings(names)
		b.WriteString("roots:\n")
		for _, name := range names {
			fmt.Fprintf(&b, "  %s = s%d\n", name, rec.NamedRoots[name])
		}
	}
	for _, inc := range rec.Incidents {
		fmt.Fprintf(&b, "incident[%d] %s: %s\n", inc.Seq, inc.Incident.Kind, inc.Incident.Message)
	}
	return []byte(b.String())
}

func opLabel(op provenance.Operation) string {
	switch op.Kind {
	case provenance.OpReserve:
		return fmt.Sprintf("reserve %d", op.Count)
	case provenance.OpAppendMany:
		return fmt.Sprintf("append_many %d", op.Count)
	case provenance.OpInsertOne:
		return fmt.Sprintf("insert_one @%d", op.At)
	case provenance.OpInsertMany:
		return fmt.Sprintf("insert_many %d @%d", op.Count, op.At)
	case provenance.OpRemoveOne:
		return fmt.Sprintf("remove_one @%d", op.At)
	case provenance.OpRemoveRange:
		return fmt.Sprintf("remove_range [%d,%d)", op.Span.Start, op.Span.End)
	case provenance.OpReplaceRange:
		return fmt.Sprintf("replace_range [%d,%d)->%d", op.Span.Start, op.Span.End, op.Count)
	}
	return string(op.Kind)
}

// dotString wraps s in a DOT double-quoted string. Only the quote itself
// needs escaping; backslash sequences such as \n must reach the output
// verbatim so DOT renders them as line breaks.
func dotString(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}

// dotID keeps the digraph name a valid DOT identifier.
func dotID(id string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		}
		return '_'
	}, id)
}
