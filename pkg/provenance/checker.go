package provenance

import "fmt"

// IncidentKind classifies a reported verification failure.
type IncidentKind string

const (
	// IncidentBounds marks a fail-early range-check violation.
	IncidentBounds IncidentKind = "bounds"
	// IncidentProvenance marks use of indices with mutually-invalidating
	// histories.
	IncidentProvenance IncidentKind = "provenance"
)

// IndexDescriptor is the reportable view of an index involved in an incident.
type IndexDescriptor struct {
	Position int     `json:"position"`
	Start    int     `json:"start"`
	End      int     `json:"end"`
	Offset   int     `json:"offset"`
	StateID  StateID `json:"state_id,omitempty"`
	Tracked  bool    `json:"tracked"`
}

// Describe captures an index's reportable view.
func Describe(ix Index) IndexDescriptor {
	d := IndexDescriptor{
		Position: ix.position,
		Start:    ix.start,
		End:      ix.end,
		Offset:   ix.Offset(),
	}
	if ix.state != nil {
		d.StateID = ix.state.id
		d.Tracked = true
	}
	return d
}

// Incident is the full diagnostic context of one detected failure, handed to
// the reporter before the check fails.
type Incident struct {
	Kind         IncidentKind    `json:"kind"`
	Message      string          `json:"message"`
	Left         IndexDescriptor `json:"left"`
	Right        IndexDescriptor `json:"right,omitzero"`
	LeftDerived  StateID         `json:"left_derived,omitempty"`
	RightDerived StateID         `json:"right_derived,omitempty"`
}

// IncompatibilityError reports that two indices were used together despite
// diverging, mutually-invalidating mutation histories.
type IncompatibilityError struct {
	Incident Incident
}

func (e *IncompatibilityError) Error() string {
	return "provenance: " + e.Incident.Message
}

// Reporter receives failure diagnostics. The enclosing test framework decides
// whether a report aborts the run or records a failed assertion.
type Reporter interface {
	Report(incident Incident)
}

// PanicReporter aborts on the first incident. It is the default reporter: a
// buggy fixture must not continue with a corrupted index.
type PanicReporter struct{}

// Report panics with the error form of the incident.
func (PanicReporter) Report(incident Incident) {
	switch incident.Kind {
	case IncidentBounds:
		panic(&BoundsError{
			Op:       "range check",
			Position: incident.Left.Position,
			Start:    incident.Left.Start,
			End:      incident.Left.End,
		})
	default:
		panic(&IncompatibilityError{Incident: incident})
	}
}

// RecordingReporter collects incidents for later inspection, typically in
// tests asserting that a misuse is detected.
type RecordingReporter struct {
	incidents []Incident
}

// Report appends the incident.
func (r *RecordingReporter) Report(incident Incident) {
	r.incidents = append(r.incidents, incident)
}

// Incidents returns a copy of everything reported so far.
func (r *RecordingReporter) Incidents() []Incident {
	out := make([]Incident, len(r.incidents))
	copy(out, r.incidents)
	return out
}

// MultiReporter fans a report out to each reporter in order.
func MultiReporter(reporters ...Reporter) Reporter {
	return multiReporter(reporters)
}

type multiReporter []Reporter

func (m multiReporter) Report(incident Incident) {
	for _, r := range m {
		r.Report(incident)
	}
}

// Checker is the compatibility oracle. It decides whether two indices may be
// legally compared or dereferenced together, and guards explicit bounds when
// range checks are enabled. Failures go to the reporter first, then surface
// as errors; the checker never downgrades or defers a failure.
type Checker struct {
	reporter Reporter
	// rangeChecks toggles the fail-early bounds guard used by fixtures. It is
	// a separate, opt-out-able layer from the provenance check: the former
	// catches simple out-of-bounds use, the latter use-after-invalidate.
	rangeChecks bool
}

// NewChecker constructs a checker delivering incidents to reporter. A nil
// reporter selects PanicReporter. Range checks start enabled.
func NewChecker(reporter Reporter) *Checker {
	if reporter == nil {
		reporter = PanicReporter{}
	}
	return &Checker{reporter: reporter, rangeChecks: true}
}

var defaultChecker = NewChecker(nil)

// DefaultChecker returns the shared fail-fast checker.
func DefaultChecker() *Checker { return defaultChecker }

// SetRangeChecks toggles the fail-early bounds guard, modelling containers
// that skip early bounds validation. Provenance checking is unaffected.
func (c *Checker) SetRangeChecks(enabled bool) { c.rangeChecks = enabled }

// RangeChecksEnabled reports whether the fail-early bounds guard is active.
func (c *Checker) RangeChecksEnabled() bool { return c.rangeChecks }

// CheckCompatible decides whether a and b may be used together. Two indices
// are compatible when they carry the same state snapshot, or when their
// derived provenance ids agree: histories may diverge as long as both indices
// still describe the same never-invalidated element. On failure the incident
// is reported and an *IncompatibilityError returned.
func (c *Checker) CheckCompatible(a, b Index) error {
	if a.state == b.state {
		return nil
	}
	// An untracked sentinel makes no provenance claim either way.
	if a.state == nil || b.state == nil {
		return nil
	}
	da, okA := derivedID(a)
	db, okB := derivedID(b)
	if okA && okB && da == db {
		return nil
	}
	msg := fmt.Sprintf("indices have incompatible provenance: derived %d (state %d, position %d) vs derived %d (state %d, position %d)",
		da, a.state.id, a.position, db, b.state.id, b.position)
	if !okA || !okB {
		msg = fmt.Sprintf("index position outside its state's slot table (model desynchronized from storage): state %d position %d vs state %d position %d",
			a.state.id, a.position, b.state.id, b.position)
	}
	incident := Incident{
		Kind:         IncidentProvenance,
		Message:      msg,
		Left:         Describe(a),
		Right:        Describe(b),
		LeftDerived:  da,
		RightDerived: db,
	}
	c.reporter.Report(incident)
	return &IncompatibilityError{Incident: incident}
}

// CheckRange verifies that ix addresses a position inside the half-open
// bounds, reporting a bounds incident and returning a *BoundsError otherwise.
// A no-op when range checks are disabled.
func (c *Checker) CheckRange(ix Index, bounds Range) error {
	if !c.rangeChecks {
		return nil
	}
	if ix.position >= bounds.Start && ix.position < bounds.End {
		return nil
	}
	incident := Incident{
		Kind:    IncidentBounds,
		Message: fmt.Sprintf("position %d outside [%d, %d)", ix.position, bounds.Start, bounds.End),
		Left:    Describe(ix),
	}
	c.reporter.Report(incident)
	return &BoundsError{Op: "range check", Position: ix.position, Start: bounds.Start, End: bounds.End}
}

// derivedID computes the provenance id an index denotes under its state: the
// state's own id for the one-past-last position, otherwise the recorded slot
// provenance. Derivation uses the absolute storage position, never the
// carve-relative offset: slot tables are collection-relative, and a slice
// view's bounds restrict traversal without renumbering positions. ok is false
// when the position falls outside the slot table, which is only reachable
// when a collaborator desynchronized model and storage; callers treat that
// conservatively as an incompatibility.
func derivedID(ix Index) (id StateID, ok bool) {
	pos := ix.position
	if pos == len(ix.state.slots) {
		return ix.state.id, true
	}
	if pos < 0 || pos > len(ix.state.slots) {
		return 0, false
	}
	return ix.state.slots[pos], true
}
