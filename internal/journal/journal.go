// Package journal records every state transition and incident of one
// verification run as an append-only log, exportable as an immutable
// RunRecord for rendering and archival.
package journal

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"seqprov/pkg/provenance"
)

// TransitionRecord captures one routed state transition.
type TransitionRecord struct {
	Seq     int                  `json:"seq"`
	Prev    provenance.StateID   `json:"prev"`
	Op      provenance.Operation `json:"op"`
	Next    provenance.StateID   `json:"next"`
	MemoHit bool                 `json:"memo_hit,omitempty"`
	At      time.Time            `json:"at"`
}

// IncidentRecord captures one reported verification failure.
type IncidentRecord struct {
	Seq      int                 `json:"seq"`
	Incident provenance.Incident `json:"incident"`
	At       time.Time           `json:"at"`
}

// Counters aggregates run activity.
type Counters struct {
	Transitions int `json:"transitions"`
	MemoHits    int `json:"memo_hits"`
	Incidents   int `json:"incidents"`
}

// RunRecord is the immutable export of one run's journal.
type RunRecord struct {
	ID          string                        `json:"id"`
	StartedAt   time.Time                     `json:"started_at"`
	FinishedAt  time.Time                     `json:"finished_at"`
	Transitions []TransitionRecord            `json:"transitions,omitempty"`
	Incidents   []IncidentRecord              `json:"incidents,omitempty"`
	NamedRoots  map[string]provenance.StateID `json:"named_roots,omitempty"`
	Counters    Counters                      `json:"counters"`
}

// Journal is the mutable, run-scoped log. Safe for concurrent use.
type Journal struct {
	mu          sync.Mutex
	id          string
	started     time.Time
	seq         int
	transitions []TransitionRecord
	incidents   []IncidentRecord
	roots       map[string]provenance.StateID
	memoHits    int

	now func() time.Time
}

// New returns an empty journal identified by a fresh run id.
func New() *Journal {
	return &Journal{
		id:      uuid.NewString(),
		started: time.Now().UTC(),
		roots:   make(map[string]provenance.StateID),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// ID returns the run identifier.
func (j *Journal) ID() string { return j.id }

// RecordTransition appends one transition.
func (j *Journal) RecordTransition(prev provenance.StateID, op provenance.Operation, next provenance.StateID, memoHit bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.seq++
	if memoHit {
		j.memoHits++
	}
	j.transitions = append(j.transitions, TransitionRecord{
		Seq:     j.seq,
		Prev:    prev,
		Op:      op,
		Next:    next,
		MemoHit: memoHit,
		At:      j.now(),
	})
}

// RecordIncident appends one incident.
func (j *Journal) RecordIncident(incident provenance.Incident) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.seq++
	j.incidents = append(j.incidents, IncidentRecord{Seq: j.seq, Incident: incident, At: j.now()})
}

// RecordNamedRoot notes the interned root id observed for a fixture kind.
func (j *Journal) RecordNamedRoot(name string, id provenance.StateID) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.roots[name] = id
}

// Report implements provenance.Reporter, so a journal can sit directly in a
// checker's reporter chain.
func (j *Journal) Report(incident provenance.Incident) {
	j.RecordIncident(incident)
}

// Snapshot returns an immutable copy of everything recorded so far, stamped
// with the snapshot time.
func (j *Journal) Snapshot() RunRecord {
	j.mu.Lock()
	defer j.mu.Unlock()
	rec := RunRecord{
		ID:         j.id,
		StartedAt:  j.started,
		FinishedAt: j.now(),
		Counters: Counters{
			Transitions: len(j.transitions),
			MemoHits:    j.memoHits,
			Incidents:   len(j.incidents),
		},
	}
	if len(j.transitions) > 0 {
		rec.Transitions = append([]TransitionRecord(nil), j.transitions...)
	}
	if len(j.incidents) > 0 {
		rec.Incidents = append([]IncidentRecord(nil), j.incidents...)
	}
	if len(j.roots) > 0 {
		rec.NamedRoots = make(map[string]provenance.StateID, len(j.roots))
		for name, id := range j.roots {
			rec.NamedRoots[name] = id
		}
	}
	return rec
}

var _ provenance.Reporter = (*Journal)(nil)
