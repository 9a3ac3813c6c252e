// Package memory provides an in-process run archive used by tests and as the
// default backend when no durable driver is configured.
package memory

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sort"
	"sync"

	"seqprov/internal/archive/core"
	"seqprov/internal/journal"
)

// Store keeps archived runs in a map guarded by a read-write mutex. Records
// are detached on both save and load so callers cannot mutate archived state.
type Store struct {
	mu   sync.RWMutex
	runs map[string]journal.RunRecord
}

// NewStore constructs an empty in-memory archive.
func NewStore() *Store {
	return &Store{runs: make(map[string]journal.RunRecord)}
}

// Driver identifies the backend.
func (s *Store) Driver() core.Driver { return core.DriverMemory }

// SaveRun upserts the record under its run id.
func (s *Store) SaveRun(_ context.Context, rec journal.RunRecord) error {
	if rec.ID == "" {
		return fmt.Errorf("archive: run record missing id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[rec.ID] = detach(rec)
	return nil
}

// GetRun returns the archived record for id.
func (s *Store) GetRun(_ context.Context, id string) (journal.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.runs[id]
	if !ok {
		return journal.RunRecord{}, core.ErrNotFound
	}
	return detach(rec), nil
}

// ListRuns returns summaries ordered by start time, then id.
func (s *Store) ListRuns(_ context.Context) ([]core.Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Summary, 0, len(s.runs))
	for _, rec := range s.runs {
		out = append(out, core.Summary{
			ID:         rec.ID,
			StartedAt:  rec.StartedAt,
			FinishedAt: rec.FinishedAt,
			Counters:   rec.Counters,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].StartedAt.Before(out[j].StartedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Close is a no-op for the in-memory backend.
func (s *Store) Close() error { return nil }

func detach(rec journal.RunRecord) journal.RunRecord {
	rec.Transitions = slices.Clone(rec.Transitions)
	rec.Incidents = slices.Clone(rec.Incidents)
	if rec.NamedRoots != nil {
		rec.NamedRoots = maps.Clone(rec.NamedRoots)
	}
	return rec
}
