// Package session composes a provenance registry, compatibility checker,
// journal and observability hooks into one run-scoped object: the explicit
// lifetime boundary for the otherwise unbounded registry tables. A fixture
// constructed against a session gets journaled transitions and incident
// recording for free.
package session

import (
	"time"

	"seqprov/internal/journal"
	"seqprov/pkg/fixture"
	"seqprov/pkg/provenance"
)

// Session is a run-scoped verification context. It satisfies the fixture
// package's Registry and Oracle seams, instrumenting every call it routes.
type Session struct {
	reg     *provenance.Registry
	chk     *provenance.Checker
	journal *journal.Journal
	metrics MetricsRecorder
	tracer  Tracer
}

// Option configures a Session.
type Option func(*config)

type config struct {
	reporter provenance.Reporter
	metrics  MetricsRecorder
	tracer   Tracer
}

// WithReporter appends a reporter behind the journal in the incident chain.
// Defaults to the fail-fast PanicReporter.
func WithReporter(r provenance.Reporter) Option {
	return func(c *config) { c.reporter = r }
}

// WithMetrics attaches a metrics recorder to every instrumented call.
func WithMetrics(m MetricsRecorder) Option {
	return func(c *config) { c.metrics = m }
}

// WithTracer attaches a tracer to every instrumented call.
func WithTracer(t Tracer) Option {
	return func(c *config) { c.tracer = t }
}

// New constructs a session with its own registry, journal and checker. The
// journal sits first in the reporter chain so every incident is recorded even
// when the trailing reporter aborts the run.
func New(opts ...Option) *Session {
	cfg := config{reporter: provenance.PanicReporter{}}
	for _, opt := range opts {
		opt(&cfg)
	}
	jr := journal.New()
	return &Session{
		reg:     provenance.NewRegistry(),
		chk:     provenance.NewChecker(provenance.MultiReporter(jr, cfg.reporter)),
		journal: jr,
		metrics: cfg.metrics,
		tracer:  cfg.tracer,
	}
}

// Registry returns the underlying provenance registry.
func (s *Session) Registry() *provenance.Registry { return s.reg }

// Checker returns the underlying compatibility checker.
func (s *Session) Checker() *provenance.Checker { return s.chk }

// Journal returns the run journal.
func (s *Session) Journal() *journal.Journal { return s.journal }

// Snapshot exports the run record accumulated so far.
func (s *Session) Snapshot() journal.RunRecord { return s.journal.Snapshot() }

// FreshRoot allocates a root state for explicit initial contents.
func (s *Session) FreshRoot(elementCount int) *provenance.State {
	return s.reg.FreshRoot(elementCount)
}

// NamedRoot returns the interned root for a fixture kind, noting its identity
// in the journal.
func (s *Session) NamedRoot(name string, elementCount int) *provenance.State {
	st := s.reg.NamedRoot(name, elementCount)
	s.journal.RecordNamedRoot(name, st.ID())
	return st
}

// Transition computes the successor state and journals the edge.
func (s *Session) Transition(prev *provenance.State, op provenance.Operation) *provenance.State {
	done := s.instrument("transition")
	next, hit := s.reg.TransitionInfo(prev, op)
	s.journal.RecordTransition(prev.ID(), op, next.ID(), hit)
	done(nil)
	return next
}

// CheckCompatible proves two indices usable together. Incidents reach the
// journal through the checker's reporter chain.
func (s *Session) CheckCompatible(a, b provenance.Index) error {
	done := s.instrument("check_compatible")
	err := s.chk.CheckCompatible(a, b)
	done(err)
	return err
}

// CheckRange applies the fail-early bounds guard.
func (s *Session) CheckRange(ix provenance.Index, bounds provenance.Range) error {
	done := s.instrument("check_range")
	err := s.chk.CheckRange(ix, bounds)
	done(err)
	return err
}

// instrument opens a span and timer for one call; the returned func closes
// both with the call's outcome.
func (s *Session) instrument(operation string) func(error) {
	var span TraceSpan
	if s.tracer != nil {
		span = s.tracer.Start(operation)
	}
	start := time.Now()
	return func(err error) {
		if s.metrics != nil {
			s.metrics.Observe(operation, err == nil, time.Since(start))
		}
		if span != nil {
			span.End(err)
		}
	}
}

var (
	_ fixture.Registry = (*Session)(nil)
	_ fixture.Oracle   = (*Session)(nil)
)
