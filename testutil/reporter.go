package testutil

import (
	"testing"

	"seqprov/pkg/provenance"
)

// Reporter adapts a testing.TB into a provenance.Reporter: every incident
// becomes a test error instead of a panic, so a single test can observe
// several misuses.
func Reporter(t testing.TB) provenance.Reporter {
	return &testReporter{t: t}
}

type testReporter struct {
	t testing.TB
}

func (r *testReporter) Report(incident provenance.Incident) {
	r.t.Helper()
	r.t.Errorf("%s incident: %s (left %+v, right %+v)",
		incident.Kind, incident.Message, incident.Left, incident.Right)
}
