package metrics

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	if r == nil {
		t.Fatal("NewRegistry() returned nil")
	}

	if r.SimulationsTotal == nil || r.TrialsTotal == nil || r.EdgesLoadedTotal == nil {
		t.Error("metrics not initialized")
	}

	if r.GetPrometheusRegistry() == nil {
		t.Error("Prometheus registry not initialized")
	}
}

func TestRecordSimulation(t *testing.T) {
	r := NewRegistry()
	r.RecordSimulation(3, 10, time.Millisecond, nil)
	r.RecordSimulation(1, 1, time.Millisecond, nil)
	r.RecordSimulation(0, 0, 0, errors.New("boom"))

	if ok := testutil.ToFloat64(r.SimulationsTotal.WithLabelValues("ok")); ok != 2 {
		t.Errorf("SimulationsTotal{ok}: expected 2, got %v", ok)
	}

	if failed := testutil.ToFloat64(r.SimulationsTotal.WithLabelValues("error")); failed != 1 {
		t.Errorf("SimulationsTotal{error}: expected 1, got %v", failed)
	}
}

func TestRecordLoad(t *testing.T) {
	r := NewRegistry()
	r.RecordLoad(10, 2)
	r.RecordLoad(5, 0)

	if edges := testutil.ToFloat64(r.EdgesLoadedTotal); edges != 15 {
		t.Errorf("EdgesLoadedTotal: expected 15, got %v", edges)
	}

	if skipped := testutil.ToFloat64(r.LinesSkippedTotal); skipped != 2 {
		t.Errorf("LinesSkippedTotal: expected 2, got %v", skipped)
	}
}

func TestNilRegistry(t *testing.T) {
	var r *Registry
	// must not panic
	r.RecordSimulation(1, 1, time.Second, nil)
	r.RecordTrial()
	r.RecordRank(time.Second)
	r.RecordLoad(1, 1)
}

func TestHandler(t *testing.T) {
	r := NewRegistry()
	r.RecordTrial()

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	if !strings.Contains(rec.Body.String(), "gossip_trials_total 1") {
		t.Errorf("Handler(): expected gossip_trials_total 1 in\n%s", rec.Body.String())
	}
}
