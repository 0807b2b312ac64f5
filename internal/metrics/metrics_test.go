package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorderOperations(t *testing.T) {
	r := New()

	r.Started()
	if got := testutil.ToFloat64(r.inFlight); got != 1 {
		t.Errorf("in flight = %v, want 1", got)
	}

	r.Finished("START", ResultSuccess, 300*time.Millisecond)
	r.Finished("STATUS", ResultFailure, time.Second)
	r.Finished("STATUS", ResultFailure, time.Second)

	if got := testutil.ToFloat64(r.inFlight); got != 0 {
		t.Errorf("in flight = %v, want 0", got)
	}
	if got := testutil.ToFloat64(r.operations.WithLabelValues("START", ResultSuccess)); got != 1 {
		t.Errorf("START/success = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.operations.WithLabelValues("STATUS", ResultFailure)); got != 2 {
		t.Errorf("STATUS/failure = %v, want 2", got)
	}
}

func TestRecorderCounters(t *testing.T) {
	r := New()
	r.Busy()
	r.Busy()
	r.AutoPollSkipped()

	if got := testutil.ToFloat64(r.busyRejections); got != 2 {
		t.Errorf("busy rejections = %v, want 2", got)
	}
	if got := testutil.ToFloat64(r.autoPollSkipped); got != 1 {
		t.Errorf("autopoll skipped = %v, want 1", got)
	}
}

func TestRecorderObserveStatus(t *testing.T) {
	r := New()
	all := []string{"RUNNING", "TERMINATED"}

	r.ObserveStatus("RUNNING", all)
	r.ObserveStatus("TERMINATED", all)

	if got := testutil.ToFloat64(r.lastStatus.WithLabelValues("RUNNING")); got != 0 {
		t.Errorf("RUNNING = %v, want 0", got)
	}
	if got := testutil.ToFloat64(r.lastStatus.WithLabelValues("TERMINATED")); got != 1 {
		t.Errorf("TERMINATED = %v, want 1", got)
	}
}

func TestNilRecorder(t *testing.T) {
	var r *Recorder
	r.Started()
	r.Finished("STOP", ResultCancelled, time.Millisecond)
	r.Busy()
	r.AutoPollSkipped()
	r.ObserveStatus("RUNNING", []string{"RUNNING"})
}

func TestHandler(t *testing.T) {
	r := New()
	r.Busy()

	srv := httptest.NewServer(r.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if !strings.Contains(string(body), "gcpvm_busy_rejections_total 1") {
		t.Errorf("metrics output missing busy counter:\n%s", body)
	}
}
