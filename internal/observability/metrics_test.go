package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestDomainCounters_Registered(t *testing.T) {
	ReconcileRuns.WithLabelValues("weekly", "ok").Inc()
	ArchivedEvents.WithLabelValues("success", "weekly").Inc()
	ReceiptsConfirmed.Add(2)

	mfs, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	want := map[string]bool{
		"schedule_reconcile_runs_total":         false,
		"archived_events_total":                 false,
		"notification_receipts_confirmed_total": false,
	}
	for _, mf := range mfs {
		if _, ok := want[mf.GetName()]; ok {
			want[mf.GetName()] = true
		}
	}
	for name, seen := range want {
		if !seen {
			t.Fatalf("metric %s not registered", name)
		}
	}
	if v := testutil.ToFloat64(ReceiptsConfirmed); v < 2 {
		t.Fatalf("ReceiptsConfirmed = %v", v)
	}
}
