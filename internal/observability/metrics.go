package observability

import "github.com/prometheus/client_golang/prometheus"

// Domain counters for the scheduling core. Labels are bounded enums
// (variant, outcome, status, result) so cardinality stays fixed.
var (
	// ReconcileRuns counts reconciliation passes by variant and outcome
	// ("ok", "no_schedule", "invalid", "error").
	ReconcileRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "schedule_reconcile_runs_total",
			Help: "Schedule reconciliation passes by variant and outcome.",
		},
		[]string{"variant", "outcome"},
	)

	// ScheduleRowsCreated counts definitions inserted by reconciliation.
	ScheduleRowsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "schedule_rows_created_total",
			Help: "Schedule definitions created by reconciliation.",
		},
		[]string{"variant"},
	)

	// ScheduleRowsDeleted counts definitions removed because they fell out
	// of the desired state.
	ScheduleRowsDeleted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "schedule_rows_deleted_total",
			Help: "Schedule definitions deleted by reconciliation.",
		},
		[]string{"variant"},
	)

	// ArchivedEvents counts delivery attempts recorded in the ledger.
	ArchivedEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "archived_events_total",
			Help: "Delivery attempts archived by status and schedule type.",
		},
		[]string{"status", "schedule_type"},
	)

	// ArchivePublishes counts downstream publishes of archived events
	// ("ok" or "error").
	ArchivePublishes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "archived_event_publish_total",
			Help: "Archived events published downstream by result.",
		},
		[]string{"result"},
	)

	// ReceiptsConfirmed counts archived events flagged as received.
	ReceiptsConfirmed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "notification_receipts_confirmed_total",
			Help: "Archived events confirmed as received by a device.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		ReconcileRuns,
		ScheduleRowsCreated,
		ScheduleRowsDeleted,
		ArchivedEvents,
		ArchivePublishes,
		ReceiptsConfirmed,
	)
}
