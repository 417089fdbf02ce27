// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// Codes are lowercase snake_case. Generic codes mirror HTTP status semantics;
// domain codes name scheduling failures that the status alone cannot convey,
// so that the editor and delivery workers can branch on them.
//
// Example response:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "bad_weekly_count",
//	  "message": "weekly timings must have exactly 7 day buckets"
//	}
package handlers

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeNotFound         = "not_found"
	ErrCodeConflict         = "conflict"
	ErrCodeRateLimited      = "too_many_requests"
	ErrCodeInternal         = "internal_error"
	ErrCodeMethodNotAllowed = "method_not_allowed"
	ErrCodeUnavailable      = "unavailable"
	ErrCodeTimeout          = "timeout"

	// Domain-specific:
	ErrCodeBadWeeklyCount       = "bad_weekly_count"
	ErrCodeInvalidTiming        = "invalid_timing"
	ErrCodeUnknownIntervention  = "unknown_intervention"
	ErrCodeUnknownStatus        = "unknown_status"
	ErrCodeInvalidReceipt       = "invalid_receipt"
	ErrCodeParticipantMismatch  = "participant_mismatch"
	ErrCodeScheduleIntegrity    = "schedule_integrity"
	ErrCodeNoSchedules          = "no_schedules"
	ErrCodeInvalidTimezone      = "invalid_timezone"
	ErrCodeUpsertExhausted      = "upsert_exhausted"
	ErrCodeListFailed           = "list_failed"
	ErrCodeReconcileFailed      = "reconcile_failed"
	ErrCodeArchiveFailed        = "archive_failed"
	ErrCodeResolveFailed        = "resolve_failed"
	ErrCodeReceiptRecordFailed  = "receipt_record_failed"
	ErrCodeScheduleExportFailed = "schedule_export_failed"
)
