// Package services defines the business logic for schedule reconciliation,
// temporal resolution, delivery archiving and receipt confirmation. This
// file centralizes common service-level error values so that they can be
// consistently returned by service methods and checked by callers.
//
// These errors are intended for internal use by the service layer and translation
// into user-facing messages or HTTP status codes should be performed at the
// handler/controller layer.
package services

import (
	"errors"

	"github.com/tbourn/survey-scheduler/internal/domain"
	"github.com/tbourn/survey-scheduler/internal/repo"
)

// Validation errors. Nothing is persisted when one of these is returned.
var (
	// ErrBadWeeklyCount is returned when weekly timings are not exactly
	// seven day buckets.
	ErrBadWeeklyCount = errors.New("weekly timings must have exactly 7 day buckets")

	// ErrInvalidTiming is returned for seconds outside a day, impossible
	// calendar dates or a missing intervention id.
	ErrInvalidTiming = errors.New("invalid schedule timing")
)

// Missing-reference errors.
var (
	// ErrSurveyNotFound indicates that the survey does not exist.
	ErrSurveyNotFound = errors.New("survey not found")

	// ErrStudyNotFound indicates that the survey's study does not exist.
	ErrStudyNotFound = errors.New("study not found")

	// ErrInterventionNotFound indicates that a relative schedule names an
	// intervention that does not exist in the study.
	ErrInterventionNotFound = errors.New("intervention not found")

	// ErrEventNotFound indicates that the scheduled event does not exist.
	ErrEventNotFound = errors.New("scheduled event not found")

	// ErrParticipantNotFound indicates that the participant does not exist.
	ErrParticipantNotFound = errors.New("participant not found")

	// ErrScheduleNotFound indicates that the definition an event points at
	// is gone.
	ErrScheduleNotFound = errors.New("schedule definition not found")
)

// Domain and store errors.
var (
	// ErrScheduleIntegrity is returned when a scheduled event does not
	// reference exactly one schedule definition.
	ErrScheduleIntegrity = domain.ErrScheduleIntegrity

	// ErrUnknownStatus is returned for delivery statuses outside the vocabulary.
	ErrUnknownStatus = domain.ErrUnknownStatus

	// ErrParticipantMismatch is returned when archiving an event on behalf
	// of a participant it does not belong to.
	ErrParticipantMismatch = errors.New("event does not belong to participant")

	// ErrUpsertExhausted is returned when store conflicts outlasted the
	// configured upsert attempts.
	ErrUpsertExhausted = repo.ErrUpsertExhausted

	// ErrNoSchedules is returned when a survey has no weekly definitions to
	// pick a next occurrence from.
	ErrNoSchedules = errors.New("survey has no weekly schedules")

	// ErrInvalidTimezone is returned when the study timezone cannot be loaded.
	ErrInvalidTimezone = errors.New("invalid study timezone")
)
