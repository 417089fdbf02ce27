// Package services – ScheduleService
//
// This file implements ScheduleService, which keeps a survey's stored
// schedule definitions in sync with the timings submitted by the survey
// editor. Each pass upserts every desired definition on its natural key and
// then deletes the survey's rows of that variant that were not touched.
// Upserting first means a concurrent pass never loses rows it just wrote.
//
// Observability: public methods are OpenTelemetry-instrumented and update
// the reconciliation counters in the observability package.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/survey-scheduler/internal/domain"
	"github.com/tbourn/survey-scheduler/internal/observability"
	"github.com/tbourn/survey-scheduler/internal/repo"
	"github.com/tbourn/survey-scheduler/internal/temporal"
)

// DefaultUpsertAttempts bounds the find-or-insert retries per definition.
const DefaultUpsertAttempts = 5

// Timings is the desired set of definitions for one variant of a survey.
// It is implemented by AbsoluteTimings, RelativeTimings and WeeklyTimings.
type Timings interface {
	Variant() domain.ScheduleType
	Len() int
}

// AbsoluteTiming is one editor entry: a calendar date plus seconds into
// that day.
type AbsoluteTiming struct {
	Year    int
	Month   int
	Day     int
	Seconds int
}

// RelativeTiming is one editor entry: an intervention, a day offset and
// seconds into the target day.
type RelativeTiming struct {
	InterventionID string
	DaysAfter      int
	Seconds        int
}

// AbsoluteTimings is the desired absolute schedule set.
type AbsoluteTimings []AbsoluteTiming

// RelativeTimings is the desired relative schedule set.
type RelativeTimings []RelativeTiming

// WeeklyTimings holds seconds-into-day lists for each weekday, Sunday first.
type WeeklyTimings [][]int

func (AbsoluteTimings) Variant() domain.ScheduleType { return domain.ScheduleAbsolute }
func (RelativeTimings) Variant() domain.ScheduleType { return domain.ScheduleRelative }
func (WeeklyTimings) Variant() domain.ScheduleType   { return domain.ScheduleWeekly }

func (t AbsoluteTimings) Len() int { return len(t) }
func (t RelativeTimings) Len() int { return len(t) }

// Len counts day buckets, not slots. Only a value with no buckets at all
// is empty; any other length goes through the seven-bucket check.
func (t WeeklyTimings) Len() int { return len(t) }

// Outcome tells whether a survey has any definitions of the variant after
// a reconciliation pass.
type Outcome string

const (
	// OutcomeOK means the survey now has exactly the desired definitions.
	OutcomeOK Outcome = "ok"
	// OutcomeNoSchedule means the survey has no definitions of the variant
	// left: it is deleted, the desired set is empty, or every entry of a
	// weekly input was an empty day.
	OutcomeNoSchedule Outcome = "no_schedule"
)

// ReconcileResult summarizes one pass.
type ReconcileResult struct {
	Variant domain.ScheduleType `json:"variant"`
	Outcome Outcome             `json:"outcome"`
	IDs     []string            `json:"ids"`
	// Created counts rows this pass inserted. An insert is counted even when
	// a later duplicate entry collapses onto it, so it is per pass and can
	// differ from the number of new ids in IDs.
	Created    int   `json:"created"`
	Deleted    int64 `json:"deleted"`
	Duplicates bool  `json:"duplicates"`
}

// ScheduleService reconciles and exports schedule definitions.
type ScheduleService struct {
	DB             *gorm.DB
	UpsertAttempts int
}

// NewScheduleService constructs a ScheduleService. attempts <= 0 selects
// DefaultUpsertAttempts.
func NewScheduleService(db *gorm.DB, attempts int) *ScheduleService {
	if attempts <= 0 {
		attempts = DefaultUpsertAttempts
	}
	return &ScheduleService{DB: db, UpsertAttempts: attempts}
}

// Reconcile dispatches to the variant-specific reconciliation.
func (s *ScheduleService) Reconcile(ctx context.Context, surveyID string, t Timings) (ReconcileResult, error) {
	switch v := t.(type) {
	case AbsoluteTimings:
		return s.ReconcileAbsolute(ctx, surveyID, v)
	case RelativeTimings:
		return s.ReconcileRelative(ctx, surveyID, v)
	case WeeklyTimings:
		return s.ReconcileWeekly(ctx, surveyID, v)
	default:
		return ReconcileResult{}, fmt.Errorf("%w: unsupported timings %T", ErrInvalidTiming, t)
	}
}

// ReconcileAbsolute makes the survey's absolute definitions equal to timings.
func (s *ScheduleService) ReconcileAbsolute(ctx context.Context, surveyID string, timings AbsoluteTimings) (ReconcileResult, error) {
	plan := func(_ *domain.Survey) ([]func() (string, bool, error), error) {
		steps := make([]func() (string, bool, error), 0, len(timings))
		for i, at := range timings {
			if !validDate(at.Year, at.Month, at.Day) {
				return nil, fmt.Errorf("%w: entry %d has impossible date %04d-%02d-%02d", ErrInvalidTiming, i, at.Year, at.Month, at.Day)
			}
			if !temporal.ValidSeconds(at.Seconds) {
				return nil, fmt.Errorf("%w: entry %d has %d seconds into day", ErrInvalidTiming, i, at.Seconds)
			}
			date := domain.CivilDate(at.Year, time.Month(at.Month), at.Day)
			hour, minute := temporal.SplitSeconds(at.Seconds)
			steps = append(steps, func() (string, bool, error) {
				row, created, err := repo.UpsertAbsolute(ctx, s.DB, surveyID, date, hour, minute, s.UpsertAttempts)
				if err != nil {
					return "", false, err
				}
				return row.ID, created, nil
			})
		}
		return steps, nil
	}
	return s.reconcile(ctx, surveyID, domain.ScheduleAbsolute, timings, plan)
}

// ReconcileRelative makes the survey's relative definitions equal to timings.
// Every intervention must exist in the survey's study.
func (s *ScheduleService) ReconcileRelative(ctx context.Context, surveyID string, timings RelativeTimings) (ReconcileResult, error) {
	plan := func(survey *domain.Survey) ([]func() (string, bool, error), error) {
		ids := make([]string, 0, len(timings))
		seen := map[string]struct{}{}
		for i, rt := range timings {
			if rt.InterventionID == "" {
				return nil, fmt.Errorf("%w: entry %d has no intervention", ErrInvalidTiming, i)
			}
			if !temporal.ValidSeconds(rt.Seconds) {
				return nil, fmt.Errorf("%w: entry %d has %d seconds into day", ErrInvalidTiming, i, rt.Seconds)
			}
			if _, ok := seen[rt.InterventionID]; !ok {
				seen[rt.InterventionID] = struct{}{}
				ids = append(ids, rt.InterventionID)
			}
		}
		n, err := repo.CountInterventions(ctx, s.DB, survey.StudyID, ids)
		if err != nil {
			return nil, err
		}
		if n != int64(len(ids)) {
			return nil, ErrInterventionNotFound
		}

		steps := make([]func() (string, bool, error), 0, len(timings))
		for _, rt := range timings {
			iv := rt.InterventionID
			days := rt.DaysAfter
			hour, minute := temporal.SplitSeconds(rt.Seconds)
			steps = append(steps, func() (string, bool, error) {
				row, created, err := repo.UpsertRelative(ctx, s.DB, surveyID, &iv, days, hour, minute, s.UpsertAttempts)
				if err != nil {
					return "", false, err
				}
				return row.ID, created, nil
			})
		}
		return steps, nil
	}
	return s.reconcile(ctx, surveyID, domain.ScheduleRelative, timings, plan)
}

// ReconcileWeekly makes the survey's weekly definitions equal to timings.
// Unless timings has no buckets at all it must have exactly seven, even
// when every bucket is empty; a wrong count persists nothing.
func (s *ScheduleService) ReconcileWeekly(ctx context.Context, surveyID string, timings WeeklyTimings) (ReconcileResult, error) {
	plan := func(_ *domain.Survey) ([]func() (string, bool, error), error) {
		if len(timings) != 7 {
			return nil, fmt.Errorf("%w: got %d", ErrBadWeeklyCount, len(timings))
		}
		var steps []func() (string, bool, error)
		for day, bucket := range timings {
			for _, secs := range bucket {
				if !temporal.ValidSeconds(secs) {
					return nil, fmt.Errorf("%w: day %d has %d seconds into day", ErrInvalidTiming, day, secs)
				}
				dow := day
				hour, minute := temporal.SplitSeconds(secs)
				steps = append(steps, func() (string, bool, error) {
					row, created, err := repo.UpsertWeekly(ctx, s.DB, surveyID, dow, hour, minute, s.UpsertAttempts)
					if err != nil {
						return "", false, err
					}
					return row.ID, created, nil
				})
			}
		}
		return steps, nil
	}
	return s.reconcile(ctx, surveyID, domain.ScheduleWeekly, timings, plan)
}

// reconcile runs the shared pass: survey lookup, the deleted/empty short
// circuit, validation of every entry, upserts, then the scoped delete.
// plan validates the input and returns one upsert step per entry; it must
// not write.
func (s *ScheduleService) reconcile(
	ctx context.Context,
	surveyID string,
	variant domain.ScheduleType,
	timings Timings,
	plan func(*domain.Survey) ([]func() (string, bool, error), error),
) (res ReconcileResult, err error) {
	tr := otel.Tracer("services/ScheduleService")
	ctx, span := tr.Start(ctx, "Reconcile",
		trace.WithAttributes(
			attribute.String("survey.id", surveyID),
			attribute.String("schedule.variant", string(variant)),
			attribute.Int("timings.len", timings.Len()),
		),
	)
	defer span.End()

	res = ReconcileResult{Variant: variant, IDs: []string{}}
	defer func() {
		outcome := string(res.Outcome)
		switch {
		case errors.Is(err, ErrBadWeeklyCount), errors.Is(err, ErrInvalidTiming), errors.Is(err, ErrInterventionNotFound):
			outcome = "invalid"
		case err != nil:
			outcome = "error"
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		observability.ReconcileRuns.WithLabelValues(string(variant), outcome).Inc()
	}()

	survey, err := repo.GetSurvey(ctx, s.DB, surveyID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return res, ErrSurveyNotFound
		}
		return res, err
	}

	if survey.Deleted || timings.Len() == 0 {
		n, err := repo.DeleteSchedulesExcept(ctx, s.DB, variant, surveyID, nil)
		if err != nil {
			return res, err
		}
		res.Outcome = OutcomeNoSchedule
		res.Deleted = n
		observability.ScheduleRowsDeleted.WithLabelValues(string(variant)).Add(float64(n))
		log.Debug().Str("survey_id", surveyID).Str("variant", string(variant)).
			Bool("survey_deleted", survey.Deleted).Int64("deleted", n).Msg("schedules cleared")
		return res, nil
	}

	steps, err := plan(survey)
	if err != nil {
		return res, err
	}

	seen := make(map[string]struct{}, len(steps))
	for _, step := range steps {
		id, created, err := step()
		if err != nil {
			return res, err
		}
		if created {
			res.Created++
		}
		if _, dup := seen[id]; dup {
			res.Duplicates = true
			continue
		}
		seen[id] = struct{}{}
		res.IDs = append(res.IDs, id)
	}

	n, err := repo.DeleteSchedulesExcept(ctx, s.DB, variant, surveyID, res.IDs)
	if err != nil {
		return res, err
	}
	res.Deleted = n
	res.Outcome = OutcomeOK
	if len(res.IDs) == 0 {
		res.Outcome = OutcomeNoSchedule
	}

	observability.ScheduleRowsCreated.WithLabelValues(string(variant)).Add(float64(res.Created))
	observability.ScheduleRowsDeleted.WithLabelValues(string(variant)).Add(float64(n))
	span.SetAttributes(
		attribute.Int("schedules.kept", len(res.IDs)),
		attribute.Int("schedules.created", res.Created),
		attribute.Int64("schedules.deleted", n),
	)
	if res.Duplicates {
		log.Warn().Str("survey_id", surveyID).Str("variant", string(variant)).
			Msg("duplicate schedule timings collapsed")
	}
	return res, nil
}

// validDate reports whether year-month-day names a real calendar day.
func validDate(year, month, day int) bool {
	if month < 1 || month > 12 || day < 1 {
		return false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	return t.Day() == day && int(t.Month()) == month && t.Year() == year
}

// ExportAbsolute returns the stored absolute definitions in editor shape,
// ordered by date and time.
func (s *ScheduleService) ExportAbsolute(ctx context.Context, surveyID string) (AbsoluteTimings, error) {
	if err := s.requireSurvey(ctx, surveyID); err != nil {
		return nil, err
	}
	rows, err := repo.ListAbsolute(ctx, s.DB, surveyID)
	if err != nil {
		return nil, err
	}
	out := make(AbsoluteTimings, 0, len(rows))
	for _, r := range rows {
		y, m, d := domain.DateParts(r.Date)
		out = append(out, AbsoluteTiming{Year: y, Month: int(m), Day: d, Seconds: temporal.JoinSeconds(r.Hour, r.Minute)})
	}
	return out, nil
}

// ExportRelative returns the stored relative definitions in editor shape.
// Rows whose intervention was removed are skipped.
func (s *ScheduleService) ExportRelative(ctx context.Context, surveyID string) (RelativeTimings, error) {
	if err := s.requireSurvey(ctx, surveyID); err != nil {
		return nil, err
	}
	rows, err := repo.ListRelative(ctx, s.DB, surveyID)
	if err != nil {
		return nil, err
	}
	out := make(RelativeTimings, 0, len(rows))
	for _, r := range rows {
		if r.InterventionID == nil {
			continue
		}
		out = append(out, RelativeTiming{InterventionID: *r.InterventionID, DaysAfter: r.DaysAfter, Seconds: temporal.JoinSeconds(r.Hour, r.Minute)})
	}
	return out, nil
}

// ExportWeekly returns seven buckets (Sunday first) of seconds into day,
// each ordered by time.
func (s *ScheduleService) ExportWeekly(ctx context.Context, surveyID string) (WeeklyTimings, error) {
	if err := s.requireSurvey(ctx, surveyID); err != nil {
		return nil, err
	}
	rows, err := repo.ListWeekly(ctx, s.DB, surveyID)
	if err != nil {
		return nil, err
	}
	out := make(WeeklyTimings, 7)
	for i := range out {
		out[i] = []int{}
	}
	for _, r := range rows {
		if r.DayOfWeek < 0 || r.DayOfWeek > 6 {
			continue
		}
		out[r.DayOfWeek] = append(out[r.DayOfWeek], temporal.JoinSeconds(r.Hour, r.Minute))
	}
	return out, nil
}

func (s *ScheduleService) requireSurvey(ctx context.Context, surveyID string) error {
	if _, err := repo.GetSurvey(ctx, s.DB, surveyID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrSurveyNotFound
		}
		return err
	}
	return nil
}
