// Package services – Resolver
//
// This file implements Resolver, which turns a schedule definition into the
// concrete instant a participant should be notified at. Absolute and weekly
// definitions are always resolvable; relative definitions wait until the
// participant has a date recorded for the anchoring intervention.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/survey-scheduler/internal/domain"
	"github.com/tbourn/survey-scheduler/internal/repo"
	"github.com/tbourn/survey-scheduler/internal/temporal"
)

// Query parameterizes a resolution. Week only applies to weekly
// definitions. A zero Now means the resolver clock.
type Query struct {
	Week temporal.Week
	Now  time.Time
}

// Resolution is the outcome of resolving a stored scheduled event.
type Resolution struct {
	Event    *domain.ScheduledEvent
	Schedule domain.Schedule
	Location *time.Location
	DueAt    time.Time
	OK       bool
}

// Canonical returns the stored event time in the study timezone.
func (r Resolution) Canonical() time.Time {
	if r.Event == nil {
		return time.Time{}
	}
	return r.Event.CanonicalTime(r.Location)
}

// NextOccurrence is the earliest upcoming weekly slot of a survey.
type NextOccurrence struct {
	Schedule *domain.WeeklySchedule
	At       time.Time
}

// Resolver computes due instants for schedule definitions.
type Resolver struct {
	DB  *gorm.DB
	Now func() time.Time
}

// NewResolver constructs a Resolver using the wall clock.
func NewResolver(db *gorm.DB) *Resolver {
	return &Resolver{DB: db, Now: time.Now}
}

func (r *Resolver) now(q Query) time.Time {
	if !q.Now.IsZero() {
		return q.Now
	}
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

// Resolve returns the instant sched is due for participantID in loc.
// ok is false with a nil error when a relative definition has no anchor
// date yet.
func (r *Resolver) Resolve(ctx context.Context, sched domain.Schedule, participantID string, loc *time.Location, q Query) (time.Time, bool, error) {
	if loc == nil {
		loc = time.UTC
	}
	switch s := sched.(type) {
	case *domain.AbsoluteSchedule:
		return temporal.AtDate(time.Time(s.Date), 0, s.Hour, s.Minute, loc), true, nil

	case *domain.RelativeSchedule:
		if s.InterventionID == nil {
			return time.Time{}, false, nil
		}
		if _, err := repo.GetIntervention(ctx, r.DB, *s.InterventionID); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return time.Time{}, false, ErrInterventionNotFound
			}
			return time.Time{}, false, err
		}
		row, err := repo.GetInterventionDate(ctx, r.DB, participantID, *s.InterventionID)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return time.Time{}, false, nil
			}
			return time.Time{}, false, err
		}
		if row.Date == nil {
			return time.Time{}, false, nil
		}
		return temporal.AtDate(time.Time(*row.Date), s.DaysAfter, s.Hour, s.Minute, loc), true, nil

	case *domain.WeeklySchedule:
		return temporal.Occurrence(q.Week, s.DayOfWeek, s.Hour, s.Minute, r.now(q), loc), true, nil
	}
	return time.Time{}, false, fmt.Errorf("%w: unsupported schedule %T", ErrScheduleIntegrity, sched)
}

// ResolveEvent loads a scheduled event with its definition and study
// timezone, then resolves it for the event's participant.
func (r *Resolver) ResolveEvent(ctx context.Context, eventID string, q Query) (Resolution, error) {
	tr := otel.Tracer("services/Resolver")
	ctx, span := tr.Start(ctx, "ResolveEvent",
		trace.WithAttributes(
			attribute.String("event.id", eventID),
			attribute.String("week", q.Week.String()),
		),
	)
	defer span.End()

	ev, err := repo.GetScheduledEvent(ctx, r.DB, eventID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return Resolution{}, ErrEventNotFound
		}
		return Resolution{}, err
	}
	typ, schedID, err := ev.Variant()
	if err != nil {
		return Resolution{}, err
	}
	sched, err := repo.GetSchedule(ctx, r.DB, typ, schedID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return Resolution{}, ErrScheduleNotFound
		}
		return Resolution{}, err
	}
	loc, err := r.studyLocation(ctx, ev.SurveyID)
	if err != nil {
		return Resolution{}, err
	}

	at, ok, err := r.Resolve(ctx, sched, ev.ParticipantID, loc, q)
	if err != nil {
		return Resolution{}, err
	}
	span.SetAttributes(attribute.String("schedule.type", string(typ)), attribute.Bool("resolvable", ok))
	return Resolution{Event: ev, Schedule: sched, Location: loc, DueAt: at, OK: ok}, nil
}

// NextWeekly returns the earliest upcoming occurrence across all weekly
// definitions of a survey. Ties go to the first definition in day and time
// order.
func (r *Resolver) NextWeekly(ctx context.Context, surveyID string, now time.Time) (NextOccurrence, error) {
	if now.IsZero() {
		now = r.now(Query{})
	}
	if _, err := repo.GetSurvey(ctx, r.DB, surveyID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return NextOccurrence{}, ErrSurveyNotFound
		}
		return NextOccurrence{}, err
	}
	rows, err := repo.ListWeekly(ctx, r.DB, surveyID)
	if err != nil {
		return NextOccurrence{}, err
	}
	if len(rows) == 0 {
		return NextOccurrence{}, ErrNoSchedules
	}
	loc, err := r.studyLocation(ctx, surveyID)
	if err != nil {
		return NextOccurrence{}, err
	}

	var best NextOccurrence
	for i := range rows {
		w := &rows[i]
		at := temporal.Occurrence(temporal.Upcoming, w.DayOfWeek, w.Hour, w.Minute, now, loc)
		if best.Schedule == nil || at.Before(best.At) {
			best = NextOccurrence{Schedule: w, At: at}
		}
	}
	return best, nil
}

func (r *Resolver) studyLocation(ctx context.Context, surveyID string) (*time.Location, error) {
	st, err := repo.StudyForSurvey(ctx, r.DB, surveyID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrStudyNotFound
		}
		return nil, err
	}
	loc, err := st.Location()
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidTimezone, st.Timezone, err)
	}
	return loc, nil
}
