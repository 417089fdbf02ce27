// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the three
// schedule definition tables: natural-key upserts, scoped deletes and
// ordered listings.
package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/tbourn/survey-scheduler/internal/domain"
)

// ErrUpsertExhausted is returned when an upsert kept hitting store
// conflicts until its attempt budget ran out.
var ErrUpsertExhausted = errors.New("upsert retries exhausted")

// ErrUnknownScheduleType is returned for a schedule type outside the three variants.
var ErrUnknownScheduleType = errors.New("unknown schedule type")

// upsert looks a row up by its natural key and inserts it when missing.
// A unique violation on insert means a concurrent writer won the race, so
// the lookup runs again. The bool result reports whether this call created
// the row.
func upsert[T any](ctx context.Context, db *gorm.DB, attempts int, match func(*gorm.DB) *gorm.DB, build func() *T) (*T, bool, error) {
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			if err := backoff(ctx, i); err != nil {
				return nil, false, err
			}
		}

		var found T
		res := match(db.WithContext(ctx)).Limit(1).Find(&found)
		if res.Error != nil {
			if IsBusy(res.Error) {
				lastErr = res.Error
				continue
			}
			return nil, false, res.Error
		}
		if res.RowsAffected > 0 {
			return &found, false, nil
		}

		row := build()
		err := db.WithContext(ctx).Create(row).Error
		if err == nil {
			return row, true, nil
		}
		if IsDuplicate(err) || IsBusy(err) {
			lastErr = err
			continue
		}
		return nil, false, err
	}
	return nil, false, fmt.Errorf("%w after %d attempts: %v", ErrUpsertExhausted, attempts, lastErr)
}

func backoff(ctx context.Context, attempt int) error {
	t := time.NewTimer(time.Duration(attempt) * 5 * time.Millisecond)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// UpsertAbsolute finds or creates the absolute definition for
// (survey, date, hour, minute).
func UpsertAbsolute(ctx context.Context, db *gorm.DB, surveyID string, date datatypes.Date, hour, minute, attempts int) (*domain.AbsoluteSchedule, bool, error) {
	return upsert(ctx, db, attempts,
		func(q *gorm.DB) *gorm.DB {
			return q.Where("survey_id = ? AND date = ? AND hour = ? AND minute = ?", surveyID, date, hour, minute)
		},
		func() *domain.AbsoluteSchedule {
			return &domain.AbsoluteSchedule{ID: uuid.NewString(), SurveyID: surveyID, Date: date, Hour: hour, Minute: minute}
		},
	)
}

// UpsertRelative finds or creates the relative definition for
// (survey, intervention, days after, hour, minute). A nil intervention
// matches rows whose intervention was removed.
func UpsertRelative(ctx context.Context, db *gorm.DB, surveyID string, interventionID *string, daysAfter, hour, minute, attempts int) (*domain.RelativeSchedule, bool, error) {
	return upsert(ctx, db, attempts,
		func(q *gorm.DB) *gorm.DB {
			q = q.Where("survey_id = ? AND days_after = ? AND hour = ? AND minute = ?", surveyID, daysAfter, hour, minute)
			if interventionID == nil {
				return q.Where("intervention_id IS NULL")
			}
			return q.Where("intervention_id = ?", *interventionID)
		},
		func() *domain.RelativeSchedule {
			return &domain.RelativeSchedule{
				ID: uuid.NewString(), SurveyID: surveyID, InterventionID: interventionID,
				DaysAfter: daysAfter, Hour: hour, Minute: minute,
			}
		},
	)
}

// UpsertWeekly finds or creates the weekly definition for
// (survey, day of week, hour, minute).
func UpsertWeekly(ctx context.Context, db *gorm.DB, surveyID string, dayOfWeek, hour, minute, attempts int) (*domain.WeeklySchedule, bool, error) {
	return upsert(ctx, db, attempts,
		func(q *gorm.DB) *gorm.DB {
			return q.Where("survey_id = ? AND day_of_week = ? AND hour = ? AND minute = ?", surveyID, dayOfWeek, hour, minute)
		},
		func() *domain.WeeklySchedule {
			return &domain.WeeklySchedule{ID: uuid.NewString(), SurveyID: surveyID, DayOfWeek: dayOfWeek, Hour: hour, Minute: minute}
		},
	)
}

func scheduleModel(typ domain.ScheduleType) (any, error) {
	switch typ {
	case domain.ScheduleAbsolute:
		return &domain.AbsoluteSchedule{}, nil
	case domain.ScheduleRelative:
		return &domain.RelativeSchedule{}, nil
	case domain.ScheduleWeekly:
		return &domain.WeeklySchedule{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownScheduleType, typ)
}

// DeleteSchedulesExcept removes the survey's definitions of one variant
// whose id is not in keep. An empty keep removes them all. Only rows of
// that variant and survey are ever touched.
func DeleteSchedulesExcept(ctx context.Context, db *gorm.DB, typ domain.ScheduleType, surveyID string, keep []string) (int64, error) {
	model, err := scheduleModel(typ)
	if err != nil {
		return 0, err
	}
	q := db.WithContext(ctx).Where("survey_id = ?", surveyID)
	if len(keep) > 0 {
		q = q.Where("id NOT IN ?", keep)
	}
	res := q.Delete(model)
	return res.RowsAffected, res.Error
}

// GetSchedule loads one definition by variant and id.
func GetSchedule(ctx context.Context, db *gorm.DB, typ domain.ScheduleType, id string) (domain.Schedule, error) {
	q := db.WithContext(ctx).Where("id = ?", id)
	switch typ {
	case domain.ScheduleAbsolute:
		var s domain.AbsoluteSchedule
		if err := q.First(&s).Error; err != nil {
			return nil, err
		}
		return &s, nil
	case domain.ScheduleRelative:
		var s domain.RelativeSchedule
		if err := q.First(&s).Error; err != nil {
			return nil, err
		}
		return &s, nil
	case domain.ScheduleWeekly:
		var s domain.WeeklySchedule
		if err := q.First(&s).Error; err != nil {
			return nil, err
		}
		return &s, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownScheduleType, typ)
}

// ListAbsolute returns a survey's absolute definitions ordered by date and time.
func ListAbsolute(ctx context.Context, db *gorm.DB, surveyID string) ([]domain.AbsoluteSchedule, error) {
	var out []domain.AbsoluteSchedule
	err := db.WithContext(ctx).Where("survey_id = ?", surveyID).
		Order("date ASC, hour ASC, minute ASC").Find(&out).Error
	return out, err
}

// ListRelative returns a survey's relative definitions ordered by
// intervention, offset and time.
func ListRelative(ctx context.Context, db *gorm.DB, surveyID string) ([]domain.RelativeSchedule, error) {
	var out []domain.RelativeSchedule
	err := db.WithContext(ctx).Where("survey_id = ?", surveyID).
		Order("intervention_id ASC, days_after ASC, hour ASC, minute ASC").Find(&out).Error
	return out, err
}

// ListWeekly returns a survey's weekly definitions ordered by day and time.
func ListWeekly(ctx context.Context, db *gorm.DB, surveyID string) ([]domain.WeeklySchedule, error) {
	var out []domain.WeeklySchedule
	err := db.WithContext(ctx).Where("survey_id = ?", surveyID).
		Order("day_of_week ASC, hour ASC, minute ASC").Find(&out).Error
	return out, err
}
