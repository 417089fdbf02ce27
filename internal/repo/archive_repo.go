// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for survey
// content snapshots.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/survey-scheduler/internal/domain"
)

// LatestSurveyArchive returns the newest snapshot for a survey or
// ErrNotFound when the survey was never snapshotted.
func LatestSurveyArchive(ctx context.Context, db *gorm.DB, surveyID string) (*domain.SurveyArchive, error) {
	var a domain.SurveyArchive
	res := db.WithContext(ctx).
		Where("survey_id = ?", surveyID).
		Order("created_at DESC, id DESC").
		Limit(1).
		Find(&a)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return &a, nil
}

// CreateSurveyArchive snapshots the survey's current content.
func CreateSurveyArchive(ctx context.Context, db *gorm.DB, s *domain.Survey) (*domain.SurveyArchive, error) {
	a := &domain.SurveyArchive{
		ID:        uuid.NewString(),
		SurveyID:  s.ID,
		Content:   s.Content,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(a).Error; err != nil {
		return nil, err
	}
	return a, nil
}

// SurveyArchiveExists reports whether id names a snapshot of surveyID.
func SurveyArchiveExists(ctx context.Context, db *gorm.DB, id, surveyID string) (bool, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.SurveyArchive{}).
		Where("id = ? AND survey_id = ?", id, surveyID).
		Count(&n).Error
	return n > 0, err
}

// IsLatestSurveyArchive reports whether id is the snapshot
// LatestSurveyArchive would return for surveyID, without loading content.
func IsLatestSurveyArchive(ctx context.Context, db *gorm.DB, id, surveyID string) (bool, error) {
	newer := db.Table("survey_archives AS n").Select("1").
		Where("n.survey_id = cur.survey_id").
		Where("n.created_at > cur.created_at OR (n.created_at = cur.created_at AND n.id > cur.id)")
	var n int64
	err := db.WithContext(ctx).Table("survey_archives AS cur").
		Where("cur.id = ? AND cur.survey_id = ?", id, surveyID).
		Where("NOT EXISTS (?)", newer).
		Count(&n).Error
	return n > 0, err
}
