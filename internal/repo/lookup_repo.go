// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides read helpers for the collaborators the
// scheduler depends on: studies, surveys, participants and interventions.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/survey-scheduler/internal/domain"
)

// GetSurvey fetches a survey by id, deleted or not.
func GetSurvey(ctx context.Context, db *gorm.DB, id string) (*domain.Survey, error) {
	var s domain.Survey
	if err := db.WithContext(ctx).Where("id = ?", id).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// GetStudy fetches a study by id.
func GetStudy(ctx context.Context, db *gorm.DB, id string) (*domain.Study, error) {
	var s domain.Study
	if err := db.WithContext(ctx).Where("id = ?", id).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// StudyForSurvey returns the study that owns surveyID.
func StudyForSurvey(ctx context.Context, db *gorm.DB, surveyID string) (*domain.Study, error) {
	var s domain.Study
	err := db.WithContext(ctx).
		Joins("JOIN surveys ON surveys.study_id = studies.id").
		Where("surveys.id = ?", surveyID).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetParticipant fetches a participant by id.
func GetParticipant(ctx context.Context, db *gorm.DB, id string) (*domain.Participant, error) {
	var p domain.Participant
	if err := db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// GetIntervention fetches an intervention by id.
func GetIntervention(ctx context.Context, db *gorm.DB, id string) (*domain.Intervention, error) {
	var iv domain.Intervention
	if err := db.WithContext(ctx).Where("id = ?", id).First(&iv).Error; err != nil {
		return nil, err
	}
	return &iv, nil
}

// CountInterventions returns how many of ids belong to studyID.
func CountInterventions(ctx context.Context, db *gorm.DB, studyID string, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var n int64
	err := db.WithContext(ctx).Model(&domain.Intervention{}).
		Where("study_id = ? AND id IN ?", studyID, ids).
		Count(&n).Error
	return n, err
}

// GetInterventionDate returns the participant's date row for an
// intervention, or ErrNotFound when none was recorded.
func GetInterventionDate(ctx context.Context, db *gorm.DB, participantID, interventionID string) (*domain.InterventionDate, error) {
	var d domain.InterventionDate
	err := db.WithContext(ctx).
		Where("participant_id = ? AND intervention_id = ?", participantID, interventionID).
		First(&d).Error
	if err != nil {
		return nil, err
	}
	return &d, nil
}
