// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for device
// delivery reports.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/survey-scheduler/internal/domain"
)

// CreateNotificationReports stores one unapplied report per uuid.
func CreateNotificationReports(ctx context.Context, db *gorm.DB, participantID string, uuids []string) ([]domain.NotificationReport, error) {
	if len(uuids) == 0 {
		return nil, nil
	}
	now := time.Now().UTC()
	rows := make([]domain.NotificationReport, 0, len(uuids))
	for _, u := range uuids {
		rows = append(rows, domain.NotificationReport{
			ID:               uuid.NewString(),
			ParticipantID:    participantID,
			NotificationUUID: u,
			CreatedAt:        now,
		})
	}
	if err := db.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// PendingNotificationReports returns up to limit unapplied reports, oldest first.
func PendingNotificationReports(ctx context.Context, db *gorm.DB, limit int) ([]domain.NotificationReport, error) {
	var out []domain.NotificationReport
	q := db.WithContext(ctx).Where("applied = ?", false).Order("created_at ASC, id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&out).Error
	return out, err
}

// MarkReportsApplied flags the given reports as applied.
func MarkReportsApplied(ctx context.Context, db *gorm.DB, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := db.WithContext(ctx).Model(&domain.NotificationReport{}).
		Where("id IN ?", ids).
		Update("applied", true)
	return res.RowsAffected, res.Error
}
