// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for scheduled
// events and the archived-event ledger.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/survey-scheduler/internal/domain"
)

// CreateScheduledEvent inserts a scheduled event built by
// domain.NewScheduledEvent.
func CreateScheduledEvent(ctx context.Context, db *gorm.DB, ev *domain.ScheduledEvent) error {
	if _, _, err := ev.Variant(); err != nil {
		return err
	}
	return db.WithContext(ctx).Create(ev).Error
}

// GetScheduledEvent fetches a scheduled event by id.
func GetScheduledEvent(ctx context.Context, db *gorm.DB, id string) (*domain.ScheduledEvent, error) {
	var ev domain.ScheduledEvent
	if err := db.WithContext(ctx).Where("id = ?", id).First(&ev).Error; err != nil {
		return nil, err
	}
	return &ev, nil
}

// MarkEventArchived points the live event at its latest archive row and
// retires it when the delivery succeeded.
func MarkEventArchived(ctx context.Context, db *gorm.DB, eventID, archivedID string, retire bool) error {
	res := db.WithContext(ctx).Model(&domain.ScheduledEvent{}).
		Where("id = ?", eventID).
		Updates(map[string]any{
			"most_recent_event_id": archivedID,
			"deleted":              retire,
			"updated_at":           time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateArchivedEvent appends a row to the delivery ledger.
func CreateArchivedEvent(ctx context.Context, db *gorm.DB, ae *domain.ArchivedEvent) error {
	now := time.Now().UTC()
	if ae.CreatedAt.IsZero() {
		ae.CreatedAt = now
	}
	ae.UpdatedAt = now
	return db.WithContext(ctx).Create(ae).Error
}

// GetArchivedEvent fetches one ledger row.
func GetArchivedEvent(ctx context.Context, db *gorm.DB, id string) (*domain.ArchivedEvent, error) {
	var ae domain.ArchivedEvent
	if err := db.WithContext(ctx).Where("id = ?", id).First(&ae).Error; err != nil {
		return nil, err
	}
	return &ae, nil
}

// CountArchivedEvents returns the number of ledger rows for a participant.
func CountArchivedEvents(ctx context.Context, db *gorm.DB, participantID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Model(&domain.ArchivedEvent{}).
		Where("participant_id = ?", participantID).
		Count(&total).Error
	return total, err
}

// ListArchivedEventsPage returns a participant's ledger newest first.
func ListArchivedEventsPage(ctx context.Context, db *gorm.DB, participantID string, offset, limit int) ([]domain.ArchivedEvent, error) {
	var out []domain.ArchivedEvent
	err := db.WithContext(ctx).
		Where("participant_id = ?", participantID).
		Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// ConfirmReceived flags a participant's archived events carrying one of
// uuids as received. Only the confirmation flag is written.
func ConfirmReceived(ctx context.Context, db *gorm.DB, participantID string, uuids []string) (int64, error) {
	if len(uuids) == 0 {
		return 0, nil
	}
	res := db.WithContext(ctx).Model(&domain.ArchivedEvent{}).
		Where("participant_id = ? AND uuid IN ? AND confirmed_received = ?", participantID, uuids, false).
		Updates(map[string]any{
			"confirmed_received": true,
			"updated_at":         time.Now().UTC(),
		})
	return res.RowsAffected, res.Error
}
