package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/survey-scheduler/internal/domain"
)

// LedgerStats summarises a participant's archived events. Any archive or
// receipt confirmation changes at least one field, so the triple is a
// validator for the ledger listing.
type LedgerStats struct {
	Count       int64
	Confirmed   int64
	LastUpdated *time.Time // nil when Count is 0
}

// ArchivedEventsStats computes LedgerStats for participantID.
func ArchivedEventsStats(ctx context.Context, db *gorm.DB, participantID string) (LedgerStats, error) {
	var st LedgerStats
	ledger := func() *gorm.DB {
		return db.WithContext(ctx).Model(&domain.ArchivedEvent{}).Where("participant_id = ?", participantID)
	}

	if err := ledger().Count(&st.Count).Error; err != nil || st.Count == 0 {
		return LedgerStats{}, err
	}
	if err := ledger().Where("confirmed_received = ?", true).Count(&st.Confirmed).Error; err != nil {
		return LedgerStats{}, err
	}

	// MAX(updated_at) comes back as TEXT from SQLite; read the newest row instead.
	var latest domain.ArchivedEvent
	if err := ledger().Select("updated_at").Order("updated_at DESC").Limit(1).Take(&latest).Error; err != nil {
		return LedgerStats{}, err
	}
	st.LastUpdated = &latest.UpdatedAt
	return st, nil
}
