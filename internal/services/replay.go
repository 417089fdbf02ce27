// Package services – ArchiveReplays
//
// This file backs the Idempotency-Key guard of the archive endpoint. A
// worker retrying an archive call with the same key receives the ledger
// row written by the first call instead of a second delivery attempt.
package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/survey-scheduler/internal/domain"
	"github.com/tbourn/survey-scheduler/internal/repo"
)

// DefaultReplayTTL is how long an archive result can be replayed.
const DefaultReplayTTL = 24 * time.Hour

// ArchiveReplays stores archive results by (scope, key).
type ArchiveReplays struct {
	DB  *gorm.DB
	TTL time.Duration
	Now func() time.Time
}

// NewArchiveReplays constructs an ArchiveReplays. ttl <= 0 uses DefaultReplayTTL.
func NewArchiveReplays(db *gorm.DB, ttl time.Duration) *ArchiveReplays {
	if ttl <= 0 {
		ttl = DefaultReplayTTL
	}
	return &ArchiveReplays{DB: db, TTL: ttl, Now: time.Now}
}

// Exists reports whether a live record exists for (scope, key).
func (r *ArchiveReplays) Exists(ctx context.Context, scope, key string, now time.Time) (bool, error) {
	if _, err := repo.GetIdempotency(ctx, r.DB, scope, key, now); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Replay returns the archived event recorded for (scope, key). ok is false
// when there is no live record or the row it points at is gone.
func (r *ArchiveReplays) Replay(ctx context.Context, scope, key string) (*domain.ArchivedEvent, bool, error) {
	rec, err := repo.GetIdempotency(ctx, r.DB, scope, key, r.Now().UTC())
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	ae, err := repo.GetArchivedEvent(ctx, r.DB, rec.ResourceID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return ae, true, nil
}

// Remember records resourceID under (scope, key). A concurrent request that
// stored the same pair first wins and is not an error.
func (r *ArchiveReplays) Remember(ctx context.Context, scope, key, resourceID string, status int) error {
	_, err := repo.CreateIdempotency(ctx, r.DB, scope, key, resourceID, status, r.TTL)
	if errors.Is(err, repo.ErrDuplicate) {
		return nil
	}
	return err
}
