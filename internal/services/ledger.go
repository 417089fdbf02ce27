// Package services – LedgerService
//
// This file exposes the read side of the delivery ledger: a participant's
// archived events, newest first, and the aggregate used for conditional
// responses.
package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/tbourn/survey-scheduler/internal/domain"
	"github.com/tbourn/survey-scheduler/internal/repo"
	"github.com/tbourn/survey-scheduler/internal/utils"
)

// DefaultLedgerPageSize is used when the caller passes a non-positive size.
const DefaultLedgerPageSize = 20

// LedgerService lists archived delivery attempts.
type LedgerService struct {
	DB *gorm.DB
}

// NewLedgerService constructs a LedgerService.
func NewLedgerService(db *gorm.DB) *LedgerService {
	return &LedgerService{DB: db}
}

// ListPage returns one page of a participant's ledger and the total row count.
func (s *LedgerService) ListPage(ctx context.Context, participantID string, page, pageSize int) ([]domain.ArchivedEvent, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = DefaultLedgerPageSize
	}
	if err := s.requireParticipant(ctx, participantID); err != nil {
		return nil, 0, err
	}

	total, err := repo.CountArchivedEvents(ctx, s.DB, participantID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.ArchivedEvent{}, 0, nil
	}
	items, err := repo.ListArchivedEventsPage(ctx, s.DB, participantID, utils.Offset(page, pageSize), pageSize)
	return items, total, err
}

// LedgerStats is the validator triple behind the ledger ETag.
type LedgerStats = repo.LedgerStats

// Stats summarises a participant's ledger for conditional listing.
func (s *LedgerService) Stats(ctx context.Context, participantID string) (LedgerStats, error) {
	return repo.ArchivedEventsStats(ctx, s.DB, participantID)
}

func (s *LedgerService) requireParticipant(ctx context.Context, id string) error {
	if _, err := repo.GetParticipant(ctx, s.DB, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrParticipantNotFound
		}
		return err
	}
	return nil
}
