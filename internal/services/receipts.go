// Package services – ReceiptService
//
// This file implements ReceiptService, the acknowledgement channel through
// which participant devices confirm that a notification arrived. Reports are
// stored first and applied to the ledger in batches by a periodic sweep.
package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/survey-scheduler/internal/domain"
	"github.com/tbourn/survey-scheduler/internal/observability"
	"github.com/tbourn/survey-scheduler/internal/repo"
)

// DefaultReceiptBatch bounds how many reports one ApplyPending pass reads.
const DefaultReceiptBatch = 500

// ErrInvalidReceipt is returned when a reported notification id is not a uuid.
var ErrInvalidReceipt = errors.New("invalid notification uuid")

// ReceiptService stores and applies delivery confirmations.
type ReceiptService struct {
	DB    *gorm.DB
	Batch int
}

// NewReceiptService constructs a ReceiptService with DefaultReceiptBatch.
func NewReceiptService(db *gorm.DB) *ReceiptService {
	return &ReceiptService{DB: db, Batch: DefaultReceiptBatch}
}

// Record stores one unapplied report per distinct uuid.
func (s *ReceiptService) Record(ctx context.Context, participantID string, uuids []string) ([]domain.NotificationReport, error) {
	tr := otel.Tracer("services/ReceiptService")
	ctx, span := tr.Start(ctx, "Record",
		trace.WithAttributes(
			attribute.String("participant.id", participantID),
			attribute.Int("uuids.len", len(uuids)),
		),
	)
	defer span.End()

	if _, err := repo.GetParticipant(ctx, s.DB, participantID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrParticipantNotFound
		}
		return nil, err
	}

	seen := make(map[string]struct{}, len(uuids))
	clean := make([]string, 0, len(uuids))
	for _, u := range uuids {
		u = strings.ToLower(strings.TrimSpace(u))
		if _, err := uuid.Parse(u); err != nil {
			return nil, ErrInvalidReceipt
		}
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		clean = append(clean, u)
	}
	return repo.CreateNotificationReports(ctx, s.DB, participantID, clean)
}

// ApplyPending confirms archived events matching unapplied reports and
// marks those reports applied. It returns the number of archive rows
// confirmed.
func (s *ReceiptService) ApplyPending(ctx context.Context) (int64, error) {
	tr := otel.Tracer("services/ReceiptService")
	ctx, span := tr.Start(ctx, "ApplyPending")
	defer span.End()

	batch := s.Batch
	if batch <= 0 {
		batch = DefaultReceiptBatch
	}
	reports, err := repo.PendingNotificationReports(ctx, s.DB, batch)
	if err != nil {
		return 0, err
	}
	if len(reports) == 0 {
		return 0, nil
	}

	byParticipant := map[string][]string{}
	ids := make([]string, 0, len(reports))
	for _, r := range reports {
		byParticipant[r.ParticipantID] = append(byParticipant[r.ParticipantID], r.NotificationUUID)
		ids = append(ids, r.ID)
	}

	var confirmed int64
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for pid, uuids := range byParticipant {
			n, err := repo.ConfirmReceived(ctx, tx, pid, uuids)
			if err != nil {
				return err
			}
			confirmed += n
		}
		_, err := repo.MarkReportsApplied(ctx, tx, ids)
		return err
	})
	if err != nil {
		return 0, err
	}

	observability.ReceiptsConfirmed.Add(float64(confirmed))
	span.SetAttributes(attribute.Int("reports", len(reports)), attribute.Int64("confirmed", confirmed))
	log.Debug().Int("reports", len(reports)).Int64("confirmed", confirmed).Msg("notification receipts applied")
	return confirmed, nil
}
