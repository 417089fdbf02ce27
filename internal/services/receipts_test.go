package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tbourn/survey-scheduler/internal/domain"
	"github.com/tbourn/survey-scheduler/internal/repo"
)

func TestReceiptRecord_Validation(t *testing.T) {
	db := newTestDB(t)
	w := seedWorld(t, db)
	s := NewReceiptService(db)
	ctx := context.Background()

	if _, err := s.Record(ctx, "ghost", []string{"11111111-1111-1111-1111-111111111111"}); !errors.Is(err, ErrParticipantNotFound) {
		t.Fatalf("expected ErrParticipantNotFound, got %v", err)
	}
	if _, err := s.Record(ctx, w.participant.ID, []string{"not-a-uuid"}); !errors.Is(err, ErrInvalidReceipt) {
		t.Fatalf("expected ErrInvalidReceipt, got %v", err)
	}

	rows, err := s.Record(ctx, w.participant.ID, []string{
		"AAAAAAAA-1111-1111-1111-111111111111",
		" aaaaaaaa-1111-1111-1111-111111111111 ",
	})
	if err != nil || len(rows) != 1 {
		t.Fatalf("duplicates should collapse: %v %v", rows, err)
	}
	if rows[0].NotificationUUID != "aaaaaaaa-1111-1111-1111-111111111111" || rows[0].Applied {
		t.Fatalf("unexpected report row: %+v", rows[0])
	}
}

func TestReceiptApplyPending_OnlyMatchingParticipant(t *testing.T) {
	db := newTestDB(t)
	w := seedWorld(t, db)
	s := NewReceiptService(db)
	ctx := context.Background()

	p2 := &domain.Participant{ID: "p2", StudyID: w.study.ID, PatientID: "pat00002"}
	if err := db.Create(p2).Error; err != nil {
		t.Fatalf("seed p2: %v", err)
	}
	snap, err := repo.CreateSurveyArchive(ctx, db, w.survey)
	if err != nil {
		t.Fatalf("CreateSurveyArchive: %v", err)
	}

	u := "bbbbbbbb-2222-2222-2222-222222222222"
	at := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	mine := &domain.ArchivedEvent{ID: "ae-mine", SurveyArchiveID: snap.ID, ParticipantID: w.participant.ID, ScheduleType: domain.ScheduleAbsolute, ScheduledTime: at, Status: domain.StatusFailed, UUID: &u}
	theirs := &domain.ArchivedEvent{ID: "ae-theirs", SurveyArchiveID: snap.ID, ParticipantID: p2.ID, ScheduleType: domain.ScheduleAbsolute, ScheduledTime: at, Status: domain.StatusFailed, UUID: &u}
	for _, ae := range []*domain.ArchivedEvent{mine, theirs} {
		if err := repo.CreateArchivedEvent(ctx, db, ae); err != nil {
			t.Fatalf("seed %s: %v", ae.ID, err)
		}
	}

	if _, err := s.Record(ctx, w.participant.ID, []string{u}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	n, err := s.ApplyPending(ctx)
	if err != nil || n != 1 {
		t.Fatalf("ApplyPending = %d, %v", n, err)
	}

	got, _ := repo.GetArchivedEvent(ctx, db, mine.ID)
	if !got.ConfirmedReceived || got.Status != domain.StatusFailed {
		t.Fatalf("matching row: %+v", got)
	}
	other, _ := repo.GetArchivedEvent(ctx, db, theirs.ID)
	if other.ConfirmedReceived {
		t.Fatalf("another participant's row must stay unconfirmed")
	}

	if n, err := s.ApplyPending(ctx); err != nil || n != 0 {
		t.Fatalf("second sweep = %d, %v", n, err)
	}
	pending, _ := repo.PendingNotificationReports(ctx, db, 0)
	if len(pending) != 0 {
		t.Fatalf("reports left pending: %d", len(pending))
	}
}
