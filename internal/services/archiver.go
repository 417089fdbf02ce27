// Package services – Archiver
//
// This file implements Archiver, which records the outcome of one delivery
// attempt in the append-only ledger and updates the live scheduled event.
// The ledger row captures the schedule type and survey snapshot by value,
// so history survives later edits to the survey or its definitions.
//
// The ledger insert is committed on its own before the live row is touched.
// Concurrent workers archiving the same event may both succeed; the live
// row keeps whichever update landed last.
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/survey-scheduler/internal/domain"
	"github.com/tbourn/survey-scheduler/internal/observability"
	"github.com/tbourn/survey-scheduler/internal/repo"
)

// createSurveySnapshot is replaced in tests to interleave a second writer.
var createSurveySnapshot = repo.CreateSurveyArchive

// ArchiveCache remembers the newest SurveyArchive id per survey. Entries
// are checked against the store before use, so a stale id is never served.
type ArchiveCache interface {
	Get(ctx context.Context, surveyID string) (string, bool, error)
	Set(ctx context.Context, surveyID, archiveID string) error
}

// Publisher forwards archived events downstream.
type Publisher interface {
	PublishArchived(ctx context.Context, ae *domain.ArchivedEvent) error
}

// Archiver writes delivery outcomes to the archived-event ledger.
type Archiver struct {
	DB        *gorm.DB
	Cache     ArchiveCache
	Publisher Publisher
}

// NewArchiver constructs an Archiver. cache and pub may be nil.
func NewArchiver(db *gorm.DB, cache ArchiveCache, pub Publisher) *Archiver {
	return &Archiver{DB: db, Cache: cache, Publisher: pub}
}

// Archive records one delivery attempt of ev for p with status. The survey
// snapshot is looked up (or created on first use).
func (a *Archiver) Archive(ctx context.Context, ev *domain.ScheduledEvent, p *domain.Participant, status domain.Status) (*domain.ArchivedEvent, error) {
	return a.archive(ctx, ev, p, status, "")
}

// ArchiveWithSnapshot is Archive with a snapshot id the caller already
// resolved, skipping the lookup.
func (a *Archiver) ArchiveWithSnapshot(ctx context.Context, ev *domain.ScheduledEvent, p *domain.Participant, status domain.Status, surveyArchiveID string) (*domain.ArchivedEvent, error) {
	return a.archive(ctx, ev, p, status, surveyArchiveID)
}

// ArchiveByID loads the event and participant, parses the status and
// archives. participantID must own the event.
func (a *Archiver) ArchiveByID(ctx context.Context, eventID, participantID, status string) (*domain.ArchivedEvent, error) {
	st, err := domain.ParseStatus(status)
	if err != nil {
		return nil, err
	}
	ev, err := repo.GetScheduledEvent(ctx, a.DB, eventID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	if participantID == "" {
		participantID = ev.ParticipantID
	}
	p, err := repo.GetParticipant(ctx, a.DB, participantID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrParticipantNotFound
		}
		return nil, err
	}
	return a.Archive(ctx, ev, p, st)
}

func (a *Archiver) archive(ctx context.Context, ev *domain.ScheduledEvent, p *domain.Participant, status domain.Status, snapshotID string) (_ *domain.ArchivedEvent, err error) {
	tr := otel.Tracer("services/Archiver")
	ctx, span := tr.Start(ctx, "Archive",
		trace.WithAttributes(
			attribute.String("event.id", ev.ID),
			attribute.String("participant.id", p.ID),
			attribute.String("status", string(status)),
		),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStatus, status)
	}
	if ev.ParticipantID != p.ID {
		return nil, ErrParticipantMismatch
	}
	typ, _, err := ev.Variant()
	if err != nil {
		return nil, err
	}

	snapshotID, err = a.snapshot(ctx, ev.SurveyID, snapshotID)
	if err != nil {
		return nil, err
	}

	var corr *string
	if p.ResendCapable && !ev.NoResend && ev.UUID != nil {
		u := *ev.UUID
		corr = &u
	}

	ae := &domain.ArchivedEvent{
		ID:              uuid.NewString(),
		SurveyArchiveID: snapshotID,
		ParticipantID:   p.ID,
		ScheduleType:    typ,
		ScheduledTime:   ev.ScheduledTime.UTC(),
		Status:          status,
		UUID:            corr,
		WasResend:       ev.MostRecentEventID != nil,
	}
	if err := repo.CreateArchivedEvent(ctx, a.DB, ae); err != nil {
		return nil, err
	}

	if err := repo.MarkEventArchived(ctx, a.DB, ev.ID, ae.ID, status.Retires()); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	ev.MostRecentEventID = &ae.ID
	ev.Deleted = status.Retires()

	observability.ArchivedEvents.WithLabelValues(string(status), string(typ)).Inc()
	a.publish(ctx, ae)
	return ae, nil
}

// snapshot picks the SurveyArchive for a new ledger row: the explicit id,
// then the cached id if it is still the newest, then the newest stored
// snapshot, then a fresh one.
func (a *Archiver) snapshot(ctx context.Context, surveyID, explicit string) (string, error) {
	if explicit != "" {
		ok, err := repo.SurveyArchiveExists(ctx, a.DB, explicit, surveyID)
		if err != nil {
			return "", err
		}
		if !ok {
			return "", fmt.Errorf("%w: snapshot %s", ErrSurveyNotFound, explicit)
		}
		return explicit, nil
	}

	if a.Cache != nil {
		id, ok, err := a.Cache.Get(ctx, surveyID)
		if err != nil {
			log.Warn().Err(err).Str("survey_id", surveyID).Msg("archive cache get failed")
		} else if ok {
			// A newer snapshot replaces the cached one as soon as it is stored.
			if current, err := repo.IsLatestSurveyArchive(ctx, a.DB, id, surveyID); err == nil && current {
				return id, nil
			}
		}
	}

	latest, err := repo.LatestSurveyArchive(ctx, a.DB, surveyID)
	switch {
	case err == nil:
	case errors.Is(err, repo.ErrNotFound):
		survey, gerr := repo.GetSurvey(ctx, a.DB, surveyID)
		if gerr != nil {
			if errors.Is(gerr, repo.ErrNotFound) {
				return "", ErrSurveyNotFound
			}
			return "", gerr
		}
		created, err := createSurveySnapshot(ctx, a.DB, survey)
		if err != nil {
			return "", err
		}
		log.Info().Str("survey_id", surveyID).Str("survey_archive_id", created.ID).Msg("survey snapshot created")
		// Workers racing on the first snapshot settle on the newest one.
		latest, err = repo.LatestSurveyArchive(ctx, a.DB, surveyID)
		if err != nil {
			return "", err
		}
	default:
		return "", err
	}

	if a.Cache != nil {
		if err := a.Cache.Set(ctx, surveyID, latest.ID); err != nil {
			log.Warn().Err(err).Str("survey_id", surveyID).Msg("archive cache set failed")
		}
	}
	return latest.ID, nil
}

func (a *Archiver) publish(ctx context.Context, ae *domain.ArchivedEvent) {
	if a.Publisher == nil {
		return
	}
	if err := a.Publisher.PublishArchived(ctx, ae); err != nil {
		observability.ArchivePublishes.WithLabelValues("error").Inc()
		log.Warn().Err(err).Str("archived_event_id", ae.ID).Msg("archived event publish failed")
		return
	}
	observability.ArchivePublishes.WithLabelValues("ok").Inc()
}
