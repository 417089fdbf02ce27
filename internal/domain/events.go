package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrScheduleIntegrity is returned when a ScheduledEvent does not reference
// exactly one schedule definition.
var ErrScheduleIntegrity = errors.New("scheduled event must reference exactly one schedule")

// ScheduledEvent is one concrete notification occurrence produced from a
// schedule definition. Exactly one of the three schedule references is set.
//
// Fields:
//   - ScheduledTime: the instant the notification is due, stored in UTC.
//   - Deleted: set once the occurrence was delivered successfully.
//   - UUID: correlation id the participant app echoes back for resends.
//   - MostRecentEventID: the latest ArchivedEvent for this occurrence.
//   - NoResend: suppress resend correlation for this occurrence.
type ScheduledEvent struct {
	ID                 string    `json:"id"                             gorm:"type:char(36);primaryKey"`
	SurveyID           string    `json:"survey_id"                      gorm:"type:char(36);not null;index"`
	ParticipantID      string    `json:"participant_id"                 gorm:"type:char(36);not null;index:idx_participant_events,priority:1"`
	AbsoluteScheduleID *string   `json:"absolute_schedule_id,omitempty" gorm:"type:char(36);index"`
	RelativeScheduleID *string   `json:"relative_schedule_id,omitempty" gorm:"type:char(36);index"`
	WeeklyScheduleID   *string   `json:"weekly_schedule_id,omitempty"   gorm:"type:char(36);index"`
	ScheduledTime      time.Time `json:"scheduled_time"                 gorm:"not null;index:idx_participant_events,priority:2"`
	Deleted            bool      `json:"deleted"                        gorm:"not null;default:false"`
	UUID               *string   `json:"uuid,omitempty"                 gorm:"type:char(36);uniqueIndex"`
	MostRecentEventID  *string   `json:"most_recent_event_id,omitempty" gorm:"type:char(36)"`
	NoResend           bool      `json:"no_resend"                      gorm:"not null;default:false"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`

	Survey           *Survey           `json:"-" gorm:"foreignKey:SurveyID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Participant      *Participant      `json:"-" gorm:"foreignKey:ParticipantID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	AbsoluteSchedule *AbsoluteSchedule `json:"-" gorm:"foreignKey:AbsoluteScheduleID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	RelativeSchedule *RelativeSchedule `json:"-" gorm:"foreignKey:RelativeScheduleID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	WeeklySchedule   *WeeklySchedule   `json:"-" gorm:"foreignKey:WeeklyScheduleID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for ScheduledEvent.
func (ScheduledEvent) TableName() string { return "scheduled_events" }

// NewScheduledEvent builds an event bound to exactly one schedule
// definition. The event gets a fresh id and correlation uuid.
func NewScheduledEvent(s Schedule, participantID string, at time.Time) (*ScheduledEvent, error) {
	if s == nil {
		return nil, ErrScheduleIntegrity
	}
	id := s.ScheduleID()
	ev := &ScheduledEvent{
		ID:            uuid.NewString(),
		SurveyID:      s.ScheduleSurveyID(),
		ParticipantID: participantID,
		ScheduledTime: at.UTC(),
	}
	corr := uuid.NewString()
	ev.UUID = &corr

	switch s.(type) {
	case *AbsoluteSchedule:
		ev.AbsoluteScheduleID = &id
	case *RelativeSchedule:
		ev.RelativeScheduleID = &id
	case *WeeklySchedule:
		ev.WeeklyScheduleID = &id
	default:
		return nil, ErrScheduleIntegrity
	}
	return ev, nil
}

// Variant returns the schedule type and definition id this event was
// generated from. Rows with zero or several references fail with
// ErrScheduleIntegrity.
func (e *ScheduledEvent) Variant() (ScheduleType, string, error) {
	var (
		n   int
		typ ScheduleType
		id  string
	)
	if e.AbsoluteScheduleID != nil {
		n++
		typ, id = ScheduleAbsolute, *e.AbsoluteScheduleID
	}
	if e.RelativeScheduleID != nil {
		n++
		typ, id = ScheduleRelative, *e.RelativeScheduleID
	}
	if e.WeeklyScheduleID != nil {
		n++
		typ, id = ScheduleWeekly, *e.WeeklyScheduleID
	}
	if n != 1 {
		return "", "", fmt.Errorf("%w: event %s has %d references", ErrScheduleIntegrity, e.ID, n)
	}
	return typ, id, nil
}

// CanonicalTime projects the stored instant into the study timezone.
func (e *ScheduledEvent) CanonicalTime(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return e.ScheduledTime.In(loc)
}

// ArchivedEvent is an append-only record of one delivery attempt. It holds
// no reference to the schedule definition or the live survey, so it
// survives their deletion.
type ArchivedEvent struct {
	ID                string       `json:"id"                 gorm:"type:char(36);primaryKey"`
	SurveyArchiveID   string       `json:"survey_archive_id"  gorm:"type:char(36);not null;index"`
	ParticipantID     string       `json:"participant_id"     gorm:"type:char(36);not null;index:idx_participant_archive,priority:1;index:idx_archive_uuid,priority:1"`
	ScheduleType      ScheduleType `json:"schedule_type"      gorm:"type:varchar(16);not null"`
	ScheduledTime     time.Time    `json:"scheduled_time"     gorm:"not null"`
	Status            Status       `json:"status"             gorm:"type:varchar(32);not null"`
	UUID              *string      `json:"uuid,omitempty"     gorm:"type:char(36);index:idx_archive_uuid,priority:2"`
	WasResend         bool         `json:"was_resend"         gorm:"not null;default:false"`
	ConfirmedReceived bool         `json:"confirmed_received" gorm:"not null;default:false"`
	CreatedAt         time.Time    `json:"created_at"         gorm:"index:idx_participant_archive,priority:2"`
	UpdatedAt         time.Time    `json:"updated_at"`

	SurveyArchive *SurveyArchive `json:"-" gorm:"foreignKey:SurveyArchiveID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}

// TableName returns the database table name for ArchivedEvent.
func (ArchivedEvent) TableName() string { return "archived_events" }

// NotificationReport is a raw delivery acknowledgement sent by a
// participant device. Applied flips once the matching archived events
// have been marked as received.
type NotificationReport struct {
	ID               string    `json:"id"                gorm:"type:char(36);primaryKey"`
	ParticipantID    string    `json:"participant_id"    gorm:"type:char(36);not null;index"`
	NotificationUUID string    `json:"notification_uuid" gorm:"type:char(36);not null"`
	Applied          bool      `json:"applied"           gorm:"not null;default:false;index"`
	CreatedAt        time.Time `json:"created_at"`
}

// TableName returns the database table name for NotificationReport.
func (NotificationReport) TableName() string { return "notification_reports" }
