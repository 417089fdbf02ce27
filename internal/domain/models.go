// Package domain defines the persistence models for studies, surveys,
// participants and the notification schedules attached to them. These types
// are mapped with GORM and form the core data layer of the scheduler.
package domain

import (
	"time"
	_ "time/tzdata" // zone database for images without /usr/share/zoneinfo

	"gorm.io/datatypes"
)

// Study groups surveys and participants and owns the timezone every
// schedule of the study is interpreted in.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - Name: human-readable study name.
//   - Timezone: IANA zone name, e.g. "America/New_York".
type Study struct {
	ID        string    `json:"id"         gorm:"type:char(36);primaryKey"`
	Name      string    `json:"name"       gorm:"type:varchar(255);not null"`
	Timezone  string    `json:"timezone"   gorm:"type:varchar(64);not null;default:'UTC'"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for Study.
func (Study) TableName() string { return "studies" }

// Location loads the study timezone. An empty zone name means UTC.
func (s Study) Location() (*time.Location, error) {
	return time.LoadLocation(s.Timezone)
}

// Survey is the live, editable survey definition. Schedules hang off it.
// A deleted survey keeps its row; reconciliation treats it as having no
// schedules.
type Survey struct {
	ID        string         `json:"id"         gorm:"type:char(36);primaryKey"`
	StudyID   string         `json:"study_id"   gorm:"type:char(36);not null;index"`
	Name      string         `json:"name"       gorm:"type:varchar(255);not null;default:''"`
	Content   datatypes.JSON `json:"content"`
	Deleted   bool           `json:"deleted"    gorm:"not null;default:false"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`

	Study *Study `json:"-" gorm:"foreignKey:StudyID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Survey.
func (Survey) TableName() string { return "surveys" }

// SurveyArchive is an immutable snapshot of a survey's content. Archived
// events point at a snapshot so history stays readable after the survey
// is edited or removed.
type SurveyArchive struct {
	ID        string         `json:"id"         gorm:"type:char(36);primaryKey"`
	SurveyID  string         `json:"survey_id"  gorm:"type:char(36);not null;index:idx_survey_archives,priority:1"`
	Content   datatypes.JSON `json:"content"`
	CreatedAt time.Time      `json:"created_at" gorm:"index:idx_survey_archives,priority:2"`
}

// TableName returns the database table name for SurveyArchive.
func (SurveyArchive) TableName() string { return "survey_archives" }

// Participant is an enrolled study subject that receives notifications.
//
// Fields:
//   - PatientID: short external identifier shown to study staff.
//   - ResendCapable: the participant's app can correlate resends by uuid.
//   - NotificationsDisabled: staff have paused delivery for this participant.
type Participant struct {
	ID                    string    `json:"id"                     gorm:"type:char(36);primaryKey"`
	StudyID               string    `json:"study_id"               gorm:"type:char(36);not null;index"`
	PatientID             string    `json:"patient_id"             gorm:"type:varchar(32);not null;uniqueIndex"`
	ResendCapable         bool      `json:"resend_capable"         gorm:"not null;default:false"`
	NotificationsDisabled bool      `json:"notifications_disabled" gorm:"not null;default:false"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`

	Study *Study `json:"-" gorm:"foreignKey:StudyID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Participant.
func (Participant) TableName() string { return "participants" }

// Intervention is a named study event (e.g. "surgery") whose per-participant
// date anchors relative schedules.
type Intervention struct {
	ID        string    `json:"id"         gorm:"type:char(36);primaryKey"`
	StudyID   string    `json:"study_id"   gorm:"type:char(36);not null;index"`
	Name      string    `json:"name"       gorm:"type:varchar(255);not null"`
	CreatedAt time.Time `json:"created_at"`

	Study *Study `json:"-" gorm:"foreignKey:StudyID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Intervention.
func (Intervention) TableName() string { return "interventions" }

// InterventionDate stores when an intervention happened for a participant.
// Date stays nil until study staff enter it.
type InterventionDate struct {
	ID             string          `json:"id"              gorm:"type:char(36);primaryKey"`
	ParticipantID  string          `json:"participant_id"  gorm:"type:char(36);not null;uniqueIndex:ux_intervention_date,priority:1"`
	InterventionID string          `json:"intervention_id" gorm:"type:char(36);not null;uniqueIndex:ux_intervention_date,priority:2"`
	Date           *datatypes.Date `json:"date,omitempty"`

	Participant  *Participant  `json:"-" gorm:"foreignKey:ParticipantID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Intervention *Intervention `json:"-" gorm:"foreignKey:InterventionID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for InterventionDate.
func (InterventionDate) TableName() string { return "intervention_dates" }

// CivilDate builds a date-only value anchored at UTC midnight, the form
// every date column is written in.
func CivilDate(year int, month time.Month, day int) datatypes.Date {
	return datatypes.Date(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// DateParts splits a date-only value into its calendar components.
func DateParts(d datatypes.Date) (int, time.Month, int) {
	return time.Time(d).UTC().Date()
}
