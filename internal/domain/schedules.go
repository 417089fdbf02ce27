package domain

import (
	"fmt"
	"time"

	"gorm.io/datatypes"
)

// ScheduleType tags which kind of definition produced an event. Archived
// events store it by value so they outlive the definition itself.
type ScheduleType string

const (
	ScheduleAbsolute ScheduleType = "absolute"
	ScheduleRelative ScheduleType = "relative"
	ScheduleWeekly   ScheduleType = "weekly"
)

// Valid reports whether t is one of the known schedule variants.
func (t ScheduleType) Valid() bool {
	switch t {
	case ScheduleAbsolute, ScheduleRelative, ScheduleWeekly:
		return true
	}
	return false
}

// Schedule is the closed set of schedule definitions. Only the three
// definition types in this package implement it; consumers switch over
// the concrete types.
type Schedule interface {
	ScheduleID() string
	ScheduleSurveyID() string
	Type() ScheduleType
	sealed()
}

// AbsoluteSchedule fires once at a calendar date and wall-clock time in the
// study timezone.
type AbsoluteSchedule struct {
	ID        string         `json:"id"        gorm:"type:char(36);primaryKey"`
	SurveyID  string         `json:"survey_id" gorm:"type:char(36);not null;uniqueIndex:ux_absolute_schedule,priority:1"`
	Date      datatypes.Date `json:"date"      gorm:"not null;uniqueIndex:ux_absolute_schedule,priority:2"`
	Hour      int            `json:"hour"      gorm:"not null;uniqueIndex:ux_absolute_schedule,priority:3;check:hour BETWEEN 0 AND 23"`
	Minute    int            `json:"minute"    gorm:"not null;uniqueIndex:ux_absolute_schedule,priority:4;check:minute BETWEEN 0 AND 59"`
	CreatedAt time.Time      `json:"created_at"`

	Survey *Survey `json:"-" gorm:"foreignKey:SurveyID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for AbsoluteSchedule.
func (AbsoluteSchedule) TableName() string { return "absolute_schedules" }

func (s *AbsoluteSchedule) ScheduleID() string       { return s.ID }
func (s *AbsoluteSchedule) ScheduleSurveyID() string { return s.SurveyID }
func (s *AbsoluteSchedule) Type() ScheduleType       { return ScheduleAbsolute }
func (*AbsoluteSchedule) sealed()                    {}

// RelativeSchedule fires a number of days after a participant's
// intervention date. A negative offset fires before it.
type RelativeSchedule struct {
	ID             string    `json:"id"              gorm:"type:char(36);primaryKey"`
	SurveyID       string    `json:"survey_id"       gorm:"type:char(36);not null;uniqueIndex:ux_relative_schedule,priority:1"`
	InterventionID *string   `json:"intervention_id" gorm:"type:char(36);uniqueIndex:ux_relative_schedule,priority:2"`
	DaysAfter      int       `json:"days_after"      gorm:"not null;uniqueIndex:ux_relative_schedule,priority:3"`
	Hour           int       `json:"hour"            gorm:"not null;uniqueIndex:ux_relative_schedule,priority:4;check:hour BETWEEN 0 AND 23"`
	Minute         int       `json:"minute"          gorm:"not null;uniqueIndex:ux_relative_schedule,priority:5;check:minute BETWEEN 0 AND 59"`
	CreatedAt      time.Time `json:"created_at"`

	Survey       *Survey       `json:"-" gorm:"foreignKey:SurveyID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Intervention *Intervention `json:"-" gorm:"foreignKey:InterventionID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for RelativeSchedule.
func (RelativeSchedule) TableName() string { return "relative_schedules" }

func (s *RelativeSchedule) ScheduleID() string       { return s.ID }
func (s *RelativeSchedule) ScheduleSurveyID() string { return s.SurveyID }
func (s *RelativeSchedule) Type() ScheduleType       { return ScheduleRelative }
func (*RelativeSchedule) sealed()                    {}

// WeeklySchedule fires every week on DayOfWeek (Sunday = 0) at Hour:Minute.
type WeeklySchedule struct {
	ID        string    `json:"id"          gorm:"type:char(36);primaryKey"`
	SurveyID  string    `json:"survey_id"   gorm:"type:char(36);not null;uniqueIndex:ux_weekly_schedule,priority:1"`
	DayOfWeek int       `json:"day_of_week" gorm:"not null;uniqueIndex:ux_weekly_schedule,priority:2;check:day_of_week BETWEEN 0 AND 6"`
	Hour      int       `json:"hour"        gorm:"not null;uniqueIndex:ux_weekly_schedule,priority:3;check:hour BETWEEN 0 AND 23"`
	Minute    int       `json:"minute"      gorm:"not null;uniqueIndex:ux_weekly_schedule,priority:4;check:minute BETWEEN 0 AND 59"`
	CreatedAt time.Time `json:"created_at"`

	Survey *Survey `json:"-" gorm:"foreignKey:SurveyID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for WeeklySchedule.
func (WeeklySchedule) TableName() string { return "weekly_schedules" }

func (s *WeeklySchedule) ScheduleID() string       { return s.ID }
func (s *WeeklySchedule) ScheduleSurveyID() string { return s.SurveyID }
func (s *WeeklySchedule) Type() ScheduleType       { return ScheduleWeekly }
func (*WeeklySchedule) sealed()                    {}

// DescribeSchedule renders a definition for logs and error messages.
func DescribeSchedule(s Schedule) string {
	switch v := s.(type) {
	case *AbsoluteSchedule:
		y, m, d := DateParts(v.Date)
		return fmt.Sprintf("absolute %04d-%02d-%02d %02d:%02d", y, m, d, v.Hour, v.Minute)
	case *RelativeSchedule:
		iv := "<none>"
		if v.InterventionID != nil {
			iv = *v.InterventionID
		}
		return fmt.Sprintf("relative %s%+dd %02d:%02d", iv, v.DaysAfter, v.Hour, v.Minute)
	case *WeeklySchedule:
		return fmt.Sprintf("weekly %s %02d:%02d", time.Weekday(v.DayOfWeek), v.Hour, v.Minute)
	default:
		return "unknown schedule"
	}
}
