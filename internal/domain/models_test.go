package domain

import (
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newDomainDB(t *testing.T) *gorm.DB {
	t.Helper()
	// Enforce FKs on every pooled connection so cascades actually execute.
	dsn := filepath.Join(t.TempDir(), "domain.db") + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func allModels() []any {
	return []any{
		&Study{}, &Survey{}, &SurveyArchive{}, &Participant{}, &Intervention{}, &InterventionDate{},
		&AbsoluteSchedule{}, &RelativeSchedule{}, &WeeklySchedule{},
		&ScheduledEvent{}, &ArchivedEvent{}, &NotificationReport{},
	}
}

func TestTableNames(t *testing.T) {
	cases := map[string]string{
		Study{}.TableName():              "studies",
		Survey{}.TableName():             "surveys",
		SurveyArchive{}.TableName():      "survey_archives",
		Participant{}.TableName():        "participants",
		Intervention{}.TableName():       "interventions",
		InterventionDate{}.TableName():   "intervention_dates",
		AbsoluteSchedule{}.TableName():   "absolute_schedules",
		RelativeSchedule{}.TableName():   "relative_schedules",
		WeeklySchedule{}.TableName():     "weekly_schedules",
		ScheduledEvent{}.TableName():     "scheduled_events",
		ArchivedEvent{}.TableName():      "archived_events",
		NotificationReport{}.TableName(): "notification_reports",
	}
	for got, want := range cases {
		if got != want {
			t.Fatalf("TableName() = %q; want %q", got, want)
		}
	}
}

func seedSurvey(t *testing.T, db *gorm.DB) (*Study, *Survey, *Participant) {
	t.Helper()
	st := &Study{ID: "st1", Name: "Sleep", Timezone: "America/New_York"}
	sv := &Survey{ID: "sv1", StudyID: st.ID, Name: "Daily", Content: datatypes.JSON(`{"questions":[]}`)}
	p := &Participant{ID: "p1", StudyID: st.ID, PatientID: "abc123"}
	for _, row := range []any{st, sv, p} {
		if err := db.Create(row).Error; err != nil {
			t.Fatalf("seed %T: %v", row, err)
		}
	}
	return st, sv, p
}

func TestMigrations_UniqueNaturalKeys(t *testing.T) {
	db := newDomainDB(t)
	if err := db.AutoMigrate(allModels()...); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	m := db.Migrator()
	for model, idx := range map[any]string{
		&AbsoluteSchedule{}: "ux_absolute_schedule",
		&RelativeSchedule{}: "ux_relative_schedule",
		&WeeklySchedule{}:   "ux_weekly_schedule",
		&InterventionDate{}: "ux_intervention_date",
	} {
		if !m.HasIndex(model, idx) {
			t.Fatalf("expected index %s on %T", idx, model)
		}
	}

	_, sv, _ := seedSurvey(t, db)

	w1 := &WeeklySchedule{ID: "w1", SurveyID: sv.ID, DayOfWeek: 3, Hour: 9, Minute: 0}
	if err := db.Create(w1).Error; err != nil {
		t.Fatalf("insert weekly: %v", err)
	}
	w2 := &WeeklySchedule{ID: "w2", SurveyID: sv.ID, DayOfWeek: 3, Hour: 9, Minute: 0}
	if err := db.Create(w2).Error; err == nil {
		t.Fatalf("expected unique violation for duplicate weekly natural key")
	}

	a1 := &AbsoluteSchedule{ID: "a1", SurveyID: sv.ID, Date: CivilDate(2024, 3, 10), Hour: 8, Minute: 30}
	if err := db.Create(a1).Error; err != nil {
		t.Fatalf("insert absolute: %v", err)
	}
	a2 := &AbsoluteSchedule{ID: "a2", SurveyID: sv.ID, Date: CivilDate(2024, 3, 10), Hour: 8, Minute: 30}
	if err := db.Create(a2).Error; err == nil {
		t.Fatalf("expected unique violation for duplicate absolute natural key")
	}

	bad := &WeeklySchedule{ID: "w3", SurveyID: sv.ID, DayOfWeek: 7, Hour: 9, Minute: 0}
	if err := db.Create(bad).Error; err == nil {
		t.Fatalf("expected check violation for day_of_week=7")
	}
}

func TestDefinitionDelete_CascadesEvents_ArchiveSurvives(t *testing.T) {
	db := newDomainDB(t)
	if err := db.AutoMigrate(allModels()...); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	_, sv, p := seedSurvey(t, db)

	w := &WeeklySchedule{ID: "w1", SurveyID: sv.ID, DayOfWeek: 1, Hour: 10, Minute: 15}
	if err := db.Create(w).Error; err != nil {
		t.Fatalf("insert weekly: %v", err)
	}
	ev, err := NewScheduledEvent(w, p.ID, time.Date(2024, 6, 3, 14, 15, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("NewScheduledEvent: %v", err)
	}
	if err := db.Create(ev).Error; err != nil {
		t.Fatalf("insert event: %v", err)
	}
	snap := &SurveyArchive{ID: "arch1", SurveyID: sv.ID, Content: sv.Content}
	if err := db.Create(snap).Error; err != nil {
		t.Fatalf("insert archive: %v", err)
	}
	ae := &ArchivedEvent{
		ID: "ae1", SurveyArchiveID: snap.ID, ParticipantID: p.ID,
		ScheduleType: ScheduleWeekly, ScheduledTime: ev.ScheduledTime, Status: StatusSuccess,
	}
	if err := db.Create(ae).Error; err != nil {
		t.Fatalf("insert archived event: %v", err)
	}

	if err := db.Delete(&WeeklySchedule{}, "id = ?", w.ID).Error; err != nil {
		t.Fatalf("delete weekly: %v", err)
	}

	var evCount, aeCount int64
	db.Model(&ScheduledEvent{}).Where("id = ?", ev.ID).Count(&evCount)
	db.Model(&ArchivedEvent{}).Where("id = ?", ae.ID).Count(&aeCount)
	if evCount != 0 {
		t.Fatalf("expected scheduled event to cascade away, still %d", evCount)
	}
	if aeCount != 1 {
		t.Fatalf("expected archived event to survive, got %d", aeCount)
	}

	var got ArchivedEvent
	if err := db.First(&got, "id = ?", ae.ID).Error; err != nil {
		t.Fatalf("reload archived: %v", err)
	}
	if got.ScheduleType != ScheduleWeekly {
		t.Fatalf("schedule type lost: %q", got.ScheduleType)
	}
}

func TestStudyLocation(t *testing.T) {
	loc, err := Study{Timezone: "Europe/Athens"}.Location()
	if err != nil || loc.String() != "Europe/Athens" {
		t.Fatalf("Location() = %v, %v", loc, err)
	}
	if _, err := (Study{Timezone: "Mars/Olympus"}).Location(); err == nil {
		t.Fatalf("expected error for unknown zone")
	}
}

func TestCivilDateRoundTrip(t *testing.T) {
	d := CivilDate(2024, time.February, 29)
	y, m, day := DateParts(d)
	if y != 2024 || m != time.February || day != 29 {
		t.Fatalf("DateParts = %d-%d-%d", y, m, day)
	}
}

func TestDescribeSchedule(t *testing.T) {
	iv := "iv1"
	for _, tc := range []struct {
		s    Schedule
		want string
	}{
		{&AbsoluteSchedule{Date: CivilDate(2024, 1, 2), Hour: 3, Minute: 4}, "absolute 2024-01-02 03:04"},
		{&RelativeSchedule{InterventionID: &iv, DaysAfter: -2, Hour: 7}, "relative iv1-2d 07:00"},
		{&WeeklySchedule{DayOfWeek: 0, Hour: 23, Minute: 59}, "weekly Sunday 23:59"},
	} {
		if got := DescribeSchedule(tc.s); got != tc.want {
			t.Fatalf("DescribeSchedule = %q; want %q", got, tc.want)
		}
	}
}
