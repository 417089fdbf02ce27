package domain

import (
	"errors"
	"testing"
	"time"
)

func TestNewScheduledEvent_BindsExactlyOneVariant(t *testing.T) {
	at := time.Date(2024, 11, 3, 6, 30, 0, 0, time.UTC)
	for _, s := range []Schedule{
		&AbsoluteSchedule{ID: "a", SurveyID: "sv"},
		&RelativeSchedule{ID: "r", SurveyID: "sv"},
		&WeeklySchedule{ID: "w", SurveyID: "sv"},
	} {
		ev, err := NewScheduledEvent(s, "p1", at)
		if err != nil {
			t.Fatalf("NewScheduledEvent(%T): %v", s, err)
		}
		typ, id, err := ev.Variant()
		if err != nil {
			t.Fatalf("Variant(%T): %v", s, err)
		}
		if typ != s.Type() || id != s.ScheduleID() {
			t.Fatalf("Variant = (%s,%s); want (%s,%s)", typ, id, s.Type(), s.ScheduleID())
		}
		if ev.SurveyID != "sv" || ev.ParticipantID != "p1" || ev.UUID == nil || *ev.UUID == "" {
			t.Fatalf("unexpected event fields: %+v", ev)
		}
		if !ev.ScheduledTime.Equal(at) {
			t.Fatalf("ScheduledTime = %v; want %v", ev.ScheduledTime, at)
		}
	}
}

func TestNewScheduledEvent_NilSchedule(t *testing.T) {
	if _, err := NewScheduledEvent(nil, "p1", time.Now()); !errors.Is(err, ErrScheduleIntegrity) {
		t.Fatalf("expected ErrScheduleIntegrity, got %v", err)
	}
}

func TestVariant_IntegrityViolations(t *testing.T) {
	a, w := "a", "w"

	none := &ScheduledEvent{ID: "e0"}
	if _, _, err := none.Variant(); !errors.Is(err, ErrScheduleIntegrity) {
		t.Fatalf("zero refs: expected ErrScheduleIntegrity, got %v", err)
	}

	two := &ScheduledEvent{ID: "e2", AbsoluteScheduleID: &a, WeeklyScheduleID: &w}
	if _, _, err := two.Variant(); !errors.Is(err, ErrScheduleIntegrity) {
		t.Fatalf("two refs: expected ErrScheduleIntegrity, got %v", err)
	}
}

func TestCanonicalTime_ProjectsIntoZone(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("load zone: %v", err)
	}
	ev := &ScheduledEvent{ScheduledTime: time.Date(2024, 7, 1, 13, 0, 0, 0, time.UTC)}
	got := ev.CanonicalTime(loc)
	if got.Hour() != 9 || got.Location() != loc {
		t.Fatalf("CanonicalTime = %v", got)
	}
	if !got.Equal(ev.ScheduledTime) {
		t.Fatalf("projection must not move the instant")
	}
	if ev.CanonicalTime(nil).Location() != time.UTC {
		t.Fatalf("nil zone should project to UTC")
	}
}
