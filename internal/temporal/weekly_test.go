package temporal

import (
	"testing"
	"time"
)

func TestWindow_WednesdayAcrossSpringForward(t *testing.T) {
	ny := mustZone(t, "America/New_York")
	// Thursday 2024-03-07 12:00 EST; DST starts Sunday 2024-03-10.
	now := time.Date(2024, 3, 7, 12, 0, 0, 0, ny)

	prior, next := Window(int(time.Wednesday), 9, 0, now, ny)

	if want := time.Date(2024, 3, 6, 14, 0, 0, 0, time.UTC); !prior.Equal(want) {
		t.Fatalf("prior = %v; want %v", prior.UTC(), want)
	}
	if want := time.Date(2024, 3, 13, 13, 0, 0, 0, time.UTC); !next.Equal(want) {
		t.Fatalf("next = %v; want %v", next.UTC(), want)
	}
	if next.Hour() != 9 || prior.Hour() != 9 {
		t.Fatalf("wall clock must stay 09:00 local: prior=%v next=%v", prior, next)
	}
	if gap := next.Sub(prior); gap != 167*time.Hour {
		t.Fatalf("expected a 167h gap across spring-forward, got %v", gap)
	}
}

func TestWindow_WeekStartsOnSunday(t *testing.T) {
	ny := mustZone(t, "America/New_York")

	// Sunday just after midnight: week starts today.
	sun := time.Date(2024, 6, 2, 0, 30, 0, 0, ny)
	prior, _ := Window(int(time.Sunday), 8, 0, sun, ny)
	if y, m, d := prior.Date(); y != 2024 || m != time.June || d != 2 {
		t.Fatalf("Sunday prior date = %d-%d-%d; want 2024-6-2", y, m, d)
	}

	// Saturday late evening: week started the previous Sunday.
	sat := time.Date(2024, 6, 8, 23, 59, 0, 0, ny)
	prior, next := Window(int(time.Saturday), 23, 0, sat, ny)
	if y, m, d := prior.Date(); y != 2024 || m != time.June || d != 8 {
		t.Fatalf("Saturday prior date = %d-%d-%d", y, m, d)
	}
	if y, m, d := next.Date(); y != 2024 || m != time.June || d != 15 {
		t.Fatalf("Saturday next date = %d-%d-%d", y, m, d)
	}
}

func TestWindow_UsesStudyZoneForCalendar(t *testing.T) {
	tokyo := mustZone(t, "Asia/Tokyo")
	// Saturday 20:00 UTC is already Sunday 05:00 in Tokyo.
	now := time.Date(2024, 6, 8, 20, 0, 0, 0, time.UTC)
	prior, _ := Window(int(time.Monday), 9, 0, now, tokyo)
	if y, m, d := prior.Date(); y != 2024 || m != time.June || d != 10 {
		t.Fatalf("prior date in Tokyo = %d-%d-%d; want 2024-6-10", y, m, d)
	}
}

func TestOccurrence(t *testing.T) {
	ny := mustZone(t, "America/New_York")
	now := time.Date(2024, 6, 5, 8, 0, 0, 0, ny) // Wednesday 08:00

	before := Occurrence(Upcoming, int(time.Wednesday), 9, 0, now, ny)
	if before.Day() != 5 {
		t.Fatalf("upcoming should be today at 09:00, got %v", before)
	}
	after := Occurrence(Upcoming, int(time.Wednesday), 7, 0, now, ny)
	if after.Day() != 12 {
		t.Fatalf("upcoming should roll to next week, got %v", after)
	}
	if got := Occurrence(ThisWeek, int(time.Wednesday), 7, 0, now, ny); got.Day() != 5 {
		t.Fatalf("this week = %v", got)
	}
	if got := Occurrence(NextWeek, int(time.Wednesday), 9, 0, now, ny); got.Day() != 12 {
		t.Fatalf("next week = %v", got)
	}
}

func TestParseWeekAndMondayFirst(t *testing.T) {
	for in, want := range map[string]Week{"this": ThisWeek, "next": NextWeek, "": Upcoming, "upcoming": Upcoming} {
		got, ok := ParseWeek(in)
		if !ok || got != want {
			t.Fatalf("ParseWeek(%q) = %v,%v", in, got, ok)
		}
	}
	if _, ok := ParseWeek("later"); ok {
		t.Fatalf("expected unknown week spelling to fail")
	}
	// Monday=0 .. Sunday=6 -> Sunday=0 .. Saturday=6
	if FromMondayFirst(6) != 0 || FromMondayFirst(0) != 1 || FromMondayFirst(5) != 6 {
		t.Fatalf("FromMondayFirst mapping wrong")
	}
}
