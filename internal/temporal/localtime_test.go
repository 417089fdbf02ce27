package temporal

import (
	"testing"
	"time"
)

func mustZone(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Fatalf("load %s: %v", name, err)
	}
	return loc
}

func TestLocalMoment_PlainTime(t *testing.T) {
	ny := mustZone(t, "America/New_York")
	got := LocalMoment(2024, time.July, 4, 9, 15, ny)
	want := time.Date(2024, 7, 4, 13, 15, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("LocalMoment = %v; want %v", got.UTC(), want)
	}
	if got.Location() != ny {
		t.Fatalf("expected result in study zone, got %v", got.Location())
	}
}

func TestLocalMoment_SpringForwardGap(t *testing.T) {
	ny := mustZone(t, "America/New_York")
	// 02:30 does not exist on 2024-03-10 in New York.
	got := LocalMoment(2024, time.March, 10, 2, 30, ny)
	want := time.Date(2024, 3, 10, 7, 30, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("gap: got %v; want %v", got.UTC(), want)
	}
	if got.Hour() != 3 || got.Minute() != 30 {
		t.Fatalf("gap should shift forward to 03:30 local, got %v", got)
	}

	london := mustZone(t, "Europe/London")
	got = LocalMoment(2024, time.March, 31, 1, 30, london)
	if want := time.Date(2024, 3, 31, 1, 30, 0, 0, time.UTC); !got.Equal(want) {
		t.Fatalf("london gap: got %v; want %v", got.UTC(), want)
	}
}

func TestLocalMoment_FallBackOverlap_TakesFirstOccurrence(t *testing.T) {
	ny := mustZone(t, "America/New_York")
	// 01:30 happens twice on 2024-11-03 in New York.
	got := LocalMoment(2024, time.November, 3, 1, 30, ny)
	want := time.Date(2024, 11, 3, 5, 30, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("overlap: got %v; want %v", got.UTC(), want)
	}

	// Deterministic across calls.
	for i := 0; i < 5; i++ {
		if again := LocalMoment(2024, time.November, 3, 1, 30, ny); !again.Equal(got) {
			t.Fatalf("non-deterministic overlap resolution: %v vs %v", again, got)
		}
	}

	london := mustZone(t, "Europe/London")
	got = LocalMoment(2024, time.October, 27, 1, 30, london)
	if want := time.Date(2024, 10, 27, 0, 30, 0, 0, time.UTC); !got.Equal(want) {
		t.Fatalf("london overlap: got %v; want %v", got.UTC(), want)
	}
}

func TestLocalMoment_NormalizesDayOverflow(t *testing.T) {
	got := LocalMoment(2024, time.January, 32, 0, 0, nil)
	if want := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Fatalf("overflow: got %v; want %v", got, want)
	}
}

func TestAtDate_AddsCalendarDays(t *testing.T) {
	ny := mustZone(t, "America/New_York")
	anchor := time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC)
	got := AtDate(anchor, 3, 8, 0, ny)
	// 2024-03-11 08:00 EDT
	if want := time.Date(2024, 3, 11, 12, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Fatalf("AtDate = %v; want %v", got.UTC(), want)
	}
	got = AtDate(anchor, -1, 23, 59, ny)
	if want := time.Date(2024, 3, 8, 4, 59, 0, 0, time.UTC); !got.Equal(want) {
		t.Fatalf("AtDate negative = %v; want %v", got.UTC(), want)
	}
}

func TestSplitSeconds_TruncatesSubMinute(t *testing.T) {
	h, m := SplitSeconds(3661)
	if h != 1 || m != 1 {
		t.Fatalf("SplitSeconds(3661) = %d:%d; want 1:1", h, m)
	}
	h, m = SplitSeconds(86399)
	if h != 23 || m != 59 {
		t.Fatalf("SplitSeconds(86399) = %d:%d", h, m)
	}
	if JoinSeconds(1, 1) != 3660 {
		t.Fatalf("JoinSeconds(1,1) = %d", JoinSeconds(1, 1))
	}
	if !ValidSeconds(0) || !ValidSeconds(86399) || ValidSeconds(86400) || ValidSeconds(-1) {
		t.Fatalf("ValidSeconds bounds wrong")
	}
}
