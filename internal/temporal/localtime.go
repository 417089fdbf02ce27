// Package temporal turns calendar dates and wall-clock times into concrete
// instants in a study timezone. Every construction goes through LocalMoment
// so daylight-saving edge cases resolve the same way everywhere.
package temporal

import (
	"time"
	_ "time/tzdata" // zone database for images without /usr/share/zoneinfo
)

const secondsPerDay = 24 * 60 * 60

// LocalMoment returns the instant at which the wall clock in loc reads
// year-month-day hour:minute. Out-of-range days normalize the way
// time.Date does, so day arithmetic can be passed straight in.
//
// Wall times that occur twice (clocks set back) resolve to the first
// occurrence. Wall times that never occur (clocks set forward) are read
// with the offset in effect before the transition, which lands them the
// length of the gap later.
func LocalMoment(year int, month time.Month, day, hour, minute int, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	wall := time.Date(year, month, day, hour, minute, 0, 0, time.UTC)

	before := offsetAt(wall.Add(-24*time.Hour), loc)
	after := offsetAt(wall.Add(24*time.Hour), loc)

	var (
		best  time.Time
		found bool
	)
	for _, off := range []int{before, after} {
		cand := wall.Add(-time.Duration(off) * time.Second)
		if !sameWall(cand.In(loc), wall) {
			continue
		}
		if !found || cand.Before(best) {
			best, found = cand, true
		}
	}
	if !found {
		best = wall.Add(-time.Duration(before) * time.Second)
	}
	return best.In(loc)
}

// AtDate is LocalMoment for a date already held as a time value; only its
// calendar fields in UTC are read.
func AtDate(date time.Time, dayOffset, hour, minute int, loc *time.Location) time.Time {
	y, m, d := date.UTC().Date()
	return LocalMoment(y, m, d+dayOffset, hour, minute, loc)
}

func offsetAt(t time.Time, loc *time.Location) int {
	_, off := t.In(loc).Zone()
	return off
}

func sameWall(local, wall time.Time) bool {
	ly, lm, ld := local.Date()
	wy, wm, wd := wall.Date()
	return ly == wy && lm == wm && ld == wd &&
		local.Hour() == wall.Hour() && local.Minute() == wall.Minute()
}

// SplitSeconds converts seconds-into-day to hour and minute. Sub-minute
// remainders are dropped.
func SplitSeconds(secs int) (hour, minute int) {
	return secs / 3600, (secs % 3600) / 60
}

// JoinSeconds is the inverse of SplitSeconds.
func JoinSeconds(hour, minute int) int {
	return hour*3600 + minute*60
}

// ValidSeconds reports whether secs falls inside a single day.
func ValidSeconds(secs int) bool {
	return secs >= 0 && secs < secondsPerDay
}
