package temporal

import "time"

// Week selects which occurrence of a weekly schedule to resolve.
type Week int

const (
	// ThisWeek is the occurrence inside the Sunday-started week containing now.
	ThisWeek Week = iota
	// NextWeek is the occurrence seven calendar days after ThisWeek.
	NextWeek
	// Upcoming is ThisWeek while it is still ahead of now, else NextWeek.
	Upcoming
)

// ParseWeek maps the transport spelling to a Week. Unknown values report false.
func ParseWeek(s string) (Week, bool) {
	switch s {
	case "this", "prior", "this_week":
		return ThisWeek, true
	case "next", "next_week":
		return NextWeek, true
	case "", "upcoming":
		return Upcoming, true
	}
	return 0, false
}

func (w Week) String() string {
	switch w {
	case ThisWeek:
		return "this"
	case NextWeek:
		return "next"
	case Upcoming:
		return "upcoming"
	}
	return "unknown"
}

// FromMondayFirst converts a Monday=0 weekday index to the Sunday=0 index
// used by weekly schedules. time.Weekday already counts from Sunday.
func FromMondayFirst(wd int) int {
	return (wd + 1) % 7
}

// Window returns the occurrence of a weekly slot in the week containing now
// (prior) and the one a week later (next). Weeks start on Sunday in loc.
// next is built from the calendar date seven days on, so it keeps the same
// wall-clock time across a DST change.
func Window(dayOfWeek, hour, minute int, now time.Time, loc *time.Location) (prior, next time.Time) {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	y, m, d := local.Date()
	sunday := d - int(local.Weekday())

	prior = LocalMoment(y, m, sunday+dayOfWeek, hour, minute, loc)
	next = LocalMoment(y, m, sunday+dayOfWeek+7, hour, minute, loc)
	return prior, next
}

// Occurrence picks one side of the window according to w.
func Occurrence(w Week, dayOfWeek, hour, minute int, now time.Time, loc *time.Location) time.Time {
	prior, next := Window(dayOfWeek, hour, minute, now, loc)
	switch w {
	case ThisWeek:
		return prior
	case NextWeek:
		return next
	default:
		if now.Before(prior) {
			return prior
		}
		return next
	}
}
