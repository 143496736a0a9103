package domain

import "time"

// Time-window filter kinds accepted by Resolve.
const (
	FilterToday = "today"
	FilterWeek  = "week"
	FilterMonth = "month"
)

// Window is an inclusive [Start, End] interval over task creation times.
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether ts falls inside the window, endpoints included.
func (w Window) Contains(ts time.Time) bool {
	return !ts.Before(w.Start) && !ts.After(w.End)
}

// ResolveWindow computes the calendar bounds for kind relative to ref.
//
//   - today: ref's date at 00:00:00.000 through 23:59:59.999 local.
//   - week: Monday through Sunday of ref's week, Sunday counted as day 7.
//     Bounds keep ref's time of day; callers compare by calendar date.
//   - month: first day of ref's month through "day zero of the following
//     month", which yields the correct last day for every month length.
//
// Any other kind fails with ErrInvalidFilter.
func ResolveWindow(kind string, ref time.Time) (Window, error) {
	switch kind {
	case FilterToday:
		y, m, d := ref.Date()
		return Window{
			Start: time.Date(y, m, d, 0, 0, 0, 0, ref.Location()),
			End:   time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), ref.Location()),
		}, nil
	case FilterWeek:
		weekday := int(ref.Weekday())
		if weekday == 0 {
			weekday = 7
		}
		return Window{
			Start: ref.AddDate(0, 0, -(weekday - 1)),
			End:   ref.AddDate(0, 0, 7-weekday),
		}, nil
	case FilterMonth:
		y, m, _ := ref.Date()
		return Window{
			Start: time.Date(y, m, 1, 0, 0, 0, 0, ref.Location()),
			End:   time.Date(y, m+1, 0, 0, 0, 0, 0, ref.Location()),
		}, nil
	}
	return Window{}, ErrInvalidFilter
}

// ContainsDate reports whether ts falls inside the window when both bounds and
// ts are truncated to their calendar dates. Week windows inherit ref's time of
// day, so date comparison keeps both endpoints inclusive.
func (w Window) ContainsDate(ts time.Time) bool {
	day := func(t time.Time) time.Time {
		y, m, d := t.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	}
	t := day(ts)
	return !t.Before(day(w.Start)) && !t.After(day(w.End))
}
