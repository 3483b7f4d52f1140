package attendance

import (
	"fmt"
	"strings"
	"time"
)

// DefaultWorkingDays is the organization's week: Saturday through Wednesday.
var DefaultWorkingDays = []time.Weekday{
	time.Saturday,
	time.Sunday,
	time.Monday,
	time.Tuesday,
	time.Wednesday,
}

// WorkingDayPolicy decides which calendar dates accept attendance.
type WorkingDayPolicy struct {
	days [7]bool
}

// NewWorkingDayPolicy builds a policy for the given weekdays. At least one
// weekday is required.
func NewWorkingDayPolicy(days ...time.Weekday) (WorkingDayPolicy, error) {
	var p WorkingDayPolicy
	for _, d := range days {
		if d < time.Sunday || d > time.Saturday {
			return WorkingDayPolicy{}, fmt.Errorf("invalid weekday %d", d)
		}
		p.days[d] = true
	}
	if len(p.Weekdays()) == 0 {
		return WorkingDayPolicy{}, fmt.Errorf("working day policy needs at least one weekday")
	}
	return p, nil
}

// DefaultWorkingDayPolicy returns the Saturday to Wednesday policy.
func DefaultWorkingDayPolicy() WorkingDayPolicy {
	p, _ := NewWorkingDayPolicy(DefaultWorkingDays...)
	return p
}

// IsWorkingDay reports whether date falls on a working weekday.
func (p WorkingDayPolicy) IsWorkingDay(date time.Time) bool {
	return p.days[date.Weekday()]
}

// PreviousWorkingDay returns the latest working day strictly before date.
func (p WorkingDayPolicy) PreviousWorkingDay(date time.Time) time.Time {
	cursor := date.AddDate(0, 0, -1)
	for !p.IsWorkingDay(cursor) {
		cursor = cursor.AddDate(0, 0, -1)
	}
	return cursor
}

// Weekdays lists the working weekdays in Sunday-first order.
func (p WorkingDayPolicy) Weekdays() []time.Weekday {
	out := make([]time.Weekday, 0, 7)
	for d, ok := range p.days {
		if ok {
			out = append(out, time.Weekday(d))
		}
	}
	return out
}

// ParseWeekdays parses names such as "saturday" or "Sat".
func ParseWeekdays(names []string) ([]time.Weekday, error) {
	out := make([]time.Weekday, 0, len(names))
	for _, name := range names {
		d, ok := parseWeekday(name)
		if !ok {
			return nil, fmt.Errorf("unknown weekday %q", name)
		}
		out = append(out, d)
	}
	return out, nil
}

func parseWeekday(name string) (time.Weekday, bool) {
	n := strings.ToLower(strings.TrimSpace(name))
	if len(n) < 3 {
		return 0, false
	}
	for d := time.Sunday; d <= time.Saturday; d++ {
		full := strings.ToLower(d.String())
		if n == full || n == full[:3] {
			return d, true
		}
	}
	return 0, false
}
