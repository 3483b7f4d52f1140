package scheduler

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseCronSchedule reads the minute and hour of a daily "minute hour * * *"
// expression. Day, month and weekday fields must be "*".
func ParseCronSchedule(expr string) (hour, minute int, err error) {
	fields := strings.Fields(expr)
	if len(fields) != 5 {
		return 0, 0, fmt.Errorf("%w: expected 5 fields in %q", ErrInvalidConfig, expr)
	}
	for _, f := range fields[2:] {
		if f != "*" {
			return 0, 0, fmt.Errorf("%w: only daily schedules are supported, got %q", ErrInvalidConfig, expr)
		}
	}

	minute, err = parseField(fields[0], 59)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: minute: %v", ErrInvalidConfig, err)
	}
	hour, err = parseField(fields[1], 23)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: hour: %v", ErrInvalidConfig, err)
	}
	return hour, minute, nil
}

func parseField(s string, max int) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", s)
	}
	if v < 0 || v > max {
		return 0, fmt.Errorf("%d out of range 0-%d", v, max)
	}
	return v, nil
}

// NextRun returns the first hour:minute in now's location strictly after now.
func NextRun(now time.Time, hour, minute int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
