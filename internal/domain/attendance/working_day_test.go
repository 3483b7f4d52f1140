package attendance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestWorkingDayPolicy_IsWorkingDay(t *testing.T) {
	p := DefaultWorkingDayPolicy()

	// 2025-03-01 is a Saturday
	week := map[time.Time]bool{
		date(2025, 3, 1): true,  // Sat
		date(2025, 3, 2): true,  // Sun
		date(2025, 3, 3): true,  // Mon
		date(2025, 3, 4): true,  // Tue
		date(2025, 3, 5): true,  // Wed
		date(2025, 3, 6): false, // Thu
		date(2025, 3, 7): false, // Fri
	}
	for d, want := range week {
		assert.Equal(t, want, p.IsWorkingDay(d), d.Weekday().String())
	}
}

func TestWorkingDayPolicy_PreviousWorkingDay(t *testing.T) {
	p := DefaultWorkingDayPolicy()

	tests := []struct {
		name string
		from time.Time
		want time.Time
	}{
		{"saturday skips the weekend back to wednesday", date(2025, 3, 8), date(2025, 3, 5)},
		{"friday goes back to wednesday", date(2025, 3, 7), date(2025, 3, 5)},
		{"thursday goes back to wednesday", date(2025, 3, 6), date(2025, 3, 5)},
		{"monday goes back to sunday", date(2025, 3, 3), date(2025, 3, 2)},
		{"sunday goes back to saturday", date(2025, 3, 2), date(2025, 3, 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.PreviousWorkingDay(tt.from)
			assert.Equal(t, tt.want, got)
			assert.True(t, p.IsWorkingDay(got))
			assert.True(t, got.Before(tt.from))
		})
	}
}

func TestNewWorkingDayPolicy(t *testing.T) {
	_, err := NewWorkingDayPolicy()
	assert.Error(t, err)

	_, err = NewWorkingDayPolicy(time.Weekday(9))
	assert.Error(t, err)

	p, err := NewWorkingDayPolicy(time.Monday, time.Friday)
	require.NoError(t, err)
	assert.Equal(t, []time.Weekday{time.Monday, time.Friday}, p.Weekdays())
}

func TestParseWeekdays(t *testing.T) {
	days, err := ParseWeekdays([]string{"saturday", "Sun", " MON "})
	require.NoError(t, err)
	assert.Equal(t, []time.Weekday{time.Saturday, time.Sunday, time.Monday}, days)

	_, err = ParseWeekdays([]string{"funday"})
	assert.Error(t, err)

	_, err = ParseWeekdays([]string{"t"})
	assert.Error(t, err)
}
