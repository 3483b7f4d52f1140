package attendance

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "00:00"},
		{-time.Minute, "00:00"},
		{59 * time.Second, "00:00"},
		{8*time.Hour + 59*time.Minute + 59*time.Second, "08:59"},
		{25*time.Hour + 5*time.Minute, "25:05"},
		{123*time.Hour + 45*time.Minute, "123:45"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatDuration(tt.in), tt.in.String())
	}
}

func TestSummarize(t *testing.T) {
	now := time.Date(2025, 3, 5, 18, 0, 0, 0, time.UTC)
	userID := uuid.New()

	present := func(d time.Duration) *Attendance {
		a := NewAttendance(userID, now, now)
		a.WorkedDuration = d
		return a
	}
	absent := NewAbsence(userID, now, now)
	// ABSENT rows never carry time; guard that it is not counted anyway
	absent.WorkedDuration = 10 * time.Hour

	s := Summarize([]*Attendance{
		present(8*time.Hour + 30*time.Minute),
		present(7*time.Hour + 45*time.Minute),
		absent,
		present(0),
	})

	assert.EqualValues(t, 3, s.PresentDays)
	assert.EqualValues(t, 1, s.AbsentDays)
	assert.Equal(t, "16:15", s.TotalWorkedHours())
	assert.Equal(t, "16.25", s.WorkedHoursDecimal().StringFixed(2))
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil)

	assert.Zero(t, s.PresentDays)
	assert.Zero(t, s.AbsentDays)
	assert.Equal(t, "00:00", s.TotalWorkedHours())
	assert.True(t, s.WorkedHoursDecimal().IsZero())
}

func TestHoursDecimal_Truncates(t *testing.T) {
	// 1h 59m 59s = 1.99972h
	assert.Equal(t, "1.99", HoursDecimal(time.Hour+59*time.Minute+59*time.Second).StringFixed(2))
}
