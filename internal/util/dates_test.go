package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBusinessDate(t *testing.T) {
	tests := []struct {
		name     string
		now      time.Time
		expected time.Time
	}{
		{
			name:     "midday UTC stays same date",
			now:      time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC),
			expected: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "late UTC evening rolls into next IST day",
			now:      time.Date(2025, 3, 10, 19, 0, 0, 0, time.UTC),
			expected: time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "18:30 UTC is exactly IST midnight",
			now:      time.Date(2025, 3, 10, 18, 30, 0, 0, time.UTC),
			expected: time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "just before IST midnight",
			now:      time.Date(2025, 3, 10, 18, 29, 59, 0, time.UTC),
			expected: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, BusinessDate(tt.now))
		})
	}
}

func TestMonthBounds(t *testing.T) {
	tests := []struct {
		name          string
		date          time.Time
		expectedStart time.Time
		expectedEnd   time.Time
	}{
		{
			name:          "January",
			date:          time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC),
			expectedStart: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
			expectedEnd:   time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC),
		},
		{
			name:          "February non-leap",
			date:          time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
			expectedStart: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
			expectedEnd:   time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC),
		},
		{
			name:          "February leap year",
			date:          time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC),
			expectedStart: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
			expectedEnd:   time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC),
		},
		{
			name:          "December",
			date:          time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
			expectedStart: time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC),
			expectedEnd:   time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := MonthBounds(tt.date)
			assert.Equal(t, tt.expectedStart, start)
			assert.Equal(t, tt.expectedEnd, end)
		})
	}
}

func TestPreviousDate(t *testing.T) {
	assert.Equal(t,
		time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
		PreviousDate(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)))
}

func TestDateOf(t *testing.T) {
	assert.Equal(t,
		time.Date(2025, 6, 5, 0, 0, 0, 0, time.UTC),
		DateOf(time.Date(2025, 6, 5, 23, 59, 58, 0, time.UTC)))
}
