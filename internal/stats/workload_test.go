package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func fixedNow() time.Time {
	return time.Date(2025, 6, 10, 12, 30, 0, 0, time.UTC)
}

// quietFor builds a history of the given length whose newest days entries are
// zero, with activity just before them.
func quietFor(days, length int) []int64 {
	queue := make([]int64, length)
	queue[length-1-days] = 4
	return queue
}

// TestNextWorkloadTiers tests the tiered skip-ahead schedule
func TestNextWorkloadTiers(t *testing.T) {
	now := fixedNow()
	anchor := time.Date(2025, 6, 11, 4, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		queue    []int64
		expected time.Time
	}{
		{
			name:     "recent activity schedules tomorrow",
			queue:    []int64{0, 0, 0, 0, 0, 0, 0, 5},
			expected: anchor,
		},
		{
			name:     "short history schedules tomorrow",
			queue:    []int64{0, 0, 0, 0, 0},
			expected: anchor,
		},
		{
			name:     "empty history schedules tomorrow",
			queue:    nil,
			expected: anchor,
		},
		{
			name:     "week-quiet entity skips a week",
			queue:    []int64{0, 0, 0, 0, 0, 0, 0, 0, 0, 0},
			expected: anchor.AddDate(0, 0, 7),
		},
		{
			name:     "activity beyond week depth skips a week",
			queue:    append([]int64{9}, make([]int64, 12)...),
			expected: anchor.AddDate(0, 0, 7),
		},
		{
			name:     "month-quiet entity skips a month",
			queue:    make([]int64, 29),
			expected: anchor.AddDate(0, 0, 28),
		},
		{
			name:     "activity beyond month depth skips a month",
			queue:    append([]int64{2}, make([]int64, 40)...),
			expected: anchor.AddDate(0, 0, 28),
		},
		{
			name:     "year-quiet entity gets maximum backoff",
			queue:    make([]int64, 364),
			expected: anchor.AddDate(0, 0, MaxBackoffDays),
		},
		{
			name:     "three quiet days skip ahead three days",
			queue:    []int64{0, 0, 0, 0, 5, 0, 0, 0},
			expected: anchor.AddDate(0, 0, 3),
		},
		{
			name:     "five quiet days skip ahead five days",
			queue:    []int64{0, 0, 5, 0, 0, 0, 0, 0},
			expected: anchor.AddDate(0, 0, 5),
		},
		{
			name:     "fifteen quiet days skip ahead fifteen days",
			queue:    quietFor(15, 30),
			expected: anchor.AddDate(0, 0, 15),
		},
		{
			name:     "hundred quiet days skip ahead a hundred days",
			queue:    quietFor(100, 364),
			expected: anchor.AddDate(0, 0, 100),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NextWorkload(tt.queue, now, 4))
		})
	}
}

// TestNextWorkloadAnchorHour tests that results align to the configured hour
func TestNextWorkloadAnchorHour(t *testing.T) {
	now := fixedNow()

	next := NextWorkload([]int64{1}, now, 6)
	assert.Equal(t, 6, next.Hour())
	assert.Equal(t, 0, next.Minute())
	assert.Equal(t, now.Day()+1, next.Day())
}

// TestTomorrow tests anchor computation across date boundaries
func TestTomorrow(t *testing.T) {
	tests := []struct {
		name     string
		now      time.Time
		expected time.Time
	}{
		{
			name:     "mid-month",
			now:      time.Date(2025, 6, 10, 23, 59, 0, 0, time.UTC),
			expected: time.Date(2025, 6, 11, 4, 0, 0, 0, time.UTC),
		},
		{
			name:     "month boundary",
			now:      time.Date(2025, 6, 30, 10, 0, 0, 0, time.UTC),
			expected: time.Date(2025, 7, 1, 4, 0, 0, 0, time.UTC),
		},
		{
			name:     "year boundary",
			now:      time.Date(2025, 12, 31, 10, 0, 0, 0, time.UTC),
			expected: time.Date(2026, 1, 1, 4, 0, 0, 0, time.UTC),
		},
		{
			name:     "before the anchor hour still yields tomorrow",
			now:      time.Date(2025, 6, 10, 2, 0, 0, 0, time.UTC),
			expected: time.Date(2025, 6, 11, 4, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Tomorrow(tt.now, 4))
		})
	}
}

// TestCycleStart tests locating the start of the running processing day
func TestCycleStart(t *testing.T) {
	afterAnchor := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 6, 10, 4, 0, 0, 0, time.UTC), CycleStart(afterAnchor, 4))

	beforeAnchor := time.Date(2025, 6, 10, 2, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 6, 9, 4, 0, 0, 0, time.UTC), CycleStart(beforeAnchor, 4))
}

// TestDaysSince tests dormancy measurement
func TestDaysSince(t *testing.T) {
	now := fixedNow()

	tests := []struct {
		name     string
		last     int64
		expected int
	}{
		{"never advanced", 0, 1},
		{"negative timestamp", -5, 1},
		{"a few hours ago", now.Add(-6 * time.Hour).UnixMilli(), 1},
		{"thirty six hours ago", now.Add(-36 * time.Hour).UnixMilli(), 1},
		{"three and a half days ago", now.Add(-84 * time.Hour).UnixMilli(), 3},
		{"ten days ago", now.AddDate(0, 0, -10).UnixMilli(), 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DaysSince(tt.last, now))
		})
	}
}
