// Package models defines the persistent entities of the ranking engine
package models

// Timeframe identifies one of the five ranking windows.
type Timeframe string

const (
	TimeframeDay   Timeframe = "day"
	TimeframeWeek  Timeframe = "week"
	TimeframeMonth Timeframe = "month"
	TimeframeYear  Timeframe = "year"
	TimeframeAll   Timeframe = "all"
)

// Timeframes lists every ranking window, shortest first.
var Timeframes = []Timeframe{
	TimeframeDay,
	TimeframeWeek,
	TimeframeMonth,
	TimeframeYear,
	TimeframeAll,
}

// Valid reports whether t names a known timeframe.
func (t Timeframe) Valid() bool {
	switch t {
	case TimeframeDay, TimeframeWeek, TimeframeMonth, TimeframeYear, TimeframeAll:
		return true
	}
	return false
}

// CounterColumn returns the database column holding a metric's total for this
// timeframe, e.g. positive_week. The all-time column avoids the reserved
// word ALL.
func (t Timeframe) CounterColumn(metricPrefix string) string {
	if t == TimeframeAll {
		return metricPrefix + "_all_time"
	}
	return metricPrefix + "_" + string(t)
}

// LocationColumn returns the database column holding post locations for this
// timeframe, e.g. locations_week.
func (t Timeframe) LocationColumn() string {
	return "locations_" + string(t)
}
