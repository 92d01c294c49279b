// Package stats implements the rolling-window counters and the adaptive
// workload scheduling used by the statistics engine. Everything here is pure;
// persistence is the caller's concern.
package stats

import (
	"gorm.io/datatypes"
)

const (
	// WeekSpan is the number of daily advances after which a contribution
	// leaves the week window.
	WeekSpan = 7
	// MonthSpan is the number of daily advances after which a contribution
	// leaves the month window.
	MonthSpan = 28
	// YearSpan is the number of daily advances after which a contribution
	// leaves the year window.
	YearSpan = 364
	// MaxHistory caps the stored daily-bucket history. It must exceed
	// YearSpan so the bucket leaving the year window is still available.
	MaxHistory = 365
)

// Counters holds the decaying windowed totals for one metric plus the daily
// bucket history that drives the decay. It is embedded into entity models
// with a per-metric column prefix.
type Counters struct {
	Day   int64                      `gorm:"column:day;default:0" json:"day"`
	Week  int64                      `gorm:"column:week;default:0" json:"week"`
	Month int64                      `gorm:"column:month;default:0" json:"month"`
	Year  int64                      `gorm:"column:year;default:0" json:"year"`
	All   int64                      `gorm:"column:all_time;default:0" json:"all"`
	Queue datatypes.JSONSlice[int64] `gorm:"column:queue" json:"queue"`
}

// AdvanceOneDay closes the current day bucket: the bucket is appended to the
// history, the contributions leaving each window are subtracted, and the day
// count resets to zero. The all-time total is never touched.
func (c *Counters) AdvanceOneDay() {
	c.shift(c.Day)
	c.Day = 0
}

// AdvanceCatchUp performs the advances owed after daysPassed days without
// processing: one zero bucket per fully skipped day, then one real advance
// for the current day bucket. daysPassed below one is treated as one.
func (c *Counters) AdvanceCatchUp(daysPassed int) {
	if daysPassed < 1 {
		daysPassed = 1
	}
	zeros := daysPassed - 1
	if zeros > MaxHistory {
		// Anything older has already left every window.
		zeros = MaxHistory
	}
	for i := 0; i < zeros; i++ {
		c.shift(0)
	}
	c.AdvanceOneDay()
}

// shift appends one closed bucket and subtracts the buckets leaving the
// week, month and year windows. Windows clamp at zero: interaction removals
// can make a window smaller than the bucket that originally entered it.
func (c *Counters) shift(bucket int64) {
	c.Queue = append(c.Queue, bucket)

	c.Week -= c.leaving(WeekSpan)
	if c.Week < 0 {
		c.Week = 0
	}
	c.Month -= c.leaving(MonthSpan)
	if c.Month < 0 {
		c.Month = 0
	}
	c.Year -= c.leaving(YearSpan)
	if c.Year < 0 {
		c.Year = 0
	}

	if len(c.Queue) > MaxHistory {
		c.Queue = append(datatypes.JSONSlice[int64]{}, c.Queue[len(c.Queue)-MaxHistory:]...)
	}
}

// leaving returns the bucket that was pushed span advances before the most
// recent one, which is the bucket exiting a window of that span. Entities
// younger than the span have nothing leaving yet.
func (c *Counters) leaving(span int) int64 {
	idx := len(c.Queue) - 1 - span
	if idx < 0 {
		return 0
	}
	return c.Queue[idx]
}
