package stats

import (
	"time"
)

// MaxBackoffDays is the furthest a fully dormant entity is pushed out before
// it is looked at again.
const MaxBackoffDays = 728

// workloadTiers maps recent-activity depth to scheduling backoff. A history
// shorter than a tier's scan depth cannot rule activity out, so the entity
// stops at that tier's fallback step. Within a tier, the run of zero entries
// counting back from the newest bucket overrides the fallback: the entity is
// revisited on the day the next non-zero bucket reaches that tier's window
// boundary, not before.
var workloadTiers = []struct {
	scan int // newest history entries to inspect
	step int // fallback days past tomorrow's anchor
}{
	{scan: 8, step: 0},
	{scan: 29, step: 7},
	{scan: 364, step: 28},
}

// NextWorkload computes when an entity should next be processed, based on its
// daily-bucket history. The result is always aligned to the anchor hour.
func NextWorkload(queue []int64, now time.Time, anchorHour int) time.Time {
	anchor := Tomorrow(now, anchorHour)

	for _, tier := range workloadTiers {
		if len(queue) < tier.scan {
			return anchor.AddDate(0, 0, tier.step)
		}
		days := 0
		for k := 0; k < tier.scan; k++ {
			if queue[len(queue)-1-k] != 0 {
				break
			}
			days++
		}
		if days == 0 {
			return anchor.AddDate(0, 0, tier.step)
		}
		if days < tier.scan {
			return anchor.AddDate(0, 0, days)
		}
	}

	return anchor.AddDate(0, 0, MaxBackoffDays)
}

// Tomorrow returns the next day's anchor time in now's location.
func Tomorrow(now time.Time, anchorHour int) time.Time {
	next := now.AddDate(0, 0, 1)
	return time.Date(next.Year(), next.Month(), next.Day(), anchorHour, 0, 0, 0, now.Location())
}

// CycleStart returns the most recent anchor at or before now, i.e. the moment
// the running processing day began. An entity whose last advance is at or
// after this instant has already been processed today.
func CycleStart(now time.Time, anchorHour int) time.Time {
	anchor := time.Date(now.Year(), now.Month(), now.Day(), anchorHour, 0, 0, 0, now.Location())
	if now.Before(anchor) {
		anchor = anchor.AddDate(0, 0, -1)
	}
	return anchor
}

// DaysSince returns how many whole days have passed since the unix-millisecond
// timestamp last. Entities with no recorded advance owe exactly one.
func DaysSince(last int64, now time.Time) int {
	if last <= 0 {
		return 1
	}
	elapsed := now.Sub(time.UnixMilli(last))
	days := int(elapsed / (24 * time.Hour))
	if days < 1 {
		days = 1
	}
	return days
}
