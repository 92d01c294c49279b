package models

import (
	"time"

	"github.com/vzwork/locus/internal/stats"

	"gorm.io/datatypes"
)

// Post is a ranked content item. It originates in one channel and is promoted
// toward the root through per-timeframe location sets. Three metrics decay on
// posts; positive is the primary one and drives both ranking and workload
// scheduling.
type Post struct {
	ID            string `gorm:"primaryKey;size:64" json:"id"`
	Title         string `gorm:"size:512;not null" json:"title"`
	Description   string `gorm:"type:text" json:"description"`
	ChannelOrigin string `gorm:"size:64;index;not null" json:"channel_origin"`

	Positive stats.Counters `gorm:"embedded;embeddedPrefix:positive_" json:"positive"`
	Stars    stats.Counters `gorm:"embedded;embeddedPrefix:stars_" json:"stars"`
	Books    stats.Counters `gorm:"embedded;embeddedPrefix:books_" json:"books"`

	// Per-timeframe sets of channel IDs where the post currently ranks.
	LocationsDay   datatypes.JSONSlice[string] `gorm:"column:locations_day" json:"locations_day"`
	LocationsWeek  datatypes.JSONSlice[string] `gorm:"column:locations_week" json:"locations_week"`
	LocationsMonth datatypes.JSONSlice[string] `gorm:"column:locations_month" json:"locations_month"`
	LocationsYear  datatypes.JSONSlice[string] `gorm:"column:locations_year" json:"locations_year"`
	LocationsAll   datatypes.JSONSlice[string] `gorm:"column:locations_all" json:"locations_all"`

	// Bumped whenever a rebalance run touches the location sets.
	LocationsUpdated int64 `gorm:"column:locations_updated;default:0" json:"locations_updated"`

	WorkloadLast int64 `gorm:"column:workload_last;index;default:0" json:"workload_last"`
	WorkloadNext int64 `gorm:"column:workload_next;index;default:0" json:"workload_next"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for Post
func (Post) TableName() string {
	return "posts"
}

// Locations returns the location set for a timeframe.
func (p *Post) Locations(t Timeframe) []string {
	switch t {
	case TimeframeDay:
		return p.LocationsDay
	case TimeframeWeek:
		return p.LocationsWeek
	case TimeframeMonth:
		return p.LocationsMonth
	case TimeframeYear:
		return p.LocationsYear
	case TimeframeAll:
		return p.LocationsAll
	}
	return nil
}

// LocatedAt reports whether the post is already placed at channelID for a
// timeframe.
func (p *Post) LocatedAt(t Timeframe, channelID string) bool {
	for _, id := range p.Locations(t) {
		if id == channelID {
			return true
		}
	}
	return false
}
