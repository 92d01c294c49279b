package models

import (
	"time"

	"github.com/vzwork/locus/internal/stats"

	"gorm.io/datatypes"
)

// Channel is a node of the content tree. The root channel has an empty
// ParentID. Two metrics decay on channels: posts arriving through
// rebalancing or creation, and views.
type Channel struct {
	ID       string                      `gorm:"primaryKey;size:64" json:"id"`
	Name     string                      `gorm:"size:255;not null" json:"name"`
	ParentID string                      `gorm:"size:64;index;default:''" json:"parent_id"`
	Children datatypes.JSONSlice[string] `gorm:"column:children" json:"children"`

	Posts stats.Counters `gorm:"embedded;embeddedPrefix:posts_" json:"posts"`
	Views stats.Counters `gorm:"embedded;embeddedPrefix:views_" json:"views"`

	// Unix-millisecond timestamps driving the statistics scheduler. The
	// posts history is the primary queue for workload decisions.
	WorkloadLast int64 `gorm:"column:workload_last;index;default:0" json:"workload_last"`
	WorkloadNext int64 `gorm:"column:workload_next;index;default:0" json:"workload_next"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for Channel
func (Channel) TableName() string {
	return "channels"
}

// HasChild reports whether id is registered as a direct child.
func (c *Channel) HasChild(id string) bool {
	for _, child := range c.Children {
		if child == id {
			return true
		}
	}
	return false
}
