package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/vzwork/locus/internal/db"
	apperrors "github.com/vzwork/locus/internal/errors"
	"github.com/vzwork/locus/internal/models"
	"github.com/vzwork/locus/internal/stats"
	"github.com/vzwork/locus/internal/types"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// topPromoted is how many posts per channel move one level toward the root
// in each rebalance run.
const topPromoted = 3

// TreeRebalancer walks the channel tree bottom-up and promotes each channel's
// strongest posts into its parent, once per timeframe.
type TreeRebalancer struct {
	db         *gorm.DB
	anchorHour int
}

// NewTreeRebalancer creates a new tree rebalancer.
func NewTreeRebalancer(db *gorm.DB, configManager types.ConfigManager) *TreeRebalancer {
	return &TreeRebalancer{
		db:         db,
		anchorHour: configManager.GetSchedulerConfig().StatisticsHour,
	}
}

// Rebalance runs one promotion pass over the whole tree for a timeframe.
// The traversal is an iterative post-order walk: a channel is handled only
// after all of its children. A post moves at most one level per pass, so
// content migrates toward the root gradually over repeated runs. Per-post
// write failures are collected and reported together; they never abort the
// walk.
func (r *TreeRebalancer) Rebalance(timeframe models.Timeframe) error {
	if !timeframe.Valid() {
		return apperrors.NewValidationError(fmt.Sprintf("unknown timeframe %q", timeframe))
	}

	root, err := r.RootChannel()
	if err != nil {
		return err
	}

	start := time.Now()
	stack := []string{root.ID}
	onStack := map[string]struct{}{root.ID: {}}
	finalized := make(map[string]struct{})
	moved := make(map[string]struct{})
	visited := 0
	var errs []error

	for len(stack) > 0 {
		id := stack[len(stack)-1]

		var ch models.Channel
		if err := r.db.First(&ch, "id = ?", id).Error; err != nil {
			// Dangling child reference: finalize it so the parent can proceed.
			stack = stack[:len(stack)-1]
			delete(onStack, id)
			finalized[id] = struct{}{}
			errs = append(errs, fmt.Errorf("channel %s: %w", id, err))
			continue
		}

		var pending []string
		for _, child := range ch.Children {
			_, done := finalized[child]
			_, queued := onStack[child]
			if !done && !queued {
				pending = append(pending, child)
			}
		}
		if len(pending) > 0 {
			for _, child := range pending {
				stack = append(stack, child)
				onStack[child] = struct{}{}
			}
			continue
		}

		stack = stack[:len(stack)-1]
		delete(onStack, id)
		finalized[id] = struct{}{}
		visited++

		if ch.ParentID == "" {
			continue // the root has nowhere to promote into
		}
		if err := r.promoteTop(&ch, timeframe, moved); err != nil {
			errs = append(errs, err)
		}
	}

	logrus.WithFields(logrus.Fields{
		"timeframe": timeframe,
		"channels":  visited,
		"errors":    len(errs),
		"duration":  time.Since(start).String(),
	}).Info("Rebalance pass finished")

	return errors.Join(errs...)
}

// RootChannel resolves the tree root, the single channel without a parent.
func (r *TreeRebalancer) RootChannel() (*models.Channel, error) {
	var root models.Channel
	if err := r.db.First(&root, "parent_id = ''").Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError("root channel not found")
		}
		return nil, err
	}
	return &root, nil
}

// promoteTop promotes the channel's strongest posts for the timeframe one
// level toward the root. Posts that already moved earlier in this pass are
// skipped, which caps every post at a single level per pass: a post promoted
// out of a leaf would otherwise be re-found at the parent later in the same
// walk and dragged straight to the root.
func (r *TreeRebalancer) promoteTop(ch *models.Channel, timeframe models.Timeframe, moved map[string]struct{}) error {
	var posts []models.Post
	err := jsonArrayContains(r.db, timeframe.LocationColumn(), ch.ID).
		Order(timeframe.CounterColumn("positive") + " DESC").
		Limit(topPromoted).
		Find(&posts).Error
	if err != nil {
		return fmt.Errorf("channel %s: querying top posts: %w", ch.ID, err)
	}

	now := time.Now()
	var errs []error
	for i := range posts {
		if _, done := moved[posts[i].ID]; done {
			continue
		}
		didMove, err := r.promote(&posts[i], ch, timeframe, now)
		if err != nil {
			errs = append(errs, fmt.Errorf("post %s: %w", posts[i].ID, err))
			continue
		}
		if didMove {
			moved[posts[i].ID] = struct{}{}
		}
	}
	return errors.Join(errs...)
}

// promote places one post at the channel's parent and reports whether the
// post actually changed location. Posts already located at the parent keep
// their location set but still get a fresh placement timestamp. For the day
// timeframe a newly arrived post also counts as post activity on the parent,
// and the parent is pulled back into tomorrow's processing.
func (r *TreeRebalancer) promote(post *models.Post, ch *models.Channel, timeframe models.Timeframe, now time.Time) (bool, error) {
	if post.LocatedAt(timeframe, ch.ParentID) {
		err := r.db.Model(&models.Post{}).
			Where("id = ?", post.ID).
			UpdateColumn("locations_updated", now.UnixMilli()).Error
		return false, err
	}

	locations := make([]string, 0, len(post.Locations(timeframe))+1)
	locations = append(locations, post.Locations(timeframe)...)
	locations = append(locations, ch.ParentID)

	err := r.db.Model(&models.Post{}).
		Where("id = ?", post.ID).
		Updates(map[string]any{
			timeframe.LocationColumn(): datatypes.NewJSONSlice(locations),
			"locations_updated":        now.UnixMilli(),
		}).Error
	if err != nil {
		return false, err
	}

	if timeframe == models.TimeframeDay {
		err = r.db.Model(&models.Channel{}).
			Where("id = ?", ch.ParentID).
			UpdateColumns(map[string]any{
				"posts_day":     gorm.Expr("posts_day + 1"),
				"workload_next": stats.Tomorrow(now, r.anchorHour).UnixMilli(),
			}).Error
		if err != nil {
			return true, fmt.Errorf("updating parent %s: %w", ch.ParentID, err)
		}
	}
	return true, nil
}

// jsonArrayContains filters rows whose JSON array column contains value,
// using the dialect's native containment operator.
func jsonArrayContains(conn *gorm.DB, column, value string) *gorm.DB {
	switch db.Dialect(conn) {
	case "mysql":
		return conn.Where("JSON_CONTAINS("+column+", JSON_QUOTE(?))", value)
	case "postgres":
		return conn.Where("("+column+")::jsonb @> to_jsonb(?::text)", value)
	default: // sqlite
		return conn.Where("EXISTS (SELECT 1 FROM json_each("+column+") WHERE json_each.value = ?)", value)
	}
}
