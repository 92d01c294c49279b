// Package services contains the batch engines and mutation services of the
// ranking system: statistics decay, tree rebalancing, interactions, content
// management and job scheduling.
package services

import (
	"time"

	"github.com/vzwork/locus/internal/models"
	"github.com/vzwork/locus/internal/stats"
	"github.com/vzwork/locus/internal/types"
	"github.com/vzwork/locus/internal/utils"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	defaultPageSize = 100
	defaultMaxPages = 1000

	writeRetryAttempts = 3
	writeRetryBackoff  = 50 * time.Millisecond
)

// ProcessedCounts summarizes one statistics run.
type ProcessedCounts struct {
	Channels int `json:"channels"`
	Posts    int `json:"posts"`
}

// StatisticsProcessor advances the rolling-window counters of channels and
// posts and reschedules each entity's next processing time.
type StatisticsProcessor struct {
	db         *gorm.DB
	anchorHour int

	// Overridable in tests.
	pageSize int
	maxPages int
}

// NewStatisticsProcessor creates a new statistics processor.
func NewStatisticsProcessor(db *gorm.DB, configManager types.ConfigManager) *StatisticsProcessor {
	return &StatisticsProcessor{
		db:         db,
		anchorHour: configManager.GetSchedulerConfig().StatisticsHour,
		pageSize:   defaultPageSize,
		maxPages:   defaultMaxPages,
	}
}

// RunDaily processes every entity whose current day bucket holds activity.
// One pass per metric group; an entity advanced by an earlier pass is skipped
// by the workload guard, so each entity decays at most once per day.
func (p *StatisticsProcessor) RunDaily(now time.Time) (ProcessedCounts, error) {
	var counts ProcessedCounts

	for _, column := range []string{"posts_day", "views_day"} {
		n, err := p.processChannels(now, column+" > 0", column+" DESC")
		counts.Channels += n
		if err != nil {
			return counts, err
		}
	}

	for _, column := range []string{"positive_day", "stars_day", "books_day"} {
		n, err := p.processPosts(now, column+" > 0", column+" DESC")
		counts.Posts += n
		if err != nil {
			return counts, err
		}
	}

	logrus.WithFields(logrus.Fields{
		"channels": counts.Channels,
		"posts":    counts.Posts,
	}).Info("Daily statistics pass finished")
	return counts, nil
}

// RunScheduled processes every entity whose adaptive workload timestamp has
// come due, oldest first.
func (p *StatisticsProcessor) RunScheduled(now time.Time) (ProcessedCounts, error) {
	var counts ProcessedCounts
	due := now.UnixMilli()

	n, err := p.processChannels(now, "workload_next > 0 AND workload_next <= ?", "workload_next ASC", due)
	counts.Channels = n
	if err != nil {
		return counts, err
	}

	n, err = p.processPosts(now, "workload_next > 0 AND workload_next <= ?", "workload_next ASC", due)
	counts.Posts = n
	if err != nil {
		return counts, err
	}

	logrus.WithFields(logrus.Fields{
		"channels": counts.Channels,
		"posts":    counts.Posts,
	}).Info("Scheduled statistics pass finished")
	return counts, nil
}

// processChannels pages through channels matching cond and advances each one.
// Advanced rows leave the filter (their day buckets reset and their workload
// moves into the future), so each iteration re-reads the first page. A page
// yielding no successful advance ends the pass: whatever remains is either
// already handled by a concurrent run or persistently failing.
func (p *StatisticsProcessor) processChannels(now time.Time, cond, order string, args ...any) (int, error) {
	processed := 0
	for page := 0; page < p.maxPages; page++ {
		var channels []models.Channel
		err := p.db.Where(cond, args...).Order(order).Limit(p.pageSize).Find(&channels).Error
		if err != nil {
			return processed, err
		}
		if len(channels) == 0 {
			break
		}

		advancedInPage := 0
		for i := range channels {
			advanced, err := p.advanceChannel(&channels[i], now)
			if err != nil {
				logrus.WithError(err).WithField("channel", channels[i].ID).
					Warn("Failed to advance channel statistics, skipping")
				continue
			}
			if advanced {
				advancedInPage++
			}
		}
		processed += advancedInPage

		if advancedInPage == 0 {
			break
		}
		if len(channels) < p.pageSize {
			break
		}
	}
	return processed, nil
}

// processPosts is the post-side counterpart of processChannels.
func (p *StatisticsProcessor) processPosts(now time.Time, cond, order string, args ...any) (int, error) {
	processed := 0
	for page := 0; page < p.maxPages; page++ {
		var posts []models.Post
		err := p.db.Where(cond, args...).Order(order).Limit(p.pageSize).Find(&posts).Error
		if err != nil {
			return processed, err
		}
		if len(posts) == 0 {
			break
		}

		advancedInPage := 0
		for i := range posts {
			advanced, err := p.advancePost(&posts[i], now)
			if err != nil {
				logrus.WithError(err).WithField("post", posts[i].ID).
					Warn("Failed to advance post statistics, skipping")
				continue
			}
			if advanced {
				advancedInPage++
			}
		}
		processed += advancedInPage

		if advancedInPage == 0 {
			break
		}
		if len(posts) < p.pageSize {
			break
		}
	}
	return processed, nil
}

// advanceChannel decays both channel metrics, computes the next workload from
// the posts history and persists everything as one conditional update. The
// workload_last condition makes the advance atomic against overlapping runs.
func (p *StatisticsProcessor) advanceChannel(ch *models.Channel, now time.Time) (bool, error) {
	if ch.WorkloadLast >= stats.CycleStart(now, p.anchorHour).UnixMilli() {
		return false, nil // already advanced this cycle
	}

	origLast := ch.WorkloadLast
	days := stats.DaysSince(ch.WorkloadLast, now)
	ch.Posts.AdvanceCatchUp(days)
	ch.Views.AdvanceCatchUp(days)
	next := stats.NextWorkload(ch.Posts.Queue, now, p.anchorHour)

	updates := counterUpdates("posts", &ch.Posts)
	for k, v := range counterUpdates("views", &ch.Views) {
		updates[k] = v
	}
	updates["workload_last"] = now.UnixMilli()
	updates["workload_next"] = next.UnixMilli()

	var affected int64
	err := utils.RetryOnLock(writeRetryAttempts, writeRetryBackoff, func() error {
		res := p.db.Model(&models.Channel{}).
			Where("id = ? AND workload_last = ?", ch.ID, origLast).
			Updates(updates)
		affected = res.RowsAffected
		return res.Error
	})
	if err != nil {
		return false, err
	}
	if affected == 0 {
		return false, nil // a concurrent run advanced this channel first
	}
	return true, nil
}

// advancePost decays all three post metrics; the positive history drives the
// next workload.
func (p *StatisticsProcessor) advancePost(post *models.Post, now time.Time) (bool, error) {
	if post.WorkloadLast >= stats.CycleStart(now, p.anchorHour).UnixMilli() {
		return false, nil
	}

	origLast := post.WorkloadLast
	days := stats.DaysSince(post.WorkloadLast, now)
	post.Positive.AdvanceCatchUp(days)
	post.Stars.AdvanceCatchUp(days)
	post.Books.AdvanceCatchUp(days)
	next := stats.NextWorkload(post.Positive.Queue, now, p.anchorHour)

	updates := counterUpdates("positive", &post.Positive)
	for k, v := range counterUpdates("stars", &post.Stars) {
		updates[k] = v
	}
	for k, v := range counterUpdates("books", &post.Books) {
		updates[k] = v
	}
	updates["workload_last"] = now.UnixMilli()
	updates["workload_next"] = next.UnixMilli()

	var affected int64
	err := utils.RetryOnLock(writeRetryAttempts, writeRetryBackoff, func() error {
		res := p.db.Model(&models.Post{}).
			Where("id = ? AND workload_last = ?", post.ID, origLast).
			Updates(updates)
		affected = res.RowsAffected
		return res.Error
	})
	if err != nil {
		return false, err
	}
	if affected == 0 {
		return false, nil
	}
	return true, nil
}

// counterUpdates maps one metric's counters onto its prefixed columns.
func counterUpdates(prefix string, c *stats.Counters) map[string]any {
	return map[string]any{
		prefix + "_day":      c.Day,
		prefix + "_week":     c.Week,
		prefix + "_month":    c.Month,
		prefix + "_year":     c.Year,
		prefix + "_all_time": c.All,
		prefix + "_queue":    c.Queue,
	}
}
