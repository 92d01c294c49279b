package services

import (
	"fmt"
	"testing"

	"github.com/vzwork/locus/internal/config"
	"github.com/vzwork/locus/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// plantChain creates a root -> mid -> leaf channel chain.
func plantChain(t *testing.T, db *gorm.DB) (root, mid, leaf *models.Channel) {
	t.Helper()

	root = &models.Channel{ID: "root", Name: "root", ParentID: "", Children: datatypes.NewJSONSlice([]string{"mid"})}
	mid = &models.Channel{ID: "mid", Name: "mid", ParentID: "root", Children: datatypes.NewJSONSlice([]string{"leaf"})}
	leaf = &models.Channel{ID: "leaf", Name: "leaf", ParentID: "mid", Children: datatypes.NewJSONSlice([]string{})}
	mustCreate(t, db, root)
	mustCreate(t, db, mid)
	mustCreate(t, db, leaf)
	return root, mid, leaf
}

// plantPost creates a post located at channelID for every timeframe.
func plantPost(t *testing.T, db *gorm.DB, id, channelID string, positiveWeek int64) *models.Post {
	t.Helper()

	loc := datatypes.NewJSONSlice([]string{channelID})
	post := &models.Post{
		ID:             id,
		Title:          id,
		ChannelOrigin:  channelID,
		LocationsDay:   loc,
		LocationsWeek:  loc,
		LocationsMonth: loc,
		LocationsYear:  loc,
		LocationsAll:   loc,
	}
	post.Positive.Week = positiveWeek
	post.Positive.Day = positiveWeek
	mustCreate(t, db, post)
	return post
}

// TestRebalancePromotesOneLevelPerPass tests that a strong post climbs the
// chain one parent per pass, not all the way to the root at once
func TestRebalancePromotesOneLevelPerPass(t *testing.T) {
	db := newTestDB(t)
	plantChain(t, db)
	plantPost(t, db, "p1", "leaf", 10)

	r := NewTreeRebalancer(db, config.NewMockConfig())
	require.NoError(t, r.Rebalance(models.TimeframeWeek))

	var got models.Post
	require.NoError(t, db.First(&got, "id = ?", "p1").Error)
	assert.ElementsMatch(t, []string{"leaf", "mid"}, []string(got.LocationsWeek), "one level per pass")
	assert.NotZero(t, got.LocationsUpdated)
	assert.ElementsMatch(t, []string{"leaf"}, []string(got.LocationsDay), "other timeframes untouched")

	require.NoError(t, r.Rebalance(models.TimeframeWeek))
	require.NoError(t, db.First(&got, "id = ?", "p1").Error)
	assert.ElementsMatch(t, []string{"leaf", "mid", "root"}, []string(got.LocationsWeek), "root reached on the second pass")
}

// TestRebalanceIdempotent tests that repeating a pass after the post has
// reached the root changes nothing
func TestRebalanceIdempotent(t *testing.T) {
	db := newTestDB(t)
	plantChain(t, db)
	plantPost(t, db, "p1", "leaf", 10)

	r := NewTreeRebalancer(db, config.NewMockConfig())
	for i := 0; i < 3; i++ {
		require.NoError(t, r.Rebalance(models.TimeframeWeek))
	}

	var got models.Post
	require.NoError(t, db.First(&got, "id = ?", "p1").Error)
	assert.Len(t, got.LocationsWeek, 3, "no duplicate locations after a repeat pass")
}

// TestRebalanceRefreshesPlacementTime tests that a post already sitting at
// the parent still gets a fresh placement timestamp
func TestRebalanceRefreshesPlacementTime(t *testing.T) {
	db := newTestDB(t)
	root := &models.Channel{ID: "root", Name: "root", ParentID: "", Children: datatypes.NewJSONSlice([]string{"leaf"})}
	leaf := &models.Channel{ID: "leaf", Name: "leaf", ParentID: "root", Children: datatypes.NewJSONSlice([]string{})}
	mustCreate(t, db, root)
	mustCreate(t, db, leaf)

	post := plantPost(t, db, "p1", "leaf", 10)
	post.LocationsWeek = datatypes.NewJSONSlice([]string{"leaf", "root"})
	require.NoError(t, db.Model(post).Updates(map[string]any{
		"locations_week":    post.LocationsWeek,
		"locations_updated": int64(1),
	}).Error)

	r := NewTreeRebalancer(db, config.NewMockConfig())
	require.NoError(t, r.Rebalance(models.TimeframeWeek))

	var got models.Post
	require.NoError(t, db.First(&got, "id = ?", "p1").Error)
	assert.ElementsMatch(t, []string{"leaf", "root"}, []string(got.LocationsWeek), "location set unchanged")
	assert.Greater(t, got.LocationsUpdated, int64(1), "placement timestamp refreshed")
}

// TestRebalanceTopThreeOnly tests the per-channel promotion limit
func TestRebalanceTopThreeOnly(t *testing.T) {
	db := newTestDB(t)
	plantChain(t, db)
	for i := 1; i <= 5; i++ {
		plantPost(t, db, fmt.Sprintf("p%d", i), "leaf", int64(i))
	}

	r := NewTreeRebalancer(db, config.NewMockConfig())
	require.NoError(t, r.Rebalance(models.TimeframeWeek))

	for i := 1; i <= 5; i++ {
		var got models.Post
		require.NoError(t, db.First(&got, "id = ?", fmt.Sprintf("p%d", i)).Error)
		if i <= 2 {
			assert.Len(t, got.LocationsWeek, 1, "weak post %d must stay at the leaf", i)
		} else {
			assert.Contains(t, []string(got.LocationsWeek), "mid", "strong post %d must be promoted", i)
		}
	}
}

// TestRebalanceDayCountsArrivals tests that day-timeframe promotion counts as
// post activity on the parent and pulls it into tomorrow's processing
func TestRebalanceDayCountsArrivals(t *testing.T) {
	db := newTestDB(t)
	plantChain(t, db)
	plantPost(t, db, "p1", "leaf", 10)

	r := NewTreeRebalancer(db, config.NewMockConfig())
	require.NoError(t, r.Rebalance(models.TimeframeDay))

	var mid, root models.Channel
	require.NoError(t, db.First(&mid, "id = ?", "mid").Error)
	require.NoError(t, db.First(&root, "id = ?", "root").Error)

	assert.Equal(t, int64(1), mid.Posts.Day, "arrival at mid")
	assert.Equal(t, int64(0), root.Posts.Day, "the post has not reached the root yet")
	assert.NotZero(t, mid.WorkloadNext)

	// The next pass moves the post on to the root; mid counts nothing new
	require.NoError(t, r.Rebalance(models.TimeframeDay))
	require.NoError(t, db.First(&mid, "id = ?", "mid").Error)
	require.NoError(t, db.First(&root, "id = ?", "root").Error)
	assert.Equal(t, int64(1), mid.Posts.Day)
	assert.Equal(t, int64(1), root.Posts.Day, "arrival at root")
	assert.NotZero(t, root.WorkloadNext)
}

// TestRebalanceWithoutRoot tests failing fast when the tree has no root
func TestRebalanceWithoutRoot(t *testing.T) {
	db := newTestDB(t)

	r := NewTreeRebalancer(db, config.NewMockConfig())
	err := r.Rebalance(models.TimeframeWeek)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "root channel not found")
}

// TestRebalanceInvalidTimeframe tests timeframe validation
func TestRebalanceInvalidTimeframe(t *testing.T) {
	db := newTestDB(t)

	r := NewTreeRebalancer(db, config.NewMockConfig())
	err := r.Rebalance(models.Timeframe("hourly"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown timeframe")
}

// TestRebalanceSurvivesDanglingChild tests that a missing child reference is
// reported but does not abort the walk
func TestRebalanceSurvivesDanglingChild(t *testing.T) {
	db := newTestDB(t)
	root := &models.Channel{ID: "root", Name: "root", ParentID: "", Children: datatypes.NewJSONSlice([]string{"ghost", "mid"})}
	mid := &models.Channel{ID: "mid", Name: "mid", ParentID: "root", Children: datatypes.NewJSONSlice([]string{})}
	mustCreate(t, db, root)
	mustCreate(t, db, mid)
	plantPost(t, db, "p1", "mid", 4)

	r := NewTreeRebalancer(db, config.NewMockConfig())
	err := r.Rebalance(models.TimeframeWeek)
	require.Error(t, err, "the dangling reference is reported")

	var got models.Post
	require.NoError(t, db.First(&got, "id = ?", "p1").Error)
	assert.Contains(t, []string(got.LocationsWeek), "root", "the healthy subtree is still rebalanced")
}
