package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/vzwork/locus/internal/errors"
	"github.com/vzwork/locus/internal/models"
	"github.com/vzwork/locus/internal/stats"
	"github.com/vzwork/locus/internal/types"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ContentService creates channels and posts and serves ranked reads. Creation
// seeds the statistics blocks and registers new nodes in the tree so the
// batch engines find them on their next run.
type ContentService struct {
	db         *gorm.DB
	anchorHour int
}

// NewContentService creates a new content service.
func NewContentService(db *gorm.DB, configManager types.ConfigManager) *ContentService {
	return &ContentService{
		db:         db,
		anchorHour: configManager.GetSchedulerConfig().StatisticsHour,
	}
}

// CreateChannel creates a channel under parentID and registers it in the
// parent's children list. An empty parentID creates the tree root, of which
// there can be only one.
func (s *ContentService) CreateChannel(name, parentID string) (*models.Channel, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewValidationError("channel name is required")
	}

	now := time.Now()
	channel := &models.Channel{
		ID:           uuid.NewString(),
		Name:         name,
		ParentID:     parentID,
		Children:     datatypes.NewJSONSlice([]string{}),
		WorkloadLast: now.UnixMilli(),
		WorkloadNext: stats.Tomorrow(now, s.anchorHour).UnixMilli(),
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if parentID == "" {
			var existing models.Channel
			err := tx.First(&existing, "parent_id = ''").Error
			if err == nil {
				return apperrors.NewAPIError(apperrors.ErrDuplicateResource, "root channel already exists")
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
		} else {
			var parent models.Channel
			if err := tx.First(&parent, "id = ?", parentID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return apperrors.NewNotFoundError(fmt.Sprintf("parent channel %s not found", parentID))
				}
				return err
			}
			if !parent.HasChild(channel.ID) {
				children := append([]string(parent.Children), channel.ID)
				err := tx.Model(&models.Channel{}).
					Where("id = ?", parentID).
					Update("children", datatypes.NewJSONSlice(children)).Error
				if err != nil {
					return err
				}
			}
		}
		return tx.Create(channel).Error
	})
	if err != nil {
		var apiErr *apperrors.APIError
		if errors.As(err, &apiErr) {
			return nil, apiErr
		}
		return nil, apperrors.ParseDBError(err)
	}
	return channel, nil
}

// CreatePost creates a post in its origin channel. Location sets start at the
// origin for every timeframe, and the arrival counts as post activity on the
// origin channel.
func (s *ContentService) CreatePost(title, description, channelOrigin string) (*models.Post, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperrors.NewValidationError("post title is required")
	}
	if channelOrigin == "" {
		return nil, apperrors.NewValidationError("origin channel is required")
	}

	now := time.Now()
	origin := datatypes.NewJSONSlice([]string{channelOrigin})
	post := &models.Post{
		ID:             uuid.NewString(),
		Title:          title,
		Description:    description,
		ChannelOrigin:  channelOrigin,
		LocationsDay:   origin,
		LocationsWeek:  origin,
		LocationsMonth: origin,
		LocationsYear:  origin,
		LocationsAll:   origin,
		WorkloadLast:   now.UnixMilli(),
		WorkloadNext:   stats.Tomorrow(now, s.anchorHour).UnixMilli(),
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Channel{}).
			Where("id = ?", channelOrigin).
			UpdateColumns(incrementAll("posts"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperrors.NewNotFoundError(fmt.Sprintf("channel %s not found", channelOrigin))
		}
		return tx.Create(post).Error
	})
	if err != nil {
		var apiErr *apperrors.APIError
		if errors.As(err, &apiErr) {
			return nil, apiErr
		}
		return nil, apperrors.ParseDBError(err)
	}
	return post, nil
}

// GetChannel returns one channel by ID.
func (s *ContentService) GetChannel(id string) (*models.Channel, error) {
	var channel models.Channel
	if err := s.db.First(&channel, "id = ?", id).Error; err != nil {
		return nil, apperrors.ParseDBError(err)
	}
	return &channel, nil
}

// GetPost returns one post by ID.
func (s *ContentService) GetPost(id string) (*models.Post, error) {
	var post models.Post
	if err := s.db.First(&post, "id = ?", id).Error; err != nil {
		return nil, apperrors.ParseDBError(err)
	}
	return &post, nil
}

// TopPosts returns the strongest posts located at a channel for a timeframe,
// ordered by the positive metric.
func (s *ContentService) TopPosts(channelID string, timeframe models.Timeframe, limit int) ([]models.Post, error) {
	if !timeframe.Valid() {
		return nil, apperrors.NewValidationError(fmt.Sprintf("unknown timeframe %q", timeframe))
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	var posts []models.Post
	err := jsonArrayContains(s.db, timeframe.LocationColumn(), channelID).
		Order(timeframe.CounterColumn("positive") + " DESC").
		Limit(limit).
		Find(&posts).Error
	if err != nil {
		return nil, apperrors.NewAPIError(apperrors.ErrStoreRead, err.Error())
	}
	return posts, nil
}

// ChildChannels returns a channel's direct children.
func (s *ContentService) ChildChannels(channelID string) ([]models.Channel, error) {
	var channels []models.Channel
	if err := s.db.Where("parent_id = ?", channelID).Order("name ASC").Find(&channels).Error; err != nil {
		return nil, apperrors.ParseDBError(err)
	}
	return channels, nil
}
