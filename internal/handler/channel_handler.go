package handler

import (
	"strconv"

	app_errors "github.com/vzwork/locus/internal/errors"
	"github.com/vzwork/locus/internal/models"
	"github.com/vzwork/locus/internal/response"

	"github.com/gin-gonic/gin"
)

// CreateChannelRequest defines the payload for creating a channel.
type CreateChannelRequest struct {
	Name     string `json:"name" binding:"required"`
	ParentID string `json:"parent_id"`
}

// CreateChannel handles POST /api/channels. An empty parent_id plants the
// tree root.
func (s *Server) CreateChannel(c *gin.Context) {
	var req CreateChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, app_errors.NewAPIError(app_errors.ErrInvalidJSON, err.Error()))
		return
	}

	channel, err := s.Content.CreateChannel(req.Name, req.ParentID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, channel)
}

// GetChannel handles GET /api/channels/:id.
func (s *Server) GetChannel(c *gin.Context) {
	channel, err := s.Content.GetChannel(c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, channel)
}

// GetChildChannels handles GET /api/channels/:id/children.
func (s *Server) GetChildChannels(c *gin.Context) {
	channels, err := s.Content.ChildChannels(c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, channels)
}

// GetTopPosts handles GET /api/channels/:id/posts. The timeframe query
// parameter selects the ranking window, defaulting to day.
func (s *Server) GetTopPosts(c *gin.Context) {
	timeframe := models.Timeframe(c.DefaultQuery("timeframe", string(models.TimeframeDay)))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	posts, err := s.Content.TopPosts(c.Param("id"), timeframe, limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, posts)
}

// AddChannelView handles POST /api/channels/:id/views.
func (s *Server) AddChannelView(c *gin.Context) {
	if err := s.Interactions.AddView(c.Param("id")); err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, nil)
}

// respondServiceError maps a service error onto the HTTP response.
func respondServiceError(c *gin.Context, err error) {
	if apiErr, ok := err.(*app_errors.APIError); ok {
		response.Error(c, apiErr)
		return
	}
	response.Error(c, app_errors.NewAPIError(app_errors.ErrInternalServer, err.Error()))
}
