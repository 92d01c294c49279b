package handler

import (
	"time"

	app_errors "github.com/vzwork/locus/internal/errors"
	"github.com/vzwork/locus/internal/response"

	"github.com/gin-gonic/gin"
)

// CreatePostRequest defines the payload for creating a post.
type CreatePostRequest struct {
	Title         string `json:"title" binding:"required"`
	Description   string `json:"description"`
	ChannelOrigin string `json:"channel_origin" binding:"required"`
}

// CreatePost handles POST /api/posts.
func (s *Server) CreatePost(c *gin.Context) {
	var req CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, app_errors.NewAPIError(app_errors.ErrInvalidJSON, err.Error()))
		return
	}

	post, err := s.Content.CreatePost(req.Title, req.Description, req.ChannelOrigin)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, post)
}

// GetPost handles GET /api/posts/:id.
func (s *Server) GetPost(c *gin.Context) {
	post, err := s.Content.GetPost(c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, post)
}

// RemoveInteractionRequest carries the original interaction time for a
// removal, so only the windows it is still inside are lowered.
type RemoveInteractionRequest struct {
	InteractedAt int64 `json:"interacted_at" binding:"required"`
}

func (r *RemoveInteractionRequest) time() time.Time {
	return time.UnixMilli(r.InteractedAt)
}

// AddPositive handles POST /api/posts/:id/positive.
func (s *Server) AddPositive(c *gin.Context) {
	s.applyInteraction(c, s.Interactions.AddPositive)
}

// RemovePositive handles DELETE /api/posts/:id/positive.
func (s *Server) RemovePositive(c *gin.Context) {
	s.removeInteraction(c, s.Interactions.RemovePositive)
}

// AddStar handles POST /api/posts/:id/stars.
func (s *Server) AddStar(c *gin.Context) {
	s.applyInteraction(c, s.Interactions.AddStar)
}

// RemoveStar handles DELETE /api/posts/:id/stars.
func (s *Server) RemoveStar(c *gin.Context) {
	s.removeInteraction(c, s.Interactions.RemoveStar)
}

// AddBook handles POST /api/posts/:id/books.
func (s *Server) AddBook(c *gin.Context) {
	s.applyInteraction(c, s.Interactions.AddBook)
}

// RemoveBook handles DELETE /api/posts/:id/books.
func (s *Server) RemoveBook(c *gin.Context) {
	s.removeInteraction(c, s.Interactions.RemoveBook)
}

func (s *Server) applyInteraction(c *gin.Context, apply func(postID string) error) {
	if err := apply(c.Param("id")); err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, nil)
}

func (s *Server) removeInteraction(c *gin.Context, remove func(postID string, interactedAt time.Time) error) {
	var req RemoveInteractionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, app_errors.NewAPIError(app_errors.ErrInvalidJSON, err.Error()))
		return
	}
	if err := remove(c.Param("id"), req.time()); err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, nil)
}
