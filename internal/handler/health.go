package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Health handles the health check endpoint. It reports unhealthy when the
// database cannot be reached.
func (s *Server) Health(c *gin.Context) {
	result := gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	if startTime, exists := c.Get("serverStartTime"); exists {
		if st, ok := startTime.(time.Time); ok {
			result["uptime"] = time.Since(st).String()
		}
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	sqlDB, err := s.DB.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		result["status"] = "unhealthy"
		result["database"] = "unavailable"
		c.JSON(http.StatusServiceUnavailable, result)
		return
	}

	result["database"] = "ok"
	c.JSON(http.StatusOK, result)
}
