package handler

import (
	"github.com/vzwork/locus/internal/response"

	"github.com/gin-gonic/gin"
)

// ListJobs handles GET /api/tasks. It returns the schedulable job names.
func (s *Server) ListJobs(c *gin.Context) {
	response.Success(c, s.Scheduler.JobNames())
}

// TriggerJob handles POST /api/tasks/:name/trigger. A job that is already
// running reports a conflict instead of running twice.
func (s *Server) TriggerJob(c *gin.Context) {
	if err := s.Scheduler.Trigger(c.Param("name")); err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, gin.H{"triggered": c.Param("name")})
}

// GetJobRunCounts handles GET /api/tasks/runs.
func (s *Server) GetJobRunCounts(c *gin.Context) {
	counts, err := s.Scheduler.RunCounts()
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, counts)
}
