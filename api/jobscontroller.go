package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"storyreel/jobstore"
	"storyreel/types"
)

// SubmitJobResponse is returned by POST /api/jobs
type SubmitJobResponse struct {
	JobID     string `json:"job_id"`
	Folder    string `json:"folder"`
	StatusURL string `json:"status_url"`
}

// RegisterJobRoutes registers job submission and status endpoints.
func RegisterJobRoutes(r *gin.Engine, s *Server) {
	g := r.Group("/api/jobs")
	g.POST("", s.handleSubmitJob)
	g.GET("/:id", s.handleGetJob)
}

// handleSubmitJob validates the request, records the job as idle and runs it
// asynchronously. It returns 202 Accepted immediately, or 409 Conflict while
// another job holds the same id or folder.
func (s *Server) handleSubmitJob(c *gin.Context) {
	var req types.JobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	req, err := s.runner.Confine(req)
	if err == nil {
		req, err = s.runner.Prepare(req)
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !s.reserve(req) {
		c.JSON(http.StatusConflict, gin.H{"error": "a job with this id or folder is already running"})
		return
	}
	if running(c.Request.Context(), s.store, req.ID) {
		s.release(req)
		c.JSON(http.StatusConflict, gin.H{"error": "job " + req.ID + " is already running"})
		return
	}

	initial := types.JobStatus{
		JobID:     req.ID,
		Title:     req.Title,
		Folder:    req.Folder,
		State:     types.StateIdle,
		UpdatedAt: time.Now(),
	}
	if err := s.store.Save(c.Request.Context(), initial); err != nil {
		s.release(req)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record job: " + err.Error()})
		return
	}

	log.Printf("📥 Received job %s: %q", req.ID, req.Title)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.release(req)
		status, err := s.runner.Run(s.ctx, req, jobstore.Observer(s.store))
		if err != nil {
			log.Printf("❌ Job %s failed: %v", req.ID, err)
			// Never leave a failed job looking like it still runs.
			if status.State != types.StateError {
				status = types.JobStatus{JobID: req.ID, Title: req.Title, Folder: req.Folder, State: types.StateError, Error: err.Error()}
			}
			status.UpdatedAt = time.Now()
			if err := s.store.Save(context.Background(), status); err != nil {
				log.Printf("Failed to record status of job %s: %v", req.ID, err)
			}
		}
	}()

	c.JSON(http.StatusAccepted, SubmitJobResponse{
		JobID:     req.ID,
		Folder:    req.Folder,
		StatusURL: "/api/jobs/" + req.ID,
	})
}

// running reports whether the store holds an unfinished snapshot for id,
// which covers jobs started by other processes sharing the store.
func running(ctx context.Context, store jobstore.Store, id string) bool {
	status, err := store.Load(ctx, id)
	if err != nil {
		return false
	}
	return status.State != types.StateComplete && status.State != types.StateError
}

// handleGetJob returns the latest snapshot of a job
func (s *Server) handleGetJob(c *gin.Context) {
	status, err := s.store.Load(c.Request.Context(), c.Param("id"))
	if errors.Is(err, jobstore.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, status)
}
