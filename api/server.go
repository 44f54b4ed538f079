package api

import (
	"context"
	"sync"

	"github.com/gin-gonic/gin"

	"storyreel/jobstore"
	"storyreel/state"
	"storyreel/types"
)

// JobRunner is the part of pipeline.Runner the API needs.
type JobRunner interface {
	Confine(req types.JobRequest) (types.JobRequest, error)
	Prepare(req types.JobRequest) (types.JobRequest, error)
	Run(ctx context.Context, req types.JobRequest, observers ...state.Observer) (types.JobStatus, error)
}

// Server runs submitted jobs in the background and serves their status.
type Server struct {
	runner JobRunner
	store  jobstore.Store
	ctx    context.Context
	wg     sync.WaitGroup

	mu      sync.Mutex
	ids     map[string]bool
	folders map[string]bool
}

// NewServer creates a server whose jobs stop when ctx is cancelled.
func NewServer(ctx context.Context, runner JobRunner, store jobstore.Store) *Server {
	return &Server{
		runner:  runner,
		store:   store,
		ctx:     ctx,
		ids:     make(map[string]bool),
		folders: make(map[string]bool),
	}
}

// reserve claims the job's id and folder for this process. A folder is
// owned by one running job at a time.
func (s *Server) reserve(req types.JobRequest) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ids[req.ID] || s.folders[req.Folder] {
		return false
	}
	s.ids[req.ID] = true
	s.folders[req.Folder] = true
	return true
}

func (s *Server) release(req types.JobRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.ids, req.ID)
	delete(s.folders, req.Folder)
}

// NewRouter constructs a Gin engine with registered routes.
func NewRouter(s *Server) *gin.Engine {
	r := gin.New()
	// Minimal middleware: recovery; logger optional to reduce verbosity
	r.Use(gin.Recovery())

	// Register resource routers
	RegisterJobRoutes(r, s)
	RegisterHealthRoutes(r)
	return r
}

// Wait blocks until every running job has finished.
func (s *Server) Wait() {
	s.wg.Wait()
}
