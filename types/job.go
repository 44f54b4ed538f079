package types

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// JobRequest describes one video job. Story or StoryURL must be set.
type JobRequest struct {
	ID       string `json:"id,omitempty"`
	Title    string `json:"title" binding:"required"`
	Story    string `json:"story,omitempty"`
	StoryURL string `json:"story_url,omitempty"`
	Folder   string `json:"folder,omitempty"`
}

// State represents the job state machine
type State string

const (
	StateIdle        State = "idle"
	StatePlanning    State = "planning"
	StateWriting     State = "writing"
	StateImaging     State = "imaging"
	StateNarrating   State = "narrating"
	StateVerifying   State = "verifying"
	StateCompositing State = "compositing"
	StatePublishing  State = "publishing"
	StateComplete    State = "complete"
	StateError       State = "error"
)

// LogEntry represents a single log line with timestamp
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
}

// JobStatus is the snapshot served by GET /api/jobs/:id
type JobStatus struct {
	JobID      string     `json:"job_id"`
	Title      string     `json:"title"`
	Folder     string     `json:"folder"`
	State      State      `json:"state"`
	Logs       []LogEntry `json:"logs"`
	SceneCount int        `json:"scene_count"`
	LineCount  int        `json:"line_count"`
	OutputPath string     `json:"output_path,omitempty"`
	Published  []string   `json:"published,omitempty"`
	Error      string     `json:"error,omitempty"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// GenerateID creates a short, stable ID by hashing the provided string input
func GenerateID(input string) string {
	hash := sha256.Sum256([]byte(input))
	return hex.EncodeToString(hash[:])[:16]
}
