package state

import (
	"fmt"
	"log"
	"sync"
	"time"

	"storyreel/config"
	"storyreel/types"
)

// Observer is told about every change to a job's status. It is called
// outside the manager's lock with a copy of the status.
type Observer interface {
	JobUpdated(status types.JobStatus)
}

// ObserverFunc adapts a function to Observer
type ObserverFunc func(types.JobStatus)

func (f ObserverFunc) JobUpdated(s types.JobStatus) { f(s) }

// Manager holds one job's state with thread-safe access
type Manager struct {
	mu sync.RWMutex

	jobID  string
	title  string
	folder string

	// Current state
	currentState types.State

	sceneCount int
	lineCount  int
	outputPath string
	published  []string

	// Logs (ring buffer)
	logs    []types.LogEntry
	maxLogs int
	lastErr error
	updated time.Time

	observers []Observer
}

// NewManager creates a state manager for one job
func NewManager(jobID, title, folder string, observers ...Observer) *Manager {
	return &Manager{
		jobID:        jobID,
		title:        title,
		folder:       folder,
		currentState: types.StateIdle,
		logs:         make([]types.LogEntry, 0),
		maxLogs:      config.MaxJobLogs,
		updated:      time.Now(),
		observers:    observers,
	}
}

// AddLog adds a log entry (thread-safe)
func (m *Manager) AddLog(message string) {
	log.Printf("[job %s] %s", m.jobID, message)

	m.mu.Lock()
	m.appendLog(message)
	m.mu.Unlock()

	m.notify()
}

// SetState moves the job to state and records the transition
func (m *Manager) SetState(state types.State) {
	m.mu.Lock()
	m.currentState = state
	m.updated = time.Now()
	m.mu.Unlock()

	m.notify()
}

// GetState gets the current state (thread-safe)
func (m *Manager) GetState() types.State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.currentState
}

// SetError sets the error state
func (m *Manager) SetError(err error) {
	log.Printf("[job %s] ❌ %v", m.jobID, err)

	m.mu.Lock()
	m.currentState = types.StateError
	m.lastErr = err
	m.appendLog(fmt.Sprintf("Error: %v", err))
	m.mu.Unlock()

	m.notify()
}

// SetCounts records the size of the planned manifest
func (m *Manager) SetCounts(scenes, lines int) {
	m.mu.Lock()
	m.sceneCount, m.lineCount = scenes, lines
	m.updated = time.Now()
	m.mu.Unlock()

	m.notify()
}

// SetOutput records the merged video path
func (m *Manager) SetOutput(path string) {
	m.mu.Lock()
	m.outputPath = path
	m.updated = time.Now()
	m.mu.Unlock()

	m.notify()
}

// AddPublished records where an artifact was published
func (m *Manager) AddPublished(location string) {
	m.mu.Lock()
	m.published = append(m.published, location)
	m.appendLog("Published " + location)
	m.mu.Unlock()

	m.notify()
}

// Complete transitions to the complete state
func (m *Manager) Complete() {
	m.mu.Lock()
	m.currentState = types.StateComplete
	m.appendLog("Job complete")
	m.mu.Unlock()

	m.notify()
}

// GetStatus returns a snapshot of the current state (thread-safe)
func (m *Manager) GetStatus() types.JobStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()

	resp := types.JobStatus{
		JobID:      m.jobID,
		Title:      m.title,
		Folder:     m.folder,
		State:      m.currentState,
		Logs:       append([]types.LogEntry{}, m.logs...),
		SceneCount: m.sceneCount,
		LineCount:  m.lineCount,
		OutputPath: m.outputPath,
		Published:  append([]string(nil), m.published...),
		UpdatedAt:  m.updated,
	}

	if m.lastErr != nil {
		resp.Error = m.lastErr.Error()
	}

	return resp
}

// appendLog must be called with the lock held
func (m *Manager) appendLog(message string) {
	now := time.Now()
	m.logs = append(m.logs, types.LogEntry{Timestamp: now, Message: message})
	if len(m.logs) > m.maxLogs {
		m.logs = m.logs[len(m.logs)-m.maxLogs:]
	}
	m.updated = now
}

func (m *Manager) notify() {
	if len(m.observers) == 0 {
		return
	}
	status := m.GetStatus()
	for _, o := range m.observers {
		o.JobUpdated(status)
	}
}
