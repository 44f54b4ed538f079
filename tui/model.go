// Package tui renders the progress of a single video job in the terminal.
package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"storyreel/state"
	"storyreel/types"
)

// StatusMsg carries a job snapshot from the pipeline.
type StatusMsg struct {
	Status types.JobStatus
}

// DoneMsg is sent once the job returns.
type DoneMsg struct {
	Status types.JobStatus
	Err    error
}

// RunFunc runs the job, reporting progress to the given observer.
type RunFunc func(ctx context.Context, observer state.Observer) (types.JobStatus, error)

// Model is the bubbletea model of a running job.
type Model struct {
	Status types.JobStatus
	Done   bool
	Err    error

	cancel context.CancelFunc
}

// NewModel starts from the job's prepared request.
func NewModel(req types.JobRequest, cancel context.CancelFunc) Model {
	return Model{
		Status: types.JobStatus{JobID: req.ID, Title: req.Title, Folder: req.Folder, State: types.StateIdle},
		cancel: cancel,
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		}
	case StatusMsg:
		m.Status = msg.Status
	case DoneMsg:
		m.Status = msg.Status
		m.Err = msg.Err
		m.Done = true
	}
	return m, nil
}

// Run drives run under a bubbletea program until the user quits.
func Run(ctx context.Context, req types.JobRequest, run RunFunc) (types.JobStatus, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(NewModel(req, cancel))
	observer := state.ObserverFunc(func(s types.JobStatus) {
		p.Send(StatusMsg{Status: s})
	})

	var (
		status types.JobStatus
		runErr error
	)
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		status, runErr = run(ctx, observer)
		p.Send(DoneMsg{Status: status, Err: runErr})
	}()

	if _, err := p.Run(); err != nil {
		cancel()
		<-finished
		return status, fmt.Errorf("failed to run tui: %w", err)
	}
	cancel()
	<-finished
	return status, runErr
}
