package state

import (
	"errors"
	"fmt"
	"testing"

	"storyreel/config"
	"storyreel/types"
)

func TestLogRingBuffer(t *testing.T) {
	m := NewManager("j1", "t", "out/j1")
	for i := 0; i < config.MaxJobLogs+10; i++ {
		m.AddLog(fmt.Sprintf("line %d", i))
	}

	logs := m.GetStatus().Logs
	if len(logs) != config.MaxJobLogs {
		t.Fatalf("len(logs) = %d; want %d", len(logs), config.MaxJobLogs)
	}
	if logs[0].Message != "line 10" {
		t.Fatalf("oldest log = %q; want line 10", logs[0].Message)
	}
}

func TestSetError(t *testing.T) {
	m := NewManager("j1", "t", "out/j1")
	m.SetState(types.StateImaging)
	m.SetError(errors.New("boom"))

	s := m.GetStatus()
	if s.State != types.StateError || s.Error != "boom" {
		t.Fatalf("unexpected status: %+v", s)
	}
	if last := s.Logs[len(s.Logs)-1].Message; last != "Error: boom" {
		t.Fatalf("last log = %q", last)
	}
}

func TestObserversSeeEveryChange(t *testing.T) {
	var seen []types.State
	m := NewManager("j1", "t", "out/j1", ObserverFunc(func(s types.JobStatus) {
		seen = append(seen, s.State)
	}))

	m.SetState(types.StatePlanning)
	m.SetCounts(3, 9)
	m.SetOutput("out/j1/merged_video.mp4")
	m.AddPublished("s3://bucket/jobs/j1/merged_video.mp4")
	m.Complete()

	want := []types.State{types.StatePlanning, types.StatePlanning, types.StatePlanning, types.StatePlanning, types.StateComplete}
	if fmt.Sprint(seen) != fmt.Sprint(want) {
		t.Fatalf("seen = %v; want %v", seen, want)
	}

	s := m.GetStatus()
	if s.SceneCount != 3 || s.LineCount != 9 || len(s.Published) != 1 || s.OutputPath == "" {
		t.Fatalf("unexpected status: %+v", s)
	}
}

func TestStatusIsACopy(t *testing.T) {
	m := NewManager("j1", "t", "out/j1")
	m.AddLog("a")
	s := m.GetStatus()
	s.Logs[0].Message = "changed"

	if m.GetStatus().Logs[0].Message != "a" {
		t.Fatalf("GetStatus must return a copy of the logs")
	}
}
