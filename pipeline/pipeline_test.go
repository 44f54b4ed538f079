package pipeline

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"storyreel/assets"
	"storyreel/captions"
	"storyreel/config"
	"storyreel/speech"
	"storyreel/state"
	"storyreel/types"
	"storyreel/video"
)

type fakePlanner struct{ calls int }

func (f *fakePlanner) SplitScenes(context.Context, string) (string, error) {
	f.calls++
	return "```json\n{\"sentence_1\": \"今天天气很好，我们去公园玩。\", \"sentence_2\": \"晚安。\"}\n```", nil
}

func (f *fakePlanner) DraftPrompts(context.Context, string) (string, error) {
	return "```json\n{\"sentence_1\": \"a park\", \"sentence_2\": \"the moon\"}\n```", nil
}

type fakeImages struct{ url string }

func (f fakeImages) Generate(context.Context, string, string) (string, error) { return f.url, nil }

type fakeSynth struct{ fail bool }

func (f fakeSynth) Synthesize(_ context.Context, req speech.Request, sink io.Writer) error {
	if f.fail && req.Text == "晚安" {
		return errors.New("task failed")
	}
	_, err := sink.Write([]byte("mp3"))
	return err
}

type fakeComposer struct{ calls int }

func (f *fakeComposer) Compose(m *types.Manifest) (*video.Result, error) {
	f.calls++
	return &video.Result{Merged: m.Path(config.MergedFile), Duration: 12}, nil
}

type fakeFetcher struct{ url string }

func (f *fakeFetcher) FetchStory(_ context.Context, url string) (string, error) {
	f.url = url
	return "从前有座山。", nil
}

type fakePublisher struct{ err error }

func (fakePublisher) Name() string { return "fake" }

func (f fakePublisher) Publish(_ context.Context, jobID, _ string, _ *video.Result) (string, error) {
	return "fake://" + jobID, f.err
}

func newRunner(t *testing.T, synth speech.Synthesizer, p *fakePlanner, c *fakeComposer, pubs ...Publisher) *Runner {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("PNG"))
	}))
	t.Cleanup(srv.Close)

	imageCfg := config.ImageConfig{Timeout: time.Second, MaxAttempts: 1, RetryInitial: time.Millisecond}
	cfg := config.Config{OutRoot: t.TempDir()}
	return NewRunner(cfg, Deps{
		Planner:    p,
		Assets:     assets.New(fakeImages{url: srv.URL}, synth, imageCfg, config.SpeechConfig{}),
		Composer:   c,
		Publishers: pubs,
	})
}

func TestRunCompletesJob(t *testing.T) {
	p, c := &fakePlanner{}, &fakeComposer{}
	r := newRunner(t, fakeSynth{}, p, c, fakePublisher{})

	var states []types.State
	obs := state.ObserverFunc(func(s types.JobStatus) {
		if len(states) == 0 || states[len(states)-1] != s.State {
			states = append(states, s.State)
		}
	})

	status, err := r.Run(context.Background(), types.JobRequest{ID: "job1", Title: "龟兔赛跑", Story: "story"}, obs)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if status.State != types.StateComplete || status.SceneCount != 2 || status.LineCount != 2 {
		t.Fatalf("unexpected status: %+v", status)
	}
	if status.Folder != filepath.Join(r.cfg.OutRoot, "job1") {
		t.Fatalf("folder = %q", status.Folder)
	}
	if len(status.Published) != 1 || status.Published[0] != "fake://job1" {
		t.Fatalf("published = %v", status.Published)
	}

	want := []types.State{
		types.StatePlanning, types.StateWriting, types.StateImaging, types.StateNarrating,
		types.StateVerifying, types.StateCompositing, types.StatePublishing, types.StateComplete,
	}
	if len(states) != len(want) {
		t.Fatalf("states = %v; want %v", states, want)
	}
	for i := range want {
		if states[i] != want[i] {
			t.Fatalf("states = %v; want %v", states, want)
		}
	}
}

func TestRunResumesFromManifest(t *testing.T) {
	p, c := &fakePlanner{}, &fakeComposer{}
	r := newRunner(t, fakeSynth{}, p, c)
	req := types.JobRequest{ID: "job1", Title: "t", Story: "story"}

	if _, err := r.Run(context.Background(), req); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Run(context.Background(), req); err != nil {
		t.Fatal(err)
	}
	if p.calls != 1 {
		t.Fatalf("planner calls = %d; second run should resume", p.calls)
	}
	if c.calls != 2 {
		t.Fatalf("composer calls = %d; want 2", c.calls)
	}
}

func TestRunReplansWhenStoryChanges(t *testing.T) {
	p, c := &fakePlanner{}, &fakeComposer{}
	r := newRunner(t, fakeSynth{}, p, c)

	if _, err := r.Run(context.Background(), types.JobRequest{ID: "job1", Title: "t", Story: "first story"}); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Run(context.Background(), types.JobRequest{ID: "job1", Title: "t", Story: "second story"}); err != nil {
		t.Fatal(err)
	}
	if p.calls != 2 {
		t.Fatalf("planner calls = %d; a different story must be planned again", p.calls)
	}

	m, err := captions.LoadManifest(filepath.Join(r.cfg.OutRoot, "job1"))
	if err != nil {
		t.Fatal(err)
	}
	if m.StoryID != types.GenerateID("second story") {
		t.Fatalf("StoryID = %q; want fingerprint of the second story", m.StoryID)
	}
}

func TestRunStopsBeforeCompositingOnMissingAudio(t *testing.T) {
	p, c := &fakePlanner{}, &fakeComposer{}
	r := newRunner(t, fakeSynth{fail: true}, p, c)

	status, err := r.Run(context.Background(), types.JobRequest{Title: "t", Story: "story"})

	var mae *assets.MissingAudioError
	if !errors.As(err, &mae) {
		t.Fatalf("expected MissingAudioError, got %v", err)
	}
	if status.State != types.StateError || status.Error == "" {
		t.Fatalf("unexpected status: %+v", status)
	}
	if c.calls != 0 {
		t.Fatalf("compositor must not run after failed verification")
	}
}

func TestRunPublishFailure(t *testing.T) {
	boom := errors.New("quota exceeded")
	r := newRunner(t, fakeSynth{}, &fakePlanner{}, &fakeComposer{}, fakePublisher{err: boom})

	if _, err := r.Run(context.Background(), types.JobRequest{Title: "t", Story: "s"}); !errors.Is(err, boom) {
		t.Fatalf("got %v; want publish error", err)
	}
}

func TestRunFetchesStoryURL(t *testing.T) {
	r := newRunner(t, fakeSynth{}, &fakePlanner{}, &fakeComposer{})
	f := &fakeFetcher{}
	r.deps.Fetcher = f

	if _, err := r.Run(context.Background(), types.JobRequest{Title: "t", StoryURL: "https://example.com/story"}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if f.url != "https://example.com/story" {
		t.Fatalf("fetcher got %q", f.url)
	}
}

func TestPrepare(t *testing.T) {
	r := NewRunner(config.Config{OutRoot: "output"}, Deps{})

	cases := []struct {
		name string
		req  types.JobRequest
		want error
	}{
		{"missing title", types.JobRequest{Story: "s"}, types.ErrEmptyTitle},
		{"missing story", types.JobRequest{Title: "t", Story: "  "}, types.ErrEmptyStory},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if _, err := r.Prepare(c.req); !errors.Is(err, c.want) {
				t.Fatalf("got %v; want %v", err, c.want)
			}
		})
	}

	if _, err := r.Prepare(types.JobRequest{Title: "t", StoryURL: "http://x"}); err == nil {
		t.Fatalf("story_url without a fetcher should be rejected")
	}

	req, err := r.Prepare(types.JobRequest{Title: " t ", Story: "s"})
	if err != nil {
		t.Fatal(err)
	}
	if req.ID == "" || req.Folder != filepath.Join("output", req.ID) || req.Title != "t" {
		t.Fatalf("unexpected prepared request: %+v", req)
	}

	for _, id := range []string{"../evil", "a/b", `a\b`, "..", "/abs"} {
		if _, err := r.Prepare(types.JobRequest{ID: id, Title: "t", Story: "s"}); !errors.Is(err, ErrUnsafePath) {
			t.Fatalf("id %q: got %v; want ErrUnsafePath", id, err)
		}
	}
}

func TestConfine(t *testing.T) {
	r := NewRunner(config.Config{OutRoot: "output"}, Deps{})

	cases := []struct {
		folder  string
		want    string
		wantErr bool
	}{
		{folder: "", want: ""},
		{folder: "nested/job", want: filepath.Join("output", "nested", "job")},
		{folder: "a/../b", want: filepath.Join("output", "b")},
		{folder: "/tmp/../etc/x", wantErr: true},
		{folder: "../x", wantErr: true},
		{folder: "a/../../x", wantErr: true},
	}
	for _, c := range cases {
		t.Run(c.folder, func(t *testing.T) {
			req, err := r.Confine(types.JobRequest{Folder: c.folder})
			if c.wantErr {
				if !errors.Is(err, ErrUnsafePath) {
					t.Fatalf("got %v; want ErrUnsafePath", err)
				}
				return
			}
			if err != nil || req.Folder != c.want {
				t.Fatalf("Folder = %q, %v; want %q", req.Folder, err, c.want)
			}
		})
	}
}
