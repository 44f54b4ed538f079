// Package pipeline drives one story through every stage, from planning to
// the merged video and its optional publication.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"storyreel/assets"
	"storyreel/captions"
	"storyreel/config"
	"storyreel/planner"
	"storyreel/state"
	"storyreel/types"
	"storyreel/video"
)

// StoryFetcher resolves a story URL into plain text.
type StoryFetcher interface {
	FetchStory(ctx context.Context, url string) (string, error)
}

// Composer renders a finished manifest into videos.
type Composer interface {
	Compose(m *types.Manifest) (*video.Result, error)
}

// Publisher copies finished artifacts somewhere else and returns where.
type Publisher interface {
	Name() string
	Publish(ctx context.Context, jobID, title string, res *video.Result) (string, error)
}

// Deps are the collaborators a Runner needs. Fetcher and Publishers are
// optional.
type Deps struct {
	Planner    planner.Planner
	Assets     *assets.Pipeline
	Composer   Composer
	Fetcher    StoryFetcher
	Publishers []Publisher
}

// ErrUnsafePath rejects job ids and folders that would leave the output root.
var ErrUnsafePath = errors.New("job path must stay inside the output root")

// Runner executes jobs one step at a time and stops at the first fatal error.
type Runner struct {
	cfg  config.Config
	deps Deps

	writer *captions.Writer
}

// NewRunner creates a new pipeline runner
func NewRunner(cfg config.Config, deps Deps) *Runner {
	return &Runner{
		cfg:    cfg,
		deps:   deps,
		writer: captions.NewWriter(),
	}
}

// Prepare validates req and fills in the job id and folder.
func (r *Runner) Prepare(req types.JobRequest) (types.JobRequest, error) {
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return req, types.ErrEmptyTitle
	}
	if strings.TrimSpace(req.Story) == "" && req.StoryURL == "" {
		return req, types.ErrEmptyStory
	}
	if req.StoryURL != "" && strings.TrimSpace(req.Story) == "" && r.deps.Fetcher == nil {
		return req, errors.New("story_url given but no story fetcher is configured")
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	} else if !filepath.IsLocal(req.ID) || strings.ContainsAny(req.ID, `/\`) {
		return req, fmt.Errorf("%w: id %q", ErrUnsafePath, req.ID)
	}
	if req.Folder == "" {
		req.Folder = filepath.Join(r.cfg.OutRoot, req.ID)
	}
	return req, nil
}

// Confine resolves a caller-chosen folder under OutRoot. Absolute folders
// and folders that climb out of OutRoot are rejected.
func (r *Runner) Confine(req types.JobRequest) (types.JobRequest, error) {
	if req.Folder == "" {
		return req, nil
	}
	if !filepath.IsLocal(req.Folder) {
		return req, fmt.Errorf("%w: folder %q", ErrUnsafePath, req.Folder)
	}
	req.Folder = filepath.Join(r.cfg.OutRoot, req.Folder)
	return req, nil
}

// Run executes the complete job. Progress goes to a state manager that
// forwards every change to observers; the final status is returned.
func (r *Runner) Run(ctx context.Context, req types.JobRequest, observers ...state.Observer) (types.JobStatus, error) {
	req, err := r.Prepare(req)
	if err != nil {
		return types.JobStatus{JobID: req.ID, Title: req.Title, State: types.StateError, Error: err.Error()}, err
	}

	sm := state.NewManager(req.ID, req.Title, req.Folder, observers...)
	if err := r.run(ctx, req, sm); err != nil {
		sm.SetError(err)
		return sm.GetStatus(), err
	}
	sm.Complete()
	return sm.GetStatus(), nil
}

func (r *Runner) run(ctx context.Context, req types.JobRequest, sm *state.Manager) error {
	// Step 1: Plan scenes, or resume from a previous run's manifest
	m, err := r.plan(ctx, req, sm)
	if err != nil {
		return err
	}
	sm.SetCounts(len(m.Scenes), m.LineCount())

	// Step 2: Images
	sm.SetState(types.StateImaging)
	sm.AddLog("Generating scene images...")
	if err := r.deps.Assets.GenerateImages(ctx, m); err != nil {
		return fmt.Errorf("generate images: %w", err)
	}

	// Step 3: Narration
	sm.SetState(types.StateNarrating)
	sm.AddLog("Synthesizing narration...")
	failed, err := r.deps.Assets.GenerateAudio(ctx, m)
	if err != nil {
		return fmt.Errorf("generate audio: %w", err)
	}
	if len(failed) > 0 {
		sm.AddLog(fmt.Sprintf("%d narration clips failed", len(failed)))
	}

	// Step 4: Verify narration before compositing
	sm.SetState(types.StateVerifying)
	if err := assets.VerifyAudio(m); err != nil {
		return fmt.Errorf("verify audio: %w", err)
	}
	sm.AddLog("All narration clips present")

	// Step 5: Composite
	sm.SetState(types.StateCompositing)
	sm.AddLog("Compositing video...")
	res, err := r.deps.Composer.Compose(m)
	if err != nil {
		return fmt.Errorf("composite: %w", err)
	}
	sm.SetOutput(res.Merged)
	sm.AddLog(fmt.Sprintf("Merged video ready (%.1fs)", res.Duration))

	// Step 6: Publish
	if len(r.deps.Publishers) == 0 {
		return nil
	}
	sm.SetState(types.StatePublishing)
	for _, p := range r.deps.Publishers {
		if err := ctx.Err(); err != nil {
			return err
		}
		location, err := p.Publish(ctx, req.ID, req.Title, res)
		if err != nil {
			return fmt.Errorf("publish to %s: %w", p.Name(), err)
		}
		sm.AddPublished(location)
	}
	return nil
}

func (r *Runner) plan(ctx context.Context, req types.JobRequest, sm *state.Manager) (*types.Manifest, error) {
	story := req.Story
	if strings.TrimSpace(story) == "" {
		sm.AddLog("Fetching story from " + req.StoryURL)
		text, err := r.deps.Fetcher.FetchStory(ctx, req.StoryURL)
		if err != nil {
			return nil, fmt.Errorf("fetch story: %w", err)
		}
		story = text
	}
	storyID := types.GenerateID(story)

	if m, err := captions.LoadManifest(req.Folder); err == nil && m.Title == req.Title && m.StoryID == storyID && len(m.Scenes) > 0 {
		sm.AddLog(fmt.Sprintf("Resuming from %s with %d scenes", captions.ManifestFile, len(m.Scenes)))
		return m, nil
	}

	sm.SetState(types.StatePlanning)
	sm.AddLog("Planning scenes...")
	scenes, err := planner.Plan(ctx, r.deps.Planner, story)
	if err != nil {
		return nil, fmt.Errorf("plan: %w", err)
	}

	sm.SetState(types.StateWriting)
	m, err := r.writer.Write(req.Folder, req.Title, scenes)
	if err != nil {
		return nil, fmt.Errorf("write captions: %w", err)
	}
	// Written last so an interrupted write never looks resumable.
	m.StoryID = storyID
	if err := captions.SaveManifest(m); err != nil {
		return nil, fmt.Errorf("write captions: %w", err)
	}
	sm.AddLog(fmt.Sprintf("Wrote %d scenes, %d caption lines", len(m.Scenes), m.LineCount()))
	return m, nil
}
