package video

import (
	"fmt"
	"os"
	"strings"

	"storyreel/config"
	"storyreel/media"
	"storyreel/types"
)

// MissingAssetsError reports artifacts the compositor expected but could not
// find. The job fails instead of silently dropping the affected lines.
type MissingAssetsError struct {
	Expected int
	Found    int
	Missing  []string
}

func (e *MissingAssetsError) Error() string {
	return fmt.Sprintf("found %d of %d expected assets, missing: %s", e.Found, e.Expected, strings.Join(e.Missing, ", "))
}

func (e *MissingAssetsError) Unwrap() error { return types.ErrMissingAsset }

// Cue is one caption shown over a scene image while its narration plays.
// Start and End are offsets within the scene clip.
type Cue struct {
	Line  types.CaptionLine
	Text  string
	Audio string
	Start float64
	End   float64
}

// SceneClip is one scene image held for the total narration of its lines.
type SceneClip struct {
	Index    int
	Image    string
	Cues     []Cue
	Duration float64
}

// Timeline is the main program: scene clips in manifest order.
type Timeline struct {
	Scenes   []SceneClip
	Duration float64
}

// Audio returns every cue's narration path in playback order.
func (t *Timeline) Audio() []string {
	var out []string
	for _, s := range t.Scenes {
		for _, c := range s.Cues {
			out = append(out, c.Audio)
		}
	}
	return out
}

// CheckAssets verifies that every file the compositor will read exists.
// Blank caption lines are not expected to have audio.
func CheckAssets(m *types.Manifest, cfg config.MediaConfig) error {
	expected := []string{
		m.Path(config.TitleTextFile),
		m.Path(config.TitleAudioFile),
		cfg.ChimeFile,
		cfg.BGMFile,
	}
	for _, s := range m.Scenes {
		expected = append(expected, m.Path(s.ImageFile()))
		for _, l := range s.Lines {
			expected = append(expected, m.Path(l.TextFile()))
			if !l.Blank() {
				expected = append(expected, m.Path(l.AudioFile()))
			}
		}
	}

	var missing []string
	for _, p := range expected {
		if info, err := os.Stat(p); err != nil || info.Size() == 0 {
			missing = append(missing, p)
		}
	}
	if len(missing) > 0 {
		return &MissingAssetsError{Expected: len(expected), Found: len(expected) - len(missing), Missing: missing}
	}
	return nil
}

// BuildTimeline times every non-blank caption line by its decoded audio
// duration. Scenes without narration are left out of the program.
func BuildTimeline(m *types.Manifest, prober media.Prober) (*Timeline, error) {
	t := &Timeline{}

	for _, s := range m.Scenes {
		clip := SceneClip{Index: s.Index, Image: m.Path(s.ImageFile())}

		for _, l := range s.Lines {
			if l.Blank() {
				continue
			}

			text, err := os.ReadFile(m.Path(l.TextFile()))
			if err != nil {
				return nil, fmt.Errorf("failed to read caption %s: %w", l.TextFile(), err)
			}

			audio := m.Path(l.AudioFile())
			d, err := prober.Duration(audio)
			if err != nil {
				return nil, fmt.Errorf("failed to measure %s: %w", l.AudioFile(), err)
			}

			clip.Cues = append(clip.Cues, Cue{
				Line:  l,
				Text:  strings.TrimSpace(string(text)),
				Audio: audio,
				Start: clip.Duration,
				End:   clip.Duration + d,
			})
			clip.Duration += d
		}

		if len(clip.Cues) == 0 {
			continue
		}
		t.Scenes = append(t.Scenes, clip)
		t.Duration += clip.Duration
	}

	if len(t.Scenes) == 0 {
		return nil, fmt.Errorf("%w: no narrated caption lines", types.ErrMissingAsset)
	}
	return t, nil
}
