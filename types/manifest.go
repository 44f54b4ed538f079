package types

import (
	"fmt"
	"path/filepath"
	"strings"

	"storyreel/config"
)

// Scene is one narrative unit produced by the planner. Index is 1-based.
type Scene struct {
	Index  int    `json:"index"`
	Key    string `json:"key"`
	Text   string `json:"text"`
	Prompt string `json:"prompt"`
}

// CaptionLine is one on-screen subtitle unit, paired 1:1 with a narration clip.
// Delimiter is the punctuation dropped after Text, or 0 when the line was cut
// at the window edge.
type CaptionLine struct {
	Scene     int    `json:"scene"`
	Line      int    `json:"line"`
	Text      string `json:"text"`
	Delimiter rune   `json:"delimiter,omitempty"`
}

// Blank reports whether the line has nothing to narrate. Blank lines keep
// their caption file but get no audio clip and no video segment.
func (c CaptionLine) Blank() bool {
	return strings.TrimSpace(c.Text) == ""
}

// Name returns the shared stem of the line's text and audio files.
func (c CaptionLine) Name() string {
	return fmt.Sprintf("%03d_subtitle_%03d", c.Scene, c.Line)
}

// TextFile returns the caption file name
func (c CaptionLine) TextFile() string {
	return fmt.Sprintf(config.SubtitleFileFormat, c.Scene, c.Line)
}

// AudioFile returns the narration file name
func (c CaptionLine) AudioFile() string {
	return fmt.Sprintf(config.SubtitleAudioFormat, c.Scene, c.Line)
}

// ManifestScene is a scene together with its caption lines.
type ManifestScene struct {
	Scene
	Lines []CaptionLine `json:"lines"`
}

// PromptFile returns the scene's prompt file name
func (s ManifestScene) PromptFile() string {
	return fmt.Sprintf(config.PromptFileFormat, s.Index)
}

// ImageFile returns the scene's illustration file name
func (s ManifestScene) ImageFile() string {
	return fmt.Sprintf(config.ImageFileFormat, s.Index)
}

// Manifest is the ordered work list of a job. It is produced once by the
// caption writer and threaded through every later stage.
type Manifest struct {
	Dir   string `json:"dir"`
	Title string `json:"title"`
	// StoryID fingerprints the story text; a rerun only resumes when it matches.
	StoryID string          `json:"story_id,omitempty"`
	Scenes  []ManifestScene `json:"scenes"`
}

// Path joins name onto the job directory.
func (m *Manifest) Path(name string) string {
	return filepath.Join(m.Dir, name)
}

// Lines returns every caption line in (scene, line) order.
func (m *Manifest) Lines() []CaptionLine {
	var lines []CaptionLine
	for _, s := range m.Scenes {
		lines = append(lines, s.Lines...)
	}
	return lines
}

// LineCount returns the number of caption lines across all scenes.
func (m *Manifest) LineCount() int {
	n := 0
	for _, s := range m.Scenes {
		n += len(s.Lines)
	}
	return n
}

// Spoken returns the non-blank caption lines in (scene, line) order.
func (m *Manifest) Spoken() []CaptionLine {
	var lines []CaptionLine
	for _, l := range m.Lines() {
		if !l.Blank() {
			lines = append(lines, l)
		}
	}
	return lines
}
