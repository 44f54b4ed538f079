package video

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	"storyreel/config"
	"storyreel/types"
)

type fakeProber map[string]float64

func (f fakeProber) Duration(path string) (float64, error) {
	d, ok := f[filepath.Base(path)]
	if !ok {
		return 0, errors.New("no such media")
	}
	return d, nil
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

// fixture lays out a two-scene job: scene 1 has two spoken lines and one
// blank line, scene 2 has one line.
func fixture(t *testing.T) (*types.Manifest, config.MediaConfig) {
	t.Helper()
	dir := t.TempDir()
	musicDir := t.TempDir()

	m := &types.Manifest{
		Dir:   dir,
		Title: "龟兔赛跑",
		Scenes: []types.ManifestScene{
			{
				Scene: types.Scene{Index: 1},
				Lines: []types.CaptionLine{
					{Scene: 1, Line: 1, Text: "今天天气很好"},
					{Scene: 1, Line: 2, Text: ""},
					{Scene: 1, Line: 3, Text: "我们去公园玩"},
				},
			},
			{
				Scene: types.Scene{Index: 2},
				Lines: []types.CaptionLine{{Scene: 2, Line: 1, Text: "晚安"}},
			},
		},
	}

	writeFile(t, m.Path(config.TitleTextFile), m.Title)
	writeFile(t, m.Path(config.TitleAudioFile), "mp3")
	for _, s := range m.Scenes {
		writeFile(t, m.Path(s.ImageFile()), "png")
		for _, l := range s.Lines {
			writeFile(t, m.Path(l.TextFile()), l.Text+"\n")
			if !l.Blank() {
				writeFile(t, m.Path(l.AudioFile()), "mp3")
			}
		}
	}

	cfg := config.MediaConfig{
		ChimeFile: filepath.Join(musicDir, "bling.mp3"),
		BGMFile:   filepath.Join(musicDir, "background_music.mp3"),
	}
	writeFile(t, cfg.ChimeFile, "mp3")
	writeFile(t, cfg.BGMFile, "mp3")
	return m, cfg
}

func durations() fakeProber {
	return fakeProber{
		"title.mp3":            2,
		"bling.mp3":            1.5,
		"001_subtitle_001.mp3": 1,
		"001_subtitle_003.mp3": 1.5,
		"002_subtitle_001.mp3": 2.25,
	}
}

type recorder struct {
	args [][]string
}

func (r *recorder) run(s *ffmpeg.Stream) error {
	r.args = append(r.args, s.OverWriteOutput().GetArgs())
	return nil
}

func newTestCompositor(cfg config.MediaConfig, rec *recorder) *Compositor {
	c := New(durations(), cfg)
	c.run = rec.run
	return c
}

func joined(args []string) string {
	return strings.Join(args, " ")
}

func TestBuildTimeline(t *testing.T) {
	m, _ := fixture(t)

	tl, err := BuildTimeline(m, durations())
	if err != nil {
		t.Fatalf("BuildTimeline: %v", err)
	}

	if len(tl.Scenes) != 2 || tl.Duration != 4.75 {
		t.Fatalf("unexpected timeline: %d scenes, %.2fs", len(tl.Scenes), tl.Duration)
	}
	first := tl.Scenes[0]
	if first.Duration != 2.5 || len(first.Cues) != 2 {
		t.Fatalf("scene 1: %.2fs, %d cues", first.Duration, len(first.Cues))
	}
	if c := first.Cues[1]; c.Start != 1 || c.End != 2.5 || c.Text != "我们去公园玩" {
		t.Fatalf("second cue = %+v", c)
	}
	if got := len(tl.Audio()); got != 3 {
		t.Fatalf("audio clips = %d; want 3", got)
	}
}

func TestBuildTitle(t *testing.T) {
	m, cfg := fixture(t)
	rec := &recorder{}

	d, err := newTestCompositor(cfg, rec).BuildTitle(m)
	if err != nil {
		t.Fatalf("BuildTitle: %v", err)
	}
	if d != 3.5 {
		t.Fatalf("title duration = %v; want 3.5", d)
	}

	args := joined(rec.args[0])
	for _, want := range []string{"3.500", "001_picture_prompt.png", "drawtext", "fontsize=100", "concat", "libx264", "title_video.mp4"} {
		if !strings.Contains(args, want) {
			t.Errorf("title args missing %q: %s", want, args)
		}
	}
}

func TestBuildMain(t *testing.T) {
	m, cfg := fixture(t)
	rec := &recorder{}

	tl, err := newTestCompositor(cfg, rec).BuildMain(m)
	if err != nil {
		t.Fatalf("BuildMain: %v", err)
	}
	if tl.Duration != 4.75 {
		t.Fatalf("duration = %v", tl.Duration)
	}

	args := joined(rec.args[0])
	if n := strings.Count(args, "drawtext"); n != 3 {
		t.Fatalf("drawtext filters = %d; want one per spoken line", n)
	}
	for _, want := range []string{"2.500", "2.250", "amix", "atrim", "volume=0.50", "fontsize=50", "yellow", "main_video.mp4"} {
		if !strings.Contains(args, want) {
			t.Errorf("main args missing %q: %s", want, args)
		}
	}
	if strings.Contains(args, "001_subtitle_002.mp3") {
		t.Fatalf("blank line should have no audio input")
	}
}

func TestComposeWritesSubtitlesAndMerges(t *testing.T) {
	m, cfg := fixture(t)
	rec := &recorder{}

	res, err := newTestCompositor(cfg, rec).Compose(m)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if len(rec.args) != 3 {
		t.Fatalf("ffmpeg runs = %d; want 3", len(rec.args))
	}
	if res.Duration != 8.25 {
		t.Fatalf("duration = %v; want 8.25", res.Duration)
	}

	merge := joined(rec.args[2])
	if !strings.Contains(merge, "concat") || !strings.Contains(merge, "merged_video.mp4") {
		t.Fatalf("unexpected merge args: %s", merge)
	}

	srt, err := os.ReadFile(res.Subtitle)
	if err != nil {
		t.Fatalf("read srt: %v", err)
	}
	want := "1\n00:00:03,500 --> 00:00:04,500\n今天天气很好\n\n" +
		"2\n00:00:04,500 --> 00:00:06,000\n我们去公园玩\n\n" +
		"3\n00:00:06,000 --> 00:00:08,250\n晚安\n\n"
	if string(srt) != want {
		t.Fatalf("srt =\n%s\nwant\n%s", srt, want)
	}
}

func TestComposeFailsOnMissingAssets(t *testing.T) {
	m, cfg := fixture(t)
	os.Remove(m.Path("001_subtitle_003.mp3"))
	os.Remove(m.Path("002_picture_prompt.png"))
	rec := &recorder{}

	_, err := newTestCompositor(cfg, rec).Compose(m)

	var mae *MissingAssetsError
	if !errors.As(err, &mae) {
		t.Fatalf("expected MissingAssetsError, got %v", err)
	}
	if len(mae.Missing) != 2 || mae.Found != mae.Expected-2 {
		t.Fatalf("unexpected error: %+v", mae)
	}
	if !errors.Is(err, types.ErrMissingAsset) {
		t.Fatalf("error should wrap ErrMissingAsset")
	}
	if len(rec.args) != 0 {
		t.Fatalf("ffmpeg should not run when assets are missing")
	}
}

func TestFormatTimestamp(t *testing.T) {
	cases := map[float64]string{
		0:       "00:00:00,000",
		1.5:     "00:00:01,500",
		61.0009: "00:01:01,001",
		3725.25: "01:02:05,250",
	}
	for in, want := range cases {
		if got := formatTimestamp(in); got != want {
			t.Errorf("formatTimestamp(%v) = %q; want %q", in, got, want)
		}
	}
}
