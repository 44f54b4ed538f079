// Package video assembles the title clip, the captioned main program and the
// final merged video with ffmpeg.
package video

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	"storyreel/config"
	"storyreel/media"
	"storyreel/types"
)

// Compositor renders a manifest's artifacts into videos.
type Compositor struct {
	prober media.Prober
	media  config.MediaConfig
	run    func(*ffmpeg.Stream) error
}

// New creates a compositor that times clips with prober.
func New(prober media.Prober, cfg config.MediaConfig) *Compositor {
	return &Compositor{
		prober: media.NewCached(prober),
		media:  cfg,
		run: func(s *ffmpeg.Stream) error {
			return s.OverWriteOutput().Run()
		},
	}
}

// Result lists the files written by Compose.
type Result struct {
	Title    string
	Main     string
	Merged   string
	Subtitle string
	Duration float64
}

// Compose checks every asset, then builds the title clip, the main program,
// the merged video and its SRT sidecar.
func (c *Compositor) Compose(m *types.Manifest) (*Result, error) {
	if err := CheckAssets(m, c.media); err != nil {
		return nil, err
	}

	titleDuration, err := c.BuildTitle(m)
	if err != nil {
		return nil, err
	}

	timeline, err := c.BuildMain(m)
	if err != nil {
		return nil, err
	}

	if err := c.Merge(m); err != nil {
		return nil, err
	}

	srt := m.Path(SubtitleFile)
	if err := WriteSRT(timeline, titleDuration, srt); err != nil {
		return nil, fmt.Errorf("failed to write subtitles: %w", err)
	}

	return &Result{
		Title:    m.Path(config.TitleVideoFile),
		Main:     m.Path(config.MainVideoFile),
		Merged:   m.Path(config.MergedFile),
		Subtitle: srt,
		Duration: titleDuration + timeline.Duration,
	}, nil
}

// BuildTitle holds the first scene image for the title narration plus the
// chime, with the title centered on a white box. It returns the clip length.
func (c *Compositor) BuildTitle(m *types.Manifest) (float64, error) {
	if len(m.Scenes) == 0 {
		return 0, fmt.Errorf("%w: manifest has no scenes", types.ErrMissingAsset)
	}

	raw, err := os.ReadFile(m.Path(config.TitleTextFile))
	if err != nil {
		return 0, fmt.Errorf("failed to read title: %w", err)
	}
	title := strings.TrimSpace(string(raw))
	if title == "" {
		return 0, types.ErrEmptyTitle
	}

	titleAudio := m.Path(config.TitleAudioFile)
	speechLen, err := c.prober.Duration(titleAudio)
	if err != nil {
		return 0, fmt.Errorf("failed to measure title audio: %w", err)
	}
	chimeLen, err := c.prober.Duration(c.media.ChimeFile)
	if err != nil {
		return 0, fmt.Errorf("failed to measure chime: %w", err)
	}
	total := speechLen + chimeLen

	image := ffmpeg.Input(m.Path(m.Scenes[0].ImageFile()), ffmpeg.KwArgs{"loop": 1, "t": seconds(total)})
	frame := c.fitFrame(image).Filter("drawtext", ffmpeg.Args{}, c.withFont(ffmpeg.KwArgs{
		"text":       title,
		"expansion":  "none",
		"fontsize":   config.TitleFontSize,
		"fontcolor":  "black",
		"box":        1,
		"boxcolor":   "white",
		"boxborderw": 10,
		"x":          "(w-text_w)/2",
		"y":          "(h-text_h)/2",
	}))

	audio := ffmpeg.Concat([]*ffmpeg.Stream{
		ffmpeg.Input(titleAudio).Audio(),
		ffmpeg.Input(c.media.ChimeFile).Audio(),
	}, ffmpeg.KwArgs{"v": 0, "a": 1})

	out := m.Path(config.TitleVideoFile)
	log.Printf("Rendering title clip (%.2fs)...", total)
	if err := c.run(ffmpeg.Output([]*ffmpeg.Stream{frame, audio}, out, outputArgs())); err != nil {
		return 0, fmt.Errorf("ffmpeg failed on title clip: %w", err)
	}
	log.Printf("%s has been generated", config.TitleVideoFile)
	return total, nil
}

// BuildMain renders every scene image for the length of its narration with
// each caption drawn while its line plays, then mixes the narration with
// the background music trimmed to the program length.
func (c *Compositor) BuildMain(m *types.Manifest) (*Timeline, error) {
	timeline, err := BuildTimeline(m, c.prober)
	if err != nil {
		return nil, err
	}

	var clips, voices []*ffmpeg.Stream
	for _, scene := range timeline.Scenes {
		clip := c.fitFrame(ffmpeg.Input(scene.Image, ffmpeg.KwArgs{"loop": 1, "t": seconds(scene.Duration)}))
		for _, cue := range scene.Cues {
			clip = clip.Filter("drawtext", ffmpeg.Args{}, c.withFont(ffmpeg.KwArgs{
				"text":        cue.Text,
				"expansion":   "none",
				"fontsize":    config.CaptionFontSize,
				"fontcolor":   "yellow",
				"borderw":     2,
				"bordercolor": "black",
				"x":           "(w-text_w)/2",
				"y":           fmt.Sprintf("h*%.2f", config.CaptionHeightRatio),
				"enable":      fmt.Sprintf("between(t,%s,%s)", seconds(cue.Start), seconds(cue.End)),
			}))
			voices = append(voices, ffmpeg.Input(cue.Audio).Audio())
		}
		clips = append(clips, clip)
	}

	video := ffmpeg.Concat(clips, ffmpeg.KwArgs{"v": 1, "a": 0})
	narration := ffmpeg.Concat(voices, ffmpeg.KwArgs{"v": 0, "a": 1})

	music := ffmpeg.Input(c.media.BGMFile, ffmpeg.KwArgs{"stream_loop": -1}).Audio().
		Filter("atrim", ffmpeg.Args{}, ffmpeg.KwArgs{"duration": seconds(timeline.Duration)}).
		Filter("volume", ffmpeg.Args{fmt.Sprintf("%.2f", config.BackgroundMusicVolume)})

	mixed := ffmpeg.Filter([]*ffmpeg.Stream{narration, music}, "amix", ffmpeg.Args{}, ffmpeg.KwArgs{
		"inputs":             2,
		"duration":           "first",
		"dropout_transition": 0,
		"normalize":          0,
	})

	out := m.Path(config.MainVideoFile)
	log.Printf("Rendering main program: %d scenes, %d lines, %.2fs...", len(timeline.Scenes), len(voices), timeline.Duration)
	if err := c.run(ffmpeg.Output([]*ffmpeg.Stream{video, mixed}, out, outputArgs())); err != nil {
		return nil, fmt.Errorf("ffmpeg failed on main program: %w", err)
	}
	log.Printf("%s has been generated", config.MainVideoFile)
	return timeline, nil
}

// Merge joins the title clip and the main program. Both are encoded with the
// same settings, so the concat demuxer copies the streams.
func (c *Compositor) Merge(m *types.Manifest) error {
	list := m.Path("merge_list.txt")
	var b strings.Builder
	for _, name := range []string{config.TitleVideoFile, config.MainVideoFile} {
		abs, err := filepath.Abs(m.Path(name))
		if err != nil {
			return err
		}
		fmt.Fprintf(&b, "file '%s'\n", strings.ReplaceAll(abs, "'", `'\''`))
	}
	if err := os.WriteFile(list, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("failed to write merge list: %w", err)
	}
	defer os.Remove(list)

	out := m.Path(config.MergedFile)
	stream := ffmpeg.Input(list, ffmpeg.KwArgs{"f": "concat", "safe": 0}).
		Output(out, ffmpeg.KwArgs{"c": "copy", "movflags": "+faststart"})
	if err := c.run(stream); err != nil {
		return fmt.Errorf("ffmpeg failed on merge: %w", err)
	}
	log.Printf("%s has been generated", config.MergedFile)
	return nil
}

func (c *Compositor) fitFrame(s *ffmpeg.Stream) *ffmpeg.Stream {
	return s.Filter("scale", ffmpeg.Args{fmt.Sprintf("%d:%d", config.VideoWidth, config.VideoHeight)}).
		Filter("setsar", ffmpeg.Args{"1"})
}

func (c *Compositor) withFont(args ffmpeg.KwArgs) ffmpeg.KwArgs {
	if c.media.FontFile != "" {
		args["fontfile"] = c.media.FontFile
	}
	return args
}

func outputArgs() ffmpeg.KwArgs {
	return ffmpeg.KwArgs{
		"c:v":     config.VideoCodec,
		"c:a":     config.AudioCodec,
		"b:a":     config.AudioBitrate,
		"ar":      44100,
		"ac":      2,
		"preset":  config.VideoPreset,
		"pix_fmt": "yuv420p",
		"r":       config.VideoFPS,
	}
}

func seconds(s float64) string {
	return fmt.Sprintf("%.3f", s)
}
