// Package assets produces the illustrations and narration clips a manifest
// calls for.
package assets

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/eapache/go-resiliency/retrier"

	"storyreel/config"
	"storyreel/imagegen"
	"storyreel/speech"
	"storyreel/types"
)

// MissingImagesError lists scenes whose illustration never succeeded.
type MissingImagesError struct {
	Scenes []int
}

func (e *MissingImagesError) Error() string {
	ids := make([]string, len(e.Scenes))
	for i, s := range e.Scenes {
		ids[i] = fmt.Sprintf("%03d", s)
	}
	return fmt.Sprintf("images still missing after retries for scenes %s", strings.Join(ids, ", "))
}

func (e *MissingImagesError) Unwrap() error { return types.ErrMissingAsset }

// MissingAudioError lists narration clips that are absent or empty.
type MissingAudioError struct {
	Files []string
}

func (e *MissingAudioError) Error() string {
	return fmt.Sprintf("missing or empty audio: %s", strings.Join(e.Files, ", "))
}

func (e *MissingAudioError) Unwrap() error { return types.ErrMissingAsset }

// Pipeline generates images and audio for one manifest at a time.
type Pipeline struct {
	images    imagegen.Generator
	speech    speech.Synthesizer
	http      *http.Client
	imageCfg  config.ImageConfig
	speechCfg config.SpeechConfig
}

// New creates an asset pipeline around the two generation collaborators.
func New(images imagegen.Generator, synth speech.Synthesizer, imageCfg config.ImageConfig, speechCfg config.SpeechConfig) *Pipeline {
	return &Pipeline{
		images:    images,
		speech:    synth,
		http:      &http.Client{Timeout: imageCfg.Timeout},
		imageCfg:  imageCfg,
		speechCfg: speechCfg,
	}
}

// GenerateImages renders every scene prompt that has no image yet, then
// sweeps the failures with exponential backoff. Scenes still missing after
// the sweep are reported as a MissingImagesError.
func (p *Pipeline) GenerateImages(ctx context.Context, m *types.Manifest) error {
	var missing []types.ManifestScene
	generated, skipped := 0, 0

	for _, scene := range m.Scenes {
		path := m.Path(scene.ImageFile())
		if nonEmpty(path) {
			skipped++
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := imagegen.Save(ctx, p.images, p.http, scene.Prompt, p.imageCfg.Size, path); err != nil {
			log.Printf("⚠️  Image for scene %03d failed: %v", scene.Index, err)
			missing = append(missing, scene)
			continue
		}
		generated++
		log.Printf("Generated image for scene %03d", scene.Index)
	}

	log.Printf("Images: %d generated, %d already present, %d missing", generated, skipped, len(missing))
	if len(missing) == 0 {
		return nil
	}

	return p.sweepImages(ctx, m, missing)
}

func (p *Pipeline) sweepImages(ctx context.Context, m *types.Manifest, missing []types.ManifestScene) error {
	// MaxAttempts counts the first pass too.
	attempts := p.imageCfg.MaxAttempts
	if attempts <= 1 {
		failed := make([]int, len(missing))
		for i, scene := range missing {
			failed[i] = scene.Index
		}
		return &MissingImagesError{Scenes: failed}
	}
	r := retrier.New(retrier.ExponentialBackoff(attempts-2, p.imageCfg.RetryInitial), nil)

	var failed []int
	for _, scene := range missing {
		path := m.Path(scene.ImageFile())
		try := 1
		err := r.RunCtx(ctx, func(ctx context.Context) error {
			try++
			err := imagegen.Save(ctx, p.images, p.http, scene.Prompt, p.imageCfg.Size, path)
			if err != nil {
				log.Printf("Attempt %d/%d for scene %03d failed: %v", try, attempts, scene.Index, err)
			}
			return err
		})
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			failed = append(failed, scene.Index)
			continue
		}
		log.Printf("Re-generated image for scene %03d", scene.Index)
	}

	if len(failed) > 0 {
		return &MissingImagesError{Scenes: failed}
	}
	log.Println("All images have been generated successfully")
	return nil
}

// GenerateAudio narrates the title and every non-blank caption line. Each
// clip gets a single attempt; failures are logged and returned by name so
// VerifyAudio can fail the job. Existing clips are overwritten unless
// ReuseAudio is set.
func (p *Pipeline) GenerateAudio(ctx context.Context, m *types.Manifest) ([]string, error) {
	type clip struct {
		text, file string
	}
	clips := []clip{{m.Title, config.TitleAudioFile}}
	for _, line := range m.Spoken() {
		clips = append(clips, clip{line.Text, line.AudioFile()})
	}

	var failed []string
	synthesized, reused := 0, 0
	for _, c := range clips {
		if err := ctx.Err(); err != nil {
			return failed, err
		}

		path := m.Path(c.file)
		if p.speechCfg.ReuseAudio && nonEmpty(path) {
			reused++
			continue
		}

		req := speech.NewRequest(p.speechCfg, strings.TrimSpace(c.text))
		if err := speech.SynthesizeToFile(ctx, p.speech, req, path); err != nil {
			log.Printf("⚠️  Speech for %s failed: %v", c.file, err)
			failed = append(failed, c.file)
			continue
		}
		synthesized++
	}

	log.Printf("Audio: %d synthesized, %d reused, %d failed", synthesized, reused, len(failed))
	return failed, nil
}

// VerifyAudio fails when the title clip or any non-blank line's clip is
// missing or empty.
func VerifyAudio(m *types.Manifest) error {
	files := []string{config.TitleAudioFile}
	for _, line := range m.Spoken() {
		files = append(files, line.AudioFile())
	}

	var missing []string
	for _, f := range files {
		if !nonEmpty(m.Path(f)) {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return &MissingAudioError{Files: missing}
	}
	return nil
}

func nonEmpty(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir() && info.Size() > 0
}
