package captions

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"storyreel/config"
	"storyreel/segment"
	"storyreel/types"
)

// ManifestFile is written next to the artifacts so a job can be resumed.
const ManifestFile = "manifest.json"

// Writer persists prompt and caption files and returns the job manifest.
type Writer struct {
	Segmenter segment.Segmenter
}

// NewWriter creates a writer with the default segmenter
func NewWriter() *Writer {
	return &Writer{Segmenter: segment.Default()}
}

// Write creates dir if needed, then writes title.txt, one prompt file per
// scene and one file per caption line. Existing files are overwritten, so a
// rerun is safe; any I/O error aborts the whole step.
func (w *Writer) Write(dir, title string, scenes []types.Scene) (*types.Manifest, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create job directory: %w", err)
	}

	m := &types.Manifest{Dir: dir, Title: title}

	if err := writeText(m.Path(config.TitleTextFile), title); err != nil {
		return nil, err
	}

	for _, scene := range scenes {
		ms := types.ManifestScene{Scene: scene}

		if err := writeText(m.Path(ms.PromptFile()), scene.Prompt); err != nil {
			return nil, err
		}

		ms.Lines = w.Segmenter.Segment(scene.Index, scene.Text)
		for _, line := range ms.Lines {
			if err := writeText(m.Path(line.TextFile()), line.Text+"\n"); err != nil {
				return nil, err
			}
		}

		log.Printf("Scene %03d: %d caption lines", scene.Index, len(ms.Lines))
		m.Scenes = append(m.Scenes, ms)
	}

	if err := SaveManifest(m); err != nil {
		return nil, err
	}

	log.Printf("Wrote %d scenes and %d caption lines to %s", len(m.Scenes), m.LineCount(), dir)
	return m, nil
}

// SaveManifest stores m as manifest.json in its directory.
func SaveManifest(m *types.Manifest) error {
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	return writeText(m.Path(ManifestFile), string(b))
}

// LoadManifest reads the manifest written by a previous run in dir.
func LoadManifest(dir string) (*types.Manifest, error) {
	b, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var m types.Manifest
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	m.Dir = dir
	return &m, nil
}

func writeText(path, content string) error {
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	return nil
}
