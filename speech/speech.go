// Package speech narrates text through a streaming speech synthesizer and
// writes the audio chunks, in arrival order, to a sink.
package speech

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"storyreel/config"
)

// Request is one synthesis call.
type Request struct {
	Text       string
	Voice      string
	Format     string
	SampleRate int
	Volume     int
	SpeechRate int
	PitchRate  int
}

// NewRequest fills the voice settings from cfg.
func NewRequest(cfg config.SpeechConfig, text string) Request {
	return Request{
		Text:       text,
		Voice:      cfg.Voice,
		Format:     config.DefaultFormat,
		SampleRate: cfg.SampleRate,
		Volume:     cfg.Volume,
		SpeechRate: cfg.SpeechRate,
		PitchRate:  cfg.PitchRate,
	}
}

// Synthesizer streams audio for req into sink until the service reports
// completion or failure. Chunks are written in the order they arrive.
type Synthesizer interface {
	Synthesize(ctx context.Context, req Request, sink io.Writer) error
}

// SynthesizeToFile streams req into path. The file is closed exactly once
// and a partial file is removed when synthesis fails.
func SynthesizeToFile(ctx context.Context, s Synthesizer, req Request, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create audio file: %w", err)
	}
	sink := &fileSink{f: f}
	defer sink.Close()

	if err := s.Synthesize(ctx, req, sink); err != nil {
		sink.Close()
		os.Remove(path)
		return err
	}
	if err := sink.Close(); err != nil {
		return fmt.Errorf("failed to close audio file: %w", err)
	}
	return nil
}

type fileSink struct {
	f        *os.File
	once     sync.Once
	closeErr error
}

func (s *fileSink) Write(p []byte) (int, error) {
	return s.f.Write(p)
}

func (s *fileSink) Close() error {
	s.once.Do(func() {
		s.closeErr = s.f.Close()
	})
	return s.closeErr
}
