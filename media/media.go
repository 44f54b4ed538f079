// Package media measures decoded audio and video durations.
package media

import (
	"errors"
	"fmt"
	"sync"

	"github.com/tidwall/gjson"
	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// ErrNoDuration is returned when ffprobe reports no usable duration.
var ErrNoDuration = errors.New("media has no duration")

// Prober reports the playback length of a media file in seconds.
type Prober interface {
	Duration(path string) (float64, error)
}

// FFProbe measures files with ffprobe.
type FFProbe struct{}

func (FFProbe) Duration(path string) (float64, error) {
	out, err := ffmpeg.Probe(path)
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: %w", path, err)
	}
	d, err := ParseDuration(out)
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: %w", path, err)
	}
	return d, nil
}

// ParseDuration reads format.duration from ffprobe JSON output, falling back
// to the longest stream duration.
func ParseDuration(probeJSON string) (float64, error) {
	if !gjson.Valid(probeJSON) {
		return 0, errors.New("invalid ffprobe output")
	}

	if d := gjson.Get(probeJSON, "format.duration").Float(); d > 0 {
		return d, nil
	}

	longest := 0.0
	for _, s := range gjson.Get(probeJSON, "streams.#.duration").Array() {
		if d := s.Float(); d > longest {
			longest = d
		}
	}
	if longest > 0 {
		return longest, nil
	}
	return 0, ErrNoDuration
}

// Cached memoizes durations per path; the title clip and the main program
// both measure the same files. The zero value with Prober set is ready to use.
type Cached struct {
	Prober Prober

	mu    sync.Mutex
	known map[string]float64
}

// NewCached wraps p with a duration cache.
func NewCached(p Prober) *Cached {
	return &Cached{Prober: p, known: make(map[string]float64)}
}

func (c *Cached) Duration(path string) (float64, error) {
	c.mu.Lock()
	d, ok := c.known[path]
	c.mu.Unlock()
	if ok {
		return d, nil
	}

	d, err := c.Prober.Duration(path)
	if err != nil {
		return 0, err
	}

	c.mu.Lock()
	if c.known == nil {
		c.known = make(map[string]float64)
	}
	c.known[path] = d
	c.mu.Unlock()
	return d, nil
}
