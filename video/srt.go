package video

import (
	"fmt"
	"math"
	"os"
)

// SubtitleFile is the SRT sidecar written next to the merged video
const SubtitleFile = "merged_video.srt"

// WriteSRT writes the timeline's captions shifted by offset seconds, which
// is the length of the title clip in front of the main program.
func WriteSRT(t *Timeline, offset float64, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	defer file.Close()

	n := 0
	base := offset
	for _, s := range t.Scenes {
		for _, c := range s.Cues {
			n++
			fmt.Fprintf(file, "%d\n", n)
			fmt.Fprintf(file, "%s --> %s\n", formatTimestamp(base+c.Start), formatTimestamp(base+c.End))
			fmt.Fprintf(file, "%s\n\n", c.Text)
		}
		base += s.Duration
	}

	return file.Close()
}

func formatTimestamp(seconds float64) string {
	total := int64(math.Round(seconds * 1000))
	hours := total / 3_600_000
	minutes := (total / 60_000) % 60
	secs := (total / 1000) % 60
	millis := total % 1000

	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, secs, millis)
}
