package uploader

import (
	"io"

	"github.com/go-audio/wav"
	"github.com/tcolgate/mp3"
)

// ProbeDuration measures the playable duration of an audio stream in seconds.
// It understands MP3 (frame walk) and WAV (header math); anything else, or a
// stream that fails to decode, reports unknown. The reader is left at an
// arbitrary position; callers must rewind before reusing it.
func ProbeDuration(r io.ReadSeeker, contentType string) (float64, bool) {
	switch contentType {
	case "audio/mpeg", "audio/mp3":
		return mp3Duration(r)
	case "audio/wav", "audio/x-wav":
		return wavDuration(r)
	default:
		return 0, false
	}
}

// mp3Duration sums frame durations across the stream. A decode error midway
// ends the walk; whatever was decoded up to that point still counts.
func mp3Duration(r io.Reader) (float64, bool) {
	dec := mp3.NewDecoder(r)

	var (
		frame   mp3.Frame
		skipped int
		total   float64
	)
	for {
		if err := dec.Decode(&frame, &skipped); err != nil {
			break
		}
		total += frame.Duration().Seconds()
	}

	if total == 0 {
		return 0, false
	}
	return total, true
}

func wavDuration(r io.ReadSeeker) (float64, bool) {
	dec := wav.NewDecoder(r)

	d, err := dec.Duration()
	if err != nil || d <= 0 {
		return 0, false
	}
	return d.Seconds(), true
}
