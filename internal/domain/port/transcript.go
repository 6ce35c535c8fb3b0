package port

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ErrCaptionsUnavailable distinguishes "this video has no usable captions"
// from transient or unexpected fetch errors.
var ErrCaptionsUnavailable = errors.New("captions unavailable for video")

type TranscriptSegment struct {
	Text     string
	Start    time.Duration
	Duration time.Duration
}

// TranscriptSource fetches the ordered timed caption segments of a video.
type TranscriptSource interface {
	FetchTranscript(ctx context.Context, videoID, lang string) ([]TranscriptSegment, error)
}

// JoinSegments flattens timed segments into the single transcript string
// served to clients and fed to the insight model.
func JoinSegments(segments []TranscriptSegment) string {
	parts := make([]string, 0, len(segments))
	for _, seg := range segments {
		parts = append(parts, strings.TrimSpace(seg.Text))
	}
	return strings.Join(parts, " ")
}
