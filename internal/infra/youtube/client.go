package youtube

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/kkdai/youtube/v2"
	"go.uber.org/zap"

	"github.com/alwaisy/keyinsights-backend/internal/domain/port"
)

// Client fetches caption transcripts for YouTube videos. Video metadata and
// caption track URLs come from the innertube API; the track payload itself
// is timedtext XML fetched over plain HTTP.
type Client struct {
	yt     youtube.Client
	http   *http.Client
	logger *zap.Logger
}

func NewClient(logger *zap.Logger) *Client {
	return &Client{
		yt:     youtube.Client{},
		http:   &http.Client{Timeout: 30 * time.Second},
		logger: logger,
	}
}

// FetchTranscript returns the ordered timed caption segments for a video in
// the requested language, falling back to the first available track. Videos
// without caption tracks fail with port.ErrCaptionsUnavailable.
func (c *Client) FetchTranscript(ctx context.Context, videoID, lang string) ([]port.TranscriptSegment, error) {
	video, err := c.yt.GetVideoContext(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("get video %s: %w", videoID, err)
	}

	if len(video.CaptionTracks) == 0 {
		return nil, fmt.Errorf("video %s: %w", videoID, port.ErrCaptionsUnavailable)
	}

	track := pickTrack(video.CaptionTracks, lang)
	c.logger.Debug("fetching caption track",
		zap.String("video_id", videoID),
		zap.String("language", track.LanguageCode),
	)

	segments, err := c.fetchTrack(ctx, track.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("fetch caption track for %s: %w", videoID, err)
	}
	if len(segments) == 0 {
		return nil, fmt.Errorf("video %s has an empty caption track: %w", videoID, port.ErrCaptionsUnavailable)
	}
	return segments, nil
}

func pickTrack(tracks []youtube.CaptionTrack, lang string) youtube.CaptionTrack {
	for _, t := range tracks {
		if t.LanguageCode == lang {
			return t
		}
	}
	return tracks[0]
}

func (c *Client) fetchTrack(ctx context.Context, url string) ([]port.TranscriptSegment, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	return parseTimedText(body)
}
