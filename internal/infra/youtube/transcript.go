package youtube

import (
	"encoding/xml"
	"fmt"
	"time"

	"github.com/alwaisy/keyinsights-backend/internal/domain/port"
)

// Timedtext caption XML as served by the track BaseURL.
type xmlTranscript struct {
	XMLName xml.Name  `xml:"timedtext"`
	Text    []xmlText `xml:"body>p"`
}

type xmlText struct {
	Start    int64        `xml:"t,attr"` // milliseconds
	Duration int64        `xml:"d,attr"` // milliseconds
	Segments []xmlSegment `xml:"s"`
}

type xmlSegment struct {
	Text string `xml:",chardata"`
}

func parseTimedText(data []byte) ([]port.TranscriptSegment, error) {
	var transcript xmlTranscript
	if err := xml.Unmarshal(data, &transcript); err != nil {
		return nil, fmt.Errorf("parse timedtext xml: %w", err)
	}

	segments := make([]port.TranscriptSegment, 0, len(transcript.Text))
	for _, p := range transcript.Text {
		var text string
		for _, seg := range p.Segments {
			text += seg.Text
		}
		if text == "" {
			continue
		}
		segments = append(segments, port.TranscriptSegment{
			Text:     text,
			Start:    time.Duration(p.Start) * time.Millisecond,
			Duration: time.Duration(p.Duration) * time.Millisecond,
		})
	}
	return segments, nil
}
