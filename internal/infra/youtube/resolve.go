package youtube

import (
	"fmt"
	"regexp"
)

var (
	videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

	urlPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?:youtube\.com/watch\?v=|youtu\.be/|youtube\.com/embed/|youtube\.com/v/|youtube\.com/watch\?.*v=)([A-Za-z0-9_-]{11})`),
		regexp.MustCompile(`youtube\.com/shorts/([A-Za-z0-9_-]{11})`),
	}
)

// ValidVideoID reports whether s looks like a canonical 11-character
// YouTube video ID.
func ValidVideoID(s string) bool {
	return videoIDPattern.MatchString(s)
}

// ExtractVideoID pulls the video ID out of common YouTube URL forms
// (watch, youtu.be, embed, /v/, shorts).
func ExtractVideoID(url string) (string, bool) {
	for _, p := range urlPatterns {
		if m := p.FindStringSubmatch(url); m != nil {
			return m[1], true
		}
	}
	return "", false
}

// ResolveVideoID turns a raw identifier or URL into a validated canonical
// video ID.
func ResolveVideoID(raw string) (string, error) {
	if ValidVideoID(raw) {
		return raw, nil
	}
	if id, ok := ExtractVideoID(raw); ok {
		return id, nil
	}
	return "", fmt.Errorf("could not resolve %q to a valid YouTube video ID", raw)
}
