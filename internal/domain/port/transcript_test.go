package port

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJoinSegments(t *testing.T) {
	got := JoinSegments([]TranscriptSegment{
		{Text: "  first "},
		{Text: "second"},
		{Text: " third"},
	})
	assert.Equal(t, "first second third", got)

	assert.Equal(t, "", JoinSegments(nil))
}
