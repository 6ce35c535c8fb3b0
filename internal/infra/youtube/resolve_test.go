package youtube

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveVideoID(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"bare id", "dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"watch url", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"watch url with extra params", "https://www.youtube.com/watch?list=PL123&v=dQw4w9WgXcQ&t=42s", "dQw4w9WgXcQ"},
		{"short link", "https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"short link with timestamp", "https://youtu.be/dQw4w9WgXcQ?t=30", "dQw4w9WgXcQ"},
		{"embed url", "https://www.youtube.com/embed/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"legacy /v/ url", "https://www.youtube.com/v/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"shorts url", "https://www.youtube.com/shorts/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"no scheme", "youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ResolveVideoID(tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestResolveVideoIDRejectsInvalidInput(t *testing.T) {
	inputs := []string{
		"",
		"tooshort",
		"waytoolongtobeanid",
		"has spaces!",
		"https://example.com/watch?v=dQw4w9WgXcQ",
		"https://vimeo.com/123456789",
	}

	for _, input := range inputs {
		_, err := ResolveVideoID(input)
		assert.Error(t, err, "input %q", input)
	}
}

func TestValidVideoID(t *testing.T) {
	assert.True(t, ValidVideoID("dQw4w9WgXcQ"))
	assert.True(t, ValidVideoID("a_b-c_d-e_f"))
	assert.False(t, ValidVideoID("dQw4w9WgXc"))
	assert.False(t, ValidVideoID("dQw4w9WgXcQQ"))
	assert.False(t, ValidVideoID("dQw4w9WgXc!"))
}
