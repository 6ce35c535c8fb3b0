package youtube

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimedText(t *testing.T) {
	data := []byte(`<?xml version="1.0" encoding="utf-8"?>
<timedtext format="3">
  <body>
    <p t="0" d="2500"><s>Never</s><s> gonna</s><s> give</s></p>
    <p t="2500" d="1800"><s>you</s><s> up</s></p>
    <p t="4300" d="1000"></p>
  </body>
</timedtext>`)

	segments, err := parseTimedText(data)
	require.NoError(t, err)
	require.Len(t, segments, 2, "caption lines without text are skipped")

	assert.Equal(t, "Never gonna give", segments[0].Text)
	assert.Equal(t, time.Duration(0), segments[0].Start)
	assert.Equal(t, 2500*time.Millisecond, segments[0].Duration)

	assert.Equal(t, "you up", segments[1].Text)
	assert.Equal(t, 2500*time.Millisecond, segments[1].Start)
	assert.Equal(t, 1800*time.Millisecond, segments[1].Duration)
}

func TestParseTimedTextRejectsMalformedXML(t *testing.T) {
	_, err := parseTimedText([]byte("<timedtext><body><p"))
	assert.Error(t, err)
}
