package redisstore

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodecRoundTrip(t *testing.T) {
	payloads := [][]byte{
		[]byte(`{"request_id":"abc","transcript":"hello world"}`),
		[]byte(""),
		[]byte(strings.Repeat("repetitive transcript text ", 500)),
		[]byte("unicode: éè你好"),
	}

	for _, payload := range payloads {
		encoded := compress(payload)
		decoded, err := decompress(encoded)
		require.NoError(t, err)
		assert.Equal(t, payload, decoded)
	}
}

func TestCompressShrinksRepetitivePayloads(t *testing.T) {
	payload := []byte(strings.Repeat("the same sentence over and over. ", 200))
	encoded := compress(payload)
	assert.Less(t, len(encoded), len(payload))
}

func TestDecompressRejectsGarbage(t *testing.T) {
	_, err := decompress("not base64 at all!!!")
	assert.Error(t, err)

	// Valid base64 that is not a zlib stream.
	_, err = decompress("aGVsbG8gd29ybGQ=")
	assert.Error(t, err)
}
