package voice

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeed_BuildsDraft(t *testing.T) {
	stream := strings.Join([]string{
		`{"results":[{"transcript":"hel","isFinal":false}],"resultIndex":0}`,
		``,
		`{"results":[{"transcript":"hello","isFinal":true}],"resultIndex":0}`,
		`{"results":[{"transcript":"hello","isFinal":true},{"transcript":"there","isFinal":true}],"resultIndex":1}`,
	}, "\n")

	var d Draft
	var interims []string
	err := Feed(strings.NewReader(stream), &d, Handlers{
		Interim: func(text string) { interims = append(interims, text) },
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"hel"}, interims)
	assert.False(t, d.Recording())
	assert.Equal(t, "hello there", d.Take())
}

func TestFeed_StopsOnRecognizerError(t *testing.T) {
	stream := `{"results":[{"transcript":"one","isFinal":true}],"resultIndex":0}
{"error":"no-speech"}
{"results":[{"transcript":"two","isFinal":true}],"resultIndex":0}`

	var d Draft
	var notice string
	err := Feed(strings.NewReader(stream), &d, Handlers{
		Error: func(n string) { notice = n },
	})
	require.NoError(t, err)

	assert.Equal(t, "Речь не обнаружена. Попробуйте еще раз.", notice)
	assert.Equal(t, "one", d.Take())
}

func TestFeed_MalformedLine(t *testing.T) {
	var d Draft
	err := Feed(strings.NewReader("{not json"), &d, Handlers{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 1")
	assert.False(t, d.Recording())
}
