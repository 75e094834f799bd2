package source

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tweetown/tweetown/internal/core/event"
)

func TestParseKeepsGoodLinesInOrder(t *testing.T) {
	input := strings.Join([]string{
		`{"type":"pipeline_start","data":{"analyzer_model":"m1"},"elapsed_ms":0}`,
		``,
		`   `,
		`{"type":"fetch_done","data":{"count":1,"tweets":[{"id":"t1","username":"ada","content":"hi"}]},"elapsed_ms":450}`,
	}, "\n")

	events, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, events, 2)

	assert.Equal(t, event.TypePipelineStart, events[0].Type)
	assert.Equal(t, time.Duration(0), events[0].Elapsed)

	assert.Equal(t, event.TypeFetchDone, events[1].Type)
	assert.Equal(t, 450*time.Millisecond, events[1].Elapsed)
	fetched, ok := events[1].Payload.(event.FetchDone)
	require.True(t, ok)
	require.Len(t, fetched.Tweets, 1)
	assert.Equal(t, "ada", fetched.Tweets[0].Username)
}

func TestParseSkipsMalformedLines(t *testing.T) {
	input := strings.Join([]string{
		`{"type":"pipeline_start","data":{},"elapsed_ms":0}`,
		`{not json at all`,
		`{"data":{},"elapsed_ms":10}`,
		`{"type":"review_result","data":{"tweet_id":"t1","username":"ada","passed":true,"score":"high"},"elapsed_ms":20}`,
		`{"type":"bus_depart","data":{"passenger_count":2},"elapsed_ms":900}`,
	}, "\n")

	events, err := Parse(strings.NewReader(input))
	require.NoError(t, err, "bad lines degrade the log, they do not abort it")
	require.Len(t, events, 2)
	assert.Equal(t, event.TypePipelineStart, events[0].Type)
	assert.Equal(t, event.TypeBusDepart, events[1].Type)
}

func TestParseToleratesUnknownTypes(t *testing.T) {
	input := `{"type":"review_start","data":{"tweet_id":"t9"},"elapsed_ms":100}`

	events, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, events, 1)

	unknown, ok := events[0].Payload.(event.Unknown)
	require.True(t, ok)
	assert.JSONEq(t, `{"tweet_id":"t9"}`, string(unknown.Raw))
}

func TestParseBytesEmptyInput(t *testing.T) {
	events, err := ParseBytes(nil)
	require.NoError(t, err)
	assert.Empty(t, events)
}
