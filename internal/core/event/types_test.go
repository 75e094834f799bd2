package event

import (
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnmarshalReviewResult(t *testing.T) {
	line := `{"type":"review_result","data":{"tweet_id":"t1","username":"alice","passed":true,"score":8.5,"relevance_score":92,"reason":"solid sourcing"},"elapsed_ms":1200}`

	var ev Event
	require.NoError(t, sonic.Unmarshal([]byte(line), &ev))

	assert.Equal(t, TypeReviewResult, ev.Type)
	assert.Equal(t, 1200*time.Millisecond, ev.Elapsed)

	payload, ok := ev.Payload.(ReviewResult)
	require.True(t, ok)
	assert.Equal(t, "t1", payload.TweetID)
	assert.Equal(t, "alice", payload.Username)
	assert.True(t, payload.Passed)
	assert.Equal(t, 8.5, payload.Score)
	assert.Equal(t, 92.0, payload.RelevanceScore)
	assert.Equal(t, "solid sourcing", payload.Reason)
}

func TestUnmarshalFetchDone(t *testing.T) {
	line := `{"type":"fetch_done","data":{"count":2,"tweets":[{"id":"t1","username":"alice","content":"hello","followers":1500},{"id":"t2","username":"bob","content":"world"}]},"elapsed_ms":800,"timestamp":"2025-07-09T14:30:45.123456"}`

	var ev Event
	require.NoError(t, sonic.Unmarshal([]byte(line), &ev))

	payload, ok := ev.Payload.(FetchDone)
	require.True(t, ok)
	assert.Equal(t, 2, payload.Count)
	require.Len(t, payload.Tweets, 2)
	assert.Equal(t, "alice", payload.Tweets[0].Username)
	assert.Equal(t, 1500, payload.Tweets[0].Followers)
	assert.Equal(t, "2025-07-09T14:30:45.123456", ev.Timestamp)
}

func TestUnmarshalAllCanonicalTypes(t *testing.T) {
	tests := []struct {
		name string
		line string
		want Payload
	}{
		{
			name: "pipeline_start",
			line: `{"type":"pipeline_start","data":{"analyzer_model":"m1","classifier_model":"m2"},"elapsed_ms":0}`,
			want: PipelineStart{AnalyzerModel: "m1", ClassifierModel: "m2"},
		},
		{
			name: "bus_boarding",
			line: `{"type":"bus_boarding","data":{"tweet_id":"t1","username":"alice","passenger_count":1},"elapsed_ms":100}`,
			want: BusBoarding{TweetID: "t1", Username: "alice", PassengerCount: 1},
		},
		{
			name: "bus_depart",
			line: `{"type":"bus_depart","data":{"passenger_count":3,"model":"m2"},"elapsed_ms":200}`,
			want: BusDepart{PassengerCount: 3, Model: "m2"},
		},
		{
			name: "bus_arrive with empty data",
			line: `{"type":"bus_arrive","data":{},"elapsed_ms":300}`,
			want: BusArrive{},
		},
		{
			name: "bus_arrive with missing data",
			line: `{"type":"bus_arrive","elapsed_ms":300}`,
			want: BusArrive{},
		},
		{
			name: "classify_result",
			line: `{"type":"classify_result","data":{"tweet_id":"t1","username":"alice","category":"research","sub_category":"papers","building_id":"b2","building_color":"#4ECDC4","summary":"neat"},"elapsed_ms":400}`,
			want: ClassifyResult{TweetID: "t1", Username: "alice", Category: "research", SubCategory: "papers", BuildingID: "b2", BuildingColor: "#4ECDC4", Summary: "neat"},
		},
		{
			name: "classify_done",
			line: `{"type":"classify_done","data":{"category_stats":{"news":2,"tools":1}},"elapsed_ms":500}`,
			want: ClassifyDone{CategoryStats: map[string]int{"news": 2, "tools": 1}},
		},
		{
			name: "pipeline_done",
			line: `{"type":"pipeline_done","data":{"status":"success","duration_ms":9000,"stats":{"total_tweets":3,"passed_tweets":2,"category_stats":{"news":2}}},"elapsed_ms":600}`,
			want: PipelineDone{Status: "success", DurationMS: 9000, Stats: PipelineStats{TotalTweets: 3, PassedTweets: 2, CategoryStats: map[string]int{"news": 2}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ev Event
			require.NoError(t, sonic.Unmarshal([]byte(tt.line), &ev))
			assert.Equal(t, tt.want, ev.Payload)
		})
	}
}

func TestUnmarshalUnknownTypeKeepsRawData(t *testing.T) {
	line := `{"type":"fetch_start","data":{"source":"list_42"},"elapsed_ms":50}`

	var ev Event
	require.NoError(t, sonic.Unmarshal([]byte(line), &ev))

	assert.Equal(t, "fetch_start", ev.Type)
	payload, ok := ev.Payload.(Unknown)
	require.True(t, ok)
	assert.JSONEq(t, `{"source":"list_42"}`, string(payload.Raw))
}

func TestUnmarshalRejectsBadEnvelopes(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{
			name: "missing type",
			line: `{"data":{},"elapsed_ms":0}`,
		},
		{
			name: "negative elapsed",
			line: `{"type":"bus_arrive","data":{},"elapsed_ms":-5}`,
		},
		{
			name: "payload type mismatch",
			line: `{"type":"fetch_done","data":{"count":"three"},"elapsed_ms":0}`,
		},
		{
			name: "not json",
			line: `pipeline exploded here`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ev Event
			assert.Error(t, sonic.Unmarshal([]byte(tt.line), &ev))
		})
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	original := Event{
		Type:      TypeReviewResult,
		Elapsed:   2300 * time.Millisecond,
		Timestamp: "2025-07-09T14:30:45.123456",
		Payload: ReviewResult{
			TweetID:        "t7",
			Username:       "carol",
			Passed:         false,
			Score:          3.5,
			RelevanceScore: 41,
			Reason:         "off topic",
		},
	}

	data, err := sonic.Marshal(original)
	require.NoError(t, err)

	var decoded Event
	require.NoError(t, sonic.Unmarshal(data, &decoded))
	assert.Equal(t, original, decoded)
}

func TestMarshalUnknownRoundTrip(t *testing.T) {
	line := `{"type":"generate_done","data":{"path":"/tmp/report.md"},"elapsed_ms":7500}`

	var ev Event
	require.NoError(t, sonic.Unmarshal([]byte(line), &ev))

	data, err := sonic.Marshal(ev)
	require.NoError(t, err)

	var again Event
	require.NoError(t, sonic.Unmarshal(data, &again))
	assert.Equal(t, ev.Type, again.Type)
	assert.Equal(t, ev.Elapsed, again.Elapsed)
	assert.JSONEq(t, string(ev.Payload.(Unknown).Raw), string(again.Payload.(Unknown).Raw))
}

func TestCanonicalTypesCoversPipelineOrder(t *testing.T) {
	types := CanonicalTypes()
	require.Len(t, types, 9)
	assert.Equal(t, TypePipelineStart, types[0])
	assert.Equal(t, TypePipelineDone, types[len(types)-1])
}
