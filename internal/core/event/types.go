package event

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
)

// Canonical event types emitted by the tweet pipeline, in the order a
// well-formed run produces them.
const (
	TypePipelineStart  = "pipeline_start"
	TypeFetchDone      = "fetch_done"
	TypeReviewResult   = "review_result"
	TypeBusBoarding    = "bus_boarding"
	TypeBusDepart      = "bus_depart"
	TypeBusArrive      = "bus_arrive"
	TypeClassifyResult = "classify_result"
	TypeClassifyDone   = "classify_done"
	TypePipelineDone   = "pipeline_done"
)

// CanonicalTypes returns the closed set of known event types.
func CanonicalTypes() []string {
	return []string{
		TypePipelineStart,
		TypeFetchDone,
		TypeReviewResult,
		TypeBusBoarding,
		TypeBusDepart,
		TypeBusArrive,
		TypeClassifyResult,
		TypeClassifyDone,
		TypePipelineDone,
	}
}

// Payload is the sum of all event payload types. Exactly one concrete type
// exists per canonical event tag, plus Unknown for tags outside the set.
type Payload interface {
	isPayload()
}

// Tweet is one content item as carried by a fetch_done batch.
type Tweet struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Content   string `json:"content"`
	Avatar    string `json:"avatar,omitempty"`
	Followers int    `json:"followers,omitempty"`
}

// PipelineStart announces run metadata.
type PipelineStart struct {
	AnalyzerModel   string `json:"analyzer_model,omitempty"`
	ClassifierModel string `json:"classifier_model,omitempty"`
}

// FetchDone delivers the initial batch of tweets.
type FetchDone struct {
	Count  int     `json:"count"`
	Tweets []Tweet `json:"tweets"`
}

// ReviewResult reports the review outcome for one tweet.
type ReviewResult struct {
	TweetID        string  `json:"tweet_id"`
	Username       string  `json:"username"`
	Passed         bool    `json:"passed"`
	Score          float64 `json:"score"`
	RelevanceScore float64 `json:"relevance_score"`
	Reason         string  `json:"reason,omitempty"`
}

// BusBoarding reports one passed tweet joining the transport batch.
type BusBoarding struct {
	TweetID        string `json:"tweet_id"`
	Username       string `json:"username"`
	PassengerCount int    `json:"passenger_count"`
}

// BusDepart marks the start of the transport stage.
type BusDepart struct {
	PassengerCount int    `json:"passenger_count"`
	Model          string `json:"model,omitempty"`
}

// BusArrive marks the end of the transport stage. It carries no data.
type BusArrive struct{}

// ClassifyResult reports the classification outcome for one tweet.
type ClassifyResult struct {
	TweetID       string `json:"tweet_id"`
	Username      string `json:"username"`
	Category      string `json:"category"`
	SubCategory   string `json:"sub_category,omitempty"`
	BuildingID    string `json:"building_id,omitempty"`
	BuildingColor string `json:"building_color,omitempty"`
	Summary       string `json:"summary,omitempty"`
}

// ClassifyDone carries the authoritative per-category totals for the run.
// Scenes overwrite their incremental counters with this snapshot.
type ClassifyDone struct {
	CategoryStats map[string]int `json:"category_stats"`
}

// PipelineStats summarizes a finished run.
type PipelineStats struct {
	TotalTweets   int            `json:"total_tweets"`
	PassedTweets  int            `json:"passed_tweets"`
	CategoryStats map[string]int `json:"category_stats,omitempty"`
}

// PipelineDone is the terminal summary event.
type PipelineDone struct {
	Status     string        `json:"status"`
	DurationMS int64         `json:"duration_ms"`
	Stats      PipelineStats `json:"stats"`
}

// Unknown preserves the raw data of an event whose type is outside the
// canonical set. Scenes ignore it; re-encoding round-trips it untouched.
type Unknown struct {
	Raw json.RawMessage
}

func (PipelineStart) isPayload()  {}
func (FetchDone) isPayload()      {}
func (ReviewResult) isPayload()   {}
func (BusBoarding) isPayload()    {}
func (BusDepart) isPayload()      {}
func (BusArrive) isPayload()      {}
func (ClassifyResult) isPayload() {}
func (ClassifyDone) isPayload()   {}
func (PipelineDone) isPayload()   {}
func (Unknown) isPayload()        {}

// Event is one immutable record from a pipeline log. Elapsed is the offset
// from pipeline start; Timestamp is the emitter's wall-clock string and may
// be empty.
type Event struct {
	Type      string
	Elapsed   time.Duration
	Timestamp string
	Payload   Payload
}

// envelope is the wire shape of one log line.
type envelope struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data"`
	ElapsedMS int64           `json:"elapsed_ms"`
	Timestamp string          `json:"timestamp,omitempty"`
}

// UnmarshalJSON decodes one log line into a typed event. Unknown tags keep
// their raw data instead of failing.
func (e *Event) UnmarshalJSON(data []byte) error {
	var env envelope
	if err := sonic.Unmarshal(data, &env); err != nil {
		return err
	}
	if env.Type == "" {
		return fmt.Errorf("event missing type tag")
	}
	if env.ElapsedMS < 0 {
		return fmt.Errorf("event %s has negative elapsed_ms %d", env.Type, env.ElapsedMS)
	}

	payload, err := decodePayload(env.Type, env.Data)
	if err != nil {
		return fmt.Errorf("decode %s payload: %w", env.Type, err)
	}

	e.Type = env.Type
	e.Elapsed = time.Duration(env.ElapsedMS) * time.Millisecond
	e.Timestamp = env.Timestamp
	e.Payload = payload
	return nil
}

// MarshalJSON encodes the event back into its wire shape.
func (e Event) MarshalJSON() ([]byte, error) {
	var (
		data json.RawMessage
		err  error
	)
	switch p := e.Payload.(type) {
	case Unknown:
		data = p.Raw
	case nil:
		data = json.RawMessage("{}")
	default:
		data, err = sonic.Marshal(e.Payload)
		if err != nil {
			return nil, fmt.Errorf("encode %s payload: %w", e.Type, err)
		}
	}
	if len(data) == 0 {
		data = json.RawMessage("{}")
	}

	return sonic.Marshal(envelope{
		Type:      e.Type,
		Data:      data,
		ElapsedMS: e.Elapsed.Milliseconds(),
		Timestamp: e.Timestamp,
	})
}

func decodeAs[T Payload](data json.RawMessage) (Payload, error) {
	var p T
	if err := sonic.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	return p, nil
}

func decodePayload(typ string, data json.RawMessage) (Payload, error) {
	if len(data) == 0 {
		data = json.RawMessage("{}")
	}

	switch typ {
	case TypePipelineStart:
		return decodeAs[PipelineStart](data)
	case TypeFetchDone:
		return decodeAs[FetchDone](data)
	case TypeReviewResult:
		return decodeAs[ReviewResult](data)
	case TypeBusBoarding:
		return decodeAs[BusBoarding](data)
	case TypeBusDepart:
		return decodeAs[BusDepart](data)
	case TypeBusArrive:
		return decodeAs[BusArrive](data)
	case TypeClassifyResult:
		return decodeAs[ClassifyResult](data)
	case TypeClassifyDone:
		return decodeAs[ClassifyDone](data)
	case TypePipelineDone:
		return decodeAs[PipelineDone](data)
	default:
		raw := make(json.RawMessage, len(data))
		copy(raw, data)
		return Unknown{Raw: raw}, nil
	}
}
