package source

import (
	"fmt"
	"maps"
	"math"
	"math/rand"
	"time"

	"github.com/tweetown/tweetown/internal/core/event"
	"github.com/tweetown/tweetown/internal/util"
)

// DefaultDemoTweets is the batch size when Options.Tweets is unset.
const DefaultDemoTweets = 8

// Options tune the synthetic log.
type Options struct {
	// Tweets is the fetched batch size. Zero or negative means
	// DefaultDemoTweets.
	Tweets int
	// Seed drives every random draw. Zero samples the clock, so unseeded
	// runs differ from each other; pass a fixed seed for repeatable logs.
	Seed int64
}

var demoUsers = []string{
	"ada_codes", "turing_tapes", "gopher_jane", "rustacean_sam",
	"mlops_maria", "quietcompiler", "stackdiver", "nightshiftdev",
	"protobuf_pete", "cache_invalidator",
}

var demoContent = []string{
	"Benchmarked three JSON parsers against our event firehose, results in thread",
	"New release of the scheduler is out, the backoff rework finally landed",
	"Wrote up how we cut tail latency by batching fsync calls",
	"Hot take: most retry loops are hiding a missing timeout",
	"Step-by-step guide to profiling goroutine leaks in production",
	"Our incident review from last week's cache stampede, lessons inside",
	"Comparing columnar formats for cold storage, parquet still wins",
	"Shipped a tiny CLI that diffs two heap profiles, link below",
	"Paper summary: speculative decoding without a draft model",
	"The config file format nobody asked for is now in beta",
	"Rolled out zone-aware routing, cross-zone traffic down 40 percent",
	"Why we moved the ingest path off the ORM and never looked back",
}

var demoReasons = []string{
	"low relevance to the feed",
	"duplicate of an earlier item",
	"no primary source linked",
	"off topic for this digest",
	"too thin to summarize",
}

var demoSubCategories = map[string][]string{
	"news":     {"releases", "events", "acquisitions"},
	"research": {"papers", "benchmarks", "datasets"},
	"product":  {"launches", "updates", "pricing"},
	"tutorial": {"guides", "walkthroughs", "recipes"},
	"opinion":  {"takes", "threads", "debates"},
	"tools":    {"cli", "libraries", "plugins"},
}

// demoBase anchors the cosmetic wall-clock timestamps, keeping a seeded
// log independent of when it was generated.
var demoBase = time.Date(2025, 6, 3, 9, 30, 0, 0, time.UTC)

// Generate synthesizes one self-consistent pipeline run: every boarding
// follows a passed review for the same tweet, passed plus rejected equals
// the fetched count, and the terminal stats agree with the per-event
// tallies. Offsets are whole milliseconds and strictly non-decreasing.
func Generate(opts Options) []event.Event {
	n := opts.Tweets
	if n <= 0 {
		n = DefaultDemoTweets
	}
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	var (
		events  []event.Event
		elapsed time.Duration
	)
	push := func(typ string, p event.Payload) {
		events = append(events, event.Event{
			Type:      typ,
			Elapsed:   elapsed,
			Timestamp: util.FormatTimestamp(demoBase.Add(elapsed)),
			Payload:   p,
		})
	}
	step := func(lo, hi time.Duration) {
		ms := int64(lo / time.Millisecond)
		if span := int64((hi - lo) / time.Millisecond); span > 0 {
			ms += rng.Int63n(span + 1)
		}
		elapsed += time.Duration(ms) * time.Millisecond
	}

	tweets := make([]event.Tweet, n)
	for i := range tweets {
		tweets[i] = event.Tweet{
			ID:        fmt.Sprintf("demo-%03d", i+1),
			Username:  demoUsers[rng.Intn(len(demoUsers))],
			Content:   demoContent[rng.Intn(len(demoContent))],
			Followers: 120 + rng.Intn(90000),
		}
	}

	push(event.TypePipelineStart, event.PipelineStart{
		AnalyzerModel:   "relevance-reviewer-v2",
		ClassifierModel: "topic-sorter-v1",
	})

	step(600*time.Millisecond, 1000*time.Millisecond)
	push(event.TypeFetchDone, event.FetchDone{Count: n, Tweets: tweets})

	var boarded []event.Tweet
	for _, t := range tweets {
		step(600*time.Millisecond, 1200*time.Millisecond)
		passed := rng.Float64() < 0.7

		var score, relevance float64
		reason := ""
		if passed {
			score = roundTenth(6.0 + rng.Float64()*3.8)
			relevance = roundTenth(60 + rng.Float64()*38)
		} else {
			score = roundTenth(1.0 + rng.Float64()*4.9)
			relevance = roundTenth(5 + rng.Float64()*50)
			reason = demoReasons[rng.Intn(len(demoReasons))]
		}
		push(event.TypeReviewResult, event.ReviewResult{
			TweetID:        t.ID,
			Username:       t.Username,
			Passed:         passed,
			Score:          score,
			RelevanceScore: relevance,
			Reason:         reason,
		})

		if passed {
			step(150*time.Millisecond, 300*time.Millisecond)
			boarded = append(boarded, t)
			push(event.TypeBusBoarding, event.BusBoarding{
				TweetID:        t.ID,
				Username:       t.Username,
				PassengerCount: len(boarded),
			})
		}
	}

	step(400*time.Millisecond, 600*time.Millisecond)
	push(event.TypeBusDepart, event.BusDepart{
		PassengerCount: len(boarded),
		Model:          "topic-sorter-v1",
	})

	step(1500*time.Millisecond, 2500*time.Millisecond)
	push(event.TypeBusArrive, event.BusArrive{})

	cats := event.Categories()
	stats := make(map[string]int)
	for _, t := range boarded {
		step(500*time.Millisecond, 900*time.Millisecond)
		cat := cats[rng.Intn(len(cats))]
		subs := demoSubCategories[cat.ID]
		stats[cat.ID]++
		push(event.TypeClassifyResult, event.ClassifyResult{
			TweetID:       t.ID,
			Username:      t.Username,
			Category:      cat.ID,
			SubCategory:   subs[rng.Intn(len(subs))],
			BuildingID:    cat.BuildingID,
			BuildingColor: cat.Color,
			Summary:       summarize(t.Content),
		})
	}
	if len(stats) == 0 {
		stats = nil
	}

	step(250*time.Millisecond, 350*time.Millisecond)
	push(event.TypeClassifyDone, event.ClassifyDone{CategoryStats: stats})

	step(150*time.Millisecond, 250*time.Millisecond)
	push(event.TypePipelineDone, event.PipelineDone{
		Status:     "success",
		DurationMS: elapsed.Milliseconds(),
		Stats: event.PipelineStats{
			TotalTweets:   n,
			PassedTweets:  len(boarded),
			CategoryStats: maps.Clone(stats),
		},
	})

	return events
}

func roundTenth(x float64) float64 {
	return math.Round(x*10) / 10
}

// summarize fakes the classifier's one-line digest of a tweet.
func summarize(content string) string {
	const limit = 48
	if len(content) <= limit {
		return content
	}
	return content[:limit] + "…"
}
