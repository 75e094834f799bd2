package scene

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tweetown/tweetown/internal/core/clock"
	"github.com/tweetown/tweetown/internal/core/entity"
	"github.com/tweetown/tweetown/internal/core/event"
	"github.com/tweetown/tweetown/internal/core/player"
	"github.com/tweetown/tweetown/internal/util"
)

// Run status labels shown in the dashboard header.
const (
	StatusIdle        = "idle"
	StatusFetching    = "fetching"
	StatusReviewing   = "reviewing"
	StatusTransit     = "in transit"
	StatusClassifying = "classifying"
	StatusFinishing   = "finishing"
	StatusDone        = "done"
)

// DefaultFeedCapacity bounds the activity feed shown under the scenes.
const DefaultFeedCapacity = 8

// RunMeta is the header line of a run.
type RunMeta struct {
	AnalyzerModel   string `json:"analyzer_model,omitempty"`
	ClassifierModel string `json:"classifier_model,omitempty"`
	Status          string `json:"status"`
}

// RunSummary is filled in when the terminal pipeline event lands.
type RunSummary struct {
	Status        string         `json:"status"`
	DurationMS    int64          `json:"duration_ms"`
	TotalTweets   int            `json:"total_tweets"`
	PassedTweets  int            `json:"passed_tweets"`
	CategoryStats map[string]int `json:"category_stats,omitempty"`
}

// Snapshot is a self-consistent copy of the whole town for one render or
// one websocket frame.
type Snapshot struct {
	Meta      RunMeta               `json:"meta"`
	Persons   []entity.PersonView   `json:"persons"`
	Bus       entity.BusView        `json:"bus"`
	Buildings []entity.BuildingView `json:"buildings"`
	Leaders   []AuthorRank          `json:"leaders"`
	Feed      []string              `json:"feed"`
	Reviewed  int                   `json:"reviewed"`
	Passed    int                   `json:"passed"`
	Rejected  int                   `json:"rejected"`
	Expected  int                   `json:"expected"`
	Delivered int                   `json:"delivered"`
	Fallbacks int                   `json:"fallbacks"`
	Summary   *RunSummary           `json:"summary,omitempty"`
}

// Feed is a bounded ring of recent activity lines.
type Feed struct {
	mu       sync.Mutex
	lines    []string
	capacity int
}

// NewFeed creates a feed keeping the last capacity lines.
func NewFeed(capacity int) *Feed {
	if capacity <= 0 {
		capacity = DefaultFeedCapacity
	}
	return &Feed{capacity: capacity}
}

// Add appends a line, evicting the oldest once full.
func (f *Feed) Add(line string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lines = append(f.lines, line)
	if len(f.lines) > f.capacity {
		f.lines = f.lines[len(f.lines)-f.capacity:]
	}
}

// Lines returns newest-last copies of the feed.
func (f *Feed) Lines() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.lines))
	copy(out, f.lines)
	return out
}

// Reset empties the feed.
func (f *Feed) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lines = nil
}

// Config tunes the stage at construction time.
type Config struct {
	LeaderboardSize int
	FeedCapacity    int
}

// Stage is the application context shared by all scenes: one person store,
// one bus, one skyline, one leaderboard. It is handed to the player as the
// handler for every canonical event type and is the single place that maps
// an event to scene reactions.
type Stage struct {
	mu sync.Mutex

	clk   clock.Clock
	store *entity.PersonStore
	bus   *entity.Bus

	review  *ReviewScene
	transit *TransitScene
	sorting *SortingScene
	board   *Leaderboard
	feed    *Feed

	meta    RunMeta
	summary *RunSummary

	registrations []handlerRef
}

type handlerRef struct {
	eventType string
	id        int
}

// New builds a stage with fresh scenes and entities.
func New(clk clock.Clock, cfg Config) *Stage {
	store := entity.NewPersonStore()
	bus := entity.NewBus()
	return &Stage{
		clk:     clk,
		store:   store,
		bus:     bus,
		review:  NewReviewScene(clk, store, bus),
		transit: NewTransitScene(clk, bus),
		sorting: NewSortingScene(clk, store, bus),
		board:   NewLeaderboard(cfg.LeaderboardSize),
		feed:    NewFeed(cfg.FeedCapacity),
		meta:    RunMeta{Status: StatusIdle},
	}
}

// Attach registers the stage with the player for every canonical type.
func (s *Stage) Attach(p *player.Player) {
	for _, typ := range event.CanonicalTypes() {
		id := p.On(typ, s.Apply)
		s.registrations = append(s.registrations, handlerRef{eventType: typ, id: id})
	}
}

// Detach removes every registration made by Attach.
func (s *Stage) Detach(p *player.Player) {
	for _, ref := range s.registrations {
		p.Off(ref.eventType, ref.id)
	}
	s.registrations = nil
}

// Apply routes one event to its scene. The match is exhaustive over the
// canonical payload types; anything else is a logged no-op.
func (s *Stage) Apply(ctx context.Context, ev event.Event) error {
	switch p := ev.Payload.(type) {
	case event.PipelineStart:
		s.mu.Lock()
		s.meta = RunMeta{
			AnalyzerModel:   p.AnalyzerModel,
			ClassifierModel: p.ClassifierModel,
			Status:          StatusFetching,
		}
		s.summary = nil
		s.mu.Unlock()
		s.feed.Add("🏁 pipeline started")
		return nil

	case event.FetchDone:
		s.setStatus(StatusReviewing)
		s.feed.Add(fmt.Sprintf("📥 %d tweets arrive at the review desk", len(p.Tweets)))
		return s.review.HandleFetch(ctx, p)

	case event.ReviewResult:
		s.board.Record(p)
		if p.Passed {
			s.feed.Add(fmt.Sprintf("✅ @%s passed review (%.1f)", p.Username, p.Score))
		} else {
			reason := p.Reason
			if reason == "" {
				reason = "no reason given"
			}
			s.feed.Add(fmt.Sprintf("❌ @%s rejected: %s", p.Username, reason))
		}
		return s.review.HandleReview(ctx, p)

	case event.BusBoarding:
		s.feed.Add(fmt.Sprintf("🚶 @%s takes a seat", p.Username))
		return s.transit.HandleBoarding(p)

	case event.BusDepart:
		s.setStatus(StatusTransit)
		s.feed.Add(fmt.Sprintf("🚌 bus departs with %d aboard", p.PassengerCount))
		return s.transit.HandleDepart(ctx, p)

	case event.BusArrive:
		s.setStatus(StatusClassifying)
		s.feed.Add("🌆 bus arrives downtown")
		return s.transit.HandleArrive(ctx)

	case event.ClassifyResult:
		cat, _ := event.ResolveCategory(p.Category)
		s.feed.Add(fmt.Sprintf("📬 @%s delivered to %s", p.Username, cat.Label))
		return s.sorting.HandleClassify(ctx, p)

	case event.ClassifyDone:
		s.setStatus(StatusFinishing)
		s.feed.Add("📊 category totals reconciled")
		return s.sorting.HandleClassifyDone(p)

	case event.PipelineDone:
		s.mu.Lock()
		s.meta.Status = StatusDone
		s.summary = &RunSummary{
			Status:        p.Status,
			DurationMS:    p.DurationMS,
			TotalTweets:   p.Stats.TotalTweets,
			PassedTweets:  p.Stats.PassedTweets,
			CategoryStats: p.Stats.CategoryStats,
		}
		s.mu.Unlock()
		s.feed.Add(fmt.Sprintf("🎉 pipeline %s in %s",
			p.Status, util.FormatDuration(time.Duration(p.DurationMS)*time.Millisecond)))
		return nil

	case event.Unknown:
		util.LogDebugf("no scene reacts to %s, ignoring", ev.Type)
		return nil

	default:
		util.LogDebugf("unhandled payload for %s", ev.Type)
		return nil
	}
}

func (s *Stage) setStatus(status string) {
	s.mu.Lock()
	s.meta.Status = status
	s.mu.Unlock()
}

// Snapshot copies the whole town for rendering or broadcasting.
func (s *Stage) Snapshot() Snapshot {
	persons := s.store.All()
	views := make([]entity.PersonView, 0, len(persons))
	for _, p := range persons {
		views = append(views, p.View())
	}

	reviewed, passed, rejected, expected := s.review.Counts()
	delivered, fallbacks, _ := s.sorting.Counts()

	s.mu.Lock()
	meta := s.meta
	var summary *RunSummary
	if s.summary != nil {
		copied := *s.summary
		summary = &copied
	}
	s.mu.Unlock()

	return Snapshot{
		Meta:      meta,
		Persons:   views,
		Bus:       s.bus.View(),
		Buildings: s.sorting.Views(s.clk.Now()),
		Leaders:   s.board.Top(),
		Feed:      s.feed.Lines(),
		Reviewed:  reviewed,
		Passed:    passed,
		Rejected:  rejected,
		Expected:  expected,
		Delivered: delivered,
		Fallbacks: fallbacks,
		Summary:   summary,
	}
}

// Reset restores every scene to its just-constructed state. Safe to call
// mid-playback only after the player has been stopped.
func (s *Stage) Reset() {
	s.review.Reset()
	s.transit.Reset()
	s.sorting.Reset()
	s.board.Reset()
	s.feed.Reset()

	s.mu.Lock()
	s.meta = RunMeta{Status: StatusIdle}
	s.summary = nil
	s.mu.Unlock()
	util.LogDebug("stage reset to baseline")
}
