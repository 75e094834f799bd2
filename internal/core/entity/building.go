package entity

import (
	"sync"
	"time"

	"github.com/tweetown/tweetown/internal/core/event"
)

// litFlashDuration is how long a building window stays lit after a delivery.
const litFlashDuration = 600 * time.Millisecond

// TweetSummary is what a building keeps about each delivered tweet.
type TweetSummary struct {
	TweetID     string `json:"tweet_id"`
	Username    string `json:"username"`
	SubCategory string `json:"sub_category,omitempty"`
	Summary     string `json:"summary,omitempty"`
}

// Building receives classified tweets for one fixed category. Count tracks
// deliveries and normally equals len(tweets); the classify_done snapshot may
// overwrite count to recover from missed deliveries, and that override is
// the one sanctioned divergence.
type Building struct {
	mu sync.Mutex

	category event.Category
	count    int
	tweets   []TweetSummary
	litUntil time.Time
}

// BuildingView is a lock-free copy of a building for rendering and
// snapshots.
type BuildingView struct {
	Category   string         `json:"category"`
	BuildingID string         `json:"building_id"`
	Label      string         `json:"label"`
	Color      string         `json:"color"`
	Count      int            `json:"count"`
	Tweets     []TweetSummary `json:"tweets"`
	Lit        bool           `json:"lit"`
}

// NewBuilding returns an empty building for the category.
func NewBuilding(cat event.Category) *Building {
	return &Building{category: cat}
}

// Category returns the fixed category this building serves.
func (b *Building) Category() event.Category {
	return b.category
}

// Count returns the current delivery counter.
func (b *Building) Count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}

// Receive records one delivered tweet and lights the building up briefly.
func (b *Building) Receive(now time.Time, t TweetSummary) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tweets = append(b.tweets, t)
	b.count++
	b.litUntil = now.Add(litFlashDuration)
}

// Reconcile overwrites the counter with the authoritative total from a
// classify_done snapshot. It returns the drift that was corrected.
func (b *Building) Reconcile(authoritative int) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	drift := authoritative - b.count
	b.count = authoritative
	return drift
}

// View snapshots the building for rendering. Lit reports whether a delivery
// flash is still fresh at the given instant.
func (b *Building) View(now time.Time) BuildingView {
	b.mu.Lock()
	defer b.mu.Unlock()

	tweets := make([]TweetSummary, len(b.tweets))
	copy(tweets, b.tweets)
	return BuildingView{
		Category:   b.category.ID,
		BuildingID: b.category.BuildingID,
		Label:      b.category.Label,
		Color:      b.category.Color,
		Count:      b.count,
		Tweets:     tweets,
		Lit:        now.Before(b.litUntil),
	}
}

// Reset empties the building.
func (b *Building) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.count = 0
	b.tweets = nil
	b.litUntil = time.Time{}
}
