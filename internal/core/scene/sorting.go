package scene

import (
	"context"
	"sync"
	"time"

	"github.com/tweetown/tweetown/internal/core/clock"
	"github.com/tweetown/tweetown/internal/core/entity"
	"github.com/tweetown/tweetown/internal/core/event"
	"github.com/tweetown/tweetown/internal/util"
)

// SortingScene owns one building per fixed category and distributes
// classified tweets into them. Unknown category labels land in the news
// building; the fallback count is kept visible rather than hidden.
type SortingScene struct {
	mu sync.Mutex

	clk   clock.Clock
	store *entity.PersonStore
	bus   *entity.Bus

	buildings map[string]*entity.Building
	order     []*entity.Building

	delivered  int
	fallbacks  int
	reconciled bool
}

// NewSortingScene builds the fixed city skyline.
func NewSortingScene(clk clock.Clock, store *entity.PersonStore, bus *entity.Bus) *SortingScene {
	s := &SortingScene{
		clk:       clk,
		store:     store,
		bus:       bus,
		buildings: make(map[string]*entity.Building),
	}
	for _, cat := range event.Categories() {
		b := entity.NewBuilding(cat)
		s.buildings[cat.ID] = b
		s.order = append(s.order, b)
	}
	return s
}

// HandleClassify unloads the tweet's person from the bus, walks them into
// the resolved building, and records the delivery. The building counter
// moves even when the person is gone; count continuity outranks a perfect
// walk animation.
func (s *SortingScene) HandleClassify(ctx context.Context, p event.ClassifyResult) error {
	cat, known := event.ResolveCategory(p.Category)
	if !known {
		s.mu.Lock()
		s.fallbacks++
		s.mu.Unlock()
		util.LogWarnf("unknown category %q for %s, routed to %s", p.Category, p.TweetID, cat.ID)
	}
	if p.BuildingID != "" && p.BuildingID != cat.BuildingID {
		util.LogDebugf("classifier suggested building %s, table says %s", p.BuildingID, cat.BuildingID)
	}

	if _, aboard := s.bus.Unload(p.TweetID); !aboard {
		util.LogDebugf("classified tweet %s was not aboard the bus", p.TweetID)
	}

	if person, ok := s.store.Get(p.TweetID); ok {
		if err := person.Deliver(ctx, s.clk, cat.ID); err != nil {
			if !isStateGuard(err) {
				return err
			}
			util.LogDebugf("delivery walk for %s skipped: %v", p.TweetID, err)
		}
	} else {
		util.LogDebugf("classified tweet %s is untracked, building still counts it", p.TweetID)
	}

	s.buildings[cat.ID].Receive(s.clk.Now(), entity.TweetSummary{
		TweetID:     p.TweetID,
		Username:    p.Username,
		SubCategory: p.SubCategory,
		Summary:     p.Summary,
	})

	s.mu.Lock()
	s.delivered++
	s.mu.Unlock()
	return nil
}

// HandleClassifyDone overwrites every building counter with the snapshot's
// authoritative totals. Labels outside the fixed table fold into the news
// bucket; buildings absent from the snapshot drop to zero.
func (s *SortingScene) HandleClassifyDone(p event.ClassifyDone) error {
	authoritative := make(map[string]int, len(s.buildings))
	for label, count := range p.CategoryStats {
		cat, known := event.ResolveCategory(label)
		if !known {
			util.LogWarnf("snapshot category %q folded into %s", label, cat.ID)
		}
		authoritative[cat.ID] += count
	}

	for id, b := range s.buildings {
		if drift := b.Reconcile(authoritative[id]); drift != 0 {
			util.LogWarnf("building %s drifted by %d, snapshot wins", id, drift)
		}
	}

	s.mu.Lock()
	s.reconciled = true
	s.mu.Unlock()
	return nil
}

// Building returns the building for a category id.
func (s *SortingScene) Building(categoryID string) (*entity.Building, bool) {
	b, ok := s.buildings[categoryID]
	return b, ok
}

// Views snapshots every building in skyline order.
func (s *SortingScene) Views(now time.Time) []entity.BuildingView {
	out := make([]entity.BuildingView, 0, len(s.order))
	for _, b := range s.order {
		out = append(out, b.View(now))
	}
	return out
}

// Totals returns current per-category counters.
func (s *SortingScene) Totals() map[string]int {
	out := make(map[string]int, len(s.order))
	for _, b := range s.order {
		out[b.Category().ID] = b.Count()
	}
	return out
}

// Counts reports (delivered, fallbacks) and whether a snapshot reconciled
// the run.
func (s *SortingScene) Counts() (delivered, fallbacks int, reconciled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.delivered, s.fallbacks, s.reconciled
}

// Reset empties the skyline.
func (s *SortingScene) Reset() {
	for _, b := range s.order {
		b.Reset()
	}
	s.mu.Lock()
	s.delivered = 0
	s.fallbacks = 0
	s.reconciled = false
	s.mu.Unlock()
}
