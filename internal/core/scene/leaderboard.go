package scene

import (
	"sort"
	"sync"

	"github.com/tweetown/tweetown/internal/core/event"
)

// DefaultLeaderboardSize caps the ranking shown in the dashboard.
const DefaultLeaderboardSize = 5

// AuthorRank is one leaderboard row.
type AuthorRank struct {
	Username string  `json:"username"`
	Average  float64 `json:"average"`
	Count    int     `json:"count"`
	Passed   int     `json:"passed"`
	PassRate float64 `json:"pass_rate"`
}

type authorStat struct {
	total  float64
	count  int
	passed int
}

// Leaderboard accumulates review scores per author. The author set is
// bounded by one run's distinct usernames, so re-sorting on every read stays
// cheap.
type Leaderboard struct {
	mu    sync.Mutex
	stats map[string]*authorStat
	size  int
}

// NewLeaderboard creates a board keeping the top size authors. Zero or
// negative sizes fall back to the default.
func NewLeaderboard(size int) *Leaderboard {
	if size <= 0 {
		size = DefaultLeaderboardSize
	}
	return &Leaderboard{
		stats: make(map[string]*authorStat),
		size:  size,
	}
}

// Record folds one review result into the author's running totals. Rejected
// authors rank too; a low average is its own commentary.
func (l *Leaderboard) Record(p event.ReviewResult) {
	if p.Username == "" {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	st, ok := l.stats[p.Username]
	if !ok {
		st = &authorStat{}
		l.stats[p.Username] = st
	}
	st.total += p.Score
	st.count++
	if p.Passed {
		st.passed++
	}
}

// Top returns the highest-averaging authors, ties broken by username so the
// board does not jitter between renders.
func (l *Leaderboard) Top() []AuthorRank {
	l.mu.Lock()
	defer l.mu.Unlock()

	ranks := make([]AuthorRank, 0, len(l.stats))
	for username, st := range l.stats {
		ranks = append(ranks, AuthorRank{
			Username: username,
			Average:  st.total / float64(st.count),
			Count:    st.count,
			Passed:   st.passed,
			PassRate: float64(st.passed) / float64(st.count),
		})
	}

	sort.Slice(ranks, func(i, j int) bool {
		if ranks[i].Average != ranks[j].Average {
			return ranks[i].Average > ranks[j].Average
		}
		return ranks[i].Username < ranks[j].Username
	})

	if len(ranks) > l.size {
		ranks = ranks[:l.size]
	}
	return ranks
}

// Authors returns how many distinct authors have been scored.
func (l *Leaderboard) Authors() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.stats)
}

// Reset clears the board.
func (l *Leaderboard) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stats = make(map[string]*authorStat)
}
