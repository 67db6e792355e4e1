package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"gamified-lms/internal/domain"
)

// Leaderboard is an in-memory implementation of app.LeaderboardStore.
type Leaderboard struct {
	mu      sync.RWMutex
	now     func() time.Time
	entries map[int64]*leaderboardEntry
}

type leaderboardEntry struct {
	domain.LeaderboardEntry
	lastUpdated time.Time
}

func NewLeaderboard() *Leaderboard {
	return NewLeaderboardWithClock(time.Now)
}

func NewLeaderboardWithClock(now func() time.Time) *Leaderboard {
	return &Leaderboard{now: now, entries: make(map[int64]*leaderboardEntry)}
}

func (l *Leaderboard) AddPoints(_ context.Context, userID int64, displayName string, points int) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[userID]
	if !ok {
		e = &leaderboardEntry{LeaderboardEntry: domain.LeaderboardEntry{UserID: userID}}
		l.entries[userID] = e
	}
	if displayName != "" {
		e.DisplayName = displayName
	}
	e.Points += points
	e.lastUpdated = l.now()
	return e.Points, nil
}

func (l *Leaderboard) Points(_ context.Context, userID int64) (int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if e, ok := l.entries[userID]; ok {
		return e.Points, nil
	}
	return 0, nil
}

// Top orders by points desc, then by who reached the score earlier, then by name.
func (l *Leaderboard) Top(_ context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	all := make([]*leaderboardEntry, 0, len(l.entries))
	for _, e := range l.entries {
		all = append(all, e)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Points != all[j].Points {
			return all[i].Points > all[j].Points
		}
		if !all[i].lastUpdated.Equal(all[j].lastUpdated) {
			return all[i].lastUpdated.Before(all[j].lastUpdated)
		}
		return all[i].DisplayName < all[j].DisplayName
	})
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	out := make([]domain.LeaderboardEntry, 0, len(all))
	for _, e := range all {
		out = append(out, e.LeaderboardEntry)
	}
	return out, nil
}
