package app

import (
	"context"
	"sync"
	"time"

	"gamified-lms/internal/domain"
)

const (
	defaultLeaderboardSize = 10
	maxLeaderboardLimit    = 100
)

// LeaderboardService awards points and fans leaderboard snapshots out to live subscribers.
type LeaderboardService struct {
	store LeaderboardStore
	hub   *Hub
	size  int

	// publishMu orders snapshot reads with their broadcasts so the last
	// snapshot a subscriber sees is never older than one sent before it.
	publishMu sync.Mutex
}

func NewLeaderboardService(store LeaderboardStore, size int) *LeaderboardService {
	if size <= 0 {
		size = defaultLeaderboardSize
	}
	return &LeaderboardService{store: store, hub: NewHub(time.Now), size: size}
}

// Award credits points to the actor and broadcasts the new standings.
func (s *LeaderboardService) Award(ctx context.Context, actor domain.Actor, points int) error {
	if _, err := s.store.AddPoints(ctx, actor.UserID, actor.Name, points); err != nil {
		return err
	}
	s.publishMu.Lock()
	defer s.publishMu.Unlock()
	entries, err := s.store.Top(ctx, s.size)
	if err != nil {
		return err
	}
	s.hub.Broadcast(entries)
	return nil
}

// Leaderboard returns the top entries; limit <= 0 uses the configured size and
// larger requests are capped at maxLeaderboardLimit.
func (s *LeaderboardService) Leaderboard(ctx context.Context, actor domain.Actor, limit int) (domain.Leaderboard, error) {
	if err := domain.Authorize(actor.Role, domain.AnyRole...); err != nil {
		return domain.Leaderboard{}, err
	}
	if limit <= 0 {
		limit = s.size
	}
	if limit > maxLeaderboardLimit {
		limit = maxLeaderboardLimit
	}
	entries, err := s.store.Top(ctx, limit)
	if err != nil {
		return domain.Leaderboard{}, err
	}
	return domain.Leaderboard{Entries: entries, UpdatedAt: s.hub.now()}, nil
}

// Stats returns the actor's points and level.
func (s *LeaderboardService) Stats(ctx context.Context, actor domain.Actor) (domain.Stats, error) {
	if err := domain.Authorize(actor.Role, domain.AnyRole...); err != nil {
		return domain.Stats{}, err
	}
	points, err := s.store.Points(ctx, actor.UserID)
	if err != nil {
		return domain.Stats{}, err
	}
	return domain.Stats{TotalPoints: points, Level: domain.LevelForPoints(points)}, nil
}

// Subscribe returns a channel that receives leaderboard updates.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *LeaderboardService) Subscribe(ctx context.Context, actor domain.Actor) (<-chan domain.Leaderboard, func(), error) {
	if err := domain.Authorize(actor.Role, domain.AnyRole...); err != nil {
		return nil, nil, err
	}
	s.publishMu.Lock()
	defer s.publishMu.Unlock()
	entries, err := s.store.Top(ctx, s.size)
	if err != nil {
		return nil, nil, err
	}
	ch, cancel := s.hub.Subscribe(entries)
	return ch, cancel, nil
}

// Hub holds live leaderboard subscribers.
type Hub struct {
	now         func() time.Time
	mu          sync.Mutex
	subscribers map[chan domain.Leaderboard]struct{}
}

// NewHub takes a clock so tests get deterministic timestamps.
func NewHub(now func() time.Time) *Hub {
	return &Hub{
		now:         now,
		subscribers: make(map[chan domain.Leaderboard]struct{}),
	}
}

// Subscribe registers a subscriber and primes it with the given entries.
func (h *Hub) Subscribe(initial []domain.LeaderboardEntry) (<-chan domain.Leaderboard, func()) {
	ch := make(chan domain.Leaderboard, 8)

	h.mu.Lock()
	h.subscribers[ch] = struct{}{}
	h.mu.Unlock()

	ch <- domain.Leaderboard{Entries: initial, UpdatedAt: h.now()}

	cancel := func() {
		h.mu.Lock()
		if _, ok := h.subscribers[ch]; ok {
			delete(h.subscribers, ch)
			close(ch)
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

// Broadcast sends a snapshot to every subscriber without blocking on slow readers.
func (h *Hub) Broadcast(entries []domain.LeaderboardEntry) domain.Leaderboard {
	h.mu.Lock()
	defer h.mu.Unlock()

	lb := domain.Leaderboard{Entries: entries, UpdatedAt: h.now()}
	for ch := range h.subscribers {
		select {
		case ch <- lb:
		default:
			// Drop the oldest snapshot so the newest always lands.
			select {
			case <-ch:
			default:
			}
			ch <- lb
		}
	}
	return lb
}

// Subscribers reports how many subscribers are attached.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}
