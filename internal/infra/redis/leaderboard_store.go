package redis

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"gamified-lms/internal/domain"
)

const (
	pointsKey  = "leaderboard:points"
	namesKey   = "leaderboard:names"
	updatedKey = "leaderboard:updated"
)

// LeaderboardStore keeps points in a sorted set so instances share one scoreboard.
//
//	ZINCRBY leaderboard:points {points} {userID}
//	HSET    leaderboard:names  {userID} {displayName}
//	HSET    leaderboard:updated {userID} {unixNano}
type LeaderboardStore struct {
	client *redis.Client
	now    func() time.Time
}

func NewLeaderboardStore(client *redis.Client) *LeaderboardStore {
	return NewLeaderboardStoreWithClock(client, time.Now)
}

func NewLeaderboardStoreWithClock(client *redis.Client, now func() time.Time) *LeaderboardStore {
	return &LeaderboardStore{client: client, now: now}
}

func (s *LeaderboardStore) AddPoints(ctx context.Context, userID int64, displayName string, points int) (int, error) {
	member := strconv.FormatInt(userID, 10)
	pipe := s.client.TxPipeline()
	incr := pipe.ZIncrBy(ctx, pointsKey, float64(points), member)
	if displayName != "" {
		pipe.HSet(ctx, namesKey, member, displayName)
	}
	pipe.HSet(ctx, updatedKey, member, s.now().UnixNano())
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return int(incr.Val()), nil
}

func (s *LeaderboardStore) Points(ctx context.Context, userID int64) (int, error) {
	score, err := s.client.ZScore(ctx, pointsKey, strconv.FormatInt(userID, 10)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return int(score), nil
}

// Top orders by points desc, then by who reached the score earlier, then by name.
// ZREVRANGE alone breaks ties by member order, so the whole set is ranked here.
func (s *LeaderboardStore) Top(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	members, err := s.client.ZRevRangeWithScores(ctx, pointsKey, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return []domain.LeaderboardEntry{}, nil
	}
	ids := make([]string, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.Member.(string))
	}
	names, err := s.client.HMGet(ctx, namesKey, ids...).Result()
	if err != nil {
		return nil, err
	}
	updated, err := s.client.HMGet(ctx, updatedKey, ids...).Result()
	if err != nil {
		return nil, err
	}

	type ranked struct {
		domain.LeaderboardEntry
		updatedAt int64
	}
	all := make([]ranked, 0, len(members))
	for i, m := range members {
		id, err := strconv.ParseInt(ids[i], 10, 64)
		if err != nil {
			continue
		}
		name, _ := names[i].(string)
		raw, _ := updated[i].(string)
		at, _ := strconv.ParseInt(raw, 10, 64)
		all = append(all, ranked{
			LeaderboardEntry: domain.LeaderboardEntry{UserID: id, DisplayName: name, Points: int(m.Score)},
			updatedAt:        at,
		})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Points != all[j].Points {
			return all[i].Points > all[j].Points
		}
		if all[i].updatedAt != all[j].updatedAt {
			return all[i].updatedAt < all[j].updatedAt
		}
		return all[i].DisplayName < all[j].DisplayName
	})
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	entries := make([]domain.LeaderboardEntry, 0, len(all))
	for _, e := range all {
		entries = append(entries, e.LeaderboardEntry)
	}
	return entries, nil
}
