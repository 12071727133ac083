package redis

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"quizsite-service/internal/app"
	"quizsite-service/internal/domain"
)

const leaderboardKeyPrefix = "quiz:leaderboard:"

// LeaderboardCache keeps ranked sessions in Redis under quiz:leaderboard:top:{limit}.
// Entries are dropped whenever a session completes.
type LeaderboardCache struct {
	client *redis.Client
	src    app.LeaderboardSource
	ttl    time.Duration
	sf     singleflight.Group
}

func NewLeaderboardCache(client *redis.Client, src app.LeaderboardSource, ttl time.Duration) *LeaderboardCache {
	return &LeaderboardCache{client: client, src: src, ttl: ttl}
}

func (c *LeaderboardCache) TopSessions(ctx context.Context, limit int) ([]domain.QuizSession, error) {
	key := leaderboardKeyPrefix + "top:" + strconv.Itoa(limit)
	var sessions []domain.QuizSession
	if hit, err := getJSON(ctx, c.client, key, &sessions); err == nil && hit {
		return sessions, nil
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		sessions, err := c.src.TopSessions(ctx, limit)
		if err != nil {
			return nil, err
		}
		_ = setJSON(ctx, c.client, key, sessions, c.ttl)
		return sessions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.QuizSession), nil
}

// Invalidate removes every cached ranking.
func (c *LeaderboardCache) Invalidate(ctx context.Context) error {
	return deleteMatching(ctx, c.client, leaderboardKeyPrefix+"*")
}
