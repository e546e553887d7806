package redis

import (
	"context"
	"errors"
	"log"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"quiz-session-engine/internal/app"
	"quiz-session-engine/internal/domain"
)

// noBest marks a cached lookup for a user without attempts.
const noBest = "none"

// BestPercentageCache sits in front of the attempt store and the stats
// source. Lookups are cached per user and quiz; a saved attempt drops the
// cached value so the next session reads the fresh best.
type BestPercentageCache struct {
	client *redis.Client
	store  app.AttemptStore
	source app.StatsProvider
	ttl    time.Duration
}

func NewBestPercentageCache(client *redis.Client, store app.AttemptStore, source app.StatsProvider, ttl time.Duration) *BestPercentageCache {
	return &BestPercentageCache{client: client, store: store, source: source, ttl: ttl}
}

func (c *BestPercentageCache) SaveAttempt(ctx context.Context, record domain.AttemptRecord) error {
	if err := c.store.SaveAttempt(ctx, record); err != nil {
		return err
	}
	if err := c.client.Del(ctx, c.key(record.UserID, record.QuizID)).Err(); err != nil {
		log.Printf("invalidate best for %s/%s: %v", record.UserID, record.QuizID, err)
	}
	return nil
}

func (c *BestPercentageCache) BestPercentage(ctx context.Context, userID, quizID string) (int, bool, error) {
	key := c.key(userID, quizID)
	val, err := c.client.Get(ctx, key).Result()
	switch {
	case err == nil:
		if val == noBest {
			return 0, false, nil
		}
		if best, convErr := strconv.Atoi(val); convErr == nil {
			return best, true, nil
		}
	case !errors.Is(err, redis.Nil):
		log.Printf("read cached best %s: %v", key, err)
	}

	best, ok, err := c.source.BestPercentage(ctx, userID, quizID)
	if err != nil {
		return 0, false, err
	}
	cached := noBest
	if ok {
		cached = strconv.Itoa(best)
	}
	_ = c.client.Set(ctx, key, cached, c.ttl).Err()
	return best, ok, nil
}

func (c *BestPercentageCache) key(userID, quizID string) string {
	return "quiz:" + quizID + ":best:" + userID
}
