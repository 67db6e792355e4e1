package redis

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"gamified-lms/internal/domain"
	"gamified-lms/internal/logger"
)

// AnswerKeyLoader fetches answer keys from the backing store.
type AnswerKeyLoader interface {
	LoadAnswerKey(ctx context.Context, topicID int64) (domain.AnswerKey, error)
}

// AnswerKeyCache caches answer keys in Redis and falls back to a loader on cache miss.
// Keys are stored as JSON so question order survives the round trip:
//
//	SET topic:{topicID}:answer_key {json} EX ttl
type AnswerKeyCache struct {
	client *redis.Client
	loader AnswerKeyLoader
	ttl    time.Duration
	log    *logger.Logger
	sf     singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewAnswerKeyCache(client *redis.Client, loader AnswerKeyLoader, ttl time.Duration, log *logger.Logger) *AnswerKeyCache {
	return &AnswerKeyCache{
		client: client,
		loader: loader,
		ttl:    ttl,
		log:    log.With("service", "RedisAnswerKeyCache"),
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *AnswerKeyCache) GetAnswerKey(ctx context.Context, topicID int64) (domain.AnswerKey, error) {
	if key, ok := c.fromCache(ctx, topicID); ok {
		return key, nil
	}

	result, err, _ := c.sf.Do(strconv.FormatInt(topicID, 10), func() (interface{}, error) {
		// Re-check cache in case another caller filled it.
		if key, ok := c.fromCache(ctx, topicID); ok {
			return key, nil
		}

		key, err := c.loader.LoadAnswerKey(ctx, topicID)
		if err != nil {
			return domain.AnswerKey{}, err
		}

		raw, err := json.Marshal(key)
		if err != nil {
			return domain.AnswerKey{}, err
		}
		// Cache writes are best effort; the loader result is authoritative.
		if err := c.client.Set(ctx, answerKeyKey(topicID), raw, c.ttlWithJitter()).Err(); err != nil {
			c.log.Warn("cache answer key failed", "topic_id", topicID, "error", err)
		}
		return key, nil
	})
	if err != nil {
		return domain.AnswerKey{}, err
	}
	return result.(domain.AnswerKey), nil
}

func (c *AnswerKeyCache) fromCache(ctx context.Context, topicID int64) (domain.AnswerKey, bool) {
	raw, err := c.client.Get(ctx, answerKeyKey(topicID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn("read cached answer key failed", "topic_id", topicID, "error", err)
		}
		return domain.AnswerKey{}, false
	}
	var key domain.AnswerKey
	if err := json.Unmarshal(raw, &key); err != nil {
		return domain.AnswerKey{}, false
	}
	return key, true
}

func answerKeyKey(topicID int64) string {
	return "topic:" + strconv.FormatInt(topicID, 10) + ":answer_key"
}

func (c *AnswerKeyCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
