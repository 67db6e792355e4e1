package memory

import (
	"context"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"gamified-lms/internal/domain"
)

// AnswerKeyLoader fetches an answer key from the backing store.
type AnswerKeyLoader interface {
	LoadAnswerKey(ctx context.Context, topicID int64) (domain.AnswerKey, error)
}

// AnswerKeyCache caches answer keys with TTL to avoid repeated DB hits.
// Questions never change once written, so a cached key cannot go stale.
type AnswerKeyCache struct {
	loader AnswerKeyLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand
	rndMu  sync.Mutex

	mu    sync.RWMutex
	cache map[int64]cachedKey
}

type cachedKey struct {
	key       domain.AnswerKey
	expiresAt time.Time
}

func NewAnswerKeyCache(loader AnswerKeyLoader, ttl time.Duration) *AnswerKeyCache {
	return &AnswerKeyCache{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[int64]cachedKey),
	}
}

func (c *AnswerKeyCache) GetAnswerKey(ctx context.Context, topicID int64) (domain.AnswerKey, error) {
	if key, ok := c.lookup(topicID); ok {
		return key, nil
	}

	result, err, _ := c.sf.Do(sfKey(topicID), func() (interface{}, error) {
		if key, ok := c.lookup(topicID); ok {
			return key, nil
		}
		key, err := c.loader.LoadAnswerKey(ctx, topicID)
		if err != nil {
			return domain.AnswerKey{}, err
		}
		c.mu.Lock()
		c.cache[topicID] = cachedKey{key: key, expiresAt: c.clock().Add(c.ttlWithJitter())}
		c.mu.Unlock()
		return key, nil
	})
	if err != nil {
		return domain.AnswerKey{}, err
	}
	return result.(domain.AnswerKey), nil
}

func (c *AnswerKeyCache) lookup(topicID int64) (domain.AnswerKey, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.cache[topicID]
	if !ok || !entry.expiresAt.After(c.clock()) {
		return domain.AnswerKey{}, false
	}
	return entry.key, true
}

func (c *AnswerKeyCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

func sfKey(topicID int64) string {
	return "topic:" + strconv.FormatInt(topicID, 10)
}
