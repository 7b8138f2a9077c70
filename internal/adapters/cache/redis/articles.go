package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/PabloGalante/idefend/internal/domain"
	"github.com/PabloGalante/idefend/internal/observability"
)

const (
	DefaultPrefix = "idefend:articles:"
	DefaultTTL    = 15 * time.Minute

	lockTTL      = 10 * time.Second
	lockAttempts = 5
	lockBackoff  = 50 * time.Millisecond
)

type Options struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	TTL      time.Duration
}

// NewClient dials Redis and checks the connection.
func NewClient(ctx context.Context, opts Options) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// CachedSource serves article searches from Redis and falls through to the
// wrapped source on a miss. Cache errors never fail a search.
type CachedSource struct {
	client redis.Cmdable
	source domain.ArticleSource
	prefix string
	ttl    time.Duration
}

func NewCachedSource(client redis.Cmdable, source domain.ArticleSource, prefix string, ttl time.Duration) *CachedSource {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &CachedSource{
		client: client,
		source: source,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (c *CachedSource) Search(ctx context.Context, query string) ([]domain.Article, error) {
	log := observability.LoggerFromContext(ctx).With("cache", "redis", "query", query)
	key := c.prefix + "q:" + query

	articles, err := c.get(ctx, key)
	if err == nil {
		log.Debugw("cache hit")
		return articles, nil
	}
	if !errors.Is(err, redis.Nil) {
		log.Warnw("cache read failed, using source", "error", err)
		return c.source.Search(ctx, query)
	}

	lockKey := c.prefix + "lock:" + query
	for range lockAttempts {
		locked, err := c.client.SetNX(ctx, lockKey, "1", lockTTL).Result()
		if err != nil {
			log.Warnw("cache lock failed, using source", "error", err)
			return c.source.Search(ctx, query)
		}
		if locked {
			// release even if the caller gave up mid-load
			defer c.client.Del(context.WithoutCancel(ctx), lockKey)
			return c.load(ctx, key, query)
		}

		// someone else is loading; wait for their write
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lockBackoff):
		}
		if articles, err := c.get(ctx, key); err == nil {
			return articles, nil
		}
	}

	return c.source.Search(ctx, query)
}

func (c *CachedSource) get(ctx context.Context, key string) ([]domain.Article, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, err
	}
	var articles []domain.Article
	if err := json.Unmarshal(data, &articles); err != nil {
		return nil, fmt.Errorf("decode cached articles: %w", err)
	}
	return articles, nil
}

func (c *CachedSource) load(ctx context.Context, key, query string) ([]domain.Article, error) {
	articles, err := c.source.Search(ctx, query)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(articles)
	if err != nil {
		return articles, nil
	}
	if err := c.client.Set(ctx, key, data, c.jitteredTTL()).Err(); err != nil {
		observability.LoggerFromContext(ctx).Warnw("cache write failed", "key", key, "error", err)
	}
	return articles, nil
}

// jitteredTTL spreads expiry over an extra 10% so topics do not expire together.
func (c *CachedSource) jitteredTTL() time.Duration {
	spread := int64(c.ttl / 10)
	if spread <= 0 {
		return c.ttl
	}
	return c.ttl + time.Duration(rand.Int63n(spread))
}
