package redis_test

import (
	"context"
	"encoding/json"
	"os"
	"sync"
	"testing"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cache "github.com/PabloGalante/idefend/internal/adapters/cache/redis"
	"github.com/PabloGalante/idefend/internal/domain"
)

type countingSource struct {
	mu    sync.Mutex
	calls int
}

func (s *countingSource) Search(ctx context.Context, query string) ([]domain.Article, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return []domain.Article{{
		Title:       "Result for " + query,
		Description: "desc",
		URL:         "https://example.com/" + query,
		PublishedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}}, nil
}

func (s *countingSource) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func TestSearchFallsBackWhenRedisUnreachable(t *testing.T) {
	client := goredis.NewClient(&goredis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	src := &countingSource{}
	cached := cache.NewCachedSource(client, src, "", 0)

	articles, err := cached.Search(context.Background(), "law")
	require.NoError(t, err)
	require.Len(t, articles, 1)
	assert.Equal(t, 1, src.Calls())
}

func TestSearchCachesResults(t *testing.T) {
	addr := os.Getenv("IDEFEND_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("IDEFEND_TEST_REDIS_ADDR not set")
	}

	ctx := context.Background()
	client, err := cache.NewClient(ctx, cache.Options{Addr: addr})
	require.NoError(t, err)
	defer client.Close()

	prefix := "idefend-test:" + uuid.NewString() + ":"
	src := &countingSource{}
	cached := cache.NewCachedSource(client, src, prefix, time.Minute)

	first, err := cached.Search(ctx, "tenant rights")
	require.NoError(t, err)
	second, err := cached.Search(ctx, "tenant rights")
	require.NoError(t, err)

	assert.Equal(t, 1, src.Calls())
	assert.Equal(t, first[0].Title, second[0].Title)
	assert.True(t, first[0].PublishedAt.Equal(second[0].PublishedAt))

	ttl, err := client.TTL(ctx, prefix+"q:tenant rights").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, 50*time.Second)
	assert.LessOrEqual(t, ttl, 66*time.Second)
}

func TestSearchCachesWithJitteredTTL(t *testing.T) {
	fake := newFakeRedis()
	src := &countingSource{}
	cached := cache.NewCachedSource(fake, src, "t:", time.Minute)
	ctx := context.Background()

	first, err := cached.Search(ctx, "police rights")
	require.NoError(t, err)
	second, err := cached.Search(ctx, "police rights")
	require.NoError(t, err)

	assert.Equal(t, 1, src.Calls())
	assert.Equal(t, first[0].URL, second[0].URL)
	assert.False(t, fake.has("t:lock:police rights"))

	ttl := fake.ttl("t:q:police rights")
	assert.GreaterOrEqual(t, ttl, time.Minute)
	assert.Less(t, ttl, time.Minute+6*time.Second)
}

func TestSearchWaitsForConcurrentLoader(t *testing.T) {
	fake := newFakeRedis()
	fake.put("t:lock:law", "1", time.Second)

	src := &countingSource{}
	cached := cache.NewCachedSource(fake, src, "t:", time.Minute)

	loaded, err := (&countingSource{}).Search(context.Background(), "law")
	require.NoError(t, err)
	payload, err := json.Marshal(loaded)
	require.NoError(t, err)
	timer := time.AfterFunc(20*time.Millisecond, func() { fake.put("t:q:law", payload, time.Minute) })
	defer timer.Stop()

	articles, err := cached.Search(context.Background(), "law")
	require.NoError(t, err)
	require.Len(t, articles, 1)
	assert.Equal(t, 0, src.Calls())
}

// cancellingSource cancels the caller's context while it loads.
type cancellingSource struct {
	countingSource
	cancel context.CancelFunc
}

func (s *cancellingSource) Search(ctx context.Context, query string) ([]domain.Article, error) {
	articles, err := s.countingSource.Search(ctx, query)
	s.cancel()
	return articles, err
}

func TestSearchReleasesLockAfterCallerCancels(t *testing.T) {
	fake := newFakeRedis()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	src := &cancellingSource{cancel: cancel}
	cached := cache.NewCachedSource(fake, src, "t:", time.Minute)

	_, err := cached.Search(ctx, "eviction")
	require.NoError(t, err)
	assert.False(t, fake.has("t:lock:eviction"))
}
