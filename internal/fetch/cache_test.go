package fetch

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"stagedates/internal/chrono"
	"stagedates/internal/telemetry"

	"github.com/stretchr/testify/require"
)

type movableClock struct {
	mutex sync.Mutex
	now   time.Time
}

func (c *movableClock) Now() time.Time {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.now
}

func (c *movableClock) Location() *time.Location {
	return c.now.Location()
}

func (c *movableClock) advance(d time.Duration) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.now = c.now.Add(d)
}

var _ chrono.API = (*movableClock)(nil)

func TestCachedFetcher(t *testing.T) {
	var hits atomic.Int32
	srv := newTestServer(t, &hits)

	db, err := OpenCache("")
	require.NoError(t, err)
	defer db.Close()

	tel := telemetry.NewRecorderAPI()
	clock := &movableClock{now: time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)}
	fetcher := NewCachedFetcher(
		NewClient(Options{Timeout: 5 * time.Second}, tel),
		db,
		time.Hour,
		clock,
		tel,
	)

	for i := 0; i < 3; i++ {
		doc, err := fetcher.Fetch(context.Background(), srv.URL+"/show#tickets")
		require.NoError(t, err)
		require.Equal(t, "Der Komet", doc.Find("h1").Text())
	}
	require.Equal(t, int32(1), hits.Load())

	clock.advance(2 * time.Hour)
	_, err = fetcher.Fetch(context.Background(), srv.URL+"/show")
	require.NoError(t, err)
	require.Equal(t, int32(2), hits.Load())
}

func TestCachedFetcherDoesNotCacheFailures(t *testing.T) {
	var hits atomic.Int32
	srv := newTestServer(t, &hits)

	db, err := OpenCache("")
	require.NoError(t, err)
	defer db.Close()

	tel := telemetry.NewRecorderAPI()
	fetcher := NewCachedFetcher(
		NewClient(Options{Timeout: 5 * time.Second}, tel),
		db,
		time.Hour,
		chrono.NewFixedImpl(time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)),
		tel,
	)

	_, err = fetcher.Fetch(context.Background(), srv.URL+"/missing")
	require.ErrorIs(t, err, ErrStatus)
	_, err = fetcher.Fetch(context.Background(), srv.URL+"/missing")
	require.ErrorIs(t, err, ErrStatus)
}

func TestCacheKey(t *testing.T) {
	a, err := cacheKey("https://Example.com/spielplan/?b=2&a=1#top")
	require.NoError(t, err)
	b, err := cacheKey("https://example.com/spielplan/?a=1&b=2")
	require.NoError(t, err)
	require.Equal(t, a, b)
}
