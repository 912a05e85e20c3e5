package rediscache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mutabaah/mutabaah/core/prayertimes"
)

func TestCache(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	cache := New(redis.NewClient(&redis.Options{Addr: mr.Addr()}))

	_, ok, err := cache.Get(ctx, "prayertimes:2024-03-11:-6.2000,106.8167")
	require.NoError(t, err)
	assert.False(t, ok)

	tt := prayertimes.Timetable{
		Date:      "2024-03-11",
		Timezone:  "Asia/Jakarta",
		Location:  prayertimes.Coordinates{Latitude: -6.2, Longitude: 106.8167},
		Fajr:      "04:36",
		Isha:      "19:08",
		FetchedAt: time.Date(2024, time.March, 11, 1, 0, 0, 0, time.UTC),
	}
	require.NoError(t, cache.Set(ctx, "prayertimes:2024-03-11:-6.2000,106.8167", tt, time.Hour))

	got, ok, err := cache.Get(ctx, "prayertimes:2024-03-11:-6.2000,106.8167")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, tt, got)

	mr.FastForward(time.Hour)
	_, ok, err = cache.Get(ctx, "prayertimes:2024-03-11:-6.2000,106.8167")
	require.NoError(t, err)
	assert.False(t, ok)

	t.Run("corrupt entry", func(t *testing.T) {
		require.NoError(t, mr.Set("bad", "{"))
		_, _, err := cache.Get(ctx, "bad")
		assert.Error(t, err)
	})

	t.Run("server down", func(t *testing.T) {
		mr.Close()
		_, _, err := cache.Get(ctx, "x")
		assert.Error(t, err)
	})
}
