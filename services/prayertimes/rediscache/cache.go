// Package rediscache stores prayer timetables in redis as JSON.
package rediscache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/mutabaah/mutabaah/core"
	"github.com/mutabaah/mutabaah/core/prayertimes"
)

type Cache struct {
	rdb *redis.Client
}

var _ prayertimes.Cache = (*Cache)(nil)

func New(rdb *redis.Client) *Cache {
	return &Cache{rdb: rdb}
}

// NewClient connects to conf.Redis; nil when no address is configured.
func NewClient(conf *core.Config) *redis.Client {
	if conf.Redis.Addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     conf.Redis.Addr,
		Password: conf.Redis.Password,
		DB:       conf.Redis.DB,
	})
}

func (c *Cache) Get(ctx context.Context, key string) (prayertimes.Timetable, bool, error) {
	data, err := c.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return prayertimes.Timetable{}, false, nil
	}
	if err != nil {
		return prayertimes.Timetable{}, false, errors.Wrap(err, "reading timetable")
	}
	var tt prayertimes.Timetable
	if err = json.Unmarshal(data, &tt); err != nil {
		return prayertimes.Timetable{}, false, errors.Wrap(err, "decoding timetable")
	}
	return tt, true, nil
}

func (c *Cache) Set(ctx context.Context, key string, tt prayertimes.Timetable, ttl time.Duration) error {
	data, err := json.Marshal(tt)
	if err != nil {
		return errors.Wrap(err, "encoding timetable")
	}
	if err = c.rdb.Set(ctx, key, data, ttl).Err(); err != nil {
		return errors.Wrap(err, "writing timetable")
	}
	return nil
}
