package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisDialTimeout = 10 * time.Second

// Redis holds the two connections the service keeps open.
//
// Jobs carries the breakdown queue, job locks, feed publishes and the
// translation cache. Feed only subscribes to group_updates channels.
type Redis struct {
	Jobs *redis.Client
	Feed *redis.Client
}

// OpenRedis dials and pings both connections from one URL.
func OpenRedis(ctx context.Context, redisURL string) (*Redis, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, redisDialTimeout)
	defer cancel()

	jobs, err := dialRedis(ctx, opt, "studymate-jobs")
	if err != nil {
		return nil, err
	}
	feed, err := dialRedis(ctx, opt, "studymate-feed")
	if err != nil {
		jobs.Close()
		return nil, err
	}
	return &Redis{Jobs: jobs, Feed: feed}, nil
}

func dialRedis(ctx context.Context, base *redis.Options, name string) (*redis.Client, error) {
	opt := *base
	opt.ClientName = name
	c := redis.NewClient(&opt)
	if err := c.Ping(ctx).Err(); err != nil {
		c.Close()
		return nil, fmt.Errorf("ping redis (%s): %w", name, err)
	}
	return c, nil
}

func (r *Redis) Close() error {
	return errors.Join(r.Jobs.Close(), r.Feed.Close())
}
