package history

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"

	"github.com/intervention-engine/cvrisk/trend"
)

const redisKeyPrefix = "cvrisk:history:"

// RedisRepository keeps each subject's series as a JSON list, appended with
// RPUSH and trimmed with LTRIM so the list never exceeds the retention.
// Snapshots are expected to arrive in time order.
type RedisRepository struct {
	c     *redis.Client
	limit int
}

// NewRedisRepository wraps an existing client. The caller owns the client.
func NewRedisRepository(c *redis.Client, limit int) *RedisRepository {
	return &RedisRepository{c: c, limit: retention(limit)}
}

// DialRedisRepository connects to addr and checks the connection.
func DialRedisRepository(ctx context.Context, addr, password string, db, limit int) (*RedisRepository, error) {
	c := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := c.Ping(ctx).Err(); err != nil {
		c.Close()
		return nil, fmt.Errorf("history: connecting to redis: %w", err)
	}
	return NewRedisRepository(c, limit), nil
}

func redisKey(subject string) string {
	return redisKeyPrefix + subject
}

func (r *RedisRepository) Get(ctx context.Context, subject string, limit int) (*trend.Series, error) {
	n := window(limit, r.limit)
	vals, err := r.c.LRange(ctx, redisKey(subject), int64(-n), -1).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("history: reading snapshots: %w", err)
	}
	if len(vals) == 0 {
		return nil, ErrNotFound
	}
	series := trend.NewSeries(subject, r.limit)
	for _, v := range vals {
		var snap trend.Snapshot
		if err := json.Unmarshal([]byte(v), &snap); err != nil {
			return nil, fmt.Errorf("history: decoding snapshot: %w", err)
		}
		series.Snapshots = append(series.Snapshots, snap)
	}
	return series, nil
}

func (r *RedisRepository) Append(ctx context.Context, subject string, snap trend.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("history: encoding snapshot: %w", err)
	}
	key := redisKey(subject)
	_, err = r.c.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.RPush(ctx, key, data)
		p.LTrim(ctx, key, int64(-r.limit), -1)
		return nil
	})
	if err != nil {
		return fmt.Errorf("history: appending snapshot: %w", err)
	}
	return nil
}

func (r *RedisRepository) Close() error {
	return r.c.Close()
}
