package jobqueue

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hubenschmidt/speakscore-engine/internal/apperr"
)

// RedisStore is the optional distributed mirror of the job map (§4.9),
// adapted from zero-day-ai-sdk/queue/client.go's RedisClient: same
// go-redis/v9 client construction and Ping-on-connect, but a keyed
// job-state store (HSET/HGETALL per job id, EXPIRE for the TTL) in place
// of that file's LPUSH/BRPOP work queue, since job lookup here is
// owner-scoped point reads rather than FIFO consumption.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to url (e.g. "redis://localhost:6379").
func NewRedisStore(url string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindConfiguration, "parse redis url", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, apperr.Wrap(apperr.KindUpstream, "connect to redis", err)
	}

	return &RedisStore{client: client}, nil
}

func jobKey(jobID string) string {
	return fmt.Sprintf("job:%s", jobID)
}

// Put writes j as a Redis hash field "data" holding its JSON encoding, with
// an EXPIRE set to ttl measured from now.
func (r *RedisStore) Put(ctx context.Context, j *Job, ttl time.Duration) error {
	data, err := marshalJob(j)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	key := jobKey(j.ID)
	if err := r.client.HSet(ctx, key, "data", string(data)).Err(); err != nil {
		return fmt.Errorf("hset job %s: %w", j.ID, err)
	}
	if err := r.client.Expire(ctx, key, ttl).Err(); err != nil {
		return fmt.Errorf("expire job %s: %w", j.ID, err)
	}
	return nil
}

// Get reads a job by id. Returns (nil, nil) if the key is absent so the
// caller can fall back to the local store without treating a miss as an
// error.
func (r *RedisStore) Get(ctx context.Context, jobID string) (*Job, error) {
	data, err := r.client.HGet(ctx, jobKey(jobID), "data").Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("hget job %s: %w", jobID, err)
	}
	return unmarshalJob([]byte(data))
}

// Close closes the underlying Redis connection.
func (r *RedisStore) Close() error {
	return r.client.Close()
}
