package sessionstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/irsalhamdi/govod-storefront/config"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "govod:session:"

// OpenRedis connects and pings, retrying a few times while the server comes up.
func OpenRedis(ctx context.Context, cfg config.Redis) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	const attempts = 4
	var err error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			time.Sleep(time.Second)
		}
		if err = client.Ping(ctx).Err(); err == nil {
			return client, nil
		}
	}

	client.Close()
	return nil, fmt.Errorf("connecting to redis after %d attempts: %w", attempts, err)
}

// Redis keeps each session under its own key and lets the server expire it.
type Redis struct {
	client *redis.Client
	prefix string
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client, prefix: keyPrefix}
}

func (s *Redis) Find(token string) ([]byte, bool, error) {
	return s.FindCtx(context.Background(), token)
}

func (s *Redis) Commit(token string, b []byte, expiry time.Time) error {
	return s.CommitCtx(context.Background(), token, b, expiry)
}

func (s *Redis) Delete(token string) error {
	return s.DeleteCtx(context.Background(), token)
}

func (s *Redis) FindCtx(ctx context.Context, token string) ([]byte, bool, error) {
	b, err := s.client.Get(ctx, s.prefix+token).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return b, true, nil
}

func (s *Redis) CommitCtx(ctx context.Context, token string, b []byte, expiry time.Time) error {
	ttl := time.Until(expiry)
	if ttl <= 0 {
		return s.DeleteCtx(ctx, token)
	}
	return s.client.Set(ctx, s.prefix+token, b, ttl).Err()
}

func (s *Redis) DeleteCtx(ctx context.Context, token string) error {
	return s.client.Del(ctx, s.prefix+token).Err()
}
