package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/notas4int/url-cutter/internal/domain"
	"github.com/redis/go-redis/v9"
)

type LinkCache struct {
	client *redis.Client
}

func NewLinkCache(client *redis.Client) *LinkCache {
	return &LinkCache{client: client}
}

func key(alias string) string {
	return fmt.Sprintf("link:%s", alias)
}

// GetLink returns (nil, nil) when alias is not cached.
func (r *LinkCache) GetLink(ctx context.Context, alias string) (*domain.Link, error) {
	data, err := r.client.Get(ctx, key(alias)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var link domain.Link
	if err := json.Unmarshal(data, &link); err != nil {
		return nil, err
	}

	return &link, nil
}

// SetLink caches link for ttl. A non-positive ttl stores nothing.
func (r *LinkCache) SetLink(ctx context.Context, link *domain.Link, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	data, err := json.Marshal(link)
	if err != nil {
		return err
	}

	return r.client.Set(ctx, key(link.Alias), data, ttl).Err()
}

func (r *LinkCache) DeleteLink(ctx context.Context, alias string) error {
	return r.client.Del(ctx, key(alias)).Err()
}
