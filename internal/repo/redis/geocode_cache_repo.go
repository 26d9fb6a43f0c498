package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"

	goredis "github.com/redis/go-redis/v9"
)

// GeocodeCacheRepo stores reverse-geocode labels. Entries never expire since
// a coordinate always resolves to the same place.
type GeocodeCacheRepo struct {
	client *goredis.Client
}

func NewGeocodeCacheRepo(client *goredis.Client) *GeocodeCacheRepo {
	return &GeocodeCacheRepo{client: client}
}

func (r *GeocodeCacheRepo) Get(ctx context.Context, key string) (string, bool, error) {
	if r.client == nil {
		return "", false, fmt.Errorf("redis client is nil")
	}
	if strings.TrimSpace(key) == "" {
		return "", false, fmt.Errorf("cache key is required")
	}

	label, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("get geocode label: %w", err)
	}

	return label, true, nil
}

func (r *GeocodeCacheRepo) Set(ctx context.Context, key, label string) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("cache key is required")
	}

	if err := r.client.Set(ctx, key, label, 0).Err(); err != nil {
		return fmt.Errorf("set geocode label: %w", err)
	}

	return nil
}
