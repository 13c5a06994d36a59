package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
)

// Redis ist ein Store für Deployments mit mehreren Prozessen. Werte werden
// als JSON-Array ohne TTL abgelegt; Forget löscht den Schlüssel.
type Redis struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func (r *Redis) GetOrCompute(key string, compute func() ([]string, error)) ([]string, error) {
	ctx := context.Background()
	raw, err := r.client.Get(ctx, key).Result()
	switch {
	case err == nil:
		var v []string
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			return nil, fmt.Errorf("cache: corrupt value at %q: %w", key, err)
		}
		return v, nil
	case err != redis.Nil:
		return nil, fmt.Errorf("cache: redis get %q: %w", key, err)
	}

	v, err := compute()
	if err != nil {
		return nil, err
	}
	data, _ := json.Marshal(v)
	if err := r.client.Set(ctx, key, data, 0).Err(); err != nil {
		return nil, fmt.Errorf("cache: redis set %q: %w", key, err)
	}
	return v, nil
}

func (r *Redis) Forget(key string) {
	r.client.Del(context.Background(), key)
}
