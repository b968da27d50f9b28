package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"telemetry-service/internal/config"
	"telemetry-service/internal/model"
)

// LiveCache keeps the latest position per vehicle in Redis so the
// live-tracking view does not hit Postgres on every poll. Writes are
// best-effort: a cache failure never fails a ping.
type LiveCache struct {
	client *redis.Client
	ttl    time.Duration
}

func New(ctx context.Context, cfg config.RedisConfig) (*LiveCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return &LiveCache{client: client, ttl: cfg.LiveTTL}, nil
}

func (c *LiveCache) Close() error {
	return c.client.Close()
}

func liveKey(vehicleID uuid.UUID) string {
	return fmt.Sprintf("vehicle:%s:live", vehicleID)
}

func (c *LiveCache) SetLatest(ctx context.Context, pos model.LivePosition) error {
	b, err := json.Marshal(pos)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, liveKey(pos.VehicleID), b, c.ttl).Err()
}

// Latest returns the cached position, or nil on a miss.
func (c *LiveCache) Latest(ctx context.Context, vehicleID uuid.UUID) (*model.LivePosition, error) {
	raw, err := c.client.Get(ctx, liveKey(vehicleID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var pos model.LivePosition
	if err := json.Unmarshal([]byte(raw), &pos); err != nil {
		return nil, err
	}
	return &pos, nil
}
