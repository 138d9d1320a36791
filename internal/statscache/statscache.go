// FilePath: internal/statscache/statscache.go
package statscache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ardiwira/greenhouse-hub/internal/config"
	"github.com/ardiwira/greenhouse-hub/internal/models"
	"github.com/redis/go-redis/v9"
	nuts "github.com/vaudience/go-nuts"
)

const statsKey = "greenhouse:export:stats"

// Cache keeps the export-page statistics in Redis for a short TTL. The
// stats query scans all four reading tables, and the dashboard polls it
// every few seconds.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// New connects to Redis and verifies the connection.
func New(cfg config.RedisConfig) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("error connecting to Redis: %w", err)
	}

	nuts.L.Infof("[StatsCache] Connected to %s:%d", cfg.Host, cfg.Port)
	return &Cache{client: client, ttl: cfg.StatsTTL}, nil
}

// Get returns the cached stats, or ok=false on miss or decode failure.
func (c *Cache) Get(ctx context.Context) (models.ExportStats, bool) {
	raw, err := c.client.Get(ctx, statsKey).Bytes()
	if err != nil {
		return nil, false
	}
	var stats models.ExportStats
	if err := json.Unmarshal(raw, &stats); err != nil {
		nuts.L.Warnf("[StatsCache] Discarding undecodable cache entry: %v", err)
		return nil, false
	}
	return stats, true
}

// Set stores the stats with the configured TTL. Failures are logged only;
// the cache is an optimization, never a source of truth.
func (c *Cache) Set(ctx context.Context, stats models.ExportStats) {
	raw, err := json.Marshal(stats)
	if err != nil {
		nuts.L.Warnf("[StatsCache] Failed to encode stats: %v", err)
		return
	}
	if err := c.client.Set(ctx, statsKey, raw, c.ttl).Err(); err != nil {
		nuts.L.Warnf("[StatsCache] Failed to store stats: %v", err)
	}
}

// Close releases the Redis connection.
func (c *Cache) Close() error {
	return c.client.Close()
}
