package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"
	"github.com/redis/go-redis/v9"

	"tripmap/internal/domain"
)

const keyPrefix = "tripmap:"

type Options struct {
	Addr     string
	Password string
	DB       int

	// ViewTTL bounds how long a style or viewport change can be masked by
	// a cached view. TripTTL should match the store's prune age.
	ViewTTL time.Duration
	TripTTL time.Duration
}

// RedisCache shares rendered views and trips between instances. Values are
// gzip'd JSON; views carry every route point and compress well.
type RedisCache struct {
	client  *redis.Client
	prefix  string
	viewTTL time.Duration
	tripTTL time.Duration
	logger  *slog.Logger
}

func NewRedisCache(opts Options, logger *slog.Logger) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return &RedisCache{
		client:  client,
		prefix:  keyPrefix,
		viewTTL: opts.ViewTTL,
		tripTTL: opts.TripTTL,
		logger:  logger.With("component", "redis_cache"),
	}, nil
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

// View returns nil, nil on a miss.
func (c *RedisCache) View(ctx context.Context, fingerprint string) (*domain.MapView, error) {
	var view domain.MapView
	found, err := c.load(ctx, KeyMapView(fingerprint), &view)
	if err != nil || !found {
		return nil, err
	}
	return &view, nil
}

func (c *RedisCache) PutView(ctx context.Context, fingerprint string, view domain.MapView) error {
	return c.save(ctx, KeyMapView(fingerprint), view, c.viewTTL)
}

// Trip returns nil, nil on a miss.
func (c *RedisCache) Trip(ctx context.Context, id uuid.UUID) (*domain.Trip, error) {
	var trip domain.Trip
	found, err := c.load(ctx, KeyTrip(id), &trip)
	if err != nil || !found {
		return nil, err
	}
	return &trip, nil
}

func (c *RedisCache) PutTrip(ctx context.Context, trip *domain.Trip) error {
	return c.save(ctx, KeyTrip(trip.ID), trip, c.tripTTL)
}

func (c *RedisCache) DeleteTrip(ctx context.Context, id uuid.UUID) error {
	if err := c.client.Del(ctx, c.prefix+KeyTrip(id)).Err(); err != nil {
		return fmt.Errorf("delete trip %s: %w", id, err)
	}
	return nil
}

func (c *RedisCache) save(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := encode(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := c.client.Set(ctx, c.prefix+key, data, ttl).Err(); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	c.logger.Debug("cache set", "key", key, "size_bytes", len(data), "ttl", ttl)
	return nil
}

func (c *RedisCache) load(ctx context.Context, key string, dest any) (bool, error) {
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		c.logger.Debug("cache miss", "key", key)
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get %s: %w", key, err)
	}
	if err := decode(data, dest); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	c.logger.Debug("cache hit", "key", key, "size_bytes", len(data))
	return true, nil
}

func encode(value any) ([]byte, error) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if err := json.NewEncoder(gz).Encode(value); err != nil {
		return nil, err
	}
	if err := gz.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decode(data []byte, dest any) error {
	gz, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return err
	}
	defer gz.Close()

	raw, err := io.ReadAll(gz)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}
