package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// DefaultSnapshotKey is the key holding the course snapshot when none is configured.
const DefaultSnapshotKey = "grades:courses"

// Backend persists the whole course snapshot as one opaque document.
type Backend interface {
	// Load returns the stored document, or ErrNoSnapshot.
	Load(ctx context.Context) ([]byte, error)
	// Save replaces the stored document.
	Save(ctx context.Context, data []byte) error
	Close() error
}

// RedisService stores the snapshot under a single Redis string key
type RedisService struct {
	Client *redis.Client
	Key    string
}

// RedisOptions configures the Redis connection
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisService creates a new RedisService instance
func NewRedisService(client *redis.Client, key string) *RedisService {
	if key == "" {
		key = DefaultSnapshotKey
	}
	return &RedisService{Client: client, Key: key}
}

// Load reads the snapshot document
func (s *RedisService) Load(ctx context.Context) ([]byte, error) {
	data, err := s.Client.Get(ctx, s.Key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNoSnapshot
		}
		return nil, fmt.Errorf("failed to get snapshot from Redis: %w", err)
	}
	return data, nil
}

// Save overwrites the snapshot document
func (s *RedisService) Save(ctx context.Context, data []byte) error {
	if err := s.Client.Set(ctx, s.Key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to write snapshot to Redis: %w", err)
	}
	return nil
}

func (s *RedisService) Close() error {
	return s.Client.Close()
}

// InitializeRedisClient creates and tests a Redis client connection
func InitializeRedisClient(ctx context.Context, opts RedisOptions, logger *zap.Logger) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("could not connect to Redis at %s: %w", opts.Addr, err)
	}

	logger.Info("connected to Redis", zap.String("addr", opts.Addr), zap.Int("db", opts.DB))
	return rdb, nil
}
