package cache

import (
	"context"
	"time"
)

// Cache is the minimal surface the services need for hot lookups.
type Cache interface {
	Get(ctx context.Context, key string) (interface{}, bool)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// LocalConfig tunes the in-process cache.
type LocalConfig struct {
	DefaultExpiration time.Duration
	CleanupInterval   time.Duration
}

func DefaultLocalConfig() LocalConfig {
	return LocalConfig{
		DefaultExpiration: 5 * time.Minute,
		CleanupInterval:   10 * time.Minute,
	}
}
