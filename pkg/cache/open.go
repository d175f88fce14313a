package cache

import (
	"context"
	"fmt"
)

// Options selects a backend for Open.
type Options struct {
	Backend   string // "file", "redis" or "none"
	Dir       string
	RedisAddr string
	RedisDB   int
}

// Open returns the cache described by opts.
func Open(ctx context.Context, opts Options) (Cache, error) {
	switch opts.Backend {
	case "", "file":
		return NewFileCache(opts.Dir)
	case "redis":
		return NewRedisCache(ctx, RedisOptions{Addr: opts.RedisAddr, DB: opts.RedisDB})
	case "none":
		return NewNullCache(), nil
	}
	return nil, fmt.Errorf("unknown cache backend %q", opts.Backend)
}
