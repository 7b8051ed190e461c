package store

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// Build constructs a Store from configuration. backend is one of "file",
// "redis" or "memory".
func Build(ctx context.Context, backend, filePath, redisURL, redisPrefix string, log zerolog.Logger) (Store, error) {
	switch backend {
	case "file", "":
		return NewFile(filePath), nil
	case "redis":
		rdb, err := NewRedisClient(ctx, redisURL, log)
		if err != nil {
			return nil, err
		}
		return NewRedis(rdb, redisPrefix), nil
	case "memory":
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown credential store backend %q", backend)
	}
}
