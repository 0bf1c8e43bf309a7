package cache_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/datefmt/pkg/cache"
)

func TestDialRedis_InvalidURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		url     string
		wantErr error
	}{
		{"empty", "", cache.ErrEmptyRedisURL},
		{"wrong scheme", "http://localhost:6379", cache.ErrInvalidRedisURL},
		{"bad database", "redis://localhost:6379/notanumber", cache.ErrInvalidRedisURL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := cache.DialRedis(context.Background(), tt.url)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestRedisHealthcheck_NilClient(t *testing.T) {
	t.Parallel()

	err := cache.RedisHealthcheck(nil)(context.Background())
	require.ErrorIs(t, err, cache.ErrRedisHealthcheck)
}
