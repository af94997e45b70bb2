package database

import (
	"testing"
	"time"

	"iiot-site/internal/common/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisOptions(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.RedisConfig
		wantErr string
	}{
		{name: "missing address", cfg: config.RedisConfig{}, wantErr: "address is empty"},
		{
			name:    "idle above pool",
			cfg:     config.RedisConfig{Address: "localhost:6379", PoolSize: 2, MinIdleConns: 5},
			wantErr: "exceeds pool_size",
		},
		{
			name: "configured",
			cfg: config.RedisConfig{
				Address: "localhost:6379", DB: 3, PoolSize: 20, MinIdleConns: 4,
				DialTimeout: 1500, IOTimeout: 250,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, err := redisOptions(tt.cfg)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "localhost:6379", opts.Addr)
			assert.Equal(t, 3, opts.DB)
			assert.Equal(t, 20, opts.PoolSize)
			assert.Equal(t, 4, opts.MinIdleConns)
			assert.Equal(t, 1500*time.Millisecond, opts.DialTimeout)
			assert.Equal(t, 250*time.Millisecond, opts.ReadTimeout)
			assert.Equal(t, 250*time.Millisecond, opts.WriteTimeout)
		})
	}
}

func TestNewRedis_Close(t *testing.T) {
	c, err := NewRedis(config.RedisConfig{Address: "localhost:6379", PoolSize: 1})
	require.NoError(t, err)
	assert.NoError(t, c.Close())
	assert.NoError(t, (&RedisClient{}).Close())
}
