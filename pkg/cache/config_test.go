package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_UnmarshalJSON_DurationStrings(t *testing.T) {
	tests := []struct {
		name     string
		jsonData string
		want     Config
		wantErr  bool
	}{
		{
			name: "duration strings",
			jsonData: `{
				"enabled": true,
				"ttl": "1h",
				"cleanup_interval": "5m"
			}`,
			want: Config{
				Enabled:         true,
				TTL:             1 * time.Hour,
				CleanupInterval: 5 * time.Minute,
			},
		},
		{
			name: "integer nanoseconds (backward compatibility)",
			jsonData: `{
				"enabled": true,
				"ttl": 3600000000000,
				"cleanup_interval": 300000000000
			}`,
			want: Config{
				Enabled:         true,
				TTL:             1 * time.Hour,
				CleanupInterval: 5 * time.Minute,
			},
		},
		{
			name: "mixed formats",
			jsonData: `{
				"enabled": true,
				"ttl": "2h30m",
				"cleanup_interval": 60000000000
			}`,
			want: Config{
				Enabled:         true,
				TTL:             2*time.Hour + 30*time.Minute,
				CleanupInterval: 1 * time.Minute,
			},
		},
		{
			name: "invalid duration string",
			jsonData: `{
				"enabled": true,
				"ttl": "invalid"
			}`,
			wantErr: true,
		},
		{
			name: "minimal config",
			jsonData: `{
				"enabled": false
			}`,
			want: Config{
				Enabled: false,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got Config
			err := json.Unmarshal([]byte(tt.jsonData), &got)

			if tt.wantErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want.Enabled, got.Enabled)
			assert.Equal(t, tt.want.TTL, got.TTL)
			assert.Equal(t, tt.want.CleanupInterval, got.CleanupInterval)
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{
			name:   "valid enabled config",
			config: Config{Enabled: true, TTL: time.Minute, CleanupInterval: 30 * time.Second},
		},
		{
			name:   "disabled config skips validation",
			config: Config{Enabled: false},
		},
		{
			name:    "zero ttl",
			config:  Config{Enabled: true, CleanupInterval: time.Second},
			wantErr: true,
		},
		{
			name:    "zero cleanup interval",
			config:  Config{Enabled: true, TTL: time.Minute},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewFromConfig(t *testing.T) {
	ctx := context.Background()

	t.Run("enabled yields TTL cache", func(t *testing.T) {
		cfg := Config{Enabled: true, TTL: time.Minute, CleanupInterval: 30 * time.Second}
		c, err := NewFromConfig[string](ctx, cfg)
		require.NoError(t, err)
		defer c.Close()

		_, err = c.Set("key", "value")
		require.NoError(t, err)
		value, exists := c.Get("key")
		require.True(t, exists)
		assert.Equal(t, "value", value)
	})

	t.Run("disabled yields noop cache", func(t *testing.T) {
		c, err := NewFromConfig[string](ctx, Config{Enabled: false})
		require.NoError(t, err)

		_, err = c.Set("key", "value")
		require.NoError(t, err)
		_, exists := c.Get("key")
		assert.False(t, exists)
	})

	t.Run("invalid config rejected", func(t *testing.T) {
		_, err := NewFromConfig[string](ctx, Config{Enabled: true})
		assert.Error(t, err)
	})
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.True(t, cfg.Enabled)
	assert.Equal(t, 60*time.Second, cfg.TTL)
	assert.Equal(t, 30*time.Second, cfg.CleanupInterval)
	assert.NoError(t, cfg.Validate())
}
