package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("STORAGE", "Memory")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")
	t.Setenv("HEARTBEAT_INTERVAL", "5s")
	t.Setenv("DB_PORT", "6432")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StorageMemory, cfg.Storage)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 5*time.Second, cfg.HeartbeatInterval)
	assert.Equal(t, 6432, cfg.DBPort)
	assert.Equal(t, "@every 1m", cfg.ExpirySchedule)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name          string
		env           map[string]string
		expectedError string
	}{
		{
			name:          "missing secret",
			env:           map[string]string{"JWT_SECRET": "", "STORAGE": "memory"},
			expectedError: "JWT_SECRET is required",
		},
		{
			name:          "unknown storage",
			env:           map[string]string{"JWT_SECRET": "secret", "STORAGE": "sqlite"},
			expectedError: `STORAGE must be "memory" or "postgres", got "sqlite"`,
		},
		{
			name:          "bad duration",
			env:           map[string]string{"JWT_SECRET": "secret", "STORAGE": "memory", "ETA_SLACK": "three days"},
			expectedError: `ETA_SLACK: invalid duration "three days"`,
		},
		{
			name:          "bad integer",
			env:           map[string]string{"JWT_SECRET": "secret", "STORAGE": "memory", "OUTBOX_BATCH_SIZE": "many"},
			expectedError: `OUTBOX_BATCH_SIZE: invalid integer "many"`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			assert.EqualError(t, err, tc.expectedError)
		})
	}
}
