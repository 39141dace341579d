package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		env     map[string]string
		wantErr string
		verify  func(t *testing.T, cfg *Config)
	}{
		{
			name: "file with defaults",
			yaml: `
storage:
  driver: memory
jwt:
  secret: s3cret
assignment:
  strategy: balanced
`,
			verify: func(t *testing.T, cfg *Config) {
				assert.Equal(t, DriverMemory, cfg.Storage.Driver)
				assert.Equal(t, "balanced", cfg.Assignment.Strategy)
				assert.Equal(t, 5, cfg.Assignment.MaxAttempts)
				assert.Equal(t, ":8080", cfg.HTTP.Address)
				assert.Equal(t, 10*time.Second, cfg.HTTP.ReadTimeout)
			},
		},
		{
			name: "environment overrides file",
			yaml: `
postgres:
  dsn: postgres://file
jwt:
  secret: s3cret
`,
			env: map[string]string{
				"DATABASE_URL":            "postgres://env",
				"ASSIGNMENT_MAX_ATTEMPTS": "9",
				"HTTP_ALLOWED_ORIGINS":    "https://a.example,https://b.example",
				"QUEUE_ENABLED":           "true",
			},
			verify: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "postgres://env", cfg.Postgres.DSN)
				assert.Equal(t, 9, cfg.Assignment.MaxAttempts)
				assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.HTTP.AllowedOrigins)
				assert.True(t, cfg.Queue.Enabled)
			},
		},
		{
			name:    "postgres needs a dsn",
			yaml:    "jwt:\n  secret: s3cret\n",
			wantErr: "DATABASE_URL",
		},
		{
			name:    "queue needs postgres",
			yaml:    "storage:\n  driver: memory\njwt:\n  secret: s3cret\nqueue:\n  enabled: true\n",
			wantErr: "job queue",
		},
		{
			name:    "unknown driver",
			yaml:    "storage:\n  driver: redis\njwt:\n  secret: s3cret\n",
			wantErr: "unknown storage driver",
		},
		{
			name:    "bad numeric env",
			yaml:    "storage:\n  driver: memory\njwt:\n  secret: s3cret\n",
			env:     map[string]string{"ASSIGNMENT_SEED": "-1"},
			wantErr: "ASSIGNMENT_SEED",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, k := range []string{"DATABASE_URL", "STORAGE_DRIVER", "JWT_SECRET", "QUEUE_ENABLED"} {
				t.Setenv(k, "")
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			cfg, err := LoadConfig(writeConfig(t, tt.yaml))
			if err == nil {
				err = cfg.Validate()
			}
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			tt.verify(t, cfg)
		})
	}
}

func TestLoadConfigFromEnvOnly(t *testing.T) {
	t.Setenv("QUEUE_ENABLED", "")
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, DriverMemory, cfg.Storage.Driver)
	assert.Equal(t, "tournaments", cfg.Firestore.Collection)
}
