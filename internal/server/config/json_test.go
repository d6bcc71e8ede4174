package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, dir, name string, data map[string]any) string {
	t.Helper()
	path := filepath.Join(dir, name)
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	dir := t.TempDir()
	full := writeTempJSON(t, dir, "full.json", map[string]any{
		"http_addr":                ":8081",
		"env":                      "prod",
		"database_dsn":             "postgres://db/localbiz",
		"secret_key":               "my_secret_key",
		"token_ttl":                "24h",
		"bcrypt_cost":              12,
		"register_limit":           3,
		"register_window":          "10m",
		"register_skip_successful": false,
		"login_limit":              20,
		"login_window":             "5m",
		"login_skip_successful":    true,
		"redis_addr":               "redis:6379",
		"cors_origins":             []string{"https://a.example", "https://b.example"},
		"admin_email":              "root@example.com",
		"s3_bucket":                "media",
		"upload_url_ttl":           "5m",
	})

	t.Run("loads from json", func(t *testing.T) {
		os.Args = []string{"testbin", "-config", full}

		cfg := &Config{}
		cfg.LoadDefaults()
		parseJson(cfg)

		assert.Equal(t, ":8081", cfg.HTTPAddr)
		assert.Equal(t, "prod", cfg.Env)
		assert.Equal(t, "postgres://db/localbiz", cfg.DatabaseDSN)
		assert.Equal(t, "my_secret_key", cfg.SecretKey)
		assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
		assert.Equal(t, 12, cfg.BcryptCost)
		assert.Equal(t, 3, cfg.RegisterLimit)
		assert.Equal(t, 10*time.Minute, cfg.RegisterWindow)
		assert.False(t, cfg.RegisterSkipSuccessful)
		assert.Equal(t, 20, cfg.LoginLimit)
		assert.Equal(t, 5*time.Minute, cfg.LoginWindow)
		assert.True(t, cfg.LoginSkipSuccessful)
		assert.Equal(t, "redis:6379", cfg.RedisAddr)
		assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
		assert.Equal(t, "root@example.com", cfg.AdminEmail)
		assert.Equal(t, "media", cfg.S3Bucket)
		assert.Equal(t, "us-east-1", cfg.S3Region, "absent keys keep defaults")
		assert.Equal(t, 5*time.Minute, cfg.UploadURLTTL)
	})

	t.Run("no flag, no changes", func(t *testing.T) {
		os.Args = []string{"testbin"}

		cfg := &Config{HTTPAddr: "keep:1", SecretKey: "key"}
		parseJson(cfg)

		assert.Equal(t, "keep:1", cfg.HTTPAddr)
		assert.Equal(t, "key", cfg.SecretKey)
	})

	t.Run("invalid json panics", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ not json`), 0o600))
		os.Args = []string{"testbin", "-c", bad}

		require.Panics(t, func() { parseJson(&Config{}) })
	})

	t.Run("missing file panics", func(t *testing.T) {
		os.Args = []string{"testbin", "-c", filepath.Join(dir, "nope.json")}
		require.Panics(t, func() { parseJson(&Config{}) })
	})
}
