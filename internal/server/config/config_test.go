package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, ":5000", c.HTTPAddr)
	assert.Equal(t, "dev", c.Env)
	assert.Empty(t, c.DatabaseDSN)
	assert.Equal(t, 7*24*time.Hour, c.TokenTTL)
	assert.Equal(t, 10, c.BcryptCost)
	assert.Equal(t, 5, c.RegisterLimit)
	assert.Equal(t, 15*time.Minute, c.RegisterWindow)
	assert.True(t, c.RegisterSkipSuccessful)
	assert.Equal(t, 10, c.LoginLimit)
	assert.Equal(t, 15*time.Minute, c.LoginWindow)
	assert.False(t, c.LoginSkipSuccessful)
	assert.Equal(t, []string{"http://localhost:5173"}, c.CORSOrigins)
	assert.False(t, c.S3Enabled())
}

func TestLoadConfig_UsesDefaultsWithoutOverrides(t *testing.T) {
	orig := os.Args
	t.Cleanup(func() { os.Args = orig })
	os.Args = []string{"testbin"}

	c := LoadConfig()
	require.NotNil(t, c)
	assert.Equal(t, ":5000", c.HTTPAddr)
	assert.Equal(t, 7*24*time.Hour, c.TokenTTL)
}

func TestLoadConfig_Precedence(t *testing.T) {
	orig := os.Args
	t.Cleanup(func() { os.Args = orig })

	path := writeTempJSON(t, t.TempDir(), "cfg.json", map[string]any{
		"http_addr":  ":7000",
		"secret_key": "from-json",
		"env":        "staging",
	})
	t.Setenv("LOCALBIZ_SECRET_KEY", "from-env")
	os.Args = []string{"testbin", "-c", path, "-a", ":9000"}

	c := LoadConfig()

	assert.Equal(t, ":9000", c.HTTPAddr, "flag beats json")
	assert.Equal(t, "from-env", c.SecretKey, "env beats json")
	assert.Equal(t, "staging", c.Env, "json beats default")
}

func TestS3Enabled(t *testing.T) {
	c := Config{S3Bucket: "b", S3AccessKey: "k", S3SecretKey: "s"}
	assert.True(t, c.S3Enabled())
	c.S3SecretKey = ""
	assert.False(t, c.S3Enabled())
}
