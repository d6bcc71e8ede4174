// Package config handles configuration for the LocalBiz API server:
// defaults, an optional JSON file, the environment (including a .env file)
// and finally command-line flags, applied in that order.
package config

import "time"

// Config holds runtime settings for the API server. It is built once at
// startup and passed by pointer into the components that need it.
//
// Rate-limit policy: registration counts only failed attempts
// (RegisterSkipSuccessful), login counts every attempt including
// successful ones (LoginSkipSuccessful=false).
type Config struct {
	HTTPAddr    string
	Env         string
	DatabaseDSN string

	SecretKey  string
	TokenTTL   time.Duration
	BcryptCost int

	RegisterLimit          int
	RegisterWindow         time.Duration
	RegisterSkipSuccessful bool
	LoginLimit             int
	LoginWindow            time.Duration
	LoginSkipSuccessful    bool

	RedisAddr     string
	RedisPassword string

	CORSOrigins []string
	// TrustProxy makes client IPs come from X-Forwarded-For / X-Real-IP.
	// Enable only behind a proxy that overwrites those headers.
	TrustProxy bool

	AdminEmail    string
	AdminPassword string

	S3AccessKey    string
	S3SecretKey    string
	S3Bucket       string
	S3Region       string
	S3BaseEndpoint string
	UploadURLTTL   time.Duration
}

// LoadDefaults populates Config with development defaults.
// NOTE: SecretKey must be overridden outside of dev.
func (c *Config) LoadDefaults() {
	c.HTTPAddr = ":5000"
	c.Env = "dev"
	c.DatabaseDSN = ""
	c.SecretKey = "dev-secret-change-me"
	c.TokenTTL = 7 * 24 * time.Hour
	c.BcryptCost = 10
	c.RegisterLimit = 5
	c.RegisterWindow = 15 * time.Minute
	c.RegisterSkipSuccessful = true
	c.LoginLimit = 10
	c.LoginWindow = 15 * time.Minute
	c.LoginSkipSuccessful = false
	c.CORSOrigins = []string{"http://localhost:5173"}
	c.S3Region = "us-east-1"
	c.UploadURLTTL = 15 * time.Minute
}

// S3Enabled reports whether enough object storage settings are present to
// sign upload URLs.
func (c *Config) S3Enabled() bool {
	return c.S3Bucket != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file, the environment and finally command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}
