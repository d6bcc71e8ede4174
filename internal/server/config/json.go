package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/localbizsite/localbiz/internal/flagx"
	"github.com/localbizsite/localbiz/internal/timex"
)

// JsonConfig is the on-disk shape of the config file. Durations accept
// "15m" style strings or integer nanoseconds. Pointer fields distinguish
// "absent" from the zero value so a partial file only overrides what it names.
type JsonConfig struct {
	HTTPAddr               *string         `json:"http_addr"`
	Env                    *string         `json:"env"`
	DatabaseDSN            *string         `json:"database_dsn"`
	SecretKey              *string         `json:"secret_key"`
	TokenTTL               *timex.Duration `json:"token_ttl"`
	BcryptCost             *int            `json:"bcrypt_cost"`
	RegisterLimit          *int            `json:"register_limit"`
	RegisterWindow         *timex.Duration `json:"register_window"`
	RegisterSkipSuccessful *bool           `json:"register_skip_successful"`
	LoginLimit             *int            `json:"login_limit"`
	LoginWindow            *timex.Duration `json:"login_window"`
	LoginSkipSuccessful    *bool           `json:"login_skip_successful"`
	RedisAddr              *string         `json:"redis_addr"`
	RedisPassword          *string         `json:"redis_password"`
	CORSOrigins            []string        `json:"cors_origins"`
	TrustProxy             *bool           `json:"trust_proxy"`
	AdminEmail             *string         `json:"admin_email"`
	AdminPassword          *string         `json:"admin_password"`
	S3AccessKey            *string         `json:"s3_access_key"`
	S3SecretKey            *string         `json:"s3_secret_key"`
	S3Bucket               *string         `json:"s3_bucket"`
	S3Region               *string         `json:"s3_region"`
	S3BaseEndpoint         *string         `json:"s3_base_endpoint"`
	UploadURLTTL           *timex.Duration `json:"upload_url_ttl"`
}

// parseJson loads the file named by -c/-config into config. Without the
// flag nothing happens. Unreadable or invalid files panic: a server started
// with a broken config file must not come up on defaults.
func parseJson(config *Config) {
	path := flagx.ConfigFileFlag()
	if path == "" {
		return
	}

	file, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	c.apply(config)
}

func (c *JsonConfig) apply(config *Config) {
	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.Env, c.Env)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setDuration(&config.TokenTTL, c.TokenTTL)
	setInt(&config.BcryptCost, c.BcryptCost)
	setInt(&config.RegisterLimit, c.RegisterLimit)
	setDuration(&config.RegisterWindow, c.RegisterWindow)
	setBool(&config.RegisterSkipSuccessful, c.RegisterSkipSuccessful)
	setInt(&config.LoginLimit, c.LoginLimit)
	setDuration(&config.LoginWindow, c.LoginWindow)
	setBool(&config.LoginSkipSuccessful, c.LoginSkipSuccessful)
	setString(&config.RedisAddr, c.RedisAddr)
	setString(&config.RedisPassword, c.RedisPassword)
	if len(c.CORSOrigins) > 0 {
		config.CORSOrigins = c.CORSOrigins
	}
	setBool(&config.TrustProxy, c.TrustProxy)
	setString(&config.AdminEmail, c.AdminEmail)
	setString(&config.AdminPassword, c.AdminPassword)
	setString(&config.S3AccessKey, c.S3AccessKey)
	setString(&config.S3SecretKey, c.S3SecretKey)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setDuration(&config.UploadURLTTL, c.UploadURLTTL)
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, v *timex.Duration) {
	if v != nil {
		*dst = v.Duration
	}
}
