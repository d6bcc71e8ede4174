package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// envPrefix namespaces every variable read by parseEnv.
const envPrefix = "LOCALBIZ_"

// dotenvFiles are loaded, if present, before the environment is read.
// Variables already set in the process environment win.
var dotenvFiles = []string{".env"}

// parseEnv overlays LOCALBIZ_* environment variables onto config. Malformed
// numeric, boolean or duration values panic, as parseJson does for files.
func parseEnv(config *Config) {
	for _, f := range dotenvFiles {
		if _, err := os.Stat(f); err == nil {
			if err := godotenv.Load(f); err != nil {
				panic(err)
			}
		}
	}

	envString(&config.HTTPAddr, "HTTP_ADDR")
	envString(&config.Env, "ENV")
	envString(&config.DatabaseDSN, "DATABASE_DSN")
	envString(&config.SecretKey, "SECRET_KEY")
	envDuration(&config.TokenTTL, "TOKEN_TTL")
	envInt(&config.BcryptCost, "BCRYPT_COST")
	envInt(&config.RegisterLimit, "REGISTER_LIMIT")
	envDuration(&config.RegisterWindow, "REGISTER_WINDOW")
	envBool(&config.RegisterSkipSuccessful, "REGISTER_SKIP_SUCCESSFUL")
	envInt(&config.LoginLimit, "LOGIN_LIMIT")
	envDuration(&config.LoginWindow, "LOGIN_WINDOW")
	envBool(&config.LoginSkipSuccessful, "LOGIN_SKIP_SUCCESSFUL")
	envString(&config.RedisAddr, "REDIS_ADDR")
	envString(&config.RedisPassword, "REDIS_PASSWORD")
	if v, ok := lookup("CORS_ORIGINS"); ok {
		config.CORSOrigins = splitList(v)
	}
	envBool(&config.TrustProxy, "TRUST_PROXY")
	envString(&config.AdminEmail, "ADMIN_EMAIL")
	envString(&config.AdminPassword, "ADMIN_PASSWORD")
	envString(&config.S3AccessKey, "S3_ACCESS_KEY")
	envString(&config.S3SecretKey, "S3_SECRET_KEY")
	envString(&config.S3Bucket, "S3_BUCKET")
	envString(&config.S3Region, "S3_REGION")
	envString(&config.S3BaseEndpoint, "S3_BASE_ENDPOINT")
	envDuration(&config.UploadURLTTL, "UPLOAD_URL_TTL")
}

func lookup(name string) (string, bool) {
	return os.LookupEnv(envPrefix + name)
}

func envString(dst *string, name string) {
	if v, ok := lookup(name); ok {
		*dst = v
	}
}

func envInt(dst *int, name string) {
	if v, ok := lookup(name); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			panic(err)
		}
		*dst = n
	}
}

func envBool(dst *bool, name string) {
	if v, ok := lookup(name); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			panic(err)
		}
		*dst = b
	}
}

func envDuration(dst *time.Duration, name string) {
	if v, ok := lookup(name); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			panic(err)
		}
		*dst = d
	}
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
