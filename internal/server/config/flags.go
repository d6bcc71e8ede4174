package config

import (
	"flag"
	"os"

	"github.com/localbizsite/localbiz/internal/flagx"
)

var serverFlags = []string{"-a", "-d", "-s", "-t", "-r", "-e"}

// CommandLineFlags lists every flag LoadConfig consumes, including -c/-config.
// Tools that add their own arguments strip these first.
func CommandLineFlags() []string {
	return append([]string{"-c", "-config"}, serverFlags...)
}

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags:
//
//	-a string     HTTP bind address (e.g., ":5000")
//	-d string     PostgreSQL DSN; empty selects the in-memory store
//	-s string     JWT HMAC secret key
//	-t duration   token lifetime (e.g., "168h")
//	-r string     Redis address for shared rate-limit counters
//	-e string     environment name: dev, test, staging, prod
//
// os.Args is filtered first so flags owned by other parsers (-c) do not
// make this FlagSet fail.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], serverFlags)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	fs.DurationVar(&config.TokenTTL, "t", config.TokenTTL, "token lifetime")
	fs.StringVar(&config.RedisAddr, "r", config.RedisAddr, "redis address")
	fs.StringVar(&config.Env, "e", config.Env, "environment")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
