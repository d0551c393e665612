package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/shopauth/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":5000")
//	-g string   gRPC bind address (e.g., ":50051")
//	-b string   credential store backend: postgres | mongo | memory
//	-d string   PostgreSQL DSN
//	-m string   MongoDB URI
//	-s string   session token HMAC secret key
//	-t int      session token validity, hours
//	-r string   verification registry backend: memory | redis
//	-e int      verification code validity, minutes
//	-x string   mail backend: console | smtp | ses
//	-l string   log level
//
// Duration flags are integers and are converted to time.Duration.
// os.Args is filtered first with flagx.FilterArgs so flags owned by other
// loaders (-c/-config) do not collide.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-g", "-b", "-d", "-m", "-s", "-t", "-r", "-e", "-x", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "HTTP address and port to run server")
	fs.StringVar(&config.GRPCAddr, "g", config.GRPCAddr, "gRPC address and port to run server")
	fs.StringVar(&config.StorageBackend, "b", config.StorageBackend, "credential store backend")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.MongoURI, "m", config.MongoURI, "MongoDB URI")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	sessionValidity := fs.Int("t", int(config.SessionTokenValidityDuration.Hours()), "session_token_validity_duration (in hours)")

	fs.StringVar(&config.RegistryBackend, "r", config.RegistryBackend, "verification registry backend")

	codeTTL := fs.Int("e", int(config.VerificationCodeTTL.Minutes()), "verification_code_ttl (in minutes)")

	fs.StringVar(&config.MailBackend, "x", config.MailBackend, "mail backend")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	// Durations are only overwritten when given explicitly, so sub-unit values
	// loaded from JSON or the environment survive.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "t":
			config.SessionTokenValidityDuration = time.Duration(*sessionValidity) * time.Hour
		case "e":
			config.VerificationCodeTTL = time.Duration(*codeTTL) * time.Minute
		}
	})
}
