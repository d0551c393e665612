package config

import "github.com/kelseyhightower/envconfig"

// EnvPrefix is prepended to every variable name, e.g. SHOPAUTH_HTTP_ADDR.
const EnvPrefix = "SHOPAUTH"

// parseEnv overlays Config with SHOPAUTH_* environment variables.
// Variables that are not set leave the current values untouched.
// A malformed value (e.g. an unparsable duration) panics, like the JSON loader.
func parseEnv(config *Config) {
	if err := envconfig.Process(EnvPrefix, config); err != nil {
		panic(err)
	}
}
