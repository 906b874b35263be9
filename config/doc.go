// Package config loads configuration files into structs.
//
// It uses Viper to read YAML, JSON or TOML, loads an optional .env file with
// godotenv, and lets prefixed environment variables override file values
// (PREFIX_RUNNER_MAX_BUFFER overrides runner.max_buffer).
//
// # Usage
//
//	var cfg fixture.Config
//	err := config.LoadConfig("fixtures", &cfg, config.WithEnvPrefix("FIXTURES"))
package config
