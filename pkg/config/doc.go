// Package config loads typed configuration structs from environment
// variables with github.com/caarlos0/env, reading an optional .env file via
// github.com/joho/godotenv first.
//
// Every infrastructure package owns its Config struct (pg.Config,
// redis.Config, httpserver.Config, subscription.PaddleConfig) and the binary
// composes them:
//
//	var pgCfg pg.Config
//	config.MustLoad(&pgCfg)
//
// Load caches one value per type, so repeated calls are cheap and return the
// same configuration. Parse bypasses the cache and is handy in tests.
package config
