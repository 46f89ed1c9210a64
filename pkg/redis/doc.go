// Package redis connects to Redis and exposes a small key/value Storage used
// as the shared plugin catalog cache.
//
// Configuration comes from REDIS_* environment variables via pkg/config:
//
//	cfg, err := config.Load[redis.Config]()
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	store := redis.NewStorage(client, cfg.KeyPrefix)
//	err = store.Set(ctx, "catalog:plugins", payload, 10*time.Minute)
//
// Connect pings the server until it answers, retrying with the configured
// interval and giving up after ConnectTimeout. Healthcheck returns a check
// suitable for httpserver readiness checks.
//
// Errors are sentinels (ErrRedisNotReady and friends) joined with the
// underlying go-redis error, so both can be matched with errors.Is.
package redis
