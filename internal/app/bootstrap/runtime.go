package bootstrap

import (
	"context"
	"crypto/tls"
	"strings"

	"github.com/redis/go-redis/v9"

	appconfig "github.com/acesoft/ace-crm-site/internal/config"
	"github.com/acesoft/ace-crm-site/internal/session"
	"github.com/acesoft/ace-crm-site/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

// BuildSessionStore prefers Redis and falls back to process memory.
func BuildSessionStore(client *redis.Client, cfg *appconfig.Config, logger *logging.Logger) session.Store {
	if logger == nil {
		logger = logging.Default()
	}
	ttl := cfg.SessionMarkerTTL
	if client != nil {
		logger.Info("session markers stored in redis", "ttl", ttl.String())
		return session.NewRedisStore(client, ttl)
	}
	logger.Warn("REDIS_ADDR not set; session markers kept in memory", "ttl", ttl.String())
	return session.NewMemoryStore(ttl)
}
