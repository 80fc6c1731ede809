package main

import (
	"context"
	"time"

	"anoa.com/campusfeedback/internal/bootstrap"
	"anoa.com/campusfeedback/internal/config"
	"anoa.com/campusfeedback/internal/server"
	"anoa.com/campusfeedback/pkg/database"
	"anoa.com/campusfeedback/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	logger.Setup(cfg.AppEnv, cfg.LogLevel)
	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	db := database.Connect(database.Options{
		Host:     cfg.DBHost,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		Name:     cfg.DBName,
		Port:     cfg.DBPort,
		SSLMode:  cfg.DBSSLMode,
		Debug:    cfg.AppEnv == "development",
	})
	if err := bootstrap.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}

	redisClient := connectRedis(cfg.RedisURL)

	srv := server.NewServer(cfg, server.NewRepositories(db, redisClient), server.Options{
		SkipLogging: []string{"/health", "/metrics"},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	err = bootstrap.SeedAdminUser(ctx, srv.AuthService(), cfg.AdminEmail, cfg.AdminPassword, cfg.AdminName)
	cancel()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to seed admin user")
	}

	log.Info().Str("port", cfg.Port).Str("env", cfg.AppEnv).Msg("starting campus feedback server")
	if err := srv.Run(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server exited with error")
	}
}

// connectRedis returns nil when no URL is configured or the server is
// unreachable; token revocation is then disabled.
func connectRedis(url string) *redis.Client {
	if url == "" {
		log.Warn().Msg("REDIS_URL not set, logout will not revoke tokens")
		return nil
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid REDIS_URL")
	}

	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn().Err(err).Msg("redis unreachable, continuing without token revocation")
		_ = client.Close()
		return nil
	}
	return client
}
