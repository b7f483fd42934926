package main

import (
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/daygrid/daygrid/internal/db"
	"github.com/daygrid/daygrid/internal/notify"
	"github.com/daygrid/daygrid/internal/redis"
)

func main() {
	// optional .env file for local development
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file found, reading environment directly")
	}

	env := LoadEnvironment()

	if env.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// initialize PostgreSQL
	if err := db.Init(env.DatabaseURL); err != nil {
		log.Fatal().Err(err).Msg("db init failed")
	}

	// run pending migrations
	if err := db.RunMigrations(env.MigrationsPath); err != nil {
		log.Fatal().Err(err).Msg("db migrate failed")
	}

	// listing caches; no-op when unconfigured
	redis.InitRedis(env.RedisAddress, env.RedisUsername, env.RedisPassword)

	// change notifications; no-op when unconfigured
	notifier, err := notify.NewPublisher(env.MQTTBrokerURL, env.MQTTClientID)
	if err != nil {
		log.Fatal().Err(err).Msg("mqtt connect failed")
	}

	store := db.NewStore()

	r := gin.Default()
	RegisterRoutes(r, env, store, notifier)

	log.Info().Str("address", env.ServerAddress).Msg("listening")
	if err := r.Run(env.ServerAddress); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
}
