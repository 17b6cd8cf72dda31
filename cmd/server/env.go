package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Environment struct {
	Environment    string
	ServerAddress  string
	SecretKey      string
	DatabaseURL    string
	MigrationsPath string

	RedisAddress  string
	RedisUsername string
	RedisPassword string
	UseRedisLocks bool

	SchedulerTimezone string
	SweepSpec         string

	SESAccessKey  string
	SESSecretKey  string
	SESRegion     string
	SESFromEmail  string
	SMSGatewayURL string
	SMSGatewayKey string
}

// LoadEnvironment reads and validates env vars
func LoadEnvironment() Environment {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file, using process environment")
	}

	env := Environment{
		Environment:    os.Getenv("APP_ENV"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		SecretKey:      os.Getenv("JWT_SECRET"),
		ServerAddress:  os.Getenv("SERVER_ADDRESS"),
		MigrationsPath: os.Getenv("MIGRATIONS_PATH"),

		RedisAddress:  os.Getenv("REDIS_ADDRESS"),
		RedisUsername: os.Getenv("REDIS_USERNAME"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		UseRedisLocks: os.Getenv("USE_REDIS_LOCKS") == "true",

		SchedulerTimezone: os.Getenv("SCHEDULER_TIMEZONE"),
		SweepSpec:         os.Getenv("SWEEP_CRON_SPEC"),

		SESAccessKey:  os.Getenv("SES_ACCESS_KEY"),
		SESSecretKey:  os.Getenv("SES_SECRET_KEY"),
		SESRegion:     os.Getenv("SES_REGION"),
		SESFromEmail:  os.Getenv("SES_FROM_EMAIL"),
		SMSGatewayURL: os.Getenv("SMS_GATEWAY_URL"),
		SMSGatewayKey: os.Getenv("SMS_GATEWAY_KEY"),
	}

	if env.ServerAddress == "" {
		env.ServerAddress = ":8080"
	}
	if env.MigrationsPath == "" {
		env.MigrationsPath = "./migrations"
	}

	if env.DatabaseURL == "" || env.SecretKey == "" {
		log.Fatal().Msg("DATABASE_URL and JWT_SECRET are required")
	}
	if env.UseRedisLocks && env.RedisAddress == "" {
		log.Fatal().Msg("USE_REDIS_LOCKS requires REDIS_ADDRESS")
	}

	return env
}
