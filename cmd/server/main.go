package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Cedarline-Labs/civichub/internal/db"
	"github.com/Cedarline-Labs/civichub/internal/notify"
	"github.com/Cedarline-Labs/civichub/internal/redis"
	"github.com/Cedarline-Labs/civichub/internal/schedule"
	"github.com/Cedarline-Labs/civichub/internal/scheduler"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	env := LoadEnvironment()
	if env.Environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// initialize PostgreSQL
	dbx, err := db.Init(env.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("db init")
	}

	// run pending migrations
	if err := db.RunMigrations(dbx, env.MigrationsPath); err != nil {
		log.Fatal().Err(err).Msg("db migrate")
	}

	store := db.NewStore(dbx)

	// all time-of-day math happens in one configured location
	loc := time.Local
	if env.SchedulerTimezone != "" {
		loc, err = time.LoadLocation(env.SchedulerTimezone)
		if err != nil {
			log.Fatal().Err(err).Str("tz", env.SchedulerTimezone).Msg("invalid SCHEDULER_TIMEZONE")
		}
	}
	clock := schedule.SystemClock(loc)

	var locks scheduler.Locks = scheduler.NewMemoryLocks()
	if env.UseRedisLocks {
		rdb, err := redis.Init(env.RedisAddress, env.RedisUsername, env.RedisPassword)
		if err != nil {
			log.Fatal().Err(err).Msg("redis init")
		}
		locks = scheduler.NewRedisLocks(rdb, 0)
		log.Info().Str("address", env.RedisAddress).Msg("using redis execution locks")
	}

	notifier := buildNotifier(env)

	executor := scheduler.NewExecutor(store, notifier, locks, clock, 0, 0)

	sweep := scheduler.NewSweep(executor, store, clock, loc, env.SweepSpec, 0)
	if err := sweep.Start(); err != nil {
		log.Fatal().Err(err).Msg("scheduler sweep start")
	}

	r := gin.Default()
	RegisterRoutes(r, env, store, executor, clock)

	srv := &http.Server{Addr: env.ServerAddress, Handler: r}

	go func() {
		log.Info().Str("address", env.ServerAddress).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")

	// stop scheduling new ticks and let in-flight executions drain
	sweep.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}
}

// buildNotifier wires the delivery channels. Missing credentials fall back
// to log-only senders so a development instance runs without AWS or an SMS
// gateway account.
func buildNotifier(env Environment) notify.Notifier {
	router := &notify.Router{
		Email: notify.LogSender{},
		SMS:   notify.LogSender{},
	}

	if env.SESAccessKey != "" && env.SESSecretKey != "" && env.SESFromEmail != "" {
		mailer, err := notify.NewSESMailer(context.Background(), env.SESAccessKey, env.SESSecretKey, env.SESRegion, env.SESFromEmail)
		if err != nil {
			log.Fatal().Err(err).Msg("ses init")
		}
		router.Email = mailer
		log.Info().Str("from", env.SESFromEmail).Msg("email delivery via SES")
	} else {
		log.Warn().Msg("SES not configured, email notifications are log-only")
	}

	if env.SMSGatewayURL != "" {
		router.SMS = notify.NewGatewaySMS(env.SMSGatewayURL, env.SMSGatewayKey)
		log.Info().Msg("sms delivery via gateway")
	} else {
		log.Warn().Msg("SMS gateway not configured, sms notifications are log-only")
	}

	return router
}
