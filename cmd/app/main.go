package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fbtrip/skyfare/api"
	"github.com/fbtrip/skyfare/config"
	"github.com/fbtrip/skyfare/internal/airport"
	"github.com/fbtrip/skyfare/internal/bootstrap"
	"github.com/fbtrip/skyfare/internal/cache"
	"github.com/fbtrip/skyfare/internal/kafka"
	"github.com/fbtrip/skyfare/internal/repository"
	"github.com/fbtrip/skyfare/internal/service/booking"
	"github.com/fbtrip/skyfare/internal/service/flights"
	"github.com/fbtrip/skyfare/internal/service/users"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

func main() {
	log := zerolog.New(os.Stdout).With().Timestamp().Str("service", "app").Logger()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("connect postgres")
	}
	defer pool.Close()

	redisCache := cache.NewRedisCache(cfg.Redis, time.Duration(cfg.Search.CacheTTLSeconds)*time.Second)
	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()

	userRepo := repository.NewUserRepository(pool)
	flightRepo := repository.NewFlightRepository(pool)
	bookingRepo := repository.NewBookingRepository(pool)

	userService := users.NewUserService(userRepo, cfg.Auth.JWTSecret, time.Duration(cfg.Auth.TokenTTLHours)*time.Hour)
	flightService := flights.NewFlightService(flightRepo, redisCache, cfg.Search.PageSize, log)
	bookingService := booking.NewBookingService(bookingRepo, userRepo, producer, cfg.Kafka.BookingTopic, log)
	airportClient := airport.NewClient(cfg.Airport, redisCache)

	handlers := bootstrap.Handlers{
		Users:    api.NewUserHandler(userService),
		Flights:  api.NewFlightHandler(flightService, airportClient),
		Bookings: api.NewBookingHandler(bookingService),
		Auth:     api.AuthRequired(userService),
	}

	log.Info().Str("addr", cfg.HTTP.Address).Msg("starting http server")
	if err := bootstrap.Run(ctx, cfg, handlers); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}
