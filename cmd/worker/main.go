package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"time"

	"github.com/fbtrip/skyfare/config"
	"github.com/fbtrip/skyfare/internal/email"
	"github.com/fbtrip/skyfare/internal/kafka"
	"github.com/fbtrip/skyfare/internal/repository"
	"github.com/fbtrip/skyfare/internal/ticket"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// The worker is the receipt emitter: it consumes booking_created
// events, renders the e-ticket PDF and sends the confirmation. Any
// failure here is logged and never affects the committed booking.
func main() {
	log := zerolog.New(os.Stdout).With().Timestamp().Str("service", "worker").Logger()

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

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.BookingTopic, log)
	defer consumer.Close()

	generator := ticket.NewGenerator(cfg.Tickets.Dir)
	sender := email.NewSender(log)
	flightRepo := repository.NewFlightRepository(pool)

	// Read paths settle expired surges lazily; this sweep only covers
	// flights nobody is looking at.
	sweepEvery := time.Duration(cfg.Worker.PriceSweepMinutes) * time.Minute
	if sweepEvery <= 0 {
		sweepEvery = time.Minute
	}
	go func() {
		ticker := time.NewTicker(sweepEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n, err := flightRepo.ResetExpiredSurges(ctx, time.Now())
				if err != nil {
					log.Error().Err(err).Msg("price sweep failed")
					continue
				}
				if n > 0 {
					log.Info().Int64("flights", n).Msg("expired surges reset")
				}
			}
		}
	}()

	log.Info().Str("topic", cfg.Kafka.BookingTopic).Msg("worker started")

	err = consumer.Consume(ctx, func(ctx context.Context, event kafka.BookingEvent) error {
		if event.Type != "booking_created" {
			return nil
		}

		path, err := generator.Generate(ticket.Ticket{
			BookingID:     event.BookingID,
			TicketRef:     event.TicketRef,
			UserName:      event.UserName,
			PassengerName: event.PassengerName,
			PassengerAge:  event.PassengerAge,
			Airline:       event.Airline,
			FlightNumber:  event.FlightNumber,
			DepartureTime: event.DepartureTime,
			ArrivalTime:   event.ArrivalTime,
			Duration:      event.Duration,
			BasePrice:     event.BasePrice,
			Price:         event.Price,
			BookedAt:      event.BookedAt,
		})
		if err != nil {
			log.Error().Err(err).Int64("booking_id", event.BookingID).Msg("generate ticket")
			return nil
		}
		log.Info().Str("path", path).Int64("booking_id", event.BookingID).Msg("ticket generated")

		if err := sender.Send(ctx, event); err != nil {
			log.Error().Err(err).Int64("booking_id", event.BookingID).Msg("send confirmation")
		}
		return nil
	})
	if err != nil && ctx.Err() == nil {
		log.Fatal().Err(err).Msg("consumer stopped")
	}
}
