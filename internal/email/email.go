package email

import (
	"context"

	"github.com/fbtrip/skyfare/internal/kafka"
	"github.com/rs/zerolog"
)

// Sender delivers booking confirmations. The transport is a log line
// for now; the worker only needs the interface to stay stable.
type Sender struct {
	log zerolog.Logger
}

func NewSender(log zerolog.Logger) *Sender {
	return &Sender{log: log}
}

func (s *Sender) Send(ctx context.Context, event kafka.BookingEvent) error {
	s.log.Info().
		Str("email", event.Email).
		Str("flight", event.FlightNumber).
		Str("passenger", event.PassengerName).
		Int64("price", event.Price).
		Msg("booking confirmation sent")
	return nil
}
