package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// BookingEvent carries everything the worker needs to render the
// e-ticket and notify the user without re-reading the store.
type BookingEvent struct {
	Type          string    `json:"type"`
	BookingID     int64     `json:"booking_id"`
	TicketRef     string    `json:"ticket_ref"`
	UserID        int64     `json:"user_id"`
	UserName      string    `json:"user_name"`
	Email         string    `json:"email"`
	FlightID      int64     `json:"flight_id"`
	Airline       string    `json:"airline"`
	FlightNumber  string    `json:"flight_number"`
	DepartureTime time.Time `json:"departure_time"`
	ArrivalTime   time.Time `json:"arrival_time"`
	Duration      int       `json:"duration_minutes"`
	PassengerName string    `json:"passenger_name"`
	PassengerAge  int       `json:"passenger_age"`
	BasePrice     int64     `json:"base_price"`
	Price         int64     `json:"price"`
	SurgeApplied  bool      `json:"surge_applied"`
	BookedAt      time.Time `json:"booked_at"`
}

type Producer struct {
	writer *kafka.Writer
}

func NewProducer(brokers []string) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: 50 * time.Millisecond,
			RequiredAcks: kafka.RequireOne,
		},
	}
}

func (p *Producer) Publish(ctx context.Context, topic, key string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	msg := kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: data,
		Time:  time.Now(),
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	return nil
}

func (p *Producer) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}
