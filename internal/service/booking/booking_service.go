package booking

import (
	"context"
	"errors"
	"time"

	"github.com/fbtrip/skyfare/internal/domain"
	"github.com/fbtrip/skyfare/internal/kafka"
	"github.com/fbtrip/skyfare/internal/pricing"
	"github.com/fbtrip/skyfare/internal/repository"
	"github.com/fbtrip/skyfare/internal/ticket"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type BookingUseCase interface {
	Book(ctx context.Context, input BookInput) (*BookResult, error)
	ListUserBookings(ctx context.Context, userID int64) ([]domain.BookingWithFlight, error)
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type BookInput struct {
	UserID        int64  `json:"user_id"`
	FlightID      int64  `json:"flight_id"`
	PassengerName string `json:"passenger_name"`
	PassengerAge  int    `json:"passenger_age"`
}

type BookResult struct {
	Booking   *domain.Booking
	TicketURL string
	// NewBalance is the wallet after the debit committed.
	NewBalance int64
}

type BookingService struct {
	bookings     repository.BookingRepository
	users        repository.UserRepository
	producer     Producer
	bookingTopic string
	log          zerolog.Logger
	now          func() time.Time
}

type BookingServiceOption func(*BookingService)

// WithClock overrides the service clock; tests use it to step through
// surge windows deterministically.
func WithClock(now func() time.Time) BookingServiceOption {
	return func(s *BookingService) {
		s.now = now
	}
}

func NewBookingService(
	bookings repository.BookingRepository,
	users repository.UserRepository,
	producer Producer,
	bookingTopic string,
	log zerolog.Logger,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		bookings:     bookings,
		users:        users,
		producer:     producer,
		bookingTopic: bookingTopic,
		log:          log,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// Book commits a booking at the price the surge engine derives from
// the freshly locked flight row. Any price the client saw during
// search is advisory only and never reaches the money path.
func (s *BookingService) Book(ctx context.Context, input BookInput) (*BookResult, error) {
	if input.PassengerName == "" {
		return nil, errors.New("passenger name is required")
	}
	if input.PassengerAge <= 0 {
		return nil, errors.New("passenger age must be positive")
	}

	now := s.now()
	booking := &domain.Booking{
		UserID:        input.UserID,
		FlightID:      input.FlightID,
		PassengerName: input.PassengerName,
		PassengerAge:  input.PassengerAge,
		TicketRef:     uuid.NewString(),
		BookedAt:      now,
	}

	var bookedUser domain.User
	var bookedFlight domain.Flight
	newBalance, err := s.bookings.Book(ctx, booking, func(user *domain.User, flight *domain.Flight) (pricing.Quote, error) {
		q := pricing.Compute(flight, now)
		if user.Wallet < q.Price {
			return pricing.Quote{}, &domain.InsufficientFundsError{Required: q.Price, Balance: user.Wallet}
		}
		bookedUser = *user
		bookedFlight = *flight
		return q, nil
	})
	if err != nil {
		return nil, err
	}

	s.publishCreated(ctx, booking, &bookedUser, &bookedFlight)

	return &BookResult{
		Booking:    booking,
		TicketURL:  ticket.URLFor(booking.ID),
		NewBalance: newBalance,
	}, nil
}

func (s *BookingService) ListUserBookings(ctx context.Context, userID int64) ([]domain.BookingWithFlight, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.bookings.ListByUser(ctx, userID)
}

// publishCreated hands the committed booking to the worker for receipt
// generation and notification. The booking stands regardless of the
// outcome here: a publish failure is logged and swallowed.
func (s *BookingService) publishCreated(ctx context.Context, b *domain.Booking, u *domain.User, f *domain.Flight) {
	if s.producer == nil || s.bookingTopic == "" {
		return
	}
	event := kafka.BookingEvent{
		Type:          "booking_created",
		BookingID:     b.ID,
		TicketRef:     b.TicketRef,
		UserID:        u.ID,
		UserName:      u.Name,
		Email:         u.Email,
		FlightID:      f.ID,
		Airline:       f.Airline,
		FlightNumber:  f.FlightNumber,
		DepartureTime: f.DepartureTime,
		ArrivalTime:   f.ArrivalTime,
		Duration:      f.DurationMinutes,
		PassengerName: b.PassengerName,
		PassengerAge:  b.PassengerAge,
		BasePrice:     f.BasePrice,
		Price:         b.Price,
		SurgeApplied:  b.SurgeApplied,
		BookedAt:      b.BookedAt,
	}
	if err := s.producer.Publish(ctx, s.bookingTopic, b.TicketRef, event); err != nil {
		s.log.Warn().Err(err).Int64("booking_id", b.ID).Msg("failed to publish booking_created event")
	}
}

var _ BookingUseCase = (*BookingService)(nil)
