package flights

import (
	"context"
	"time"

	"github.com/fbtrip/skyfare/internal/domain"
	"github.com/fbtrip/skyfare/internal/pricing"
	"github.com/fbtrip/skyfare/internal/repository"
	"github.com/rs/zerolog"
)

type FlightUseCase interface {
	Search(ctx context.Context, fromIATA, toIATA string) ([]domain.Flight, error)
	GetByID(ctx context.Context, id int64) (*domain.Flight, error)
}

type SearchCache interface {
	GetSearch(ctx context.Context, fromIATA, toIATA string) ([]domain.Flight, error)
	SetSearch(ctx context.Context, fromIATA, toIATA string, flights []domain.Flight) error
}

type FlightService struct {
	repo     repository.FlightRepository
	cache    SearchCache
	pageSize int
	log      zerolog.Logger
	now      func() time.Time
}

type FlightServiceOption func(*FlightService)

func WithClock(now func() time.Time) FlightServiceOption {
	return func(s *FlightService) {
		s.now = now
	}
}

func NewFlightService(repo repository.FlightRepository, cache SearchCache, pageSize int, log zerolog.Logger, opts ...FlightServiceOption) *FlightService {
	s := &FlightService{
		repo:     repo,
		cache:    cache,
		pageSize: pageSize,
		log:      log,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search returns up to one page of flights on the route, departure
// ascending, each with its effective price recomputed for this
// instant. The recomputation runs over rows that may be up to one
// cache TTL old, so a surge triggered since the rows were cached can
// lag search results by that long. Booking always prices from rows
// locked inside the transaction, so only the listing sees the lag.
func (s *FlightService) Search(ctx context.Context, fromIATA, toIATA string) ([]domain.Flight, error) {
	now := s.now()

	var flights []domain.Flight
	if s.cache != nil {
		cached, err := s.cache.GetSearch(ctx, fromIATA, toIATA)
		if err != nil {
			s.log.Warn().Err(err).Msg("failed to read cached search results")
		} else if cached != nil {
			flights = cached
		}
	}

	if flights == nil {
		fetched, err := s.repo.Search(ctx, fromIATA, toIATA, s.pageSize, now.Add(-pricing.Window))
		if err != nil {
			return nil, err
		}
		flights = fetched
		if s.cache != nil {
			if err := s.cache.SetSearch(ctx, fromIATA, toIATA, flights); err != nil {
				s.log.Warn().Err(err).Msg("failed to cache search results")
			}
		}
	}

	for i := range flights {
		flights[i] = s.settle(ctx, flights[i], now)
	}
	return flights, nil
}

func (s *FlightService) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	f, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	settled := s.settle(ctx, *f, s.now())
	return &settled, nil
}

// settle applies the surge engine to one flight and persists any state
// transition it produced. The write is guarded on the deadline value
// the quote was computed from, so two concurrent searches settling the
// same flight cannot lose an update; losing the race is fine because
// the winner already stored the same transition.
func (s *FlightService) settle(ctx context.Context, f domain.Flight, now time.Time) domain.Flight {
	q := pricing.Compute(&f, now)

	if q.Dirty() {
		applied, err := s.repo.ApplyPriceState(ctx, f.ID, f.PriceResetAt, q.CurrentPrice, q.ResetAt(f.PriceResetAt))
		if err != nil {
			s.log.Warn().Err(err).Int64("flight_id", f.ID).Msg("failed to persist price state")
		} else if !applied {
			s.log.Debug().Int64("flight_id", f.ID).Msg("price state already settled concurrently")
		}
	}

	f.PriceResetAt = q.ResetAt(f.PriceResetAt)
	f.CurrentPrice = q.Price
	return f
}

var _ FlightUseCase = (*FlightService)(nil)
