package flights

import (
	"context"
	"testing"
	"time"

	"github.com/fbtrip/skyfare/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

var now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type MockFlightRepository struct {
	mock.Mock
}

func (m *MockFlightRepository) Search(ctx context.Context, fromIATA, toIATA string, limit int, logSince time.Time) ([]domain.Flight, error) {
	args := m.Called(ctx, fromIATA, toIATA, limit, logSince)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Flight), args.Error(1)
}

func (m *MockFlightRepository) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Flight), args.Error(1)
}

func (m *MockFlightRepository) ApplyPriceState(ctx context.Context, flightID int64, prevResetAt *time.Time, currentPrice int64, resetAt *time.Time) (bool, error) {
	args := m.Called(ctx, flightID, prevResetAt, currentPrice, resetAt)
	return args.Bool(0), args.Error(1)
}

func (m *MockFlightRepository) ResetExpiredSurges(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

type MockSearchCache struct {
	mock.Mock
}

func (m *MockSearchCache) GetSearch(ctx context.Context, fromIATA, toIATA string) ([]domain.Flight, error) {
	args := m.Called(ctx, fromIATA, toIATA)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Flight), args.Error(1)
}

func (m *MockSearchCache) SetSearch(ctx context.Context, fromIATA, toIATA string, flights []domain.Flight) error {
	args := m.Called(ctx, fromIATA, toIATA, flights)
	return args.Error(0)
}

func newTestService(repo *MockFlightRepository, cache SearchCache) *FlightService {
	return NewFlightService(repo, cache, 10, zerolog.Nop(), WithClock(func() time.Time { return now }))
}

func quietFlight(id int64) domain.Flight {
	return domain.Flight{ID: id, BasePrice: 2000, CurrentPrice: 2000}
}

func surgingFlight(id int64) domain.Flight {
	f := quietFlight(id)
	for i := 0; i < 3; i++ {
		f.RecentBookings = append(f.RecentBookings, domain.BookingLogEntry{
			Time:   now.Add(-time.Duration(i+1) * time.Minute),
			UserID: int64(i + 1),
		})
	}
	return f
}

func TestSearch_CacheMiss(t *testing.T) {
	repo := &MockFlightRepository{}
	cache := &MockSearchCache{}

	flights := []domain.Flight{quietFlight(1)}
	cache.On("GetSearch", mock.Anything, "DEL", "BOM").Return(nil, nil).Once()
	repo.On("Search", mock.Anything, "DEL", "BOM", 10, mock.Anything).Return(flights, nil).Once()
	cache.On("SetSearch", mock.Anything, "DEL", "BOM", flights).Return(nil).Once()

	service := newTestService(repo, cache)
	got, err := service.Search(context.Background(), "DEL", "BOM")

	assert.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, int64(2000), got[0].CurrentPrice)
	repo.AssertExpectations(t)
	cache.AssertExpectations(t)
}

func TestSearch_CacheHitSkipsStore(t *testing.T) {
	repo := &MockFlightRepository{}
	cache := &MockSearchCache{}

	cache.On("GetSearch", mock.Anything, "DEL", "BOM").Return([]domain.Flight{quietFlight(1)}, nil).Once()

	service := newTestService(repo, cache)
	got, err := service.Search(context.Background(), "DEL", "BOM")

	assert.NoError(t, err)
	assert.Len(t, got, 1)
	repo.AssertNotCalled(t, "Search", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSearch_CacheReadFailureFallsThroughToStore(t *testing.T) {
	repo := &MockFlightRepository{}
	cache := &MockSearchCache{}

	flights := []domain.Flight{quietFlight(1)}
	cache.On("GetSearch", mock.Anything, "DEL", "BOM").Return(nil, domain.ErrStoreUnavailable).Once()
	repo.On("Search", mock.Anything, "DEL", "BOM", 10, mock.Anything).Return(flights, nil).Once()
	cache.On("SetSearch", mock.Anything, "DEL", "BOM", flights).Return(nil).Once()

	service := newTestService(repo, cache)
	got, err := service.Search(context.Background(), "DEL", "BOM")

	assert.NoError(t, err)
	assert.Len(t, got, 1)
	repo.AssertExpectations(t)
	cache.AssertExpectations(t)
}

// Cached rows carry the demand log as it stood when they were stored;
// the price is still recomputed per request, so a surge visible in
// that log is reflected even on a cache hit.
func TestSearch_CacheHitStillRecomputesPrice(t *testing.T) {
	repo := &MockFlightRepository{}
	cache := &MockSearchCache{}

	deadline := now.Add(10 * time.Minute)
	cache.On("GetSearch", mock.Anything, "DEL", "BOM").Return([]domain.Flight{surgingFlight(1)}, nil).Once()
	repo.On("ApplyPriceState", mock.Anything, int64(1), (*time.Time)(nil), int64(2200), &deadline).Return(true, nil).Once()

	service := newTestService(repo, cache)
	got, err := service.Search(context.Background(), "DEL", "BOM")

	assert.NoError(t, err)
	assert.Equal(t, int64(2200), got[0].CurrentPrice)
	repo.AssertExpectations(t)
}

func TestSearch_SurgeActivationPersisted(t *testing.T) {
	repo := &MockFlightRepository{}

	flights := []domain.Flight{surgingFlight(1)}
	deadline := now.Add(10 * time.Minute)
	repo.On("Search", mock.Anything, "", "", 10, mock.Anything).Return(flights, nil).Once()
	repo.On("ApplyPriceState", mock.Anything, int64(1), (*time.Time)(nil), int64(2200), &deadline).Return(true, nil).Once()

	service := newTestService(repo, nil)
	got, err := service.Search(context.Background(), "", "")

	assert.NoError(t, err)
	assert.Equal(t, int64(2200), got[0].CurrentPrice)
	repo.AssertExpectations(t)
}

func TestSearch_ExpiredSurgeReverts(t *testing.T) {
	repo := &MockFlightRepository{}

	f := quietFlight(1)
	expired := now.Add(-time.Minute)
	f.PriceResetAt = &expired
	f.CurrentPrice = 2200
	repo.On("Search", mock.Anything, "", "", 10, mock.Anything).Return([]domain.Flight{f}, nil).Once()
	repo.On("ApplyPriceState", mock.Anything, int64(1), &expired, int64(2000), (*time.Time)(nil)).Return(true, nil).Once()

	service := newTestService(repo, nil)
	got, err := service.Search(context.Background(), "", "")

	assert.NoError(t, err)
	assert.Equal(t, int64(2000), got[0].CurrentPrice)
	assert.Nil(t, got[0].PriceResetAt)
	repo.AssertExpectations(t)
}

func TestSearch_LostCASIsHarmless(t *testing.T) {
	repo := &MockFlightRepository{}

	repo.On("Search", mock.Anything, "", "", 10, mock.Anything).Return([]domain.Flight{surgingFlight(1)}, nil).Once()
	repo.On("ApplyPriceState", mock.Anything, int64(1), mock.Anything, mock.Anything, mock.Anything).Return(false, nil).Once()

	service := newTestService(repo, nil)
	got, err := service.Search(context.Background(), "", "")

	// Another request settled the flight first; the price we computed
	// is still the correct one for this instant.
	assert.NoError(t, err)
	assert.Equal(t, int64(2200), got[0].CurrentPrice)
}

func TestGetByID_SettlesPrice(t *testing.T) {
	repo := &MockFlightRepository{}

	f := surgingFlight(5)
	deadline := now.Add(10 * time.Minute)
	repo.On("GetByID", mock.Anything, int64(5)).Return(&f, nil).Once()
	repo.On("ApplyPriceState", mock.Anything, int64(5), (*time.Time)(nil), int64(2200), &deadline).Return(true, nil).Once()

	service := newTestService(repo, nil)
	got, err := service.GetByID(context.Background(), 5)

	assert.NoError(t, err)
	assert.Equal(t, int64(2200), got.CurrentPrice)
	if assert.NotNil(t, got.PriceResetAt) {
		assert.Equal(t, deadline, *got.PriceResetAt)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	repo := &MockFlightRepository{}
	repo.On("GetByID", mock.Anything, int64(9)).Return(nil, domain.ErrNotFound).Once()

	service := newTestService(repo, nil)
	got, err := service.GetByID(context.Background(), 9)

	assert.Nil(t, got)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
