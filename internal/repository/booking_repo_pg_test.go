package repository

import (
	"context"
	"testing"
	"time"

	"github.com/fbtrip/skyfare/internal/domain"
	"github.com/fbtrip/skyfare/internal/pricing"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBookingMock(t *testing.T) (pgxmock.PgxPoolIface, BookingRepository) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock, NewBookingRepository(mock)
}

func lockedUserRows(id, wallet int64) *pgxmock.Rows {
	return pgxmock.NewRows([]string{"id", "name", "email", "password_hash", "wallet"}).
		AddRow(id, "Asha Rao", "asha@example.com", "hash", wallet)
}

func lockedFlightRows(id int64, basePrice int64, seats int, resetAt *time.Time, now time.Time) *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"id", "airline", "flight_number",
		"from_city", "from_airport", "from_iata",
		"to_city", "to_airport", "to_iata",
		"departure_time", "arrival_time", "duration_minutes",
		"total_seats", "available_seats",
		"base_price", "current_price", "price_reset_at",
		"created_at", "updated_at",
	}).AddRow(
		id, "IndiGo", "6E-101",
		"Mumbai", "Chhatrapati Shivaji Maharaj International", "BOM",
		"Delhi", "Indira Gandhi International", "DEL",
		now.Add(6*time.Hour), now.Add(8*time.Hour), 120,
		180, seats,
		basePrice, basePrice, resetAt,
		now.Add(-24*time.Hour), now.Add(-24*time.Hour),
	)
}

func walletCheckedQuote(u *domain.User, f *domain.Flight, now time.Time) (pricing.Quote, error) {
	q := pricing.Compute(f, now)
	if u.Wallet < q.Price {
		return pricing.Quote{}, &domain.InsufficientFundsError{Required: q.Price, Balance: u.Wallet}
	}
	return q, nil
}

// The transaction commits the booking insert, wallet debit, demand-log
// append and pricing-state update together, with the fare derived from
// the locked rows rather than anything the caller supplied.
func TestBook_CommitsAllMutationsTogether(t *testing.T) {
	mock, repo := newBookingMock(t)

	bookedAt := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	booking := &domain.Booking{
		UserID:        1,
		FlightID:      9,
		PassengerName: "Asha Rao",
		PassengerAge:  30,
		TicketRef:     "tkt-1",
		BookedAt:      bookedAt,
	}

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id, name, email, password_hash, wallet FROM users`).
		WithArgs(int64(1)).
		WillReturnRows(lockedUserRows(1, 50000))
	mock.ExpectQuery(`FROM flights WHERE id=`).
		WithArgs(int64(9)).
		WillReturnRows(lockedFlightRows(9, 2000, 5, nil, bookedAt))
	mock.ExpectQuery(`FROM flight_booking_log WHERE flight_id=`).
		WithArgs(int64(9), bookedAt.Add(-pricing.Window)).
		WillReturnRows(pgxmock.NewRows([]string{"user_id", "booked_at"}).
			AddRow(int64(2), bookedAt.Add(-time.Minute)).
			AddRow(int64(3), bookedAt.Add(-2*time.Minute)).
			AddRow(int64(4), bookedAt.Add(-3*time.Minute)))
	mock.ExpectExec(`UPDATE flights SET available_seats`).
		WithArgs(int64(2200), pgxmock.AnyArg(), int64(9)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectQuery(`INSERT INTO bookings`).
		WithArgs(int64(1), int64(9), "Asha Rao", 30, int64(2200), true, "tkt-1", bookedAt).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(7)))
	mock.ExpectQuery(`UPDATE users SET wallet`).
		WithArgs(int64(2200), int64(1)).
		WillReturnRows(pgxmock.NewRows([]string{"wallet"}).AddRow(int64(47800)))
	mock.ExpectExec(`INSERT INTO flight_booking_log`).
		WithArgs(int64(9), int64(1), bookedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	newBalance, err := repo.Book(context.Background(), booking, func(u *domain.User, f *domain.Flight) (pricing.Quote, error) {
		return walletCheckedQuote(u, f, bookedAt)
	})

	require.NoError(t, err)
	assert.Equal(t, int64(47800), newBalance)
	assert.Equal(t, int64(7), booking.ID)
	assert.Equal(t, int64(2200), booking.Price)
	assert.True(t, booking.SurgeApplied)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// A quote rejection rolls the transaction back before any write is
// issued; the stored rows stay exactly as they were read.
func TestBook_RollsBackWhenQuoteRejects(t *testing.T) {
	mock, repo := newBookingMock(t)

	bookedAt := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	booking := &domain.Booking{UserID: 1, FlightID: 9, PassengerName: "Asha Rao", PassengerAge: 30, TicketRef: "tkt-2", BookedAt: bookedAt}

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id, name, email, password_hash, wallet FROM users`).
		WithArgs(int64(1)).
		WillReturnRows(lockedUserRows(1, 1500))
	mock.ExpectQuery(`FROM flights WHERE id=`).
		WithArgs(int64(9)).
		WillReturnRows(lockedFlightRows(9, 2000, 5, nil, bookedAt))
	mock.ExpectQuery(`FROM flight_booking_log WHERE flight_id=`).
		WithArgs(int64(9), bookedAt.Add(-pricing.Window)).
		WillReturnRows(pgxmock.NewRows([]string{"user_id", "booked_at"}))
	mock.ExpectRollback()

	_, err := repo.Book(context.Background(), booking, func(u *domain.User, f *domain.Flight) (pricing.Quote, error) {
		return walletCheckedQuote(u, f, bookedAt)
	})

	var insufficient *domain.InsufficientFundsError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, int64(2000), insufficient.Required)
	assert.Equal(t, int64(1500), insufficient.Balance)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// The debit is guarded by wallet >= price; if the balance moved between
// the locked read and the update, the whole transaction aborts with a
// conflict instead of committing a partial booking.
func TestBook_ConflictWhenWalletGuardFails(t *testing.T) {
	mock, repo := newBookingMock(t)

	bookedAt := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	booking := &domain.Booking{UserID: 1, FlightID: 9, PassengerName: "Asha Rao", PassengerAge: 30, TicketRef: "tkt-3", BookedAt: bookedAt}

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id, name, email, password_hash, wallet FROM users`).
		WithArgs(int64(1)).
		WillReturnRows(lockedUserRows(1, 50000))
	mock.ExpectQuery(`FROM flights WHERE id=`).
		WithArgs(int64(9)).
		WillReturnRows(lockedFlightRows(9, 2000, 5, nil, bookedAt))
	mock.ExpectQuery(`FROM flight_booking_log WHERE flight_id=`).
		WithArgs(int64(9), bookedAt.Add(-pricing.Window)).
		WillReturnRows(pgxmock.NewRows([]string{"user_id", "booked_at"}))
	mock.ExpectExec(`UPDATE flights SET available_seats`).
		WithArgs(int64(2000), pgxmock.AnyArg(), int64(9)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectQuery(`INSERT INTO bookings`).
		WithArgs(int64(1), int64(9), "Asha Rao", 30, int64(2000), false, "tkt-3", bookedAt).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(8)))
	mock.ExpectQuery(`UPDATE users SET wallet`).
		WithArgs(int64(2000), int64(1)).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectRollback()

	_, err := repo.Book(context.Background(), booking, func(u *domain.User, f *domain.Flight) (pricing.Quote, error) {
		return walletCheckedQuote(u, f, bookedAt)
	})

	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBook_SoldOutAborts(t *testing.T) {
	mock, repo := newBookingMock(t)

	bookedAt := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	booking := &domain.Booking{UserID: 1, FlightID: 9, PassengerName: "Asha Rao", PassengerAge: 30, TicketRef: "tkt-4", BookedAt: bookedAt}

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id, name, email, password_hash, wallet FROM users`).
		WithArgs(int64(1)).
		WillReturnRows(lockedUserRows(1, 50000))
	mock.ExpectQuery(`FROM flights WHERE id=`).
		WithArgs(int64(9)).
		WillReturnRows(lockedFlightRows(9, 2000, 0, nil, bookedAt))
	mock.ExpectQuery(`FROM flight_booking_log WHERE flight_id=`).
		WithArgs(int64(9), bookedAt.Add(-pricing.Window)).
		WillReturnRows(pgxmock.NewRows([]string{"user_id", "booked_at"}))
	mock.ExpectRollback()

	_, err := repo.Book(context.Background(), booking, func(u *domain.User, f *domain.Flight) (pricing.Quote, error) {
		return walletCheckedQuote(u, f, bookedAt)
	})

	assert.ErrorIs(t, err, domain.ErrSoldOut)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBook_UnknownUser(t *testing.T) {
	mock, repo := newBookingMock(t)

	bookedAt := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	booking := &domain.Booking{UserID: 99, FlightID: 9, PassengerName: "Asha Rao", PassengerAge: 30, TicketRef: "tkt-5", BookedAt: bookedAt}

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id, name, email, password_hash, wallet FROM users`).
		WithArgs(int64(99)).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectRollback()

	_, err := repo.Book(context.Background(), booking, func(u *domain.User, f *domain.Flight) (pricing.Quote, error) {
		return walletCheckedQuote(u, f, bookedAt)
	})

	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
