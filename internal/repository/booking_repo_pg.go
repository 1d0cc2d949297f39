package repository

import (
	"context"
	"errors"

	"github.com/fbtrip/skyfare/internal/domain"
	"github.com/fbtrip/skyfare/internal/pricing"
	"github.com/jackc/pgx/v5"
)

// QuoteFunc derives the authoritative fare from the user and flight
// rows locked inside the booking transaction. Returning an error
// aborts the transaction with no mutations applied.
type QuoteFunc func(user *domain.User, flight *domain.Flight) (pricing.Quote, error)

type BookingRepository interface {
	// Book commits a booking as one transaction: booking insert, wallet
	// debit, demand-log append, seat decrement and pricing-state update
	// all land together or not at all. Returns the new wallet balance.
	Book(ctx context.Context, booking *domain.Booking, quote QuoteFunc) (int64, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.BookingWithFlight, error)
}

type PGBookingRepository struct {
	db DB
}

func NewBookingRepository(db DB) BookingRepository {
	return &PGBookingRepository{db: db}
}

func (r *PGBookingRepository) Book(ctx context.Context, booking *domain.Booking, quote QuoteFunc) (int64, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, storeErr("begin booking tx", err)
	}
	defer tx.Rollback(ctx)

	// Lock order is user then flight, everywhere, so concurrent
	// bookings cannot deadlock against each other.
	var user domain.User
	if err := tx.QueryRow(ctx, `SELECT id, name, email, password_hash, wallet FROM users WHERE id=$1 FOR UPDATE`,
		booking.UserID).Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.Wallet); err != nil {
		return 0, storeErr("lock user", err)
	}

	row := tx.QueryRow(ctx, `SELECT `+flightColumns+` FROM flights WHERE id=$1 FOR UPDATE`, booking.FlightID)
	flight, err := scanFlight(row)
	if err != nil {
		return 0, storeErr("lock flight", err)
	}

	since := booking.BookedAt.Add(-pricing.Window)
	logRows, err := tx.Query(ctx, `SELECT user_id, booked_at FROM flight_booking_log WHERE flight_id=$1 AND booked_at >= $2`,
		flight.ID, since)
	if err != nil {
		return 0, storeErr("load booking log", err)
	}
	for logRows.Next() {
		var e domain.BookingLogEntry
		if err := logRows.Scan(&e.UserID, &e.Time); err != nil {
			logRows.Close()
			return 0, storeErr("scan booking log", err)
		}
		flight.RecentBookings = append(flight.RecentBookings, e)
	}
	if err := logRows.Err(); err != nil {
		logRows.Close()
		return 0, storeErr("load booking log", err)
	}
	logRows.Close()

	q, err := quote(&user, flight)
	if err != nil {
		return 0, err
	}
	booking.Price = q.Price
	booking.SurgeApplied = q.SurgeApplied

	if flight.AvailableSeats <= 0 {
		return 0, domain.ErrSoldOut
	}

	resetAt := q.ResetAt(flight.PriceResetAt)

	if _, err := tx.Exec(ctx, `UPDATE flights SET available_seats = available_seats - 1, current_price=$1, price_reset_at=$2, updated_at=now() WHERE id=$3`,
		q.CurrentPrice, resetAt, flight.ID); err != nil {
		return 0, storeErr("update flight", err)
	}

	if err := tx.QueryRow(ctx, `INSERT INTO bookings (user_id, flight_id, passenger_name, passenger_age, price, surge_applied, ticket_ref, booked_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`,
		booking.UserID, booking.FlightID, booking.PassengerName, booking.PassengerAge,
		booking.Price, booking.SurgeApplied, booking.TicketRef, booking.BookedAt).Scan(&booking.ID); err != nil {
		return 0, storeErr("insert booking", err)
	}

	var newBalance int64
	if err := tx.QueryRow(ctx, `UPDATE users SET wallet = wallet - $1, updated_at=now() WHERE id=$2 AND wallet >= $1 RETURNING wallet`,
		booking.Price, booking.UserID).Scan(&newBalance); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// The FOR UPDATE read already checked funds; a miss here
			// means the balance moved underneath us.
			return 0, domain.ErrConflict
		}
		return 0, storeErr("debit wallet", err)
	}

	if _, err := tx.Exec(ctx, `INSERT INTO flight_booking_log (flight_id, user_id, booked_at) VALUES ($1, $2, $3)`,
		flight.ID, booking.UserID, booking.BookedAt); err != nil {
		return 0, storeErr("append booking log", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, storeErr("commit booking", err)
	}
	return newBalance, nil
}

func (r *PGBookingRepository) ListByUser(ctx context.Context, userID int64) ([]domain.BookingWithFlight, error) {
	rows, err := r.db.Query(ctx, `SELECT b.id, b.user_id, b.flight_id, b.passenger_name, b.passenger_age, b.price, b.surge_applied, b.ticket_ref, b.booked_at,
			f.airline, f.flight_number, f.from_city, f.from_airport, f.from_iata, f.to_city, f.to_airport, f.to_iata, f.departure_time
		FROM bookings b
		JOIN flights f ON f.id = b.flight_id
		WHERE b.user_id = $1
		ORDER BY b.booked_at DESC`, userID)
	if err != nil {
		return nil, storeErr("list bookings", err)
	}
	defer rows.Close()

	bookings := make([]domain.BookingWithFlight, 0)
	for rows.Next() {
		var b domain.BookingWithFlight
		if err := rows.Scan(&b.ID, &b.UserID, &b.FlightID, &b.PassengerName, &b.PassengerAge,
			&b.Price, &b.SurgeApplied, &b.TicketRef, &b.BookedAt,
			&b.Airline, &b.FlightNumber,
			&b.From.City, &b.From.Airport, &b.From.IATA,
			&b.To.City, &b.To.Airport, &b.To.IATA,
			&b.DepartureTime); err != nil {
			return nil, storeErr("scan booking", err)
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

var _ BookingRepository = (*PGBookingRepository)(nil)
