package repository

import (
	"context"
	"time"

	"github.com/fbtrip/skyfare/internal/domain"
)

type FlightRepository interface {
	// Search returns flights matching the optional IATA filters, sorted
	// by departure time ascending, with in-window booking logs attached.
	Search(ctx context.Context, fromIATA, toIATA string, limit int, logSince time.Time) ([]domain.Flight, error)
	GetByID(ctx context.Context, id int64) (*domain.Flight, error)
	// ApplyPriceState conditionally persists a pricing transition. The
	// update only lands if price_reset_at still equals prevResetAt, so
	// concurrent readers cannot overwrite each other's settled state.
	// Returns false when the guard failed.
	ApplyPriceState(ctx context.Context, flightID int64, prevResetAt *time.Time, currentPrice int64, resetAt *time.Time) (bool, error)
	// ResetExpiredSurges settles every flight whose surge deadline has
	// passed. Read paths already do this lazily per flight; the sweep
	// keeps rarely searched flights from sitting on a stale price.
	ResetExpiredSurges(ctx context.Context, now time.Time) (int64, error)
}

type PGFlightRepository struct {
	db DB
}

func NewFlightRepository(db DB) FlightRepository {
	return &PGFlightRepository{db: db}
}

const flightColumns = `id, airline, flight_number, from_city, from_airport, from_iata, to_city, to_airport, to_iata, departure_time, arrival_time, duration_minutes, total_seats, available_seats, base_price, current_price, price_reset_at, created_at, updated_at`

func scanFlight(row interface{ Scan(dest ...any) error }) (*domain.Flight, error) {
	var f domain.Flight
	err := row.Scan(&f.ID, &f.Airline, &f.FlightNumber,
		&f.From.City, &f.From.Airport, &f.From.IATA,
		&f.To.City, &f.To.Airport, &f.To.IATA,
		&f.DepartureTime, &f.ArrivalTime, &f.DurationMinutes,
		&f.TotalSeats, &f.AvailableSeats,
		&f.BasePrice, &f.CurrentPrice, &f.PriceResetAt,
		&f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *PGFlightRepository) Search(ctx context.Context, fromIATA, toIATA string, limit int, logSince time.Time) ([]domain.Flight, error) {
	query := `SELECT ` + flightColumns + ` FROM flights WHERE ($1 = '' OR from_iata = $1) AND ($2 = '' OR to_iata = $2) ORDER BY departure_time LIMIT $3`

	rows, err := r.db.Query(ctx, query, fromIATA, toIATA, limit)
	if err != nil {
		return nil, storeErr("search flights", err)
	}
	defer rows.Close()

	flights := make([]domain.Flight, 0)
	ids := make([]int64, 0)
	for rows.Next() {
		f, err := scanFlight(rows)
		if err != nil {
			return nil, storeErr("scan flight", err)
		}
		flights = append(flights, *f)
		ids = append(ids, f.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("search flights", err)
	}
	if len(ids) == 0 {
		return flights, nil
	}

	logs, err := r.recentLogs(ctx, ids, logSince)
	if err != nil {
		return nil, err
	}
	for i := range flights {
		flights[i].RecentBookings = logs[flights[i].ID]
	}
	return flights, nil
}

func (r *PGFlightRepository) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	row := r.db.QueryRow(ctx, `SELECT `+flightColumns+` FROM flights WHERE id=$1`, id)
	f, err := scanFlight(row)
	if err != nil {
		return nil, storeErr("get flight", err)
	}
	return f, nil
}

func (r *PGFlightRepository) ApplyPriceState(ctx context.Context, flightID int64, prevResetAt *time.Time, currentPrice int64, resetAt *time.Time) (bool, error) {
	res, err := r.db.Exec(ctx, `UPDATE flights SET current_price=$1, price_reset_at=$2, updated_at=now()
		WHERE id=$3 AND price_reset_at IS NOT DISTINCT FROM $4`,
		currentPrice, resetAt, flightID, prevResetAt)
	if err != nil {
		return false, storeErr("apply price state", err)
	}
	return res.RowsAffected() > 0, nil
}

func (r *PGFlightRepository) ResetExpiredSurges(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.Exec(ctx, `UPDATE flights SET current_price = base_price, price_reset_at = NULL, updated_at = now()
		WHERE price_reset_at IS NOT NULL AND price_reset_at <= $1`, now)
	if err != nil {
		return 0, storeErr("reset expired surges", err)
	}
	return res.RowsAffected(), nil
}

func (r *PGFlightRepository) recentLogs(ctx context.Context, flightIDs []int64, since time.Time) (map[int64][]domain.BookingLogEntry, error) {
	rows, err := r.db.Query(ctx, `SELECT flight_id, user_id, booked_at FROM flight_booking_log WHERE flight_id = ANY($1) AND booked_at >= $2`, flightIDs, since)
	if err != nil {
		return nil, storeErr("load booking log", err)
	}
	defer rows.Close()

	logs := make(map[int64][]domain.BookingLogEntry)
	for rows.Next() {
		var flightID int64
		var e domain.BookingLogEntry
		if err := rows.Scan(&flightID, &e.UserID, &e.Time); err != nil {
			return nil, storeErr("scan booking log", err)
		}
		logs[flightID] = append(logs[flightID], e)
	}
	return logs, rows.Err()
}

var _ FlightRepository = (*PGFlightRepository)(nil)
