package domain

import "time"

type Location struct {
	City    string `json:"city"`
	Airport string `json:"airport"`
	IATA    string `json:"iata"`
}

// BookingLogEntry is one append-only record of a committed booking,
// used by the surge pricing engine to count recent demand.
type BookingLogEntry struct {
	Time   time.Time `json:"time"`
	UserID int64     `json:"user"`
}

type Flight struct {
	ID              int64
	Airline         string
	FlightNumber    string
	From            Location
	To              Location
	DepartureTime   time.Time
	ArrivalTime     time.Time
	DurationMinutes int
	TotalSeats      int
	AvailableSeats  int
	BasePrice       int64
	CurrentPrice    int64
	// RecentBookings holds only the log entries inside the surge window;
	// older entries never influence the price and are not loaded.
	RecentBookings []BookingLogEntry
	PriceResetAt   *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
