package domain

import "time"

// Booking is a ledger entry: created once at commit time, never mutated.
type Booking struct {
	ID            int64
	UserID        int64
	FlightID      int64
	PassengerName string
	PassengerAge  int
	// Price is the amount actually charged, snapshotted at commit time.
	Price        int64
	SurgeApplied bool
	TicketRef    string
	BookedAt     time.Time
}

// BookingWithFlight joins a booking with the flight fields the
// "my bookings" listing needs.
type BookingWithFlight struct {
	Booking
	Airline       string
	FlightNumber  string
	From          Location
	To            Location
	DepartureTime time.Time
}
