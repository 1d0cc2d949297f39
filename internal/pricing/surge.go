// Package pricing implements the surge fare rule: three bookings on a
// flight within a five-minute window raise its fare by 10% for ten
// minutes, after which it settles back to the base fare.
package pricing

import (
	"time"

	"github.com/fbtrip/skyfare/internal/domain"
)

const (
	// Window is the lookback over which recent bookings are counted.
	Window = 5 * time.Minute
	// Threshold is the in-window booking count that activates a surge.
	Threshold = 3
	// Duration is how long an activated surge stays in effect.
	Duration = 10 * time.Minute

	multiplierNum = 110
	multiplierDen = 100
)

// Quote is the effective fare for a flight at one instant, plus the
// pricing state transitions the caller must persist atomically with
// the read that produced them.
type Quote struct {
	Price        int64
	SurgeApplied bool

	// ClearReset reports that the surge deadline expired and must be
	// cleared, with CurrentPrice restored to the base fare.
	ClearReset bool
	// SetResetAt, when non-nil, is a newly activated surge deadline.
	SetResetAt *time.Time
	// CurrentPrice is the settled price to store on the flight.
	CurrentPrice int64
}

// Dirty reports whether the quote carries state to persist.
func (q Quote) Dirty() bool {
	return q.ClearReset || q.SetResetAt != nil
}

// ResetAt resolves the deadline to store given the previously stored
// one: cleared, newly set, or carried over unchanged.
func (q Quote) ResetAt(prev *time.Time) *time.Time {
	if q.ClearReset {
		return nil
	}
	if q.SetResetAt != nil {
		return q.SetResetAt
	}
	return prev
}

// Surged returns the base fare with the surge multiplier applied,
// rounded half-up to a whole currency unit.
func Surged(basePrice int64) int64 {
	return (basePrice*multiplierNum + multiplierDen/2) / multiplierDen
}

// Compute derives the effective price of f at instant now. It is pure:
// all side effects are declared on the returned Quote and applied by
// the caller. The result is always f.BasePrice or Surged(f.BasePrice),
// never a third value.
func Compute(f *domain.Flight, now time.Time) Quote {
	// An expired deadline wins over everything, including a fresh
	// burst of bookings: the surge must settle to base before it can
	// be re-triggered.
	if f.PriceResetAt != nil && !now.Before(*f.PriceResetAt) {
		return Quote{
			Price:        f.BasePrice,
			ClearReset:   true,
			CurrentPrice: f.BasePrice,
		}
	}

	count := 0
	for _, e := range f.RecentBookings {
		if now.Sub(e.Time) <= Window && !e.Time.After(now) {
			count++
		}
	}

	if count >= Threshold {
		q := Quote{
			Price:        Surged(f.BasePrice),
			SurgeApplied: true,
			CurrentPrice: Surged(f.BasePrice),
		}
		if f.PriceResetAt == nil {
			deadline := now.Add(Duration)
			q.SetResetAt = &deadline
		}
		return q
	}

	// Below threshold, but an unexpired deadline keeps a prior surge
	// alive until it runs out.
	if f.PriceResetAt != nil {
		return Quote{
			Price:        Surged(f.BasePrice),
			SurgeApplied: true,
			CurrentPrice: Surged(f.BasePrice),
		}
	}

	return Quote{
		Price:        f.BasePrice,
		CurrentPrice: f.BasePrice,
	}
}
