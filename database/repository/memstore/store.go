// Package memstore keeps every repository in process memory. It backs the memory storage mode
// and the service tests.
package memstore

import (
	"sync"
	"time"

	availabilityRepo "slotbook/database/repository/availability"
	balanceRepo "slotbook/database/repository/balance"
	bookingRepo "slotbook/database/repository/booking"
	locationRepo "slotbook/database/repository/location"
	reconciliationRepo "slotbook/database/repository/reconciliation"
	"slotbook/models"
)

// Store holds all collections behind one mutex. Slices preserve insertion order, which is the
// tie-break order the services rely on.
type Store struct {
	mu           sync.Mutex
	locations    []*models.Location
	availability []*models.Availability
	bookings     []models.Booking
	balances     map[string]*models.Balance
	ledger       []models.LedgerEntry
	records      []models.ReconciliationRecord
	currency     string
	now          func() time.Time
}

func New(currency string) *Store {
	return &Store{
		balances: make(map[string]*models.Balance),
		currency: currency,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) Locations() locationRepo.LocationRepository { return &locationStore{s} }

func (s *Store) Availability() availabilityRepo.AvailabilityRepository {
	return &availabilityStore{s}
}

func (s *Store) Bookings() bookingRepo.BookingRepository { return &bookingStore{s} }

func (s *Store) Balances() balanceRepo.BalanceRepository { return &balanceStore{s} }

func (s *Store) Reconciliations() reconciliationRepo.ReconciliationRepository {
	return &reconciliationStore{s}
}

func overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

func within(a, b time.Time, tol time.Duration) bool {
	d := a.Sub(b)
	return d >= -tol && d <= tol
}
