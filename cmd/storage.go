package cmd

import (
	"context"
	"fmt"
	"time"

	"slotbook/config"
	"slotbook/database"
	availabilityRepo "slotbook/database/repository/availability"
	balanceRepo "slotbook/database/repository/balance"
	bookingRepo "slotbook/database/repository/booking"
	locationRepo "slotbook/database/repository/location"
	"slotbook/database/repository/memstore"
	reconciliationRepo "slotbook/database/repository/reconciliation"
	"slotbook/services/booking"
	"slotbook/services/civiltime"

	"go.mongodb.org/mongo-driver/mongo"
)

// storage is the repository set for the configured backend.
type storage struct {
	Locations       locationRepo.LocationRepository
	Availability    availabilityRepo.AvailabilityRepository
	Bookings        bookingRepo.BookingRepository
	Balances        balanceRepo.BalanceRepository
	Reconciliations reconciliationRepo.ReconciliationRepository

	// nil for the memory backend.
	Mongo *mongo.Client
}

func (s *storage) Memory() bool { return s.Mongo == nil }

func openStorage(ctx context.Context, cfg config.Config) (*storage, error) {
	if cfg.StorageBackend == "memory" {
		mem := memstore.New(cfg.Currency)
		return &storage{
			Locations:       mem.Locations(),
			Availability:    mem.Availability(),
			Bookings:        mem.Bookings(),
			Balances:        mem.Balances(),
			Reconciliations: mem.Reconciliations(),
		}, nil
	}

	db := database.DB()
	s := &storage{
		Locations:       locationRepo.NewMongoLocationRepo(db),
		Availability:    availabilityRepo.NewMongoAvailabilityRepo(db),
		Bookings:        bookingRepo.NewMongoBookingRepo(db),
		Balances:        balanceRepo.NewMongoBalanceRepo(db, cfg.Currency),
		Reconciliations: reconciliationRepo.NewMongoReconciliationRepo(db),
		Mongo:           database.MongoClient,
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	indexed := []interface {
		EnsureIndexes(ctx context.Context) error
	}{s.Locations, s.Availability, s.Bookings, s.Balances}
	for _, repo := range indexed {
		if err := repo.EnsureIndexes(ctx); err != nil {
			return nil, fmt.Errorf("ensure indexes: %w", err)
		}
	}
	return s, nil
}

func (s *storage) Close(ctx context.Context) error {
	if s.Memory() {
		return nil
	}
	return database.Close(ctx)
}

func civilZone(cfg config.Config) civiltime.Zone {
	return civiltime.Zone{
		Name:           cfg.ZoneName,
		StandardOffset: time.Duration(cfg.ZoneStandardOffsetMinutes) * time.Minute,
		DSTShift:       time.Duration(cfg.ZoneDSTShiftMinutes) * time.Minute,
		DSTStartMonth:  time.Month(cfg.ZoneDSTStartMonth),
		DSTEndMonth:    time.Month(cfg.ZoneDSTEndMonth),
	}
}

func pricing(cfg config.Config) booking.Pricing {
	return booking.Pricing{Default: cfg.DefaultPrice, Services: cfg.ServicePrices}
}
