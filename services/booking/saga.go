package booking

import (
	"context"
	"time"

	availabilityRepo "slotbook/database/repository/availability"
	bookingRepo "slotbook/database/repository/booking"
	"slotbook/models"
	"slotbook/services/apperr"
	"slotbook/services/matching"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultBookingSaga implements BookingSaga. The only mutation before the booking insert is the
// debit, and every failure after it is compensated with a refund of the same amount.
type DefaultBookingSaga struct {
	Availability availabilityRepo.AvailabilityRepository
	Bookings     bookingRepo.BookingRepository
	Ledger       BalanceLedger
	Pricing      Pricing
	Reconciler   Reconciler
	Now          func() time.Time
	NewID        func() string
	Logger       *zap.Logger
}

func (s *DefaultBookingSaga) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *DefaultBookingSaga) newID() string {
	if s.NewID != nil {
		return s.NewID()
	}
	return uuid.New().String()
}

func validateRange(rng models.RequestedRange) error {
	if rng.LocationID == "" {
		return apperr.Validationf("locationId is required")
	}
	if rng.Start.IsZero() || rng.End.IsZero() {
		return apperr.Validationf("startInstant and endInstant are required")
	}
	if !rng.End.After(rng.Start) {
		return apperr.Validationf("endInstant must be after startInstant")
	}
	return nil
}

// resolve returns the rows covering the range, refusing when any of them has no room left.
func (s *DefaultBookingSaga) resolve(ctx context.Context, rng models.RequestedRange) ([]models.Availability, error) {
	if rng.Start.Before(s.now()) {
		return nil, apperr.Unavailablef("slot at %s has already started", rng.Start.UTC().Format(time.RFC3339))
	}
	rows, err := s.Availability.ListRange(ctx, rng.Start, rng.End, rng.LocationID)
	if err != nil {
		return nil, apperr.Wrap(apperr.PersistenceFailure, err, "could not load availability")
	}
	chain, ok := matching.Covering(rows, rng.LocationID, rng.Start, rng.End)
	if !ok {
		return nil, apperr.Unavailablef("no availability at %s covers the requested range", rng.LocationID)
	}
	bookings, err := s.Bookings.ListOverlapping(ctx, rng.Start, rng.End, rng.LocationID)
	if err != nil {
		return nil, apperr.Wrap(apperr.PersistenceFailure, err, "could not load bookings")
	}
	for _, row := range chain {
		booked := matching.BookedCount(row.LocationID, row.Start, row.End, bookings)
		if row.IsFull || booked >= row.Capacity || row.Claimed >= row.Capacity {
			return nil, apperr.Unavailablef("slot %s is fully booked", row.ID)
		}
	}
	return chain, nil
}

// compensationTimeout bounds the cleanup that runs after the caller has gone away.
const compensationTimeout = 15 * time.Second

// detached keeps the caller's values but not its cancellation. Once money has moved, cleanup
// must finish even if the request was abandoned.
func detached(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
}

func (s *DefaultBookingSaga) Reserve(ctx context.Context, actor models.Actor, clientID string, rng models.RequestedRange) (*models.Booking, models.SagaState, error) {
	state := models.StatePending
	if clientID == "" {
		return nil, state, apperr.Validationf("clientId is required")
	}
	if !actor.CanActFor(clientID) {
		return nil, state, apperr.Forbidden("booking for this client")
	}
	if err := validateRange(rng); err != nil {
		return nil, state, err
	}

	chain, err := s.resolve(ctx, rng)
	if err != nil {
		return nil, state, err
	}

	service := rng.Service
	if service == "" {
		service = chain[0].Service
	}
	charge := s.Pricing.ChargeFor(service)

	if charge > 0 {
		bal, err := s.Ledger.Balance(ctx, actor, clientID)
		if err != nil {
			return nil, state, err
		}
		if bal.Amount < charge {
			return nil, state, apperr.New(apperr.InsufficientBalance, "balance %.2f does not cover charge %.2f", bal.Amount, charge)
		}
	}
	state = models.StateBalanceChecked

	booking := &models.Booking{
		ID:         s.newID(),
		ClientID:   clientID,
		LocationID: rng.LocationID,
		Start:      rng.Start.UTC(),
		End:        rng.End.UTC(),
		Charge:     charge,
		Service:    service,
		StaffID:    rng.StaffID,
		CreatedAt:  s.now().UTC(),
	}
	for _, row := range chain {
		booking.AvailabilityIDs = append(booking.AvailabilityIDs, row.ID)
	}

	if charge > 0 {
		if _, err := s.Ledger.Debit(ctx, clientID, charge, booking.ID); err != nil {
			// Nothing was taken, so there is nothing to compensate.
			return nil, state, err
		}
		state = models.StateDebited
	}

	claimed, err := s.claim(ctx, chain)
	if err != nil {
		state, err = s.unwind(ctx, booking, claimed, state, err)
		return nil, state, err
	}
	if err := s.Bookings.Insert(ctx, booking); err != nil {
		state, err = s.unwind(ctx, booking, claimed, state,
			apperr.Wrap(apperr.PersistenceFailure, err, "could not store booking"))
		return nil, state, err
	}
	state = models.StatePersisted

	bg, cancel := detached(ctx)
	defer cancel()
	s.refreshFull(bg, chain)
	s.Logger.Info("Booking persisted",
		zap.String("bookingID", booking.ID), zap.String("clientID", clientID),
		zap.String("locationID", booking.LocationID), zap.Float64("charge", charge))
	return booking, state, nil
}

// claim takes one unit of capacity on every row. The storage check-and-increment is what
// prevents two concurrent sagas from overbooking the last unit.
func (s *DefaultBookingSaga) claim(ctx context.Context, chain []models.Availability) ([]string, error) {
	var claimed []string
	for _, row := range chain {
		ok, err := s.Availability.Claim(ctx, row.ID)
		if err != nil {
			return claimed, apperr.Wrap(apperr.PersistenceFailure, err, "could not claim slot %s", row.ID)
		}
		if !ok {
			return claimed, apperr.Unavailablef("slot %s was filled concurrently", row.ID)
		}
		claimed = append(claimed, row.ID)
	}
	return claimed, nil
}

func (s *DefaultBookingSaga) release(ctx context.Context, ids []string) {
	for _, id := range ids {
		if err := s.Availability.Release(ctx, id); err != nil {
			s.Logger.Error("Failed to release slot claim", zap.String("availabilityID", id), zap.Error(err))
		}
	}
}

// unwind releases claims and refunds the debit, returning the state and error to report.
func (s *DefaultBookingSaga) unwind(ctx context.Context, booking *models.Booking, claimed []string, state models.SagaState, cause error) (models.SagaState, error) {
	bg, cancel := detached(ctx)
	defer cancel()
	s.release(bg, claimed)
	return s.compensate(bg, booking, state, cause)
}

// compensate refunds a debited charge and returns the state the saga ended in and the error to
// surface. A failed refund is never retried here; it is handed to manual reconciliation.
func (s *DefaultBookingSaga) compensate(ctx context.Context, booking *models.Booking, state models.SagaState, cause error) (models.SagaState, error) {
	if state != models.StateDebited {
		return state, cause
	}
	if _, err := s.Ledger.Refund(ctx, booking.ClientID, booking.Charge, booking.ID); err != nil {
		s.Logger.Error("Compensating credit failed; manual reconciliation required",
			zap.String("clientID", booking.ClientID),
			zap.String("bookingID", booking.ID),
			zap.String("locationID", booking.LocationID),
			zap.Time("start", booking.Start),
			zap.Time("end", booking.End),
			zap.Float64("charge", booking.Charge),
			zap.NamedError("persistError", cause),
			zap.NamedError("compensateError", err))

		record := models.ReconciliationRecord{
			ID:              booking.ID,
			ClientID:        booking.ClientID,
			Amount:          booking.Charge,
			LocationID:      booking.LocationID,
			Start:           booking.Start,
			End:             booking.End,
			PersistError:    cause.Error(),
			CompensateError: err.Error(),
			CreatedAt:       s.now().UTC(),
		}
		if s.Reconciler != nil {
			if qerr := s.Reconciler.RequestReconciliation(ctx, record); qerr != nil {
				s.Logger.Error("Failed to queue reconciliation", zap.String("bookingID", booking.ID), zap.Error(qerr))
			}
		}
		return state, apperr.Reconciliation(cause, err,
			"charge %.2f for client %s was debited but neither booked nor refunded", booking.Charge, booking.ClientID)
	}
	return models.StateDebitRolledBack, cause
}

// refreshFull marks rows whose booking count has reached capacity. The booking already exists,
// so failures here only delay the flag until the next refresher run.
func (s *DefaultBookingSaga) refreshFull(ctx context.Context, chain []models.Availability) {
	for _, row := range chain {
		n, err := s.Bookings.CountOverlapping(ctx, row.LocationID, row.Start, row.End)
		if err != nil {
			s.Logger.Warn("Could not recount bookings", zap.String("availabilityID", row.ID), zap.Error(err))
			continue
		}
		if n >= row.Capacity {
			if err := s.Availability.SetFull(ctx, row.ID, true); err != nil {
				s.Logger.Warn("Could not mark slot full", zap.String("availabilityID", row.ID), zap.Error(err))
			}
		}
	}
}

// Book runs Reserve for every range. Items are independent, so one failure never aborts the rest.
func (s *DefaultBookingSaga) Book(ctx context.Context, actor models.Actor, req models.BookingRequest) (*models.BookingSummary, error) {
	if req.ClientID == "" {
		return nil, apperr.Validationf("clientId is required")
	}
	if !actor.CanActFor(req.ClientID) {
		return nil, apperr.Forbidden("booking for this client")
	}
	if len(req.Ranges) == 0 {
		return nil, apperr.Validationf("requestedRanges must not be empty")
	}

	summary := &models.BookingSummary{Bookings: []models.Booking{}, Failures: []models.ItemFailure{}}
	for i, rng := range req.Ranges {
		booking, state, err := s.Reserve(ctx, actor, req.ClientID, rng)
		if err != nil {
			summary.Failed++
			summary.Failures = append(summary.Failures, models.ItemFailure{
				Index:   i,
				Range:   rng,
				Code:    string(apperr.KindOf(err)),
				Message: apperr.Message(err),
				State:   state,
			})
			continue
		}
		summary.Created++
		summary.TotalCharged += booking.Charge
		summary.Bookings = append(summary.Bookings, *booking)
	}

	s.Logger.Info("Bulk booking finished",
		zap.String("clientID", req.ClientID), zap.Int("created", summary.Created),
		zap.Int("failed", summary.Failed), zap.Float64("charged", summary.TotalCharged))
	return summary, nil
}

// History lists the client's bookings in insertion order.
func (s *DefaultBookingSaga) History(ctx context.Context, actor models.Actor, clientID string) ([]models.Booking, error) {
	if !actor.CanActFor(clientID) {
		return nil, apperr.Forbidden("reading bookings of this client")
	}
	bookings, err := s.Bookings.ListByClient(ctx, clientID)
	if err != nil {
		return nil, apperr.Wrap(apperr.PersistenceFailure, err, "could not load bookings")
	}
	if bookings == nil {
		bookings = []models.Booking{}
	}
	return bookings, nil
}
