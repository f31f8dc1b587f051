package booking

import (
	"context"

	"slotbook/models"
)

// BookingSaga reserves slots against the client's prepaid balance.
type BookingSaga interface {
	// Reserve books one range. The returned state is the last saga step reached.
	Reserve(ctx context.Context, actor models.Actor, clientID string, rng models.RequestedRange) (*models.Booking, models.SagaState, error)
	// Book reserves every range independently and reports per-item outcomes.
	Book(ctx context.Context, actor models.Actor, req models.BookingRequest) (*models.BookingSummary, error)
	History(ctx context.Context, actor models.Actor, clientID string) ([]models.Booking, error)
}

// Reconciler receives debits that could be neither booked nor refunded.
type Reconciler interface {
	RequestReconciliation(ctx context.Context, record models.ReconciliationRecord) error
}

// BalanceLedger is the part of the balance service the saga drives.
type BalanceLedger interface {
	Balance(ctx context.Context, actor models.Actor, clientID string) (*models.Balance, error)
	Debit(ctx context.Context, clientID string, amount float64, reference string) (*models.LedgerEntry, error)
	Refund(ctx context.Context, clientID string, amount float64, reference string) (*models.LedgerEntry, error)
}
