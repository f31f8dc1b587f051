package balance

import (
	"context"
	"errors"

	balanceRepo "slotbook/database/repository/balance"
	"slotbook/models"
	"slotbook/services/apperr"

	"go.uber.org/zap"
)

// BalanceService is the only path that mutates client balances.
type BalanceService interface {
	Balance(ctx context.Context, actor models.Actor, clientID string) (*models.Balance, error)
	Entries(ctx context.Context, actor models.Actor, clientID string, limit int64) ([]models.LedgerEntry, error)
	Debit(ctx context.Context, clientID string, amount float64, reference string) (*models.LedgerEntry, error)
	Refund(ctx context.Context, clientID string, amount float64, reference string) (*models.LedgerEntry, error)
	TopUp(ctx context.Context, actor models.Actor, req models.TopUpRequest) (*models.LedgerEntry, error)
	CardTopUp(ctx context.Context, actor models.Actor, req models.CardTopUpRequest) (*models.LedgerEntry, error)
}

// DefaultBalanceService implements BalanceService.
type DefaultBalanceService struct {
	Repo     balanceRepo.BalanceRepository
	Locker   Locker
	Charger  CardCharger
	Currency string
	Logger   *zap.Logger
}

func (s *DefaultBalanceService) locked(ctx context.Context, clientID string, fn func() (*models.LedgerEntry, error)) (*models.LedgerEntry, error) {
	unlock, err := s.Locker.Lock(ctx, clientID)
	if err != nil {
		return nil, apperr.Wrap(apperr.PersistenceFailure, err, "could not lock balance of %s", clientID)
	}
	defer unlock()
	return fn()
}

func (s *DefaultBalanceService) Balance(ctx context.Context, actor models.Actor, clientID string) (*models.Balance, error) {
	if !actor.CanActFor(clientID) {
		return nil, apperr.Forbidden("reading this balance")
	}
	bal, err := s.Repo.Get(ctx, clientID)
	if errors.Is(err, balanceRepo.ErrNotFound) {
		return &models.Balance{ClientID: clientID, Currency: s.Currency}, nil
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.PersistenceFailure, err, "could not read balance")
	}
	return bal, nil
}

func (s *DefaultBalanceService) Entries(ctx context.Context, actor models.Actor, clientID string, limit int64) ([]models.LedgerEntry, error) {
	if !actor.CanActFor(clientID) {
		return nil, apperr.Forbidden("reading this ledger")
	}
	entries, err := s.Repo.Entries(ctx, clientID, limit)
	if err != nil {
		return nil, apperr.Wrap(apperr.PersistenceFailure, err, "could not read ledger")
	}
	return entries, nil
}

// Debit removes amount from the client's balance. It never lets the balance go negative.
func (s *DefaultBalanceService) Debit(ctx context.Context, clientID string, amount float64, reference string) (*models.LedgerEntry, error) {
	return s.locked(ctx, clientID, func() (*models.LedgerEntry, error) {
		entry, err := s.Repo.Debit(ctx, clientID, amount, reference)
		switch {
		case errors.Is(err, balanceRepo.ErrInsufficientFunds), errors.Is(err, balanceRepo.ErrNotFound):
			return nil, apperr.Wrap(apperr.InsufficientBalance, err, "balance of %s does not cover %.2f", clientID, amount)
		case err != nil:
			return nil, apperr.Wrap(apperr.PersistenceFailure, err, "debit failed")
		}
		return entry, nil
	})
}

// Refund is the compensating credit for a debit whose booking was not stored.
func (s *DefaultBalanceService) Refund(ctx context.Context, clientID string, amount float64, reference string) (*models.LedgerEntry, error) {
	return s.credit(ctx, clientID, amount, models.EntryRefund, reference)
}

func (s *DefaultBalanceService) credit(ctx context.Context, clientID string, amount float64, kind, reference string) (*models.LedgerEntry, error) {
	if amount <= 0 {
		return nil, apperr.Validationf("amount must be positive")
	}
	return s.locked(ctx, clientID, func() (*models.LedgerEntry, error) {
		entry, err := s.Repo.Credit(ctx, clientID, amount, kind, reference)
		if err != nil {
			return nil, apperr.Wrap(apperr.PersistenceFailure, err, "%s failed", kind)
		}
		return entry, nil
	})
}

// TopUp lets an administrator credit a client directly.
func (s *DefaultBalanceService) TopUp(ctx context.Context, actor models.Actor, req models.TopUpRequest) (*models.LedgerEntry, error) {
	if !actor.IsAdmin() {
		return nil, apperr.Forbidden("topping up balances")
	}
	if req.ClientID == "" {
		return nil, apperr.Validationf("clientId is required")
	}
	entry, err := s.credit(ctx, req.ClientID, req.Amount, models.EntryTopUp, req.Note)
	if err != nil {
		return nil, err
	}
	s.Logger.Info("Balance topped up",
		zap.String("admin", actor.ID), zap.String("clientID", req.ClientID), zap.Float64("amount", req.Amount))
	return entry, nil
}

// CardTopUp charges the caller's card and credits what the processor reports as captured.
func (s *DefaultBalanceService) CardTopUp(ctx context.Context, actor models.Actor, req models.CardTopUpRequest) (*models.LedgerEntry, error) {
	if actor.ID == "" || actor.Role != models.RoleClient {
		return nil, apperr.Forbidden("card top-up")
	}
	if req.Amount <= 0 {
		return nil, apperr.Validationf("amount must be positive")
	}
	if s.Charger == nil {
		return nil, apperr.New(apperr.Internal, "card payments are not configured")
	}
	charge, err := s.Charger.Charge(ctx, actor.ID, req, s.Currency)
	if err != nil {
		s.Logger.Warn("Card charge failed", zap.String("clientID", actor.ID), zap.Error(err))
		return nil, apperr.Wrap(apperr.Validation, err, "card payment failed")
	}
	entry, err := s.credit(ctx, actor.ID, charge.Amount, models.EntryTopUp, charge.PaymentID)
	if err != nil {
		// The card was charged; the payment id is the only handle left to fix the ledger.
		s.Logger.Error("Card charged but balance not credited",
			zap.String("clientID", actor.ID), zap.String("paymentID", charge.PaymentID),
			zap.Float64("amount", charge.Amount), zap.Error(err))
		return nil, apperr.Reconciliation(err, nil, "card payment %s captured but not credited", charge.PaymentID)
	}
	return entry, nil
}
