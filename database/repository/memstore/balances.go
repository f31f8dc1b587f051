package memstore

import (
	"context"
	"fmt"

	balanceRepo "slotbook/database/repository/balance"
	"slotbook/models"

	"github.com/google/uuid"
)

type balanceStore struct{ s *Store }

func (r *balanceStore) Get(_ context.Context, clientID string) (*models.Balance, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	b, ok := r.s.balances[clientID]
	if !ok {
		return nil, balanceRepo.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (r *balanceStore) apply(b *models.Balance, kind string, amount float64, ref string) *models.LedgerEntry {
	b.Version++
	b.UpdatedAt = r.s.now()
	entry := models.LedgerEntry{
		ID:           uuid.New().String(),
		ClientID:     b.ClientID,
		Seq:          b.Version,
		Kind:         kind,
		Amount:       amount,
		BalanceAfter: b.Amount,
		Reference:    ref,
		CreatedAt:    b.UpdatedAt,
	}
	r.s.ledger = append(r.s.ledger, entry)
	return &entry
}

func (r *balanceStore) Debit(_ context.Context, clientID string, amount float64, reference string) (*models.LedgerEntry, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("debit amount must be positive, got %.2f", amount)
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	b, ok := r.s.balances[clientID]
	if !ok {
		return nil, balanceRepo.ErrNotFound
	}
	if b.Amount < amount {
		return nil, balanceRepo.ErrInsufficientFunds
	}
	b.Amount -= amount
	return r.apply(b, models.EntryDebit, amount, reference), nil
}

func (r *balanceStore) Credit(_ context.Context, clientID string, amount float64, kind, reference string) (*models.LedgerEntry, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("credit amount must be positive, got %.2f", amount)
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	b, ok := r.s.balances[clientID]
	if !ok {
		b = &models.Balance{ClientID: clientID, Currency: r.s.currency}
		r.s.balances[clientID] = b
	}
	b.Amount += amount
	return r.apply(b, kind, amount, reference), nil
}

func (r *balanceStore) Entries(_ context.Context, clientID string, limit int64) ([]models.LedgerEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []models.LedgerEntry
	for i := len(r.s.ledger) - 1; i >= 0; i-- {
		if r.s.ledger[i].ClientID != clientID {
			continue
		}
		out = append(out, r.s.ledger[i])
		if limit > 0 && int64(len(out)) == limit {
			break
		}
	}
	return out, nil
}

func (r *balanceStore) EnsureIndexes(context.Context) error { return nil }
