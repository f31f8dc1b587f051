// File: database/repository/balance/interface.go
package balanceRepo

import (
	"context"
	"errors"

	"slotbook/models"

	"go.mongodb.org/mongo-driver/mongo"
)

var (
	ErrNotFound          = errors.New("balance not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
)

type BalanceRepository interface {
	Get(ctx context.Context, clientID string) (*models.Balance, error)
	// Debit subtracts amount only if the balance covers it; it never drives a balance negative.
	Debit(ctx context.Context, clientID string, amount float64, reference string) (*models.LedgerEntry, error)
	// Credit adds amount, creating the balance when the client has none yet.
	Credit(ctx context.Context, clientID string, amount float64, kind, reference string) (*models.LedgerEntry, error)
	Entries(ctx context.Context, clientID string, limit int64) ([]models.LedgerEntry, error)
	EnsureIndexes(ctx context.Context) error
}

type mongoBalanceRepo struct {
	balances *mongo.Collection
	ledger   *mongo.Collection
	currency string
}

// NewMongoBalanceRepo constructs a MongoDB BalanceRepository. New balances are opened in currency.
func NewMongoBalanceRepo(db *mongo.Database, currency string) BalanceRepository {
	return &mongoBalanceRepo{
		balances: db.Collection("balances"),
		ledger:   db.Collection("ledger_entries"),
		currency: currency,
	}
}
