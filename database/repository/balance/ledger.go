// File: database/repository/balance/ledger.go
package balanceRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"slotbook/models"
)

func (r *mongoBalanceRepo) Get(ctx context.Context, clientID string) (*models.Balance, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var bal models.Balance
	err := r.balances.FindOne(ctx, bson.M{"client_id": clientID}).Decode(&bal)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find balance: %w", err)
	}
	return &bal, nil
}

// withTransaction runs fn in a mongo transaction so the balance change and its ledger entry
// commit together.
func (r *mongoBalanceRepo) withTransaction(ctx context.Context, fn func(sc mongo.SessionContext) error) error {
	sess, err := r.balances.Database().Client().StartSession()
	if err != nil {
		return fmt.Errorf("could not start mongo session: %w", err)
	}
	defer sess.EndSession(ctx)

	return mongo.WithSession(ctx, sess, func(sc mongo.SessionContext) error {
		if err := sc.StartTransaction(); err != nil {
			return err
		}
		if err := fn(sc); err != nil {
			_ = sc.AbortTransaction(sc)
			return err
		}
		return sc.CommitTransaction(sc)
	})
}

func (r *mongoBalanceRepo) appendEntry(sc mongo.SessionContext, bal models.Balance, kind string, amount float64, reference string) (*models.LedgerEntry, error) {
	entry := &models.LedgerEntry{
		ID:           uuid.New().String(),
		ClientID:     bal.ClientID,
		Seq:          bal.Version,
		Kind:         kind,
		Amount:       amount,
		BalanceAfter: bal.Amount,
		Reference:    reference,
		CreatedAt:    bal.UpdatedAt,
	}
	if _, err := r.ledger.InsertOne(sc, entry); err != nil {
		return nil, fmt.Errorf("append ledger entry failed: %w", err)
	}
	return entry, nil
}

func (r *mongoBalanceRepo) Debit(ctx context.Context, clientID string, amount float64, reference string) (*models.LedgerEntry, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("debit amount must be positive, got %.2f", amount)
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var entry *models.LedgerEntry
	err := r.withTransaction(ctx, func(sc mongo.SessionContext) error {
		filter := bson.M{"client_id": clientID, "amount": bson.M{"$gte": amount}}
		update := bson.M{
			"$inc": bson.M{"amount": -amount, "version": 1},
			"$set": bson.M{"updated_at": time.Now().UTC()},
		}
		opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

		var bal models.Balance
		err := r.balances.FindOneAndUpdate(sc, filter, update, opts).Decode(&bal)
		if errors.Is(err, mongo.ErrNoDocuments) {
			n, cerr := r.balances.CountDocuments(sc, bson.M{"client_id": clientID})
			if cerr != nil {
				return fmt.Errorf("debit lookup failed: %w", cerr)
			}
			if n == 0 {
				return ErrNotFound
			}
			return ErrInsufficientFunds
		}
		if err != nil {
			return fmt.Errorf("debit balance failed: %w", err)
		}
		entry, err = r.appendEntry(sc, bal, models.EntryDebit, amount, reference)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (r *mongoBalanceRepo) Credit(ctx context.Context, clientID string, amount float64, kind, reference string) (*models.LedgerEntry, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("credit amount must be positive, got %.2f", amount)
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var entry *models.LedgerEntry
	err := r.withTransaction(ctx, func(sc mongo.SessionContext) error {
		update := bson.M{
			"$inc":         bson.M{"amount": amount, "version": 1},
			"$set":         bson.M{"updated_at": time.Now().UTC()},
			"$setOnInsert": bson.M{"client_id": clientID, "currency": r.currency},
		}
		opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

		var bal models.Balance
		if err := r.balances.FindOneAndUpdate(sc, bson.M{"client_id": clientID}, update, opts).Decode(&bal); err != nil {
			return fmt.Errorf("credit balance failed: %w", err)
		}
		var err error
		entry, err = r.appendEntry(sc, bal, kind, amount, reference)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (r *mongoBalanceRepo) Entries(ctx context.Context, clientID string, limit int64) ([]models.LedgerEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "seq", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cursor, err := r.ledger.Find(ctx, bson.M{"client_id": clientID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch ledger entries: %w", err)
	}
	defer cursor.Close(ctx)

	var entries []models.LedgerEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("error decoding ledger entries: %w", err)
	}
	return entries, nil
}

func (r *mongoBalanceRepo) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if _, err := r.balances.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "client_id", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("unique_client"),
	}); err != nil {
		return fmt.Errorf("failed to create balance indexes: %w", err)
	}
	// Seq is unique per client; a duplicate means two mutations saw the same version.
	if _, err := r.ledger.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "client_id", Value: 1}, {Key: "seq", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("client_seq_idx"),
	}); err != nil {
		return fmt.Errorf("failed to create ledger indexes: %w", err)
	}
	return nil
}
