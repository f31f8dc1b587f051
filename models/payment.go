package models

import "time"

// Ledger entry kinds.
const (
	EntryDebit  = "debit"
	EntryCredit = "credit"
	EntryRefund = "refund"
	EntryTopUp  = "topup"
)

// Balance is the prepaid balance of one client. Version increases with every mutation.
type Balance struct {
	ClientID  string    `bson:"client_id" json:"client_id"`
	Amount    float64   `bson:"amount" json:"amount"`
	Currency  string    `bson:"currency" json:"currency"`
	Version   int64     `bson:"version" json:"version"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// LedgerEntry records one balance mutation. Seq equals the balance version it produced.
type LedgerEntry struct {
	ID           string    `bson:"id" json:"id"`
	ClientID     string    `bson:"client_id" json:"client_id"`
	Seq          int64     `bson:"seq" json:"seq"`
	Kind         string    `bson:"kind" json:"kind"`
	Amount       float64   `bson:"amount" json:"amount"`
	BalanceAfter float64   `bson:"balance_after" json:"balance_after"`
	Reference    string    `bson:"reference,omitempty" json:"reference,omitempty"`
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
}

// TopUpRequest is used by administrators crediting a client.
type TopUpRequest struct {
	ClientID string  `json:"clientId" binding:"required"`
	Amount   float64 `json:"amount" binding:"required"`
	Note     string  `json:"note,omitempty"`
}

// CardTopUpRequest is used by clients paying with a card.
type CardTopUpRequest struct {
	Amount          float64 `json:"amount" binding:"required"`
	PaymentMethodID string  `json:"paymentMethodId" binding:"required"`
	IdempotencyKey  string  `json:"idempotencyKey,omitempty"`
}

// CardCharge is the outcome of a card payment used for a top-up.
type CardCharge struct {
	PaymentID string
	Amount    float64
	Currency  string
	Status    string
}
