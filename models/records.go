package models

import "time"

// ReconciliationRecord captures a debit whose compensating credit failed.
type ReconciliationRecord struct {
	ID              string    `bson:"id" json:"id"`
	ClientID        string    `bson:"client_id" json:"client_id"`
	Amount          float64   `bson:"amount" json:"amount"`
	LocationID      string    `bson:"location_id" json:"location_id"`
	Start           time.Time `bson:"start" json:"start"`
	End             time.Time `bson:"end" json:"end"`
	PersistError    string    `bson:"persist_error" json:"persist_error"`
	CompensateError string    `bson:"compensate_error" json:"compensate_error"`
	Resolved        bool      `bson:"resolved" json:"resolved"`
	CreatedAt       time.Time `bson:"created_at" json:"created_at"`
}
