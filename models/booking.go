package models

import "time"

// Booking represents a confirmed reservation of one contiguous range at one location.
type Booking struct {
	ID              string    `bson:"id" json:"id"`                                   // Unique booking identifier (UUID)
	ClientID        string    `bson:"client_id" json:"client_id"`                     // Client who holds the reservation
	LocationID      string    `bson:"location_id" json:"location_id"`                 // Location being reserved
	Start           time.Time `bson:"start" json:"start"`                             // Absolute start (UTC)
	End             time.Time `bson:"end" json:"end"`                                 // Absolute end (UTC)
	Charge          float64   `bson:"charge" json:"charge"`                           // Amount debited from the prepaid balance
	Service         string    `bson:"service,omitempty" json:"service,omitempty"`     // Service label copied from the availability
	StaffID         string    `bson:"staff_id,omitempty" json:"staff_id,omitempty"`   // Optional assigned staff member
	AvailabilityIDs []string  `bson:"availability_ids" json:"availability_ids"`       // Rows whose capacity this booking consumes
	CreatedAt       time.Time `bson:"created_at" json:"created_at"`
}

// RequestedRange is one reservation the client asks for.
type RequestedRange struct {
	LocationID string    `json:"locationId" binding:"required"`
	Start      time.Time `json:"startInstant" binding:"required"`
	End        time.Time `json:"endInstant" binding:"required"`
	Service    string    `json:"service,omitempty"`
	StaffID    string    `json:"staffId,omitempty"`
}

// BookingRequest is the public input of the booking saga.
type BookingRequest struct {
	ClientID string           `json:"clientId"`
	Ranges   []RequestedRange `json:"requestedRanges" binding:"required"`
}

// SagaState is the furthest step one reservation attempt reached.
type SagaState string

const (
	StatePending         SagaState = "pending"
	StateBalanceChecked  SagaState = "balance_checked"
	StateDebited         SagaState = "debited"
	StatePersisted       SagaState = "persisted"
	StateDebitRolledBack SagaState = "debit_rolled_back"
)

// ItemFailure describes a single failed range in a bulk request.
type ItemFailure struct {
	Index   int            `json:"index"`
	Range   RequestedRange `json:"range"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	State   SagaState      `json:"state"`
}

// BookingSummary is returned for every booking request, single or bulk.
type BookingSummary struct {
	Created      int           `json:"created"`
	Failed       int           `json:"failed"`
	TotalCharged float64       `json:"totalCharged"`
	Bookings     []Booking     `json:"bookings"`
	Failures     []ItemFailure `json:"failures,omitempty"`
}
