package models

import "time"

// DefaultCapacity applies when a slot is published without an explicit capacity.
const DefaultCapacity = 10

// Availability sources.
const (
	SourceGenerator = "generator"
	SourceManual    = "manual"
)

// Availability is one bookable slot instance at one location.
type Availability struct {
	ID         string    `bson:"id" json:"id"`
	LocationID string    `bson:"location_id" json:"location_id"`
	Start      time.Time `bson:"start" json:"start"`                           // absolute start (UTC)
	End        time.Time `bson:"end" json:"end"`                               // absolute end (UTC)
	Service    string    `bson:"service,omitempty" json:"service,omitempty"`   // optional service label
	Capacity   int       `bson:"capacity" json:"capacity"`                     // max concurrent bookings
	Claimed    int       `bson:"claimed" json:"claimed"`                       // capacity units claimed atomically by bookings
	IsFull     bool      `bson:"is_full" json:"is_full"`                       // derived, refreshed after each booking
	BatchID    string    `bson:"batch_id,omitempty" json:"batch_id,omitempty"` // shared by rows of one generator run
	Source     string    `bson:"source" json:"source"`
	CreatedAt  time.Time `bson:"created_at" json:"created_at"`
}

// GenerateRequest is the bulk slot generation input record.
type GenerateRequest struct {
	StartDate   string   `json:"startDate" binding:"required"` // YYYY-MM-DD, inclusive
	EndDate     string   `json:"endDate" binding:"required"`   // YYYY-MM-DD, inclusive
	Weekdays    []int    `json:"weekdays"`                     // 0=Sunday..6=Saturday
	StartTime   string   `json:"startTime" binding:"required"` // HH:MM
	EndTime     string   `json:"endTime" binding:"required"`   // HH:MM
	Capacity    int      `json:"capacity"`
	Service     string   `json:"service,omitempty"`
	LocationIDs []string `json:"locationIds" binding:"required"`
}

// GenerateResult reports what a publish run stored.
type GenerateResult struct {
	BatchID string         `json:"batchId"`
	Created int            `json:"created"`
	Slots   []Availability `json:"slots"`
}

// ManualSlotInput lets an administrator publish one row by hand.
type ManualSlotInput struct {
	LocationID string    `json:"locationId" binding:"required"`
	Start      time.Time `json:"start" binding:"required"`
	End        time.Time `json:"end" binding:"required"`
	Service    string    `json:"service,omitempty"`
	Capacity   int       `json:"capacity"`
}

// Slot status values.
const (
	StatusOpen    = "open"
	StatusPartial = "partial"
	StatusFull    = "full"
	StatusPast    = "past"
	StatusNone    = "none"
)

// SlotStatus is the derived occupancy of one slot at one location.
type SlotStatus struct {
	Status         string `json:"status"`
	Booked         int    `json:"booked"`
	Capacity       int    `json:"capacity"`
	AvailabilityID string `json:"availabilityId,omitempty"`
}

// SlotView is an availability row together with its derived status.
type SlotView struct {
	Availability Availability `json:"availability"`
	Date         string       `json:"date"`      // civil date of the start
	StartTime    string       `json:"startTime"` // civil HH:MM of the start
	EndTime      string       `json:"endTime"`   // civil HH:MM of the end
	SlotStatus
}

// SlotGroup bundles sibling rows sharing one start/end across locations.
type SlotGroup struct {
	Start          time.Time  `json:"start"`
	End            time.Time  `json:"end"`
	Representative SlotView   `json:"representative"`
	Views          []SlotView `json:"views"`
}

// AvailabilityListing is what clients browse before choosing a slot.
type AvailabilityListing struct {
	From   string      `json:"from"`
	To     string      `json:"to"`
	Groups []SlotGroup `json:"groups"`
}

// SlotRef identifies one published time slot across several locations.
type SlotRef struct {
	Start       time.Time `json:"start" binding:"required"`
	End         time.Time `json:"end" binding:"required"`
	LocationIDs []string  `json:"locationIds" binding:"required"`
	BatchID     string    `json:"batchId,omitempty"`
}

// SlotUpdate lists the fields editable on a published slot.
type SlotUpdate struct {
	Service     *string  `json:"service,omitempty"`
	LocationIDs []string `json:"locationIds,omitempty"`
}

// UpdateSlotRequest is the admin edit payload.
type UpdateSlotRequest struct {
	Ref    SlotRef    `json:"ref" binding:"required"`
	Update SlotUpdate `json:"update"`
}

// DeletionReport tells how many siblings were removed versus kept because of bookings.
type DeletionReport struct {
	Removed    int      `json:"removed"`
	Skipped    int      `json:"skipped"`
	RemovedIDs []string `json:"removedIds"`
	SkippedIDs []string `json:"skippedIds,omitempty"`
}

// UpdateReport summarises an edit of a published slot.
type UpdateReport struct {
	Relabeled int            `json:"relabeled"`
	Added     int            `json:"added"`
	Removal   DeletionReport `json:"removal"`
}
