package models

import "time"

// Location is a physical place where slots are published.
type Location struct {
	ID        string    `bson:"id" json:"id"`
	Name      string    `bson:"name" json:"name"`
	Latitude  *float64  `bson:"latitude,omitempty" json:"latitude,omitempty"`
	Longitude *float64  `bson:"longitude,omitempty" json:"longitude,omitempty"`
	Deleted   bool      `bson:"deleted" json:"deleted"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// LocationInput carries the display fields an administrator may set.
type LocationInput struct {
	Name      string   `json:"name" binding:"required"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}
