package models

import (
	"time"
)

// Player is keyed by email across the whole system.
type Player struct {
	Email       string    `bson:"_id" json:"email"`
	FirstName   string    `bson:"first_name" json:"firstName"`
	LastName    string    `bson:"last_name" json:"lastName"`
	DisplayName string    `bson:"display_name" json:"displayName"`
	Phone       string    `bson:"phone" json:"phone,omitempty"`
	Hand        string    `bson:"hand" json:"hand,omitempty"`
	Waiting     bool      `bson:"waiting" json:"waiting"`
	Started     bool      `bson:"started" json:"started"`
	Scores      []int     `bson:"scores" json:"scores,omitempty"`
	UpdatedAt   time.Time `bson:"updated_at" json:"updatedAt"`
}
