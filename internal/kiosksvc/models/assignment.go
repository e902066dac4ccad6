package models

import (
	"time"
)

// Assignment is the single slot of a station: the player currently queued,
// ready or playing there. Keying the document by station id is what makes
// a second concurrent assignment impossible.
type Assignment struct {
	StationID   string    `bson:"_id" json:"station_id"`
	Email       string    `bson:"email" json:"email"`
	DisplayName string    `bson:"display_name" json:"display_name"`
	IsReady     bool      `bson:"is_ready" json:"is_ready"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
}
