package models

import (
	"time"
)

// Station is a physical play terminal. The id is chosen by the kiosk
// firmware and the record is created the first time it reports a status.
type Station struct {
	ID        string    `bson:"_id" json:"id"`
	Status    string    `bson:"status" json:"status"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
