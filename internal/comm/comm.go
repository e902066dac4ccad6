package comm

import (
	"encoding/json"
	"time"
)

type WSMessage struct {
	Type     string          `json:"type"` // e.g. "kiosk-event"
	Data     json.RawMessage `json:"data"`
	SocketId string          `json:"socketid"`
}

// KioskEvent is published on kiosk.events whenever a station slot or a
// player's standing changes, so lobby displays can refresh without polling.
type KioskEvent struct {
	EventId     string    `json:"event_id"`
	Type        string    `json:"type"` // queued, ready, started, cancelled, completed, reset, score
	StationId   string    `json:"station_id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	At          time.Time `json:"at"`
}

type LobbyPlayer struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}
