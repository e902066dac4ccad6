package broker

import (
	"encoding/json"
	"time"

	"github.com/startvr/kiosk-services/internal/comm"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
)

const KioskEventsTopic = "kiosk.events"

// Broker publishes kiosk events to the socket service. Publishing is fire
// and forget; a lost event only delays a lobby display until its next poll.
type Broker struct {
	Conn *nats.Conn
}

func NewBroker(nc *nats.Conn) *Broker {
	return &Broker{Conn: nc}
}

func (b *Broker) PublishKioskEvent(eventType, stationID, email, displayName string) {
	event := comm.KioskEvent{
		EventId:     uuid.New().String(),
		Type:        eventType,
		StationId:   stationID,
		Email:       email,
		DisplayName: displayName,
		At:          time.Now().UTC(),
	}

	bytes, err := json.Marshal(event)
	if err != nil {
		log.Errorf("failed to marshal kiosk event: %v", err)
		return
	}

	if err := b.Conn.Publish(KioskEventsTopic, bytes); err != nil {
		log.Errorf("failed to publish kiosk event to %s: %v", KioskEventsTopic, err)
	}
}
