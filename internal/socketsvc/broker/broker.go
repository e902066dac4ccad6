package broker

import (
	"encoding/json"

	"github.com/startvr/kiosk-services/internal/comm"

	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
)

type Broker struct {
	Conn      *nats.Conn
	Broadcast func(*comm.WSMessage)
}

func NewBroker(conn *nats.Conn, fncBroadcast func(*comm.WSMessage)) *Broker {
	return &Broker{
		Conn:      conn,
		Broadcast: fncBroadcast,
	}
}

// SubscribeKioskEvents consumes slot and score events from the kiosk service.
func (b *Broker) SubscribeKioskEvents(topic string) (*nats.Subscription, error) {
	sub, err := b.Conn.Subscribe(topic, b.handleMessages)
	if err != nil {
		return nil, err
	}

	return sub, nil
}

func (b *Broker) handleMessages(msgNats *nats.Msg) {
	event := &comm.KioskEvent{}
	if err := json.Unmarshal(msgNats.Data, event); err != nil {
		log.Errorf("Error decoding kiosk event %s", err)
		return
	}

	message := &comm.WSMessage{
		Type: "kiosk-event",
		Data: json.RawMessage(msgNats.Data),
	}

	b.Broadcast(message)
}
