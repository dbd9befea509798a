package broker

import (
	"encoding/json"
	"time"

	"github.com/avvvet/pixelcard-services/internal/comm"
	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
)

// Broker publishes card events to NATS. A Broker with a nil connection
// drops events, so the service runs without a message bus.
type Broker struct {
	Conn       *nats.Conn
	InstanceId string
}

func NewBroker(nc *nats.Conn, instanceId string) *Broker {
	return &Broker{Conn: nc, InstanceId: instanceId}
}

func (b *Broker) PublishCardGenerated(cardID, prompt string) {
	b.publish(comm.CardEvent{Type: comm.EventCardGenerated, CardID: cardID, Prompt: prompt})
}

func (b *Broker) PublishLikeChanged(cardID string, liked bool) {
	t := comm.EventCardUnliked
	if liked {
		t = comm.EventCardLiked
	}
	b.publish(comm.CardEvent{Type: t, CardID: cardID, Liked: liked})
}

// publish is fire and forget; failures are logged only.
func (b *Broker) publish(ev comm.CardEvent) {
	if b == nil || b.Conn == nil {
		return
	}

	ev.Timestamp = time.Now().UTC()
	ev.InstanceId = b.InstanceId

	payload, err := json.Marshal(ev)
	if err != nil {
		log.Errorf("Error marshal card event %s", err)
		return
	}

	if err := b.Conn.Publish(comm.CardEventsSubject, payload); err != nil {
		log.Errorf("Error publishing to topic %s: %s", comm.CardEventsSubject, err)
	}
}
