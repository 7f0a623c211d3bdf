package broker

import (
	"encoding/json"
	"fmt"

	"github.com/avvvet/cardvault/internal/comm"
	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
)

type Broker struct {
	Conn *nats.Conn
}

func NewBroker(nc *nats.Conn) *Broker {
	return &Broker{Conn: nc}
}

// PublishCardEvent announces a card mutation on the card events subject.
func (b *Broker) PublishCardEvent(ev comm.CardEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal card event: %w", err)
	}
	return b.Publish(comm.CardEventsSubject, payload)
}

// SubscribeCardEvents calls handler for every well-formed card event.
func (b *Broker) SubscribeCardEvents(handler func(comm.CardEvent)) (*nats.Subscription, error) {
	sub, err := b.Conn.Subscribe(comm.CardEventsSubject, func(msg *nats.Msg) {
		ev, err := decodeCardEvent(msg)
		if err != nil {
			log.Errorf("Error card event %s", err)
			return
		}
		handler(ev)
	})
	if err != nil {
		return nil, err
	}

	return sub, nil
}

func (b *Broker) Publish(topic string, payload []byte) error {
	err := b.Conn.Publish(topic, payload)
	if err != nil {
		log.Errorf("Error publishing to topic %s: %s", topic, err)
		return err
	}

	return nil
}

func decodeCardEvent(msg *nats.Msg) (comm.CardEvent, error) {
	var ev comm.CardEvent
	if err := json.Unmarshal(msg.Data, &ev); err != nil {
		return comm.CardEvent{}, err
	}
	switch ev.Type {
	case comm.CardCreated, comm.CardUpdated, comm.CardDeleted:
		return ev, nil
	default:
		return comm.CardEvent{}, fmt.Errorf("unknown card event type %q", ev.Type)
	}
}
