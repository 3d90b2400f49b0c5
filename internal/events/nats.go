package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
)

// NATSPublisher publishes CloudEvents on the NATS subject named after the topic.
type NATSPublisher struct {
	conn *nats.Conn
}

// NewNATSPublisher connects to url.
func NewNATSPublisher(url string) (*NATSPublisher, error) {
	conn, err := nats.Connect(url, nats.Name("service-booking"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &NATSPublisher{conn: conn}, nil
}

// PublishEvent publishes ce on subject "<topic>.<type>".
func (p *NATSPublisher) PublishEvent(_ context.Context, topic string, ce CloudEvent) error {
	body, err := json.Marshal(ce)
	if err != nil {
		return fmt.Errorf("failed to marshal cloud event: %w", err)
	}
	msg := nats.NewMsg(topic + "." + ce.Type)
	msg.Data = body
	msg.Header.Set("Ce-Id", ce.ID)
	msg.Header.Set("Ce-Type", ce.Type)
	return p.conn.PublishMsg(msg)
}

// Close drains the connection.
func (p *NATSPublisher) Close() error {
	return p.conn.Drain()
}
