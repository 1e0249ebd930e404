package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"genforge-core/internal/domain/entity"

	"github.com/nats-io/nats.go"
)

// DefaultSubject receives one message per completed generation.
const DefaultSubject = "genforge.generation.completed"

// NATSPublisher publishes generation events as JSON.
type NATSPublisher struct {
	conn    *nats.Conn
	subject string
}

// NewNATSPublisher connects to url. The connection retries in the background
// if the server goes away.
func NewNATSPublisher(url, subject string) (*NATSPublisher, error) {
	if subject == "" {
		subject = DefaultSubject
	}
	conn, err := nats.Connect(url,
		nats.Name("genforge-core"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &NATSPublisher{conn: conn, subject: subject}, nil
}

func (p *NATSPublisher) PublishGeneration(ctx context.Context, event entity.GenerationEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := EncodeEvent(event)
	if err != nil {
		return err
	}
	msg := nats.NewMsg(p.subject)
	msg.Data = data
	msg.Header.Set("Function-Name", event.FunctionName)
	msg.Header.Set("Provider", string(event.Provider))
	return p.conn.PublishMsg(msg)
}

// Close flushes pending messages and closes the connection.
func (p *NATSPublisher) Close() error {
	return p.conn.Drain()
}

// EncodeEvent renders the wire form of an event.
func EncodeEvent(event entity.GenerationEvent) ([]byte, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("encode generation event: %w", err)
	}
	return data, nil
}
