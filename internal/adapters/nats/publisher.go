package natsadapter

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/nats-io/nats.go"

	"github.com/dailyerosion/depbackend/internal/core/domain"
)

const (
	streamName = "DEP_CLIFILE"
	// SubjectClimateRequests carries one message per served climate file.
	SubjectClimateRequests = "dep.clifile.requests"
)

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and ensures the audit stream exists.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := nats.Connect(url,
		nats.Name("dep-api"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	cfg := &nats.StreamConfig{
		Name:      streamName,
		Subjects:  []string{"dep.clifile.>"},
		Retention: nats.LimitsPolicy,
		MaxAge:    30 * 24 * time.Hour,
		Storage:   nats.FileStorage,
	}
	if _, err := js.AddStream(cfg); err != nil {
		if _, err := js.UpdateStream(cfg); err != nil {
			conn.Close()
			return nil, fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
		}
	}

	return &Publisher{conn: conn, js: js}, nil
}

// PublishClimateRequest publishes an audit record of a served climate file.
func (p *Publisher) PublishClimateRequest(ctx context.Context, req *domain.ClimateRequest) error {
	data, err := json.Marshal(req)
	if err != nil {
		return err
	}
	msg := nats.NewMsg(SubjectClimateRequests)
	msg.Data = data
	if req.ID != "" {
		msg.Header.Set(nats.MsgIdHdr, req.ID)
	}
	_, err = p.js.PublishMsg(msg, nats.Context(ctx))
	return err
}

// Ping reports an error unless the connection is up.
func (p *Publisher) Ping(_ context.Context) error {
	if !p.conn.IsConnected() {
		return fmt.Errorf("nats %s", p.conn.Status())
	}
	return nil
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}
