// Package broker relays console change events between instances over NATS.
//
// A single console only needs its own ws hub. When several consoles run behind
// a load balancer, each publishes its changes on one subject and relays what
// the others publish to its own dashboards. Events carry the publishing
// instance id so an instance never replays its own changes.
package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/osmium/blog-admin/pkg/telemetry"
)

var tracer = telemetry.GetTracer("blog-admin/broker")

// Message is the envelope published on the subject.
type Message struct {
	Origin string          `json:"origin"`
	Op     string          `json:"op"`
	Data   json.RawMessage `json:"d"`
}

// Publisher publishes one change.
type Publisher interface {
	Publish(ctx context.Context, op string, data any) error
}

// Handler receives changes published by other instances.
type Handler func(msg Message)

// NATS is a Publisher that also subscribes to the same subject.
type NATS struct {
	conn    *nats.Conn
	subject string
	origin  string
	logger  *zap.Logger
	sub     *nats.Subscription
}

// Connect dials NATS. origin identifies this instance.
func Connect(url, subject, origin string, logger *zap.Logger) (*NATS, error) {
	opts := []nats.Option{
		nats.Name("blog-admin-" + origin),
		nats.Timeout(5 * time.Second),
		nats.ReconnectWait(time.Second),
		nats.MaxReconnects(-1),
		nats.RetryOnFailedConnect(true),
	}

	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS: %w", err)
	}

	return &NATS{
		conn:    conn,
		subject: subject,
		origin:  origin,
		logger:  logger.Named("broker"),
	}, nil
}

// Origin returns this instance's id.
func (n *NATS) Origin() string {
	return n.origin
}

func (n *NATS) Publish(ctx context.Context, op string, data any) error {
	_, span := tracer.Start(ctx, "broker.publish")
	defer span.End()

	raw, err := json.Marshal(data)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("marshaling %s: %w", op, err)
	}
	payload, err := json.Marshal(Message{Origin: n.origin, Op: op, Data: raw})
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("marshaling envelope: %w", err)
	}

	span.SetAttributes(
		telemetry.String("nats.subject", n.subject),
		telemetry.Int("message.size", len(payload)),
	)

	if err := n.conn.Publish(n.subject, payload); err != nil {
		span.RecordError(err)
		n.logger.Error("failed to publish change", zap.String("op", op), zap.Error(err))
		return fmt.Errorf("publishing to NATS: %w", err)
	}

	n.logger.Debug("published change", zap.String("op", op), zap.String("subject", n.subject))
	return nil
}

// Subscribe delivers changes from other instances to h.
func (n *NATS) Subscribe(h Handler) error {
	sub, err := n.conn.Subscribe(n.subject, func(m *nats.Msg) {
		var msg Message
		if err := json.Unmarshal(m.Data, &msg); err != nil {
			n.logger.Warn("dropping malformed change", zap.String("subject", m.Subject), zap.Error(err))
			return
		}
		if msg.Origin == n.origin {
			return
		}
		h(msg)
	})
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", n.subject, err)
	}

	n.sub = sub
	n.logger.Info("subscribed to changes", zap.String("subject", n.subject))
	return nil
}

// Close unsubscribes and drains the connection.
func (n *NATS) Close() {
	if n.sub != nil {
		if err := n.sub.Unsubscribe(); err != nil {
			n.logger.Warn("failed to unsubscribe", zap.Error(err))
		}
	}
	if n.conn != nil {
		n.conn.Close()
	}
}
