package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/osmium/blog-admin/pkg/broker"
	"github.com/osmium/blog-admin/ws"
)

// Notifier tells open dashboards that a list changed.
//
// Local dashboards are reached through the ws hub. With NATS configured the
// change is also published for the other console instances, and changes they
// publish are relayed to the local hub (see Relay).
type Notifier struct {
	hub       ws.EventPublisher
	publisher broker.Publisher // nil without NATS
	origin    string
	logger    *zap.Logger
}

// NewNotifier, constructor. publisher may be nil.
func NewNotifier(hub ws.EventPublisher, publisher broker.Publisher, origin string, logger *zap.Logger) *Notifier {
	return &Notifier{
		hub:       hub,
		publisher: publisher,
		origin:    origin,
		logger:    logger.Named("notifier"),
	}
}

// Changed broadcasts a change made by staff member by.
func (n *Notifier) Changed(ctx context.Context, by string, change ws.ChangeData) {
	change.By = by
	change.Origin = n.origin

	n.hub.BroadcastToAll(ws.Event{Op: ws.OpChange, Data: change})

	if n.publisher == nil {
		return
	}
	if err := n.publisher.Publish(ctx, ws.OpChange, change); err != nil {
		// Other instances miss one refresh hint; the change itself is stored.
		n.logger.Warn("failed to relay change",
			zap.String("resource", change.Resource),
			zap.String("action", change.Action),
			zap.Error(err))
	}
}

// Relay forwards a change published by another instance to local dashboards.
func (n *Notifier) Relay(msg broker.Message) {
	n.hub.BroadcastToAll(ws.Event{Op: msg.Op, Data: msg.Data})
}
