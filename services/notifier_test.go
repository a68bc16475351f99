package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/osmium/blog-admin/pkg/broker"
	"github.com/osmium/blog-admin/ws"
)

type fakePublisher struct {
	ops  []string
	data []any
	err  error
}

func (p *fakePublisher) Publish(_ context.Context, op string, data any) error {
	p.ops = append(p.ops, op)
	p.data = append(p.data, data)
	return p.err
}

func TestNotifier_ChangedBroadcastsAndPublishes(t *testing.T) {
	hub := &recordingHub{}
	pub := &fakePublisher{}
	n := NewNotifier(hub, pub, "instance-a", zap.NewNop())

	n.Changed(context.Background(), "u1", ws.ChangeData{Resource: ws.ResourcePosts, Action: ws.ActionDelete, ID: "p1"})

	changes := hub.changes()
	if len(changes) != 1 {
		t.Fatalf("local changes = %d, want 1", len(changes))
	}
	if changes[0].By != "u1" || changes[0].Origin != "instance-a" {
		t.Errorf("change = %+v, want by u1 from instance-a", changes[0])
	}
	if len(pub.ops) != 1 || pub.ops[0] != ws.OpChange {
		t.Fatalf("published = %v, want one %q", pub.ops, ws.OpChange)
	}
}

func TestNotifier_PublishFailureStillBroadcasts(t *testing.T) {
	hub := &recordingHub{}
	n := NewNotifier(hub, &fakePublisher{err: errors.New("nats down")}, "a", zap.NewNop())

	n.Changed(context.Background(), "u1", ws.ChangeData{Resource: ws.ResourceHirings, Action: ws.ActionCreate})

	if len(hub.changes()) != 1 {
		t.Error("local dashboards should still hear about the change")
	}
}

func TestNotifier_RelayBroadcastsRemoteChange(t *testing.T) {
	hub := &recordingHub{}
	n := NewNotifier(hub, nil, "a", zap.NewNop())

	n.Relay(broker.Message{Origin: "b", Op: ws.OpChange, Data: json.RawMessage(`{"resource":"posts","action":"update"}`)})

	hub.mu.Lock()
	defer hub.mu.Unlock()
	if len(hub.events) != 1 || hub.events[0].Op != ws.OpChange {
		t.Fatalf("events = %+v, want one change", hub.events)
	}
}
