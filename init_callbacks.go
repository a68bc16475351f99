// Package main — change feed wire-up.
//
// With NATS configured, every change this instance makes is published and
// every change another instance publishes is replayed to this instance's
// WebSocket clients. Without NATS the hub only sees local changes.
package main

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/osmium/blog-admin/config"
	"github.com/osmium/blog-admin/pkg/broker"
	"github.com/osmium/blog-admin/services"
)

// connectBroker dials NATS when configured; (nil, nil) means disabled.
func connectBroker(cfg *config.Config, origin string, logger *zap.Logger) (*broker.NATS, error) {
	if cfg.NATS.URL == "" {
		logger.Info("NATS not configured, change feed is local only")
		return nil, nil
	}
	nc, err := broker.Connect(cfg.NATS.URL, cfg.NATS.Subject, origin, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return nc, nil
}

// registerRelay replays other instances' changes through the notifier.
func registerRelay(nc *broker.NATS, notifier *services.Notifier) error {
	if nc == nil {
		return nil
	}
	if err := nc.Subscribe(notifier.Relay); err != nil {
		return fmt.Errorf("failed to subscribe to change feed: %w", err)
	}
	return nil
}
