// Package main — storage wire-up.
//
// initRepositories opens the console database and builds the session
// repository. The repository is handed out as a factory so the session store
// can bind it to a transaction when it rotates a session.
package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/osmium/blog-admin/config"
	"github.com/osmium/blog-admin/database"
	"github.com/osmium/blog-admin/pkg/crypto"
	"github.com/osmium/blog-admin/repository"
)

// Repositories holds the storage layer.
type Repositories struct {
	DB *database.DB
	// Sessions builds a session repository on a connection or a transaction.
	Sessions func(database.TxQuerier) repository.SessionRepository
}

func initRepositories(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Repositories, error) {
	db, err := database.New(ctx, cfg.Database.Path, database.Migrations(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	key, err := crypto.DeriveKey(cfg.Session.Secret)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("invalid session secret: %w", err)
	}
	sealer, err := crypto.NewSealer(key)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create token sealer: %w", err)
	}

	return &Repositories{
		DB: db,
		Sessions: func(q database.TxQuerier) repository.SessionRepository {
			return repository.NewSQLiteSessionRepo(q, sealer)
		},
	}, nil
}
