package server

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/openmined/dirsync/internal/server/store"
)

type Services struct {
	Store   *store.ObjectStore
	Indexer *store.ObjectIndexer
}

func NewServices(config *Config, db *sqlx.DB) (*Services, error) {
	index, err := store.NewObjectIndex(db)
	if err != nil {
		return nil, err
	}

	objectStore, err := store.NewObjectStore(&config.Store, index)
	if err != nil {
		return nil, err
	}

	return &Services{
		Store:   objectStore,
		Indexer: store.NewObjectIndexer(objectStore),
	}, nil
}

func (s *Services) Start(ctx context.Context) error {
	if err := s.Store.Init(); err != nil {
		return fmt.Errorf("start store: %w", err)
	}

	// the index is derived from the root, rebuild it before serving
	if err := s.Indexer.Rebuild(ctx); err != nil {
		return fmt.Errorf("rebuild index: %w", err)
	}
	return nil
}

func (s *Services) Shutdown(ctx context.Context) error {
	if err := s.Store.Index().Close(); err != nil {
		return fmt.Errorf("close index: %w", err)
	}
	return nil
}
