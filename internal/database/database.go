// Package database provides read-only access to the biodiversity dataset for go-bbdiversity
package database

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/go-while/go-bbdiversity/internal/config"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

// Store is the process-wide handle on the dataset. It is safe for concurrent use.
// Every read holds the read lock for its whole duration so Reopen can swap the
// pool without closing it under a running query.
type Store struct {
	mux    sync.RWMutex
	db     *sqlx.DB
	cfg    *config.DatabaseConfig
	opened time.Time
	closed bool
}

// Open opens the dataset read-only and checks that the expected tables exist.
func Open(ctx context.Context, cfg *config.DatabaseConfig) (*Store, error) {
	if cfg == nil {
		return nil, errors.New("database configuration is not set")
	}
	db, err := openPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	log.Printf("[DATABASE] Opened %s (read-only)", cfg.Path)
	return &Store{
		db:     db,
		cfg:    cfg,
		opened: time.Now(),
	}, nil
}

// Reopen opens the dataset file again and swaps it in. The previous pool keeps
// serving if the new one can not be opened or fails validation.
func (s *Store) Reopen(ctx context.Context) error {
	db, err := openPool(ctx, s.cfg)
	if err != nil {
		return err
	}

	s.mux.Lock()
	if s.closed {
		s.mux.Unlock()
		db.Close()
		return ErrClosed
	}
	old := s.db
	s.db = db
	s.opened = time.Now()
	s.mux.Unlock()

	if err := old.Close(); err != nil {
		log.Printf("[DATABASE] Warning: failed to close replaced pool: %v", err)
	}
	log.Printf("[DATABASE] Reopened %s", s.cfg.Path)
	return nil
}

// Close closes the pool. Reads after Close fail with ErrClosed.
func (s *Store) Close() error {
	s.mux.Lock()
	defer s.mux.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if err := s.db.Close(); err != nil {
		return errors.Wrap(err, "failed to close database")
	}
	log.Printf("[DATABASE] Closed %s", s.cfg.Path)
	return nil
}

// Ping checks that the store is still reachable
func (s *Store) Ping(ctx context.Context) error {
	return s.withDB(func(db *sqlx.DB) error {
		return db.PingContext(ctx)
	})
}

// Path returns the dataset file path
func (s *Store) Path() string {
	return s.cfg.Path
}

// OpenedAt returns when the current pool was opened
func (s *Store) OpenedAt() time.Time {
	s.mux.RLock()
	defer s.mux.RUnlock()
	return s.opened
}

// withDB runs fn with the current pool while holding the read lock
func (s *Store) withDB(fn func(db *sqlx.DB) error) error {
	s.mux.RLock()
	defer s.mux.RUnlock()
	if s.closed {
		return ErrClosed
	}
	return fn(s.db)
}
