package database

import (
	"context"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
)

// ReloadDelay is how long the dataset file has to stay quiet before it is reopened
var ReloadDelay = 500 * time.Millisecond

// Watch reopens the store whenever the dataset file is created, replaced or
// rewritten by the loader. It watches the parent directory so an atomic rename
// into place is seen. It runs until ctx is cancelled.
//
// A failed reopen is logged and the previous pool keeps serving.
func Watch(ctx context.Context, s *Store) error {
	if strings.HasPrefix(s.cfg.Path, "file:") {
		return errors.Errorf("can not watch URI dataset %s", s.cfg.Path)
	}
	target, err := filepath.Abs(s.cfg.Path)
	if err != nil {
		return errors.Wrapf(err, "can not resolve %s", s.cfg.Path)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "failed to create watcher")
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return errors.Wrapf(err, "failed to watch %s", filepath.Dir(target))
	}
	log.Printf("[WATCH] watching %s for replacement", target)

	// stopped until the first matching event
	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			timer.Reset(ReloadDelay)

		case <-timer.C:
			if err := s.Reopen(ctx); err != nil {
				log.Printf("[WATCH] reload of %s failed, keeping previous store: %v", target, err)
				if errors.Is(err, ErrClosed) {
					return nil
				}
				continue
			}
			log.Printf("[WATCH] reloaded %s", target)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("[WATCH] watcher error: %v", err)
		}
	}
}
