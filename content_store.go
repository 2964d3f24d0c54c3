package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
)

// ContentStore holds the current portfolio and swaps it when the content
// file changes.
type ContentStore struct {
	path    string
	current atomic.Pointer[Portfolio]
}

// NewContentStore loads path, or the built-in content when path is empty.
func NewContentStore(path string) (*ContentStore, error) {
	s := &ContentStore{path: path}
	if path == "" {
		s.current.Store(DefaultPortfolio())
		return s, nil
	}
	p, err := LoadPortfolio(path)
	if err != nil {
		return nil, err
	}
	s.current.Store(p)
	return s, nil
}

// Get returns the current portfolio. Callers must not modify it.
func (s *ContentStore) Get() *Portfolio {
	return s.current.Load()
}

// Reload re-reads the content file. On error the previous content stays.
func (s *ContentStore) Reload() error {
	if s.path == "" {
		return nil
	}
	p, err := LoadPortfolio(s.path)
	if err != nil {
		return err
	}
	s.current.Store(p)
	return nil
}

// Watch reloads the content file whenever it is written, until ctx ends.
func (s *ContentStore) Watch(ctx context.Context) error {
	if s.path == "" {
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create content watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory: editors often replace the file instead of writing it.
	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		return fmt.Errorf("watch %s: %w", s.path, err)
	}
	target := filepath.Clean(s.path)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target || ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if err := s.Reload(); err != nil {
				slog.Error("Content reload failed, keeping previous content", "path", s.path, "error", err)
				continue
			}
			slog.Info("Content reloaded", "path", s.path)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("Content watcher error", "error", err)
		}
	}
}
