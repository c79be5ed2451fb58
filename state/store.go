// Package state persists the rotation progress and the published-post ledger
// as two small JSON documents.
//
// Every update is a whole-document read-modify-write done under an in-process
// mutex and a cross-process file lock, and lands through an atomic rename.
package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

const (
	progressFile = "progress.json"
	postsFile    = "published-posts.json"
	lockRetry    = 50 * time.Millisecond
)

// Store owns both documents under one directory.
type Store struct {
	dir        string
	progressMu sync.Mutex
	postsMu    sync.Mutex
	now        func() time.Time
}

// Open prepares dir and returns a Store rooted there.
func Open(dir string) (*Store, error) {
	if dir == "" {
		return nil, errors.New("state dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure state dir: %w", err)
	}
	return &Store{dir: dir, now: time.Now}, nil
}

// Dir is the directory holding the documents.
func (s *Store) Dir() string { return s.dir }

func (s *Store) path(name string) string { return filepath.Join(s.dir, name) }

// update runs fn while holding the document's file lock.
func (s *Store) update(ctx context.Context, name string, fn func(path string) error) error {
	path := s.path(name)
	lock := flock.New(path + ".lock")
	ok, err := lock.TryLockContext(ctx, lockRetry)
	if err != nil {
		return fmt.Errorf("lock %s: %w", name, err)
	}
	if !ok {
		return fmt.Errorf("lock %s: not acquired", name)
	}
	defer func() { _ = lock.Unlock() }()
	return fn(path)
}

// readJSON decodes path into v. A missing file leaves v untouched.
func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return nil
}

// writeJSON replaces path atomically.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()
	if _, err := tmp.Write(append(data, '\n')); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
