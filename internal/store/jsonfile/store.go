// Package jsonfile persists the submission sequence as a single JSON document
// on disk, rewritten in full on every save. Writers go through a temp file
// and an atomic rename so a reader never observes a half-written document.
package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"modq/internal/domain"
	"modq/internal/store"
)

type Store struct {
	path        string
	lockTimeout time.Duration

	// buffered channel used as a semaphore; acquire is bounded by
	// lockTimeout so a stuck holder surfaces as ErrBusy, not a hang
	sem chan struct{}
}

func New(path string, lockTimeout time.Duration) *Store {
	if lockTimeout <= 0 {
		lockTimeout = 5 * time.Second
	}
	return &Store{
		path:        path,
		lockTimeout: lockTimeout,
		sem:         make(chan struct{}, 1),
	}
}

func (s *Store) acquire(ctx context.Context) error {
	t := time.NewTimer(s.lockTimeout)
	defer t.Stop()
	select {
	case s.sem <- struct{}{}:
		return nil
	case <-t.C:
		return store.ErrBusy
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", store.ErrBusy, ctx.Err())
	}
}

func (s *Store) release() { <-s.sem }

// Load reads the whole document. A missing file is an empty store.
func (s *Store) Load(ctx context.Context) ([]domain.Submission, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []domain.Submission{}, nil
		}
		return nil, fmt.Errorf("%w: read %s: %v", store.ErrIO, s.path, err)
	}
	if len(b) == 0 {
		return []domain.Submission{}, nil
	}
	var subs []domain.Submission
	if err := json.Unmarshal(b, &subs); err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrCorrupt, err)
	}
	return subs, nil
}

// Save atomically replaces the document: write a temp file in the same
// directory, fsync, rename over the target.
func (s *Store) Save(ctx context.Context, subs []domain.Submission) error {
	if subs == nil {
		subs = []domain.Submission{}
	}
	b, err := json.MarshalIndent(subs, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: marshal: %v", store.ErrIO, err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: create temp: %v", store.ErrIO, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: write temp: %v", store.ErrIO, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: sync temp: %v", store.ErrIO, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: close temp: %v", store.ErrIO, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("%w: chmod temp: %v", store.ErrIO, err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("%w: rename: %v", store.ErrIO, err)
	}
	return nil
}

// Transact runs load+fn+save under the exclusive lock. An error from fn
// aborts without saving.
func (s *Store) Transact(ctx context.Context, fn func(subs []domain.Submission) ([]domain.Submission, error)) error {
	if err := s.acquire(ctx); err != nil {
		return err
	}
	defer s.release()

	subs, err := s.Load(ctx)
	if err != nil {
		return err
	}
	out, err := fn(subs)
	if err != nil {
		return err
	}
	return s.Save(ctx, out)
}

// Append adds one submission under the same critical section as Transact, so
// concurrent appends never drop an entry.
func (s *Store) Append(ctx context.Context, sub domain.Submission) error {
	return s.Transact(ctx, func(subs []domain.Submission) ([]domain.Submission, error) {
		return append(subs, sub), nil
	})
}

// Get returns one submission by id.
func (s *Store) Get(ctx context.Context, id string) (domain.Submission, bool, error) {
	subs, err := s.Load(ctx)
	if err != nil {
		return domain.Submission{}, false, err
	}
	for _, sub := range subs {
		if sub.ID == id {
			return sub, true, nil
		}
	}
	return domain.Submission{}, false, nil
}
