package store

import (
	"context"
	"errors"

	"modq/internal/domain"
)

var (
	// ErrCorrupt means the persisted document exists but is not valid JSON
	// matching the submission schema.
	ErrCorrupt = errors.New("store: document corrupt")

	// ErrIO wraps any underlying filesystem failure.
	ErrIO = errors.New("store: io failure")

	// ErrBusy means the exclusive lock could not be acquired within the
	// configured wait.
	ErrBusy = errors.New("store: busy")
)

// Store persists the full submission sequence as one document. Transact is
// the sole synchronization point: every mutation, including the webhook
// append, goes through it so concurrent requests never lose updates.
type Store interface {
	Load(ctx context.Context) ([]domain.Submission, error)
	Save(ctx context.Context, subs []domain.Submission) error
	Append(ctx context.Context, sub domain.Submission) error
	Transact(ctx context.Context, fn func(subs []domain.Submission) ([]domain.Submission, error)) error
	Get(ctx context.Context, id string) (domain.Submission, bool, error)
}
