package jsonfile

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"modq/internal/domain"
	"modq/internal/store"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "submissions.json"), time.Second)
}

func sub(id string) domain.Submission {
	return domain.Submission{
		ID:            id,
		Message:       "msg " + id,
		Status:        domain.StatusPending,
		TargetPageKey: "page1",
		FormData:      map[string]any{"textarea": "msg " + id},
		CreatedAt:     time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		IPAddress:     "10.0.0.1",
	}
}

func TestLoadMissingFileIsEmpty(t *testing.T) {
	s := newTestStore(t)
	subs, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, subs)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	in := []domain.Submission{sub("a"), sub("b"), sub("c")}
	require.NoError(t, s.Save(ctx, in))

	out, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	// a second save of the loaded document must not change it
	require.NoError(t, s.Save(ctx, out))
	again, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, out, again)
}

func TestLoadCorruptDocument(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, os.WriteFile(s.path, []byte("{not json"), 0o644))

	_, err := s.Load(context.Background())
	assert.ErrorIs(t, err, store.ErrCorrupt)
}

func TestConcurrentAppendsLoseNothing(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	const n = 20
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = s.Append(ctx, sub(fmt.Sprintf("id-%02d", i)))
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "append %d", i)
	}

	subs, err := s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, subs, n)

	seen := map[string]bool{}
	for _, sb := range subs {
		assert.False(t, seen[sb.ID], "duplicate id %s", sb.ID)
		seen[sb.ID] = true
	}
}

func TestTransactAbortsWithoutSaving(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, []domain.Submission{sub("keep")}))

	boom := errors.New("boom")
	err := s.Transact(ctx, func(subs []domain.Submission) ([]domain.Submission, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)

	subs, err := s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "keep", subs[0].ID)
}

func TestTransactBusyTimeout(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "submissions.json"), 50*time.Millisecond)
	ctx := context.Background()

	holding := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = s.Transact(ctx, func(subs []domain.Submission) ([]domain.Submission, error) {
			close(holding)
			<-release
			return subs, nil
		})
	}()

	<-holding
	err := s.Append(ctx, sub("late"))
	assert.ErrorIs(t, err, store.ErrBusy)
	close(release)
	<-done
}

func TestGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, []domain.Submission{sub("a"), sub("b")}))

	got, found, err := s.Get(ctx, "b")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "msg b", got.Message)

	_, found, err = s.Get(ctx, "zzz")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Save(context.Background(), []domain.Submission{sub("a")}))

	entries, err := os.ReadDir(filepath.Dir(s.path))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, filepath.Base(s.path), entries[0].Name())
}
