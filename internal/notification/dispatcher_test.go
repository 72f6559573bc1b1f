package notification

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lifebridge/internal/domain"
)

type recordingPublisher struct {
	mu        sync.Mutex
	published []domain.Notification
}

func (p *recordingPublisher) Publish(_ context.Context, n domain.Notification) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, n)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDispatcherPersistsAndPublishes(t *testing.T) {
	store := NewInMemoryStore()
	pub := &recordingPublisher{}
	d := NewDispatcher(store, pub, discardLogger(), nil)

	d.Notify("user-1", "Hospital has requested transplant. Confirm or reject.", "alloc-1")
	d.Notify("user-1", "Your allocation was completed.", "alloc-1")
	d.Notify("user-2", "Welcome", "")
	d.Close()

	forUser1, err := store.ListByUser(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Len(t, forUser1, 2)
	for _, n := range forUser1 {
		assert.Equal(t, "alloc-1", n.AllocationID)
		assert.False(t, n.Read)
	}

	forUser2, err := store.ListByUser(context.Background(), "user-2")
	require.NoError(t, err)
	require.Len(t, forUser2, 1)
	assert.Empty(t, forUser2[0].AllocationID)

	pub.mu.Lock()
	defer pub.mu.Unlock()
	assert.Len(t, pub.published, 3)
}

func TestDispatcherWithoutPublisher(t *testing.T) {
	store := NewInMemoryStore()
	d := NewDispatcher(store, nil, discardLogger(), nil)

	d.Notify("user-1", "hello", "")
	d.Close()

	got, err := store.ListByUser(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestMarkRead(t *testing.T) {
	store := NewInMemoryStore()
	d := NewDispatcher(store, nil, discardLogger(), nil)
	d.Notify("user-1", "hello", "")
	d.Close()

	got, err := store.ListByUser(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, got, 1)

	require.NoError(t, store.MarkRead(context.Background(), got[0].ID, "user-1"))

	got, err = store.ListByUser(context.Background(), "user-1")
	require.NoError(t, err)
	assert.True(t, got[0].Read)

	// Another user cannot mark someone else's notification.
	err = store.MarkRead(context.Background(), got[0].ID, "user-2")
	assert.Error(t, err)
}
