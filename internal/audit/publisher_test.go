package audit

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPublisherSyncMode(t *testing.T) {
	store := NewInMemoryStore()
	pub := NewPublisher(store, testLogger())
	defer pub.Close()

	pub.Emit(context.Background(), Event{
		Action:    ActionSignInSucceeded,
		SessionID: "sess_1",
		UserID:    "user-1",
		Provider:  "credentials",
	})

	events, err := pub.ListBySession(context.Background(), "sess_1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, ActionSignInSucceeded, events[0].Action)
	assert.NotEqual(t, uuid.Nil, events[0].ID)
	assert.False(t, events[0].Timestamp.IsZero())
}

func TestPublisherAsyncMode(t *testing.T) {
	store := NewInMemoryStore()
	pub := NewPublisher(store, testLogger(), WithAsyncBuffer(10))

	pub.Emit(context.Background(), Event{Action: ActionTokenRefreshed, SessionID: "sess_1"})
	pub.Emit(context.Background(), Event{Action: ActionSignOut, SessionID: "sess_1"})

	// Close drains the inbox before returning.
	pub.Close()

	events, err := store.ListBySession(context.Background(), "sess_1")
	require.NoError(t, err)
	assert.Len(t, events, 2)
}

type failingStore struct{}

func (failingStore) Append(context.Context, Event) error { return errors.New("disk full") }
func (failingStore) ListBySession(context.Context, string) ([]Event, error) {
	return nil, nil
}
func (failingStore) ListRecent(context.Context, int) ([]Event, error) { return nil, nil }

func TestPublisherSwallowsStoreFailures(t *testing.T) {
	pub := NewPublisher(failingStore{}, testLogger())
	defer pub.Close()

	// Must not panic or propagate; audit never fails the caller.
	pub.Emit(context.Background(), Event{Action: ActionSignInFailed})
}

func TestInMemoryStoreListRecent(t *testing.T) {
	store := NewInMemoryStore()
	base := time.Now()
	for i := 0; i < 5; i++ {
		require.NoError(t, store.Append(context.Background(), Event{
			ID:        uuid.New(),
			Timestamp: base.Add(time.Duration(i) * time.Second),
			Action:    ActionTokenRefreshed,
			SessionID: "sess_1",
		}))
	}

	recent, err := store.ListRecent(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, base.Add(3*time.Second), recent[0].Timestamp)
	assert.Equal(t, base.Add(4*time.Second), recent[1].Timestamp)
}
