package testsupport

import (
	"context"
	"testing"

	"echocheck/internal/config"
	"echocheck/internal/queue"
)

// MustOpenStore opens a queue.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()

	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewUpload creates a new upload item for tests using the provided store.
func NewUpload(t testing.TB, store *queue.Store, userID int64, fileName string) *queue.Item {
	t.Helper()

	item, err := store.NewUpload(context.Background(), userID, fileName, "MP4", "/tmp/"+fileName, 1024)
	if err != nil {
		t.Fatalf("store.NewUpload: %v", err)
	}
	return item
}
