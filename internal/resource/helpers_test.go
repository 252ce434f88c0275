package resource

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/feedline-core/internal/hub"
	"github.com/nerrad567/feedline-core/internal/infrastructure/database"
	"github.com/nerrad567/feedline-core/internal/infrastructure/logging"
	"github.com/nerrad567/feedline-core/migrations"
)

// testDB opens a migrated temporary database with users u1 and u2.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := database.Open(t.Context(), database.Config{
		Path:        filepath.Join(t.TempDir(), "resource-test.db"),
		WALMode:     true,
		BusyTimeout: 5,
		Migrations:  migrations.FS,
	})
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // Test cleanup

	if err := db.Migrate(t.Context()); err != nil {
		t.Fatalf("applying migrations: %v", err)
	}

	_, err = db.Exec(`
		INSERT INTO users (id, username, display_name, password_hash, status, is_active, created_at, updated_at)
		VALUES ('u1', 'u1', 'User One', 'x', 'around', 1, '2026-03-01T00:00:00Z', '2026-03-01T00:00:00Z'),
		       ('u2', 'u2', 'User Two', 'x', '', 1, '2026-03-01T00:00:00Z', '2026-03-01T00:00:00Z')`)
	if err != nil {
		t.Fatalf("seeding users: %v", err)
	}
	return db.DB
}

// recordingNotifier captures published events.
type recordingNotifier struct {
	mu     sync.Mutex
	events []hub.Event
	reject bool
}

func (n *recordingNotifier) Publish(ev hub.Event) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.reject {
		return false
	}
	n.events = append(n.events, ev)
	return true
}

func (n *recordingNotifier) Events() []hub.Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]hub.Event(nil), n.events...)
}

// memBlobs is an in-memory Attachments.
type memBlobs struct {
	mu      sync.Mutex
	files   map[string]string
	next    int
	saveErr error
}

func newMemBlobs() *memBlobs {
	return &memBlobs{files: make(map[string]string)}
}

func (b *memBlobs) Save(_ context.Context, filename string, r io.Reader) (string, error) {
	if b.saveErr != nil {
		return "", b.saveErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.next++
	url := "/uploads/" + strings.Repeat("f", b.next) + filepath.Ext(filename)
	b.files[url] = string(data)
	return url, nil
}

func (b *memBlobs) Remove(_ context.Context, url string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.files[url]; !ok {
		return errors.New("no such blob")
	}
	delete(b.files, url)
	return nil
}

func (b *memBlobs) Has(url string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.files[url]
	return ok
}

var testPages = PageDefaults{Size: 20, MaxSize: 100}

// newTestService builds a Service over repo with a recording notifier and
// in-memory blobs. The clock advances one millisecond per call.
func newTestService(repo Repository) (*Service, *recordingNotifier, *memBlobs) {
	notifier := &recordingNotifier{}
	blobs := newMemBlobs()
	svc := NewService(repo, notifier, blobs, testPages, logging.Nop())

	var mu sync.Mutex
	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		clock = clock.Add(time.Millisecond)
		return clock
	}
	return svc, notifier, blobs
}

func validInput() Input {
	return Input{Title: "hello", Content: "world!"}
}
