package blob

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestStore(t *testing.T, maxSize int64) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "uploads"), "/uploads/", maxSize)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	return s
}

func TestSaveAndRemove(t *testing.T) {
	s := newTestStore(t, 1024)
	ctx := context.Background()

	url, err := s.Save(ctx, "cat.PNG", strings.NewReader("png-bytes"))
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if !strings.HasPrefix(url, "/uploads/") || !strings.HasSuffix(url, ".png") {
		t.Fatalf("Save() url = %q, want /uploads/*.png", url)
	}

	full := filepath.Join(s.Dir(), filepath.Base(url))
	data, err := os.ReadFile(full)
	if err != nil {
		t.Fatalf("reading saved file: %v", err)
	}
	if string(data) != "png-bytes" {
		t.Errorf("saved content = %q", data)
	}

	if err := s.Remove(ctx, url); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if _, err := os.Stat(full); !os.IsNotExist(err) {
		t.Error("file still present after Remove")
	}

	// Second remove is a no-op
	if err := s.Remove(ctx, url); err != nil {
		t.Errorf("second Remove() error = %v", err)
	}
}

func TestSaveRejectsOversize(t *testing.T) {
	s := newTestStore(t, 4)

	_, err := s.Save(context.Background(), "big.jpg", bytes.NewReader([]byte("12345")))
	if !errors.Is(err, ErrTooLarge) {
		t.Fatalf("Save() error = %v, want ErrTooLarge", err)
	}

	entries, err := os.ReadDir(s.Dir())
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("oversize upload left %d files behind", len(entries))
	}
}

func TestSaveRejectsExtension(t *testing.T) {
	s := newTestStore(t, 0)

	if _, err := s.Save(context.Background(), "script.sh", strings.NewReader("x")); !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("Save() error = %v, want ErrUnsupportedType", err)
	}
}

func TestRemoveForeignURL(t *testing.T) {
	s := newTestStore(t, 0)

	tests := []string{
		"/elsewhere/a.png",
		"/uploads/../etc/passwd",
		"/uploads/",
	}
	for _, url := range tests {
		t.Run(url, func(t *testing.T) {
			if err := s.Remove(context.Background(), url); !errors.Is(err, ErrForeignURL) {
				t.Errorf("Remove(%q) error = %v, want ErrForeignURL", url, err)
			}
		})
	}

	if err := s.Remove(context.Background(), ""); err != nil {
		t.Errorf("Remove(\"\") error = %v", err)
	}
}
