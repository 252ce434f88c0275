package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const (
	dirPermissions  = 0750
	filePermissions = 0640
)

// Store errors.
var (
	// ErrTooLarge is returned when the payload exceeds the configured size limit.
	ErrTooLarge = errors.New("blob: file exceeds size limit")

	// ErrUnsupportedType is returned for file extensions outside the allowed set.
	ErrUnsupportedType = errors.New("blob: unsupported file type")

	// ErrForeignURL is returned by Remove for URLs outside this store.
	ErrForeignURL = errors.New("blob: url does not belong to this store")
)

// allowedExtensions is the set of image types accepted as attachments.
var allowedExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
}

// Store writes attachments to Dir and addresses them by URLPrefix.
type Store struct {
	dir       string
	urlPrefix string
	maxSize   int64
}

// NewStore creates the directory if needed.
func NewStore(dir, urlPrefix string, maxSize int64) (*Store, error) {
	if err := os.MkdirAll(dir, dirPermissions); err != nil {
		return nil, fmt.Errorf("creating upload directory: %w", err)
	}
	return &Store{
		dir:       dir,
		urlPrefix: strings.TrimSuffix(urlPrefix, "/"),
		maxSize:   maxSize,
	}, nil
}

// Dir returns the filesystem directory backing the store.
func (s *Store) Dir() string {
	return s.dir
}

// URLPrefix returns the path prefix used in saved URLs.
func (s *Store) URLPrefix() string {
	return s.urlPrefix
}

// Save copies r into a new file and returns its URL path.
// A partially written file is removed on error.
func (s *Store) Save(ctx context.Context, filename string, r io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExtensions[ext] {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, ext)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	name := uuid.NewString() + ext
	full := filepath.Join(s.dir, name)

	f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, filePermissions)
	if err != nil {
		return "", fmt.Errorf("creating blob: %w", err)
	}

	src := r
	if s.maxSize > 0 {
		src = io.LimitReader(r, s.maxSize+1)
	}
	n, copyErr := io.Copy(f, src)
	closeErr := f.Close()

	switch {
	case copyErr != nil:
		os.Remove(full) //nolint:errcheck // Best effort cleanup
		return "", fmt.Errorf("writing blob: %w", copyErr)
	case closeErr != nil:
		os.Remove(full) //nolint:errcheck // Best effort cleanup
		return "", fmt.Errorf("closing blob: %w", closeErr)
	case s.maxSize > 0 && n > s.maxSize:
		os.Remove(full) //nolint:errcheck // Best effort cleanup
		return "", ErrTooLarge
	}

	return path.Join(s.urlPrefix, name), nil
}

// Remove deletes the file behind a URL returned by Save.
// Removing an empty URL or an already missing file is not an error.
func (s *Store) Remove(_ context.Context, url string) error {
	if url == "" {
		return nil
	}
	name, ok := strings.CutPrefix(url, s.urlPrefix+"/")
	if !ok || name == "" || strings.ContainsAny(name, `/\`) {
		return ErrForeignURL
	}
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing blob: %w", err)
	}
	return nil
}
