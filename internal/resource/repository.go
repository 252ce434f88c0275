package resource

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// timeLayout is fixed width so that text order in SQLite equals time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Repository is typed access to the resources table.
type Repository interface {
	Create(ctx context.Context, r *Resource) error
	GetByID(ctx context.Context, id string) (*Resource, error)
	GetWithOwner(ctx context.Context, id string) (*WithOwner, error)
	Update(ctx context.Context, r *Resource) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, offset, limit int) ([]Resource, error)
	Count(ctx context.Context) (int, error)
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewRepository creates a SQLite-backed repository.
func NewRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const resourceColumns = "id, owner_id, title, content, image_url, created_at, updated_at"

// Create inserts r. ID and timestamps must already be set.
func (s *SQLiteRepository) Create(ctx context.Context, r *Resource) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO resources (`+resourceColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.OwnerID, r.Title, r.Content, r.ImageURL,
		formatTime(r.CreatedAt), formatTime(r.UpdatedAt),
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrUnknownOwner
		}
		return fmt.Errorf("creating resource: %w", err)
	}
	return nil
}

// GetByID loads one resource.
func (s *SQLiteRepository) GetByID(ctx context.Context, id string) (*Resource, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+resourceColumns+" FROM resources WHERE id = ?", id)

	r, err := scanResource(row)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// GetWithOwner loads one resource joined with its owner's profile.
func (s *SQLiteRepository) GetWithOwner(ctx context.Context, id string) (*WithOwner, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT r.id, r.owner_id, r.title, r.content, r.image_url, r.created_at, r.updated_at,
		       u.id, u.username, u.display_name, u.status
		FROM resources r
		JOIN users u ON u.id = r.owner_id
		WHERE r.id = ?`, id)

	var out WithOwner
	var createdAt, updatedAt string
	err := row.Scan(
		&out.Resource.ID, &out.Resource.OwnerID, &out.Resource.Title, &out.Resource.Content,
		&out.Resource.ImageURL, &createdAt, &updatedAt,
		&out.Owner.ID, &out.Owner.Username, &out.Owner.DisplayName, &out.Owner.Status,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("loading resource with owner: %w", err)
	}
	if err := parseTimes(&out.Resource, createdAt, updatedAt); err != nil {
		return nil, err
	}
	return &out, nil
}

// Update writes the editable fields of r. The owner column is never touched.
func (s *SQLiteRepository) Update(ctx context.Context, r *Resource) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE resources SET title = ?, content = ?, image_url = ?, updated_at = ? WHERE id = ?`,
		r.Title, r.Content, r.ImageURL, formatTime(r.UpdatedAt), r.ID,
	)
	if err != nil {
		return fmt.Errorf("updating resource: %w", err)
	}
	return expectOneRow(result, "updating resource")
}

// Delete removes a resource.
func (s *SQLiteRepository) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM resources WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting resource: %w", err)
	}
	return expectOneRow(result, "deleting resource")
}

// List returns up to limit resources after offset, oldest first, ties by id.
func (s *SQLiteRepository) List(ctx context.Context, offset, limit int) ([]Resource, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+resourceColumns+" FROM resources ORDER BY created_at ASC, id ASC LIMIT ? OFFSET ?",
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("listing resources: %w", err)
	}
	defer rows.Close()

	items := make([]Resource, 0, limit)
	for rows.Next() {
		r, err := scanResource(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating resources: %w", err)
	}
	return items, nil
}

// Count returns the number of resources.
func (s *SQLiteRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM resources").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting resources: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanResource(s scanner) (*Resource, error) {
	var r Resource
	var createdAt, updatedAt string
	err := s.Scan(&r.ID, &r.OwnerID, &r.Title, &r.Content, &r.ImageURL, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scanning resource: %w", err)
	}
	if err := parseTimes(&r, createdAt, updatedAt); err != nil {
		return nil, err
	}
	return &r, nil
}

func parseTimes(r *Resource, createdAt, updatedAt string) error {
	var err error
	if r.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return fmt.Errorf("parsing created_at of %s: %w", r.ID, err)
	}
	if r.UpdatedAt, err = time.Parse(timeLayout, updatedAt); err != nil {
		return fmt.Errorf("parsing updated_at of %s: %w", r.ID, err)
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func expectOneRow(result sql.Result, op string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func isForeignKeyViolation(err error) bool {
	return strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
