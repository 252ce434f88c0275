package resource

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/nerrad567/feedline-core/internal/apperr"
	"github.com/nerrad567/feedline-core/internal/hub"
	"github.com/nerrad567/feedline-core/internal/infrastructure/blob"
	"github.com/nerrad567/feedline-core/internal/infrastructure/logging"
)

// Notifier accepts mutation events for broadcast. Publish must not block.
type Notifier interface {
	Publish(ev hub.Event) bool
}

// Attachments stores uploaded files and addresses them by URL.
type Attachments interface {
	Save(ctx context.Context, filename string, r io.Reader) (string, error)
	Remove(ctx context.Context, url string) error
}

// Service runs reads and the validate, persist, notify path for writes.
// Every error it returns is an *apperr.Error.
type Service struct {
	repo     Repository
	notifier Notifier
	blobs    Attachments
	pages    PageDefaults
	logger   *logging.Logger
	now      func() time.Time
}

// NewService wires a Service. blobs may be nil when uploads are disabled.
func NewService(repo Repository, notifier Notifier, blobs Attachments, pages PageDefaults, logger *logging.Logger) *Service {
	return &Service{
		repo:     repo,
		notifier: notifier,
		blobs:    blobs,
		pages:    pages,
		logger:   logger,
		now:      time.Now,
	}
}

// Pages returns the window bounds used for List.
func (s *Service) Pages() PageDefaults {
	return s.pages
}

// Get returns a resource with its owner.
func (s *Service) Get(ctx context.Context, id string) (*WithOwner, error) {
	out, err := s.repo.GetWithOwner(ctx, id)
	if err != nil {
		return nil, s.storageError(err, "resource not found")
	}
	return out, nil
}

// List returns one window of the collection ordered by creation time.
func (s *Service) List(ctx context.Context, page Page) (*ListResult, error) {
	items, err := s.repo.List(ctx, page.Offset(), page.Size)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	total, err := s.repo.Count(ctx)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	return &ListResult{
		Items:      items,
		TotalCount: total,
		Page:       page.Number,
		PageSize:   page.Size,
	}, nil
}

// Create stores a new resource owned by callerID and publishes a create event.
func (s *Service) Create(ctx context.Context, callerID string, in Input) (*Resource, error) {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, apperr.FromValidation(err)
	}

	imageURL, err := s.saveImage(ctx, in.Image)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	r := &Resource{
		ID:        newID(now),
		OwnerID:   callerID,
		Title:     in.Title,
		Content:   in.Content,
		ImageURL:  imageURL,
		CreatedAt: now,
		UpdatedAt: now,
	}

	// Once issued, the write is not abandoned because the client went away.
	if err := s.repo.Create(context.WithoutCancel(ctx), r); err != nil {
		s.removeImage(ctx, imageURL)
		if errors.Is(err, ErrUnknownOwner) {
			return nil, apperr.Wrap(apperr.Forbidden, "account no longer exists", err)
		}
		return nil, apperr.Storage(err)
	}

	s.publish(hub.ActionCreate, r)
	return r, nil
}

// Update replaces the text fields of a resource owned by callerID and, when
// in carries an image, its attachment.
func (s *Service) Update(ctx context.Context, callerID, id string, in Input) (*Resource, error) {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, apperr.FromValidation(err)
	}

	r, err := s.loadOwned(ctx, callerID, id)
	if err != nil {
		return nil, err
	}

	newImage, err := s.saveImage(ctx, in.Image)
	if err != nil {
		return nil, err
	}

	oldImage := r.ImageURL
	r.Title = in.Title
	r.Content = in.Content
	if newImage != "" {
		r.ImageURL = newImage
	}
	r.UpdatedAt = s.now().UTC()

	if err := s.repo.Update(context.WithoutCancel(ctx), r); err != nil {
		s.removeImage(ctx, newImage)
		return nil, s.storageError(err, "resource not found")
	}

	if newImage != "" {
		s.removeImage(ctx, oldImage)
	}
	s.publish(hub.ActionUpdate, r)
	return r, nil
}

// Delete removes a resource owned by callerID and its attachment.
func (s *Service) Delete(ctx context.Context, callerID, id string) error {
	r, err := s.loadOwned(ctx, callerID, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(context.WithoutCancel(ctx), id); err != nil {
		return s.storageError(err, "resource not found")
	}

	s.removeImage(ctx, r.ImageURL)
	s.publish(hub.ActionDelete, r)
	return nil
}

// loadOwned fetches id and checks callerID owns it.
func (s *Service) loadOwned(ctx context.Context, callerID, id string) (*Resource, error) {
	r, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.storageError(err, "resource not found")
	}
	if r.OwnerID != callerID {
		return nil, apperr.New(apperr.Forbidden, "only the owner may modify this resource")
	}
	return r, nil
}

func (s *Service) publish(action hub.Action, r *Resource) {
	ev := hub.Event{Action: action, Resource: *r, Timestamp: s.now()}
	if !s.notifier.Publish(ev) {
		s.logger.Warn("mutation event not queued", "action", action, "resource_id", r.ID)
	}
}

func (s *Service) saveImage(ctx context.Context, up *Upload) (string, error) {
	if up == nil {
		return "", nil
	}
	if s.blobs == nil {
		return "", apperr.New(apperr.BadRequest, "attachments are not enabled")
	}

	url, err := s.blobs.Save(ctx, up.Filename, up.Body)
	if err != nil {
		if errors.Is(err, blob.ErrTooLarge) {
			return "", apperr.Wrap(apperr.BadRequest, "image exceeds size limit", err)
		}
		if errors.Is(err, blob.ErrUnsupportedType) {
			return "", apperr.Wrap(apperr.BadRequest, "unsupported image type", err)
		}
		return "", apperr.Storage(err)
	}
	return url, nil
}

// removeImage deletes an attachment; failures only leave an orphaned file.
func (s *Service) removeImage(ctx context.Context, url string) {
	if url == "" || s.blobs == nil {
		return
	}
	if err := s.blobs.Remove(context.WithoutCancel(ctx), url); err != nil {
		s.logger.Warn("failed to remove attachment", "url", url, "error", err)
	}
}

// storageError maps ErrNotFound to NotFound and everything else to StorageFailure.
func (s *Service) storageError(err error, notFoundMsg string) error {
	if errors.Is(err, ErrNotFound) {
		return apperr.Wrap(apperr.NotFound, notFoundMsg, err)
	}
	return apperr.Storage(err)
}
