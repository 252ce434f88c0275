package resource

import (
	"errors"
	"io"
	"time"
)

// Resource is one record of the collection. OwnerID is fixed at creation.
type Resource struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	ImageURL  string    `json:"imageUrl,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Owner is the public profile of a resource's owner.
type Owner struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
	Status      string `json:"status"`
}

// WithOwner pairs a resource with its resolved owner.
type WithOwner struct {
	Resource Resource `json:"resource"`
	Owner    Owner    `json:"owner"`
}

// Upload is an attachment submitted with a write.
type Upload struct {
	Filename string
	Body     io.Reader
}

// Input carries the caller-editable fields of a write. Ownership is never
// part of the input.
type Input struct {
	Title   string  `json:"title"`
	Content string  `json:"content"`
	Image   *Upload `json:"-"`
}

// Repository errors.
var (
	ErrNotFound     = errors.New("resource not found")
	ErrUnknownOwner = errors.New("owner does not exist")
)
