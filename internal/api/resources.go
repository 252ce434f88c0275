package api

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/feedline-core/internal/apperr"
	"github.com/nerrad567/feedline-core/internal/hub"
	"github.com/nerrad567/feedline-core/internal/resource"
)

// multipartMemory is how much of a multipart body is held in memory before
// spilling to temporary files.
const multipartMemory = 1 << 20

// imageField is the multipart field carrying an attachment.
const imageField = "image"

// resourceResponse wraps a single resource.
type resourceResponse struct {
	Resource *resource.Resource `json:"resource"`
}

// handleListResources returns one page of the collection.
func (s *Server) handleListResources(w http.ResponseWriter, r *http.Request) error {
	q := r.URL.Query()
	page := resource.NewPage(queryInt(q.Get("page")), queryInt(q.Get("pageSize")), s.resources.Pages())

	result, err := s.resources.List(r.Context(), page)
	if err != nil {
		return err
	}

	writeJSON(w, http.StatusOK, result)
	return nil
}

// handleGetResource returns one resource with its owner.
func (s *Server) handleGetResource(w http.ResponseWriter, r *http.Request) error {
	out, err := s.resources.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		return err
	}

	writeJSON(w, http.StatusOK, out)
	return nil
}

// handleCreateResource stores a resource owned by the caller.
func (s *Server) handleCreateResource(w http.ResponseWriter, r *http.Request) error {
	callerID, err := callerOrFail(r)
	if err != nil {
		return err
	}

	in, cleanup, err := s.decodeInput(r)
	if err != nil {
		return err
	}
	defer cleanup()

	created, err := s.resources.Create(r.Context(), callerID, in)
	if err != nil {
		return err
	}

	s.metrics.mutation(string(hub.ActionCreate))
	writeJSON(w, http.StatusCreated, resourceResponse{Resource: created})
	return nil
}

// handleUpdateResource replaces a resource owned by the caller.
func (s *Server) handleUpdateResource(w http.ResponseWriter, r *http.Request) error {
	callerID, err := callerOrFail(r)
	if err != nil {
		return err
	}

	in, cleanup, err := s.decodeInput(r)
	if err != nil {
		return err
	}
	defer cleanup()

	updated, err := s.resources.Update(r.Context(), callerID, chi.URLParam(r, "id"), in)
	if err != nil {
		return err
	}

	s.metrics.mutation(string(hub.ActionUpdate))
	writeJSON(w, http.StatusOK, resourceResponse{Resource: updated})
	return nil
}

// handleDeleteResource removes a resource owned by the caller.
func (s *Server) handleDeleteResource(w http.ResponseWriter, r *http.Request) error {
	callerID, err := callerOrFail(r)
	if err != nil {
		return err
	}

	if err := s.resources.Delete(r.Context(), callerID, chi.URLParam(r, "id")); err != nil {
		return err
	}

	s.metrics.mutation(string(hub.ActionDelete))
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// decodeInput reads a write body as JSON or as a multipart form with an
// optional image. Any owner field in the body is ignored. The returned
// cleanup must be called once the input has been consumed.
func (s *Server) decodeInput(r *http.Request) (resource.Input, func(), error) {
	noop := func() {}

	if !isMultipart(r) {
		var in resource.Input
		if err := decodeJSON(r, &in); err != nil {
			return resource.Input{}, noop, err
		}
		return in, noop, nil
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return resource.Input{}, noop, apperr.Wrap(apperr.BadRequest, "request body too large", err)
		}
		return resource.Input{}, noop, apperr.Wrap(apperr.BadRequest, "invalid multipart body", err)
	}
	cleanupForm := func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			s.logger.Warn("removing multipart temp files", "error", err)
		}
	}

	in := resource.Input{
		Title:   r.FormValue("title"),
		Content: r.FormValue("content"),
	}

	file, header, err := r.FormFile(imageField)
	switch {
	case errors.Is(err, http.ErrMissingFile):
		return in, cleanupForm, nil
	case err != nil:
		cleanupForm()
		return resource.Input{}, noop, apperr.Wrap(apperr.BadRequest, "invalid image upload", err)
	}

	in.Image = &resource.Upload{Filename: header.Filename, Body: file}
	return in, func() {
		closeFile(file)
		cleanupForm()
	}, nil
}

func closeFile(f multipart.File) {
	//nolint:errcheck // read-only upload handle
	f.Close()
}

// queryInt parses a query value, returning 0 when absent or malformed so
// the page defaults apply.
func queryInt(raw string) int {
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return n
}
