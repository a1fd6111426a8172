// handlers_files.go - Staged upload handlers
package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ehcp-review/backend/internal/ingest"
	"github.com/ehcp-review/backend/internal/storage"
)

// recentFilesLimit caps the recent uploads listing.
const recentFilesLimit = 20

// FileHandlerImpl implements the FileHandler interface
type FileHandlerImpl struct {
	store         storage.Store
	allowDeletion bool
}

// NewFileHandler creates a new file handler instance
func NewFileHandler(store storage.Store, allowDeletion bool) FileHandler {
	return &FileHandlerImpl{
		store:         store,
		allowDeletion: allowDeletion,
	}
}

// HandleUploadFile accepts a multipart file and stages it for later generation
func (h *FileHandlerImpl) HandleUploadFile(c echo.Context) error {
	file, err := c.FormFile("file")
	if err != nil {
		return NewBadRequestError("no file provided", err)
	}

	// Reject suffixes no parser can read before anything is written
	if _, err := ingest.KindFromFilename(file.Filename); err != nil {
		return NewUnsupportedFormatError(file.Filename)
	}

	src, err := file.Open()
	if err != nil {
		return NewInternalError("failed to open uploaded file", err)
	}
	defer src.Close()

	info, err := h.store.Save(file.Filename, src)
	if err != nil {
		return NewInternalError("failed to save file", err)
	}

	slog.InfoContext(c.Request().Context(), "upload staged",
		slog.String("file_id", info.ID),
		slog.String("file", info.Name),
		slog.String("kind", info.Kind),
		slog.Int64("size", info.Size))

	return c.JSON(http.StatusCreated, info)
}

// HandleGetRecentFiles returns the most recently staged uploads
func (h *FileHandlerImpl) HandleGetRecentFiles(c echo.Context) error {
	files, err := h.store.List(recentFilesLimit)
	if err != nil {
		return NewInternalError("failed to list files", err)
	}

	return c.JSON(http.StatusOK, files)
}

// HandleGetFile returns metadata for a specific file
func (h *FileHandlerImpl) HandleGetFile(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return NewValidationError("id")
	}

	info, err := h.store.Get(id)
	if err != nil {
		return NewNotFoundError("file", id)
	}

	return c.JSON(http.StatusOK, info)
}

// HandleDeleteFile deletes a staged upload
func (h *FileHandlerImpl) HandleDeleteFile(c echo.Context) error {
	if !h.allowDeletion {
		return NewForbiddenError("file deletion is disabled")
	}

	id := c.Param("id")
	if id == "" {
		return NewValidationError("id")
	}

	if err := h.store.Delete(id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return NewNotFoundError("file", id)
		}
		return NewInternalError("failed to delete file", err)
	}

	return c.NoContent(http.StatusNoContent)
}
