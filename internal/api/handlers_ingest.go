// handlers_ingest.go - Single-file ingestion preview
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/ehcp-review/backend/internal/ingest"
	"github.com/ehcp-review/backend/internal/models"
)

// MIMEApplicationMsgpack is the content type of MessagePack responses.
const MIMEApplicationMsgpack = "application/msgpack"

// IngestHandlerImpl implements the IngestHandler interface
type IngestHandlerImpl struct {
	loader TableLoader
}

// NewIngestHandler creates a new ingest handler
func NewIngestHandler(loader TableLoader) IngestHandler {
	if loader == nil {
		loader = ingest.GetGlobalRegistry()
	}
	return &IngestHandlerImpl{loader: loader}
}

// HandleIngest returns the table a multipart file ingests to, as JSON
func (h *IngestHandlerImpl) HandleIngest(c echo.Context) error {
	table, err := h.load(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, table)
}

// HandleIngestMsgpack returns the ingested table in MessagePack format
func (h *IngestHandlerImpl) HandleIngestMsgpack(c echo.Context) error {
	table, err := h.load(c)
	if err != nil {
		return err
	}

	data, err := msgpack.Marshal(table)
	if err != nil {
		return NewInternalError("failed to encode msgpack", err)
	}

	return c.Blob(http.StatusOK, MIMEApplicationMsgpack, data)
}

func (h *IngestHandlerImpl) load(c echo.Context) (*models.Table, error) {
	file, err := c.FormFile("file")
	if err != nil {
		return nil, NewBadRequestError("no file provided", err)
	}

	src, err := file.Open()
	if err != nil {
		return nil, NewInternalError("failed to open uploaded file", err)
	}
	defer src.Close()

	table, err := h.loader.Load(ingest.UploadedFile{Name: file.Filename, Content: src})
	if err != nil {
		return nil, FromGenerationError(err)
	}
	return table, nil
}
