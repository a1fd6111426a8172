// interfaces.go - Handler interface definitions for clean separation of concerns
package api

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/ehcp-review/backend/internal/ingest"
	"github.com/ehcp-review/backend/internal/models"
	"github.com/ehcp-review/backend/internal/review"
)

// FileHandler handles staged upload operations
type FileHandler interface {
	HandleUploadFile(c echo.Context) error
	HandleGetRecentFiles(c echo.Context) error
	HandleGetFile(c echo.Context) error
	HandleDeleteFile(c echo.Context) error
}

// IngestHandler previews a single file as a table
type IngestHandler interface {
	HandleIngest(c echo.Context) error
	HandleIngestMsgpack(c echo.Context) error
}

// ReportHandler handles report generation
type ReportHandler interface {
	HandleGenerateReports(c echo.Context) error
	HandleGenerateStagedReports(c echo.Context) error
}

// HealthHandler handles health check operations
type HealthHandler interface {
	HandleHealth(c echo.Context) error
}

// ReportGenerator turns three uploads into a batch of reports.
// This allows mocking in tests
type ReportGenerator interface {
	Generate(ctx context.Context, u review.Uploads) (*review.Batch, error)
}

// TableLoader ingests a single upload.
type TableLoader interface {
	Load(f ingest.UploadedFile) (*models.Table, error)
}
