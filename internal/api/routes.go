// routes.go - Route registration helpers
// This file provides a clean way to register all API routes
package api

import (
	"github.com/labstack/echo/v4"

	"github.com/ehcp-review/backend/internal/logging"
	"github.com/ehcp-review/backend/internal/storage"
)

// Dependencies holds all handler dependencies
type Dependencies struct {
	Store             storage.Store
	Generator         ReportGenerator
	Loader            TableLoader
	AllowFileDeletion bool
	Version           string
}

// Handlers holds all handler instances
type Handlers struct {
	Health HealthHandler
	Files  FileHandler
	Ingest IngestHandler
	Report ReportHandler
}

// NewHandlers creates all handler instances
func NewHandlers(deps *Dependencies) *Handlers {
	return &Handlers{
		Health: NewHealthHandler(deps.Version),
		Files:  NewFileHandler(deps.Store, deps.AllowFileDeletion),
		Ingest: NewIngestHandler(deps.Loader),
		Report: NewReportHandler(deps.Generator, deps.Store),
	}
}

// RegisterRoutes registers all API routes with the Echo instance
func RegisterRoutes(e *echo.Echo, handlers *Handlers) {
	e.GET("/api/health", handlers.Health.HandleHealth)

	// Staged upload routes
	fileGroup := e.Group("/api/files")
	fileGroup.POST("/upload", handlers.Files.HandleUploadFile)
	fileGroup.GET("/recent", handlers.Files.HandleGetRecentFiles)
	fileGroup.GET("/:id", handlers.Files.HandleGetFile)
	fileGroup.DELETE("/:id", handlers.Files.HandleDeleteFile)

	// Single-file preview
	e.POST("/api/ingest", handlers.Ingest.HandleIngest)
	e.POST("/api/ingest/msgpack", handlers.Ingest.HandleIngestMsgpack)

	// Report generation
	reportGroup := e.Group("/api/reports")
	reportGroup.POST("", handlers.Report.HandleGenerateReports)
	reportGroup.POST("/staged", handlers.Report.HandleGenerateStagedReports)
}

// SetupMiddleware configures common middleware
func SetupMiddleware(e *echo.Echo) {
	e.HTTPErrorHandler = ErrorHandler
	e.Use(RequestContext)
}

// RequestContext copies the request ID set by the RequestID middleware into
// the request context so slog records carry it.
func RequestContext(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := c.Request().Header.Get(echo.HeaderXRequestID)
		if id == "" {
			id = c.Response().Header().Get(echo.HeaderXRequestID)
		}
		if id != "" {
			req := c.Request()
			c.SetRequest(req.WithContext(logging.WithRequestID(req.Context(), id)))
		}
		return next(c)
	}
}
