// handlers_reports.go - Report generation handlers
package api

import (
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/ehcp-review/backend/internal/ingest"
	"github.com/ehcp-review/backend/internal/review"
	"github.com/ehcp-review/backend/internal/storage"
)

// ReportHandlerImpl implements the ReportHandler interface
type ReportHandlerImpl struct {
	generator ReportGenerator
	store     storage.Store
	validate  *validator.Validate
}

// NewReportHandler creates a new report handler
func NewReportHandler(generator ReportGenerator, store storage.Store) ReportHandler {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	return &ReportHandlerImpl{
		generator: generator,
		store:     store,
		validate:  validate,
	}
}

// HandleGenerateReports generates reports from three multipart files named
// students, feedback and grades.
func (h *ReportHandlerImpl) HandleGenerateReports(c echo.Context) error {
	var u review.Uploads
	var closers []io.Closer
	defer func() {
		for _, cl := range closers {
			cl.Close()
		}
	}()

	slots := []struct {
		role review.Role
		dst  **ingest.UploadedFile
	}{
		{review.RoleStudents, &u.Students},
		{review.RoleFeedback, &u.Feedback},
		{review.RoleGrades, &u.Grades},
	}

	for _, slot := range slots {
		fh, err := c.FormFile(string(slot.role))
		if err != nil {
			if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
				continue
			}
			return NewBadRequestError("invalid multipart body", err)
		}

		f, err := fh.Open()
		if err != nil {
			return NewInternalError("failed to open uploaded file", err)
		}
		closers = append(closers, f)
		*slot.dst = &ingest.UploadedFile{Name: fh.Filename, Content: f}
	}

	return h.respond(c, u)
}

// HandleGenerateStagedReports generates reports from previously staged uploads
func (h *ReportHandlerImpl) HandleGenerateStagedReports(c echo.Context) error {
	var req stagedReportRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}

	if err := h.validate.Struct(&req); err != nil {
		return validationError(err)
	}

	var u review.Uploads
	var closers []io.Closer
	defer func() {
		for _, cl := range closers {
			cl.Close()
		}
	}()

	slots := []struct {
		id  string
		dst **ingest.UploadedFile
	}{
		{req.StudentsFileID, &u.Students},
		{req.FeedbackFileID, &u.Feedback},
		{req.GradesFileID, &u.Grades},
	}

	for _, slot := range slots {
		rc, info, err := h.store.Open(slot.id)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return NewNotFoundError("file", slot.id)
			}
			return NewInternalError("failed to open staged file", err)
		}
		closers = append(closers, rc)
		*slot.dst = &ingest.UploadedFile{Name: info.Name, Content: rc}
	}

	return h.respond(c, u)
}

// respond runs generation and writes the batch as JSON, or as plain text
// when ?format=text is given.
func (h *ReportHandlerImpl) respond(c echo.Context, u review.Uploads) error {
	batch, err := h.generator.Generate(c.Request().Context(), u)
	if err != nil {
		return FromGenerationError(err)
	}

	if strings.EqualFold(c.QueryParam("format"), "text") {
		c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextPlainCharsetUTF8)
		c.Response().WriteHeader(http.StatusOK)
		return review.WriteText(c.Response(), batch)
	}

	return c.JSON(http.StatusOK, batch)
}

// Request types

type stagedReportRequest struct {
	StudentsFileID string `json:"studentsFileId" validate:"required"`
	FeedbackFileID string `json:"feedbackFileId" validate:"required"`
	GradesFileID   string `json:"gradesFileId" validate:"required"`
}

// validationError reports the first failing field by its JSON name
func validationError(err error) *APIError {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		names := make([]string, len(verrs))
		for i, fe := range verrs {
			names[i] = fe.Field()
		}
		apiErr := NewValidationError(names[0])
		apiErr.Details = strings.Join(names, ",")
		return apiErr
	}
	return NewBadRequestError("invalid request", err)
}
