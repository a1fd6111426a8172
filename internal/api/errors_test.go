package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ehcp-review/backend/internal/ingest"
	"github.com/ehcp-review/backend/internal/models"
	"github.com/ehcp-review/backend/internal/review"
)

func TestFromGenerationError(t *testing.T) {
	unsupported := &ingest.Error{FileName: "data.txt", Err: fmt.Errorf("%w: %q", ingest.ErrUnsupportedFormat, ".txt")}
	badCSV := &ingest.Error{FileName: "s.csv", Kind: ingest.KindCSV, Err: ingest.ErrNoColumns}

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"missing upload", &review.MissingUploadError{Roles: []review.Role{review.RoleGrades}}, http.StatusBadRequest, "MISSING_UPLOAD"},
		{"unsupported in generation", &review.IngestFailure{Role: review.RoleFeedback, Err: unsupported}, http.StatusUnsupportedMediaType, "UNSUPPORTED_FORMAT"},
		{"parse failure in generation", &review.IngestFailure{Role: review.RoleStudents, Err: badCSV}, http.StatusUnprocessableEntity, "INGESTION_FAILED"},
		{"bare unsupported", unsupported, http.StatusUnsupportedMediaType, "UNSUPPORTED_FORMAT"},
		{"bare parse failure", badCSV, http.StatusUnprocessableEntity, "INGESTION_FAILED"},
		{"assembly", &review.AssemblyError{Err: fmt.Errorf("feedback: %w", models.ErrColumnNotFound)}, http.StatusUnprocessableEntity, "ASSEMBLY_FAILED"},
		{"cancelled", context.Canceled, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE"},
		{"other", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			apiErr := FromGenerationError(tt.err)
			assert.Equal(t, tt.wantStatus, apiErr.Status)
			assert.Equal(t, tt.wantCode, apiErr.Code)
			assert.NotEmpty(t, apiErr.Message)
		})
	}
}

func TestNewIngestionError_CarriesCause(t *testing.T) {
	apiErr := FromGenerationError(&review.IngestFailure{
		Role: review.RoleStudents,
		Err:  &ingest.Error{FileName: "s.csv", Kind: ingest.KindCSV, Err: ingest.ErrNoColumns},
	})
	assert.Equal(t, "error loading students file", apiErr.Message)
	assert.Contains(t, apiErr.Details, "no columns to parse")
}

func TestNewInternalError(t *testing.T) {
	apiErr := NewInternalError("failed to save file", errors.New("disk full"))
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
	assert.Equal(t, "INTERNAL_ERROR", apiErr.Code)
	assert.Equal(t, "failed to save file", apiErr.Message)
	assert.Equal(t, "disk full", apiErr.Details)

	assert.Empty(t, NewInternalError("no cause", nil).Details)
}
