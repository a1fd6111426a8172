package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ehcp-review/backend/internal/report"
	"github.com/ehcp-review/backend/internal/review"
	"github.com/ehcp-review/backend/internal/storage"
	"github.com/ehcp-review/backend/internal/testutil"
)

func newTestReportHandler(store storage.Store) ReportHandler {
	clock := func() time.Time { return time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC) }
	gen := review.NewGenerator(nil, report.NewAssembler(report.WithClock(clock)), nil)
	return NewReportHandler(gen, store)
}

// runHandler invokes h and routes any returned error through ErrorHandler.
func runHandler(e *echo.Echo, c echo.Context, h echo.HandlerFunc) {
	if err := h(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
}

func newEcho() *echo.Echo {
	e := echo.New()
	e.HTTPErrorHandler = ErrorHandler
	return e
}

func decodeAPIError(t *testing.T, rec *httptest.ResponseRecorder) APIError {
	t.Helper()
	var apiErr APIError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &apiErr))
	return apiErr
}

func TestReportHandler_GenerateReports(t *testing.T) {
	e := newEcho()
	handler := newTestReportHandler(testutil.NewMockStorage())

	body, contentType := multipartBody(t, map[string][2]string{
		"students": {"students.csv", "Name,EHCP Targets\nAna,Read daily\nBen,\n"},
		"feedback": {"feedback.csv", "Extracted Text\nGood progress\nNeeds support in maths\n"},
		"grades":   {"grades.csv", "Extracted Text\n"},
	})
	req := httptest.NewRequest(http.MethodPost, "/api/reports", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	runHandler(e, c, handler.HandleGenerateReports)

	require.Equal(t, http.StatusOK, rec.Code)

	var batch review.Batch
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &batch))
	assert.NotEmpty(t, batch.ID)
	assert.Equal(t, "2026-03-09", batch.ReportDate)
	require.Len(t, batch.Reports, 2)

	assert.Equal(t, "Ana", batch.Reports[0].StudentName)
	assert.Equal(t, "Read daily", batch.Reports[0].Targets)
	assert.Equal(t, "Good progress\nNeeds support in maths", batch.Reports[0].FeedbackSummary)
	assert.Equal(t, report.NoGrades, batch.Reports[0].GradeComparison)
	assert.Equal(t, report.NoTargets, batch.Reports[1].Targets)
}

func TestReportHandler_GenerateReportsAsText(t *testing.T) {
	e := newEcho()
	handler := newTestReportHandler(testutil.NewMockStorage())

	body, contentType := multipartBody(t, map[string][2]string{
		"students": {"students.csv", "Name\nAna\n"},
		"feedback": {"feedback.csv", "Extracted Text\nGood progress\n"},
		"grades":   {"grades.csv", "Extracted Text\nB to A\n"},
	})
	req := httptest.NewRequest(http.MethodPost, "/api/reports?format=text", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	runHandler(e, c, handler.HandleGenerateReports)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), "text/plain"))
	assert.Contains(t, rec.Body.String(), "**EHCP Review Meeting – 2026-03-09**")
	assert.Contains(t, rec.Body.String(), "**Student Name:** Ana")
	assert.Contains(t, rec.Body.String(), "B to A")
}

func TestReportHandler_GenerateReportsErrors(t *testing.T) {
	tests := []struct {
		name       string
		files      map[string][2]string
		wantStatus int
		wantCode   string
		wantDetail string
	}{
		{
			name: "missing grades upload",
			files: map[string][2]string{
				"students": {"students.csv", "Name\nAna\n"},
				"feedback": {"feedback.csv", "Extracted Text\nGood\n"},
			},
			wantStatus: http.StatusBadRequest,
			wantCode:   "MISSING_UPLOAD",
			wantDetail: "grades",
		},
		{
			name: "unsupported feedback format",
			files: map[string][2]string{
				"students": {"students.csv", "Name\nAna\n"},
				"feedback": {"data.txt", "hello"},
				"grades":   {"grades.csv", "Extracted Text\n"},
			},
			wantStatus: http.StatusUnsupportedMediaType,
			wantCode:   "UNSUPPORTED_FORMAT",
			wantDetail: "feedback",
		},
		{
			name: "corrupt spreadsheet",
			files: map[string][2]string{
				"students": {"students.xlsx", "not a workbook"},
				"feedback": {"feedback.csv", "Extracted Text\nGood\n"},
				"grades":   {"grades.csv", "Extracted Text\n"},
			},
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "INGESTION_FAILED",
		},
		{
			name: "feedback without extracted text column",
			files: map[string][2]string{
				"students": {"students.csv", "Name\nAna\n"},
				"feedback": {"feedback.csv", "Comment\nGood\n"},
				"grades":   {"grades.csv", "Extracted Text\n"},
			},
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "ASSEMBLY_FAILED",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEcho()
			handler := newTestReportHandler(testutil.NewMockStorage())

			body, contentType := multipartBody(t, tt.files)
			req := httptest.NewRequest(http.MethodPost, "/api/reports", body)
			req.Header.Set(echo.HeaderContentType, contentType)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			runHandler(e, c, handler.HandleGenerateReports)

			assert.Equal(t, tt.wantStatus, rec.Code)
			apiErr := decodeAPIError(t, rec)
			assert.Equal(t, tt.wantCode, apiErr.Code)
			if tt.wantDetail != "" {
				assert.Equal(t, tt.wantDetail, apiErr.Details)
			}
		})
	}
}

func TestReportHandler_GenerateReportsWithoutMultipart(t *testing.T) {
	e := newEcho()
	handler := newTestReportHandler(testutil.NewMockStorage())

	req := httptest.NewRequest(http.MethodPost, "/api/reports", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	runHandler(e, c, handler.HandleGenerateReports)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	apiErr := decodeAPIError(t, rec)
	assert.Equal(t, "MISSING_UPLOAD", apiErr.Code)
	assert.Equal(t, "students,feedback,grades", apiErr.Details)
}

func stagedRequest(t *testing.T, payload map[string]string) *http.Request {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/reports/staged", bytes.NewReader(data))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func TestReportHandler_GenerateStagedReports(t *testing.T) {
	store := testutil.NewMockStorage()
	store.AddFile("s1", "students.csv", []byte("Name,EHCP Targets\nAna,Read daily\n"))
	store.AddFile("f1", "feedback.csv", []byte("Extracted Text\nGood progress\n"))
	store.AddFile("g1", "grades.csv", []byte("Extracted Text\n"))

	e := newEcho()
	handler := newTestReportHandler(store)

	rec := httptest.NewRecorder()
	c := e.NewContext(stagedRequest(t, map[string]string{
		"studentsFileId": "s1",
		"feedbackFileId": "f1",
		"gradesFileId":   "g1",
	}), rec)

	runHandler(e, c, handler.HandleGenerateStagedReports)

	require.Equal(t, http.StatusOK, rec.Code)
	var batch review.Batch
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &batch))
	require.Len(t, batch.Reports, 1)
	assert.Equal(t, "Ana", batch.Reports[0].StudentName)
}

func TestReportHandler_GenerateStagedReportsErrors(t *testing.T) {
	store := testutil.NewMockStorage()
	store.AddFile("s1", "students.csv", []byte("Name\nAna\n"))
	store.AddFile("f1", "feedback.csv", []byte("Extracted Text\nGood\n"))

	tests := []struct {
		name       string
		payload    map[string]string
		wantStatus int
		wantCode   string
		wantDetail string
	}{
		{
			name:       "missing ids",
			payload:    map[string]string{"studentsFileId": "s1"},
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_ERROR",
			wantDetail: "feedbackFileId,gradesFileId",
		},
		{
			name:       "unknown staged file",
			payload:    map[string]string{"studentsFileId": "s1", "feedbackFileId": "f1", "gradesFileId": "nope"},
			wantStatus: http.StatusNotFound,
			wantCode:   "NOT_FOUND",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEcho()
			handler := newTestReportHandler(store)

			rec := httptest.NewRecorder()
			c := e.NewContext(stagedRequest(t, tt.payload), rec)

			runHandler(e, c, handler.HandleGenerateStagedReports)

			assert.Equal(t, tt.wantStatus, rec.Code)
			apiErr := decodeAPIError(t, rec)
			assert.Equal(t, tt.wantCode, apiErr.Code)
			if tt.wantDetail != "" {
				assert.Equal(t, tt.wantDetail, apiErr.Details)
			}
		})
	}
}

type failingGenerator struct{ err error }

func (g failingGenerator) Generate(ctx context.Context, u review.Uploads) (*review.Batch, error) {
	return nil, g.err
}

func TestReportHandler_InternalErrorHidesDetails(t *testing.T) {
	SetDevelopment(false)
	t.Cleanup(func() { SetDevelopment(false) })

	e := newEcho()
	handler := NewReportHandler(failingGenerator{err: errors.New("secret path /srv/x")}, testutil.NewMockStorage())

	req := httptest.NewRequest(http.MethodPost, "/api/reports", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	runHandler(e, c, handler.HandleGenerateReports)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	apiErr := decodeAPIError(t, rec)
	assert.Equal(t, "INTERNAL_ERROR", apiErr.Code)
	assert.Empty(t, apiErr.Details)
}
