// Package review is the request/response boundary of report generation:
// three uploads in, one batch of reports or a structured error out.
package review

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/ehcp-review/backend/internal/ingest"
	"github.com/ehcp-review/backend/internal/models"
	"github.com/ehcp-review/backend/internal/report"
)

// Role names which of the three uploads a file fills.
type Role string

const (
	RoleStudents Role = "students"
	RoleFeedback Role = "feedback"
	RoleGrades   Role = "grades"
)

// Uploads carries the three files of one generation request. A nil field is
// a missing upload.
type Uploads struct {
	Students *ingest.UploadedFile
	Feedback *ingest.UploadedFile
	Grades   *ingest.UploadedFile
}

// Loader turns an upload into a table.
type Loader interface {
	Load(f ingest.UploadedFile) (*models.Table, error)
}

// Batch is the result of one generation request.
type Batch struct {
	ID         string          `json:"id"`
	ReportDate string          `json:"reportDate,omitempty"`
	Reports    []models.Report `json:"reports"`
}

// Generator runs ingestion and assembly for one request at a time; it
// keeps no state between calls.
type Generator struct {
	loader    Loader
	assembler *report.Assembler
	logger    *slog.Logger
}

// NewGenerator creates a generator. Nil arguments fall back to the global
// ingest registry, a wall-clock assembler and the default logger.
func NewGenerator(loader Loader, assembler *report.Assembler, logger *slog.Logger) *Generator {
	if loader == nil {
		loader = ingest.GetGlobalRegistry()
	}
	if assembler == nil {
		assembler = report.NewAssembler()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{
		loader:    loader,
		assembler: assembler,
		logger:    logger,
	}
}

// Generate validates that all three uploads are present, ingests them in
// order and assembles the reports. The first failure ends the request;
// nothing is assembled after an ingestion failure.
func (g *Generator) Generate(ctx context.Context, u Uploads) (*Batch, error) {
	if err := u.Validate(); err != nil {
		g.logger.WarnContext(ctx, "report generation rejected", slog.String("error", err.Error()))
		return nil, err
	}

	batchID := uuid.New().String()
	logger := g.logger.With(slog.String("batch_id", batchID))

	steps := []struct {
		role Role
		file *ingest.UploadedFile
	}{
		{RoleStudents, u.Students},
		{RoleFeedback, u.Feedback},
		{RoleGrades, u.Grades},
	}

	tables := make(map[Role]*models.Table, len(steps))
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		table, err := g.loader.Load(*step.file)
		if err != nil {
			logger.ErrorContext(ctx, "ingestion failed",
				slog.String("role", string(step.role)),
				slog.String("file", step.file.Name),
				slog.String("error", err.Error()))
			return nil, &IngestFailure{Role: step.role, Err: err}
		}

		kind, _ := ingest.KindFromFilename(step.file.Name)
		logger.DebugContext(ctx, "upload ingested",
			slog.String("role", string(step.role)),
			slog.String("file", step.file.Name),
			slog.String("kind", kind.String()),
			slog.Bool("structured", kind.Structured()),
			slog.Int("rows", table.Len()),
			slog.Int("columns", len(table.Columns)))
		tables[step.role] = table
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	reports, err := g.assembler.Assemble(tables[RoleStudents], tables[RoleFeedback], tables[RoleGrades])
	if err != nil {
		logger.ErrorContext(ctx, "report assembly failed", slog.String("error", err.Error()))
		return nil, &AssemblyError{Err: err}
	}

	batch := &Batch{
		ID:      batchID,
		Reports: reports,
	}
	if len(reports) > 0 {
		batch.ReportDate = reports[0].ReportDate
	}

	logger.InfoContext(ctx, "reports generated", slog.Int("reports", len(reports)))
	return batch, nil
}

// Validate reports every missing upload as a *MissingUploadError.
func (u Uploads) Validate() error {
	var missing []Role
	if u.Students == nil {
		missing = append(missing, RoleStudents)
	}
	if u.Feedback == nil {
		missing = append(missing, RoleFeedback)
	}
	if u.Grades == nil {
		missing = append(missing, RoleGrades)
	}
	if len(missing) > 0 {
		return &MissingUploadError{Roles: missing}
	}
	return nil
}
