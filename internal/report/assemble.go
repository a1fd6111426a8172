// Package report assembles per-student EHCP review reports from the
// student, feedback and grade tables.
package report

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/ehcp-review/backend/internal/models"
)

const (
	NameColumn    = "Name"
	TargetsColumn = "EHCP Targets"

	UnknownStudent = "Unknown Student"
	NoTargets      = "No targets provided"
	NoFeedback     = "No feedback available."
	NoGrades       = "No grade data available."

	// DateLayout is the report header date format.
	DateLayout = "2006-01-02"
)

const reportTemplate = `**EHCP Review Meeting – {{.ReportDate}}**

**Student Name:** {{.StudentName}}

**EHCP Targets:**
{{.Targets}}

**Teacher Feedback:**
{{.FeedbackSummary}}

**Key Challenges:**
{{.KeyChallenges}}

**Suggested Future Targets:**
{{.SuggestedTargets}}

**Grade Comparison:**
{{.GradeComparison}}
`

var defaultTemplate = template.Must(template.New("report").Parse(reportTemplate))

// Assembler renders reports. The zero value is not usable; use NewAssembler.
type Assembler struct {
	now  func() time.Time
	tmpl *template.Template
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithClock sets the clock the report date is read from.
func WithClock(now func() time.Time) Option {
	return func(a *Assembler) {
		a.now = now
	}
}

func NewAssembler(opts ...Option) *Assembler {
	a := &Assembler{
		now:  time.Now,
		tmpl: defaultTemplate,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Assemble returns one report per students row, in row order. The report
// date is read once per call.
//
// Empty feedback is replaced by a single NoFeedback row and empty grades by
// NoGrades. A non-empty feedback or grades table without an Extracted Text
// column is an error once there is a student to report on.
func (a *Assembler) Assemble(students, feedback, grades *models.Table) ([]models.Report, error) {
	if students.Len() == 0 {
		return []models.Report{}, nil
	}

	reportDate := a.now().Format(DateLayout)

	if feedback.Empty() {
		feedback = models.NewTextTable(NoFeedback)
	}
	feedbackText, err := feedback.Column(models.ExtractedTextColumn)
	if err != nil {
		return nil, fmt.Errorf("feedback: %w", err)
	}

	gradeComparison := NoGrades
	if !grades.Empty() {
		gradeText, err := grades.Column(models.ExtractedTextColumn)
		if err != nil {
			return nil, fmt.Errorf("grades: %w", err)
		}
		gradeComparison = joinLines(gradeText)
	}

	feedbackSummary := joinLines(feedbackText)
	keyChallenges := joinDistinct(feedbackText)
	// TODO: confirm with the SEN team whether suggested targets need their
	// own source; they currently repeat the key challenges.
	suggestedTargets := joinDistinct(feedbackText)

	reports := make([]models.Report, 0, students.Len())
	for i := 0; i < students.Len(); i++ {
		r := models.Report{
			ReportDate:       reportDate,
			StudentName:      valueOr(students, i, NameColumn, UnknownStudent),
			Targets:          valueOr(students, i, TargetsColumn, NoTargets),
			FeedbackSummary:  feedbackSummary,
			KeyChallenges:    keyChallenges,
			SuggestedTargets: suggestedTargets,
			GradeComparison:  gradeComparison,
		}

		var buf bytes.Buffer
		if err := a.tmpl.Execute(&buf, r); err != nil {
			return nil, fmt.Errorf("rendering report for row %d: %w", i, err)
		}
		r.Text = buf.String()

		reports = append(reports, r)
	}

	return reports, nil
}

// valueOr returns the cell or the placeholder when the column or cell is missing.
func valueOr(t *models.Table, row int, column, placeholder string) string {
	if v, ok := t.Value(row, column); ok {
		return v
	}
	return placeholder
}

// joinLines joins every cell with a newline; missing cells are empty lines.
func joinLines(cells []models.Cell) string {
	values := make([]string, len(cells))
	for i, c := range cells {
		values[i] = c.Value
	}
	return strings.Join(values, "\n")
}

// joinDistinct joins the distinct non-missing cells, first occurrence first.
func joinDistinct(cells []models.Cell) string {
	seen := make(map[string]struct{}, len(cells))
	values := make([]string, 0, len(cells))
	for _, c := range cells {
		if !c.Valid {
			continue
		}
		if _, dup := seen[c.Value]; dup {
			continue
		}
		seen[c.Value] = struct{}{}
		values = append(values, c.Value)
	}
	return strings.Join(values, ", ")
}
