package ingest

import (
	"bytes"
	"fmt"

	"github.com/ehcp-review/backend/internal/models"
	"github.com/xuri/excelize/v2"
)

// SpreadsheetParser reads the first worksheet of an XLSX workbook. The first
// row is the header.
type SpreadsheetParser struct{}

func NewSpreadsheetParser() *SpreadsheetParser {
	return &SpreadsheetParser{}
}

func (p *SpreadsheetParser) Name() string {
	return "xlsx"
}

func (p *SpreadsheetParser) Kind() SourceKind {
	return KindSpreadsheet
}

func (p *SpreadsheetParser) Parse(data []byte) (*models.Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheets[0], err)
	}

	// Leading blank rows are not a header.
	for len(rows) > 0 && len(rows[0]) == 0 {
		rows = rows[1:]
	}
	if len(rows) == 0 {
		return nil, ErrNoColumns
	}

	return buildTable(headerNames(rows[0]), rows[1:])
}
