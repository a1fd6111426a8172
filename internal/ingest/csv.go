package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"

	"github.com/ehcp-review/backend/internal/models"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ErrNoColumns is returned when a structured source has no header row.
var ErrNoColumns = errors.New("no columns to parse from file")

// CSVParser reads comma-separated files. The first record is the header.
type CSVParser struct{}

func NewCSVParser() *CSVParser {
	return &CSVParser{}
}

func (p *CSVParser) Name() string {
	return "csv"
}

func (p *CSVParser) Kind() SourceKind {
	return KindCSV
}

func (p *CSVParser) Parse(data []byte) (*models.Table, error) {
	data = bytes.TrimPrefix(data, utf8BOM)

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1 // ragged rows are handled by buildTable

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading csv: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrNoColumns
	}

	return buildTable(headerNames(records[0]), records[1:])
}
