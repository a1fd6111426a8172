package ingest

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ehcp-review/backend/internal/models"
	"github.com/ledongthuc/pdf"
)

// PDFParser extracts the text layer of every page. Pages without a text
// layer, such as scanned images, contribute nothing.
type PDFParser struct{}

func NewPDFParser() *PDFParser {
	return &PDFParser{}
}

func (p *PDFParser) Name() string {
	return "pdf"
}

func (p *PDFParser) Kind() SourceKind {
	return KindPDF
}

func (p *PDFParser) Parse(data []byte) (table *models.Table, err error) {
	// The pdf reader panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			table = nil
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf: %w", err)
	}

	pages := make([]string, 0, r.NumPage())
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() || page.V.Key("Contents").IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}
		pages = append(pages, strings.TrimSpace(text))
	}

	return models.NewTextTable(joinUnits(pages)), nil
}
