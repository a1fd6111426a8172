package ingest

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrUnsupportedFormat is returned for files whose extension matches no
// SourceKind.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// SourceKind identifies which parser handles an upload.
type SourceKind int

const (
	KindUnknown SourceKind = iota
	KindCSV
	KindSpreadsheet
	KindPDF
	KindWord
)

var kindExtensions = map[string]SourceKind{
	".csv":  KindCSV,
	".xlsx": KindSpreadsheet,
	".pdf":  KindPDF,
	".docx": KindWord,
}

func (k SourceKind) String() string {
	switch k {
	case KindCSV:
		return "csv"
	case KindSpreadsheet:
		return "spreadsheet"
	case KindPDF:
		return "pdf"
	case KindWord:
		return "word"
	default:
		return "unknown"
	}
}

// Structured reports whether the kind keeps the file's native table.
// Unstructured kinds are flattened into a single Extracted Text cell.
func (k SourceKind) Structured() bool {
	return k == KindCSV || k == KindSpreadsheet
}

// KindFromFilename resolves the SourceKind from a filename suffix.
// Matching is case-insensitive.
func KindFromFilename(name string) (SourceKind, error) {
	ext := strings.ToLower(filepath.Ext(name))
	if kind, ok := kindExtensions[ext]; ok {
		return kind, nil
	}
	if ext == "" {
		return KindUnknown, fmt.Errorf("%w: %q has no extension", ErrUnsupportedFormat, name)
	}
	return KindUnknown, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
}

// SupportedExtensions lists accepted extensions in a stable order.
func SupportedExtensions() []string {
	return []string{".csv", ".xlsx", ".pdf", ".docx"}
}
