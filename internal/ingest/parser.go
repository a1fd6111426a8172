// Package ingest turns uploaded CSV, XLSX, PDF and DOCX files into tables.
package ingest

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ehcp-review/backend/internal/models"
)

// UploadedFile is a transient handle to one upload. Content is read once,
// fully, by Load.
type UploadedFile struct {
	Name    string
	Content io.Reader
}

// Parser converts the raw bytes of one source kind into a table.
type Parser interface {
	// Name returns the unique name of the parser.
	Name() string
	// Kind returns the source kind the parser handles.
	Kind() SourceKind
	// Parse parses the whole file content.
	Parse(data []byte) (*models.Table, error)
}

// Error describes an ingestion failure for one file.
type Error struct {
	FileName string
	Kind     SourceKind
	Err      error
}

func (e *Error) Error() string {
	if e.Kind == KindUnknown {
		return fmt.Sprintf("loading %s: %v", e.FileName, e.Err)
	}
	return fmt.Sprintf("loading %s as %s: %v", e.FileName, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// headerNames turns a raw header record into unique column names.
// Blank headers become "Unnamed: <index>" and repeated names get ".1", ".2"
// suffixes.
func headerNames(raw []string) []string {
	names := make([]string, len(raw))
	seen := make(map[string]int, len(raw))
	for i, h := range raw {
		name := h
		if strings.TrimSpace(name) == "" {
			name = "Unnamed: " + strconv.Itoa(i)
		}
		if n, dup := seen[name]; dup {
			base := name
			for {
				n++
				name = base + "." + strconv.Itoa(n)
				if _, taken := seen[name]; !taken {
					break
				}
			}
			seen[base] = n
		}
		seen[name] = 0
		names[i] = name
	}
	return names
}

// buildTable maps records onto columns. Empty cells are left missing. A
// record with no fields, or a single blank field, is a blank line and is
// skipped; a record such as "," is kept as a row whose cells are all missing.
func buildTable(columns []string, records [][]string) (*models.Table, error) {
	table := models.NewTable(columns...)
	for i, rec := range records {
		if blankLine(rec) {
			continue
		}
		if len(rec) > len(columns) {
			for _, extra := range rec[len(columns):] {
				if extra != "" {
					return nil, fmt.Errorf("record %d: expected %d fields, saw %d", i+1, len(columns), len(rec))
				}
			}
			rec = rec[:len(columns)]
		}
		row := make(models.Row, len(rec))
		for j, v := range rec {
			if v == "" {
				continue
			}
			row[columns[j]] = v
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

func blankLine(rec []string) bool {
	return len(rec) == 0 || (len(rec) == 1 && rec[0] == "")
}

// joinUnits joins non-blank text units with a single newline.
func joinUnits(units []string) string {
	kept := make([]string, 0, len(units))
	for _, u := range units {
		if strings.TrimSpace(u) == "" {
			continue
		}
		kept = append(kept, u)
	}
	return strings.Join(kept, "\n")
}
