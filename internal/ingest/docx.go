package ingest

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ehcp-review/backend/internal/models"
)

const (
	wordNamespace    = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	wordDocumentPath = "word/document.xml"
)

// WordParser extracts paragraph text from DOCX documents, in document order.
type WordParser struct{}

func NewWordParser() *WordParser {
	return &WordParser{}
}

func (p *WordParser) Name() string {
	return "docx"
}

func (p *WordParser) Kind() SourceKind {
	return KindWord
}

func (p *WordParser) Parse(data []byte) (*models.Table, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open docx: %w", err)
	}

	var doc *zip.File
	for _, f := range zr.File {
		if f.Name == wordDocumentPath {
			doc = f
			break
		}
	}
	if doc == nil {
		return nil, fmt.Errorf("docx has no %s part", wordDocumentPath)
	}

	rc, err := doc.Open()
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", wordDocumentPath, err)
	}
	defer rc.Close()

	paragraphs, err := readParagraphs(rc)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", wordDocumentPath, err)
	}

	return models.NewTextTable(joinUnits(paragraphs)), nil
}

// readParagraphs walks document.xml and returns the text of each w:p.
// Nested paragraphs (text boxes) are flattened into the enclosing one.
func readParagraphs(r io.Reader) ([]string, error) {
	dec := xml.NewDecoder(r)

	var (
		paragraphs []string
		current    strings.Builder
		depth      int
		inRun      int
		inText     bool
	)

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Space != wordNamespace {
				continue
			}
			switch t.Name.Local {
			case "p":
				depth++
			case "r":
				inRun++
			case "t":
				inText = depth > 0 && inRun > 0
			case "tab":
				// w:tab also declares tab stops inside w:pPr; only runs emit text.
				if depth > 0 && inRun > 0 {
					current.WriteByte('\t')
				}
			case "br", "cr":
				if depth > 0 && inRun > 0 {
					current.WriteByte('\n')
				}
			}
		case xml.EndElement:
			if t.Name.Space != wordNamespace {
				continue
			}
			switch t.Name.Local {
			case "r":
				if inRun > 0 {
					inRun--
				}
			case "t":
				inText = false
			case "p":
				if depth == 0 {
					continue
				}
				depth--
				if depth == 0 {
					paragraphs = append(paragraphs, current.String())
					current.Reset()
				}
			}
		case xml.CharData:
			if inText {
				current.Write(t)
			}
		}
	}

	return paragraphs, nil
}
