package ingest

import (
	"fmt"
	"io"

	"github.com/ehcp-review/backend/internal/models"
)

// Registry holds one parser per source kind.
type Registry struct {
	parsers map[SourceKind]Parser
}

// Global registry instance
var globalRegistry = NewRegistry()

func NewRegistry() *Registry {
	r := &Registry{parsers: make(map[SourceKind]Parser)}
	r.Register(NewCSVParser())
	r.Register(NewSpreadsheetParser())
	r.Register(NewPDFParser())
	r.Register(NewWordParser())
	return r
}

// GetGlobalRegistry returns the singleton registry.
func GetGlobalRegistry() *Registry {
	return globalRegistry
}

// Register adds a parser, replacing any parser already bound to its kind.
func (r *Registry) Register(p Parser) {
	r.parsers[p.Kind()] = p
}

// FindParser resolves the parser for a filename.
func (r *Registry) FindParser(fileName string) (Parser, error) {
	kind, err := KindFromFilename(fileName)
	if err != nil {
		return nil, err
	}
	p, ok := r.parsers[kind]
	if !ok {
		return nil, fmt.Errorf("%w: no parser registered for %s", ErrUnsupportedFormat, kind)
	}
	return p, nil
}

// Load reads an upload fully and parses it according to its extension.
// Every failure is returned as *Error.
func (r *Registry) Load(f UploadedFile) (*models.Table, error) {
	p, err := r.FindParser(f.Name)
	if err != nil {
		return nil, &Error{FileName: f.Name, Kind: KindUnknown, Err: err}
	}
	if f.Content == nil {
		return nil, &Error{FileName: f.Name, Kind: p.Kind(), Err: fmt.Errorf("no content")}
	}

	data, err := io.ReadAll(f.Content)
	if err != nil {
		return nil, &Error{FileName: f.Name, Kind: p.Kind(), Err: fmt.Errorf("reading upload: %w", err)}
	}

	table, err := p.Parse(data)
	if err != nil {
		return nil, &Error{FileName: f.Name, Kind: p.Kind(), Err: err}
	}
	return table, nil
}

// Load parses an upload with the global registry.
func Load(f UploadedFile) (*models.Table, error) {
	return globalRegistry.Load(f)
}
