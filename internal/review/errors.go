package review

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingUpload is matched by MissingUploadError.
var ErrMissingUpload = errors.New("missing upload")

// MissingUploadError lists the roles that had no file when generation was
// triggered.
type MissingUploadError struct {
	Roles []Role
}

func (e *MissingUploadError) Error() string {
	names := make([]string, len(e.Roles))
	for i, r := range e.Roles {
		names[i] = string(r)
	}
	return fmt.Sprintf("please upload all required files (missing: %s)", strings.Join(names, ", "))
}

func (e *MissingUploadError) Is(target error) bool {
	return target == ErrMissingUpload
}

// IngestFailure wraps the ingestion error of one upload.
type IngestFailure struct {
	Role Role
	Err  error
}

func (e *IngestFailure) Error() string {
	return fmt.Sprintf("error loading %s file: %v", e.Role, e.Err)
}

func (e *IngestFailure) Unwrap() error {
	return e.Err
}

// AssemblyError wraps a failure to build reports from ingested tables.
type AssemblyError struct {
	Err error
}

func (e *AssemblyError) Error() string {
	return fmt.Sprintf("error generating reports: %v", e.Err)
}

func (e *AssemblyError) Unwrap() error {
	return e.Err
}
