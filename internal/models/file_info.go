package models

import "time"

// FileInfo represents metadata about a staged upload.
type FileInfo struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Kind       string    `json:"kind"` // "csv", "spreadsheet", "pdf", "word"
	Size       int64     `json:"size"`
	UploadedAt time.Time `json:"uploadedAt"`
	Status     string    `json:"status"` // "uploaded"
}
