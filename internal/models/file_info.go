package models

import "time"

// File statuses.
const (
	FileStatusUploaded = "uploaded"
	FileStatusLoaded   = "loaded"
)

// FileInfo represents metadata about an uploaded dataset file.
type FileInfo struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	UploadedAt time.Time `json:"uploadedAt"`
	Status     string    `json:"status"`
}
