package domain

import "fmt"

// Upload file status constants
const (
	FileStatusProcessed = "processed"
	FileStatusFailed    = "failed"
)

// UploadFileDetail reports the outcome for a single uploaded file.
type UploadFileDetail struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// UploadResult is the upstream ingestion summary for one upload batch.
// Intended contract: ProcessedFiles + FailedFiles <= TotalFiles.
type UploadResult struct {
	TotalFiles     int                `json:"totalFiles"`
	ProcessedFiles int                `json:"processedFiles"`
	FailedFiles    int                `json:"failedFiles"`
	Details        []UploadFileDetail `json:"details,omitempty"`
}

// Validate checks the upload result shape.
func (u *UploadResult) Validate() error {
	if u.TotalFiles < 0 || u.ProcessedFiles < 0 || u.FailedFiles < 0 {
		return fmt.Errorf("upload result: negative file count")
	}
	for _, d := range u.Details {
		if d.Status != FileStatusProcessed && d.Status != FileStatusFailed {
			return fmt.Errorf("upload result: invalid file status %q", d.Status)
		}
	}
	return nil
}
