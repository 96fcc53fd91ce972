package entity

import "time"

// File is the metadata record of an uploaded attachment. BlobPath is the
// location returned by the blob store and is unique per record.
type File struct {
	ID           string
	StoredName   string
	OriginalName string
	MimeType     string
	SizeBytes    int64
	BlobPath     string
	IssueID      string
	UploadedBy   string
	UploadedAt   time.Time
}

type FileOverallStats struct {
	TotalFiles int64   `json:"totalFiles"`
	TotalSize  int64   `json:"totalSize"`
	AvgSize    float64 `json:"avgSize"`
}

type MimeTypeStats struct {
	Type      string `json:"type"`
	Count     int64  `json:"count"`
	TotalSize int64  `json:"totalSize"`
}

type FileStats struct {
	Overall    FileOverallStats `json:"overall"`
	ByMimeType []MimeTypeStats  `json:"byMimeType"`
}
