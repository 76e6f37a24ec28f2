package model

import "time"

type BackupStatus string

const (
	BackupStatusPending   BackupStatus = "pending"
	BackupStatusUploading BackupStatus = "uploading"
	BackupStatusCompleted BackupStatus = "completed"
	BackupStatusFailed    BackupStatus = "failed"
)

// Backup is one encrypted database snapshot uploaded to object storage.
type Backup struct {
	ID        int64        `json:"id"`
	Filename  string       `json:"filename"`
	S3Key     string       `json:"s3_key"`
	SizeBytes int64        `json:"size_bytes"`
	Status    BackupStatus `json:"status"`
	Error     string       `json:"error,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}
