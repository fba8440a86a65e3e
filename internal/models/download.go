package models

import "time"

// Job is one (bucket, key, destination) download unit. Destination identifies the job.
type Job struct {
	Bucket      string `json:"bucket"`
	Key         string `json:"key"`
	Destination string `json:"destination"`
}

type OutcomeKind int

const (
	OutcomeSkipped OutcomeKind = iota
	OutcomeCompleted
	OutcomeFailed
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSkipped:
		return "skipped"
	case OutcomeCompleted:
		return "completed"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

func (k OutcomeKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// FailureReason tells service-side rejections apart from everything else.
type FailureReason string

const (
	FailureService FailureReason = "service"
	FailureUnknown FailureReason = "unknown"
)

// Outcome is the terminal state of one job. Exactly one is produced per job.
type Outcome struct {
	Job      Job
	Kind     OutcomeKind
	Reason   FailureReason
	Err      error
	Size     int64
	Duration time.Duration
}

func (o Outcome) Failed() bool {
	return o.Kind == OutcomeFailed
}

type DownloadItem struct {
	RemotePath string        `json:"remote_path"`
	LocalPath  string        `json:"local_path"`
	Outcome    OutcomeKind   `json:"outcome"`
	Reason     FailureReason `json:"reason,omitempty"`
	Error      string        `json:"error,omitempty"`
	Size       int64         `json:"size"`
	Duration   string        `json:"duration"`
}

type DownloadResult struct {
	BucketName       string         `json:"bucket_name"`
	Items            []DownloadItem `json:"items"`
	TotalFiles       int            `json:"total_files"`
	CompletedFiles   int            `json:"completed_files"`
	SkippedFiles     int            `json:"skipped_files"`
	FailedFiles      int            `json:"failed_files"`
	TotalSizeBytes   int64          `json:"total_size_bytes"`
	TotalSizeHuman   string         `json:"total_size_human"`
	OperationTime    string         `json:"operation_time"`
	DownloadDuration string         `json:"download_duration"`
}

func (r *DownloadResult) HasFailures() bool {
	return r.FailedFiles > 0
}
