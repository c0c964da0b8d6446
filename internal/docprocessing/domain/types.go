package domain

import (
	"time"

	passport "github.com/pravodoc/pravodoc-backend/internal/passport/domain"
)

// SourceType is how passport data reached the service
type SourceType string

const (
	SourcePhoto  SourceType = "photo"
	SourceManual SourceType = "manual"
)

// JobStatus represents the processing state of a recognition job
type JobStatus string

const (
	StatusProcessing JobStatus = "processing"
	StatusCompleted  JobStatus = "completed"
	StatusPartial    JobStatus = "partial"
	StatusFailed     JobStatus = "failed"
)

// Input is the raw material handed to a processor. Exactly one of Image
// and Text is set.
type Input struct {
	Image []byte
	Text  string
}

// Result is the outcome of one processing run. Record is nil when some
// mandatory field could not be determined; Diagnostics says which.
type Result struct {
	Source           SourceType           `json:"source"`
	Processor        string               `json:"processor"`
	Record           *passport.Record     `json:"record,omitempty"`
	Diagnostics      passport.Diagnostics `json:"diagnostics"`
	ProcessingTimeMs int64                `json:"processing_time_ms"`
}

// Complete reports whether the result carries a full record.
func (r *Result) Complete() bool {
	return r != nil && r.Record != nil
}

// RecognizedCount is used to rank partial results.
func (r *Result) RecognizedCount() int {
	if r == nil {
		return 0
	}
	return len(r.Diagnostics.RecognizedFields)
}

// Job represents an asynchronous photo recognition job
type Job struct {
	JobID     string    `json:"job_id"`
	UserID    string    `json:"-"`
	Status    JobStatus `json:"status"`
	Result    *Result   `json:"result,omitempty"`
	ErrorCode string    `json:"error_code,omitempty"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
