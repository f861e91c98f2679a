package audits

import (
	"time"

	"salesaudit-backend/internal/analysis"
	"salesaudit-backend/internal/verification"
)

const (
	StatusQueued     = "queued"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
	StatusCanceled   = "canceled"
)

// IsTerminal reports whether a status admits no further transitions.
func IsTerminal(status string) bool {
	return status == StatusCompleted || status == StatusFailed || status == StatusCanceled
}

// Audit represents one sales data audit job for a session.
type Audit struct {
	ID           string               `json:"id"`
	SessionID    string               `json:"sessionId"`
	FileName     string               `json:"fileName"`
	FileSize     int64                `json:"fileSize"`
	MimeType     string               `json:"mimeType"`
	Status       string               `json:"status"`
	Result       *analysis.Result     `json:"result,omitempty"`
	Verification *verification.Record `json:"-"`
	ErrorCode    string               `json:"errorCode,omitempty"`
	ErrorMessage string               `json:"errorMessage,omitempty"`
	CreatedAt    time.Time            `json:"createdAt"`
	StartedAt    *time.Time           `json:"startedAt,omitempty"`
	CompletedAt  *time.Time           `json:"completedAt,omitempty"`
	UpdatedAt    time.Time            `json:"updatedAt"`
}
