package audits

import (
	"context"
	"time"

	"salesaudit-backend/internal/analysis"
	"salesaudit-backend/internal/verification"
)

// Repo defines persistence operations for audits. Finalizing methods must
// refuse to overwrite a terminal status so a late async worker cannot clobber
// a cancellation.
type Repo interface {
	Create(ctx context.Context, audit Audit) error
	GetByID(ctx context.Context, auditID string) (Audit, error)
	MarkProcessing(ctx context.Context, auditID string, startedAt time.Time) error
	Complete(ctx context.Context, auditID string, result *analysis.Result, rec *verification.Record, completedAt time.Time) error
	Finalize(ctx context.Context, auditID, status, errorCode, errorMessage string, completedAt time.Time) error
	ListBySession(ctx context.Context, sessionID string, limit, offset int) ([]Audit, error)
	Delete(ctx context.Context, sessionID, auditID string) error
}
