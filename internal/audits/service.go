package audits

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"salesaudit-backend/internal/analysis"
	"salesaudit-backend/internal/ingest"
	"salesaudit-backend/internal/report"
	"salesaudit-backend/internal/share"
	"salesaudit-backend/internal/shared/metrics"
	"salesaudit-backend/internal/shared/telemetry"
	"salesaudit-backend/internal/verification"
)

type pendingRun struct {
	auditID string
	cancel  context.CancelFunc
}

// Service contains business logic for audits. A session holds at most one
// in-flight audit: starting a new one supersedes and cancels the previous.
type Service struct {
	Repo     Repo
	Strategy analysis.Strategy
	Verifier *verification.Service
	Renderer report.Renderer
	Exporter *share.Exporter
	Timeout  time.Duration

	mu      sync.Mutex
	pending map[string]pendingRun
}

// Start enqueues a new audit over an already-loaded table and kicks off
// asynchronous evaluation.
func (s *Service) Start(ctx context.Context, sessionID, fileName string, fileSize int64, mimeType string, table ingest.Table) (Audit, error) {
	if sessionID == "" || fileName == "" {
		return Audit{}, errors.New("sessionID and fileName are required")
	}

	audit := Audit{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		FileName:  fileName,
		FileSize:  fileSize,
		MimeType:  mimeType,
		Status:    StatusQueued,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	if err := s.Repo.Create(ctx, audit); err != nil {
		return Audit{}, err
	}

	runCtx, cancel := context.WithCancel(backgroundWithRequestID(ctx))

	s.mu.Lock()
	if s.pending == nil {
		s.pending = make(map[string]pendingRun)
	}
	prev, had := s.pending[sessionID]
	s.pending[sessionID] = pendingRun{auditID: audit.ID, cancel: cancel}
	s.mu.Unlock()

	if had {
		prev.cancel()
		s.markCanceled(ctx, prev.auditID, ErrorCodeSuperseded, "superseded by a newer upload")
	}

	go s.completeAsync(runCtx, audit.ID, table)

	return audit, nil
}

// Get returns an audit by ID.
func (s *Service) Get(ctx context.Context, auditID string) (Audit, error) {
	if auditID == "" {
		return Audit{}, errors.New("auditID is required")
	}
	return s.Repo.GetByID(ctx, auditID)
}

// List returns audits for a session ordered newest-first.
func (s *Service) List(ctx context.Context, sessionID string, limit, offset int) ([]Audit, error) {
	if sessionID == "" {
		return nil, errors.New("sessionID is required")
	}
	return s.Repo.ListBySession(ctx, sessionID, limit, offset)
}

// Delete removes an audit and cancels it if still running.
func (s *Service) Delete(ctx context.Context, sessionID, auditID string) error {
	s.mu.Lock()
	if run, ok := s.pending[sessionID]; ok && run.auditID == auditID {
		run.cancel()
		delete(s.pending, sessionID)
	}
	s.mu.Unlock()
	return s.Repo.Delete(ctx, sessionID, auditID)
}

// completed returns the audit when it is finished with a result, ErrNotReady
// otherwise.
func (s *Service) completed(ctx context.Context, auditID string) (Audit, error) {
	audit, err := s.Repo.GetByID(ctx, auditID)
	if err != nil {
		return Audit{}, err
	}
	if audit.Status != StatusCompleted || audit.Result == nil {
		return audit, ErrNotReady
	}
	return audit, nil
}

// Report renders the PDF for a completed audit. Repeated calls produce
// identical bytes.
func (s *Service) Report(ctx context.Context, auditID string) ([]byte, string, error) {
	audit, err := s.completed(ctx, auditID)
	if err != nil {
		return nil, "", err
	}
	return s.render(audit)
}

// Export renders the report and hands it to the export store. Returns the
// storage key and download file name.
func (s *Service) Export(ctx context.Context, auditID string) (string, string, error) {
	audit, err := s.completed(ctx, auditID)
	if err != nil {
		return "", "", err
	}
	doc, fileName, err := s.render(audit)
	if err != nil {
		return "", "", err
	}
	key, err := s.Exporter.Export(ctx, audit.SessionID, fileName, doc)
	if err != nil {
		return "", "", err
	}
	metrics.IncExport()
	return key, fileName, nil
}

func (s *Service) render(audit Audit) ([]byte, string, error) {
	doc, err := s.Renderer.Render(report.Input{
		Result:       audit.Result,
		FileSize:     audit.FileSize,
		Verification: audit.Verification,
		GeneratedAt:  *audit.CompletedAt,
	})
	if err != nil {
		return nil, "", err
	}
	return doc, s.reportFileName(audit), nil
}

// ShareLink builds a prefilled compose URI for a completed audit.
func (s *Service) ShareLink(ctx context.Context, auditID string, channel share.Channel) (string, error) {
	audit, err := s.completed(ctx, auditID)
	if err != nil {
		return "", err
	}
	return share.Link(channel, audit.Result, audit.Verification)
}

func (s *Service) reportFileName(audit Audit) string {
	token := ""
	if audit.Verification != nil {
		token = audit.Verification.VerificationID
	}
	at := time.Now().UTC()
	if audit.CompletedAt != nil {
		at = *audit.CompletedAt
	}
	return share.FileName(token, at)
}

func (s *Service) completeAsync(ctx context.Context, auditID string, table ingest.Table) {
	defer func() {
		if r := recover(); r != nil {
			s.failAudit(ctx, auditID, ErrorCodeInternal, fmt.Errorf("panic: %v", r))
		}
	}()
	defer s.clearPending(auditID)

	timeout := s.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	startedAt := time.Now().UTC()
	if err := s.Repo.MarkProcessing(ctx, auditID, startedAt); err != nil {
		if !errors.Is(err, ErrAlreadyFinal) {
			s.failAudit(ctx, auditID, ErrorCodeInternal, fmt.Errorf("set processing failed: %w", err))
		}
		return
	}

	audit, err := s.Repo.GetByID(ctx, auditID)
	if err != nil {
		s.failAudit(ctx, auditID, ErrorCodeInternal, fmt.Errorf("audit lookup: %w", err))
		return
	}
	metrics.IncAuditStarted()
	telemetry.Info("audit.status", map[string]any{
		"request_id":        requestIDFromContext(ctx),
		"session_id":        audit.SessionID,
		"audit_id":          audit.ID,
		"status":            StatusProcessing,
		"status_transition": "queued->processing",
	})

	result, err := s.Strategy.Analyze(runCtx, table, audit.FileName)
	if err != nil {
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			s.failAuditWithCode(ctx, audit, ErrorCodeTimeout, "analysis timed out", err)
		case errors.Is(err, context.Canceled):
			s.markCanceled(context.Background(), auditID, ErrorCodeSuperseded, "superseded by a newer upload")
		default:
			s.failAuditWithCode(ctx, audit, ErrorCodeAnalysis, "analysis failed", err)
		}
		return
	}

	result = analysis.Normalize(result)

	var rec *verification.Record
	if s.Verifier != nil {
		minted, err := s.Verifier.Mint(result.HasAnomalies)
		if err != nil {
			if !errors.Is(err, verification.ErrEncoding) {
				s.failAuditWithCode(ctx, audit, ErrorCodeInternal, "verification failed", err)
				return
			}
			telemetry.Warn("audit.verification_degraded", map[string]any{
				"request_id": requestIDFromContext(ctx),
				"session_id": audit.SessionID,
				"audit_id":   audit.ID,
				"error":      err.Error(),
			})
		}
		rec = &minted
	}

	completedAt := time.Now().UTC()
	if err := s.Repo.Complete(ctx, auditID, &result, rec, completedAt); err != nil {
		if !errors.Is(err, ErrAlreadyFinal) {
			s.failAudit(ctx, auditID, ErrorCodeInternal, fmt.Errorf("set result failed: %w", err))
		}
		return
	}
	metrics.IncAuditCompleted()
	metrics.ObserveAuditDurationMs(float64(completedAt.Sub(startedAt).Milliseconds()))
	telemetry.Info("audit.status", map[string]any{
		"request_id":        requestIDFromContext(ctx),
		"session_id":        audit.SessionID,
		"audit_id":          audit.ID,
		"status":            StatusCompleted,
		"status_transition": "processing->completed",
		"duration_ms":       completedAt.Sub(startedAt).Milliseconds(),
		"has_anomalies":     result.HasAnomalies,
		"anomaly_count":     len(result.Anomalies),
	})
}

func (s *Service) clearPending(auditID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for sessionID, run := range s.pending {
		if run.auditID == auditID {
			run.cancel()
			delete(s.pending, sessionID)
			return
		}
	}
}

func (s *Service) failAudit(ctx context.Context, auditID, code string, cause error) {
	if err := s.Repo.Finalize(ctx, auditID, StatusFailed, code, cause.Error(), time.Now().UTC()); err != nil {
		if errors.Is(err, ErrAlreadyFinal) {
			return
		}
		telemetry.Error("audit.finalize_failed", map[string]any{
			"request_id": requestIDFromContext(ctx),
			"audit_id":   auditID,
			"error":      err.Error(),
		})
		return
	}
	metrics.IncAuditFailed()
	telemetry.Error("audit.status", map[string]any{
		"request_id":        requestIDFromContext(ctx),
		"audit_id":          auditID,
		"status":            StatusFailed,
		"status_transition": "processing->failed",
		"error_code":        code,
		"error":             cause.Error(),
	})
}

func (s *Service) failAuditWithCode(ctx context.Context, audit Audit, code, message string, cause error) {
	if err := s.Repo.Finalize(ctx, audit.ID, StatusFailed, code, message, time.Now().UTC()); err != nil {
		if errors.Is(err, ErrAlreadyFinal) {
			return
		}
		telemetry.Error("audit.finalize_failed", map[string]any{
			"request_id": requestIDFromContext(ctx),
			"audit_id":   audit.ID,
			"error":      err.Error(),
		})
		return
	}
	metrics.IncAuditFailed()
	telemetry.Error("audit.status", map[string]any{
		"request_id":        requestIDFromContext(ctx),
		"session_id":        audit.SessionID,
		"audit_id":          audit.ID,
		"status":            StatusFailed,
		"status_transition": "processing->failed",
		"error_code":        code,
		"error":             cause.Error(),
	})
}

func (s *Service) markCanceled(ctx context.Context, auditID, code, message string) {
	if err := s.Repo.Finalize(ctx, auditID, StatusCanceled, code, message, time.Now().UTC()); err != nil {
		if errors.Is(err, ErrAlreadyFinal) || errors.Is(err, ErrNotFound) {
			return
		}
		telemetry.Error("audit.finalize_failed", map[string]any{
			"request_id": requestIDFromContext(ctx),
			"audit_id":   auditID,
			"error":      err.Error(),
		})
		return
	}
	metrics.IncAuditCanceled()
	telemetry.Info("audit.status", map[string]any{
		"request_id":        requestIDFromContext(ctx),
		"audit_id":          auditID,
		"status":            StatusCanceled,
		"status_transition": "processing->canceled",
		"error_code":        code,
	})
}
