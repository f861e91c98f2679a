package audits

import (
	"context"
	"sort"
	"sync"
	"time"

	"salesaudit-backend/internal/analysis"
	"salesaudit-backend/internal/verification"
)

// MemoryRepo stores audits in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu        sync.RWMutex
	byID      map[string]Audit
	bySession map[string][]string
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		byID:      make(map[string]Audit),
		bySession: make(map[string][]string),
	}
}

var _ Repo = (*MemoryRepo)(nil)

// Create stores the audit.
func (r *MemoryRepo) Create(ctx context.Context, audit Audit) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[audit.ID] = audit
	r.bySession[audit.SessionID] = append(r.bySession[audit.SessionID], audit.ID)
	return nil
}

// GetByID returns an audit by its ID.
func (r *MemoryRepo) GetByID(ctx context.Context, auditID string) (Audit, error) {
	if err := ctx.Err(); err != nil {
		return Audit{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	audit, ok := r.byID[auditID]
	if !ok {
		return Audit{}, ErrNotFound
	}
	return audit, nil
}

// MarkProcessing moves a queued audit into processing.
func (r *MemoryRepo) MarkProcessing(ctx context.Context, auditID string, startedAt time.Time) error {
	return r.update(ctx, auditID, func(a *Audit) {
		a.Status = StatusProcessing
		a.StartedAt = &startedAt
	})
}

// Complete records the result and verification artifacts.
func (r *MemoryRepo) Complete(ctx context.Context, auditID string, result *analysis.Result, rec *verification.Record, completedAt time.Time) error {
	return r.update(ctx, auditID, func(a *Audit) {
		a.Status = StatusCompleted
		a.Result = result
		a.Verification = rec
		a.CompletedAt = &completedAt
	})
}

// Finalize moves an audit to a failed or canceled terminal state.
func (r *MemoryRepo) Finalize(ctx context.Context, auditID, status, errorCode, errorMessage string, completedAt time.Time) error {
	return r.update(ctx, auditID, func(a *Audit) {
		a.Status = status
		a.ErrorCode = errorCode
		a.ErrorMessage = errorMessage
		a.CompletedAt = &completedAt
	})
}

func (r *MemoryRepo) update(ctx context.Context, auditID string, apply func(*Audit)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	audit, ok := r.byID[auditID]
	if !ok {
		return ErrNotFound
	}
	if IsTerminal(audit.Status) {
		return ErrAlreadyFinal
	}
	apply(&audit)
	audit.UpdatedAt = time.Now().UTC()
	r.byID[auditID] = audit
	return nil
}

// ListBySession returns audits for a session, newest first, with limit/offset.
func (r *MemoryRepo) ListBySession(ctx context.Context, sessionID string, limit, offset int) ([]Audit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if offset < 0 {
		offset = 0
	}
	if limit < 0 {
		limit = 0
	}

	r.mu.RLock()
	ids := r.bySession[sessionID]
	audits := make([]Audit, 0, len(ids))
	for _, id := range ids {
		if a, ok := r.byID[id]; ok {
			audits = append(audits, a)
		}
	}
	r.mu.RUnlock()

	if len(audits) == 0 || offset >= len(audits) {
		return []Audit{}, nil
	}

	sort.Slice(audits, func(i, j int) bool {
		return audits[i].CreatedAt.After(audits[j].CreatedAt)
	})

	end := len(audits)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return audits[offset:end], nil
}

// Delete removes an audit owned by the session.
func (r *MemoryRepo) Delete(ctx context.Context, sessionID, auditID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	audit, ok := r.byID[auditID]
	if !ok || audit.SessionID != sessionID {
		return ErrNotFound
	}
	delete(r.byID, auditID)
	ids := r.bySession[sessionID]
	for i, id := range ids {
		if id == auditID {
			r.bySession[sessionID] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	return nil
}
