package share

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"salesaudit-backend/internal/shared/storage/object"
	"salesaudit-backend/internal/shared/util"
)

// ErrExportUnavailable marks a failed handoff to the export store.
var ErrExportUnavailable = errors.New("share: export store unavailable")

// FileName derives the download name for a rendered report. The verification
// token keys the name; without one the generation date stands in.
func FileName(token string, now time.Time) string {
	suffix := token
	if suffix == "" {
		suffix = now.UTC().Format("2006-01-02")
	}
	return fmt.Sprintf("sales_audit_report_%s.pdf", suffix)
}

// Exporter copies rendered reports into the configured object store so they
// can be fetched outside the audit session.
type Exporter struct {
	Store object.ObjectStore
}

// Export writes doc under an export key scoped to the session. Returns the
// storage key on success.
func (e *Exporter) Export(ctx context.Context, sessionID, fileName string, doc []byte) (string, error) {
	saver, ok := e.Store.(object.KeySaver)
	if !ok {
		return "", fmt.Errorf("%w: store does not support keyed writes", ErrExportUnavailable)
	}
	clean, err := util.SanitizeFileName(fileName)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExportUnavailable, err)
	}
	key := fmt.Sprintf("exports/%s/%s", util.HashSessionKey(sessionID), clean)
	if _, err := saver.SaveWithKey(ctx, key, "application/pdf", bytes.NewReader(doc)); err != nil {
		return "", fmt.Errorf("%w: %v", ErrExportUnavailable, err)
	}
	return key, nil
}
