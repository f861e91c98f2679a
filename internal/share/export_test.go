package share

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"salesaudit-backend/internal/shared/util"
)

type keyedStore struct {
	keys map[string][]byte
	fail bool
}

func (s *keyedStore) Save(ctx context.Context, sessionID, fileName string, r io.Reader) (string, int64, string, error) {
	return "", 0, "", errors.New("not used")
}

func (s *keyedStore) Open(ctx context.Context, storageKey string) (io.ReadCloser, error) {
	return nil, errors.New("not used")
}

func (s *keyedStore) SaveWithKey(ctx context.Context, storageKey, contentType string, r io.Reader) (int64, error) {
	if s.fail {
		return 0, errors.New("disk full")
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	if s.keys == nil {
		s.keys = map[string][]byte{}
	}
	s.keys[storageKey] = data
	return int64(len(data)), nil
}

type plainStore struct{}

func (plainStore) Save(ctx context.Context, sessionID, fileName string, r io.Reader) (string, int64, string, error) {
	return "", 0, "", errors.New("not used")
}

func (plainStore) Open(ctx context.Context, storageKey string) (io.ReadCloser, error) {
	return nil, errors.New("not used")
}

func TestFileName(t *testing.T) {
	if got := FileName("AB12CD34", time.Now()); got != "sales_audit_report_AB12CD34.pdf" {
		t.Fatalf("got %q", got)
	}
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	if got := FileName("", now); got != "sales_audit_report_2025-06-01.pdf" {
		t.Fatalf("got %q", got)
	}
}

func TestExport(t *testing.T) {
	store := &keyedStore{}
	e := &Exporter{Store: store}

	key, err := e.Export(context.Background(), "session-1", "sales_audit_report_AB12CD34.pdf", []byte("%PDF-fake"))
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	wantPrefix := "exports/" + util.HashSessionKey("session-1") + "/"
	if !strings.HasPrefix(key, wantPrefix) {
		t.Fatalf("key %q missing session scope %q", key, wantPrefix)
	}
	if string(store.keys[key]) != "%PDF-fake" {
		t.Fatalf("stored bytes mismatch")
	}
}

func TestExportStoreFailure(t *testing.T) {
	e := &Exporter{Store: &keyedStore{fail: true}}
	_, err := e.Export(context.Background(), "session-1", "report.pdf", []byte("x"))
	if !errors.Is(err, ErrExportUnavailable) {
		t.Fatalf("expected ErrExportUnavailable, got %v", err)
	}
}

func TestExportRequiresKeyedStore(t *testing.T) {
	e := &Exporter{Store: plainStore{}}
	_, err := e.Export(context.Background(), "session-1", "report.pdf", []byte("x"))
	if !errors.Is(err, ErrExportUnavailable) {
		t.Fatalf("expected ErrExportUnavailable, got %v", err)
	}
}
