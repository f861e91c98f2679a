package verification

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

// ErrEncoding marks a failed QR image render. The verification record is
// still usable without the image.
var ErrEncoding = errors.New("verification: qr encoding failed")

const defaultQRSize = 300

// Record is one minted verification artifact: the public token, the URL a
// scanner lands on, and the QR image encoding that URL as a PNG. QRImage is
// nil when image rendering failed.
type Record struct {
	VerificationID string
	TargetURL      string
	QRImage        []byte
}

// Service mints verification records for completed audits.
type Service struct {
	BaseURL string
	QRSize  int
}

// TargetURL builds the public verification URL for a token and outcome.
func (s *Service) TargetURL(token string, hasAnomalies bool) string {
	result := "clean"
	if hasAnomalies {
		result = "anomalies"
	}
	q := url.Values{}
	q.Set("id", token)
	q.Set("result", result)
	return strings.TrimRight(s.BaseURL, "/") + "/check?" + q.Encode()
}

// Mint creates a fresh record for an audit outcome. A QR render failure is
// not fatal: the record comes back without an image alongside a wrapped
// ErrEncoding so the caller can log the degradation.
func (s *Service) Mint(hasAnomalies bool) (Record, error) {
	token := NewToken()
	target := s.TargetURL(token, hasAnomalies)
	rec := Record{VerificationID: token, TargetURL: target}

	size := s.QRSize
	if size <= 0 {
		size = defaultQRSize
	}
	png, err := qrcode.Encode(target, qrcode.Medium, size)
	if err != nil {
		return rec, fmt.Errorf("%w: %v", ErrEncoding, err)
	}
	rec.QRImage = png
	return rec, nil
}
