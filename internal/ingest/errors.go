package ingest

import "errors"

var (
	// ErrUnsupportedFormat marks files whose extension/MIME does not match
	// the accepted tabular format. User-correctable.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrParse marks payloads that matched the accepted format but could
	// not be decoded.
	ErrParse = errors.New("parse failed")
)
