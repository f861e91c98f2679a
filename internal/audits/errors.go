package audits

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrNotReady     = errors.New("audit not completed")
	ErrAlreadyFinal = errors.New("audit already finalized")
)

const (
	ErrorCodeTimeout    = "TIMEOUT"
	ErrorCodeSuperseded = "SUPERSEDED"
	ErrorCodeAnalysis   = "ANALYSIS_ERROR"
	ErrorCodeInternal   = "INTERNAL_ERROR"
)
