package download

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failed download attempt. The retry controller
// dispatches on this value rather than inspecting error types.
type ErrorKind string

const (
	// ErrorKindEngine covers failures reported by the extraction engine run
	// itself (extraction, network, or transcode errors). Retryable via
	// proxy rotation.
	ErrorKindEngine ErrorKind = "engine"

	// ErrorKindUnexpected covers everything else that goes wrong around an
	// attempt (filesystem, template, result verification).
	ErrorKindUnexpected ErrorKind = "unexpected"
)

// ErrNoResult means a fallback run finished without leaving any usable
// media file in the destination directory.
var ErrNoResult = errors.New("no output file produced")

// DownloadError wraps one attempt's failure with its classification.
type DownloadError struct {
	Kind ErrorKind
	Err  error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
}

func (e *DownloadError) Unwrap() error {
	return e.Err
}

// engineErr wraps err as an engine-reported failure.
func engineErr(err error) error {
	return &DownloadError{Kind: ErrorKindEngine, Err: err}
}

// unexpectedErr wraps err as an unexpected failure.
func unexpectedErr(err error) error {
	return &DownloadError{Kind: ErrorKindUnexpected, Err: err}
}

// Classify returns the kind of a failed attempt. Errors that do not carry a
// classification count as unexpected.
func Classify(err error) ErrorKind {
	var de *DownloadError
	if errors.As(err, &de) {
		return de.Kind
	}
	return ErrorKindUnexpected
}

// TerminalError is the final failure surfaced after retries and fallbacks
// are exhausted.
type TerminalError struct {
	Attempts int
	LastErr  error
}

func (e *TerminalError) Error() string {
	return fmt.Sprintf("failed after %d attempts: %v", e.Attempts, e.LastErr)
}

func (e *TerminalError) Unwrap() error {
	return e.LastErr
}
