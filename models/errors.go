package models

import "fmt"

// Acquisition error codes. Each one means no usable HTML could be obtained
// for the target URL.
const (
	ErrCodeTimeout       = "SCRAPE_TIMEOUT"
	ErrCodeFetch         = "FETCH_FAILED"
	ErrCodeNavigation    = "NAVIGATION_FAILED"
	ErrCodeBrowserLaunch = "BROWSER_LAUNCH_FAILED"
	ErrCodeInternal      = "INTERNAL_ERROR"
)

// ScrapeError is the internal error type carrying an error code.
// It implements the error interface and supports error wrapping via Unwrap.
type ScrapeError struct {
	Code    string
	Message string
	Err     error // wrapped original error
}

func (e *ScrapeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ScrapeError) Unwrap() error {
	return e.Err
}

// NewScrapeError creates a new ScrapeError.
func NewScrapeError(code, message string, err error) *ScrapeError {
	return &ScrapeError{Code: code, Message: message, Err: err}
}

// Summary is the human-readable message surfaced in ScrapeResult.Error.
// It keeps the root cause (status code, dial error) but drops the code prefix.
func (e *ScrapeError) Summary() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}
