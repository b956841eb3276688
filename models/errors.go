package models

import (
	"errors"
	"fmt"
)

// Codes raised while driving a search engine page.
const (
	ErrCodeTimeout      = "SCRAPE_TIMEOUT"
	ErrCodeNavigation   = "NAVIGATION_FAILED"
	ErrCodeBrowserCrash = "BROWSER_CRASH"
)

// Codes raised by the recipe page fetcher, the picker and the classifier.
const (
	ErrCodeFetchFailed      = "FETCH_FAILED"
	ErrCodeRecipeExhausted  = "RECIPE_EXHAUSTED"
	ErrCodeClassifyFailed   = "CLASSIFY_FAILED"
	ErrCodeUnsupportedImage = "UNSUPPORTED_IMAGE"
)

// Codes raised at the API and session boundary.
const (
	ErrCodeInvalidInput  = "INVALID_INPUT"
	ErrCodeWorkflowOrder = "WORKFLOW_ORDER"
	ErrCodeRateLimited   = "RATE_LIMITED"
	ErrCodeUnauthorized  = "UNAUTHORIZED"
	ErrCodeInternal      = "INTERNAL_ERROR"
)

// ErrorDetail is the error object carried by every failed API response.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ScrapeError pairs a stable code with a user-facing message. Err keeps the
// underlying cause for logs and is never sent to clients.
type ScrapeError struct {
	Code    string
	Message string
	Err     error
}

// NewScrapeError builds a ScrapeError. err may be nil.
func NewScrapeError(code, message string, err error) *ScrapeError {
	return &ScrapeError{Code: code, Message: message, Err: err}
}

func (e *ScrapeError) Error() string {
	if e.Err == nil {
		return e.Code + ": " + e.Message
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
}

func (e *ScrapeError) Unwrap() error { return e.Err }

// ToDetail strips the cause for an API body.
func (e *ScrapeError) ToDetail() *ErrorDetail {
	return &ErrorDetail{Code: e.Code, Message: e.Message}
}

// CodeOf returns the code of the first ScrapeError in err's chain, or ""
// when there is none.
func CodeOf(err error) string {
	var se *ScrapeError
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}
