package models

import (
	"errors"
	"fmt"
)

// Run-level errors abort before any report is scanned. Report-level errors
// fail only the report they belong to.
var (
	ErrConfig        = errors.New("configuration error")
	ErrNoReports     = fmt.Errorf("%w: no reports found", ErrConfig)
	ErrAuth          = errors.New("authentication failed")
	ErrToken         = errors.New("embed token request failed")
	ErrMissingRole   = errors.New("effective identity required but no role configured")
	ErrRender        = errors.New("visual render error")
	ErrReportTimeout = errors.New("report scan timed out")
	ErrPageNotFound  = errors.New("page not found in embedded report")
)

// APIError describes a non-2xx response from the reporting REST API.
type APIError struct {
	Operation  string
	StatusCode int
	Body       string
	kind       error
}

// NewAPIError builds an APIError that unwraps to kind.
func NewAPIError(operation string, statusCode int, body string, kind error) *APIError {
	return &APIError{
		Operation:  operation,
		StatusCode: statusCode,
		Body:       body,
		kind:       kind,
	}
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: API returned status %d: %s", e.Operation, e.StatusCode, e.Body)
}

func (e *APIError) Unwrap() error {
	return e.kind
}

// IsRunFatal reports whether err must abort the whole run rather than a
// single report.
func IsRunFatal(err error) bool {
	return errors.Is(err, ErrConfig) || errors.Is(err, ErrAuth)
}
