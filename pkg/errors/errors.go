// Package errors provides the typed error taxonomy for sync operations,
// with context-aware suggestions to help users resolve issues quickly.
//
// Transport failures are classified into NetworkError, TimeoutError and
// HTTPStatusError; manifest shape problems become FormatError; disk
// problems become WriteVerificationError or PersistenceError. Each type
// carries the context (URL, status code, path) needed for display.
//
// Basic Usage:
//
//	resp, err := client.Get(url)
//	if err != nil {
//	    return errors.ClassifyTransport(err, url, timeout)
//	}
package errors

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"
)

// Exported constants.
const (
	CategoryFormat            ErrorCategory = "format"
	CategoryHTTPStatus        ErrorCategory = "http_status"
	CategoryNetwork           ErrorCategory = "network"
	CategoryPersistence       ErrorCategory = "persistence"
	CategoryTimeout           ErrorCategory = "timeout"
	CategoryUnknown           ErrorCategory = "unknown"
	CategoryWriteVerification ErrorCategory = "write_verification"
)

// ErrorCategory represents the type of error that occurred.
type ErrorCategory string

// NetworkError indicates the transport failed before a response arrived
// (unreachable host, connection refused, DNS failure).
type NetworkError struct {
	URL string
	Err error
}

// Error implements the error interface.
func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error requesting %s: %v", e.URL, e.Err)
}

// Unwrap returns the underlying transport error.
func (e *NetworkError) Unwrap() error { return e.Err }

// Category returns the error category.
func (e *NetworkError) Category() ErrorCategory { return CategoryNetwork }

// TimeoutError indicates a request exceeded its bounded timeout.
type TimeoutError struct {
	URL     string
	Timeout time.Duration
	Err     error
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("request to %s timed out after %s", e.URL, e.Timeout)
}

// Unwrap returns the underlying transport error.
func (e *TimeoutError) Unwrap() error { return e.Err }

// Category returns the error category.
func (e *TimeoutError) Category() ErrorCategory { return CategoryTimeout }

// HTTPStatusError indicates a response outside the success range.
type HTTPStatusError struct {
	URL        string
	StatusCode int
	Status     string
}

// Error implements the error interface.
func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("unexpected status %s from %s", e.Status, e.URL)
}

// Category returns the error category.
func (e *HTTPStatusError) Category() ErrorCategory { return CategoryHTTPStatus }

// FormatError indicates the manifest body did not match the expected shape.
type FormatError struct {
	Reason string
	Err    error
}

// Error implements the error interface.
func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid manifest: %s: %v", e.Reason, e.Err)
	}

	return "invalid manifest: " + e.Reason
}

// Unwrap returns the underlying parse error, if any.
func (e *FormatError) Unwrap() error { return e.Err }

// Category returns the error category.
func (e *FormatError) Category() ErrorCategory { return CategoryFormat }

// WriteVerificationError indicates a disk write did not produce a readable file.
type WriteVerificationError struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e *WriteVerificationError) Error() string {
	return fmt.Sprintf("written file could not be verified at %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying stat error.
func (e *WriteVerificationError) Unwrap() error { return e.Err }

// Category returns the error category.
func (e *WriteVerificationError) Category() ErrorCategory { return CategoryWriteVerification }

// PersistenceError indicates the cache file could not be read or written.
// Always non-fatal: reads degrade to an empty cache, writes surface as
// a best-effort log entry.
type PersistenceError struct {
	Path string
	Op   string // "read" or "write"
	Err  error
}

// Error implements the error interface.
func (e *PersistenceError) Error() string {
	return fmt.Sprintf("cache %s failed for %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying I/O error.
func (e *PersistenceError) Unwrap() error { return e.Err }

// Category returns the error category.
func (e *PersistenceError) Category() ErrorCategory { return CategoryPersistence }

// Categorized is implemented by every error in the taxonomy.
type Categorized interface {
	error
	Category() ErrorCategory
}

// CategoryOf returns the category of an error, or CategoryUnknown for
// errors outside the taxonomy.
func CategoryOf(err error) ErrorCategory {
	var categorized Categorized
	if errors.As(err, &categorized) {
		return categorized.Category()
	}

	return CategoryUnknown
}

// ClassifyTransport converts a transport-level error from an HTTP request
// into the taxonomy: timeouts become TimeoutError, everything else
// becomes NetworkError. A timeout is treated identically to any other
// transport failure by callers; the distinct type exists for reporting.
func ClassifyTransport(err error, requestURL string, timeout time.Duration) error {
	if err == nil {
		return nil
	}

	if isTimeout(err) {
		return &TimeoutError{URL: requestURL, Timeout: timeout, Err: err}
	}

	return &NetworkError{URL: requestURL, Err: err}
}

// isTimeout reports whether the error chain indicates an elapsed deadline.
func isTimeout(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return true
	}

	// http.Client wraps its own timeout in a plain error message
	return strings.Contains(strings.ToLower(err.Error()), "context deadline exceeded")
}
