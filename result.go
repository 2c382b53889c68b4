package volley

import (
	"fmt"
	"time"
)

// ResponseRecord is the terminal outcome of executing one RequestSpec.
// Status is zero when the request never completed; Err carries the failure.
// A record may hold both: headers arrived but the body read failed.
type ResponseRecord struct {
	Index  int
	URL    string
	Status int
	Body   []byte
	Err    error

	// QueueDuration is descriptor creation to dispatch.
	QueueDuration time.Duration
	// RequestDuration is dispatch to response headers, or to failure.
	RequestDuration time.Duration
	// ResponseDuration is response headers to the last body byte.
	ResponseDuration time.Duration
}

// Failed reports whether the request never produced a response.
func (r *ResponseRecord) Failed() bool {
	return r.Status == 0
}

// SourceReadError reports a request source that could not be opened or
// parsed. It aborts the run before, or mid-stream instead of, issuing
// further requests.
type SourceReadError struct {
	Path string
	Err  error
}

func (e *SourceReadError) Error() string {
	return fmt.Sprintf("read request source %s: %v", e.Path, e.Err)
}

func (e *SourceReadError) Unwrap() error {
	return e.Err
}

// BodyReadError marks a response whose headers arrived but whose body could
// not be fully read. The record keeps the status it already obtained.
type BodyReadError struct {
	Err error
}

func (e *BodyReadError) Error() string {
	return fmt.Sprintf("read response body: %v", e.Err)
}

func (e *BodyReadError) Unwrap() error {
	return e.Err
}
