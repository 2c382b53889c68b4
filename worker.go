package volley

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"
)

// boundedFetch executes one request under the gate. The unit is held for the
// whole call and released on every path, including timeout and error paths.
func (s *Scheduler) boundedFetch(ctx context.Context, gate *Gate, spec *RequestSpec) *ResponseRecord {
	if err := gate.Acquire(ctx); err != nil {
		return &ResponseRecord{
			Index:         spec.Index,
			URL:           spec.URL,
			Err:           err,
			QueueDuration: time.Since(spec.Created),
		}
	}
	defer gate.Release()
	return s.fetch(ctx, spec)
}

// fetch issues one request and always returns a terminal record: timeouts,
// connection errors and body-read errors are captured as data, never raised.
func (s *Scheduler) fetch(ctx context.Context, spec *RequestSpec) *ResponseRecord {
	dispatched := time.Now()
	record := &ResponseRecord{
		Index:         spec.Index,
		URL:           spec.URL,
		QueueDuration: dispatched.Sub(spec.Created),
	}

	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	var body io.Reader
	if spec.Body != "" {
		body = strings.NewReader(spec.Body)
	}
	req, err := http.NewRequestWithContext(ctx, spec.Method, spec.URL, body)
	if err != nil {
		record.Err = err
		record.RequestDuration = time.Since(dispatched)
		return record
	}
	if spec.Header != nil {
		req.Header = spec.Header.Clone()
	}

	resp, err := s.Client.Do(req)
	if err != nil {
		s.Logger.Debugf("request %d failed: %v", spec.Index, err)
		record.Err = err
		record.RequestDuration = time.Since(dispatched)
		return record
	}

	headersAt := time.Now()
	record.RequestDuration = headersAt.Sub(dispatched)
	record.Status = resp.StatusCode

	payload, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	record.ResponseDuration = time.Since(headersAt)
	record.Body = payload
	if err != nil {
		// Headers already arrived; keep the status and mark the partial read.
		s.Logger.Debugf("request %d body read failed: %v", spec.Index, err)
		record.Err = &BodyReadError{Err: err}
	}
	return record
}
