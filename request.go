package volley

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// RequestSpec describes one HTTP request to issue.
// It is created by a RequestSource and never mutated afterwards; Created
// marks when the descriptor was produced so queueing delay can be measured.
type RequestSpec struct {
	Index   int
	URL     string
	Method  string
	Header  http.Header
	Body    string
	Created time.Time
}

// ParseHeaders decodes headers written as a query string,
// ie. name=value&name2=value2. Later duplicate names override earlier ones
// and names are case-insensitive.
func ParseHeaders(encoded string) (http.Header, error) {
	header := http.Header{}
	for _, pair := range strings.Split(encoded, "&") {
		if pair == "" {
			continue
		}
		name, value, _ := strings.Cut(pair, "=")
		name, err := url.QueryUnescape(name)
		if err != nil {
			return nil, fmt.Errorf("invalid header name %q: %w", pair, err)
		}
		value, err = url.QueryUnescape(value)
		if err != nil {
			return nil, fmt.Errorf("invalid header value %q: %w", pair, err)
		}
		header.Set(name, value)
	}
	return header, nil
}

// MergeHeaders returns a copy of base with every header from overrides
// applied on top. Neither argument is modified.
func MergeHeaders(base, overrides http.Header) http.Header {
	merged := base.Clone()
	if merged == nil {
		merged = http.Header{}
	}
	for name, values := range overrides {
		merged[name] = values
	}
	return merged
}
