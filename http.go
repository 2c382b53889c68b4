package volley

import (
	"crypto/tls"
	"net/http"
)

// ClientOptions configures the shared HTTP client for a run.
type ClientOptions struct {
	// Connections sizes the connection pool to match the admission ceiling.
	Connections int

	// FollowRedirects restores the standard redirect policy. By default
	// redirects are not followed: the endpoint is measured directly and a
	// redirect is reported as its literal status.
	FollowRedirects bool

	// SkipCertVerify skips verifying SSL certificates when making requests.
	SkipCertVerify bool
}

// Client is a net/http client configured for load generation: one connection
// pool shared by every request, no redirect following and no cookie storage.
type Client struct {
	*http.Client
}

// NewClient builds the shared client for a run.
func NewClient(opts ClientOptions) *Client {
	transport := &http.Transport{
		MaxIdleConnsPerHost: opts.Connections,
	}
	if opts.SkipCertVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	client := &http.Client{
		Transport: transport,
		// No cookie jar: one response's Set-Cookie must not perturb
		// subsequent unrelated requests.
		Jar: nil,
	}
	if !opts.FollowRedirects {
		client.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}
	return &Client{Client: client}
}
