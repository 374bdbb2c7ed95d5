// Package vocabulary implements the external reference vocabularies the
// resolver consults: the NLM RxNav REST API for drug nomenclature and a FHIR
// terminology server for SNOMED CT.
package vocabulary

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/turtacn/OntoGround/pkg/errors"
)

// DefaultUserAgent identifies the engine to vocabulary servers.
const DefaultUserAgent = "ontoground/1.0"

// maxBodyBytes caps how much of a response is decoded.
const maxBodyBytes = 4 << 20

// StatusError is a non-2xx vocabulary response.
type StatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("vocabulary: HTTP %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

// IsNotFound reports a 404.
func (e *StatusError) IsNotFound() bool { return e.StatusCode == http.StatusNotFound }

// Option configures a vocabulary client.
type Option func(*client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithMinScore sets the lowest approximate-match score a vocabulary accepts.
// Negative values are ignored.
func WithMinScore(score float64) Option {
	return func(c *client) {
		if score >= 0 {
			c.minScore = score
		}
	}
}

type client struct {
	baseURL   string
	userAgent string
	minScore  float64
	http      *http.Client
}

func newClient(baseURL string, opts []Option) (*client, error) {
	if baseURL == "" {
		return nil, errors.Configuration("vocabulary base URL is required")
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, errors.Configuration("vocabulary base URL is invalid").WithCause(err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, errors.Configuration("vocabulary base URL scheme must be http or https").WithDetail(baseURL)
	}
	c := &client{
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		userAgent: DefaultUserAgent,
		// the resolver bounds every call with its own deadline
		http: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// getJSON issues GET baseURL+path?query and decodes a 2xx body into out.
// Other statuses yield a *StatusError.
func (c *client) getJSON(ctx context.Context, path string, query url.Values, out interface{}) error {
	full := c.baseURL + path
	if len(query) > 0 {
		full += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, full, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body := io.LimitReader(resp.Body, maxBodyBytes)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(body, 512))
		return &StatusError{StatusCode: resp.StatusCode, URL: full, Body: strings.TrimSpace(string(snippet))}
	}
	if err := json.NewDecoder(body).Decode(out); err != nil {
		return fmt.Errorf("vocabulary: decode response from %s: %w", full, err)
	}
	return nil
}

//Personal.AI order the ending
