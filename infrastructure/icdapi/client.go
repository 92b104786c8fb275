// Package icdapi looks up classification entries through the WHO ICD-API
// search endpoint, with built-in support for timeouts, rate limiting,
// circuit breaking, metrics, and tracing.
//
// The HTTP transport is hidden behind the CoreSearcher interface and
// cross-cutting concerns are layered on top of it as middleware, so callers
// can add operational features without touching request code.
//
// Basic usage:
//
//	client, err := icdapi.NewClient(icdapi.ClientConfig{
//	    Token:    os.Getenv("ICD_API_TOKEN"),
//	    Language: "en",
//	})
//	candidates, err := client.Search(ctx, "fever and headache", 50)
//
// Usage with middleware:
//
//	client, err := icdapi.NewClient(icdapi.ClientConfig{
//	    Token: token,
//	    Middleware: []icdapi.Middleware{
//	        icdapi.TracingMiddleware("icdmatch"),
//	        icdapi.MetricsMiddleware(collector),
//	        icdapi.CircuitBreakerMiddleware(3, 30*time.Second),
//	    },
//	})
package icdapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/ahrav/go-icdmatch/internal/domain"
)

// Defaults for the WHO ICD-API.
const (
	// DefaultBaseURL is the public ICD-API root.
	DefaultBaseURL = "https://icd.who.int/icdapi"

	// DefaultLanguage is sent as Accept-Language when none is configured.
	DefaultLanguage = "en"

	// DefaultReleaseID selects the MMS linearization.
	DefaultReleaseID = "mms"

	// DefaultTimeout bounds a single search request.
	DefaultTimeout = 20 * time.Second

	// DefaultServiceName labels spans and metrics.
	DefaultServiceName = "icdapi"
)

// SearchRequest carries everything needed for one search call.
type SearchRequest struct {
	// Query is the free-text search phrase.
	Query string

	// Language is sent as the Accept-Language header.
	Language string

	// ReleaseID selects the linearization to search.
	ReleaseID string

	// FlatResults asks the service for a flat list instead of a tree.
	FlatResults bool

	// Token is the opaque bearer credential.
	Token string
}

// CoreSearcher defines the minimal interface that a search transport must
// implement. Middleware wraps any conforming implementation.
type CoreSearcher interface {
	// DoSearch performs one search and returns the raw response body.
	DoSearch(ctx context.Context, req SearchRequest) ([]byte, error)

	// Endpoint returns the URL requests are sent to.
	Endpoint() string
}

// Middleware wraps a CoreSearcher to add cross-cutting functionality.
type Middleware func(CoreSearcher) CoreSearcher

// ClientConfig holds all configuration options for creating a Client.
type ClientConfig struct {
	// BaseURL overrides the default API root. Leave empty for DefaultBaseURL.
	BaseURL string

	// Token authenticates requests. An empty token makes every Search fail
	// with ErrMissingCredential without touching the network.
	Token string

	// Language selects the language of titles and definitions.
	Language string

	// ReleaseID selects the linearization. Leave empty for DefaultReleaseID.
	ReleaseID string

	// Timeout bounds each request. Zero means DefaultTimeout; other values
	// are clamped to [MinTimeout, MaxTimeout].
	Timeout time.Duration

	// HTTPClient is used for requests when set. It is copied, so the
	// caller's client keeps its own Timeout.
	HTTPClient *http.Client

	// Core replaces the HTTP transport entirely. Used mainly by tests.
	Core CoreSearcher

	// Middleware is applied in the order given; the first entry is the
	// outermost wrapper.
	Middleware []Middleware
}

// Client searches the ICD-API and normalizes the returned records.
// A Client is safe for concurrent use.
type Client struct {
	core       CoreSearcher
	normalizer *Normalizer
	token      string
	language   string
	releaseID  string
	timeout    time.Duration
}

// NewClient creates a new Client. It validates the configuration and
// assembles the middleware chain before returning.
func NewClient(config ClientConfig) (*Client, error) {
	baseURL, err := ValidateBaseURL(config.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	timeout := ValidateTimeout(config.Timeout)
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	language := config.Language
	if language == "" {
		language = DefaultLanguage
	}
	releaseID := config.ReleaseID
	if releaseID == "" {
		releaseID = DefaultReleaseID
	}

	core := config.Core
	if core == nil {
		core = newHTTPSearcher(baseURL, timeout, config.HTTPClient)
	}
	core = TimeoutMiddleware(timeout)(core)

	// Apply middleware in reverse order so the first middleware is the outermost.
	for i := len(config.Middleware) - 1; i >= 0; i-- {
		core = config.Middleware[i](core)
	}

	return &Client{
		core:       core,
		normalizer: NewNormalizer(language),
		token:      config.Token,
		language:   language,
		releaseID:  releaseID,
		timeout:    timeout,
	}, nil
}

// Search sends one query to the service and returns at most limit
// normalized candidates. A limit of zero or less keeps every record.
// No request is sent when the client has no token. The timeout covers the
// whole middleware chain, including rate limiter waits.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]domain.Candidate, error) {
	if c.token == "" {
		return nil, ErrMissingCredential
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := c.core.DoSearch(ctx, SearchRequest{
		Query:       query,
		Language:    c.language,
		ReleaseID:   c.releaseID,
		FlatResults: true,
		Token:       c.token,
	})
	if err != nil {
		return nil, err
	}

	records, err := ExtractRecords(body)
	if err != nil {
		return nil, err
	}
	return c.normalizer.NormalizeAll(records, limit), nil
}

// HasCredential reports whether a token is configured.
func (c *Client) HasCredential() bool { return c.token != "" }

// Endpoint returns the search URL of the underlying transport.
func (c *Client) Endpoint() string { return c.core.Endpoint() }

// Timeout returns the effective per-request timeout.
func (c *Client) Timeout() time.Duration { return c.timeout }
