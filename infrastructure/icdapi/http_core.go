package icdapi

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	searchPath = "/icd/entity/search"

	// MaxResponseBytes caps how much of a response body is read.
	MaxResponseBytes = 8 << 20

	// apiVersion is sent in the API-Version header.
	apiVersion = "v2"

	// maxErrorSnippet limits how much of an error body ends up in messages.
	maxErrorSnippet = 256
)

// httpSearcher is the CoreSearcher that talks to the real service.
type httpSearcher struct {
	endpoint   string
	client     *http.Client
	classifier *ErrorClassifier
}

func newHTTPSearcher(baseURL string, timeout time.Duration, client *http.Client) *httpSearcher {
	var c http.Client
	if client != nil {
		c = *client
	}
	c.Timeout = timeout
	client = &c

	return &httpSearcher{
		endpoint:   strings.TrimRight(baseURL, "/") + searchPath,
		client:     client,
		classifier: &ErrorClassifier{Service: DefaultServiceName},
	}
}

// Endpoint returns the full search URL.
func (h *httpSearcher) Endpoint() string { return h.endpoint }

// DoSearch issues a single GET against the search endpoint. Every failure
// is returned as a *LookupError.
func (h *httpSearcher) DoSearch(ctx context.Context, req SearchRequest) ([]byte, error) {
	params := url.Values{}
	params.Set("q", req.Query)
	params.Set("flatResults", strconv.FormatBool(req.FlatResults))
	params.Set("releaseId", req.ReleaseID)
	params.Set("useFlexisearch", "false")

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, h.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, NewLookupError(DefaultServiceName, ErrorTypeBadRequest, 0, "failed to build request", err)
	}
	httpReq.Header.Set("API-Version", apiVersion)
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Accept-Language", req.Language)
	httpReq.Header.Set("Authorization", "Bearer "+req.Token)

	resp, err := h.client.Do(httpReq)
	if err != nil {
		return nil, h.classifier.ClassifyTransportError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseBytes+1))
	if err != nil {
		return nil, h.classifier.ClassifyTransportError(err)
	}
	if len(body) > MaxResponseBytes {
		return nil, NewLookupError(DefaultServiceName, ErrorTypeInvalidResponse, resp.StatusCode,
			"response body exceeds size limit", nil)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, h.classifier.ClassifyHTTPError(resp.StatusCode, snippet(body), nil)
	}
	return body, nil
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > maxErrorSnippet {
		s = s[:maxErrorSnippet] + "..."
	}
	return s
}
