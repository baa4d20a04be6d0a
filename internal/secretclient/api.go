package secretclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"go.uber.org/zap"
)

// APIClient is the transport the secret client speaks through. It is injected
// so tests and other front-ends can supply their own.
type APIClient interface {
	Get(ctx context.Context, path string, query url.Values, out any) error
	Post(ctx context.Context, path string, body, out any) error
	Delete(ctx context.Context, path string, query url.Values, out any) error
}

// HTTPError is returned for any non-2xx response. Body is kept so callers can
// recover an application envelope from it.
type HTTPError struct {
	Method     string
	URL        string
	StatusCode int
	Body       []byte
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s %s returned %d", e.Method, e.URL, e.StatusCode)
}

// HTTPAPIClient is the JSON-over-HTTP APIClient. It performs exactly one
// attempt per call.
type HTTPAPIClient struct {
	baseURL string
	headers http.Header
	http    *http.Client
	logger  *zap.Logger
}

// NewHTTPAPIClient builds a client rooted at baseURL. headers are sent on every
// request. A nil httpClient means cleanhttp's default client, which has no
// overall timeout; bound calls with ctx.
func NewHTTPAPIClient(baseURL string, headers http.Header, httpClient *http.Client, logger *zap.Logger) *HTTPAPIClient {
	if httpClient == nil {
		httpClient = cleanhttp.DefaultClient()
	}
	if headers == nil {
		headers = http.Header{}
	}
	return &HTTPAPIClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		headers: headers.Clone(),
		http:    httpClient,
		logger:  logger,
	}
}

// BearerHeaders returns headers carrying token as a bearer credential.
func BearerHeaders(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}

func (c *HTTPAPIClient) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

func (c *HTTPAPIClient) Post(ctx context.Context, path string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	return c.do(ctx, http.MethodPost, path, nil, data, out)
}

func (c *HTTPAPIClient) Delete(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodDelete, path, query, nil, out)
}

func (c *HTTPAPIClient) do(ctx context.Context, method, path string, query url.Values, body []byte, out any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return err
	}
	for k, vs := range c.headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("secretclient.http_failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err))
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("secretclient.http_status",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode))
		return &HTTPError{Method: method, URL: path, StatusCode: resp.StatusCode, Body: respBody}
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}

	c.logger.Debug("secretclient.http_success",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}
