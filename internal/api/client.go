// Package api provides the HTTP client for the document answering service.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	fhttp "github.com/bogdanfinn/fhttp"
	tls_client "github.com/bogdanfinn/tls-client"
	"github.com/bogdanfinn/tls-client/profiles"
	"go.uber.org/zap"

	apierrors "github.com/diogo/docchat/internal/errors"
	"github.com/diogo/docchat/internal/models"
)

const (
	defaultTimeout = 300 * time.Second

	// maxResponseBytes bounds how much of a response body is read
	maxResponseBytes = 8 << 20
	// maxErrorBodyBytes bounds the error body kept for logs
	maxErrorBodyBytes = 4 << 10
)

// HTTPDoer is the subset of tls_client.HttpClient the client needs
type HTTPDoer interface {
	Do(req *fhttp.Request) (*fhttp.Response, error)
}

// RequestDecorator mutates every outbound request before it is sent.
// Returning an error aborts the request.
type RequestDecorator func(req *fhttp.Request) error

// Client talks to the answering service
type Client struct {
	httpClient HTTPDoer
	baseURL    string
	timeout    time.Duration
	decorators []RequestDecorator
	logger     *zap.Logger
}

// ClientOption is a function that configures the client
type ClientOption func(*Client)

// WithHTTPClient replaces the TLS client, mostly for tests
func WithHTTPClient(doer HTTPDoer) ClientOption {
	return func(c *Client) {
		c.httpClient = doer
	}
}

// WithTimeout sets the request timeout of the default TLS client
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithLogger sets the operational logger
func WithLogger(logger *zap.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithRequestDecorator adds a decorator run on every request, in the order added
func WithRequestDecorator(d RequestDecorator) ClientOption {
	return func(c *Client) {
		if d != nil {
			c.decorators = append(c.decorators, d)
		}
	}
}

// NewClient creates a client for the service rooted at baseURL
func NewClient(baseURL string, opts ...ClientOption) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, apierrors.NewConfigError("api_base_url", "must not be empty")
	}

	client := &Client{
		baseURL: baseURL,
		timeout: defaultTimeout,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(client)
	}

	if client.httpClient == nil {
		// Chrome profile, same as a browser session against API Gateway
		options := []tls_client.HttpClientOption{
			tls_client.WithTimeoutSeconds(int(client.timeout / time.Second)),
			tls_client.WithClientProfile(profiles.Chrome_120),
			tls_client.WithNotFollowRedirects(),
		}
		httpClient, err := tls_client.NewHttpClient(tls_client.NewNoopLogger(), options...)
		if err != nil {
			return nil, fmt.Errorf("failed to create HTTP client: %w", err)
		}
		client.httpClient = httpClient
	}

	return client, nil
}

// BaseURL returns the service root without a trailing slash
func (c *Client) BaseURL() string {
	return c.baseURL
}

// doJSON sends one request and returns the body of a 2xx response.
// Non-2xx answers become *errors.APIError, transport failures *errors.NetworkError.
func (c *Client) doJSON(ctx context.Context, method, endpoint string, payload any) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	url := c.baseURL + endpoint
	req, err := fhttp.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for k, v := range models.DefaultHeaders() {
		req.Header.Set(k, v)
	}
	for _, decorate := range c.decorators {
		if err := decorate(req); err != nil {
			return nil, fmt.Errorf("failed to prepare request: %w", err)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("request failed",
			zap.String("method", method),
			zap.String("endpoint", endpoint),
			zap.Error(err))
		return nil, apierrors.NewNetworkError(method+" "+endpoint, endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		apiErr := apierrors.NewAPIError(resp.StatusCode, statusText(resp), endpoint, string(errBody))
		c.logger.Warn("service returned an error",
			zap.String("method", method),
			zap.String("endpoint", endpoint),
			zap.Int("status", resp.StatusCode),
			zap.String("body", apierrors.GetResponseBody(apiErr)),
			zap.Duration("elapsed", time.Since(start)))
		return nil, apiErr
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, apierrors.NewNetworkError("read "+endpoint, endpoint, err)
	}

	c.logger.Debug("request completed",
		zap.String("method", method),
		zap.String("endpoint", endpoint),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(data)),
		zap.Duration("elapsed", time.Since(start)))

	return data, nil
}

// statusText returns the reason phrase of a response, e.g. "Internal Server Error"
func statusText(resp *fhttp.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		text = fhttp.StatusText(resp.StatusCode)
	}
	return text
}
