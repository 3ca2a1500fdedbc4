package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	resty "resty.dev/v3"
)

const (
	defaultTimeout          = 1 * time.Minute
	defaultRetryCount       = 3
	defaultRetryWaitTime    = 2 * time.Second
	defaultMaxRetryWaitTime = 10 * time.Second
)

type Client interface {
	// ExecuteRequest performs the request and returns the raw response body of a successful response.
	ExecuteRequest(ctx context.Context, method, url string, values url.Values, headers http.Header) ([]byte, error)
}

type BaseClient struct {
	resty               *resty.Client
	errorUnmarshallerFn func(r *resty.Response) error
}

type Option func(*BaseClient)

// New creates a client that retries transport errors, rate limiting and server errors.
// The http.Client is expected to carry authentication, e.g. one built by oauth2.NewClient.
func New(baseURL string, httpClient *http.Client, opts ...Option) *BaseClient {
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	c := &BaseClient{}
	c.resty = resty.NewWithClient(httpClient).
		SetBaseURL(baseURL).
		SetTimeout(defaultTimeout).
		SetRetryCount(defaultRetryCount).
		SetRetryWaitTime(defaultRetryWaitTime).
		SetRetryMaxWaitTime(defaultMaxRetryWaitTime).
		SetHeader("Accept", "application/json").
		AddResponseMiddleware(func(c *resty.Client, r *resty.Response) error {
			req := r.Request
			zerolog.Ctx(req.Context()).Debug().
				Str("http.url", req.URL).
				Str("http.method", req.Method).
				Err(r.Err).
				Dur("http.duration_ms", r.ReceivedAt().Sub(req.Time)).
				Int("http.status_code", r.StatusCode()).
				Msg("performed HTTP request")
			return nil
		}).
		AddRetryConditions(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}

			return r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= http.StatusInternalServerError
		})

	for _, opt := range opts {
		if opt == nil {
			continue
		}

		opt(c)
	}

	return c
}

func WithBaseURL(url string) Option {
	return func(c *BaseClient) {
		c.resty.SetBaseURL(url)
	}
}

// WithHeader sets a header sent with every request.
func WithHeader(key, value string) Option {
	return func(c *BaseClient) {
		c.resty.SetHeader(key, value)
	}
}

// WithRetryWaitTime overrides the backoff bounds between retries.
func WithRetryWaitTime(wait, maxWait time.Duration) Option {
	return func(c *BaseClient) {
		c.resty.SetRetryWaitTime(wait).SetRetryMaxWaitTime(maxWait)
	}
}

func WithErrorUnmarshaller(unmarshallerFn func(r *resty.Response) error) Option {
	return func(c *BaseClient) {
		c.errorUnmarshallerFn = unmarshallerFn
	}
}

func (c *BaseClient) ExecuteRequest(ctx context.Context, method, url string, values url.Values, headers http.Header) ([]byte, error) {
	req := c.resty.R().
		SetContext(ctx).
		SetUnescapeQueryParams(false).
		SetQueryParamsFromValues(values).
		SetHeaderMultiValues(headers)

	resp, err := req.Execute(method, url)
	if err != nil {
		return nil, fmt.Errorf("%s %s failed: %w", method, url, err)
	}

	if resp.IsError() {
		if c.errorUnmarshallerFn != nil {
			return nil, c.errorUnmarshallerFn(resp)
		}

		return nil, fmt.Errorf("HTTP request failed with status %d: %s", resp.StatusCode(), resp.String())
	}

	return resp.Bytes(), nil
}

// Close releases the idle connections of the underlying client.
func (c *BaseClient) Close() error {
	return c.resty.Close()
}
