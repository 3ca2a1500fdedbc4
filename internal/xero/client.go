package xero

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/HallyG/xerograb/internal/api"
	"github.com/HallyG/xerograb/internal/model"
	"github.com/HallyG/xerograb/internal/report"
	resty "resty.dev/v3"
)

const (
	prodAccountingAPI  = "https://api.xero.com/api.xro/2.0"
	prodConnectionsAPI = "https://api.xero.com/connections"
	getReportRoute     = "/Reports/%s"
	tenantHeader       = "xero-tenant-id"

	// PageSize is the number of items the API returns per page for paged endpoints.
	PageSize = 100
)

type Client interface {
	FetchConnections(ctx context.Context) ([]*Connection, error)
	FetchPage(ctx context.Context, tenantID string, endpoint model.Endpoint, cursor Cursor) (*model.Object, error)
	FetchReport(ctx context.Context, tenantID string, reportName string, params ReportParams) (*report.Report, error)
}

var _ Client = (*client)(nil)

type client struct {
	api            *api.BaseClient
	catalog        *model.Catalog
	connectionsURL string
}

type Option func(*client)

// New creates an accounting API client. The http.Client must authenticate requests,
// see oauth.NewHTTPClient.
func New(httpClient *http.Client, catalog *model.Catalog, opts ...Option) *client {
	c := &client{
		api: api.New(
			prodAccountingAPI,
			httpClient,
			api.WithErrorUnmarshaller(func(r *resty.Response) error {
				return UnmarshalError(r.StatusCode(), r.Bytes())
			}),
		),
		catalog:        catalog,
		connectionsURL: prodConnectionsAPI,
	}

	for _, opt := range opts {
		if opt == nil {
			continue
		}

		opt(c)
	}

	return c
}

func WithBaseURL(baseURL string) Option {
	return func(c *client) {
		api.WithBaseURL(baseURL)(c.api)
	}
}

func WithConnectionsURL(connectionsURL string) Option {
	return func(c *client) {
		c.connectionsURL = connectionsURL
	}
}

// WithAPIOptions applies options to the underlying HTTP client.
func WithAPIOptions(opts ...api.Option) Option {
	return func(c *client) {
		for _, opt := range opts {
			opt(c.api)
		}
	}
}

func (c *client) FetchConnections(ctx context.Context) ([]*Connection, error) {
	body, err := c.api.ExecuteRequest(ctx, http.MethodGet, c.connectionsURL, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch connections: %w", err)
	}

	var connections []*Connection
	if err := json.Unmarshal(body, &connections); err != nil {
		return nil, fmt.Errorf("failed to decode connections: %w", err)
	}

	return connections, nil
}

// FetchPage fetches one page of a list endpoint and binds it to the endpoint's wrapper model.
func (c *client) FetchPage(ctx context.Context, tenantID string, endpoint model.Endpoint, cursor Cursor) (*model.Object, error) {
	body, err := c.api.ExecuteRequest(ctx, http.MethodGet, endpoint.Path, cursor.values(), tenantHeaders(tenantID))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", endpoint.Name, err)
	}

	page, err := c.catalog.Decode(endpoint.Model, body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", endpoint.Name, err)
	}

	return page, nil
}

func (c *client) FetchReport(ctx context.Context, tenantID string, reportName string, params ReportParams) (*report.Report, error) {
	if err := params.Validate(ctx); err != nil {
		return nil, fmt.Errorf("invalid report parameters: %w", err)
	}

	body, err := c.api.ExecuteRequest(ctx, http.MethodGet, fmt.Sprintf(getReportRoute, reportName), params.values(), tenantHeaders(tenantID))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch report %s: %w", reportName, err)
	}

	r, err := report.Decode(body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode report %s: %w", reportName, err)
	}

	return r, nil
}

func tenantHeaders(tenantID string) http.Header {
	headers := http.Header{}
	headers.Set(tenantHeader, tenantID)

	return headers
}
