package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/HallyG/xerograb/internal/flatten"
	"github.com/HallyG/xerograb/internal/log"
	"github.com/HallyG/xerograb/internal/model"
	"github.com/HallyG/xerograb/internal/report"
	"github.com/HallyG/xerograb/internal/schema"
	"github.com/HallyG/xerograb/internal/sink"
	"github.com/HallyG/xerograb/internal/state"
	"github.com/HallyG/xerograb/internal/table"
	"github.com/HallyG/xerograb/internal/util/uuidutil"
	"github.com/HallyG/xerograb/internal/xero"
	"github.com/samber/lo"
)

var ErrNoTenants = errors.New("no tenants available")

// Extractor pulls endpoints and reports of every selected tenant into a sink. Work is sequential
// and the first error aborts the run.
type Extractor struct {
	client  xero.Client
	catalog *model.Catalog
	sink    sink.Sink
	state   *state.Store
	now     func() time.Time
}

type Option func(*Extractor)

// WithClock overrides the clock used for the default report date.
func WithClock(now func() time.Time) Option {
	return func(e *Extractor) {
		e.now = now
	}
}

func New(client xero.Client, catalog *model.Catalog, s sink.Sink, store *state.Store, opts ...Option) *Extractor {
	e := &Extractor{
		client:  client,
		catalog: catalog,
		sink:    s,
		state:   store,
		now:     time.Now,
	}

	for _, opt := range opts {
		if opt == nil {
			continue
		}

		opt(e)
	}

	return e
}

// Run extracts the selected endpoints and reports. Columns written by previous runs are kept in
// every table and the columns written now are recorded in the state.
func (e *Extractor) Run(ctx context.Context, opts Options) error {
	if err := opts.Validate(ctx); err != nil {
		return fmt.Errorf("invalid options: %w", err)
	}

	endpoints, err := e.endpoints(opts.Endpoints)
	if err != nil {
		return err
	}

	tenants, err := e.Tenants(ctx, opts.TenantIDs)
	if err != nil {
		return err
	}

	for _, endpoint := range endpoints {
		if err := e.extractEndpoint(ctx, tenants, endpoint, opts.Incremental); err != nil {
			return fmt.Errorf("endpoint %s: %w", endpoint.Name, err)
		}
	}

	for _, r := range opts.Reports {
		if err := e.extractReport(ctx, tenants, r, opts.Incremental); err != nil {
			return fmt.Errorf("report %s: %w", r.Name, err)
		}
	}

	if err := e.state.Save(); err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}

	return nil
}

// Tenants returns the requested tenant ids, or every connected tenant when none are requested.
// Requesting a tenant that is not connected is an error listing every such tenant.
func (e *Extractor) Tenants(ctx context.Context, requested []string) ([]string, error) {
	requested, err := uuidutil.ParseList(requested)
	if err != nil {
		return nil, fmt.Errorf("invalid tenant ids: %w", err)
	}

	connections, err := e.client.FetchConnections(ctx)
	if err != nil {
		return nil, err
	}

	available := lo.Map(connections, func(c *xero.Connection, _ int) string {
		return c.TenantID.String()
	})

	if len(available) == 0 {
		return nil, ErrNoTenants
	}

	if len(requested) == 0 {
		return available, nil
	}

	if unavailable := lo.Without(requested, available...); len(unavailable) > 0 {
		return nil, fmt.Errorf("tenants not available: %s", strings.Join(unavailable, ", "))
	}

	return requested, nil
}

func (e *Extractor) endpoints(names []string) ([]model.Endpoint, error) {
	endpoints := make([]model.Endpoint, 0, len(names))
	for _, name := range lo.Uniq(names) {
		endpoint, ok := e.catalog.Endpoint(name)
		if !ok {
			return nil, fmt.Errorf("unknown endpoint: %s", name)
		}

		endpoints = append(endpoints, endpoint)
	}

	return endpoints, nil
}

func (e *Extractor) extractEndpoint(ctx context.Context, tenants []string, endpoint model.Endpoint, incremental bool) error {
	logger := log.FromContext(ctx).With().Str("endpoint", endpoint.Name).Logger()

	defs, err := schema.NewBuilder(e.catalog).BuildEndpoint(endpoint)
	if err != nil {
		return err
	}

	for _, def := range defs {
		def.AddPrimaryKey(report.ContextTenantID)
	}

	set := table.NewSet(defs)

	for _, tenantID := range tenants {
		flattener := flatten.New(e.catalog, set, flatten.WithContext(map[string]string{
			report.ContextTenantID: tenantID,
		}))

		for items, err := range xero.Pages(ctx, e.client, tenantID, endpoint) {
			if err != nil {
				return err
			}

			if err := flattener.Flatten(items); err != nil {
				return err
			}

			logger.Debug().Str("tenant.id", tenantID).Int("item.count", len(items)).Msg("flattened page")
		}
	}

	logger.Info().Int("row.count", set.RowCount()).Msg("extracted endpoint")

	return e.write(ctx, set, incremental)
}

func (e *Extractor) extractReport(ctx context.Context, tenants []string, opts ReportOptions, incremental bool) error {
	name, ok := e.catalog.Report(opts.Name)
	if !ok {
		return fmt.Errorf("unknown report: %s", opts.Name)
	}

	logger := log.FromContext(ctx).With().Str("report", name).Logger()

	f, err := report.NewFlattener(opts.Variant)
	if err != nil {
		return err
	}

	tableName := lo.SnakeCase(name)
	set := table.NewSet(nil)
	set.Define(report.Definition(tableName, f))

	dates := DateBatches(opts.Date, opts.PreviousPeriods, e.now())

	for _, tenantID := range tenants {
		for _, date := range dates {
			params := opts.Params
			params.Date = date

			r, err := e.client.FetchReport(ctx, tenantID, name, params)
			if err != nil {
				return err
			}

			rows := f.Flatten(r, map[string]string{
				report.ContextDate:     date.Format(time.DateOnly),
				report.ContextTenantID: tenantID,
			})
			for _, row := range rows {
				set.Append(tableName, row)
			}

			logger.Debug().Str("tenant.id", tenantID).Time("date", date).Int("row.count", len(rows)).Msg("flattened report")
		}
	}

	logger.Info().Int("row.count", set.RowCount()).Msg("extracted report")

	return e.write(ctx, set, incremental)
}

func (e *Extractor) write(ctx context.Context, set *table.Set, incremental bool) error {
	for _, t := range set.Tables() {
		name := t.Definition.Name
		t.MergeColumns(e.state.Columns(name))

		if err := e.sink.WriteTable(ctx, t, incremental); err != nil {
			return fmt.Errorf("failed to write table %s: %w", name, err)
		}

		e.state.SetColumns(name, t.Definition.ColumnNames())
	}

	return nil
}

// DateBatches returns the as-of dates of a report: date (today when zero) followed by the last day
// of each of the previous preceding months.
func DateBatches(date time.Time, previous int, now time.Time) []time.Time {
	if date.IsZero() {
		date = now
	}

	date = time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)

	dates := []time.Time{date}
	for i := 1; i <= previous; i++ {
		dates = append(dates, time.Date(date.Year(), date.Month()-time.Month(i)+1, 0, 0, 0, 0, 0, time.UTC))
	}

	return dates
}
