package extract_test

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/HallyG/xerograb/internal/extract"
	"github.com/HallyG/xerograb/internal/model"
	"github.com/HallyG/xerograb/internal/report"
	"github.com/HallyG/xerograb/internal/sink"
	"github.com/HallyG/xerograb/internal/state"
	"github.com/HallyG/xerograb/internal/util/testutil"
	"github.com/HallyG/xerograb/internal/xero"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

const (
	tenantA = "70784a63-d24b-46a9-a4db-0e70a274b056"
	tenantB = "e0da6937-de07-4a14-adee-37abfac298ce"
	tenantC = "0a1b2c3d-0000-4000-8000-000000000000"
)

var pages = map[string]string{
	"Accounts": `{"Accounts": [
		{"AccountID": "a1", "Code": "200", "Name": "Sales"},
		{"AccountID": "a2", "Code": "090", "Name": "Bank"}
	]}`,
	"Contacts": `{"Contacts": [
		{"ContactID": "c1", "Name": "Acme", "Addresses": [{"AddressType": "POBOX", "City": "Wellington"}]}
	]}`,
}

const balanceSheet = `{"Reports": [{
	"ReportID": "BalanceSheet",
	"ReportName": "Balance Sheet",
	"ReportTitles": ["Balance Sheet"],
	"Rows": [
		{"RowType": "Header", "Cells": [{"Value": ""}, {"Value": "31 Mar 2024"}]},
		{"RowType": "Section", "Title": "Bank", "Rows": [
			{"RowType": "Row", "Cells": [{"Value": "Cash"}, {"Value": "10.00"}]}
		]}
	]
}]}`

var _ xero.Client = (*StubClient)(nil)

type StubClient struct {
	catalog      *model.Catalog
	tenants      []string
	reportErr    error
	reportCalls  []xero.ReportParams
	requestedIDs []string
}

func (s *StubClient) FetchConnections(ctx context.Context) ([]*xero.Connection, error) {
	connections := make([]*xero.Connection, 0, len(s.tenants))
	for _, id := range s.tenants {
		connections = append(connections, &xero.Connection{TenantID: uuid.MustParse(id)})
	}

	return connections, nil
}

func (s *StubClient) FetchPage(ctx context.Context, tenantID string, endpoint model.Endpoint, cursor xero.Cursor) (*model.Object, error) {
	s.requestedIDs = append(s.requestedIDs, tenantID)

	return s.catalog.Decode(endpoint.Model, []byte(pages[endpoint.Name]))
}

func (s *StubClient) FetchReport(ctx context.Context, tenantID string, reportName string, params xero.ReportParams) (*report.Report, error) {
	if s.reportErr != nil {
		return nil, s.reportErr
	}

	s.reportCalls = append(s.reportCalls, params)

	return report.Decode([]byte(balanceSheet))
}

type fixture struct {
	client    *StubClient
	store     *state.Store
	dir       string
	extractor *extract.Extractor
}

func setup(t *testing.T) *fixture {
	t.Helper()

	catalog := testutil.DefaultCatalog(t)
	dir := t.TempDir()

	out, err := sink.NewCSVSink(filepath.Join(dir, "out"))
	require.NoError(t, err)

	store, err := state.Open(filepath.Join(dir, "state.json"))
	require.NoError(t, err)

	client := &StubClient{catalog: catalog, tenants: []string{tenantA, tenantB}}
	now := func() time.Time { return time.Date(2024, 3, 31, 15, 0, 0, 0, time.UTC) }

	return &fixture{
		client:    client,
		store:     store,
		dir:       dir,
		extractor: extract.New(client, catalog, out, store, extract.WithClock(now)),
	}
}

func (f *fixture) records(t *testing.T, tableName string) [][]string {
	t.Helper()

	file, err := os.Open(filepath.Join(f.dir, "out", tableName+".csv"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = file.Close() })

	records, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)

	return records
}

func TestTenants(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		requested   []string
		expected    []string
		expectedErr string
	}{
		"defaults to every connected tenant": {
			expected: []string{tenantA, tenantB},
		},
		"accepts comma separated ids": {
			requested: []string{tenantB + ", " + tenantA},
			expected:  []string{tenantB, tenantA},
		},
		"lists unavailable tenants": {
			requested:   []string{tenantA, tenantC},
			expectedErr: "tenants not available: " + tenantC,
		},
		"rejects invalid ids": {
			requested:   []string{"not-a-uuid"},
			expectedErr: "invalid tenant ids",
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			f := setup(t)

			tenants, err := f.extractor.Tenants(t.Context(), test.requested)
			if test.expectedErr != "" {
				require.ErrorContains(t, err, test.expectedErr)
				return
			}

			require.NoError(t, err)
			require.Equal(t, test.expected, tenants)
		})
	}

	t.Run("returns error without connections", func(t *testing.T) {
		t.Parallel()

		f := setup(t)
		f.client.tenants = nil

		_, err := f.extractor.Tenants(t.Context(), nil)
		require.ErrorIs(t, err, extract.ErrNoTenants)
	})
}

func TestRun(t *testing.T) {
	t.Parallel()

	t.Run("writes endpoint tables and keeps remembered columns", func(t *testing.T) {
		t.Parallel()

		f := setup(t)
		f.store.SetColumns("Account", []string{"Legacy"})

		err := f.extractor.Run(t.Context(), extract.Options{
			TenantIDs: []string{tenantA},
			Endpoints: []string{"accounts", "Contacts"},
		})
		require.NoError(t, err)
		require.Equal(t, []string{tenantA, tenantA}, f.client.requestedIDs)

		accounts := f.records(t, "Account")
		require.Len(t, accounts, 3)
		require.Equal(t, "AccountID", accounts[0][0])
		require.Equal(t, "Legacy", accounts[0][len(accounts[0])-1])
		require.Equal(t, "a1", accounts[1][0])

		addresses := f.records(t, "Contact_Address")
		require.Len(t, addresses, 2)
		require.Equal(t, []string{"AddressID", "ContactID"}, addresses[0][:2])
		require.Equal(t, "c1", addresses[1][1])
		require.NotEmpty(t, addresses[1][0])

		tenant := slices.Index(accounts[0], "tenant_id")
		require.NotEqual(t, -1, tenant)
		require.Equal(t, tenantA, accounts[1][tenant])
		require.Contains(t, addresses[0], "tenant_id")

		reopened, err := state.Open(filepath.Join(f.dir, "state.json"))
		require.NoError(t, err)
		require.Equal(t, accounts[0], reopened.Columns("Account"))
		require.NotEmpty(t, reopened.Columns("Contact"))
	})

	t.Run("keeps rows of each tenant apart", func(t *testing.T) {
		t.Parallel()

		f := setup(t)

		err := f.extractor.Run(t.Context(), extract.Options{Endpoints: []string{"Accounts"}})
		require.NoError(t, err)
		require.Equal(t, []string{tenantA, tenantB}, f.client.requestedIDs)

		accounts := f.records(t, "Account")
		require.Len(t, accounts, 5)

		tenant := slices.Index(accounts[0], "tenant_id")
		require.NotEqual(t, -1, tenant)

		var keys []string
		for _, record := range accounts[1:] {
			keys = append(keys, record[0]+"/"+record[tenant])
		}
		require.ElementsMatch(t, []string{"a1/" + tenantA, "a2/" + tenantA, "a1/" + tenantB, "a2/" + tenantB}, keys)

		manifest, err := os.ReadFile(filepath.Join(f.dir, "out", "Account.csv.manifest"))
		require.NoError(t, err)

		var decoded sink.Manifest
		require.NoError(t, json.Unmarshal(manifest, &decoded))
		require.Equal(t, []string{"AccountID", "tenant_id"}, decoded.PrimaryKey)
	})

	t.Run("writes report batches for every tenant", func(t *testing.T) {
		t.Parallel()

		f := setup(t)

		err := f.extractor.Run(t.Context(), extract.Options{
			Reports: []extract.ReportOptions{{
				Name:            "balancesheet",
				PreviousPeriods: 1,
				Params:          xero.ReportParams{StandardLayout: true},
			}},
		})
		require.NoError(t, err)

		require.Len(t, f.client.reportCalls, 4)
		for _, params := range f.client.reportCalls {
			require.True(t, params.StandardLayout)
		}

		records := f.records(t, "balance_sheet")
		require.Len(t, records, 5)

		header := records[0]
		date := slices.Index(header, "date")
		tenant := slices.Index(header, "tenant_id")
		require.NotEqual(t, -1, date)
		require.NotEqual(t, -1, tenant)

		require.Equal(t, []string{"2024-03-31", tenantA}, []string{records[1][date], records[1][tenant]})
		require.Equal(t, []string{"2024-02-29", tenantA}, []string{records[2][date], records[2][tenant]})
		require.Equal(t, []string{"2024-03-31", tenantB}, []string{records[3][date], records[3][tenant]})
	})

	tests := map[string]struct {
		opts        extract.Options
		expectedErr string
	}{
		"returns error without work": {
			opts:        extract.Options{},
			expectedErr: "invalid options: Endpoints: endpoints or reports are required.",
		},
		"returns error for unknown endpoint": {
			opts:        extract.Options{Endpoints: []string{"Widgets"}},
			expectedErr: "unknown endpoint: Widgets",
		},
		"returns error for unknown report": {
			opts:        extract.Options{Reports: []extract.ReportOptions{{Name: "CashFlow"}}},
			expectedErr: "report CashFlow: unknown report: CashFlow",
		},
		"returns error for invalid report variant": {
			opts:        extract.Options{Reports: []extract.ReportOptions{{Name: "BalanceSheet", Variant: "pivot"}}},
			expectedErr: "invalid options: Reports",
		},
		"returns error for invalid report params": {
			opts: extract.Options{Reports: []extract.ReportOptions{{
				Name:   "BalanceSheet",
				Params: xero.ReportParams{Periods: 12},
			}}},
			expectedErr: "invalid options: Reports",
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			f := setup(t)

			err := f.extractor.Run(t.Context(), test.opts)
			require.ErrorContains(t, err, test.expectedErr)
		})
	}
}

func TestDateBatches(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 5, 15, 23, 30, 0, 0, time.UTC)

	tests := map[string]struct {
		date     time.Time
		previous int
		expected []string
	}{
		"defaults to today": {
			expected: []string{"2024-05-15"},
		},
		"adds preceding month ends": {
			date:     time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
			previous: 3,
			expected: []string{"2024-03-31", "2024-02-29", "2024-01-31", "2023-12-31"},
		},
		"mid month date": {
			previous: 1,
			expected: []string{"2024-05-15", "2024-04-30"},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			var dates []string
			for _, d := range extract.DateBatches(test.date, test.previous, now) {
				dates = append(dates, d.Format(time.DateOnly))
			}

			require.Equal(t, test.expected, dates)
		})
	}
}
