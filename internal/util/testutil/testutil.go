package testutil

import (
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/HallyG/xerograb/internal/model"
	"github.com/stretchr/testify/require"
)

// LoadTestDataFile reads a file from the package's testdata/api directory.
func LoadTestDataFile(t *testing.T, filename string) []byte {
	t.Helper()

	path := filepath.Clean(filepath.Join("testdata", "api", filename))

	_, err := os.Stat(path)
	require.NoError(t, err, "test data file %s must exist", filename)

	b, err := os.ReadFile(path)
	require.NoError(t, err)

	return b
}

// AssertRequest checks the method, headers and query parameters of a request.
func AssertRequest(t *testing.T, r *http.Request, method string, expectedHeaders http.Header, expectedQueryParams url.Values) {
	t.Helper()

	require.Equal(t, method, r.Method, "HTTP method should match")

	for header, expected := range expectedHeaders {
		require.Equal(t, expected, r.Header.Values(header), "header %s should match", header)
	}

	query := r.URL.Query()
	for key, expected := range expectedQueryParams {
		require.Equal(t, expected, query[key], "query param %s should match", key)
	}
}

// DefaultCatalog returns the embedded accounting catalog.
func DefaultCatalog(t *testing.T) *model.Catalog {
	t.Helper()

	catalog, err := model.Default()
	require.NoError(t, err)

	return catalog
}

// Endpoint looks up an endpoint of the catalog.
func Endpoint(t *testing.T, catalog *model.Catalog, name string) model.Endpoint {
	t.Helper()

	endpoint, ok := catalog.Endpoint(name)
	require.True(t, ok, "endpoint %s must exist", name)

	return endpoint
}
