package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type HTTPTestRoute struct {
	Method  string
	URL     string // path pattern, e.g. "/Contacts". Must not be empty.
	Handler http.HandlerFunc
}

// NewHTTPTestServer serves the routes until the test finishes.
func NewHTTPTestServer(t *testing.T, routes []HTTPTestRoute) *httptest.Server {
	t.Helper()

	router := http.NewServeMux()

	for _, route := range routes {
		if route.URL == "" {
			t.Fatalf("HTTPTestRoute.URL must not be empty")
		}

		if route.Method == "" {
			t.Fatalf("HTTPTestRoute.Method must not be empty")
		}

		if route.Handler == nil {
			t.Fatalf("HTTPTestRoute.Handler must not be nil for route %s", route.URL)
		}

		pattern := fmt.Sprintf("%s %s", strings.ToUpper(strings.TrimSpace(route.Method)), route.URL)
		router.HandleFunc(pattern, route.Handler)
	}

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return server
}

// ServeJSONTestDataHandler replies with a file from testdata/api.
func ServeJSONTestDataHandler(t *testing.T, statusCode int, filename string) http.HandlerFunc {
	t.Helper()

	return func(w http.ResponseWriter, _ *http.Request) {
		WriteJSON(t, w, statusCode, LoadTestDataFile(t, filename))
	}
}

// ServeQueryTestDataHandler picks the testdata/api file by the value of a query parameter,
// e.g. {"1": "contacts_page_1.json", "2": "contacts_page_2.json"} keyed on "page".
// Unknown values get an empty JSON object.
func ServeQueryTestDataHandler(t *testing.T, param string, files map[string]string) http.HandlerFunc {
	t.Helper()

	return func(w http.ResponseWriter, r *http.Request) {
		filename, ok := files[r.URL.Query().Get(param)]
		if !ok {
			WriteJSON(t, w, http.StatusOK, []byte(`{}`))
			return
		}

		WriteJSON(t, w, http.StatusOK, LoadTestDataFile(t, filename))
	}
}

func WriteJSON(t *testing.T, w http.ResponseWriter, statusCode int, body []byte) {
	t.Helper()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	_, err := w.Write(body)
	assert.NoError(t, err, "failed to write test response")
}
