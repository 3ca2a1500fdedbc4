package oauth_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/HallyG/xerograb/internal/oauth"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		name           string
		config         *oauth.Config
		expectedErrMsg string
	}{
		"valid config": {
			config: &oauth.Config{
				ClientID:     "test-client",
				ClientSecret: "test-secret",
				AuthURL:      "https://example.com/auth",
				TokenURL:     "https://example.com/token",
			},
		},
		"returns error when missing client ID": {
			config: &oauth.Config{
				ClientSecret: "test-secret",
				AuthURL:      "https://example.com/auth",
				TokenURL:     "https://example.com/token",
			},
			expectedErrMsg: "client id is required",
		},
		"returns error when missing client secret": {
			config: &oauth.Config{
				ClientID: "test-client",
				AuthURL:  "https://example.com/auth",
				TokenURL: "https://example.com/token",
			},
			expectedErrMsg: "client secret is required",
		},
		"returns error when missing auth URL": {
			config: &oauth.Config{
				ClientID:     "test-client",
				ClientSecret: "test-secret",
				TokenURL:     "https://example.com/token",
			},
			expectedErrMsg: "auth url is required",
		},
		"returns error when missing token URL": {
			config: &oauth.Config{
				ClientID:     "test-client",
				ClientSecret: "test-secret",
				AuthURL:      "https://example.com/auth",
			},
			expectedErrMsg: "token url is required",
		},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			err := test.config.Validate(t.Context())

			if test.expectedErrMsg != "" {
				require.ErrorContains(t, err, test.expectedErrMsg)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestConfigToOAuth2Config(t *testing.T) {
	t.Parallel()

	config := &oauth.Config{
		ClientID:     "test-client",
		ClientSecret: "test-secret",
		AuthURL:      "https://example.com/auth",
		TokenURL:     "https://example.com/token",
		Scopes:       []string{"read", "write"},
	}

	oauth2Config := config.ToOAuth2Config()

	require.Equal(t, "test-client", oauth2Config.ClientID)
	require.Equal(t, "test-secret", oauth2Config.ClientSecret)
	require.Equal(t, "https://example.com/auth", oauth2Config.Endpoint.AuthURL)
	require.Equal(t, "https://example.com/token", oauth2Config.Endpoint.TokenURL)
	require.Equal(t, []string{"read", "write"}, oauth2Config.Scopes)
}

func TestNewConfig(t *testing.T) {
	t.Parallel()

	config := oauth.NewConfig("test-client", "test-secret")

	require.NoError(t, config.Validate(t.Context()))
	require.Equal(t, oauth.XeroAuthURL, config.AuthURL)
	require.Equal(t, oauth.XeroTokenURL, config.TokenURL)
	require.Contains(t, config.Scopes, "offline_access")
}

func TestExchange(t *testing.T) {
	t.Parallel()

	t.Run("returns error when cancelled context", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(t.Context())
		cancel()

		token, err := oauth.Exchange(ctx, oauth.NewConfig("test-client", "test-secret"))

		require.ErrorContains(t, err, "context canceled")
		require.Nil(t, token)
	})

	t.Run("returns error when config invalid", func(t *testing.T) {
		t.Parallel()

		token, err := oauth.Exchange(t.Context(), &oauth.Config{})

		require.ErrorContains(t, err, "invalid oauth2 config")
		require.Nil(t, token)
	})
}

func TestTokenSource(t *testing.T) {
	t.Parallel()

	setup := func(t *testing.T) (*oauth.Config, *atomic.Int32) {
		t.Helper()

		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			require.NoError(t, r.ParseForm())
			require.Equal(t, "refresh_token", r.PostForm.Get("grant_type"))
			require.Equal(t, "refresh-1", r.PostForm.Get("refresh_token"))

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"access_token":"access-2","token_type":"Bearer","refresh_token":"refresh-2","expires_in":1800}`))
		}))
		t.Cleanup(server.Close)

		config := oauth.NewConfig("test-client", "test-secret")
		config.TokenURL = server.URL

		return config, &calls
	}

	t.Run("refreshes expired token and reports it once", func(t *testing.T) {
		t.Parallel()

		config, calls := setup(t)

		var refreshed []*oauth2.Token
		ts := oauth.TokenSource(t.Context(), config, &oauth2.Token{
			AccessToken:  "access-1",
			RefreshToken: "refresh-1",
			Expiry:       time.Now().Add(-time.Hour),
		}, func(token *oauth2.Token) error {
			refreshed = append(refreshed, token)
			return nil
		})

		for range 2 {
			token, err := ts.Token()
			require.NoError(t, err)
			require.Equal(t, "access-2", token.AccessToken)
		}

		require.Len(t, refreshed, 1)
		require.Equal(t, "refresh-2", refreshed[0].RefreshToken)
		require.Equal(t, int32(1), calls.Load())
	})

	t.Run("keeps valid token", func(t *testing.T) {
		t.Parallel()

		config, calls := setup(t)

		ts := oauth.TokenSource(t.Context(), config, &oauth2.Token{
			AccessToken:  "access-1",
			RefreshToken: "refresh-1",
			Expiry:       time.Now().Add(time.Hour),
		}, func(*oauth2.Token) error {
			t.Fatal("unexpected refresh")
			return nil
		})

		token, err := ts.Token()
		require.NoError(t, err)
		require.Equal(t, "access-1", token.AccessToken)
		require.Zero(t, calls.Load())
	})

	t.Run("returns error when refresh cannot be stored", func(t *testing.T) {
		t.Parallel()

		config, _ := setup(t)

		ts := oauth.TokenSource(t.Context(), config, &oauth2.Token{
			AccessToken:  "access-1",
			RefreshToken: "refresh-1",
			Expiry:       time.Now().Add(-time.Hour),
		}, func(*oauth2.Token) error {
			return errors.New("disk full")
		})

		_, err := ts.Token()
		require.EqualError(t, err, "failed to store refreshed oauth token: disk full")
	})

	t.Run("authenticates requests", func(t *testing.T) {
		t.Parallel()

		config, _ := setup(t)

		api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "Bearer access-1", r.Header.Get("Authorization"))
			w.WriteHeader(http.StatusNoContent)
		}))
		t.Cleanup(api.Close)

		client := oauth.NewHTTPClient(t.Context(), oauth.TokenSource(t.Context(), config, &oauth2.Token{
			AccessToken: "access-1",
			Expiry:      time.Now().Add(time.Hour),
		}, nil))

		resp, err := client.Get(api.URL)
		require.NoError(t, err)
		require.NoError(t, resp.Body.Close())
		require.Equal(t, http.StatusNoContent, resp.StatusCode)
	})
}

type stubBrowserFn struct {
	err         error
	capturedURL string
	callCount   int
}

func (s *stubBrowserFn) openURL(url string) error {
	s.capturedURL = url
	s.callCount++

	return s.err
}

func TestLoginWithBrowser(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		readyChannelFn func(t *testing.T) <-chan string
		browserFn      func(t *testing.T) *stubBrowserFn
		ctxFn          func(t *testing.T) context.Context
		expectedErr    string
		expectedURL    string
		expectedCalls  int
	}{
		"success with valid URL": {
			readyChannelFn: func(t *testing.T) <-chan string {
				t.Helper()

				ready := make(chan string, 1)
				ready <- "https://example.com/auth?client_id=test"
				close(ready)

				return ready
			},
			browserFn: func(t *testing.T) *stubBrowserFn {
				t.Helper()

				return &stubBrowserFn{}
			},
			ctxFn: func(t *testing.T) context.Context {
				t.Helper()

				ctx, cancel := context.WithCancel(t.Context())
				t.Cleanup(cancel)

				return ctx
			},
			expectedURL:   "https://example.com/auth?client_id=test",
			expectedCalls: 1,
		},
		"success with browser open failure": {
			readyChannelFn: func(t *testing.T) <-chan string {
				t.Helper()

				ready := make(chan string, 1)
				ready <- "https://example.com/auth"
				close(ready)

				return ready
			},
			browserFn: func(t *testing.T) *stubBrowserFn {
				t.Helper()

				return &stubBrowserFn{
					err: errors.New("browser failed to open"),
				}
			},
			ctxFn: func(t *testing.T) context.Context {
				t.Helper()

				ctx, cancel := context.WithCancel(t.Context())
				t.Cleanup(cancel)

				return ctx
			},
			expectedURL:   "https://example.com/auth",
			expectedCalls: 1,
		},
		"success with empty URL": {
			readyChannelFn: func(t *testing.T) <-chan string {
				t.Helper()

				ready := make(chan string, 1)
				ready <- ""
				close(ready)

				return ready
			},
			browserFn: func(t *testing.T) *stubBrowserFn {
				t.Helper()

				return &stubBrowserFn{}
			},
			ctxFn: func(t *testing.T) context.Context {
				t.Helper()

				ctx, cancel := context.WithCancel(t.Context())
				t.Cleanup(cancel)

				return ctx
			},
			expectedCalls: 1,
		},
		"returns error when context cancelled immediately": {
			readyChannelFn: func(t *testing.T) <-chan string {
				t.Helper()

				return make(chan string)
			},
			browserFn: func(t *testing.T) *stubBrowserFn {
				t.Helper()

				return &stubBrowserFn{}
			},
			ctxFn: func(t *testing.T) context.Context {
				t.Helper()

				ctx, cancel := context.WithCancel(t.Context())
				cancel()

				return ctx
			},
			expectedErr: "context done while waiting for auth: context canceled",
		},
		"returns error when context times out": {
			readyChannelFn: func(t *testing.T) <-chan string {
				t.Helper()

				return make(chan string)
			},
			browserFn: func(t *testing.T) *stubBrowserFn {
				t.Helper()

				return &stubBrowserFn{}
			},
			ctxFn: func(t *testing.T) context.Context {
				t.Helper()

				ctx, cancel := context.WithTimeout(t.Context(), 10*time.Millisecond)
				t.Cleanup(cancel)

				return ctx
			},
			expectedErr: "context done while waiting for auth: context deadline exceeded",
		},
		"success when URL arrives before context cancellation": {
			readyChannelFn: func(t *testing.T) <-chan string {
				t.Helper()

				ready := make(chan string, 1)
				// Send URL immediately so it's available before context cancellation
				ready <- "https://example.com/auth"

				close(ready)
				return ready
			},
			browserFn: func(t *testing.T) *stubBrowserFn {
				t.Helper()
				return &stubBrowserFn{}
			},
			ctxFn: func(t *testing.T) context.Context {
				t.Helper()

				ctx, cancel := context.WithCancel(t.Context())
				// Cancel after a short delay to simulate race condition
				go func() {
					time.Sleep(5 * time.Millisecond)
					cancel()
				}()

				return ctx
			},
			expectedURL:   "https://example.com/auth",
			expectedCalls: 1,
		},
		"success when ready channel is closed without sending": {
			readyChannelFn: func(t *testing.T) <-chan string {
				t.Helper()

				ready := make(chan string)
				close(ready)

				return ready
			},
			browserFn: func(t *testing.T) *stubBrowserFn {
				t.Helper()

				return &stubBrowserFn{}
			},
			ctxFn: func(t *testing.T) context.Context {
				t.Helper()

				ctx, cancel := context.WithCancel(t.Context())
				t.Cleanup(cancel)

				return ctx
			},
			expectedCalls: 1,
		},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			ctx := test.ctxFn(t)
			ready := test.readyChannelFn(t)
			browserFn := test.browserFn(t)

			err := oauth.LoginWithBrowser(ctx, ready, browserFn.openURL)

			if test.expectedErr != "" {
				require.ErrorContains(t, err, test.expectedErr)
			} else {
				require.NoError(t, err)
			}

			require.Equal(t, test.expectedCalls, browserFn.callCount)
			if test.expectedCalls > 0 {
				require.Equal(t, test.expectedURL, browserFn.capturedURL)
			}
		})
	}
}
