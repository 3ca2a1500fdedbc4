package oauth

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/HallyG/xerograb/internal/log"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/int128/oauth2cli"
	"github.com/pkg/browser"
	"golang.org/x/oauth2"
	"golang.org/x/sync/errgroup"
)

const (
	XeroAuthURL  = "https://login.xero.com/identity/connect/authorize"
	XeroTokenURL = "https://identity.xero.com/connect/token"

	localServerBindAddress = "localhost:64131"
)

// DefaultScopes grant read access to the accounting endpoints and a refresh token.
var DefaultScopes = []string{
	"offline_access",
	"accounting.transactions.read",
	"accounting.reports.read",
	"accounting.contacts.read",
	"accounting.settings.read",
	"accounting.journals.read",
}

type Config struct {
	ClientID     string
	ClientSecret string
	AuthURL      string
	TokenURL     string
	Scopes       []string
}

// NewConfig returns a config for the Xero identity endpoints.
func NewConfig(clientID, clientSecret string) *Config {
	return &Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		AuthURL:      XeroAuthURL,
		TokenURL:     XeroTokenURL,
		Scopes:       DefaultScopes,
	}
}

func (c *Config) Validate(ctx context.Context) error {
	return validation.ValidateStructWithContext(ctx, c,
		validation.Field(&c.ClientID, validation.Required.Error("client id is required")),
		validation.Field(&c.ClientSecret, validation.Required.Error("client secret is required")),
		validation.Field(&c.AuthURL, validation.Required.Error("auth url is required")),
		validation.Field(&c.TokenURL, validation.Required.Error("token url is required")),
	)
}

func (c *Config) ToOAuth2Config() oauth2.Config {
	return oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:   c.AuthURL,
			TokenURL:  c.TokenURL,
			AuthStyle: oauth2.AuthStyleInHeader,
		},
		Scopes: c.Scopes,
	}
}

// Exchange runs the authorization code flow through a local callback server and the user's browser.
func Exchange(ctx context.Context, cfg *Config) (*oauth2.Token, error) {
	if err := cfg.Validate(ctx); err != nil {
		return nil, fmt.Errorf("invalid oauth2 config: %w", err)
	}

	ready := make(chan string, 1)
	defer close(ready)

	token, err := exchangeToken(ctx, ready, &oauth2cli.Config{
		OAuth2Config:           cfg.ToOAuth2Config(),
		LocalServerReadyChan:   ready,
		LocalServerBindAddress: []string{localServerBindAddress},
		Logf: func(format string, args ...any) {
			log.FromContext(ctx).Debug().Msgf(format, args...)
		},
	})
	if err != nil {
		return nil, err
	}

	log.FromContext(ctx).Debug().Time("expiry", token.Expiry).Msg("exchanged oauth token")

	return token, nil
}

func exchangeToken(ctx context.Context, ready chan string, cfg *oauth2cli.Config) (*oauth2.Token, error) {
	var token *oauth2.Token

	errg, ctx := errgroup.WithContext(ctx)
	errg.Go(func() error {
		return LoginWithBrowser(ctx, ready, browser.OpenURL)
	})

	errg.Go(func() error {
		oauthToken, err := oauth2cli.GetToken(ctx, *cfg)
		if err != nil {
			return fmt.Errorf("could not get oauth token: %w", err)
		}
		token = oauthToken
		return nil
	})

	if err := errg.Wait(); err != nil {
		return nil, fmt.Errorf("authorization error: %w", err)
	}

	return token, nil
}

func LoginWithBrowser(ctx context.Context, ready <-chan string, browserOpenUrlFn func(string) error) error {
	select {
	case loginURL := <-ready:
		logger := log.FromContext(ctx)
		logger.Info().Msg("you will be redirected to your web browser to complete the login process")
		logger.Info().Msgf("if the page did not open automatically, open this URL manually: %s", loginURL)

		if err := browserOpenUrlFn(loginURL); err != nil {
			logger.Warn().Err(err).Msg("could not open browser")
		}

		return nil
	case <-ctx.Done():
		return fmt.Errorf("context done while waiting for auth: %w", ctx.Err())
	}
}

// TokenSource refreshes the token when it expires. Xero rotates refresh tokens, so onRefresh receives
// every new token and should persist it.
func TokenSource(ctx context.Context, cfg *Config, token *oauth2.Token, onRefresh func(*oauth2.Token) error) oauth2.TokenSource {
	oauthCfg := cfg.ToOAuth2Config()

	return &notifyingTokenSource{
		base:      oauthCfg.TokenSource(ctx, token),
		current:   token,
		onRefresh: onRefresh,
	}
}

// NewHTTPClient returns a client that authenticates every request with the token source.
func NewHTTPClient(ctx context.Context, ts oauth2.TokenSource) *http.Client {
	return oauth2.NewClient(ctx, ts)
}

type notifyingTokenSource struct {
	mu        sync.Mutex
	base      oauth2.TokenSource
	current   *oauth2.Token
	onRefresh func(*oauth2.Token) error
}

func (s *notifyingTokenSource) Token() (*oauth2.Token, error) {
	token, err := s.base.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to refresh oauth token: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil && s.current.AccessToken == token.AccessToken {
		return token, nil
	}

	s.current = token
	if s.onRefresh != nil {
		if err := s.onRefresh(token); err != nil {
			return nil, fmt.Errorf("failed to store refreshed oauth token: %w", err)
		}
	}

	return token, nil
}
